package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/pazar_api/internal/models"
)

// PublishLogRepository handles the Telegram and Instagram audit tables.
type PublishLogRepository struct {
	db *sqlx.DB
}

// NewPublishLogRepository creates a new PublishLogRepository.
func NewPublishLogRepository(db *sqlx.DB) *PublishLogRepository {
	return &PublishLogRepository{db: db}
}

// CreateTelegramLog appends one Telegram send attempt.
func (r *PublishLogRepository) CreateTelegramLog(ctx context.Context, l *models.TelegramLog) error {
	const q = `
		INSERT INTO telegram_logs (user_id, product_name, product_slug, stock_count, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, sent_at`
	return r.db.QueryRowxContext(ctx, q, l.UserID, l.ProductName, l.ProductSlug, l.StockCount, l.Status, l.ErrorMessage).
		Scan(&l.ID, &l.SentAt)
}

// ListTelegramLogs returns the latest limit entries, newest first.
func (r *PublishLogRepository) ListTelegramLogs(ctx context.Context, userID, limit int) ([]models.TelegramLog, error) {
	out := []models.TelegramLog{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_id, product_name, product_slug, stock_count, status, error_message, sent_at
		FROM telegram_logs
		WHERE user_id = $1
		ORDER BY sent_at DESC, id DESC
		LIMIT $2`, userID, limit)
	return out, err
}

// CreateInstagramLog appends one terminal Instagram job.
func (r *PublishLogRepository) CreateInstagramLog(ctx context.Context, l *models.InstagramPublishLog) error {
	const q = `
		INSERT INTO instagram_publish_logs (user_id, job_id, product_name, grouped_product_id, image_count, status, media_id, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, sent_at`
	return r.db.QueryRowxContext(ctx, q,
		l.UserID, l.JobID, l.ProductName, l.GroupedProductID, l.ImageCount, l.Status, l.MediaID, l.ErrorMessage,
	).Scan(&l.ID, &l.SentAt)
}

// ListInstagramLogs returns the latest limit entries, newest first.
func (r *PublishLogRepository) ListInstagramLogs(ctx context.Context, userID, limit int) ([]models.InstagramPublishLog, error) {
	out := []models.InstagramPublishLog{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_id, job_id, product_name, grouped_product_id, image_count, status, media_id, error_message, sent_at
		FROM instagram_publish_logs
		WHERE user_id = $1
		ORDER BY sent_at DESC, id DESC
		LIMIT $2`, userID, limit)
	return out, err
}

// MarkInstagramSent upserts the sent marker for a grouped product.
func (r *PublishLogRepository) MarkInstagramSent(ctx context.Context, userID, productID int) error {
	const q = `
		INSERT INTO instagram_sent_items (user_id, product_id, sent_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, product_id) DO UPDATE SET sent_at = NOW()`
	_, err := r.db.ExecContext(ctx, q, userID, productID)
	return err
}

// ListInstagramSent returns the sent markers, newest first.
func (r *PublishLogRepository) ListInstagramSent(ctx context.Context, userID int) ([]models.InstagramSentItem, error) {
	out := []models.InstagramSentItem{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT user_id, product_id, sent_at
		FROM instagram_sent_items
		WHERE user_id = $1
		ORDER BY sent_at DESC`, userID)
	return out, err
}
