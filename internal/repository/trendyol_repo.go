package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/pazar_api/internal/database"
	"github.com/GTDGit/pazar_api/internal/models"
)

// TrendyolRepository handles data access for scraped marketplace listings.
type TrendyolRepository struct {
	db *sqlx.DB
}

// NewTrendyolRepository creates a new TrendyolRepository.
func NewTrendyolRepository(db *sqlx.DB) *TrendyolRepository {
	return &TrendyolRepository{db: db}
}

// ListByUser returns the user's listings, newest first.
func (r *TrendyolRepository) ListByUser(ctx context.Context, userID int) ([]models.TrendyolProduct, error) {
	out := []models.TrendyolProduct{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_id, name, normal_price, discounted_price, link, created_at
		FROM trendyol_products
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	return out, err
}

// Replace swaps the user's listings for rows. Links must be unique in rows.
func (r *TrendyolRepository) Replace(ctx context.Context, userID int, rows []models.TrendyolProduct) error {
	for i := range rows {
		rows[i].UserID = userID
	}
	const q = `
		INSERT INTO trendyol_products (user_id, name, normal_price, discounted_price, link)
		VALUES (:user_id, :name, :normal_price, :discounted_price, :link)`
	return replaceUserRows(ctx, r.db, "trendyol_products", userID, q, rows)
}

// LinkUpdate rewrites the link of one stored listing.
type LinkUpdate struct {
	ID      int
	NewLink string
}

// UpdateLinks applies updates in one transaction. A row whose new link is
// already taken by another row of the same user is deleted instead.
func (r *TrendyolRepository) UpdateLinks(ctx context.Context, userID int, updates []LinkUpdate) (updated, deleted int, err error) {
	const upd = `
		UPDATE trendyol_products SET link = $1
		WHERE id = $2 AND user_id = $3
		  AND NOT EXISTS (
			SELECT 1 FROM trendyol_products
			WHERE user_id = $3 AND link = $1 AND id <> $2
		  )`
	const del = `DELETE FROM trendyol_products WHERE id = $1 AND user_id = $2`

	err = database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, u := range updates {
			res, err := tx.ExecContext(ctx, upd, u.NewLink, u.ID, userID)
			if err != nil {
				return fmt.Errorf("update link %d: %w", u.ID, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				updated++
				continue
			}
			if _, err := tx.ExecContext(ctx, del, u.ID, userID); err != nil {
				return fmt.Errorf("delete duplicate %d: %w", u.ID, err)
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return updated, deleted, nil
}
