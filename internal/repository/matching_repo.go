package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/pazar_api/internal/models"
)

// MatchingRepository handles data access for the link mapping table.
type MatchingRepository struct {
	db *sqlx.DB
}

// NewMatchingRepository creates a new MatchingRepository.
func NewMatchingRepository(db *sqlx.DB) *MatchingRepository {
	return &MatchingRepository{db: db}
}

// ListByUser returns the mapping rows in upload order.
func (r *MatchingRepository) ListByUser(ctx context.Context, userID int) ([]models.MatchingRow, error) {
	out := []models.MatchingRow{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_id, barcode, trendyol_link, created_at
		FROM matching_data
		WHERE user_id = $1
		ORDER BY id`, userID)
	return out, err
}

// Replace swaps the user's mapping for rows.
func (r *MatchingRepository) Replace(ctx context.Context, userID int, rows []models.MatchingRow) error {
	for i := range rows {
		rows[i].UserID = userID
	}
	const q = `
		INSERT INTO matching_data (user_id, barcode, trendyol_link)
		VALUES (:user_id, :barcode, :trendyol_link)`
	return replaceUserRows(ctx, r.db, "matching_data", userID, q, rows)
}

// DeleteAll clears the user's mapping.
func (r *MatchingRepository) DeleteAll(ctx context.Context, userID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM matching_data WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
