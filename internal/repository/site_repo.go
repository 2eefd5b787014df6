package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/pazar_api/internal/models"
)

// SiteRepository handles data access for storefront products.
type SiteRepository struct {
	db *sqlx.DB
}

// NewSiteRepository creates a new SiteRepository.
func NewSiteRepository(db *sqlx.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// ListByUser returns the user's storefront products in key order.
func (r *SiteRepository) ListByUser(ctx context.Context, userID int) ([]models.SiteProduct, error) {
	out := []models.SiteProduct{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_id, trendyol_key, barcode, site_price, created_at
		FROM site_products
		WHERE user_id = $1
		ORDER BY trendyol_key`, userID)
	return out, err
}

// Replace swaps the user's storefront products for rows.
func (r *SiteRepository) Replace(ctx context.Context, userID int, rows []models.SiteProduct) error {
	for i := range rows {
		rows[i].UserID = userID
	}
	const q = `
		INSERT INTO site_products (user_id, trendyol_key, barcode, site_price)
		VALUES (:user_id, :trendyol_key, :barcode, :site_price)`
	return replaceUserRows(ctx, r.db, "site_products", userID, q, rows)
}

// UpdatePrice records a price pushed to the storefront.
func (r *SiteRepository) UpdatePrice(ctx context.Context, userID int, trendyolKey, price string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE site_products SET site_price = $1 WHERE user_id = $2 AND trendyol_key = $3`,
		price, userID, trendyolKey)
	return err
}
