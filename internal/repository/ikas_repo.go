package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/pazar_api/internal/models"
)

// IkasRepository handles data access for İKAS variants.
type IkasRepository struct {
	db *sqlx.DB
}

// NewIkasRepository creates a new IkasRepository.
func NewIkasRepository(db *sqlx.DB) *IkasRepository {
	return &IkasRepository{db: db}
}

// ListByUser returns the user's variants in sync order.
func (r *IkasRepository) ListByUser(ctx context.Context, userID int) ([]models.IkasProduct, error) {
	out := []models.IkasProduct{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_id, product_id, variant_id, name, sku, barcode,
		       normal_price, discounted_price, buy_price, created_at
		FROM ikas_products
		WHERE user_id = $1
		ORDER BY id`, userID)
	return out, err
}

// Replace swaps the user's variants for rows.
func (r *IkasRepository) Replace(ctx context.Context, userID int, rows []models.IkasProduct) error {
	for i := range rows {
		rows[i].UserID = userID
	}
	const q = `
		INSERT INTO ikas_products (user_id, product_id, variant_id, name, sku, barcode, normal_price, discounted_price, buy_price)
		VALUES (:user_id, :product_id, :variant_id, :name, :sku, :barcode, :normal_price, :discounted_price, :buy_price)`
	return replaceUserRows(ctx, r.db, "ikas_products", userID, q, rows)
}
