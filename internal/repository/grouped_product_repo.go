package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GTDGit/pazar_api/internal/database"
	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/utils"
)

// GroupedProductRepository handles data access for grouped products.
type GroupedProductRepository struct {
	db *sqlx.DB
}

// NewGroupedProductRepository creates a new GroupedProductRepository.
func NewGroupedProductRepository(db *sqlx.DB) *GroupedProductRepository {
	return &GroupedProductRepository{db: db}
}

const groupedColumns = `
	g.id, g.user_id, g.group_id, g.name, g.stock_code, g.variants, g.image_urls,
	g.total_stock, g.created_at, g.updated_at`

// ListByUser returns the user's grouped products with the previously-sent hint.
func (r *GroupedProductRepository) ListByUser(ctx context.Context, userID int) ([]models.GroupedProduct, error) {
	out := []models.GroupedProduct{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+groupedColumns+`,
		       EXISTS (
		           SELECT 1 FROM instagram_sent_items s
		           WHERE s.user_id = g.user_id AND s.product_id = g.id
		       ) AS previously_sent
		FROM grouped_products g
		WHERE g.user_id = $1
		ORDER BY g.name, g.id`, userID)
	return out, err
}

// GetByID returns one grouped product or utils.ErrNotFound.
func (r *GroupedProductRepository) GetByID(ctx context.Context, userID, id int) (*models.GroupedProduct, error) {
	var g models.GroupedProduct
	err := r.db.GetContext(ctx, &g, `
		SELECT `+groupedColumns+`
		FROM grouped_products g
		WHERE g.id = $1 AND g.user_id = $2`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByIDs returns the requested products in the order of ids. Unknown ids
// are skipped.
func (r *GroupedProductRepository) GetByIDs(ctx context.Context, userID int, ids []int) ([]models.GroupedProduct, error) {
	var rows []models.GroupedProduct
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+groupedColumns+`
		FROM grouped_products g
		WHERE g.user_id = $1 AND g.id = ANY($2)`, userID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[int]models.GroupedProduct, len(rows))
	for _, g := range rows {
		byID[g.ID] = g
	}
	out := make([]models.GroupedProduct, 0, len(rows))
	for _, id := range ids {
		if g, ok := byID[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// UpsertMany inserts or updates products keyed on (user_id, group_id).
func (r *GroupedProductRepository) UpsertMany(ctx context.Context, userID int, products []models.GroupedProduct) error {
	for i := range products {
		products[i].UserID = userID
	}
	const q = `
		INSERT INTO grouped_products (user_id, group_id, name, stock_code, variants, image_urls, total_stock)
		VALUES (:user_id, :group_id, :name, :stock_code, :variants, :image_urls, :total_stock)
		ON CONFLICT (user_id, group_id) DO UPDATE SET
			name = EXCLUDED.name,
			stock_code = EXCLUDED.stock_code,
			variants = EXCLUDED.variants,
			image_urls = EXCLUDED.image_urls,
			total_stock = EXCLUDED.total_stock,
			updated_at = NOW()`

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, chunk := range Chunk(products, InsertChunkSize) {
			if _, err := tx.NamedExecContext(ctx, q, chunk); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes one product. A missing row yields utils.ErrNotFound.
func (r *GroupedProductRepository) Delete(ctx context.Context, userID, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grouped_products WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrNotFound
	}
	return nil
}
