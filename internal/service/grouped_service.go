package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/internal/catalog"
	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/utils"
	"github.com/GTDGit/pazar_api/pkg/sheet"
)

// SheetPreview describes an uploaded file before it is grouped.
type SheetPreview struct {
	Columns  []sheet.ColumnPreview `json:"columns"`
	RowCount int                   `json:"rowCount"`
}

// GroupUploadResult reports a grouped-product upload.
type GroupUploadResult struct {
	TotalRows         int                     `json:"totalRows"`
	ProductsWithStock int                     `json:"productsWithStock"`
	GroupedCount      int                     `json:"groupedCount"`
	Products          []models.GroupedProduct `json:"products"`
}

// GroupedService builds grouped products from catalog exports.
type GroupedService struct {
	products GroupedStore
}

func NewGroupedService(products GroupedStore) *GroupedService {
	return &GroupedService{products: products}
}

// Preview parses the file and returns its columns with a sample value each.
func (s *GroupedService) Preview(filename string, r io.Reader) (*SheetPreview, error) {
	tbl, err := sheet.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidRequest, err)
	}
	return &SheetPreview{Columns: tbl.Preview(), RowCount: len(tbl.Rows)}, nil
}

// Upload groups the stocked rows of the file and upserts them on
// (user, group id).
func (s *GroupedService) Upload(ctx context.Context, userID int, filename string, r io.Reader) (*GroupUploadResult, error) {
	tbl, err := sheet.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidRequest, err)
	}
	grouped, err := catalog.GroupRows(tbl)
	if err != nil {
		var mc *catalog.MissingColumnsError
		if errors.As(err, &mc) {
			return nil, fmt.Errorf("%w: %v", utils.ErrInvalidRequest, err)
		}
		return nil, err
	}

	if len(grouped.Products) > 0 {
		if err := s.products.UpsertMany(ctx, userID, grouped.Products); err != nil {
			return nil, err
		}
	}
	log.Info().
		Int("user_id", userID).
		Int("rows", grouped.TotalRows).
		Int("groups", len(grouped.Products)).
		Msg("Grouped products upserted")

	return &GroupUploadResult{
		TotalRows:         grouped.TotalRows,
		ProductsWithStock: grouped.ProductsWithStock,
		GroupedCount:      len(grouped.Products),
		Products:          grouped.Products,
	}, nil
}

func (s *GroupedService) List(ctx context.Context, userID int) ([]models.GroupedProduct, error) {
	return s.products.ListByUser(ctx, userID)
}

func (s *GroupedService) Get(ctx context.Context, userID, id int) (*models.GroupedProduct, error) {
	return s.products.GetByID(ctx, userID, id)
}

func (s *GroupedService) Delete(ctx context.Context, userID, id int) error {
	return s.products.Delete(ctx, userID, id)
}
