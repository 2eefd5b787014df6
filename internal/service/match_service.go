package service

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/GTDGit/pazar_api/internal/metrics"
	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/pricing"
	"github.com/GTDGit/pazar_api/pkg/sheet"
)

// MatchService runs the price reconciliation over a user's stored tables.
type MatchService struct {
	mappings MatchingStore
	listings TrendyolStore
	sites    SiteStore
	catalog  IkasStore
	metrics  *metrics.Metrics
}

func NewMatchService(mappings MatchingStore, listings TrendyolStore, sites SiteStore, catalog IkasStore, m *metrics.Metrics) *MatchService {
	return &MatchService{mappings: mappings, listings: listings, sites: sites, catalog: catalog, metrics: m}
}

// Compare returns the overpriced storefront products with their target
// price, or a *pricing.MissingDataError naming the empty table.
func (s *MatchService) Compare(ctx context.Context, userID int) ([]pricing.MatchResult, error) {
	var (
		mappings []models.MatchingRow
		listings []models.TrendyolProduct
		sites    []models.SiteProduct
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { mappings, err = s.mappings.ListByUser(gctx, userID); return })
	g.Go(func() (err error) { listings, err = s.listings.ListByUser(gctx, userID); return })
	g.Go(func() (err error) { sites, err = s.sites.ListByUser(gctx, userID); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	products := make([]pricing.StorefrontProduct, len(sites))
	for i, p := range sites {
		products[i] = pricing.StorefrontProduct{ExternalKey: p.TrendyolKey, Barcode: p.Barcode, Price: p.SitePrice}
	}
	res, err := pricing.Reconcile(toLinkMappings(mappings), toListings(listings), products)
	s.metrics.Reconciled("compare", len(res), err)
	return res, err
}

// Export returns every catalog variant of the matched products for a bulk
// İKAS price push.
func (s *MatchService) Export(ctx context.Context, userID int) ([]pricing.CatalogMatchResult, error) {
	var (
		mappings []models.MatchingRow
		listings []models.TrendyolProduct
		variants []models.IkasProduct
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { mappings, err = s.mappings.ListByUser(gctx, userID); return })
	g.Go(func() (err error) { listings, err = s.listings.ListByUser(gctx, userID); return })
	g.Go(func() (err error) { variants, err = s.catalog.ListByUser(gctx, userID); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	catalog := make([]pricing.CatalogVariant, len(variants))
	for i, v := range variants {
		catalog[i] = pricing.CatalogVariant{
			ProductID:       v.ProductID,
			VariantID:       v.VariantID,
			Name:            v.Name,
			SKU:             v.SKU,
			Barcode:         v.Barcode,
			NormalPrice:     v.NormalPrice,
			DiscountedPrice: v.DiscountedPrice,
			BuyPrice:        v.BuyPrice,
		}
	}
	res, err := pricing.ReconcileForCatalogPush(toLinkMappings(mappings), toListings(listings), catalog)
	s.metrics.Reconciled("export", len(res), err)
	return res, err
}

var compareHeaders = []string{"Ürün Adı", "Trendyol Linki", "Barkod", "Site Fiyatı", "Trendyol Fiyatı", "Yeni Fiyat"}

// WriteCompareXLSX writes Compare results as a workbook.
func WriteCompareXLSX(w io.Writer, results []pricing.MatchResult) error {
	rows := make([][]any, len(results))
	for i, r := range results {
		rows[i] = []any{
			r.ProductName,
			r.TrendyolKey,
			r.Barcode,
			r.SitePrice.InexactFloat64(),
			r.TrendyolNormalPrice.InexactFloat64(),
			r.NewPrice.Round(2).InexactFloat64(),
		}
	}
	return sheet.WriteXLSX(w, "Karşılaştırma", compareHeaders, rows)
}

var exportHeaders = []string{
	"Ürün ID", "Varyant ID", "Ürün Adı", "Barkod", "Trendyol Linki", "Yeni Fiyat",
	"İKAS Satış Fiyatı", "İKAS İndirimli Fiyat", "İKAS Alış Fiyatı",
	"Trendyol Fiyatı", "Trendyol İndirimli Fiyat",
}

// WriteExportXLSX writes Export results as a workbook.
func WriteExportXLSX(w io.Writer, results []pricing.CatalogMatchResult) error {
	rows := make([][]any, len(results))
	for i, r := range results {
		rows[i] = []any{
			r.ProductID,
			r.VariantID,
			r.ProductName,
			r.Barcode,
			r.TrendyolLink,
			r.NewPrice.Round(2).InexactFloat64(),
			r.IkasNormalPrice.InexactFloat64(),
			r.IkasDiscountedPrice.InexactFloat64(),
			r.IkasBuyPrice.InexactFloat64(),
			r.TrendyolNormalPrice.InexactFloat64(),
			r.TrendyolDiscountedPrice.InexactFloat64(),
		}
	}
	return sheet.WriteXLSX(w, "İKAS Fiyatları", exportHeaders, rows)
}

func toLinkMappings(rows []models.MatchingRow) []pricing.LinkMapping {
	out := make([]pricing.LinkMapping, len(rows))
	for i, r := range rows {
		out[i] = pricing.LinkMapping{Link: r.TrendyolLink, Barcode: r.Barcode}
	}
	return out
}

func toListings(rows []models.TrendyolProduct) []pricing.Listing {
	out := make([]pricing.Listing, len(rows))
	for i, r := range rows {
		out[i] = pricing.Listing{
			Link:            r.Link,
			Name:            r.Name,
			NormalPrice:     r.NormalPrice,
			DiscountedPrice: r.DiscountedPrice,
		}
	}
	return out
}
