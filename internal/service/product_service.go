package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/pazar_api/internal/metrics"
	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/repository"
	"github.com/GTDGit/pazar_api/internal/utils"
	"github.com/GTDGit/pazar_api/pkg/storefront"
	"github.com/GTDGit/pazar_api/pkg/trendyol"
)

// ProductEndpoints are the storefront URLs used when a user has not
// configured their own.
type ProductEndpoints struct {
	SiteProductsURL    string
	SiteUpdatePriceURL string
}

// ProductService refreshes and edits the marketplace listing and storefront
// tables.
type ProductService struct {
	settings   SettingsStore
	listings   TrendyolStore
	sites      SiteStore
	scraper    ListingScraper
	storefront StorefrontAPI
	endpoints  ProductEndpoints
	metrics    *metrics.Metrics
}

func NewProductService(
	settings SettingsStore,
	listings TrendyolStore,
	sites SiteStore,
	scraper ListingScraper,
	sf StorefrontAPI,
	endpoints ProductEndpoints,
	m *metrics.Metrics,
) *ProductService {
	return &ProductService{
		settings:   settings,
		listings:   listings,
		sites:      sites,
		scraper:    scraper,
		storefront: sf,
		endpoints:  endpoints,
		metrics:    m,
	}
}

// ListTrendyol returns stored listings, newest first.
func (s *ProductService) ListTrendyol(ctx context.Context, userID int) ([]models.TrendyolProduct, error) {
	return s.listings.ListByUser(ctx, userID)
}

// ScrapeTrendyol scrapes the configured listing page and replaces the user's
// listings with the result.
func (s *ProductService) ScrapeTrendyol(ctx context.Context, userID int) ([]models.TrendyolProduct, error) {
	st, err := loadSettings(ctx, s.settings, userID, func(st *models.UserSettings) string {
		if strings.TrimSpace(st.TrendyolTargetURL) == "" {
			return "trendyol target url is not configured"
		}
		return ""
	})
	if err != nil {
		return nil, err
	}

	scraped, err := s.scraper.Scrape(ctx, st.TrendyolTargetURL)
	s.metrics.ProviderCall("trendyol", "scrape", err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrProvider, err)
	}

	rewrite := st.ReplaceGenelMarkalar && strings.TrimSpace(st.TrendyolBrandSlug) != ""
	rows := make([]models.TrendyolProduct, 0, len(scraped))
	index := make(map[string]int, len(scraped))
	for _, l := range scraped {
		link := l.Link
		if rewrite {
			link, _ = trendyol.ReplaceBrandSlug(link, st.TrendyolBrandSlug)
		}
		row := models.TrendyolProduct{
			UserID:          userID,
			Name:            l.Name,
			NormalPrice:     l.NormalPrice,
			DiscountedPrice: l.DiscountedPrice,
			Link:            link,
		}
		if i, ok := index[link]; ok {
			rows[i] = row
			continue
		}
		index[link] = len(rows)
		rows = append(rows, row)
	}

	if err := s.listings.Replace(ctx, userID, rows); err != nil {
		return nil, err
	}
	log.Info().Int("user_id", userID).Int("count", len(rows)).Msg("Trendyol listings replaced")
	return rows, nil
}

// LinkUpdateResult reports a brand-slug rewrite of stored links.
type LinkUpdateResult struct {
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// UpdateTrendyolLinks rewrites /genel-markalar/ links of stored listings to
// the configured brand slug.
func (s *ProductService) UpdateTrendyolLinks(ctx context.Context, userID int) (*LinkUpdateResult, error) {
	st, err := loadSettings(ctx, s.settings, userID, func(st *models.UserSettings) string {
		if !st.ReplaceGenelMarkalar {
			return "genel-markalar replacement is disabled"
		}
		if strings.TrimSpace(st.TrendyolBrandSlug) == "" {
			return "trendyol brand slug is not configured"
		}
		return ""
	})
	if err != nil {
		return nil, err
	}

	rows, err := s.listings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var updates []repository.LinkUpdate
	for _, r := range rows {
		if link, changed := trendyol.ReplaceBrandSlug(r.Link, st.TrendyolBrandSlug); changed {
			updates = append(updates, repository.LinkUpdate{ID: r.ID, NewLink: link})
		}
	}
	if len(updates) == 0 {
		return &LinkUpdateResult{}, nil
	}

	updated, deleted, err := s.listings.UpdateLinks(ctx, userID, updates)
	if err != nil {
		return nil, err
	}
	return &LinkUpdateResult{Updated: updated, Deleted: deleted}, nil
}

// ListSite returns the stored storefront products.
func (s *ProductService) ListSite(ctx context.Context, userID int) ([]models.SiteProduct, error) {
	return s.sites.ListByUser(ctx, userID)
}

// RefreshSite downloads the storefront feed and replaces the user's rows.
// Rows without a key are dropped; duplicate keys keep the last row.
func (s *ProductService) RefreshSite(ctx context.Context, userID int) ([]models.SiteProduct, error) {
	st, err := loadSettings(ctx, s.settings, userID, nil)
	if err != nil {
		return nil, err
	}
	feedURL := firstNonEmpty(st.SiteProductsAPIURL, s.endpoints.SiteProductsURL)
	if feedURL == "" {
		return nil, fmt.Errorf("%w: storefront products url is not configured", utils.ErrSettingsMissing)
	}

	feed, err := s.storefront.FetchProducts(ctx, feedURL)
	s.metrics.ProviderCall("storefront", "fetch_products", err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrProvider, err)
	}

	rows := make([]models.SiteProduct, 0, len(feed))
	index := make(map[string]int, len(feed))
	for _, p := range feed {
		key := strings.TrimSpace(p.TrendyolKey)
		if key == "" {
			continue
		}
		row := models.SiteProduct{
			UserID:      userID,
			TrendyolKey: key,
			Barcode:     strings.TrimSpace(p.Barcode),
			SitePrice:   strings.TrimSpace(string(p.SitePrice)),
		}
		if i, ok := index[key]; ok {
			rows[i] = row
			continue
		}
		index[key] = len(rows)
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %v", utils.ErrProvider, storefront.ErrEmptyFeed)
	}

	if err := s.sites.Replace(ctx, userID, rows); err != nil {
		return nil, err
	}
	log.Info().Int("user_id", userID).Int("count", len(rows)).Msg("Storefront products replaced")
	return rows, nil
}

// PriceUpdate is one storefront price change.
type PriceUpdate struct {
	TrendyolKey  string          `json:"trendyolKey" binding:"required"`
	NewSitePrice decimal.Decimal `json:"newSitePrice"`
}

// PriceUpdateOutcome reports one update of a bulk push.
type PriceUpdateOutcome struct {
	TrendyolKey string `json:"trendyolKey"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
}

// BulkPriceResult reports partial success of a bulk push.
type BulkPriceResult struct {
	SuccessCount int                  `json:"successCount"`
	FailCount    int                  `json:"failCount"`
	Results      []PriceUpdateOutcome `json:"results"`
}

// UpdateSitePrice pushes one new price to the storefront and mirrors it in
// the local table.
func (s *ProductService) UpdateSitePrice(ctx context.Context, userID int, u PriceUpdate) (string, error) {
	if strings.TrimSpace(u.TrendyolKey) == "" || !u.NewSitePrice.IsPositive() {
		return "", fmt.Errorf("%w: trendyolKey and a positive newSitePrice are required", utils.ErrInvalidRequest)
	}
	st, err := loadSettings(ctx, s.settings, userID, nil)
	if err != nil {
		return "", err
	}
	return s.updateSitePrice(ctx, userID, st, u)
}

// UpdateSitePrices pushes each update in order; failures do not stop the
// loop.
func (s *ProductService) UpdateSitePrices(ctx context.Context, userID int, updates []PriceUpdate) (*BulkPriceResult, error) {
	st, err := loadSettings(ctx, s.settings, userID, nil)
	if err != nil {
		return nil, err
	}

	res := &BulkPriceResult{Results: make([]PriceUpdateOutcome, 0, len(updates))}
	for _, u := range updates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		msg, err := s.updateSitePrice(ctx, userID, st, u)
		out := PriceUpdateOutcome{TrendyolKey: u.TrendyolKey, Success: err == nil, Message: msg}
		if err != nil {
			out.Message = err.Error()
			res.FailCount++
		} else {
			res.SuccessCount++
		}
		res.Results = append(res.Results, out)
	}
	return res, nil
}

func (s *ProductService) updateSitePrice(ctx context.Context, userID int, st *models.UserSettings, u PriceUpdate) (string, error) {
	if strings.TrimSpace(u.TrendyolKey) == "" || !u.NewSitePrice.IsPositive() {
		return "", fmt.Errorf("%w: trendyolKey and a positive newSitePrice are required", utils.ErrInvalidRequest)
	}
	updateURL := firstNonEmpty(st.SiteUpdatePriceAPIURL, s.endpoints.SiteUpdatePriceURL)
	if updateURL == "" {
		return "", fmt.Errorf("%w: storefront update url is not configured", utils.ErrSettingsMissing)
	}

	price := u.NewSitePrice.Round(2)
	msg, err := s.storefront.UpdatePrice(ctx, updateURL, u.TrendyolKey, price)
	s.metrics.ProviderCall("storefront", "update_price", err)
	if err != nil {
		var upErr *storefront.UpdateError
		if errors.As(err, &upErr) {
			return "", fmt.Errorf("%w: %s", utils.ErrProvider, upErr.Message)
		}
		return "", fmt.Errorf("%w: %v", utils.ErrProvider, err)
	}

	if err := s.sites.UpdatePrice(ctx, userID, u.TrendyolKey, price.String()); err != nil && !errors.Is(err, utils.ErrNotFound) {
		log.Warn().Err(err).Int("user_id", userID).Str("trendyol_key", u.TrendyolKey).Msg("Local site price not updated")
	}
	return msg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
