package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/utils"
	"github.com/GTDGit/pazar_api/pkg/storefront"
	"github.com/GTDGit/pazar_api/pkg/trendyol"
)

func TestScrapeTrendyolRequiresTargetURL(t *testing.T) {
	s := NewProductService(newFakeSettings(), &fakeTrendyol{}, &fakeSites{}, &fakeScraper{}, &fakeStorefront{}, ProductEndpoints{}, nil)

	_, err := s.ScrapeTrendyol(context.Background(), 1)

	assert.ErrorIs(t, err, utils.ErrSettingsMissing)
}

func TestScrapeTrendyolRewritesBrandAndKeepsLastDuplicate(t *testing.T) {
	settings := newFakeSettings(models.UserSettings{
		UserID:               1,
		TrendyolTargetURL:    "https://www.trendyol.com/sr?mid=1",
		TrendyolBrandSlug:    "swass",
		ReplaceGenelMarkalar: true,
	})
	listings := &fakeTrendyol{}
	scraper := &fakeScraper{listings: []trendyol.Listing{
		{Name: "Elbise", NormalPrice: "1.000 TL", Link: "https://www.trendyol.com/genel-markalar/elbise-p-1"},
		{Name: "Bluz", NormalPrice: "500 TL", Link: "https://www.trendyol.com/swass/bluz-p-2"},
		{Name: "Elbise Yeni", NormalPrice: "900 TL", Link: "https://www.trendyol.com/genel-markalar/elbise-p-1"},
	}}
	s := NewProductService(settings, listings, &fakeSites{}, scraper, &fakeStorefront{}, ProductEndpoints{}, nil)

	rows, err := s.ScrapeTrendyol(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "https://www.trendyol.com/swass/elbise-p-1", rows[0].Link)
	assert.Equal(t, "Elbise Yeni", rows[0].Name)
	assert.Equal(t, "Bluz", rows[1].Name)
	assert.Equal(t, rows, listings.rows)
}

func TestUpdateTrendyolLinks(t *testing.T) {
	settings := newFakeSettings(models.UserSettings{UserID: 1, TrendyolBrandSlug: "swass", ReplaceGenelMarkalar: true})
	listings := &fakeTrendyol{rows: []models.TrendyolProduct{
		{ID: 1, Link: "https://www.trendyol.com/genel-markalar/a-p-1"},
		{ID: 2, Link: "https://www.trendyol.com/swass/b-p-2"},
	}}
	s := NewProductService(settings, listings, &fakeSites{}, &fakeScraper{}, &fakeStorefront{}, ProductEndpoints{}, nil)

	res, err := s.UpdateTrendyolLinks(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, listings.updates, 1)
	assert.Equal(t, 1, listings.updates[0].ID)
	assert.Equal(t, "https://www.trendyol.com/swass/a-p-1", listings.updates[0].NewLink)
}

func TestRefreshSiteDropsEmptyKeysAndKeepsLast(t *testing.T) {
	sites := &fakeSites{}
	sf := &fakeStorefront{products: []storefront.Product{
		{TrendyolKey: "K1", Barcode: "B1", SitePrice: "100"},
		{TrendyolKey: " ", Barcode: "B0", SitePrice: "1"},
		{TrendyolKey: "K2", Barcode: "B2", SitePrice: "200"},
		{TrendyolKey: "K1", Barcode: "B1", SitePrice: "110"},
	}}
	s := NewProductService(newFakeSettings(), &fakeTrendyol{}, sites, &fakeScraper{}, sf,
		ProductEndpoints{SiteProductsURL: "https://shop.test/feed"}, nil)

	rows, err := s.RefreshSite(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "K1", rows[0].TrendyolKey)
	assert.Equal(t, "110", rows[0].SitePrice)
	assert.Equal(t, "K2", rows[1].TrendyolKey)
}

func TestRefreshSiteEmptyFeedIsProviderError(t *testing.T) {
	s := NewProductService(newFakeSettings(), &fakeTrendyol{}, &fakeSites{}, &fakeScraper{}, &fakeStorefront{},
		ProductEndpoints{SiteProductsURL: "https://shop.test/feed"}, nil)

	_, err := s.RefreshSite(context.Background(), 1)

	assert.ErrorIs(t, err, utils.ErrProvider)
}

func TestUpdateSitePricesReportsPartialSuccess(t *testing.T) {
	sites := &fakeSites{}
	sf := &fakeStorefront{failKeys: map[string]bool{"K2": true}}
	settings := newFakeSettings(models.UserSettings{UserID: 1, SiteUpdatePriceAPIURL: "https://shop.test/custom"})
	s := NewProductService(settings, &fakeTrendyol{}, sites, &fakeScraper{}, sf,
		ProductEndpoints{SiteUpdatePriceURL: "https://shop.test/update"}, nil)

	res, err := s.UpdateSitePrices(context.Background(), 1, []PriceUpdate{
		{TrendyolKey: "K1", NewSitePrice: decimal.RequireFromString("855.555")},
		{TrendyolKey: "K2", NewSitePrice: decimal.NewFromInt(100)},
		{TrendyolKey: "K3", NewSitePrice: decimal.Zero},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 2, res.FailCount)
	require.Len(t, res.Results, 3)
	assert.True(t, res.Results[0].Success)
	assert.Contains(t, res.Results[1].Message, "ürün bulunamadı")
	assert.Equal(t, "https://shop.test/custom", sf.updateURL)
	assert.True(t, sf.pushed["K1"].Equal(decimal.RequireFromString("855.56")))
	assert.Equal(t, "855.56", sites.updated["K1"])
}
