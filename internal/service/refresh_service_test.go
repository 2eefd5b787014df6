package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/pkg/ikas"
	"github.com/GTDGit/pazar_api/pkg/storefront"
)

func TestRefreshRunAllContinuesPastFailures(t *testing.T) {
	settings := newFakeSettings(
		models.UserSettings{UserID: 1, SiteProductsAPIURL: "https://shop.test/feed"},
		models.UserSettings{UserID: 2, IkasClientID: "id", IkasClientSecret: "s", IkasStoreName: "store"},
		models.UserSettings{UserID: 3},
	)
	tokens := newFakeTokens()
	// An empty feed fails user 1; user 2 syncs one variant.
	products := NewProductService(settings, &fakeTrendyol{}, &fakeSites{}, &fakeScraper{}, &fakeStorefront{products: []storefront.Product{}}, ProductEndpoints{}, nil)
	ikasSvc := NewIkasService(settings, &fakeIkasStore{}, tokens, &fakeIkasAPI{variants: []ikas.Variant{{ProductID: "p", VariantID: "v"}}}, nil)
	s := NewRefreshService(settings, products, ikasSvc, tokens)

	refreshed, failed, err := s.RunAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, refreshed)
	assert.Equal(t, 1, failed)
	assert.NotEmpty(t, tokens.summaries[1].SiteError)
	assert.Equal(t, 1, tokens.summaries[2].IkasCount)

	sum, err := s.LastSummary(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, sum.IkasError)
}
