package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/utils"
)

func TestMappingUploadReplacesRows(t *testing.T) {
	mappings := &fakeMatching{rows: []models.MatchingRow{{Barcode: "old"}}}
	s := NewMatchingService(mappings, &fakeTrendyol{}, &fakeIkasStore{})
	csv := "Barkod;Trendyol.com Linki\n" +
		"869001;https://www.trendyol.com/swass/a-p-1?boutiqueId=61\n" +
		";https://www.trendyol.com/swass/b-p-2\n" +
		"869003;\n"

	res, err := s.Upload(context.Background(), 1, "eslesme.csv", strings.NewReader(csv))

	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, mappings.rows, 1)
	assert.Equal(t, "https://www.trendyol.com/swass/a-p-1", mappings.rows[0].TrendyolLink)
	assert.Equal(t, 1, mappings.rows[0].UserID)
}

func TestMappingUploadWithoutValidRowsFails(t *testing.T) {
	mappings := &fakeMatching{rows: []models.MatchingRow{{Barcode: "keep"}}}
	s := NewMatchingService(mappings, &fakeTrendyol{}, &fakeIkasStore{})

	_, err := s.Upload(context.Background(), 1, "m.csv", strings.NewReader("Barkod,Trendyol.com Linki\n,\n"))

	assert.ErrorIs(t, err, utils.ErrInvalidRequest)
	assert.Len(t, mappings.rows, 1)
}

func TestMappingUploadRequiresHeaders(t *testing.T) {
	s := NewMatchingService(&fakeMatching{}, &fakeTrendyol{}, &fakeIkasStore{})

	_, err := s.Upload(context.Background(), 1, "m.csv", strings.NewReader("SKU,Link\n1,2\n"))

	assert.ErrorIs(t, err, utils.ErrInvalidRequest)
}

func TestSuggestionsSkipMappedLinksAndWeakScores(t *testing.T) {
	mappings := &fakeMatching{rows: []models.MatchingRow{{TrendyolLink: "L-mapped", Barcode: "x"}}}
	listings := &fakeTrendyol{rows: []models.TrendyolProduct{
		{Name: "Kadın Midi Elbise Siyah", Link: "L1"},
		{Name: "Kadın Midi Elbise Siyah", Link: "L-mapped"},
		{Name: "Erkek Deri Ceket", Link: "L2"},
	}}
	catalog := &fakeIkasStore{rows: []models.IkasProduct{
		{ProductID: "p1", Name: "KADIN Midi Elbise", Barcode: "869001"},
		{ProductID: "p1", Name: "KADIN Midi Elbise", Barcode: "869002"},
		{ProductID: "p2", Name: "Çocuk Tişört", Barcode: "869100"},
	}}
	s := NewMatchingService(mappings, listings, catalog)

	got, err := s.Suggestions(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "L1", got[0].TrendyolLink)
	assert.Equal(t, "869001", got[0].Barcode)
	assert.GreaterOrEqual(t, got[0].Score, SuggestionThreshold)
}
