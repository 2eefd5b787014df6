package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	strmetrics "github.com/adrg/strutil/metrics"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/utils"
	"github.com/GTDGit/pazar_api/pkg/sheet"
)

// Mapping upload headers, matched case-insensitively.
const (
	mappingBarcodeHeader = "barkod"
	mappingLinkHeader    = "trendyol.com linki"
)

// SuggestionThreshold is the minimum Jaro-Winkler score of a suggestion.
const SuggestionThreshold = 0.85

// MappingUploadResult reports a mapping file upload.
type MappingUploadResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// MatchingService manages the user-supplied link to barcode mapping.
type MatchingService struct {
	mappings MatchingStore
	listings TrendyolStore
	catalog  IkasStore
}

func NewMatchingService(mappings MatchingStore, listings TrendyolStore, catalog IkasStore) *MatchingService {
	return &MatchingService{mappings: mappings, listings: listings, catalog: catalog}
}

// List returns the user's mapping rows.
func (s *MatchingService) List(ctx context.Context, userID int) ([]models.MatchingRow, error) {
	return s.mappings.ListByUser(ctx, userID)
}

// Clear deletes the user's mapping.
func (s *MatchingService) Clear(ctx context.Context, userID int) (int64, error) {
	return s.mappings.DeleteAll(ctx, userID)
}

// Upload parses a mapping sheet and replaces the user's mapping with it.
// Hyperlink cells contribute their target; links lose their query string.
func (s *MatchingService) Upload(ctx context.Context, userID int, filename string, r io.Reader) (*MappingUploadResult, error) {
	tbl, err := sheet.Parse(filename, r, sheet.WithHyperlinks(mappingLinkHeader))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidRequest, err)
	}

	bc, lc := tbl.Column(mappingBarcodeHeader), tbl.Column(mappingLinkHeader)
	if bc < 0 || lc < 0 {
		return nil, fmt.Errorf("%w: columns \"Barkod\" and \"Trendyol.com Linki\" are required", utils.ErrInvalidRequest)
	}

	res := &MappingUploadResult{}
	rows := make([]models.MatchingRow, 0, len(tbl.Rows))
	for _, raw := range tbl.Rows {
		barcode := tbl.Value(raw, bc)
		link, _, _ := strings.Cut(tbl.Value(raw, lc), "?")
		if barcode == "" || link == "" {
			res.Skipped++
			continue
		}
		rows = append(rows, models.MatchingRow{UserID: userID, Barcode: barcode, TrendyolLink: link})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file has no valid rows", utils.ErrInvalidRequest)
	}

	if err := s.mappings.Replace(ctx, userID, rows); err != nil {
		return nil, err
	}
	res.Inserted = len(rows)
	log.Info().Int("user_id", userID).Int("inserted", res.Inserted).Int("skipped", res.Skipped).Msg("Mapping replaced")
	return res, nil
}

// Suggestions proposes, for each listing missing from the mapping, the
// catalog variant whose name is most similar. Only scores at or above
// SuggestionThreshold are returned, best first.
func (s *MatchingService) Suggestions(ctx context.Context, userID int) ([]models.MappingSuggestion, error) {
	mappings, err := s.mappings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	listings, err := s.listings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	variants, err := s.catalog.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return suggestMappings(mappings, listings, variants), nil
}

func suggestMappings(mappings []models.MatchingRow, listings []models.TrendyolProduct, variants []models.IkasProduct) []models.MappingSuggestion {
	mapped := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		mapped[m.TrendyolLink] = struct{}{}
	}

	type candidate struct {
		name, folded, barcode string
	}
	var candidates []candidate
	seen := map[string]struct{}{}
	for _, v := range variants {
		if v.Barcode == "" || v.Name == "" {
			continue
		}
		if _, ok := seen[v.ProductID]; ok {
			continue
		}
		seen[v.ProductID] = struct{}{}
		candidates = append(candidates, candidate{name: v.Name, folded: foldName(v.Name), barcode: v.Barcode})
	}

	metric := strmetrics.NewJaroWinkler()
	metric.CaseSensitive = false

	out := make([]models.MappingSuggestion, 0)
	for _, l := range listings {
		if _, ok := mapped[l.Link]; ok {
			continue
		}
		name := foldName(l.Name)
		var best *candidate
		bestScore := 0.0
		for i := range candidates {
			score := strutil.Similarity(name, candidates[i].folded, metric)
			if score > bestScore {
				bestScore, best = score, &candidates[i]
			}
		}
		if best == nil || bestScore < SuggestionThreshold {
			continue
		}
		out = append(out, models.MappingSuggestion{
			TrendyolLink: l.Link,
			TrendyolName: l.Name,
			Barcode:      best.barcode,
			IkasName:     best.name,
			Score:        bestScore,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

var nameFolder = strings.NewReplacer("İ", "i", "I", "ı", "Ş", "ş", "Ğ", "ğ", "Ü", "ü", "Ö", "ö", "Ç", "ç")

func foldName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(nameFolder.Replace(s))), " ")
}
