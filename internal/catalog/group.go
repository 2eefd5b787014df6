// Package catalog turns uploaded catalog exports into grouped products and
// builds the texts and image lists posted for them.
package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/pkg/sheet"
)

// Catalog export headers.
const (
	HeaderGroupID = "Ürün Grup ID"
	HeaderName    = "İsim"
	HeaderStock   = "Stok:Merter Depo"
	HeaderVariant = "Varyant Değer 1"
	HeaderImage   = "Resim URL"
	HeaderSKU     = "SKU"
)

// MissingColumnsError lists required headers absent from the upload.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("required columns not found: %s", strings.Join(e.Columns, ", "))
}

// GroupResult is the outcome of GroupRows.
type GroupResult struct {
	TotalRows         int
	ProductsWithStock int
	Products          []models.GroupedProduct
}

type columns struct {
	group, name, stock, variant, image, sku int
}

// GroupRows keeps rows with positive stock and merges them by group id, in
// first-seen order. Name and stock code come from the first row of a group.
func GroupRows(t *sheet.Table) (*GroupResult, error) {
	cols := columns{
		group:   t.Column(HeaderGroupID),
		name:    t.Column(HeaderName),
		stock:   t.Column(HeaderStock),
		variant: t.Column(HeaderVariant),
		image:   t.Column(HeaderImage),
		sku:     t.Column(HeaderSKU),
	}
	var missing []string
	for _, req := range []struct {
		header string
		idx    int
	}{{HeaderGroupID, cols.group}, {HeaderName, cols.name}, {HeaderStock, cols.stock}} {
		if req.idx < 0 {
			missing = append(missing, req.header)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	res := &GroupResult{TotalRows: len(t.Rows)}
	var (
		groups []*group
		byID   = map[string]*group{}
	)
	for _, row := range t.Rows {
		stock := parseStock(t.Value(row, cols.stock))
		if stock <= 0 {
			continue
		}
		res.ProductsWithStock++

		id := t.Value(row, cols.group)
		if id == "" {
			continue
		}
		g, ok := byID[id]
		if !ok {
			g = &group{
				id:        id,
				name:      t.Value(row, cols.name),
				stockCode: StockCode(t.Value(row, cols.sku)),
			}
			byID[id] = g
			groups = append(groups, g)
		}
		g.variants.add(t.Value(row, cols.variant))
		for _, u := range strings.Split(t.Value(row, cols.image), ";") {
			g.images.add(strings.TrimSpace(u))
		}
		g.stock += stock
	}

	res.Products = make([]models.GroupedProduct, len(groups))
	for i, g := range groups {
		res.Products[i] = models.GroupedProduct{
			GroupID:    g.id,
			Name:       g.name,
			StockCode:  g.stockCode,
			Variants:   strings.Join(g.variants.items, ", "),
			ImageURLs:  strings.Join(g.images.items, ";"),
			TotalStock: g.stock,
		}
	}
	return res, nil
}

// StockCode is the SKU prefix before the first '-' ("SWS9072-Pembe-S" gives
// "SWS9072"). A SKU starting with '-' or without one is returned whole.
func StockCode(sku string) string {
	if i := strings.IndexByte(sku, '-'); i > 0 {
		return sku[:i]
	}
	return sku
}

type group struct {
	id        string
	name      string
	stockCode string
	variants  orderedSet
	images    orderedSet
	stock     int
}

type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if s.seen == nil {
		s.seen = map[string]struct{}{}
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

// parseStock accepts "3", "3.0" and "3,0". Fractions are rounded and anything
// unparseable counts as zero.
func parseStock(raw string) int {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f <= 0 {
		return 0
	}
	return int(math.Round(f))
}
