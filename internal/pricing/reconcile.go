// Package pricing joins marketplace, storefront and catalog price tables and
// computes corrected prices.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// FloorRatio is applied to the marketplace normal price; storefront prices
	// at or below the floor are already competitive.
	FloorRatio = decimal.RequireFromString("0.95")
	// TargetRatio is the 14.5% markdown off the marketplace normal price.
	TargetRatio = decimal.NewFromInt(1).Sub(decimal.RequireFromString("0.145"))
	// CatalogPushRatio is the 10% markdown off the marketplace discounted price
	// suggested for catalog pushes.
	CatalogPushRatio = decimal.RequireFromString("0.90")
)

// Table names reported by MissingDataError.
const (
	TableLinkMapping        = "matching_data"
	TableMarketplaceListing = "trendyol_products"
	TableStorefrontProduct  = "site_products"
	TableCatalogVariant     = "ikas_products"
)

// MissingDataError is returned when one of the source tables is empty, so the
// caller can tell "nothing matched" apart from "nothing to match against".
type MissingDataError struct {
	Table string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("missing data: %s is empty", e.Table)
}

// LinkMapping ties a marketplace link to a storefront/catalog barcode.
type LinkMapping struct {
	Link    string
	Barcode string
}

// Listing is a scraped marketplace row. Prices are raw locale strings.
type Listing struct {
	Link            string
	Name            string
	NormalPrice     string
	DiscountedPrice string
}

// StorefrontProduct is a storefront feed row keyed by its marketplace key.
type StorefrontProduct struct {
	ExternalKey string
	Barcode     string
	Price       string
}

// CatalogVariant is one İKAS SKU.
type CatalogVariant struct {
	ProductID       string
	VariantID       string
	Name            string
	SKU             string
	Barcode         string
	NormalPrice     decimal.Decimal
	DiscountedPrice decimal.Decimal
	BuyPrice        decimal.Decimal
}

// MatchResult is an overpriced storefront product with its target price.
type MatchResult struct {
	ProductName         string          `json:"productName"`
	TrendyolKey         string          `json:"trendyolKey"`
	Barcode             string          `json:"barcode"`
	SitePrice           decimal.Decimal `json:"sitePrice"`
	TrendyolNormalPrice decimal.Decimal `json:"trendyolNormalPrice"`
	NewPrice            decimal.Decimal `json:"newPrice"`
}

// CatalogMatchResult is one variant row for a bulk catalog price push.
type CatalogMatchResult struct {
	ProductID               string          `json:"productId"`
	VariantID               string          `json:"variantId"`
	ProductName             string          `json:"productName"`
	Barcode                 string          `json:"barcode"`
	TrendyolLink            string          `json:"trendyolLink"`
	NewPrice                decimal.Decimal `json:"newPrice"`
	IkasNormalPrice         decimal.Decimal `json:"ikasNormalPrice"`
	IkasDiscountedPrice     decimal.Decimal `json:"ikasDiscountedPrice"`
	IkasBuyPrice            decimal.Decimal `json:"ikasBuyPrice"`
	TrendyolNormalPrice     decimal.Decimal `json:"trendyolNormalPrice"`
	TrendyolDiscountedPrice decimal.Decimal `json:"trendyolDiscountedPrice"`
}

type listingPrice struct {
	name       string
	normal     decimal.Decimal
	discounted decimal.Decimal
}

type storefrontPrice struct {
	barcode string
	price   decimal.Decimal
}

func indexListings(listings []Listing) map[string]listingPrice {
	idx := make(map[string]listingPrice, len(listings))
	for _, l := range listings {
		idx[l.Link] = listingPrice{
			name:       l.Name,
			normal:     ParsePrice(l.NormalPrice),
			discounted: ParsePrice(l.DiscountedPrice),
		}
	}
	return idx
}

// Reconcile returns the storefront products priced above 95% of the
// marketplace normal price, in mapping order. Mapping rows without a listing
// or storefront product are skipped.
func Reconcile(mappings []LinkMapping, listings []Listing, products []StorefrontProduct) ([]MatchResult, error) {
	switch {
	case len(mappings) == 0:
		return nil, &MissingDataError{Table: TableLinkMapping}
	case len(listings) == 0:
		return nil, &MissingDataError{Table: TableMarketplaceListing}
	case len(products) == 0:
		return nil, &MissingDataError{Table: TableStorefrontProduct}
	}

	byLink := indexListings(listings)
	byKey := make(map[string]storefrontPrice, len(products))
	for _, p := range products {
		byKey[p.ExternalKey] = storefrontPrice{barcode: p.Barcode, price: ParseAmount(p.Price)}
	}

	results := make([]MatchResult, 0)
	for _, m := range mappings {
		listing, ok := byLink[m.Link]
		if !ok {
			continue
		}
		site, ok := byKey[m.Barcode]
		if !ok {
			continue
		}

		floor := listing.normal.Mul(FloorRatio)
		if site.price.LessThanOrEqual(floor) {
			continue
		}

		results = append(results, MatchResult{
			ProductName:         listing.name,
			TrendyolKey:         m.Barcode,
			Barcode:             site.barcode,
			SitePrice:           site.price,
			TrendyolNormalPrice: listing.normal,
			NewPrice:            listing.normal.Mul(TargetRatio),
		})
	}
	return results, nil
}

// ReconcileForCatalogPush returns every variant of every catalog product that
// a mapping row reaches through its barcode, provided the mapped listing
// exists. No price filter is applied. Output follows variant order.
func ReconcileForCatalogPush(mappings []LinkMapping, listings []Listing, variants []CatalogVariant) ([]CatalogMatchResult, error) {
	switch {
	case len(mappings) == 0:
		return nil, &MissingDataError{Table: TableLinkMapping}
	case len(variants) == 0:
		return nil, &MissingDataError{Table: TableCatalogVariant}
	case len(listings) == 0:
		return nil, &MissingDataError{Table: TableMarketplaceListing}
	}

	byLink := indexListings(listings)

	productByBarcode := make(map[string]string, len(variants))
	for _, v := range variants {
		if v.Barcode != "" {
			productByBarcode[v.Barcode] = v.ProductID
		}
	}

	linkByProduct := make(map[string]string)
	for _, m := range mappings {
		if productID, ok := productByBarcode[m.Barcode]; ok {
			linkByProduct[productID] = m.Link
		}
	}

	results := make([]CatalogMatchResult, 0)
	for _, v := range variants {
		link, ok := linkByProduct[v.ProductID]
		if !ok {
			continue
		}
		listing, ok := byLink[link]
		if !ok {
			continue
		}
		results = append(results, CatalogMatchResult{
			ProductID:               v.ProductID,
			VariantID:               v.VariantID,
			ProductName:             v.Name,
			Barcode:                 v.Barcode,
			TrendyolLink:            link,
			NewPrice:                listing.discounted.Mul(CatalogPushRatio),
			IkasNormalPrice:         v.NormalPrice,
			IkasDiscountedPrice:     v.DiscountedPrice,
			IkasBuyPrice:            v.BuyPrice,
			TrendyolNormalPrice:     listing.normal,
			TrendyolDiscountedPrice: listing.discounted,
		})
	}
	return results, nil
}
