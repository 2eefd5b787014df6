package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrendyolProduct is a scraped marketplace listing. Prices keep the raw
// locale text shown on the card ("4.617,50 TL" or "-").
type TrendyolProduct struct {
	ID              int       `db:"id" json:"id"`
	UserID          int       `db:"user_id" json:"-"`
	Name            string    `db:"name" json:"name"`
	NormalPrice     string    `db:"normal_price" json:"normalPrice"`
	DiscountedPrice string    `db:"discounted_price" json:"discountedPrice"`
	Link            string    `db:"link" json:"link"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// SiteProduct is a storefront feed row keyed by its Trendyol key.
type SiteProduct struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"-"`
	TrendyolKey string    `db:"trendyol_key" json:"trendyolKey"`
	Barcode     string    `db:"barcode" json:"barcode"`
	SitePrice   string    `db:"site_price" json:"sitePrice"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// IkasProduct is one İKAS variant.
type IkasProduct struct {
	ID              int             `db:"id" json:"id"`
	UserID          int             `db:"user_id" json:"-"`
	ProductID       string          `db:"product_id" json:"productId"`
	VariantID       string          `db:"variant_id" json:"variantId"`
	Name            string          `db:"name" json:"name"`
	SKU             string          `db:"sku" json:"sku"`
	Barcode         string          `db:"barcode" json:"barcode"`
	NormalPrice     decimal.Decimal `db:"normal_price" json:"normalPrice"`
	DiscountedPrice decimal.Decimal `db:"discounted_price" json:"discountedPrice"`
	BuyPrice        decimal.Decimal `db:"buy_price" json:"buyPrice"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}

// MatchingRow ties a Trendyol link to a storefront key / catalog barcode.
type MatchingRow struct {
	ID           int       `db:"id" json:"id"`
	UserID       int       `db:"user_id" json:"-"`
	Barcode      string    `db:"barcode" json:"barcode"`
	TrendyolLink string    `db:"trendyol_link" json:"trendyolLink"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// MappingSuggestion proposes a catalog variant for an unmapped listing.
type MappingSuggestion struct {
	TrendyolLink string  `json:"trendyolLink"`
	TrendyolName string  `json:"trendyolName"`
	Barcode      string  `json:"barcode"`
	IkasName     string  `json:"ikasName"`
	Score        float64 `json:"score"`
}
