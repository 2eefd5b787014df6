package ikas

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credentials identify one İKAS store app.
type Credentials struct {
	StoreName    string
	ClientID     string
	ClientSecret string
}

// Token is an OAuth access token.
type Token struct {
	AccessToken string
	ExpiresIn   time.Duration
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type listProductResponse struct {
	Data *struct {
		ListProduct *struct {
			Count int          `json:"count"`
			Data  []rawProduct `json:"data"`
		} `json:"listProduct"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type rawProduct struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Variants []rawVariant `json:"variants"`
}

type rawVariant struct {
	ID          string     `json:"id"`
	SKU         string     `json:"sku"`
	BarcodeList []string   `json:"barcodeList"`
	Prices      []rawPrice `json:"prices"`
}

type rawPrice struct {
	PriceListID   *string         `json:"priceListId"`
	SellPrice     decimal.Decimal `json:"sellPrice"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
	BuyPrice      decimal.Decimal `json:"buyPrice"`
}

// Variant is one flattened product variant.
type Variant struct {
	ProductID     string
	VariantID     string
	ProductName   string
	SKU           string
	Barcode       string
	SellPrice     decimal.Decimal
	DiscountPrice decimal.Decimal
	BuyPrice      decimal.Decimal
}

// PriceInput is one variant price to save.
type PriceInput struct {
	ProductID     string          `json:"productId"`
	VariantID     string          `json:"variantId"`
	SellPrice     decimal.Decimal `json:"sellPrice"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
	BuyPrice      decimal.Decimal `json:"buyPrice"`
}

type variantPriceInput struct {
	ProductID string     `json:"productId"`
	VariantID string     `json:"variantId"`
	Price     priceInput `json:"price"`
}

// priceInput is sent as JSON numbers; GraphQL Float rejects quoted decimals.
type priceInput struct {
	SellPrice     float64 `json:"sellPrice"`
	DiscountPrice float64 `json:"discountPrice"`
	BuyPrice      float64 `json:"buyPrice"`
}

type savePricesResponse struct {
	Data *struct {
		SaveVariantPrices *bool `json:"saveVariantPrices"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// PushResult summarises a batched price push.
type PushResult struct {
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}
