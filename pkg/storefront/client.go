// Package storefront talks to the merchant's storefront export API: a JSON
// product feed keyed by Trendyol key and a single-product price update call.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ErrEmptyFeed is returned when the feed holds no products.
var ErrEmptyFeed = errors.New("storefront: feed returned no products")

// Product is one feed row.
type Product struct {
	TrendyolKey string   `json:"TrendyolKey"`
	Barcode     string   `json:"Barcode"`
	SitePrice   FlexText `json:"SitePrice"`
}

// FlexText decodes a JSON string or number into its textual form.
type FlexText string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexText(s)
		return nil
	}
	*f = FlexText(b)
	return nil
}

type updateRequest struct {
	TrendyolKey  string      `json:"TrendyolKey"`
	NewSitePrice json.Number `json:"NewSitePrice"`
}

type updateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UpdateError is a rejected price update with the provider's message.
type UpdateError struct {
	StatusCode int
	Message    string
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("storefront update failed (%d): %s", e.StatusCode, e.Message)
}

// Client calls the storefront API.
type Client struct {
	http  *resty.Client
	debug bool
}

// NewClient constructs a client with a 60s timeout.
func NewClient() *Client {
	return &Client{
		http:  resty.New().SetTimeout(60 * time.Second),
		debug: os.Getenv("ENV") == "development",
	}
}

// FetchProducts downloads the product feed at feedURL.
func (c *Client) FetchProducts(ctx context.Context, feedURL string) ([]Product, error) {
	c.logRequest("GET", feedURL)
	var out []Product
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(&out).
		Get(feedURL)
	if err != nil {
		return nil, fmt.Errorf("storefront feed request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("storefront feed failed: %d", resp.StatusCode())
	}
	if len(out) == 0 {
		return nil, ErrEmptyFeed
	}
	return out, nil
}

// UpdatePrice sets a new storefront price for trendyolKey. It returns the
// provider's message on success.
func (c *Client) UpdatePrice(ctx context.Context, updateURL, trendyolKey string, price decimal.Decimal) (string, error) {
	c.logRequest("POST", updateURL)
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(updateRequest{TrendyolKey: trendyolKey, NewSitePrice: json.Number(price.String())}).
		Post(updateURL)
	if err != nil {
		return "", fmt.Errorf("storefront update request failed: %w", err)
	}

	body := strings.TrimSpace(resp.String())
	var parsed updateResponse
	if jsonErr := json.Unmarshal(resp.Body(), &parsed); jsonErr != nil {
		if !resp.IsSuccess() {
			return "", &UpdateError{StatusCode: resp.StatusCode(), Message: body}
		}
		return body, nil
	}

	msg := parsed.Message
	if msg == "" {
		msg = body
	}
	if parsed.Status == "error" || !resp.IsSuccess() {
		return "", &UpdateError{StatusCode: resp.StatusCode(), Message: msg}
	}
	return msg, nil
}

func (c *Client) logRequest(method, url string) {
	if !c.debug {
		return
	}
	log.Debug().Str("method", method).Str("url", url).Msg("[STOREFRONT] Outgoing request")
}
