// Package ikas is a client for the İKAS Admin API: OAuth client-credentials
// tokens, paged product listing and bulk variant price updates over GraphQL.
package ikas

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"github.com/GTDGit/pazar_api/pkg/retry"
)

const (
	// DefaultTokenURL has one %s for the store name.
	DefaultTokenURL = "https://%s.myikas.com/api/admin/oauth/token"
	// DefaultGraphQLURL is the Admin GraphQL endpoint.
	DefaultGraphQLURL = "https://api.myikas.com/api/v1/admin/graphql"

	pageSize  = 50
	batchSize = 50
)

const listProductQuery = `
query GetAllProducts($page: Int) {
  listProduct(pagination: { limit: 50, page: $page }) {
    count
    data {
      id
      name
      variants {
        id
        sku
        barcodeList
        prices {
          priceListId
          sellPrice
          discountPrice
          buyPrice
        }
      }
    }
  }
}`

const saveVariantPricesMutation = `
mutation SaveVariantPrices($input: SaveVariantPricesInput!) {
  saveVariantPrices(input: $input)
}`

// ErrUnauthorized is returned when İKAS rejects the credentials or token.
var ErrUnauthorized = errors.New("ikas: unauthorized")

// Config holds the endpoints and pacing of the client.
type Config struct {
	TokenURL   string
	GraphQLURL string
	PageDelay  time.Duration
	BatchDelay time.Duration
}

// Client talks to the İKAS Admin API.
type Client struct {
	http       *resty.Client
	tokenURL   string
	graphQLURL string
	pageDelay  time.Duration
	batchDelay time.Duration
	debug      bool
}

// NewClient constructs a client. Zero config values fall back to defaults.
func NewClient(cfg Config) *Client {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.GraphQLURL == "" {
		cfg.GraphQLURL = DefaultGraphQLURL
	}
	if cfg.PageDelay == 0 {
		cfg.PageDelay = 100 * time.Millisecond
	}
	if cfg.BatchDelay == 0 {
		cfg.BatchDelay = 200 * time.Millisecond
	}
	return &Client{
		http:       resty.New().SetTimeout(60 * time.Second),
		tokenURL:   cfg.TokenURL,
		graphQLURL: cfg.GraphQLURL,
		pageDelay:  cfg.PageDelay,
		batchDelay: cfg.BatchDelay,
		debug:      os.Getenv("ENV") == "development",
	}
}

// FetchToken exchanges client credentials for an access token.
func (c *Client) FetchToken(ctx context.Context, creds Credentials) (*Token, error) {
	if creds.StoreName == "" || creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, errors.New("ikas: incomplete credentials")
	}
	url := fmt.Sprintf(c.tokenURL, creds.StoreName)
	c.logRequest("POST", url)

	var out tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     creds.ClientID,
			"client_secret": creds.ClientSecret,
		}).
		SetResult(&out).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("ikas token request failed: %w", err)
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, resp.String())
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("ikas auth error: %d - %s", resp.StatusCode(), resp.String())
	}
	if out.AccessToken == "" {
		return nil, errors.New("ikas auth error: empty access token")
	}
	return &Token{
		AccessToken: out.AccessToken,
		ExpiresIn:   time.Duration(out.ExpiresIn) * time.Second,
	}, nil
}

// ListVariants pages through every product and flattens its variants.
func (c *Client) ListVariants(ctx context.Context, accessToken string) ([]Variant, error) {
	var all []Variant
	for page := 1; ; page++ {
		var out listProductResponse
		if err := c.graphQL(ctx, accessToken, listProductQuery, map[string]any{"page": page}, &out); err != nil {
			return nil, err
		}
		if len(out.Errors) > 0 {
			return nil, fmt.Errorf("ikas listProduct: %s", out.Errors[0].Message)
		}
		if out.Data == nil || out.Data.ListProduct == nil {
			log.Warn().Int("page", page).Msg("[IKAS] listProduct returned no data")
			break
		}

		block := out.Data.ListProduct
		for _, p := range block.Data {
			all = append(all, flatten(p)...)
		}
		log.Debug().Int("page", page).Int("variants", len(all)).Msg("[IKAS] page read")

		if page*pageSize >= block.Count {
			break
		}
		if err := retry.Sleep(ctx, c.pageDelay); err != nil {
			return nil, err
		}
	}
	return all, nil
}

func flatten(p rawProduct) []Variant {
	out := make([]Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		var price rawPrice
		if len(v.Prices) > 0 {
			price = v.Prices[0]
			for _, pr := range v.Prices {
				if pr.PriceListID == nil {
					price = pr
					break
				}
			}
		}
		barcode := ""
		if len(v.BarcodeList) > 0 {
			barcode = v.BarcodeList[0]
		}
		out = append(out, Variant{
			ProductID:     p.ID,
			VariantID:     v.ID,
			ProductName:   p.Name,
			SKU:           v.SKU,
			Barcode:       barcode,
			SellPrice:     price.SellPrice,
			DiscountPrice: price.DiscountPrice,
			BuyPrice:      price.BuyPrice,
		})
	}
	return out
}

// SaveVariantPrices pushes prices in batches of 50. Batch failures are
// collected in the result; the returned error is only set when ctx ends.
func (c *Client) SaveVariantPrices(ctx context.Context, accessToken string, items []PriceInput) (*PushResult, error) {
	res := &PushResult{Errors: []string{}}
	var errs error

	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))
		batch := items[start:end]
		batchNo := start/batchSize + 1

		inputs := make([]variantPriceInput, len(batch))
		for i, p := range batch {
			inputs[i] = variantPriceInput{
				ProductID: p.ProductID,
				VariantID: p.VariantID,
				Price: priceInput{
					SellPrice:     p.SellPrice.InexactFloat64(),
					DiscountPrice: p.DiscountPrice.InexactFloat64(),
					BuyPrice:      p.BuyPrice.InexactFloat64(),
				},
			}
		}
		vars := map[string]any{
			"input": map[string]any{
				"priceListId":        nil,
				"variantPriceInputs": inputs,
			},
		}

		var out savePricesResponse
		err := c.graphQL(ctx, accessToken, saveVariantPricesMutation, vars, &out)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			errs = multierr.Append(errs, fmt.Errorf("batch %d: %w", batchNo, err))
			res.Failed += len(batch)
		case out.Data != nil && out.Data.SaveVariantPrices != nil && *out.Data.SaveVariantPrices:
			res.Updated += len(batch)
		default:
			msg := "unknown error"
			if len(out.Errors) > 0 {
				msg = out.Errors[0].Message
			}
			errs = multierr.Append(errs, fmt.Errorf("batch %d: %s", batchNo, msg))
			res.Failed += len(batch)
		}

		if end < len(items) {
			if err := retry.Sleep(ctx, c.batchDelay); err != nil {
				return res, err
			}
		}
	}

	for _, e := range multierr.Errors(errs) {
		res.Errors = append(res.Errors, e.Error())
	}
	return res, nil
}

func (c *Client) graphQL(ctx context.Context, accessToken, query string, vars map[string]any, result any) error {
	c.logRequest("POST", c.graphQLURL)
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetHeader("Content-Type", "application/json").
		SetBody(graphQLRequest{Query: query, Variables: vars}).
		SetResult(result).
		SetError(result).
		Post(c.graphQLURL)
	if err != nil {
		return fmt.Errorf("ikas graphql request failed: %w", err)
	}
	if resp.StatusCode() == 401 {
		return ErrUnauthorized
	}
	if resp.StatusCode() >= 500 {
		return fmt.Errorf("ikas graphql status %d", resp.StatusCode())
	}
	return nil
}

func (c *Client) logRequest(method, url string) {
	if !c.debug {
		return
	}
	log.Debug().Str("method", method).Str("url", url).Msg("[IKAS] Outgoing request")
}
