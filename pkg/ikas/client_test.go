package ikas

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		TokenURL:   srv.URL + "/%s/oauth/token",
		GraphQLURL: srv.URL + "/graphql",
		PageDelay:  time.Nanosecond,
		BatchDelay: time.Nanosecond,
	})
}

func TestFetchToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/magaza/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":14400}`))
	}))
	defer srv.Close()

	tok, err := newTestClient(srv).FetchToken(t.Context(), Credentials{StoreName: "magaza", ClientID: "cid", ClientSecret: "secret"})

	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)
	assert.Equal(t, 4*time.Hour, tok.ExpiresIn)
}

func TestFetchTokenUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchToken(t.Context(), Credentials{StoreName: "s", ClientID: "c", ClientSecret: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestListVariantsPagesUntilCount(t *testing.T) {
	var pages []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var req struct {
			Variables struct {
				Page int `json:"page"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		pages = append(pages, req.Variables.Page)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":{"listProduct":{"count":60,"data":[{"id":"p%d","name":"Elbise %d","variants":[
			{"id":"v1","sku":"SK-1","barcodeList":["111","112"],"prices":[
				{"priceListId":"other","sellPrice":1,"discountPrice":1,"buyPrice":1},
				{"priceListId":null,"sellPrice":499.9,"discountPrice":449.9,"buyPrice":null}]},
			{"id":"v2","sku":"","barcodeList":[],"prices":[{"priceListId":"x","sellPrice":10,"discountPrice":null,"buyPrice":5}]}
		]}]}}}`, req.Variables.Page, req.Variables.Page)
	}))
	defer srv.Close()

	variants, err := newTestClient(srv).ListVariants(t.Context(), "tok")

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, pages)
	require.Len(t, variants, 4)

	v := variants[0]
	assert.Equal(t, "p1", v.ProductID)
	assert.Equal(t, "Elbise 1", v.ProductName)
	assert.Equal(t, "111", v.Barcode)
	assert.True(t, v.SellPrice.Equal(decimal.RequireFromString("499.9")))
	assert.True(t, v.DiscountPrice.Equal(decimal.RequireFromString("449.9")))
	assert.True(t, v.BuyPrice.IsZero())

	fallback := variants[1]
	assert.Equal(t, "", fallback.Barcode)
	assert.True(t, fallback.SellPrice.Equal(decimal.NewFromInt(10)), "first price entry is used when none has a null price list")
}

func TestListVariantsGraphQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad query"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListVariants(t.Context(), "tok")
	assert.ErrorContains(t, err, "bad query")
}

func TestSaveVariantPricesBatches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		var req struct {
			Query     string `json:"query"`
			Variables struct {
				Input struct {
					PriceListID        *string `json:"priceListId"`
					VariantPriceInputs []struct {
						ProductID string `json:"productId"`
						Price     struct {
							SellPrice float64 `json:"sellPrice"`
						} `json:"price"`
					} `json:"variantPriceInputs"`
				} `json:"input"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, strings.Contains(req.Query, "saveVariantPrices"))
		assert.Nil(t, req.Variables.Input.PriceListID)
		assert.LessOrEqual(t, len(req.Variables.Input.VariantPriceInputs), 50)
		assert.Equal(t, 100.5, req.Variables.Input.VariantPriceInputs[0].Price.SellPrice)

		w.Header().Set("Content-Type", "application/json")
		if n == 2 {
			_, _ = w.Write([]byte(`{"errors":[{"message":"variant not found"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"saveVariantPrices":true}}`))
	}))
	defer srv.Close()

	items := make([]PriceInput, 120)
	for i := range items {
		items[i] = PriceInput{ProductID: "p", VariantID: fmt.Sprint(i), SellPrice: decimal.RequireFromString("100.5")}
	}

	res, err := newTestClient(srv).SaveVariantPrices(t.Context(), "tok", items)

	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, 70, res.Updated)
	assert.Equal(t, 50, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "batch 2: variant not found")
}

func TestSaveVariantPricesFalseIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"saveVariantPrices":false}}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).SaveVariantPrices(t.Context(), "tok", []PriceInput{{ProductID: "p", VariantID: "v"}})

	require.NoError(t, err)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 1, res.Failed)
}
