package trendyol

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page1 = `<html><body><div class="search-result-content">
<a class="product-card" href="/marka/elbise-p-1?boutiqueId=61">
  <span class="product-brand">Swass</span><span class="product-name">Midi Elbise</span>
  <div class="ty-plus-promotion-price">
    <div class="strikethrough-price">1.299,99 TL</div>
    <div class="discounted-price"><span class="price-value">999,99 TL</span></div>
  </div>
</a>
<a class="product-card" href="https://www.trendyol.com/genel-markalar/etek-p-2">
  <span class="product-brand">Swass</span><span class="product-name">Etek</span>
  <div class="prc-box-orgnl">750 TL</div>
  <div class="prc-box-dscntd">600 TL</div>
</a>
<a class="product-card" href="/marka/gomlek-p-3">
  <span class="product-brand">Swass</span><span class="product-name">Gömlek</span>
  <span class="price-value">450 TL</span>
</a>
<a class="product-card" href="/marka/bos-p-4"></a>
</div></body></html>`

const page2 = `<html><body>
<a class="product-card" href="/marka/ceket-p-5"><span class="product-name">Ceket</span><div class="prc-box-dscntd">2.100 TL</div></a>
<a class="product-card" href="/marka/elbise-p-1"><span class="product-brand">Swass</span><span class="product-name">Midi Elbise</span><span class="price-value">950 TL</span></a>
</body></html>`

const page3 = `<html><body>
<a class="product-card" href="/marka/ceket-p-5"><span class="product-name">Ceket</span><div class="prc-box-dscntd">2.100 TL</div></a>
</body></html>`

func newListingServer(t *testing.T) (*httptest.Server, *[]string) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pi := r.URL.Query().Get("pi")
		pages = append(pages, pi)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch pi {
		case "":
			_, _ = w.Write([]byte(page1))
		case "2":
			_, _ = w.Write([]byte(page2))
		default:
			_, _ = w.Write([]byte(page3))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &pages
}

func TestScrapeParsesCardLayouts(t *testing.T) {
	srv, pages := newListingServer(t)
	s := NewScraper(Config{BaseURL: "https://www.trendyol.com", MaxPages: 5})

	got, err := s.Scrape(t.Context(), srv.URL+"/sr?mid=1")

	require.NoError(t, err)
	assert.Equal(t, []string{"", "2", "3"}, *pages)
	require.Len(t, got, 4)

	assert.Equal(t, Listing{
		Name:            "Swass Midi Elbise",
		NormalPrice:     NoPrice,
		DiscountedPrice: "950 TL",
		Link:            "https://www.trendyol.com/marka/elbise-p-1",
	}, got[0], "a repeated link keeps the last card")
	assert.Equal(t, Listing{
		Name:            "Swass Etek",
		NormalPrice:     "750 TL",
		DiscountedPrice: "600 TL",
		Link:            "https://www.trendyol.com/genel-markalar/etek-p-2",
	}, got[1])
	assert.Equal(t, "450 TL", got[2].DiscountedPrice)
	assert.Equal(t, NoPrice, got[2].NormalPrice)
	assert.Equal(t, "Ceket", got[3].Name)
}

func TestScrapePromotionLayout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pi") != "" {
			_, _ = w.Write([]byte(`<html></html>`))
			return
		}
		_, _ = w.Write([]byte(page1))
	}))
	defer srv.Close()

	got, err := NewScraper(Config{}).Scrape(t.Context(), srv.URL)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "1.299,99 TL", got[0].NormalPrice)
	assert.Equal(t, "999,99 TL", got[0].DiscountedPrice)
}

func TestScrapeEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>no results</body></html>`))
	}))
	defer srv.Close()

	_, err := NewScraper(Config{}).Scrape(t.Context(), srv.URL)
	assert.ErrorIs(t, err, ErrNoProducts)
}

func TestScrapeFirstPageError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewScraper(Config{}).Scrape(t.Context(), srv.URL)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoProducts)
}

func TestCleanLink(t *testing.T) {
	assert.Equal(t, "https://www.trendyol.com/a/b-p-1", CleanLink(DefaultBaseURL, "/a/b-p-1?merchantId=2"))
	assert.Equal(t, "https://www.trendyol.com/a/b-p-1", CleanLink(DefaultBaseURL+"/", "a/b-p-1"))
	assert.Equal(t, "https://x.com/y", CleanLink(DefaultBaseURL, "https://x.com/y?z=1"))
	assert.Empty(t, CleanLink(DefaultBaseURL, "  "))
}

func TestReplaceBrandSlug(t *testing.T) {
	got, changed := ReplaceBrandSlug("https://www.trendyol.com/genel-markalar/etek-p-2", "swass")
	assert.True(t, changed)
	assert.Equal(t, "https://www.trendyol.com/swass/etek-p-2", got)

	got, changed = ReplaceBrandSlug("https://www.trendyol.com/swass/etek-p-2", "swass")
	assert.False(t, changed)
	assert.Equal(t, "https://www.trendyol.com/swass/etek-p-2", got)

	_, changed = ReplaceBrandSlug("https://www.trendyol.com/genel-markalar/etek-p-2", " ")
	assert.False(t, changed)
}
