// Package trendyol scrapes product cards from Trendyol listing pages.
package trendyol

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL prefixes relative card links.
const DefaultBaseURL = "https://www.trendyol.com"

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// NoPrice marks a card price that could not be read.
	NoPrice = "-"

	genericBrandSegment = "/genel-markalar/"
)

// ErrNoProducts is returned when the first page has no product cards.
var ErrNoProducts = errors.New("trendyol: no product cards found")

// Listing is one product card. Prices are the raw text shown on the card.
type Listing struct {
	Name            string `json:"name"`
	NormalPrice     string `json:"normalPrice"`
	DiscountedPrice string `json:"discountedPrice"`
	Link            string `json:"link"`
}

// Config tunes the scraper.
type Config struct {
	BaseURL   string
	MaxPages  int
	PageDelay time.Duration
	Timeout   time.Duration
}

// Scraper walks listing pages with the pi query parameter until a page
// yields no new cards.
type Scraper struct {
	cfg   Config
	debug bool
}

// NewScraper applies defaults: 50 pages, 1s between pages, 60s per request.
func NewScraper(cfg Config) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 50
	}
	if cfg.PageDelay < 0 {
		cfg.PageDelay = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Scraper{cfg: cfg, debug: os.Getenv("ENV") == "development"}
}

// Scrape returns the listings found at targetURL in page order. Links are
// absolute and stripped of their query string; duplicates keep the last card.
func (s *Scraper) Scrape(ctx context.Context, targetURL string) ([]Listing, error) {
	if _, err := url.ParseRequestURI(targetURL); err != nil {
		return nil, fmt.Errorf("invalid target url: %w", err)
	}

	var (
		out   []Listing
		index = map[string]int{}
	)
	for page := 1; page <= s.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if page > 1 && s.cfg.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.PageDelay):
			}
		}

		cards, err := s.scrapePage(ctx, pageURL(targetURL, page))
		if err != nil {
			if page == 1 {
				return nil, err
			}
			log.Warn().Err(err).Int("page", page).Msg("[TRENDYOL] page failed, stopping")
			break
		}

		added := 0
		for _, c := range cards {
			if i, ok := index[c.Link]; ok {
				out[i] = c
				continue
			}
			index[c.Link] = len(out)
			out = append(out, c)
			added++
		}
		log.Debug().Int("page", page).Int("cards", len(cards)).Int("new", added).Msg("[TRENDYOL] page scraped")
		if added == 0 {
			break
		}
	}

	if len(out) == 0 {
		return nil, ErrNoProducts
	}
	return out, nil
}

func (s *Scraper) scrapePage(ctx context.Context, pageURL string) ([]Listing, error) {
	c := colly.NewCollector(colly.UserAgent(userAgent))
	c.SetRequestTimeout(s.cfg.Timeout)

	var (
		cards   []Listing
		scrapeE error
	)
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		if s.debug {
			log.Debug().Str("url", r.URL.String()).Msg("[TRENDYOL] Outgoing request")
		}
	})
	c.OnHTML("a.product-card", func(e *colly.HTMLElement) {
		if l, ok := parseCard(e, s.cfg.BaseURL); ok {
			cards = append(cards, l)
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		scrapeE = fmt.Errorf("trendyol page %s (%d): %w", pageURL, r.StatusCode, err)
	})

	if err := c.Visit(pageURL); err != nil && scrapeE == nil {
		scrapeE = err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return cards, scrapeE
}

func parseCard(e *colly.HTMLElement, baseURL string) (Listing, bool) {
	link := CleanLink(baseURL, e.Attr("href"))
	name := strings.TrimSpace(e.ChildText("span.product-brand") + " " + e.ChildText("span.product-name"))
	if link == "" || name == "" {
		return Listing{}, false
	}

	normal, discounted := NoPrice, NoPrice
	if promo := e.DOM.Find("div.ty-plus-promotion-price"); promo.Length() > 0 {
		if t := strings.TrimSpace(promo.Find("div.strikethrough-price").First().Text()); t != "" {
			normal = t
		}
		if t := strings.TrimSpace(promo.Find("div.discounted-price span.price-value").First().Text()); t != "" {
			discounted = t
		} else if t := strings.TrimSpace(promo.Find("span.price-value").First().Text()); t != "" {
			discounted = t
		}
	} else if box := e.DOM.Find("div.prc-box-dscntd"); box.Length() > 0 {
		discounted = strings.TrimSpace(box.First().Text())
		if t := strings.TrimSpace(e.DOM.Find("div.prc-box-orgnl").First().Text()); t != "" {
			normal = t
		}
	}

	if normal == NoPrice {
		if t := strings.TrimSpace(e.DOM.Find(".strikethrough-price").First().Text()); t != "" {
			normal = t
		}
	}
	if discounted == NoPrice {
		if t := strings.TrimSpace(e.DOM.Find(".price-value").First().Text()); t != "" {
			discounted = t
		}
	}

	return Listing{Name: name, NormalPrice: normal, DiscountedPrice: discounted, Link: link}, true
}

// CleanLink makes href absolute against baseURL and drops the query string.
func CleanLink(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(href, "/")
	}
	if i := strings.IndexByte(href, '?'); i >= 0 {
		href = href[:i]
	}
	return href
}

// ReplaceBrandSlug swaps the first /genel-markalar/ segment for /{slug}/.
// The second return value reports whether the link changed.
func ReplaceBrandSlug(link, slug string) (string, bool) {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" || !strings.Contains(link, genericBrandSegment) {
		return link, false
	}
	return strings.Replace(link, genericBrandSegment, "/"+slug+"/", 1), true
}

// HasGenericBrand reports whether link still uses the generic brand segment.
func HasGenericBrand(link string) bool {
	return strings.Contains(link, genericBrandSegment)
}

func pageURL(target string, page int) string {
	if page == 1 {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("pi", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
