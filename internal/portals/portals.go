// Package portals scrapes static rental-listing portals page by page.
package portals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/mlibrea/propscan/internal/logger"
)

// Listing is one row scraped from a portal.
type Listing struct {
	Title     string `json:"title" yaml:"title"`
	PriceText string `json:"price_text" yaml:"price_text"`
	Location  string `json:"location" yaml:"location"`
	Source    string `json:"source" yaml:"source"`
}

// Config controls portal fetching.
type Config struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	// MaxAttempts bounds fetch retries per page.
	MaxAttempts int
	// RetryWait is the fixed pause between attempts.
	RetryWait time.Duration
	// PageDelay is the polite pause between result pages.
	PageDelay time.Duration
	// MaxPages is used when a scrape is requested with a non-positive bound.
	MaxPages int
}

// DefaultConfig returns the portal scraping defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		AcceptLanguage: "en-US,en;q=0.9",
		Timeout:        30 * time.Second,
		MaxAttempts:    3,
		RetryWait:      2 * time.Second,
		PageDelay:      time.Second,
		MaxPages:       5,
	}
}

// Scraper fetches portal pages with retry and parses their listing cards.
type Scraper struct {
	cfg Config
}

// New returns a Scraper. Zero config fields take their defaults.
func New(cfg Config) *Scraper {
	def := DefaultConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = def.AcceptLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = def.RetryWait
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = def.PageDelay
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = def.MaxPages
	}
	return &Scraper{cfg: cfg}
}

// site describes one scrapeable portal.
type site struct {
	name    string
	pageURL func(page int) string
	parse   func(doc *goquery.Document) []Listing
}

// Lamudi scrapes rental listings from Lamudi Philippines.
func (s *Scraper) Lamudi(ctx context.Context, maxPages int) []Listing {
	return s.scrapeSite(ctx, siteLamudi, maxPages)
}

// Property24 scrapes rental listings from Property24 Philippines.
func (s *Scraper) Property24(ctx context.Context, maxPages int) []Listing {
	return s.scrapeSite(ctx, siteProperty24, maxPages)
}

// All scrapes every known portal in order and concatenates the results.
func (s *Scraper) All(ctx context.Context, maxPages int) []Listing {
	var listings []Listing
	listings = append(listings, s.Lamudi(ctx, maxPages)...)
	listings = append(listings, s.Property24(ctx, maxPages)...)
	return listings
}

// scrapeSite walks result pages 1..maxPages. A page that still fails after
// retries ends pagination for the site; pages already scraped are kept.
func (s *Scraper) scrapeSite(ctx context.Context, st site, maxPages int) []Listing {
	if maxPages <= 0 {
		maxPages = s.cfg.MaxPages
	}

	var listings []Listing
	for page := 1; page <= maxPages; page++ {
		html, err := s.fetch(ctx, st.pageURL(page))
		if err != nil {
			logger.Error("portal page fetch failed, stopping pagination",
				"source", st.name, "page", page, "error", err)
			break
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			logger.Error("portal page unparseable",
				"source", st.name, "page", page, "error", err)
			break
		}

		pageListings := st.parse(doc)
		listings = append(listings, pageListings...)
		logger.Debug("portal page scraped",
			"source", st.name, "page", page, "listings", len(pageListings))

		// Polite pacing between pages.
		select {
		case <-time.After(s.cfg.PageDelay):
		case <-ctx.Done():
			return listings
		}
	}

	logger.Info("portal scraped", "source", st.name, "listings", len(listings))
	return listings
}

// fetch retries a page up to MaxAttempts with a fixed wait in between.
func (s *Scraper) fetch(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		html, err := s.fetchOnce(pageURL)
		if err == nil {
			return html, nil
		}
		lastErr = err
		logger.Warn("portal fetch failed",
			"url", pageURL, "attempt", attempt, "error", err)

		if attempt < s.cfg.MaxAttempts {
			select {
			case <-time.After(s.cfg.RetryWait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("fetch %s: %w", pageURL, lastErr)
}

func (s *Scraper) fetchOnce(pageURL string) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent(s.cfg.UserAgent),
	)
	c.SetRequestTimeout(s.cfg.Timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", s.cfg.AcceptLanguage)
	})

	var html string
	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		html = string(r.Body)
	})
	c.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(pageURL); err != nil {
		return "", err
	}
	if fetchErr != nil {
		return "", fetchErr
	}
	return html, nil
}

// textOr returns the trimmed text of the first node matching selector, or
// fallback when no node matches. A matching but empty node yields "".
func textOr(card *goquery.Selection, selector, fallback string) string {
	sel := card.Find(selector).First()
	if sel.Length() == 0 {
		return fallback
	}
	return strings.TrimSpace(sel.Text())
}
