package carousell

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mlibrea/propscan/internal/listing"
	"github.com/mlibrea/propscan/internal/logger"
)

// ErrNoListings reports that the materialized page contained zero listing
// cards.
var ErrNoListings = errors.New("no listings were found")

const cardSel = `div[data-testid^="listing-card-"]`

// Style markers rotate across site builds; the known generations are tried
// in order.
var daysAgoMarkers = []string{"D_pw", "D_jG", "D_qa"}

var origin = mustParseURL(Origin)

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// Collect parses materialized page markup, extracts the document title for
// provenance, and assembles one record per listing card.
func Collect(markup string) (string, []listing.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", nil, fmt.Errorf("parse markup: %w", err)
	}

	pageTitle := strings.TrimSpace(doc.Find("title").First().Text())

	var records []listing.Record
	doc.Find(cardSel).Each(func(_ int, card *goquery.Selection) {
		records = append(records, extractRecord(card))
	})
	if len(records) == 0 {
		return pageTitle, nil, ErrNoListings
	}

	logger.Info("listings collected", "page_title", pageTitle, "count", len(records))
	return pageTitle, records, nil
}

// extractRecord applies the per-field fallback chains to one listing card.
// It never fails: a field whose chain is exhausted stays empty.
func extractRecord(card *goquery.Selection) listing.Record {
	rec := listing.Record{
		Title:            extractTitle(card),
		Price:            extractPrice(card),
		ImageURL:         extractImageURL(card),
		ListingURL:       extractListingURL(card),
		SellerProfileURL: extractSellerProfileURL(card),
		SellerName:       extractSellerName(card),
		Likes:            extractLikes(card),
		DaysAgo:          extractDaysAgo(card),
	}
	rec.Bedrooms, rec.Bathrooms, rec.Size, rec.Remarks = extractFeatures(card)

	if rec.Title == "" {
		logger.Debug("listing card missing title", "listing_url", rec.ListingURL)
	}
	if rec.Price == "" {
		logger.Debug("listing card missing price", "title", rec.Title)
	}
	return rec
}

// extractTitle prefers an explicit title attribute on a text node, then the
// first non-empty text content.
func extractTitle(card *goquery.Selection) string {
	if v, ok := card.Find("p[title]").First().Attr("title"); ok && v != "" {
		return v
	}
	var title string
	card.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if txt := strings.TrimSpace(p.Text()); txt != "" {
			title = txt
			return false
		}
		return true
	})
	return title
}

// extractPrice prefers a title attribute carrying the PHP currency marker,
// then the first inline text beginning with it.
func extractPrice(card *goquery.Selection) string {
	var price string
	card.Find("span[title]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, _ := s.Attr("title"); strings.HasPrefix(v, "PHP") {
			price = v
			return false
		}
		return true
	})
	if price != "" {
		return price
	}
	card.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if txt := strings.TrimSpace(s.Text()); strings.HasPrefix(txt, "PHP") {
			price = txt
			return false
		}
		return true
	})
	return price
}

// extractFeatures scans the features region and classifies each labeled
// value: "sqm" values are size, purely numeric values are bedrooms or
// bathrooms depending on the nearest preceding icon, and everything else
// (including numerics with no recognizable icon) lands in remarks.
func extractFeatures(card *goquery.Selection) (bedrooms, bathrooms, size, remarks string) {
	region := card.Find(`div[class*="D_qc"]`).First()
	if region.Length() == 0 {
		return
	}
	region.Find("span[title]").Each(func(_ int, span *goquery.Selection) {
		val, _ := span.Attr("title")
		switch {
		case strings.Contains(val, "sqm"):
			size = val
		case isDigits(val):
			src := precedingIconSrc(span)
			switch {
			case strings.Contains(src, "ic_bed.svg"):
				bedrooms = val
			case strings.Contains(src, "ic_bath.svg"):
				bathrooms = val
			default:
				remarks = val
			}
		default:
			remarks = val
		}
	})
	return
}

// precedingIconSrc returns the src of the nearest preceding sibling image,
// or "" when there is none.
func precedingIconSrc(span *goquery.Selection) string {
	for sib := span.Prev(); sib.Length() > 0; sib = sib.Prev() {
		if sib.Is("img") {
			src, _ := sib.Attr("src")
			return src
		}
	}
	return ""
}

func extractImageURL(card *goquery.Selection) string {
	src, _ := card.Find("img[alt][src]").First().Attr("src")
	return src
}

func extractListingURL(card *goquery.Selection) string {
	href, ok := card.Find("a[href]").First().Attr("href")
	if !ok {
		return ""
	}
	return absolutize(href)
}

func extractSellerProfileURL(card *goquery.Selection) string {
	href, ok := card.Find(`a[href*="/u/"]`).First().Attr("href")
	if !ok {
		return ""
	}
	return absolutize(href)
}

func extractSellerName(card *goquery.Selection) string {
	return strings.TrimSpace(card.Find(`p[data-testid="listing-card-text-seller-name"]`).First().Text())
}

func extractLikes(card *goquery.Selection) string {
	span := card.Find(`button[data-testid="listing-card-btn-like"]`).First().Find("span").First()
	if txt := strings.TrimSpace(span.Text()); txt != "" {
		return txt
	}
	return "0"
}

func extractDaysAgo(card *goquery.Selection) string {
	for _, marker := range daysAgoMarkers {
		sel := card.Find(fmt.Sprintf(`p[class*=%q]`, marker)).First()
		if txt := strings.TrimSpace(sel.Text()); txt != "" {
			return txt
		}
	}
	return ""
}

// absolutize resolves href against the site origin. Already-absolute URLs
// pass through unchanged.
func absolutize(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return Origin + href
	}
	return origin.ResolveReference(u).String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
