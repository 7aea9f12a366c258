package portals

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

const property24Base = "https://www.property24.ph/for-rent"

var siteProperty24 = site{
	name: "Property24",
	pageURL: func(page int) string {
		return fmt.Sprintf("%s?page=%d", property24Base, page)
	},
	parse: parseProperty24,
}

// parseProperty24 extracts listing cards from a Property24 results page.
// Unlike Lamudi, every field has a placeholder default.
func parseProperty24(doc *goquery.Document) []Listing {
	var listings []Listing
	doc.Find("div.property-card").Each(func(_ int, card *goquery.Selection) {
		listings = append(listings, Listing{
			Title:     textOr(card, "h3.property-title", "N/A"),
			PriceText: textOr(card, "div.property-price", "N/A"),
			Location:  textOr(card, "div.property-location", "Unknown"),
			Source:    "Property24",
		})
	})
	return listings
}
