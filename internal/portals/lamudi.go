package portals

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mlibrea/propscan/internal/logger"
)

const lamudiBase = "https://www.lamudi.com.ph/rent/"

var siteLamudi = site{
	name: "Lamudi",
	pageURL: func(page int) string {
		return fmt.Sprintf("%s?page=%d", lamudiBase, page)
	},
	parse: parseLamudi,
}

// parseLamudi extracts listing cards from a Lamudi results page. A card
// without a title node is a layout artifact and is skipped.
func parseLamudi(doc *goquery.Document) []Listing {
	var listings []Listing
	doc.Find("div.listing-card").Each(func(_ int, card *goquery.Selection) {
		titleSel := card.Find("h2.listing-title").First()
		if titleSel.Length() == 0 {
			logger.Warn("skipping card without title", "source", "Lamudi")
			return
		}
		listings = append(listings, Listing{
			Title:     strings.TrimSpace(titleSel.Text()),
			PriceText: textOr(card, "div.listing-price", "N/A"),
			Location:  textOr(card, "div.listing-location", "Unknown"),
			Source:    "Lamudi",
		})
	})
	return listings
}
