package portals

import (
	"regexp"
	"slices"
	"strconv"

	"github.com/mlibrea/propscan/internal/logger"
)

var nonNumeric = regexp.MustCompile(`[^\d.]`)

// CleanPrice strips currency symbols and separators from a price string.
// Returns 0 when no parseable number remains.
func CleanPrice(priceText string) float64 {
	cleaned := nonNumeric.ReplaceAllString(priceText, "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		logger.Warn("could not clean price", "price", priceText)
		return 0
	}
	return v
}

// Summary aggregates scraped portal listings.
type Summary struct {
	TotalListings    int                `json:"total_listings" yaml:"total_listings"`
	AveragePrice     float64            `json:"average_price" yaml:"average_price"`
	MedianPrice      float64            `json:"median_price" yaml:"median_price"`
	MinPrice         float64            `json:"min_price" yaml:"min_price"`
	MaxPrice         float64            `json:"max_price" yaml:"max_price"`
	ListingsBySource map[string]int     `json:"listings_by_source" yaml:"listings_by_source"`
	PriceByLocation  map[string]float64 `json:"price_by_location" yaml:"price_by_location"`
}

// Aggregate computes summary statistics over cleaned listing prices.
func Aggregate(listings []Listing) Summary {
	s := Summary{
		TotalListings:    len(listings),
		ListingsBySource: map[string]int{},
		PriceByLocation:  map[string]float64{},
	}
	if len(listings) == 0 {
		return s
	}

	prices := make([]float64, len(listings))
	byLocation := map[string][]float64{}
	for i, l := range listings {
		p := CleanPrice(l.PriceText)
		prices[i] = p
		s.ListingsBySource[l.Source]++
		byLocation[l.Location] = append(byLocation[l.Location], p)
	}

	s.AveragePrice = mean(prices)
	s.MedianPrice = median(prices)
	s.MinPrice = slices.Min(prices)
	s.MaxPrice = slices.Max(prices)
	for location, ps := range byLocation {
		s.PriceByLocation[location] = mean(ps)
	}
	return s
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
