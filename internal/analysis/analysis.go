// Package analysis ranks normalized listings by price per square meter and
// groups them by building.
package analysis

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/mlibrea/propscan/internal/listing"
	"github.com/mlibrea/propscan/internal/logger"
)

// DefaultTop is the per-building cutoff for the ranking report.
const DefaultTop = 10

// Unit is one listing priced per square meter.
type Unit struct {
	Building string
	Title    string
	Price    float64
	Size     float64
	PerSqm   float64
	// DiffMeanMin is the building's mean-to-minimum per-sqm spread over
	// the reported subset; a large spread flags outlier pricing.
	DiffMeanMin float64
}

// Rank converts records into per-sqm units sorted ascending, canonicalizing
// building names on the way. Records without a parseable price and size are
// dropped: they cannot be ranked.
func Rank(records []listing.Record, rules []AliasRule) []Unit {
	units := make([]Unit, 0, len(records))
	for _, r := range records {
		price, okPrice := PriceValue(r.Price)
		size, okSize := SizeValue(r.Size)
		if !okPrice || !okSize || size == 0 {
			logger.Debug("listing not rankable", "title", r.Title,
				"price", r.Price, "size", r.Size)
			continue
		}
		units = append(units, Unit{
			Building: Canonicalize(r.Building, rules),
			Title:    r.Title,
			Price:    price,
			Size:     size,
			PerSqm:   price / size,
		})
	}
	sort.SliceStable(units, func(i, j int) bool { return units[i].PerSqm < units[j].PerSqm })
	return units
}

// TopPerBuilding keeps each building's n cheapest units from an
// ascending-sorted ranking, preserving the global order, and attaches each
// building's mean-min spread computed over the kept subset.
func TopPerBuilding(units []Unit, n int) []Unit {
	if n <= 0 {
		n = DefaultTop
	}

	counts := map[string]int{}
	kept := make([]Unit, 0, len(units))
	for _, u := range units {
		if counts[u.Building] >= n {
			continue
		}
		counts[u.Building]++
		kept = append(kept, u)
	}

	sums := map[string]float64{}
	mins := map[string]float64{}
	for _, u := range kept {
		sums[u.Building] += u.PerSqm
		if m, seen := mins[u.Building]; !seen || u.PerSqm < m {
			mins[u.Building] = u.PerSqm
		}
	}
	for i := range kept {
		b := kept[i].Building
		kept[i].DiffMeanMin = sums[b]/float64(counts[b]) - mins[b]
	}
	return kept
}

// WriteReport renders units as an aligned table.
func WriteReport(w io.Writer, units []Unit) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "BUILDING\tTITLE\tPER SQM\tDIFF MEAN-MIN")
	for _, u := range units {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\n", u.Building, u.Title, u.PerSqm, u.DiffMeanMin)
	}
	return tw.Flush()
}
