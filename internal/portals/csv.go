package portals

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/mlibrea/propscan/internal/logger"
)

// csvHeader includes the derived numeric price column.
var csvHeader = []string{"title", "price_text", "location", "source", "cleaned_price"}

// WriteCSV saves listings to path, appending a cleaned_price column derived
// from each price text.
func WriteCSV(path string, listings []Listing) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, l := range listings {
		row := []string{
			l.Title,
			l.PriceText,
			l.Location,
			l.Source,
			strconv.FormatFloat(CleanPrice(l.PriceText), 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	logger.Info("saved portal listings", "path", path, "count", len(listings))
	return nil
}
