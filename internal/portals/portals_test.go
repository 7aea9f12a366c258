package portals

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func TestParseLamudi(t *testing.T) {
	html := `<html><body>
<div class="listing-card">
  <h2 class="listing-title"> Cozy Studio in Makati </h2>
  <div class="listing-price">PHP 25,000 / month</div>
  <div class="listing-location">Makati, Metro Manila</div>
</div>
<div class="listing-card">
  <h2 class="listing-title">Unit Without Price</h2>
</div>
<div class="listing-card">
  <div class="listing-price">PHP 99,000</div>
</div>
</body></html>`

	listings := parseLamudi(docFromHTML(t, html))

	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2 (titleless card skipped)", len(listings))
	}

	first := listings[0]
	if first.Title != "Cozy Studio in Makati" {
		t.Errorf("Title = %q, want %q", first.Title, "Cozy Studio in Makati")
	}
	if first.PriceText != "PHP 25,000 / month" {
		t.Errorf("PriceText = %q", first.PriceText)
	}
	if first.Location != "Makati, Metro Manila" {
		t.Errorf("Location = %q", first.Location)
	}
	if first.Source != "Lamudi" {
		t.Errorf("Source = %q, want Lamudi", first.Source)
	}

	second := listings[1]
	if second.PriceText != "N/A" {
		t.Errorf("missing price should default to N/A, got %q", second.PriceText)
	}
	if second.Location != "Unknown" {
		t.Errorf("missing location should default to Unknown, got %q", second.Location)
	}
}

func TestParseProperty24(t *testing.T) {
	html := `<html><body>
<div class="property-card">
  <h3 class="property-title">2BR Condo BGC</h3>
  <div class="property-price">PHP 45,000</div>
  <div class="property-location">Taguig</div>
</div>
<div class="property-card">
  <div class="property-location">Pasig</div>
</div>
</body></html>`

	listings := parseProperty24(docFromHTML(t, html))

	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}
	if listings[0].Title != "2BR Condo BGC" || listings[0].Source != "Property24" {
		t.Errorf("listings[0] = %+v", listings[0])
	}
	// Property24 cards keep placeholders instead of being skipped.
	if listings[1].Title != "N/A" {
		t.Errorf("missing title should default to N/A, got %q", listings[1].Title)
	}
	if listings[1].PriceText != "N/A" {
		t.Errorf("missing price should default to N/A, got %q", listings[1].PriceText)
	}
	if listings[1].Location != "Pasig" {
		t.Errorf("Location = %q, want Pasig", listings[1].Location)
	}
}

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"PHP 25,000 / month", 25000},
		{"PHP 1,234.56", 1234.56},
		{"30000", 30000},
		{"N/A", 0},
		{"", 0},
		{"1.2.3", 0},
	}

	for _, tt := range tests {
		if got := CleanPrice(tt.in); got != tt.want {
			t.Errorf("CleanPrice(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAggregate(t *testing.T) {
	listings := []Listing{
		{Title: "A", PriceText: "PHP 10,000", Location: "Makati", Source: "Lamudi"},
		{Title: "B", PriceText: "PHP 20,000", Location: "Makati", Source: "Lamudi"},
		{Title: "C", PriceText: "PHP 30,000", Location: "Taguig", Source: "Property24"},
	}

	s := Aggregate(listings)

	if s.TotalListings != 3 {
		t.Errorf("TotalListings = %d, want 3", s.TotalListings)
	}
	if s.AveragePrice != 20000 {
		t.Errorf("AveragePrice = %v, want 20000", s.AveragePrice)
	}
	if s.MedianPrice != 20000 {
		t.Errorf("MedianPrice = %v, want 20000", s.MedianPrice)
	}
	if s.MinPrice != 10000 || s.MaxPrice != 30000 {
		t.Errorf("Min/Max = %v/%v, want 10000/30000", s.MinPrice, s.MaxPrice)
	}
	if s.ListingsBySource["Lamudi"] != 2 || s.ListingsBySource["Property24"] != 1 {
		t.Errorf("ListingsBySource = %v", s.ListingsBySource)
	}
	if got := s.PriceByLocation["Makati"]; got != 15000 {
		t.Errorf("PriceByLocation[Makati] = %v, want 15000", got)
	}
	if got := s.PriceByLocation["Taguig"]; got != 30000 {
		t.Errorf("PriceByLocation[Taguig] = %v, want 30000", got)
	}
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(nil)
	if s.TotalListings != 0 {
		t.Errorf("TotalListings = %d, want 0", s.TotalListings)
	}
	if s.AveragePrice != 0 || s.MedianPrice != 0 {
		t.Errorf("empty aggregate should be all zeros, got %+v", s)
	}
}

func TestMedian_EvenCount(t *testing.T) {
	if got := median([]float64{1, 2, 3, 4}); math.Abs(got-2.5) > 1e-9 {
		t.Errorf("median = %v, want 2.5", got)
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	listings := []Listing{
		{Title: "A", PriceText: "PHP 10,500.50", Location: "Makati", Source: "Lamudi"},
	}

	if err := WriteCSV(path, listings); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	if rows[0][4] != "cleaned_price" {
		t.Errorf("header[4] = %q, want cleaned_price", rows[0][4])
	}
	if rows[1][4] != "10500.5" {
		t.Errorf("cleaned_price = %q, want 10500.5", rows[1][4])
	}
}

func TestNew_ZeroConfigGetsDefaults(t *testing.T) {
	s := New(Config{})
	def := DefaultConfig()

	if s.cfg.UserAgent != def.UserAgent {
		t.Errorf("UserAgent = %q, want default", s.cfg.UserAgent)
	}
	if s.cfg.MaxAttempts != def.MaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", s.cfg.MaxAttempts, def.MaxAttempts)
	}
	if s.cfg.RetryWait != def.RetryWait {
		t.Errorf("RetryWait = %v, want %v", s.cfg.RetryWait, def.RetryWait)
	}
	if s.cfg.MaxPages != def.MaxPages {
		t.Errorf("MaxPages = %d, want %d", s.cfg.MaxPages, def.MaxPages)
	}
}
