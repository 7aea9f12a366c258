package carousell

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// cardFromHTML parses a fixture and returns its first listing card.
func cardFromHTML(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	card := doc.Find(cardSel).First()
	if card.Length() == 0 {
		t.Fatal("fixture has no listing card")
	}
	return card
}

const fullPage = `<html>
<head><title> Property for Sale in Makati | Carousell Philippines </title></head>
<body>
<div data-testid="listing-card-101">
  <a href="/p/2br-condo-101">
    <img alt="2BR Condo" src="https://media.carousell.ph/img101.jpg">
    <p title="2BR Condo at Shang Salcedo Place">2BR Condo at Shang Salcedo Place</p>
    <span title="PHP 25,000,000">PHP 25,000,000</span>
    <div class="D_mn D_qc">
      <img src="/assets/ic_bed.svg"><span title="2">2</span>
      <img src="/assets/ic_bath.svg"><span title="3">3</span>
      <span title="89 sqm">89 sqm</span>
      <span title="Fully Furnished">Fully Furnished</span>
    </div>
  </a>
  <a href="/u/juandelacruz">
    <img alt="juandelacruz" src="https://media.carousell.ph/avatar.jpg">
    <p data-testid="listing-card-text-seller-name">juandelacruz</p>
    <p class="D_pw">3 days ago</p>
  </a>
  <button data-testid="listing-card-btn-like"><span>12</span></button>
</div>
</body>
</html>`

func TestCollect_FullCard(t *testing.T) {
	pageTitle, records, err := Collect(fullPage)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if want := "Property for Sale in Makati | Carousell Philippines"; pageTitle != want {
		t.Errorf("page title = %q, want %q", pageTitle, want)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	checks := []struct {
		field string
		got   string
		want  string
	}{
		{"title", rec.Title, "2BR Condo at Shang Salcedo Place"},
		{"price", rec.Price, "PHP 25,000,000"},
		{"bedrooms", rec.Bedrooms, "2"},
		{"bathrooms", rec.Bathrooms, "3"},
		{"size", rec.Size, "89 sqm"},
		{"remarks", rec.Remarks, "Fully Furnished"},
		{"image_url", rec.ImageURL, "https://media.carousell.ph/img101.jpg"},
		{"listing_url", rec.ListingURL, "https://www.carousell.ph/p/2br-condo-101"},
		{"seller_profile_url", rec.SellerProfileURL, "https://www.carousell.ph/u/juandelacruz"},
		{"seller_name", rec.SellerName, "juandelacruz"},
		{"likes", rec.Likes, "12"},
		{"days_ago", rec.DaysAgo, "3 days ago"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
	if rec.Building != "" || rec.TransactionType != "" {
		t.Errorf("building/transaction should be empty before normalization, got %q/%q",
			rec.Building, rec.TransactionType)
	}
}

func TestCollect_NoListings(t *testing.T) {
	pageTitle, records, err := Collect(`<html><head><title>Empty</title></head><body></body></html>`)
	if !errors.Is(err, ErrNoListings) {
		t.Fatalf("Collect() error = %v, want ErrNoListings", err)
	}
	if records != nil {
		t.Errorf("records = %v, want nil", records)
	}
	if pageTitle != "Empty" {
		t.Errorf("page title = %q, want %q", pageTitle, "Empty")
	}
}

func TestCollect_PreservesCardOrder(t *testing.T) {
	html := `<html><body>
<div data-testid="listing-card-1"><p title="first">first</p></div>
<div data-testid="listing-card-2"><p title="second">second</p></div>
<div data-testid="listing-card-3"><p title="third">third</p></div>
</body></html>`

	_, records, err := Collect(html)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, w := range want {
		if records[i].Title != w {
			t.Errorf("records[%d].Title = %q, want %q", i, records[i].Title, w)
		}
	}
}

func TestExtractTitle_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			"attribute_preferred",
			`<div data-testid="listing-card-1"><p title="Attr Title">Text Title</p></div>`,
			"Attr Title",
		},
		{
			"text_when_no_attribute",
			`<div data-testid="listing-card-1"><p>   </p><p>Text Title</p></div>`,
			"Text Title",
		},
		{
			"empty_attribute_falls_through",
			`<div data-testid="listing-card-1"><p title="">Text Title</p></div>`,
			"Text Title",
		},
		{
			"no_text_at_all",
			`<div data-testid="listing-card-1"><span>not a title node</span></div>`,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := cardFromHTML(t, tt.html)
			if got := extractTitle(card); got != tt.want {
				t.Errorf("extractTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractPrice_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			"attribute_with_marker",
			`<div data-testid="listing-card-1"><span title="PHP 1,500,000">PHP 1.5M</span></div>`,
			"PHP 1,500,000",
		},
		{
			"text_with_marker",
			`<div data-testid="listing-card-1"><span title="boosted">PHP 1,500,000</span></div>`,
			"PHP 1,500,000",
		},
		{
			"no_marker_anywhere",
			`<div data-testid="listing-card-1"><span title="USD 30,000">USD 30,000</span></div>`,
			"",
		},
		{
			"marker_not_at_start",
			`<div data-testid="listing-card-1"><span>price: PHP 900,000</span></div>`,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := cardFromHTML(t, tt.html)
			if got := extractPrice(card); got != tt.want {
				t.Errorf("extractPrice() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractFeatures_Classification(t *testing.T) {
	tests := []struct {
		name                               string
		html                               string
		bedrooms, bathrooms, size, remarks string
	}{
		{
			name: "sqm_is_size_never_rooms",
			html: `<div data-testid="listing-card-1"><div class="D_qc">
<img src="/assets/ic_bed.svg"><span title="64 sqm">64 sqm</span>
</div></div>`,
			size: "64 sqm",
		},
		{
			name: "numeric_by_icon",
			html: `<div data-testid="listing-card-1"><div class="D_qc">
<img src="/assets/ic_bed.svg"><span title="3">3</span>
<img src="/assets/ic_bath.svg"><span title="2">2</span>
</div></div>`,
			bedrooms:  "3",
			bathrooms: "2",
		},
		{
			name: "numeric_without_icon_is_remarks",
			html: `<div data-testid="listing-card-1"><div class="D_qc">
<span title="7">7</span>
</div></div>`,
			remarks: "7",
		},
		{
			name: "numeric_with_unknown_icon_is_remarks",
			html: `<div data-testid="listing-card-1"><div class="D_qc">
<img src="/assets/ic_parking.svg"><span title="4">4</span>
</div></div>`,
			remarks: "4",
		},
		{
			name: "free_text_is_remarks",
			html: `<div data-testid="listing-card-1"><div class="D_qc">
<span title="Semi Furnished">Semi Furnished</span>
</div></div>`,
			remarks: "Semi Furnished",
		},
		{
			name: "no_features_region",
			html: `<div data-testid="listing-card-1"><p title="bare">bare</p></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := cardFromHTML(t, tt.html)
			bedrooms, bathrooms, size, remarks := extractFeatures(card)
			if bedrooms != tt.bedrooms {
				t.Errorf("bedrooms = %q, want %q", bedrooms, tt.bedrooms)
			}
			if bathrooms != tt.bathrooms {
				t.Errorf("bathrooms = %q, want %q", bathrooms, tt.bathrooms)
			}
			if size != tt.size {
				t.Errorf("size = %q, want %q", size, tt.size)
			}
			if remarks != tt.remarks {
				t.Errorf("remarks = %q, want %q", remarks, tt.remarks)
			}
		})
	}
}

func TestExtractLikes_DefaultsToZero(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			"count_present",
			`<div data-testid="listing-card-1"><button data-testid="listing-card-btn-like"><span>42</span></button></div>`,
			"42",
		},
		{
			"no_like_button",
			`<div data-testid="listing-card-1"><p title="x">x</p></div>`,
			"0",
		},
		{
			"empty_count",
			`<div data-testid="listing-card-1"><button data-testid="listing-card-btn-like"><span> </span></button></div>`,
			"0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := cardFromHTML(t, tt.html)
			if got := extractLikes(card); got != tt.want {
				t.Errorf("extractLikes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractDaysAgo_MarkerGenerations(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			"current_marker",
			`<div data-testid="listing-card-1"><p class="D_pw">2 days ago</p></div>`,
			"2 days ago",
		},
		{
			"older_marker",
			`<div data-testid="listing-card-1"><p class="D_jG">5 days ago</p></div>`,
			"5 days ago",
		},
		{
			"oldest_marker",
			`<div data-testid="listing-card-1"><p class="D_qa">1 month ago</p></div>`,
			"1 month ago",
		},
		{
			"marker_among_other_classes",
			`<div data-testid="listing-card-1"><p class="D_ab D_jG D_cd">8 days ago</p></div>`,
			"8 days ago",
		},
		{
			"no_marker",
			`<div data-testid="listing-card-1"><p class="D_zz">yesterday</p></div>`,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := cardFromHTML(t, tt.html)
			if got := extractDaysAgo(card); got != tt.want {
				t.Errorf("extractDaysAgo() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAbsolutize(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"root_relative", "/p/condo-123", "https://www.carousell.ph/p/condo-123"},
		{"already_absolute", "https://example.com/p/1", "https://example.com/p/1"},
		{"bare_path", "p/condo-123", "https://www.carousell.ph/p/condo-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := absolutize(tt.href); got != tt.want {
				t.Errorf("absolutize(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestIsDigits(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2", true},
		{"120", true},
		{"", false},
		{"12a", false},
		{"89 sqm", false},
		{"-3", false},
	}

	for _, tt := range tests {
		if got := isDigits(tt.in); got != tt.want {
			t.Errorf("isDigits(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
