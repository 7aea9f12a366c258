// Package listing defines the record shape shared by the scraping,
// normalization, and output stages.
package listing

// Record is one scraped property listing. Every field is a string and
// defaults to empty: the shape is fixed-width regardless of how much the
// extractor managed to recover, so downstream consumers never branch on
// missing keys. Building and TransactionType are empty until the
// normalization stage fills them in.
type Record struct {
	Title            string `json:"title" yaml:"title"`
	Price            string `json:"price" yaml:"price"`
	Bedrooms         string `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms        string `json:"bathrooms" yaml:"bathrooms"`
	Size             string `json:"size" yaml:"size"`
	Remarks          string `json:"remarks" yaml:"remarks"`
	ImageURL         string `json:"image_url" yaml:"image_url"`
	ListingURL       string `json:"listing_url" yaml:"listing_url"`
	SellerProfileURL string `json:"seller_profile_url" yaml:"seller_profile_url"`
	SellerName       string `json:"seller_name" yaml:"seller_name"`
	Likes            string `json:"likes" yaml:"likes"`
	DaysAgo          string `json:"days_ago" yaml:"days_ago"`

	// Populated by normalization only. TransactionType is one of
	// "sale", "rent", "lease", or "".
	Building        string `json:"building" yaml:"building"`
	TransactionType string `json:"transaction_type" yaml:"transaction_type"`
}

// Header is the column order used by the CSV writer and reader. It matches
// the Record field order.
var Header = []string{
	"title",
	"price",
	"bedrooms",
	"bathrooms",
	"size",
	"remarks",
	"image_url",
	"listing_url",
	"seller_profile_url",
	"seller_name",
	"likes",
	"days_ago",
	"building",
	"transaction_type",
}

// Row returns the record's values in Header order.
func (r Record) Row() []string {
	return []string{
		r.Title,
		r.Price,
		r.Bedrooms,
		r.Bathrooms,
		r.Size,
		r.Remarks,
		r.ImageURL,
		r.ListingURL,
		r.SellerProfileURL,
		r.SellerName,
		r.Likes,
		r.DaysAgo,
		r.Building,
		r.TransactionType,
	}
}

// FromRow builds a record from a CSV row in Header order. Short rows fill
// the leading fields; extra columns are ignored.
func FromRow(row []string) Record {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Record{
		Title:            get(0),
		Price:            get(1),
		Bedrooms:         get(2),
		Bathrooms:        get(3),
		Size:             get(4),
		Remarks:          get(5),
		ImageURL:         get(6),
		ListingURL:       get(7),
		SellerProfileURL: get(8),
		SellerName:       get(9),
		Likes:            get(10),
		DaysAgo:          get(11),
		Building:         get(12),
		TransactionType:  get(13),
	}
}
