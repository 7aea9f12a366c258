package output

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/mlibrea/propscan/internal/listing"
	"github.com/mlibrea/propscan/internal/logger"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS listings (
	listing_url        TEXT PRIMARY KEY,
	title              TEXT NOT NULL DEFAULT '',
	price              TEXT NOT NULL DEFAULT '',
	bedrooms           TEXT NOT NULL DEFAULT '',
	bathrooms          TEXT NOT NULL DEFAULT '',
	size               TEXT NOT NULL DEFAULT '',
	remarks            TEXT NOT NULL DEFAULT '',
	image_url          TEXT NOT NULL DEFAULT '',
	seller_profile_url TEXT NOT NULL DEFAULT '',
	seller_name        TEXT NOT NULL DEFAULT '',
	likes              TEXT NOT NULL DEFAULT '0',
	days_ago           TEXT NOT NULL DEFAULT '',
	building           TEXT NOT NULL DEFAULT '',
	transaction_type   TEXT NOT NULL DEFAULT '',
	scraped_at         TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertSQL = `INSERT INTO listings (
	listing_url, title, price, bedrooms, bathrooms, size, remarks,
	image_url, seller_profile_url, seller_name, likes, days_ago,
	building, transaction_type, scraped_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())
ON CONFLICT (listing_url) DO UPDATE SET
	title = EXCLUDED.title,
	price = EXCLUDED.price,
	bedrooms = EXCLUDED.bedrooms,
	bathrooms = EXCLUDED.bathrooms,
	size = EXCLUDED.size,
	remarks = EXCLUDED.remarks,
	image_url = EXCLUDED.image_url,
	seller_profile_url = EXCLUDED.seller_profile_url,
	seller_name = EXCLUDED.seller_name,
	likes = EXCLUDED.likes,
	days_ago = EXCLUDED.days_ago,
	building = EXCLUDED.building,
	transaction_type = EXCLUDED.transaction_type,
	scraped_at = EXCLUDED.scraped_at`

// PostgresWriter upserts records into a listings table keyed by listing
// URL, so re-running a scrape refreshes rows instead of duplicating them.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter connects to dsn and ensures the listings table exists.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create listings table: %w", err)
	}
	return &PostgresWriter{db: db}, nil
}

func upsertArgs(rec listing.Record) []any {
	return []any{
		rec.ListingURL, rec.Title, rec.Price, rec.Bedrooms, rec.Bathrooms,
		rec.Size, rec.Remarks, rec.ImageURL, rec.SellerProfileURL,
		rec.SellerName, rec.Likes, rec.DaysAgo, rec.Building,
		rec.TransactionType,
	}
}

// Write upserts a single record. Records without a listing URL cannot be
// keyed and are skipped.
func (w *PostgresWriter) Write(rec listing.Record) error {
	if rec.ListingURL == "" {
		logger.Warn("skipping record without listing URL", "title", rec.Title)
		return nil
	}
	if _, err := w.db.Exec(upsertSQL, upsertArgs(rec)...); err != nil {
		return fmt.Errorf("upsert %s: %w", rec.ListingURL, err)
	}
	return nil
}

// WriteAll upserts records in one transaction.
func (w *PostgresWriter) WriteAll(records []listing.Record) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(upsertSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	skipped := 0
	for _, rec := range records {
		if rec.ListingURL == "" {
			skipped++
			continue
		}
		if _, err := stmt.Exec(upsertArgs(rec)...); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert %s: %w", rec.ListingURL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if skipped > 0 {
		logger.Warn("skipped records without listing URL", "count", skipped)
	}
	logger.Info("records upserted", "count", len(records)-skipped)
	return nil
}

// Flush is a no-op; upserts are not buffered.
func (w *PostgresWriter) Flush() error {
	return nil
}

// Close closes the database handle.
func (w *PostgresWriter) Close() error {
	return w.db.Close()
}
