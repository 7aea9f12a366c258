package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/mlibrea/propscan/internal/listing"
)

// CSVWriter writes records as CSV rows under a fixed header.
type CSVWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

func (w *CSVWriter) header() error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	return w.w.Write(listing.Header)
}

// Write writes a single record row.
func (w *CSVWriter) Write(rec listing.Record) error {
	if err := w.header(); err != nil {
		return err
	}
	return w.w.Write(rec.Row())
}

// WriteAll writes multiple record rows.
func (w *CSVWriter) WriteAll(records []listing.Record) error {
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes the header even when no records were written, then flushes.
func (w *CSVWriter) Flush() error {
	if err := w.header(); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

// Close flushes the writer.
func (w *CSVWriter) Close() error {
	return w.Flush()
}

// ReadCSV loads records from a CSV file written by the CSV writer. Short
// rows are tolerated; missing columns stay empty.
func ReadCSV(path string) ([]listing.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if len(rows[0]) == 0 || rows[0][0] != listing.Header[0] {
		return nil, fmt.Errorf("%s: unrecognized header", path)
	}

	records := make([]listing.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, listing.FromRow(row))
	}
	return records, nil
}
