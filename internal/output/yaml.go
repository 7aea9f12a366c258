package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mlibrea/propscan/internal/listing"
)

// YAMLWriter buffers records and writes them as one YAML document.
type YAMLWriter struct {
	w       *bufio.Writer
	records []listing.Record
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w:       bufio.NewWriter(w),
		records: make([]listing.Record, 0),
	}
}

// Write buffers a single record.
func (w *YAMLWriter) Write(rec listing.Record) error {
	w.records = append(w.records, rec)
	return nil
}

// WriteAll buffers multiple records.
func (w *YAMLWriter) WriteAll(records []listing.Record) error {
	w.records = append(w.records, records...)
	return nil
}

// Flush writes the buffered records as YAML. A single record is written
// directly, not wrapped in a sequence.
func (w *YAMLWriter) Flush() error {
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)

	var err error
	if len(w.records) == 1 {
		err = encoder.Encode(w.records[0])
	} else {
		err = encoder.Encode(w.records)
	}
	if err != nil {
		return err
	}

	if err := encoder.Close(); err != nil {
		return err
	}

	return w.w.Flush()
}

// Close flushes and closes the writer.
func (w *YAMLWriter) Close() error {
	return w.Flush()
}
