package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/mlibrea/propscan/internal/listing"
)

// JSONWriter buffers records and writes them as one JSON document.
type JSONWriter struct {
	w       *bufio.Writer
	pretty  bool
	indent  string
	records []listing.Record
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:       bufio.NewWriter(w),
		pretty:  pretty,
		indent:  indent,
		records: make([]listing.Record, 0),
	}
}

// Write buffers a single record for JSON array output.
func (w *JSONWriter) Write(rec listing.Record) error {
	w.records = append(w.records, rec)
	return nil
}

// WriteAll buffers all records at once.
func (w *JSONWriter) WriteAll(records []listing.Record) error {
	w.records = append(w.records, records...)
	return nil
}

// Flush writes the buffered records as a JSON array. A single record is
// written directly, not wrapped in an array.
func (w *JSONWriter) Flush() error {
	var output []byte
	var err error

	var payload any = w.records
	if len(w.records) == 1 {
		payload = w.records[0]
	}
	if w.pretty {
		output, err = json.MarshalIndent(payload, "", w.indent)
	} else {
		output, err = json.Marshal(payload)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}

	return w.w.Flush()
}

// Close flushes and closes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}

// JSONLWriter writes newline-delimited JSON (JSONL).
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{
		w: bufio.NewWriter(w),
	}
}

// Write writes a single record as a JSON line.
func (w *JSONLWriter) Write(rec listing.Record) error {
	output, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}

	return w.w.Flush()
}

// WriteAll writes multiple records as JSON lines.
func (w *JSONLWriter) WriteAll(records []listing.Record) error {
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
