package report

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"callconv/internal/driver"
	"callconv/internal/observ"
)

// Document is the msgpack form of a driver.Result.
type Document struct {
	Target      string                  `msgpack:"target"`
	Mode        string                  `msgpack:"mode"`
	Functions   []driver.FunctionReport `msgpack:"functions"`
	Diagnostics []Diagnostic            `msgpack:"diagnostics"`
	Timings     *observ.Report          `msgpack:"timings,omitempty"`
}

// Diagnostic is the msgpack form of a diag.Diagnostic.
type Diagnostic struct {
	Severity string   `msgpack:"severity"`
	Code     string   `msgpack:"code"`
	Subject  string   `msgpack:"subject"`
	Message  string   `msgpack:"message"`
	Notes    []string `msgpack:"notes,omitempty"`
}

// NewDocument converts a result. Timings are included when withTimings
// is set.
func NewDocument(res *driver.Result, withTimings bool) *Document {
	doc := &Document{
		Target:    res.Target,
		Mode:      res.Mode.String(),
		Functions: res.Functions,
	}
	if res.Bag != nil {
		for _, d := range res.Bag.Items() {
			rec := Diagnostic{
				Severity: d.Severity.String(),
				Code:     d.Code.ID(),
				Subject:  d.Subject,
				Message:  d.Message,
			}
			for _, n := range d.Notes {
				rec.Notes = append(rec.Notes, n.Subject+": "+n.Msg)
			}
			doc.Diagnostics = append(doc.Diagnostics, rec)
		}
	}
	if withTimings {
		t := res.Timings
		doc.Timings = &t
	}
	return doc
}

// EncodeMsgpack writes the result as one msgpack document.
func EncodeMsgpack(w io.Writer, res *driver.Result, withTimings bool) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(NewDocument(res, withTimings)); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// DecodeMsgpack reads a document written by EncodeMsgpack.
func DecodeMsgpack(r io.Reader) (*Document, error) {
	var doc Document
	if err := msgpack.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &doc, nil
}
