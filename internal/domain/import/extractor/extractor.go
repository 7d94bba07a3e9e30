// Package extractor turns raw statement bytes into rows or text lines for
// the bank profile parsers.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/sniffer"
)

var (
	ErrNoExtractor = errors.New("no extractor registered for format")
	ErrNoContent   = errors.New("document has no readable content")
)

// Extracted is the format independent output of an extractor.
type Extracted struct {
	Format sniffer.Format
	// Rows holds CSV records and spreadsheet rows, header rows included.
	Rows []common.RawRow
	// Lines holds reconstructed PDF text lines in reading order.
	Lines []string
	// Text is the decoded CSV body, kept for schema based decoding.
	Text []byte
	// Delimiter is the CSV field separator that produced Rows.
	Delimiter rune
}

// Extractor produces an Extracted document from file bytes.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*Extracted, error)
}

// Loader builds an extractor. It runs at most once per Registry entry.
type Loader func() (Extractor, error)

// Options bounds the work a single document may cause.
type Options struct {
	MaxPDFPages  int
	MaxSheetRows int
}

// DefaultOptions returns limits suitable for monthly household statements.
func DefaultOptions() Options {
	return Options{
		MaxPDFPages:  200,
		MaxSheetRows: 50000,
	}
}

// Registry resolves extractors by format. Each extractor is built lazily on
// first use; concurrent callers wait for the same build and share its
// result, including a failed one.
type Registry struct {
	loaders map[sniffer.Format]func() (Extractor, error)
}

// NewRegistry returns a registry with the CSV, XLSX, XLS and PDF extractors.
func NewRegistry(opts Options) *Registry {
	r := &Registry{loaders: make(map[sniffer.Format]func() (Extractor, error))}
	r.Register(sniffer.FormatCSV, func() (Extractor, error) {
		return NewCSVExtractor(), nil
	})
	r.Register(sniffer.FormatXLSX, func() (Extractor, error) {
		return NewXLSXExtractor(opts.MaxSheetRows), nil
	})
	r.Register(sniffer.FormatXLS, func() (Extractor, error) {
		return NewXLSExtractor(opts.MaxSheetRows), nil
	})
	r.Register(sniffer.FormatPDF, func() (Extractor, error) {
		return NewPDFExtractor(opts.MaxPDFPages)
	})
	return r
}

// Register installs or replaces the loader for format. Call it during setup,
// before the registry is shared.
func (r *Registry) Register(format sniffer.Format, load Loader) {
	r.loaders[format] = sync.OnceValues((func() (Extractor, error))(load))
}

// Get returns the extractor for format, building it on first call.
func (r *Registry) Get(format sniffer.Format) (Extractor, error) {
	load, ok := r.loaders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoExtractor, format)
	}
	ex, err := load()
	if err != nil {
		return nil, fmt.Errorf("load %s extractor: %w", format, err)
	}
	return ex, nil
}

// Extract runs the extractor registered for format over data.
func (r *Registry) Extract(ctx context.Context, format sniffer.Format, data []byte) (*Extracted, error) {
	ex, err := r.Get(format)
	if err != nil {
		return nil, err
	}
	doc, err := ex.Extract(ctx, data)
	if err != nil {
		return nil, err
	}
	doc.Format = format
	return doc, nil
}
