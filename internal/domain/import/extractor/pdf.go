package extractor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reconstructs reading order text lines from the positioned
// glyphs of every page.
type PDFExtractor struct {
	maxPages int
}

func NewPDFExtractor(maxPages int) (*PDFExtractor, error) {
	if maxPages < 0 {
		return nil, fmt.Errorf("invalid page limit %d", maxPages)
	}
	return &PDFExtractor{maxPages: maxPages}, nil
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (*Extracted, error) {
	r, err := openPDF(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	doc := &Extracted{}
	pages := r.NumPage()
	if e.maxPages > 0 && pages > e.maxPages {
		pages = e.maxPages
	}
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		glyphs, err := pageGlyphs(p)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		doc.Lines = append(doc.Lines, ReconstructLines(CoalesceGlyphs(glyphs))...)
	}
	if len(doc.Lines) == 0 {
		return nil, ErrNoContent
	}
	return doc, nil
}

// The pdf package panics on some malformed inputs instead of returning an
// error; openPDF and pageGlyphs turn those panics into errors.

func openPDF(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed document: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// pageGlyphs reads a page content stream.
func pageGlyphs(p pdf.Page) (glyphs []Glyph, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed content stream: %v", r)
		}
	}()

	content := p.Content()
	glyphs = make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, Glyph{
			Text:     t.S,
			X:        t.X,
			Y:        t.Y,
			Width:    t.W,
			FontSize: t.FontSize,
		})
	}
	return glyphs, nil
}
