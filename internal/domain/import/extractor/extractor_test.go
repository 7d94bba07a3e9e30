package extractor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/sniffer"
)

// ============================================================================
// PDF line reconstruction
// ============================================================================

func TestReconstructLines_ReadingOrder(t *testing.T) {
	// Stream order is scrambled: amounts first, then dates, then text.
	fragments := []Fragment{
		{Text: "-12.450", X: 500, Y: 700.2},
		{Text: "448.599", X: 500, Y: 680},
		{Text: "25.07.28", X: 40, Y: 699.8},
		{Text: "25.07.30", X: 40, Y: 680.4},
		{Text: "TESCO", X: 120, Y: 700},
		{Text: "COGNIZANT", X: 120, Y: 680},
		{Text: "FORGALMAK", X: 40, Y: 760},
	}

	lines := ReconstructLines(fragments)

	assert.Equal(t, []string{
		"FORGALMAK",
		"25.07.28 TESCO -12.450",
		"25.07.30 COGNIZANT 448.599",
	}, lines)
}

func TestReconstructLines_SkipsBlankFragments(t *testing.T) {
	lines := ReconstructLines([]Fragment{
		{Text: "  ", X: 10, Y: 10},
		{Text: " Kamat ", X: 20, Y: 10},
	})
	assert.Equal(t, []string{"Kamat"}, lines)
}

func TestReconstructText_JoinsPages(t *testing.T) {
	text := ReconstructText([][]Fragment{
		{{Text: "first", X: 0, Y: 100}},
		{{Text: "second", X: 0, Y: 100}},
	})
	assert.Equal(t, "first\nsecond", text)
}

func TestCoalesceGlyphs(t *testing.T) {
	glyphs := []Glyph{
		{Text: "K", X: 10, Y: 500, Width: 6, FontSize: 10},
		{Text: "a", X: 16, Y: 500, Width: 5, FontSize: 10},
		{Text: "m", X: 21, Y: 500, Width: 7, FontSize: 10},
		{Text: " ", X: 28, Y: 500, Width: 3, FontSize: 10},
		{Text: "3", X: 200, Y: 500, Width: 5, FontSize: 10},
		{Text: "0", X: 205, Y: 500, Width: 5, FontSize: 10},
		{Text: "x", X: 10, Y: 480, Width: 5, FontSize: 10},
	}

	frags := CoalesceGlyphs(glyphs)

	require.Len(t, frags, 3)
	assert.Equal(t, Fragment{Text: "Kam", X: 10, Y: 500}, frags[0])
	assert.Equal(t, Fragment{Text: "30", X: 200, Y: 500}, frags[1])
	assert.Equal(t, Fragment{Text: "x", X: 10, Y: 480}, frags[2])
}

func TestCoalesceGlyphs_GapSplitsWords(t *testing.T) {
	glyphs := []Glyph{
		{Text: "A", X: 10, Y: 500, Width: 5, FontSize: 8},
		{Text: "B", X: 30, Y: 500, Width: 5, FontSize: 8},
	}
	frags := CoalesceGlyphs(glyphs)
	require.Len(t, frags, 2)
	assert.Equal(t, []string{"A B"}, ReconstructLines(frags))
}

// ============================================================================
// CSV
// ============================================================================

func TestCSVExtractor(t *testing.T) {
	data := []byte("\xEF\xBB\xBFDátum;Megnevezés;Összeg\r\n" +
		"2025.10.01;TESCO;-12.450,50\r\n" +
		"\r\n" +
		"csak két;mező\r\n" +
		"2025.10.02;\"MOL; Kút\";-8500\r\n")

	doc, err := NewCSVExtractor().Extract(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, ';', doc.Delimiter)
	require.Len(t, doc.Rows, 3)
	assert.Equal(t, common.RawRow{"Dátum", "Megnevezés", "Összeg"}, doc.Rows[0])
	assert.Equal(t, common.RawRow{"2025.10.01", "TESCO", "-12.450,50"}, doc.Rows[1])
	assert.Equal(t, common.RawRow{"2025.10.02", "MOL; Kút", "-8500"}, doc.Rows[2])
}

func TestCSVExtractor_Empty(t *testing.T) {
	_, err := NewCSVExtractor().Extract(context.Background(), []byte("  \n "))
	assert.ErrorIs(t, err, sniffer.ErrEmptyFile)
}

// ============================================================================
// Spreadsheets
// ============================================================================

func TestXLSXExtractor_TypedCells(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Értéknap", "Tranzakció megnevezése", "Terhelés(-)", "Jóváírás(+)"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{45931, "TESCO EXTRA", 12450.5, ""}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"2025.10.05", "Átutalás", "", "150000.00"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	doc, err := NewXLSXExtractor(0).Extract(context.Background(), buf.Bytes())
	require.NoError(t, err)
	require.Len(t, doc.Rows, 3)

	assert.Equal(t, "Értéknap", doc.Rows[0][0])
	assert.Equal(t, float64(45931), doc.Rows[1][0])
	assert.Equal(t, "TESCO EXTRA", doc.Rows[1][1])
	assert.Equal(t, 12450.5, doc.Rows[1][2])
	assert.Equal(t, "2025.10.05", doc.Rows[2][0])
	assert.Equal(t, "150000.00", doc.Rows[2][3])
}

func TestXLSXExtractor_Corrupt(t *testing.T) {
	_, err := NewXLSXExtractor(0).Extract(context.Background(), []byte("not a zip"))
	assert.Error(t, err)
}

func TestPDFExtractor_Corrupt(t *testing.T) {
	ex, err := NewPDFExtractor(0)
	require.NoError(t, err)
	_, err = ex.Extract(context.Background(), []byte("%PDF-1.4 truncated"))
	assert.Error(t, err)
}

// ============================================================================
// Lazy registry
// ============================================================================

type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, []byte) (*Extracted, error) {
	return &Extracted{Lines: []string{"ok"}}, nil
}

func TestRegistry_LoadsOnceUnderConcurrency(t *testing.T) {
	r := NewRegistry(DefaultOptions())
	var builds atomic.Int32
	release := make(chan struct{})
	r.Register(sniffer.FormatPDF, func() (Extractor, error) {
		builds.Add(1)
		<-release
		return stubExtractor{}, nil
	})

	var wg sync.WaitGroup
	results := make([]Extractor, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ex, err := r.Get(sniffer.FormatPDF)
			assert.NoError(t, err)
			results[i] = ex
		}(i)
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, ex := range results {
		assert.Equal(t, stubExtractor{}, ex)
	}
}

func TestRegistry_CachesLoadFailure(t *testing.T) {
	r := NewRegistry(DefaultOptions())
	var builds atomic.Int32
	loadErr := errors.New("library unavailable")
	r.Register(sniffer.FormatXLS, func() (Extractor, error) {
		builds.Add(1)
		return nil, loadErr
	})

	_, err := r.Get(sniffer.FormatXLS)
	assert.ErrorIs(t, err, loadErr)
	_, err = r.Extract(context.Background(), sniffer.FormatXLS, nil)
	assert.ErrorIs(t, err, loadErr)
	assert.Equal(t, int32(1), builds.Load())
}

func TestRegistry_UnknownFormat(t *testing.T) {
	r := NewRegistry(DefaultOptions())
	_, err := r.Get(sniffer.Format("docx"))
	assert.ErrorIs(t, err, ErrNoExtractor)
}

func TestRegistry_ExtractTagsFormat(t *testing.T) {
	r := NewRegistry(DefaultOptions())
	doc, err := r.Extract(context.Background(), sniffer.FormatCSV, []byte("a;b;c\n1;2;3\n"))
	require.NoError(t, err)
	assert.Equal(t, sniffer.FormatCSV, doc.Format)
	assert.Len(t, doc.Rows, 2)
}
