package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
)

// XLSXExtractor reads the first populated worksheet of an Office Open XML
// workbook. Numeric cells are returned as float64 so date serials reach the
// date normalizer as numbers; every other cell is a string.
type XLSXExtractor struct {
	maxRows int
}

func NewXLSXExtractor(maxRows int) *XLSXExtractor {
	return &XLSXExtractor{maxRows: maxRows}
}

func (e *XLSXExtractor) Extract(_ context.Context, data []byte) (*Extracted, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet, rows, err := firstPopulatedSheet(f)
	if err != nil {
		return nil, err
	}

	doc := &Extracted{}
	for r, cells := range rows {
		if e.maxRows > 0 && r >= e.maxRows {
			break
		}
		row := make(common.RawRow, len(cells))
		for c, value := range cells {
			row[c] = typedCell(f, sheet, c, r, value)
		}
		doc.Rows = append(doc.Rows, row)
	}
	return doc, nil
}

func firstPopulatedSheet(f *excelize.File) (string, [][]string, error) {
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return "", nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		if len(rows) > 0 {
			return name, rows, nil
		}
	}
	return "", nil, ErrNoContent
}

func typedCell(f *excelize.File, sheet string, col, row int, value string) any {
	if value == "" {
		return ""
	}
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return value
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return value
	}
	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n
		}
	}
	return value
}

// XLSExtractor reads legacy BIFF workbooks. Cell values arrive as the text
// the workbook displays.
type XLSExtractor struct {
	maxRows int
}

func NewXLSExtractor(maxRows int) *XLSExtractor {
	return &XLSExtractor{maxRows: maxRows}
}

func (e *XLSExtractor) Extract(_ context.Context, data []byte) (*Extracted, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls workbook: %w", err)
	}

	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		doc := &Extracted{}
		for r := 0; r <= int(sheet.MaxRow); r++ {
			if e.maxRows > 0 && r >= e.maxRows {
				break
			}
			row := sheet.Row(r)
			if row == nil {
				doc.Rows = append(doc.Rows, common.RawRow{})
				continue
			}
			cells := make(common.RawRow, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, strings.TrimSpace(row.Col(c)))
			}
			doc.Rows = append(doc.Rows, cells)
		}
		if hasContent(doc.Rows) {
			return doc, nil
		}
	}
	return nil, ErrNoContent
}

func hasContent(rows []common.RawRow) bool {
	for _, row := range rows {
		for _, cell := range row {
			if s, ok := cell.(string); !ok || s != "" {
				return true
			}
		}
	}
	return false
}
