package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/normalizer"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/sniffer"
)

const (
	defaultScanRows   = 10
	minHeaderCells    = 3
	positionalDate    = 0
	positionalDesc    = 1
	positionalAmount  = 2
	genericHeaderScan = 5
)

// columnMap holds resolved column indices; -1 means absent.
type columnMap struct {
	date   int
	desc   int
	amount int
	debit  int
	credit int
}

func (m columnMap) usable() bool {
	return m.date >= 0 && m.desc >= 0 && (m.amount >= 0 || m.debit >= 0 || m.credit >= 0)
}

func (m columnMap) doubleEntry() bool {
	return m.debit >= 0 || m.credit >= 0
}

// rowResult is the outcome of running the row driver.
type rowResult struct {
	transactions []common.Transaction
	candidates   int
	// generic reports that the profile columns were not found and the
	// generic layout was used instead.
	generic bool
}

// parseRows locates the header row with the profile keywords and maps the
// following rows to transactions. When the profile header or its columns
// are missing the generic layout takes over.
func (p *Profile) parseRows(rows []common.RawRow) rowResult {
	text := stringRows(rows)
	layout := p.Sheet

	if len(layout.HeaderKeywords) > 0 {
		scan := layout.ScanRows
		if scan <= 0 {
			scan = defaultScanRows
		}
		if idx, err := sniffer.FindHeaderRow(text, layout.HeaderKeywords, scan); err == nil {
			cols := resolveColumns(text[idx], layout)
			if cols.usable() {
				return p.mapRows(rows[idx+1:], cols)
			}
		}
	}

	res := p.parseRowsGeneric(rows, text)
	res.generic = true
	return res
}

// parseRowsGeneric takes the first row with at least three cells among the
// first few as the header and searches it with multilingual keywords,
// falling back to columns 0, 1 and 2.
func (p *Profile) parseRowsGeneric(rows []common.RawRow, text [][]string) rowResult {
	headerIdx := 0
	for i := 0; i < len(text) && i < genericHeaderScan; i++ {
		if nonEmpty(text[i]) >= minHeaderCells {
			headerIdx = i
			break
		}
	}
	if len(rows) == 0 {
		return rowResult{}
	}

	cols := resolveColumns(text[headerIdx], genericSheet)
	if !cols.usable() {
		cols = columnMap{
			date:   positionalDate,
			desc:   positionalDesc,
			amount: positionalAmount,
			debit:  -1,
			credit: -1,
		}
	}
	return p.mapRows(rows[headerIdx+1:], cols)
}

func (p *Profile) mapRows(rows []common.RawRow, cols columnMap) rowResult {
	var res rowResult
	for _, row := range rows {
		if nonEmptyCells(row) == 0 {
			continue
		}
		res.candidates++

		c := &Candidate{Description: cellString(cell(row, cols.desc))}
		if date, ok := normalizer.ParseDate(cell(row, cols.date)); ok {
			c.Date = date
		}
		if cols.doubleEntry() {
			c.Amount = signedDebitCredit(cell(row, cols.debit), cell(row, cols.credit))
		} else {
			c.Amount = normalizer.ParseAmount(cell(row, cols.amount))
		}

		if tx, ok := p.finalize(c, rowMerchantWords); ok {
			res.transactions = append(res.transactions, tx)
		}
	}
	return res
}

// signedDebitCredit returns the debit as an outflow, else the credit as an
// inflow. Banks print both columns unsigned.
func signedDebitCredit(debit, credit any) decimal.Decimal {
	if d := normalizer.ParseAmount(debit).Abs(); !d.IsZero() {
		return d.Neg()
	}
	return normalizer.ParseAmount(credit).Abs()
}

func resolveColumns(headers []string, layout SheetLayout) columnMap {
	used := make(map[int]bool)
	find := func(terms []string) int {
		idx := findColumn(headers, terms, used)
		if idx >= 0 {
			used[idx] = true
		}
		return idx
	}

	cols := columnMap{amount: -1, debit: -1, credit: -1}
	cols.date = find(layout.Date)
	cols.desc = find(layout.Description)
	cols.debit = find(layout.Debit)
	cols.credit = find(layout.Credit)
	if !cols.doubleEntry() {
		cols.amount = find(layout.Amount)
	}
	return cols
}

// findColumn is sniffer.FindColumn that skips columns already claimed by
// another field.
func findColumn(headers, terms []string, used map[int]bool) int {
	for _, term := range terms {
		for i, h := range headers {
			if used[i] {
				continue
			}
			if strings.Contains(strings.ToLower(strings.TrimSpace(h)), term) {
				return i
			}
		}
	}
	return -1
}

func cell(row common.RawRow, idx int) any {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(normalizer.ISODate)
	default:
		return ""
	}
}

func stringRows(rows []common.RawRow) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = cellString(v)
		}
	}
	return out
}

func nonEmpty(cells []string) int {
	n := 0
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

func nonEmptyCells(row common.RawRow) int {
	n := 0
	for _, v := range row {
		if cellString(v) != "" {
			n++
		}
	}
	return n
}
