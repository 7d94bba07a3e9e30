package parser

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/normalizer"
)

const revolutCompleted = "COMPLETED"

// revolutRow is one line of the Revolut account CSV export.
type revolutRow struct {
	Type          string `csv:"Type"`
	Product       string `csv:"Product"`
	StartedDate   string `csv:"Started Date"`
	CompletedDate string `csv:"Completed Date"`
	Description   string `csv:"Description"`
	Amount        string `csv:"Amount"`
	Fee           string `csv:"Fee"`
	Currency      string `csv:"Currency"`
	State         string `csv:"State"`
	Balance       string `csv:"Balance"`
}

// RevolutProfile reads the Revolut CSV export by header name and falls back
// to keyword columns for spreadsheets.
func RevolutProfile() *Profile {
	return &Profile{
		Bank: common.BankRevolut,
		Text: TextLayout{
			Date:      dateToken,
			ValueDate: true,
		},
		Sheet: SheetLayout{
			HeaderKeywords: []string{"date", "started"},
			ScanRows:       5,
			Date:           []string{"date", "started date", "completed date"},
			Description:    []string{"description", "reference"},
			Amount:         []string{"amount", "paid in", "paid out"},
		},
		Merchants: commonMerchants,
		CSV:       decodeRevolutCSV,
	}
}

// decodeRevolutCSV keeps completed rows only; pending and reverted card
// payments are not final.
func decodeRevolutCSV(text []byte, delimiter rune) ([]Candidate, bool) {
	header, _, _ := bytes.Cut(text, []byte("\n"))
	if !bytes.Contains(header, []byte("Amount")) || !bytes.Contains(header, []byte("Date")) {
		return nil, false
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var rows []revolutRow
	if err := gocsv.UnmarshalCSV(r, &rows); err != nil {
		return nil, false
	}

	cands := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		state := strings.ToUpper(strings.TrimSpace(row.State))
		if state != "" && state != revolutCompleted {
			continue
		}
		raw := row.CompletedDate
		if strings.TrimSpace(raw) == "" {
			raw = row.StartedDate
		}
		date, _ := normalizer.ParseDate(raw)

		c := Candidate{
			Date:        date,
			Description: row.Description,
			Amount:      revolutAmount(row.Amount),
		}
		if row.Type != "" {
			c.AddInfo(row.Type)
		}
		if fee := revolutAmount(row.Fee); !fee.IsZero() {
			c.AddInfo("Fee: " + fee.String() + " " + row.Currency)
		}
		cands = append(cands, c)
	}
	return cands, true
}

// revolutAmount reads the export's dot decimal amounts, where a comma can
// only be a thousands separator.
func revolutAmount(raw string) decimal.Decimal {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	return normalizer.ParseAmount(raw)
}
