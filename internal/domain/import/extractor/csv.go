package extractor

import (
	"context"
	"encoding/csv"
	"strings"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/sniffer"
)

const minCSVFields = 3

// CSVExtractor splits delimited text into rows. The first non blank line is
// kept as the header row; later lines are kept only when they carry at
// least three fields.
type CSVExtractor struct{}

func NewCSVExtractor() *CSVExtractor {
	return &CSVExtractor{}
}

func (e *CSVExtractor) Extract(_ context.Context, data []byte) (*Extracted, error) {
	text := sniffer.NormalizeText(data)
	if len(strings.TrimSpace(string(text))) == 0 {
		return nil, sniffer.ErrEmptyFile
	}

	lines := strings.Split(strings.ReplaceAll(string(text), "\r\n", "\n"), "\n")
	delimiter := pickDelimiter(lines)

	doc := &Extracted{Text: text, Delimiter: delimiter}
	headerSeen := false
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitCSVLine(line, delimiter)
		if headerSeen && len(fields) < minCSVFields {
			continue
		}
		headerSeen = true

		row := make(common.RawRow, len(fields))
		for i, f := range fields {
			row[i] = strings.TrimSpace(f)
		}
		doc.Rows = append(doc.Rows, row)
	}
	return doc, nil
}

// pickDelimiter uses the first line that contains a separator.
func pickDelimiter(lines []string) rune {
	for _, line := range lines {
		if d, n := sniffer.DetectDelimiter(line); n > 0 {
			return d
		}
	}
	return ';'
}

func splitCSVLine(line string, delimiter rune) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		return strings.Split(line, string(delimiter))
	}
	return fields
}
