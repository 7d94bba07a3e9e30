package normalizer

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// ISODate is the canonical transaction date layout.
const ISODate = "2006-01-02"

// spreadsheetEpoch is day zero for spreadsheet serial dates.
var spreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

type datePattern struct {
	re     *regexp.Regexp
	layout string
}

// Tried in order; the first pattern whose layout also validates wins.
var datePatterns = []datePattern{
	{regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`), "2006.01.02"},
	{regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`), "02.01.2006"},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "2006-01-02"},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`), "02/01/2006"},
}

// fallbackLayouts cover exports that carry time of day or English month names.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006.01.02 15:04:05",
	"2006.01.02. 15:04:05",
	"02.01.2006 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

// ParseDate normalizes a statement date cell to YYYY-MM-DD.
// time.Time values are truncated to their date, numbers are spreadsheet
// serial days counted from 1899-12-30, and strings are matched against the
// bank layouts before the generic fallbacks. ok is false when nothing parses.
func ParseDate(raw any) (string, bool) {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.Format(ISODate), true
	case float64:
		return fromSerial(v)
	case int:
		return fromSerial(float64(v))
	case int64:
		return fromSerial(float64(v))
	case string:
		return parseDateString(v)
	default:
		return "", false
	}
}

func fromSerial(serial float64) (string, bool) {
	if serial <= 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return "", false
	}
	days := int(math.Floor(serial))
	return spreadsheetEpoch.AddDate(0, 0, days).Format(ISODate), true
}

func parseDateString(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	// Raiffeisen writes "2025.10.01." with a closing dot.
	trimmed := strings.TrimSuffix(s, ".")

	for _, p := range datePatterns {
		if !p.re.MatchString(trimmed) {
			continue
		}
		if t, err := time.Parse(p.layout, trimmed); err == nil {
			return t.Format(ISODate), true
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ISODate), true
		}
	}
	return "", false
}

var shortDatePattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{2}$`)

// ParseShortDate reads the two digit year YY.MM.DD tokens printed on OTP
// statements ("25.07.28" is 2025-07-28).
func ParseShortDate(raw string) (string, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), ".")
	if !shortDatePattern.MatchString(s) {
		return "", false
	}
	t, err := time.Parse("06.01.02", s)
	if err != nil {
		return "", false
	}
	return t.Format(ISODate), true
}
