// Package normalizer turns locale formatted statement cells into canonical
// amounts, ISO dates and short merchant names.
package normalizer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var amountTokenPattern = regexp.MustCompile(`^[-+]?\d+(?:\.\d{3})*(?:,\d{2})?$`)

// ParseAmount converts a statement amount cell into a decimal.
//
// Numbers pass through unchanged. Strings are reduced to digits, separators
// and a leading sign, then disambiguated:
//   - "." and "," both present: "." groups thousands, "," is the decimal mark
//   - only ",": a single comma is the decimal mark, repeated commas group thousands
//   - only ".": repeated dots, or a last group of exactly three digits, group
//     thousands; otherwise the dot is the decimal mark
//
// "1.234" therefore reads as 1234. Anything unparseable yields zero.
func ParseAmount(raw any) decimal.Decimal {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		return parseAmountString(v)
	default:
		return decimal.Zero
	}
}

func parseAmountString(raw string) decimal.Decimal {
	cleaned := cleanAmount(raw)
	if cleaned == "" {
		return decimal.Zero
	}

	negative := false
	switch cleaned[0] {
	case '-':
		negative = true
		cleaned = cleaned[1:]
	case '+':
		cleaned = cleaned[1:]
	}

	hasDot := strings.Contains(cleaned, ".")
	hasComma := strings.Contains(cleaned, ",")

	switch {
	case hasDot && hasComma:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case hasComma:
		if strings.Count(cleaned, ",") == 1 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasDot:
		last := cleaned[strings.LastIndex(cleaned, ".")+1:]
		if strings.Count(cleaned, ".") > 1 || len(last) == 3 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		d = d.Neg()
	}
	return d
}

// cleanAmount keeps digits, "." and ",", plus a sign that precedes every digit.
func cleanAmount(raw string) string {
	var b strings.Builder
	seenBody := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			seenBody = true
		case r == '.' || r == ',':
			b.WriteRune(r)
			seenBody = true
		case (r == '-' || r == '+' || r == '−') && !seenBody && b.Len() == 0:
			if r == '−' {
				r = '-'
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsAmountToken reports whether a whitespace separated token looks like a
// statement amount (optional sign, digit groups, optional decimals).
func IsAmountToken(token string) bool {
	return amountTokenPattern.MatchString(token)
}
