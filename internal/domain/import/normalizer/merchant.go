package normalizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// UnknownMerchant is used when a description carries no usable words.
const UnknownMerchant = "Ismeretlen"

// MerchantPattern maps descriptions matching Pattern to a display name.
// Name may reference capture groups ("$1").
type MerchantPattern struct {
	Pattern *regexp.Regexp
	Name    string
}

// MerchantTable is an ordered list of known merchant patterns; the first
// match wins.
type MerchantTable []MerchantPattern

// Lookup returns the display name of the first pattern matching description.
func (t MerchantTable) Lookup(description string) (string, bool) {
	for _, p := range t {
		m := p.Pattern.FindStringSubmatchIndex(description)
		if m == nil {
			continue
		}
		name := string(p.Pattern.ExpandString(nil, p.Name, description, m))
		name = strings.TrimSpace(name)
		if name != "" {
			return name, true
		}
	}
	return "", false
}

// Merchant resolves the display name through the table and falls back to
// the first words of the description.
func (t MerchantTable) Merchant(description string, words int) string {
	if name, ok := t.Lookup(description); ok {
		return name
	}
	return FallbackMerchant(description, words)
}

// MustPattern builds a case insensitive MerchantPattern.
func MustPattern(expr, name string) MerchantPattern {
	return MerchantPattern{Pattern: regexp.MustCompile(`(?i)` + expr), Name: name}
}

// FallbackMerchant joins the first n meaningful words of description: longer
// than two characters, not purely digits and without '*'.
func FallbackMerchant(description string, n int) string {
	var picked []string
	for _, w := range strings.Fields(description) {
		w = strings.Trim(w, ",;:")
		if utf8.RuneCountInString(w) <= 2 || isDigits(w) || strings.Contains(w, "*") {
			continue
		}
		picked = append(picked, w)
		if len(picked) == n {
			break
		}
	}
	if len(picked) == 0 {
		return UnknownMerchant
	}
	return strings.Join(picked, " ")
}

var (
	spacePattern    = regexp.MustCompile(`\s+`)
	trailingNoise   = regexp.MustCompile(`[\s,;]+$`)
	genericPrefixes = []string{
		"Kártyás vásárlás:", "POS vásárlás:", "Online vásárlás:", "Vásárlás:",
		"Átutalás:", "Készpénzfelvétel:", "Banki költség:",
	}
)

// CleanDescription collapses whitespace, strips generic Hungarian booking
// prefixes and trailing separators.
func CleanDescription(raw string) string {
	s := spacePattern.ReplaceAllString(strings.TrimSpace(raw), " ")
	for _, prefix := range genericPrefixes {
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	return trailingNoise.ReplaceAllString(s, "")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
