package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/normalizer"
)

// Profile describes one bank's statement layouts as data plus small hooks.
// The shared text and row drivers do the rest.
type Profile struct {
	Bank  common.Bank
	Text  TextLayout
	Sheet SheetLayout

	// Merchants is consulted before the word fallback.
	Merchants normalizer.MerchantTable
	// InfoMerchant derives the merchant from the first continuation line
	// when the table has no match.
	InfoMerchant bool
	// Describe builds the final description; CleanDescription by default.
	Describe func(c *Candidate) string
	// CSV decodes a headered CSV export directly. ok is false when the file
	// does not follow the expected schema.
	CSV func(text []byte, delimiter rune) (cands []Candidate, ok bool)
}

// Section delimits the transaction list inside statement text. Markers are
// matched case insensitively anywhere in a line.
type Section struct {
	// Start opens the section. Empty means the whole document.
	Start []string
	// End closes the section; a later Start line opens it again, as
	// statements repeat the table header on every page.
	End []string
	// Skip lists header and balance lines ignored inside the section.
	Skip []string
}

// TextLayout drives the PDF line parser.
type TextLayout struct {
	Section Section
	// LeadingID, when set, must match the first token of a transaction
	// start line (Raiffeisen item identifiers).
	LeadingID *regexp.Regexp
	// Date parses the booking date token that opens a transaction line.
	Date func(token string) (string, bool)
	// ValueDate consumes an optional second date token.
	ValueDate bool
	// Amount finds the amount among the tokens after the dates and returns
	// its index, or -1. Defaults to the last amount shaped token.
	Amount func(tokens []string) (decimal.Decimal, int)
	// Fold merges a non start line into the open transaction. Defaults to
	// appending it to Info.
	Fold func(c *Candidate, line string)
	// Lookahead may recover a zero amount from the following line.
	Lookahead func(c *Candidate, next string)
}

// SheetLayout drives the spreadsheet and CSV row parser. Column terms are
// lower case substrings tried in order.
type SheetLayout struct {
	HeaderKeywords []string
	ScanRows       int
	Date           []string
	Description    []string
	Amount         []string
	Debit          []string
	Credit         []string
}

func (s Section) match(line string, markers []string) bool {
	if len(markers) == 0 {
		return false
	}
	upper := strings.ToUpper(line)
	for _, m := range markers {
		if strings.Contains(upper, strings.ToUpper(m)) {
			return true
		}
	}
	return false
}

// lastAmountToken returns the right-most token shaped like an amount.
func lastAmountToken(tokens []string) (decimal.Decimal, int) {
	for i := len(tokens) - 1; i >= 0; i-- {
		if normalizer.IsAmountToken(tokens[i]) {
			return normalizer.ParseAmount(tokens[i]), i
		}
	}
	return decimal.Zero, -1
}

func dateToken(token string) (string, bool) {
	return normalizer.ParseDate(token)
}

// DefaultProfiles returns every built in bank profile keyed by bank.
func DefaultProfiles() map[common.Bank]*Profile {
	profiles := []*Profile{
		OTPProfile(),
		RaiffeisenProfile(),
		ErsteProfile(),
		RevolutProfile(),
		GenericProfile(),
	}
	m := make(map[common.Bank]*Profile, len(profiles))
	for _, p := range profiles {
		m[p.Bank] = p
	}
	return m
}

// commonMerchants covers payment intermediaries seen across banks.
var commonMerchants = normalizer.MerchantTable{
	normalizer.MustPattern(`GOOGLE \*Google Play`, "Google Play"),
	normalizer.MustPattern(`PAYPAL \*([^*]+?)(?:\s+\d+)*\s*(?:\*|$)`, "$1"),
	normalizer.MustPattern(`SIMPLEP\*(\S+)`, "$1"),
	normalizer.MustPattern(`Revolut\*\*`, "Revolut"),
}

// GenericProfile parses statements of unknown banks: dated lines anywhere in
// PDF text and keyword or positional columns in rows.
func GenericProfile() *Profile {
	return &Profile{
		Bank: common.BankGeneric,
		Text: TextLayout{
			Date:      dateToken,
			ValueDate: true,
		},
		Sheet:     genericSheet,
		Merchants: commonMerchants,
	}
}

var genericSheet = SheetLayout{
	ScanRows:    5,
	Date:        []string{"date", "dátum", "értéknap", "könyvelés", "started"},
	Description: []string{"description", "megnevezés", "leírás", "tranzakció", "reference", "közlemény"},
	Amount:      []string{"amount", "összeg", "érték", "paid", "value"},
	Debit:       []string{"terhelés", "debit"},
	Credit:      []string{"jóváírás", "credit"},
}
