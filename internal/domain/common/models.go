// Package common holds the ledger records shared by the import pipeline,
// the categorizer and the transaction store.
package common

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Bank identifies which statement profile produced or should parse a file.
type Bank string

const (
	BankOTP        Bank = "otp"
	BankRaiffeisen Bank = "raiffeisen"
	BankErste      Bank = "erste"
	BankRevolut    Bank = "revolut"
	BankGeneric    Bank = "generic"
)

// Banks lists every supported profile in display order.
var Banks = []Bank{BankOTP, BankRaiffeisen, BankErste, BankRevolut, BankGeneric}

// ParseBank maps a user supplied identifier to a Bank. Unknown values
// resolve to BankGeneric.
func ParseBank(s string) Bank {
	b := Bank(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Banks {
		if b == known {
			return b
		}
	}
	return BankGeneric
}

// RawRow is one extracted line of input: CSV fields, spreadsheet cells or a
// reconstructed PDF text line. Cells are string, float64 or time.Time.
type RawRow []any

// Transaction is the canonical record every statement format converges on.
type Transaction struct {
	ID                  string          `json:"id"`
	Date                string          `json:"date"` // YYYY-MM-DD
	Merchant            string          `json:"merchant"`
	Description         string          `json:"description"`
	Amount              decimal.Decimal `json:"amount"`
	Category            string          `json:"category"`
	Bank                Bank            `json:"bank"`
	Reference           string          `json:"reference,omitempty"`
	Memo                string          `json:"memo,omitempty"`
	AdditionalInfo      string          `json:"additional_info,omitempty"`
	CounterpartyAccount string          `json:"counterparty_account,omitempty"`
}

// DedupKey returns the content key used to detect already imported rows.
// Two real transactions sharing date, amount and description collapse to
// the same key.
func (t Transaction) DedupKey() string {
	text := t.Description
	if text == "" {
		text = t.Merchant
	}
	return t.Date + "_" + t.Amount.String() + "_" + text
}

// MatchText is the text category rules and keyword suggestions run against.
func (t Transaction) MatchText() string {
	if t.Description != "" {
		return t.Description
	}
	return t.Merchant
}

// Category is a user editable spending bucket.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

// Default category identifiers.
const (
	CategoryFood          = "food"
	CategoryTransport     = "transport"
	CategoryUtilities     = "utilities"
	CategoryShopping      = "shopping"
	CategoryEntertainment = "entertainment"
	CategoryHealth        = "health"
	CategoryOther         = "other"
)

// DefaultCategories returns the seed set used for a fresh ledger.
func DefaultCategories() []Category {
	return []Category{
		{ID: CategoryFood, Name: "Élelmiszer", Emoji: "🛒", Color: "#4CAF50"},
		{ID: CategoryTransport, Name: "Közlekedés", Emoji: "🚗", Color: "#2196F3"},
		{ID: CategoryUtilities, Name: "Rezsi", Emoji: "💡", Color: "#FF9800"},
		{ID: CategoryShopping, Name: "Vásárlás", Emoji: "🛍️", Color: "#E91E63"},
		{ID: CategoryEntertainment, Name: "Szórakozás", Emoji: "🎬", Color: "#9C27B0"},
		{ID: CategoryHealth, Name: "Egészség", Emoji: "💊", Color: "#F44336"},
		{ID: CategoryOther, Name: "Egyéb", Emoji: "📦", Color: "#607D8B"},
	}
}

// CategoryRule forces CategoryID on transactions whose text contains
// MerchantPattern and whose date falls inside [StartDate, EndDate].
// Empty bounds are open.
type CategoryRule struct {
	ID              string `json:"id"`
	MerchantPattern string `json:"merchant_pattern"`
	CategoryID      string `json:"category_id"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
}
