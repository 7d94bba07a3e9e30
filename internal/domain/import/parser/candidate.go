package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/normalizer"
)

const minDescriptionLength = 3

// Merchant fallback word counts: statement lines are dense so two words
// suffice, spreadsheet cells tend to lead with a generic noun.
const (
	textMerchantWords = 2
	rowMerchantWords  = 3
)

// Candidate accumulates one transaction while its lines or cells are read.
type Candidate struct {
	Date                string
	Description         string
	Amount              decimal.Decimal
	Reference           string
	Memo                string
	Counterparty        string
	CounterpartyAccount string
	Info                []string

	// open names the metadata field a wrapped continuation line belongs to.
	open string
}

// AddInfo appends a trimmed continuation line.
func (c *Candidate) AddInfo(line string) {
	if line = strings.TrimSpace(line); line != "" {
		c.Info = append(c.Info, line)
	}
}

// finalize applies the profile cleanup and the discard rules. ok is false
// for zero amounts, missing dates and descriptions shorter than three runes.
func (p *Profile) finalize(c *Candidate, merchantWords int) (common.Transaction, bool) {
	if c == nil || c.Date == "" || c.Amount.IsZero() {
		return common.Transaction{}, false
	}

	description := p.describe(c)
	if utf8.RuneCountInString(description) < minDescriptionLength {
		return common.Transaction{}, false
	}

	return common.Transaction{
		ID:                  uuid.NewString(),
		Date:                c.Date,
		Merchant:            p.merchant(c, description, merchantWords),
		Description:         description,
		Amount:              c.Amount,
		Bank:                p.Bank,
		Reference:           c.Reference,
		Memo:                c.Memo,
		AdditionalInfo:      strings.Join(c.Info, " | "),
		CounterpartyAccount: c.CounterpartyAccount,
	}, true
}

func (p *Profile) describe(c *Candidate) string {
	if p.Describe != nil {
		return p.Describe(c)
	}
	return normalizer.CleanDescription(c.Description)
}

func (p *Profile) merchant(c *Candidate, description string, words int) string {
	if c.Counterparty != "" {
		return c.Counterparty
	}
	if p.InfoMerchant && len(c.Info) > 0 {
		if name, ok := p.Merchants.Lookup(description); ok {
			return name
		}
		return normalizer.FallbackMerchant(c.Info[0], words)
	}
	return p.Merchants.Merchant(description, words)
}
