// Package categorization assigns spending categories from user rules and a
// built in keyword table.
package categorization

import (
	"errors"
	"fmt"
	"strings"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/normalizer"
)

var ErrInvalidRule = errors.New("invalid category rule")

// Categorizer resolves the category of a transaction.
type Categorizer struct {
	engine *Engine
}

// NewCategorizer creates a categorizer over the default keyword table.
func NewCategorizer() *Categorizer {
	return &Categorizer{engine: NewEngine(DefaultKeywords())}
}

// NewCategorizerWithKeywords creates a categorizer over a custom table.
func NewCategorizerWithKeywords(table []Keywords) *Categorizer {
	return &Categorizer{engine: NewEngine(table)}
}

// SuggestCategory returns the keyword table category for text.
func (c *Categorizer) SuggestCategory(text string) string {
	return c.engine.Suggest(text)
}

// CategoryFor applies, in order: the first matching rule, the category the
// parser already assigned, then the keyword suggestion.
func (c *Categorizer) CategoryFor(tx common.Transaction, rules []common.CategoryRule) string {
	for _, rule := range rules {
		if RuleMatches(rule, tx) {
			return rule.CategoryID
		}
	}
	if tx.Category != "" {
		return tx.Category
	}
	return c.engine.Suggest(tx.MatchText())
}

// RuleMatches reports whether the rule pattern occurs in the transaction
// text (case insensitive) and the date falls inside the rule bounds.
func RuleMatches(rule common.CategoryRule, tx common.Transaction) bool {
	pattern := strings.ToLower(strings.TrimSpace(rule.MerchantPattern))
	if pattern == "" {
		return false
	}
	if !strings.Contains(strings.ToLower(tx.MatchText()), pattern) {
		return false
	}
	// ISO dates compare correctly as strings.
	if rule.StartDate != "" && tx.Date < rule.StartDate {
		return false
	}
	if rule.EndDate != "" && tx.Date > rule.EndDate {
		return false
	}
	return true
}

// ApplyRule recategorizes every matching transaction in place and returns
// how many changed.
func ApplyRule(rule common.CategoryRule, txs []common.Transaction) int {
	updated := 0
	for i := range txs {
		if !RuleMatches(rule, txs[i]) || txs[i].Category == rule.CategoryID {
			continue
		}
		txs[i].Category = rule.CategoryID
		updated++
	}
	return updated
}

// NormalizeRule validates a rule and rewrites its bounds to ISO dates.
func NormalizeRule(rule common.CategoryRule) (common.CategoryRule, error) {
	rule.MerchantPattern = strings.TrimSpace(rule.MerchantPattern)
	if rule.MerchantPattern == "" {
		return rule, fmt.Errorf("%w: merchant pattern is required", ErrInvalidRule)
	}
	if rule.CategoryID == "" {
		return rule, fmt.Errorf("%w: category is required", ErrInvalidRule)
	}

	for _, bound := range []*string{&rule.StartDate, &rule.EndDate} {
		if *bound == "" {
			continue
		}
		iso, ok := normalizer.ParseDate(*bound)
		if !ok {
			return rule, fmt.Errorf("%w: unparseable date %q", ErrInvalidRule, *bound)
		}
		*bound = iso
	}
	if rule.StartDate != "" && rule.EndDate != "" && rule.StartDate > rule.EndDate {
		return rule, fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidRule, rule.StartDate, rule.EndDate)
	}
	return rule, nil
}
