package categorization

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
)

func tx(date, description string) common.Transaction {
	return common.Transaction{
		ID:          date + description,
		Date:        date,
		Description: description,
		Amount:      decimal.NewFromInt(-1000),
	}
}

func TestCategoryFor_Precedence(t *testing.T) {
	c := NewCategorizer()

	rules := []common.CategoryRule{
		{ID: "r1", MerchantPattern: "tesco", CategoryID: common.CategoryShopping},
		{ID: "r2", MerchantPattern: "TESCO", CategoryID: common.CategoryHealth},
	}

	t.Run("first matching rule wins", func(t *testing.T) {
		assert.Equal(t, common.CategoryShopping, c.CategoryFor(tx("2025-10-01", "TESCO EXTRA"), rules))
	})

	t.Run("rule beats parser category", func(t *testing.T) {
		in := tx("2025-10-01", "TESCO EXTRA")
		in.Category = common.CategoryFood
		assert.Equal(t, common.CategoryShopping, c.CategoryFor(in, rules))
	})

	t.Run("parser category beats keywords", func(t *testing.T) {
		in := tx("2025-10-01", "SPAR")
		in.Category = common.CategoryEntertainment
		assert.Equal(t, common.CategoryEntertainment, c.CategoryFor(in, rules))
	})

	t.Run("keywords last", func(t *testing.T) {
		assert.Equal(t, common.CategoryFood, c.CategoryFor(tx("2025-10-01", "SPAR"), nil))
		assert.Equal(t, common.CategoryOther, c.CategoryFor(tx("2025-10-01", "Ismeretlen tétel"), nil))
	})

	t.Run("merchant used when description is empty", func(t *testing.T) {
		in := common.Transaction{Date: "2025-10-01", Merchant: "Tesco Stores"}
		assert.Equal(t, common.CategoryShopping, c.CategoryFor(in, rules))
	})
}

func TestRuleMatches_DateRange(t *testing.T) {
	rule := common.CategoryRule{
		MerchantPattern: "netflix",
		CategoryID:      common.CategoryEntertainment,
		StartDate:       "2025-01-01",
		EndDate:         "2025-06-30",
	}

	assert.False(t, RuleMatches(rule, tx("2024-12-31", "NETFLIX.COM")))
	assert.True(t, RuleMatches(rule, tx("2025-01-01", "NETFLIX.COM")))
	assert.True(t, RuleMatches(rule, tx("2025-06-30", "NETFLIX.COM")))
	assert.False(t, RuleMatches(rule, tx("2025-07-01", "NETFLIX.COM")))
	assert.False(t, RuleMatches(rule, tx("2025-03-01", "SPOTIFY")))

	open := common.CategoryRule{MerchantPattern: "netflix", CategoryID: "x", StartDate: "2025-01-01"}
	assert.True(t, RuleMatches(open, tx("2030-01-01", "netflix")))

	assert.False(t, RuleMatches(common.CategoryRule{MerchantPattern: " ", CategoryID: "x"}, tx("2025-01-01", "netflix")))
}

func TestApplyRule_Retroactive(t *testing.T) {
	txs := []common.Transaction{
		tx("2025-09-01", "LIDL ÁRUHÁZ"),
		tx("2025-10-01", "LIDL ÁRUHÁZ"),
		tx("2025-10-02", "SPAR"),
	}
	txs[0].Category = common.CategoryFood
	txs[1].Category = common.CategoryFood
	txs[2].Category = common.CategoryFood

	rule := common.CategoryRule{MerchantPattern: "lidl", CategoryID: common.CategoryShopping, StartDate: "2025-10-01"}

	assert.Equal(t, 1, ApplyRule(rule, txs))
	assert.Equal(t, common.CategoryFood, txs[0].Category)
	assert.Equal(t, common.CategoryShopping, txs[1].Category)
	assert.Equal(t, common.CategoryFood, txs[2].Category)

	// Already applied: nothing changes.
	assert.Equal(t, 0, ApplyRule(rule, txs))
}

func TestNormalizeRule(t *testing.T) {
	rule, err := NormalizeRule(common.CategoryRule{
		MerchantPattern: "  wolt ",
		CategoryID:      common.CategoryFood,
		StartDate:       "2025.10.01.",
		EndDate:         "31/12/2025",
	})
	require.NoError(t, err)
	assert.Equal(t, "wolt", rule.MerchantPattern)
	assert.Equal(t, "2025-10-01", rule.StartDate)
	assert.Equal(t, "2025-12-31", rule.EndDate)

	invalid := []common.CategoryRule{
		{CategoryID: common.CategoryFood},
		{MerchantPattern: "wolt"},
		{MerchantPattern: "wolt", CategoryID: "food", StartDate: "tegnap"},
		{MerchantPattern: "wolt", CategoryID: "food", StartDate: "2025-12-01", EndDate: "2025-01-01"},
	}
	for _, r := range invalid {
		_, err := NormalizeRule(r)
		assert.ErrorIs(t, err, ErrInvalidRule)
	}
}
