package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/pkg/money"
)

func TestStore_CategorySummary(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &memRepository{})
	store.AddTransactions(ctx, []common.Transaction{
		candidate("2025-10-01", "TESCO EXTRA", -12500),
		candidate("2025-10-02", "SPAR", -2500),
		candidate("2025-10-03", "MOL TÖLTŐÁLLOMÁS", -20000),
		candidate("2025-10-04", "Munkabér", 450000),
	})

	summary := store.CategorySummary()
	require.Len(t, summary, 2)

	assert.Equal(t, common.CategoryTransport, summary[0].CategoryID)
	assert.Equal(t, "Közlekedés", summary[0].Name)
	assert.True(t, summary[0].Total.Equal(decimal.NewFromInt(20000)))
	assert.NotEmpty(t, summary[0].Display)

	assert.Equal(t, common.CategoryFood, summary[1].CategoryID)
	assert.Equal(t, 2, summary[1].Count)
	assert.True(t, summary[1].Total.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, money.NewFromDecimal(decimal.NewFromInt(15000), money.HUF).Display(), summary[1].Display)
	assert.NotContains(t, summary[1].Display, "-")
}

func TestStore_SummaryFollowsMutations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &memRepository{})
	result := store.AddTransactions(ctx, []common.Transaction{
		candidate("2025-10-01", "TESCO EXTRA", -12500),
	})
	require.Len(t, result.Added, 1)

	before := store.CategorySummary()
	require.Len(t, before, 1)
	assert.Equal(t, common.CategoryFood, before[0].CategoryID)

	_, err := store.SetCategory(ctx, result.Added[0].ID, common.CategoryShopping)
	require.NoError(t, err)

	after := store.CategorySummary()
	require.Len(t, after, 1)
	assert.Equal(t, common.CategoryShopping, after[0].CategoryID)
}

func TestStore_MonthlySummary(t *testing.T) {
	store := newTestStore(t, &memRepository{})
	store.AddTransactions(context.Background(), []common.Transaction{
		candidate("2025-10-01", "Munkabér", 450000),
		candidate("2025-10-02", "TESCO EXTRA", -12500),
		candidate("2025-09-30", "SPAR", -2500),
	})

	summary := store.MonthlySummary()
	require.Len(t, summary, 2)

	assert.Equal(t, "2025-09", summary[0].Month)
	assert.True(t, summary[0].Expenses.Equal(decimal.NewFromInt(2500)))
	assert.True(t, summary[0].Net.Equal(decimal.NewFromInt(-2500)))

	assert.Equal(t, "2025-10", summary[1].Month)
	assert.Equal(t, 2, summary[1].Count)
	assert.True(t, summary[1].Income.Equal(decimal.NewFromInt(450000)))
	assert.True(t, summary[1].Expenses.Equal(decimal.NewFromInt(12500)))
	assert.True(t, summary[1].Net.Equal(decimal.NewFromInt(437500)))
}
