package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/family-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/pkg/money"
)

// memRepository keeps the saved collections in memory. Setting fail makes
// every save return an error.
type memRepository struct {
	mu           sync.Mutex
	transactions []common.Transaction
	categories   []common.Category
	rules        []common.CategoryRule
	saves        int
	fail         error
}

func (r *memRepository) LoadTransactions(context.Context) ([]common.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]common.Transaction(nil), r.transactions...), nil
}

func (r *memRepository) SaveTransactions(_ context.Context, txs []common.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.fail != nil {
		return r.fail
	}
	r.transactions = append([]common.Transaction(nil), txs...)
	return nil
}

func (r *memRepository) LoadCategories(context.Context) ([]common.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]common.Category(nil), r.categories...), nil
}

func (r *memRepository) SaveCategories(_ context.Context, categories []common.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.categories = append([]common.Category(nil), categories...)
	return nil
}

func (r *memRepository) LoadRules(context.Context) ([]common.CategoryRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]common.CategoryRule(nil), r.rules...), nil
}

func (r *memRepository) SaveRules(_ context.Context, rules []common.CategoryRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.rules = append([]common.CategoryRule(nil), rules...)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, repo Repository) *Store {
	t.Helper()
	store, err := NewStore(repo, categorization.NewCategorizer(), testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))
	return store
}

func candidate(date, description string, amount int64) common.Transaction {
	return common.Transaction{
		Date:        date,
		Description: description,
		Merchant:    description,
		Amount:      decimal.NewFromInt(amount),
		Bank:        common.BankOTP,
	}
}

func fromGenerated(gen []money.TestTransaction) []common.Transaction {
	out := make([]common.Transaction, len(gen))
	for i, g := range gen {
		out[i] = common.Transaction{
			Date:        g.Date,
			Description: g.Description,
			Merchant:    g.Merchant,
			Amount:      g.Amount,
			Bank:        common.BankGeneric,
		}
	}
	return out
}

func TestStore_LoadSeedsDefaultCategories(t *testing.T) {
	repo := &memRepository{}
	store := newTestStore(t, repo)

	assert.Equal(t, common.DefaultCategories(), store.Categories())
	assert.Equal(t, common.DefaultCategories(), repo.categories)
}

func TestStore_LoadRestoresOther(t *testing.T) {
	repo := &memRepository{categories: []common.Category{{ID: "pets", Name: "Kisállat"}}}
	store := newTestStore(t, repo)

	ids := categoryIDs(store.Categories())
	assert.Equal(t, []string{"pets", common.CategoryOther}, ids)
}

func TestStore_AddTransactions_Dedup(t *testing.T) {
	ctx := context.Background()
	repo := &memRepository{}
	store := newTestStore(t, repo)

	batch := []common.Transaction{
		candidate("2025-10-01", "TESCO EXTRA", -12500),
		candidate("2025-10-02", "MOL TÖLTŐÁLLOMÁS", -20000),
	}

	first := store.AddTransactions(ctx, batch)
	assert.Len(t, first.Added, 2)
	assert.Equal(t, 0, first.Skipped)
	assert.True(t, first.Persisted)
	assert.Len(t, repo.transactions, 2)

	// Importing the same statement again adds nothing.
	second := store.AddTransactions(ctx, batch)
	assert.Empty(t, second.Added)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, store.Transactions(), 2)
}

func TestStore_AddTransactions_IdenticalLinesInOneStatement(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &memRepository{})

	// Two coffees at the same shop, same day and price, on one statement.
	coffee := candidate("2025-10-03", "COSTA COFFEE", -1290)
	batch := []common.Transaction{coffee, coffee}

	first := store.AddTransactions(ctx, batch)
	require.Len(t, first.Added, 2)
	assert.Equal(t, 0, first.Skipped)
	assert.NotEqual(t, first.Added[0].ID, first.Added[1].ID)

	again := store.AddTransactions(ctx, batch)
	assert.Empty(t, again.Added)
	assert.Equal(t, 2, again.Skipped)
	assert.Len(t, store.Transactions(), 2)
}

func TestStore_AddTransactions_MerchantOnlyCollision(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &memRepository{})

	// A purchase on a later statement with the same day, amount and shop as
	// a stored one, and no description, shares its dedup key and is dropped.
	a := common.Transaction{Date: "2025-10-01", Merchant: "SPAR", Amount: decimal.NewFromInt(-990)}
	b := a

	require.Len(t, store.AddTransactions(ctx, []common.Transaction{a}).Added, 1)
	result := store.AddTransactions(ctx, []common.Transaction{b})
	assert.Empty(t, result.Added)
	assert.Equal(t, 1, result.Skipped)
}

func TestStore_AddTransactions_Categorizes(t *testing.T) {
	store := newTestStore(t, &memRepository{})

	custom := candidate("2025-10-03", "Ismeretlen bolt", -500)
	custom.Category = "does-not-exist"

	result := store.AddTransactions(context.Background(), []common.Transaction{
		candidate("2025-10-01", "TESCO EXTRA", -12500),
		candidate("2025-10-02", "NETFLIX.COM", -4990),
		custom,
		candidate("2025-10-04", "Nulla", 0),
	})

	require.Len(t, result.Added, 3)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, common.CategoryFood, result.Added[0].Category)
	assert.Equal(t, common.CategoryEntertainment, result.Added[1].Category)
	assert.Equal(t, common.CategoryOther, result.Added[2].Category)
	for _, tx := range result.Added {
		assert.NotEmpty(t, tx.ID)
	}
}

func TestStore_FlushFailureIsNotFatal(t *testing.T) {
	repo := &memRepository{}
	store := newTestStore(t, repo)
	repo.fail = errors.New("disk full")

	result := store.AddTransactions(context.Background(), []common.Transaction{
		candidate("2025-10-01", "TESCO EXTRA", -12500),
	})

	assert.Len(t, result.Added, 1)
	assert.False(t, result.Persisted)
	assert.Len(t, store.Transactions(), 1)
}

func TestStore_TransactionsNewestFirst(t *testing.T) {
	store := newTestStore(t, &memRepository{})
	store.AddTransactions(context.Background(), []common.Transaction{
		candidate("2025-09-15", "SPAR", -1000),
		candidate("2025-10-20", "LIDL", -2000),
		candidate("2025-10-01", "ALDI", -3000),
	})

	var dates []string
	for _, tx := range store.Transactions() {
		dates = append(dates, tx.Date)
	}
	assert.Equal(t, []string{"2025-10-20", "2025-10-01", "2025-09-15"}, dates)

	october := store.ByMonth("2025-10")
	assert.Len(t, october, 2)
	assert.Equal(t, "2025-10-20", october[0].Date)

	assert.Len(t, store.ByCategory(common.CategoryFood), 3)
	assert.Empty(t, store.ByCategory(common.CategoryHealth))
}

func TestStore_AddRule_Retroactive(t *testing.T) {
	ctx := context.Background()
	repo := &memRepository{}
	store := newTestStore(t, repo)

	store.AddTransactions(ctx, []common.Transaction{
		candidate("2025-09-01", "LIDL ÁRUHÁZ", -4000),
		candidate("2025-10-05", "LIDL ÁRUHÁZ", -6000),
		candidate("2025-10-06", "SPAR", -1500),
	})

	rule, updated, err := store.AddRule(ctx, common.CategoryRule{
		MerchantPattern: "lidl",
		CategoryID:      common.CategoryShopping,
		StartDate:       "2025.10.01.",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, "2025-10-01", rule.StartDate)
	assert.Equal(t, []common.CategoryRule{rule}, repo.rules)

	categories := map[string]string{}
	for _, tx := range store.Transactions() {
		categories[tx.Date] = tx.Category
	}
	assert.Equal(t, common.CategoryFood, categories["2025-09-01"])
	assert.Equal(t, common.CategoryShopping, categories["2025-10-05"])
	assert.Equal(t, common.CategoryFood, categories["2025-10-06"])

	// New imports follow the rule too.
	result := store.AddTransactions(ctx, []common.Transaction{candidate("2025-10-20", "LIDL ÁRUHÁZ", -800)})
	require.Len(t, result.Added, 1)
	assert.Equal(t, common.CategoryShopping, result.Added[0].Category)
}

func TestStore_AddRule_FirstMatchWins(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &memRepository{})

	_, _, err := store.AddRule(ctx, common.CategoryRule{MerchantPattern: "tesco", CategoryID: common.CategoryShopping})
	require.NoError(t, err)
	_, _, err = store.AddRule(ctx, common.CategoryRule{MerchantPattern: "tesco extra", CategoryID: common.CategoryHealth})
	require.NoError(t, err)

	result := store.AddTransactions(ctx, []common.Transaction{candidate("2025-10-01", "TESCO EXTRA", -100)})
	require.Len(t, result.Added, 1)
	assert.Equal(t, common.CategoryShopping, result.Added[0].Category)
}

func TestStore_AddRule_Invalid(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &memRepository{})

	_, _, err := store.AddRule(ctx, common.CategoryRule{CategoryID: common.CategoryFood})
	assert.ErrorIs(t, err, categorization.ErrInvalidRule)

	_, _, err = store.AddRule(ctx, common.CategoryRule{MerchantPattern: "x", CategoryID: "nope"})
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.Empty(t, store.Rules())
}

func TestStore_DeleteRule(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &memRepository{})

	rule, _, err := store.AddRule(ctx, common.CategoryRule{MerchantPattern: "wolt", CategoryID: common.CategoryFood})
	require.NoError(t, err)

	require.NoError(t, store.DeleteRule(ctx, rule.ID))
	assert.Empty(t, store.Rules())
	assert.ErrorIs(t, store.DeleteRule(ctx, rule.ID), ErrNotFound)
}

func TestStore_Categories(t *testing.T) {
	ctx := context.Background()
	repo := &memRepository{}
	store := newTestStore(t, repo)

	pets, err := store.AddCategory(ctx, common.Category{Name: " Kisállat ", Emoji: "🐶"})
	require.NoError(t, err)
	assert.NotEmpty(t, pets.ID)
	assert.Equal(t, "Kisállat", pets.Name)

	_, err = store.AddCategory(ctx, common.Category{ID: common.CategoryFood, Name: "Kaja"})
	assert.ErrorIs(t, err, ErrDuplicateCategory)
	_, err = store.AddCategory(ctx, common.Category{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	store.AddTransactions(ctx, []common.Transaction{
		candidate("2025-10-01", "FRESSNAPF", -5000),
		candidate("2025-10-02", "ZOOMARKET", -2500),
	})
	_, _, err = store.AddRule(ctx, common.CategoryRule{MerchantPattern: "fressnapf", CategoryID: pets.ID})
	require.NoError(t, err)
	require.Len(t, store.ByCategory(pets.ID), 1)

	moved, err := store.DeleteCategory(ctx, pets.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	assert.Empty(t, store.ByCategory(pets.ID))
	assert.Len(t, store.ByCategory(common.CategoryOther), 2)
	assert.Empty(t, store.Rules())
	assert.NotContains(t, categoryIDs(repo.categories), pets.ID)

	_, err = store.DeleteCategory(ctx, common.CategoryOther)
	assert.ErrorIs(t, err, ErrProtectedCategory)
	_, err = store.DeleteCategory(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SetAndDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &memRepository{})

	result := store.AddTransactions(ctx, []common.Transaction{candidate("2025-10-01", "TESCO EXTRA", -12500)})
	require.Len(t, result.Added, 1)
	id := result.Added[0].ID

	tx, err := store.SetCategory(ctx, id, common.CategoryHealth)
	require.NoError(t, err)
	assert.Equal(t, common.CategoryHealth, tx.Category)

	_, err = store.SetCategory(ctx, id, "nope")
	assert.ErrorIs(t, err, ErrUnknownCategory)
	_, err = store.SetCategory(ctx, "missing", common.CategoryFood)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.DeleteTransaction(ctx, id))
	assert.Empty(t, store.Transactions())
	assert.ErrorIs(t, store.DeleteTransaction(ctx, id), ErrNotFound)

	// The dedup key is released with the transaction.
	again := store.AddTransactions(ctx, []common.Transaction{candidate("2025-10-01", "TESCO EXTRA", -12500)})
	assert.Len(t, again.Added, 1)
}

func TestStore_LoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := &memRepository{}
	store := newTestStore(t, repo)

	gen := money.NewTestDataGeneratorWithSeed(7)
	added := store.AddTransactions(ctx, fromGenerated(gen.MonthlyStatement(2025, 10)))
	require.NotEmpty(t, added.Added)

	reloaded := newTestStore(t, repo)
	assert.ElementsMatch(t, store.Transactions(), reloaded.Transactions())

	// Keys are rebuilt on load, so the same statement is rejected.
	again := reloaded.AddTransactions(ctx, fromGenerated(gen.MonthlyStatement(2025, 10))[:1])
	assert.Len(t, again.Added, 1, "a fresh salary amount is a new transaction")
	dup := reloaded.AddTransactions(ctx, []common.Transaction{added.Added[0]})
	assert.Empty(t, dup.Added)
}

func TestStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &memRepository{})

	tx := candidate("2025-10-01", "TESCO EXTRA", -12500)
	var wg sync.WaitGroup
	added := make(chan int, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added <- len(store.AddTransactions(ctx, []common.Transaction{tx}).Added)
			_ = store.CategorySummary()
		}()
	}
	wg.Wait()
	close(added)

	total := 0
	for n := range added {
		total += n
	}
	assert.Equal(t, 1, total)
}

func categoryIDs(categories []common.Category) []string {
	ids := make([]string, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	return ids
}
