package ledger

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/pkg/money"
)

// CategoryTotal is the spending of one category. Total is positive.
type CategoryTotal struct {
	CategoryID string          `json:"category_id"`
	Name       string          `json:"name"`
	Emoji      string          `json:"emoji"`
	Color      string          `json:"color"`
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
	Display    string          `json:"display"`
}

// MonthTotal is the income and expense of one YYYY-MM month. Expenses is
// positive; Net is Income minus Expenses.
type MonthTotal struct {
	Month    string          `json:"month"`
	Count    int             `json:"count"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
	Display  string          `json:"display"`
}

// summaryCache memoizes summaries between mutations. Keys carry a
// generation number that every mutation bumps, so a summary computed
// before a mutation can never be served after it.
type summaryCache struct {
	cache      *ristretto.Cache[string, any]
	generation atomic.Uint64
}

func newSummaryCache() (*summaryCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: 1000, // number of keys to track frequency of
		MaxCost:     100,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize summary cache: %w", err)
	}
	return &summaryCache{cache: cache}, nil
}

func (c *summaryCache) key(name string) string {
	return fmt.Sprintf("%d:%s", c.generation.Load(), name)
}

func (c *summaryCache) get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *summaryCache) set(key string, v any) {
	c.cache.Set(key, v, 1)
}

func (c *summaryCache) invalidate() {
	c.generation.Add(1)
	c.cache.Clear()
}

// CategorySummary totals expenses per category, largest first. Income is
// left out. The returned slice is shared with the cache and must not be
// modified.
func (s *Store) CategorySummary() []CategoryTotal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := s.summaries.key("categories")
	if v, ok := s.summaries.get(key); ok {
		return v.([]CategoryTotal)
	}

	byID := make(map[string]*CategoryTotal)
	spent := make(map[string][]decimal.Decimal)
	var order []string
	for _, tx := range s.transactions {
		if !tx.Amount.IsNegative() {
			continue
		}
		t, ok := byID[tx.Category]
		if !ok {
			t = &CategoryTotal{CategoryID: tx.Category, Name: tx.Category}
			byID[tx.Category] = t
			order = append(order, tx.Category)
		}
		t.Count++
		t.Total = t.Total.Add(tx.Amount.Abs())
		spent[tx.Category] = append(spent[tx.Category], tx.Amount)
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		t := byID[id]
		if c, ok := s.category(id); ok {
			t.Name, t.Emoji, t.Color = c.Name, c.Emoji, c.Color
		}
		t.Display = money.Sum(spent[id], money.HUF).Abs().Display()
		out = append(out, *t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})

	s.summaries.set(key, out)
	return out
}

// MonthlySummary totals income and expenses per month, oldest first.
func (s *Store) MonthlySummary() []MonthTotal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := s.summaries.key("months")
	if v, ok := s.summaries.get(key); ok {
		return v.([]MonthTotal)
	}

	byMonth := make(map[string]*MonthTotal)
	for _, tx := range s.transactions {
		if len(tx.Date) < 7 {
			continue
		}
		month := tx.Date[:7]
		t, ok := byMonth[month]
		if !ok {
			t = &MonthTotal{Month: month}
			byMonth[month] = t
		}
		t.Count++
		if tx.Amount.IsPositive() {
			t.Income = t.Income.Add(tx.Amount)
		} else {
			t.Expenses = t.Expenses.Add(tx.Amount.Abs())
		}
	}

	out := make([]MonthTotal, 0, len(byMonth))
	for _, t := range byMonth {
		t.Net = t.Income.Sub(t.Expenses)
		t.Display = money.NewFromDecimal(t.Net, money.HUF).Display()
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })

	s.summaries.set(key, out)
	return out
}

func (s *Store) category(id string) (common.Category, bool) {
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return common.Category{}, false
}
