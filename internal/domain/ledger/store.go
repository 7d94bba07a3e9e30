package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/FACorreiaa/family-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/family-ledger/internal/domain/common"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrProtectedCategory = errors.New("category cannot be deleted")
	ErrUnknownCategory   = errors.New("unknown category")
)

// AddResult reports the outcome of AddTransactions.
type AddResult struct {
	Added     []common.Transaction `json:"added"`
	Skipped   int                  `json:"skipped"`
	Persisted bool                 `json:"persisted"`
}

// Store is the in-memory ledger. Mutations flush the touched collection to
// the repository while holding the write lock, so saves land in order.
// A failed flush is logged and the in-memory state is kept.
type Store struct {
	repo        Repository
	categorizer *categorization.Categorizer
	logger      *slog.Logger
	summaries   *summaryCache

	mu           sync.RWMutex
	transactions []common.Transaction
	keys         map[string]struct{}
	categories   []common.Category
	rules        []common.CategoryRule
}

// NewStore creates an empty store seeded with the default categories. Call
// Load to read persisted state.
func NewStore(repo Repository, categorizer *categorization.Categorizer, logger *slog.Logger) (*Store, error) {
	summaries, err := newSummaryCache()
	if err != nil {
		return nil, err
	}
	return &Store{
		repo:        repo,
		categorizer: categorizer,
		logger:      logger,
		summaries:   summaries,
		keys:        make(map[string]struct{}),
		categories:  common.DefaultCategories(),
	}, nil
}

// Load replaces the in-memory state with the repository contents. An empty
// category collection is seeded with the defaults and written back.
func (s *Store) Load(ctx context.Context) error {
	txs, err := s.repo.LoadTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	categories, err := s.repo.LoadCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	rules, err := s.repo.LoadRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = txs
	s.rebuildKeys()
	s.rules = rules

	seed := len(categories) == 0
	if seed {
		categories = common.DefaultCategories()
	}
	s.categories = categories
	if !s.hasCategory(common.CategoryOther) {
		for _, c := range common.DefaultCategories() {
			if c.ID == common.CategoryOther {
				s.categories = append(s.categories, c)
			}
		}
		seed = true
	}
	if seed {
		s.flushCategories(ctx)
	}
	s.summaries.invalidate()

	s.logger.Info("ledger loaded",
		"transactions", len(s.transactions),
		"categories", len(s.categories),
		"rules", len(s.rules),
	)
	return nil
}

// AddTransactions categorizes and appends candidates whose dedup key is not
// yet stored. Keys are checked against the transactions stored before the
// call only, so identical lines within one statement are all kept.
func (s *Store) AddTransactions(ctx context.Context, candidates []common.Transaction) AddResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := AddResult{Persisted: true}
	batchKeys := make([]string, 0, len(candidates))
	for _, tx := range candidates {
		if tx.Amount.IsZero() || tx.Date == "" {
			result.Skipped++
			continue
		}

		key := tx.DedupKey()
		if _, ok := s.keys[key]; ok {
			s.logger.Debug("duplicate transaction skipped", "key", key)
			result.Skipped++
			continue
		}

		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		tx.Category = s.categorizer.CategoryFor(tx, s.rules)
		if !s.hasCategory(tx.Category) {
			tx.Category = common.CategoryOther
		}

		batchKeys = append(batchKeys, key)
		s.transactions = append(s.transactions, tx)
		result.Added = append(result.Added, tx)
	}
	for _, key := range batchKeys {
		s.keys[key] = struct{}{}
	}

	if len(result.Added) > 0 {
		s.summaries.invalidate()
		result.Persisted = s.flushTransactions(ctx)
	}
	return result
}

// Transactions returns a copy of the ledger, newest first.
func (s *Store) Transactions() []common.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByDate(s.transactions)
}

// ByCategory returns the transactions in one category, newest first.
func (s *Store) ByCategory(categoryID string) []common.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []common.Transaction
	for _, tx := range s.transactions {
		if tx.Category == categoryID {
			out = append(out, tx)
		}
	}
	return sortedByDate(out)
}

// ByMonth returns the transactions of a YYYY-MM month, newest first.
func (s *Store) ByMonth(month string) []common.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []common.Transaction
	for _, tx := range s.transactions {
		if strings.HasPrefix(tx.Date, month+"-") {
			out = append(out, tx)
		}
	}
	return sortedByDate(out)
}

// Search ranks transactions by fuzzy similarity of merchant or description.
func (s *Store) Search(query string, limit int) []SearchHit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return searchTransactions(s.transactions, query, limit)
}

// SetCategory moves one transaction to another category.
func (s *Store) SetCategory(ctx context.Context, id, categoryID string) (common.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasCategory(categoryID) {
		return common.Transaction{}, fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}
	i := s.indexOf(id)
	if i < 0 {
		return common.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}

	s.transactions[i].Category = categoryID
	s.summaries.invalidate()
	s.flushTransactions(ctx)
	return s.transactions[i], nil
}

// DeleteTransaction removes one transaction. Its dedup key is released, so
// the same line can be imported again.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}

	s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
	s.rebuildKeys()
	s.summaries.invalidate()
	s.flushTransactions(ctx)
	return nil
}

// Categories returns the categories in display order.
func (s *Store) Categories() []common.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]common.Category(nil), s.categories...)
}

// AddCategory appends a category. A missing ID is generated.
func (s *Store) AddCategory(ctx context.Context, c common.Category) (common.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.ID = strings.TrimSpace(c.ID)
	if c.Name == "" {
		return c, fmt.Errorf("%w: name is required", ErrInvalidCategory)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasCategory(c.ID) {
		return c, fmt.Errorf("%w: %s", ErrDuplicateCategory, c.ID)
	}
	s.categories = append(s.categories, c)
	s.summaries.invalidate()
	s.flushCategories(ctx)
	return c, nil
}

// DeleteCategory removes a category, moves its transactions to other and
// drops the rules that target it. It returns how many transactions moved.
func (s *Store) DeleteCategory(ctx context.Context, id string) (int, error) {
	if id == common.CategoryOther {
		return 0, fmt.Errorf("%w: %s", ErrProtectedCategory, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)

	moved := 0
	for i := range s.transactions {
		if s.transactions[i].Category == id {
			s.transactions[i].Category = common.CategoryOther
			moved++
		}
	}

	kept := s.rules[:0]
	for _, rule := range s.rules {
		if rule.CategoryID != id {
			kept = append(kept, rule)
		}
	}
	rulesDropped := len(s.rules) - len(kept)
	s.rules = kept

	s.summaries.invalidate()
	s.flushCategories(ctx)
	if moved > 0 {
		s.flushTransactions(ctx)
	}
	if rulesDropped > 0 {
		s.flushRules(ctx)
	}

	s.logger.Info("category deleted", "category", id, "moved", moved, "rules_dropped", rulesDropped)
	return moved, nil
}

// Rules returns the rules in evaluation order.
func (s *Store) Rules() []common.CategoryRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]common.CategoryRule(nil), s.rules...)
}

// AddRule validates and appends a rule, then applies it to every stored
// transaction. It returns the saved rule and how many transactions changed.
func (s *Store) AddRule(ctx context.Context, rule common.CategoryRule) (common.CategoryRule, int, error) {
	rule, err := categorization.NormalizeRule(rule)
	if err != nil {
		return rule, 0, err
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasCategory(rule.CategoryID) {
		return rule, 0, fmt.Errorf("%w: %s", ErrUnknownCategory, rule.CategoryID)
	}

	s.rules = append(s.rules, rule)
	updated := categorization.ApplyRule(rule, s.transactions)

	s.flushRules(ctx)
	if updated > 0 {
		s.summaries.invalidate()
		s.flushTransactions(ctx)
	}

	s.logger.Info("category rule added",
		"rule", rule.ID,
		"pattern", rule.MerchantPattern,
		"category", rule.CategoryID,
		"updated", updated,
	)
	return rule, updated, nil
}

// DeleteRule removes a rule. Transactions it already recategorized keep
// their category.
func (s *Store) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rule := range s.rules {
		if rule.ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			s.flushRules(ctx)
			return nil
		}
	}
	return fmt.Errorf("rule %s: %w", id, ErrNotFound)
}

func (s *Store) hasCategory(id string) bool {
	_, ok := s.category(id)
	return ok
}

func (s *Store) indexOf(id string) int {
	for i, tx := range s.transactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) rebuildKeys() {
	s.keys = make(map[string]struct{}, len(s.transactions))
	for _, tx := range s.transactions {
		s.keys[tx.DedupKey()] = struct{}{}
	}
}

func (s *Store) flushTransactions(ctx context.Context) bool {
	if err := s.repo.SaveTransactions(ctx, s.transactions); err != nil {
		s.logger.Warn("failed to persist transactions", "count", len(s.transactions), "error", err)
		return false
	}
	return true
}

func (s *Store) flushCategories(ctx context.Context) {
	if err := s.repo.SaveCategories(ctx, s.categories); err != nil {
		s.logger.Warn("failed to persist categories", "error", err)
	}
}

func (s *Store) flushRules(ctx context.Context) {
	if err := s.repo.SaveRules(ctx, s.rules); err != nil {
		s.logger.Warn("failed to persist rules", "error", err)
	}
}

func sortedByDate(txs []common.Transaction) []common.Transaction {
	out := append([]common.Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}
