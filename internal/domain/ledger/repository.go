// Package ledger keeps the categorized transaction history: deduplicated
// inserts, category and rule management, search and summaries, flushed to a
// pluggable Repository.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
)

// Repository persists the three ledger collections. Each Save replaces the
// stored collection as a whole.
type Repository interface {
	LoadTransactions(ctx context.Context) ([]common.Transaction, error)
	SaveTransactions(ctx context.Context, txs []common.Transaction) error
	LoadCategories(ctx context.Context) ([]common.Category, error)
	SaveCategories(ctx context.Context, categories []common.Category) error
	LoadRules(ctx context.Context) ([]common.CategoryRule, error)
	SaveRules(ctx context.Context, rules []common.CategoryRule) error
}

const (
	transactionsFile = "transactions.json"
	categoriesFile   = "categories.json"
	rulesFile        = "rules.json"
)

// FileRepository stores each collection as a JSON document in a directory.
// Writes go through a temp file and rename so a crash never leaves a
// truncated document behind.
type FileRepository struct {
	dir string
	mu  sync.Mutex
}

// NewFileRepository creates the directory if needed.
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) LoadTransactions(ctx context.Context) ([]common.Transaction, error) {
	var txs []common.Transaction
	return txs, r.load(ctx, transactionsFile, &txs)
}

func (r *FileRepository) SaveTransactions(ctx context.Context, txs []common.Transaction) error {
	return r.save(ctx, transactionsFile, txs)
}

func (r *FileRepository) LoadCategories(ctx context.Context) ([]common.Category, error) {
	var categories []common.Category
	return categories, r.load(ctx, categoriesFile, &categories)
}

func (r *FileRepository) SaveCategories(ctx context.Context, categories []common.Category) error {
	return r.save(ctx, categoriesFile, categories)
}

func (r *FileRepository) LoadRules(ctx context.Context) ([]common.CategoryRule, error) {
	var rules []common.CategoryRule
	return rules, r.load(ctx, rulesFile, &rules)
}

func (r *FileRepository) SaveRules(ctx context.Context, rules []common.CategoryRule) error {
	return r.save(ctx, rulesFile, rules)
}

// load leaves dst untouched when the file does not exist yet.
func (r *FileRepository) load(ctx context.Context, name string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func (r *FileRepository) save(ctx context.Context, name string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmp, err := os.CreateTemp(r.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(r.dir, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
