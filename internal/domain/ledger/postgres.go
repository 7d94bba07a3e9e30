package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores one user's ledger in PostgreSQL. Rows are owned
// by userID, so several households can share a database.
type PostgresRepository struct {
	db     DB
	userID uuid.UUID
}

// NewPostgresRepository creates a repository scoped to userID.
func NewPostgresRepository(db DB, userID uuid.UUID) *PostgresRepository {
	return &PostgresRepository{db: db, userID: userID}
}

// LoadTransactions returns the stored transactions, newest first.
func (r *PostgresRepository) LoadTransactions(ctx context.Context) ([]common.Transaction, error) {
	query := `
		SELECT id, date::text, merchant, description, amount::text, category, bank,
		       reference, memo, additional_info, counterparty_account
		FROM ledger_transactions
		WHERE user_id = $1
		ORDER BY date DESC, id`

	rows, err := r.db.Query(ctx, query, r.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []common.Transaction
	for rows.Next() {
		var (
			tx     common.Transaction
			amount string
			bank   string
		)
		if err := rows.Scan(
			&tx.ID,
			&tx.Date,
			&tx.Merchant,
			&tx.Description,
			&amount,
			&tx.Category,
			&bank,
			&tx.Reference,
			&tx.Memo,
			&tx.AdditionalInfo,
			&tx.CounterpartyAccount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q for transaction %s: %w", amount, tx.ID, err)
		}
		tx.Bank = common.Bank(bank)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// SaveTransactions replaces the user's transactions in one database transaction.
func (r *PostgresRepository) SaveTransactions(ctx context.Context, txs []common.Transaction) error {
	insert := `
		INSERT INTO ledger_transactions (
			user_id, id, date, merchant, description, amount, category, bank,
			reference, memo, additional_info, counterparty_account
		) VALUES ($1, $2, $3::date, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12)`

	return r.replace(ctx, "ledger_transactions", func(tx pgx.Tx) error {
		for _, t := range txs {
			if _, err := tx.Exec(ctx, insert,
				r.userID,
				t.ID,
				t.Date,
				t.Merchant,
				t.Description,
				t.Amount.String(),
				t.Category,
				string(t.Bank),
				t.Reference,
				t.Memo,
				t.AdditionalInfo,
				t.CounterpartyAccount,
			); err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// LoadCategories returns categories in their saved order.
func (r *PostgresRepository) LoadCategories(ctx context.Context) ([]common.Category, error) {
	query := `
		SELECT id, name, emoji, color
		FROM ledger_categories
		WHERE user_id = $1
		ORDER BY position`

	rows, err := r.db.Query(ctx, query, r.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []common.Category
	for rows.Next() {
		var c common.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Emoji, &c.Color); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *PostgresRepository) SaveCategories(ctx context.Context, categories []common.Category) error {
	insert := `
		INSERT INTO ledger_categories (user_id, id, name, emoji, color, position)
		VALUES ($1, $2, $3, $4, $5, $6)`

	return r.replace(ctx, "ledger_categories", func(tx pgx.Tx) error {
		for i, c := range categories {
			if _, err := tx.Exec(ctx, insert, r.userID, c.ID, c.Name, c.Emoji, c.Color, i); err != nil {
				return fmt.Errorf("failed to insert category %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// LoadRules returns rules in evaluation order.
func (r *PostgresRepository) LoadRules(ctx context.Context) ([]common.CategoryRule, error) {
	query := `
		SELECT id, merchant_pattern, category_id,
		       COALESCE(start_date::text, ''), COALESCE(end_date::text, '')
		FROM ledger_rules
		WHERE user_id = $1
		ORDER BY position`

	rows, err := r.db.Query(ctx, query, r.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []common.CategoryRule
	for rows.Next() {
		var rule common.CategoryRule
		if err := rows.Scan(&rule.ID, &rule.MerchantPattern, &rule.CategoryID, &rule.StartDate, &rule.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *PostgresRepository) SaveRules(ctx context.Context, rules []common.CategoryRule) error {
	insert := `
		INSERT INTO ledger_rules (user_id, id, merchant_pattern, category_id, start_date, end_date, position)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::date, NULLIF($6, '')::date, $7)`

	return r.replace(ctx, "ledger_rules", func(tx pgx.Tx) error {
		for i, rule := range rules {
			if _, err := tx.Exec(ctx, insert,
				r.userID, rule.ID, rule.MerchantPattern, rule.CategoryID, rule.StartDate, rule.EndDate, i,
			); err != nil {
				return fmt.Errorf("failed to insert rule %s: %w", rule.ID, err)
			}
		}
		return nil
	})
}

// replace deletes the user's rows from table and runs insert inside the same
// transaction.
func (r *PostgresRepository) replace(ctx context.Context, table string, insert func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// table is always a literal from this file.
	if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE user_id = $1", r.userID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	if err := insert(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}
