// Package handler exposes the ledger over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/family-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/ledger"
	"github.com/FACorreiaa/family-ledger/pkg/httputil"
)

const defaultSearchLimit = 50

// LedgerHandler serves transactions, categories, rules and summaries.
type LedgerHandler struct {
	store  *ledger.Store
	logger *slog.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(store *ledger.Store, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{store: store, logger: logger}
}

// Routes mounts the handler on r.
func (h *LedgerHandler) Routes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.ListTransactions)
		r.Get("/search", h.SearchTransactions)
		r.Get("/export", h.ExportTransactions)
		r.Patch("/{id}", h.UpdateTransaction)
		r.Delete("/{id}", h.DeleteTransaction)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})
	r.Route("/rules", func(r chi.Router) {
		r.Get("/", h.ListRules)
		r.Post("/", h.CreateRule)
		r.Delete("/{id}", h.DeleteRule)
	})
	r.Get("/summary/categories", h.CategorySummary)
	r.Get("/summary/months", h.MonthlySummary)
}

// ListTransactions returns the ledger newest first, optionally filtered by
// ?category= or ?month=YYYY-MM.
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var txs []common.Transaction
	switch q := r.URL.Query(); {
	case q.Get("category") != "":
		txs = h.store.ByCategory(q.Get("category"))
	case q.Get("month") != "":
		txs = h.store.ByMonth(q.Get("month"))
	default:
		txs = h.store.Transactions()
	}
	if txs == nil {
		txs = []common.Transaction{}
	}
	httputil.WriteJSON(w, http.StatusOK, txs)
}

// SearchTransactions runs a fuzzy search over merchant and description.
func (h *LedgerHandler) SearchTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httputil.WriteError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	hits := h.store.Search(query, limit)
	if hits == nil {
		hits = []ledger.SearchHit{}
	}
	httputil.WriteJSON(w, http.StatusOK, hits)
}

type exportRow struct {
	Date        string `csv:"date"`
	Merchant    string `csv:"merchant"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Category    string `csv:"category"`
	Bank        string `csv:"bank"`
	Reference   string `csv:"reference"`
}

// ExportTransactions streams the ledger as CSV.
func (h *LedgerHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	txs := h.store.Transactions()
	rows := make([]exportRow, len(txs))
	for i, tx := range txs {
		rows[i] = exportRow{
			Date:        tx.Date,
			Merchant:    tx.Merchant,
			Description: tx.Description,
			Amount:      tx.Amount.String(),
			Category:    tx.Category,
			Bank:        string(tx.Bank),
			Reference:   tx.Reference,
		}
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := gocsv.Marshal(rows, w); err != nil {
		h.logger.Error("failed to export transactions", slog.Any("error", err))
	}
}

type updateTransactionRequest struct {
	Category string `json:"category"`
}

// UpdateTransaction moves a transaction to another category.
func (h *LedgerHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || req.Category == "" {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}

	tx, err := h.store.SetCategory(r.Context(), chi.URLParam(r, "id"), req.Category)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx)
}

func (h *LedgerHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.store.Categories())
}

func (h *LedgerHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req common.Category
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.store.AddCategory(r.Context(), req)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

// DeleteCategory removes a category; its transactions move to other.
func (h *LedgerHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	moved, err := h.store.DeleteCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"moved": moved})
}

func (h *LedgerHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules := h.store.Rules()
	if rules == nil {
		rules = []common.CategoryRule{}
	}
	httputil.WriteJSON(w, http.StatusOK, rules)
}

type createRuleResponse struct {
	Rule    common.CategoryRule `json:"rule"`
	Updated int                 `json:"updated"`
}

// CreateRule adds a rule and applies it to the existing ledger.
func (h *LedgerHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req common.CategoryRule
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}

	rule, updated, err := h.store.AddRule(r.Context(), req)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, createRuleResponse{Rule: rule, Updated: updated})
}

func (h *LedgerHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteRule(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) CategorySummary(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.store.CategorySummary())
}

func (h *LedgerHandler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.store.MonthlySummary())
}

func (h *LedgerHandler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrDuplicateCategory), errors.Is(err, ledger.ErrProtectedCategory):
		httputil.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInvalidCategory),
		errors.Is(err, ledger.ErrUnknownCategory),
		errors.Is(err, categorization.ErrInvalidRule):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("ledger request failed", slog.Any("error", err))
		httputil.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
