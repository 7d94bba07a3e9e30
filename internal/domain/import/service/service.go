// Package service provides the import orchestration logic.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/extractor"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/sniffer"
	"github.com/FACorreiaa/family-ledger/internal/domain/ledger"
	"github.com/FACorreiaa/family-ledger/pkg/storage"
)

var (
	// ErrUnsupportedFormat is returned before any parsing for files that are
	// not CSV, PDF, XLSX or XLS.
	ErrUnsupportedFormat = sniffer.ErrUnsupportedFormat
	// ErrExtractionFailed covers unreadable documents and parser panics.
	ErrExtractionFailed = errors.New("statement extraction failed")
	// ErrIngestionInProgress rejects a file while another one is processed.
	ErrIngestionInProgress = errors.New("another statement is being imported")
)

// Ledger receives parsed transactions.
type Ledger interface {
	AddTransactions(ctx context.Context, candidates []common.Transaction) ledger.AddResult
}

// ImportRequest is one statement file.
type ImportRequest struct {
	Filename    string
	ContentType string
	Bank        common.Bank
	Data        []byte
}

// ImportResult contains the result of an import operation
type ImportResult struct {
	Bank        common.Bank    `json:"bank"`
	Format      sniffer.Format `json:"format"`
	Fingerprint string         `json:"fingerprint"`
	Parsed      int            `json:"parsed"`
	Added       int            `json:"added"`
	Skipped     int            `json:"skipped"`
	// Fallback reports that the generic layout read the file.
	Fallback    bool       `json:"fallback"`
	Persisted   bool       `json:"persisted"`
	StatementID *uuid.UUID `json:"statement_id,omitempty"`
	// Transactions are the newly added records, in statement order.
	Transactions []common.Transaction `json:"transactions"`
}

// NothingFound reports a readable file without transactions.
func (r *ImportResult) NothingFound() bool {
	return r.Parsed == 0
}

// ImportService orchestrates extraction, parsing and ledger insertion. Only
// one file is processed at a time.
type ImportService struct {
	registry *extractor.Registry
	parser   *parser.Parser
	ledger   Ledger
	archive  storage.Archive // optional
	owner    uuid.UUID
	metrics  *Metrics // optional
	tracer   trace.Tracer
	logger   *slog.Logger

	processing atomic.Bool
}

// NewImportService creates a new import service
func NewImportService(registry *extractor.Registry, p *parser.Parser, l Ledger, logger *slog.Logger) *ImportService {
	return &ImportService{
		registry: registry,
		parser:   p,
		ledger:   l,
		tracer:   otel.Tracer("github.com/FACorreiaa/family-ledger/internal/domain/import/service"),
		logger:   logger,
	}
}

// WithArchive keeps a copy of every ingested statement under owner.
func (s *ImportService) WithArchive(archive storage.Archive, owner uuid.UUID) *ImportService {
	s.archive = archive
	s.owner = owner
	return s
}

// WithMetrics records import counters and durations.
func (s *ImportService) WithMetrics(m *Metrics) *ImportService {
	s.metrics = m
	return s
}

// Busy reports whether a file is being imported.
func (s *ImportService) Busy() bool {
	return s.processing.Load()
}

// Import ingests one statement. Either every parsed transaction reaches the
// ledger or none does.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if !s.processing.CompareAndSwap(false, true) {
		s.metrics.observeOutcome("", req.Bank, outcomeBusy)
		return nil, ErrIngestionInProgress
	}
	defer s.processing.Store(false)

	if req.Bank == "" {
		req.Bank = common.BankGeneric
	}

	ctx, span := s.tracer.Start(ctx, "import.statement", trace.WithAttributes(
		attribute.String("statement.filename", req.Filename),
		attribute.String("statement.bank", string(req.Bank)),
		attribute.Int("statement.size", len(req.Data)),
	))
	defer span.End()

	start := time.Now()
	result, err := s.ingest(ctx, req)
	outcome := outcomeFor(result, err)

	var format sniffer.Format
	if result != nil {
		format = result.Format
	}
	s.metrics.observeOutcome(format, req.Bank, outcome)
	s.metrics.observeDuration(format, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.logger.Warn("statement import failed",
			slog.String("filename", req.Filename),
			slog.String("bank", string(req.Bank)),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.metrics.observeTransactions(result)
	span.SetAttributes(
		attribute.String("statement.format", string(result.Format)),
		attribute.Int("statement.parsed", result.Parsed),
		attribute.Int("statement.added", result.Added),
		attribute.Int("statement.skipped", result.Skipped),
	)

	s.logger.Info("statement imported",
		slog.String("filename", req.Filename),
		slog.String("bank", string(result.Bank)),
		slog.String("format", string(result.Format)),
		slog.Int("parsed", result.Parsed),
		slog.Int("added", result.Added),
		slog.Int("skipped", result.Skipped),
		slog.Duration("took", time.Since(start)),
	)
	return result, nil
}

func (s *ImportService) ingest(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	format, err := sniffer.DetectFormat(req.Filename, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Filename, err)
	}
	result := &ImportResult{
		Bank:        req.Bank,
		Format:      format,
		Fingerprint: sniffer.Fingerprint(req.Data),
	}

	parsed, err := s.extractAndParse(ctx, format, req)
	if err != nil {
		return result, err
	}

	if parsed != nil {
		result.Bank = parsed.Bank
		result.Parsed = len(parsed.Transactions)
		result.Fallback = parsed.Fallback
	}
	if !result.NothingFound() {
		added := s.ledger.AddTransactions(ctx, parsed.Transactions)
		result.Added = len(added.Added)
		result.Transactions = added.Added
		result.Skipped = added.Skipped
		result.Persisted = added.Persisted
	}

	// Statements without transactions are archived as well.
	s.archiveStatement(ctx, req, result)
	return result, nil
}

// extractAndParse runs the format extractor and the bank profile. A panic in
// either is reported as an extraction failure. A document without readable
// content yields a nil result.
func (s *ImportService) extractAndParse(ctx context.Context, format sniffer.Format, req ImportRequest) (result *parser.ParseResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: panic while reading %s: %v", ErrExtractionFailed, format, r)
		}
	}()

	if len(req.Data) == 0 {
		return nil, nil
	}

	_, span := s.tracer.Start(ctx, "import.extract")
	doc, err := s.registry.Extract(ctx, format, req.Data)
	span.End()
	if errors.Is(err, extractor.ErrNoContent) || errors.Is(err, sniffer.ErrEmptyFile) {
		s.logger.Info("statement has no readable content", slog.String("filename", req.Filename))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	return s.parser.Parse(doc, req.Bank), nil
}

func (s *ImportService) archiveStatement(ctx context.Context, req ImportRequest, result *ImportResult) {
	if s.archive == nil {
		return
	}

	if existing, err := s.archive.Find(ctx, s.owner, result.Fingerprint); err == nil {
		s.logger.Info("statement already archived",
			slog.String("filename", req.Filename),
			slog.String("statement_id", existing.ID.String()),
		)
		result.StatementID = &existing.ID
		return
	}

	st, err := s.archive.Store(ctx, s.owner, storage.Statement{
		Name:        req.Filename,
		ContentType: req.ContentType,
		Fingerprint: result.Fingerprint,
		Bank:        string(result.Bank),
		Format:      string(result.Format),
		Parsed:      result.Parsed,
		Added:       result.Added,
	}, bytes.NewReader(req.Data))
	if err != nil {
		s.logger.Warn("failed to archive statement",
			slog.String("filename", req.Filename),
			slog.Any("error", err),
		)
		return
	}
	result.StatementID = &st.ID
}
