// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	importservice "github.com/FACorreiaa/family-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/sniffer"
)

// Importer ingests one statement file.
type Importer interface {
	Import(ctx context.Context, req importservice.ImportRequest) (*importservice.ImportResult, error)
	Busy() bool
}

// SweepResult counts what one inbox sweep did with each file.
type SweepResult struct {
	Imported int
	Busy     int
	Failed   int
	Ignored  int
	// Kept counts files without transactions that could not be archived.
	Kept int
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron        *cron.Cron
	importer    Importer
	inboxDir    string
	schedule    string
	defaultBank common.Bank
	logger      *slog.Logger
}

// NewScheduler creates a scheduler that sweeps inboxDir on schedule
// (standard 5-field format).
func NewScheduler(importer Importer, inboxDir, schedule string, defaultBank common.Bank, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:        c,
		importer:    importer,
		inboxDir:    inboxDir,
		schedule:    schedule,
		defaultBank: defaultBank,
		logger:      logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.sweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("inbox", s.inboxDir),
		slog.String("schedule", s.schedule),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers a sweep outside the schedule.
func (s *Scheduler) RunNow() {
	go s.sweep()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	res, err := s.SweepInbox(ctx)
	if errors.Is(err, importservice.ErrIngestionInProgress) {
		s.logger.Debug("inbox sweep skipped, import in progress")
		return
	}
	if err != nil {
		s.logger.Error("inbox sweep failed", slog.Any("error", err))
		return
	}
	if res.Imported+res.Busy+res.Failed+res.Kept > 0 {
		s.logger.Info("inbox sweep completed",
			slog.Int("imported", res.Imported),
			slog.Int("busy", res.Busy),
			slog.Int("failed", res.Failed),
			slog.Int("kept", res.Kept),
			slog.Int("ignored", res.Ignored),
		)
	}
}

// SweepInbox imports every statement in the inbox directory. Only files
// with a statement extension are read. Imported files are removed; files
// that failed, met a busy importer, or yielded nothing and were not archived
// stay for the next sweep. A sweep does not start while an import runs.
func (s *Scheduler) SweepInbox(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	if s.importer.Busy() {
		return res, importservice.ErrIngestionInProgress
	}

	entries, err := os.ReadDir(s.inboxDir)
	if err != nil {
		return res, err
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := sniffer.FormatFromExtension(name); !ok {
			res.Ignored++
			continue
		}

		path := filepath.Join(s.inboxDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("failed to read inbox file", slog.String("file", name), slog.Any("error", err))
			res.Failed++
			continue
		}

		bank := BankFromFilename(name, s.defaultBank)
		result, err := s.importer.Import(ctx, importservice.ImportRequest{
			Filename: name,
			Bank:     bank,
			Data:     data,
		})
		if errors.Is(err, importservice.ErrIngestionInProgress) {
			res.Busy++
			continue
		}
		if err != nil {
			s.logger.Warn("inbox statement not imported",
				slog.String("file", name),
				slog.String("bank", string(bank)),
				slog.Any("error", err),
			)
			res.Failed++
			continue
		}

		s.logger.Debug("inbox statement imported",
			slog.String("file", name),
			slog.Int("added", result.Added),
			slog.Bool("nothing_found", result.NothingFound()),
		)
		if result.NothingFound() && result.StatementID == nil {
			s.logger.Warn("inbox statement has no transactions and was not archived, keeping it",
				slog.String("file", name),
			)
			res.Kept++
			continue
		}
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to remove imported inbox file", slog.String("file", name), slog.Any("error", err))
		}
		res.Imported++
	}
	return res, nil
}

// BankFromFilename reads the bank from the leading token of a file name,
// e.g. "otp_2025-10.pdf" or "raiffeisen-oktober.xlsx". Names without a known
// bank prefix resolve to fallback.
func BankFromFilename(name string, fallback common.Bank) common.Bank {
	base := strings.ToLower(filepath.Base(name))
	prefix, _, _ := strings.Cut(base, ".")
	if i := strings.IndexAny(prefix, "_- "); i >= 0 {
		prefix = prefix[:i]
	}
	for _, bank := range common.Banks {
		if prefix == string(bank) {
			return bank
		}
	}
	return fallback
}
