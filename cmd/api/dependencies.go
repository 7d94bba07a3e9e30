package api

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/FACorreiaa/family-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	importhandler "github.com/FACorreiaa/family-ledger/internal/domain/import/handler"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/extractor"
	"github.com/FACorreiaa/family-ledger/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/family-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/family-ledger/internal/domain/ledger"
	ledgerhandler "github.com/FACorreiaa/family-ledger/internal/domain/ledger/handler"

	"github.com/FACorreiaa/family-ledger/pkg/config"
	"github.com/FACorreiaa/family-ledger/pkg/cron"
	"github.com/FACorreiaa/family-ledger/pkg/db"
	"github.com/FACorreiaa/family-ledger/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB // nil with the file backed ledger
	Logger  *slog.Logger
	Metrics *prometheus.Registry
	OwnerID uuid.UUID

	// Repositories
	LedgerRepo ledger.Repository
	Archive    storage.Archive

	// Services
	Categorizer   *categorization.Categorizer
	Store         *ledger.Store
	ImportService *importservice.ImportService
	Scheduler     *cron.Scheduler // nil without an inbox directory

	// Handlers
	LedgerHandler *ledgerhandler.LedgerHandler
	ImportHandler *importhandler.ImportHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	owner, err := uuid.Parse(cfg.Database.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_OWNER_ID: %w", err)
	}

	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		OwnerID: owner,
	}

	if cfg.Database.Enabled {
		if err := deps.initDatabase(); err != nil {
			deps.Cleanup()
			return nil, fmt.Errorf("failed to init database: %w", err)
		}
	}

	if err := deps.initRepositories(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories picks the ledger backing and opens the statement archive
func (d *Dependencies) initRepositories() error {
	if d.DB != nil {
		d.LedgerRepo = ledger.NewPostgresRepository(d.DB.Pool, d.OwnerID)
	} else {
		repo, err := ledger.NewFileRepository(filepath.Join(d.Config.Storage.DataDir, "ledger"))
		if err != nil {
			return err
		}
		d.LedgerRepo = repo
	}

	archive, err := storage.NewLocalStorage(d.Config.Storage.ArchiveDir)
	if err != nil {
		return fmt.Errorf("failed to init statement archive: %w", err)
	}
	d.Archive = archive

	d.Logger.Info("repositories initialized", slog.Bool("postgres", d.DB != nil))
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.Categorizer = categorization.NewCategorizer()

	store, err := ledger.NewStore(d.LedgerRepo, d.Categorizer, d.Logger)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	d.Store = store

	d.Metrics = prometheus.NewRegistry()
	d.Metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registry := extractor.NewRegistry(extractor.Options{
		MaxPDFPages:  d.Config.Import.MaxPDFPages,
		MaxSheetRows: d.Config.Import.MaxSheetRows,
	})
	d.ImportService = importservice.NewImportService(
		registry,
		parser.NewParser(d.Categorizer.SuggestCategory, d.Logger),
		d.Store,
		d.Logger,
	).
		WithArchive(d.Archive, d.OwnerID).
		WithMetrics(importservice.NewMetrics(d.Metrics))

	if d.Config.Import.InboxDir != "" {
		d.Scheduler = cron.NewScheduler(
			d.ImportService,
			d.Config.Import.InboxDir,
			d.Config.Import.SweepSchedule,
			common.ParseBank(d.Config.Import.DefaultBank),
			d.Logger,
		)
	}

	d.Logger.Info("services initialized", slog.Int("transactions", len(d.Store.Transactions())))
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	maxBytes := int64(d.Config.Import.MaxUploadMB) << 20
	d.LedgerHandler = ledgerhandler.NewLedgerHandler(d.Store, d.Logger)
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Archive, d.OwnerID, maxBytes, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
