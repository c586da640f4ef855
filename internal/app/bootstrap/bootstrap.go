package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	requirementengine "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine"
	complianceevents "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/adapters/events"
	postgresadapter "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/adapters/postgres"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/application/workers"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/catalog"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/internal/platform/config"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/internal/platform/db"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/internal/platform/httpserver"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/internal/platform/messaging"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/internal/platform/obs"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workers.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	registry, err := loadCatalog(cfg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	obs.Init()

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := requirementengine.NewModule(requirementengine.Dependencies{
		Repo:              repo,
		Audit:             repo,
		Notifier:          repo,
		Outbox:            repo,
		Idempotency:       repo,
		Catalog:           registry,
		Clock:             postgresadapter.SystemClock{},
		IDGen:             postgresadapter.UUIDGenerator{},
		IdempotencyTTL:    cfg.IdempotencyTTL,
		StoreTimeout:      cfg.StoreTimeout,
		SideEffectTimeout: cfg.SideEffectTimeout,
		Logger:            logger,
	})

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workers.OutboxRelay{
			Outbox:    repo,
			Publisher: complianceevents.NewPublisher(kafka, logger),
			Clock:     postgresadapter.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.RelayInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func loadCatalog(cfg config.Config, logger *slog.Logger) (*catalog.Registry, error) {
	registry := catalog.NewRegistry()
	path := strings.TrimSpace(cfg.TemplateCatalogPath)
	if path == "" {
		return registry, nil
	}
	if err := registry.LoadFile(path); err != nil {
		return nil, err
	}
	logger.Info("template catalog loaded",
		"event", "bootstrap_catalog_loaded",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"path", path,
	)
	return registry, nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
