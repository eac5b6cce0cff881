package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	auditpg "italiancorner/mydata_core/internal/adapters/audit/postgres"
	"italiancorner/mydata_core/internal/adapters/export/xlsx"
	gsishttp "italiancorner/mydata_core/internal/adapters/gsis/http"
	"italiancorner/mydata_core/internal/adapters/kv/memory"
	kvpg "italiancorner/mydata_core/internal/adapters/kv/postgres"
	"italiancorner/mydata_core/internal/adapters/mydata/proxy"
	"italiancorner/mydata_core/internal/adapters/store"
	appcustomer "italiancorner/mydata_core/internal/application/customer"
	apphealth "italiancorner/mydata_core/internal/application/health"
	appinvoice "italiancorner/mydata_core/internal/application/invoice"
	"italiancorner/mydata_core/internal/application/ledger"
	"italiancorner/mydata_core/internal/application/sequence"
	"italiancorner/mydata_core/internal/application/submission"
	"italiancorner/mydata_core/internal/core/audit"
	"italiancorner/mydata_core/internal/core/branch"
	"italiancorner/mydata_core/internal/core/customer"
	"italiancorner/mydata_core/internal/core/kv"
	"italiancorner/mydata_core/internal/infrastructure/config"
	"italiancorner/mydata_core/internal/infrastructure/database"
	httpinfra "italiancorner/mydata_core/internal/infrastructure/http"
)

const healthProbeKey = "health_probe"

// app holds the wired services shared by every command.
type app struct {
	cfg config.AppConfig
	log *slog.Logger

	registry    *branch.Registry
	store       kv.Store
	gateway     *proxy.Client
	sequencer   *sequence.Service
	submissions *submission.Service
	ledger      *ledger.Service
	invoices    *appinvoice.Service
	customers   *appcustomer.Service
	health      *apphealth.Service

	pool    *pgxpool.Pool
	clients []*httpinfra.TracedClient
}

func newApp(ctx context.Context, cfg config.AppConfig, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	registry, err := loadBranches(cfg.Branches.File)
	if err != nil {
		return nil, err
	}
	a.registry = registry
	log.Info("Branches loaded", "branches", registry.IDs(), "file", cfg.Branches.File)

	var auditRepo audit.Repository
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pool, err := database.NewPool(ctx, database.Config(cfg.Database))
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.pool = pool
		if err := database.RunMigrations(ctx, pool, log); err != nil {
			a.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		a.store = kvpg.NewStore(pool)
		if cfg.Audit.Enabled {
			auditRepo = auditpg.NewRepository(pool, log)
		}
		log.Info("Database connection established", "database", cfg.Database.Database)
	default:
		a.store = memory.NewStore()
		log.Warn("Using in-memory storage; history and queue are lost on restart")
	}
	if cfg.Audit.Enabled && auditRepo == nil {
		log.Info("Audit trail persistence disabled, database storage is required")
	}

	ledgerStore := store.NewLedger(a.store)
	failed := store.NewQueue(a.store)

	mydataClient := a.tracedClient(cfg.MyData.Timeout, auditRepo, "mydata")
	a.gateway = proxy.NewClient(proxy.Config{
		BaseURL:         cfg.MyData.ProxyURL,
		UserID:          cfg.MyData.UserID,
		SubscriptionKey: cfg.MyData.SubscriptionKey,
		Sandbox:         cfg.MyData.Sandbox,
		BreakerFailures: cfg.MyData.BreakerFailures,
		BreakerCooldown: cfg.MyData.BreakerCooldown,
	}, mydataClient, log)
	if cfg.MyData.ProxyURL == "" {
		log.Warn("MYDATA_PROXY_URL is not set, every submission will be queued")
	}

	var directory customer.Directory
	if cfg.GSIS.LookupURL != "" {
		gsisClient := a.tracedClient(cfg.GSIS.Timeout, auditRepo, "gsis")
		directory = gsishttp.NewClient(cfg.GSIS.LookupURL, gsisClient, cfg.GSIS.CacheTTL, log)
	}

	a.sequencer = sequence.NewService(registry, ledgerStore, store.NewCounters(a.store))
	a.submissions = submission.NewService(registry, a.gateway, ledgerStore, failed, a.sequencer, log, submission.Config{
		Sandbox:  cfg.MyData.Sandbox,
		RetryRPS: cfg.MyData.RetryRPS,
	})
	a.ledger = ledger.NewService(ledgerStore, failed, nil)
	a.invoices = appinvoice.NewService(registry, store.NewDrafts(a.store), xlsx.Renderer{}, cfg.MyData.Sandbox, nil)
	a.customers = appcustomer.NewService(registry, store.NewCustomerBook(a.store), directory)

	a.health = apphealth.NewService(
		apphealth.Metadata{Service: cfg.App.Name, Version: cfg.App.Version, Environment: cfg.App.Environment},
		apphealth.Check{Name: "storage", Critical: true, Probe: a.probeStorage},
		apphealth.Check{Name: "mydata", Probe: a.probeGateway},
	)
	return a, nil
}

func (a *app) tracedClient(timeout time.Duration, repo audit.Repository, service string) *httpinfra.TracedClient {
	c := httpinfra.NewTracedClient(&httpinfra.TracedClientConfig{
		Timeout:         timeout,
		AuditEnabled:    a.cfg.Audit.Enabled && repo != nil,
		LogRequestBody:  a.cfg.Audit.LogRequestBody,
		LogResponseBody: a.cfg.Audit.LogResponseBody,
		MaxBodySize:     a.cfg.Audit.MaxBodySize,
	}, a.log, repo, service)
	a.clients = append(a.clients, c)
	return c
}

func (a *app) probeStorage(ctx context.Context) error {
	_, _, err := a.store.Get(ctx, healthProbeKey)
	return err
}

func (a *app) probeGateway(context.Context) error {
	if a.cfg.MyData.ProxyURL == "" {
		return errors.New("proxy not configured")
	}
	if state := a.gateway.Breaker().State(); state == proxy.BreakerOpen {
		return proxy.ErrCircuitOpen
	}
	return nil
}

// Close waits for pending audit writes, then releases the database pool.
func (a *app) Close() {
	for _, c := range a.clients {
		c.Wait()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func loadBranches(path string) (*branch.Registry, error) {
	if path == "" {
		return branch.DefaultRegistry(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open branches file: %w", err)
	}
	defer f.Close()

	registry, err := branch.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load branches from %s: %w", path, err)
	}
	return registry, nil
}
