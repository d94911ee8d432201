// Package main is the tenant lifecycle manager's server entry point,
// structured the way the teacher's cmd/catalog-server/main.go is: flag/env
// configuration, a GORM connection, HA wiring, singleton background loops
// gated behind leader election, and a graceful-shutdown HTTP server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/modgw/tlm/pkg/audit"
	"github.com/modgw/tlm/pkg/authz"
	"github.com/modgw/tlm/pkg/bootstrap"
	"github.com/modgw/tlm/pkg/cache"
	"github.com/modgw/tlm/pkg/changeengine"
	"github.com/modgw/tlm/pkg/config"
	"github.com/modgw/tlm/pkg/ha"
	"github.com/modgw/tlm/pkg/interfaceresolver"
	"github.com/modgw/tlm/pkg/jobs"
	"github.com/modgw/tlm/pkg/moduledesc"
	"github.com/modgw/tlm/pkg/moduledesc/testcatalog"
	"github.com/modgw/tlm/pkg/orchestrator"
	"github.com/modgw/tlm/pkg/planner"
	"github.com/modgw/tlm/pkg/proxyapi"
	"github.com/modgw/tlm/pkg/rctx"
	"github.com/modgw/tlm/pkg/registry"
	"github.com/modgw/tlm/pkg/tenantstore"
	"github.com/modgw/tlm/pkg/tlmserver"
)

func main() {
	var (
		listenAddr  string
		dbType      string
		dbDSN       string
		catalogSeed string
	)

	flag.StringVar(&listenAddr, "listen", "", "address to listen on (overrides TLM_LISTEN_ADDR)")
	flag.StringVar(&dbType, "db-type", "", "database type: sqlite, mysql, or postgres (overrides TLM_DB_TYPE)")
	flag.StringVar(&dbDSN, "db-dsn", "", "database connection string (overrides TLM_DB_DSN)")
	flag.StringVar(&catalogSeed, "catalog-seed", "", "path to a YAML module catalog seed (dev/standalone mode; a production deployment wires a real ModuleCatalog instead)")
	flag.Parse()

	if listenAddr != "" {
		os.Setenv("TLM_LISTEN_ADDR", listenAddr)
	}
	if dbType != "" {
		os.Setenv("TLM_DB_TYPE", dbType)
	}
	if dbDSN != "" {
		os.Setenv("TLM_DB_DSN", dbDSN)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting tlmd", "listen", cfg.ListenAddr, "dbType", cfg.DBType, "authzMode", cfg.AuthzMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	gormDB, err := config.OpenDB(cfg)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	store := tenantstore.NewGormStore(gormDB)

	var migrationLocker ha.MigrationLocker
	if cfg.HA.MigrationLockEnabled {
		migrationLocker = ha.NewMigrationLocker(gormDB)
	} else {
		migrationLocker = ha.NewMigrationLocker(nil)
	}

	auditStore := audit.NewStore(gormDB)
	jobStore := jobs.NewJobStore(gormDB)

	if err := migrationLocker.WithLock(ctx, func() error {
		if err := store.AutoMigrate(); err != nil {
			return err
		}
		if err := auditStore.AutoMigrate(); err != nil {
			return err
		}
		return jobStore.AutoMigrate()
	}); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	reg := registry.New(store, cfg.ForceLocal)
	if err := bootstrap.Run(reg, store, logger); err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	var catalog moduledesc.ModuleCatalog
	if catalogSeed != "" {
		seeded, err := testcatalog.LoadFromFile(catalogSeed)
		if err != nil {
			logger.Error("failed to load catalog seed", "error", err)
			os.Exit(1)
		}
		catalog = seeded
		logger.Info("loaded catalog seed", "path", catalogSeed)
	} else {
		catalog = testcatalog.New()
		logger.Warn("no -catalog-seed given, starting with an empty catalog")
	}
	cachedCatalog := cache.NewCachedCatalog(catalog, cfg.Cache)

	resolver := interfaceresolver.New(logger)
	proxy := noopProxy{}
	engine := changeengine.New(reg, cachedCatalog, resolver, proxy)
	orch := orchestrator.New(cachedCatalog, proxy, engine, noModuleUsers{}).WithAudit(auditStore)
	pl := planner.New(cachedCatalog)

	jobExecutor := orchestrator.NewJobExecutor(reg, pl, orch, logger)
	executorLookup := jobs.ExecutorLookup(func(kind string) (jobs.PlanExecutor, bool) {
		switch kind {
		case "install", "upgrade", "disable":
			return jobExecutor, true
		default:
			return nil, false
		}
	})
	jobWorker := jobs.NewWorkerPool(jobStore, executorLookup, cfg.Jobs, logger)

	var authorizer authz.Authorizer
	switch cfg.AuthzMode {
	case authz.AuthzModeSAR:
		k8sCfg, err := rest.InClusterConfig()
		if err != nil {
			logger.Error("failed to build in-cluster k8s config for SAR authz", "error", err)
			os.Exit(1)
		}
		client, err := kubernetes.NewForConfig(k8sCfg)
		if err != nil {
			logger.Error("failed to build k8s clientset for SAR authz", "error", err)
			os.Exit(1)
		}
		authorizer = authz.NewCachedAuthorizer(authz.NewSARAuthorizer(client), authz.DefaultCacheTTL)
		logger.Info("using SAR-based authorization")
	default:
		authorizer = &authz.NoopAuthorizer{}
		logger.Info("authorization disabled (TLM_AUTHZ_MODE=none)")
	}

	var leaderElector *ha.LeaderElector
	if cfg.HA.LeaderElectionEnabled {
		k8sCfg, err := rest.InClusterConfig()
		if err != nil {
			logger.Error("failed to build in-cluster k8s config for leader election", "error", err)
			os.Exit(1)
		}
		client, err := kubernetes.NewForConfig(k8sCfg)
		if err != nil {
			logger.Error("failed to build k8s clientset for leader election", "error", err)
			os.Exit(1)
		}
		leaderElector = ha.NewLeaderElector(cfg.HA, client, cfg.HA.Identity, logger)
	}

	responseCache := cache.NewResponseCacheManager(cfg.Cache)

	srv := tlmserver.New(tlmserver.Deps{
		DB:              gormDB,
		Logger:          logger,
		Registry:        reg,
		Planner:         pl,
		Orchestrator:    orch,
		Catalog:         cachedCatalog,
		AuditStore:      auditStore,
		JobStore:        jobStore,
		JobWorker:       jobWorker,
		TenancyMode:     cfg.Tenancy,
		Authorizer:      authorizer,
		ResponseCache:   responseCache,
		MigrationLocker: migrationLocker,
		LeaderElector:   leaderElector,
	})
	router := srv.MountRoutes()

	startSingletonLoops := func(loopCtx context.Context) {
		retentionWorker := audit.NewRetentionWorker(auditStore, cfg.Audit.RetentionDays, logger)
		go retentionWorker.Run(loopCtx)

		go jobWorker.Run(loopCtx)

		logger.Info("singleton background loops started")
	}

	if cfg.HA.LeaderElectionEnabled && leaderElector != nil {
		var loopCancel context.CancelFunc
		leaderElector.OnStartLeading(func(leaderCtx context.Context) {
			var loopCtx context.Context
			loopCtx, loopCancel = context.WithCancel(leaderCtx)
			startSingletonLoops(loopCtx)
		})
		leaderElector.OnStopLeading(func() {
			if loopCancel != nil {
				loopCancel()
			}
			logger.Info("singleton background loops stopped (lost leadership)")
		})

		go leaderElector.Run(ctx)
		logger.Info("leader election active, singleton loops will start when elected")
	} else {
		startSingletonLoops(ctx)
	}

	logger.Info("tlmd ready", "listen", cfg.ListenAddr)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("tlmd stopped")
}

// noModuleUsers is the default orchestrator.UserLister when no real
// deployment-tracking system is wired in: it always reports a module as
// unused, matching a standalone/dev run with no live tenants using the
// proxy's provisioning side.
type noModuleUsers struct{}

func (noModuleUsers) GetModuleUser(mid string) ([]string, error) { return nil, nil }

// noopProxy is the default proxyapi.Proxy for a standalone/dev run that has
// no real module deployment layer behind it: every call succeeds without
// side effects. A production deployment wires a real Proxy implementation
// that talks to the module gateway instead.
type noopProxy struct{}

func (noopProxy) CallSystemInterface(tenantID, moduleID, path string, jsonBody []byte, ctx rctx.Ctx) proxyapi.Result {
	return proxyapi.Result{StatusCode: http.StatusOK}
}

func (noopProxy) AutoDeploy(md moduledesc.ModuleDescriptor, ctx rctx.Ctx) proxyapi.Result {
	return proxyapi.Result{StatusCode: http.StatusOK}
}

func (noopProxy) AutoUndeploy(md moduledesc.ModuleDescriptor, ctx rctx.Ctx) proxyapi.Result {
	return proxyapi.Result{StatusCode: http.StatusOK}
}
