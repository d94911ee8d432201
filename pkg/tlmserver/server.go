// Package tlmserver exposes the tenant lifecycle manager over HTTP, the way
// the teacher's pkg/catalog/plugin.Server exposes its plugins: a chi.Router
// assembled once from a fixed set of collaborators, with the ambient
// middleware chain (request id, recovery, CORS, tenancy, identity, authz,
// response cache) wrapped around a small set of domain handlers.
package tlmserver

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"

	"github.com/modgw/tlm/pkg/audit"
	"github.com/modgw/tlm/pkg/authz"
	"github.com/modgw/tlm/pkg/cache"
	"github.com/modgw/tlm/pkg/ha"
	"github.com/modgw/tlm/pkg/jobs"
	"github.com/modgw/tlm/pkg/moduledesc"
	"github.com/modgw/tlm/pkg/orchestrator"
	"github.com/modgw/tlm/pkg/planner"
	"github.com/modgw/tlm/pkg/registry"
	"github.com/modgw/tlm/pkg/tenancy"
)

// Deps collects every collaborator a Server handler may need. Fields left
// nil disable the feature they back: a nil AuditStore skips the audit
// routes, a nil JobStore skips the async job endpoints, a nil
// ResponseCache disables HTTP response caching, and so on.
type Deps struct {
	DB     *gorm.DB
	Logger *slog.Logger

	Registry     *registry.Registry
	Planner      *planner.Planner
	Orchestrator *orchestrator.Orchestrator
	Catalog      moduledesc.ModuleCatalog

	AuditStore *audit.Store

	JobStore  *jobs.JobStore
	JobWorker *jobs.WorkerPool

	TenancyMode tenancy.TenancyMode
	Authorizer  authz.Authorizer

	ResponseCache *cache.ResponseCacheManager

	MigrationLocker ha.MigrationLocker
	LeaderElector   *ha.LeaderElector
}

// Server is the TLM's HTTP admin surface: tenant/module CRUD, install-plan
// simulation, and async install/upgrade/disable job submission, mounted
// alongside the audit and job status sub-routers the teacher's own plugin
// server mounts the same way.
type Server struct {
	router chi.Router
	db     *gorm.DB
	logger *slog.Logger

	registry     *registry.Registry
	planner      *planner.Planner
	orchestrator *orchestrator.Orchestrator
	catalog      moduledesc.ModuleCatalog

	auditStore *audit.Store

	jobStore  *jobs.JobStore
	jobWorker *jobs.WorkerPool

	tenancyMode tenancy.TenancyMode
	authorizer  authz.Authorizer

	responseCache *cache.ResponseCacheManager

	migrationLocker ha.MigrationLocker
	leaderElector   *ha.LeaderElector

	startedAt time.Time
}

// New builds a Server from d. A nil Logger defaults to slog.Default(); a
// nil Authorizer defaults to authz.NoopAuthorizer{} (TLM_AUTHZ_MODE=none).
func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	authorizer := d.Authorizer
	if authorizer == nil {
		authorizer = &authz.NoopAuthorizer{}
	}
	tenancyMode := d.TenancyMode
	if tenancyMode == "" {
		tenancyMode = tenancy.ModeSingle
	}

	return &Server{
		db:              d.DB,
		logger:          logger,
		registry:        d.Registry,
		planner:         d.Planner,
		orchestrator:    d.Orchestrator,
		catalog:         d.Catalog,
		auditStore:      d.AuditStore,
		jobStore:        d.JobStore,
		jobWorker:       d.JobWorker,
		tenancyMode:     tenancyMode,
		authorizer:      authorizer,
		responseCache:   d.ResponseCache,
		migrationLocker: d.MigrationLocker,
		leaderElector:   d.LeaderElector,
		startedAt:       time.Now(),
	}
}

// MountRoutes builds the router, registering middleware and handlers. It
// may be called once; the result is also retained for Router().
func (s *Server) MountRoutes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", tenancy.NamespaceHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(tenancy.NewMiddleware(s.tenancyMode))
	r.Use(authz.IdentityMiddleware())

	r.Get("/healthz", s.healthHandler)
	r.Get("/livez", s.healthHandler)
	r.Get("/readyz", s.readyHandler)

	r.Route("/api/tlm/v1", func(r chi.Router) {
		r.Route("/tenants", func(r chi.Router) {
			r.With(authz.RequirePermission(s.authorizer, authz.ResourceTenants, authz.VerbCreate)).
				Post("/", s.createTenantHandler)

			r.Route("/{tenantId}", func(r chi.Router) {
				r.With(authz.RequirePermission(s.authorizer, authz.ResourceTenants, authz.VerbGet)).
					Get("/", s.getTenantHandler)

				if s.responseCache != nil {
					r.With(
						authz.RequirePermission(s.authorizer, authz.ResourceModules, authz.VerbList),
						s.responseCache.TenantModulesMiddleware(),
					).Get("/modules", s.listTenantModulesHandler)
				} else {
					r.With(authz.RequirePermission(s.authorizer, authz.ResourceModules, authz.VerbList)).
						Get("/modules", s.listTenantModulesHandler)
				}

				r.With(authz.RequirePermission(s.authorizer, authz.ResourceModules, authz.VerbExecute)).
					Post("/install", s.installHandler)
				r.With(authz.RequirePermission(s.authorizer, authz.ResourceModules, authz.VerbExecute)).
					Post("/upgrade", s.upgradeHandler)
				r.With(authz.RequirePermission(s.authorizer, authz.ResourceModules, authz.VerbExecute)).
					Post("/disable", s.disableHandler)
			})
		})

		if s.responseCache != nil {
			r.With(
				authz.RequirePermission(s.authorizer, authz.ResourceInstallPlans, authz.VerbGet),
				s.responseCache.InstallPlansMiddleware(),
			).Get("/install-plans/{tenantId}", s.simulateInstallPlanHandler)
		} else {
			r.With(authz.RequirePermission(s.authorizer, authz.ResourceInstallPlans, authz.VerbGet)).
				Get("/install-plans/{tenantId}", s.simulateInstallPlanHandler)
		}
	})

	if s.auditStore != nil {
		r.Mount("/api/audit/v1alpha1", audit.Router(s.auditStore, s.authorizer))
		s.logger.Info("mounted audit API routes")
	}

	if s.jobStore != nil {
		r.Mount("/api/jobs/v1alpha1", jobs.Router(s.jobStore, s.authorizer))
		s.logger.Info("mounted job API routes")
	}

	s.router = r
	return r
}

// Router returns the most recently mounted router, building it via
// MountRoutes if it has not been built yet.
func (s *Server) Router() chi.Router {
	if s.router == nil {
		return s.MountRoutes()
	}
	return s.router
}
