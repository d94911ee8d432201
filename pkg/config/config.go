// Package config loads the TLM server's top-level configuration from
// environment variables, the same way the teacher's cmd/catalog-server
// composes its own per-package Config/ConfigFromEnv loaders. Each
// collaborator package (audit, authz, cache, ha, jobs, tenancy) owns its
// own env-driven config type; this package owns only the handful of
// settings that don't belong to any one of them.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/modgw/tlm/pkg/audit"
	"github.com/modgw/tlm/pkg/authz"
	"github.com/modgw/tlm/pkg/cache"
	"github.com/modgw/tlm/pkg/ha"
	"github.com/modgw/tlm/pkg/jobs"
	"github.com/modgw/tlm/pkg/tenancy"
)

// DBType selects the GORM dialect used for tenant/job/audit persistence.
type DBType string

const (
	DBTypeSQLite   DBType = "sqlite"
	DBTypeMySQL    DBType = "mysql"
	DBTypePostgres DBType = "postgres"
)

// Config is the TLM server's top-level configuration.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8080".
	ListenAddr string

	// DBType selects the GORM dialect.
	DBType DBType
	// DBDSN is the database connection string. Required for mysql/postgres;
	// optional for sqlite, which uses ":memory:" when it is empty.
	DBDSN string

	// ForceLocal puts the tenant registry in single-replica, local-map mode
	// (see pkg/registry) instead of treating the GORM store as shared state
	// across replicas.
	ForceLocal bool

	// DeployEnabled is loaded from TLM_DEPLOY_ENABLED. No component reads
	// it: the HTTP handlers and the job executor always run
	// Orchestrator.Execute with Deploy set.
	DeployEnabled bool

	// AuthzMode selects the authorization backend ("none" or "sar").
	AuthzMode authz.AuthzMode

	Audit   *audit.Config
	Jobs    *jobs.JobConfig
	Cache   *cache.CacheConfig
	HA      *ha.HAConfig
	Tenancy tenancy.TenancyMode
}

// FromEnv loads the server Config from environment variables, delegating
// each collaborator's own settings to its package's *ConfigFromEnv.
//
// Environment variables:
//   - TLM_LISTEN_ADDR: HTTP listen address (default ":8080")
//   - TLM_DB_TYPE: "sqlite", "mysql", or "postgres" (default "sqlite")
//   - TLM_DB_DSN: database connection string
//   - TLM_FORCE_LOCAL: "true" or "false" (default "false")
//   - TLM_DEPLOY_ENABLED: "true" or "false" (default "true")
//   - TLM_AUTHZ_MODE: "none" or "sar" (default "none")
//   - TLM_TENANCY_MODE: "single" or "namespace" (default "single")
func FromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:    envOrDefault("TLM_LISTEN_ADDR", ":8080"),
		DBType:        DBType(envOrDefault("TLM_DB_TYPE", string(DBTypeSQLite))),
		DBDSN:         os.Getenv("TLM_DB_DSN"),
		ForceLocal:    envBool("TLM_FORCE_LOCAL", false),
		DeployEnabled: envBool("TLM_DEPLOY_ENABLED", true),
		AuthzMode:     authz.AuthzMode(envOrDefault("TLM_AUTHZ_MODE", string(authz.AuthzModeNone))),
		Audit:         audit.ConfigFromEnv(),
		Jobs:          jobs.JobConfigFromEnv(),
		Cache:         cache.CacheConfigFromEnv(),
		HA:            ha.HAConfigFromEnv(),
	}

	switch cfg.DBType {
	case DBTypeSQLite, DBTypeMySQL, DBTypePostgres:
	default:
		return nil, fmt.Errorf("unknown TLM_DB_TYPE %q (expected sqlite, mysql, or postgres)", cfg.DBType)
	}

	switch cfg.AuthzMode {
	case authz.AuthzModeNone, authz.AuthzModeSAR:
	default:
		return nil, fmt.Errorf("unknown TLM_AUTHZ_MODE %q (expected none or sar)", cfg.AuthzMode)
	}

	switch tenancyModeStr := envOrDefault("TLM_TENANCY_MODE", "single"); tenancyModeStr {
	case "single":
		cfg.Tenancy = tenancy.ModeSingle
	case "namespace":
		cfg.Tenancy = tenancy.ModeNamespace
	default:
		return nil, fmt.Errorf("unknown TLM_TENANCY_MODE %q (expected single or namespace)", tenancyModeStr)
	}

	if cfg.DBType != DBTypeSQLite && cfg.DBDSN == "" {
		return nil, fmt.Errorf("TLM_DB_DSN is required for db type %q", cfg.DBType)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}
