package cache

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// CacheConfig holds configuration for the caching layer.
type CacheConfig struct {
	// Enabled controls whether caching is active. When false, CachedCatalog
	// and the response-caching middleware pass every call/request straight
	// through uncached.
	Enabled bool

	// ModuleTTL is the TTL for CachedCatalog's GetLatest entries.
	ModuleTTL time.Duration

	// ResponseTTL is the TTL for the tlmserver HTTP response cache (tenant
	// module listings, install-plan lookups).
	ResponseTTL time.Duration

	// MaxSize is the maximum number of entries per cache instance.
	MaxSize int
}

// DefaultCacheConfig returns a CacheConfig with sensible defaults.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Enabled:     true,
		ModuleTTL:   30 * time.Second,
		ResponseTTL: 60 * time.Second,
		MaxSize:     1000,
	}
}

// CacheConfigFromEnv reads cache configuration from environment variables,
// falling back to defaults for any unset variable.
//
// Environment variables:
//   - TLM_CACHE_ENABLED: "true" or "false" (default: "true")
//   - TLM_CACHE_MODULE_TTL: duration in seconds (default: 30)
//   - TLM_CACHE_RESPONSE_TTL: duration in seconds (default: 60)
//   - TLM_CACHE_MAX_SIZE: max entries per cache (default: 1000)
func CacheConfigFromEnv() *CacheConfig {
	cfg := DefaultCacheConfig()

	if v := os.Getenv("TLM_CACHE_ENABLED"); v != "" {
		cfg.Enabled = strings.EqualFold(v, "true") || v == "1"
	}

	if v := os.Getenv("TLM_CACHE_MODULE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.ModuleTTL = time.Duration(secs) * time.Second
		}
	}

	if v := os.Getenv("TLM_CACHE_RESPONSE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.ResponseTTL = time.Duration(secs) * time.Second
		}
	}

	if v := os.Getenv("TLM_CACHE_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSize = n
		}
	}

	return cfg
}
