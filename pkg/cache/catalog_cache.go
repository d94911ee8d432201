package cache

import (
	"encoding/json"

	"github.com/modgw/tlm/pkg/moduledesc"
)

// CachedCatalog wraps a moduledesc.ModuleCatalog with a short-TTL cache in
// front of GetLatest, the lookup InstallPlanner calls once per requested
// module (and once per dependency edge it walks) while computing a single
// Plan. Every other method passes straight through to the wrapped catalog.
type CachedCatalog struct {
	inner moduledesc.ModuleCatalog
	cache *LRUCache
}

// NewCachedCatalog wraps inner with an LRUCache built from cfg. A nil or
// disabled cfg makes GetLatest a direct passthrough.
func NewCachedCatalog(inner moduledesc.ModuleCatalog, cfg *CacheConfig) *CachedCatalog {
	var c *LRUCache
	if cfg != nil && cfg.Enabled {
		c = NewLRUCache(cfg.MaxSize, cfg.ModuleTTL)
	}
	return &CachedCatalog{inner: inner, cache: c}
}

// GetLatest resolves mid's latest descriptor from cache, falling back to
// inner and populating the cache on a miss.
func (c *CachedCatalog) GetLatest(mid string) (moduledesc.ModuleDescriptor, error) {
	if c.cache == nil {
		return c.inner.GetLatest(mid)
	}

	if cached, ok := c.cache.Get(mid); ok {
		var md moduledesc.ModuleDescriptor
		if err := json.Unmarshal(cached, &md); err == nil {
			return md, nil
		}
		c.cache.Invalidate(mid)
	}

	md, err := c.inner.GetLatest(mid)
	if err != nil {
		return moduledesc.ModuleDescriptor{}, err
	}

	if encoded, err := json.Marshal(md); err == nil {
		c.cache.Set(mid, encoded)
	}

	return md, nil
}

// Invalidate drops mid's cached GetLatest result, if any. Safe to call even
// when caching is disabled.
func (c *CachedCatalog) Invalidate(mid string) {
	if c.cache != nil {
		c.cache.Invalidate(mid)
	}
}

func (c *CachedCatalog) Get(mid string) (moduledesc.ModuleDescriptor, error) {
	return c.inner.Get(mid)
}

func (c *CachedCatalog) GetModulesWithFilter(name string, includePreRelease bool) ([]moduledesc.ModuleDescriptor, error) {
	return c.inner.GetModulesWithFilter(name, includePreRelease)
}

func (c *CachedCatalog) CheckAllDependencies(candidate map[string]moduledesc.ModuleDescriptor) string {
	return c.inner.CheckAllDependencies(candidate)
}

func (c *CachedCatalog) CheckAllConflicts(candidate map[string]moduledesc.ModuleDescriptor) string {
	return c.inner.CheckAllConflicts(candidate)
}

func (c *CachedCatalog) AddModuleDependencies(md moduledesc.ModuleDescriptor, available, enabled map[string]moduledesc.ModuleDescriptor, plan *moduledesc.Plan) error {
	return c.inner.AddModuleDependencies(md, available, enabled, plan)
}

func (c *CachedCatalog) RemoveModuleDependencies(md moduledesc.ModuleDescriptor, enabled map[string]moduledesc.ModuleDescriptor, plan *moduledesc.Plan) error {
	return c.inner.RemoveModuleDependencies(md, enabled, plan)
}
