package cache

import (
	"fmt"
	"net/http"
)

// ResponseCacheManager holds separate HTTP response cache instances for
// tenant-module listings and install-plan lookups, each with its own TTL.
// Invalidation is per tenant for module listings only: a tenant's mutation
// drops that tenant's module listing and clears every cached install plan.
type ResponseCacheManager struct {
	tenantModules *LRUCache
	installPlans  *LRUCache
}

// NewResponseCacheManager creates a ResponseCacheManager from the given
// configuration. If cfg is nil or disabled, it returns nil.
func NewResponseCacheManager(cfg *CacheConfig) *ResponseCacheManager {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	return &ResponseCacheManager{
		tenantModules: NewLRUCache(cfg.MaxSize, cfg.ResponseTTL),
		installPlans:  NewLRUCache(cfg.MaxSize, cfg.ResponseTTL),
	}
}

// InvalidateTenant drops tenantID's cached module listing and clears the
// whole install-plan cache, including plans computed for other tenants.
func (cm *ResponseCacheManager) InvalidateTenant(tenantID string) {
	if cm == nil {
		return
	}
	cm.tenantModules.Invalidate(fmt.Sprintf("/tenants/%s/modules", tenantID))
	cm.installPlans.InvalidateAll()
}

// InvalidateAll clears both response caches entirely.
func (cm *ResponseCacheManager) InvalidateAll() {
	if cm == nil {
		return
	}
	cm.tenantModules.InvalidateAll()
	cm.installPlans.InvalidateAll()
}

// TenantModulesMiddleware returns HTTP middleware that caches responses for
// GET /tenants/{id}/modules using the tenant-modules cache.
func (cm *ResponseCacheManager) TenantModulesMiddleware() func(http.Handler) http.Handler {
	return CacheMiddleware(cm.tenantModules)
}

// InstallPlansMiddleware returns HTTP middleware that caches responses for
// GET /install-plans/{id} using the install-plans cache.
func (cm *ResponseCacheManager) InstallPlansMiddleware() func(http.Handler) http.Handler {
	return CacheMiddleware(cm.installPlans)
}
