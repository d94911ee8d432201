// Package registry holds the in-memory TenantRegistry: a concurrency-safe
// tenantId -> Tenant map backed by a tenantstore.Store shadow. Every
// mutation is store-first: the durable write must succeed before the
// in-memory map is touched, so a crash between the two never leaves the
// map ahead of the store.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/modgw/tlm/internal/errs"
	"github.com/modgw/tlm/pkg/tenant"
	"github.com/modgw/tlm/pkg/tenantstore"
)

// Registry is the TenantRegistry described by the tenant lifecycle
// manager: the authoritative, process-local view of every known tenant
// and its enabled module set.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]*tenant.Tenant
	store tenantstore.Store

	// forceLocal, when true, skips the store entirely: mutations only
	// ever touch the in-memory map. Used for single-process test and
	// dev deployments that run without a configured database.
	forceLocal bool
}

// New builds a Registry over store. If forceLocal is true, store may be
// nil and every operation becomes memory-only.
func New(store tenantstore.Store, forceLocal bool) *Registry {
	return &Registry{
		byID:       make(map[string]*tenant.Tenant),
		store:      store,
		forceLocal: forceLocal,
	}
}

// Load replaces the registry's in-memory contents with the given tenants,
// bypassing the store. Used by bootstrap to seed the registry from a bulk
// Store.List() read instead of round-tripping each tenant through Add.
func (r *Registry) Load(tenants []*tenant.Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[string]*tenant.Tenant, len(tenants))
	for _, t := range tenants {
		r.byID[t.ID] = t
	}
}

// Add registers a brand-new tenant. Returns a USER error if id already
// exists. The store write happens before the in-memory map is updated; if
// the store write fails, the map is left untouched.
func (r *Registry) Add(t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[t.ID]; exists {
		return errs.User("tenant %s already exists", t.ID)
	}

	if !r.forceLocal {
		if err := r.store.Insert(t); err != nil {
			return err
		}
	}

	r.byID[t.ID] = t
	return nil
}

// Get returns the tenant for id, or an errs.NotFound error.
func (r *Registry) Get(id string) (*tenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return nil, errs.NotFound("tenant %s not found", id)
	}
	return t, nil
}

// Put unconditionally replaces the in-memory entry for t.ID, without
// touching the store, for callers that have already persisted their own
// change and only need the cached view refreshed. The ChangeEngine commit
// step does not use it; it commits through CommitModules.
func (r *Registry) Put(t *tenant.Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[t.ID] = t
}

// Remove deletes a tenant, store-first. A NotFound error from the store is
// tolerated (the tenant is already gone there); Remove returns false in
// that case and does not touch the map, since there is nothing to remove
// from it either.
func (r *Registry) Remove(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.forceLocal {
		if err := r.store.Delete(id); err != nil {
			if errs.KindOf(err) == errs.KindNotFound {
				return false, nil
			}
			return false, err
		}
	}

	_, existed := r.byID[id]
	delete(r.byID, id)
	return existed, nil
}

// Keys returns a sorted snapshot of every known tenant id.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.byID))
	for id := range r.byID {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

// UpdateDescriptor upserts a descriptor change, store-first: if the tenant
// already exists its enabled module set is preserved, otherwise a fresh
// record with an empty enabled set is created.
func (r *Registry) UpdateDescriptor(d tenant.Descriptor) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.byID[d.ID]

	if !r.forceLocal {
		if err := r.store.UpdateDescriptor(d); err != nil {
			return nil, err
		}
	}

	updated := tenant.UpdateDescriptor(existing, d)
	r.byID[d.ID] = updated
	return updated, nil
}

// CommitModules persists a tenant's fully-computed enabled set (the result
// of a ChangeEngine transition) store-first, then publishes it to memory.
// This is the only path by which Enabled ever changes after Add.
func (r *Registry) CommitModules(id string, enabled map[string]time.Time) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return nil, errs.NotFound("tenant %s not found", id)
	}

	if !r.forceLocal {
		converted := make(map[string]any, len(enabled))
		for k, v := range enabled {
			converted[k] = v
		}
		if err := r.store.UpdateModules(id, converted); err != nil {
			return nil, err
		}
	}

	updated := existing.Clone()
	updated.Enabled = make(map[string]time.Time, len(enabled))
	for k, v := range enabled {
		updated.Enabled[k] = v
	}
	r.byID[id] = updated
	return updated, nil
}
