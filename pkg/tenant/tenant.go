// Package tenant defines the Tenant value object and its pure, side-effect
// free state transitions. A Tenant is owned exclusively by the registry;
// everything in this package operates on local copies.
package tenant

import (
	"sort"
	"time"
)

// Descriptor carries the human-facing fields of a tenant.
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Tenant is the TLM's view of one tenant: its identity, descriptor, and the
// set of modules it currently has enabled, keyed by fully-qualified module
// id and mapped to the time each was enabled.
type Tenant struct {
	ID         string               `json:"id"`
	Descriptor Descriptor           `json:"descriptor"`
	Enabled    map[string]time.Time `json:"enabled"`
}

// New creates a Tenant with an empty enabled set.
func New(d Descriptor) *Tenant {
	return &Tenant{
		ID:         d.ID,
		Descriptor: d,
		Enabled:    make(map[string]time.Time),
	}
}

// Clone returns a deep copy, safe for a caller (e.g. ChangeEngine) to
// mutate locally before committing.
func (t *Tenant) Clone() *Tenant {
	clone := &Tenant{
		ID:         t.ID,
		Descriptor: t.Descriptor,
		Enabled:    make(map[string]time.Time, len(t.Enabled)),
	}
	for k, v := range t.Enabled {
		clone.Enabled[k] = v
	}
	return clone
}

// EnableModule records mid as enabled as of now. It is a pure mutation of
// the receiver -- callers must already hold the only reference, i.e.
// operate on a Clone().
func (t *Tenant) EnableModule(mid string, now time.Time) {
	t.Enabled[mid] = now
}

// DisableModule removes mid from the enabled set, by exact id.
func (t *Tenant) DisableModule(mid string) {
	delete(t.Enabled, mid)
}

// IsEnabled reports whether mid is exactly in the enabled set.
func (t *Tenant) IsEnabled(mid string) bool {
	_, ok := t.Enabled[mid]
	return ok
}

// ListModules returns enabled module ids in enable order (earliest first),
// using the Enabled timestamps as the ordering key -- callers such as
// ChangeEngine's permissions backfill depend on insertion order, not
// lexical order.
func (t *Tenant) ListModules() []string {
	ids := make([]string, 0, len(t.Enabled))
	for id := range t.Enabled {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return t.Enabled[ids[i]].Before(t.Enabled[ids[j]])
	})
	return ids
}

// UpdateDescriptor returns a new Tenant with d applied and the enabled set
// preserved unchanged -- the registry's updateDescriptor operation creates
// a fresh record this way rather than mutating in place.
func UpdateDescriptor(existing *Tenant, d Descriptor) *Tenant {
	if existing == nil {
		t := New(d)
		return t
	}
	clone := existing.Clone()
	clone.Descriptor = d
	clone.ID = d.ID
	return clone
}
