// Package tenantstore defines the durable Store contract for tenant
// records, and a GORM-backed implementation over sqlite/mysql/postgres.
package tenantstore

import "github.com/modgw/tlm/pkg/tenant"

// Store is the durable shadow of the TenantRegistry. Mutations are always
// store-first: a successful registry mutation implies a successful store
// write already happened.
type Store interface {
	// Insert persists a brand-new tenant record.
	Insert(t *tenant.Tenant) error

	// UpdateDescriptor persists a descriptor change, leaving the enabled
	// set untouched.
	UpdateDescriptor(d tenant.Descriptor) error

	// UpdateModules persists a new enabled-module set for an existing
	// tenant.
	UpdateModules(id string, enabled map[string]any) error

	// Delete removes a tenant record. Implementations return an
	// *errs.Error with Kind NotFound if id is absent; callers tolerate
	// that specific failure.
	Delete(id string) error

	// List returns every persisted tenant record.
	List() ([]*tenant.Tenant, error)

	// Get returns the persisted record for id, or an errs.NotFound error.
	Get(id string) (*tenant.Tenant, error)
}
