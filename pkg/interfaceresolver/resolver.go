// Package interfaceresolver locates the well-known _tenant and
// _tenantPermissions system interfaces declared by a module descriptor, or
// among a tenant's currently enabled modules.
package interfaceresolver

import (
	"log/slog"
	"net/http"

	"github.com/modgw/tlm/internal/errs"
	"github.com/modgw/tlm/pkg/moduledesc"
	"github.com/modgw/tlm/pkg/tenant"
)

const legacyTenantPath = "/_/tenant"

// Resolver resolves interface endpoints against a fixed logger. It carries
// no other state and is safe for concurrent use.
type Resolver struct {
	logger *slog.Logger
}

// New builds a Resolver. logger may be nil, in which case slog.Default is
// used.
func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// TenantInterface locates md's _tenant endpoint path. Only version "1.0" is
// accepted; any other version fails with a USER error. If the interface
// declaration is present but legacy-shaped (not a system interface, or one
// with no routing entries), the fallback path "/_/tenant" is returned. If
// _tenant is absent entirely, a NOT_FOUND error is returned.
func (r *Resolver) TenantInterface(md moduledesc.ModuleDescriptor) (string, error) {
	var found *moduledesc.InterfaceDescriptor
	for i := range md.ProvidesList {
		if md.ProvidesList[i].ID == moduledesc.TenantInterfaceID {
			found = &md.ProvidesList[i]
			break
		}
	}
	if found == nil {
		return "", errs.NotFound("module %s does not declare a %s interface", md.ID, moduledesc.TenantInterfaceID)
	}

	if found.Version != "1.0" {
		return "", errs.User("module %s declares %s version %s, only 1.0 is supported", md.ID, moduledesc.TenantInterfaceID, found.Version)
	}

	if found.InterfaceType == moduledesc.InterfaceTypeSystem && !found.Legacy() {
		if route, ok := found.FindRoute(http.MethodPost); ok {
			if path := route.ResolvedPath(); path != "" {
				return path, nil
			}
		}
	}

	r.logger.Info("legacy tenant interface shape, using fallback path",
		"module", md.ID, "path", legacyTenantPath)
	return legacyTenantPath, nil
}

// FindPermissionsProvider scans t's enabled modules, in the stable order
// ListModules returns, and asks resolve for each one's descriptor. It
// returns the first module declaring a _tenantPermissions system
// interface, or NOT_FOUND if none of them do.
//
// resolve is injected rather than a ModuleCatalog directly so callers in
// pkg/changeengine can reuse whatever already-fetched descriptors they
// have without a second catalog round trip.
func (r *Resolver) FindPermissionsProvider(t *tenant.Tenant, resolve func(id string) (moduledesc.ModuleDescriptor, error)) (moduledesc.ModuleDescriptor, error) {
	for _, mid := range t.ListModules() {
		md, err := resolve(mid)
		if err != nil {
			return moduledesc.ModuleDescriptor{}, err
		}
		if md.ProvidesPermissions() {
			return md, nil
		}
	}
	return moduledesc.ModuleDescriptor{}, errs.NotFound("no enabled module provides %s", moduledesc.PermissionsInterfaceID)
}

// PermissionsPath resolves host's _tenantPermissions POST path. Unlike
// TenantInterface there is no version gate and no legacy fallback: a
// module claiming to provide permissions must expose a real route for it.
func (r *Resolver) PermissionsPath(host moduledesc.ModuleDescriptor) (string, error) {
	iface, ok := host.SystemInterface(moduledesc.PermissionsInterfaceID)
	if !ok {
		return "", errs.NotFound("module %s does not declare a %s interface", host.ID, moduledesc.PermissionsInterfaceID)
	}

	route, ok := iface.FindRoute(http.MethodPost)
	if !ok || route.ResolvedPath() == "" {
		return "", errs.User("bad %s interface in module %s. No path to POST to", moduledesc.PermissionsInterfaceID, host.ID)
	}
	return route.ResolvedPath(), nil
}
