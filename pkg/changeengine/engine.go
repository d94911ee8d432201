// Package changeengine implements the TLM's core state machine: one
// enable/disable/upgrade transition against one tenant, driven linearly
// through RESOLVE, DEPCHECK, TENANT_INIT, PERMISSIONS, and COMMIT with no
// rollback of external side effects on failure.
package changeengine

import (
	"encoding/json"
	"time"

	"github.com/modgw/tlm/internal/errs"
	"github.com/modgw/tlm/pkg/interfaceresolver"
	"github.com/modgw/tlm/pkg/moduledesc"
	"github.com/modgw/tlm/pkg/proxyapi"
	"github.com/modgw/tlm/pkg/rctx"
	"github.com/modgw/tlm/pkg/registry"
	"github.com/modgw/tlm/pkg/tenant"
)

// Engine drives module-enable/disable transitions for tenants held in reg,
// resolving descriptors from catalog and reaching modules through proxy.
type Engine struct {
	reg      *registry.Registry
	catalog  moduledesc.ModuleCatalog
	resolver *interfaceresolver.Resolver
	proxy    proxyapi.Proxy
}

// New builds an Engine over its four collaborators.
func New(reg *registry.Registry, catalog moduledesc.ModuleCatalog, resolver *interfaceresolver.Resolver, proxy proxyapi.Proxy) *Engine {
	return &Engine{reg: reg, catalog: catalog, resolver: resolver, proxy: proxy}
}

type tenantInitBody struct {
	ModuleTo   string `json:"module_to"`
	ModuleFrom string `json:"module_from,omitempty"`
}

type permsBody struct {
	ModuleID string                     `json:"moduleId"`
	Perms    []moduledesc.PermissionSet `json:"perms"`
}

// Transition drives one ChangeEngine run for tenantID. fromID and toID are
// fully-qualified module ids; exactly one may be empty (a pure enable or
// pure disable), but not both. It returns the id committed as enabled (the
// empty string for a pure disable).
func (e *Engine) Transition(ctx rctx.Ctx, tenantID, fromID, toID string) (string, error) {
	if fromID == "" && toID == "" {
		return "", errs.Internal(nil, "transition requires at least one of fromID, toID")
	}

	// 1. RESOLVE
	current, err := e.reg.Get(tenantID)
	if err != nil {
		return "", err
	}
	work := current.Clone()

	var mdFrom, mdTo *moduledesc.ModuleDescriptor
	if fromID != "" {
		md, err := e.catalog.Get(fromID)
		if err != nil {
			return "", err
		}
		mdFrom = &md
	}
	if toID != "" {
		md, err := e.catalog.Get(toID)
		if err != nil {
			return "", err
		}
		mdTo = &md
	}

	// 2. DEPCHECK
	projected := make(map[string]moduledesc.ModuleDescriptor, len(work.Enabled)+1)
	for mid := range work.Enabled {
		md, err := e.catalog.Get(mid)
		if err != nil {
			return "", err
		}
		projected[mid] = md
	}
	if mdTo != nil {
		if _, already := projected[mdTo.ID]; already {
			return "", errs.User("module %s already provided", mdTo.ID)
		}
		projected[mdTo.ID] = *mdTo
	}
	if mdFrom != nil {
		delete(projected, mdFrom.ID)
	}

	if diag := e.catalog.CheckAllConflicts(projected); diag != "" {
		return "", errs.User("%s", diag)
	}
	if diag := e.catalog.CheckAllDependencies(projected); diag != "" {
		return "", errs.User("%s", diag)
	}

	// 3. TENANT_INIT
	if mdTo != nil {
		path, err := e.resolver.TenantInterface(*mdTo)
		switch {
		case err == nil:
			body := tenantInitBody{ModuleTo: mdTo.ID}
			if mdFrom != nil {
				body.ModuleFrom = mdFrom.ID
			}
			payload, merr := json.Marshal(body)
			if merr != nil {
				return "", errs.Internal(merr, "marshal tenant-init body for %s", mdTo.ID)
			}
			res := e.proxy.CallSystemInterface(tenantID, mdTo.ID, path, payload, ctx)
			if res.Err != nil {
				return "", res.Err
			}
		case errs.KindOf(err) == errs.KindNotFound:
			// No _tenant interface at all: fall through to PERMISSIONS.
		default:
			return "", err
		}
	}

	// 4. PERMISSIONS -- pure disable (mdTo == nil) has nothing to broadcast
	// for and jumps straight to COMMIT, same as TENANT_INIT above.
	if mdTo != nil {
		if err := e.broadcastPermissions(ctx, tenantID, work, mdTo); err != nil {
			return "", err
		}
	}

	// 5. COMMIT
	if mdFrom != nil {
		work.DisableModule(mdFrom.ID)
	}
	committed := ""
	if mdTo != nil {
		work.EnableModule(mdTo.ID, time.Now())
		committed = mdTo.ID
	}

	if _, err := e.reg.CommitModules(tenantID, work.Enabled); err != nil {
		return "", err
	}
	return committed, nil
}

func (e *Engine) broadcastPermissions(ctx rctx.Ctx, tenantID string, work *tenant.Tenant, mdTo *moduledesc.ModuleDescriptor) error {
	resolve := func(id string) (moduledesc.ModuleDescriptor, error) {
		return e.catalog.Get(id)
	}

	existing, findErr := e.resolver.FindPermissionsProvider(work, resolve)
	mdToProvides := mdTo != nil && mdTo.ProvidesPermissions()

	switch {
	case findErr == nil:
		host := existing
		if mdToProvides {
			host = *mdTo
		}
		return e.tenantPerms(ctx, tenantID, *mdTo, host)

	case errs.KindOf(findErr) == errs.KindNotFound:
		if !mdToProvides {
			return nil
		}
		for _, mid := range work.ListModules() {
			if mid == mdTo.ID {
				continue
			}
			md, err := e.catalog.Get(mid)
			if err != nil {
				return err
			}
			if err := e.tenantPerms(ctx, tenantID, md, *mdTo); err != nil {
				return err
			}
		}
		return e.tenantPerms(ctx, tenantID, *mdTo, *mdTo)

	default:
		return findErr
	}
}

func (e *Engine) tenantPerms(ctx rctx.Ctx, tenantID string, target, host moduledesc.ModuleDescriptor) error {
	path, err := e.resolver.PermissionsPath(host)
	if err != nil {
		return err
	}
	body, err := json.Marshal(permsBody{ModuleID: target.ID, Perms: target.PermissionSets})
	if err != nil {
		return errs.Internal(err, "marshal permissions body for %s", target.ID)
	}
	res := e.proxy.CallSystemInterface(tenantID, host.ID, path, body, ctx)
	if res.Err != nil {
		return res.Err
	}
	return nil
}
