// Package orchestrator implements the InstallOrchestrator: it drives a
// computed Plan through three ordered phases -- auto-deploy, apply (via the
// ChangeEngine), and auto-undeploy -- against one tenant.
package orchestrator

import (
	"log/slog"

	"github.com/modgw/tlm/pkg/audit"
	"github.com/modgw/tlm/pkg/changeengine"
	"github.com/modgw/tlm/pkg/moduledesc"
	"github.com/modgw/tlm/pkg/proxyapi"
	"github.com/modgw/tlm/pkg/rctx"
)

// Options configures one orchestration run.
type Options struct {
	// Deploy enables phases 1 (auto-deploy) and 3 (auto-undeploy). When
	// false, only phase 2 (apply) runs.
	Deploy bool
	// Simulate, when set, skips all three phases: the plan is returned
	// as-is without touching the tenant, the proxy, or the catalog.
	Simulate bool
}

// UserLister reports which tenants currently have a given module enabled,
// used by phase 3 to decide whether a module leaving one tenant is still in
// use elsewhere before undeploying its instance.
type UserLister interface {
	// GetModuleUser returns the ids of tenants that currently enable mid.
	GetModuleUser(mid string) ([]string, error)
}

// Orchestrator drives Plans for one tenant against a catalog, a Proxy, and
// a ChangeEngine.
type Orchestrator struct {
	catalog moduledesc.ModuleCatalog
	proxy   proxyapi.Proxy
	engine  *changeengine.Engine
	users   UserLister
	audit   *audit.Store
}

// New builds an Orchestrator over its collaborators. users may be nil, in
// which case phase 3 always undeploys (no cross-tenant sharing check).
func New(catalog moduledesc.ModuleCatalog, proxy proxyapi.Proxy, engine *changeengine.Engine, users UserLister) *Orchestrator {
	return &Orchestrator{catalog: catalog, proxy: proxy, engine: engine, users: users}
}

// WithAudit attaches an audit.Store that applyPhase records a
// transition event to after each successful ChangeEngine COMMIT. Returns o
// for chaining; a nil store is a no-op (recording stays disabled).
func (o *Orchestrator) WithAudit(store *audit.Store) *Orchestrator {
	o.audit = store
	return o
}

// Execute drives plan against tenantID per opts, returning the plan that
// was (or, under Simulate, would have been) applied.
func (o *Orchestrator) Execute(ctx rctx.Ctx, tenantID string, plan moduledesc.Plan, opts Options) (moduledesc.Plan, error) {
	if opts.Simulate {
		return plan, nil
	}

	if opts.Deploy {
		if err := o.autoDeployPhase(ctx, plan); err != nil {
			return nil, err
		}
	}

	if err := o.applyPhase(ctx, tenantID, plan); err != nil {
		return nil, err
	}

	if opts.Deploy {
		if err := o.autoUndeployPhase(ctx, plan); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

func (o *Orchestrator) autoDeployPhase(ctx rctx.Ctx, plan moduledesc.Plan) error {
	for _, action := range plan {
		if action.Action != moduledesc.ActionEnable && action.Action != moduledesc.ActionUpToDate {
			continue
		}
		md, err := o.catalog.Get(action.ID)
		if err != nil {
			return err
		}
		if res := o.proxy.AutoDeploy(md, ctx); res.Err != nil {
			return res.Err
		}
	}
	return nil
}

func (o *Orchestrator) applyPhase(ctx rctx.Ctx, tenantID string, plan moduledesc.Plan) error {
	for _, action := range plan {
		var fromID, toID string
		switch action.Action {
		case moduledesc.ActionEnable:
			fromID, toID = action.From, action.ID
		case moduledesc.ActionDisable:
			fromID, toID = action.ID, ""
		case moduledesc.ActionUpToDate:
			continue
		}
		iface, err := o.engine.Transition(ctx, tenantID, fromID, toID)
		if err != nil {
			return err
		}
		o.recordTransition(tenantID, fromID, toID, iface)
	}
	return nil
}

// recordTransition appends an EventTransition for one applyPhase step. It is
// a best-effort side channel: a recording failure is logged but never fails
// the transition it describes, since the ChangeEngine has already committed.
func (o *Orchestrator) recordTransition(tenantID, fromID, toID, iface string) {
	if o.audit == nil {
		return
	}
	module := toID
	if module == "" {
		module = fromID
	}
	event := audit.Event{
		TenantID: tenantID,
		Type:     audit.EventTransition,
		Module:   module,
		Outcome:  "committed",
		Detail: audit.JSONDetail{
			"from":      fromID,
			"to":        toID,
			"interface": iface,
		},
	}
	if err := o.audit.Record(event); err != nil {
		slog.Default().Error("failed to record audit event", "error", err, "tenantId", tenantID, "module", module)
	}
}

func (o *Orchestrator) autoUndeployPhase(ctx rctx.Ctx, plan moduledesc.Plan) error {
	for _, action := range plan {
		var candidate string
		switch action.Action {
		case moduledesc.ActionEnable:
			candidate = action.From
		case moduledesc.ActionDisable:
			candidate = action.ID
		default:
			continue
		}
		if candidate == "" {
			continue
		}

		if o.users != nil {
			users, err := o.users.GetModuleUser(candidate)
			if err != nil {
				return err
			}
			if len(users) > 0 {
				continue
			}
		}

		md, err := o.catalog.Get(candidate)
		if err != nil {
			return err
		}
		if res := o.proxy.AutoUndeploy(md, ctx); res.Err != nil {
			return res.Err
		}
	}
	return nil
}
