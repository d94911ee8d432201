// Package planner implements the InstallPlanner: it turns a list of
// requested TenantModuleActions, or an empty "upgrade everything" request,
// into a fully expanded, dependency-closed Plan against one tenant.
package planner

import (
	"github.com/modgw/tlm/internal/errs"
	"github.com/modgw/tlm/pkg/moduledesc"
	"github.com/modgw/tlm/pkg/tenant"
)

// Options configures one planning run.
type Options struct {
	// PreRelease includes pre-release module versions in the candidate
	// set when true.
	PreRelease bool
}

// Planner computes Plans against a ModuleCatalog.
type Planner struct {
	catalog moduledesc.ModuleCatalog
}

// New builds a Planner over catalog.
func New(catalog moduledesc.ModuleCatalog) *Planner {
	return &Planner{catalog: catalog}
}

// Plan computes a closed, validated Plan for t. A nil requested slice
// triggers the upgrade case: every currently enabled module is checked
// against the catalog's latest version and an upgrade enable is appended
// wherever a newer version exists. A non-nil (possibly empty) slice is
// processed as the explicit case, one requested action at a time.
func (p *Planner) Plan(t *tenant.Tenant, requested []moduledesc.TenantModuleAction, opts Options) (moduledesc.Plan, error) {
	available, err := p.availableSet(opts.PreRelease)
	if err != nil {
		return nil, err
	}

	enabled := make(map[string]moduledesc.ModuleDescriptor)
	for mid, md := range available {
		if t.IsEnabled(mid) {
			enabled[mid] = md
		}
	}

	var plan moduledesc.Plan
	if requested == nil {
		plan, err = p.planUpgrade(enabled)
	} else {
		plan, err = p.planExplicit(requested, available, enabled)
	}
	if err != nil {
		return nil, err
	}

	if diag := p.catalog.CheckAllDependencies(enabled); diag != "" {
		return nil, errs.User("%s", diag)
	}

	return plan, nil
}

func (p *Planner) availableSet(preRelease bool) (map[string]moduledesc.ModuleDescriptor, error) {
	mods, err := p.catalog.GetModulesWithFilter("", preRelease)
	if err != nil {
		return nil, err
	}
	out := make(map[string]moduledesc.ModuleDescriptor, len(mods))
	for _, md := range mods {
		out[md.ID] = md
	}
	return out, nil
}

func (p *Planner) planUpgrade(enabled map[string]moduledesc.ModuleDescriptor) (moduledesc.Plan, error) {
	var plan moduledesc.Plan
	for fromID, md := range enabled {
		latest, err := p.catalog.GetLatest(md.Name)
		if err != nil {
			return nil, err
		}
		if latest.ID == fromID {
			continue
		}
		plan = append(plan, moduledesc.TenantModuleAction{
			ID:     latest.ID,
			Action: moduledesc.ActionEnable,
			From:   fromID,
		})
		delete(enabled, fromID)
		enabled[latest.ID] = latest
	}
	return plan, nil
}

func (p *Planner) planExplicit(requested []moduledesc.TenantModuleAction, available, enabled map[string]moduledesc.ModuleDescriptor) (moduledesc.Plan, error) {
	var plan moduledesc.Plan

	for _, req := range requested {
		switch req.Action {
		case moduledesc.ActionEnable:
			if err := p.planEnable(req.ID, available, enabled, &plan); err != nil {
				return nil, err
			}
		case moduledesc.ActionUpToDate:
			if _, ok := enabled[req.ID]; !ok {
				return nil, errs.NotFound("module %s is not enabled", req.ID)
			}
		case moduledesc.ActionDisable:
			if err := p.planDisable(req.ID, enabled, &plan); err != nil {
				return nil, err
			}
		default:
			return nil, errs.Internal(nil, "not implemented: action %q", req.Action)
		}
	}

	return plan, nil
}

func (p *Planner) planEnable(id string, available, enabled map[string]moduledesc.ModuleDescriptor, plan *moduledesc.Plan) error {
	resolvedID := id
	if !moduledesc.HasVersion(id) {
		latest, err := p.catalog.GetLatest(id)
		if err != nil {
			return err
		}
		resolvedID = latest.ID
	}

	md, ok := available[resolvedID]
	if !ok {
		return errs.NotFound("module %s not found", resolvedID)
	}

	if _, already := enabled[resolvedID]; already {
		if !plan.Contains(resolvedID) {
			*plan = append(*plan, moduledesc.TenantModuleAction{ID: resolvedID, Action: moduledesc.ActionUpToDate})
		}
		return nil
	}

	if err := p.catalog.AddModuleDependencies(md, available, enabled, plan); err != nil {
		return err
	}

	*plan = append(*plan, moduledesc.TenantModuleAction{ID: resolvedID, Action: moduledesc.ActionEnable})
	enabled[resolvedID] = md
	return nil
}

func (p *Planner) planDisable(id string, enabled map[string]moduledesc.ModuleDescriptor, plan *moduledesc.Plan) error {
	resolvedID := id
	if !moduledesc.HasVersion(id) {
		found := false
		for mid, md := range enabled {
			if md.Name == id {
				resolvedID = mid
				found = true
				break
			}
		}
		if !found {
			return errs.NotFound("module %s is not enabled", id)
		}
	}

	md, ok := enabled[resolvedID]
	if !ok {
		return errs.NotFound("module %s is not enabled", resolvedID)
	}

	if err := p.catalog.RemoveModuleDependencies(md, enabled, plan); err != nil {
		return err
	}

	*plan = append(*plan, moduledesc.TenantModuleAction{ID: resolvedID, Action: moduledesc.ActionDisable})
	delete(enabled, resolvedID)
	return nil
}
