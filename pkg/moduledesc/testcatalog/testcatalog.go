// Package testcatalog is an in-memory moduledesc.ModuleCatalog fixture used
// by the planner, orchestrator, and tlmserver test suites in place of a
// real catalog service.
package testcatalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/modgw/tlm/internal/errs"
	"github.com/modgw/tlm/pkg/moduledesc"
)

// Catalog is a concurrency-safe, fully in-memory ModuleCatalog. Dependency
// and conflict resolution is name-based (version-agnostic), matching the
// TLM's "at most one module enabled per name" invariant.
type Catalog struct {
	mu      sync.RWMutex
	modules map[string]moduledesc.ModuleDescriptor
}

// New builds a Catalog pre-populated with mods.
func New(mods ...moduledesc.ModuleDescriptor) *Catalog {
	c := &Catalog{modules: make(map[string]moduledesc.ModuleDescriptor)}
	for _, m := range mods {
		c.modules[m.ID] = m
	}
	return c
}

// Register adds or replaces a module in the catalog.
func (c *Catalog) Register(md moduledesc.ModuleDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules[md.ID] = md
}

// Get resolves a fully-qualified module id.
func (c *Catalog) Get(mid string) (moduledesc.ModuleDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	md, ok := c.modules[mid]
	if !ok {
		return moduledesc.ModuleDescriptor{}, errs.NotFound("module %s not found", mid)
	}
	return md, nil
}

// GetLatest resolves the latest version of mid by name. If mid already
// carries a semver suffix, it is resolved exactly.
func (c *Catalog) GetLatest(mid string) (moduledesc.ModuleDescriptor, error) {
	if moduledesc.HasVersion(mid) {
		return c.Get(mid)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *moduledesc.ModuleDescriptor
	for id := range c.modules {
		md := c.modules[id]
		if md.Name != mid {
			continue
		}
		if best == nil || moduledesc.CompareSemver(md.Version, best.Version) > 0 {
			cp := md
			best = &cp
		}
	}
	if best == nil {
		return moduledesc.ModuleDescriptor{}, errs.NotFound("module %s not found", mid)
	}
	return *best, nil
}

// GetModulesWithFilter lists every module, optionally scoped to name and
// optionally excluding pre-release versions.
func (c *Catalog) GetModulesWithFilter(name string, includePreRelease bool) ([]moduledesc.ModuleDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []moduledesc.ModuleDescriptor
	for _, md := range c.modules {
		if name != "" && md.Name != name {
			continue
		}
		if md.PreRelease && !includePreRelease {
			continue
		}
		out = append(out, md)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CheckAllDependencies returns a human-readable diagnostic if any module in
// candidate requires a name not present among candidate's members.
func (c *Catalog) CheckAllDependencies(candidate map[string]moduledesc.ModuleDescriptor) string {
	names := make(map[string]bool, len(candidate))
	for _, md := range candidate {
		names[md.Name] = true
	}

	var diags []string
	for _, md := range candidate {
		for _, req := range md.Requires {
			if !names[req] {
				diags = append(diags, fmt.Sprintf("%s requires %s", md.ID, req))
			}
		}
	}
	sort.Strings(diags)
	return strings.Join(diags, "; ")
}

// CheckAllConflicts returns a human-readable diagnostic if any two modules
// in candidate declare a conflict with each other's name.
func (c *Catalog) CheckAllConflicts(candidate map[string]moduledesc.ModuleDescriptor) string {
	names := make(map[string]bool, len(candidate))
	for _, md := range candidate {
		names[md.Name] = true
	}

	var diags []string
	for _, md := range candidate {
		for _, conflict := range md.Conflicts {
			if names[conflict] {
				diags = append(diags, fmt.Sprintf("%s conflicts with %s", md.ID, conflict))
			}
		}
	}
	sort.Strings(diags)
	return strings.Join(diags, "; ")
}

// AddModuleDependencies appends enable actions for every dependency of md
// not already satisfied in enabled, each preceded (recursively) by its own
// dependencies, then mutates enabled to include them. It does not append
// md's own enable.
func (c *Catalog) AddModuleDependencies(md moduledesc.ModuleDescriptor, available, enabled map[string]moduledesc.ModuleDescriptor, plan *moduledesc.Plan) error {
	return c.addDeps(md, available, enabled, plan, make(map[string]bool))
}

func (c *Catalog) addDeps(md moduledesc.ModuleDescriptor, available, enabled map[string]moduledesc.ModuleDescriptor, plan *moduledesc.Plan, visiting map[string]bool) error {
	if visiting[md.Name] {
		return errs.Internal(nil, "dependency cycle detected at %s", md.Name)
	}
	visiting[md.Name] = true
	defer delete(visiting, md.Name)

	for _, reqName := range md.Requires {
		if satisfiedByName(enabled, reqName) {
			continue
		}

		dep, ok := latestByName(available, reqName)
		if !ok {
			return errs.NotFound("dependency %s of %s not found in catalog", reqName, md.ID)
		}

		if err := c.addDeps(dep, available, enabled, plan, visiting); err != nil {
			return err
		}

		if !plan.Contains(dep.ID) {
			*plan = append(*plan, moduledesc.TenantModuleAction{ID: dep.ID, Action: moduledesc.ActionEnable})
		}
		enabled[dep.ID] = dep
	}
	return nil
}

// RemoveModuleDependencies appends disable actions for every module in
// enabled that depends on md's name, each preceded (recursively) by its own
// dependents, then mutates enabled to drop them. It does not append md's
// own disable.
func (c *Catalog) RemoveModuleDependencies(md moduledesc.ModuleDescriptor, enabled map[string]moduledesc.ModuleDescriptor, plan *moduledesc.Plan) error {
	return c.removeDeps(md, enabled, plan, make(map[string]bool))
}

func (c *Catalog) removeDeps(md moduledesc.ModuleDescriptor, enabled map[string]moduledesc.ModuleDescriptor, plan *moduledesc.Plan, visiting map[string]bool) error {
	if visiting[md.Name] {
		return errs.Internal(nil, "dependency cycle detected at %s", md.Name)
	}
	visiting[md.Name] = true
	defer delete(visiting, md.Name)

	for _, dependent := range dependentsOf(enabled, md.Name) {
		if err := c.removeDeps(dependent, enabled, plan, visiting); err != nil {
			return err
		}
		if !plan.Contains(dependent.ID) {
			*plan = append(*plan, moduledesc.TenantModuleAction{ID: dependent.ID, Action: moduledesc.ActionDisable})
		}
		delete(enabled, dependent.ID)
	}
	return nil
}

func satisfiedByName(enabled map[string]moduledesc.ModuleDescriptor, name string) bool {
	for _, md := range enabled {
		if md.Name == name {
			return true
		}
	}
	return false
}

func latestByName(available map[string]moduledesc.ModuleDescriptor, name string) (moduledesc.ModuleDescriptor, bool) {
	var best *moduledesc.ModuleDescriptor
	for id := range available {
		md := available[id]
		if md.Name != name {
			continue
		}
		if best == nil || moduledesc.CompareSemver(md.Version, best.Version) > 0 {
			cp := md
			best = &cp
		}
	}
	if best == nil {
		return moduledesc.ModuleDescriptor{}, false
	}
	return *best, true
}

func dependentsOf(enabled map[string]moduledesc.ModuleDescriptor, name string) []moduledesc.ModuleDescriptor {
	var out []moduledesc.ModuleDescriptor
	for _, md := range enabled {
		for _, req := range md.Requires {
			if req == name {
				out = append(out, md)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
