package moduledesc

// Action is the verb half of a TenantModuleAction.
type Action string

const (
	ActionEnable   Action = "enable"
	ActionDisable  Action = "disable"
	ActionUpToDate Action = "uptodate"
)

// TenantModuleAction is the unit of a Plan: a single enable/disable/uptodate
// step against one tenant's module set.
type TenantModuleAction struct {
	// ID is the target module id; may be partially qualified (no semver)
	// on input, fully qualified once planned.
	ID string `json:"id"`
	// Action is one of enable, disable, uptodate.
	Action Action `json:"action"`
	// From is the module id being replaced, set only on an upgrade enable.
	From string `json:"from,omitempty"`
}

// Plan is an ordered, dependency-closed sequence of actions: a topological
// sort such that any module's dependencies appear before it in the enable
// half, and any module's dependents appear before it in the disable half.
type Plan []TenantModuleAction

// Contains reports whether the plan already has an action for id.
func (p Plan) Contains(id string) bool {
	for _, a := range p {
		if a.ID == id {
			return true
		}
	}
	return false
}

// ModuleCatalog is the external, read-only lookup the TLM consumes for
// module descriptors, dependency/conflict checking, and plan expansion.
// It is implemented by the module catalog service; the TLM never mutates
// it. See pkg/moduledesc/testcatalog for an in-memory fixture used in tests.
type ModuleCatalog interface {
	// Get resolves a fully-qualified module id. Returns an errs.NotFound
	// error if mid is not present.
	Get(mid string) (ModuleDescriptor, error)

	// GetLatest resolves the latest version of a (possibly partially
	// qualified) module id among the modules the catalog currently knows
	// about.
	GetLatest(mid string) (ModuleDescriptor, error)

	// GetModulesWithFilter lists modules, optionally scoped to a single
	// name, optionally including pre-release versions.
	GetModulesWithFilter(name string, includePreRelease bool) ([]ModuleDescriptor, error)

	// CheckAllDependencies returns a non-empty, human-readable diagnostic
	// if the given candidate module set does not satisfy every module's
	// declared dependencies; "" if satisfied.
	CheckAllDependencies(candidate map[string]ModuleDescriptor) string

	// CheckAllConflicts returns a non-empty, human-readable diagnostic if
	// any two modules in the candidate set declare a conflict; "" if none.
	CheckAllConflicts(candidate map[string]ModuleDescriptor) string

	// AddModuleDependencies appends to plan every enable action required
	// to satisfy md's dependencies that are not already in enabled, then
	// mutates enabled to reflect the projected post-plan state (it does
	// NOT append md's own enable; the caller does that).
	AddModuleDependencies(md ModuleDescriptor, available, enabled map[string]ModuleDescriptor, plan *Plan) error

	// RemoveModuleDependencies appends to plan a disable action for every
	// module in enabled that depends on md, before md's own removal, and
	// mutates enabled to reflect the projected post-plan state.
	RemoveModuleDependencies(md ModuleDescriptor, enabled map[string]ModuleDescriptor, plan *Plan) error
}
