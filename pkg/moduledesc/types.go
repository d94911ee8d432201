// Package moduledesc defines the module/interface descriptor shapes the TLM
// reads from the (external, out of scope) module catalog, plus the
// ModuleCatalog contract itself. These are plain, JSON-tagged structs --
// the catalog owns their storage, not the TLM.
package moduledesc

import "strings"

// InterfaceType distinguishes the two system interfaces the TLM protocol
// understands from any other "proxy" interface a module might expose.
type InterfaceType string

const (
	InterfaceTypeProxy  InterfaceType = "proxy"
	InterfaceTypeSystem InterfaceType = "system"
)

// Reserved system interface ids.
const (
	TenantInterfaceID      = "_tenant"
	PermissionsInterfaceID = "_tenantPermissions"
)

// RoutingEntry is one HTTP route a module interface exposes.
type RoutingEntry struct {
	Path        string `json:"path,omitempty"`
	PathPattern string `json:"pathPattern,omitempty"`
	Method      string `json:"method"`
}

// Match reports whether this routing entry serves the given method (path
// matching, when pathPattern is set, is left to the caller's routing
// library in a real deployment; the TLM only needs to know whether an entry
// exists for a method and what to POST to).
func (r RoutingEntry) Match(method string) bool {
	return strings.EqualFold(r.Method, method)
}

// HasPath reports whether the entry declares somewhere to POST to.
func (r RoutingEntry) HasPath() bool {
	return r.Path != "" || r.PathPattern != ""
}

// ResolvedPath returns Path if set, else PathPattern, else "".
func (r RoutingEntry) ResolvedPath() string {
	if r.Path != "" {
		return r.Path
	}
	return r.PathPattern
}

// InterfaceDescriptor describes one interface (contract) a module provides.
// A legacy ("old-fashioned") interface is not a system interface, or has no
// routing entries; callers must fall back to a well-known default path for it.
type InterfaceDescriptor struct {
	ID            string         `json:"id"`
	Version       string         `json:"version"`
	InterfaceType InterfaceType  `json:"interfaceType,omitempty"`
	RoutingEntries []RoutingEntry `json:"routingEntries,omitempty"`
}

// Legacy reports whether this is an old-fashioned interface declaration:
// no system interface type, or no routing entries to resolve a path from.
func (d InterfaceDescriptor) Legacy() bool {
	return d.InterfaceType != InterfaceTypeSystem || len(d.RoutingEntries) == 0
}

// FindRoute returns the first routing entry matching method, and whether one
// was found.
func (d InterfaceDescriptor) FindRoute(method string) (RoutingEntry, bool) {
	for _, re := range d.RoutingEntries {
		if re.Match(method) {
			return re, true
		}
	}
	return RoutingEntry{}, false
}

// PermissionSet is an opaque permission grant a module declares; the TLM
// only ever forwards these, it never interprets them (permission evaluation
// is explicitly out of scope).
type PermissionSet map[string]any

// ModuleDescriptor is the catalog's view of one module at one version.
type ModuleDescriptor struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Version        string                `json:"version"`
	ProvidesList   []InterfaceDescriptor `json:"providesList,omitempty"`
	Requires       []string              `json:"requires,omitempty"` // module names this module depends on
	Conflicts      []string              `json:"conflicts,omitempty"`
	PermissionSets []PermissionSet       `json:"permissionSets,omitempty"`
	PreRelease     bool                  `json:"preRelease,omitempty"`
}

// SystemInterface returns the named interface from ProvidesList, if present.
func (m ModuleDescriptor) SystemInterface(id string) (InterfaceDescriptor, bool) {
	for _, p := range m.ProvidesList {
		if p.ID == id {
			return p, true
		}
	}
	return InterfaceDescriptor{}, false
}

// ProvidesPermissions reports whether this module declares the reserved
// _tenantPermissions system interface.
func (m ModuleDescriptor) ProvidesPermissions() bool {
	iface, ok := m.SystemInterface(PermissionsInterfaceID)
	return ok && iface.InterfaceType == InterfaceTypeSystem
}
