package authz

import (
	"net/http"
	"strings"
)

// ResourceMapping maps an HTTP request to a TLM resource and verb for authorization.
type ResourceMapping struct {
	Resource string
	Verb     string
}

// UnknownMapping is returned when no known pattern matches the request.
// Callers should deny requests with this mapping by default.
var UnknownMapping = ResourceMapping{Resource: "", Verb: ""}

// MapRequest maps an HTTP method and URL path to a ResourceMapping.
// The mapper uses path segment patterns to determine the appropriate
// TLM resource and verb for authorization checks.
func MapRequest(method, path string) ResourceMapping {
	path = strings.TrimRight(path, "/")

	// Install plan lifecycle: POST /tenants/{id}/install-plans(:simulate)
	if strings.Contains(path, "/install-plans") {
		return mapInstallPlanRoute(method, path)
	}

	// Module transitions: POST /tenants/{id}/modules
	if strings.HasSuffix(path, "/modules") {
		return mapModulesRoute(method)
	}

	// Audit trail: GET /tenants/{id}/audit-events, GET /audit-events/{id}
	if strings.Contains(path, "/audit-events") {
		return mapAuditRoute(method, path)
	}

	// Tenant CRUD: /tenants, /tenants/{id}
	if strings.HasPrefix(path, "/tenants") {
		return mapTenantRoute(method, path)
	}

	return UnknownMapping
}

func mapInstallPlanRoute(method, path string) ResourceMapping {
	switch method {
	case http.MethodPost:
		return ResourceMapping{Resource: ResourceInstallPlans, Verb: VerbCreate}
	case http.MethodGet:
		return ResourceMapping{Resource: ResourceInstallPlans, Verb: VerbGet}
	default:
		return UnknownMapping
	}
}

func mapModulesRoute(method string) ResourceMapping {
	switch method {
	case http.MethodGet:
		return ResourceMapping{Resource: ResourceModules, Verb: VerbList}
	case http.MethodPost, http.MethodPut:
		return ResourceMapping{Resource: ResourceModules, Verb: VerbUpdate}
	default:
		return UnknownMapping
	}
}

func mapAuditRoute(method, path string) ResourceMapping {
	if method != http.MethodGet {
		return UnknownMapping
	}
	if strings.HasSuffix(path, "/audit-events") {
		return ResourceMapping{Resource: ResourceAudit, Verb: VerbList}
	}
	return ResourceMapping{Resource: ResourceAudit, Verb: VerbGet}
}

func mapTenantRoute(method, path string) ResourceMapping {
	switch method {
	case http.MethodGet:
		if path == "/tenants" {
			return ResourceMapping{Resource: ResourceTenants, Verb: VerbList}
		}
		return ResourceMapping{Resource: ResourceTenants, Verb: VerbGet}
	case http.MethodPost:
		return ResourceMapping{Resource: ResourceTenants, Verb: VerbCreate}
	case http.MethodPut, http.MethodPatch:
		return ResourceMapping{Resource: ResourceTenants, Verb: VerbUpdate}
	case http.MethodDelete:
		return ResourceMapping{Resource: ResourceTenants, Verb: VerbDelete}
	default:
		return UnknownMapping
	}
}
