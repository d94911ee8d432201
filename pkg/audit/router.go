package audit

import (
	"github.com/go-chi/chi/v5"

	"github.com/modgw/tlm/pkg/authz"
)

// Router builds a chi.Router serving the audit trail's read endpoints.
// When authorizer is non-nil, endpoints require audit:list / audit:get.
func Router(store *Store, authorizer authz.Authorizer) chi.Router {
	r := chi.NewRouter()

	listHandler := ListHandler(store)
	getHandler := GetHandler(store)

	if authorizer != nil {
		r.Get("/tenants/{tenantId}/audit-events", authz.RequirePermission(authorizer, authz.ResourceAudit, authz.VerbList)(listHandler).ServeHTTP)
		r.Get("/audit-events/{eventId}", authz.RequirePermission(authorizer, authz.ResourceAudit, authz.VerbGet)(getHandler).ServeHTTP)
	} else {
		r.Get("/tenants/{tenantId}/audit-events", listHandler)
		r.Get("/audit-events/{eventId}", getHandler)
	}

	return r
}
