package jobs

import (
	"github.com/go-chi/chi/v5"

	"github.com/modgw/tlm/pkg/authz"
)

// Router creates a chi.Router for the install job status API.
// When authorizer is non-nil, endpoints require installplans:list/get/create.
func Router(store *JobStore, authorizer authz.Authorizer) chi.Router {
	r := chi.NewRouter()

	listHandler := ListJobsHandler(store)
	getHandler := GetJobHandler(store)
	cancelHandler := CancelJobHandler(store)

	if authorizer != nil {
		r.Get("/install-jobs", authz.RequirePermission(authorizer, authz.ResourceInstallPlans, authz.VerbList)(listHandler).ServeHTTP)
		r.Get("/install-jobs/{jobId}", authz.RequirePermission(authorizer, authz.ResourceInstallPlans, authz.VerbGet)(getHandler).ServeHTTP)
		r.Post("/install-jobs/{jobId}:cancel", authz.RequirePermission(authorizer, authz.ResourceInstallPlans, authz.VerbCreate)(cancelHandler).ServeHTTP)
	} else {
		r.Get("/install-jobs", listHandler)
		r.Get("/install-jobs/{jobId}", getHandler)
		r.Post("/install-jobs/{jobId}:cancel", cancelHandler)
	}

	return r
}
