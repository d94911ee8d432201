package tlmserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/modgw/tlm/internal/errs"
	"github.com/modgw/tlm/pkg/audit"
	"github.com/modgw/tlm/pkg/authz"
	"github.com/modgw/tlm/pkg/jobs"
	"github.com/modgw/tlm/pkg/moduledesc"
	"github.com/modgw/tlm/pkg/orchestrator"
	"github.com/modgw/tlm/pkg/planner"
	"github.com/modgw/tlm/pkg/rctx"
	"github.com/modgw/tlm/pkg/tenant"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusForKind maps an errs.Kind to the HTTP status the TLM surface
// reports it as: USER->422, NOT_FOUND->404, INTERNAL->500, ANY->409 (the
// one documented ANY use, getModuleUser, signals "in use").
func statusForKind(err error) int {
	switch errs.KindOf(err) {
	case errs.KindUser:
		return http.StatusUnprocessableEntity
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindAny:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeOpError(w http.ResponseWriter, err error) {
	writeError(w, statusForKind(err), err.Error())
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ready"}
	ready := true

	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil || sqlDB.Ping() != nil {
			ready = false
			status["db"] = "down"
		} else {
			status["db"] = "up"
		}
	}

	if s.leaderElector != nil {
		status["leader"] = s.leaderElector.IsLeader()
	}

	if !ready {
		status["status"] = "not ready"
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type createTenantRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s *Server) createTenantHandler(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusUnprocessableEntity, "id is required")
		return
	}

	t := tenant.New(tenant.Descriptor{ID: req.ID, Name: req.Name, Description: req.Description})
	if err := s.registry.Add(t); err != nil {
		s.writeOpError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) getTenantHandler(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")
	t, err := s.registry.Get(tenantID)
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) listTenantModulesHandler(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")
	t, err := s.registry.Get(tenantID)
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tenantId": tenantID,
		"modules":  t.ListModules(),
	})
}

// simulateInstallPlanHandler computes and returns a Plan without applying
// it: GET /install-plans/{tenantId}?module=...&action=enable (repeatable).
// With no module/action pairs it simulates an upgrade of every enabled
// module to latest, matching Planner.Plan's nil-request semantics.
func (s *Server) simulateInstallPlanHandler(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")
	t, err := s.registry.Get(tenantID)
	if err != nil {
		s.writeOpError(w, err)
		return
	}

	requested, err := parseRequestedActions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := s.planner.Plan(t, requested, planner.Options{})
	if err != nil {
		s.recordPlanRejected(r, tenantID, err)
		s.writeOpError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

func parseRequestedActions(r *http.Request) ([]moduledesc.TenantModuleAction, error) {
	modules := r.URL.Query()["module"]
	actions := r.URL.Query()["action"]
	if len(modules) == 0 {
		return nil, nil
	}
	if len(modules) != len(actions) {
		return nil, errors.New("module and action query params must pair up 1:1")
	}

	out := make([]moduledesc.TenantModuleAction, 0, len(modules))
	for i, mid := range modules {
		act := moduledesc.Action(actions[i])
		switch act {
		case moduledesc.ActionEnable, moduledesc.ActionDisable:
		default:
			return nil, errors.New("action must be enable or disable")
		}
		out = append(out, moduledesc.TenantModuleAction{ID: mid, Action: act})
	}
	return out, nil
}

func (s *Server) recordPlanRejected(r *http.Request, tenantID string, planErr error) {
	if s.auditStore == nil {
		return
	}
	id, _ := authz.IdentityFromContext(r.Context())
	_ = s.auditStore.Record(audit.Event{
		ID:       uuid.NewString(),
		Type:     audit.EventPlanRejected,
		TenantID: tenantID,
		Actor:    id.User,
		Outcome:  "rejected",
		Detail:   audit.JSONDetail{"error": planErr.Error()},
	})
}

type moduleActionRequest struct {
	ModuleID string `json:"moduleId"`
}

// submitJob enqueues an InstallJob of the given kind when a JobStore is
// configured and returns it immediately with 202 in the "queued" state.
// With no JobStore configured it applies the plan synchronously through the
// Orchestrator instead.
func (s *Server) submitJob(w http.ResponseWriter, r *http.Request, kind string) {
	tenantID := chi.URLParam(r, "tenantId")

	var req moduleActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ModuleID == "" && kind != "upgrade" {
		writeError(w, http.StatusUnprocessableEntity, "moduleId is required")
		return
	}

	id, _ := authz.IdentityFromContext(r.Context())

	if s.jobStore == nil {
		s.applySynchronously(w, r, tenantID, kind, req.ModuleID)
		return
	}

	job, err := s.jobStore.Enqueue(&jobs.InstallJob{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Kind:        kind,
		ModuleID:    req.ModuleID,
		RequestedBy: id.User,
		RequestedAt: time.Now(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, jobs.ToResponse(job))
}

func (s *Server) applySynchronously(w http.ResponseWriter, r *http.Request, tenantID, kind, moduleID string) {
	t, err := s.registry.Get(tenantID)
	if err != nil {
		s.writeOpError(w, err)
		return
	}

	action := moduledesc.ActionEnable
	if kind == "disable" {
		action = moduledesc.ActionDisable
	}

	var requested []moduledesc.TenantModuleAction
	if kind != "upgrade" {
		requested = []moduledesc.TenantModuleAction{{ID: moduleID, Action: action}}
	}

	plan, err := s.planner.Plan(t, requested, planner.Options{})
	if err != nil {
		s.recordPlanRejected(r, tenantID, err)
		s.writeOpError(w, err)
		return
	}

	rc := rctx.New(r.Context(), s.logger)
	applied, err := s.orchestrator.Execute(rc, tenantID, plan, orchestrator.Options{Deploy: true})
	if err != nil {
		s.writeOpError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, applied)
}

func (s *Server) installHandler(w http.ResponseWriter, r *http.Request) {
	s.submitJob(w, r, "install")
}

func (s *Server) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	s.submitJob(w, r, "upgrade")
}

func (s *Server) disableHandler(w http.ResponseWriter, r *http.Request) {
	s.submitJob(w, r, "disable")
}
