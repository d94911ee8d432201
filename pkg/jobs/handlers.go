package jobs

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// GetJobHandler handles GET /install-jobs/{jobId}
func GetJobHandler(store *JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobId")
		if jobID == "" {
			writeError(w, http.StatusBadRequest, "missing job ID")
			return
		}

		job, err := store.Get(jobID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get job: %v", err))
			return
		}
		if job == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("job %q not found", jobID))
			return
		}

		writeJSON(w, http.StatusOK, jobToResponse(job))
	}
}

// ListJobsHandler handles GET /install-jobs
// Query params: tenant_id, kind, moduleId, state, requestedBy, pageSize, pageToken
func ListJobsHandler(store *JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := JobListFilter{
			TenantID:    r.URL.Query().Get("tenant_id"),
			Kind:        r.URL.Query().Get("kind"),
			ModuleID:    r.URL.Query().Get("moduleId"),
			State:       r.URL.Query().Get("state"),
			RequestedBy: r.URL.Query().Get("requestedBy"),
		}

		pageSize := 20
		if ps := r.URL.Query().Get("pageSize"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 {
				pageSize = v
			}
		}
		pageToken := r.URL.Query().Get("pageToken")

		records, nextToken, total, err := store.List(filter, pageSize, pageToken)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list jobs: %v", err))
			return
		}

		jobs := make([]jobResponse, len(records))
		for i := range records {
			jobs[i] = jobToResponse(&records[i])
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"jobs":          jobs,
			"nextPageToken": nextToken,
			"totalSize":     total,
		})
	}
}

// CancelJobHandler handles POST /install-jobs/{jobId}:cancel
func CancelJobHandler(store *JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobId")
		if jobID == "" {
			writeError(w, http.StatusBadRequest, "missing job ID")
			return
		}

		if err := store.Cancel(jobID); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to cancel job: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status": "canceled",
			"jobId":  jobID,
		})
	}
}

// ToResponse converts an InstallJob into its public JSON representation,
// the same shape GetJobHandler and ListJobsHandler return. Callers that
// write a freshly-enqueued InstallJob directly to an HTTP response (rather
// than through this package's own handlers) should go through this to keep
// the wire shape consistent.
func ToResponse(job *InstallJob) any {
	return jobToResponse(job)
}

// jobResponse is the API response for an install job.
type jobResponse struct {
	ID              string `json:"id"`
	TenantID        string `json:"tenantId"`
	Kind            string `json:"kind"`
	ModuleID        string `json:"moduleId,omitempty"`
	RequestedBy     string `json:"requestedBy"`
	RequestedAt     string `json:"requestedAt"`
	State           string `json:"state"`
	Progress        string `json:"progress,omitempty"`
	Message         string `json:"message,omitempty"`
	StartedAt       string `json:"startedAt,omitempty"`
	FinishedAt      string `json:"finishedAt,omitempty"`
	AttemptCount    int    `json:"attemptCount"`
	LastError       string `json:"lastError,omitempty"`
	ModulesEnabled  int    `json:"modulesEnabled,omitempty"`
	ModulesDisabled int    `json:"modulesDisabled,omitempty"`
	DurationMs      int64  `json:"durationMs,omitempty"`
}

func jobToResponse(job *InstallJob) jobResponse {
	resp := jobResponse{
		ID:              job.ID,
		TenantID:        job.TenantID,
		Kind:            job.Kind,
		ModuleID:        job.ModuleID,
		RequestedBy:     job.RequestedBy,
		RequestedAt:     job.RequestedAt.Format(time.RFC3339),
		State:           string(job.State),
		Progress:        job.Progress,
		Message:         job.Message,
		AttemptCount:    job.AttemptCount,
		LastError:       job.LastError,
		ModulesEnabled:  job.ModulesEnabled,
		ModulesDisabled: job.ModulesDisabled,
		DurationMs:      job.DurationMs,
	}
	if job.StartedAt != nil {
		resp.StartedAt = job.StartedAt.Format(time.RFC3339)
	}
	if job.FinishedAt != nil {
		resp.FinishedAt = job.FinishedAt.Format(time.RFC3339)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
