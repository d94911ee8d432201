package jobs

import (
	"time"
)

// JobState represents the lifecycle state of an install job.
type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
	JobStateCanceled  JobState = "canceled"
)

// InstallJob is the GORM model for an asynchronously-executed tenant module
// transition: one install, upgrade, or disable request queued against a
// tenant and picked up by a WorkerPool.
type InstallJob struct {
	ID              string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	TenantID        string     `gorm:"column:tenant_id;index:idx_job_tenant_state,priority:1;not null"`
	Kind            string     `gorm:"column:kind;index:idx_job_kind_state,priority:1;not null"`
	ModuleID        string     `gorm:"column:module_id"`
	RequestedBy     string     `gorm:"column:requested_by;not null"`
	RequestedAt     time.Time  `gorm:"column:requested_at;not null"`
	State           JobState   `gorm:"column:state;index:idx_job_tenant_state,priority:2;index:idx_job_kind_state,priority:2;index:idx_job_state;not null;default:queued"`
	Progress        string     `gorm:"column:progress"`
	Message         string     `gorm:"column:message"`
	StartedAt       *time.Time `gorm:"column:started_at"`
	FinishedAt      *time.Time `gorm:"column:finished_at"`
	AttemptCount    int        `gorm:"column:attempt_count;default:0"`
	LastError       string     `gorm:"column:last_error"`
	IdempotencyKey  string     `gorm:"column:idempotency_key;uniqueIndex:idx_job_idemp_key"`
	ModulesEnabled  int        `gorm:"column:modules_enabled"`
	ModulesDisabled int        `gorm:"column:modules_disabled"`
	DurationMs      int64      `gorm:"column:duration_ms"`
}

// TableName returns the GORM table name.
func (InstallJob) TableName() string { return "install_jobs" }

// IsTerminal returns true if the job is in a terminal state.
func (j *InstallJob) IsTerminal() bool {
	switch j.State {
	case JobStateSucceeded, JobStateFailed, JobStateCanceled:
		return true
	}
	return false
}
