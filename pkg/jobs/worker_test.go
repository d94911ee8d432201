package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockExecutor implements PlanExecutor for tests.
type mockExecutor struct {
	execErr   error
	enabled   int
	disabled  int
	dur       time.Duration
	execCalls int
}

func (m *mockExecutor) Execute(ctx context.Context, kind, tenantID, moduleID string) (int, int, time.Duration, error) {
	m.execCalls++
	if m.execErr != nil {
		return 0, 0, 0, m.execErr
	}
	return m.enabled, m.disabled, m.dur, nil
}

func setupWorkerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique file-based DSN per test to avoid interference from cleanup
	// goroutines that may run after the test completes.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&InstallJob{}))
	return db
}

func TestWorkerProcessesJob(t *testing.T) {
	db := setupWorkerTestDB(t)
	store := NewJobStore(db)

	mock := &mockExecutor{enabled: 5, disabled: 1, dur: 100 * time.Millisecond}
	lookup := func(kind string) (PlanExecutor, bool) {
		if kind == "install" {
			return mock, true
		}
		return nil, false
	}

	cfg := DefaultJobConfig()
	cfg.PollInterval = 50 * time.Millisecond
	cfg.Concurrency = 1
	cfg.ClaimTimeout = 0
	cfg.RetentionDays = 0

	wp := NewWorkerPool(store, lookup, cfg, nil)

	job := &InstallJob{
		ID:             uuid.New().String(),
		TenantID:       "default",
		Kind:           "install",
		ModuleID:       "modA-1.0.0",
		RequestedBy:    "test",
		RequestedAt:    time.Now(),
		State:          JobStateQueued,
		IdempotencyKey: uuid.New().String(),
	}
	_, err := store.Enqueue(job)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go wp.Run(ctx)

	require.Eventually(t, func() bool {
		j, _ := store.Get(job.ID)
		return j != nil && j.State == JobStateSucceeded
	}, 2*time.Second, 50*time.Millisecond, "job should be completed")

	result, _ := store.Get(job.ID)
	assert.Equal(t, 5, result.ModulesEnabled)
	assert.Equal(t, 1, result.ModulesDisabled)
	assert.Equal(t, 1, mock.execCalls)

	cancel()
}

func TestWorkerRetriesOnFailure(t *testing.T) {
	db := setupWorkerTestDB(t)
	store := NewJobStore(db)

	callCount := 0
	lookup := func(kind string) (PlanExecutor, bool) {
		if kind == "install" {
			return &failThenSucceedExecutor{failCount: 1, callCount: &callCount}, true
		}
		return nil, false
	}

	cfg := DefaultJobConfig()
	cfg.PollInterval = 50 * time.Millisecond
	cfg.Concurrency = 1
	cfg.MaxRetries = 3
	cfg.ClaimTimeout = 0
	cfg.RetentionDays = 0

	wp := NewWorkerPool(store, lookup, cfg, nil)

	job := &InstallJob{
		ID:             uuid.New().String(),
		TenantID:       "default",
		Kind:           "install",
		ModuleID:       "modA-1.0.0",
		RequestedBy:    "test",
		RequestedAt:    time.Now(),
		State:          JobStateQueued,
		IdempotencyKey: uuid.New().String(),
	}
	_, err := store.Enqueue(job)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go wp.Run(ctx)

	require.Eventually(t, func() bool {
		j, _ := store.Get(job.ID)
		return j != nil && j.State == JobStateSucceeded
	}, 5*time.Second, 100*time.Millisecond, "job should eventually succeed after retry")

	assert.Equal(t, 2, callCount, "should have been called twice (fail + succeed)")

	cancel()
}

func TestWorkerFailsAfterMaxRetries(t *testing.T) {
	db := setupWorkerTestDB(t)
	store := NewJobStore(db)

	mock := &mockExecutor{execErr: fmt.Errorf("persistent error")}
	lookup := func(kind string) (PlanExecutor, bool) {
		if kind == "install" {
			return mock, true
		}
		return nil, false
	}

	cfg := DefaultJobConfig()
	cfg.PollInterval = 50 * time.Millisecond
	cfg.Concurrency = 1
	cfg.MaxRetries = 2
	cfg.ClaimTimeout = 0
	cfg.RetentionDays = 0

	wp := NewWorkerPool(store, lookup, cfg, nil)

	job := &InstallJob{
		ID:             uuid.New().String(),
		TenantID:       "default",
		Kind:           "install",
		ModuleID:       "modA-1.0.0",
		RequestedBy:    "test",
		RequestedAt:    time.Now(),
		State:          JobStateQueued,
		IdempotencyKey: uuid.New().String(),
	}
	_, err := store.Enqueue(job)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go wp.Run(ctx)

	require.Eventually(t, func() bool {
		j, _ := store.Get(job.ID)
		return j != nil && j.State == JobStateFailed
	}, 5*time.Second, 100*time.Millisecond, "job should be marked failed after max retries")

	cancel()
}

func TestWorkerUnknownKind(t *testing.T) {
	db := setupWorkerTestDB(t)
	store := NewJobStore(db)

	lookup := func(kind string) (PlanExecutor, bool) {
		return nil, false
	}

	cfg := DefaultJobConfig()
	cfg.PollInterval = 50 * time.Millisecond
	cfg.Concurrency = 1
	cfg.MaxRetries = 1
	// Disable cleanup to avoid accessing DB after context cancellation.
	cfg.ClaimTimeout = 0
	cfg.RetentionDays = 0

	wp := NewWorkerPool(store, lookup, cfg, nil)

	job := &InstallJob{
		ID:             uuid.New().String(),
		TenantID:       "default",
		Kind:           "nonexistent",
		ModuleID:       "modA-1.0.0",
		RequestedBy:    "test",
		RequestedAt:    time.Now(),
		State:          JobStateQueued,
		IdempotencyKey: uuid.New().String(),
	}
	_, err := store.Enqueue(job)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go wp.Run(ctx)

	require.Eventually(t, func() bool {
		j, _ := store.Get(job.ID)
		return j != nil && j.State == JobStateFailed
	}, 2*time.Second, 50*time.Millisecond)

	cancel()

	result, err := store.Get(job.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Contains(t, result.LastError, "no executor registered")
}

// failThenSucceedExecutor fails the first N calls, then succeeds.
type failThenSucceedExecutor struct {
	failCount int
	callCount *int
}

func (f *failThenSucceedExecutor) Execute(ctx context.Context, kind, tenantID, moduleID string) (int, int, time.Duration, error) {
	*f.callCount++
	if *f.callCount <= f.failCount {
		return 0, 0, 0, fmt.Errorf("transient failure #%d", *f.callCount)
	}
	return 1, 0, 50 * time.Millisecond, nil
}
