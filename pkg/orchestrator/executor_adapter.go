package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/modgw/tlm/pkg/moduledesc"
	"github.com/modgw/tlm/pkg/planner"
	"github.com/modgw/tlm/pkg/rctx"
	"github.com/modgw/tlm/pkg/registry"
)

// JobExecutor adapts an Orchestrator to jobs.PlanExecutor: it turns a single
// (kind, tenantID, moduleID) job into a request that a Planner expands into
// a Plan, which Execute applies. It satisfies jobs.PlanExecutor
// structurally; pkg/jobs is never imported here to avoid a cycle.
type JobExecutor struct {
	registry *registry.Registry
	planner  *planner.Planner
	orch     *Orchestrator
	logger   *slog.Logger
}

// NewJobExecutor builds a JobExecutor over the collaborators needed to turn
// a queued install job into an applied Plan.
func NewJobExecutor(reg *registry.Registry, pl *planner.Planner, orch *Orchestrator, logger *slog.Logger) *JobExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobExecutor{registry: reg, planner: pl, orch: orch, logger: logger}
}

// Execute resolves tenantID's current state, plans an enable (for
// "install"/"upgrade" kinds) or disable (for "disable") of moduleID, and
// applies it with auto-deploy/auto-undeploy enabled. An "upgrade" job with
// an empty moduleID plans an upgrade of every enabled module to its latest
// version.
func (e *JobExecutor) Execute(ctx context.Context, kind, tenantID, moduleID string) (modulesEnabled, modulesDisabled int, duration time.Duration, err error) {
	start := time.Now()

	tn, err := e.registry.Get(tenantID)
	if err != nil {
		return 0, 0, 0, err
	}

	action := moduledesc.ActionEnable
	if kind == "disable" {
		action = moduledesc.ActionDisable
	}

	var requested []moduledesc.TenantModuleAction
	if !(kind == "upgrade" && moduleID == "") {
		requested = []moduledesc.TenantModuleAction{{ID: moduleID, Action: action}}
	}

	plan, err := e.planner.Plan(tn, requested, planner.Options{})
	if err != nil {
		return 0, 0, 0, err
	}

	rc := rctx.New(ctx, e.logger)
	applied, err := e.orch.Execute(rc, tenantID, plan, Options{Deploy: true})
	if err != nil {
		return 0, 0, 0, err
	}

	for _, a := range applied {
		switch a.Action {
		case moduledesc.ActionEnable:
			modulesEnabled++
		case moduledesc.ActionDisable:
			modulesDisabled++
		}
	}

	return modulesEnabled, modulesDisabled, time.Since(start), nil
}
