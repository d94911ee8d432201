package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "Install, upgrade, disable, and inspect tenant modules",
}

func init() {
	moduleCmd.AddCommand(moduleInstallCmd)
	moduleCmd.AddCommand(moduleUpgradeCmd)
	moduleCmd.AddCommand(moduleDisableCmd)
	moduleCmd.AddCommand(moduleSimulateCmd)
	moduleCmd.AddCommand(moduleStatusCmd)
}

// jobOrPlanResponse is the queued jobs.InstallJob shape a module action
// returns when the server has a JobStore configured (async mode).
type jobOrPlanResponse struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Kind     string `json:"kind"`
	ModuleID string `json:"moduleId"`
	State    string `json:"state"`
}

func printJobResult(resp jobOrPlanResponse, verb string) {
	if outputFmt == "json" || outputFmt == "yaml" {
		_ = printOutput(resp)
		return
	}
	fmt.Printf("Submitted %s job %s for tenant %s (state: %s)\n", verb, resp.ID, resp.TenantID, resp.State)
}

var moduleInstallCmd = &cobra.Command{
	Use:   "install <tenant-id> <module-id>",
	Short: "Install (enable) a module for a tenant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitModuleAction(args[0], "install", args[1])
	},
}

var moduleDisableCmd = &cobra.Command{
	Use:   "disable <tenant-id> <module-id>",
	Short: "Disable a module for a tenant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitModuleAction(args[0], "disable", args[1])
	},
}

var moduleUpgradeCmd = &cobra.Command{
	Use:   "upgrade <tenant-id>",
	Short: "Upgrade all of a tenant's enabled modules to their latest versions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitModuleAction(args[0], "upgrade", "")
	},
}

// submitModuleAction posts an install/upgrade/disable request. The server
// replies with a queued jobs.InstallJob (object) when a job queue is
// configured, or the applied moduledesc.Plan (array) when it applied the
// change synchronously instead; raw decodes first to tell which shape came
// back.
func submitModuleAction(tenantID, verb, moduleID string) error {
	client := newClient()

	var raw json.RawMessage
	path := fmt.Sprintf("/api/tlm/v1/tenants/%s/%s", tenantID, verb)
	if err := client.postJSON(path, map[string]string{"moduleId": moduleID}, &raw); err != nil {
		return fmt.Errorf("%s failed: %w", verb, err)
	}

	var job jobOrPlanResponse
	if err := json.Unmarshal(raw, &job); err == nil && job.ID != "" {
		printJobResult(job, verb)
		return nil
	}

	var plan []map[string]any
	if err := json.Unmarshal(raw, &plan); err != nil {
		return fmt.Errorf("unexpected response from server: %w", err)
	}
	printAppliedPlan(plan, tenantID, verb)
	return nil
}

func printAppliedPlan(plan []map[string]any, tenantID, verb string) {
	if outputFmt == "json" || outputFmt == "yaml" {
		_ = printOutput(plan)
		return
	}
	fmt.Printf("Applied %s for tenant %s\n", verb, tenantID)
	headers := []string{"Module", "Action"}
	rows := make([][]string, 0, len(plan))
	for _, step := range plan {
		mid, _ := step["id"].(string)
		action, _ := step["action"].(string)
		rows = append(rows, []string{mid, action})
	}
	printTable(headers, rows)
}

var (
	simulateModules []string
	simulateActions []string
)

// moduleSimulateCmd computes (without applying) an install plan, pairing the
// repeated --module and --action flags positionally the same way the
// server's install-plans handler pairs its module/action query params.
var moduleSimulateCmd = &cobra.Command{
	Use:   "simulate <tenant-id>",
	Short: "Simulate an install plan without applying it",
	Long: `Simulate computes what a plan would do for a tenant without applying
it. Pass --module/--action pairs to request specific enable/disable actions,
or omit them to simulate an upgrade-all-to-latest plan.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(simulateModules) != len(simulateActions) {
			return fmt.Errorf("--module and --action must be repeated the same number of times")
		}

		client := newClient()

		q := url.Values{}
		for i, mid := range simulateModules {
			q.Add("module", mid)
			q.Add("action", simulateActions[i])
		}

		path := "/api/tlm/v1/install-plans/" + args[0]
		if encoded := q.Encode(); encoded != "" {
			path += "?" + encoded
		}

		var plan []map[string]any
		if err := client.getJSON(path, &plan); err != nil {
			return fmt.Errorf("simulation failed: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(plan)
		}

		headers := []string{"Module", "Action"}
		rows := make([][]string, 0, len(plan))
		for _, step := range plan {
			mid, _ := step["id"].(string)
			action, _ := step["action"].(string)
			rows = append(rows, []string{mid, action})
		}
		printTable(headers, rows)
		return nil
	},
}

var moduleStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status of an install/upgrade/disable job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var job jobOrPlanResponse
		if err := client.getJSON("/api/jobs/v1alpha1/install-jobs/"+args[0], &job); err != nil {
			return fmt.Errorf("failed to get job status: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(job)
		}

		headers := []string{"Job", "Tenant", "Kind", "Module", "State"}
		printTable(headers, [][]string{{job.ID, job.TenantID, job.Kind, job.ModuleID, strings.ToUpper(job.State)}})
		return nil
	},
}

func init() {
	moduleSimulateCmd.Flags().StringArrayVar(&simulateModules, "module", nil, "module id to request an action for (repeatable, pairs with --action)")
	moduleSimulateCmd.Flags().StringArrayVar(&simulateActions, "action", nil, "enable or disable (repeatable, pairs with --module)")
}
