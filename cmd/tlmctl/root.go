// Package main is tlmctl, the tenant lifecycle manager's operator CLI,
// structured the way the teacher's cmd/catalogctl is: a cobra root command,
// a small HTTP client wrapping the server's REST API, and table/json/yaml
// output shared across subcommands.
package main

import (
	"github.com/spf13/cobra"
)

var (
	serverURL string
	outputFmt string
	namespace string
)

var rootCmd = &cobra.Command{
	Use:   "tlmctl",
	Short: "CLI for the tenant lifecycle manager",
	Long: `tlmctl talks to a running tlmd server over its HTTP API to manage
tenants and the modules enabled for them: creating tenants, simulating and
submitting install/upgrade/disable plans, and checking job status.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "tlmd server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "", "cluster namespace to act in (tenancy mode=namespace deployments)")

	rootCmd.AddCommand(tenantCmd)
	rootCmd.AddCommand(moduleCmd)
}
