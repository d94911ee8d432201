package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

type tenantResponse struct {
	ID         string `json:"id"`
	Descriptor struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"descriptor"`
	Enabled map[string]string `json:"enabled"`
}

func init() {
	tenantCmd.AddCommand(tenantCreateCmd)
	tenantCmd.AddCommand(tenantDescriptorCmd)
}

var (
	tenantCreateName        string
	tenantCreateDescription string
)

var tenantCreateCmd = &cobra.Command{
	Use:   "create <tenant-id>",
	Short: "Create a new tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		req := map[string]string{
			"id":          args[0],
			"name":        tenantCreateName,
			"description": tenantCreateDescription,
		}

		var resp tenantResponse
		if err := client.postJSON("/api/tlm/v1/tenants/", req, &resp); err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(resp)
		}

		fmt.Printf("Created tenant %q\n", resp.ID)
		return nil
	},
}

// tenantDescriptorCmd fetches a tenant's descriptor and enabled-module set,
// the read counterpart of "tenant create".
var tenantDescriptorCmd = &cobra.Command{
	Use:   "descriptor <tenant-id>",
	Short: "Show a tenant's descriptor and enabled modules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var resp tenantResponse
		if err := client.getJSON("/api/tlm/v1/tenants/"+args[0], &resp); err != nil {
			return fmt.Errorf("failed to get tenant: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(resp)
		}

		fmt.Printf("ID:          %s\n", resp.ID)
		fmt.Printf("Name:        %s\n", resp.Descriptor.Name)
		fmt.Printf("Description: %s\n", resp.Descriptor.Description)

		headers := []string{"Module", "Enabled Since"}
		rows := make([][]string, 0, len(resp.Enabled))
		for mid, since := range resp.Enabled {
			rows = append(rows, []string{mid, since})
		}
		printTable(headers, rows)
		return nil
	},
}

func init() {
	tenantCreateCmd.Flags().StringVar(&tenantCreateName, "name", "", "display name for the tenant")
	tenantCreateCmd.Flags().StringVar(&tenantCreateDescription, "description", "", "free-form description")
}
