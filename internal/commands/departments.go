package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var departmentsJSON bool

var departmentsCmd = &cobra.Command{
	Use:   "departments",
	Short: "Departments and portal summaries",
	Long: `Departments and their portal summaries.

Examples:
  clk departments list
  clk departments portal d-rad`,
}

var departmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List departments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.ListDepartments(ctx)
		if err != nil {
			return fmt.Errorf("listing departments: %w", err)
		}
		if departmentsJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		if len(resp.Departments) == 0 {
			fmt.Println("No departments.")
			return nil
		}
		for _, d := range resp.Departments {
			if d.Code != "" {
				fmt.Printf("%s  %s (%s)\n", d.ID, d.Name, d.Code)
			} else {
				fmt.Printf("%s  %s\n", d.ID, d.Name)
			}
		}
		return nil
	},
}

var departmentsPortalCmd = &cobra.Command{
	Use:   "portal <department-id>",
	Short: "Show a department's at-a-glance numbers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.DepartmentPortal(ctx, args[0])
		if err != nil {
			return fmt.Errorf("fetching department portal: %w", err)
		}
		if departmentsJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("%s\n", resp.Department.Name)
		fmt.Printf("  patients:       %d\n", resp.PatientCount)
		fmt.Printf("  pending orders: %d\n", resp.PendingOrders)
		fmt.Printf("  staff on duty:  %d\n", resp.StaffOnDuty)
		fmt.Printf("  admitted today: %d\n", resp.AdmittedToday)
		return nil
	},
}

func init() {
	departmentsCmd.PersistentFlags().BoolVar(&departmentsJSON, "json", false, "Output as JSON")

	departmentsCmd.AddCommand(departmentsListCmd)
	departmentsCmd.AddCommand(departmentsPortalCmd)
}
