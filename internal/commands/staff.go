package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carelink/clk/internal/api"
	"github.com/carelink/clk/internal/config"
)

var (
	staffJSON       bool
	staffDepartment string
	staffRole       string

	staffName  string
	staffEmail string
	staffPhone string
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Staff management",
	Long: `Staff management: list, add, and deactivate staff accounts.

Examples:
  clk staff list --department d-rad
  clk staff add --name "Kofi Boateng" --role radiologist --department d-rad
  clk staff deactivate s-31`,
}

var staffListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staff members",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.ListStaff(ctx, &api.ListStaffRequest{
			DepartmentID: staffDepartment,
			Role:         staffRole,
		})
		if err != nil {
			return fmt.Errorf("listing staff: %w", err)
		}
		if staffJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		if len(resp.Staff) == 0 {
			fmt.Println("No staff found.")
			return nil
		}
		for _, s := range resp.Staff {
			line := fmt.Sprintf("%s  %s  %s", s.ID, s.Name, s.Role)
			if s.DepartmentID != "" {
				line += "  " + s.DepartmentID
			}
			if !s.Active {
				line += "  (inactive)"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var staffAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a staff account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if staffName == "" || staffRole == "" {
			return fmt.Errorf("--name and --role are required")
		}
		if !config.IsValidRole(staffRole) {
			return fmt.Errorf("unknown role %q", staffRole)
		}

		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.AddStaff(ctx, &api.AddStaffRequest{
			Name:         staffName,
			Role:         config.NormalizeRole(staffRole),
			DepartmentID: staffDepartment,
			Email:        staffEmail,
			Phone:        staffPhone,
		})
		if err != nil {
			return fmt.Errorf("adding staff: %w", err)
		}
		if staffJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("Added %s (%s, ID %s)\n", resp.Staff.Name, resp.Staff.Role, resp.Staff.ID)
		return nil
	},
}

var staffDeactivateCmd = &cobra.Command{
	Use:   "deactivate <staff-id>",
	Short: "Deactivate a staff account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.DeactivateStaff(ctx, args[0])
		if err != nil {
			return fmt.Errorf("deactivating staff: %w", err)
		}
		if staffJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("Deactivated %s.\n", resp.Staff.Name)
		return nil
	},
}

func init() {
	staffCmd.PersistentFlags().BoolVar(&staffJSON, "json", false, "Output as JSON")

	staffListCmd.Flags().StringVar(&staffDepartment, "department", "", "Filter by department ID")
	staffListCmd.Flags().StringVar(&staffRole, "role", "", "Filter by role")

	staffAddCmd.Flags().StringVar(&staffName, "name", "", "Full name (required)")
	staffAddCmd.Flags().StringVar(&staffRole, "role", "", "Role (required)")
	staffAddCmd.Flags().StringVar(&staffDepartment, "department", "", "Department ID")
	staffAddCmd.Flags().StringVar(&staffEmail, "email", "", "Email address")
	staffAddCmd.Flags().StringVar(&staffPhone, "phone", "", "Phone number")

	staffCmd.AddCommand(staffListCmd)
	staffCmd.AddCommand(staffAddCmd)
	staffCmd.AddCommand(staffDeactivateCmd)
}
