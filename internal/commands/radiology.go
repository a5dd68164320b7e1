package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carelink/clk/internal/api"
)

var (
	radJSON     bool
	radStatus   string
	radModality string

	radPatientID  string
	radBodyPart   string
	radPriority   string
	radNotes      string
	radFindings   string
	radImpression string
)

var radiologyCmd = &cobra.Command{
	Use:     "radiology",
	Aliases: []string{"rad"},
	Short:   "Radiology worklist",
	Long: `Radiology worklist: imaging orders and reports.

Examples:
  clk radiology orders --status ordered --modality x-ray
  clk radiology order --patient p-1042 --modality ct --body-part chest --priority urgent
  clk radiology report r-88 --findings "..." --impression "..."`,
}

var radiologyOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List imaging orders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.ListRadiologyOrders(ctx, &api.ListRadiologyOrdersRequest{
			Status:   radStatus,
			Modality: radModality,
		})
		if err != nil {
			return fmt.Errorf("listing imaging orders: %w", err)
		}
		if radJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		if len(resp.Orders) == 0 {
			fmt.Println("No imaging orders.")
			return nil
		}
		for _, o := range resp.Orders {
			line := fmt.Sprintf("%s  %s", o.ID, o.Modality)
			if o.BodyPart != "" {
				line += " " + o.BodyPart
			}
			line += "  " + o.Status
			if o.Priority != "" && o.Priority != "routine" {
				line += "  [" + o.Priority + "]"
			}
			if o.PatientName != "" {
				line += "  " + o.PatientName
			} else {
				line += "  " + o.PatientID
			}
			if o.OrderedAt != "" {
				line += "  " + formatTimeAgo(o.OrderedAt)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var radiologyOrderCmd = &cobra.Command{
	Use:   "order",
	Short: "Create an imaging order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if radPatientID == "" || radModality == "" {
			return fmt.Errorf("--patient and --modality are required")
		}

		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.CreateRadiologyOrder(ctx, &api.CreateRadiologyOrderRequest{
			PatientID: radPatientID,
			Modality:  radModality,
			BodyPart:  radBodyPart,
			Priority:  radPriority,
			Notes:     radNotes,
		})
		if err != nil {
			return fmt.Errorf("creating imaging order: %w", err)
		}
		if radJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("Ordered %s %s for %s (ID %s)\n",
			resp.Order.Modality, resp.Order.BodyPart, resp.Order.PatientID, resp.Order.ID)
		return nil
	},
}

var radiologyReportCmd = &cobra.Command{
	Use:   "report <order-id>",
	Short: "Attach a report to an imaging order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if radFindings == "" || radImpression == "" {
			return fmt.Errorf("--findings and --impression are required")
		}

		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.SubmitRadiologyReport(ctx, args[0], &api.SubmitRadiologyReportRequest{
			Findings:   radFindings,
			Impression: radImpression,
		})
		if err != nil {
			return fmt.Errorf("submitting report: %w", err)
		}
		if radJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("Report filed for %s (status %s).\n", resp.Order.ID, resp.Order.Status)
		return nil
	},
}

func init() {
	radiologyCmd.PersistentFlags().BoolVar(&radJSON, "json", false, "Output as JSON")

	radiologyOrdersCmd.Flags().StringVar(&radStatus, "status", "", "Filter by status (ordered, in_progress, reported)")
	radiologyOrdersCmd.Flags().StringVar(&radModality, "modality", "", "Filter by modality (x-ray, ct, mri, ultrasound)")

	radiologyOrderCmd.Flags().StringVar(&radPatientID, "patient", "", "Patient ID (required)")
	radiologyOrderCmd.Flags().StringVar(&radModality, "modality", "", "Modality (required)")
	radiologyOrderCmd.Flags().StringVar(&radBodyPart, "body-part", "", "Body part")
	radiologyOrderCmd.Flags().StringVar(&radPriority, "priority", "", "Priority (routine, urgent, stat)")
	radiologyOrderCmd.Flags().StringVar(&radNotes, "notes", "", "Clinical notes")

	radiologyReportCmd.Flags().StringVar(&radFindings, "findings", "", "Report findings (required)")
	radiologyReportCmd.Flags().StringVar(&radImpression, "impression", "", "Report impression (required)")

	radiologyCmd.AddCommand(radiologyOrdersCmd)
	radiologyCmd.AddCommand(radiologyOrderCmd)
	radiologyCmd.AddCommand(radiologyReportCmd)
}
