package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carelink/clk/internal/api"
)

var (
	irJSON   bool
	irStatus string

	irPatientID     string
	irProcedureType string
	irScheduledAt   string

	irConsent bool
	irLabs    bool
	irNPO     bool
)

var irCmd = &cobra.Command{
	Use:   "ir",
	Short: "Interventional radiology",
	Long: `Interventional radiology: procedures and the pre-procedure checklist.

The checklist flags (--consent, --labs, --npo) only change what you pass;
flags you do not set are left as they are on the server.

Examples:
  clk ir procedures --status scheduled
  clk ir schedule --patient p-1042 --type angioplasty --at 2026-03-09T08:00:00Z
  clk ir checklist ir-12 --consent --labs`,
}

var irProceduresCmd = &cobra.Command{
	Use:   "procedures",
	Short: "List procedures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.ListIRProcedures(ctx, irStatus)
		if err != nil {
			return fmt.Errorf("listing procedures: %w", err)
		}
		if irJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		if len(resp.Procedures) == 0 {
			fmt.Println("No procedures.")
			return nil
		}
		for _, p := range resp.Procedures {
			line := fmt.Sprintf("%s  %s  %s", p.ID, p.ProcedureType, p.Status)
			if p.PatientName != "" {
				line += "  " + p.PatientName
			} else {
				line += "  " + p.PatientID
			}
			if p.ScheduledAt != "" {
				line += "  " + p.ScheduledAt
			}
			line += "  " + checklistSummary(p)
			fmt.Println(line)
		}
		return nil
	},
}

var irScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Book a procedure",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if irPatientID == "" || irProcedureType == "" {
			return fmt.Errorf("--patient and --type are required")
		}

		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.ScheduleIRProcedure(ctx, &api.ScheduleIRProcedureRequest{
			PatientID:     irPatientID,
			ProcedureType: irProcedureType,
			ScheduledAt:   irScheduledAt,
		})
		if err != nil {
			return fmt.Errorf("scheduling procedure: %w", err)
		}
		if irJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("Scheduled %s for %s (ID %s)\n",
			resp.Procedure.ProcedureType, resp.Procedure.PatientID, resp.Procedure.ID)
		return nil
	},
}

var irChecklistCmd = &cobra.Command{
	Use:   "checklist <procedure-id>",
	Short: "Update the pre-procedure checklist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &api.UpdateIRChecklistRequest{}
		if cmd.Flags().Changed("consent") {
			req.ConsentSigned = &irConsent
		}
		if cmd.Flags().Changed("labs") {
			req.LabsReviewed = &irLabs
		}
		if cmd.Flags().Changed("npo") {
			req.NPOConfirmed = &irNPO
		}
		if req.ConsentSigned == nil && req.LabsReviewed == nil && req.NPOConfirmed == nil {
			return fmt.Errorf("nothing to update (set --consent, --labs, or --npo)")
		}

		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.UpdateIRChecklist(ctx, args[0], req)
		if err != nil {
			return fmt.Errorf("updating checklist: %w", err)
		}
		if irJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("Checklist for %s: %s\n", resp.Procedure.ID, checklistSummary(resp.Procedure))
		return nil
	},
}

func init() {
	irCmd.PersistentFlags().BoolVar(&irJSON, "json", false, "Output as JSON")

	irProceduresCmd.Flags().StringVar(&irStatus, "status", "", "Filter by status (requested, scheduled, completed)")

	irScheduleCmd.Flags().StringVar(&irPatientID, "patient", "", "Patient ID (required)")
	irScheduleCmd.Flags().StringVar(&irProcedureType, "type", "", "Procedure type (required)")
	irScheduleCmd.Flags().StringVar(&irScheduledAt, "at", "", "Time, RFC 3339")

	irChecklistCmd.Flags().BoolVar(&irConsent, "consent", false, "Consent signed")
	irChecklistCmd.Flags().BoolVar(&irLabs, "labs", false, "Labs reviewed")
	irChecklistCmd.Flags().BoolVar(&irNPO, "npo", false, "NPO confirmed")

	irCmd.AddCommand(irProceduresCmd)
	irCmd.AddCommand(irScheduleCmd)
	irCmd.AddCommand(irChecklistCmd)
}

func checklistSummary(p api.IRProcedure) string {
	mark := func(label string, done bool) string {
		if done {
			return label + ":yes"
		}
		return label + ":no"
	}
	return fmt.Sprintf("%s %s %s",
		mark("consent", p.ConsentSigned),
		mark("labs", p.LabsReviewed),
		mark("npo", p.NPOConfirmed))
}
