package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carelink/clk/internal/api"
)

var (
	apptJSON       bool
	apptDate       string
	apptDepartment string
	apptClinician  string
	apptStatus     string

	apptPatientID   string
	apptScheduledAt string
	apptReason      string
)

var appointmentsCmd = &cobra.Command{
	Use:     "appointments",
	Aliases: []string{"appts"},
	Short:   "Appointment scheduling",
	Long: `Appointment scheduling: list, book, cancel, and reschedule.

Examples:
  clk appointments list --date 2026-03-02 --department d-med
  clk appointments schedule --patient p-1042 --department d-med --at 2026-03-02T09:30:00Z
  clk appointments cancel a-77 --reason "patient request"
  clk appointments reschedule a-77 --at 2026-03-05T11:00:00Z`,
}

var appointmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List appointments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.ListAppointments(ctx, &api.ListAppointmentsRequest{
			Date:         apptDate,
			DepartmentID: apptDepartment,
			ClinicianID:  apptClinician,
			Status:       apptStatus,
		})
		if err != nil {
			return fmt.Errorf("listing appointments: %w", err)
		}
		if apptJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		if len(resp.Appointments) == 0 {
			fmt.Println("No appointments.")
			return nil
		}
		for _, a := range resp.Appointments {
			line := fmt.Sprintf("%s  %s  %s", a.ID, a.ScheduledAt, a.Status)
			if a.PatientName != "" {
				line += "  " + a.PatientName
			} else {
				line += "  " + a.PatientID
			}
			if a.ClinicianName != "" {
				line += "  with " + a.ClinicianName
			}
			fmt.Println(line)
		}
		return nil
	},
}

var appointmentsScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Book an appointment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if apptPatientID == "" || apptDepartment == "" || apptScheduledAt == "" {
			return fmt.Errorf("--patient, --department, and --at are required")
		}

		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.ScheduleAppointment(ctx, &api.ScheduleAppointmentRequest{
			PatientID:    apptPatientID,
			DepartmentID: apptDepartment,
			ClinicianID:  apptClinician,
			ScheduledAt:  apptScheduledAt,
			Reason:       apptReason,
		})
		if err != nil {
			return fmt.Errorf("scheduling appointment: %w", err)
		}
		if apptJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("Booked %s at %s.\n", resp.Appointment.ID, resp.Appointment.ScheduledAt)
		return nil
	},
}

var appointmentsCancelCmd = &cobra.Command{
	Use:   "cancel <appointment-id>",
	Short: "Cancel an appointment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.CancelAppointment(ctx, args[0], &api.CancelAppointmentRequest{Reason: apptReason})
		if err != nil {
			return fmt.Errorf("cancelling appointment: %w", err)
		}
		if apptJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("Cancelled %s.\n", resp.Appointment.ID)
		return nil
	},
}

var appointmentsRescheduleCmd = &cobra.Command{
	Use:   "reschedule <appointment-id>",
	Short: "Move an appointment to a new time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if apptScheduledAt == "" {
			return fmt.Errorf("--at is required")
		}

		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.RescheduleAppointment(ctx, args[0], &api.RescheduleAppointmentRequest{
			ScheduledAt: apptScheduledAt,
		})
		if err != nil {
			return fmt.Errorf("rescheduling appointment: %w", err)
		}
		if apptJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("Moved %s to %s.\n", resp.Appointment.ID, resp.Appointment.ScheduledAt)
		return nil
	},
}

func init() {
	appointmentsCmd.PersistentFlags().BoolVar(&apptJSON, "json", false, "Output as JSON")

	appointmentsListCmd.Flags().StringVar(&apptDate, "date", "", "Filter by date (YYYY-MM-DD)")
	appointmentsListCmd.Flags().StringVar(&apptDepartment, "department", "", "Filter by department ID")
	appointmentsListCmd.Flags().StringVar(&apptClinician, "clinician", "", "Filter by clinician ID")
	appointmentsListCmd.Flags().StringVar(&apptStatus, "status", "", "Filter by status (scheduled, completed, cancelled, no_show)")

	appointmentsScheduleCmd.Flags().StringVar(&apptPatientID, "patient", "", "Patient ID (required)")
	appointmentsScheduleCmd.Flags().StringVar(&apptDepartment, "department", "", "Department ID (required)")
	appointmentsScheduleCmd.Flags().StringVar(&apptClinician, "clinician", "", "Clinician ID")
	appointmentsScheduleCmd.Flags().StringVar(&apptScheduledAt, "at", "", "Time, RFC 3339 (required)")
	appointmentsScheduleCmd.Flags().StringVar(&apptReason, "reason", "", "Reason for visit")

	appointmentsCancelCmd.Flags().StringVar(&apptReason, "reason", "", "Cancellation reason")
	appointmentsRescheduleCmd.Flags().StringVar(&apptScheduledAt, "at", "", "New time, RFC 3339 (required)")

	appointmentsCmd.AddCommand(appointmentsListCmd)
	appointmentsCmd.AddCommand(appointmentsScheduleCmd)
	appointmentsCmd.AddCommand(appointmentsCancelCmd)
	appointmentsCmd.AddCommand(appointmentsRescheduleCmd)
}
