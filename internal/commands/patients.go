package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carelink/clk/internal/api"
	"github.com/carelink/clk/internal/config"
	"github.com/carelink/clk/internal/logx"
)

var (
	patientsJSON     bool
	patientsSearch   string
	patientsPage     int
	patientsPageSize int

	patientFirstName string
	patientLastName  string
	patientDOB       string
	patientGender    string
	patientPhone     string
	patientRegion    string
	patientAddress   string
	patientNHIS      string
)

var patientsCmd = &cobra.Command{
	Use:   "patients",
	Short: "Patient registry",
	Long: `Patient registry: search, view, register, and update patients.

Examples:
  clk patients list --search mensah
  clk patients get p-1042
  clk patients register --first-name Ama --last-name Mensah --dob 1988-03-14
  clk patients update p-1042 --phone 0244123456`,
}

var patientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List or search patients",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.ListPatients(ctx, &api.ListPatientsRequest{
			Search:   patientsSearch,
			Page:     patientsPage,
			PageSize: patientsPageSize,
		})
		if err != nil {
			return fmt.Errorf("listing patients: %w", err)
		}
		if patientsJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		if len(resp.Patients) == 0 {
			fmt.Println("No patients found.")
			return nil
		}
		for _, p := range resp.Patients {
			line := fmt.Sprintf("%s  %s  %s, %s", p.ID, p.MRN, p.LastName, p.FirstName)
			if p.DateOfBirth != "" {
				line += "  b. " + p.DateOfBirth
			}
			if p.Region != "" {
				line += "  " + p.Region
			}
			fmt.Println(line)
		}
		if resp.Total > len(resp.Patients) {
			fmt.Printf("\nShowing %d of %d.\n", len(resp.Patients), resp.Total)
		}
		return nil
	},
}

var patientsGetCmd = &cobra.Command{
	Use:   "get <patient-id>",
	Short: "Show a patient's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.GetPatient(ctx, args[0])
		if err != nil {
			return fmt.Errorf("fetching patient: %w", err)
		}
		if resp == nil {
			return fmt.Errorf("no patient with ID %s", args[0])
		}
		if patientsJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		printPatient(resp.Patient)
		return nil
	},
}

var patientsRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new patient",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if patientFirstName == "" || patientLastName == "" || patientDOB == "" {
			return fmt.Errorf("--first-name, --last-name, and --dob are required")
		}
		if patientRegion != "" && !config.IsValidRegion(patientRegion) {
			return fmt.Errorf("unknown region %q (regions: %s)", patientRegion, strings.Join(config.Regions, ", "))
		}
		// No --region: fall back to the remembered preference.
		if patientRegion == "" {
			if prefs, err := config.DefaultPrefStore(); err == nil {
				if region, err := prefs.LastRegion(); err == nil {
					patientRegion = region
				}
			}
		}

		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.RegisterPatient(ctx, &api.RegisterPatientRequest{
			FirstName:   patientFirstName,
			LastName:    patientLastName,
			DateOfBirth: patientDOB,
			Gender:      patientGender,
			Phone:       patientPhone,
			Region:      config.CanonicalRegion(patientRegion),
			Address:     patientAddress,
			NHISNumber:  patientNHIS,
		})
		if err != nil {
			return fmt.Errorf("registering patient: %w", err)
		}
		// Remember the region for the next registration.
		if patientRegion != "" {
			if prefs, prefErr := config.DefaultPrefStore(); prefErr == nil {
				if saveErr := prefs.SetLastRegion(patientRegion); saveErr != nil {
					logx.Debug("region preference save failed", "error", saveErr.Error())
				}
			}
		}
		if patientsJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("Registered %s, %s (MRN %s, ID %s)\n",
			resp.Patient.LastName, resp.Patient.FirstName, resp.Patient.MRN, resp.Patient.ID)
		return nil
	},
}

var patientsUpdateCmd = &cobra.Command{
	Use:   "update <patient-id>",
	Short: "Update a patient's contact and insurance details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if patientPhone == "" && patientRegion == "" && patientAddress == "" && patientNHIS == "" {
			return fmt.Errorf("nothing to update (set --phone, --region, --address, or --nhis)")
		}
		if patientRegion != "" && !config.IsValidRegion(patientRegion) {
			return fmt.Errorf("unknown region %q (regions: %s)", patientRegion, strings.Join(config.Regions, ", "))
		}

		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.UpdatePatient(ctx, args[0], &api.UpdatePatientRequest{
			Phone:      patientPhone,
			Region:     config.CanonicalRegion(patientRegion),
			Address:    patientAddress,
			NHISNumber: patientNHIS,
		})
		if err != nil {
			return fmt.Errorf("updating patient: %w", err)
		}
		if patientsJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("Updated %s, %s (ID %s)\n", resp.Patient.LastName, resp.Patient.FirstName, resp.Patient.ID)
		return nil
	},
}

func init() {
	patientsCmd.PersistentFlags().BoolVar(&patientsJSON, "json", false, "Output as JSON")

	patientsListCmd.Flags().StringVar(&patientsSearch, "search", "", "Search by name, MRN, or phone")
	patientsListCmd.Flags().IntVar(&patientsPage, "page", 0, "Page number")
	patientsListCmd.Flags().IntVar(&patientsPageSize, "page-size", 0, "Results per page")

	for _, c := range []*cobra.Command{patientsRegisterCmd, patientsUpdateCmd} {
		c.Flags().StringVar(&patientPhone, "phone", "", "Phone number")
		c.Flags().StringVar(&patientRegion, "region", "", "Region of residence")
		c.Flags().StringVar(&patientAddress, "address", "", "Residential address")
		c.Flags().StringVar(&patientNHIS, "nhis", "", "NHIS number")
	}
	patientsRegisterCmd.Flags().StringVar(&patientFirstName, "first-name", "", "First name (required)")
	patientsRegisterCmd.Flags().StringVar(&patientLastName, "last-name", "", "Last name (required)")
	patientsRegisterCmd.Flags().StringVar(&patientDOB, "dob", "", "Date of birth, YYYY-MM-DD (required)")
	patientsRegisterCmd.Flags().StringVar(&patientGender, "gender", "", "Gender")

	patientsCmd.AddCommand(patientsListCmd)
	patientsCmd.AddCommand(patientsGetCmd)
	patientsCmd.AddCommand(patientsRegisterCmd)
	patientsCmd.AddCommand(patientsUpdateCmd)
}

func printPatient(p api.Patient) {
	fmt.Printf("%s, %s\n", p.LastName, p.FirstName)
	fmt.Printf("  id:     %s\n", p.ID)
	fmt.Printf("  mrn:    %s\n", p.MRN)
	fmt.Printf("  dob:    %s\n", p.DateOfBirth)
	if p.Gender != "" {
		fmt.Printf("  gender: %s\n", p.Gender)
	}
	if p.Phone != "" {
		fmt.Printf("  phone:  %s\n", p.Phone)
	}
	if p.Region != "" {
		fmt.Printf("  region: %s\n", p.Region)
	}
	if p.Address != "" {
		fmt.Printf("  address: %s\n", p.Address)
	}
	if p.NHISNumber != "" {
		fmt.Printf("  nhis:   %s\n", p.NHISNumber)
	}
}
