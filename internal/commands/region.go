package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carelink/clk/internal/config"
)

var regionCmd = &cobra.Command{
	Use:   "region",
	Short: "Region preference for patient forms",
	Long: `The remembered region preference.

Patient registration pre-fills its region field from this preference.
It is the only thing clk stores on this machine outside the config file.

Examples:
  clk region show
  clk region set "Greater Accra"
  clk region clear`,
}

var regionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the remembered region",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prefs, err := config.DefaultPrefStore()
		if err != nil {
			return fmt.Errorf("opening preference store: %w", err)
		}
		region, err := prefs.LastRegion()
		if err != nil {
			return fmt.Errorf("reading region preference: %w", err)
		}
		if region == "" {
			fmt.Println("No region preference set.")
			return nil
		}
		fmt.Println(region)
		return nil
	},
}

var regionSetCmd = &cobra.Command{
	Use:   "set <region>",
	Short: "Remember a region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !config.IsValidRegion(args[0]) {
			return fmt.Errorf("unknown region %q (regions: %s)", args[0], strings.Join(config.Regions, ", "))
		}
		prefs, err := config.DefaultPrefStore()
		if err != nil {
			return fmt.Errorf("opening preference store: %w", err)
		}
		if err := prefs.SetLastRegion(args[0]); err != nil {
			return fmt.Errorf("saving region preference: %w", err)
		}
		fmt.Printf("Region preference set to %s.\n", config.CanonicalRegion(args[0]))
		return nil
	},
}

var regionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the remembered region",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prefs, err := config.DefaultPrefStore()
		if err != nil {
			return fmt.Errorf("opening preference store: %w", err)
		}
		if err := prefs.Clear(config.RegionKey); err != nil {
			return fmt.Errorf("clearing region preference: %w", err)
		}
		fmt.Println("Region preference cleared.")
		return nil
	},
}

func init() {
	regionCmd.AddCommand(regionShowCmd)
	regionCmd.AddCommand(regionSetCmd)
	regionCmd.AddCommand(regionClearCmd)
}
