// Package commands implements the clk CLI commands.
package commands

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/carelink/clk/internal/config"
	"github.com/carelink/clk/internal/logx"
)

var versionInfo struct {
	version string
	commit  string
	date    string
}

// SetVersionInfo sets version information from main (populated by goreleaser).
func SetVersionInfo(version, commit, date string) {
	versionInfo.version = version
	versionInfo.commit = commit
	versionInfo.date = date
}

var (
	globalConfig  string
	globalVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "clk",
	Short: "CareLink EMR terminal client",
	Long: `clk is a terminal client for the CareLink EMR API.

It covers day-to-day facility work: patients, appointments, staff,
departments, radiology and IR worklists, finance accounts, and the staff
chat (including a live watch view over the chat WebSocket).

Setup:
  clk init              - Create the .carelink configuration file

Environment variables (override the config file):
  CARELINK_URL          - API base URL
  CARELINK_WS_URL       - WebSocket base URL (default: derived from CARELINK_URL)
  CARELINK_TOKEN        - Session token
  CARELINK_FACILITY     - Facility ID (e.g., GH-GA-0412)
  CARELINK_REGION       - Region name (e.g., "Greater Accra")`,
	// Subcommand errors are reported once, by main.go.
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if globalConfig != "" {
			config.SetPath(globalConfig)
		}
		logx.Init(globalVerbose)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&globalConfig, "config", "", "Path to an alternate .carelink config file")
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "Verbose logging to stderr")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(patientsCmd)
	rootCmd.AddCommand(appointmentsCmd)
	rootCmd.AddCommand(staffCmd)
	rootCmd.AddCommand(departmentsCmd)
	rootCmd.AddCommand(radiologyCmd)
	rootCmd.AddCommand(irCmd)
	rootCmd.AddCommand(financeCmd)
	rootCmd.AddCommand(regionCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadDotenvBestEffort() {
	// Prefer the directory containing .carelink so subdir invocations work.
	if path, err := config.FindPath(); err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
		return
	}
	_ = godotenv.Load()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print clk version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("clk %s\n", versionInfo.version)
		if versionInfo.commit != "" && versionInfo.commit != "none" {
			cmd.Printf("  commit: %s\n", versionInfo.commit)
		}
		if versionInfo.date != "" && versionInfo.date != "unknown" {
			cmd.Printf("  built:  %s\n", versionInfo.date)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	loadDotenvBestEffort()
	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}
