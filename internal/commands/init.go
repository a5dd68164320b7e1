package commands

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/carelink/clk/internal/config"
)

// CLI flags for init command
var (
	initURL      string
	initWSURL    string
	initToken    string
	initFacility string
	initRegion   string
	initUserID   string
	initUserName string
	initRole     string
	initForce    bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .carelink configuration file",
	Long: `Create a .carelink configuration file in the current directory.

Configuration sources (in priority order):
1. Command line flags (--url, --token, --facility, ...)
2. Environment variables (CARELINK_URL, CARELINK_TOKEN, CARELINK_FACILITY, ...)
3. .env file in current directory
4. Interactive prompts (TTY mode only)

The session token comes from the CareLink sign-in flow; clk does not
authenticate on its own. Facility IDs look like GH-GA-0412.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func init() {
	initCmd.Flags().StringVar(&initURL, "url", "", "CareLink API base URL")
	initCmd.Flags().StringVar(&initWSURL, "ws-url", "", "WebSocket base URL (default: derived from --url)")
	initCmd.Flags().StringVar(&initToken, "token", "", "Session token")
	initCmd.Flags().StringVar(&initFacility, "facility", "", "Facility ID (e.g., GH-GA-0412)")
	initCmd.Flags().StringVar(&initRegion, "region", "", "Region name (e.g., \"Greater Accra\")")
	initCmd.Flags().StringVar(&initUserID, "user-id", "", "Signed-in user ID")
	initCmd.Flags().StringVar(&initUserName, "name", "", "Signed-in user display name")
	initCmd.Flags().StringVar(&initRole, "role", "", "Role (doctor, nurse, pharmacist, radiologist, admin, finance)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing .carelink file")
}

// isTTY returns true if stdin is a terminal.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func runInit() error {
	loadDotenvBestEffort()

	// Guard the path Save() will write, which is the custom path when
	// --config is set and ./FileName otherwise.
	target := config.GetPath()
	if _, err := os.Stat(target); err == nil && !initForce {
		cfg, loadErr := config.LoadFrom(target)
		if loadErr != nil {
			return fmt.Errorf("%s exists but cannot be read: %w (use --force to overwrite)", target, loadErr)
		}
		abs, _ := filepath.Abs(target)
		fmt.Printf("CareLink workspace already initialized at %s\n", abs)
		fmt.Printf("  base_url:    %s\n", cfg.BaseURL)
		fmt.Printf("  facility_id: %s\n", cfg.FacilityID)
		fmt.Printf("  user:        %s (%s)\n", cfg.UserName, cfg.UserID)
		if cfg.Region != "" {
			fmt.Printf("  region:      %s\n", cfg.Region)
		}
		fmt.Println()
		fmt.Println("Use --force to overwrite.")
		return nil
	}

	cfg := &config.Config{
		BaseURL:    firstNonEmpty(initURL, os.Getenv("CARELINK_URL")),
		WSBaseURL:  firstNonEmpty(initWSURL, os.Getenv("CARELINK_WS_URL")),
		Token:      firstNonEmpty(initToken, os.Getenv("CARELINK_TOKEN")),
		FacilityID: firstNonEmpty(initFacility, os.Getenv("CARELINK_FACILITY")),
		Region:     firstNonEmpty(initRegion, os.Getenv("CARELINK_REGION")),
		UserID:     firstNonEmpty(initUserID, os.Getenv("CARELINK_USER_ID")),
		UserName:   firstNonEmpty(initUserName, os.Getenv("CARELINK_USER_NAME")),
		Role:       config.NormalizeRole(firstNonEmpty(initRole, os.Getenv("CARELINK_ROLE"))),
	}

	if isTTY() {
		reader := bufio.NewReader(os.Stdin)
		cfg.BaseURL = promptIfEmpty(reader, cfg.BaseURL, "CareLink API URL", "https://emr.carelink.health")
		cfg.Token = promptIfEmpty(reader, cfg.Token, "Session token", "")
		cfg.FacilityID = promptIfEmpty(reader, cfg.FacilityID, "Facility ID (e.g., GH-GA-0412)", "")
		cfg.UserID = promptIfEmpty(reader, cfg.UserID, "User ID", "")
		cfg.UserName = promptIfEmpty(reader, cfg.UserName, "Display name", "")
		cfg.Region = promptIfEmpty(reader, cfg.Region, "Region (optional)", "")
	}

	if cfg.Region != "" {
		cfg.Region = config.CanonicalRegion(cfg.Region)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration incomplete: %w", err)
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}

	fmt.Printf("Created %s\n", target)
	fmt.Printf("  base_url:    %s\n", cfg.BaseURL)
	fmt.Printf("  facility_id: %s\n", cfg.FacilityID)
	fmt.Printf("  user:        %s (%s)\n", cfg.UserName, cfg.UserID)
	if cfg.Region != "" {
		fmt.Printf("  region:      %s\n", cfg.Region)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func promptIfEmpty(reader *bufio.Reader, current, label, defaultValue string) string {
	if current != "" {
		return current
	}
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return defaultValue
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultValue
	}
	return line
}
