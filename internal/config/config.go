// Package config handles .carelink configuration file parsing.
//
// The .carelink file binds a workstation to a CareLink deployment and a
// signed-in staff session:
//
//	base_url: "https://emr.example.org"     - CareLink API base URL
//	token: "eyJ..."                         - Session bearer token
//	facility_id: "GH-GA-0412"               - Facility the session belongs to
//	region: "Greater Accra"                 - Facility region
//	user_id: "u-88123"                      - Staff user identifier
//	user_name: "Akosua Mensah"              - Staff display name
//	role: "pharmacist"                      - Staff role
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file.
const FileName = ".carelink"

// customPath holds an optional custom config file path.
// When empty, Load() uses the default lookup order.
var customPath string

// SetPath sets a custom config file path for Load() to use.
// Pass an empty string to reset to the default path.
func SetPath(path string) {
	customPath = path
}

// GetPath returns the current config file path.
// Returns the custom path if set, otherwise the default FileName.
func GetPath() string {
	if customPath != "" {
		return customPath
	}
	return FileName
}

// FindPath resolves the config file path using the same logic as Load(),
// without reading or parsing the file contents.
func FindPath() (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	return findDefaultConfigPath()
}

// Validation patterns
var (
	urlPattern   = regexp.MustCompile(`^https?://[^\s]+$`)
	wsURLPattern = regexp.MustCompile(`^wss?://[^\s]+$`)
	// facilityIDPattern matches CareLink facility codes like "GH-GA-0412".
	facilityIDPattern = regexp.MustCompile(`^[A-Z]{2}-[A-Z]{2,3}-[0-9]{3,6}$`)
	userIDPattern     = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)
	userNamePattern   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9 .'\-]{0,63}$`)
	roleWordPattern   = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
	roleMaxLength     = 50
	roleMaxWords      = 2
)

// Regions lists the administrative regions a facility can belong to.
var Regions = []string{
	"Greater Accra", "Ashanti", "Western", "Western North", "Central",
	"Eastern", "Volta", "Oti", "Northern", "Savannah", "North East",
	"Upper East", "Upper West", "Bono", "Bono East", "Ahafo",
}

// Config represents the .carelink configuration file.
type Config struct {
	BaseURL    string `yaml:"base_url"`
	WSBaseURL  string `yaml:"ws_base_url,omitempty"`
	Token      string `yaml:"token"`
	FacilityID string `yaml:"facility_id"`
	Region     string `yaml:"region,omitempty"`
	UserID     string `yaml:"user_id"`
	UserName   string `yaml:"user_name"`
	Role       string `yaml:"role,omitempty"`
}

// Load reads and parses the .carelink configuration file.
// Uses the custom path if set via SetPath(), otherwise searches the
// current directory and then the user's home directory.
func Load() (*Config, error) {
	if customPath != "" {
		return LoadFrom(customPath)
	}

	path, err := findDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads and parses a .carelink configuration file from a specific path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err // Return unwrapped for os.IsNotExist() checks
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides lets environment variables win over file values so a
// session token can be rotated without rewriting the file.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("CARELINK_URL")); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CARELINK_WS_URL")); v != "" {
		cfg.WSBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CARELINK_TOKEN")); v != "" {
		cfg.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("CARELINK_FACILITY")); v != "" {
		cfg.FacilityID = v
	}
	if v := strings.TrimSpace(os.Getenv("CARELINK_REGION")); v != "" {
		cfg.Region = v
	}
}

func findDefaultConfigPath() (string, error) {
	cwd, err := os.Getwd()
	if err == nil {
		candidate := filepath.Join(cwd, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	home, homeErr := os.UserHomeDir()
	if homeErr == nil {
		candidate := filepath.Join(home, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	// Return an IsNotExist error with a helpful path so callers can still
	// rely on os.IsNotExist(err).
	candidate := FileName
	if home != "" {
		candidate = filepath.Join(home, FileName)
	}
	return candidate, &os.PathError{Op: "open", Path: candidate, Err: os.ErrNotExist}
}

// Save writes the configuration to the config file.
// Uses the custom path if set via SetPath(), otherwise writes the default
// FileName in the current directory.
func (c *Config) Save() error {
	path := GetPath()

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// The token makes this file secret material.
	header := "# Generated by: clk init\n# Contains a session token - do not share or commit\n\n"
	content := header + string(data)

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if !urlPattern.MatchString(c.BaseURL) {
		return fmt.Errorf("base_url must be a valid HTTP(S) URL")
	}
	if c.WSBaseURL != "" && !wsURLPattern.MatchString(c.WSBaseURL) {
		return fmt.Errorf("ws_base_url must be a valid WS(S) URL")
	}
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("token is required (run `clk init`)")
	}
	if c.FacilityID == "" {
		return fmt.Errorf("facility_id is required")
	}
	if !facilityIDPattern.MatchString(c.FacilityID) {
		return fmt.Errorf("facility_id must look like GH-GA-0412 (country-region-number)")
	}
	if c.Region != "" && !IsValidRegion(c.Region) {
		return fmt.Errorf("region %q is not a known region", c.Region)
	}
	if c.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if !userIDPattern.MatchString(c.UserID) {
		return fmt.Errorf("user_id must start with an alphanumeric and contain only alphanumerics, dashes, or underscores (max 64 chars)")
	}
	if c.UserName == "" {
		return fmt.Errorf("user_name is required")
	}
	if !userNamePattern.MatchString(c.UserName) {
		return fmt.Errorf("user_name must start with a letter and contain only letters, digits, spaces, dots, hyphens, or apostrophes (max 64 chars)")
	}
	if c.Role != "" && !IsValidRole(c.Role) {
		return fmt.Errorf("role must be 1-2 words (letters/numbers) with hyphens/underscores allowed; max 50 chars")
	}

	return nil
}

// WebSocketURL returns the websocket endpoint for the chat gateway.
// When ws_base_url is unset it is derived from base_url (http -> ws,
// https -> wss), matching how the gateway is deployed alongside the API.
func (c *Config) WebSocketURL() string {
	base := c.WSBaseURL
	if base == "" {
		base = c.BaseURL
		base = strings.Replace(base, "https://", "wss://", 1)
		base = strings.Replace(base, "http://", "ws://", 1)
	}
	return strings.TrimRight(base, "/") + "/ws/chat/" + c.Token
}

// IsValidRegion reports whether region is one of the known regions.
// Matching is case-insensitive; stored values keep canonical casing.
func IsValidRegion(region string) bool {
	return CanonicalRegion(region) != ""
}

// CanonicalRegion returns the canonical casing for a region name, or ""
// when the region is unknown.
func CanonicalRegion(region string) string {
	needle := strings.ToLower(strings.TrimSpace(region))
	for _, r := range Regions {
		if strings.ToLower(r) == needle {
			return r
		}
	}
	return ""
}

// NormalizeRole trims, collapses spaces, and lowercases a role string.
func NormalizeRole(role string) string {
	fields := strings.Fields(strings.TrimSpace(role))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Join(fields, " "))
}

// IsValidRole checks if the role is 1-2 words and uses valid characters.
func IsValidRole(role string) bool {
	normalized := NormalizeRole(role)
	if normalized == "" || len(normalized) > roleMaxLength {
		return false
	}
	words := strings.Split(normalized, " ")
	if len(words) > roleMaxWords {
		return false
	}
	for _, word := range words {
		if !roleWordPattern.MatchString(word) {
			return false
		}
	}
	return true
}
