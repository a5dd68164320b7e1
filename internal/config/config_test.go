package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		BaseURL:    "https://emr.korlebu.example.org",
		Token:      "tok-abc123",
		FacilityID: "GH-GA-0412",
		Region:     "Greater Accra",
		UserID:     "u-88123",
		UserName:   "Akosua Mensah",
		Role:       "pharmacist",
	}
}

func TestLoadAndSave(t *testing.T) {
	tmpDir := t.TempDir()
	SetPath(filepath.Join(tmpDir, FileName))
	defer SetPath("")

	cfg := validConfig()
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, FileName)); os.IsNotExist(err) {
		t.Fatalf("Config file was not created")
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if loaded.BaseURL != cfg.BaseURL {
		t.Errorf("BaseURL = %q, want %q", loaded.BaseURL, cfg.BaseURL)
	}
	if loaded.Token != cfg.Token {
		t.Errorf("Token = %q, want %q", loaded.Token, cfg.Token)
	}
	if loaded.FacilityID != cfg.FacilityID {
		t.Errorf("FacilityID = %q, want %q", loaded.FacilityID, cfg.FacilityID)
	}
	if loaded.Region != cfg.Region {
		t.Errorf("Region = %q, want %q", loaded.Region, cfg.Region)
	}
	if loaded.UserID != cfg.UserID {
		t.Errorf("UserID = %q, want %q", loaded.UserID, cfg.UserID)
	}
	if loaded.UserName != cfg.UserName {
		t.Errorf("UserName = %q, want %q", loaded.UserName, cfg.UserName)
	}
	if loaded.Role != cfg.Role {
		t.Errorf("Role = %q, want %q", loaded.Role, cfg.Role)
	}
}

func TestSaveDefaultPathIsCurrentDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(tmpDir)

	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := validConfig().Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, FileName)); err != nil {
		t.Fatalf("Save() did not write %s to the working directory: %v", FileName, err)
	}
	if _, err := os.Stat(filepath.Join(home, FileName)); !os.IsNotExist(err) {
		t.Errorf("Save() wrote %s to the home directory", FileName)
	}
}

func TestLoadNotFound(t *testing.T) {
	SetPath(filepath.Join(t.TempDir(), FileName))
	defer SetPath("")

	_, err := Load()
	if err == nil {
		t.Error("Load() should return error when file doesn't exist")
	}
	if !os.IsNotExist(err) {
		t.Errorf("Load() error should be IsNotExist, got: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	SetPath(filepath.Join(tmpDir, FileName))
	defer SetPath("")

	if err := validConfig().Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	t.Setenv("CARELINK_URL", "https://staging.example.org")
	t.Setenv("CARELINK_TOKEN", "tok-rotated")

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.BaseURL != "https://staging.example.org" {
		t.Errorf("BaseURL = %q, want env override", loaded.BaseURL)
	}
	if loaded.Token != "tok-rotated" {
		t.Errorf("Token = %q, want env override", loaded.Token)
	}
	// Fields without overrides keep file values.
	if loaded.FacilityID != "GH-GA-0412" {
		t.Errorf("FacilityID = %q, want file value", loaded.FacilityID)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing base_url", func(c *Config) { c.BaseURL = "" }, "base_url"},
		{"bad base_url", func(c *Config) { c.BaseURL = "ftp://x" }, "base_url"},
		{"bad ws_base_url", func(c *Config) { c.WSBaseURL = "http://x" }, "ws_base_url"},
		{"missing token", func(c *Config) { c.Token = "  " }, "token"},
		{"missing facility", func(c *Config) { c.FacilityID = "" }, "facility_id"},
		{"bad facility", func(c *Config) { c.FacilityID = "accra-1" }, "facility_id"},
		{"unknown region", func(c *Config) { c.Region = "Atlantis" }, "region"},
		{"missing user_id", func(c *Config) { c.UserID = "" }, "user_id"},
		{"bad user_name", func(c *Config) { c.UserName = "9lives" }, "user_name"},
		{"bad role", func(c *Config) { c.Role = "one two three" }, "role"},
		{"empty role ok", func(c *Config) { c.Role = "" }, ""},
		{"empty region ok", func(c *Config) { c.Region = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestWebSocketURL(t *testing.T) {
	cfg := validConfig()
	cfg.BaseURL = "https://emr.example.org/"
	cfg.Token = "tok-1"

	got := cfg.WebSocketURL()
	want := "wss://emr.example.org/ws/chat/tok-1"
	if got != want {
		t.Errorf("WebSocketURL() = %q, want %q", got, want)
	}

	cfg.BaseURL = "http://localhost:8000"
	if got := cfg.WebSocketURL(); got != "ws://localhost:8000/ws/chat/tok-1" {
		t.Errorf("WebSocketURL() = %q for http base", got)
	}

	cfg.WSBaseURL = "wss://gateway.example.org"
	if got := cfg.WebSocketURL(); got != "wss://gateway.example.org/ws/chat/tok-1" {
		t.Errorf("WebSocketURL() = %q, want explicit ws_base_url to win", got)
	}
}

func TestCanonicalRegion(t *testing.T) {
	if got := CanonicalRegion("greater accra"); got != "Greater Accra" {
		t.Errorf("CanonicalRegion(lowercase) = %q", got)
	}
	if got := CanonicalRegion(" Ashanti "); got != "Ashanti" {
		t.Errorf("CanonicalRegion(padded) = %q", got)
	}
	if got := CanonicalRegion("Atlantis"); got != "" {
		t.Errorf("CanonicalRegion(unknown) = %q, want empty", got)
	}
}

func TestNormalizeRole(t *testing.T) {
	if got := NormalizeRole("  Chief   Pharmacist "); got != "chief pharmacist" {
		t.Errorf("NormalizeRole() = %q", got)
	}
	if got := NormalizeRole("   "); got != "" {
		t.Errorf("NormalizeRole(blank) = %q, want empty", got)
	}
}
