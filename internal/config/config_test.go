package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quantumlife/dayplan/internal/core"
	"github.com/quantumlife/dayplan/internal/planner"
)

// =============================================================================
// Default Config Tests
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if filepath.Base(cfg.DataDir) != ".dayplan" {
		t.Errorf("DataDir should end with .dayplan, got %q", cfg.DataDir)
	}

	// Verify Server defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "localhost")
	}

	// Planner defaults are the engine's production constants
	if cfg.Planner.BufferMinutes != 10 || cfg.Planner.GoalBaseOffset != 1000 {
		t.Errorf("Planner = %+v, want default policy", cfg.Planner)
	}

	// Verify Jobs defaults
	if day, err := cfg.Jobs.ResetWeekday(); err != nil || day != time.Monday {
		t.Errorf("ResetWeekday() = %v, %v, want Monday", day, err)
	}
	if cfg.Jobs.WeeklyResetAt != "00:00" {
		t.Errorf("Jobs.WeeklyResetAt = %q, want 00:00", cfg.Jobs.WeeklyResetAt)
	}

	// Verify Feature defaults
	if !cfg.Features.EnableMetrics {
		t.Error("Features.EnableMetrics should be true by default")
	}
	if cfg.Features.DebugMode {
		t.Error("Features.DebugMode should be false by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestConfig_Paths(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/lib/dayplan"

	if got := cfg.DatabasePath(); got != "/var/lib/dayplan/dayplan.db" {
		t.Errorf("DatabasePath() = %q", got)
	}
	if got := cfg.Addr(); got != "localhost:8080" {
		t.Errorf("Addr() = %q, want localhost:8080", got)
	}
}

// =============================================================================
// Load Config Tests
// =============================================================================

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load("/non/existent/path/config.json")

	if err != nil {
		t.Fatalf("Load() error = %v, want nil for non-existent file", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
	}
}

func TestLoad_EmptyPathUsesDataDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvDataDir, tmpDir)

	os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(`{"server":{"port":7070}}`), 0600)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070 from %s/config.json", cfg.Server.Port, tmpDir)
	}
	if cfg.DataDir != tmpDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, tmpDir)
	}
}

func TestLoad_PartialConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	partial := `{
		"planner": {"buffer_minutes": 5, "wake_hour": 7},
		"jobs": {"weekly_reset_day": "sun"}
	}`
	os.WriteFile(configPath, []byte(partial), 0600)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Planner.BufferMinutes != 5 || cfg.Planner.WakeHour != 7 {
		t.Errorf("Planner overrides not applied: %+v", cfg.Planner)
	}
	// Untouched fields keep their defaults
	if cfg.Planner.DayEndHour != 22 || len(cfg.Planner.UrgencySteps) != 4 {
		t.Errorf("Planner defaults lost: %+v", cfg.Planner)
	}
	if day, _ := cfg.Jobs.ResetWeekday(); day != time.Sunday {
		t.Errorf("ResetWeekday() = %v, want Sunday", day)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoad_EnvPort(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(configPath, []byte(`{"server":{"port":9090}}`), 0600)

	t.Run("override", func(t *testing.T) {
		t.Setenv(EnvPort, "9191")
		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != 9191 {
			t.Errorf("Server.Port = %d, want 9191 from env", cfg.Server.Port)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv(EnvPort, "eighty")
		if _, err := Load(configPath); !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("Load() error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestLoad_InvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(configPath, []byte(`{invalid json}`), 0600)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() should return error for invalid JSON")
	}
}

func TestLoad_ReadPermissionError(t *testing.T) {
	if os.Getenv("OS") == "Windows_NT" {
		t.Skip("Skipping permission test on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root can read any file")
	}

	configPath := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(configPath, []byte(`{"server":{"port":8080}}`), 0644)

	os.Chmod(configPath, 0000)
	defer os.Chmod(configPath, 0644) // Restore for cleanup

	if _, err := Load(configPath); err == nil {
		t.Error("Load() should return error for unreadable file")
	}
}

// =============================================================================
// Validate Tests
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, core.ErrInvalidInput},
		{"bad policy", func(c *Config) { c.Planner.GoalBaseOffset = 10 }, core.ErrInvalidPolicy},
		{"bad reset day", func(c *Config) { c.Jobs.WeeklyResetDay = "someday" }, core.ErrInvalidInput},
		{"bad reset time", func(c *Config) { c.Jobs.WeeklyResetAt = "25:00" }, core.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestJobsConfig_ResetWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
	}{
		{"monday", time.Monday},
		{"Mon", time.Monday},
		{" SATURDAY ", time.Saturday},
		{"sun", time.Sunday},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := JobsConfig{WeeklyResetDay: tt.in}.ResetWeekday()
			if err != nil || got != tt.want {
				t.Errorf("ResetWeekday(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

// =============================================================================
// Save Config Tests
// =============================================================================

func TestSave_CreatesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.json")

	cfg := Default()
	cfg.DataDir = tmpDir
	cfg.Server.Port = 9999

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("failed to unmarshal saved config: %v", err)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("saved Server.Port = %d, want 9999", loaded.Server.Port)
	}
	if !strings.Contains(string(data), "\n  \"server\"") {
		t.Error("saved config should be indented")
	}
}

func TestSave_EmptyPath(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Default()
	cfg.DataDir = tmpDir

	if err := cfg.Save(""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "config.json")); err != nil {
		t.Errorf("config.json not created in data dir: %v", err)
	}
}

func TestSave_FilePermissions(t *testing.T) {
	if os.Getenv("OS") == "Windows_NT" {
		t.Skip("Skipping permission test on Windows")
	}

	configPath := filepath.Join(t.TempDir(), "config.json")
	if err := Default().Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestLoadAndSave_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	original := Default()
	original.DataDir = tmpDir
	original.Server.Port = 5000
	original.Features.DebugMode = true
	original.Planner.Ideal = planner.Distribution{Goal: 50, Mind: 30, Body: 20}

	if err := original.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Server.Port != original.Server.Port {
		t.Errorf("loaded Server.Port = %d, want %d", loaded.Server.Port, original.Server.Port)
	}
	if loaded.Features.DebugMode != original.Features.DebugMode {
		t.Errorf("loaded Features.DebugMode = %v, want %v", loaded.Features.DebugMode, original.Features.DebugMode)
	}
	if loaded.Planner.Ideal != original.Planner.Ideal {
		t.Errorf("loaded Planner.Ideal = %+v, want %+v", loaded.Planner.Ideal, original.Planner.Ideal)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

// =============================================================================
// Benchmark Tests
// =============================================================================

func BenchmarkLoad_ExistingFile(b *testing.B) {
	configPath := filepath.Join(b.TempDir(), "config.json")

	cfg := Default()
	cfg.Save(configPath)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Load(configPath)
	}
}
