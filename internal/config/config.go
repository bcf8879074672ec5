// Package config handles dayplan configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/quantumlife/dayplan/internal/core"
	"github.com/quantumlife/dayplan/internal/planner"
)

// Environment overrides
const (
	EnvDataDir = "DAYPLAN_DATA_DIR"
	EnvPort    = "DAYPLAN_PORT"
)

// Config holds all configuration
type Config struct {
	// Paths
	DataDir string `json:"data_dir"`

	// Server
	Server ServerConfig `json:"server"`

	// Engine constants
	Planner planner.Policy `json:"planner"`

	// Background jobs
	Jobs JobsConfig `json:"jobs"`

	// Features
	Features FeatureConfig `json:"features"`
}

// ServerConfig for HTTP server
type ServerConfig struct {
	Port        int      `json:"port"`
	Host        string   `json:"host"`
	CORSOrigins []string `json:"cors_origins"`
}

// JobsConfig for the background scheduler
type JobsConfig struct {
	Timezone       string `json:"timezone"`
	WeeklyResetDay string `json:"weekly_reset_day"` // e.g. "monday"
	WeeklyResetAt  string `json:"weekly_reset_at"`  // "HH:MM"
}

// FeatureConfig for feature flags
type FeatureConfig struct {
	EnableMetrics    bool `json:"enable_metrics"`
	EnableWeeklyJobs bool `json:"enable_weekly_jobs"`
	DebugMode        bool `json:"debug_mode"`
}

// Default returns default configuration
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		DataDir: filepath.Join(home, ".dayplan"),
		Server: ServerConfig{
			Port:        8080,
			Host:        "localhost",
			CORSOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Planner: planner.DefaultPolicy(),
		Jobs: JobsConfig{
			Timezone:       "Local",
			WeeklyResetDay: "monday",
			WeeklyResetAt:  "00:00",
		},
		Features: FeatureConfig{
			EnableMetrics:    true,
			EnableWeeklyJobs: true,
			DebugMode:        false,
		},
	}
}

// Load loads config from file, falling back to defaults. Environment
// overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := Default()
	if dir := os.Getenv(EnvDataDir); dir != "" {
		cfg.DataDir = dir
	}

	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.json")
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		c.DataDir = dir
	}
	if port := os.Getenv(EnvPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("%w: %s=%q", core.ErrInvalidInput, EnvPort, port)
		}
		c.Server.Port = p
	}
	return nil
}

// Save saves config to file
func (c *Config) Save(path string) error {
	if path == "" {
		path = filepath.Join(c.DataDir, "config.json")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Validate checks the sections the daemon cannot start without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", core.ErrInvalidInput, c.Server.Port)
	}
	if err := c.Planner.Validate(); err != nil {
		return err
	}
	if _, err := c.Jobs.ResetWeekday(); err != nil {
		return err
	}
	if _, err := core.ParseClockTime(c.Jobs.WeeklyResetAt); err != nil {
		return fmt.Errorf("jobs.weekly_reset_at: %w", err)
	}
	return nil
}

// DatabasePath returns the SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "dayplan.db")
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ResetWeekday parses WeeklyResetDay.
func (j JobsConfig) ResetWeekday() (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(j.WeeklyResetDay))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: weekly_reset_day %q", core.ErrInvalidInput, j.WeeklyResetDay)
}
