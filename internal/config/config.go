package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
	Scheduler   SchedulerConfig   `toml:"scheduler"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Ledger      LedgerConfig      `toml:"ledger"`
	Leaderboard LeaderboardConfig `toml:"leaderboard"`
	Emissions   EmissionsConfig   `toml:"emissions"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type SchedulerConfig struct {
	AssignDay     int    `toml:"assign_day"`
	PointsDay     int    `toml:"points_day"`
	Timezone      string `toml:"timezone"`
	PointsOnStart bool   `toml:"points_on_start"`
}

type CatalogConfig struct {
	PerWorkerType  string `toml:"per_worker_type"`
	PerWorkerScope string `toml:"per_worker_scope"`
	SeedFile       string `toml:"seed_file"`
}

// LedgerConfig maps emission categories onto the yearly breakdown buckets.
type LedgerConfig struct {
	Categories map[string]string `toml:"categories"`
}

type LeaderboardConfig struct {
	TotalWeight float64 `toml:"total_weight"`
	OrgWeight   float64 `toml:"org_weight"`
}

type EmissionsConfig struct {
	MaxAgeDays int `toml:"max_age_days"`
}

func DefaultConfig() *Config {
	dir, _ := CarbontrackDir()
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dir, "db", "carbontrack.sqlite"),
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "errors.log"),
		},
		Scheduler: SchedulerConfig{
			AssignDay: 10,
			PointsDay: 27,
			Timezone:  "Local",
		},
		Catalog: CatalogConfig{
			PerWorkerType:  "EMPLOYEE_INPUT",
			PerWorkerScope: "ORG",
		},
		Ledger: LedgerConfig{
			Categories: map[string]string{
				"electricity": "electricity",
				"naturalGas":  "naturalGas",
				"vehicles":    "vehicles",
				"waste":       "waste",
			},
		},
		Leaderboard: LeaderboardConfig{
			TotalWeight: 0.75,
			OrgWeight:   0.25,
		},
		Emissions: EmissionsConfig{
			MaxAgeDays: 365,
		},
	}
}

func CarbontrackDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".carbontrack"), nil
}

func ConfigPath() (string, error) {
	dir, err := CarbontrackDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads ~/.carbontrack/config.toml, writing the defaults on first use.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

func LoadFrom(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return nil, err
		}
		if err := Save(configPath, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", configPath, err)
	}

	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Catalog.SeedFile = expandPath(cfg.Catalog.SeedFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(configPath string, cfg *Config) error {
	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// EnsureDirectories creates the parent directories of the database and log files.
func (c *Config) EnsureDirectories() error {
	for _, p := range []string{c.Database.Path, c.Log.File} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
	}
	return nil
}

var validBuckets = map[string]bool{
	"electricity": true,
	"naturalGas":  true,
	"vehicles":    true,
	"waste":       true,
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must be set")
	}
	for name, day := range map[string]int{"assign_day": c.Scheduler.AssignDay, "points_day": c.Scheduler.PointsDay} {
		if day < 1 || day > 28 {
			return fmt.Errorf("scheduler.%s must be between 1 and 28, got %d", name, day)
		}
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	if c.Catalog.PerWorkerScope != "ORG" && c.Catalog.PerWorkerScope != "WORKER" {
		return fmt.Errorf("catalog.per_worker_scope must be ORG or WORKER, got %q", c.Catalog.PerWorkerScope)
	}
	for category, bucket := range c.Ledger.Categories {
		if !validBuckets[bucket] {
			return fmt.Errorf("ledger.categories[%q]: unknown bucket %q", category, bucket)
		}
	}
	if c.Leaderboard.TotalWeight < 0 || c.Leaderboard.OrgWeight < 0 {
		return fmt.Errorf("leaderboard weights must not be negative")
	}
	if c.Leaderboard.TotalWeight == 0 && c.Leaderboard.OrgWeight == 0 {
		return fmt.Errorf("leaderboard weights must not both be zero")
	}
	if c.Emissions.MaxAgeDays < 1 {
		return fmt.Errorf("emissions.max_age_days must be positive, got %d", c.Emissions.MaxAgeDays)
	}
	return nil
}

// Location resolves the scheduler timezone used for calendar-month boundaries.
func (c *Config) Location() (*time.Location, error) {
	if c.Scheduler.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Scheduler.Timezone)
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
