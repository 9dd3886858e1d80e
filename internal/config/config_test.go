package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Scheduler.AssignDay)
	assert.Equal(t, 27, cfg.Scheduler.PointsDay)
	assert.Equal(t, "EMPLOYEE_INPUT", cfg.Catalog.PerWorkerType)
	assert.InDelta(t, 0.75, cfg.Leaderboard.TotalWeight, 1e-9)

	_, err = os.Stat(path)
	require.NoError(t, err)

	again, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Scheduler, again.Scheduler)
	assert.Equal(t, cfg.Ledger.Categories, again.Ledger.Categories)
}

func TestLoadFromOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[database]
path = "/tmp/carbon.sqlite"

[scheduler]
assign_day = 3
points_day = 25
timezone = "UTC"

[ledger.categories]
elektrik = "electricity"
su = "waste"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/carbon.sqlite", cfg.Database.Path)
	assert.Equal(t, 3, cfg.Scheduler.AssignDay)
	assert.Equal(t, "waste", cfg.Ledger.Categories["su"])

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"assign day too large", func(c *Config) { c.Scheduler.AssignDay = 31 }},
		{"points day zero", func(c *Config) { c.Scheduler.PointsDay = 0 }},
		{"unknown timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }},
		{"bad per-worker scope", func(c *Config) { c.Catalog.PerWorkerScope = "TEAM" }},
		{"unknown bucket", func(c *Config) { c.Ledger.Categories["paper"] = "office" }},
		{"negative weight", func(c *Config) { c.Leaderboard.OrgWeight = -1 }},
		{"all weights zero", func(c *Config) { c.Leaderboard = LeaderboardConfig{} }},
		{"zero max age", func(c *Config) { c.Emissions.MaxAgeDays = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}
