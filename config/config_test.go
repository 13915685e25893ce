package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/loader"
	"github.com/Zachkp/portfolio/reveal"
)

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, reveal.Center, cfg.RevealOrder())
	assert.Equal(t, 70*time.Millisecond, cfg.RevealSpeed())

	lc := cfg.LoaderConfig()
	assert.Equal(t, 2500*time.Millisecond, lc.Duration)
	assert.Equal(t, 500*time.Millisecond, lc.Settle)
	assert.Len(t, lc.Stages, 4)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.toml")
	data := `
[server]
port = "9000"
mode = "release"

[reveal]
speed_ms = 100
order = "rtl"

[loader]
duration_ms = 1000

[[loader.stages]]
at = 0
name = "Start"

[[loader.stages]]
at = 100
name = "Done"

[logging]
level = "debug"
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, reveal.RightToLeft, cfg.RevealOrder())
	assert.Equal(t, []loader.Stage{{At: 0, Name: "Start"}, {At: 100, Name: "Done"}}, cfg.Loader.Stages)
	assert.Equal(t, 500, cfg.Loader.SettleMs, "unset keys keep defaults")

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadFileRejectsBadStage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.toml")
	data := `
[[loader.stages]]
at = 150
name = "Overflow"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, loader.ErrInvalidConfig)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("REVEAL_SPEED_MS", "40")
	t.Setenv("LOADER_DURATION_MS", "1200")
	t.Setenv("CONTENT_FILE", "/tmp/catalog.yaml")
	t.Setenv("CONTENT_WATCH", "true")
	t.Setenv("ADMIN_TOKEN", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 40, cfg.Reveal.SpeedMs)
	assert.Equal(t, 1200, cfg.Loader.DurationMs)
	assert.Equal(t, "/tmp/catalog.yaml", cfg.Content.Path)
	assert.True(t, cfg.Content.Watch)
	assert.Equal(t, "secret", cfg.Admin.Token)
}

func TestEnvOverrideNotANumber(t *testing.T) {
	t.Setenv("LOADER_SETTLE_MS", "soon")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero speed", func(c *Config) { c.Reveal.SpeedMs = 0 }},
		{"bad order", func(c *Config) { c.Reveal.Order = "spiral" }},
		{"zero duration", func(c *Config) { c.Loader.DurationMs = 0 }},
		{"bad mode", func(c *Config) { c.Server.Mode = "staging" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"watch without path", func(c *Config) { c.Content.Watch = true }},
		{"stage out of range", func(c *Config) { c.Loader.Stages = []loader.Stage{{At: 150, Name: "Done"}} }},
		{"stages out of order", func(c *Config) {
			c.Loader.Stages = []loader.Stage{{At: 70, Name: "b"}, {At: 35, Name: "a"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
