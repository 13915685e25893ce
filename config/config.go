// Package config loads server configuration: built-in defaults, then an
// optional TOML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Zachkp/portfolio/loader"
	"github.com/Zachkp/portfolio/reveal"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Reveal  RevealConfig  `toml:"reveal"`
	Loader  LoaderConfig  `toml:"loader"`
	Content ContentConfig `toml:"content"`
	Logging LoggingConfig `toml:"logging"`
	Admin   AdminConfig   `toml:"admin"`
}

type ServerConfig struct {
	Port string `toml:"port"`
	// Mode is a gin mode: "debug", "release" or "test".
	Mode      string `toml:"mode"`
	Templates string `toml:"templates"`
	StaticDir string `toml:"static_dir"`
	// ShutdownTimeoutMs bounds graceful shutdown.
	ShutdownTimeoutMs int `toml:"shutdown_timeout_ms"`
}

type RevealConfig struct {
	SpeedMs int    `toml:"speed_ms"`
	Order   string `toml:"order"`
	// Charset overrides the default filler glyphs when non-empty.
	Charset string `toml:"charset"`
	// MaxSpeedMs caps the per-request speed override.
	MaxSpeedMs int `toml:"max_speed_ms"`
}

type LoaderConfig struct {
	DurationMs int            `toml:"duration_ms"`
	IntervalMs int            `toml:"interval_ms"`
	SettleMs   int            `toml:"settle_ms"`
	Stages     []loader.Stage `toml:"stages"`
}

type ContentConfig struct {
	// Path of a catalog YAML file; empty means the embedded catalog.
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type AdminConfig struct {
	// Token guards /admin. Empty means a random token is generated at startup.
	Token string `toml:"token"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              "8080",
			Mode:              "debug",
			Templates:         "templates/*",
			StaticDir:         "./static",
			ShutdownTimeoutMs: 5000,
		},
		Reveal: RevealConfig{
			SpeedMs:    70,
			Order:      "center",
			MaxSpeedMs: 2000,
		},
		Loader: LoaderConfig{
			DurationMs: 2500,
			IntervalMs: 16,
			SettleMs:   500,
			Stages: []loader.Stage{
				{At: 0, Name: "Initializing Portfolio..."},
				{At: 35, Name: "Compiling projects..."},
				{At: 70, Name: "Decrypting profile..."},
				{At: 100, Name: "Ready"},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides copies recognised environment variables over cfg.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}
	if v := os.Getenv("CONTENT_FILE"); v != "" {
		c.Content.Path = v
	}
	if v := os.Getenv("REVEAL_ORDER"); v != "" {
		c.Reveal.Order = v
	}

	if v := os.Getenv("CONTENT_WATCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: CONTENT_WATCH: %v", ErrInvalid, err)
		}
		c.Content.Watch = b
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"REVEAL_SPEED_MS", &c.Reveal.SpeedMs},
		{"LOADER_DURATION_MS", &c.Loader.DurationMs},
		{"LOADER_SETTLE_MS", &c.Loader.SettleMs},
	}
	for _, o := range ints {
		v := os.Getenv(o.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, o.env, err)
		}
		*o.dst = n
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode %q is not one of debug, release, test", c.Server.Mode))
	}
	if c.Reveal.SpeedMs <= 0 {
		errs = append(errs, fmt.Errorf("reveal.speed_ms must be positive, got %d", c.Reveal.SpeedMs))
	}
	if c.Reveal.MaxSpeedMs < c.Reveal.SpeedMs {
		errs = append(errs, fmt.Errorf("reveal.max_speed_ms %d is below reveal.speed_ms", c.Reveal.MaxSpeedMs))
	}
	if _, err := reveal.ParseOrder(c.Reveal.Order); err != nil {
		errs = append(errs, err)
	}
	if c.Loader.DurationMs <= 0 {
		errs = append(errs, fmt.Errorf("loader.duration_ms must be positive, got %d", c.Loader.DurationMs))
	}
	if c.Loader.IntervalMs < 0 || c.Loader.SettleMs < 0 {
		errs = append(errs, errors.New("loader.interval_ms and loader.settle_ms must not be negative"))
	}
	if err := loader.ValidateStages(c.Loader.Stages); err != nil {
		errs = append(errs, fmt.Errorf("loader.stages: %w", err))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not text or json", c.Logging.Format))
	}
	if c.Content.Watch && c.Content.Path == "" {
		errs = append(errs, errors.New("content.watch needs content.path"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return l, nil
}

// RevealOrder is the validated default reveal order.
func (c *Config) RevealOrder() reveal.Order {
	o, _ := reveal.ParseOrder(c.Reveal.Order)
	return o
}

func (c *Config) RevealSpeed() time.Duration {
	return time.Duration(c.Reveal.SpeedMs) * time.Millisecond
}

// LoaderConfig converts the loader section into an engine config.
func (c *Config) LoaderConfig() loader.Config {
	return loader.Config{
		Duration: time.Duration(c.Loader.DurationMs) * time.Millisecond,
		Interval: time.Duration(c.Loader.IntervalMs) * time.Millisecond,
		Settle:   time.Duration(c.Loader.SettleMs) * time.Millisecond,
		Stages:   c.Loader.Stages,
	}
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutMs) * time.Millisecond
}
