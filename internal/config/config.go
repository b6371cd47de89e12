package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/hylla/skillroute/internal/app"
	"github.com/hylla/skillroute/internal/domain"
)

// minSecretBytes mirrors the shortest signing secret the server accepts.
const minSecretBytes = 16

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Client   ClientConfig   `toml:"client"`
	View     ViewConfig     `toml:"view"`
	Analysis AnalysisConfig `toml:"analysis"`
	Logging  LoggingConfig  `toml:"logging"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ServerConfig struct {
	Bind            string `toml:"bind"`
	APIEndpoint     string `toml:"api_endpoint"`
	MCPEndpoint     string `toml:"mcp_endpoint"`
	MetricsEnabled  bool   `toml:"metrics_enabled"`
	MetricsEndpoint string `toml:"metrics_endpoint"`
	// LocalUser is used when no auth secret is set.
	LocalUser string `toml:"local_user"`
}

type AuthConfig struct {
	Secret   string `toml:"secret"`
	Issuer   string `toml:"issuer"`
	TokenTTL string `toml:"token_ttl"`
}

type ClientConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
	Timeout string `toml:"timeout"`
}

type ViewConfig struct {
	DefaultMode string `toml:"default_mode"` // timeline | classic
	RingRadius  int    `toml:"ring_radius"`
}

type AnalysisConfig struct {
	DefaultHoursPerWeek int `toml:"default_hours_per_week"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled    bool   `toml:"enabled"`
	Dir        string `toml:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Server: ServerConfig{
			Bind:            "127.0.0.1:8080",
			APIEndpoint:     "/api/v1",
			MCPEndpoint:     "/mcp",
			MetricsEnabled:  false,
			MetricsEndpoint: "/metrics",
			LocalUser:       "local",
		},
		Auth: AuthConfig{
			Issuer:   "skillroute",
			TokenTTL: "24h",
		},
		Client: ClientConfig{
			BaseURL: "http://127.0.0.1:8080/api/v1",
			Timeout: "15s",
		},
		View: ViewConfig{
			DefaultMode: string(app.ViewModeTimeline),
			RingRadius:  4,
		},
		Analysis: AnalysisConfig{
			DefaultHoursPerWeek: domain.DefaultHoursPerWeek,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled:    false,
				Dir:        ".skillroute/log",
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 14,
			},
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if strings.TrimSpace(c.Server.APIEndpoint) != "" && strings.Trim(c.Server.APIEndpoint, "/ ") == strings.Trim(c.Server.MCPEndpoint, "/ ") {
		return errors.New("server.api_endpoint and server.mcp_endpoint must differ")
	}

	if secret := strings.TrimSpace(c.Auth.Secret); secret != "" && len(secret) < minSecretBytes {
		return fmt.Errorf("auth.secret must be at least %d bytes", minSecretBytes)
	}
	if _, err := parseDuration("auth.token_ttl", c.Auth.TokenTTL); err != nil {
		return err
	}

	if raw := strings.TrimSpace(c.Client.BaseURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid client.base_url: %q", c.Client.BaseURL)
		}
	}
	if _, err := parseDuration("client.timeout", c.Client.Timeout); err != nil {
		return err
	}

	if _, err := app.ParseViewMode(c.View.DefaultMode); err != nil {
		return fmt.Errorf("invalid view.default_mode: %w", err)
	}
	if c.View.RingRadius < 2 || c.View.RingRadius > 12 {
		return fmt.Errorf("view.ring_radius must be within 2..12, got %d", c.View.RingRadius)
	}

	if _, err := domain.NormalizeHoursPerWeek(c.Analysis.DefaultHoursPerWeek); err != nil {
		return fmt.Errorf("invalid analysis.default_hours_per_week: %w", err)
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when enabled")
	}
	if c.Logging.DevFile.MaxSizeMB < 0 || c.Logging.DevFile.MaxBackups < 0 || c.Logging.DevFile.MaxAgeDays < 0 {
		return errors.New("logging.dev_file limits must be >= 0")
	}

	return nil
}

// TokenTTL returns the parsed auth token lifetime, zero when unset.
func (c Config) TokenTTL() time.Duration {
	d, _ := parseDuration("auth.token_ttl", c.Auth.TokenTTL)
	return d
}

// ClientTimeout returns the parsed client request timeout, zero when unset.
func (c Config) ClientTimeout() time.Duration {
	d, _ := parseDuration("client.timeout", c.Client.Timeout)
	return d
}

// ViewMode returns the configured default view mode.
func (c Config) ViewMode() app.ViewMode {
	mode, err := app.ParseViewMode(c.View.DefaultMode)
	if err != nil {
		return app.ViewModeTimeline
	}
	return mode
}

func parseDuration(field, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be >= 0", field)
	}
	return d, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
