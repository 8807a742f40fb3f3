package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Journal drivers.
const (
	JournalNone     = "none"
	JournalPostgres = "postgres"
	JournalSQLite   = "sqlite"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Tracker   TrackerConfig   `yaml:"tracker"`
	Journal   JournalConfig   `yaml:"journal"`
	Database  DatabaseConfig  `yaml:"database"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	MCP       MCPConfig       `yaml:"mcp"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// AuthConfig protects the mutating endpoints when APIKey is set.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// TrackerConfig tunes frame evaluation.
type TrackerConfig struct {
	// MinVisibility treats landmarks below this confidence as missing. 0 accepts all.
	MinVisibility float64 `yaml:"min_visibility"`
	// MaxFPS caps frames per second per stream connection.
	MaxFPS int `yaml:"max_fps"`
	// AllowUnknownExercise lets a workout start for an unregistered exercise id.
	// Frames for such a workout never count.
	AllowUnknownExercise bool `yaml:"allow_unknown_exercise"`
}

// JournalConfig selects where finished workout summaries are kept.
type JournalConfig struct {
	Driver string `yaml:"driver"`
	// Path is the SQLite file used by the sqlite driver.
	Path string `yaml:"path"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type MCPConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// SlogLevel maps log.level to a slog level. Unknown values fall back to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the configuration used for keys absent from the file.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Host: "0.0.0.0", Port: 3001},
		Log:       LogConfig{Level: "info"},
		Tracker:   TrackerConfig{MaxFPS: 30},
		Journal:   JournalConfig{Driver: JournalNone, Path: "formcoach.db"},
		Database:  DatabaseConfig{Host: "localhost", Port: 5432, Name: "formcoach", User: "formcoach"},
		Tailscale: TailscaleConfig{Hostname: "formcoach", StateDir: "tsnet-state"},
	}
}

// Load reads config from a YAML file on top of Default, then applies
// environment variable overrides. Env vars use the prefix FORMCOACH_ and
// underscore-separated paths:
//
//	FORMCOACH_SERVER_HOST, FORMCOACH_SERVER_PORT, FORMCOACH_AUTH_API_KEY,
//	FORMCOACH_LOG_LEVEL, FORMCOACH_TRACKER_MIN_VISIBILITY, FORMCOACH_TRACKER_MAX_FPS,
//	FORMCOACH_JOURNAL_DRIVER, FORMCOACH_JOURNAL_PATH,
//	FORMCOACH_DB_HOST, FORMCOACH_DB_PORT, FORMCOACH_DB_NAME,
//	FORMCOACH_DB_USER, FORMCOACH_DB_PASSWORD, FORMCOACH_DB_SSLMODE,
//	FORMCOACH_TAILSCALE_ENABLED
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FORMCOACH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FORMCOACH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FORMCOACH_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("FORMCOACH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FORMCOACH_TRACKER_MIN_VISIBILITY"); v != "" {
		if vis, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Tracker.MinVisibility = vis
		}
	}
	if v := os.Getenv("FORMCOACH_TRACKER_MAX_FPS"); v != "" {
		if fps, err := strconv.Atoi(v); err == nil {
			cfg.Tracker.MaxFPS = fps
		}
	}
	if v := os.Getenv("FORMCOACH_JOURNAL_DRIVER"); v != "" {
		cfg.Journal.Driver = v
	}
	if v := os.Getenv("FORMCOACH_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("FORMCOACH_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FORMCOACH_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FORMCOACH_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FORMCOACH_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FORMCOACH_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FORMCOACH_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("FORMCOACH_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Tracker.MinVisibility < 0 || c.Tracker.MinVisibility > 1 {
		return fmt.Errorf("tracker.min_visibility must be between 0 and 1, got %v", c.Tracker.MinVisibility)
	}
	if c.Tracker.MaxFPS < 0 {
		return fmt.Errorf("tracker.max_fps must not be negative")
	}
	switch c.Journal.Driver {
	case JournalNone, "":
		c.Journal.Driver = JournalNone
	case JournalSQLite:
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path is required for the sqlite journal")
		}
	case JournalPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("journal.driver %q is not one of none, sqlite, postgres", c.Journal.Driver)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
