package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
	"gopkg.in/yaml.v3"
)

const appDirName = "sysdash"

type Config struct {
	API       APIConfig       `yaml:"api"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Filters   FilterConfig    `yaml:"filters"`
	Session   SessionConfig   `yaml:"session"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Services  ServicesConfig  `yaml:"services"`
	DevServer DevServerConfig `yaml:"devserver"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type RefreshConfig struct {
	Interval  time.Duration `yaml:"interval"`
	AutoStart bool          `yaml:"auto_start"`
}

// FilterConfig holds the initial process filters. Values are validated by the
// process controller when it is constructed.
type FilterConfig struct {
	SortBy string `yaml:"sort_by"`
	Limit  int    `yaml:"limit"`
}

type SessionConfig struct {
	StateDir string `yaml:"state_dir"`
	Persist  bool   `yaml:"persist"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// ServicesConfig lists the services the dashboard offers on its logs screen.
// The backend still enforces its own allow-lists.
type ServicesConfig struct {
	Logs        []string `yaml:"logs"`
	Restartable []string `yaml:"restartable"`
}

type DevServerConfig struct {
	Addr            string     `yaml:"addr"`
	Users           []DemoUser `yaml:"users"`
	AllowedServices []string   `yaml:"allowed_services"`
	LogServices     []string   `yaml:"log_services"`
}

// DemoUser is an account accepted by the stub backend.
type DemoUser struct {
	Email       string   `yaml:"email"`
	Password    string   `yaml:"password"`
	Username    string   `yaml:"username"`
	Role        string   `yaml:"role"`
	Permissions []string `yaml:"permissions"`
}

// overrides mirrors the subset of Config that can be set from the environment.
// Zero values mean "not set".
type overrides struct {
	BaseURL         string        `env:"SYSDASH_BASE_URL"`
	Timeout         time.Duration `env:"SYSDASH_TIMEOUT"`
	RefreshInterval time.Duration `env:"SYSDASH_REFRESH_INTERVAL"`
	LogLevel        string        `env:"SYSDASH_LOG_LEVEL"`
	LogFile         string        `env:"SYSDASH_LOG_FILE"`
	MetricsAddr     string        `env:"SYSDASH_METRICS_ADDR"`
	StateDir        string        `env:"SYSDASH_STATE_DIR"`
	DevServerAddr   string        `env:"SYSDASH_DEVSERVER_ADDR"`
}

func defaultConfig() *Config {
	stateDir := DefaultStateDir()
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 10 * time.Second,
		},
		Refresh: RefreshConfig{
			Interval: 5 * time.Second,
		},
		Filters: FilterConfig{
			SortBy: "cpu",
			Limit:  100,
		},
		Session: SessionConfig{
			StateDir: stateDir,
			Persist:  true,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(stateDir, "sysdash.log"),
		},
		Services: ServicesConfig{
			Logs:        []string{"nginx", "postgresql", "redis", "sshd", "systemd"},
			Restartable: []string{"nginx", "postgresql", "redis"},
		},
		DevServer: DevServerConfig{
			Addr: "127.0.0.1:3000",
			Users: []DemoUser{
				{
					Email:    "admin@example.com",
					Password: "admin123",
					Username: "admin",
					Role:     "Admin",
					Permissions: []string{
						"read:status", "read:logs", "read:processes", "execute:service_restart",
					},
				},
				{
					Email:       "viewer@example.com",
					Password:    "viewer123",
					Username:    "viewer",
					Role:        "Viewer",
					Permissions: []string{"read:status", "read:logs", "read:processes"},
				},
			},
			AllowedServices: []string{"nginx", "postgresql", "redis"},
			LogServices:     []string{"nginx", "postgresql", "redis", "sshd", "systemd"},
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies .env and
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	// .env is optional; a missing file leaves the process environment as is.
	_ = godotenv.Load()

	var o overrides
	if err := env.Load(&o, nil); err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}

	if o.BaseURL != "" {
		c.API.BaseURL = o.BaseURL
	}
	if o.Timeout != 0 {
		c.API.Timeout = o.Timeout
	}
	if o.RefreshInterval != 0 {
		c.Refresh.Interval = o.RefreshInterval
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.LogFile != "" {
		c.Log.File = o.LogFile
	}
	if o.MetricsAddr != "" {
		c.Metrics.Addr = o.MetricsAddr
	}
	if o.StateDir != "" {
		c.Session.StateDir = o.StateDir
	}
	if o.DevServerAddr != "" {
		c.DevServer.Addr = o.DevServerAddr
	}
	return nil
}

// Validate checks the settings the client cannot start without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("api.base_url: missing host")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.Refresh.Interval <= 0 {
		return errors.New("refresh.interval must be positive")
	}
	switch c.Filters.SortBy {
	case "cpu", "mem", "pid", "time":
	default:
		return fmt.Errorf("filters.sort_by: unknown key %q", c.Filters.SortBy)
	}
	if c.Filters.Limit < 1 || c.Filters.Limit > 1000 {
		return fmt.Errorf("filters.limit: %d out of range 1-1000", c.Filters.Limit)
	}
	return nil
}

// DefaultPath returns ~/.config/sysdash/config.yaml, respecting XDG_CONFIG_HOME.
func DefaultPath() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, appDirName, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDirName, "config.yaml")
}

// DefaultStateDir returns ~/.local/state/sysdash, respecting XDG_STATE_HOME.
func DefaultStateDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
