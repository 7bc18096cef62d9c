// Package config provides dynamic configuration management for votedesk.
// It uses Viper to load settings from files, environment variables, and CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for votedesk.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────────────
	AppName    string `mapstructure:"app_name"`
	ServerHost string `mapstructure:"server_host"`
	Port       int    `mapstructure:"port"`
	ServeUI    bool   `mapstructure:"serve_ui"`

	// ── Database ─────────────────────────────────────────────────────────────
	DBDriver string `mapstructure:"db_driver"` // "sqlite" or "postgres"
	DBPath   string `mapstructure:"db_path"`
	DBDSN    string `mapstructure:"db_dsn"` // used when db_driver = postgres

	// ── Security ──────────────────────────────────────────────────────────────
	// JWTSecret: HS256 signing key for access tokens.
	JWTSecret     string `mapstructure:"jwt_secret"`
	JWTIssuer     string `mapstructure:"jwt_issuer"`
	TokenLifetime int    `mapstructure:"access_token_expire_minutes"`
	// CORSOrigins may contain a single "*" inside the host, e.g. https://*.pages.dev
	CORSOrigins []string `mapstructure:"cors_origins"`

	// ── Bootstrap accounts ───────────────────────────────────────────────────
	AdminUsername string `mapstructure:"admin_username"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
	SeedTestUser  bool   `mapstructure:"seed_test_user"`

	// ── Logging ──────────────────────────────────────────────────────────────
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // json | console
}

// Version is stamped into API responses and the CLI banner.
const Version = "v1.0.0"

// Load reads config from file (./config.yaml or ~/.votedesk/config.yaml)
// and falls back to defaults. A .env file in the working directory is loaded
// into the environment first; VOTEDESK_ variables override file values.
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper() (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// --- Config file ---
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.votedesk")
	if err := v.ReadInConfig(); err != nil {
		// config file is optional; ignore "not found" errors
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// --- Environment Variables ---
	v.SetEnvPrefix("VOTEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "Voting Platform API")
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("serve_ui", true)

	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_path", "votedesk.db")
	v.SetDefault("db_dsn", "")

	// Security defaults. Override them in production via config.yaml or env vars.
	v.SetDefault("jwt_secret", "change-me-votedesk-9f3Kq2xLm7Tz")
	v.SetDefault("jwt_issuer", "votedesk")
	v.SetDefault("access_token_expire_minutes", 30)
	v.SetDefault("cors_origins", []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://localhost:8000",
		"https://*.pages.dev",
	})

	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_email", "admin@votingsystem.com")
	v.SetDefault("admin_password", "admin123")
	v.SetDefault("seed_test_user", true)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	// Env vars arrive as one comma-separated string.
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.DBDriver {
	case "sqlite", "":
	case "postgres":
		if c.DBDSN == "" {
			errs = append(errs, errors.New("db_dsn is required when db_driver is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported db_driver %q (use 'sqlite' or 'postgres')", c.DBDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret must not be empty"))
	}
	if c.TokenLifetime <= 0 {
		errs = append(errs, fmt.Errorf("access_token_expire_minutes must be positive, got %d", c.TokenLifetime))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.Port)
}

// Watch re-reads the config file whenever it changes on disk and hands the
// new log level to onLevel. It is a no-op when no config file was found.
func Watch(onLevel func(level string)) error {
	v, err := newViper()
	if err != nil {
		return err
	}
	if v.ConfigFileUsed() == "" {
		return nil
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Has(fsnotify.Write) || e.Has(fsnotify.Create) {
			onLevel(v.GetString("log_level"))
		}
	})
	v.WatchConfig()
	return nil
}
