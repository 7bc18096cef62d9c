package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Port:          8000,
		DBDriver:      "sqlite",
		JWTSecret:     "secret",
		TokenLifetime: 30,
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 30, cfg.TokenLifetime)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Contains(t, cfg.CORSOrigins, "https://*.pages.dev")
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VOTEDESK_PORT", "9090")
	t.Setenv("VOTEDESK_LOG_LEVEL", "debug")
	t.Setenv("VOTEDESK_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("VOTEDESK_DB_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported db_driver")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Port = 0 }, "out of range"},
		{"port too large", func(c *Config) { c.Port = 70000 }, "out of range"},
		{"postgres without dsn", func(c *Config) { c.DBDriver = "postgres" }, "db_dsn is required"},
		{"postgres with dsn", func(c *Config) { c.DBDriver = "postgres"; c.DBDSN = "postgres://x" }, ""},
		{"empty secret", func(c *Config) { c.JWTSecret = "" }, "jwt_secret"},
		{"zero lifetime", func(c *Config) { c.TokenLifetime = 0 }, "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSplitOrigins(t *testing.T) {
	got := splitOrigins([]string{"a, b", "", " c ", "d,,e"})
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

// inTempDir runs the test from an empty directory with HOME pointing at it,
// so no config.yaml or .env from the machine is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

// unsetEnv clears key for the test and restores it afterwards. godotenv only
// fills variables that are not already set.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoad_Precedence(t *testing.T) {
	dir := inTempDir(t)
	unsetEnv(t, "VOTEDESK_LOG_LEVEL", "VOTEDESK_APP_NAME")
	t.Setenv("VOTEDESK_PORT", "9100")

	writeFile(t, filepath.Join(dir, "config.yaml"), `
app_name: From File
port: 7000
log_level: warn
log_format: console
`)
	writeFile(t, filepath.Join(dir, ".env"), "VOTEDESK_LOG_LEVEL=debug\nVOTEDESK_PORT=9200\n")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "From File", cfg.AppName, "file beats defaults")
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel, ".env beats file")
	assert.Equal(t, 9100, cfg.Port, "process env beats .env")
	assert.Equal(t, "votedesk", cfg.JWTIssuer, "defaults fill the rest")
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := inTempDir(t)
	writeFile(t, filepath.Join(dir, "config.yaml"), "port: [8000\n")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_InvalidFileValue(t *testing.T) {
	dir := inTempDir(t)
	writeFile(t, filepath.Join(dir, "config.yaml"), "access_token_expire_minutes: -5\n")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}

func TestWatch_NoFile(t *testing.T) {
	inTempDir(t)
	called := false
	require.NoError(t, Watch(func(string) { called = true }))
	assert.False(t, called)
}

func TestWatch_ReappliesLogLevel(t *testing.T) {
	dir := inTempDir(t)
	unsetEnv(t, "VOTEDESK_LOG_LEVEL")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "log_level: info\n")

	levels := make(chan string, 8)
	require.NoError(t, Watch(func(l string) {
		select {
		case levels <- l:
		default:
		}
	}))

	writeFile(t, path, "log_level: debug\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case l := <-levels:
			if l == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("log level change was not observed")
		}
	}
}
