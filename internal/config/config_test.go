package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kolah/oclist/internal/store"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		BaseURL: "https://api.example.com",
		Store:   StoreConfig{Driver: store.DriverMemory},
		Log:     LogConfig{Level: "info"},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		edit        func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name: "valid config",
			edit: func(*Config) {},
		},
		{
			name:        "missing base url",
			edit:        func(c *Config) { c.BaseURL = "" },
			wantErr:     true,
			errContains: "base url is required",
		},
		{
			name:        "base url without scheme",
			edit:        func(c *Config) { c.BaseURL = "api.example.com" },
			wantErr:     true,
			errContains: "invalid base url",
		},
		{
			name:        "invalid store driver",
			edit:        func(c *Config) { c.Store.Driver = "sqlite" },
			wantErr:     true,
			errContains: "invalid store driver",
		},
		{
			name:        "file store without path",
			edit:        func(c *Config) { c.Store.Driver = store.DriverFile },
			wantErr:     true,
			errContains: "store path is required",
		},
		{
			name: "file store with path",
			edit: func(c *Config) {
				c.Store.Driver = store.DriverFile
				c.Store.Path = "/tmp/store.json"
			},
		},
		{
			name:        "redis store without address",
			edit:        func(c *Config) { c.Store.Driver = store.DriverRedis },
			wantErr:     true,
			errContains: "redis address is required",
		},
		{
			name:        "negative timeout",
			edit:        func(c *Config) { c.HTTP.Timeout = -time.Second },
			wantErr:     true,
			errContains: "invalid http timeout",
		},
		{
			name:        "negative freshness interval",
			edit:        func(c *Config) { c.Spec.FreshnessInterval = -time.Second },
			wantErr:     true,
			errContains: "invalid freshness interval",
		},
		{
			name:        "invalid log level",
			edit:        func(c *Config) { c.Log.Level = "loud" },
			wantErr:     true,
			errContains: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.edit(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{}
	BindFlags(cmd)
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newCommand()
	require.NoError(t, cmd.PersistentFlags().Set("base-url", "https://api.example.com/"))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "https://api.example.com", cfg.BaseURL)
	require.Equal(t, store.DriverFile, cfg.Store.Driver)
	require.Equal(t, DefaultStorePath(), cfg.Store.Path)
	require.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	require.Equal(t, 5*time.Minute, cfg.Spec.FreshnessInterval)
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.Log.JSON)
	require.False(t, cfg.ValidateRequests)
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
base-url: https://sandbox.example.com
token: abc
store:
  driver: memory
http:
  timeout: 10s
spec:
  freshness-interval: 0s
log:
  level: debug
  json: true
validate-requests: true
`
	err := os.WriteFile(filepath.Join(tmpDir, "oclist.yaml"), []byte(configContent), 0644)
	require.NoError(t, err)
	t.Chdir(tmpDir)

	cfg, err := Load(newCommand())
	require.NoError(t, err)

	require.Equal(t, "https://sandbox.example.com", cfg.BaseURL)
	require.Equal(t, "abc", cfg.Token)
	require.Equal(t, store.DriverMemory, cfg.Store.Driver)
	require.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	require.Zero(t, cfg.Spec.FreshnessInterval)
	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.Log.JSON)
	require.True(t, cfg.ValidateRequests)
}

func TestLoadPrecedence(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
base-url: https://file.example.com
store:
  driver: memory
log:
  level: warn
`
	configPath := filepath.Join(tmpDir, "custom.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))
	t.Chdir(t.TempDir())

	t.Setenv("OCLIST_BASE_URL", "https://env.example.com")
	t.Setenv("OCLIST_STORE__DRIVER", "redis")
	t.Setenv("OCLIST_STORE__REDIS_ADDR", "localhost:6379")
	t.Setenv("OCLIST_LOG__JSON", "true")

	cmd := newCommand()
	require.NoError(t, cmd.PersistentFlags().Set("config", configPath))
	require.NoError(t, cmd.PersistentFlags().Set("base-url", "https://flag.example.com"))
	require.NoError(t, cmd.PersistentFlags().Set("timeout", "2s"))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "https://flag.example.com", cfg.BaseURL, "flags beat env")
	require.Equal(t, store.DriverRedis, cfg.Store.Driver, "env beats file")
	require.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
	require.True(t, cfg.Log.JSON)
	require.Equal(t, "warn", cfg.Log.Level, "file beats defaults")
	require.Equal(t, 2*time.Second, cfg.HTTP.Timeout)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(newCommand())
	require.Error(t, err)
	require.Contains(t, err.Error(), "base url is required")
}

func TestLoadMissingConfigFile(t *testing.T) {
	cmd := newCommand()
	require.NoError(t, cmd.PersistentFlags().Set("config", filepath.Join(t.TempDir(), "absent.yaml")))

	_, err := Load(cmd)
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading config file")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"OCLIST_BASE_URL":                 "base-url",
		"OCLIST_STORE__REDIS_ADDR":        "store.redis-addr",
		"OCLIST_SPEC__FRESHNESS_INTERVAL": "spec.freshness-interval",
		"OCLIST_VALIDATE_REQUESTS":        "validate-requests",
	}
	for in, want := range tests {
		key, value := envKey(in, "v")
		require.Equal(t, want, key)
		require.Equal(t, "v", value)
	}
}

func TestBuildFlagsMap(t *testing.T) {
	cmd := newCommand()
	flags := cmd.PersistentFlags()
	require.NoError(t, flags.Set("store", "file"))
	require.NoError(t, flags.Set("store-path", "/tmp/s.json"))
	require.NoError(t, flags.Set("freshness-interval", "1m"))
	require.NoError(t, flags.Set("log-json", "false"))

	m := buildFlagsMap(cmd)

	require.Equal(t, map[string]any{
		"store.driver":            "file",
		"store.path":              "/tmp/s.json",
		"spec.freshness-interval": time.Minute,
		"log.json":                false,
	}, m)
}

func TestStoreOptions(t *testing.T) {
	cfg := validConfig()
	cfg.Store = StoreConfig{Driver: store.DriverRedis, RedisAddr: "localhost:6379"}
	opts := cfg.StoreOptions()
	require.Equal(t, store.DriverRedis, opts.Driver)
	require.Equal(t, "localhost:6379", opts.RedisAddr)
	require.Equal(t, "oclist:", opts.RedisPrefix)
}
