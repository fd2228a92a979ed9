// Package config layers oclist settings: defaults, then the config file, then
// OCLIST_ environment variables, then command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/kolah/oclist/internal/logger"
	"github.com/kolah/oclist/internal/store"
	"github.com/spf13/cobra"
)

// EnvPrefix prefixes every environment variable read. Nested keys use a
// double underscore: OCLIST_STORE__DRIVER sets store.driver.
const EnvPrefix = "OCLIST_"

const defaultConfigFile = "oclist.yaml"

type Config struct {
	BaseURL          string      `koanf:"base-url"`
	Token            string      `koanf:"token"`
	Store            StoreConfig `koanf:"store"`
	HTTP             HTTPConfig  `koanf:"http"`
	Spec             SpecConfig  `koanf:"spec"`
	Log              LogConfig   `koanf:"log"`
	ValidateRequests bool        `koanf:"validate-requests"`
}

type StoreConfig struct {
	Driver    string `koanf:"driver"`
	Path      string `koanf:"path"`
	RedisAddr string `koanf:"redis-addr"`
}

type HTTPConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

type SpecConfig struct {
	// FreshnessInterval is the minimum time between build-number checks.
	FreshnessInterval time.Duration `koanf:"freshness-interval"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() map[string]any {
	return map[string]any{
		"store.driver":            store.DriverFile,
		"store.path":              DefaultStorePath(),
		"http.timeout":            "30s",
		"spec.freshness-interval": "5m",
		"log.level":               string(logger.InfoLevel),
	}
}

// DefaultStorePath is the file store location under the user cache directory.
func DefaultStorePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".oclist-store.json"
	}
	return filepath.Join(dir, "oclist", "store.json")
}

// BindFlags registers the persistent flags every command understands.
func BindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: oclist.yaml)")
	flags.String("base-url", "", "API host, e.g. https://api.example.com")
	flags.String("token", "", "Bearer token sent with list requests")
	flags.String("store", "", "Client-local store: memory, file, redis")
	flags.String("store-path", "", "File store location")
	flags.String("redis-addr", "", "Redis address for the redis store")
	flags.Duration("timeout", 0, "HTTP client timeout")
	flags.Duration("freshness-interval", 0, "Minimum time between API build checks")
	flags.String("log-level", "", "Log level: debug, info, warn, error, disabled")
	flags.Bool("log-json", false, "Log as JSON")
	flags.Bool("validate", false, "Validate list requests against the API description before sending")
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		configFile, _ = cmd.PersistentFlags().GetString("config")
	}
	if configFile == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			configFile = defaultConfigFile
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps OCLIST_STORE__REDIS_ADDR to store.redis-addr.
func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	key = strings.ReplaceAll(key, "_", "-")
	return key, value
}

func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)

	flagChanged := func(name string) bool {
		return cmd.Flags().Changed(name) || cmd.PersistentFlags().Changed(name)
	}

	getString := func(name string) string {
		if v, err := cmd.Flags().GetString(name); err == nil && v != "" {
			return v
		}
		if v, err := cmd.PersistentFlags().GetString(name); err == nil && v != "" {
			return v
		}
		return ""
	}

	getDuration := func(name string) (time.Duration, bool) {
		if !flagChanged(name) {
			return 0, false
		}
		if v, err := cmd.Flags().GetDuration(name); err == nil {
			return v, true
		}
		if v, err := cmd.PersistentFlags().GetDuration(name); err == nil {
			return v, true
		}
		return 0, false
	}

	getBool := func(name string) bool {
		if v, err := cmd.Flags().GetBool(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetBool(name); err == nil {
			return v
		}
		return false
	}

	if v := getString("base-url"); v != "" {
		m["base-url"] = v
	}
	if v := getString("token"); v != "" {
		m["token"] = v
	}
	if v := getString("store"); v != "" {
		m["store.driver"] = v
	}
	if v := getString("store-path"); v != "" {
		m["store.path"] = v
	}
	if v := getString("redis-addr"); v != "" {
		m["store.redis-addr"] = v
	}
	if v, ok := getDuration("timeout"); ok {
		m["http.timeout"] = v
	}
	if v, ok := getDuration("freshness-interval"); ok {
		m["spec.freshness-interval"] = v
	}
	if v := getString("log-level"); v != "" {
		m["log.level"] = v
	}
	if flagChanged("log-json") {
		m["log.json"] = getBool("log-json")
	}
	if flagChanged("validate") {
		m["validate-requests"] = getBool("validate")
	}

	return m
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base url is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("invalid base url: %s (must start with http:// or https://)", c.BaseURL)
	}

	switch c.Store.Driver {
	case store.DriverMemory:
	case store.DriverFile:
		if c.Store.Path == "" {
			return fmt.Errorf("store path is required for the file store")
		}
	case store.DriverRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis store")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (valid: memory, file, redis)", c.Store.Driver)
	}

	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("invalid http timeout: %s", c.HTTP.Timeout)
	}
	if c.Spec.FreshnessInterval < 0 {
		return fmt.Errorf("invalid freshness interval: %s", c.Spec.FreshnessInterval)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// StoreOptions converts the store settings for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Driver:      c.Store.Driver,
		Path:        c.Store.Path,
		RedisAddr:   c.Store.RedisAddr,
		RedisPrefix: "oclist:",
	}
}
