// Package config loads the offcache CLI configuration from a file, the
// environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/achu-1612/offcache/storage"
)

// EnvPrefix prefixes every environment override, e.g. OFFCACHE_API_URL.
const EnvPrefix = "OFFCACHE"

// Config is the CLI configuration.
type Config struct {
	// APIURL is the root of the school backend API.
	APIURL string `mapstructure:"api_url" validate:"required,url"`

	// APITimeout bounds every backend request.
	APITimeout time.Duration `mapstructure:"api_timeout" validate:"gt=0"`

	// CacheDuration is the default time-to-live of cached reads.
	CacheDuration time.Duration `mapstructure:"cache_duration" validate:"gt=0"`

	// Local targets a development backend: public endpoints, no authentication.
	Local bool `mapstructure:"local"`

	// OfflineMode enables the offline cache. When false every read goes to the network.
	OfflineMode bool `mapstructure:"offline_mode"`

	Auth    AuthConfig    `mapstructure:"auth"`
	Storage StorageConfig `mapstructure:"storage"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AuthConfig holds the basic auth credentials sent when not Local.
type AuthConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// StorageConfig selects the persistent store.
type StorageConfig struct {
	Backend storage.Backend `mapstructure:"backend" validate:"oneof=memory badger sqlite"`

	// Path is the badger directory, the sqlite file or the memory snapshot folder.
	Path string `mapstructure:"path" validate:"required_unless=Backend memory"`

	// QuotaBytes caps the memory backend.
	QuotaBytes int `mapstructure:"quota_bytes" validate:"gte=0"`
}

// ProbeConfig configures the reachability probe.
type ProbeConfig struct {
	// URL is probed for reachability. Defaults to APIURL.
	URL      string        `mapstructure:"url" validate:"omitempty,url"`
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

// LoggingConfig configures the loggers.
type LoggingConfig struct {
	Debug bool `mapstructure:"debug"`
	Quiet bool `mapstructure:"quiet"`
}

// defaults mirrors the production environment of the school app.
var defaults = map[string]any{
	"api_url":             "https://playschoolmanagementbackend.onrender.com/api",
	"api_timeout":         "20s",
	"cache_duration":      "24h",
	"local":               false,
	"offline_mode":        true,
	"auth.username":       "",
	"auth.password":       "",
	"storage.backend":     string(storage.BackendBadger),
	"storage.path":        defaultStoragePath(),
	"storage.quota_bytes": 5 << 20,
	"probe.url":           "",
	"probe.interval":      "15s",
	"probe.timeout":       "5s",
	"metrics.addr":        "127.0.0.1:9464",
	"logging.debug":       false,
	"logging.quiet":       false,
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (OFFCACHE_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath looks for config.yaml in the default config directory;
// a missing file there is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v, configPath != ""); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Probe.URL == "" {
		cfg.Probe.URL = cfg.APIURL
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())

	return v.Struct(cfg)
}

// DefaultConfigPath returns the config file looked up when none is given.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func setupViper(v *viper.Viper, configPath string) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	// OFFCACHE_STORAGE_BACKEND=sqlite overrides storage.backend
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)

		return
	}

	v.AddConfigPath(configDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// readConfigFile reads the configuration file. A missing default file is
// fine; a missing explicit one is not.
func readConfigFile(v *viper.Viper, explicit bool) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	if !explicit {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return nil
		}
	}

	return fmt.Errorf("failed to read config file: %w", err)
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "offcache")
	}

	return ".offcache"
}

func defaultStoragePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "offcache", "badger")
	}

	return filepath.Join(".offcache", "badger")
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		backendDecodeHook(),
	)
}

// durationDecodeHook converts strings like "30s" or "24h" to time.Duration.
// Bare numbers are milliseconds, the unit the web app configured its
// timeouts in.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
				return time.Duration(ms) * time.Millisecond, nil
			}

			return time.ParseDuration(v)
		case int:
			return time.Duration(v) * time.Millisecond, nil
		case int64:
			return time.Duration(v) * time.Millisecond, nil
		case float64:
			return time.Duration(v * float64(time.Millisecond)), nil
		default:
			return data, nil
		}
	}
}

// backendDecodeHook normalizes backend names, so BADGER and " badger " both select badger.
func backendDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(storage.Backend("")) {
			return data, nil
		}

		if v, ok := data.(string); ok {
			return storage.Backend(strings.ToLower(strings.TrimSpace(v))), nil
		}

		return data, nil
	}
}
