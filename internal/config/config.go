// Package config provides persistent configuration for the vakit CLI.
//
// Configuration is stored as JSON at ~/.config/vakit/config.json
// (XDG-compliant). The merge priority is:
// CLI flags > VAKIT_* environment (including .env) > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/vakit/internal/api"
	"github.com/smokyabdulrahman/vakit/internal/store"
)

const (
	configDirName  = "vakit"
	configFileName = "config.json"
	envPrefix      = "VAKIT_"
)

// Location permission policies.
const (
	PermissionAsk     = "ask"
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"method", "adjustment",
	"time_format",
	"store", "data_dir", "sqlite_path",
	"redis_addr", "redis_password", "redis_db",
	"location_permission",
	"log_level",
	"listen_addr",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults).
type Config struct {
	Method             *int   `json:"method,omitempty"`      // pointer so we can distinguish "not set" from 0
	Adjustment         *int   `json:"adjustment,omitempty"`  // pointer so we can distinguish "not set" from 0
	TimeFormat         string `json:"time_format,omitempty"` // "12h" or "24h"
	Store              string `json:"store,omitempty"`
	DataDir            string `json:"data_dir,omitempty"`
	SQLitePath         string `json:"sqlite_path,omitempty"`
	RedisAddr          string `json:"redis_addr,omitempty"`
	RedisPassword      string `json:"redis_password,omitempty"`
	RedisDB            *int   `json:"redis_db,omitempty"`
	LocationPermission string `json:"location_permission,omitempty"`
	LogLevel           string `json:"log_level,omitempty"`
	ListenAddr         string `json:"listen_addr,omitempty"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	method := api.DefaultMethod
	adjustment := api.DefaultAdjustment
	redisDB := 0
	return Config{
		Method:             &method,
		Adjustment:         &adjustment,
		TimeFormat:         "24h",
		Store:              store.BackendFile,
		RedisAddr:          "localhost:6379",
		RedisDB:            &redisDB,
		LocationPermission: PermissionAsk,
		LogLevel:           "warn",
		ListenAddr:         ":8080",
	}
}

// WithDefaults returns a copy of c with every unset field taken from Defaults.
func (c Config) WithDefaults() Config {
	d := Defaults()
	if c.Method == nil {
		c.Method = d.Method
	}
	if c.Adjustment == nil {
		c.Adjustment = d.Adjustment
	}
	if c.TimeFormat == "" {
		c.TimeFormat = d.TimeFormat
	}
	if c.Store == "" {
		c.Store = d.Store
	}
	if c.RedisAddr == "" {
		c.RedisAddr = d.RedisAddr
	}
	if c.RedisDB == nil {
		c.RedisDB = d.RedisDB
	}
	if c.LocationPermission == "" {
		c.LocationPermission = d.LocationPermission
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	return c
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// If the file does not exist, it returns an empty Config (not an error).
// If the file exists but is invalid JSON, it returns an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Config{}
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(key)
}

// ApplyEnv overrides c with every VAKIT_<KEY> variable present in the
// environment. Values are validated like `config set`.
func (c *Config) ApplyEnv() error {
	for _, key := range ValidKeys {
		v, ok := os.LookupEnv(EnvName(key))
		if !ok {
			continue
		}
		if err := c.Set(key, v); err != nil {
			return fmt.Errorf("%s: %w", EnvName(key), err)
		}
	}
	return nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	// 0600: the file may hold a redis password.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "method":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid method %q: must be an integer", value)
		}
		if api.MethodName(v) == "" {
			return fmt.Errorf("invalid method %q: see `vakit methods`", value)
		}
		c.Method = &v
	case "adjustment":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid adjustment %q: must be an integer", value)
		}
		if v < -2 || v > 2 {
			return fmt.Errorf("invalid adjustment %q: must be between -2 and 2", value)
		}
		c.Adjustment = &v
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "store":
		if !contains(store.Backends, value) {
			return fmt.Errorf("invalid store %q: must be one of %s", value, strings.Join(store.Backends, ", "))
		}
		c.Store = value
	case "data_dir":
		c.DataDir = value
	case "sqlite_path":
		c.SQLitePath = value
	case "redis_addr":
		c.RedisAddr = value
	case "redis_password":
		c.RedisPassword = value
	case "redis_db":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid redis_db %q: must be a non-negative integer", value)
		}
		c.RedisDB = &v
	case "location_permission":
		switch value {
		case PermissionAsk, PermissionGranted, PermissionDenied:
		default:
			return fmt.Errorf("invalid location_permission %q: must be ask, granted or denied", value)
		}
		c.LocationPermission = value
	case "log_level":
		if _, err := zerolog.ParseLevel(value); err != nil || value == "" {
			return fmt.Errorf("invalid log_level %q: must be one of trace, debug, info, warn, error", value)
		}
		c.LogLevel = value
	case "listen_addr":
		if !strings.Contains(value, ":") {
			return fmt.Errorf("invalid listen_addr %q: must be host:port or :port", value)
		}
		c.ListenAddr = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "method":
		return optionalInt(c.Method), nil
	case "adjustment":
		return optionalInt(c.Adjustment), nil
	case "time_format":
		return c.TimeFormat, nil
	case "store":
		return c.Store, nil
	case "data_dir":
		return c.DataDir, nil
	case "sqlite_path":
		return c.SQLitePath, nil
	case "redis_addr":
		return c.RedisAddr, nil
	case "redis_password":
		return c.RedisPassword, nil
	case "redis_db":
		return optionalInt(c.RedisDB), nil
	case "location_permission":
		return c.LocationPermission, nil
	case "log_level":
		return c.LogLevel, nil
	case "listen_addr":
		return c.ListenAddr, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// MethodOrDefault returns the method value, falling back to the given default.
func (c *Config) MethodOrDefault(def int) int {
	if c.Method != nil {
		return *c.Method
	}
	return def
}

// AdjustmentOrDefault returns the adjustment value, falling back to the given default.
func (c *Config) AdjustmentOrDefault(def int) int {
	if c.Adjustment != nil {
		return *c.Adjustment
	}
	return def
}

// StoreOptions translates the storage keys into store.Options.
func (c *Config) StoreOptions() store.Options {
	db := 0
	if c.RedisDB != nil {
		db = *c.RedisDB
	}
	return store.Options{
		Backend:       c.Store,
		Dir:           c.DataDir,
		SQLitePath:    c.SQLitePath,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       db,
	}
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
