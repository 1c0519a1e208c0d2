// Package config loads process configuration for the dinner CLI.
//
// Values come from, in increasing priority: built-in defaults, config.yaml
// in the home directory, DINNER_* environment variables and bound command
// line flags. User preferences such as day labels are not configuration:
// they live in the shared store next to the list.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/whatsfordinner/dinner/internal/store"
)

// FileName is the config file inside the home directory.
const FileName = "config.yaml"

// EnvPrefix prefixes every environment override (DINNER_STORE_BACKEND, ...).
const EnvPrefix = "DINNER"

// Config is the resolved configuration.
type Config struct {
	Home      string        `mapstructure:"home" yaml:"home,omitempty"`
	Store     StoreConfig   `mapstructure:"store" yaml:"store"`
	SaveDelay time.Duration `mapstructure:"save_delay" yaml:"save_delay"`
	Peer      PeerConfig    `mapstructure:"peer" yaml:"peer"`
	Log       LogConfig     `mapstructure:"log" yaml:"log"`
}

// StoreConfig selects the storage backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	Group   string `mapstructure:"group" yaml:"group"`
}

// PeerConfig configures both ends of the companion link.
type PeerConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Listen    string        `mapstructure:"listen" yaml:"listen"`
	Address   string        `mapstructure:"address" yaml:"address"`
	Reconnect time.Duration `mapstructure:"reconnect" yaml:"reconnect"`
}

// LogConfig configures the process log.
type LogConfig struct {
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// Keys lists every supported key, in the order `config show` prints them.
var Keys = []string{
	"home",
	"store.backend",
	"store.group",
	"save_delay",
	"peer.enabled",
	"peer.listen",
	"peer.address",
	"peer.reconnect",
	"log.file",
	"log.max_size_mb",
	"log.max_backups",
	"log.max_age_days",
}

// DefaultHome returns $DINNER_HOME, or ~/.whatsfordinner.
func DefaultHome() string {
	if home := os.Getenv(EnvPrefix + "_HOME"); home != "" {
		return home
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".whatsfordinner"
	}
	return filepath.Join(dir, ".whatsfordinner")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Home:      DefaultHome(),
		Store:     StoreConfig{Backend: store.BackendSQLite, Group: store.DefaultGroup},
		SaveDelay: 500 * time.Millisecond,
		Peer: PeerConfig{
			Enabled:   true,
			Listen:    "127.0.0.1:8787",
			Address:   "127.0.0.1:8787",
			Reconnect: 5 * time.Second,
		},
		Log: LogConfig{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28},
	}
}

// Loader wraps a viper instance configured for dinner.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment overrides set.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("home", d.Home)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.group", d.Store.Group)
	v.SetDefault("save_delay", d.SaveDelay)
	v.SetDefault("peer.enabled", d.Peer.Enabled)
	v.SetDefault("peer.listen", d.Peer.Listen)
	v.SetDefault("peer.address", d.Peer.Address)
	v.SetDefault("peer.reconnect", d.Peer.Reconnect)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)

	return &Loader{v: v}
}

// BindFlag lets a command line flag override key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if err := l.v.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("failed to bind flag %s: %w", key, err)
	}
	return nil
}

// Load reads config.yaml from the resolved home directory, if present, and
// returns the merged configuration.
func (l *Loader) Load() (*Config, error) {
	home := l.v.GetString("home")
	l.v.SetConfigFile(filepath.Join(home, FileName))

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Get returns the raw value for key after all overrides.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Validate checks values that would otherwise fail later and obscurely.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case store.BackendSQLite, store.BackendDir, store.BackendMemory:
	default:
		return fmt.Errorf("invalid store.backend %q (want sqlite, dir or memory)", c.Store.Backend)
	}
	if c.Store.Group == "" {
		return fmt.Errorf("store.group cannot be empty")
	}
	if c.SaveDelay < 0 {
		return fmt.Errorf("save_delay cannot be negative")
	}
	return nil
}

// Path returns the config file path for this configuration.
func (c *Config) Path() string {
	return filepath.Join(c.Home, FileName)
}

// StoreOptions returns the options for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{Backend: c.Store.Backend, Dir: c.Home}
}

// Set assigns a value by key, parsing it as the key's type.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "home":
		c.Home = value
	case "store.backend":
		c.Store.Backend = value
	case "store.group":
		c.Store.Group = value
	case "save_delay":
		c.SaveDelay, err = time.ParseDuration(value)
	case "peer.enabled":
		c.Peer.Enabled, err = strconv.ParseBool(value)
	case "peer.listen":
		c.Peer.Listen = value
	case "peer.address":
		c.Peer.Address = value
	case "peer.reconnect":
		c.Peer.Reconnect, err = time.ParseDuration(value)
	case "log.file":
		c.Log.File = value
	case "log.max_size_mb":
		c.Log.MaxSizeMB, err = strconv.Atoi(value)
	case "log.max_backups":
		c.Log.MaxBackups, err = strconv.Atoi(value)
	case "log.max_age_days":
		c.Log.MaxAgeDays, err = strconv.Atoi(value)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return c.Validate()
}

// Save writes cfg as YAML to path, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ReadFile returns the configuration stored at path on top of the
// defaults, without environment or flag overrides. A missing file yields
// the defaults.
func ReadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
