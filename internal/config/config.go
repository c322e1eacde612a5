package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

const (
	DefaultGlamourStyle   = "dark"
	DefaultHighlightStyle = "github"
	DefaultStorageKey     = "chatHistory"
	DefaultAddr           = "127.0.0.1:8080"
	DefaultResponseDelay  = time.Second
	DefaultFileName       = ".chatwidget.yml"

	EnvPrefix = "CHATWIDGET_"
	dbName    = "chatwidget.sqlite"
)

type Config struct {
	DataDir        string        `yaml:"data_dir" koanf:"data_dir"`
	DBPath         string        `yaml:"db_path" koanf:"db_path"`
	StorageKey     string        `yaml:"storage_key" koanf:"storage_key"`
	ExportDir      string        `yaml:"export_dir" koanf:"export_dir"`
	ResponseDelay  time.Duration `yaml:"response_delay" koanf:"response_delay"`
	GlamourStyle   string        `yaml:"glamour_style" koanf:"glamour_style"`
	HighlightStyle string        `yaml:"highlight_style" koanf:"highlight_style"`
	Addr           string        `yaml:"addr" koanf:"addr"`
	LogDir         string        `yaml:"log_dir" koanf:"log_dir"`
	LogLevel       string        `yaml:"log_level" koanf:"log_level"`
	Telemetry      bool          `yaml:"telemetry" koanf:"telemetry"`
	// Ephemeral keeps history in memory only.
	Ephemeral bool `yaml:"ephemeral" koanf:"ephemeral"`
}

// DefaultConfig leaves the derived paths empty; Resolve fills them in.
func DefaultConfig() *Config {
	return &Config{
		StorageKey:     DefaultStorageKey,
		ResponseDelay:  DefaultResponseDelay,
		GlamourStyle:   DefaultGlamourStyle,
		HighlightStyle: DefaultHighlightStyle,
		Addr:           DefaultAddr,
		LogLevel:       "info",
	}
}

// Load reads the YAML file at path when it exists, overlays CHATWIDGET_*
// environment variables and resolves derived paths.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Resolve fills in the data directory and the paths derived from it.
func (c *Config) Resolve() error {
	dir, err := DetectDataDir(c.DataDir)
	if err != nil {
		return err
	}
	c.DataDir = dir
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, dbName)
	}
	if c.LogDir == "" {
		c.LogDir = filepath.Join(c.DataDir, "logs")
	}
	return nil
}

// Prepare creates the directories the configured paths live in.
func (c *Config) Prepare() error {
	dirs := []string{c.LogDir}
	if !c.Ephemeral {
		dirs = append(dirs, filepath.Dir(c.DBPath))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return nil
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func (c *Config) Validate() error {
	if c.StorageKey == "" {
		return fmt.Errorf("storage_key is required")
	}
	if c.ResponseDelay < 0 {
		return fmt.Errorf("response_delay must be non-negative")
	}
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.GlamourStyle == "" {
		return fmt.Errorf("glamour_style is required")
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	if !c.Ephemeral && c.DBPath == "" {
		return fmt.Errorf("db_path is required unless ephemeral")
	}
	return nil
}

func DetectDataDir(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Clean(explicit), nil
	}
	if fromEnv := os.Getenv("CHATWIDGET_HOME"); fromEnv != "" {
		return filepath.Clean(fromEnv), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "chatwidget"), nil
}
