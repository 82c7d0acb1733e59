package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/0xmhha/matchstick-go/internal/constants"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration of a test run
type Config struct {
	// TestsFolder holds the *.test.ts files and receives the compiled modules
	TestsFolder string `yaml:"testsFolder"`
	// LibsFolder holds assemblyscript, graph-ts and wabt
	LibsFolder string `yaml:"libsFolder"`
	// ManifestPath is the subgraph manifest
	ManifestPath string `yaml:"manifestPath"`

	Log     LogConfig     `yaml:"log"`
	Runtime RuntimeConfig `yaml:"runtime"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RuntimeConfig holds WebAssembly runtime configuration
type RuntimeConfig struct {
	// MemoryLimitPages caps the memory of every instance in 64KiB pages.
	// 0 keeps the runtime default.
	MemoryLimitPages uint32 `yaml:"memoryLimitPages"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults sets default values for the configuration
func (c *Config) SetDefaults() {
	if c.TestsFolder == "" {
		c.TestsFolder = constants.DefaultTestsFolder
	}
	if c.LibsFolder == "" {
		c.LibsFolder = constants.DefaultLibsFolder
	}
	if c.ManifestPath == "" {
		c.ManifestPath = constants.DefaultManifestPath
	}

	if c.Log.Level == "" {
		c.Log.Level = constants.DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = constants.DefaultLogFormat
	}
}

// LoadFromEnv overrides the configuration with MATCHSTICK_* environment variables
func (c *Config) LoadFromEnv() error {
	if folder := os.Getenv("MATCHSTICK_TESTS_FOLDER"); folder != "" {
		c.TestsFolder = folder
	}
	if folder := os.Getenv("MATCHSTICK_LIBS_FOLDER"); folder != "" {
		c.LibsFolder = folder
	}
	if path := os.Getenv("MATCHSTICK_MANIFEST_PATH"); path != "" {
		c.ManifestPath = path
	}

	if level := os.Getenv("MATCHSTICK_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("MATCHSTICK_LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}

	if pages := os.Getenv("MATCHSTICK_MEMORY_LIMIT_PAGES"); pages != "" {
		val, err := strconv.ParseUint(pages, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid MATCHSTICK_MEMORY_LIMIT_PAGES: %w", err)
		}
		c.Runtime.MemoryLimitPages = uint32(val)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.TestsFolder == "" {
		return fmt.Errorf("tests folder is required")
	}
	if c.LibsFolder == "" {
		return fmt.Errorf("libs folder is required")
	}
	if c.ManifestPath == "" {
		return fmt.Errorf("manifest path is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Log.Level)
	}

	validLogFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, console", c.Log.Format)
	}

	return nil
}

// Load is a convenience method that loads configuration in the following order:
// 1. Set defaults
// 2. Load from file (if provided and present)
// 3. Load from environment variables (override file)
// 4. Validate
//
// A config file that does not exist leaves the defaults in place.
func Load(configFile string) (*Config, error) {
	cfg := NewConfig()

	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
