package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewConfig tests creating a config with defaults
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	if cfg == nil {
		t.Fatal("NewConfig() returned nil")
	}

	if cfg.TestsFolder != "./tests" {
		t.Errorf("Expected default tests folder './tests', got %q", cfg.TestsFolder)
	}
	if cfg.LibsFolder != "./node_modules" {
		t.Errorf("Expected default libs folder './node_modules', got %q", cfg.LibsFolder)
	}
	if cfg.ManifestPath != "./subgraph.yaml" {
		t.Errorf("Expected default manifest path './subgraph.yaml', got %q", cfg.ManifestPath)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected default log level 'warn', got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("Expected default log format 'console', got %q", cfg.Log.Format)
	}
	if cfg.Runtime.MemoryLimitPages != 0 {
		t.Errorf("Expected no default memory limit, got %d", cfg.Runtime.MemoryLimitPages)
	}
}

// TestConfigValidation tests configuration validation
func TestConfigValidation(t *testing.T) {
	valid := func() *Config { return NewConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing tests folder",
			mutate:  func(c *Config) { c.TestsFolder = "" },
			wantErr: true,
			errMsg:  "tests folder is required",
		},
		{
			name:    "missing libs folder",
			mutate:  func(c *Config) { c.LibsFolder = "" },
			wantErr: true,
			errMsg:  "libs folder is required",
		},
		{
			name:    "missing manifest path",
			mutate:  func(c *Config) { c.ManifestPath = "" },
			wantErr: true,
			errMsg:  "manifest path is required",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
			errMsg:  "invalid log level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
			errMsg:  "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.errMsg)
			}
		})
	}
}

// TestLoadFromEnv tests loading configuration from environment variables
func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MATCHSTICK_TESTS_FOLDER", "./unit")
	t.Setenv("MATCHSTICK_LIBS_FOLDER", "../node_modules")
	t.Setenv("MATCHSTICK_MANIFEST_PATH", "./subgraph.mainnet.yaml")
	t.Setenv("MATCHSTICK_LOG_LEVEL", "debug")
	t.Setenv("MATCHSTICK_LOG_FORMAT", "json")
	t.Setenv("MATCHSTICK_MEMORY_LIMIT_PAGES", "512")

	cfg := NewConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.TestsFolder != "./unit" {
		t.Errorf("Expected tests folder './unit', got %q", cfg.TestsFolder)
	}
	if cfg.LibsFolder != "../node_modules" {
		t.Errorf("Expected libs folder '../node_modules', got %q", cfg.LibsFolder)
	}
	if cfg.ManifestPath != "./subgraph.mainnet.yaml" {
		t.Errorf("Expected manifest path './subgraph.mainnet.yaml', got %q", cfg.ManifestPath)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level 'debug', got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected log format 'json', got %q", cfg.Log.Format)
	}
	if cfg.Runtime.MemoryLimitPages != 512 {
		t.Errorf("Expected memory limit 512 pages, got %d", cfg.Runtime.MemoryLimitPages)
	}
}

// TestLoadFromEnvInvalidPages tests a malformed memory limit
func TestLoadFromEnvInvalidPages(t *testing.T) {
	t.Setenv("MATCHSTICK_MEMORY_LIMIT_PAGES", "lots")

	cfg := NewConfig()
	if err := cfg.LoadFromEnv(); err == nil {
		t.Error("Expected error for invalid MATCHSTICK_MEMORY_LIMIT_PAGES, got nil")
	}
}

// TestLoadFromFile tests loading configuration from YAML file
func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "matchstick.yaml")

	configContent := `
testsFolder: ./src/tests
libsFolder: ../../node_modules
manifestPath: ./subgraph.goerli.yaml

log:
  level: info
  format: json

runtime:
  memoryLimitPages: 256
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg := NewConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.TestsFolder != "./src/tests" {
		t.Errorf("Expected tests folder './src/tests', got %q", cfg.TestsFolder)
	}
	if cfg.LibsFolder != "../../node_modules" {
		t.Errorf("Expected libs folder '../../node_modules', got %q", cfg.LibsFolder)
	}
	if cfg.ManifestPath != "./subgraph.goerli.yaml" {
		t.Errorf("Expected manifest path './subgraph.goerli.yaml', got %q", cfg.ManifestPath)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected log level 'info', got %q", cfg.Log.Level)
	}
	if cfg.Runtime.MemoryLimitPages != 256 {
		t.Errorf("Expected memory limit 256 pages, got %d", cfg.Runtime.MemoryLimitPages)
	}
}

// TestLoadFromFilePartial tests that keys absent from the file keep their defaults
func TestLoadFromFilePartial(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "matchstick.yaml")

	if err := os.WriteFile(configFile, []byte("testsFolder: ./other\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg := NewConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.TestsFolder != "./other" {
		t.Errorf("Expected tests folder './other', got %q", cfg.TestsFolder)
	}
	if cfg.LibsFolder != "./node_modules" {
		t.Errorf("Expected default libs folder './node_modules', got %q", cfg.LibsFolder)
	}
}

// TestLoadFromFileNotFound tests loading from non-existent file
func TestLoadFromFileNotFound(t *testing.T) {
	cfg := NewConfig()
	err := cfg.LoadFromFile("/nonexistent/matchstick.yaml")
	if err == nil {
		t.Error("Expected error when loading non-existent file, got nil")
	}
}

// TestLoadFromFileInvalidYAML tests loading from invalid YAML file
func TestLoadFromFileInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
testsFolder: "./tests
libsFolder: [
`

	if err := os.WriteFile(configFile, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write invalid config file: %v", err)
	}

	cfg := NewConfig()
	if err := cfg.LoadFromFile(configFile); err == nil {
		t.Error("Expected error when loading invalid YAML, got nil")
	}
}

// TestConfigPriority tests configuration priority (env > file > defaults)
func TestConfigPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "matchstick.yaml")

	configContent := `
testsFolder: ./file-tests
libsFolder: ./file-libs
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Environment overrides the file
	t.Setenv("MATCHSTICK_TESTS_FOLDER", "./env-tests")

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TestsFolder != "./env-tests" {
		t.Errorf("Expected tests folder from env './env-tests', got %q", cfg.TestsFolder)
	}
	if cfg.LibsFolder != "./file-libs" {
		t.Errorf("Expected libs folder from file './file-libs', got %q", cfg.LibsFolder)
	}
	if cfg.ManifestPath != "./subgraph.yaml" {
		t.Errorf("Expected default manifest path './subgraph.yaml', got %q", cfg.ManifestPath)
	}
}

// TestSetDefaults tests setting default values
func TestSetDefaults(t *testing.T) {
	cfg := &Config{LibsFolder: "./custom"}
	cfg.SetDefaults()

	if cfg.LibsFolder != "./custom" {
		t.Errorf("Expected explicit libs folder to be kept, got %q", cfg.LibsFolder)
	}
	if cfg.TestsFolder != "./tests" {
		t.Errorf("Expected default tests folder './tests', got %q", cfg.TestsFolder)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected default log level 'warn', got %q", cfg.Log.Level)
	}
}

// TestLoadMissingFile tests that an absent config file leaves the defaults
func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "matchstick.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TestsFolder != "./tests" {
		t.Errorf("Expected default tests folder './tests', got %q", cfg.TestsFolder)
	}
}

// TestLoadWithEmptyFile tests Load with no config file
func TestLoadWithEmptyFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ManifestPath != "./subgraph.yaml" {
		t.Errorf("Expected default manifest path './subgraph.yaml', got %q", cfg.ManifestPath)
	}
}

// TestLoadInvalidConfig tests the Load convenience function with invalid config
func TestLoadInvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "matchstick.yaml")

	configContent := `
log:
  level: chatty
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configFile); err == nil {
		t.Error("Expected error when loading invalid config, got nil")
	}
}
