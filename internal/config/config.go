// =============================================================================
// Column Splitter - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a YAML file.
//
// CONFIGURATION FILE (config.yaml):
//   upload_dir: ./uploads
//   output_dir: ./split_files
//   max_columns: 4900
//   max_upload_bytes: 16777216
//   listen_addr: ":5000"
//   log_level: info
//   log_format: logfmt
//   log_buffer_size: 1000
//   log_view_limit: 200
//
// Every setting is optional. A missing configuration file is not an error;
// defaults are used instead.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/xlsx-column-splitter/internal/logging"
	"github.com/ginjaninja78/xlsx-column-splitter/internal/splitter"
)

// DefaultMaxUploadBytes bounds the size of uploaded spreadsheets.
const DefaultMaxUploadBytes = 16 * 1024 * 1024

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// UploadDir is where uploaded spreadsheets are staged before splitting.
	// Default: "./uploads"
	UploadDir string `yaml:"upload_dir"`

	// OutputDir is where split files are written.
	// Default: "./split_files"
	OutputDir string `yaml:"output_dir"`

	// =========================================================================
	// SPLITTING SETTINGS
	// =========================================================================

	// MaxColumns is the default number of columns per output file.
	// Default: 4900
	MaxColumns int `yaml:"max_columns"`

	// =========================================================================
	// SERVER SETTINGS
	// =========================================================================

	// MaxUploadBytes is the largest accepted upload.
	// Default: 16 MiB
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// ListenAddr is the address the web server binds to.
	// Default: ":5000"
	ListenAddr string `yaml:"listen_addr"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "logfmt" or "json".
	// Default: "logfmt"
	LogFormat string `yaml:"log_format"`

	// LogBufferSize is the number of records kept for the log viewer.
	// Default: 1000
	LogBufferSize int `yaml:"log_buffer_size"`

	// LogViewLimit is the number of records the log viewer shows.
	// Default: 200
	LogViewLimit int `yaml:"log_view_limit"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load loads the configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. If the file does not
//     exist, the defaults are returned.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file cannot be read, parsed, or fails validation.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./split_files"
	}
	if cfg.MaxColumns == 0 {
		cfg.MaxColumns = splitter.DefaultMaxColumns
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":5000"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = logging.FormatLogfmt
	}
	if cfg.LogBufferSize == 0 {
		cfg.LogBufferSize = logging.DefaultBufferSize
	}
	if cfg.LogViewLimit == 0 {
		cfg.LogViewLimit = 200
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.MaxColumns < 1 {
		return fmt.Errorf("max_columns must be at least 1, got %d", c.MaxColumns)
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.LogBufferSize < 1 {
		return fmt.Errorf("log_buffer_size must be positive, got %d", c.LogBufferSize)
	}
	if c.LogViewLimit < 1 {
		return fmt.Errorf("log_view_limit must be positive, got %d", c.LogViewLimit)
	}
	if c.UploadDir == c.OutputDir {
		return fmt.Errorf("upload_dir and output_dir must differ, both are %q", c.UploadDir)
	}
	if _, err := logging.LevelOption(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != logging.FormatLogfmt && c.LogFormat != logging.FormatJSON {
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	return nil
}
