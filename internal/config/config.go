// Package config loads and validates engine configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"coursegen/internal/apperr"
)

// Config represents the complete engine configuration
type Config struct {
	RepoRoot string `json:"repo_root" mapstructure:"repo_root"`

	// Cache tiers
	MaxMemoryMB int    `json:"max_memory_mb" mapstructure:"max_memory_mb"`
	SQLitePath  string `json:"sqlite_path" mapstructure:"sqlite_path"`
	RedisURL    string `json:"redis_url" mapstructure:"redis_url"` // empty disables the remote tier

	// Analysis
	MaxParallelFiles    int  `json:"max_parallel_files" mapstructure:"max_parallel_files"`
	ParseTimeoutSeconds int  `json:"parse_timeout_seconds" mapstructure:"parse_timeout_seconds"`
	CacheTTLSeconds     int  `json:"cache_ttl_seconds" mapstructure:"cache_ttl_seconds"`
	MaxFileSizeMB       int  `json:"max_file_size_mb" mapstructure:"max_file_size_mb"`
	EnableIncremental   bool `json:"enable_incremental" mapstructure:"enable_incremental"`
	EnableLint          bool `json:"enable_lint" mapstructure:"enable_lint"`
	TopFiles            int  `json:"top_files" mapstructure:"top_files"`

	// External linter invocation, consulted only when EnableLint is set
	LintBinary string   `json:"lint_binary" mapstructure:"lint_binary"`
	LintArgs   []string `json:"lint_args" mapstructure:"lint_args"`

	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		RepoRoot:            ".",
		MaxMemoryMB:         100,
		SQLitePath:          "", // resolved to <repoRoot>/.coursegen/analysis.db
		RedisURL:            "",
		MaxParallelFiles:    10,
		ParseTimeoutSeconds: 30,
		CacheTTLSeconds:     3600,
		MaxFileSizeMB:       10,
		EnableIncremental:   true,
		EnableLint:          false,
		TopFiles:            20,
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration from <repoRoot>/.coursegen/config.json.
// A missing config file yields the defaults.
func Load(repoRoot string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("repo_root", repoRoot)
	v.SetDefault("max_memory_mb", def.MaxMemoryMB)
	v.SetDefault("max_parallel_files", def.MaxParallelFiles)
	v.SetDefault("parse_timeout_seconds", def.ParseTimeoutSeconds)
	v.SetDefault("cache_ttl_seconds", def.CacheTTLSeconds)
	v.SetDefault("max_file_size_mb", def.MaxFileSizeMB)
	v.SetDefault("enable_incremental", def.EnableIncremental)
	v.SetDefault("enable_lint", def.EnableLint)
	v.SetDefault("top_files", def.TopFiles)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".coursegen"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperr.Wrap(apperr.ConfigInvalid, "failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperr.Wrap(apperr.ConfigInvalid, "failed to parse config", err)
	}

	if cfg.RepoRoot == "" {
		cfg.RepoRoot = repoRoot
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = filepath.Join(cfg.RepoRoot, ".coursegen", "analysis.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration bounds. Violations are fatal at startup.
func (c *Config) Validate() error {
	if c.MaxMemoryMB <= 0 {
		return apperr.New(apperr.ConfigInvalid, "max_memory_mb must be positive")
	}
	if c.MaxParallelFiles <= 0 {
		return apperr.New(apperr.ConfigInvalid, "max_parallel_files must be positive")
	}
	if c.ParseTimeoutSeconds <= 0 {
		return apperr.New(apperr.ConfigInvalid, "parse_timeout_seconds must be positive")
	}
	if c.CacheTTLSeconds < 0 {
		return apperr.New(apperr.ConfigInvalid, "cache_ttl_seconds must not be negative")
	}
	if c.MaxFileSizeMB <= 0 {
		return apperr.New(apperr.ConfigInvalid, "max_file_size_mb must be positive")
	}
	if c.TopFiles <= 0 {
		return apperr.New(apperr.ConfigInvalid, "top_files must be positive")
	}
	return nil
}

// Save writes the configuration to <repoRoot>/.coursegen/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".coursegen")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// MaxMemoryBytes returns the memory tier byte budget.
func (c *Config) MaxMemoryBytes() int64 {
	return int64(c.MaxMemoryMB) * 1024 * 1024
}

// MaxFileSizeBytes returns the per-file size limit in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}
