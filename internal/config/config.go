package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Probe   ProbeConfig   `mapstructure:"probe"`
	Paths   PathsConfig   `mapstructure:"paths"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ProbeConfig contains probe-related configuration
type ProbeConfig struct {
	// Module is the default module to check when none is given on the CLI
	Module string `mapstructure:"module"`
	// Python is a configured interpreter, probed after the env override
	Python string `mapstructure:"python"`
	// Timeout bounds each candidate's child process
	Timeout time.Duration `mapstructure:"timeout"`
	// Workers limits in-flight probes in parallel mode
	Workers int `mapstructure:"workers"`
	// ExtraCandidates are additional interpreters probed before the system fallback
	ExtraCandidates []string `mapstructure:"extra_candidates"`
}

// PathsConfig contains path-related configuration
type PathsConfig struct {
	DataDir string `mapstructure:"data_dir"`
	LogFile string `mapstructure:"log_file"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".config", "pyprobe"))
	}
	viper.AddConfigPath(".")

	setDefaults()

	// Environment variable overrides
	viper.SetEnvPrefix("PYPROBE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Probe.Python = expandPath(cfg.Probe.Python)
	cfg.Paths.DataDir = expandPath(cfg.Paths.DataDir)
	cfg.Paths.LogFile = expandPath(cfg.Paths.LogFile)
	for i, extra := range cfg.Probe.ExtraCandidates {
		cfg.Probe.ExtraCandidates[i] = expandPath(extra)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		homeDir = "."
	}

	viper.SetDefault("probe.module", "")
	viper.SetDefault("probe.python", "")
	viper.SetDefault("probe.timeout", "10s")
	viper.SetDefault("probe.workers", 4)
	viper.SetDefault("probe.extra_candidates", []string{})

	viper.SetDefault("paths.data_dir", filepath.Join(homeDir, ".local", "share", "pyprobe"))
	viper.SetDefault("paths.log_file", filepath.Join(homeDir, ".local", "share", "pyprobe", "pyprobe.log"))

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.color", "auto")
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}
