package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envConfig = "QUBO_CONFIG"

// Config is the qubo configuration file (~/.config/qubo/config.yaml).
// Numeric fields are pointers so "not set" differs from zero.
type Config struct {
	// Device
	Backend      string `yaml:"backend"`
	Device       *int64 `yaml:"device"`
	MemoryValues *int64 `yaml:"sim_memory"`
	Workers      *int64 `yaml:"sim_workers"`

	// Solver defaults
	Solver     string  `yaml:"solver"`
	BatchSize  *int64  `yaml:"batch_size"`
	Iterations *int64  `yaml:"iterations"`
	Restarts   *int64  `yaml:"restarts"`
	Seed       *uint64 `yaml:"seed"`
	Reduction  string  `yaml:"reduction"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "qubo", "config.yaml")
}

// LoadConfig reads the config file. A missing file is a zero Config; a file
// that does not parse is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyLoggingConfig applies config file defaults to the logging variables
// when the corresponding flag was not explicitly set.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

func applyDeviceConfig(c *cli.Command, cfg Config) {
	if cfg.Backend != "" && !c.IsSet("backend") {
		backendName = cfg.Backend
	}
	if cfg.Device != nil && !c.IsSet("device") {
		deviceOrdinal = *cfg.Device
	}
	if cfg.MemoryValues != nil && !c.IsSet("sim-memory") {
		memoryValues = *cfg.MemoryValues
	}
	if cfg.Workers != nil && !c.IsSet("sim-workers") {
		workers = *cfg.Workers
	}
}

func applySolverConfig(c *cli.Command, cfg Config) {
	if cfg.Solver != "" && !c.IsSet("solver") {
		solverName = cfg.Solver
	}
	if cfg.BatchSize != nil && !c.IsSet("batch-size") {
		batchSize = *cfg.BatchSize
	}
	if cfg.Iterations != nil && !c.IsSet("iterations") {
		iterations = *cfg.Iterations
	}
	if cfg.Restarts != nil && !c.IsSet("restarts") {
		restarts = *cfg.Restarts
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		seed = *cfg.Seed
	}
	applyReductionConfig(c, cfg)
}

func applyReductionConfig(c *cli.Command, cfg Config) {
	if cfg.Reduction != "" && !c.IsSet("reduction") {
		reductionName = cfg.Reduction
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
