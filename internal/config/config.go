package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"regsim/domain/simulation"
	"regsim/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig
	Simulation SimulationConfig
	Output     OutputConfig
	Profiling  ProfilingConfig
	LogLevel   string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// SimulationConfig bounds the work of a single run
type SimulationConfig struct {
	MaxSampleSize  int
	MaxSimulations int
	Workers        int
	Seed           uint64 // 0 draws a fresh seed per run
}

// OutputConfig holds where run artifacts are written
type OutputConfig struct {
	Dir       string
	Retention int
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Limits returns the per-run limits for parameter validation
func (c SimulationConfig) Limits() simulation.Limits {
	return simulation.Limits{
		MaxSampleSize:  c.MaxSampleSize,
		MaxSimulations: c.MaxSimulations,
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	simulationConfig, err := loadSimulationConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load simulation configuration")
	}

	config := &Config{
		Server:     *loadServerConfig(),
		Simulation: *simulationConfig,
		Output:     *loadOutputConfig(),
		Profiling:  *loadProfilingConfig(),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "debug"),
		RequestTimeout:  getEnvDurationOrDefault("REQUEST_TIMEOUT", 2*time.Minute),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadSimulationConfig() (*SimulationConfig, error) {
	limits := simulation.DefaultLimits()

	var seed uint64
	if value := os.Getenv("SEED"); value != "" {
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid("SEED must be a non-negative integer")
		}
		seed = parsed
	}

	return &SimulationConfig{
		MaxSampleSize:  getEnvIntOrDefault("MAX_SAMPLE_SIZE", limits.MaxSampleSize),
		MaxSimulations: getEnvIntOrDefault("MAX_SIMULATIONS", limits.MaxSimulations),
		Workers:        getEnvIntOrDefault("WORKERS", runtime.NumCPU()),
		Seed:           seed,
	}, nil
}

func loadOutputConfig() *OutputConfig {
	return &OutputConfig{
		Dir:       getEnvOrDefault("OUTPUT_DIR", "static/runs"),
		Retention: getEnvIntOrDefault("RUN_RETENTION", 20),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

// Validate checks a configuration assembled or changed after Load
func (c *Config) Validate() error {
	return validateConfig(c)
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Output.Dir == "" {
		return errors.ConfigInvalid("output directory is required")
	}
	if config.Output.Retention < 1 {
		return errors.ConfigInvalid("RUN_RETENTION must be at least 1")
	}
	if config.Simulation.MaxSampleSize < 2 {
		return errors.ConfigInvalid("MAX_SAMPLE_SIZE must be at least 2")
	}
	if config.Simulation.MaxSimulations < 1 {
		return errors.ConfigInvalid("MAX_SIMULATIONS must be at least 1")
	}
	if config.Simulation.Workers < 1 {
		return errors.ConfigInvalid("WORKERS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
