package config

import (
	"os"
	"runtime"
	"strconv"

	"gopower/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Simulation SimulationConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Export     ExportConfig
}

// SimulationConfig holds sweep execution defaults
type SimulationConfig struct {
	Workers     int
	Repetitions int
	Alpha       float64
	BaseSeed    int64
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds the optional run-archive connection settings.
// An empty URL disables the archive.
type DatabaseConfig struct {
	URL string
}

// ExportConfig holds spreadsheet export settings
type ExportConfig struct {
	Dir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Simulation: SimulationConfig{
			Workers:     getEnvIntOrDefault("SIM_WORKERS", runtime.NumCPU()),
			Repetitions: getEnvIntOrDefault("SIM_REPETITIONS", 1000),
			Alpha:       getEnvFloatOrDefault("SIM_ALPHA", 0.05),
			BaseSeed:    getEnvInt64OrDefault("SIM_SEED", 42),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Export: ExportConfig{
			Dir: getEnvOrDefault("EXPORT_DIR", "."),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Simulation.Workers < 1 {
		return errors.ConfigInvalid("SIM_WORKERS must be at least 1")
	}
	if config.Simulation.Repetitions < 1 {
		return errors.ConfigInvalid("SIM_REPETITIONS must be at least 1")
	}
	if config.Simulation.Alpha <= 0 || config.Simulation.Alpha >= 1 {
		return errors.ConfigInvalid("SIM_ALPHA must be in (0, 1)")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT cannot be empty")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
