package config

import (
	"os"
	"runtime"
	"strconv"

	"pymetrics/internal/errors"
)

// Config represents the complete application configuration. Every scientific
// threshold is configuration, not a hard-coded constant: the shipped values
// are research-calibrated starting defaults, not ground truth.
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Extraction ExtractionConfig
	Inference  InferenceConfig
	Validation ValidationConfig
	Worker     WorkerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// ExtractionConfig holds metric-extraction parameters.
type ExtractionConfig struct {
	MinEvents            int   // floor below which extraction fails
	MinTrials            int   // per-metric sample-adequacy knee
	RapidDecisionMS      int64 // decision faster than this counts as rapid
	RecoveryWindowTrials int   // trials after a loss inspected for recovery
	MaxDecisionTimeMS    int64 // scaling ceiling for decision latency
	MaxRecoveryTimeMS    int64 // scaling ceiling for post-loss recovery
}

// InferenceConfig holds trait-inference parameters.
type InferenceConfig struct {
	MinSampleEvents int // confidence sample-size ramp saturates here
}

// ValidationConfig holds scientific-acceptance thresholds.
type ValidationConfig struct {
	MinCompleteness float64 // fraction, default 0.80
	MinQuality      float64 // fraction, default 0.70
	MinReliability  float64 // fraction, default 0.70
	MinSampleSize   int
	MinDurationMS   int64
	MaxDurationMS   int64
	ConfidenceLevel float64
}

// WorkerConfig holds batch recompute settings.
type WorkerConfig struct {
	Concurrency int
	BatchLimit  int // max sessions per sweep
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	config := &Config{
		Database: DatabaseConfig{URL: url},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Extraction: ExtractionConfig{
			MinEvents:            getEnvIntOrDefault("MIN_EVENTS", 10),
			MinTrials:            getEnvIntOrDefault("MIN_TRIALS", 5),
			RapidDecisionMS:      int64(getEnvIntOrDefault("RAPID_DECISION_MS", 1000)),
			RecoveryWindowTrials: getEnvIntOrDefault("RECOVERY_WINDOW_TRIALS", 3),
			MaxDecisionTimeMS:    int64(getEnvIntOrDefault("MAX_DECISION_TIME_MS", 5000)),
			MaxRecoveryTimeMS:    int64(getEnvIntOrDefault("MAX_RECOVERY_TIME_MS", 60000)),
		},
		Inference: InferenceConfig{
			MinSampleEvents: getEnvIntOrDefault("MIN_SAMPLE_EVENTS", 10),
		},
		Validation: ValidationConfig{
			MinCompleteness: getEnvFloatOrDefault("MIN_DATA_COMPLETENESS", 0.80),
			MinQuality:      getEnvFloatOrDefault("MIN_QUALITY_SCORE", 0.70),
			MinReliability:  getEnvFloatOrDefault("MIN_RELIABILITY_SCORE", 0.70),
			MinSampleSize:   getEnvIntOrDefault("MIN_SAMPLE_SIZE", 10),
			MinDurationMS:   int64(getEnvIntOrDefault("MIN_SESSION_DURATION_MS", 30000)),
			MaxDurationMS:   int64(getEnvIntOrDefault("MAX_SESSION_DURATION_MS", 1800000)),
			ConfidenceLevel: getEnvFloatOrDefault("CONFIDENCE_LEVEL", 0.95),
		},
		Worker: WorkerConfig{
			Concurrency: getEnvIntOrDefault("WORKER_CONCURRENCY", runtime.NumCPU()),
			BatchLimit:  getEnvIntOrDefault("WORKER_BATCH_LIMIT", 1000),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Extraction.MinEvents < 1 {
		return errors.ConfigInvalid("MIN_EVENTS must be at least 1")
	}
	if config.Validation.MinCompleteness < 0 || config.Validation.MinCompleteness > 1 {
		return errors.ConfigInvalid("MIN_DATA_COMPLETENESS must be between 0 and 1")
	}
	if config.Validation.MinQuality < 0 || config.Validation.MinQuality > 1 {
		return errors.ConfigInvalid("MIN_QUALITY_SCORE must be between 0 and 1")
	}
	if config.Validation.MinReliability < 0 || config.Validation.MinReliability > 1 {
		return errors.ConfigInvalid("MIN_RELIABILITY_SCORE must be between 0 and 1")
	}
	if config.Validation.MinDurationMS >= config.Validation.MaxDurationMS {
		return errors.ConfigInvalid("MIN_SESSION_DURATION_MS must be below MAX_SESSION_DURATION_MS")
	}
	if config.Worker.Concurrency < 1 {
		return errors.ConfigInvalid("WORKER_CONCURRENCY must be at least 1")
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
