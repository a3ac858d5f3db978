package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         string
	DatabasePath string
	LogLevel     string
	UploadDir    string

	// S3
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool

	// Agent (OpenAI-compatible chat completions endpoint)
	AgentBaseURL     string
	AgentAPIKey      string
	AgentModel       string
	AgentTimeout     time.Duration
	AgentTemperature float64

	// Resolver policy
	AgentMaxRetries int
	AgentRetryDelay time.Duration
	ExcerptLimit    int

	// Job pool
	Workers   int
	QueueSize int

	// Upload limits
	MaxFileSize int64

	// Debug artifact: write extracted text next to the source PDF
	KeepArtifacts bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DatabasePath:      getEnv("DATABASE_PATH", "./data/papers.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		UploadDir:         getEnv("UPLOAD_DIR", "./uploads"),
		S3Endpoint:        getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:      getEnv("S3_BUCKET_NAME", "papers"),
		S3UseSSL:          getEnv("S3_USE_SSL", "false") == "true",
		AgentBaseURL:      getEnv("AGENT_BASE_URL", "http://localhost:11434/v1"),
		AgentAPIKey:       getEnv("AGENT_API_KEY", ""),
		AgentModel:        getEnv("AGENT_MODEL", "llama3.2:latest"),
		AgentTimeout:      getEnvAsDuration("AGENT_TIMEOUT", 60*time.Second),
		AgentTemperature:  getEnvAsFloat("AGENT_TEMPERATURE", 0.0),
		AgentMaxRetries:   getEnvAsInt("AGENT_MAX_RETRIES", 4),
		AgentRetryDelay:   getEnvAsDuration("AGENT_RETRY_DELAY", 2*time.Second),
		ExcerptLimit:      getEnvAsInt("AGENT_EXCERPT_LIMIT", 1200),
		Workers:           getEnvAsInt("PIPELINE_WORKERS", 4),
		QueueSize:         getEnvAsInt("PIPELINE_QUEUE_SIZE", 64),
		MaxFileSize:       5 * 1024 * 1024,
		KeepArtifacts:     getEnv("KEEP_TEXT_ARTIFACTS", "false") == "true",
	}

	if cfg.AgentBaseURL == "" {
		return nil, fmt.Errorf("AGENT_BASE_URL is required")
	}
	if cfg.AgentModel == "" {
		return nil, fmt.Errorf("AGENT_MODEL is required")
	}
	if cfg.AgentMaxRetries < 1 {
		return nil, fmt.Errorf("AGENT_MAX_RETRIES must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
