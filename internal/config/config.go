// Package config loads service configuration from the environment, with
// optional .env.local support for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Addr               string // listen address for the REST API
	CORSAllowedOrigins string // comma-separated allowed origins

	// Storage
	StorageDir       string // root for generated reports and job mirrors
	JobRetentionDays int    // mirror files older than this are purged at startup

	// Agent platform
	PlatformAPIKey  string // default key when a request does not carry one
	PlatformBaseURL string // aiXplain API base URL
	LLMID           string // platform model id driving all agents
	SearchModelID   string // platform search tool model id

	// Runner
	MaxConcurrentJobs int

	// Platform tuning, forwarded to the platform request. The core logic
	// does not interpret these beyond passing them through.
	MaxIterations         int
	RequestTimeoutSeconds int
	MaxRetries            int
	EnableCache           bool
	VerboseLogging        bool
}

// Load reads configuration from the environment, preferring values from a
// .env.local file when one exists in the working directory or its parent.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Addr:               getEnv("MARKETSCOUT_ADDR", ":8000"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8000"),

		StorageDir:       getEnv("MARKETSCOUT_STORAGE", "generated_reports"),
		JobRetentionDays: getEnvAsInt("JOB_RETENTION_DAYS", 7),

		PlatformAPIKey:  getEnv("TEAM_API_KEY", ""),
		PlatformBaseURL: getEnv("AIXPLAIN_BASE_URL", "https://platform-api.aixplain.com"),
		LLMID:           getEnv("AIXPLAIN_LLM_ID", "6646261c6eb563165658bbb1"),
		SearchModelID:   getEnv("AIXPLAIN_SEARCH_MODEL_ID", "669a63646eb56306647e1091"),

		MaxConcurrentJobs: getEnvAsInt("MAX_CONCURRENT_JOBS", 10),

		MaxIterations:         getEnvAsInt("MAX_ITERATIONS", 30),
		RequestTimeoutSeconds: getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 0),
		MaxRetries:            getEnvAsInt("MAX_RETRIES", 0),
		EnableCache:           getEnvAsBool("ENABLE_CACHE", false),
		VerboseLogging:        getEnvAsBool("VERBOSE_LOGGING", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.StorageDir == "" {
		return fmt.Errorf("MARKETSCOUT_STORAGE must not be empty")
	}
	if c.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_JOBS must be positive (got %d)", c.MaxConcurrentJobs)
	}
	if c.JobRetentionDays < 0 {
		return fmt.Errorf("JOB_RETENTION_DAYS must not be negative (got %d)", c.JobRetentionDays)
	}
	return nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}
	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvAsBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}
