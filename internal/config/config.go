package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port   string `yaml:"port"`
	APIKey string `yaml:"api_key"`

	// NCBI endpoints
	EFetchURL       string        `yaml:"efetch_url"`
	OAURL           string        `yaml:"oa_url"`
	RequestInterval time.Duration `yaml:"request_interval"`

	// Local state
	CachePath string `yaml:"cache_path"`
	DataDir   string `yaml:"data_dir"`

	// Worker pool
	WorkerCount        int `yaml:"worker_count"`
	MaxQueueSize       int `yaml:"max_queue_size"`
	MaxConcurrentProbe int `yaml:"max_concurrent_probe"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`
}

// Load builds the configuration from an optional YAML file (path in
// PMCHARVEST_CONFIG) with environment variables taking precedence.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("PMCHARVEST_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	clamp(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		Port:               "8091",
		RequestInterval:    350 * time.Millisecond,
		CachePath:          "pmcharvest.db",
		DataDir:            "data",
		WorkerCount:        4,
		MaxQueueSize:       100,
		MaxConcurrentProbe: 8,
		MaxUploadBytes:     52428800, // 50MB
		JobTTL:             1 * time.Hour,
	}
}

func applyEnv(cfg *Config) {
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("PMCHARVEST_API_KEY", cfg.APIKey)
	cfg.EFetchURL = envOr("EFETCH_URL", cfg.EFetchURL)
	cfg.OAURL = envOr("OA_URL", cfg.OAURL)
	cfg.RequestInterval = envDuration("REQUEST_INTERVAL", cfg.RequestInterval)
	cfg.CachePath = envOr("CACHE_PATH", cfg.CachePath)
	cfg.DataDir = envOr("DATA_DIR", cfg.DataDir)
	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxConcurrentProbe = envInt("MAX_CONCURRENT_PROBE", cfg.MaxConcurrentProbe)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
}

func clamp(cfg *Config) {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentProbe <= 0 {
		cfg.MaxConcurrentProbe = 8
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = 350 * time.Millisecond
	}
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PMCHARVEST_API_KEY is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
