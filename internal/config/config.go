package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string // DHC_DATABASE_URL (required)
	GRPCAddr     string // DHC_GRPC_ADDR (default ":9090")
	HTTPAddr     string // DHC_HTTP_ADDR (default ":8080")
	NATSURL      string // DHC_NATS_URL (optional, empty = no events)
	AuthToken    string // DHC_AUTH_TOKEN (optional, empty = auth disabled)
	RegistryFile string // DHC_REGISTRY_FILE (optional, empty = embedded registry)

	// Sync settings
	SyncInterval   time.Duration // DHC_SYNC_INTERVAL (default 10m; 0 = disabled)
	SyncS3Bucket   string        // DHC_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // DHC_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // DHC_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // DHC_SYNC_S3_KEY (default "datahub/compliance.jsonl")
	SyncGitRepo    string        // DHC_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // DHC_SYNC_GIT_FILE (default "compliance.jsonl")
	SyncGitBranch  string        // DHC_SYNC_GIT_BRANCH (default "main")
}

// Load reads the configuration from the environment. Variables from the file
// named by DHC_ENV_FILE (default ".env") are applied first without
// overriding anything already set; a missing file is not an error.
func Load() (*Config, error) {
	if err := loadEnvFile(envOrDefault("DHC_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	c := &Config{
		DatabaseURL:    os.Getenv("DHC_DATABASE_URL"),
		GRPCAddr:       envOrDefault("DHC_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("DHC_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("DHC_NATS_URL"),
		AuthToken:      os.Getenv("DHC_AUTH_TOKEN"),
		RegistryFile:   os.Getenv("DHC_REGISTRY_FILE"),
		SyncS3Bucket:   os.Getenv("DHC_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("DHC_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("DHC_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("DHC_SYNC_S3_KEY", "datahub/compliance.jsonl"),
		SyncGitRepo:    os.Getenv("DHC_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("DHC_SYNC_GIT_FILE", "compliance.jsonl"),
		SyncGitBranch:  envOrDefault("DHC_SYNC_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DHC_DATABASE_URL is required")
	}

	intervalStr := envOrDefault("DHC_SYNC_INTERVAL", "10m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("DHC_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	return c, nil
}

func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
