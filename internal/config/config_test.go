package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// syncEnvVars lists all sync-related env vars that must be cleared between tests.
var syncEnvVars = []string{
	"DHC_SYNC_INTERVAL", "DHC_SYNC_S3_BUCKET", "DHC_SYNC_S3_ENDPOINT",
	"DHC_SYNC_S3_REGION", "DHC_SYNC_S3_KEY", "DHC_SYNC_GIT_REPO",
	"DHC_SYNC_GIT_FILE", "DHC_SYNC_GIT_BRANCH",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DHC_DATABASE_URL", "DHC_GRPC_ADDR", "DHC_HTTP_ADDR", "DHC_NATS_URL",
		"DHC_AUTH_TOKEN", "DHC_REGISTRY_FILE",
	} {
		t.Setenv(key, "")
	}
	for _, key := range syncEnvVars {
		t.Setenv(key, "")
	}
	// Point at a file that does not exist so a stray .env cannot leak in.
	t.Setenv("DHC_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantGRPCAddr string
		wantHTTPAddr string
		wantNATSURL  string
	}{
		{
			name:    "MissingDatabaseURL",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:         "DefaultAddresses",
			env:          map[string]string{"DHC_DATABASE_URL": "postgres://localhost/datahub"},
			wantGRPCAddr: ":9090",
			wantHTTPAddr: ":8080",
		},
		{
			name: "CustomAddresses",
			env: map[string]string{
				"DHC_DATABASE_URL": "postgres://db:5432/datahub",
				"DHC_GRPC_ADDR":    ":5050",
				"DHC_HTTP_ADDR":    ":3000",
				"DHC_NATS_URL":     "nats://localhost:4222",
			},
			wantGRPCAddr: ":5050",
			wantHTTPAddr: ":3000",
			wantNATSURL:  "nats://localhost:4222",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.DatabaseURL != tc.env["DHC_DATABASE_URL"] {
				t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, tc.env["DHC_DATABASE_URL"])
			}
			if cfg.GRPCAddr != tc.wantGRPCAddr {
				t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, tc.wantGRPCAddr)
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
		})
	}
}

func TestLoadRegistryFileAndToken(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("DHC_DATABASE_URL", "postgres://localhost/datahub")
	t.Setenv("DHC_REGISTRY_FILE", "/etc/dhc/registry.yaml")
	t.Setenv("DHC_AUTH_TOKEN", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RegistryFile != "/etc/dhc/registry.yaml" {
		t.Errorf("RegistryFile = %q", cfg.RegistryFile)
	}
	if cfg.AuthToken != "s3cret" {
		t.Errorf("AuthToken = %q", cfg.AuthToken)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("DHC_HTTP_ADDR", "")
	// Unset (not just empty) so the file value can apply.
	os.Unsetenv("DHC_DATABASE_URL")
	os.Unsetenv("DHC_HTTP_ADDR")
	t.Setenv("DHC_GRPC_ADDR", ":7070")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "DHC_DATABASE_URL=postgres://from-file/datahub\nDHC_HTTP_ADDR=:8181\nDHC_GRPC_ADDR=:1111\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DHC_ENV_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://from-file/datahub" {
		t.Errorf("DatabaseURL = %q, want value from env file", cfg.DatabaseURL)
	}
	if cfg.HTTPAddr != ":8181" {
		t.Errorf("HTTPAddr = %q, want :8181", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr != ":7070" {
		t.Errorf("GRPCAddr = %q, env file must not override the environment", cfg.GRPCAddr)
	}
}

func TestLoadEnvFileMalformed(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("DHC_DATABASE_URL", "postgres://localhost/datahub")
	path := filepath.Join(t.TempDir(), "bad.env")
	if err := os.WriteFile(path, []byte("KEY='unterminated\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DHC_ENV_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed env file")
	}
}

func TestLoadSyncDefaults(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("DHC_DATABASE_URL", "postgres://localhost/datahub")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != 10*time.Minute {
		t.Errorf("SyncInterval = %v, want 10m", cfg.SyncInterval)
	}
	if cfg.SyncS3Region != "us-east-1" {
		t.Errorf("SyncS3Region = %q, want %q", cfg.SyncS3Region, "us-east-1")
	}
	if cfg.SyncS3Key != "datahub/compliance.jsonl" {
		t.Errorf("SyncS3Key = %q, want %q", cfg.SyncS3Key, "datahub/compliance.jsonl")
	}
	if cfg.SyncGitFile != "compliance.jsonl" {
		t.Errorf("SyncGitFile = %q, want %q", cfg.SyncGitFile, "compliance.jsonl")
	}
	if cfg.SyncGitBranch != "main" {
		t.Errorf("SyncGitBranch = %q, want %q", cfg.SyncGitBranch, "main")
	}
}

func TestLoadSyncCustom(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("DHC_DATABASE_URL", "postgres://localhost/datahub")
	t.Setenv("DHC_SYNC_INTERVAL", "1h")
	t.Setenv("DHC_SYNC_S3_BUCKET", "my-bucket")
	t.Setenv("DHC_SYNC_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("DHC_SYNC_S3_REGION", "eu-west-1")
	t.Setenv("DHC_SYNC_S3_KEY", "custom/key.jsonl")
	t.Setenv("DHC_SYNC_GIT_REPO", "/tmp/repo")
	t.Setenv("DHC_SYNC_GIT_FILE", "custom.jsonl")
	t.Setenv("DHC_SYNC_GIT_BRANCH", "backup")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != time.Hour {
		t.Errorf("SyncInterval = %v, want 1h", cfg.SyncInterval)
	}
	if cfg.SyncS3Bucket != "my-bucket" {
		t.Errorf("SyncS3Bucket = %q", cfg.SyncS3Bucket)
	}
	if cfg.SyncS3Endpoint != "http://minio:9000" {
		t.Errorf("SyncS3Endpoint = %q", cfg.SyncS3Endpoint)
	}
	if cfg.SyncS3Region != "eu-west-1" {
		t.Errorf("SyncS3Region = %q", cfg.SyncS3Region)
	}
	if cfg.SyncS3Key != "custom/key.jsonl" {
		t.Errorf("SyncS3Key = %q", cfg.SyncS3Key)
	}
	if cfg.SyncGitRepo != "/tmp/repo" {
		t.Errorf("SyncGitRepo = %q", cfg.SyncGitRepo)
	}
	if cfg.SyncGitFile != "custom.jsonl" {
		t.Errorf("SyncGitFile = %q", cfg.SyncGitFile)
	}
	if cfg.SyncGitBranch != "backup" {
		t.Errorf("SyncGitBranch = %q", cfg.SyncGitBranch)
	}
}

func TestLoadSyncInvalidInterval(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("DHC_DATABASE_URL", "postgres://localhost/datahub")
	t.Setenv("DHC_SYNC_INTERVAL", "not-a-duration")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid DHC_SYNC_INTERVAL")
	}
}

func TestLoadSyncDisabled(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("DHC_DATABASE_URL", "postgres://localhost/datahub")
	t.Setenv("DHC_SYNC_INTERVAL", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != 0 {
		t.Errorf("SyncInterval = %v, want 0 (disabled)", cfg.SyncInterval)
	}
}

func TestEnvOrDefault(t *testing.T) {
	for _, tc := range []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"EmptyUsesDefault", "TEST_ENVDEFAULT_EMPTY", "", "default-val", "default-val"},
		{"SetUsesEnv", "TEST_ENVDEFAULT_SET", "custom", "default-val", "custom"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envVal)
			got := envOrDefault(tc.key, tc.fallback)
			if got != tc.want {
				t.Errorf("envOrDefault(%q, %q) = %q, want %q", tc.key, tc.fallback, got, tc.want)
			}
		})
	}
}
