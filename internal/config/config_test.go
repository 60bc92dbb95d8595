package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"plancore/internal/blob"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Fatalf("storage driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Blob.Driver != "fs" {
		t.Fatalf("blob driver = %q, want fs", cfg.Blob.Driver)
	}
	if cfg.StatePath != "plancore.state.json" {
		t.Fatalf("state path = %q", cfg.StatePath)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plancore.yaml")
	payload := `
storage:
  driver: postgres
  postgres_dsn: postgres://db.internal/plancore
blob:
  driver: s3
  bucket: plancore-exports
  region: eu-central-1
  path_style: true
state_path: /var/lib/plancore/state.json
url_key: proj
user: u1
`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.PostgresDSN != "postgres://db.internal/plancore" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Blob.Driver != "s3" || cfg.Blob.Bucket != "plancore-exports" || !cfg.Blob.PathStyle {
		t.Fatalf("blob = %+v", cfg.Blob)
	}
	if cfg.StatePath != "/var/lib/plancore/state.json" || cfg.URLKey != "proj" || cfg.User != "u1" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plancore.yaml")
	if err := os.WriteFile(path, []byte("storage: [not a map"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plancore.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  driver: sqlite\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PLANCORE_STORAGE_DRIVER", "memory")
	t.Setenv("PLANCORE_BLOB_DRIVER", "memory")
	t.Setenv("PLANCORE_USER", "env-user")
	t.Setenv("PLANCORE_BLOB_PATH_STYLE", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "memory" || cfg.Blob.Driver != "memory" {
		t.Fatalf("env override missed: %+v", cfg)
	}
	if cfg.User != "env-user" || !cfg.Blob.PathStyle {
		t.Fatalf("env override missed: %+v", cfg)
	}
}

func TestOpenBackendMemory(t *testing.T) {
	backend, err := OpenBackend(StorageConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer backend.Close()
}

func TestOpenBackendSQLite(t *testing.T) {
	backend, err := OpenBackend(StorageConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "records.db"),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer backend.Close()
}

func TestOpenBackendUnknownDriver(t *testing.T) {
	if _, err := OpenBackend(StorageConfig{Driver: "dynamo"}); err == nil {
		t.Fatal("expected unknown driver error")
	}
}

func TestOpenBlobDrivers(t *testing.T) {
	ctx := context.Background()
	store, err := OpenBlob(ctx, BlobConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != blob.DriverMemory {
		t.Fatalf("driver = %q", store.Driver())
	}

	store, err = OpenBlob(ctx, BlobConfig{Driver: "fs", Root: t.TempDir()})
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != blob.DriverFilesystem {
		t.Fatalf("driver = %q", store.Driver())
	}

	if _, err := OpenBlob(ctx, BlobConfig{Driver: "tape"}); err == nil {
		t.Fatal("expected unknown driver error")
	}
}
