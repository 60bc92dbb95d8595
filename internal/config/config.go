// Package config loads runtime configuration from a YAML file with
// environment variable overrides, and opens the storage and blob backends
// it describes.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"plancore/internal/blob"
	"plancore/internal/recordsvc"
	"plancore/internal/recordsvc/memory"
	"plancore/internal/recordsvc/postgres"
	"plancore/internal/recordsvc/sqlite"
)

// StorageConfig selects the record backend.
type StorageConfig struct {
	// Driver is one of "memory", "sqlite", "postgres". Empty means sqlite.
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// BlobConfig selects the blob backend used for exports.
type BlobConfig struct {
	// Driver is one of "fs", "s3", "memory". Empty means fs.
	Driver          string `yaml:"driver"`
	Root            string `yaml:"root"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

// Config is the full runtime configuration.
type Config struct {
	Storage   StorageConfig `yaml:"storage"`
	Blob      BlobConfig    `yaml:"blob"`
	StatePath string        `yaml:"state_path"`
	URLKey    string        `yaml:"url_key"`
	User      string        `yaml:"user"`
}

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "plancore.yaml"

// Load reads configuration from path (or DefaultPath when empty), applies
// environment overrides, and fills defaults. A missing file is not an
// error: defaults plus environment apply.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}
	var cfg Config
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIf := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setIf(&c.Storage.Driver, "PLANCORE_STORAGE_DRIVER")
	setIf(&c.Storage.SQLitePath, "PLANCORE_SQLITE_PATH")
	setIf(&c.Storage.PostgresDSN, "PLANCORE_POSTGRES_DSN")
	setIf(&c.Blob.Driver, "PLANCORE_BLOB_DRIVER")
	setIf(&c.Blob.Root, "PLANCORE_BLOB_ROOT")
	setIf(&c.Blob.Bucket, "PLANCORE_BLOB_BUCKET")
	setIf(&c.Blob.Region, "PLANCORE_BLOB_REGION")
	setIf(&c.Blob.Endpoint, "PLANCORE_BLOB_ENDPOINT")
	setIf(&c.Blob.Prefix, "PLANCORE_BLOB_PREFIX")
	setIf(&c.Blob.AccessKeyID, "PLANCORE_BLOB_ACCESS_KEY_ID")
	setIf(&c.Blob.SecretAccessKey, "PLANCORE_BLOB_SECRET_ACCESS_KEY")
	setIf(&c.StatePath, "PLANCORE_STATE_PATH")
	setIf(&c.URLKey, "PLANCORE_URL_KEY")
	setIf(&c.User, "PLANCORE_USER")
	if v := os.Getenv("PLANCORE_BLOB_PATH_STYLE"); v != "" {
		c.Blob.PathStyle = v == "1" || strings.EqualFold(v, "true")
	}
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Blob.Driver == "" {
		c.Blob.Driver = string(blob.DriverFilesystem)
	}
	if c.StatePath == "" {
		c.StatePath = "plancore.state.json"
	}
	if c.User == "" {
		c.User = os.Getenv("USER")
	}
}

// OpenBackend opens the record backend named by the storage config.
func OpenBackend(cfg StorageConfig) (recordsvc.Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		return sqlite.NewStore(cfg.SQLitePath)
	case "postgres":
		return postgres.NewStore(cfg.PostgresDSN)
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// OpenBlob opens the blob store named by the blob config.
func OpenBlob(ctx context.Context, cfg BlobConfig) (blob.Store, error) {
	switch blob.Driver(strings.ToLower(cfg.Driver)) {
	case blob.DriverFilesystem, "":
		return blob.NewFSStore(cfg.Root)
	case blob.DriverS3:
		return blob.NewS3Store(ctx, blob.S3Config{
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			PathStyle:       cfg.PathStyle,
			Prefix:          cfg.Prefix,
		})
	case blob.DriverMemory:
		return blob.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
