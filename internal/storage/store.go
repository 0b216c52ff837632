package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"pet-tracker/internal/config"
	"pet-tracker/internal/database"
)

// Store is a string-keyed key-value store with a lifetime.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

// DatabaseFile is the SQLite file name under the storage data_dir.
const DatabaseFile = "pettrack.db"

// NewStoreFromConfig creates a Store implementation based on the storage config type.
func NewStoreFromConfig(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite storage")
		}
		s, err := database.NewSQLiteStore(filepath.Join(cfg.DataDir, DatabaseFile))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for filesystem storage")
		}
		s, err := NewFileSystemStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "s3":
		s, err := NewS3Store(ctx, S3Config{
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileSystemStore)(nil)
	_ Store = (*S3Store)(nil)
	_ Store = (*database.SQLiteStore)(nil)
)
