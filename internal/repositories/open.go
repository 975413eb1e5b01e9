package repositories

import (
	"context"
	"fmt"

	"github.com/or73/Async-API-Pizza-Delivery/internal/config"
)

// OpenBackend builds the Backend selected by cfg.StoreDriver.
func OpenBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StoreDriver {
	case "file":
		return NewFileBackend(cfg.DataDir), nil
	case "sql":
		return OpenSQL(cfg.DBDriver, cfg.DatabaseDSN)
	case "s3":
		return OpenS3(ctx, cfg.S3)
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
