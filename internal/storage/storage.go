// Package storage opens the diet.Repository selected by configuration.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lg/calorie-dashboard-api/internal/config"
	"lg/calorie-dashboard-api/internal/diet"
	"lg/calorie-dashboard-api/internal/storage/docstore"
	"lg/calorie-dashboard-api/internal/storage/gormstore"
	"lg/calorie-dashboard-api/internal/storage/memory"
	"lg/calorie-dashboard-api/internal/storage/postgres"
)

// Open connects the configured backend. today is the date a legacy
// document-store migration files its log under. The returned func
// releases the backend.
func Open(ctx context.Context, cfg *config.Config, today string, log *zap.Logger) (diet.Repository, func(), error) {
	noop := func() {}
	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := postgres.Connect(ctx, cfg.DBURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.New(pool, log), pool.Close, nil

	case config.StorageSQLite, config.StorageGormPostgres:
		var (
			repo *gormstore.Repository
			err  error
		)
		if cfg.Storage == config.StorageSQLite {
			repo, err = gormstore.OpenSQLite(cfg.SQLitePath)
		} else {
			repo, err = gormstore.OpenPostgres(cfg.DBURL)
		}
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil

	case config.StorageFile:
		backend, err := docstore.NewFileBackend(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		repo, err := docstore.Open(ctx, backend, today, log)
		if err != nil {
			return nil, nil, err
		}
		return repo, noop, nil

	case config.StorageS3:
		backend, err := docstore.NewS3BackendFromEnv(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, nil, err
		}
		repo, err := docstore.Open(ctx, backend, today, log)
		if err != nil {
			return nil, nil, err
		}
		return repo, noop, nil

	case config.StorageMemory:
		return memory.New(), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}
