package main

import (
	"context"
	"fmt"

	"github.com/conorfennell/knoldeck/internal/config"
	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/progress"
	"github.com/conorfennell/knoldeck/internal/storage"
)

type progressStore interface {
	LoadProgress(ctx context.Context, username string) (domain.UserProgress, error)
	SaveProgress(ctx context.Context, username string, p domain.UserProgress) error
	Close() error
}

type fileStore struct {
	*progress.FileStore
}

func (fileStore) Close() error { return nil }

func openStore(cfg config.ProgressConfig) (progressStore, error) {
	switch cfg.Backend {
	case "file":
		return fileStore{progress.NewFileStore(cfg.Path)}, nil
	case "sqlite":
		db, err := storage.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open progress database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown progress backend %q", cfg.Backend)
	}
}
