package storage

import (
	"fmt"

	"github.com/dafioram/litter-tracker/internal"
	"github.com/dafioram/litter-tracker/internal/config"
)

// Store is the full ledger contract implemented by both backends.
type Store interface {
	EventRepository
	BlacklistRepository
	ProfileRepository
	UploadRepository
	Snapshotter
	Close() error
}

// New picks the backend from config.
func New(cfg *config.Config, logger internal.Logger) (Store, error) {
	switch cfg.StorageBackend {
	case "file":
		return NewFileStorage(cfg.EventsFile, cfg.ProfilesFile, cfg.BlacklistFile, cfg.UploadsFile, logger)
	case "postgres":
		return NewPostgresStorage(cfg.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}
