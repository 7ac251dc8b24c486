package api

import (
	"github.com/dafioram/litter-tracker/internal"
	"github.com/dafioram/litter-tracker/internal/ingest"
	"github.com/dafioram/litter-tracker/internal/storage"
)

// App is the dependency surface handlers pull from.
type App interface {
	Logger() internal.Logger
	Store() storage.Store
	Ingestor() *ingest.Ingestor
}
