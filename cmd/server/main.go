package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/dafioram/litter-tracker/internal"
	"github.com/dafioram/litter-tracker/internal/api"
	"github.com/dafioram/litter-tracker/internal/auth"
	"github.com/dafioram/litter-tracker/internal/config"
	"github.com/dafioram/litter-tracker/internal/ingest"
	"github.com/dafioram/litter-tracker/internal/storage"
)

type app struct {
	logger   internal.Logger
	store    storage.Store
	ingestor *ingest.Ingestor
}

func (a *app) Logger() internal.Logger    { return a.logger }
func (a *app) Store() storage.Store       { return a.store }
func (a *app) Ingestor() *ingest.Ingestor { return a.ingestor }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	store, err := storage.New(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}
	defer store.Close()

	a := &app{
		logger:   logger,
		store:    store,
		ingestor: ingest.NewIngestor(store, cfg, logger),
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	provider := auth.NewStaticProvider(cfg.APIToken)
	r := api.Router(a, provider, cfg.APIToken != "")

	logger.Infof("server running on :%s (storage=%s, tz_offset=%dh, tolerance=%.1flbs)",
		cfg.Port, cfg.StorageBackend, cfg.TimezoneOffset, cfg.WeightTolerance)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatalf("failed to start server: %v", err)
	}
}
