package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tokosmart/restock-backend/internal/api"
	"github.com/tokosmart/restock-backend/internal/cache"
	"github.com/tokosmart/restock-backend/internal/config"
	"github.com/tokosmart/restock-backend/internal/ingest"
	"github.com/tokosmart/restock-backend/internal/model"
	"github.com/tokosmart/restock-backend/internal/repository/postgres"
	"github.com/tokosmart/restock-backend/internal/service"
	"github.com/tokosmart/restock-backend/internal/storage"
	"github.com/tokosmart/restock-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Load model artifacts once; they are immutable for the process
	// lifetime and shared across requests.
	restockModel, forecastModel, itemCodes, err := loadArtifacts(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to load model artifacts: %v", err)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewRecommendationRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}

	resultCache, err := cache.NewResultCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("result cache unavailable, continuing without it")
		resultCache = nil
	}

	svc := service.NewRestockService(
		restockModel.Forest,
		forecastModel.Forest,
		itemCodes,
		cfg.App.HorizonDays,
		repo,
		resultCache,
	)

	// Watch the inbox for dropped stock files.
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	go func() {
		watcher := ingest.NewWatcher(cfg.App.InboxDir, cfg.App.OutputDir, svc)
		if err := watcher.Run(watchCtx); err != nil {
			logger.Log.Error().Err(err).Msg("inbox watcher stopped")
		}
	}()

	// Initialize HTTP server
	router := api.NewRouter(svc, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	cancelWatch()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// loadArtifacts loads the two models and the identity map, from the
// configured S3-compatible bucket when enabled, otherwise from local
// files. The three loads run concurrently.
func loadArtifacts(ctx context.Context, cfg *config.Config) (*model.Artifact, *model.Artifact, model.ItemCodeMap, error) {
	var store storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return nil, nil, nil, err
		}
		store = client
	}

	var (
		restockModel  *model.Artifact
		forecastModel *model.Artifact
		itemCodes     model.ItemCodeMap
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		restockModel, err = loadModel(gctx, store, cfg.Model.ArtifactPath)
		return err
	})
	g.Go(func() (err error) {
		forecastModel, err = loadModel(gctx, store, cfg.Model.ForecastPath)
		return err
	})
	g.Go(func() (err error) {
		if store != nil {
			data, ferr := store.FetchObject(gctx, filepath.Base(cfg.Model.ItemCodePath))
			if ferr != nil {
				return ferr
			}
			itemCodes, err = model.ParseItemCodes(data, cfg.Model.ItemCodePath)
			return err
		}
		itemCodes, err = model.LoadItemCodes(cfg.Model.ItemCodePath)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return restockModel, forecastModel, itemCodes, nil
}

func loadModel(ctx context.Context, store storage.ObjectStorage, path string) (*model.Artifact, error) {
	if store != nil {
		data, err := store.FetchObject(ctx, filepath.Base(path))
		if err != nil {
			return nil, err
		}
		return model.Parse(data, path)
	}
	return model.Load(path)
}
