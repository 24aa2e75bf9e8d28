package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"clipstream/internal/adapters/download"
	"clipstream/internal/adapters/eventbroker/nats"
	chirouter "clipstream/internal/adapters/handlers/http/chi"
	"clipstream/internal/adapters/handlers/http/chi/v1/playback"
	"clipstream/internal/adapters/handlers/http/chi/v1/queue"
	uploadhandler "clipstream/internal/adapters/handlers/http/chi/v1/upload"
	"clipstream/internal/adapters/media/ffmpeg"
	"clipstream/internal/adapters/queuestore/sqlite"
	"clipstream/internal/adapters/storage/minio"
	"clipstream/internal/config"
	"clipstream/internal/core/port"
	"clipstream/internal/core/service/contentcache"
	"clipstream/internal/core/service/processor"
	"clipstream/internal/core/service/scheduler"
	"clipstream/internal/core/service/upload"
)

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	//storage backend
	minioAdapter, err := minio.NewAdapter(ctx, cfg.Minio, logger)
	if err != nil {
		logger.Error("failed to init minio", "error", err)
		os.Exit(1)
	}

	//durable queue snapshot
	queueStore, err := sqlite.Open(cfg.Store.DataDir)
	if err != nil {
		logger.Error("failed to open queue store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueStore.Close(); err != nil {
			logger.Error("failed to close queue store", "error", err)
		}
	}()

	//event broker is optional
	var events port.EventPublisher
	if cfg.NATS.URL != "" {
		publisher, pubErr := nats.NewPublisher(ctx, cfg.NATS, logger)
		if pubErr != nil {
			logger.Error("failed to init nats publisher", "error", pubErr)
			os.Exit(1)
		}
		events = publisher
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("failed to close nats publisher", "error", err)
			}
		}()
	}

	//media tooling
	mediaAdapter := ffmpeg.NewAdapter(cfg.FFmpeg, ffmpeg.NewCommandRunner(), logger)

	//services
	cache, err := contentcache.NewCache(cfg.Cache, download.NewHTTPDownloader(cfg.Cache.DownloadTimeout), logger)
	if err != nil {
		logger.Error("failed to init content cache", "error", err)
		os.Exit(1)
	}

	uploadScheduler := scheduler.NewScheduler(cfg.Scheduler, minioAdapter, queueStore, events, logger)
	if restored, restoreErr := uploadScheduler.Restore(ctx); restoreErr != nil {
		logger.Error("failed to restore upload queue", "error", restoreErr)
	} else {
		logger.Info("upload queue ready", "restored", restored)
	}

	videoProcessor, err := processor.NewProcessor(cfg.Processing, mediaAdapter, mediaAdapter, mediaAdapter, logger)
	if err != nil {
		logger.Error("failed to init processor", "error", err)
		os.Exit(1)
	}

	orchestrator := upload.NewOrchestrator(videoProcessor, uploadScheduler, cache, events, logger)

	//http
	intakeDir := filepath.Join(cfg.Processing.WorkDir, "intake")
	uploadHandler := uploadhandler.NewUploadHandlerV1(orchestrator, intakeDir, logger)
	queueHandler := queue.NewQueueHandlerV1(uploadScheduler, logger)
	playbackHandler := playback.NewPlaybackHandlerV1(cache, logger)

	router := chirouter.NewRouter(logger, uploadHandler, queueHandler, playbackHandler, cfg.Env.Env)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		servErr := server.ListenAndServe()
		if servErr != nil && !errors.Is(servErr, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", servErr)
			stop()
		}
	}()

	// expired cache entries are swept in the background
	wg.Add(1)
	go func() {
		defer wg.Done()
		cache.RunJanitor(ctx)
	}()

	//wait for context cancel
	<-ctx.Done()
	logger.Info("gracefully shutting down app")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	} else {
		logger.Info("server gracefully shutdown complete")
	}

	if err := uploadScheduler.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to drain upload scheduler", "error", err)
	} else {
		logger.Info("upload scheduler drained")
	}

	wg.Wait()
	logger.Info("app shutdown complete")

}
