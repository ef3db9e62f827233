package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"riskintel/internal/app"
	"riskintel/internal/config"
	"riskintel/internal/ratelimit"
	"riskintel/internal/server"
	"riskintel/internal/usertoken"
	"riskintel/internal/util"
	"riskintel/pkg/ai"
	"riskintel/pkg/queue"
	"riskintel/pkg/storage"
	"riskintel/pkg/store"
	"riskintel/pkg/tts"
)

const (
	reportMaxTokens  = 700
	podcastMaxTokens = 1200
	workerCount      = 2
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	dataStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init postgres store: %v", err)
	}

	var objects storage.ObjectStore
	switch cfg.StorageBackend {
	case config.BackendS3:
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	default:
		objects, err = storage.NewFileStore(cfg.LocalStoragePath)
	}
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	tokenVerifier, err := usertoken.New(cfg.AuthSecret)
	if err != nil {
		log.Fatalf("failed to init token verifier: %v", err)
	}

	adapterTimeout := time.Duration(cfg.AdapterTimeoutSeconds) * time.Second
	reportGen := ai.NewOpenAICompatGenerator(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel, reportMaxTokens, adapterTimeout)
	podcastGen := ai.NewOpenAICompatGenerator(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel, podcastMaxTokens, adapterTimeout)
	synth := tts.NewElevenLabsSynthesizer(cfg.ElevenLabsBaseURL, cfg.ElevenLabsAPIKey, adapterTimeout)

	var genLimiter *ratelimit.FixedWindowLimiter
	var reportQueue *queue.ReportJobQueue
	if cfg.RedisAddr != "" {
		if cfg.RateLimitPerMinute > 0 {
			genLimiter, err = ratelimit.New(cfg.RedisAddr, cfg.RedisPassword, "riskintel:ratelimit:generate", cfg.RateLimitPerMinute, time.Minute)
			if err != nil {
				log.Fatalf("failed to init rate limiter: %v", err)
			}
		}
		reportQueue, err = queue.New(queue.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.ReportQueueStream,
		})
		if err != nil {
			log.Fatalf("failed to init report queue: %v", err)
		}
	}

	appCfg := app.Config{
		Store:             dataStore,
		Objects:           objects,
		ReportGenerator:   reportGen,
		PodcastGenerator:  podcastGen,
		Synthesizer:       synth,
		VoiceID:           cfg.VoiceID,
		DefaultQuotaBytes: cfg.DefaultQuotaMB << 20,
		PresignExpiry:     time.Duration(cfg.PresignExpiryMinutes) * time.Minute,
	}
	if reportQueue != nil {
		appCfg.Queue = reportQueue
	}
	appCore, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if reportQueue != nil {
		reportQueue.Start(ctx, workerCount, appCore.ProcessReport)
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		TokenVerifier:  tokenVerifier,
		GenLimiter:     genLimiter,
		TrustForwarded: cfg.TrustForwardedHeaders,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("riskintel server listening", "addr", addr, "storage_backend", cfg.StorageBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
