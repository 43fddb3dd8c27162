package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rtc-orchestrator/internal/agora"
	"rtc-orchestrator/internal/orchestrator"
	"rtc-orchestrator/internal/osstore"
	"rtc-orchestrator/internal/platform/config"
	"rtc-orchestrator/internal/platform/logger"
	"rtc-orchestrator/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

// Storage vendor/region codes of the recording provider: 2 = Alibaba Cloud
// OSS, 7 = Hong Kong.
const (
	storageVendorOSS      = 2
	storageRegionHongKong = 7
)

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)

	ossAccessKey := config.GetEnv("OSS_ACCESS_KEY_ID", "")
	ossSecretKey := config.GetEnv("OSS_ACCESS_KEY_SECRET", "")
	ossEndpoint := config.GetEnv("OSS_ENDPOINT", "https://oss-cn-hangzhou.aliyuncs.com")
	ossBucket := config.GetEnv("OSS_BUCKET_NAME", "")

	minter := agora.NewTokenMinter(
		config.GetEnv("AGORA_APP_ID", ""),
		config.GetEnv("AGORA_APP_CERTIFICATE", ""),
	)
	provider := agora.NewClient(agora.Config{
		AppID:          config.GetEnv("AGORA_APP_ID", ""),
		CustomerID:     config.GetEnv("AGORA_CUSTOMER_ID", ""),
		CustomerSecret: config.GetEnv("AGORA_CUSTOMER_SECRET", ""),
		BaseURL:        config.GetEnv("AGORA_BASE_URL", agora.DefaultBaseURL),
		Storage: agora.StorageConfig{
			Vendor:    storageVendorOSS,
			Region:    storageRegionHongKong,
			Bucket:    ossBucket,
			AccessKey: ossAccessKey,
			SecretKey: ossSecretKey,
		},
	})
	objects, err := osstore.NewClient(ossEndpoint, ossAccessKey, ossSecretKey, ossBucket)
	if err != nil {
		log.Error("object store init failed", "error", err)
		os.Exit(1)
	}

	registry := orchestrator.NewInMemoryRegistry()
	svc := orchestrator.NewService(registry, minter, provider, objects, orchestrator.ServiceOptions{
		CallTimeout: config.GetEnvDuration("UPSTREAM_TIMEOUT", orchestrator.DefaultCallTimeout),
		TokenTTL:    config.GetEnvDuration("TOKEN_TTL", orchestrator.DefaultTokenTTL),
		PresignTTL:  config.GetEnvDuration("PRESIGN_TTL", orchestrator.DefaultPresignTTL),
	})
	met := metrics.New()
	h := orchestrator.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		met.Handler(func() { met.SetActiveRecordings(registry.ActiveRecordingCount()) }).ServeHTTP(w, req)
	})
	r.Mount("/api/v1", h.Routes())

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
