package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fhirfly-backend/internal/bundles"
	"fhirfly-backend/internal/cache"
	"fhirfly-backend/internal/chatbot"
	"fhirfly-backend/internal/config"
	"fhirfly-backend/internal/database"
	"fhirfly-backend/internal/events"
	"fhirfly-backend/internal/handlers"
	"fhirfly-backend/internal/logger"
	"fhirfly-backend/internal/metrics"
	"fhirfly-backend/internal/repositories"
	"fhirfly-backend/internal/services"
	"fhirfly-backend/internal/sessions"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.InitDB(cfg)
	if err != nil {
		zlog.Fatal("Database connection failed", zap.Error(err))
	}
	zlog.Info("Database connection successful")

	rdb, err := database.InitRedis(ctx, cfg)
	if err != nil {
		zlog.Fatal("Redis connection failed", zap.Error(err))
	}
	if rdb == nil {
		zlog.Warn("REDIS_ADDR not set, sessions and search cache are in-process")
	} else {
		defer rdb.Close()
	}
	store := cache.New(rdb)
	if mem, ok := store.(*cache.Memory); ok {
		go mem.Run(ctx, time.Minute)
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			zlog.Error("Failed to close audit publisher", zap.Error(err))
		}
	}()

	uploader, err := bundles.NewUploader(ctx, cfg.BundleBucket, cfg.AWSRegion)
	if err != nil {
		zlog.Fatal("Failed to configure bundle storage", zap.Error(err))
	}
	if !uploader.Enabled() {
		zlog.Warn("BUNDLE_BUCKET not set, bundle uploads are disabled")
	}

	bot := chatbot.NewClient(cfg.GeminiAPIKey, cfg.GeminiAPIURL, zlog)
	if !bot.Configured() {
		zlog.Warn("GEMINI_API_KEY not set, chatbot requests will be refused")
	}

	collector := metrics.NewCollector("fhirfly")

	codeSystems := repositories.NewCodeSystemRepository(db)
	concepts := repositories.NewConceptRepository(db)
	conceptMaps := repositories.NewConceptMapRepository(db)
	problems := repositories.NewProblemRepository(db)

	audit := services.NewAuditService(repositories.NewAuditLogRepository(db), publisher, zlog)
	catalog := services.NewCatalogService(codeSystems, concepts, conceptMaps, audit)
	auth, err := services.NewAuthService(services.AuthConfig{
		Secret:                cfg.SigningSecret(),
		TokenTTL:              cfg.TokenTTL,
		ClinicianEmail:        cfg.ClinicianEmail,
		ClinicianPassword:     cfg.ClinicianPassword,
		ClinicianPasswordHash: cfg.ClinicianPasswordHash,
	}, sessions.NewStore(store), zlog)
	if err != nil {
		zlog.Fatal("Failed to configure auth", zap.Error(err))
	}

	h := &handlers.Handler{
		Catalog:     catalog,
		Terminology: services.NewTerminologyService(codeSystems, concepts, conceptMaps, store, cfg.SearchCacheTTL, collector, zlog),
		Problems:    services.NewProblemService(problems, collector),
		Analytics:   services.NewAnalyticsService(concepts, catalog, problems, cfg.AnalyticsSample, zlog),
		Auth:        auth,
		Audit:       audit,
		Chatbot:     bot,
		Bundles:     uploader,
		Metrics:     collector,
		Ping:        func(ctx context.Context) error { return database.Ping(ctx, db) },
		Logger:      zlog,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ListenPort,
		Handler:      handlers.NewRouter(h, cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("Starting FHIR Backend API",
			zap.String("address", srv.Addr),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	zlog.Info("Shutting down FHIR Backend API...")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server shutdown error", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		zlog.Error("Failed to close database", zap.Error(err))
	}
}
