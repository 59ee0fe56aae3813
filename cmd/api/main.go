package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oakhealth/medrag/internal/api/router"
	appconfig "github.com/oakhealth/medrag/internal/config"
	"github.com/oakhealth/medrag/internal/diagnosis"
	"github.com/oakhealth/medrag/internal/enrich"
	"github.com/oakhealth/medrag/internal/http/handlers"
	"github.com/oakhealth/medrag/internal/observability/metrics"
	"github.com/oakhealth/medrag/pkg/logging"
)

func main() {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting medrag API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"diagnosis_backend", cfg.DiagnosisBaseURL,
	)

	// Conversation memory and enrichment engine
	memory := enrich.NewMemory(logger,
		enrich.WithHistoryLimit(cfg.HistoryLimit),
		enrich.WithContextWindow(cfg.ContextWindow),
	)
	engine := enrich.NewEngine(memory, logger)
	logger.Info("enrichment engine initialized",
		"symptom_patterns", engine.CatalogSize(),
		"entity_patterns", engine.EntityCategories(),
	)

	// Diagnosis backend client
	backend := diagnosis.NewClient(cfg.DiagnosisBaseURL,
		diagnosis.WithTimeout(cfg.DiagnosisTimeout),
		diagnosis.WithHealthPath(cfg.DiagnosisHealthPath),
		diagnosis.WithLogger(logger),
	)

	// Metrics
	registry := prometheus.NewRegistry()
	m := metrics.NewEnrichmentMetrics(registry, func() float64 {
		return float64(memory.Count())
	})

	// Initialize handlers
	started := time.Now()
	chatHandler := handlers.NewChatHandler(engine, backend, m, logger, cfg.DefaultMaxTokens, cfg.DefaultTemperature)
	sessionsHandler := handlers.NewSessionsHandler(engine, logger, started)
	healthHandler := handlers.NewHealthHandler(memory, backend)

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		Chat:               chatHandler,
		Sessions:           sessionsHandler,
		Health:             healthHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.DiagnosisTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
