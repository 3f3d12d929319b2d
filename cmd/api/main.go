// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pulselabs/conversation-pulse/internal/cache"
	"github.com/pulselabs/conversation-pulse/internal/config"
	"github.com/pulselabs/conversation-pulse/internal/handler"
	"github.com/pulselabs/conversation-pulse/internal/llm"
	"github.com/pulselabs/conversation-pulse/internal/middleware"
	natsclient "github.com/pulselabs/conversation-pulse/internal/nats"
	"github.com/pulselabs/conversation-pulse/internal/service"
	"github.com/pulselabs/conversation-pulse/pkg/logger"
	"github.com/pulselabs/conversation-pulse/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting conversation pulse API")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "conversation-pulse", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS and ensure the pulse stream exists. When disabled,
	// the services run without event publishing.
	var natsClient *natsclient.Client
	var publisher service.EventPublisher
	if cfg.NATSEnabled {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure stream", zap.Error(err))
			os.Exit(1)
		}
		publisher = streamManager
	} else {
		log.Info("NATS disabled, event publishing off")
	}

	// Initialize the LLM enricher when a provider key is configured.
	var enricher *llm.Enricher
	if cfg.LLMConfigured() {
		apiKey := cfg.AnthropicAPIKey
		if llm.Provider(cfg.LLMProvider) == llm.ProviderOpenAI {
			apiKey = cfg.OpenAIAPIKey
		}
		llmClient, err := llm.NewClient(llm.Provider(cfg.LLMProvider), apiKey)
		if err != nil {
			log.Warn("failed to create LLM client, narrative enrichment disabled", zap.Error(err))
		} else {
			enricher = llm.NewEnricher(llmClient, cfg.LLMModel)
		}
	}

	// Initialize services. The analysis cache is shared so conversation
	// mutations invalidate cached analyses.
	analysisCache := cache.NewMemoryCache()
	conversationSvc := service.NewConversationService(publisher, analysisCache, log)
	analysisSvc := service.NewAnalysisService(
		conversationSvc,
		analysisCache,
		publisher,
		enricher,
		log,
		cfg.AnalysisCacheTTL,
		cfg.AnalysisMaxConcurrent,
	)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	turnHandler := handler.NewTurnHandler(conversationSvc, log)
	analysisHandler := handler.NewAnalysisHandler(analysisSvc, conversationSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Delete("/", conversationHandler.Delete)

				// Turns
				r.Post("/turns", turnHandler.Append)
				r.Get("/turns", turnHandler.List)

				// Analysis
				r.Group(func(r chi.Router) {
					r.Use(middleware.AnalysisRateLimit(cfg.AnalysisRateRequests, cfg.AnalysisRateWindow))
					r.Post("/analysis", analysisHandler.Analyze)
					r.Get("/report", analysisHandler.Report)
				})
			})
		})

		// Batch analysis
		r.Group(func(r chi.Router) {
			r.Use(middleware.AnalysisRateLimit(cfg.AnalysisRateRequests, cfg.AnalysisRateWindow))
			r.Post("/analyses/batch", analysisHandler.BatchAnalyze)
		})

		// Chat-log import
		r.Post("/import", analysisHandler.Import)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
