// Package main is the entry point for the chat service API server.
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

	"github.com/mental-buddy/chat-service/internal/config"
	"github.com/mental-buddy/chat-service/internal/handler"
	"github.com/mental-buddy/chat-service/internal/middleware"
	"github.com/mental-buddy/chat-service/internal/relay"
	"github.com/mental-buddy/chat-service/internal/service"
	"github.com/mental-buddy/chat-service/internal/store"
	"github.com/mental-buddy/chat-service/pkg/logger"
	"github.com/mental-buddy/chat-service/pkg/tracing"
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

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "mental-buddy-chat", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to the store
	storeClient, err := store.Connect(ctx, store.Config{
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
	defer storeClient.Close()

	chatStore, err := store.NewChatStore(ctx, storeClient)
	if err != nil {
		log.Error("failed to initialize chat store", zap.Error(err))
		os.Exit(1)
	}
	messageStore, err := store.NewMessageStore(ctx, storeClient)
	if err != nil {
		log.Error("failed to initialize message store", zap.Error(err))
		os.Exit(1)
	}

	// Initialize the relay client
	relayClient, err := relay.NewClient(relay.Provider(cfg.RelayProvider), relay.Options{
		GeminiAPIKey:    cfg.GeminiAPIKey,
		GeminiModel:     cfg.GeminiModel,
		GeminiBaseURL:   cfg.GeminiBaseURL,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
	})
	if err != nil {
		log.Error("failed to create relay client", zap.Error(err))
		os.Exit(1)
	}

	// Initialize the session controller
	controller := service.NewController(chatStore, messageStore, relayClient, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(storeClient)
	chatHandler := handler.NewChatHandler(controller, log)
	messageHandler := handler.NewMessageHandler(controller, log)
	streamHandler := handler.NewStreamHandler(controller, chatStore, messageStore, log)
	relayHandler := handler.NewRelayHandler(relayClient, log)
	uploadHandler := handler.NewUploadHandler(cfg.UploadDir, log)

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
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
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

		// Session state
		r.Get("/session", chatHandler.Session)
		r.Delete("/session", chatHandler.EndSession)
		r.Post("/session/secret-mode", chatHandler.ToggleSecretMode)

		// Bare relay and uploads
		r.Post("/chat", relayHandler.Chat)
		r.Post("/upload", uploadHandler.Upload)

		// Chats
		r.Route("/chats", func(r chi.Router) {
			r.Post("/", chatHandler.Create)
			r.Get("/", chatHandler.List)
			r.Get("/stream", streamHandler.ChatList)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", chatHandler.Get)
				r.Put("/", chatHandler.Rename)
				r.Delete("/", chatHandler.Delete)
				r.Post("/select", chatHandler.Select)

				// Messages
				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)
				r.Post("/messages/{messageID}/reaction", messageHandler.React)

				// Streaming
				r.Get("/stream", streamHandler.ChatMessages)
			})
		})
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
