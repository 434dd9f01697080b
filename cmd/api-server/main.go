// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"travel-companion/internal/common/config"
	"travel-companion/internal/common/database"
	"travel-companion/internal/common/logger"
	"travel-companion/internal/common/observability"
	"travel-companion/internal/conversation"
	"travel-companion/internal/extractor"
	"travel-companion/internal/planner"
	"travel-companion/internal/server"
	"travel-companion/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("config load failed: %v", err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting travel companion API server...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Session Store ---
	var sessionStore store.SessionStore

	switch cfg.Database.Driver {
	case "postgres":
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		pgStore := store.NewPostgresStore(pg.GetDB())
		if err := pgStore.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("schema init failed", zap.Error(err))
		}
		sessionStore = pgStore
		zapLog.Info("PostgreSQL session store ready")

	case "redis":
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()

		sessionStore = store.NewRedisStore(redis.GetClient())
		zapLog.Info("Redis session store ready")

	case "memory":
		sessionStore = store.NewMemoryStore()
		zapLog.Warn("Using in-memory session store, sessions will not survive restarts")

	default:
		zapLog.Fatal("unknown database driver", zap.String("driver", cfg.Database.Driver))
	}

	// --- Init Upstream AI Clients ---
	extractorClient := extractor.NewClient(&extractor.Config{
		BaseURL:    cfg.APIs.GenAI.BaseURL,
		APIKey:     cfg.APIs.GenAI.APIKey,
		Timeout:    config.GetDuration(cfg.APIs.GenAI.Timeout),
		MaxRetries: cfg.APIs.GenAI.MaxRetries,
	}, &extractorLoggerAdapter{log})

	plannerPipeline := planner.NewPipeline(&planner.Config{
		BaseURL:     cfg.APIs.GenAI.BaseURL,
		APIKey:      cfg.APIs.GenAI.APIKey,
		Timeout:     config.GetDuration(cfg.Planner.Timeout),
		MaxRetries:  cfg.Planner.MaxRetries,
		MaxTokens:   cfg.Planner.MaxTokens,
		Temperature: cfg.Planner.Temperature,
	}, &plannerLoggerAdapter{log})

	manager := conversation.NewManager(
		sessionStore,
		extractorClient,
		plannerPipeline,
		&conversationLoggerAdapter{log},
		obs,
	)

	srv := server.NewServer(manager, &server.Config{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		TurnTimeout:     config.GetDuration(cfg.Server.WriteTimeout),
		MetricsGatherer: obs.Registry(),
	}, &serverLoggerAdapter{log})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("API server stopped gracefully")
}

// Logger adapters for packages that declare their own Logger interfaces
type extractorLoggerAdapter struct {
	logger.Logger
}

func (a *extractorLoggerAdapter) With(fields map[string]interface{}) extractor.Logger {
	return &extractorLoggerAdapter{a.Logger.With(fields)}
}

type plannerLoggerAdapter struct {
	logger.Logger
}

func (a *plannerLoggerAdapter) With(fields map[string]interface{}) planner.Logger {
	return &plannerLoggerAdapter{a.Logger.With(fields)}
}

type conversationLoggerAdapter struct {
	logger.Logger
}

func (a *conversationLoggerAdapter) With(fields map[string]interface{}) conversation.Logger {
	return &conversationLoggerAdapter{a.Logger.With(fields)}
}

type serverLoggerAdapter struct {
	logger.Logger
}

func (a *serverLoggerAdapter) With(fields map[string]interface{}) server.Logger {
	return &serverLoggerAdapter{a.Logger.With(fields)}
}
