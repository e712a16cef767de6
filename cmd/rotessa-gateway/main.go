package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/rotessa-go/internal/config"
	"github.com/boddenberg/rotessa-go/internal/handler"
	"github.com/boddenberg/rotessa-go/internal/infra/observability"
	"github.com/boddenberg/rotessa-go/internal/infra/resilience"
	"github.com/boddenberg/rotessa-go/internal/infra/rotessa"
	"github.com/boddenberg/rotessa-go/internal/service"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("rotessa_sandbox", cfg.RotessaSandbox),
		zap.Duration("rotessa_timeout", cfg.RotessaTimeout),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Bool("circuit_breaker", cfg.BreakerEnabled),
		zap.Bool("tracing", cfg.TracingEnabled),
	)

	// --- Tracing ---
	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "rotessa-gateway")
		if err != nil {
			logger.Fatal("failed to init tracer", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Transport chain: instrument → breaker → bulkhead → http ---
	httpClient := &http.Client{}
	transport := resilience.BulkheadTransport(resilience.NewBulkhead(cfg.MaxConcurrency), httpClient.Do)

	var cb *gobreaker.CircuitBreaker
	if cfg.BreakerEnabled {
		cb = resilience.NewCircuitBreaker("rotessa")
		transport = resilience.BreakerTransport(cb, transport)
	}
	transport = observability.InstrumentTransport(metrics, transport)

	// --- Rotessa client ---
	client, err := rotessa.New(rotessa.Config{
		APIKey:    cfg.RotessaAPIKey,
		BaseURL:   rotessa.BaseURLFor(cfg.RotessaBaseURL, cfg.RotessaSandbox),
		Timeout:   cfg.RotessaTimeout,
		Transport: transport,
		Reporter:  observability.NewReporter(logger, metrics),
	})
	if err != nil {
		logger.Fatal("failed to build rotessa client", zap.Error(err))
	}
	logger.Info("rotessa client ready",
		zap.String("base_url", client.BaseURL()),
		zap.Duration("timeout", client.Timeout()),
	)

	// --- Services ---
	customers := service.NewCustomerDirectory(client.Customers, cfg.MaxConcurrency, metrics, logger)
	billing := service.NewBilling(client.TransactionSchedules, client.TransactionReport, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Customers: customers,
		Billing:   billing,
		Breaker:   cb,
		Metrics:   metrics,
		Logger:    logger,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RotessaTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
