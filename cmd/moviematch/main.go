package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/Belphemur/MovieMatch/internal/account"
	"github.com/Belphemur/MovieMatch/internal/api"
	"github.com/Belphemur/MovieMatch/internal/cache"
	"github.com/Belphemur/MovieMatch/internal/client"
	"github.com/Belphemur/MovieMatch/internal/config"
	"github.com/Belphemur/MovieMatch/internal/dashboard"
	grpcserver "github.com/Belphemur/MovieMatch/internal/grpc"
	"github.com/Belphemur/MovieMatch/internal/metadata"
	"github.com/Belphemur/MovieMatch/internal/metrics"
	"github.com/Belphemur/MovieMatch/internal/recommend"
	"github.com/Belphemur/MovieMatch/internal/services"
	"github.com/Belphemur/MovieMatch/internal/session"
)

const shutdownTimeout = 10 * time.Second

// cacheLogger forwards cache backend errors to zerolog
type cacheLogger struct {
	logger zerolog.Logger
}

func (l cacheLogger) Error(msg string, err error) {
	l.logger.Error().Err(err).Str("component", "cache").Msg(msg)
}

func main() {
	cfg := config.GetConfig()
	logger := config.GetLogger()

	logger.Info().
		Str("metadata_url", cfg.Metadata.URL).
		Str("backend_url", cfg.Backend.URL).
		Str("client_timeout", cfg.Timeout().String()).
		Str("cache_provider", cfg.Cache.Provider).
		Int("server_port", cfg.Server.Port).
		Int("grpc_port", cfg.Server.GRPCPort).
		Str("server_address", cfg.Server.Address).
		Msg("Application started with configuration")

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			AttachStacktrace: true,
		}); err != nil {
			logger.Error().Err(err).Msg("Failed to initialise Sentry, continuing without error reporting")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	sessionCache, err := cache.New(cfg.Cache.Provider, cache.ProviderConfig{
		Size:          cfg.Cache.Size,
		TTL:           config.ParseDuration(cfg.Cache.TTL, 24*time.Hour),
		Logger:        cacheLogger{logger: logger},
		RedisAddress:  cfg.Cache.Redis.Address,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
		Group:         "sessions",
	})
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.Cache.Provider).Msg("Failed to create session cache")
	}
	defer func() {
		if err := sessionCache.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close session cache")
		}
	}()

	httpClient := client.NewHTTPClient(cfg)
	metadataClient := metadata.NewClient(cfg, httpClient)
	accountClient := account.NewClient(cfg, httpClient)
	recommendClient := recommend.NewClient(cfg, httpClient)

	dashboardOpts := dashboard.OptionsFromConfig(cfg)
	handler := api.NewHandler(api.Deps{
		Metadata:              metadataClient,
		Recommender:           recommendClient,
		Dashboard:             dashboard.NewAggregator(metadataClient, accountClient, recommendClient, dashboardOpts),
		Accounts:              services.NewAccountService(accountClient),
		Assistant:             services.NewAssistant(metadataClient),
		Sessions:              session.NewStore(sessionCache),
		MinLiked:              dashboardOpts.MinLiked,
		AuthRequestsPerMinute: 30,
	})
	apiServer := api.NewHTTPServer(cfg.Server.Address, cfg.Server.Port, handler.Router())

	// Start Prometheus metrics HTTP server
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Server.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	grpcServer, healthServer := grpcserver.NewGRPCServer()
	grpcAddress := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.GRPCPort)
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		logger.Fatal().Err(err).Str("address", grpcAddress).Msg("Failed to create gRPC listener")
	}
	go func() {
		logger.Info().Str("address", grpcAddress).Msg("Starting gRPC health server")
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error().Err(err).Msg("gRPC server stopped")
		}
	}()

	apiErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", apiServer.Addr).Msg("Starting API server")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			apiErr <- err
		}
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-apiErr:
		logger.Error().Err(err).Msg("API server failed")
	}

	// Health reports NOT_SERVING before the API stops accepting requests
	healthServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to shutdown API server")
	}
	grpcServer.GracefulStop()

	logger.Info().Msg("Server stopped gracefully")
}
