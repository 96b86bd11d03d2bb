package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/techstore-demo/server/internal/core"
	"github.com/techstore-demo/server/internal/httpapi"
	"github.com/techstore-demo/server/internal/storefront"
	"github.com/techstore-demo/server/internal/storefront/catalog"
	"github.com/techstore-demo/server/internal/storefront/model"
	"github.com/techstore-demo/server/internal/storefront/observers"
	"github.com/techstore-demo/server/internal/storefront/publisher"
	"github.com/techstore-demo/server/internal/storefront/repo"
	"github.com/techstore-demo/server/internal/storefront/tools"
	logx "github.com/techstore-demo/server/pkg/logger"
	pkgrabbitmq "github.com/techstore-demo/server/pkg/rabbitmq"
	pkgredis "github.com/techstore-demo/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the storefront,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	HTTP     model.HTTPConfig
	Storage  model.StorageConfig
	Redis    pkgredis.Config
	RabbitMQ pkgrabbitmq.Config

	// Storefront behaviour
	Checkout model.CheckoutConfig
	Session  model.SessionConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load(".env")

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env})
	if envErr != nil {
		logx.Warn().Err(envErr).Msg("could not load .env file")
	}

	storage, closeStorage := openStorage(ctx, cfg)
	defer closeStorage()

	orders, closePublisher := openPublisher(cfg)
	defer closePublisher()

	cat := catalog.Default()
	manager := storefront.NewManager(storefront.Deps{
		Catalog:   cat,
		Repo:      repo.NewStateRepository(storage, cfg.Storage.KeyPrefix),
		Observer:  observers.Relay{},
		Publisher: orders,
		Checkout:  cfg.Checkout,
		Session:   cfg.Session,
	})
	handler := httpapi.NewHandler(manager, cat, tools.NewRegistry(cat), cfg.HTTP)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", cfg.HTTP.Addr).Str("environment", env.String()).Int("products", cat.Len()).Msg("starting storefront")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logx.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("http server shutdown")
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("pending checkouts did not settle")
	}
}

func openStorage(ctx context.Context, cfg AppConfig) (model.Storage, func()) {
	switch cfg.Storage.Driver {
	case "memory":
		logx.Warn().Msg("using in-memory storage; state is lost on restart")
		return repo.NewMemoryStorage(), func() {}
	case "redis":
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to initialise Redis client")
		}
		logx.Info().Msg("connected to Redis")
		return repo.NewRedisStorage(rdb, cfg.Storage.TTL), func() { _ = rdb.Close() }
	default:
		logx.Fatal().Str("driver", cfg.Storage.Driver).Msg("unknown storage driver")
		return nil, nil
	}
}

func openPublisher(cfg AppConfig) (publisher.OrderPublisher, func()) {
	if !cfg.RabbitMQ.Enabled() {
		logx.Info().Msg("no broker configured; confirmed orders are only logged")
		return publisher.LogPublisher{}, func() {}
	}

	conn, ch, err := cfg.RabbitMQ.Dial()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	logx.Info().Str("queue", cfg.RabbitMQ.Queue).Msg("connected to RabbitMQ")
	return publisher.NewAMQPPublisher(ch, cfg.RabbitMQ.Queue), func() {
		_ = ch.Close()
		_ = conn.Close()
	}
}
