package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tair/tenant-commerce/internal/app"
	"github.com/tair/tenant-commerce/internal/config"
	"github.com/tair/tenant-commerce/internal/gateway"
	"github.com/tair/tenant-commerce/kafka"
	"github.com/tair/tenant-commerce/pkg/database"
	"github.com/tair/tenant-commerce/pkg/logger"
	"github.com/tair/tenant-commerce/pkg/tracing"
)

const shutdownTimeout = 15 * time.Second

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Service.Name, cfg.Log.Pretty || cfg.Service.IsDevelopment())
	logger.SetLevel(cfg.Log.Level)

	logger.Logger.Info().
		Str("environment", cfg.Service.Environment).
		Str("storage", cfg.Storage.Driver).
		Str("version", version).
		Msg("Starting ecommerce service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.InitTracer(ctx, tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Service.Name,
		Version:        version,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracer")
	}

	infra := &app.Infra{}
	probes := map[string]gateway.Probe{}

	if cfg.Redis.Enabled {
		infra.Redis = connectRedis(ctx, cfg.Redis)
		if infra.Redis != nil {
			defer infra.Redis.Close()
			client := infra.Redis
			probes["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}

	if cfg.Storage.Driver == config.StoragePostgres {
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to initialize database")
		}
		infra.DB = db
		sqlDB, err := db.DB()
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
		}
		defer sqlDB.Close()
		probes["postgres"] = sqlDB.PingContext
	} else {
		logger.Logger.Warn().Msg("Running on in-memory storage, data is lost on restart")
	}

	// origin tags our own invalidation events so the consumer skips them
	origin := cfg.Service.Name + "-" + uuid.NewString()[:8]
	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		publisher, err := kafka.NewPublisher(cfg.Kafka.Brokers, origin)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka publisher")
		}
		defer publisher.Close()
		infra.Events = publisher

		consumer, err = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, []string{kafka.TopicCacheInvalidated})
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka consumer")
		}
		defer consumer.Close()
		probes["kafka"] = publisher.Ping
	}

	application, cleanup, err := app.InitializeApplication(cfg, infra)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer cleanup()

	if err := application.Seed(ctx); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to seed reference data")
	}

	for name, p := range probes {
		application.Health.Register(name, p)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		application.Hub.Run(gctx)
		return nil
	})

	if consumer != nil {
		consumer.RegisterHandler(kafka.EventTypeCacheInvalidated,
			kafka.CacheInvalidationHandler(origin, application.Cache.InvalidateLocal))
		g.Go(func() error { return consumer.Run(gctx) })
	}

	apiAddr := fmt.Sprintf(":%d", cfg.Service.APIPort)
	g.Go(func() error {
		logger.Logger.Info().Str("addr", apiAddr).Str("base_path", gateway.BasePath).Msg("API server started")
		return application.API.Listen(apiAddr)
	})

	ops := gateway.NewOpsServer(fmt.Sprintf(":%d", cfg.Service.OpsPort), application.Health)
	g.Go(func() error {
		logger.Logger.Info().Str("addr", ops.Addr).Msg("Ops server started")
		if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	application.Health.MarkReady()

	g.Go(func() error {
		<-gctx.Done()
		logger.Logger.Info().Msg("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := application.API.ShutdownWithContext(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("api shutdown: %w", err))
		}
		if err := ops.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("ops shutdown: %w", err))
		}
		if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Logger.Error().Err(err).Msg("Service stopped with error")
		return
	}
	logger.Logger.Info().Msg("Service stopped")
}

// connectRedis returns nil when Redis is unreachable; the cache and rate
// limiter then run on their memory tiers.
func connectRedis(ctx context.Context, cfg config.Redis) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout+time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unavailable, using in-process stores")
		client.Close()
		return nil
	}
	logger.Logger.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return client
}

func openDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewGormConnection(database.Config{
		DSN:             cfg.PostgresDSN(),
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		Debug:           cfg.Log.Level == "debug",
	})
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.AutoMigrate {
		if err := database.Migrate(ctx, db, app.Models()...); err != nil {
			return nil, err
		}
	}
	return db, nil
}
