// Package app assembles the adapters shared by the server and worker binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"parcel-pricing-service/internal/adapters/cache"
	"parcel-pricing-service/internal/adapters/queue"
	"parcel-pricing-service/internal/adapters/rates"
	"parcel-pricing-service/internal/adapters/repositories"
	"parcel-pricing-service/internal/api/handlers"
	"parcel-pricing-service/internal/config"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/platform/db"
	"parcel-pricing-service/internal/platform/metrics"
	"parcel-pricing-service/internal/ports"
	"parcel-pricing-service/internal/services"
	"parcel-pricing-service/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// App holds the wired dependencies. Close releases them in reverse order.
type App struct {
	Config     config.Config
	Log        *zap.Logger
	Metrics    *metrics.Metrics
	DB         *sql.DB
	Redis      *redis.Client
	Repo       ports.ParcelRepository
	Parcels    *services.ParcelService
	Rates      *services.ExchangeRateProvider
	Statuses   ports.TaskStatusStore
	Queue      ports.TaskQueue
	MemQueue   *queue.MemoryTaskQueue
	Recomputer *services.PriceRecomputer
	Dispatcher *worker.Dispatcher

	closers []func() error
}

func Build(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, Metrics: metrics.New()}

	if err := a.openStore(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("build app: parse REDIS_URL: %w", err)
	}
	a.Redis = redis.NewClient(opts)
	a.closers = append(a.closers, a.Redis.Close)

	a.Parcels = services.NewParcelService(a.Repo, log)

	source, err := rates.NewCBRRateSource(cfg.RateSourceURL)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("build app: %w", err)
	}
	a.Rates = services.NewExchangeRateProvider(
		cache.NewRedisRateCache(a.Redis),
		source,
		services.ExchangeRateConfig{CacheTTL: cfg.RateCacheTTL, FallbackRate: cfg.FallbackUSDRate},
		log,
		a.Metrics,
	)

	a.Statuses = cache.NewRedisTaskStatusStore(a.Redis)
	a.buildQueue()

	a.Recomputer = services.NewPriceRecomputer(a.Repo, a.Rates, cfg.SweepBatchSize, log, a.Metrics)
	a.Dispatcher = worker.NewDispatcher()
	worker.RegisterTasks(a.Dispatcher, a.Recomputer)

	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.Store {
	case "memory":
		seeds, err := repositories.LoadParcelTypeSeeds(a.Config.SeedPath)
		if err != nil {
			return fmt.Errorf("build app: %w", err)
		}
		types := make([]domain.ParcelType, 0, len(seeds))
		for _, s := range seeds {
			types = append(types, domain.ParcelType{ID: s.ID, Name: s.Name})
		}
		a.Repo = repositories.NewMemoryParcelRepository(types)
		a.Log.Warn("using in-memory store; data is lost on exit")
	default:
		conn, err := db.Open(ctx, a.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("build app: %w", err)
		}
		a.DB = conn
		a.closers = append(a.closers, conn.Close)
		a.Repo = repositories.NewPostgresParcelRepository(conn)
	}
	return nil
}

func (a *App) buildQueue() {
	cfg := a.Config
	if cfg.Broker == "memory" {
		a.MemQueue = queue.NewMemoryTaskQueue(a.Statuses, cfg.TaskDefaultQueue, 0, a.Log, a.Metrics)
		a.Queue = a.MemQueue
		a.closers = append(a.closers, a.MemQueue.Close)
		return
	}

	kq := queue.NewKafkaTaskQueue(queue.NewKafkaWriter(cfg.KafkaBrokers), a.Statuses, a.KafkaConfig(), a.Log, a.Metrics)
	a.Queue = kq
	a.closers = append(a.closers, kq.Close)
}

func (a *App) KafkaConfig() queue.KafkaConfig {
	return queue.KafkaConfig{
		Brokers:      a.Config.KafkaBrokers,
		TopicPrefix:  a.Config.KafkaTopicPrefix,
		GroupID:      a.Config.KafkaGroupID,
		DefaultQueue: a.Config.TaskDefaultQueue,
	}
}

// NewKafkaConsumer reads the default task queue.
func (a *App) NewKafkaConsumer() *queue.KafkaTaskConsumer {
	reader := queue.NewKafkaReader(a.KafkaConfig(), a.Config.TaskDefaultQueue)
	return queue.NewKafkaTaskConsumer(reader, a.Dispatcher, a.Statuses, a.Log, a.Metrics)
}

// HealthChecks probes every network dependency the process talks to.
func (a *App) HealthChecks() map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{
		"redis": handlers.PingFunc(func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }),
	}
	if a.DB != nil {
		checks["postgres"] = a.DB
	}
	if a.Config.Broker != "memory" && len(a.Config.KafkaBrokers) > 0 {
		broker := a.Config.KafkaBrokers[0]
		checks["kafka"] = handlers.PingFunc(func(ctx context.Context) error {
			conn, err := kafka.DialContext(ctx, "tcp", broker)
			if err != nil {
				return err
			}
			return conn.Close()
		})
	}
	return checks
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
