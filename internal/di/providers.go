package di

import (
	"context"
	"fmt"
	"time"

	"tradevision/internal/domain/repository"
	"tradevision/internal/events"
	"tradevision/internal/handler/api"
	"tradevision/internal/repository/migrations"
	"tradevision/internal/repository/postgres"
	"tradevision/internal/service/auth"
	"tradevision/internal/service/generator"
	"tradevision/internal/service/idempotency"
	"tradevision/internal/service/signalcache"
	"tradevision/internal/usecase"
	pkgcache "tradevision/pkg/cache"
	"tradevision/pkg/config"
	apphttp "tradevision/pkg/http"
	pkgkafka "tradevision/pkg/kafka"
	applogger "tradevision/pkg/logger"
	"tradevision/pkg/metrics"
	"tradevision/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
}

// ProvidePostgresPool connects to Postgres and runs migrations.
func ProvidePostgresPool(cfg *config.Config) (*postgres.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN,
		postgres.WithQueryTimeout(cfg.Postgres.QueryTimeout))
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}

	return pool, nil
}

// ProvideCache creates the Redis cache client.
func ProvideCache(cfg *config.Config) (pkgcache.Service, func(), error) {
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, func() { _ = c.Close() }, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideSymbolStore creates the Postgres symbol store.
func ProvideSymbolStore(pool *postgres.Pool) repository.SymbolStore {
	return postgres.NewSymbolStore(pool)
}

// ProvideSignalStore creates the Postgres signal store.
func ProvideSignalStore(pool *postgres.Pool) repository.SignalStore {
	return postgres.NewSignalStore(pool)
}

// ProvideVerdictStore creates the Postgres verdict store.
func ProvideVerdictStore(pool *postgres.Pool) repository.VerdictStore {
	return postgres.NewVerdictStore(pool)
}

// ProvideStatsStore creates the Postgres stats store.
func ProvideStatsStore(pool *postgres.Pool) repository.StatsStore {
	return postgres.NewStatsStore(pool)
}

// ProvideValidator creates the webhook validator.
func ProvideValidator(cfg *config.Config) *auth.Validator {
	return auth.NewValidator(
		cfg.Webhook.Secret,
		cfg.Webhook.AllowedSymbols,
		auth.WithTolerance(cfg.Webhook.TimestampTolerance),
	)
}

// ProvideGate creates the idempotency gate.
func ProvideGate(c pkgcache.Service, cfg *config.Config) *idempotency.Gate {
	return idempotency.NewGate(c, cfg.Cache.IdempotencyTTL)
}

// ProvideSignalCache creates the latest-signal cache.
func ProvideSignalCache(c pkgcache.Service, cfg *config.Config) *signalcache.Cache {
	return signalcache.New(c, cfg.Cache.SignalTTL)
}

// ProvidePublisher creates the post-commit event publisher. Kafka when
// enabled, a no-op otherwise.
func ProvidePublisher(cfg *config.Config) (events.Publisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return events.NoopPublisher{}, func() {}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	pub := events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	return pub, func() { _ = pub.Close() }, nil
}

// ProvideStatsAggregator creates the stats aggregator.
func ProvideStatsAggregator(
	signals repository.SignalStore,
	verdicts repository.VerdictStore,
	stats repository.StatsStore,
	l *applogger.Logger,
	rec *metrics.Recorder,
) *usecase.StatsAggregator {
	return usecase.NewStatsAggregator(signals, verdicts, stats, l, rec)
}

// ProvideIngestor creates the webhook ingestor.
func ProvideIngestor(
	validator *auth.Validator,
	gate *idempotency.Gate,
	symbols repository.SymbolStore,
	signals repository.SignalStore,
	lastCache *signalcache.Cache,
	stats *usecase.StatsAggregator,
	publisher events.Publisher,
	rec *metrics.Recorder,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Ingestor {
	return usecase.NewIngestor(
		validator, gate, symbols, signals, lastCache, stats, publisher, rec, l,
		usecase.WithStatsWindow(cfg.Stats.Window),
	)
}

// ProvideGenerator creates the demo signal generator.
func ProvideGenerator(ingestor *usecase.Ingestor, cfg *config.Config, l *applogger.Logger) *generator.Generator {
	return generator.New(ingestor, generator.Config{
		Symbols:     cfg.Generator.Symbols,
		Timeframes:  cfg.Generator.Timeframes,
		MinInterval: cfg.Generator.MinInterval,
		MaxInterval: cfg.Generator.MaxInterval,
	}, l)
}

// ProvideHandler aggregates all route handlers. Debug-only routes are
// registered only outside production.
func ProvideHandler(
	ingestor *usecase.Ingestor,
	stats *usecase.StatsAggregator,
	symbols repository.SymbolStore,
	validator *auth.Validator,
	gen *generator.Generator,
	cfg *config.Config,
	l *applogger.Logger,
) apphttp.Handler {
	handlers := []apphttp.Handler{
		api.NewWebhookHandler(ingestor, validator, l, cfg.Debug),
		api.NewPublicHandler(ingestor, stats, symbols, l),
	}
	if cfg.Debug {
		handlers = append(handlers, api.NewGeneratorHandler(gen, l))
	}
	return api.NewRouter(handlers...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	handler apphttp.Handler,
	gen *generator.Generator,
	pool *postgres.Pool,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, handler, gen, pool, l)
}
