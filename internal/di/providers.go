package di

import (
	"fmt"

	domrepo "DemandCast/internal/domain/repository"
	domsvc "DemandCast/internal/domain/service"
	"DemandCast/internal/handler/api"
	internalrepo "DemandCast/internal/repository"
	"DemandCast/internal/services/series"
	"DemandCast/internal/services/strategies"
	"DemandCast/internal/usecase"
	"DemandCast/pkg/cache"
	pkgch "DemandCast/pkg/clickhouse"
	"DemandCast/pkg/config"
	xhttp "DemandCast/pkg/http"
	pkgkafka "DemandCast/pkg/kafka"
	applogger "DemandCast/pkg/logger"
	"DemandCast/pkg/metrics"
	"DemandCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.HistoryDatabase),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideCache selects the cache backend: layered memory+Redis when Redis is
// enabled, plain in-process memory otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache enabled", applogger.String("host", cfg.Redis.Host))
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideRunPublisher creates the Kafka run-event publisher, or nil when
// Kafka is disabled.
func ProvideRunPublisher(cfg *config.Config) (domrepo.RunPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaRunPublisher(producer, cfg.Kafka.RunsTopic), nil
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideHistoryReader creates the ClickHouse order-history reader.
func ProvideHistoryReader(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.HistoryReader {
	return internalrepo.NewClickHouseHistoryStore(chClient, cfg.ClickHouse.HistoryDatabase, l)
}

// ProvideForecastStore creates the ClickHouse forecast writer.
func ProvideForecastStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.ForecastStore {
	return internalrepo.NewClickHouseForecastStore(chClient, cfg.ClickHouse.ForecastDatabase, cfg.ClickHouse.ForecastTable, l)
}

// ProvideSeriesProvider creates the materialized-series provider.
func ProvideSeriesProvider(reader domrepo.HistoryReader, c cache.Service) *series.Provider {
	return series.NewProvider(reader, c)
}

// ProvideEntityRunner creates the per-entity worker pool.
func ProvideEntityRunner(provider *series.Provider, m domrepo.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.EntityRunner {
	return usecase.NewEntityRunner(provider, m, l, cfg.Forecast.Workers)
}

// ProvideBackends lists the per-entity model backends.
func ProvideBackends() []domsvc.Strategy {
	return []domsvc.Strategy{
		strategies.NewSeasonalRegression(),
		strategies.NewSeasonalARIMA(),
	}
}

// ProvideForecastRunUseCase wires the run orchestrator.
func ProvideForecastRunUseCase(
	reader domrepo.HistoryReader,
	store domrepo.ForecastStore,
	publisher domrepo.RunPublisher,
	c cache.Service,
	m domrepo.Metrics,
	provider *series.Provider,
	runner *usecase.EntityRunner,
	l *applogger.Logger,
) *usecase.ForecastRunUseCase {
	return usecase.NewForecastRunUseCase(
		reader,
		store,
		publisher,
		c,
		m,
		provider,
		runner,
		usecase.NewPanelModel(l),
		usecase.NewReconciler(l),
		ProvideBackends(),
		l,
	)
}

// ProvideHTTPHandler creates the runs API handler.
func ProvideHTTPHandler(l *applogger.Logger, runs *usecase.ForecastRunUseCase) xhttp.Handler {
	return api.NewRunsHandler(l, runs)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	runs *usecase.ForecastRunUseCase,
	chClient *pkgch.Client,
	publisher domrepo.RunPublisher,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, handler, runs, chClient, publisher, c)
}
