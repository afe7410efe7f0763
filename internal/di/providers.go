package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"GrowthSim/internal/domain/models"
	"GrowthSim/internal/domain/repository"
	"GrowthSim/internal/handler/api"
	"GrowthSim/internal/handler/ws"
	internalrepo "GrowthSim/internal/repository"
	"GrowthSim/internal/service/reportcache"
	"GrowthSim/internal/services/decision"
	"GrowthSim/internal/services/portfolio"
	"GrowthSim/internal/services/stats"
	"GrowthSim/internal/usecase"
	"GrowthSim/pkg/cache"
	pkgch "GrowthSim/pkg/clickhouse"
	"GrowthSim/pkg/config"
	xhttp "GrowthSim/pkg/http"
	pkgkafka "GrowthSim/pkg/kafka"
	applogger "GrowthSim/pkg/logger"
	"GrowthSim/pkg/metrics"
	"GrowthSim/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		TimeFormat: cfg.Logging.TimeFormat,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client, nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSnapshotStore creates the ClickHouse snapshot store, nil when the
// client is absent.
func ProvideSnapshotStore(chClient *pkgch.Client, l *applogger.Logger) (repository.SnapshotStore, error) {
	if chClient == nil {
		return nil, nil
	}
	store := internalrepo.NewCHSnapshotStore(chClient)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer, nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the snapshot publisher, nil when the producer is
// absent.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideCacheService creates the cache backend: Redis when enabled, else
// in-memory.
func ProvideCacheService(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	host, portStr, err := net.SplitHostPort(cfg.Cache.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parse redis port: %w", err)
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix("growthsim"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideReportCache creates the latest-report cache.
func ProvideReportCache(svc cache.Service, cfg *config.Config) repository.ReportCache {
	return reportcache.New(svc, cfg.Cache.TTL)
}

// ProvideHub creates the websocket broadcast hub.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideBroadcaster exposes the hub as the domain broadcaster.
func ProvideBroadcaster(hub *ws.Hub) repository.Broadcaster {
	return hub
}

// ProvideRegistry creates the instrument registry from the configured
// scoring method and allocation policy.
func ProvideRegistry(cfg *config.Config) (*models.Registry, error) {
	method, ok := models.ParseScoringMethod(cfg.Simulation.Method)
	if !ok {
		return nil, fmt.Errorf("unknown scoring method: %s", cfg.Simulation.Method)
	}
	policy, ok := models.ParseAllocationPolicy(cfg.Simulation.Policy)
	if !ok {
		return nil, fmt.Errorf("unknown allocation policy: %s", cfg.Simulation.Policy)
	}
	return models.NewRegistry(models.InstrumentConfig{
		Method:             method,
		Policy:             policy,
		SizeCompensation:   cfg.Simulation.SizeCompensation,
		RunCompensation:    cfg.Simulation.RunCompensation,
		MaxIncrement:       cfg.Simulation.MaxIncrement,
		UnconditionalStats: cfg.Simulation.UnconditionalStats,
		UnconditionalHold:  cfg.Simulation.UnconditionalHold,
	}), nil
}

// ProvideTracker creates the statistics tracker.
func ProvideTracker() *stats.Tracker {
	return stats.NewTracker()
}

// ProvideEngine creates the decision engine with the configured seed.
func ProvideEngine(cfg *config.Config) *decision.Engine {
	return decision.NewEngine(cfg.Simulation.RandomSeed)
}

// ProvideConstructor creates the portfolio constructor.
func ProvideConstructor(cfg *config.Config) *portfolio.Constructor {
	return portfolio.NewConstructor(portfolio.Config{
		MinHoldings: cfg.Simulation.MinHoldings,
		MaxHoldings: cfg.Simulation.MaxHoldings,
		MaxMargin:   cfg.Simulation.MaxMargin,
	})
}

// ProvideObservationSource creates the configured series reader: the
// whitespace file by default, or a previously loaded ClickHouse series.
func ProvideObservationSource(cfg *config.Config, chClient *pkgch.Client, l *applogger.Logger) (repository.ObservationSource, error) {
	if cfg.Simulation.Source == "clickhouse" {
		if chClient == nil {
			return nil, fmt.Errorf("clickhouse source requires an enabled clickhouse client")
		}
		source := internalrepo.NewCHSeriesSource(chClient, l)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := source.Init(ctx); err != nil {
			return nil, err
		}
		return source, nil
	}
	return internalrepo.NewSeriesFile(cfg.Simulation.SeriesFile, l), nil
}

// ProvideSimulator wires the per-interval pipeline.
func ProvideSimulator(
	cfg *config.Config,
	registry *models.Registry,
	tracker *stats.Tracker,
	engine *decision.Engine,
	builder *portfolio.Constructor,
	publisher repository.Publisher,
	store repository.SnapshotStore,
	broadcaster repository.Broadcaster,
	rcache repository.ReportCache,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Simulator {
	return usecase.NewSimulator(
		usecase.SimulatorConfig{InitialCapital: cfg.Simulation.InitialCapital},
		registry, tracker, engine, builder,
		publisher, store, broadcaster, rcache, m, l,
	)
}

// ProvideHTTPHandler creates the portfolio API handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	sim *usecase.Simulator,
	rcache repository.ReportCache,
	store repository.SnapshotStore,
	hub *ws.Hub,
) xhttp.Handler {
	return api.NewPortfolioHandler(l, sim, rcache, store, hub)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	sim *usecase.Simulator,
	source repository.ObservationSource,
	handler xhttp.Handler,
	publisher repository.Publisher,
	store repository.SnapshotStore,
	hub *ws.Hub,
) *server.App {
	return server.New(cfg, l, sim, source, handler, publisher, store, hub)
}
