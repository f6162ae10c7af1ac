package di

import (
	"context"
	"fmt"
	"time"

	"FxBias/internal/domain/catalog"
	domrepo "FxBias/internal/domain/repository"
	"FxBias/internal/domain/service"
	"FxBias/internal/handler/api"
	internalrepo "FxBias/internal/repository"
	"FxBias/internal/scheduler"
	"FxBias/internal/service/alphavantage"
	"FxBias/internal/service/gemini"
	svcmetrics "FxBias/internal/service/metrics"
	"FxBias/internal/service/ratelimit"
	"FxBias/internal/service/scraper"
	"FxBias/internal/usecase"
	"FxBias/pkg/cache"
	pkgch "FxBias/pkg/clickhouse"
	"FxBias/pkg/config"
	xhttp "FxBias/pkg/http"
	pkgkafka "FxBias/pkg/kafka"
	xlogger "FxBias/pkg/logger"
	"FxBias/pkg/metrics"
	"FxBias/pkg/server"
)

func ProvideLogger(cfg *config.Config) (*xlogger.Logger, error) {
	return xlogger.New(&xlogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder and registers the
// upstream call collectors.
func ProvideMetrics() domrepo.Metrics {
	svcmetrics.Register()
	return metrics.New(nil)
}

func ProvideCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Analysis.CatalogPath != "" {
		return catalog.Load(cfg.Analysis.CatalogPath)
	}
	return catalog.Default()
}

// ProvideClickHouseClient connects and applies the schema. It returns nil for the memory backend.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if cfg.Backend.Type != "clickhouse" {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideCache returns Redis when enabled, otherwise an in-process cache.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(500))
		return mc, func() { _ = mc.Close() }, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideKafkaProducer returns nil when Kafka is disabled. When enabled, error
// logs are also aggregated onto the ops topic.
func ProvideKafkaProducer(cfg *config.Config, l *xlogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	if cfg.Kafka.OpsTopic != "" {
		l.AddCollector(&xlogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.OpsTopic,
			Publisher:      producer,
		})
	}
	return producer, func() {
		l.RemoveCollector()
		_ = producer.Close()
	}, nil
}

func ProvideSnapshotRepository(cfg *config.Config, ch *pkgch.Client, c cache.Service, l *xlogger.Logger) domrepo.SnapshotRepository {
	var store domrepo.SnapshotRepository
	if ch != nil {
		store = internalrepo.NewCHSnapshotStore(ch, cfg.ClickHouse.Database, l)
	} else {
		store = internalrepo.NewMemorySnapshotStore()
	}
	if cfg.Redis.Enabled {
		store = internalrepo.NewCachedSnapshotStore(store, c, cfg.Redis.CacheTTL, l)
	}
	return store
}

func ProvideOverrideRepository(cfg *config.Config, ch *pkgch.Client, l *xlogger.Logger) domrepo.OverrideRepository {
	if ch != nil {
		return internalrepo.NewCHOverrideStore(ch, cfg.ClickHouse.Database, l)
	}
	return internalrepo.NewMemoryOverrideStore()
}

func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.EventPublisher {
	if producer == nil {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideRunLock returns nil unless Redis is shared between instances.
func ProvideRunLock(cfg *config.Config, c cache.Service) domrepo.RunLock {
	if !cfg.Redis.Enabled {
		return nil
	}
	return internalrepo.NewCacheRunLock(c, cfg.Redis.LockTTL)
}

func ProvideContentFetcher(cfg *config.Config, c cache.Service, l *xlogger.Logger) (service.ContentFetcher, func()) {
	var (
		fetcher service.ContentFetcher
		cleanup = func() {}
	)
	switch cfg.Scraper.Mode {
	case "http":
		fetcher = scraper.NewHTTPFetcher(xhttp.NewClient(
			xhttp.WithTimeout(cfg.Scraper.Timeout),
			xhttp.WithUserAgent(cfg.Scraper.UserAgent),
		), l)
	default:
		chrome := scraper.NewChromeFetcher(l,
			scraper.WithHeadless(cfg.Scraper.Headless),
			scraper.WithNoSandbox(cfg.Scraper.NoSandbox),
			scraper.WithUserAgent(cfg.Scraper.UserAgent),
			scraper.WithPageTimeout(cfg.Scraper.Timeout),
			scraper.WithSettle(cfg.Scraper.Settle),
		)
		fetcher = chrome
		cleanup = func() { _ = chrome.Close() }
	}
	if cfg.Scraper.MemoTTL > 0 {
		fetcher = scraper.NewMemo(fetcher, c, cfg.Scraper.MemoTTL, l)
	}
	return fetcher, cleanup
}

func ProvideReasoner(cfg *config.Config, l *xlogger.Logger) (service.Reasoner, error) {
	return gemini.NewClient(context.Background(), cfg.Gemini.APIKey,
		gemini.WithModel(cfg.Gemini.Model),
		gemini.WithTimeout(cfg.Gemini.Timeout),
		gemini.WithRequestsPerMinute(cfg.Gemini.RequestsPerMinute),
		gemini.WithLogger(l),
	)
}

func ProvideSeriesFetcher(cfg *config.Config, l *xlogger.Logger) service.SeriesFetcher {
	return alphavantage.NewClient(
		xhttp.NewClient(xhttp.WithTimeout(cfg.AlphaVantage.Timeout)),
		cfg.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL),
		alphavantage.WithRequestsPerMinute(cfg.AlphaVantage.RequestsPerMinute),
		alphavantage.WithLogger(l),
	)
}

func ProvideIndicatorScorer(
	cfg *config.Config,
	fetcher service.ContentFetcher,
	reasoner service.Reasoner,
	m domrepo.Metrics,
	l *xlogger.Logger,
) *usecase.IndicatorScorer {
	return usecase.NewIndicatorScorer(fetcher, reasoner, cfg.Analysis.MaxContentChars, m, l)
}

func ProvideJobController(
	cfg *config.Config,
	cat *catalog.Catalog,
	risk *usecase.RiskSentimentAggregator,
	scorer *usecase.IndicatorScorer,
	agg *usecase.CurrencyAggregator,
	fetcher service.ContentFetcher,
	snapshots domrepo.SnapshotRepository,
	m domrepo.Metrics,
	lock domrepo.RunLock,
	publisher domrepo.EventPublisher,
	l *xlogger.Logger,
) (*usecase.JobController, func()) {
	opts := []usecase.ControllerOption{
		usecase.WithEventPublisher(publisher),
		usecase.WithEventStreamURL(cfg.Analysis.EventStreamURL),
	}
	if lock != nil {
		opts = append(opts, usecase.WithRunLock(lock))
	}
	ctrl := usecase.NewJobController(cat, risk, scorer, agg, fetcher, snapshots, m, l, opts...)
	return ctrl, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = ctrl.Close(ctx)
	}
}

func ProvideHTTPHandler(
	cfg *config.Config,
	l *xlogger.Logger,
	ctrl *usecase.JobController,
	query *usecase.AnalysisQuery,
	ledger *usecase.OverrideLedger,
) xhttp.Handler {
	return api.NewAnalysisHandler(l, ctrl, query, ledger,
		api.WithCronSecret(cfg.Server.CronSecret),
		api.WithLaunchLimiter(ratelimit.New(2, cfg.Server.LaunchPerMinute)),
		api.WithAllowOrigins(cfg.Server.AllowOrigins),
	)
}

func ProvideHTTPServer(cfg *config.Config, handler xhttp.Handler, l *xlogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithAllowOrigins(cfg.Server.AllowOrigins),
	}
	if !cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(""))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	}
	return xhttp.NewServer(handler, l, opts...)
}

// ProvideScheduler returns nil when no schedule is configured.
func ProvideScheduler(cfg *config.Config, ctrl *usecase.JobController, l *xlogger.Logger) (*scheduler.Scheduler, error) {
	if cfg.Analysis.Schedule == "" {
		return nil, nil
	}
	s := scheduler.New(ctrl, l)
	if err := s.Schedule(cfg.Analysis.Schedule, cfg.Analysis.Currencies); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", cfg.Analysis.Schedule, err)
	}
	return s, nil
}

// ProvideTriggerConsumer returns nil when Kafka is disabled.
func ProvideTriggerConsumer(cfg *config.Config, ctrl *usecase.JobController, l *xlogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.TriggerTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(1),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewTriggerHandler(cfg.Kafka.TriggerTopic, ctrl, l))
	return consumer, nil
}

func ProvideApp(
	cfg *config.Config,
	l *xlogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
) *server.App {
	return server.New(cfg, l, httpServer, sched, consumer)
}
