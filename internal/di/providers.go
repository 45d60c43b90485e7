package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ARMTS/internal/domain/models"
	"ARMTS/internal/domain/repository"
	"ARMTS/internal/handler/api"
	internalrepo "ARMTS/internal/repository"
	"ARMTS/internal/service/ratelimit"
	"ARMTS/internal/services/dataset"
	"ARMTS/internal/services/encoding"
	"ARMTS/internal/services/fitness"
	"ARMTS/internal/services/store"
	"ARMTS/internal/usecase"
	"ARMTS/pkg/cache"
	pkgch "ARMTS/pkg/clickhouse"
	"ARMTS/pkg/config"
	xhttp "ARMTS/pkg/http"
	pkgkafka "ARMTS/pkg/kafka"
	"ARMTS/pkg/logger"
	"ARMTS/pkg/metrics"
	"ARMTS/pkg/optimizer"
	"ARMTS/pkg/server"
	"ARMTS/pkg/sqlite"
)

// Optional infrastructure providers return a nil client when their section is disabled.

// ProvideLogger creates the application logger. When Kafka is enabled, repeated log lines
// are aggregated and shipped to the log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval: 30 * time.Second,
			Topic:        cfg.Kafka.LogTopic,
			Publisher:    producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when metrics are off.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(ctx context.Context, cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(cfg.ClickHouse.MaxOpen, cfg.ClickHouse.MaxIdle),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.BatchSize, cfg.Kafka.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRedisCache creates the Redis client backing the archive snapshot.
func ProvideRedisCache(ctx context.Context, cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	c, err := cache.NewRedisCache(ctx,
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideSQLiteClient opens the local rule database.
func ProvideSQLiteClient(ctx context.Context, cfg *config.Config) (*sqlite.Client, error) {
	if !cfg.SQLite.Enabled {
		return nil, nil
	}
	c, err := sqlite.Open(ctx, cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return c, nil
}

func datasetOptions(cfg *config.Config) []dataset.Option {
	opts := []dataset.Option{
		dataset.WithTimestampColumn(cfg.Dataset.TimestampColumn),
		dataset.WithCategorical(cfg.Dataset.Categorical...),
		dataset.WithIgnore(cfg.Dataset.Ignore...),
	}
	if cfg.Dataset.SegmentColumn != "" {
		opts = append(opts, dataset.WithSegmentColumn(cfg.Dataset.SegmentColumn))
	}
	return opts
}

// ProvideTransactionSource selects the CSV or ClickHouse source.
func ProvideTransactionSource(cfg *config.Config, ch *pkgch.Client, l *logger.Logger) (repository.TransactionSource, error) {
	switch cfg.Dataset.Source {
	case "clickhouse":
		if ch == nil {
			return nil, errors.New("dataset.source clickhouse requires clickhouse.enabled")
		}
		return internalrepo.NewClickHouseSource(ch, cfg.ClickHouse.SourceTable, cfg.Dataset.TimestampColumn, l, datasetOptions(cfg)...), nil
	default:
		if cfg.Dataset.Path == "" {
			return nil, errors.New("dataset.path is required for the csv source")
		}
		return internalrepo.NewCSVSource(cfg.Dataset.Path, datasetOptions(cfg)...), nil
	}
}

// ProvideDataset loads the feature table and transactions.
func ProvideDataset(ctx context.Context, src repository.TransactionSource) (*dataset.Dataset, error) {
	md, txs, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return &dataset.Dataset{Metadata: md, Transactions: txs}, nil
}

// ProvideStore partitions the transactions: by the segment column when one is configured,
// else by duration, else into dataset.segments equal parts. In segmented mode without a
// segment column the partition is exposed as a synthetic time-segment feature, and ds is
// updated in place so the miner decodes over the extended metadata.
func ProvideStore(cfg *config.Config, ds *dataset.Dataset) (*store.Store, error) {
	var opt store.Option
	switch {
	case cfg.Dataset.SegmentColumn != "":
		opt = store.PartitionBySegmentColumn()
	case cfg.Dataset.SegmentDuration > 0:
		opt = store.PartitionByDuration(cfg.Dataset.SegmentDuration)
	default:
		opt = store.PartitionByCount(cfg.Dataset.Segments)
	}
	st, err := store.New(ds.Transactions, opt)
	if err != nil {
		return nil, fmt.Errorf("transaction store: %w", err)
	}
	if mode, _ := models.ParseIntervalMode(cfg.Mining.IntervalMode); cfg.Dataset.SegmentColumn != "" || mode != models.IntervalSegmented {
		return st, nil
	}

	ext, err := dataset.WithSegmentFeature(&dataset.Dataset{Metadata: ds.Metadata, Transactions: st.Rows()})
	if err != nil {
		return nil, fmt.Errorf("segment feature: %w", err)
	}
	// rows are contiguous by segment, so the column partition reproduces st's segments
	st, err = store.New(ext.Transactions, store.PartitionBySegmentColumn())
	if err != nil {
		return nil, fmt.Errorf("transaction store: %w", err)
	}
	*ds = *ext
	return st, nil
}

// ProvideMinerConfig maps the mining and optimizer sections.
func ProvideMinerConfig(cfg *config.Config) (usecase.MinerConfig, error) {
	mode, ok := models.ParseIntervalMode(cfg.Mining.IntervalMode)
	if !ok {
		return usecase.MinerConfig{}, fmt.Errorf("unknown interval mode %q", cfg.Mining.IntervalMode)
	}
	o := cfg.Optimizer
	return usecase.MinerConfig{
		Decoder: encoding.Config{
			Lower:       cfg.Mining.Lower,
			Upper:       cfg.Mining.Upper,
			Cutoff:      cfg.Mining.Cutoff,
			RoundDigits: cfg.Mining.RoundDigits,
			Mode:        mode,
		},
		Weights: fitness.Weights{
			Alpha: cfg.Mining.Weights.Alpha,
			Beta:  cfg.Mining.Weights.Beta,
			Gamma: cfg.Mining.Weights.Gamma,
			Delta: cfg.Mining.Weights.Delta,
		},
		EmptyFitness: cfg.Mining.EmptyFitness,
		Epsilon:      cfg.Mining.Epsilon,
		TopN:         cfg.Mining.TopN,
		Optimizer: optimizer.Config{
			PopulationSize: o.Population,
			Generations:    o.Generations,
			MaxEvaluations: o.MaxEvaluations,
			TournamentSize: o.TournamentSize,
			CrossoverRate:  o.CrossoverRate,
			MutationRate:   o.MutationRate,
			MutationSigma:  o.MutationSigma,
			Elite:          o.Elite,
			Workers:        o.Workers,
			Seed:           o.Seed,
		},
	}, nil
}

// ProvideStorages creates and initializes every enabled rule storage.
func ProvideStorages(ctx context.Context, cfg *config.Config, ch *pkgch.Client, sq *sqlite.Client, l *logger.Logger) ([]repository.Storage, error) {
	var out []repository.Storage
	if sq != nil {
		out = append(out, internalrepo.NewSQLiteStorage(sq))
	}
	if ch != nil {
		out = append(out, internalrepo.NewClickHouseStorage(ch, cfg.ClickHouse.RulesTable, l))
	}
	for _, s := range out {
		if err := s.Init(ctx); err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
	}
	return out, nil
}

// ProvideSnapshot creates the Redis archive snapshot.
func ProvideSnapshot(cfg *config.Config, rc *cache.RedisCache) repository.Snapshot {
	if rc == nil {
		return nil
	}
	return internalrepo.NewCacheSnapshot(rc, cfg.Redis.TTL)
}

// ProvidePublisher creates the Kafka rule publisher.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideMiner creates the mining use case.
func ProvideMiner(
	ds *dataset.Dataset,
	st *store.Store,
	mc usecase.MinerConfig,
	m repository.Metrics,
	l *logger.Logger,
	pub repository.Publisher,
	storages []repository.Storage,
	snap repository.Snapshot,
) (*usecase.Miner, error) {
	opts := []usecase.MinerOption{usecase.WithPublisher(pub), usecase.WithSnapshot(snap)}
	for _, s := range storages {
		opts = append(opts, usecase.WithStorage(s))
	}
	return usecase.NewMiner(ds.Metadata, st, mc, m, l, opts...)
}

// ProvideHTTPServer creates the HTTP API server, or nil when it is disabled.
func ProvideHTTPServer(
	cfg *config.Config,
	miner *usecase.Miner,
	l *logger.Logger,
	snap repository.Snapshot,
	storages []repository.Storage,
) *xhttp.Server {
	if !cfg.Server.Enabled {
		return nil
	}
	var history repository.Storage
	if len(storages) > 0 {
		history = storages[0]
	}
	h := api.NewRulesHandler(l, miner,
		api.WithLimiter(ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)),
		api.WithHistory(snap, history),
	)
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, nil))
	}
	return xhttp.NewServer([]xhttp.Handler{h}, opts...)
}

// ProvideApp creates the application. The Kafka producer is released by the miner through
// its publisher, so only the storage clients are registered as closers.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	miner *usecase.Miner,
	srv *xhttp.Server,
	ch *pkgch.Client,
	sq *sqlite.Client,
	rc *cache.RedisCache,
) *server.App {
	app := server.New(cfg, l, miner, srv)
	if rc != nil {
		app.AddCloser("redis", rc)
	}
	if sq != nil {
		app.AddCloser("sqlite", sq)
	}
	if ch != nil {
		app.AddCloser("clickhouse", ch)
	}
	return app
}
