package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ARMTS/internal/domain/models"
	drepo "ARMTS/internal/domain/repository"
	"ARMTS/internal/services/archive"
	"ARMTS/internal/services/encoding"
	"ARMTS/internal/services/evaluation"
	"ARMTS/internal/services/fitness"
	"ARMTS/internal/services/store"
	"ARMTS/pkg/logger"
	"ARMTS/pkg/optimizer"
)

// MinerConfig gathers the knobs of one mining run.
type MinerConfig struct {
	Decoder      encoding.Config
	Weights      fitness.Weights
	EmptyFitness float64
	Epsilon      float64
	TopN         int
	Optimizer    optimizer.Config
}

// Report summarizes a finished run.
type Report struct {
	RunID       string
	Mode        models.IntervalMode
	Dimension   int
	Evaluations int
	Generations int
	BestFitness float64
	ArchiveSize int
	Top         []models.ArchiveEntry
	Duration    time.Duration
}

// MinerOption configures Miner.
type MinerOption func(*Miner)

// WithPublisher streams the final archive to a message bus.
func WithPublisher(p drepo.Publisher) MinerOption {
	return func(m *Miner) {
		m.publisher = p
	}
}

// WithStorage adds a persistent sink for the final archive.
func WithStorage(s drepo.Storage) MinerOption {
	return func(m *Miner) {
		if s != nil {
			m.storages = append(m.storages, s)
		}
	}
}

// WithSnapshot keeps the latest archive in a shared cache.
func WithSnapshot(s drepo.Snapshot) MinerOption {
	return func(m *Miner) {
		m.snapshot = s
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) MinerOption {
	return func(m *Miner) {
		m.runID = id
	}
}

// Miner is the context of one search: it owns the archive, the optimizer and its random
// state, and nothing it holds is global.
type Miner struct {
	runID   string
	md      *models.Metadata
	store   *store.Store
	cfg     MinerConfig
	archive *archive.Archive
	problem *Problem
	engine  *optimizer.Engine

	publisher drepo.Publisher
	storages  []drepo.Storage
	snapshot  drepo.Snapshot
	metrics   drepo.Metrics
	log       *logger.Logger
}

// NewMiner wires decoder, evaluator, fitness and archive over md and st.
func NewMiner(
	md *models.Metadata,
	st *store.Store,
	cfg MinerConfig,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts ...MinerOption,
) (*Miner, error) {
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	cfg.Decoder.NumSegments = st.NumSegments()

	m := &Miner{
		runID:   uuid.NewString(),
		md:      md,
		store:   st,
		cfg:     cfg,
		archive: archive.New(archive.WithEpsilon(cfg.Epsilon)),
		metrics: metrics,
		log:     log,
	}
	for _, opt := range opts {
		opt(m)
	}

	dec := encoding.NewDecoder(md, cfg.Decoder)
	ev := evaluation.New(md, st)
	fn, err := fitness.New(dec, ev, cfg.Weights, cfg.Decoder.Mode,
		fitness.WithEmptyFitness(cfg.EmptyFitness),
		fitness.WithRecorder(m.archive),
	)
	if err != nil {
		return nil, fmt.Errorf("fitness: %w", err)
	}
	m.problem = NewProblem(fn, cfg.Decoder.Lower, cfg.Decoder.Upper, metrics)

	m.engine, err = optimizer.New(cfg.Optimizer, optimizer.WithObserver(m.observe))
	if err != nil {
		return nil, err
	}
	m.log = log.With(logger.String("run_id", m.runID))
	return m, nil
}

func (m *Miner) RunID() string { return m.runID }

func (m *Miner) Archive() *archive.Archive { return m.archive }

func (m *Miner) Problem() *Problem { return m.problem }

func (m *Miner) Metadata() *models.Metadata { return m.md }

func (m *Miner) Mode() models.IntervalMode { return m.cfg.Decoder.Mode }

// Run searches until the optimizer budget is spent or ctx is done, then exports the
// archive. A cancelled run still exports what it found and returns ctx.Err().
func (m *Miner) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	m.log.Info("mining started",
		logger.String("mode", string(m.cfg.Decoder.Mode)),
		logger.Int("features", m.md.Len()),
		logger.Int("transactions", m.store.Len()),
		logger.Int("segments", m.store.NumSegments()),
		logger.Int("dimension", m.problem.Dimension()),
	)

	res, runErr := m.engine.Run(ctx, m.problem)
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		m.metrics.RecordError("optimizer")
		return Report{}, fmt.Errorf("run optimizer: %w", runErr)
	}

	rep := Report{
		RunID:       m.runID,
		Mode:        m.cfg.Decoder.Mode,
		Dimension:   m.problem.Dimension(),
		Evaluations: res.Evaluations,
		Generations: res.Generations,
		BestFitness: res.Best.Score,
		ArchiveSize: m.archive.Len(),
		Top:         m.archive.Top(m.cfg.TopN),
		Duration:    time.Since(start),
	}
	m.metrics.RecordArchiveSize(rep.ArchiveSize)
	m.metrics.RecordLatency("run", rep.Duration.Seconds())

	// Export must outlive a cancelled search context.
	exportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	m.Export(exportCtx)

	m.log.Info("mining finished",
		logger.Int("evaluations", rep.Evaluations),
		logger.Int("generations", rep.Generations),
		logger.Int("rules", rep.ArchiveSize),
		logger.Float64("best_fitness", rep.BestFitness),
		logger.Duration("duration_ms", rep.Duration),
	)
	return rep, runErr
}

// Export writes the whole archive to every configured sink. Failures are logged and counted;
// one failing sink does not stop the others.
func (m *Miner) Export(ctx context.Context) {
	entries := make([]models.ArchiveEntry, 0, m.archive.Len())
	for e := range m.archive.Entries() {
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return
	}

	for _, s := range m.storages {
		m.export(ctx, "storage", func(ctx context.Context) error {
			return s.StoreBatch(ctx, m.runID, entries)
		})
	}
	if m.snapshot != nil {
		m.export(ctx, "snapshot", func(ctx context.Context) error {
			return m.snapshot.Save(ctx, m.runID, entries)
		})
	}
	if m.publisher != nil {
		m.export(ctx, "publisher", func(ctx context.Context) error {
			return m.publisher.PublishBatch(ctx, m.runID, entries)
		})
	}
}

func (m *Miner) export(ctx context.Context, sink string, fn func(context.Context) error) {
	start := time.Now()
	if err := fn(ctx); err != nil {
		m.metrics.RecordError("export_" + sink)
		m.log.Error("export failed", logger.String("sink", sink), logger.Error(err))
		return
	}
	m.metrics.RecordLatency("export_"+sink, time.Since(start).Seconds())
}

// Close releases the sinks.
func (m *Miner) Close() {
	if m.publisher != nil {
		_ = m.publisher.Close()
	}
	for _, s := range m.storages {
		_ = s.Close()
	}
}

func (m *Miner) observe(s optimizer.Stats) {
	m.metrics.RecordBestFitness(s.Best)
	m.metrics.RecordArchiveSize(m.archive.Len())
	m.log.Debug("generation",
		logger.Int("generation", s.Generation),
		logger.Float64("best", s.Best),
		logger.Float64("average", s.Average),
		logger.Int("rules", m.archive.Len()),
	)
}
