// Package annotate orchestrates one annotation run: read the accession list,
// fetch metadata for each accession, classify it, and route the results to
// the annotation table, the manual-review queue, and optionally the store.
package annotate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/hla-annotator/internal/config"
	"github.com/turtacn/hla-annotator/internal/domain/annotation"
	"github.com/turtacn/hla-annotator/internal/infrastructure/database/postgres"
	"github.com/turtacn/hla-annotator/internal/infrastructure/database/redis"
	"github.com/turtacn/hla-annotator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/hla-annotator/internal/infrastructure/monitoring/prometheus"
)

// Fetcher retrieves dataset metadata for one accession.
type Fetcher interface {
	FetchProject(ctx context.Context, accession string) (*annotation.Record, error)
}

// Store persists runs and their classifications.
type Store interface {
	BeginRun(ctx context.Context, run *postgres.Run) error
	SaveAnnotations(ctx context.Context, runID uuid.UUID, anns []annotation.Annotation) error
	CompleteRun(ctx context.Context, run *postgres.Run) error
}

// Service runs the annotation pipeline.
type Service struct {
	cfg        *config.Config
	classifier *annotation.Classifier
	fetcher    Fetcher
	cache      redis.Cache // nil when the cache is disabled
	store      Store       // nil when the store is disabled
	metrics    *prometheus.Metrics
	logger     logging.Logger
}

type ServiceOption func(*Service)

func WithCache(cache redis.Cache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

func WithStore(store Store) ServiceOption {
	return func(s *Service) { s.store = store }
}

func WithMetrics(m *prometheus.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the pipeline. Only the classifier and fetcher are
// mandatory; cache, store and metrics degrade to no-ops when absent.
func NewService(cfg *config.Config, classifier *annotation.Classifier, fetcher Fetcher, log logging.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		cfg:        cfg,
		classifier: classifier,
		fetcher:    fetcher,
		logger:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one full annotation pass over the configured meta file.
// A record-level failure never aborts the run; the record is marked with the
// error triple and routed to review. Run returns an error only when the run
// as a whole cannot proceed (unreadable input, unwritable output).
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.New()
	log := s.logger.With(logging.String("run_id", runID.String()))

	entries, err := ReadAccessions(s.cfg.Input.MetaFile, log)
	if err != nil {
		return nil, err
	}
	log.Info("starting annotation run",
		logging.String("meta_file", s.cfg.Input.MetaFile),
		logging.Int("accessions", len(entries)),
		logging.Int("concurrency", s.cfg.Worker.Concurrency),
	)

	if s.store != nil {
		run := &postgres.Run{ID: runID, MetaFile: s.cfg.Input.MetaFile, StartedAt: start}
		if err := s.store.BeginRun(ctx, run); err != nil {
			return nil, err
		}
	}

	// Workers write into a preallocated slice by index, so output order is
	// the meta-file order no matter how fetches interleave.
	results := make([]annotation.Annotation, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Worker.Concurrency)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			results[i] = s.processOne(gctx, log, entry)
			return nil
		})
	}
	g.Wait()

	if err := WriteAnnotations(s.cfg.Output.AnnotationFile, results); err != nil {
		return nil, err
	}
	if err := WriteReviewQueue(s.cfg.Output.ReviewFile, results); err != nil {
		return nil, err
	}

	summary := Summarize(runID, results, time.Since(start))

	if s.store != nil {
		if err := s.store.SaveAnnotations(ctx, runID, results); err != nil {
			// The files are already written; losing the store copy degrades
			// cross-run queries but not this run's output.
			log.Error("failed to persist annotations", logging.Err(err))
		}
		run := &postgres.Run{
			ID:         runID,
			FinishedAt: time.Now(),
			Total:      summary.Total,
			Reviewed:   summary.Reviewed,
			Failed:     summary.Failed,
		}
		if err := s.store.CompleteRun(ctx, run); err != nil {
			log.Error("failed to complete run record", logging.Err(err))
		}
	}

	s.metrics.ObserveRun(summary.Duration)
	s.metrics.SetReviewRatio(summary.ReviewRatio())
	summary.Log(log)
	return summary, nil
}

// processOne resolves a single entry. Panics are contained here: one
// misbehaving record must not take down the other workers.
func (s *Service) processOne(ctx context.Context, log logging.Logger, entry Entry) (result annotation.Annotation) {
	result.Accession = entry.Accession
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing record",
				logging.String("accession", entry.Accession),
				logging.Any("panic", r),
			)
			result.Classification = annotation.Failed()
			s.metrics.RecordProcessed(prometheus.ResultError)
		}
	}()

	rec, source, err := s.fetch(ctx, entry.Accession)
	if err != nil {
		if entry.Prior != nil {
			log.Debug("fetch failed, reusing prior annotation",
				logging.String("accession", entry.Accession),
				logging.Err(err),
			)
			s.metrics.ObserveFetch(prometheus.SourceFallback, "ok", 0)
			result.Classification = *entry.Prior
			s.recordRouting(result.Classification)
			return result
		}
		log.Warn("fetch failed with no prior annotation to fall back on",
			logging.String("accession", entry.Accession),
			logging.Err(err),
		)
		result.Classification = annotation.Failed()
		s.metrics.RecordProcessed(prometheus.ResultError)
		return result
	}
	s.metrics.ObserveFetch(source, "ok", 0)

	classifyStart := time.Now()
	result.Classification = s.classifier.Classify(rec.Corpus())
	s.metrics.ObserveClassify(time.Since(classifyStart))
	s.recordRouting(result.Classification)
	return result
}

func (s *Service) recordRouting(c annotation.Classification) {
	if c.NeedsReview() {
		s.metrics.RecordProcessed(prometheus.ResultReview)
		return
	}
	s.metrics.RecordProcessed(prometheus.ResultAnnotated)
}

// fetch resolves metadata through the cache when one is configured.
// Concurrent misses for the same accession collapse to one archive request
// inside the cache's GetOrSet.
func (s *Service) fetch(ctx context.Context, accession string) (*annotation.Record, string, error) {
	if s.cache == nil {
		rec, err := s.fetcher.FetchProject(ctx, accession)
		return rec, prometheus.SourceArchive, err
	}

	var rec annotation.Record
	loaded := false
	err := s.cache.GetOrSet(ctx, accession, &rec, s.cfg.Cache.TTL, func(ctx context.Context) (interface{}, error) {
		loaded = true
		return s.fetcher.FetchProject(ctx, accession)
	})
	if err != nil {
		return nil, "", err
	}
	source := prometheus.SourceCache
	if loaded {
		source = prometheus.SourceArchive
	}
	return &rec, source, nil
}
