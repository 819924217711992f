package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("sheetwatch/internal/snapshot")

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sheetwatch_snapshot_runs_total",
		Help: "Snapshot aggregator runs by outcome.",
	}, []string{"outcome"})
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sheetwatch_snapshot_run_duration_seconds",
		Help:    "Wall time of one snapshot aggregator run.",
		Buckets: prometheus.DefBuckets,
	})
)

// Runner drives the aggregator on a fixed interval. A failed run logs,
// counts, and leaves the previously published artifact untouched; the next
// tick retries from scratch.
type Runner struct {
	source    Source
	publisher *Publisher
	interval  time.Duration
	buildTime time.Time
	logger    *slog.Logger
}

type RunnerOption func(*Runner)

func WithInterval(interval time.Duration) RunnerOption {
	return func(r *Runner) {
		r.interval = interval
	}
}

func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

func NewRunner(source Source, publisher *Publisher, opts ...RunnerOption) *Runner {
	r := &Runner{
		source:    source,
		publisher: publisher,
		interval:  45 * time.Second,
		buildTime: time.Now().UTC(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run blocks until ctx is done, publishing one artifact per tick. The first
// run happens immediately so /snapshot is populated at startup.
func (r *Runner) Run(ctx context.Context) {
	if err := r.RunOnce(ctx); err != nil {
		r.logger.ErrorContext(ctx, "snapshot run failed", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "snapshot run failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single aggregation run. Any read failure aborts the run
// before anything is published.
func (r *Runner) RunOnce(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "snapshot.run")
	defer span.End()
	start := time.Now()

	in, err := r.source.Load(ctx)
	if err != nil {
		span.RecordError(err)
		runsTotal.WithLabelValues("failure").Inc()
		return err
	}

	provenance := Provenance{
		GeneratedAt: time.Now().UTC(),
		BuildTime:   r.buildTime,
	}
	public := Builder{}.Build(in)
	public.Provenance = provenance
	preliminary := Builder{IncludePreliminary: true}.Build(in)
	preliminary.Provenance = provenance

	r.publisher.Publish(ctx, public, preliminary)

	span.SetAttributes(
		attribute.Int("stations", public.Metadata.TotalStations),
		attribute.Int("submissions", public.Metadata.TotalSubmissions),
		attribute.Int("verified", public.Metadata.VerifiedSubmissions),
	)
	runsTotal.WithLabelValues("success").Inc()
	runDuration.Observe(time.Since(start).Seconds())

	r.logger.InfoContext(ctx, "snapshot published",
		"stations", public.Metadata.TotalStations,
		"submissions", public.Metadata.TotalSubmissions,
		"verified", public.Metadata.VerifiedSubmissions,
		"duration", time.Since(start),
	)
	return nil
}
