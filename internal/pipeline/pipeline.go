// Package pipeline wires the source adapters, the domain reshaping, and the
// table sinks into the batch pipelines the CLI runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
)

// Output file names.
const (
	PopulationOutput = "population_par_departement_benin.csv"
	EducationOutput  = "education_indicators_benin_consolidated.csv"
	DHSOutput        = "dhs_indicators_benin_api.csv"
	DHSCatalogOutput = "dhs_liste_indicateurs_benin.csv"
	UNWPPOutput      = "un_demographic_indicators_benin_cleaned.csv"

	BoundariesArchive = "world_admin_boundaries.zip"
	BoundariesFile    = "benin_departments.shp"
)

// TableSink receives finished tables.
type TableSink interface {
	WriteTable(ctx context.Context, t domain.Table) error
}

// Sinks writes each table to every sink in order and stops at the first
// failure.
type Sinks []TableSink

func (s Sinks) WriteTable(ctx context.Context, t domain.Table) error {
	for _, sink := range s {
		if err := sink.WriteTable(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Runner is one named pipeline.
type Runner interface {
	Name() string
	Run(ctx context.Context) error
}

// Batch runs pipelines one after another and stops at the first failure.
type Batch struct {
	runners   []Runner
	logger    *slog.Logger
	completed atomic.Int64
}

// NewBatch creates a Batch over runners, which run in the given order.
func NewBatch(logger *slog.Logger, runners ...Runner) *Batch {
	return &Batch{runners: runners, logger: logger}
}

// Run executes every pipeline. The returned error names the pipeline that
// failed.
func (b *Batch) Run(ctx context.Context) error {
	for _, r := range b.runners {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger := b.logger.With("pipeline", r.Name())
		logger.Info("pipeline started")
		start := domain.Clock().Now()
		if err := r.Run(ctx); err != nil {
			return fmt.Errorf("%s: %w", r.Name(), err)
		}
		b.completed.Add(1)
		logger.Info("pipeline finished", "duration", domain.Clock().Since(start))
	}
	return nil
}

// Completed returns the number of pipelines that finished successfully.
func (b *Batch) Completed() int {
	return int(b.completed.Load())
}

// CheckReadiness returns nil once at least one pipeline has finished.
func (b *Batch) CheckReadiness(_ context.Context) error {
	if b.completed.Load() == 0 {
		return errors.New("no pipeline has completed yet")
	}
	return nil
}

// stages times the named steps of one pipeline.
type stages struct {
	pipeline string
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// run calls fn, records its duration, and prefixes any error with the stage
// name.
func (s stages) run(stage string, fn func() error) error {
	start := domain.Clock().Now()
	err := fn()
	elapsed := domain.Clock().Since(start)
	s.metrics.StageDuration.WithLabelValues(s.pipeline, stage).Observe(elapsed.Seconds())
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	s.logger.Debug("stage done", "stage", stage, "duration", elapsed)
	return nil
}

// forEachIndicator calls fn for every spec. Under FailSkip a failed
// indicator is logged, counted, and dropped; under FailFatal the first
// failure is returned. Cancellation always aborts. It returns the number of
// indicators that succeeded.
func forEachIndicator(
	ctx context.Context,
	pipeline string,
	policy domain.FailurePolicy,
	specs []domain.IndicatorSpec,
	logger *slog.Logger,
	metrics *observability.Metrics,
	fn func(domain.IndicatorSpec) error,
) (int, error) {
	ok := 0
	for _, spec := range specs {
		err := fn(spec)
		if err == nil {
			ok++
			continue
		}
		if ctx.Err() != nil || policy != domain.FailSkip {
			return ok, fmt.Errorf("indicator %s: %w", spec.Code, err)
		}
		logger.Warn("indicator skipped", "indicator", spec.Code, "column", spec.Column, "error", err)
		metrics.IndicatorsSkipped.WithLabelValues(pipeline).Inc()
	}
	return ok, nil
}
