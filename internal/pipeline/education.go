package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
)

// Education consolidates several World Bank indicators into one table
// keyed by year.
type Education struct {
	source  SeriesSource
	opts    IndicatorOptions
	sink    TableSink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewEducation creates the consolidation pipeline.
func NewEducation(source SeriesSource, opts IndicatorOptions, sink TableSink, logger *slog.Logger, metrics *observability.Metrics) *Education {
	return &Education{source: source, opts: opts, sink: sink, logger: logger, metrics: metrics}
}

func (e *Education) Name() string { return "education" }

func (e *Education) Run(ctx context.Context) error {
	st := stages{pipeline: e.Name(), logger: e.logger, metrics: e.metrics}

	var series []domain.Series
	err := st.run("extract", func() error {
		ok, err := forEachIndicator(ctx, e.Name(), e.opts.Policy, e.opts.Specs, e.logger, e.metrics, func(spec domain.IndicatorSpec) error {
			records, err := indicatorRecords(ctx, e.source, spec.Code, e.opts.Country, e.opts.Years)
			if err != nil {
				return err
			}
			series = append(series, domain.SeriesFromRecords(spec.Column, records))
			e.logger.Info("indicator loaded", "indicator", spec.Code, "column", spec.Column, "years", len(records))
			return nil
		})
		if err != nil {
			return err
		}
		if ok == 0 {
			return fmt.Errorf("%w: all %d indicators failed", domain.ErrEmptyResult, len(e.opts.Specs))
		}
		return nil
	})
	if err != nil {
		return err
	}

	table := domain.OuterJoinByYear(series).Table(EducationOutput, "annee")
	table.BOM = true
	return st.run("write", func() error {
		return e.sink.WriteTable(ctx, table)
	})
}
