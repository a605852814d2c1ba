package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
)

// SeriesSource returns every country row of one World Bank indicator.
type SeriesSource interface {
	Series(ctx context.Context, code string) ([]domain.CountrySeries, error)
}

// IndicatorOptions are the settings shared by the World Bank pipelines.
type IndicatorOptions struct {
	Country string
	Years   domain.YearRange
	Specs   []domain.IndicatorSpec
	Policy  domain.FailurePolicy
}

// WorldBank writes each catalog indicator as a long table of
// (country, code, year, value) for the target country.
type WorldBank struct {
	source  SeriesSource
	opts    IndicatorOptions
	sink    TableSink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWorldBank creates the single-indicator pipeline.
func NewWorldBank(source SeriesSource, opts IndicatorOptions, sink TableSink, logger *slog.Logger, metrics *observability.Metrics) *WorldBank {
	return &WorldBank{source: source, opts: opts, sink: sink, logger: logger, metrics: metrics}
}

func (w *WorldBank) Name() string { return "worldbank" }

func (w *WorldBank) Run(ctx context.Context) error {
	st := stages{pipeline: w.Name(), logger: w.logger, metrics: w.metrics}
	ok, err := forEachIndicator(ctx, w.Name(), w.opts.Policy, w.opts.Specs, w.logger, w.metrics, func(spec domain.IndicatorSpec) error {
		var records []domain.IndicatorRecord
		err := st.run("extract", func() error {
			var err error
			records, err = indicatorRecords(ctx, w.source, spec.Code, w.opts.Country, w.opts.Years)
			return err
		})
		if err != nil {
			return err
		}
		table := domain.IndicatorTable(spec.OutputName(), spec.Column, records)
		return st.run("write", func() error {
			return w.sink.WriteTable(ctx, table)
		})
	})
	if err != nil {
		return err
	}
	if ok == 0 {
		return fmt.Errorf("%w: every indicator failed", domain.ErrEmptyResult)
	}
	return nil
}

// indicatorRecords downloads one indicator and returns the target country's
// values within years in long form.
func indicatorRecords(ctx context.Context, source SeriesSource, code, country string, years domain.YearRange) ([]domain.IndicatorRecord, error) {
	series, err := source.Series(ctx, code)
	if err != nil {
		return nil, err
	}
	mine := domain.FilterCountry(series, country)
	if len(mine) == 0 {
		return nil, fmt.Errorf("%w: no %q row for %s", domain.ErrEmptyResult, country, code)
	}
	records := domain.Melt(mine, years)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no %q values in %s", domain.ErrEmptyResult, code, country, years)
	}
	return records, nil
}
