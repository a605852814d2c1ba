package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
)

// DHSSource returns DHS data points for the target country.
type DHSSource interface {
	Indicators(ctx context.Context, ids []string) ([]domain.DHSRecord, error)
	All(ctx context.Context) ([]domain.DHSRecord, error)
}

// DHS pivots the preferred estimates of the catalog indicators by survey
// year.
type DHS struct {
	source  DHSSource
	specs   []domain.IndicatorSpec
	sink    TableSink
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewDHS(source DHSSource, specs []domain.IndicatorSpec, sink TableSink, logger *slog.Logger, metrics *observability.Metrics) *DHS {
	return &DHS{source: source, specs: specs, sink: sink, logger: logger, metrics: metrics}
}

func (d *DHS) Name() string { return "dhs" }

func (d *DHS) Run(ctx context.Context) error {
	st := stages{pipeline: d.Name(), logger: d.logger, metrics: d.metrics}

	var records []domain.DHSRecord
	err := st.run("extract", func() error {
		all, err := d.source.Indicators(ctx, domain.Codes(d.specs))
		if err != nil {
			return err
		}
		records = domain.Preferred(all)
		if len(records) == 0 {
			return fmt.Errorf("%w: none of %d data points is a preferred estimate", domain.ErrEmptyResult, len(all))
		}
		d.logger.Info("preferred estimates kept", "records", len(records), "received", len(all))
		return nil
	})
	if err != nil {
		return err
	}

	table := domain.OuterJoinByYear(domain.PivotMean(records, d.specs)).Table(DHSOutput, "annee")
	return st.run("write", func() error {
		return d.sink.WriteTable(ctx, table)
	})
}

// DHSCatalog lists every indicator the DHS Program publishes for the
// target country.
type DHSCatalog struct {
	source  DHSSource
	sink    TableSink
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewDHSCatalog(source DHSSource, sink TableSink, logger *slog.Logger, metrics *observability.Metrics) *DHSCatalog {
	return &DHSCatalog{source: source, sink: sink, logger: logger, metrics: metrics}
}

func (d *DHSCatalog) Name() string { return "dhs-catalog" }

func (d *DHSCatalog) Run(ctx context.Context) error {
	st := stages{pipeline: d.Name(), logger: d.logger, metrics: d.metrics}

	var entries []domain.IndicatorEntry
	err := st.run("extract", func() error {
		records, err := d.source.All(ctx)
		if err != nil {
			return err
		}
		entries = domain.UniqueIndicators(records)
		return nil
	})
	if err != nil {
		return err
	}
	d.logger.Info("indicators listed", "indicators", len(entries))

	table := domain.IndicatorCatalogTable(DHSCatalogOutput, entries)
	return st.run("write", func() error {
		return d.sink.WriteTable(ctx, table)
	})
}
