package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/unwpp"
	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
)

// UNWPP cleans the national estimates of the UN World Population
// Prospects workbook.
type UNWPP struct {
	workbook string
	country  string
	sink     TableSink
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewUNWPP(workbook, country string, sink TableSink, logger *slog.Logger, metrics *observability.Metrics) *UNWPP {
	return &UNWPP{workbook: workbook, country: country, sink: sink, logger: logger, metrics: metrics}
}

func (u *UNWPP) Name() string { return "unwpp" }

func (u *UNWPP) Run(ctx context.Context) error {
	st := stages{pipeline: u.Name(), logger: u.logger, metrics: u.metrics}

	var rows []domain.WPPRow
	err := st.run("extract", func() error {
		var err error
		if rows, err = unwpp.Load(u.workbook, u.country); err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("%w: no %q estimates in %s", domain.ErrEmptyResult, u.country, u.workbook)
		}
		return nil
	})
	if err != nil {
		return err
	}
	u.logger.Info("estimates loaded", "rows", len(rows), "first_year", rows[0].Year, "last_year", rows[len(rows)-1].Year)

	table := domain.WPPTable(UNWPPOutput, rows)
	return st.run("write", func() error {
		return u.sink.WriteTable(ctx, table)
	})
}
