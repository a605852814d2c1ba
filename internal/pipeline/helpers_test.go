package pipeline_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
)

type recordingSink struct {
	tables []domain.Table
	err    error
}

func (s *recordingSink) WriteTable(_ context.Context, t domain.Table) error {
	if s.err != nil {
		return s.err
	}
	s.tables = append(s.tables, t)
	return nil
}

func (s *recordingSink) find(name string) (domain.Table, bool) {
	for _, t := range s.tables {
		if t.Name == name {
			return t, true
		}
	}
	return domain.Table{}, false
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}
