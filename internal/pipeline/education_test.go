package pipeline_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/pipeline"
)

var educationSpecs = []domain.IndicatorSpec{
	{Code: "SE.PRM.ENRR", Column: "tx_scolarisation_primaire_brut"},
	{Code: "SE.PRM.ENRR.FE", Column: "tx_scolarisation_primaire_feminin"},
	{Code: "SE.PRM.TCAQ.ZS", Column: "pct_enseignants_formes"},
}

func educationOptions(policy domain.FailurePolicy) pipeline.IndicatorOptions {
	return pipeline.IndicatorOptions{
		Country: "Benin",
		Years:   domain.YearRange{Start: 1960, End: 2024},
		Specs:   educationSpecs,
		Policy:  policy,
	}
}

func TestEducation_SkipsEmptyIndicator(t *testing.T) {
	src := &stubSeries{series: map[string][]domain.CountrySeries{
		"SE.PRM.ENRR":    benin("SE.PRM.ENRR", map[int]float64{2000: 80, 2010: 120.5}),
		"SE.PRM.ENRR.FE": benin("SE.PRM.ENRR.FE", nil),
		"SE.PRM.TCAQ.ZS": benin("SE.PRM.TCAQ.ZS", map[int]float64{1990: 40, 2010: 70}),
	}}
	sink := &recordingSink{}
	metrics := newTestMetrics()

	require.NoError(t, pipeline.NewEducation(src, educationOptions(domain.FailSkip), sink, discardLogger(), metrics).Run(context.Background()))

	require.Len(t, sink.tables, 1)
	want := domain.Table{
		Name:   pipeline.EducationOutput,
		Header: []string{"annee", "tx_scolarisation_primaire_brut", "pct_enseignants_formes"},
		Rows: [][]string{
			{"1990", "", "40"},
			{"2000", "80", ""},
			{"2010", "120.5", "70"},
		},
		BOM: true,
	}
	if diff := cmp.Diff(want, sink.tables[0]); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.IndicatorsSkipped.WithLabelValues("education")))
	assert.Equal(t, []string{"SE.PRM.ENRR", "SE.PRM.ENRR.FE", "SE.PRM.TCAQ.ZS"}, src.calls)
}

func TestEducation_SkipsTransportFailure(t *testing.T) {
	src := &stubSeries{
		series: map[string][]domain.CountrySeries{
			"SE.PRM.ENRR": benin("SE.PRM.ENRR", map[int]float64{2000: 80}),
		},
		errs: map[string]error{
			"SE.PRM.ENRR.FE": fmt.Errorf("%w: status 502", domain.ErrTransport),
			"SE.PRM.TCAQ.ZS": fmt.Errorf("%w: archive holds no data file", domain.ErrParse),
		},
	}
	sink := &recordingSink{}
	require.NoError(t, pipeline.NewEducation(src, educationOptions(domain.FailSkip), sink, discardLogger(), newTestMetrics()).Run(context.Background()))
	require.Len(t, sink.tables, 1)
	assert.Equal(t, []string{"annee", "tx_scolarisation_primaire_brut"}, sink.tables[0].Header)
}

func TestEducation_FatalPolicy(t *testing.T) {
	src := &stubSeries{series: map[string][]domain.CountrySeries{
		"SE.PRM.ENRR":    benin("SE.PRM.ENRR", map[int]float64{2000: 80}),
		"SE.PRM.ENRR.FE": benin("SE.PRM.ENRR.FE", nil),
	}}
	sink := &recordingSink{}
	err := pipeline.NewEducation(src, educationOptions(domain.FailFatal), sink, discardLogger(), newTestMetrics()).Run(context.Background())
	require.ErrorIs(t, err, domain.ErrEmptyResult)
	assert.Contains(t, err.Error(), "SE.PRM.ENRR.FE")
	assert.Empty(t, sink.tables)
}

func TestEducation_AllFailed(t *testing.T) {
	src := &stubSeries{}
	sink := &recordingSink{}
	metrics := newTestMetrics()
	err := pipeline.NewEducation(src, educationOptions(domain.FailSkip), sink, discardLogger(), metrics).Run(context.Background())
	require.ErrorIs(t, err, domain.ErrEmptyResult)
	assert.Contains(t, err.Error(), "all 3 indicators failed")
	assert.Empty(t, sink.tables)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.IndicatorsSkipped.WithLabelValues("education")))
}

func TestEducation_CancelledAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &cancellingSeries{cancel: cancel}
	err := pipeline.NewEducation(src, educationOptions(domain.FailSkip), &recordingSink{}, discardLogger(), newTestMetrics()).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, src.calls)
}

type cancellingSeries struct {
	cancel context.CancelFunc
	calls  int
}

func (s *cancellingSeries) Series(ctx context.Context, _ string) ([]domain.CountrySeries, error) {
	s.calls++
	s.cancel()
	return nil, ctx.Err()
}
