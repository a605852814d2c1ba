package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/pipeline"
)

type stubDHS struct {
	records []domain.DHSRecord
	err     error
	ids     []string
}

func (s *stubDHS) Indicators(_ context.Context, ids []string) ([]domain.DHSRecord, error) {
	s.ids = ids
	return s.records, s.err
}

func (s *stubDHS) All(context.Context) ([]domain.DHSRecord, error) {
	return s.records, s.err
}

var dhsSpecs = []domain.IndicatorSpec{
	{Code: "HC_ELEC_H_ELC", Column: "pct_menages_electricite"},
	{Code: "CM_ECMR_C_IMR", Column: "tx_mortalite_infantile"},
}

func TestDHS_Run(t *testing.T) {
	src := &stubDHS{records: []domain.DHSRecord{
		{IndicatorID: "CM_ECMR_C_IMR", SurveyYear: 2006, Value: 67, IsPreferred: 1},
		{IndicatorID: "HC_ELEC_H_ELC", SurveyYear: 2006, Value: 24, IsPreferred: 1},
		{IndicatorID: "HC_ELEC_H_ELC", SurveyYear: 2006, Value: 26, IsPreferred: 1},
		{IndicatorID: "HC_ELEC_H_ELC", SurveyYear: 2001, Value: 22.1, IsPreferred: 1},
		{IndicatorID: "HC_ELEC_H_ELC", SurveyYear: 2001, Value: 90, IsPreferred: 0},
	}}
	sink := &recordingSink{}

	require.NoError(t, pipeline.NewDHS(src, dhsSpecs, sink, discardLogger(), newTestMetrics()).Run(context.Background()))

	assert.Equal(t, []string{"HC_ELEC_H_ELC", "CM_ECMR_C_IMR"}, src.ids)
	tbl, ok := sink.find(pipeline.DHSOutput)
	require.True(t, ok)
	assert.Equal(t, []string{"annee", "pct_menages_electricite", "tx_mortalite_infantile"}, tbl.Header)
	assert.Equal(t, [][]string{
		{"2001", "22.1", ""},
		{"2006", "25", "67"},
	}, tbl.Rows)
}

func TestDHS_NoPreferredEstimate(t *testing.T) {
	src := &stubDHS{records: []domain.DHSRecord{{IndicatorID: "HC_ELEC_H_ELC", SurveyYear: 2001, Value: 1}}}
	sink := &recordingSink{}
	err := pipeline.NewDHS(src, dhsSpecs, sink, discardLogger(), newTestMetrics()).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmptyResult)
	assert.Empty(t, sink.tables)
}

func TestDHS_SourceError(t *testing.T) {
	src := &stubDHS{err: domain.ErrEmptyResult}
	err := pipeline.NewDHS(src, dhsSpecs, &recordingSink{}, discardLogger(), newTestMetrics()).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmptyResult)
	assert.Contains(t, err.Error(), "extract:")
}

func TestDHSCatalog_Run(t *testing.T) {
	src := &stubDHS{records: []domain.DHSRecord{
		{IndicatorID: "HC_ELEC_H_ELC", Indicator: "Households with electricity"},
		{IndicatorID: "CM_ECMR_C_IMR", Indicator: "Infant mortality rate"},
		{IndicatorID: "HC_ELEC_H_ELC", Indicator: "Households with electricity"},
	}}
	sink := &recordingSink{}

	require.NoError(t, pipeline.NewDHSCatalog(src, sink, discardLogger(), newTestMetrics()).Run(context.Background()))

	tbl, ok := sink.find(pipeline.DHSCatalogOutput)
	require.True(t, ok)
	assert.Equal(t, []string{"IndicatorId", "Indicator"}, tbl.Header)
	assert.Equal(t, [][]string{
		{"HC_ELEC_H_ELC", "Households with electricity"},
		{"CM_ECMR_C_IMR", "Infant mortality rate"},
	}, tbl.Rows)
}
