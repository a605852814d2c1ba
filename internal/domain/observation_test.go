package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYearToken(t *testing.T) {
	tests := []struct {
		stem string
		want string
		ok   bool
	}{
		{"ben_ppp_2020", "2020", true},
		{"ben_ppp_2020_UNadj", "2020", true},
		{"2015_ben", "2015", true},
		{"ben_ppp_20201", "", false},
		{"ben_ppp", "", false},
		{"ben2020", "", false},
		{"ben_٢٠٢٠", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.stem, func(t *testing.T) {
			got, ok := YearToken(tt.stem)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPopulationColumn(t *testing.T) {
	assert.Equal(t, "population_2010", PopulationColumn("ben_ppp_2010"))
	assert.Equal(t, "population_2020", PopulationColumn("ben_ppp_2020_constrained"))
	assert.Equal(t, "ben_ppp_latest", PopulationColumn("ben_ppp_latest"))
}

func TestSourceStem(t *testing.T) {
	assert.Equal(t, "ben_ppp_2010", SourceStem("/data/rasters/ben_ppp_2010.tif"))
	assert.Equal(t, "ben_ppp_2010", SourceStem("ben_ppp_2010.tif"))
	assert.Equal(t, "noext", SourceStem("noext"))
}
