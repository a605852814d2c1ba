package domain

import (
	"strings"
	"unicode"
)

// Observation is one aggregated value for a (region, period) pair. Period is
// the column label derived from the surface: "population_2020" for a
// year-stamped raster, or the file stem when no year token exists. Row is the
// region's position in its RegionSet, so two departments sharing a name stay
// distinct.
type Observation struct {
	Row      int
	RegionID string
	Column   string
	Value    float64
}

// YearToken returns the first "_"-separated part of stem that consists of
// exactly four ASCII digits.
func YearToken(stem string) (string, bool) {
	for _, part := range strings.Split(stem, "_") {
		if len(part) == 4 && isDigits(part) {
			return part, true
		}
	}
	return "", false
}

// PopulationColumn names the wide-table column for a raster: population_<year>
// when the stem carries a year token, the stem itself otherwise, so every
// surface still yields a distinguishable column.
func PopulationColumn(stem string) string {
	if year, ok := YearToken(stem); ok {
		return "population_" + year
	}
	return stem
}

func isDigits(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
