package domain

import (
	"math"
	"strconv"
)

// Column labels of the UN WPP "Estimates" sheet the cleaned table keeps.
const (
	WPPLocationColumn       = "Region, subregion, country or area *"
	WPPYearColumn           = "Year"
	WPPPopulationColumn     = "Total Population, as of 1 July (thousands)"
	WPPDensityColumn        = "Population Density, as of 1 July (persons per square km)"
	WPPLifeExpectancyColumn = "Life Expectancy at Birth, both sexes (years)"
)

// WPPRow is one national estimate. Density and life expectancy may be
// missing in the source sheet.
type WPPRow struct {
	Country             string
	Year                int
	PopulationThousands float64
	Density             *float64
	LifeExpectancy      *float64
}

// Persons converts the population from thousands to persons.
func (r WPPRow) Persons() int64 {
	return int64(math.Round(r.PopulationThousands * 1000))
}

// WPPTable renders cleaned rows under the French output column names.
func WPPTable(name string, rows []WPPRow) Table {
	t := Table{
		Name:       name,
		Header:     []string{"pays", "annee", "population_nationale_un", "densite_nationale_un", "esperance_vie_un"},
		KeyColumns: 2,
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Country,
			strconv.Itoa(r.Year),
			strconv.FormatInt(r.Persons(), 10),
			optionalValue(r.Density),
			optionalValue(r.LifeExpectancy),
		})
	}
	return t
}

func optionalValue(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatValue(*v)
}
