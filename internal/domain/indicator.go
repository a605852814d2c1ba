package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// IndicatorSpec pairs an upstream indicator code with the column name it
// takes in the output table. Output names the file of pipelines that write
// one table per indicator; it is ignored elsewhere.
type IndicatorSpec struct {
	Code   string `yaml:"code" json:"code"`
	Column string `yaml:"column" json:"column"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// OutputName returns Output, or a name derived from the code when unset,
// e.g. "wb_se_prm_enrr.csv".
func (s IndicatorSpec) OutputName() string {
	if s.Output != "" {
		return s.Output
	}
	return "wb_" + strings.ToLower(strings.ReplaceAll(s.Code, ".", "_")) + ".csv"
}

// YearRange is an inclusive range of calendar years.
type YearRange struct {
	Start int
	End   int
}

// Contains reports whether year falls inside the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}

// Validate rejects inverted ranges.
func (r YearRange) Validate() error {
	if r.Start > r.End {
		return fmt.Errorf("%w: year range %d-%d is inverted", ErrConfig, r.Start, r.End)
	}
	return nil
}

func (r YearRange) String() string {
	return strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}

// CountrySeries is one row of a World Bank indicator file: a country and
// the non-empty yearly values found in its year columns.
type CountrySeries struct {
	CountryName   string
	CountryCode   string
	IndicatorName string
	IndicatorCode string
	Values        map[int]float64
}

// IndicatorRecord is the long form of one (country, year) value.
type IndicatorRecord struct {
	CountryName   string
	CountryCode   string
	IndicatorCode string
	Year          int
	Value         float64
}

// FilterCountry keeps the series whose CountryName equals name exactly.
func FilterCountry(series []CountrySeries, name string) []CountrySeries {
	var out []CountrySeries
	for _, s := range series {
		if s.CountryName == name {
			out = append(out, s)
		}
	}
	return out
}

// Melt turns wide series into long records restricted to years. Records are
// ordered by year, then by series order. Years without a value are absent.
func Melt(series []CountrySeries, years YearRange) []IndicatorRecord {
	var out []IndicatorRecord
	for year := years.Start; year <= years.End; year++ {
		for _, s := range series {
			v, ok := s.Values[year]
			if !ok {
				continue
			}
			out = append(out, IndicatorRecord{
				CountryName:   s.CountryName,
				CountryCode:   s.CountryCode,
				IndicatorCode: s.IndicatorCode,
				Year:          year,
				Value:         v,
			})
		}
	}
	return out
}

// SeriesFromRecords collects records into a single year-keyed series named
// column. A repeated year keeps the last value.
func SeriesFromRecords(column string, records []IndicatorRecord) Series {
	s := Series{Column: column, Values: make(map[int]float64, len(records))}
	for _, r := range records {
		s.Values[r.Year] = r.Value
	}
	return s
}

// IndicatorTable renders long records as
// "Country Name,Country Code,Année,<valueColumn>".
func IndicatorTable(name, valueColumn string, records []IndicatorRecord) Table {
	t := Table{
		Name:       name,
		Header:     []string{"Country Name", "Country Code", "Année", valueColumn},
		KeyColumns: 3,
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{r.CountryName, r.CountryCode, strconv.Itoa(r.Year), FormatValue(r.Value)})
	}
	return t
}

// ColumnFor returns the output column registered for code, or code itself.
func ColumnFor(specs []IndicatorSpec, code string) string {
	for _, s := range specs {
		if s.Code == code {
			return s.Column
		}
	}
	return code
}

// Codes returns the indicator codes of specs in order.
func Codes(specs []IndicatorSpec) []string {
	codes := make([]string, len(specs))
	for i, s := range specs {
		codes[i] = s.Code
	}
	return codes
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
