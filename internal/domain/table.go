package domain

import (
	"fmt"
	"sort"
	"strconv"
)

// Table is the serialization-boundary form of a dataset: named columns and
// string cells, in output order. Empty cells denote missing values.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	// BOM requests a UTF-8 byte-order mark so spreadsheet tools detect the
	// encoding of accented headers.
	BOM bool
	// KeyColumns is the number of leading columns that identify a row.
	// Zero means one.
	KeyColumns int
}

// Key returns the identifying cells of row i.
func (t Table) Key(i int) []string {
	n := t.KeyColumns
	if n <= 0 {
		n = 1
	}
	row := t.Rows[i]
	if n > len(row) {
		n = len(row)
	}
	return row[:n]
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// FormatValue renders a numeric cell with the shortest exact representation.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PopulationAssembler accumulates per-surface observations for a fixed,
// ordered list of regions and pivots them into a wide table at the end.
type PopulationAssembler struct {
	regions []string
	columns []string
	values  map[string][]float64 // column -> value per region row
}

// NewPopulationAssembler prepares an assembler whose rows follow regionIDs.
func NewPopulationAssembler(regionIDs []string) *PopulationAssembler {
	return &PopulationAssembler{
		regions: append([]string(nil), regionIDs...),
		values:  make(map[string][]float64),
	}
}

// Add records one observation. A column seen again (two rasters for the same
// year) keeps its position and takes the later value.
func (a *PopulationAssembler) Add(obs Observation) error {
	if obs.Row < 0 || obs.Row >= len(a.regions) {
		return fmt.Errorf("observation row %d out of range [0,%d)", obs.Row, len(a.regions))
	}
	if a.regions[obs.Row] != obs.RegionID {
		return fmt.Errorf("observation row %d is %q, not %q", obs.Row, a.regions[obs.Row], obs.RegionID)
	}
	col, ok := a.values[obs.Column]
	if !ok {
		col = make([]float64, len(a.regions))
		a.values[obs.Column] = col
		a.columns = append(a.columns, obs.Column)
	}
	col[obs.Row] = obs.Value
	return nil
}

// Columns returns the value columns in first-seen order.
func (a *PopulationAssembler) Columns() []string {
	return append([]string(nil), a.columns...)
}

// Observations returns every recorded value, column by column.
func (a *PopulationAssembler) Observations() []Observation {
	out := make([]Observation, 0, len(a.columns)*len(a.regions))
	for _, c := range a.columns {
		for row, id := range a.regions {
			out = append(out, Observation{Row: row, RegionID: id, Column: c, Value: a.values[c][row]})
		}
	}
	return out
}

// Table pivots the observations: one row per region with the region name in
// regionHeader (after FixRegionName), one numeric column per surface.
func (a *PopulationAssembler) Table(name, regionHeader string) Table {
	t := Table{Name: name, Header: append([]string{regionHeader}, a.columns...)}
	for row, id := range a.regions {
		cells := make([]string, 0, len(a.columns)+1)
		cells = append(cells, FixRegionName(id))
		for _, c := range a.columns {
			cells = append(cells, FormatValue(a.values[c][row]))
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// Series is one indicator's values keyed by year.
type Series struct {
	Column string
	Values map[int]float64
}

// YearTable is several series outer-joined on year.
type YearTable struct {
	Columns []string
	Years   []int
	cells   map[int]map[string]float64
}

// OuterJoinByYear merges series on year. Years are sorted ascending; a year
// missing from a series leaves that cell empty. Columns keep input order.
func OuterJoinByYear(series []Series) YearTable {
	yt := YearTable{cells: make(map[int]map[string]float64)}
	for _, s := range series {
		yt.Columns = append(yt.Columns, s.Column)
		for year, v := range s.Values {
			row, ok := yt.cells[year]
			if !ok {
				row = make(map[string]float64)
				yt.cells[year] = row
				yt.Years = append(yt.Years, year)
			}
			row[s.Column] = v
		}
	}
	sort.Ints(yt.Years)
	return yt
}

// Value returns the cell for (year, column) and whether it is present.
func (yt YearTable) Value(year int, column string) (float64, bool) {
	v, ok := yt.cells[year][column]
	return v, ok
}

// Table renders the year table with yearHeader as the first column.
func (yt YearTable) Table(name, yearHeader string) Table {
	t := Table{Name: name, Header: append([]string{yearHeader}, yt.Columns...)}
	for _, year := range yt.Years {
		cells := make([]string, 0, len(yt.Columns)+1)
		cells = append(cells, strconv.Itoa(year))
		for _, c := range yt.Columns {
			if v, ok := yt.Value(year, c); ok {
				cells = append(cells, FormatValue(v))
			} else {
				cells = append(cells, "")
			}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
