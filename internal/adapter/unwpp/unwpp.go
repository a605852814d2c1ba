// Package unwpp reads national estimates from the UN World Population
// Prospects demographic indicators workbook.
package unwpp

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
)

const (
	// SheetName holds the historical estimates.
	SheetName = "Estimates"
	// HeaderRow is the zero-based row carrying the column labels; the rows
	// above it are the publication banner.
	HeaderRow = 16
)

// Load returns the estimates for country, in sheet order. Rows without a
// year or a total population are dropped.
func Load(path, country string) ([]domain.WPPRow, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: workbook: %v", domain.ErrParse, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook %s: %v", domain.ErrParse, path, err)
	}
	defer f.Close()

	rows, err := f.Rows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", domain.ErrParse, SheetName, err)
	}
	defer rows.Close()

	var (
		cols   *columns
		out    []domain.WPPRow
		rowIdx = -1
	)
	for rows.Next() {
		rowIdx++
		if rowIdx < HeaderRow {
			continue
		}
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: read row %d: %v", domain.ErrParse, rowIdx, err)
		}
		if cols == nil {
			c, err := mapHeader(cells)
			if err != nil {
				return nil, err
			}
			cols = &c
			continue
		}
		if cell(cells, cols.location) != country {
			continue
		}
		if r, ok := cols.row(cells); ok {
			out = append(out, r)
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("%w: iterate sheet %q: %v", domain.ErrParse, SheetName, err)
	}
	if cols == nil {
		return nil, fmt.Errorf("%w: sheet %q has no header at row %d", domain.ErrParse, SheetName, HeaderRow)
	}
	return out, nil
}

type columns struct {
	location, year, population, density, lifeExpectancy int
}

func mapHeader(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	var c columns
	for _, want := range []struct {
		name string
		dst  *int
	}{
		{domain.WPPLocationColumn, &c.location},
		{domain.WPPYearColumn, &c.year},
		{domain.WPPPopulationColumn, &c.population},
		{domain.WPPDensityColumn, &c.density},
		{domain.WPPLifeExpectancyColumn, &c.lifeExpectancy},
	} {
		i, ok := idx[want.name]
		if !ok {
			return columns{}, fmt.Errorf("%w: column %q not found in header row %d", domain.ErrParse, want.name, HeaderRow)
		}
		*want.dst = i
	}
	return c, nil
}

func (c columns) row(cells []string) (domain.WPPRow, bool) {
	year, ok := number(cell(cells, c.year))
	if !ok {
		return domain.WPPRow{}, false
	}
	pop, ok := number(cell(cells, c.population))
	if !ok {
		return domain.WPPRow{}, false
	}
	return domain.WPPRow{
		Country:             cell(cells, c.location),
		Year:                int(math.Round(year)),
		PopulationThousands: pop,
		Density:             optional(cell(cells, c.density)),
		LifeExpectancy:      optional(cell(cells, c.lifeExpectancy)),
	}, true
}

func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// number parses a numeric cell. The workbook marks missing estimates with
// "..." which, like an empty cell, is reported as absent.
func number(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func optional(s string) *float64 {
	v, ok := number(s)
	if !ok {
		return nil
	}
	return &v
}
