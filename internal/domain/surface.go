package domain

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
)

// GeoTransform is the GDAL-style affine transform of a raster:
//
//	x = T[0] + col*T[1] + row*T[2]
//	y = T[3] + col*T[4] + row*T[5]
//
// where (col, row) addresses the top-left corner of a cell.
type GeoTransform [6]float64

// NorthUp reports whether the raster has no rotation or shear and rows run
// from north to south.
func (t GeoTransform) NorthUp() bool {
	return t[2] == 0 && t[4] == 0 && t[1] > 0 && t[5] < 0
}

// CellCenter returns the spatial coordinates of the centre of cell (col, row).
func (t GeoTransform) CellCenter(col, row int) (x, y float64) {
	c, r := float64(col)+0.5, float64(row)+0.5
	return t[0] + c*t[1] + r*t[2], t[3] + c*t[4] + r*t[5]
}

// CellArea returns the area of one cell in squared spatial units.
func (t GeoTransform) CellArea() float64 {
	return math.Abs(t[1]*t[5] - t[2]*t[4])
}

// Surface is a single-band population grid for one year.
type Surface struct {
	Source    string // file name the grid was read from
	Width     int
	Height    int
	Values    []float64 // row-major, len == Width*Height
	Transform GeoTransform
	NoData    float64
	HasNoData bool
	SRS       SpatialRef
}

// At returns the raw value of cell (col, row).
func (s *Surface) At(col, row int) float64 {
	return s.Values[row*s.Width+col]
}

// Count returns the contribution of v to a population sum: zero for the
// no-data value, NaN, and negative values, v otherwise.
func (s *Surface) Count(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if s.HasNoData && v == s.NoData {
		return 0
	}
	return v
}

// Bounds returns the spatial extent covered by the grid.
func (s *Surface) Bounds() *geom.Bounds {
	t := s.Transform
	b := &geom.Bounds{
		Min: geom.Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: geom.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, c := range [][2]float64{{0, 0}, {float64(s.Width), 0}, {0, float64(s.Height)}, {float64(s.Width), float64(s.Height)}} {
		x := t[0] + c[0]*t[1] + c[1]*t[2]
		y := t[3] + c[0]*t[4] + c[1]*t[5]
		b.Min.X = math.Min(b.Min.X, x)
		b.Min.Y = math.Min(b.Min.Y, y)
		b.Max.X = math.Max(b.Max.X, x)
		b.Max.Y = math.Max(b.Max.Y, y)
	}
	return b
}

// Stem returns the source file name without directory and extension.
func (s *Surface) Stem() string {
	return SourceStem(s.Source)
}

// SourceStem strips directory and extension from a raster path.
func SourceStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
