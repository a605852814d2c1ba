// Package zonal sums population surfaces over region polygons.
//
// A cell belongs to a polygon when its centre lies inside it under the
// even-odd rule, so holes and multipolygons need no special handling. Only
// the rows and columns under the polygon's bounding box are visited.
package zonal

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
)

type edge struct {
	x1, y1, x2, y2 float64
}

// Sum returns the total of the cells of s whose centre falls inside g.
// No-data, NaN, and negative cells add nothing. A polygon outside the grid
// sums to exactly zero.
func Sum(s *domain.Surface, g geom.Polygonal) (float64, error) {
	if !s.Transform.NorthUp() {
		return 0, fmt.Errorf("%w: %s: rotated or south-up grids are not supported", domain.ErrParse, s.Source)
	}
	if len(s.Values) != s.Width*s.Height {
		return 0, fmt.Errorf("%w: %s: %d values for a %dx%d grid", domain.ErrParse, s.Source, len(s.Values), s.Width, s.Height)
	}
	if g == nil {
		return 0, nil
	}
	b := g.Bounds()
	if b == nil || !overlaps(b, s.Bounds()) {
		return 0, nil
	}

	edges := polygonEdges(g)
	if len(edges) == 0 {
		return 0, nil
	}

	t := s.Transform
	x0, dx, y0, dy := t[0], t[1], t[3], t[5]

	// Rows whose centre y lies within [b.Min.Y, b.Max.Y]; dy is negative.
	rowStart := clamp(int(math.Ceil((b.Max.Y-y0)/dy-0.5)), 0, s.Height)
	rowEnd := clamp(int(math.Floor((b.Min.Y-y0)/dy-0.5))+1, 0, s.Height)

	var total float64
	xs := make([]float64, 0, 16)
	for row := rowStart; row < rowEnd; row++ {
		yc := y0 + (float64(row)+0.5)*dy
		xs = crossings(edges, yc, xs[:0])
		for k := 0; k+1 < len(xs); k += 2 {
			colStart := clamp(int(math.Ceil((xs[k]-x0)/dx-0.5)), 0, s.Width)
			colEnd := clamp(int(math.Ceil((xs[k+1]-x0)/dx-0.5)), 0, s.Width)
			base := row * s.Width
			for col := colStart; col < colEnd; col++ {
				total += s.Count(s.Values[base+col])
			}
		}
	}
	return total, nil
}

// crossings appends the x positions where the horizontal line y meets the
// edges, sorted ascending. An edge is half-open in y so a vertex shared by
// two edges is counted once.
func crossings(edges []edge, y float64, xs []float64) []float64 {
	for _, e := range edges {
		if (e.y1 <= y) == (e.y2 <= y) {
			continue
		}
		xs = append(xs, e.x1+(y-e.y1)*(e.x2-e.x1)/(e.y2-e.y1))
	}
	sort.Float64s(xs)
	return xs
}

func polygonEdges(g geom.Polygonal) []edge {
	var edges []edge
	for _, poly := range g.Polygons() {
		for _, ring := range poly {
			n := len(ring)
			if n < 3 {
				continue
			}
			for i := 0; i < n; i++ {
				p, q := ring[i], ring[(i+1)%n]
				if p.Y == q.Y {
					continue
				}
				edges = append(edges, edge{p.X, p.Y, q.X, q.Y})
			}
		}
	}
	return edges
}

func overlaps(a, b *geom.Bounds) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X && a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// indexedRegion is the rtree entry for one region row.
type indexedRegion struct {
	geom.Polygonal
	row int
}

// Index finds the regions whose bounding box meets a grid's extent.
type Index struct {
	tree *rtree.Rtree
}

// NewIndex builds the index over regions in collection order.
func NewIndex(regions domain.RegionSet) *Index {
	tree := rtree.NewTree(25, 50)
	for i, r := range regions.Regions {
		if r.Geometry == nil {
			continue
		}
		tree.Insert(&indexedRegion{Polygonal: r.Geometry, row: i})
	}
	return &Index{tree: tree}
}

// Candidates returns the rows of the regions that may overlap b, sorted.
func (idx *Index) Candidates(b *geom.Bounds) []int {
	var rows []int
	for _, item := range idx.tree.SearchIntersect(b) {
		rows = append(rows, item.(*indexedRegion).row)
	}
	sort.Ints(rows)
	return rows
}

// Aggregate sums s over every region of regions, which must already be in
// the surface's spatial reference, and returns one observation per region in
// collection order. Regions away from the grid get zero without being
// scanned.
func Aggregate(s *domain.Surface, regions domain.RegionSet, column string) ([]domain.Observation, error) {
	obs := make([]domain.Observation, len(regions.Regions))
	for i, r := range regions.Regions {
		obs[i] = domain.Observation{Row: i, RegionID: r.ID, Column: column}
	}

	for _, row := range NewIndex(regions).Candidates(s.Bounds()) {
		v, err := Sum(s, regions.Regions[row].Geometry)
		if err != nil {
			return nil, fmt.Errorf("sum region %q over %s: %w", regions.Regions[row].ID, s.Source, err)
		}
		obs[row].Value = v
	}
	return obs, nil
}
