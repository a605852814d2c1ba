package spatial

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
)

// Harmonizer hands out the region collection expressed in a requested
// spatial reference. Every reprojection starts from the collection it was
// built with, never from an earlier reprojection, and the original is never
// modified. Results are memoised per target code.
type Harmonizer struct {
	original domain.RegionSet
	source   *proj.SR
	cache    map[string]domain.RegionSet
}

// NewHarmonizer wraps regions, which must carry a resolvable reference.
func NewHarmonizer(regions domain.RegionSet) (*Harmonizer, error) {
	if regions.SRS.IsZero() {
		return nil, fmt.Errorf("%w: region collection has no spatial reference", domain.ErrConfig)
	}
	sr, err := proj.Parse(regions.SRS.Definition)
	if err != nil {
		return nil, fmt.Errorf("%w: parse region reference %s: %v", domain.ErrConfig, regions.SRS, err)
	}
	return &Harmonizer{
		original: regions,
		source:   sr,
		cache:    make(map[string]domain.RegionSet),
	}, nil
}

// Original returns the collection the harmonizer was built with.
func (h *Harmonizer) Original() domain.RegionSet {
	return h.original
}

// In returns the regions expressed in target. When target equals the
// original reference the original collection is returned unchanged.
func (h *Harmonizer) In(target domain.SpatialRef) (domain.RegionSet, error) {
	if h.original.SRS.Equal(target) {
		return h.original, nil
	}
	if cached, ok := h.cache[target.Code]; ok {
		return cached, nil
	}

	dest, err := proj.Parse(target.Definition)
	if err != nil {
		return domain.RegionSet{}, fmt.Errorf("%w: parse target reference %s: %v", domain.ErrConfig, target, err)
	}
	trans, err := h.source.NewTransform(dest)
	if err != nil {
		return domain.RegionSet{}, fmt.Errorf("%w: transform %s to %s: %v", domain.ErrConfig, h.original.SRS, target, err)
	}

	out, err := Reproject(h.original, target, trans)
	if err != nil {
		return domain.RegionSet{}, err
	}
	if target.Code != "" {
		h.cache[target.Code] = out
	}
	return out, nil
}

// Reproject applies trans to every region of set and returns a new set in
// target. The input set is left as it was.
func Reproject(set domain.RegionSet, target domain.SpatialRef, trans proj.Transformer) (domain.RegionSet, error) {
	out := domain.RegionSet{
		SRS:     target,
		Regions: make([]domain.Region, len(set.Regions)),
	}
	for i, r := range set.Regions {
		g, err := clonePolygonal(r.Geometry).Transform(trans)
		if err != nil {
			return domain.RegionSet{}, fmt.Errorf("reproject region %q: %w", r.ID, err)
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			return domain.RegionSet{}, fmt.Errorf("reproject region %q: got %T, want polygonal geometry", r.ID, g)
		}
		out.Regions[i] = domain.Region{ID: r.ID, Admin: r.Admin, Geometry: poly}
	}
	return out, nil
}

// clonePolygonal copies the coordinates of p so a transform can never write
// through to the caller's rings.
func clonePolygonal(p geom.Polygonal) geom.Polygonal {
	polys := p.Polygons()
	out := make(geom.MultiPolygon, len(polys))
	for i, poly := range polys {
		rings := make(geom.Polygon, len(poly))
		for j, ring := range poly {
			rings[j] = append([]geom.Point(nil), ring...)
		}
		out[i] = rings
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}
