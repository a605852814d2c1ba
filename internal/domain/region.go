package domain

import "github.com/ctessum/geom"

// SpatialRef identifies a coordinate reference system. Code is the stable
// identity used for comparisons ("EPSG:4326", or the definition itself when
// no authority code is known); Definition is the PROJ.4 or WKT text handed to
// the projection library.
type SpatialRef struct {
	Code       string
	Definition string
}

// IsZero reports whether no spatial reference was recorded for the dataset.
func (s SpatialRef) IsZero() bool {
	return s.Code == "" && s.Definition == ""
}

// Equal reports whether two references denote the same coordinate system.
func (s SpatialRef) Equal(o SpatialRef) bool {
	return s.Code != "" && s.Code == o.Code
}

func (s SpatialRef) String() string {
	if s.Code != "" {
		return s.Code
	}
	return s.Definition
}

// Region is one administrative department.
type Region struct {
	ID       string // department name, stable across years
	Admin    string // country the department belongs to
	Geometry geom.Polygonal
}

// RegionSet is a polygon collection in a single spatial reference. It is
// loaded once per run and never mutated; reprojection produces a new set.
type RegionSet struct {
	Regions []Region
	SRS     SpatialRef
}

// Len returns the number of regions in the set.
func (s RegionSet) Len() int {
	return len(s.Regions)
}

// IDs returns the region identifiers in collection order.
func (s RegionSet) IDs() []string {
	ids := make([]string, len(s.Regions))
	for i, r := range s.Regions {
		ids[i] = r.ID
	}
	return ids
}

// FilterAdmin returns the regions whose Admin equals country, in order.
func (s RegionSet) FilterAdmin(country string) RegionSet {
	out := RegionSet{SRS: s.SRS}
	for _, r := range s.Regions {
		if r.Admin == country {
			out.Regions = append(out.Regions, r)
		}
	}
	return out
}
