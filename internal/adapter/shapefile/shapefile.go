// Package shapefile loads and writes department boundary shapefiles.
package shapefile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/spatial"
)

// Attribute columns of the Natural Earth admin-1 layer.
const (
	NameField  = "name"
	AdminField = "admin"
)

// PrjPath returns the projection sidecar path of a .shp file.
func PrjPath(shpPath string) string {
	return strings.TrimSuffix(shpPath, ".shp") + ".prj"
}

// Load reads every polygon record of the shapefile at path, in file order,
// with its spatial reference taken from the .prj sidecar.
func Load(path string) (domain.RegionSet, error) {
	prj, err := os.ReadFile(PrjPath(path))
	if err != nil {
		return domain.RegionSet{}, fmt.Errorf("%w: read projection of %s: %v", domain.ErrConfig, path, err)
	}
	srs, err := spatial.ParseRef(string(prj))
	if err != nil {
		return domain.RegionSet{}, fmt.Errorf("boundaries %s: %w", path, err)
	}

	dec, err := shp.NewDecoder(path)
	if err != nil {
		return domain.RegionSet{}, fmt.Errorf("%w: open shapefile %s: %v", domain.ErrParse, path, err)
	}
	defer dec.Close()

	set := domain.RegionSet{SRS: srs}
	for {
		g, fields, more := dec.DecodeRowFields(NameField, AdminField)
		if !more {
			break
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			return domain.RegionSet{}, fmt.Errorf("%w: %s: record %d is %T, want polygons", domain.ErrParse, path, len(set.Regions), g)
		}
		set.Regions = append(set.Regions, domain.Region{
			ID:       cleanField(fields[NameField]),
			Admin:    cleanField(fields[AdminField]),
			Geometry: poly,
		})
	}
	if err := dec.Error(); err != nil {
		return domain.RegionSet{}, fmt.Errorf("%w: decode shapefile %s: %v", domain.ErrParse, path, err)
	}
	return set, nil
}

func cleanField(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// Write stores set as a polygon shapefile with name and admin columns and
// writes its spatial reference definition to the .prj sidecar.
func Write(path string, set domain.RegionSet) error {
	if set.SRS.Definition == "" {
		return fmt.Errorf("%w: region collection has no spatial reference", domain.ErrConfig)
	}
	enc, err := shp.NewEncoderFromFields(path, goshp.POLYGON,
		goshp.StringField(NameField, 80),
		goshp.StringField(AdminField, 80),
	)
	if err != nil {
		return fmt.Errorf("create shapefile %s: %w", path, err)
	}
	for _, r := range set.Regions {
		if err := enc.EncodeFields(rings(r.Geometry), r.ID, r.Admin); err != nil {
			enc.Close()
			return fmt.Errorf("encode region %q: %w", r.ID, err)
		}
	}
	enc.Close()

	if err := os.WriteFile(PrjPath(path), []byte(set.SRS.Definition), 0o644); err != nil {
		return fmt.Errorf("write projection: %w", err)
	}
	return nil
}

// rings flattens a polygonal geometry into the single multi-ring polygon a
// shapefile record stores.
func rings(g geom.Polygonal) geom.Polygon {
	var out geom.Polygon
	for _, p := range g.Polygons() {
		out = append(out, p...)
	}
	return out
}

// Exists reports whether the shapefile and its sidecars are all present.
func Exists(path string) bool {
	for _, p := range []string{path, strings.TrimSuffix(path, ".shp") + ".dbf", PrjPath(path)} {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return false
		}
	}
	return true
}
