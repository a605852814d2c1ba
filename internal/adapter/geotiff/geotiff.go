// Package geotiff reads single-band population rasters through GDAL.
package geotiff

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/spatial"
)

// MaxCells caps the grid size read into memory. A WorldPop 100 m raster of
// Benin holds about 7e7 cells.
const MaxCells = 1 << 28

var registerOnce sync.Once

// Register loads the GDAL drivers. It is safe to call more than once.
func Register() {
	registerOnce.Do(godal.RegisterAll)
}

// ReadFile reads band 1 of the raster at path. The dataset is closed before
// returning, so only the decoded grid stays in memory.
func ReadFile(path string) (*domain.Surface, error) {
	Register()
	name := filepath.Base(path)

	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open raster %s: %v", domain.ErrParse, name, err)
	}
	defer ds.Close() //nolint:errcheck // read-only dataset

	st := ds.Structure()
	if st.NBands < 1 {
		return nil, parseError(name, "no raster band")
	}
	cells, err := gridCells(st.SizeX, st.SizeY)
	if err != nil {
		return nil, parseError(name, "%v", err)
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, parseError(name, "no geotransform: %v", err)
	}
	transform := domain.GeoTransform(gt)
	if !transform.NorthUp() {
		return nil, parseError(name, "rotated or sheared grid %v", gt)
	}

	srs, err := spatialRef(ds, name)
	if err != nil {
		return nil, err
	}

	band := ds.Bands()[0]
	values := make([]float64, cells)
	if err := band.Read(0, 0, values, st.SizeX, st.SizeY); err != nil {
		return nil, parseError(name, "read band 1: %v", err)
	}

	s := &domain.Surface{
		Source:    path,
		Width:     st.SizeX,
		Height:    st.SizeY,
		Values:    values,
		Transform: transform,
		SRS:       srs,
	}
	s.NoData, s.HasNoData = band.NoData()
	return s, nil
}

// gridCells returns width*height, rejecting empty grids and grids above
// MaxCells before anything is allocated.
func gridCells(width, height int) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("bad grid size %dx%d", width, height)
	}
	if width > MaxCells/height {
		return 0, fmt.Errorf("grid of %dx%d cells exceeds %d", width, height, MaxCells)
	}
	return width * height, nil
}

// spatialRef resolves the dataset's reference, preferring its EPSG code and
// falling back to the WKT definition.
func spatialRef(ds *godal.Dataset, name string) (domain.SpatialRef, error) {
	if strings.TrimSpace(ds.Projection()) == "" {
		return domain.SpatialRef{}, fmt.Errorf("%w: raster %s has no spatial reference", domain.ErrConfig, name)
	}
	sr := ds.SpatialRef()
	if sr == nil {
		return domain.SpatialRef{}, fmt.Errorf("%w: raster %s has no spatial reference", domain.ErrConfig, name)
	}
	defer sr.Close()

	if strings.EqualFold(sr.AuthorityName(""), "EPSG") {
		if code, err := strconv.Atoi(sr.AuthorityCode("")); err == nil {
			if ref, err := spatial.EPSG(code); err == nil {
				return ref, nil
			}
		}
	}
	wkt, err := sr.WKT()
	if err != nil || strings.TrimSpace(wkt) == "" {
		return domain.SpatialRef{}, fmt.Errorf("%w: raster %s has no spatial reference", domain.ErrConfig, name)
	}
	ref, err := spatial.ParseRef(wkt)
	if err != nil {
		return domain.SpatialRef{}, fmt.Errorf("raster %s: %w", name, err)
	}
	return ref, nil
}

func parseError(name, format string, args ...any) error {
	return fmt.Errorf("%w: raster %s: %s", domain.ErrParse, name, fmt.Sprintf(format, args...))
}
