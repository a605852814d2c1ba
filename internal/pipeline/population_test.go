package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/geotiff/geotifftest"
	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/shapefile"
	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/pipeline"
	"github.com/couchcryptid/benin-demographics-etl/internal/spatial"
)

const wgs84Prj = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

func square(x0, y0, size float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0},
		{X: x0, Y: y0 + size},
		{X: x0 + size, Y: y0 + size},
		{X: x0 + size, Y: y0},
		{X: x0, Y: y0},
	}}
}

// writeDepartments stores a shapefile with one department over the top-left
// cell of the test rasters and one far outside them.
func writeDepartments(t *testing.T, dir string) string {
	t.Helper()
	ref, err := spatial.ParseRef(wgs84Prj)
	require.NoError(t, err)
	path := filepath.Join(dir, pipeline.BoundariesFile)
	require.NoError(t, shapefile.Write(path, domain.RegionSet{
		SRS: ref,
		Regions: []domain.Region{
			{ID: "Alibori", Admin: "Benin", Geometry: square(2.1, 11.1, 0.8)},
			{ID: "OuÃ©mÃ©", Admin: "Benin", Geometry: square(20, 20, 1)},
		},
	}))
	return path
}

func writeRaster(t *testing.T, dir, name string, values []float64) {
	t.Helper()
	require.NoError(t, geotifftest.Write(filepath.Join(dir, name), geotifftest.Options{
		Width:     2,
		Height:    2,
		Values:    values,
		OriginX:   2,
		OriginY:   12,
		PixelSize: 1,
		NoData:    "-99999",
	}))
}

func TestPopulation_EndToEnd(t *testing.T) {
	root := t.TempDir()
	rasterDir := filepath.Join(root, "worldpop")
	require.NoError(t, os.MkdirAll(rasterDir, 0o755))
	writeRaster(t, rasterDir, "ben_ppp_2020_UNadj.tif", []float64{10, 20, 30, 40})
	writeRaster(t, rasterDir, "ben_ppp_2010_UNadj.tif", []float64{1, 2, 3, 4})
	require.NoError(t, os.WriteFile(filepath.Join(rasterDir, "notes.txt"), []byte("ignored"), 0o644))
	shp := writeDepartments(t, root)

	sink := &recordingSink{}
	metrics := newTestMetrics()
	p := pipeline.NewPopulation(rasterDir, shp, sink, discardLogger(), metrics)
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, sink.tables, 1)
	tbl := sink.tables[0]
	assert.Equal(t, pipeline.PopulationOutput, tbl.Name)
	assert.True(t, tbl.BOM)
	assert.Equal(t, []string{"departement", "population_2010", "population_2020"}, tbl.Header)
	assert.Equal(t, [][]string{
		{"Alibori", "1", "10"},
		{"Ouémé", "0", "0"},
	}, tbl.Rows)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RastersAggregated))
}

func TestPopulation_ReprojectsDepartments(t *testing.T) {
	root := t.TempDir()
	rasterDir := filepath.Join(root, "worldpop")
	require.NoError(t, os.MkdirAll(rasterDir, 0o755))
	ones := make([]float64, 40*40)
	for i := range ones {
		ones[i] = 1
	}
	// 200 km of Web Mercator at 5 km cells, covering the Alibori square.
	require.NoError(t, geotifftest.Write(filepath.Join(rasterDir, "ben_ppp_2020_mercator.tif"), geotifftest.Options{
		Width:     40,
		Height:    40,
		Values:    ones,
		OriginX:   200000,
		OriginY:   1400000,
		PixelSize: 5000,
		EPSG:      3857,
	}))
	shp := writeDepartments(t, root)

	sink := &recordingSink{}
	require.NoError(t, pipeline.NewPopulation(rasterDir, shp, sink, discardLogger(), newTestMetrics()).Run(context.Background()))

	require.Len(t, sink.tables, 1)
	assert.Equal(t, []string{"departement", "population_2020"}, sink.tables[0].Header)
	// The square spans 89.1 km by 90.9 km in Web Mercator, about 323.7 cells;
	// 18 by 18 cell centres fall inside it.
	assert.Equal(t, [][]string{
		{"Alibori", "324"},
		{"Ouémé", "0"},
	}, sink.tables[0].Rows)
}

func TestPopulation_StemWithoutYear(t *testing.T) {
	root := t.TempDir()
	writeRaster(t, root, "ben_total.tif", []float64{5, 0, 0, 0})
	shp := writeDepartments(t, root)

	sink := &recordingSink{}
	require.NoError(t, pipeline.NewPopulation(root, shp, sink, discardLogger(), newTestMetrics()).Run(context.Background()))
	require.Len(t, sink.tables, 1)
	assert.Equal(t, []string{"departement", "ben_total"}, sink.tables[0].Header)
	assert.Equal(t, "5", sink.tables[0].Rows[0][1])
}

func TestPopulation_InputErrors(t *testing.T) {
	root := t.TempDir()
	shp := writeDepartments(t, root)
	emptyDir := filepath.Join(root, "empty")
	require.NoError(t, os.MkdirAll(emptyDir, 0o755))
	withRaster := filepath.Join(root, "rasters")
	require.NoError(t, os.MkdirAll(withRaster, 0o755))
	writeRaster(t, withRaster, "ben_ppp_2020.tif", []float64{1, 1, 1, 1})

	tests := []struct {
		name      string
		rasterDir string
		shp       string
		want      error
	}{
		{"missing raster dir", filepath.Join(root, "nope"), shp, domain.ErrConfig},
		{"no rasters", emptyDir, shp, domain.ErrEmptyResult},
		{"missing shapefile", withRaster, filepath.Join(root, "missing.shp"), domain.ErrConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			err := pipeline.NewPopulation(tt.rasterDir, tt.shp, sink, discardLogger(), newTestMetrics()).Run(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "load:")
			assert.Empty(t, sink.tables)
		})
	}
}

func TestPopulation_MalformedRaster(t *testing.T) {
	root := t.TempDir()
	shp := writeDepartments(t, root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "ben_ppp_2020.tif"), []byte("not a tiff"), 0o644))

	sink := &recordingSink{}
	err := pipeline.NewPopulation(root, shp, sink, discardLogger(), newTestMetrics()).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Empty(t, sink.tables)
}

func TestListRasters(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_2020.tif", "a_2010.TIF", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.tif"), 0o755))

	got, err := pipeline.ListRasters(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a_2010.TIF"), filepath.Join(dir, "b_2020.tif")}, got)
}
