package pipeline_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/shapefile"
	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/pipeline"
	"github.com/couchcryptid/benin-demographics-etl/internal/spatial"
)

// archiveDownloader serves a local file for every URL.
type archiveDownloader struct {
	src  string
	urls []string
	err  error
}

func (d *archiveDownloader) Download(_ context.Context, url, dest string) (int64, error) {
	d.urls = append(d.urls, url)
	if d.err != nil {
		return 0, d.err
	}
	b, err := os.ReadFile(d.src)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	return int64(len(b)), os.WriteFile(dest, b, 0o644)
}

// naturalEarthArchive zips an admin-1 shapefile holding departments of two
// countries under a nested directory, as the upstream archive does.
func naturalEarthArchive(t *testing.T) string {
	t.Helper()
	work := t.TempDir()
	ref, err := spatial.ParseRef(wgs84Prj)
	require.NoError(t, err)
	shp := filepath.Join(work, "ne_10m_admin_1_states_provinces.shp")
	require.NoError(t, shapefile.Write(shp, domain.RegionSet{
		SRS: ref,
		Regions: []domain.Region{
			{ID: "Alibori", Admin: "Benin", Geometry: square(2, 11, 1)},
			{ID: "Kara", Admin: "Togo", Geometry: square(0.8, 9.5, 0.5)},
			{ID: "Zou", Admin: "Benin", Geometry: square(2, 7, 0.5)},
		},
	}))

	archive := filepath.Join(work, "admin1.zip")
	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		b, err := os.ReadFile(filepath.Join(work, "ne_10m_admin_1_states_provinces"+ext))
		require.NoError(t, err)
		w, err := zw.Create("ne_10m_admin_1_states_provinces/ne_10m_admin_1_states_provinces" + ext)
		require.NoError(t, err)
		_, err = w.Write(b)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return archive
}

func TestBoundaries_Run(t *testing.T) {
	dl := &archiveDownloader{src: naturalEarthArchive(t)}
	dir := filepath.Join(t.TempDir(), "boundaries")
	b := pipeline.NewBoundaries(dl, "https://example.test/admin1.zip", dir, "Benin", discardLogger(), newTestMetrics())

	require.NoError(t, b.Run(context.Background()))

	assert.Equal(t, []string{"https://example.test/admin1.zip"}, dl.urls)
	assert.FileExists(t, filepath.Join(dir, pipeline.BoundariesArchive))
	assert.Equal(t, filepath.Join(dir, pipeline.BoundariesFile), b.Output())
	require.True(t, shapefile.Exists(b.Output()))

	got, err := shapefile.Load(b.Output())
	require.NoError(t, err)
	assert.Equal(t, []string{"Alibori", "Zou"}, got.IDs())
	assert.Equal(t, "EPSG:4326", got.SRS.Code)
}

func TestBoundaries_UnknownCountry(t *testing.T) {
	dl := &archiveDownloader{src: naturalEarthArchive(t)}
	dir := t.TempDir()
	b := pipeline.NewBoundaries(dl, "https://example.test/admin1.zip", dir, "Bénin", discardLogger(), newTestMetrics())

	err := b.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrEmptyResult)
	assert.Contains(t, err.Error(), "filter:")
	assert.NoFileExists(t, b.Output())
}

func TestBoundaries_DownloadFails(t *testing.T) {
	dl := &archiveDownloader{err: domain.ErrTransport}
	b := pipeline.NewBoundaries(dl, "https://example.test/admin1.zip", t.TempDir(), "Benin", discardLogger(), newTestMetrics())
	assert.ErrorIs(t, b.Run(context.Background()), domain.ErrTransport)
}
