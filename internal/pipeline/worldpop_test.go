package pipeline_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/pipeline"
)

type stubLinks struct {
	links map[int]string
	calls []int
}

func (s *stubLinks) RasterLink(_ context.Context, id int) (string, error) {
	s.calls = append(s.calls, id)
	link, ok := s.links[id]
	if !ok {
		return "", fmt.Errorf("page %d: %w: no files section", id, domain.ErrEmptyResult)
	}
	return link, nil
}

type fileDownloader struct {
	urls []string
	fail map[string]bool
}

func (d *fileDownloader) Download(_ context.Context, url, dest string) (int64, error) {
	d.urls = append(d.urls, url)
	if d.fail[url] {
		return 0, fmt.Errorf("%w: status 404", domain.ErrTransport)
	}
	return 4, os.WriteFile(dest, []byte("tiff"), 0o644)
}

func TestWorldPop_Run(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ben_ppp_2019.tif"), []byte("old"), 0o644))

	links := &stubLinks{links: map[int]string{
		10: "https://data.test/ben_ppp_2020.tif",
		9:  "https://data.test/ben_ppp_2019.tif",
		7:  "https://data.test/ben_ppp_2017.tif",
	}}
	dl := &fileDownloader{fail: map[string]bool{"https://data.test/ben_ppp_2017.tif": true}}

	w := pipeline.NewWorldPop(links, dl, 10, 7, dir, discardLogger(), newTestMetrics())
	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, []int{10, 9, 8, 7}, links.calls)
	assert.Equal(t, []string{"https://data.test/ben_ppp_2020.tif", "https://data.test/ben_ppp_2017.tif"}, dl.urls)

	b, err := os.ReadFile(filepath.Join(dir, "ben_ppp_2019.tif"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(b), "existing raster is kept")
	assert.FileExists(t, filepath.Join(dir, "ben_ppp_2020.tif"))
	assert.NoFileExists(t, filepath.Join(dir, "ben_ppp_2017.tif"))
}

func TestWorldPop_NothingFound(t *testing.T) {
	w := pipeline.NewWorldPop(&stubLinks{}, &fileDownloader{}, 1, 3, t.TempDir(), discardLogger(), newTestMetrics())
	err := w.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrEmptyResult)
	assert.Contains(t, err.Error(), "pages 1 to 3")
}

func TestWorldPop_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	links := &stubLinks{}
	err := pipeline.NewWorldPop(links, &fileDownloader{}, 1, 3, t.TempDir(), discardLogger(), newTestMetrics()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, links.calls)
}
