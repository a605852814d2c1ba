package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/naturalearth"
	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/shapefile"
	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
)

// Boundaries downloads the Natural Earth admin-1 archive and keeps the
// target country's departments as a shapefile.
type Boundaries struct {
	downloader domain.Downloader
	url        string
	dir        string
	country    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewBoundaries creates the boundaries pipeline. Files are written to dir.
func NewBoundaries(downloader domain.Downloader, url, dir, country string, logger *slog.Logger, metrics *observability.Metrics) *Boundaries {
	return &Boundaries{
		downloader: downloader,
		url:        url,
		dir:        dir,
		country:    country,
		logger:     logger,
		metrics:    metrics,
	}
}

func (b *Boundaries) Name() string { return "boundaries" }

// Output returns the path of the departments shapefile.
func (b *Boundaries) Output() string {
	return filepath.Join(b.dir, BoundariesFile)
}

func (b *Boundaries) Run(ctx context.Context) error {
	st := stages{pipeline: b.Name(), logger: b.logger, metrics: b.metrics}

	var shp string
	err := st.run("download", func() error {
		archive := filepath.Join(b.dir, BoundariesArchive)
		if _, err := b.downloader.Download(ctx, b.url, archive); err != nil {
			return err
		}
		var err error
		shp, err = naturalearth.Extract(archive, b.dir)
		return err
	})
	if err != nil {
		return err
	}

	var departments domain.RegionSet
	err = st.run("filter", func() error {
		all, err := shapefile.Load(shp)
		if err != nil {
			return err
		}
		departments = all.FilterAdmin(b.country)
		if departments.Len() == 0 {
			return fmt.Errorf("%w: no region of %s has admin %q", domain.ErrEmptyResult, filepath.Base(shp), b.country)
		}
		b.logger.Info("departments selected", "departments", departments.Len(), "regions", all.Len())
		return nil
	})
	if err != nil {
		return err
	}

	return st.run("write", func() error {
		if err := shapefile.Write(b.Output(), departments); err != nil {
			return err
		}
		b.logger.Info("departments written", "path", b.Output())
		return nil
	})
}
