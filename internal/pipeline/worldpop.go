package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/worldpop"
	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
)

// LinkSource resolves a WorldPop summary page to its raster download.
type LinkSource interface {
	RasterLink(ctx context.Context, id int) (string, error)
}

// WorldPop downloads the raster of every summary page in a range of ids.
// Rasters already on disk are left alone.
type WorldPop struct {
	links      LinkSource
	downloader domain.Downloader
	startID    int
	endID      int
	dir        string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

func NewWorldPop(links LinkSource, downloader domain.Downloader, startID, endID int, dir string, logger *slog.Logger, metrics *observability.Metrics) *WorldPop {
	return &WorldPop{
		links:      links,
		downloader: downloader,
		startID:    startID,
		endID:      endID,
		dir:        dir,
		logger:     logger,
		metrics:    metrics,
	}
}

func (w *WorldPop) Name() string { return "worldpop" }

// Run visits every page; a page that fails is logged and skipped. The run
// fails only when no raster ends up in the directory.
func (w *WorldPop) Run(ctx context.Context) error {
	st := stages{pipeline: w.Name(), logger: w.logger, metrics: w.metrics}

	var downloaded, present, failed int
	err := st.run("download", func() error {
		for _, id := range worldpop.PageIDs(w.startID, w.endID) {
			if err := ctx.Err(); err != nil {
				return err
			}
			fetched, err := w.page(ctx, id)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return err
				}
				failed++
				w.logger.Warn("summary page skipped", "page_id", id, "error", err)
			case fetched:
				downloaded++
			default:
				present++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.logger.Info("rasters ready", "downloaded", downloaded, "already_present", present, "failed", failed)
	if downloaded+present == 0 {
		return fmt.Errorf("%w: no raster found on pages %d to %d", domain.ErrEmptyResult, w.startID, w.endID)
	}
	return nil
}

// page downloads the raster of page id and reports whether a download took
// place.
func (w *WorldPop) page(ctx context.Context, id int) (bool, error) {
	link, err := w.links.RasterLink(ctx, id)
	if err != nil {
		return false, err
	}
	name, err := worldpop.FileName(link)
	if err != nil {
		return false, err
	}
	dest := filepath.Join(w.dir, name)
	if _, err := os.Stat(dest); err == nil {
		w.logger.Info("raster already present", "page_id", id, "path", dest)
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", dest, err)
	}
	if _, err := w.downloader.Download(ctx, link, dest); err != nil {
		return false, err
	}
	return true, nil
}
