package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/geotiff"
	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/shapefile"
	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
	"github.com/couchcryptid/benin-demographics-etl/internal/spatial"
	"github.com/couchcryptid/benin-demographics-etl/internal/zonal"
)

// Population sums every raster of a directory over the department polygons
// and writes one row per department, one column per raster.
type Population struct {
	rasterDir  string
	boundaries string
	sink       TableSink
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewPopulation creates the population pipeline. boundaries is the path of
// the departments shapefile.
func NewPopulation(rasterDir, boundaries string, sink TableSink, logger *slog.Logger, metrics *observability.Metrics) *Population {
	return &Population{
		rasterDir:  rasterDir,
		boundaries: boundaries,
		sink:       sink,
		logger:     logger,
		metrics:    metrics,
	}
}

func (p *Population) Name() string { return "population" }

func (p *Population) Run(ctx context.Context) error {
	st := stages{pipeline: p.Name(), logger: p.logger, metrics: p.metrics}

	var (
		rasters []string
		regions domain.RegionSet
	)
	err := st.run("load", func() error {
		var err error
		if rasters, err = ListRasters(p.rasterDir); err != nil {
			return err
		}
		if !shapefile.Exists(p.boundaries) {
			return fmt.Errorf("%w: departments shapefile %s not found", domain.ErrConfig, p.boundaries)
		}
		if regions, err = shapefile.Load(p.boundaries); err != nil {
			return err
		}
		if regions.Len() == 0 {
			return fmt.Errorf("%w: %s holds no departments", domain.ErrEmptyResult, p.boundaries)
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.logger.Info("inputs loaded", "rasters", len(rasters), "departments", regions.Len(), "srs", regions.SRS.String())

	assembler := domain.NewPopulationAssembler(regions.IDs())
	err = st.run("aggregate", func() error {
		harmonizer, err := spatial.NewHarmonizer(regions)
		if err != nil {
			return err
		}
		for _, path := range rasters {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.aggregate(path, harmonizer, assembler); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	table := assembler.Table(PopulationOutput, "departement")
	table.BOM = true
	return st.run("write", func() error {
		return p.sink.WriteTable(ctx, table)
	})
}

// aggregate reads one raster, sums it over every department, and releases it.
func (p *Population) aggregate(path string, h *spatial.Harmonizer, a *domain.PopulationAssembler) error {
	surface, err := geotiff.ReadFile(path)
	if err != nil {
		return err
	}
	regions, err := h.In(surface.SRS)
	if err != nil {
		return fmt.Errorf("raster %s: %w", filepath.Base(path), err)
	}
	column := domain.PopulationColumn(surface.Stem())
	obs, err := zonal.Aggregate(surface, regions, column)
	if err != nil {
		return err
	}
	for _, o := range obs {
		if err := a.Add(o); err != nil {
			return err
		}
	}
	p.metrics.RastersAggregated.Inc()
	p.logger.Info("raster aggregated",
		"raster", filepath.Base(path),
		"column", column,
		"width", surface.Width,
		"height", surface.Height,
	)
	return nil
}

// ListRasters returns the .tif files of dir sorted by name.
func ListRasters(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: raster dir %s not found", domain.ErrConfig, dir)
		}
		return nil, fmt.Errorf("read raster dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".tif") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no .tif rasters in %s", domain.ErrEmptyResult, dir)
	}
	sort.Strings(paths)
	return paths, nil
}
