package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/dhs"
	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/worldbank"
	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/worldpop"
	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/pipeline"
)

func (a *app) worldPop() pipeline.Runner {
	links := worldpop.NewClient(a.fetcher, a.cfg.WorldPopBaseURL, a.logger)
	return pipeline.NewWorldPop(links, a.client, a.cfg.WorldPopStartID, a.cfg.WorldPopEndID, a.cfg.RasterDir, a.logger, a.metrics)
}

func (a *app) boundaries() pipeline.Runner {
	return pipeline.NewBoundaries(a.client, a.cfg.BoundariesURL, a.cfg.BoundariesDir, a.cfg.TargetCountry, a.logger, a.metrics)
}

func (a *app) population() pipeline.Runner {
	shp := filepath.Join(a.cfg.BoundariesDir, pipeline.BoundariesFile)
	return pipeline.NewPopulation(a.cfg.RasterDir, shp, a.sinks, a.logger, a.metrics)
}

func (a *app) worldBankSource() *worldbank.Client {
	return worldbank.NewClient(a.fetcher, a.cfg.WorldBankBaseURL, a.logger)
}

func (a *app) worldBank() pipeline.Runner {
	opts := pipeline.IndicatorOptions{
		Country: a.cfg.TargetCountry,
		Years:   a.cfg.WorldBankYears,
		Specs:   a.catalog.WorldBank,
		Policy:  a.cfg.PolicyOr(domain.FailFatal),
	}
	return pipeline.NewWorldBank(a.worldBankSource(), opts, a.sinks, a.logger, a.metrics)
}

func (a *app) education() pipeline.Runner {
	opts := pipeline.IndicatorOptions{
		Country: a.cfg.TargetCountry,
		Years:   a.cfg.EducationYears,
		Specs:   a.catalog.Education,
		Policy:  a.cfg.PolicyOr(domain.FailSkip),
	}
	return pipeline.NewEducation(a.worldBankSource(), opts, a.sinks, a.logger, a.metrics)
}

func (a *app) dhsSource() *dhs.Client {
	return dhs.NewClient(a.fetcher, a.cfg.DHSBaseURL, a.cfg.TargetCountryCode, a.logger)
}

func (a *app) dhs() pipeline.Runner {
	return pipeline.NewDHS(a.dhsSource(), a.catalog.DHS, a.sinks, a.logger, a.metrics)
}

func (a *app) dhsCatalog() pipeline.Runner {
	return pipeline.NewDHSCatalog(a.dhsSource(), a.sinks, a.logger, a.metrics)
}

func (a *app) unwpp() pipeline.Runner {
	return pipeline.NewUNWPP(a.cfg.WPPFile, a.cfg.TargetCountry, a.sinks, a.logger, a.metrics)
}

// all returns every pipeline, each after the ones whose files it reads.
func (a *app) all() []pipeline.Runner {
	return []pipeline.Runner{
		a.worldPop(),
		a.boundaries(),
		a.population(),
		a.worldBank(),
		a.education(),
		a.dhs(),
		a.dhsCatalog(),
		a.unwpp(),
	}
}

// pipelineCmd builds a subcommand that runs the pipelines returned by build.
func pipelineCmd(opts *options, use, short string, build func(*cobra.Command, *app) ([]pipeline.Runner, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, func(a *app) ([]pipeline.Runner, error) {
				return build(cmd, a)
			})
		},
	}
}

func single(fn func(*app) pipeline.Runner) func(*cobra.Command, *app) ([]pipeline.Runner, error) {
	return func(_ *cobra.Command, a *app) ([]pipeline.Runner, error) {
		return []pipeline.Runner{fn(a)}, nil
	}
}

func newWorldPopCmd(opts *options) *cobra.Command {
	var startID, endID int
	cmd := pipelineCmd(opts, "worldpop", "Download the WorldPop population rasters",
		func(cmd *cobra.Command, a *app) ([]pipeline.Runner, error) {
			if cmd.Flags().Changed("start-id") {
				a.cfg.WorldPopStartID = startID
			}
			if cmd.Flags().Changed("end-id") {
				a.cfg.WorldPopEndID = endID
			}
			if a.cfg.WorldPopStartID <= 0 || a.cfg.WorldPopEndID <= 0 {
				return nil, fmt.Errorf("%w: summary page ids must be positive", domain.ErrConfig)
			}
			return []pipeline.Runner{a.worldPop()}, nil
		})
	cmd.Flags().IntVar(&startID, "start-id", 0, "First summary page id (overrides WORLDPOP_START_ID)")
	cmd.Flags().IntVar(&endID, "end-id", 0, "Last summary page id (overrides WORLDPOP_END_ID)")
	return cmd
}

func newBoundariesCmd(opts *options) *cobra.Command {
	return pipelineCmd(opts, "boundaries", "Download the Natural Earth departments of the target country", single((*app).boundaries))
}

func newPopulationCmd(opts *options) *cobra.Command {
	var rasterDir, boundariesDir string
	cmd := pipelineCmd(opts, "population", "Sum the population rasters over every department",
		func(_ *cobra.Command, a *app) ([]pipeline.Runner, error) {
			if rasterDir != "" {
				a.cfg.RasterDir = rasterDir
			}
			if boundariesDir != "" {
				a.cfg.BoundariesDir = boundariesDir
			}
			return []pipeline.Runner{a.population()}, nil
		})
	cmd.Flags().StringVar(&rasterDir, "raster-dir", "", "Directory of .tif rasters (overrides RASTER_DIR)")
	cmd.Flags().StringVar(&boundariesDir, "boundaries-dir", "", "Directory holding "+pipeline.BoundariesFile+" (overrides BOUNDARIES_DIR)")
	return cmd
}

func newWorldBankCmd(opts *options) *cobra.Command {
	return pipelineCmd(opts, "worldbank", "Download the World Bank indicators as long tables", single((*app).worldBank))
}

func newEducationCmd(opts *options) *cobra.Command {
	return pipelineCmd(opts, "education", "Consolidate the World Bank education indicators by year", single((*app).education))
}

func newDHSCmd(opts *options) *cobra.Command {
	return pipelineCmd(opts, "dhs", "Pivot the DHS Program indicators by survey year", single((*app).dhs))
}

func newDHSCatalogCmd(opts *options) *cobra.Command {
	return pipelineCmd(opts, "dhs-catalog", "List the DHS Program indicators published for the target country", single((*app).dhsCatalog))
}

func newUNWPPCmd(opts *options) *cobra.Command {
	var workbook string
	cmd := pipelineCmd(opts, "unwpp", "Clean the UN World Population Prospects estimates",
		func(_ *cobra.Command, a *app) ([]pipeline.Runner, error) {
			if workbook != "" {
				a.cfg.WPPFile = workbook
			}
			return []pipeline.Runner{a.unwpp()}, nil
		})
	cmd.Flags().StringVar(&workbook, "workbook", "", "Path of the WPP Excel workbook (overrides WPP_FILE)")
	return cmd
}

func newAllCmd(opts *options) *cobra.Command {
	return pipelineCmd(opts, "all", "Run every pipeline in order", func(_ *cobra.Command, a *app) ([]pipeline.Runner, error) {
		return a.all(), nil
	})
}
