package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/benin-demographics-etl/internal/adapter/httpfetch"
	kafkaadapter "github.com/couchcryptid/benin-demographics-etl/internal/adapter/kafka"
	"github.com/couchcryptid/benin-demographics-etl/internal/config"
	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
	"github.com/couchcryptid/benin-demographics-etl/internal/pipeline"
)

// defaultPreviewRows is how many rows of each table a run prints.
const defaultPreviewRows = 5

// options are the flags shared by every subcommand. Empty values keep the
// environment configuration.
type options struct {
	envFile   string
	outputDir string
	country   string
	policy    string
	preview   int
	stdout    io.Writer
}

// app holds what a run needs once configuration is resolved.
type app struct {
	cfg       *config.Config
	catalog   config.Catalog
	logger    *slog.Logger
	metrics   *observability.Metrics
	client    *httpfetch.Client
	fetcher   domain.Fetcher
	sinks     pipeline.Sinks
	publisher *kafkaadapter.Publisher
}

func newRootCmd() *cobra.Command {
	return newCommand(&options{stdout: os.Stdout})
}

func newCommand(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "benin-etl",
		Short:         "Download and clean demographic data on Benin",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before the process environment is read")
	root.PersistentFlags().StringVar(&opts.outputDir, "output-dir", "", "Directory for output tables (overrides OUTPUT_DIR)")
	root.PersistentFlags().StringVar(&opts.country, "country", "", "Target country name (overrides TARGET_COUNTRY)")
	root.PersistentFlags().StringVar(&opts.policy, "policy", "", "Failure policy for multi-indicator pipelines: fatal or skip (overrides FAILURE_POLICY)")
	root.PersistentFlags().IntVar(&opts.preview, "preview", defaultPreviewRows, "Print the first N rows of every written table; 0 disables the preview")

	root.AddCommand(
		newWorldPopCmd(opts),
		newBoundariesCmd(opts),
		newPopulationCmd(opts),
		newWorldBankCmd(opts),
		newEducationCmd(opts),
		newDHSCmd(opts),
		newDHSCatalogCmd(opts),
		newUNWPPCmd(opts),
		newAllCmd(opts),
	)
	return root
}

// loadConfig reads the env file, the environment, and the flag overrides.
func loadConfig(opts *options) (*config.Config, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.envFile, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	if opts.country != "" {
		cfg.TargetCountry = opts.country
	}
	if opts.policy != "" {
		if cfg.FailurePolicy, err = domain.ParseFailurePolicy(opts.policy); err != nil {
			return nil, fmt.Errorf("invalid --policy: %w", err)
		}
	}
	return cfg, nil
}

// run resolves configuration, builds the pipelines with build, and runs
// them under a signal-aware context.
func run(ctx context.Context, opts *options, build func(*app) ([]pipeline.Runner, error)) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}
	catalog, err := config.LoadCatalog(cfg.IndicatorCatalog)
	if err != nil {
		slog.Error("failed to load indicator catalog", "error", err)
		return err
	}

	logger := observability.NewLogger(cfg).With("run_id", uuid.NewString())
	metrics := observability.NewMetrics()
	a := newApp(cfg, catalog, logger, metrics, opts)

	runners, err := build(a)
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		return err
	}
	batch := pipeline.NewBatch(logger, runners...)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, batch, metrics, logger)
		if err := srv.Start(); err != nil {
			logger.Error("ops server error", "error", err)
			return err
		}
	}

	runErr := batch.Run(ctx)
	a.shutdown(srv)

	if runErr != nil {
		logger.Error("run failed", "error", runErr, "completed", batch.Completed())
		return runErr
	}
	logger.Info("run complete", "pipelines", batch.Completed())
	return nil
}

func newApp(cfg *config.Config, catalog config.Catalog, logger *slog.Logger, metrics *observability.Metrics, opts *options) *app {
	client := httpfetch.NewClient(cfg.HTTPTimeout, logger, metrics)
	a := &app{
		cfg:     cfg,
		catalog: catalog,
		logger:  logger,
		metrics: metrics,
		client:  client,
		fetcher: httpfetch.NewCachedFetcher(client, cfg.FetchCacheSize, metrics),
		sinks:   pipeline.Sinks{csvfile.NewWriter(cfg.OutputDir, logger, metrics)},
	}
	if cfg.KafkaEnabled() {
		a.publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		a.sinks = append(a.sinks, a.publisher)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if opts.preview > 0 {
		a.sinks = append(a.sinks, previewSink{w: opts.stdout, rows: opts.preview})
	}
	return a
}

// shutdown releases the sinks and the ops server within SHUTDOWN_TIMEOUT
// and exports the metrics textfile.
func (a *app) shutdown(srv *httpadapter.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Error("ops server shutdown error", "error", err)
		}
	}
	if a.publisher != nil {
		done := make(chan error, 1)
		go func() { done <- a.publisher.Close() }()
		select {
		case err := <-done:
			if err != nil {
				a.logger.Error("kafka publisher close error", "error", err)
			}
		case <-ctx.Done():
			a.logger.Error("kafka publisher close timed out", "timeout", a.cfg.ShutdownTimeout)
		}
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		a.logger.Error("metrics textfile error", "error", err, "path", a.cfg.MetricsFile)
	}
}

// previewSink prints a short rendering of every table.
type previewSink struct {
	w    io.Writer
	rows int
}

func (p previewSink) WriteTable(_ context.Context, t domain.Table) error {
	_, err := fmt.Fprintln(p.w, csvfile.Preview(t, p.rows))
	return err
}
