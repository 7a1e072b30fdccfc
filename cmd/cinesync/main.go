package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/veldrane/cinesync/pkg/catalog"
	"github.com/veldrane/cinesync/pkg/config"
	"github.com/veldrane/cinesync/pkg/metrics"
	"github.com/veldrane/cinesync/pkg/mirror"
	"github.com/veldrane/cinesync/pkg/pipeline"
	"github.com/veldrane/cinesync/pkg/runlock"
	"github.com/veldrane/cinesync/pkg/store"
)

const lockTTL = 10 * time.Minute

var (
	cfgPath   string
	logLevel  string
	logFormat string

	dryRun bool

	minInterval time.Duration
	maxInterval time.Duration
	metricsAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cinesync",
		Short: "Batch-ingest a paginated movie catalog into CSV and Postgres",
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "cinesync.yaml", "pipeline config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text|json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline run",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(logLevel, logFormat)
			cfg, err := loadPipeline(cfgPath)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return executeRun(ctx, cfg, logger)
		},
	}
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch and mirror, but persist to memory instead of Postgres")

	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the pipeline on a jittered interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(logLevel, logFormat)
			cfg, err := loadPipeline(cfgPath)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if metricsAddr != "" {
				go func() {
					if err := metrics.Serve(metricsAddr); err != nil {
						logger.Error("metrics listener failed", "addr", metricsAddr, "error", err)
					}
				}()
			}

			return daemonLoop(ctx, cfg, logger)
		},
	}
	daemonCmd.Flags().DurationVar(&minInterval, "min-interval", time.Hour, "minimum pause between runs")
	daemonCmd.Flags().DurationVar(&maxInterval, "max-interval", 2*time.Hour, "maximum pause between runs")
	daemonCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address, e.g. :6060")

	rootCmd.AddCommand(runCmd, daemonCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds a slog logger from the CLI flags.
func newLogger(level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// loadPipeline reads .env, then the YAML config with env expansion,
// defaults and validation.
func loadPipeline(path string) (*config.Pipeline, error) {
	// Secrets arrive through the environment; a local .env is optional.
	_ = godotenv.Load()

	loader := config.NewPipelineLoader(
		&config.EnvExpander{},
		&config.PipelineDefaults{},
		&config.RequiredFieldValidator{},
		&config.DatabaseValidator{},
		&config.BatchValidator{},
	)
	cfg, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg.(*config.Pipeline), nil
}

// executeRun performs one locked pipeline run.
func executeRun(ctx context.Context, cfg *config.Pipeline, logger *slog.Logger) error {
	lock, err := runlock.Acquire(cfg.Mirror.Path+".lock", lockTTL)
	if err != nil {
		return err
	}
	defer lock.Release()

	var backend store.Store
	if dryRun {
		logger.Info("dry run: persisting to memory")
		backend = store.NewMemory()
	} else {
		pg := store.NewPostgres(cfg.Database.DSN())
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		backend = pg
	}

	fetcher := catalog.NewFetcher(cfg.Source, catalog.WithLogger(logger))
	collector := catalog.NewCollector(fetcher, logger)
	writer := mirror.NewWriter(cfg.Mirror.Path)
	engine := store.NewEngine(backend, logger)

	driver := pipeline.NewDriver(
		collector, writer, engine,
		cfg.Batch.MaxPages, cfg.Batch.PagesPerBatch,
		logger,
	)

	logger.Info("starting pipeline",
		"name", cfg.Name,
		"max_pages", cfg.Batch.MaxPages,
		"pages_per_batch", cfg.Batch.PagesPerBatch,
		"mirror", cfg.Mirror.Path,
	)

	report, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("run finished",
		"outcome", string(report.Outcome),
		"batches", report.Batches,
		"mirrored", report.Mirrored,
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"new_genres", report.NewGenres,
	)
	return nil
}

// daemonLoop runs the pipeline forever with a jittered pause between runs.
// SIGINT/SIGTERM stop it at the next pause; a run in flight finishes its
// current page wait first.
func daemonLoop(ctx context.Context, cfg *config.Pipeline, logger *slog.Logger) error {
	if maxInterval < minInterval {
		maxInterval = minInterval
	}

	for {
		if err := executeRun(ctx, cfg, logger); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// A failed run does not stop the daemon; the next interval
			// retries from page one.
			logger.Error("run failed", "error", err)
		}

		pause := minInterval
		if span := maxInterval - minInterval; span > 0 {
			pause += time.Duration(rand.Int63n(int64(span)))
		}
		logger.Info("sleeping until next run", "pause", pause.String())

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(pause):
		}
	}
}
