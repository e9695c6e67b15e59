// Command batch generates quote cards in bulk and maintains their caption
// records.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/RiteshF7/instaauto/batch"
	"github.com/RiteshF7/instaauto/handler"
	"github.com/RiteshF7/instaauto/pipeline"
	"github.com/RiteshF7/instaauto/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configFile string
	outputDir  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "batch",
		Short:        "Generate quote cards and captions in bulk",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", string(handler.DefaultConfigFile()), "path of the YAML configuration")
	root.PersistentFlags().StringVar(&opts.outputDir, "out", "", "output directory (overrides batch.output_dir)")

	root.AddCommand(newGenerateCmd(opts), newCaptionsCmd(opts), newMigrateCmd(opts))
	return root
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		count int
		delay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate quote cards for random entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(opts, func(cfg *handler.Config) {
				if cmd.Flags().Changed("delay") {
					cfg.Batch.Delay = delay
				}
			})
			if err != nil {
				return err
			}
			sum, err := app.runner.Generate(cmd.Context(), count)
			if errors.Is(err, batch.ErrLocked) {
				app.logger.Error("Another batch run is in progress", zap.String("lock", app.cfg.Batch.LockFile))
				return err
			}
			if err != nil {
				return err
			}
			if sum.Successful == 0 && sum.Failed > 0 {
				return fmt.Errorf("all %d images failed", sum.Failed)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "number of images (default batch.count)")
	cmd.Flags().DurationVar(&delay, "delay", 0, "pause between images (default batch.delay)")
	return cmd
}

func newCaptionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "captions",
		Short: "Generate captions for existing images that have none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(opts, nil)
			if err != nil {
				return err
			}
			_, err = app.runner.Backfill(cmd.Context())
			return err
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var numbers []int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy caption log entries into the JSON records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(opts, nil)
			if err != nil {
				return err
			}
			n, err := app.runner.Migrate(numbers)
			if err != nil {
				return err
			}
			app.logger.Info("Migration finished", zap.Int("records", n), zap.Ints("requested", numbers))
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&numbers, "images", nil, "image numbers to migrate, e.g. 1,2,3 (default all)")
	return cmd
}

type batchApp struct {
	runner *batch.Runner
	logger *zap.Logger
	cfg    handler.Config
}

// buildApp assembles the runner from the shared providers. override adjusts
// the loaded configuration before anything is built from it.
func buildApp(opts *rootOptions, override func(*handler.Config)) (*batchApp, error) {
	var app batchApp
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(handler.ConfigFile(opts.configFile)),
		handler.Core,
		fx.Decorate(func(cfg handler.Config) handler.Config {
			if opts.outputDir != "" {
				cfg.Batch.OutputDir = opts.outputDir
			}
			if override != nil {
				override(&cfg)
			}
			return cfg
		}),
		fx.Provide(newRunner),
		fx.Populate(&app.runner, &app.logger, &app.cfg),
	)
	if err := fxApp.Err(); err != nil {
		return nil, fmt.Errorf("building batch runner: %w", err)
	}
	return &app, nil
}

func newRunner(
	cfg handler.Config,
	composer *pipeline.Composer,
	quotes *services.QuoteService,
	logger *zap.Logger,
) *batch.Runner {
	lock := batch.NewFileLock(cfg.Batch.LockFile, cfg.Batch.LockStaleAfter)
	return batch.NewRunner(cfg.Batch, composer, quotes, lock, logger.Named("batch"))
}
