package main

import (
	"fmt"

	"github.com/pevans/hnsort/collector"
	"github.com/pevans/hnsort/config"
	"github.com/pevans/hnsort/history"
	"github.com/pevans/hnsort/metrics"
	"github.com/pevans/hnsort/pipeline"
	"github.com/pevans/hnsort/sink"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// runFlags override configuration values for a single invocation.
type runFlags struct {
	target      int
	output      string
	format      string
	mode        string
	url         string
	maxPages    int
	noHistory   bool
	metricsFile string
	show        bool
}

func newRunCmd(a *app) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect one batch, write it, and validate its order",
		Long: `Collect one batch, write it, and validate its order.

Exit codes:
  0  the batch is sorted newest to oldest
  1  configuration or other error
  2  a full batch could not be collected
  3  an item has an age that cannot be parsed
  4  the batch is out of order
  5  the batch could not be written`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}

			env, err := newRunEnv(cfg, a.log)
			if err != nil {
				return err
			}
			defer env.Close()

			report, runErr := env.runner.Run(cmd.Context())
			env.writeMetrics()

			out := cmd.OutOrStdout()
			if flags.show && len(report.Items) > 0 {
				printItemsTable(out, report.Items)
				fmt.Fprintln(out)
			}
			printReport(out, report, cfg.Output.Path)

			return withExitCode(runErr)
		},
	}

	cmd.Flags().IntVar(&flags.target, "target", 0, "Number of items to collect")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file")
	cmd.Flags().StringVar(&flags.format, "format", "", "Output format: json or yaml (default: from the file extension)")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "Source mode: listing or feed")
	cmd.Flags().StringVar(&flags.url, "url", "", "Listing URL (or feed URL in feed mode)")
	cmd.Flags().IntVar(&flags.maxPages, "max-pages", 0, "Maximum listing pages to load (0: no limit)")
	cmd.Flags().BoolVar(&flags.noHistory, "no-history", false, "Do not record the run in the history database")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().BoolVar(&flags.show, "show", false, "Print the collected items")

	return cmd
}

// apply copies explicitly set flags into cfg and revalidates it.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("mode") {
		cfg.Source.Mode = f.mode
	}
	if changed("url") {
		if cfg.Source.Mode == config.ModeFeed {
			cfg.Source.FeedURL = f.url
		} else {
			cfg.Source.URL = f.url
		}
	}
	if changed("target") {
		cfg.Source.Target = f.target
	}
	if changed("max-pages") {
		cfg.Source.MaxPages = f.maxPages
	}
	if changed("output") {
		cfg.Output.Path = f.output
	}
	if changed("format") {
		cfg.Output.Format = f.format
	}
	if changed("metrics-file") {
		cfg.Metrics.Textfile = f.metricsFile
	}
	if f.noHistory {
		cfg.History.Enabled = false
	}

	return cfg.Validate()
}

// runEnv owns everything a runner needs: the session, the history store and
// the metrics recorder.
type runEnv struct {
	runner   *pipeline.Runner
	session  *collector.Session
	store    *history.Store
	recorder *metrics.Recorder
	textfile string
	log      logrus.FieldLogger
}

// newRunEnv builds a runner from cfg. The caller must Close the result.
func newRunEnv(cfg *config.Config, log *logrus.Logger) (*runEnv, error) {
	session, err := collector.NewSession(cfg.SessionConfig())
	if err != nil {
		return nil, err
	}

	env := &runEnv{
		session:  session,
		recorder: metrics.NewRecorder(),
		textfile: cfg.Metrics.Textfile,
		log:      log,
	}

	opts := collector.Options{Logger: log, Observer: env.recorder}
	var c pipeline.Collector
	if cfg.Source.Mode == config.ModeFeed {
		c = collector.NewFeedCollector(session, cfg.Source.FeedURL, opts)
	} else {
		c = collector.NewListingCollector(session, cfg.ListConfig(), opts)
	}

	fileSink, err := sink.NewFileSink(cfg.Output.Path, cfg.Output.Format)
	if err != nil {
		env.Close()
		return nil, err
	}

	env.runner = &pipeline.Runner{
		Collector:  c,
		Sink:       fileSink,
		Target:     cfg.Source.Target,
		Source:     cfg.SourceURL(),
		OutputPath: cfg.Output.Path,
		Logger:     log,
		Recorder:   env.recorder,
	}

	if cfg.History.Enabled {
		store, err := history.NewStore(cfg.History.Path)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		env.store = store
		env.runner.History = store
	}

	return env, nil
}

// writeMetrics writes the metrics textfile when one is configured.
func (e *runEnv) writeMetrics() {
	if e.textfile == "" {
		return
	}
	if err := e.recorder.WriteTextfile(e.textfile); err != nil {
		e.log.WithError(err).Warn("Failed to write metrics textfile")
	}
}

// Close releases the session and the history store.
func (e *runEnv) Close() {
	e.session.Close()
	if e.store != nil {
		e.store.Close()
	}
}
