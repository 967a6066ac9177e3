package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		schedule string
		runNow   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run on a schedule until interrupted",
		Long: `Run on a cron schedule (watch.schedule, e.g. "@every 15m" or "*/10 * * * *")
until SIGINT or SIGTERM. Failed runs are logged and recorded; the next run
still happens on schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("schedule") {
				cfg.Watch.Schedule = schedule
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			env, err := newRunEnv(cfg, a.log)
			if err != nil {
				return err
			}
			defer env.Close()

			loc := time.Local
			if cfg.Watch.Timezone != "" {
				if loc, err = time.LoadLocation(cfg.Watch.Timezone); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			job := func() {
				// Errors are already logged and recorded by the runner
				_, _ = env.runner.Run(ctx)
				env.writeMetrics()
			}

			cronLog := cron.PrintfLogger(a.log)
			c := cron.New(
				cron.WithLocation(loc),
				cron.WithChain(cron.SkipIfStillRunning(cronLog)),
			)
			if _, err := c.AddFunc(cfg.Watch.Schedule, job); err != nil {
				return err
			}

			a.log.WithFields(logrus.Fields{
				"schedule": cfg.Watch.Schedule,
				"timezone": loc.String(),
			}).Info("Watching")

			if runNow {
				job()
			}

			c.Start()
			<-ctx.Done()

			a.log.Info("Stopping, waiting for a running job to finish")
			<-c.Stop().Done()

			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron schedule (overrides watch.schedule)")
	cmd.Flags().BoolVar(&runNow, "now", false, "Run once immediately before the first scheduled run")

	return cmd
}
