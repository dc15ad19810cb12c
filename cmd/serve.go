package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mod-aggregator/logger"
	"mod-aggregator/queue"
	"mod-aggregator/scheduler"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background sync workers and scheduler",
	Long: `Starts the job queue workers and the cron scheduler that enqueues a
sync run for every platform on the configured interval. An initial sync is
enqueued immediately on startup. Stops cleanly on SIGINT/SIGTERM.`,
	Run: func(_ *cobra.Command, _ []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() {
	a := bootstrap(".")

	q, err := queue.New(a.runner, logger.Log)
	if err != nil {
		logger.Log.Fatalw("Failed to build job queue", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := q.Run(ctx); err != nil {
			logger.Log.Errorw("Job queue stopped", zap.Error(err))
		}
	}()
	<-q.Running()

	sched, err := scheduler.New(q, a.sources.Platforms(), a.cfg.SyncIntervalMinutes, a.cfg.SyncLimit, logger.Log)
	if err != nil {
		logger.Log.Fatalw("Failed to build scheduler", zap.Error(err))
	}
	sched.Start()

	// Do not wait an entire interval for the first catalog fill.
	for _, p := range a.sources.Platforms() {
		if err := q.EnqueueSync(p, a.cfg.SyncLimit); err != nil {
			logger.Log.Errorw("Failed to enqueue initial sync", zap.String("platform", p.String()), zap.Error(err))
		}
	}

	logger.Log.Infow("Serving",
		zap.Int("platforms", len(a.sources.Platforms())),
		zap.Int("sync_interval_minutes", a.cfg.SyncIntervalMinutes),
	)

	<-ctx.Done()
	logger.Log.Info("Shutting down...")
	sched.Stop()
	if err := q.Close(); err != nil {
		logger.Log.Errorw("Failed to close job queue", zap.Error(err))
	}
}
