package main

import (
	"context"
	"time"

	"quote-bridge/src/config"
	"quote-bridge/src/control_api"
	"quote-bridge/src/interfaces"
	"quote-bridge/src/logger"
	"quote-bridge/src/supervisor"

	"golang.org/x/sync/errgroup"
)

const journalCleanupInterval = time.Hour

// -----------------------------------------------------------------------------

// runServers runs the control API, journal maintenance and the worker
// shutdown hook until ctx is cancelled or one of them fails.
func runServers(
	ctx context.Context,
	conf *config.Config,
	sup *supervisor.Supervisor,
	feed *control_api.LogFeed,
	journal interfaces.IJournal,
	appLogger *logger.Logger,
) error {
	g, gctx := errgroup.WithContext(ctx)

	// 1. Control API
	api := control_api.NewControlService(conf, sup, feed, journal, logger.NewLogger(conf.MConfig, "ControlService"))
	g.Go(func() error {
		return api.Run(gctx)
	})

	// 2. Journal retention
	if journal != nil {
		g.Go(func() error {
			ticker := time.NewTicker(journalCleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := journal.CleanupOldData(); err != nil {
						appLogger.Warning("Journal cleanup failed: %v", err)
					}
				}
			}
		})
	}

	// 3. Worker shutdown once everything else is going down
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down...")

		stopCtx, cancel := context.WithTimeout(context.Background(), 2*conf.GracePeriod()+time.Second)
		defer cancel()
		return sup.Stop(stopCtx)
	})

	return g.Wait()
}
