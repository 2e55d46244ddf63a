// Command quote-bridge supervises the quote worker process and exposes the
// control API used by the presentation layer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"quote-bridge/src/config"
	"quote-bridge/src/logger"
	"quote-bridge/src/supervisor"
)

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.MConfig, conf.Name)
	defer appLogger.Sync()

	// 4. Setup Components
	journal, err := setupJournal(conf, appLogger)
	if err != nil {
		os.Exit(1)
	}
	if journal != nil {
		defer journal.Close()
	}

	launcher, err := setupLauncher(conf, *configPath)
	if err != nil {
		appLogger.Error("Invalid worker path: %v", err)
		os.Exit(1)
	}

	feed := setupFeed(conf)
	sup := supervisor.New(conf, appLogger.Named("supervisor"), launcher, feed, journal)

	// 5. Lifecycle Management
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Spawn the worker; a failure is surfaced and can be retried from the API
	if err := sup.Start(ctx); err != nil {
		appLogger.Error("Initial worker start failed: %v", err)
	}

	// 7. Run Servers (Blocking)
	if err := runServers(ctx, conf, sup, feed, journal, appLogger); err != nil {
		appLogger.Error("Supervisor stopped with error: %v", err)
		os.Exit(1)
	}
	appLogger.Info("Shutdown complete.")
}
