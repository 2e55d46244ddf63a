// Command quote-worker polls the quote provider and serves WebSocket clients.
// It is driven by the supervisor over NDJSON on stdin/stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"quote-bridge/src/config"
	"quote-bridge/src/control"
	datasource "quote-bridge/src/data_source"
	"quote-bridge/src/logger"
	"quote-bridge/src/models"
	"quote-bridge/src/worker"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file. stdout is reserved for records, so errors go
	// to stderr where the supervisor relays them.
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger and upstream channel
	appLogger := logger.NewFileLogger("quote-worker", conf.LogLevel, conf.Worker.LogFile)
	defer appLogger.Sync()

	upstream := control.NewWriter(os.Stdout)
	upstream.Log("Bridge worker starting...", models.LogInfo)

	// Setup components
	source, err := datasource.NewQuoteSource(conf.MConfig, appLogger.Named("source"))
	if err != nil {
		upstream.Log(fmt.Sprintf("Invalid quote source: %v", err), models.LogError)
		appLogger.Error("Invalid quote source: %v", err)
		os.Exit(1)
	}
	w := worker.New(conf, appLogger, source, upstream)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Auto-start: connect the source and open the listener right away
	commands := make(chan models.MCommand, 16)
	commands <- models.MCommand{Type: models.CmdConnectSource}
	commands <- models.MCommand{Type: models.CmdStartServer, Port: conf.Port}

	go readCommands(ctx, commands, appLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-quit:
			upstream.Log("Shutting down...", models.LogWarning)
			appLogger.Warning("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := w.Run(ctx, commands); err != nil {
		appLogger.Error("Worker stopped with error: %v", err)
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

// readCommands feeds stdin commands to the loop and closes the channel on EOF.
func readCommands(ctx context.Context, commands chan<- models.MCommand, log *logger.Logger) {
	defer close(commands)

	err := control.NewReader(os.Stdin).Run(func(line []byte) {
		cmd, err := control.ParseCommand(line)
		if err != nil {
			log.Warning("Ignoring control line: %v", err)
			return
		}
		select {
		case commands <- cmd:
		case <-ctx.Done():
		}
	})
	if err != nil {
		log.Error("Control channel read failed: %v", err)
	}
}
