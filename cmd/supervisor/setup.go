package main

import (
	"path/filepath"

	"quote-bridge/src/config"
	"quote-bridge/src/control_api"
	"quote-bridge/src/interfaces"
	"quote-bridge/src/logger"
	"quote-bridge/src/storage"
	"quote-bridge/src/supervisor"
)

// -----------------------------------------------------------------------------

// setupJournal opens the diagnostics journal. A nil journal means disabled.
func setupJournal(conf *config.Config, appLogger *logger.Logger) (interfaces.IJournal, error) {
	journal, err := storage.NewJournal(conf.MConfig, logger.NewLogger(conf.MConfig, "Journal"))
	if err != nil {
		appLogger.Critical("Failed to init journal: %v", err)
		return nil, err
	}
	if journal == nil {
		appLogger.Info("Diagnostics journal disabled")
		return nil, nil
	}

	if err := journal.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate journal: %v", err)
		return nil, err
	}
	if err := journal.CleanupOldData(); err != nil {
		appLogger.Warning("Journal cleanup failed: %v", err)
	}
	return journal, nil
}

// -----------------------------------------------------------------------------

// setupLauncher builds the worker command line. The worker reads the same
// config file as the supervisor.
func setupLauncher(conf *config.Config, configPath string) (*supervisor.ExecLauncher, error) {
	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}
	workerPath, err := filepath.Abs(conf.Supervisor.WorkerPath)
	if err != nil {
		return nil, err
	}

	args := append([]string{}, conf.Supervisor.WorkerArgs...)
	args = append(args, "-config", absConfig)
	return supervisor.NewExecLauncher(workerPath, args...), nil
}

// -----------------------------------------------------------------------------

func setupFeed(conf *config.Config) *control_api.LogFeed {
	return control_api.NewLogFeed(conf.Supervisor.LogHistory)
}
