// Package bootstrap wires and runs the proautofill dashboard service.
package bootstrap

import (
	"context"
	"fmt"

	infralogger "github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/profiling"
)

// Start loads configPath, builds every component and serves until SIGINT
// or SIGTERM.
func Start(configPath string) error {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Phase 2: Profiling, both opt-in through the environment
	profiling.StartPprofServer(log)
	profiler, err := profiling.StartPyroscope(cfg.Service.Name, cfg.Service.Version)
	if err != nil {
		log.Warn("Pyroscope disabled", infralogger.Error(err))
	}

	ctx := context.Background()

	// Phase 3: Session store, optionally redis
	stores, err := SetupSessionStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to set up session store: %w", err)
	}
	defer stores.Close()

	// Phase 4: Components
	app := NewApp(cfg, stores, log)
	if startErr := app.Start(ctx); startErr != nil {
		return startErr
	}

	// Phase 5: HTTP server
	server := app.Server()
	server.OnShutdown(func(context.Context) {
		app.Stop()
		if stopErr := profiler.Stop(); stopErr != nil {
			log.Warn("Pyroscope stop failed", infralogger.Error(stopErr))
		}
	})

	if runErr := server.Run(); runErr != nil {
		log.Error("Server error", infralogger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}
