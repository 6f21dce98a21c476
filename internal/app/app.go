package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cbowes/flowmeterd/internal/log"
	"github.com/cbowes/flowmeterd/internal/managers"
	"github.com/cbowes/flowmeterd/internal/state"
	"github.com/cbowes/flowmeterd/internal/types"
	"github.com/cbowes/flowmeterd/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The reading store is the boundary between the polling side and
	// the reporting side.
	store := state.NewStore()
	distributor := make(chan types.Reading, 20)

	// Drain readings from the meters into the store
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case r := <-distributor:
				store.Update(r)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Initialize the meter manager
	mm, err := managers.NewMeterManager(ctx, &wg, a.configProvider, distributor, a.logger)
	if err != nil {
		return err
	}
	if err := mm.StartMeters(); err != nil {
		return err
	}

	// Initialize the controller manager
	cm, err := managers.NewControllerManager(ctx, &wg, a.configProvider, store, a.logger)
	if err != nil {
		return err
	}
	if err := cm.StartControllers(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
