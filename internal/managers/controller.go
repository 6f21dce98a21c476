package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/cbowes/flowmeterd/internal/controllers/restserver"
	"github.com/cbowes/flowmeterd/internal/state"
	"github.com/cbowes/flowmeterd/pkg/config"
	"go.uber.org/zap"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
}

// Controller is an interface that provides standard methods for various controller backends
type Controller interface {
	StartController() error
}

// NewControllerManager creates a new controller manager
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, store *state.Store, logger *zap.SugaredLogger) (ControllerManager, error) {
	controllerConfigs, err := configProvider.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("error loading controller configuration: %v", err)
	}

	cm := &controllerManager{
		ctx:         ctx,
		wg:          wg,
		store:       store,
		logger:      logger,
		controllers: make([]Controller, 0),
	}

	for _, con := range controllerConfigs {
		controller, err := cm.createController(con)
		if err != nil {
			return nil, fmt.Errorf("error creating controller: %v", err)
		}
		cm.controllers = append(cm.controllers, controller)
	}

	return cm, nil
}

type controllerManager struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	store       *state.Store
	logger      *zap.SugaredLogger
	controllers []Controller
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Starting controller manager...")

	for _, controller := range c.controllers {
		err := controller.StartController()
		if err != nil {
			return fmt.Errorf("error starting controller: %v", err)
		}
	}

	c.logger.Infof("Started %d controllers successfully", len(c.controllers))
	return nil
}

func (c *controllerManager) createController(con config.ControllerData) (Controller, error) {
	switch con.Type {
	case "rest":
		if con.RESTServer == nil {
			return nil, fmt.Errorf("rest controller requires a rest config section")
		}
		return restserver.NewController(c.ctx, c.wg, *con.RESTServer, c.store, c.logger)
	default:
		return nil, fmt.Errorf("unknown controller type: %s", con.Type)
	}
}
