// Package restserver implements the REST/WebSocket status server. It
// reports the latest filtered readings and poll counters; it holds no
// state of its own beyond the store it reads from.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cbowes/flowmeterd/internal/log"
	"github.com/cbowes/flowmeterd/internal/state"
	"github.com/cbowes/flowmeterd/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	store      *state.Store
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, store *state.Store, logger *zap.SugaredLogger) (*Controller, error) {
	if rc.Port == 0 {
		return nil, fmt.Errorf("REST server controller requires a port")
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		store:      store,
		logger:     logger,
	}

	ctrl.handlers = NewHandlers(ctrl)

	router := mux.NewRouter()
	router.HandleFunc("/api/status", ctrl.handlers.GetStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/flow", ctrl.handlers.GetFlow).Methods(http.MethodGet)
	router.HandleFunc("/api/live", ctrl.handlers.GetLive).Methods(http.MethodGet)

	ctrl.Server = http.Server{
		Addr:         fmt.Sprintf("%s:%d", rc.ListenAddr, rc.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // live endpoint streams indefinitely
	}

	return ctrl, nil
}

// StartController starts the HTTP server and arranges for a graceful
// shutdown when the application context is cancelled
func (c *Controller) StartController() error {
	log.Infof("Starting REST server on %s", c.Server.Addr)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-c.ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Server.Shutdown(shutdownCtx); err != nil {
			c.logger.Errorf("REST server shutdown error: %v", err)
		}
	}()

	return nil
}
