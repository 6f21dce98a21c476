// Package managers wires configured meters and controllers to their
// implementations.
package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/cbowes/flowmeterd/internal/log"
	"github.com/cbowes/flowmeterd/internal/meters"
	"github.com/cbowes/flowmeterd/internal/meters/magflow"
	"github.com/cbowes/flowmeterd/internal/types"
	"github.com/cbowes/flowmeterd/pkg/config"
	"go.uber.org/zap"
)

// MeterManager starts and tracks the configured flow meters
type MeterManager interface {
	StartMeters() error
	GetMeter(deviceName string) meters.Meter
}

// NewMeterManager creates a MeterManager object, populated with all
// configured and enabled meters
func NewMeterManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, distributor chan types.Reading, logger *zap.SugaredLogger) (MeterManager, error) {
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}

	mm := &meterManager{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		distributor:    distributor,
		logger:         logger,
		meters:         make(map[string]meters.Meter),
	}

	for _, deviceConfig := range cfgData.Devices {
		if !deviceConfig.Enabled {
			logger.Infof("Skipping disabled device [%s]", deviceConfig.Name)
			continue
		}
		meter, err := createMeterFromConfig(ctx, wg, configProvider, deviceConfig, distributor, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating meter [%s]: %w", deviceConfig.Name, err)
		}
		mm.meters[deviceConfig.Name] = meter
	}

	return mm, nil
}

type meterManager struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	distributor    chan types.Reading
	logger         *zap.SugaredLogger
	meters         map[string]meters.Meter
	mu             sync.RWMutex
}

func (m *meterManager) StartMeters() error {
	m.logger.Info("Meter manager started")
	for name, meter := range m.meters {
		m.logger.Infof("Starting meter [%v]...", name)
		if err := meter.StartMeter(); err != nil {
			return fmt.Errorf("failed to start meter [%s]: %w", name, err)
		}
	}
	return nil
}

// GetMeter retrieves a meter by name. Returns nil if the meter does
// not exist. Safe for concurrent use.
func (m *meterManager) GetMeter(deviceName string) meters.Meter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meter, exists := m.meters[deviceName]
	if !exists {
		return nil
	}
	return meter
}

// createMeterFromConfig creates the appropriate meter based on device type
func createMeterFromConfig(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, deviceConfig config.DeviceData, distributor chan types.Reading, logger *zap.SugaredLogger) (meters.Meter, error) {
	switch deviceConfig.Type {
	case "magflow":
		log.Infof("Initializing magflow meter [%v]", deviceConfig.Name)
		return magflow.NewStation(ctx, wg, configProvider, deviceConfig.Name, distributor, logger), nil
	default:
		return nil, fmt.Errorf("unknown meter type: %s", deviceConfig.Type)
	}
}
