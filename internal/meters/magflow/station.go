package magflow

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cbowes/flowmeterd/internal/log"
	"github.com/cbowes/flowmeterd/internal/meters"
	"github.com/cbowes/flowmeterd/internal/types"
	"github.com/cbowes/flowmeterd/pkg/config"
	"github.com/cbowes/flowmeterd/pkg/emafilter"
	serial "github.com/tarm/goserial"
	"go.uber.org/zap"
)

const defaultPollInterval = time.Second

// Station holds our magnetic flow meter connection along with some
// mutexes for operation
type Station struct {
	ctx                context.Context
	wg                 *sync.WaitGroup
	netConn            net.Conn
	rwc                io.ReadWriteCloser
	config             config.DeviceData
	filter             *emafilter.Filter
	counters           types.Counters
	ReadingDistributor chan types.Reading
	logger             *zap.SugaredLogger
	connecting         bool
	connectingMu       sync.RWMutex
	connected          bool
	connectedMu        sync.RWMutex
}

// NewStation creates a magflow station from its device configuration.
// Filter parameters outside the valid range are ignored and the filter
// defaults kept, matching the meter's own configuration semantics.
func NewStation(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, deviceName string, distributor chan types.Reading, logger *zap.SugaredLogger) meters.Meter {
	deviceConfig := meters.LoadDeviceConfig(configProvider, deviceName, logger)

	station := &Station{
		ctx:                ctx,
		wg:                 wg,
		config:             *deviceConfig,
		filter:             emafilter.New(deviceConfig.Filter.Alpha, deviceConfig.Filter.Order),
		ReadingDistributor: distributor,
		logger:             logger,
	}

	if err := meters.ValidateSerialOrNetwork(*deviceConfig); err != nil {
		logger.Fatalf("magflow station [%s]: %v", deviceName, err)
	}

	if station.filter.Alpha() != deviceConfig.Filter.Alpha || station.filter.Order() != deviceConfig.Filter.Order {
		logger.Debugf("magflow station [%s] keeping filter defaults alpha=%v order=%d (configured alpha=%v order=%d out of range)",
			deviceName, station.filter.Alpha(), station.filter.Order(),
			deviceConfig.Filter.Alpha, deviceConfig.Filter.Order)
	}

	return station
}

func (s *Station) MeterName() string {
	return s.config.Name
}

// StartMeter connects to the meter and launches the polling goroutine
func (s *Station) StartMeter() error {
	log.Infof("Starting magflow meter [%v]...", s.config.Name)

	s.Connect()

	s.wg.Add(1)
	go s.pollLoop()

	return nil
}

// Connect connects to a flow meter over TCP/IP or serial
func (s *Station) Connect() {
	if len(s.config.SerialDevice) > 0 {
		s.connectToSerialMeter()
	} else if (len(s.config.Hostname) > 0) && (len(s.config.Port) > 0) {
		s.connectToNetworkMeter()
	} else {
		s.logger.Fatal("must provide either network hostname+port or serial device in config")
	}
}

// connectToSerialMeter connects to a flow meter over a serial port
func (s *Station) connectToSerialMeter() {
	var err error

	s.connectingMu.RLock()
	if s.connecting {
		s.connectingMu.RUnlock()
		s.logger.Info("skipping reconnect since a connection attempt is already in progress")
		return
	}

	s.connectingMu.RUnlock()
	s.connectingMu.Lock()
	s.connecting = true
	s.connectingMu.Unlock()

	s.logger.Infof("connecting to %v ...", s.config.SerialDevice)

	for {
		sc := &serial.Config{Name: s.config.SerialDevice, Baud: s.config.Baud}
		s.logger.Debugf("attempting to open serial port %s at %d baud", s.config.SerialDevice, s.config.Baud)
		s.rwc, err = serial.OpenPort(sc)

		if err != nil {
			s.logger.Errorf("failed to open serial port %s: %v", s.config.SerialDevice, err)
			s.logger.Error("sleeping 30 seconds and trying again")

			select {
			case <-s.ctx.Done():
				s.logger.Info("cancellation request received during retry wait")
				s.connectingMu.Lock()
				s.connecting = false
				s.connectingMu.Unlock()
				return
			case <-time.After(30 * time.Second):
				// Continue to next iteration
			}
		} else {
			s.connectedMu.Lock()
			defer s.connectedMu.Unlock()
			s.connected = true
			s.connectingMu.Lock()
			defer s.connectingMu.Unlock()
			s.connecting = false

			return
		}
	}
}

// connectToNetworkMeter connects to a flow meter over TCP/IP
func (s *Station) connectToNetworkMeter() {
	var err error

	console := fmt.Sprint(s.config.Hostname, ":", s.config.Port)

	s.connectingMu.RLock()
	if s.connecting {
		s.connectingMu.RUnlock()
		log.Info("skipping reconnect since a connection attempt is already in progress")
		return
	}

	s.connectingMu.RUnlock()
	s.connectingMu.Lock()
	s.connecting = true
	s.connectingMu.Unlock()

	log.Info("connecting to:", console)

	for {
		s.netConn, err = net.DialTimeout("tcp", console, 10*time.Second)

		if err != nil {
			log.Errorf("could not connect to %v: %v", console, err)
			log.Error("sleeping 5 seconds and trying again.")

			select {
			case <-s.ctx.Done():
				s.logger.Info("cancellation request received during retry wait")
				s.connectingMu.Lock()
				s.connecting = false
				s.connectingMu.Unlock()
				return
			case <-time.After(5 * time.Second):
				// Continue to next iteration
			}
		} else {
			s.connectedMu.Lock()
			defer s.connectedMu.Unlock()
			s.connected = true
			s.connectingMu.Lock()
			defer s.connectingMu.Unlock()
			s.connecting = false

			s.rwc = io.ReadWriteCloser(s.netConn)
			return
		}
	}
}

// Write writes data to the connection and logs it
func (s *Station) Write(p []byte) (nn int, err error) {
	if s.logger != nil && len(p) > 0 {
		s.logger.Debugf("writing to magflow meter: %s", hex.EncodeToString(p))
	}

	nn, err = s.rwc.Write(p)
	if err != nil {
		s.logger.Errorf("error writing to magflow meter: %v", err)
	}

	return nn, err
}

// pollLoop reads the sensor record at the configured interval until
// the context is cancelled. One poll completes before the next begins.
func (s *Station) pollLoop() {
	defer s.wg.Done()

	interval := defaultPollInterval
	if s.config.PollInterval != "" {
		parsed, err := time.ParseDuration(s.config.PollInterval)
		if err != nil {
			s.logger.Warnf("invalid poll-interval %q, using %v: %v", s.config.PollInterval, defaultPollInterval, err)
		} else {
			interval = parsed
		}
	}

	log.Infof("starting magflow poller for [%v], polling every %v", s.config.Name, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			log.Info("cancellation request received. Cancelling pollLoop()")
			if s.rwc != nil {
				s.rwc.Close()
			}
			return
		case <-ticker.C:
			s.poll()
		}
	}
}

// poll runs one poll cycle: read the record, validate and decode it,
// convert the flow reading and feed it through the filter. Failed
// cycles only bump a counter; the next cycle is the retry.
func (s *Station) poll() {
	raw, err := s.readBlock(s.config.BusAddress, recordAddress, FrameLength)
	if err != nil {
		s.counters.TransportErrors++
		s.logger.Errorf("transport error reading from meter [%v]: %v", s.config.Name, err)
		s.reconnect()
		return
	}

	frame, err := DecodeFrame(raw)
	if err != nil {
		if errors.Is(err, ErrChecksum) {
			s.counters.ChecksumErrors++
			s.logger.Warnf("discarding frame from meter [%v]: %v", s.config.Name, err)
		} else {
			s.counters.TransportErrors++
			s.logger.Errorf("bad frame from meter [%v]: %v", s.config.Name, err)
		}
		return
	}

	flow := ConvertFlow(frame.FlowRaw, frame.RangeRaw)
	filtered := s.filter.Process(flow)
	s.counters.Success++

	reading := types.Reading{
		Timestamp:       time.Now(),
		MeterName:       s.config.Name,
		MeterType:       "magflow",
		FlowRate:        filtered,
		FlowRateRaw:     flow,
		RangeFullScale:  float64(frame.RangeRaw),
		TemperatureC:    ConvertTemperature(frame.TempRaw),
		SerialNumber:    frame.SerialNumber(),
		FirmwareVersion: frame.FirmwareVersion(),
		Counters:        s.counters,
	}

	s.logger.Debugf("magflow [%s] flow=%.3f filtered=%.3f range=%.0f temp=%.2f",
		s.config.Name, flow, filtered, reading.RangeFullScale, reading.TemperatureC)

	s.ReadingDistributor <- reading
}

// readBlock sends a read command for length bytes starting at
// startAddr and reads exactly that many bytes back. A short or failed
// read is a transport error; there is no partial delivery.
func (s *Station) readBlock(busAddr uint8, startAddr uint16, length int) ([]byte, error) {
	if _, err := s.Write(BuildReadCommand(busAddr, startAddr, uint8(length))); err != nil {
		return nil, fmt.Errorf("error sending read command: %w", err)
	}

	block := make([]byte, length)
	if _, err := io.ReadFull(s.rwc, block); err != nil {
		return nil, fmt.Errorf("error reading %d-byte block: %w", length, err)
	}

	return block, nil
}

// reconnect tears down the connection after a transport error and
// dials again.
func (s *Station) reconnect() {
	select {
	case <-s.ctx.Done():
		return
	default:
	}

	if s.rwc != nil {
		s.rwc.Close()
	}
	if s.netConn != nil {
		s.netConn.Close()
	}
	s.logger.Info("attempting to reconnect...")
	s.Connect()
}
