package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	devices, err := s.GetDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to load devices: %w", err)
	}
	config.Devices = devices

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	return config, nil
}

// GetDevices returns device configurations from the devices table
func (s *SQLiteProvider) GetDevices() ([]DeviceData, error) {
	rows, err := s.db.Query(`
		SELECT name, type, enabled, hostname, port, serial_device, baud,
		       bus_address, poll_interval, filter_alpha, filter_order
		FROM devices ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []DeviceData
	for rows.Next() {
		var d DeviceData
		var hostname, port, serialDevice, pollInterval sql.NullString
		var baud, busAddress, filterOrder sql.NullInt64
		var filterAlpha sql.NullFloat64

		err := rows.Scan(&d.Name, &d.Type, &d.Enabled, &hostname, &port,
			&serialDevice, &baud, &busAddress, &pollInterval,
			&filterAlpha, &filterOrder)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device row: %w", err)
		}

		d.Hostname = hostname.String
		d.Port = port.String
		d.SerialDevice = serialDevice.String
		d.Baud = int(baud.Int64)
		d.BusAddress = uint8(busAddress.Int64)
		d.PollInterval = pollInterval.String
		d.Filter = FilterData{
			Alpha: filterAlpha.Float64,
			Order: int(filterOrder.Int64),
		}

		devices = append(devices, d)
	}

	return devices, rows.Err()
}

// GetControllers returns controller configurations from the controllers table
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	rows, err := s.db.Query(`
		SELECT type, rest_listen_addr, rest_port
		FROM controllers ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var c ControllerData
		var listenAddr sql.NullString
		var port sql.NullInt64

		if err := rows.Scan(&c.Type, &listenAddr, &port); err != nil {
			return nil, fmt.Errorf("failed to scan controller row: %w", err)
		}

		if c.Type == "rest" {
			c.RESTServer = &RESTServerData{
				ListenAddr: listenAddr.String,
				Port:       int(port.Int64),
			}
		}

		controllers = append(controllers, c)
	}

	return controllers, rows.Err()
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
