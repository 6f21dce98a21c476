package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetDevices() ([]DeviceData, error)
	GetControllers() ([]ControllerData, error)

	// Configuration management
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Devices     []DeviceData     `json:"devices"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// DeviceData holds configuration specific to flow meter devices
type DeviceData struct {
	Name         string     `json:"name"`
	Type         string     `json:"type,omitempty"`
	Enabled      bool       `json:"enabled"`
	Hostname     string     `json:"hostname,omitempty"`
	Port         string     `json:"port,omitempty"`
	SerialDevice string     `json:"serial_device,omitempty"`
	Baud         int        `json:"baud,omitempty"`
	BusAddress   uint8      `json:"bus_address,omitempty"`
	PollInterval string     `json:"poll_interval,omitempty"`
	Filter       FilterData `json:"filter,omitempty"`
}

// FilterData holds the EMA filter parameters for a device. Zero values
// mean "use the filter defaults".
type FilterData struct {
	Alpha float64 `json:"alpha,omitempty"`
	Order int     `json:"order,omitempty"`
}

// ControllerData holds the configuration for various controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
}

// RESTServerData holds configuration for the REST status server
type RESTServerData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port,omitempty"`
}
