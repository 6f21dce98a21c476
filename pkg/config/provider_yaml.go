package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Devices     []DeviceYAML     `yaml:"devices"`
		Controllers []ControllerYAML `yaml:"controllers,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Devices:     make([]DeviceData, len(yamlConfig.Devices)),
		Controllers: make([]ControllerData, len(yamlConfig.Controllers)),
	}

	for i, device := range yamlConfig.Devices {
		config.Devices[i] = DeviceData{
			Name:         device.Name,
			Type:         device.Type,
			Enabled:      device.Enabled,
			Hostname:     device.Hostname,
			Port:         device.Port,
			SerialDevice: device.SerialDevice,
			Baud:         device.Baud,
			BusAddress:   device.BusAddress,
			PollInterval: device.PollInterval,
			Filter: FilterData{
				Alpha: device.Filter.Alpha,
				Order: device.Filter.Order,
			},
		}
	}

	for i, controller := range yamlConfig.Controllers {
		config.Controllers[i] = ControllerData{
			Type: controller.Type,
		}

		if controller.RESTServer != nil {
			config.Controllers[i].RESTServer = &RESTServerData{
				ListenAddr: controller.RESTServer.ListenAddr,
				Port:       controller.RESTServer.Port,
			}
		}
	}

	y.config = config
	return config, nil
}

// GetDevices returns device configurations
func (y *YAMLProvider) GetDevices() ([]DeviceData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Devices, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Controllers, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the on-disk format
type DeviceYAML struct {
	Name         string     `yaml:"name"`
	Type         string     `yaml:"type,omitempty"`
	Enabled      bool       `yaml:"enabled"`
	Hostname     string     `yaml:"hostname,omitempty"`
	Port         string     `yaml:"port,omitempty"`
	SerialDevice string     `yaml:"serialdevice,omitempty"`
	Baud         int        `yaml:"baud,omitempty"`
	BusAddress   uint8      `yaml:"bus-address,omitempty"`
	PollInterval string     `yaml:"poll-interval,omitempty"`
	Filter       FilterYAML `yaml:"filter,omitempty"`
}

type FilterYAML struct {
	Alpha float64 `yaml:"alpha,omitempty"`
	Order int     `yaml:"order,omitempty"`
}

type ControllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *RESTServerYAML `yaml:"rest,omitempty"`
}

type RESTServerYAML struct {
	ListenAddr string `yaml:"listen-addr,omitempty"`
	Port       int    `yaml:"port,omitempty"`
}
