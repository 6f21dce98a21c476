// Package types defines common data types used across the application.
package types

import "time"

// Reading is the fully processed result of one successful poll cycle
// from a flow meter.
type Reading struct {
	Timestamp       time.Time `json:"timestamp"`
	MeterName       string    `json:"meter_name"`
	MeterType       string    `json:"meter_type"`
	FlowRate        float64   `json:"flow_rate"`     // filtered, engineering units
	FlowRateRaw     float64   `json:"flow_rate_raw"` // unfiltered engineering value
	RangeFullScale  float64   `json:"range_full_scale"`
	TemperatureC    float64   `json:"temperature_c"`
	SerialNumber    string    `json:"serial_number"`
	FirmwareVersion string    `json:"firmware_version"`
	Counters        Counters  `json:"counters"`
}

// Counters accumulate poll cycle outcomes over the life of the process.
// They are owned by the polling loop and published read-only inside
// each Reading snapshot.
type Counters struct {
	Success         uint64 `json:"success"`
	ChecksumErrors  uint64 `json:"checksum_errors"`
	TransportErrors uint64 `json:"transport_errors"`
}
