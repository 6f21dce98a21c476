// Package meters defines the common interface implemented by flow
// meter backends.
package meters

// Meter is an interface that provides standard methods for the various
// flow meter backends
type Meter interface {
	StartMeter() error
	MeterName() string
}
