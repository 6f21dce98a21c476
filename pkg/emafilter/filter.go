// Package emafilter implements a cascaded exponential moving-average
// low-pass filter for smoothing noisy sensor readings.
//
// The filter is a series of identical single-pole stages. Each stage
// blends its previous output with the incoming value:
//
//	stage[i] = alpha*stage[i] + (1-alpha)*in
//
// and feeds its output to the next stage, so higher orders sharpen the
// roll-off without changing the steady-state gain.
package emafilter

// MaxOrder is the largest supported number of cascaded stages.
const MaxOrder = 8

// Defaults applied at construction and kept when Configure is given
// out-of-range parameters.
const (
	DefaultAlpha = 0.9
	DefaultOrder = 2
)

// Filter is a cascade of single-pole EMA stages. The zero value is not
// usable; construct with New. A Filter must not be shared between
// goroutines without external synchronization.
type Filter struct {
	alpha  float64
	order  int
	stages [MaxOrder]float64
	value  float64
	primed bool
}

// New returns a Filter with the given parameters. Out-of-range values
// fall back to the package defaults, following the same
// ignore-invalid-keep-prior policy as Configure.
func New(alpha float64, order int) *Filter {
	f := &Filter{alpha: DefaultAlpha, order: DefaultOrder}
	f.Configure(alpha, order)
	return f
}

// Configure updates the filter parameters. Only alpha strictly between
// 0 and 1 and order in [1, MaxOrder] are accepted; anything else leaves
// the previous configuration in effect. Callers that care about
// rejection can compare Alpha and Order before and after.
func (f *Filter) Configure(alpha float64, order int) {
	if alpha <= 0 || alpha >= 1 {
		return
	}
	if order < 1 || order > MaxOrder {
		return
	}
	f.alpha = alpha
	f.order = order
}

// Reset sets every stage accumulator to preset. It does not clear the
// first-sample seeding: the first Process call after construction
// always re-seeds from its input regardless of any prior Reset.
func (f *Filter) Reset(preset float64) {
	for i := range f.stages {
		f.stages[i] = preset
	}
	f.value = preset
}

// Process runs one input sample through the cascade and returns the
// filtered output. The very first call seeds all stages to the input,
// so it returns the input unchanged.
func (f *Filter) Process(in float64) float64 {
	if !f.primed {
		f.Reset(in)
		f.primed = true
	}

	cur := in
	for i := 0; i < f.order; i++ {
		f.stages[i] = f.alpha*f.stages[i] + (1-f.alpha)*cur
		cur = f.stages[i]
	}

	f.value = cur
	return cur
}

// Value returns the most recent filtered output without mutating state.
// Before the first Process call it returns 0.
func (f *Filter) Value() float64 {
	return f.value
}

// Alpha returns the configured smoothing coefficient.
func (f *Filter) Alpha() float64 { return f.alpha }

// Order returns the configured number of cascaded stages.
func (f *Filter) Order() int { return f.order }
