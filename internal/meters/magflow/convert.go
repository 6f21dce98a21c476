package magflow

// 24-bit signed-magnitude flow encoding: the sign lives in bit 23, the
// magnitude in the low 23 bits after a two's-complement correction.
const (
	flowSignBit = 0x800000
	flowMagMask = 0x7FFFFF
)

// ConvertFlow turns a raw 24-bit signed-magnitude flow reading and the
// meter's reported full-scale range into a signed engineering value.
// The raw reading is normalized against the 23-bit magnitude limit and
// scaled by the range, which is in the same units as the output.
//
// A zero range yields zero flow regardless of magnitude; the guard is
// explicit so the division can never run with a zero denominator.
func ConvertFlow(rawFlow, rawRange uint32) float64 {
	rawRange &= flowMagMask
	if rawRange == 0 {
		return 0
	}

	negative := rawFlow&flowSignBit != 0
	var magnitude uint32
	if negative {
		magnitude = (-rawFlow) & flowMagMask
	} else {
		magnitude = rawFlow & flowMagMask
	}

	value := float64(magnitude) * float64(rawRange) / float64(flowMagMask)
	if negative {
		value = -value
	}
	return value
}

// ConvertTemperature converts the raw temperature field (hundredths of
// a degree) to degrees Celsius. Temperature is reported as-is and never
// folded into the flow conversion.
func ConvertTemperature(raw int16) float64 {
	return float64(raw) / 100.0
}
