package modal

import "math"

// WaveShape selects the carrier oscillator used to render a mode.
type WaveShape uint8

const (
	ShapeSine WaveShape = iota
	ShapeSawtooth
	ShapeTriangle
	ShapeSquare
	ShapePulse25
	ShapePulse10

	numWaveShapes
)

// String returns the shape name.
func (w WaveShape) String() string {
	switch w {
	case ShapeSine:
		return "sine"
	case ShapeSawtooth:
		return "sawtooth"
	case ShapeTriangle:
		return "triangle"
	case ShapeSquare:
		return "square"
	case ShapePulse25:
		return "pulse25"
	case ShapePulse10:
		return "pulse10"
	}
	return "unknown"
}

// Valid reports whether w names a defined shape.
func (w WaveShape) Valid() bool {
	return w < numWaveShapes
}

// Eval evaluates the oscillator at phase in [0, 2π). Unknown shapes fall
// back to sine so a corrupted parameter can never produce garbage output.
func (w WaveShape) Eval(phase float32) float32 {
	switch w {
	case ShapeSawtooth:
		// Descending ramp: +1 at phase 0, -1 at 2π.
		return 1.0 - phase/math.Pi
	case ShapeTriangle:
		if phase < math.Pi {
			return -1.0 + 2.0*phase/math.Pi
		}
		return 3.0 - 2.0*phase/math.Pi
	case ShapeSquare:
		return pulse(phase, 0.5)
	case ShapePulse25:
		return pulse(phase, 0.25)
	case ShapePulse10:
		return pulse(phase, 0.1)
	default:
		return float32(math.Sin(float64(phase)))
	}
}

func pulse(phase float32, width float32) float32 {
	if phase < width*2.0*math.Pi {
		return 1.0
	}
	return -1.0
}
