package modal

import "math"

// Complex is a single-precision complex amplitude. The stock complex64 is
// avoided so mode state stays a plain value type with explicit arithmetic.
type Complex struct {
	Re float32
	Im float32
}

// Add returns z + w.
func (z Complex) Add(w Complex) Complex {
	return Complex{z.Re + w.Re, z.Im + w.Im}
}

// Sub returns z - w.
func (z Complex) Sub(w Complex) Complex {
	return Complex{z.Re - w.Re, z.Im - w.Im}
}

// Mul returns z * w.
func (z Complex) Mul(w Complex) Complex {
	return Complex{
		z.Re*w.Re - z.Im*w.Im,
		z.Re*w.Im + z.Im*w.Re,
	}
}

// Scale returns z scaled by a real factor.
func (z Complex) Scale(s float32) Complex {
	return Complex{z.Re * s, z.Im * s}
}

// Abs returns |z|.
func (z Complex) Abs() float32 {
	return float32(math.Hypot(float64(z.Re), float64(z.Im)))
}

// Rotor returns the unit complex e^(i*phase).
func Rotor(phase float32) Complex {
	s, c := math.Sincos(float64(phase))
	return Complex{float32(c), float32(s)}
}
