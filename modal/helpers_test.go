package modal

import "math"

// windowRMS returns the RMS level of a sample window.
func windowRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// dftMagnitudeAt evaluates a single-frequency DFT of the window.
func dftMagnitudeAt(samples []float32, sampleRate float64, freqHz float64) float64 {
	var re, im float64
	w := 2.0 * math.Pi * freqHz / sampleRate
	for i, s := range samples {
		re += float64(s) * math.Cos(w*float64(i))
		im -= float64(s) * math.Sin(w*float64(i))
	}
	return math.Hypot(re, im) / float64(len(samples))
}

// findPeakNear scans ±spanHz around centerHz in 1 Hz steps and returns
// the frequency with the strongest DFT response.
func findPeakNear(samples []float32, sampleRate float64, centerHz float64, spanHz float64) float64 {
	bestFreq := centerHz
	bestMag := -1.0
	for f := centerHz - spanHz; f <= centerHz+spanHz; f += 1.0 {
		if f <= 0 {
			continue
		}
		if mag := dftMagnitudeAt(samples, sampleRate, f); mag > bestMag {
			bestMag = mag
			bestFreq = f
		}
	}
	return bestFreq
}

// allFinite reports whether every sample is a finite number.
func allFinite(samples []float32) bool {
	for _, s := range samples {
		if !isFinite(s) {
			return false
		}
	}
	return true
}
