package modal

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

const (
	// smoothAlpha is the per-sample amplitude smoothing factor.
	smoothAlpha = 0.12
	// headroomScale leaves headroom below full scale on every mode.
	headroomScale = 0.7
)

// Synth renders the audible signal of one node: each active mode drives a
// carrier oscillator whose gain tracks the mode's modal amplitude through
// a single-pole smoother. Phase accumulators are 32-bit so the carriers
// stay continuous across blocks regardless of frequency.
type Synth struct {
	sampleRate float32

	phaseAcc  [MaxModes]uint32
	modeGains [MaxModes]float32
	smooth    [MaxModes]float32

	masterGain float32
	muted      bool
}

// NewSynth creates a synthesizer for the given sample rate.
func NewSynth(sampleRate float32) *Synth {
	s := &Synth{masterGain: 1.0}
	for k := range s.modeGains {
		s.modeGains[k] = 1.0
	}
	s.SetSampleRate(sampleRate)
	return s
}

// SetSampleRate changes the output sample rate.
func (s *Synth) SetSampleRate(sampleRate float32) {
	if sampleRate > 0 {
		s.sampleRate = sampleRate
	}
}

// SetModeGain sets the gain of one mode's carrier, clamped to [0,1].
func (s *Synth) SetModeGain(idx int, gain float32) {
	if idx < 0 || idx >= MaxModes {
		return
	}
	s.modeGains[idx] = clampFloat32(gain, 0.0, 1.0)
}

// SetGain sets the master gain, clamped to [0,1].
func (s *Synth) SetGain(gain float32) {
	s.masterGain = clampFloat32(gain, 0.0, 1.0)
}

// SetMute silences the synth without disturbing phase or smoothing state.
func (s *Synth) SetMute(mute bool) {
	s.muted = mute
}

// ResetPhase zeroes the phase accumulators and the amplitude smoothers.
// Called on note start so a retriggered carrier never clicks.
func (s *Synth) ResetPhase() {
	for k := range s.phaseAcc {
		s.phaseAcc[k] = 0
		s.smooth[k] = 0
	}
}

// RenderAdd accumulates n mono samples of the node into out. The caller
// owns clamping of the final mix.
func (s *Synth) RenderAdd(node *Node, out []float32, n int) {
	if s.muted || s.sampleRate <= 0 || node == nil {
		return
	}
	if n > len(out) {
		n = len(out)
	}

	const phaseScale = float32(2.0*math.Pi) / 4294967296.0

	nodeGain := node.audioGain

	for k := 0; k < MaxModes; k++ {
		m := &node.modes[k]
		if !m.Params.Active {
			continue
		}

		target := m.Params.Weight * m.A.Abs()
		gain := s.modeGains[k] * s.masterGain * nodeGain * headroomScale
		shape := m.Params.Shape

		freqHz := m.Params.Omega / (2.0 * math.Pi)
		inc := uint32(freqHz / s.sampleRate * 4294967296.0)

		acc := s.phaseAcc[k]
		sm := s.smooth[k]

		for i := 0; i < n; i++ {
			sm += smoothAlpha * (target - sm)
			amp := sm * gain
			if amp > headroomScale {
				amp = headroomScale
			}
			out[i] += amp * shape.Eval(float32(acc)*phaseScale)
			acc += inc
		}

		s.phaseAcc[k] = acc
		s.smooth[k] = float32(dspcore.FlushDenormals(float64(sm)))
	}
}

// Render writes n stereo frames of the node alone, clamped to [-1,1] and
// duplicated to both channels.
func (s *Synth) Render(node *Node, outL []float32, outR []float32, n int) {
	if n > len(outL) {
		n = len(outL)
	}
	if n > len(outR) {
		n = len(outR)
	}
	for i := 0; i < n; i++ {
		outL[i] = 0
	}
	s.RenderAdd(node, outL, n)
	for i := 0; i < n; i++ {
		v := clampFloat32(outL[i], -1.0, 1.0)
		outL[i] = v
		outR[i] = v
	}
}
