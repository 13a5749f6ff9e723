package modal

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

const (
	// MaxModes is the number of complex modes per node.
	MaxModes = 4
	// MaxNeighbors bounds the per-node coupling fan-in.
	MaxNeighbors = 8
	// ControlRateHz is the modal integration rate.
	ControlRateHz = 500
	// ControlDT is the control-rate timestep in seconds.
	ControlDT = 1.0 / float32(ControlRateHz)
)

// Personality selects the envelope/state-machine behavior of a node.
type Personality uint8

const (
	// PersonalityResonator decays to silence after excitation.
	PersonalityResonator Personality = iota
	// PersonalitySelfOscillator sustains continuously once excited.
	PersonalitySelfOscillator
)

// ModeParams holds the tuning of a single mode.
type ModeParams struct {
	Omega  float32 // angular frequency (rad/s), > 0
	Gamma  float32 // damping, > 0 for stability
	Weight float32 // audio contribution [0,1]
	Shape  WaveShape
	Active bool
}

// Mode is one damped complex oscillator: ȧ = (-γ+iω)a + u(t).
type Mode struct {
	Params ModeParams
	A      Complex // amplitude a(t)
	ADot   Complex // derivative estimate, for inspection

	// e^(iω·dt) rotor, refreshed whenever Omega changes.
	rotCos float32
	rotSin float32
}

// excitation is the active poke envelope of a node.
type excitation struct {
	strength   float32
	durationMS float32
	elapsedMS  float32
	rotor      Complex // e^(i·phaseHint)
	weights    [MaxModes]float32
	active     bool
}

// Poke is an excitation event applied to a node's modes. Mode weights are
// taken as given; callers normalize. A negative PhaseHint requests a
// node-local pseudo-random phase.
type Poke struct {
	Source    uint8
	Strength  float32
	PhaseHint float32
	Weights   [MaxModes]float32
}

// Node is a 4-mode modal resonator advanced with an exact exponential
// update, which keeps the integration stable for any γ>0, ω combination.
type Node struct {
	id          uint8
	personality Personality

	modes [MaxModes]Mode
	poke  excitation

	couplingStrength float32
	globalDamping    float32
	numNeighbors     int
	neighborIDs      [MaxNeighbors]uint8

	carrierFreqHz float32
	audioGain     float32

	stepCount uint32
	running   bool

	rngState uint32
}

// NewNode creates a node with the default harmonic mode layout.
func NewNode(id uint8, personality Personality) *Node {
	n := &Node{
		id:               id,
		personality:      personality,
		couplingStrength: 1.0,
		carrierFreqHz:    midiNoteToFreq(60),
		audioGain:        1.0,
		rngState:         uint32(id)*2654435761 + 1,
	}
	base := n.carrierFreqHz
	n.SetMode(0, freqToOmega(base), 0.5, 1.0)
	n.SetMode(1, freqToOmega(base*1.01), 0.6, 0.7)
	n.SetMode(2, freqToOmega(base*2.0), 0.8, 0.5)
	n.SetMode(3, freqToOmega(base*3.0), 1.0, 0.3)
	return n
}

// ID returns the node identifier.
func (n *Node) ID() uint8 { return n.id }

// Personality returns the node personality.
func (n *Node) Personality() Personality { return n.personality }

// SetPersonality changes the node personality.
func (n *Node) SetPersonality(p Personality) { n.personality = p }

// Running reports whether the node is simulating.
func (n *Node) Running() bool { return n.running }

// StepCount returns the number of completed integration steps.
func (n *Node) StepCount() uint32 { return n.stepCount }

// SetMode configures one mode. Out-of-range indices and non-positive
// frequencies or dampings are rejected without touching state.
func (n *Node) SetMode(idx int, omega float32, gamma float32, weight float32) {
	if idx < 0 || idx >= MaxModes {
		return
	}
	if omega <= 0 || gamma <= 0 {
		return
	}
	m := &n.modes[idx]
	m.Params.Omega = omega
	m.Params.Gamma = gamma
	m.Params.Weight = clampFloat32(weight, 0.0, 1.0)
	m.Params.Active = true
	n.refreshRotor(idx)
}

// SetModeShape selects the carrier waveshape for one mode.
func (n *Node) SetModeShape(idx int, shape WaveShape) {
	if idx < 0 || idx >= MaxModes || !shape.Valid() {
		return
	}
	n.modes[idx].Params.Shape = shape
}

// ModeShape returns the carrier waveshape of one mode.
func (n *Node) ModeShape(idx int) WaveShape {
	if idx < 0 || idx >= MaxModes {
		return ShapeSine
	}
	return n.modes[idx].Params.Shape
}

// ModeState returns the state of one mode, or a zero Mode out of range.
func (n *Node) ModeState(idx int) Mode {
	if idx < 0 || idx >= MaxModes {
		return Mode{}
	}
	return n.modes[idx]
}

// SetNeighbors installs the coupling neighbor set (at most MaxNeighbors).
func (n *Node) SetNeighbors(ids []uint8) {
	count := len(ids)
	if count > MaxNeighbors {
		count = MaxNeighbors
	}
	for i := 0; i < count; i++ {
		n.neighborIDs[i] = ids[i]
	}
	n.numNeighbors = count
}

// Neighbors returns the current neighbor id set.
func (n *Node) Neighbors() []uint8 {
	return n.neighborIDs[:n.numNeighbors]
}

// SetCouplingStrength sets the node's global coupling coefficient.
func (n *Node) SetCouplingStrength(strength float32) {
	n.couplingStrength = maxf(strength, 0.0)
}

// SetGlobalDamping adds uniform damping on top of every mode's γ,
// bleeding energy out of the system independent of per-mode tuning.
func (n *Node) SetGlobalDamping(damping float32) {
	n.globalDamping = maxf(damping, 0.0)
}

// SetCarrierFreq records the base audio frequency of the node.
func (n *Node) SetCarrierFreq(freqHz float32) {
	if freqHz > 0 {
		n.carrierFreqHz = freqHz
	}
}

// CarrierFreq returns the base audio frequency of the node.
func (n *Node) CarrierFreq() float32 { return n.carrierFreqHz }

// SetAudioGain sets the node output gain [0,1].
func (n *Node) SetAudioGain(gain float32) {
	n.audioGain = clampFloat32(gain, 0.0, 1.0)
}

// AudioGain returns the node output gain.
func (n *Node) AudioGain() float32 { return n.audioGain }

// Start begins simulation.
func (n *Node) Start() { n.running = true }

// Stop halts simulation without clearing state.
func (n *Node) Stop() { n.running = false }

// Reset clears all mode amplitudes and the excitation envelope. Tuning,
// neighbors, and gain are preserved.
func (n *Node) Reset() {
	for k := range n.modes {
		n.modes[k].A = Complex{}
		n.modes[k].ADot = Complex{}
	}
	n.poke = excitation{}
	n.stepCount = 0
}

// ApplyPoke arms the excitation envelope. Energy is injected over the
// envelope duration by subsequent Step calls.
func (n *Node) ApplyPoke(p Poke) {
	phase := p.PhaseHint
	if phase < 0 {
		phase = n.randomPhase()
	}
	n.poke = excitation{
		strength:   clampFloat32(p.Strength, 0.0, 1.0),
		durationMS: defaultPokeDurationMS,
		rotor:      Rotor(phase),
		weights:    p.Weights,
		active:     true,
	}
}

// Duration rides on the network/character layer; this default matches the
// builtin characters.
const defaultPokeDurationMS = 10.0

// ApplyPokeFor arms the excitation envelope with an explicit duration in
// milliseconds (clamped to [1,50]).
func (n *Node) ApplyPokeFor(p Poke, durationMS float32) {
	n.ApplyPoke(p)
	n.poke.durationMS = clampFloat32(durationMS, 1.0, 50.0)
}

// Step advances all active modes by one control-rate timestep using the
// closed-form update a ← a·e^((-γ_total+iω)·dt), then integrates the
// excitation envelope. Call at ControlRateHz.
func (n *Node) Step() {
	if !n.running {
		return
	}

	var inject float32
	if n.poke.active {
		d := n.poke.durationMS
		t := (n.poke.elapsedMS + ControlDT*1000.0) / d
		if t >= 1.0 {
			t = 1.0
			n.poke.active = false
		}
		frac := minf(1.0, ControlDT*1000.0/d)
		inject = n.poke.strength * hann(t) * frac
		n.poke.elapsedMS += ControlDT * 1000.0
	}

	for k := range n.modes {
		m := &n.modes[k]
		if !m.Params.Active {
			continue
		}
		gamma := m.Params.Gamma + n.globalDamping
		// The closed-form factor is < 1 for any positive damping; the
		// clamp keeps the approximation from ever amplifying.
		decay := minf(approx.FastExp(-gamma*ControlDT), 1.0)
		rot := Complex{m.rotCos, m.rotSin}
		m.A = m.A.Mul(rot).Scale(decay)

		if inject != 0 {
			m.A = m.A.Add(n.poke.rotor.Scale(inject * n.poke.weights[k]))
		}

		// Derivative estimate (-γ+iω)a, kept for inspection only.
		m.ADot = Complex{
			-gamma*m.A.Re - m.Params.Omega*m.A.Im,
			m.Params.Omega*m.A.Re - gamma*m.A.Im,
		}
	}

	n.stepCount++
}

// AddToMode adds a complex contribution directly to one mode's amplitude.
// Used by the coupling algorithms; no-op for inactive modes.
func (n *Node) AddToMode(idx int, c Complex) {
	if idx < 0 || idx >= MaxModes || !n.modes[idx].Params.Active {
		return
	}
	n.modes[idx].A = n.modes[idx].A.Add(c)
}

// Amplitude returns the weighted sum of |a_k| over active modes: the
// instantaneous loudness used for gain cues and deactivation decisions.
func (n *Node) Amplitude() float32 {
	var sum float32
	for k := range n.modes {
		m := &n.modes[k]
		if !m.Params.Active {
			continue
		}
		sum += m.Params.Weight * m.A.Abs()
	}
	return sum
}

// PhaseModulation returns the phase of mode 2, usable as a slow modulator.
func (n *Node) PhaseModulation() float32 {
	m := &n.modes[2]
	if !m.Params.Active {
		return 0
	}
	return float32(math.Atan2(float64(m.A.Im), float64(m.A.Re)))
}

// Mode0 returns mode 0's complex amplitude for network coupling.
func (n *Node) Mode0() Complex {
	return n.modes[0].A
}

func (n *Node) refreshRotor(idx int) {
	m := &n.modes[idx]
	s, c := math.Sincos(float64(m.Params.Omega) * float64(ControlDT))
	m.rotCos = float32(c)
	m.rotSin = float32(s)
}

// hann is the rising half-Hann attack envelope on t in [0,1].
func hann(t float32) float32 {
	if t <= 0 {
		return 0
	}
	if t > 1 {
		return 0
	}
	return 0.5 * (1.0 - float32(math.Cos(math.Pi*float64(t))))
}

// randomPhase is a lock-free xorshift phase in [0, 2π), so pokes with no
// phase hint stay deterministic per node yet decorrelated across nodes.
func (n *Node) randomPhase() float32 {
	x := n.rngState
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	n.rngState = x
	return 2.0 * math.Pi * float32(x) / float32(math.MaxUint32)
}
