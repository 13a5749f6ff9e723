package modal

// VoiceState tracks the lifecycle of a voice.
type VoiceState uint8

const (
	VoiceInactive VoiceState = iota
	VoiceAttack
	VoiceSustain
	VoiceRelease
)

// String returns the state name.
func (s VoiceState) String() string {
	switch s {
	case VoiceInactive:
		return "inactive"
	case VoiceAttack:
		return "attack"
	case VoiceSustain:
		return "sustain"
	case VoiceRelease:
		return "release"
	}
	return "unknown"
}

// silenceThreshold is the weighted amplitude below which a releasing
// voice is considered finished and force-reset.
const silenceThreshold = 1e-3

// pitchBendRangeSemis is the bend span in semitones for bend = ±1.
const pitchBendRangeSemis = 2.0

// Default mode layout relative to the base frequency. Characters replace
// these after noteOn; without one the voice is a lightly detuned harmonic
// stack.
var defaultModeLayout = [MaxModes]struct {
	freqMult float32
	gamma    float32
	weight   float32
}{
	{1.0, 0.5, 1.0},
	{1.01, 0.6, 0.7},
	{2.0, 0.8, 0.5},
	{3.0, 1.0, 0.3},
}

// Voice binds a modal node to a synthesizer and runs the note lifecycle:
// Inactive → Attack → (Sustain for self-oscillators) → Release → Inactive.
// A releasing voice resets itself once its amplitude falls below the
// silence threshold, so stale modal energy can never leak into a new note.
type Voice struct {
	id    uint8
	node  *Node
	synth *Synth
	state VoiceState

	midiNote  int
	velocity  float32
	pitchBend float32
	age       uint32

	samplesSinceUpdate uint32
	samplesPerUpdate   uint32
	sampleRate         float32

	// Frequency multipliers relative to the fundamental, replaced when a
	// character is applied so pitch bend retunes the whole stack.
	freqMult [MaxModes]float32
}

// NewVoice creates an idle voice with the default resonator node.
func NewVoice(id uint8) *Voice {
	v := &Voice{
		id:       id,
		node:     NewNode(id, PersonalityResonator),
		midiNote: 60,
	}
	for k := range v.freqMult {
		v.freqMult[k] = defaultModeLayout[k].freqMult
	}
	return v
}

// Initialize prepares the voice for the given sample rate and starts the
// underlying node.
func (v *Voice) Initialize(sampleRate float32) {
	v.sampleRate = sampleRate
	v.samplesPerUpdate = uint32(sampleRate / ControlRateHz)
	v.samplesSinceUpdate = 0
	v.synth = NewSynth(sampleRate)
	v.applyFrequencies()
	v.node.Start()
}

// ID returns the voice identifier.
func (v *Voice) ID() uint8 { return v.id }

// State returns the lifecycle state.
func (v *Voice) State() VoiceState { return v.state }

// Active reports whether the voice is producing or decaying sound.
func (v *Voice) Active() bool { return v.state != VoiceInactive }

// Note returns the MIDI note the voice is (or was last) playing.
func (v *Voice) Note() int { return v.midiNote }

// Age returns the number of control updates since the last noteOn.
func (v *Voice) Age() uint32 { return v.age }

// Node exposes the underlying modal node for network wiring.
func (v *Voice) Node() *Node { return v.node }

// NoteOn starts a note: retunes the mode stack, clears carrier phase so
// the attack cannot click, and arms an equal-weight poke at the given
// velocity with a random phase.
func (v *Voice) NoteOn(midiNote int, velocity float32) {
	v.midiNote = midiNote
	v.velocity = velocity
	v.state = VoiceAttack
	v.age = 0

	v.applyFrequencies()
	if v.synth != nil {
		v.synth.ResetPhase()
	}

	poke := Poke{
		Source:    v.id,
		Strength:  velocity,
		PhaseHint: -1.0,
	}
	for k := range poke.Weights {
		poke.Weights[k] = 1.0
	}
	v.node.ApplyPoke(poke)
}

// NoteOff moves an active voice into release; the modal decay provides
// the tail.
func (v *Voice) NoteOff() {
	if v.state == VoiceInactive {
		return
	}
	v.state = VoiceRelease
}

// SetPitchBend applies a bend in [-1,1] mapped over ±2 semitones and
// retunes all modes proportionally.
func (v *Voice) SetPitchBend(bend float32) {
	v.pitchBend = clampFloat32(bend, -1.0, 1.0)
	v.applyFrequencies()
}

// SetMode overrides one mode with an absolute frequency in Hz. The
// multiplier relative to the current fundamental is remembered so the
// stack retunes coherently on pitch bend.
func (v *Voice) SetMode(idx int, freqHz float32, gamma float32, weight float32) {
	if idx < 0 || idx >= MaxModes {
		return
	}
	v.node.SetMode(idx, freqToOmega(freqHz), gamma, weight)
	if base := v.BaseFrequency(); base > 0 {
		v.freqMult[idx] = freqHz / base
	}
}

// SetModeRelative tunes one mode as a multiplier of the fundamental.
func (v *Voice) SetModeRelative(idx int, mult float32, gamma float32, weight float32) {
	if idx < 0 || idx >= MaxModes || mult <= 0 {
		return
	}
	v.freqMult[idx] = mult
	v.node.SetMode(idx, freqToOmega(v.BaseFrequency()*mult), gamma, weight)
}

// SetPersonality switches the node personality, which decides whether
// Attack hands over to Sustain.
func (v *Voice) SetPersonality(p Personality) {
	v.node.SetPersonality(p)
}

// SetGlobalDamping forwards uniform damping to the node.
func (v *Voice) SetGlobalDamping(damping float32) {
	v.node.SetGlobalDamping(damping)
}

// BaseFrequency returns the current fundamental including pitch bend.
func (v *Voice) BaseFrequency() float32 {
	bend := pow2Approx(v.pitchBend * pitchBendRangeSemis / 12.0)
	return midiNoteToFreq(v.midiNote) * bend
}

// Amplitude returns the node's weighted modal amplitude.
func (v *Voice) Amplitude() float32 {
	return v.node.Amplitude()
}

// UpdateModal advances the modal state by one control step and runs the
// state machine. Inactive voices are untouched.
func (v *Voice) UpdateModal() {
	if v.state == VoiceInactive {
		return
	}
	v.node.Step()
	v.updateState()
	v.age++
}

// RenderAdd accumulates n mono samples into out. Control stepping is the
// caller's responsibility; the engine interleaves it between slices.
func (v *Voice) RenderAdd(out []float32, n int) {
	if v.state == VoiceInactive || v.synth == nil {
		return
	}
	v.synth.RenderAdd(v.node, out, n)
}

// RenderAudio renders n stereo frames standalone, clocking the control
// updates internally from the elapsed sample count.
func (v *Voice) RenderAudio(outL []float32, outR []float32, n int) {
	if v.state == VoiceInactive || v.synth == nil {
		zeroFill(outL, n)
		zeroFill(outR, n)
		return
	}
	v.samplesSinceUpdate += uint32(n)
	for v.samplesPerUpdate > 0 && v.samplesSinceUpdate >= v.samplesPerUpdate {
		v.UpdateModal()
		v.samplesSinceUpdate -= v.samplesPerUpdate
	}
	v.synth.Render(v.node, outL, outR, n)
}

// ApplyCoupling adds per-mode excitation from neighbor voices, scaled by
// the node's coupling strength and the control timestep.
func (v *Voice) ApplyCoupling(inputs [MaxModes]float32) {
	for k := 0; k < MaxModes; k++ {
		if !v.node.modes[k].Params.Active {
			continue
		}
		v.node.modes[k].A.Re += v.node.couplingStrength * inputs[k] * ControlDT
	}
}

// ApplyCouplingMode0 adds a complex diffusive term to mode 0 only,
// preserving neighbor phase. Strength is already folded in upstream.
func (v *Voice) ApplyCouplingMode0(c Complex) {
	if !v.node.modes[0].Params.Active {
		return
	}
	v.node.modes[0].A = v.node.modes[0].A.Add(c.Scale(ControlDT))
}

// Reset returns the voice to Inactive and clears all modal state.
func (v *Voice) Reset() {
	v.node.Reset()
	v.state = VoiceInactive
	v.age = 0
	v.samplesSinceUpdate = 0
	if v.synth != nil {
		v.synth.ResetPhase()
	}
}

// applyFrequencies retunes every mode to the current base frequency using
// the stored multipliers, keeping each mode's damping and weight.
func (v *Voice) applyFrequencies() {
	base := v.BaseFrequency()
	for k := range v.freqMult {
		m := v.node.ModeState(k)
		gamma := m.Params.Gamma
		weight := m.Params.Weight
		if !m.Params.Active {
			gamma = defaultModeLayout[k].gamma
			weight = defaultModeLayout[k].weight
		}
		v.node.SetMode(k, freqToOmega(base*v.freqMult[k]), gamma, weight)
	}
}

func (v *Voice) updateState() {
	switch v.state {
	case VoiceAttack:
		if v.node.Personality() == PersonalitySelfOscillator {
			v.state = VoiceSustain
		}
	case VoiceRelease:
		if v.Amplitude() < silenceThreshold {
			v.Reset()
		}
	}
}

func zeroFill(buf []float32, n int) {
	if n > len(buf) {
		n = len(buf)
	}
	for i := 0; i < n; i++ {
		buf[i] = 0
	}
}
