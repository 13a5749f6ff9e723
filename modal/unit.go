package modal

import "math"

// Effect-mode excitation constants.
const (
	energySmooth      = 0.95
	autoNoteOffEnergy = 1e-3
	pitchWindowSec    = 0.1
	pitchMinHz        = 60.0
	pitchMaxHz        = 2000.0
)

// Unit is the host boundary: a procedural lifecycle around the engine
// (Init → Prepare → Render/Process → Reset → Cleanup) plus a per-block
// event staging area. Every method on an uninitialized Unit is a safe
// no-op that outputs silence. All buffers are allocated up front; the
// render path never allocates.
type Unit struct {
	engine *Engine
	events EventQueue

	sampleRate float64
	maxFrames  int

	wetL []float32
	wetR []float32

	// Effect-mode state: input energy tracking and a zero-crossing
	// pitch estimate over a sliding window.
	lastEnergy     float32
	smoothedEnergy float32
	currentNote    uint8
	noteIsOn       bool

	pitchBuf    []float32
	pitchBufPos int
	detectedHz  float32

	initialized bool
}

// NewUnit creates an uninitialized unit.
func NewUnit() *Unit {
	return &Unit{currentNote: 60, detectedHz: 261.63}
}

// Init allocates the engine and all processing buffers. maxNodes bounds
// the node pool; zero selects the default five-node network.
func (u *Unit) Init(sampleRate float64, maxFrames int, maxNodes int) {
	if sampleRate <= 0 || maxFrames <= 0 {
		return
	}
	if maxNodes <= 0 {
		maxNodes = DefaultNetworkNodes
	}

	u.engine = NewEngine(maxNodes)
	u.sampleRate = sampleRate
	u.maxFrames = maxFrames
	u.wetL = make([]float32, maxFrames)
	u.wetR = make([]float32, maxFrames)

	u.lastEnergy = 0
	u.smoothedEnergy = 0
	u.currentNote = 60
	u.noteIsOn = false
	u.pitchBuf = make([]float32, int(sampleRate*pitchWindowSec))
	u.pitchBufPos = 0
	u.detectedHz = 261.63

	u.engine.Prepare(sampleRate, maxFrames)
	u.initialized = true
}

// Prepare re-readies the unit for a new sample rate or block size,
// growing buffers as needed. State set through parameters survives.
func (u *Unit) Prepare(sampleRate float64, maxFrames int) {
	if !u.initialized || sampleRate <= 0 || maxFrames <= 0 {
		return
	}
	if maxFrames > u.maxFrames {
		u.maxFrames = maxFrames
		u.wetL = make([]float32, maxFrames)
		u.wetR = make([]float32, maxFrames)
	}
	if sampleRate != u.sampleRate {
		u.sampleRate = sampleRate
		u.pitchBuf = make([]float32, int(sampleRate*pitchWindowSec))
		u.pitchBufPos = 0
	}
	u.engine.Prepare(sampleRate, maxFrames)
}

// Reset silences the engine without touching parameters.
func (u *Unit) Reset() {
	if !u.initialized {
		return
	}
	u.engine.Reset()
}

// Cleanup releases everything; the unit returns to the uninitialized
// state and all calls become no-ops again.
func (u *Unit) Cleanup() {
	u.engine = nil
	u.wetL = nil
	u.wetR = nil
	u.pitchBuf = nil
	u.initialized = false
}

// Engine exposes the underlying engine, nil before Init.
func (u *Unit) Engine() *Engine {
	if !u.initialized {
		return nil
	}
	return u.engine
}

// BeginEvents clears the staging queue for the coming render block.
func (u *Unit) BeginEvents() {
	if !u.initialized {
		return
	}
	u.events.Clear()
}

// PushNoteOn stages a note-on at the given sample offset.
func (u *Unit) PushNoteOn(sampleOffset int32, note uint8, velocity float32, channel uint8) {
	if !u.initialized {
		return
	}
	u.events.Push(Event{
		Type:         EventNoteOn,
		SampleOffset: sampleOffset,
		Note:         note,
		Velocity:     velocity,
		Channel:      channel,
	})
}

// PushNoteOff stages a note-off at the given sample offset.
func (u *Unit) PushNoteOff(sampleOffset int32, note uint8) {
	if !u.initialized {
		return
	}
	u.events.Push(Event{Type: EventNoteOff, SampleOffset: sampleOffset, Note: note})
}

// PushPitchBend stages a pitch bend in [-1,1].
func (u *Unit) PushPitchBend(sampleOffset int32, value float32) {
	if !u.initialized {
		return
	}
	u.events.Push(Event{Type: EventPitchBend, SampleOffset: sampleOffset, Value: value})
}

// PushParameter stages a sample-accurate parameter change.
func (u *Unit) PushParameter(sampleOffset int32, paramID uint32, value float32) {
	if !u.initialized {
		return
	}
	u.events.Push(Event{Type: EventParameter, SampleOffset: sampleOffset, ParamID: paramID, Value: value})
}

// SetParameter applies a parameter immediately.
func (u *Unit) SetParameter(id uint32, value float32) {
	if !u.initialized {
		return
	}
	u.engine.SetParameter(id, value)
}

// Parameter returns the current parameter value, 0 when uninitialized.
func (u *Unit) Parameter(id uint32) float32 {
	if !u.initialized {
		return 0
	}
	return u.engine.Parameter(id)
}

// Render drains the staged events and renders n stereo frames.
func (u *Unit) Render(outL []float32, outR []float32, n int) {
	if !u.initialized {
		zeroFill(outL, n)
		zeroFill(outR, n)
		return
	}
	u.engine.Render(&u.events, outL, outR, n)
}

// Process runs effect mode: the input drives the network. Block RMS
// energy is tracked against an adaptive threshold for onsets; pitch is
// estimated by zero-crossing rate over a sliding window; the target note
// comes from BodySize morphed toward the detected pitch. The wet network
// render is then mixed against the dry input.
func (u *Unit) Process(inL []float32, inR []float32, outL []float32, outR []float32, n int) {
	if !u.initialized {
		zeroFill(outL, n)
		zeroFill(outR, n)
		return
	}
	if n > u.maxFrames {
		n = u.maxFrames
	}
	if n > len(inL) || n > len(inR) || n > len(outL) || n > len(outR) {
		return
	}

	bodySize := u.engine.Parameter(ParamBodySize)
	excite := u.engine.Parameter(ParamExcite)
	morph := u.engine.Parameter(ParamMorph)
	mix := u.engine.Parameter(ParamMix)
	dryGain := 1.0 - mix
	wetGain := mix

	var energy float32
	for i := 0; i < n; i++ {
		sample := (inL[i] + inR[i]) * 0.5
		u.pitchBuf[u.pitchBufPos] = sample
		u.pitchBufPos = (u.pitchBufPos + 1) % len(u.pitchBuf)
		energy += sample * sample
	}
	energy = float32(math.Sqrt(float64(energy) / float64(n)))

	u.smoothedEnergy = u.smoothedEnergy*energySmooth + energy*(1.0-energySmooth)
	energyDelta := energy - u.lastEnergy
	u.lastEnergy = energy

	threshold := float32(0.005) + u.smoothedEnergy*0.5

	u.detectedHz = detectPitchZCR(u.pitchBuf, float32(u.sampleRate))

	// BodySize maps C2..C6 (MIDI 36..96); morph pulls toward the input.
	baseNote := 36.0 + bodySize*60.0
	targetNote := uint8(baseNote)
	if morph > 0.01 {
		detected := float32(hzToMIDI(u.detectedHz))
		targetNote = uint8(baseNote*(1.0-morph) + detected*morph + 0.5)
	}

	if energyDelta > threshold*excite && energy > 0.002*excite {
		if u.noteIsOn {
			u.events.Push(Event{Type: EventNoteOff, Note: u.currentNote})
		}
		velocity := minf(energy*20.0*(0.5+excite*0.5), 1.0)
		if velocity < 0.1 {
			velocity = 0.1
		}
		u.events.Push(Event{Type: EventNoteOn, Note: targetNote, Velocity: velocity})
		u.currentNote = targetNote
		u.noteIsOn = true
	}

	if u.noteIsOn && u.smoothedEnergy < autoNoteOffEnergy {
		u.events.Push(Event{Type: EventNoteOff, Note: u.currentNote})
		u.noteIsOn = false
	}

	u.engine.Render(&u.events, u.wetL, u.wetR, n)

	for i := 0; i < n; i++ {
		outL[i] = inL[i]*dryGain + u.wetL[i]*wetGain
		outR[i] = inR[i]*dryGain + u.wetR[i]*wetGain
	}
}

// detectPitchZCR estimates frequency from the zero-crossing count of the
// window. Crude but cheap; each crossing is half a cycle.
func detectPitchZCR(buf []float32, sampleRate float32) float32 {
	if len(buf) < 2 {
		return pitchMinHz
	}
	crossings := 0
	for i := 1; i < len(buf); i++ {
		if (buf[i-1] >= 0 && buf[i] < 0) || (buf[i-1] < 0 && buf[i] >= 0) {
			crossings++
		}
	}
	freq := float32(crossings) * sampleRate / (2.0 * float32(len(buf)))
	return clampFloat32(freq, pitchMinHz, pitchMaxHz)
}

// hzToMIDI converts a frequency to the nearest MIDI note number.
func hzToMIDI(hz float32) int {
	note := 69.0 + 12.0*math.Log2(float64(hz)/440.0)
	return clampInt(int(note+0.5), 0, 127)
}
