package modal

// Engine drives the network from a sample-stamped event queue. A render
// block is cut into slices at event boundaries; modal physics advance at
// the control rate from a sample counter accumulated across slices, so
// integration frequency is independent of how finely events slice the
// block.
type Engine struct {
	network   *Network
	allocator *Allocator

	sampleRate float64
	maxFrames  int

	controlCounter    uint32
	samplesPerControl uint32

	params [NumParams]float32

	mix []float32

	initialized bool
}

// NewEngine creates an engine over a pool of poolSize nodes. The network
// and the polyphonic allocator share the same pool; routing decides which
// one handles a given note event.
func NewEngine(poolSize int) *Engine {
	nw := NewNetwork(poolSize)
	voices := make([]*Voice, nw.PoolSize())
	for i := range voices {
		voices[i] = nw.Voice(i)
	}
	e := &Engine{
		network:   nw,
		allocator: NewAllocator(voices),
	}
	for id := uint32(0); id < NumParams; id++ {
		e.params[id] = paramTable[id].Default
	}
	e.params[ParamNodeCount] = float32(nw.PoolSize())
	return e
}

// Network exposes the node network for direct access.
func (e *Engine) Network() *Network { return e.network }

// Allocator exposes the polyphonic allocator.
func (e *Engine) Allocator() *Allocator { return e.allocator }

// SampleRate returns the prepared sample rate, 0 before Prepare.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Prepare readies the engine for rendering at the given sample rate and
// maximum block size, and (re)applies all cached parameters.
func (e *Engine) Prepare(sampleRate float64, maxFrames int) {
	if sampleRate <= 0 || maxFrames <= 0 {
		return
	}
	e.sampleRate = sampleRate
	e.maxFrames = maxFrames
	e.samplesPerControl = uint32(sampleRate / ControlRateHz)
	e.controlCounter = 0
	e.mix = make([]float32, maxFrames)

	e.network.Initialize(float32(sampleRate))
	e.allocator.Initialize()
	e.initialized = true

	for id := uint32(0); id < NumParams; id++ {
		e.applyParameter(id, e.params[id])
	}
}

// Reset releases all notes and restarts the control clock. Parameter
// state survives.
func (e *Engine) Reset() {
	if !e.initialized {
		return
	}
	e.network.AllNotesOff()
	e.allocator.AllNotesOff()
	e.controlCounter = 0
}

// Render drains the event queue in order, rendering audio slices between
// event offsets and applying each event at its boundary. Offsets are
// clamped to [0, frames]. Uninitialized engines write silence.
func (e *Engine) Render(events *EventQueue, outL []float32, outR []float32, frames int) {
	if frames > len(outL) {
		frames = len(outL)
	}
	if frames > len(outR) {
		frames = len(outR)
	}
	if !e.initialized {
		zeroFill(outL, frames)
		zeroFill(outR, frames)
		return
	}
	if frames > e.maxFrames {
		frames = e.maxFrames
	}

	last := 0
	if events != nil {
		for i := 0; i < events.Len(); i++ {
			ev := events.At(i)
			offset := int(ev.SampleOffset)
			if offset < 0 {
				offset = 0
			}
			if offset > frames {
				offset = frames
			}
			if offset > last {
				e.renderSlice(outL[last:offset], outR[last:offset], offset-last)
			}
			e.processEvent(ev)
			if offset > last {
				last = offset
			}
		}
	}
	if last < frames {
		e.renderSlice(outL[last:frames], outR[last:frames], frames-last)
	}
}

// NoteOn triggers a note immediately, respecting the routing mode.
func (e *Engine) NoteOn(note int, velocity float32, channel int) {
	if !e.initialized {
		return
	}
	if e.network.Routing() == RoutePolyphonic {
		e.allocator.NoteOn(note, velocity)
		return
	}
	e.network.NoteOn(note, velocity, channel)
}

// NoteOff releases a note immediately.
func (e *Engine) NoteOff(note int) {
	if !e.initialized {
		return
	}
	if e.network.Routing() == RoutePolyphonic {
		e.allocator.NoteOff(note)
		return
	}
	e.network.NoteOff(note)
}

// SetParameter clamps the value into the parameter's range, caches it,
// and applies any structural side effect. Unknown ids are ignored.
func (e *Engine) SetParameter(id uint32, value float32) {
	if id >= NumParams {
		return
	}
	value = clampParam(id, value)
	e.params[id] = value
	if e.initialized {
		e.applyParameter(id, value)
	}
}

// Parameter returns the cached value of a parameter, 0 for unknown ids.
func (e *Engine) Parameter(id uint32) float32 {
	if id >= NumParams {
		return 0
	}
	return e.params[id]
}

func (e *Engine) processEvent(ev Event) {
	switch ev.Type {
	case EventNoteOn:
		e.NoteOn(int(ev.Note), ev.Velocity, int(ev.Channel))
	case EventNoteOff:
		e.NoteOff(int(ev.Note))
	case EventPitchBend:
		e.network.SetPitchBend(ev.Value)
		e.allocator.SetPitchBend(ev.Value)
	case EventCC:
		// CC mapping is host business; nothing routed here yet.
	case EventParameter:
		e.SetParameter(ev.ParamID, ev.Value)
	}
}

func (e *Engine) renderSlice(outL []float32, outR []float32, n int) {
	e.controlCounter += uint32(n)
	for e.samplesPerControl > 0 && e.controlCounter >= e.samplesPerControl {
		e.network.UpdateNodes()
		e.controlCounter -= e.samplesPerControl
	}

	mix := e.mix[:n]
	for i := range mix {
		mix[i] = 0
	}
	e.network.RenderAdd(mix, n)
	for i := 0; i < n; i++ {
		v := clampFloat32(mix[i], -1.0, 1.0)
		outL[i] = v
		outR[i] = v
	}
}

func (e *Engine) applyParameter(id uint32, value float32) {
	switch id {
	case ParamMasterGain:
		// Gain doubles as circuit energy control: lower gain bleeds
		// more energy out of every node.
		e.network.SetGlobalDamping(1.0 - value)
	case ParamCouplingStrength:
		e.network.SetCouplingStrength(value)
	case ParamTopologyType:
		e.network.SetTopology(TopologyType(value))
	case ParamCouplingMode:
		e.network.SetCouplingMode(CouplingMode(value))
	case ParamNoteRouting:
		e.network.SetRouting(NoteRouting(value))
	case ParamMultiExcite:
		e.network.SetMultiExcite(MultiExciteMode(value))
	case ParamNodeCount:
		e.network.SetNodeCount(int(value))
		e.allocator.SetNodeCount(int(value))
		e.params[ParamNodeCount] = float32(e.network.NodeCount())
	case ParamPokeStrength:
		e.network.SetPokeStrength(value)
	case ParamPokeDuration:
		e.network.SetPokeDuration(value)
	case ParamNodeCharacter0, ParamNodeCharacter1, ParamNodeCharacter2,
		ParamNodeCharacter3, ParamNodeCharacter4:
		e.network.SetNodeCharacter(int(id-ParamNodeCharacter0), int(value))
	case ParamMode0Frequency, ParamMode0Damping, ParamMode0Weight,
		ParamMode1Frequency, ParamMode1Damping, ParamMode1Weight,
		ParamMode2Frequency, ParamMode2Damping, ParamMode2Weight,
		ParamMode3Frequency, ParamMode3Damping, ParamMode3Weight:
		k := int(id-ParamMode0Frequency) / 3
		e.allocator.SetMode(k,
			e.params[ParamMode0Frequency+uint32(3*k)],
			e.params[ParamMode0Damping+uint32(3*k)],
			e.params[ParamMode0Weight+uint32(3*k)])
	}
}
