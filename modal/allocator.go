package modal

// Default relative tuning applied to allocated voices, overridable per
// mode through SetMode.
var allocatorModeDefaults = [MaxModes]struct {
	freqMult float32
	gamma    float32
	weight   float32
}{
	{1.0, 1.0, 1.0},
	{2.0, 1.2, 0.8},
	{3.0, 1.5, 0.6},
	{4.5, 2.0, 0.4},
}

const noVoice = int8(-1)

// Allocator maps notes onto a voice pool with per-note reuse and
// oldest-first stealing. A note never holds more than one voice, and when
// the pool is exhausted the strictly oldest voice (lowest index on ties)
// is reset and reassigned, so allocation is deterministic.
type Allocator struct {
	voices       []*Voice
	activeCount  int
	noteToVoice  [128]int8
	pitchBend    float32
	personality  Personality
	modeParams   [MaxModes]struct{ freqMult, gamma, weight float32 }
	pokeStrength float32
	pokeDuration float32
	initialized  bool
}

// NewAllocator creates an allocator over the given pool. The pool is
// borrowed, not owned; the caller decides whether it is shared with a
// Network.
func NewAllocator(voices []*Voice) *Allocator {
	a := &Allocator{
		voices:       voices,
		activeCount:  len(voices),
		personality:  PersonalityResonator,
		pokeStrength: 0.5,
		pokeDuration: 10.0,
	}
	for i := range a.noteToVoice {
		a.noteToVoice[i] = noVoice
	}
	for k := range a.modeParams {
		a.modeParams[k].freqMult = allocatorModeDefaults[k].freqMult
		a.modeParams[k].gamma = allocatorModeDefaults[k].gamma
		a.modeParams[k].weight = allocatorModeDefaults[k].weight
	}
	return a
}

// Initialize marks the allocator ready. Voice preparation is owned by the
// pool's creator.
func (a *Allocator) Initialize() {
	a.initialized = true
}

// NoteOn allocates (or reuses) a voice for the note and triggers it.
// Returns the voice, or nil when the note is out of range or the pool is
// empty.
func (a *Allocator) NoteOn(midiNote int, velocity float32) *Voice {
	if !a.initialized || midiNote < 0 || midiNote > 127 {
		return nil
	}

	if idx := a.noteToVoice[midiNote]; idx >= 0 {
		v := a.voices[idx]
		a.trigger(v, midiNote, velocity)
		return v
	}

	idx := a.findFreeVoice()
	if idx < 0 {
		idx = a.stealOldestVoice()
	}
	if idx < 0 {
		return nil
	}

	v := a.voices[idx]
	a.trigger(v, midiNote, velocity)
	a.noteToVoice[midiNote] = int8(idx)
	return v
}

// NoteOff releases the voice holding the note, if any.
func (a *Allocator) NoteOff(midiNote int) {
	if midiNote < 0 || midiNote > 127 {
		return
	}
	idx := a.noteToVoice[midiNote]
	if idx >= 0 && int(idx) < len(a.voices) {
		a.voices[idx].NoteOff()
		a.noteToVoice[midiNote] = noVoice
	}
}

// AllNotesOff releases every active voice and clears the note map.
func (a *Allocator) AllNotesOff() {
	for _, v := range a.voices {
		if v.Active() {
			v.NoteOff()
		}
	}
	for i := range a.noteToVoice {
		a.noteToVoice[i] = noVoice
	}
}

// SetPitchBend applies a bend in [-1,1] to all active voices.
func (a *Allocator) SetPitchBend(bend float32) {
	a.pitchBend = clampFloat32(bend, -1.0, 1.0)
	for _, v := range a.voices {
		if v.Active() {
			v.SetPitchBend(a.pitchBend)
		}
	}
}

// SetPersonality changes the personality of every voice in the pool.
func (a *Allocator) SetPersonality(p Personality) {
	a.personality = p
	for _, v := range a.voices {
		v.SetPersonality(p)
	}
}

// SetMode stores a relative mode tuning and retunes active voices in
// place. Mode indices outside [0,4) are no-ops.
func (a *Allocator) SetMode(modeIdx int, freqMult float32, gamma float32, weight float32) {
	if modeIdx < 0 || modeIdx >= MaxModes {
		return
	}
	a.modeParams[modeIdx].freqMult = freqMult
	a.modeParams[modeIdx].gamma = gamma
	a.modeParams[modeIdx].weight = weight

	for _, v := range a.voices {
		if v.Active() {
			v.SetModeRelative(modeIdx, freqMult, gamma, weight)
		}
	}
}

// SetNodeCount limits allocation to the first count voices. Voices above
// the limit are reset and their note mappings cleared.
func (a *Allocator) SetNodeCount(count int) {
	count = clampInt(count, 1, len(a.voices))
	if count < a.activeCount {
		for i := count; i < len(a.voices); i++ {
			if !a.voices[i].Active() {
				continue
			}
			a.voices[i].Reset()
			for note := range a.noteToVoice {
				if a.noteToVoice[note] == int8(i) {
					a.noteToVoice[note] = noVoice
				}
			}
		}
	}
	a.activeCount = count
}

// ActiveVoiceCount returns the number of sounding voices.
func (a *Allocator) ActiveVoiceCount() int {
	count := 0
	for _, v := range a.voices {
		if v.Active() {
			count++
		}
	}
	return count
}

// VoiceForNote returns the index of the voice holding the note, or -1.
func (a *Allocator) VoiceForNote(midiNote int) int {
	if midiNote < 0 || midiNote > 127 {
		return -1
	}
	return int(a.noteToVoice[midiNote])
}

// UpdateVoices advances every active voice by one control step.
func (a *Allocator) UpdateVoices() {
	if !a.initialized {
		return
	}
	for _, v := range a.voices {
		if v.Active() {
			v.UpdateModal()
		}
	}
}

// RenderAdd accumulates n mono samples of every active voice.
func (a *Allocator) RenderAdd(out []float32, n int) {
	if !a.initialized {
		return
	}
	for _, v := range a.voices {
		v.RenderAdd(out, n)
	}
}

func (a *Allocator) trigger(v *Voice, midiNote int, velocity float32) {
	v.NoteOn(midiNote, velocity)
	v.SetPitchBend(a.pitchBend)
	v.SetPersonality(a.personality)

	// Mode tuning is relative; resolve after noteOn sets the base.
	for k := 0; k < MaxModes; k++ {
		v.SetModeRelative(k, a.modeParams[k].freqMult, a.modeParams[k].gamma, a.modeParams[k].weight)
	}
}

func (a *Allocator) findFreeVoice() int {
	for i := 0; i < a.activeCount && i < len(a.voices); i++ {
		if !a.voices[i].Active() {
			return i
		}
	}
	return -1
}

// stealOldestVoice resets and returns the strictly oldest active voice.
// The strict comparison means equal ages resolve to the lowest index.
func (a *Allocator) stealOldestVoice() int {
	oldest := -1
	var maxAge uint32
	for i := 0; i < a.activeCount && i < len(a.voices); i++ {
		if !a.voices[i].Active() {
			continue
		}
		if age := a.voices[i].Age(); age > maxAge || oldest < 0 {
			maxAge = age
			oldest = i
		}
	}
	if oldest >= 0 {
		a.voices[oldest].Reset()
		for note := range a.noteToVoice {
			if a.noteToVoice[note] == int8(oldest) {
				a.noteToVoice[note] = noVoice
			}
		}
	}
	return oldest
}
