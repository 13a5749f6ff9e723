package modal

// Network size limits. Five nodes is the stock ensemble; larger pools are
// supported up to MaxNetworkNodes.
const (
	DefaultNetworkNodes = 5
	MaxNetworkNodes     = 16
)

// NoteRouting decides which nodes a note event reaches.
type NoteRouting uint8

const (
	// RouteByChannel maps MIDI channel c to node c mod activeCount.
	RouteByChannel NoteRouting = iota
	// RouteAllNodes excites every active node.
	RouteAllNodes
	// RoutePolyphonic hands notes to the voice allocator.
	RoutePolyphonic
)

// MultiExciteMode decides what a note-on does to an already-sounding node.
type MultiExciteMode uint8

const (
	// ExciteReTrigger resets the node before exciting it.
	ExciteReTrigger MultiExciteMode = iota
	// ExciteAccumulate layers the new poke on top of existing energy.
	ExciteAccumulate
)

// customCharacterID marks a node carrying a character outside the catalog.
const customCharacterID = 0xFF

const noNode = 0xFF

// Network owns a fixed pool of voices, their character assignments, and
// the coupling topology over the active subset. The pool is allocated
// once; note handling and control updates never allocate.
type Network struct {
	voices       [MaxNetworkNodes]*Voice
	characters   [MaxNetworkNodes]Character
	characterIDs [MaxNetworkNodes]uint8
	poolSize     int
	activeCount  int

	routing     NoteRouting
	multiExcite MultiExciteMode

	topology     *Topology
	couplingMode CouplingMode
	couplingStr  float32

	noteToNode [128]uint8

	pitchBend      float32
	pokeStrength   float32
	pokeDurationMS float32

	sampleRate  float32
	initialized bool

	// Control-rate scratch, sized to the pool so coupling is applied
	// simultaneously rather than in node order.
	pressure  [MaxNetworkNodes]float32
	diffusion [MaxNetworkNodes]Complex
}

// NewNetwork creates a pool of size nodes (clamped to [1, MaxNetworkNodes])
// with the default per-node character assignment.
func NewNetwork(size int) *Network {
	size = clampInt(size, 1, MaxNetworkNodes)
	nw := &Network{
		poolSize:       size,
		activeCount:    size,
		routing:        RouteByChannel,
		multiExcite:    ExciteAccumulate,
		topology:       NewTopology(1),
		couplingMode:   CouplingComplexDiffusion,
		couplingStr:    0.3,
		pokeStrength:   0.5,
		pokeDurationMS: 10.0,
	}
	for i := 0; i < size; i++ {
		nw.voices[i] = NewVoice(uint8(i))
		id := i % NumBuiltinCharacters
		nw.characterIDs[i] = uint8(id)
		nw.characters[i] = characterLibrary[id]
	}
	for i := range nw.noteToNode {
		nw.noteToNode[i] = noNode
	}
	return nw
}

// Initialize prepares all voices for the sample rate, applies the stored
// characters, and generates the initial topology.
func (nw *Network) Initialize(sampleRate float32) {
	nw.sampleRate = sampleRate
	for i := 0; i < nw.poolSize; i++ {
		nw.voices[i].Initialize(sampleRate)
		nw.applyCharacterToNode(i, &nw.characters[i])
	}
	nw.initialized = true
	nw.regenerateTopology()
}

// PoolSize returns the constructed pool size.
func (nw *Network) PoolSize() int { return nw.poolSize }

// NodeCount returns the configured active node count.
func (nw *Network) NodeCount() int { return nw.activeCount }

// Voice returns the voice at idx, or nil out of range.
func (nw *Network) Voice(idx int) *Voice {
	if idx < 0 || idx >= nw.poolSize {
		return nil
	}
	return nw.voices[idx]
}

// SetNodeCount clamps to [1, pool size]. All sounding notes are released
// first and every node beyond the new count is force-reset, so removed
// nodes can never leak residual energy into the coupling graph.
func (nw *Network) SetNodeCount(count int) {
	count = clampInt(count, 1, nw.poolSize)
	nw.AllNotesOff()
	for i := count; i < nw.poolSize; i++ {
		nw.voices[i].Reset()
	}
	nw.activeCount = count
	nw.regenerateTopology()
}

// SetRouting selects the note routing mode.
func (nw *Network) SetRouting(mode NoteRouting) {
	if mode <= RoutePolyphonic {
		nw.routing = mode
	}
}

// Routing returns the note routing mode.
func (nw *Network) Routing() NoteRouting { return nw.routing }

// SetMultiExcite selects retrigger vs. accumulate behavior.
func (nw *Network) SetMultiExcite(mode MultiExciteMode) {
	if mode <= ExciteAccumulate {
		nw.multiExcite = mode
	}
}

// MultiExcite returns the multi-excite mode.
func (nw *Network) MultiExcite() MultiExciteMode { return nw.multiExcite }

// SetCouplingMode selects the coupling algorithm.
func (nw *Network) SetCouplingMode(mode CouplingMode) {
	if mode <= CouplingComplexDiffusion {
		nw.couplingMode = mode
	}
}

// CouplingMode returns the coupling algorithm.
func (nw *Network) CouplingMode() CouplingMode { return nw.couplingMode }

// SetCouplingStrength updates the edge strength and regenerates topology.
func (nw *Network) SetCouplingStrength(strength float32) {
	nw.couplingStr = clampFloat32(strength, 0.0, 1.0)
	nw.regenerateTopology()
}

// CouplingStrength returns the coupling strength.
func (nw *Network) CouplingStrength() float32 { return nw.couplingStr }

// SetTopology selects the graph type and regenerates.
func (nw *Network) SetTopology(typ TopologyType) {
	if !typ.Valid() {
		return
	}
	nw.topology.Generate(typ, nw.couplingStr, nw.activeCount)
	nw.applyNeighbors()
}

// Topology returns the current graph type.
func (nw *Network) Topology() TopologyType { return nw.topology.Type() }

// SetPokeStrength sets the strength used for direct pokes.
func (nw *Network) SetPokeStrength(strength float32) {
	nw.pokeStrength = clampFloat32(strength, 0.0, 1.0)
}

// PokeStrength returns the direct poke strength.
func (nw *Network) PokeStrength() float32 { return nw.pokeStrength }

// SetPokeDuration sets the direct poke envelope length in ms.
func (nw *Network) SetPokeDuration(ms float32) {
	nw.pokeDurationMS = clampFloat32(ms, 1.0, 50.0)
}

// PokeDuration returns the direct poke envelope length in ms.
func (nw *Network) PokeDuration() float32 { return nw.pokeDurationMS }

// SetGlobalDamping forwards uniform damping to every node in the pool.
func (nw *Network) SetGlobalDamping(damping float32) {
	for i := 0; i < nw.poolSize; i++ {
		nw.voices[i].SetGlobalDamping(damping)
	}
}

// SetNodeCharacter assigns a builtin character. Out-of-range node or
// catalog ids are silent no-ops.
func (nw *Network) SetNodeCharacter(nodeIdx int, characterID int) {
	if nodeIdx < 0 || nodeIdx >= nw.poolSize {
		return
	}
	c := GetCharacter(characterID)
	if c == nil || !c.Validate() {
		return
	}
	nw.characterIDs[nodeIdx] = uint8(characterID)
	nw.characters[nodeIdx] = *c
	nw.applyCharacterToNode(nodeIdx, c)
}

// SetNodeCharacterCustom assigns a caller-provided character. Validation
// failures leave the node completely untouched.
func (nw *Network) SetNodeCharacterCustom(nodeIdx int, c *Character) {
	if nodeIdx < 0 || nodeIdx >= nw.poolSize {
		return
	}
	if c == nil || !c.Validate() {
		return
	}
	nw.characterIDs[nodeIdx] = customCharacterID
	nw.characters[nodeIdx] = *c
	nw.applyCharacterToNode(nodeIdx, c)
}

// NodeCharacterID returns the catalog id of the node's character, or
// 0xFF for custom/out-of-range.
func (nw *Network) NodeCharacterID(nodeIdx int) uint8 {
	if nodeIdx < 0 || nodeIdx >= nw.poolSize {
		return customCharacterID
	}
	return nw.characterIDs[nodeIdx]
}

// SetModeWaveShape sets the carrier shape of one mode on one node.
func (nw *Network) SetModeWaveShape(nodeIdx int, modeIdx int, shape WaveShape) {
	if nodeIdx < 0 || nodeIdx >= nw.poolSize {
		return
	}
	nw.voices[nodeIdx].Node().SetModeShape(modeIdx, shape)
}

// ModeWaveShape returns the carrier shape of one mode on one node.
func (nw *Network) ModeWaveShape(nodeIdx int, modeIdx int) WaveShape {
	if nodeIdx < 0 || nodeIdx >= nw.poolSize {
		return ShapeSine
	}
	return nw.voices[nodeIdx].Node().ModeShape(modeIdx)
}

// NoteOn routes a note to its target nodes and excites them. Notes above
// 127 are ignored.
func (nw *Network) NoteOn(midiNote int, velocity float32, channel int) {
	if !nw.initialized || midiNote < 0 || midiNote > 127 {
		return
	}

	var first = -1
	switch nw.routing {
	case RouteAllNodes:
		for i := 0; i < nw.activeCount; i++ {
			nw.exciteTarget(i, midiNote, velocity)
		}
		first = 0
	default:
		idx := channel % nw.activeCount
		if idx < 0 {
			idx += nw.activeCount
		}
		nw.exciteTarget(idx, midiNote, velocity)
		first = idx
	}

	if first >= 0 {
		nw.noteToNode[midiNote] = uint8(first)
	}
}

// NoteOff releases the node mapped to the note, if any.
func (nw *Network) NoteOff(midiNote int) {
	if midiNote < 0 || midiNote > 127 {
		return
	}
	idx := nw.noteToNode[midiNote]
	if int(idx) < nw.poolSize {
		nw.voices[idx].NoteOff()
		nw.noteToNode[midiNote] = noNode
	}
}

// AllNotesOff releases every sounding node and clears the note map.
func (nw *Network) AllNotesOff() {
	for i := 0; i < nw.poolSize; i++ {
		if nw.voices[i].Active() {
			nw.voices[i].NoteOff()
		}
	}
	for i := range nw.noteToNode {
		nw.noteToNode[i] = noNode
	}
}

// SetPitchBend applies a bend in [-1,1] to every sounding node.
func (nw *Network) SetPitchBend(bend float32) {
	nw.pitchBend = clampFloat32(bend, -1.0, 1.0)
	for i := 0; i < nw.poolSize; i++ {
		if nw.voices[i].Active() {
			nw.voices[i].SetPitchBend(nw.pitchBend)
		}
	}
}

// ExciteNode pokes one node directly with the network poke settings,
// bypassing note routing. Used by the effect-mode front end.
func (nw *Network) ExciteNode(nodeIdx int, midiNote int, velocity float32) {
	if nodeIdx < 0 || nodeIdx >= nw.activeCount {
		return
	}
	nw.exciteTarget(nodeIdx, midiNote, velocity)
}

// ReleaseNode releases one node directly.
func (nw *Network) ReleaseNode(nodeIdx int) {
	if nodeIdx < 0 || nodeIdx >= nw.poolSize {
		return
	}
	nw.voices[nodeIdx].NoteOff()
}

// IsNodeActive reports whether the node is sounding.
func (nw *Network) IsNodeActive(nodeIdx int) bool {
	if nodeIdx < 0 || nodeIdx >= nw.poolSize {
		return false
	}
	return nw.voices[nodeIdx].Active()
}

// ActiveNodeCount returns the number of currently sounding nodes.
func (nw *Network) ActiveNodeCount() int {
	count := 0
	for i := 0; i < nw.poolSize; i++ {
		if nw.voices[i].Active() {
			count++
		}
	}
	return count
}

// UpdateNodes advances the active nodes by one control step and then
// propagates coupling along the topology edges.
func (nw *Network) UpdateNodes() {
	if !nw.initialized {
		return
	}
	for i := 0; i < nw.activeCount; i++ {
		if nw.voices[i].Active() {
			nw.voices[i].UpdateModal()
		}
	}
	nw.updateCoupling()
}

// RenderAdd accumulates n mono samples of every sounding active node.
func (nw *Network) RenderAdd(out []float32, n int) {
	if !nw.initialized {
		return
	}
	for i := 0; i < nw.activeCount; i++ {
		nw.voices[i].RenderAdd(out, n)
	}
}

func (nw *Network) exciteTarget(idx int, midiNote int, velocity float32) {
	v := nw.voices[idx]
	if nw.multiExcite == ExciteReTrigger && v.Active() {
		v.Reset()
	}

	c := &nw.characters[idx]
	v.NoteOn(midiNote, velocity*c.PokeStrength)
	v.SetPitchBend(nw.pitchBend)

	// The character's tuning is relative; resolve it against the note's
	// base frequency now that noteOn has set it.
	for k := 0; k < MaxModes; k++ {
		v.SetModeRelative(k, c.FreqMult[k], c.Damping[k], c.Weight[k])
	}
	v.SetPersonality(c.Personality)
	v.Node().ApplyPokeFor(Poke{
		Source:    uint8(idx),
		Strength:  velocity * c.PokeStrength,
		PhaseHint: -1.0,
		Weights:   c.Weight,
	}, c.PokeDurationMS)
}

func (nw *Network) applyCharacterToNode(idx int, c *Character) {
	if !nw.initialized {
		return
	}
	v := nw.voices[idx]
	v.SetPersonality(c.Personality)
	for k := 0; k < MaxModes; k++ {
		v.Node().SetModeShape(k, c.Shape[k])
	}
}

func (nw *Network) regenerateTopology() {
	nw.topology.Generate(nw.topology.Type(), nw.couplingStr, nw.activeCount)
	nw.applyNeighbors()
}

func (nw *Network) applyNeighbors() {
	var nodes [MaxNetworkNodes]*Node
	for i := 0; i < nw.poolSize; i++ {
		nodes[i] = nw.voices[i].Node()
	}
	nw.topology.ApplyNeighbors(nodes[:nw.poolSize])
}

// updateCoupling walks the edge list once, accumulating contributions in
// scratch so every node sees the same pre-step neighborhood, then applies
// them. Nodes at or beyond the active count never give or receive energy.
func (nw *Network) updateCoupling() {
	edges := nw.topology.Edges()
	if len(edges) == 0 {
		return
	}

	switch nw.couplingMode {
	case CouplingMagnitudePressure:
		for i := 0; i < nw.activeCount; i++ {
			nw.pressure[i] = 0
		}
		for _, e := range edges {
			from, to := int(e.From), int(e.To)
			if from >= nw.activeCount || to >= nw.activeCount {
				continue
			}
			gain := nw.characters[to].CouplingResponseGain
			nw.pressure[to] += nw.voices[from].Node().Mode0().Abs() * e.Weight * gain
		}
		for i := 0; i < nw.activeCount; i++ {
			if nw.pressure[i] == 0 || !nw.voices[i].Active() {
				continue
			}
			var inputs [MaxModes]float32
			inputs[0] = nw.pressure[i]
			nw.voices[i].ApplyCoupling(inputs)
		}

	case CouplingComplexDiffusion:
		for i := 0; i < nw.activeCount; i++ {
			nw.diffusion[i] = Complex{}
		}
		for _, e := range edges {
			from, to := int(e.From), int(e.To)
			if from >= nw.activeCount || to >= nw.activeCount {
				continue
			}
			d := nw.voices[from].Node().Mode0().Sub(nw.voices[to].Node().Mode0())
			nw.diffusion[to] = nw.diffusion[to].Add(d.Scale(e.Weight))
		}
		for i := 0; i < nw.activeCount; i++ {
			if !nw.voices[i].Active() {
				continue
			}
			nw.voices[i].ApplyCouplingMode0(nw.diffusion[i])
		}
	}
}
