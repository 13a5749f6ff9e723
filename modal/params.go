package modal

// Parameter IDs. The first five are the primary effect controls; the rest
// expose the steady engine state so hosts can persist and restore it
// through the normal parameter path.
const (
	ParamBodySize uint32 = iota
	ParamMaterial
	ParamExcite
	ParamMorph
	ParamMix
	ParamMasterGain
	ParamCouplingStrength
	ParamTopologyType
	ParamCouplingMode
	ParamNoteRouting
	ParamMultiExcite
	ParamNodeCount
	ParamPokeStrength
	ParamPokeDuration
	ParamNodeCharacter0
	ParamNodeCharacter1
	ParamNodeCharacter2
	ParamNodeCharacter3
	ParamNodeCharacter4
	ParamMode0Frequency
	ParamMode0Damping
	ParamMode0Weight
	ParamMode1Frequency
	ParamMode1Damping
	ParamMode1Weight
	ParamMode2Frequency
	ParamMode2Damping
	ParamMode2Weight
	ParamMode3Frequency
	ParamMode3Damping
	ParamMode3Weight

	NumParams
)

// ParamInfo describes one parameter's legal range and default.
type ParamInfo struct {
	Name    string
	Min     float32
	Max     float32
	Default float32
}

var paramTable = [NumParams]ParamInfo{
	ParamBodySize:         {"BodySize", 0, 1, 0.5},
	ParamMaterial:         {"Material", 0, 1, 0.5},
	ParamExcite:           {"Excite", 0, 1, 0.5},
	ParamMorph:            {"Morph", 0, 1, 0.0},
	ParamMix:              {"Mix", 0, 1, 0.5},
	ParamMasterGain:       {"MasterGain", 0, 1, 0.7},
	ParamCouplingStrength: {"CouplingStrength", 0, 1, 0.3},
	ParamTopologyType:     {"TopologyType", 0, float32(numTopologyTypes) - 1, float32(TopologyRing)},
	ParamCouplingMode:     {"CouplingMode", 0, 1, float32(CouplingComplexDiffusion)},
	ParamNoteRouting:      {"NoteRouting", 0, 2, float32(RouteByChannel)},
	ParamMultiExcite:      {"MultiExcite", 0, 1, float32(ExciteAccumulate)},
	ParamNodeCount:        {"NodeCount", 1, MaxNetworkNodes, DefaultNetworkNodes},
	ParamPokeStrength:     {"PokeStrength", 0, 1, 0.5},
	ParamPokeDuration:     {"PokeDuration", 1, 50, 10},
	ParamNodeCharacter0:   {"Node0Character", 0, NumBuiltinCharacters - 1, 0},
	ParamNodeCharacter1:   {"Node1Character", 0, NumBuiltinCharacters - 1, 1},
	ParamNodeCharacter2:   {"Node2Character", 0, NumBuiltinCharacters - 1, 2},
	ParamNodeCharacter3:   {"Node3Character", 0, NumBuiltinCharacters - 1, 3},
	ParamNodeCharacter4:   {"Node4Character", 0, NumBuiltinCharacters - 1, 4},
	ParamMode0Frequency:   {"Mode0Frequency", 0.1, 20, 1.0},
	ParamMode0Damping:     {"Mode0Damping", 0.01, 10, 1.0},
	ParamMode0Weight:      {"Mode0Weight", 0, 1, 1.0},
	ParamMode1Frequency:   {"Mode1Frequency", 0.1, 20, 2.0},
	ParamMode1Damping:     {"Mode1Damping", 0.01, 10, 1.2},
	ParamMode1Weight:      {"Mode1Weight", 0, 1, 0.8},
	ParamMode2Frequency:   {"Mode2Frequency", 0.1, 20, 3.0},
	ParamMode2Damping:     {"Mode2Damping", 0.01, 10, 1.5},
	ParamMode2Weight:      {"Mode2Weight", 0, 1, 0.6},
	ParamMode3Frequency:   {"Mode3Frequency", 0.1, 20, 4.5},
	ParamMode3Damping:     {"Mode3Damping", 0.01, 10, 2.0},
	ParamMode3Weight:      {"Mode3Weight", 0, 1, 0.4},
}

// ParamInfoFor returns the descriptor for a parameter id.
func ParamInfoFor(id uint32) (ParamInfo, bool) {
	if id >= NumParams {
		return ParamInfo{}, false
	}
	return paramTable[id], true
}

// clampParam folds a raw value into the parameter's legal range.
func clampParam(id uint32, value float32) float32 {
	info := paramTable[id]
	return clampFloat32(value, info.Min, info.Max)
}
