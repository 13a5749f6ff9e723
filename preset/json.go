// Package preset persists the steady engine state as JSON and applies it
// back through the parameter path.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/carstenbund/ModalEffect/modal"
)

// File is the JSON schema for presets. Pointer fields distinguish "absent"
// from zero so a preset can override any subset of the engine state.
type File struct {
	BodySize   *float32 `json:"body_size"`
	Material   *float32 `json:"material"`
	Excite     *float32 `json:"excite"`
	Morph      *float32 `json:"morph"`
	Mix        *float32 `json:"mix"`
	MasterGain *float32 `json:"master_gain"`

	Topology         string   `json:"topology"`
	CouplingMode     string   `json:"coupling_mode"`
	CouplingStrength *float32 `json:"coupling_strength"`
	NoteRouting      string   `json:"note_routing"`
	MultiExcite      string   `json:"multi_excite"`
	NodeCount        *int     `json:"node_count"`

	PokeStrength   *float32 `json:"poke_strength"`
	PokeDurationMS *float32 `json:"poke_duration_ms"`

	NodeCharacters map[string]int         `json:"node_characters"`
	Modes          map[string]ModeSetting `json:"modes"`
}

// ModeSetting is a partial per-mode override for the polyphonic voice
// layout.
type ModeSetting struct {
	Frequency *float32 `json:"frequency"`
	Damping   *float32 `json:"damping"`
	Weight    *float32 `json:"weight"`
}

var topologyNames = map[string]modal.TopologyType{
	"ring":        modal.TopologyRing,
	"small-world": modal.TopologySmallWorld,
	"clustered":   modal.TopologyClustered,
	"hub-spoke":   modal.TopologyHubSpoke,
	"random":      modal.TopologyRandom,
	"complete":    modal.TopologyComplete,
	"none":        modal.TopologyNone,
}

var couplingModeNames = map[string]modal.CouplingMode{
	"pressure":  modal.CouplingMagnitudePressure,
	"diffusion": modal.CouplingComplexDiffusion,
}

var routingNames = map[string]modal.NoteRouting{
	"by-channel": modal.RouteByChannel,
	"all-nodes":  modal.RouteAllNodes,
	"polyphonic": modal.RoutePolyphonic,
}

var multiExciteNames = map[string]modal.MultiExciteMode{
	"retrigger":  modal.ExciteReTrigger,
	"accumulate": modal.ExciteAccumulate,
}

// LoadJSON reads a preset file and applies it onto the engine.
func LoadJSON(path string, engine *modal.Engine) error {
	f, err := ReadFile(path)
	if err != nil {
		return err
	}
	return Apply(engine, f)
}

// ReadFile parses a preset file without applying it.
func ReadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Apply pushes every field present in the file through the engine's
// parameter path, so clamping and structural side effects behave exactly
// as they do for a live host.
func Apply(engine *modal.Engine, f *File) error {
	if engine == nil {
		return fmt.Errorf("nil destination engine")
	}
	if f == nil {
		return nil
	}

	setUnit := func(id uint32, name string, v *float32) error {
		if v == nil {
			return nil
		}
		if *v < 0 || *v > 1 {
			return fmt.Errorf("%s must be in [0,1]", name)
		}
		engine.SetParameter(id, *v)
		return nil
	}
	if err := setUnit(modal.ParamBodySize, "body_size", f.BodySize); err != nil {
		return err
	}
	if err := setUnit(modal.ParamMaterial, "material", f.Material); err != nil {
		return err
	}
	if err := setUnit(modal.ParamExcite, "excite", f.Excite); err != nil {
		return err
	}
	if err := setUnit(modal.ParamMorph, "morph", f.Morph); err != nil {
		return err
	}
	if err := setUnit(modal.ParamMix, "mix", f.Mix); err != nil {
		return err
	}
	if err := setUnit(modal.ParamMasterGain, "master_gain", f.MasterGain); err != nil {
		return err
	}
	if err := setUnit(modal.ParamCouplingStrength, "coupling_strength", f.CouplingStrength); err != nil {
		return err
	}
	if err := setUnit(modal.ParamPokeStrength, "poke_strength", f.PokeStrength); err != nil {
		return err
	}

	if f.Topology != "" {
		typ, ok := topologyNames[strings.ToLower(strings.TrimSpace(f.Topology))]
		if !ok {
			return fmt.Errorf("unknown topology %q", f.Topology)
		}
		engine.SetParameter(modal.ParamTopologyType, float32(typ))
	}
	if f.CouplingMode != "" {
		mode, ok := couplingModeNames[strings.ToLower(strings.TrimSpace(f.CouplingMode))]
		if !ok {
			return fmt.Errorf("unknown coupling_mode %q", f.CouplingMode)
		}
		engine.SetParameter(modal.ParamCouplingMode, float32(mode))
	}
	if f.NoteRouting != "" {
		routing, ok := routingNames[strings.ToLower(strings.TrimSpace(f.NoteRouting))]
		if !ok {
			return fmt.Errorf("unknown note_routing %q", f.NoteRouting)
		}
		engine.SetParameter(modal.ParamNoteRouting, float32(routing))
	}
	if f.MultiExcite != "" {
		mode, ok := multiExciteNames[strings.ToLower(strings.TrimSpace(f.MultiExcite))]
		if !ok {
			return fmt.Errorf("unknown multi_excite %q", f.MultiExcite)
		}
		engine.SetParameter(modal.ParamMultiExcite, float32(mode))
	}
	if f.NodeCount != nil {
		if *f.NodeCount < 1 || *f.NodeCount > modal.MaxNetworkNodes {
			return fmt.Errorf("node_count must be in [1,%d]", modal.MaxNetworkNodes)
		}
		engine.SetParameter(modal.ParamNodeCount, float32(*f.NodeCount))
	}
	if f.PokeDurationMS != nil {
		if *f.PokeDurationMS < 1 || *f.PokeDurationMS > 50 {
			return fmt.Errorf("poke_duration_ms must be in [1,50]")
		}
		engine.SetParameter(modal.ParamPokeDuration, *f.PokeDurationMS)
	}

	if err := applyNodeCharacters(engine, f.NodeCharacters); err != nil {
		return err
	}
	return applyModes(engine, f.Modes)
}

func applyNodeCharacters(engine *modal.Engine, chars map[string]int) error {
	if len(chars) == 0 {
		return nil
	}
	keys := make([]string, 0, len(chars))
	for k := range chars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		node, err := strconv.Atoi(k)
		if err != nil || node < 0 || node > 4 {
			return fmt.Errorf("invalid node_characters key %q (expected 0..4)", k)
		}
		id := chars[k]
		if id < 0 || id >= modal.NumBuiltinCharacters {
			return fmt.Errorf("node_characters[%d] = %d out of catalog range", node, id)
		}
		engine.SetParameter(modal.ParamNodeCharacter0+uint32(node), float32(id))
	}
	return nil
}

func applyModes(engine *modal.Engine, modes map[string]ModeSetting) error {
	if len(modes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(modes))
	for k := range modes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx >= modal.MaxModes {
			return fmt.Errorf("invalid modes key %q (expected 0..%d)", k, modal.MaxModes-1)
		}
		base := modal.ParamMode0Frequency + uint32(idx*3)
		ms := modes[k]
		if ms.Frequency != nil {
			if *ms.Frequency < 0.1 || *ms.Frequency > 20 {
				return fmt.Errorf("modes[%d].frequency must be in [0.1,20]", idx)
			}
			engine.SetParameter(base, *ms.Frequency)
		}
		if ms.Damping != nil {
			if *ms.Damping < 0.01 || *ms.Damping > 10 {
				return fmt.Errorf("modes[%d].damping must be in [0.01,10]", idx)
			}
			engine.SetParameter(base+1, *ms.Damping)
		}
		if ms.Weight != nil {
			if *ms.Weight < 0 || *ms.Weight > 1 {
				return fmt.Errorf("modes[%d].weight must be in [0,1]", idx)
			}
			engine.SetParameter(base+2, *ms.Weight)
		}
	}
	return nil
}

// Capture snapshots the engine's steady parameter state into a File.
func Capture(engine *modal.Engine) *File {
	if engine == nil {
		return nil
	}
	fp := func(id uint32) *float32 {
		v := engine.Parameter(id)
		return &v
	}
	nodeCount := int(engine.Parameter(modal.ParamNodeCount))

	f := &File{
		BodySize:         fp(modal.ParamBodySize),
		Material:         fp(modal.ParamMaterial),
		Excite:           fp(modal.ParamExcite),
		Morph:            fp(modal.ParamMorph),
		Mix:              fp(modal.ParamMix),
		MasterGain:       fp(modal.ParamMasterGain),
		Topology:         modal.TopologyType(engine.Parameter(modal.ParamTopologyType)).String(),
		CouplingMode:     couplingModeName(modal.CouplingMode(engine.Parameter(modal.ParamCouplingMode))),
		CouplingStrength: fp(modal.ParamCouplingStrength),
		NoteRouting:      routingName(modal.NoteRouting(engine.Parameter(modal.ParamNoteRouting))),
		MultiExcite:      multiExciteName(modal.MultiExciteMode(engine.Parameter(modal.ParamMultiExcite))),
		NodeCount:        &nodeCount,
		PokeStrength:     fp(modal.ParamPokeStrength),
		PokeDurationMS:   fp(modal.ParamPokeDuration),
		NodeCharacters:   make(map[string]int, 5),
		Modes:            make(map[string]ModeSetting, modal.MaxModes),
	}
	for node := 0; node < 5; node++ {
		id := int(engine.Parameter(modal.ParamNodeCharacter0 + uint32(node)))
		f.NodeCharacters[strconv.Itoa(node)] = id
	}
	for idx := 0; idx < modal.MaxModes; idx++ {
		base := modal.ParamMode0Frequency + uint32(idx*3)
		f.Modes[strconv.Itoa(idx)] = ModeSetting{
			Frequency: fp(base),
			Damping:   fp(base + 1),
			Weight:    fp(base + 2),
		}
	}
	return f
}

// SaveJSON writes the engine's steady state as an indented preset file.
func SaveJSON(path string, engine *modal.Engine) error {
	f := Capture(engine)
	if f == nil {
		return fmt.Errorf("nil source engine")
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func couplingModeName(m modal.CouplingMode) string {
	for name, v := range couplingModeNames {
		if v == m {
			return name
		}
	}
	return "diffusion"
}

func routingName(r modal.NoteRouting) string {
	for name, v := range routingNames {
		if v == r {
			return name
		}
	}
	return "by-channel"
}

func multiExciteName(m modal.MultiExciteMode) string {
	for name, v := range multiExciteNames {
		if v == m {
			return name
		}
	}
	return "accumulate"
}
