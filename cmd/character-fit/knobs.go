package main

import (
	"fmt"

	"github.com/carstenbund/ModalEffect/modal"
)

// knobDef describes one optimizable character field and its legal range.
type knobDef struct {
	Name string
	Min  float64
	Max  float64
}

// candidate holds knob values in real units, ordered like knobDefs().
type candidate struct {
	Vals []float64
}

func knobDefs() []knobDef {
	defs := make([]knobDef, 0, 3*modal.MaxModes+3)
	for i := 0; i < modal.MaxModes; i++ {
		defs = append(defs, knobDef{Name: fmt.Sprintf("freq_mult_%d", i), Min: 0.1, Max: 20.0})
	}
	for i := 0; i < modal.MaxModes; i++ {
		defs = append(defs, knobDef{Name: fmt.Sprintf("damping_%d", i), Min: 0.01, Max: 10.0})
	}
	for i := 0; i < modal.MaxModes; i++ {
		defs = append(defs, knobDef{Name: fmt.Sprintf("weight_%d", i), Min: 0.0, Max: 1.0})
	}
	defs = append(defs,
		knobDef{Name: "poke_strength", Min: 0.0, Max: 1.0},
		knobDef{Name: "poke_duration_ms", Min: 1.0, Max: 50.0},
		knobDef{Name: "coupling_gain", Min: 0.1, Max: 2.0},
	)
	return defs
}

// fromNormalized maps mayfly positions in [0,1] onto the knob ranges.
func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i, d := range defs {
		p := pos[i]
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		vals[i] = d.Min + p*(d.Max-d.Min)
	}
	return candidate{Vals: vals}
}

// initialCandidate seeds the search with a builtin character so the first
// evaluations already sound plausible.
func initialCandidate(defs []knobDef, seed *modal.Character) candidate {
	vals := make([]float64, len(defs))
	for i := 0; i < modal.MaxModes; i++ {
		vals[i] = float64(seed.FreqMult[i])
		vals[modal.MaxModes+i] = float64(seed.Damping[i])
		vals[2*modal.MaxModes+i] = float64(seed.Weight[i])
	}
	base := 3 * modal.MaxModes
	vals[base] = float64(seed.PokeStrength)
	vals[base+1] = float64(seed.PokeDurationMS)
	vals[base+2] = float64(seed.CouplingResponseGain)
	for i, d := range defs {
		vals[i] = clamp(vals[i], d.Min, d.Max)
	}
	return candidate{Vals: vals}
}

// characterFromCandidate builds a playable character from knob values.
func characterFromCandidate(c candidate) modal.Character {
	ch := modal.Character{
		Personality: modal.PersonalityResonator,
		Name:        "Fitted",
		Description: "Optimized against a reference recording",
	}
	for i := 0; i < modal.MaxModes; i++ {
		ch.FreqMult[i] = float32(c.Vals[i])
		ch.Damping[i] = float32(c.Vals[modal.MaxModes+i])
		ch.Weight[i] = float32(c.Vals[2*modal.MaxModes+i])
		ch.Shape[i] = modal.ShapeSine
	}
	base := 3 * modal.MaxModes
	ch.PokeStrength = float32(c.Vals[base])
	ch.PokeDurationMS = float32(c.Vals[base+1])
	ch.CouplingResponseGain = float32(c.Vals[base+2])
	return ch
}

func clamp(v float64, lo float64, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
