package modal

import (
	"math"

	pdefd "github.com/cwbudde/algo-pde/fd"
	pdepoisson "github.com/cwbudde/algo-pde/poisson"
)

// Character bundles a complete node identity: relative mode tuning,
// excitation response, and coupling behavior. Frequencies are multipliers
// of the node's fundamental so a character sounds consistent across notes.
type Character struct {
	FreqMult [MaxModes]float32
	Damping  [MaxModes]float32
	Weight   [MaxModes]float32
	Shape    [MaxModes]WaveShape

	Personality Personality

	PokeStrength   float32
	PokeDurationMS float32

	// CouplingResponseGain scales how strongly the node reacts to
	// neighbor pressure under magnitude coupling.
	CouplingResponseGain float32

	Name        string
	Description string
}

// Validate reports whether every field lies in its legal range. Invalid
// characters are never applied to a node.
func (c *Character) Validate() bool {
	if c == nil {
		return false
	}
	for i := 0; i < MaxModes; i++ {
		if c.FreqMult[i] < 0.1 || c.FreqMult[i] > 20.0 {
			return false
		}
		if c.Damping[i] < 0.01 || c.Damping[i] > 10.0 {
			return false
		}
		if c.Weight[i] < 0.0 || c.Weight[i] > 1.0 {
			return false
		}
	}
	if c.PokeStrength < 0.0 || c.PokeStrength > 1.0 {
		return false
	}
	if c.PokeDurationMS < 1.0 || c.PokeDurationMS > 50.0 {
		return false
	}
	if c.CouplingResponseGain < 0.1 || c.CouplingResponseGain > 2.0 {
		return false
	}
	return true
}

// NumBuiltinCharacters is the size of the builtin catalog.
const NumBuiltinCharacters = 15

// Builtin catalog ids.
const (
	CharVibrantBass = iota
	CharDarkNode
	CharBrightBell
	CharGlassyShimmer
	CharDroneHub
	CharMetallicStrike
	CharWarmPad
	CharPercussiveHit
	CharResonantBell
	CharDeepRumble
	CharHarmonicStack
	CharDetunedChorus
	CharMalletTone
	CharWindChime
	CharGongWash
)

var characterLibrary = [NumBuiltinCharacters]Character{
	{
		FreqMult:             [MaxModes]float32{1.0, 2.0, 3.0, 5.0},
		Damping:              [MaxModes]float32{0.3, 0.5, 0.8, 1.2},
		Weight:               [MaxModes]float32{1.0, 0.8, 0.6, 0.4},
		Personality:          PersonalityResonator,
		PokeStrength:         0.7,
		PokeDurationMS:       15.0,
		CouplingResponseGain: 0.8,
		Name:                 "Vibrant Bass",
		Description:          "Strong harmonic bass with sustained low end",
	},
	{
		FreqMult:             [MaxModes]float32{1.0, 1.5, 2.2, 3.1},
		Damping:              [MaxModes]float32{0.8, 1.2, 1.8, 2.5},
		Weight:               [MaxModes]float32{0.8, 0.4, 0.2, 0.1},
		Personality:          PersonalityResonator,
		PokeStrength:         0.4,
		PokeDurationMS:       8.0,
		CouplingResponseGain: 0.5,
		Name:                 "Dark Node",
		Description:          "Muted, absorptive character with low brightness",
	},
	{
		FreqMult:             [MaxModes]float32{1.0, 2.76, 5.40, 8.93},
		Damping:              [MaxModes]float32{0.4, 0.6, 0.5, 0.7},
		Weight:               [MaxModes]float32{0.7, 0.9, 1.0, 0.8},
		Personality:          PersonalityResonator,
		PokeStrength:         0.6,
		PokeDurationMS:       5.0,
		CouplingResponseGain: 1.0,
		Name:                 "Bright Bell",
		Description:          "Inharmonic bell-like tones with ringing highs",
	},
	{
		FreqMult:             [MaxModes]float32{1.0, 2.01, 4.03, 11.2},
		Damping:              [MaxModes]float32{0.5, 0.6, 0.7, 0.4},
		Weight:               [MaxModes]float32{0.6, 0.7, 0.6, 0.9},
		Personality:          PersonalityResonator,
		PokeStrength:         0.5,
		PokeDurationMS:       12.0,
		CouplingResponseGain: 0.9,
		Name:                 "Glassy Shimmer",
		Description:          "Airy, shimmering high partials with instability",
	},
	{
		FreqMult:             [MaxModes]float32{1.0, 1.002, 1.498, 2.0},
		Damping:              [MaxModes]float32{0.1, 0.15, 0.2, 0.3},
		Weight:               [MaxModes]float32{1.0, 0.9, 0.7, 0.5},
		Personality:          PersonalitySelfOscillator,
		PokeStrength:         0.3,
		PokeDurationMS:       20.0,
		CouplingResponseGain: 1.2,
		Name:                 "Drone Hub",
		Description:          "Self-sustaining drone with beating chorus effect",
	},
	{
		FreqMult:             [MaxModes]float32{1.0, 3.14, 5.87, 8.23},
		Damping:              [MaxModes]float32{2.0, 2.5, 3.0, 3.5},
		Weight:               [MaxModes]float32{0.6, 0.8, 1.0, 0.7},
		Personality:          PersonalityResonator,
		PokeStrength:         0.9,
		PokeDurationMS:       5.0,
		CouplingResponseGain: 1.0,
		Name:                 "Metallic Strike",
		Description:          "Bright inharmonic strike with fast decay",
	},
	{
		FreqMult:             [MaxModes]float32{1.0, 2.0, 3.0, 4.0},
		Damping:              [MaxModes]float32{0.2, 0.25, 0.3, 0.4},
		Weight:               [MaxModes]float32{1.0, 0.85, 0.7, 0.5},
		Personality:          PersonalityResonator,
		PokeStrength:         0.3,
		PokeDurationMS:       30.0,
		CouplingResponseGain: 0.7,
		Name:                 "Warm Pad",
		Description:          "Smooth sustained pad with perfect harmonics",
	},
	{
		FreqMult:             [MaxModes]float32{1.0, 2.5, 4.2, 6.7},
		Damping:              [MaxModes]float32{3.0, 3.5, 4.0, 4.5},
		Weight:               [MaxModes]float32{1.0, 0.6, 0.4, 0.2},
		Personality:          PersonalityResonator,
		PokeStrength:         1.0,
		PokeDurationMS:       3.0,
		CouplingResponseGain: 0.8,
		Name:                 "Percussive Hit",
		Description:          "Fast decay percussive strike",
	},
	{
		FreqMult:             [MaxModes]float32{1.0, 2.0, 3.0, 4.0},
		Damping:              [MaxModes]float32{0.6, 0.7, 0.8, 1.0},
		Weight:               [MaxModes]float32{1.0, 0.9, 0.8, 0.7},
		Personality:          PersonalityResonator,
		PokeStrength:         0.75,
		PokeDurationMS:       12.0,
		CouplingResponseGain: 1.0,
		Name:                 "Resonant Bell",
		Description:          "Harmonic bell with balanced sustain",
	},
	{
		FreqMult:             [MaxModes]float32{0.5, 1.0, 1.5, 2.0},
		Damping:              [MaxModes]float32{0.5, 0.6, 0.8, 1.0},
		Weight:               [MaxModes]float32{1.0, 0.9, 0.6, 0.4},
		Personality:          PersonalityResonator,
		PokeStrength:         0.6,
		PokeDurationMS:       20.0,
		CouplingResponseGain: 0.9,
		Name:                 "Deep Rumble",
		Description:          "Sub-bass focus with low partials",
	},
	{
		FreqMult:             [MaxModes]float32{1.0, 2.0, 3.0, 4.0},
		Damping:              [MaxModes]float32{1.0, 1.0, 1.0, 1.0},
		Weight:               [MaxModes]float32{1.0, 0.8, 0.6, 0.4},
		Personality:          PersonalityResonator,
		PokeStrength:         0.65,
		PokeDurationMS:       15.0,
		CouplingResponseGain: 1.0,
		Name:                 "Harmonic Stack",
		Description:          "Perfect harmonic series with uniform damping",
	},
	{
		FreqMult:             [MaxModes]float32{1.0, 1.99, 2.98, 4.03},
		Damping:              [MaxModes]float32{0.7, 0.7, 0.8, 0.9},
		Weight:               [MaxModes]float32{1.0, 0.85, 0.7, 0.5},
		Personality:          PersonalityResonator,
		PokeStrength:         0.5,
		PokeDurationMS:       18.0,
		CouplingResponseGain: 0.85,
		Name:                 "Detuned Chorus",
		Description:          "Slightly detuned for thick chorused sound",
	},
	{
		FreqMult:             [MaxModes]float32{1.0, 2.76, 4.18, 5.94},
		Damping:              [MaxModes]float32{1.5, 1.8, 2.2, 2.5},
		Weight:               [MaxModes]float32{1.0, 0.7, 0.5, 0.3},
		Personality:          PersonalityResonator,
		PokeStrength:         0.85,
		PokeDurationMS:       8.0,
		CouplingResponseGain: 0.9,
		Name:                 "Mallet Tone",
		Description:          "Wood mallet-like inharmonic character",
	},
	{
		FreqMult:             [MaxModes]float32{3.0, 4.5, 6.2, 8.7},
		Damping:              [MaxModes]float32{0.9, 1.0, 1.1, 1.3},
		Weight:               [MaxModes]float32{0.7, 0.8, 1.0, 0.8},
		Personality:          PersonalityResonator,
		PokeStrength:         0.4,
		PokeDurationMS:       14.0,
		CouplingResponseGain: 0.7,
		Name:                 "Wind Chime",
		Description:          "High delicate partials, light and airy",
	},
	{
		FreqMult:             [MaxModes]float32{1.0, 2.37, 3.86, 5.19},
		Damping:              [MaxModes]float32{0.4, 0.5, 0.6, 0.7},
		Weight:               [MaxModes]float32{0.8, 1.0, 0.9, 0.7},
		Personality:          PersonalityResonator,
		PokeStrength:         0.7,
		PokeDurationMS:       35.0,
		CouplingResponseGain: 1.1,
		Name:                 "Gong Wash",
		Description:          "Complex inharmonic wash with long sustain",
	},
}

// GetCharacter returns a copy of the builtin character with the given id,
// or nil when the id is out of range.
func GetCharacter(id int) *Character {
	if id < 0 || id >= NumBuiltinCharacters {
		return nil
	}
	c := characterLibrary[id]
	return &c
}

// CharacterName returns the builtin character name, or "Unknown".
func CharacterName(id int) string {
	c := GetCharacter(id)
	if c == nil {
		return "Unknown"
	}
	return c.Name
}

// StringCharacter derives a character from the eigenspectrum of the 1D
// Laplacian with Dirichlet boundaries: an ideal fixed-fixed string whose
// partials the finite-difference grid slightly compresses, like real
// string stiffness in reverse. Grid resolution controls how far the upper
// multipliers fall below the exact harmonic series.
func StringCharacter(gridPoints int) Character {
	if gridPoints < 8 {
		gridPoints = 8
	}
	h := 1.0 / float64(gridPoints)
	eigs := pdefd.Eigenvalues(gridPoints, h, pdepoisson.Dirichlet)

	c := Character{
		Personality:          PersonalityResonator,
		PokeStrength:         0.7,
		PokeDurationMS:       10.0,
		CouplingResponseGain: 1.0,
		Name:                 "FD String",
		Description:          "Fixed-fixed string partials from the discrete Laplacian",
	}
	base := math.Sqrt(eigs[0])
	for k := 0; k < MaxModes; k++ {
		mult := math.Sqrt(eigs[k]) / base
		c.FreqMult[k] = clampFloat32(float32(mult), 0.1, 20.0)
		c.Damping[k] = 0.4 + 0.2*float32(k)
		c.Weight[k] = 1.0 / float32(k+1)
	}
	return c
}
