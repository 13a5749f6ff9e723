package modal

import (
	"fmt"
	"math"
	"testing"
)

func TestStepKeepsAmplitudeBoundedAcrossFrequencyRange(t *testing.T) {
	freqs := []float32{20, 100, 1000, 10000, 20000}
	gammas := []float32{0.01, 0.5, 2.0, 10.0}

	for _, freq := range freqs {
		for _, gamma := range gammas {
			t.Run(fmt.Sprintf("f%.0f_g%.2f", freq, gamma), func(t *testing.T) {
				n := NewNode(0, PersonalityResonator)
				n.SetMode(0, freqToOmega(freq), gamma, 1.0)
				n.modes[0].A = Complex{1.0, 0.5}
				n.Start()

				prev := n.modes[0].A.Abs()
				for step := 0; step < 2000; step++ {
					n.Step()
					cur := n.modes[0].A.Abs()
					if !isFinite(cur) {
						t.Fatalf("non-finite amplitude at step %d", step)
					}
					// Without excitation the envelope can only decay;
					// allow tiny numerical slack.
					if cur > prev*1.0001 {
						t.Fatalf("amplitude rose at step %d: %.9f -> %.9f", step, prev, cur)
					}
					prev = cur
				}
			})
		}
	}
}

func TestStepDecayTracksClosedForm(t *testing.T) {
	const gamma = 2.0

	n := NewNode(0, PersonalityResonator)
	n.SetMode(0, freqToOmega(440), gamma, 1.0)
	n.modes[0].A = Complex{1.0, 0.0}
	n.Start()

	n.Step()
	got := float64(n.modes[0].A.Abs())
	want := math.Exp(-gamma * float64(ControlDT))
	if math.Abs(got-want)/want > 0.005 {
		t.Fatalf("single-step decay mismatch: got %.6f want %.6f", got, want)
	}

	for i := 0; i < 2000; i++ {
		n.Step()
	}
	if final := float64(n.modes[0].A.Abs()); final > got/2 {
		t.Fatalf("long-run decay too shallow: %.6f after 2000 steps", final)
	}
}

func TestResetClearsAllModalState(t *testing.T) {
	n := NewNode(1, PersonalityResonator)
	n.Start()
	n.ApplyPoke(Poke{Strength: 0.9, PhaseHint: 0.5, Weights: [MaxModes]float32{1, 1, 1, 1}})
	for i := 0; i < 20; i++ {
		n.Step()
	}
	if n.Amplitude() == 0 {
		t.Fatal("expected energy before reset")
	}

	n.Reset()
	if n.Amplitude() != 0 {
		t.Fatalf("amplitude after reset: %g", n.Amplitude())
	}
	for k := 0; k < MaxModes; k++ {
		m := n.ModeState(k)
		if m.A != (Complex{}) || m.ADot != (Complex{}) {
			t.Fatalf("mode %d retained state after reset", k)
		}
	}
	if n.poke.active {
		t.Fatal("excitation survived reset")
	}
	if n.StepCount() != 0 {
		t.Fatal("step counter survived reset")
	}
}

func TestPokeEnvelopeInjectsEnergyOverDuration(t *testing.T) {
	n := NewNode(2, PersonalityResonator)
	n.Start()
	n.ApplyPokeFor(Poke{Strength: 0.8, PhaseHint: 0, Weights: [MaxModes]float32{1, 1, 1, 1}}, 10.0)

	// One control step is 2ms; after five steps the 10ms envelope has
	// finished and all its energy is in the modes.
	var rising bool
	prev := float32(0)
	for i := 0; i < 5; i++ {
		n.Step()
		if amp := n.Amplitude(); amp > prev {
			rising = true
			prev = amp
		}
	}
	if !rising || prev == 0 {
		t.Fatalf("poke envelope never injected energy, amplitude %g", prev)
	}
	if n.poke.active {
		t.Fatal("envelope still active after its duration elapsed")
	}
}

func TestPokeRandomPhaseIsDeterministicPerNode(t *testing.T) {
	a := NewNode(3, PersonalityResonator)
	b := NewNode(3, PersonalityResonator)
	p1 := a.randomPhase()
	p2 := b.randomPhase()
	if p1 != p2 {
		t.Fatalf("same node id produced different phase sequences: %g vs %g", p1, p2)
	}
	c := NewNode(4, PersonalityResonator)
	if c.randomPhase() == p1 {
		t.Fatal("different node ids produced identical first phase")
	}
}

func TestSetModeRejectsInvalidParameters(t *testing.T) {
	n := NewNode(0, PersonalityResonator)
	before := n.ModeState(0)

	n.SetMode(0, -1.0, 0.5, 1.0)
	n.SetMode(0, freqToOmega(440), 0, 1.0)
	n.SetMode(-1, freqToOmega(440), 0.5, 1.0)
	n.SetMode(MaxModes, freqToOmega(440), 0.5, 1.0)

	if n.ModeState(0) != before {
		t.Fatal("invalid SetMode mutated mode state")
	}
}

func TestSetNeighborsCapsAtMaxNeighbors(t *testing.T) {
	n := NewNode(0, PersonalityResonator)
	ids := make([]uint8, MaxNeighbors+4)
	for i := range ids {
		ids[i] = uint8(i + 1)
	}
	n.SetNeighbors(ids)
	if got := len(n.Neighbors()); got != MaxNeighbors {
		t.Fatalf("neighbor count %d, want %d", got, MaxNeighbors)
	}
}

func TestStoppedNodeDoesNotAdvance(t *testing.T) {
	n := NewNode(0, PersonalityResonator)
	n.modes[0].A = Complex{0.5, 0}
	n.Step()
	if n.StepCount() != 0 {
		t.Fatal("stopped node stepped")
	}
	if n.modes[0].A != (Complex{0.5, 0}) {
		t.Fatal("stopped node mutated amplitude")
	}
}

func TestWaveShapeEval(t *testing.T) {
	const eps = 1e-4

	tests := []struct {
		shape WaveShape
		phase float32
		want  float32
	}{
		{ShapeSine, math.Pi / 2, 1.0},
		{ShapeSine, 0, 0.0},
		{ShapeSawtooth, 0, 1.0},
		{ShapeSawtooth, math.Pi, 0.0},
		{ShapeTriangle, 0, -1.0},
		{ShapeTriangle, math.Pi / 2, 0.0},
		{ShapeTriangle, math.Pi, 1.0},
		{ShapeSquare, math.Pi - 0.1, 1.0},
		{ShapeSquare, math.Pi + 0.1, -1.0},
		{ShapePulse25, math.Pi/2 - 0.1, 1.0},
		{ShapePulse25, math.Pi/2 + 0.1, -1.0},
		{ShapePulse10, 0.1, 1.0},
		{ShapePulse10, math.Pi, -1.0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_p%.2f", tt.shape, tt.phase), func(t *testing.T) {
			got := tt.shape.Eval(tt.phase)
			if math.Abs(float64(got-tt.want)) > eps {
				t.Fatalf("Eval(%g) = %g, want %g", tt.phase, got, tt.want)
			}
		})
	}

	if WaveShape(200).Eval(1.0) != ShapeSine.Eval(1.0) {
		t.Fatal("unknown shape did not fall back to sine")
	}
	if WaveShape(200).Valid() {
		t.Fatal("out-of-range shape reported valid")
	}
}
