package modal

import (
	"math"
	"testing"
)

// toneNode builds a node whose only energetic mode sits at freqHz with a
// frozen amplitude; without Step calls the level holds steady, which makes
// the rendered carrier easy to analyze.
func toneNode(freqHz float32, amp float32) *Node {
	n := NewNode(0, PersonalityResonator)
	n.SetMode(0, freqToOmega(freqHz), 0.5, 1.0)
	n.modes[0].A = Complex{amp, 0}
	return n
}

func TestSynthRendersCarrierAtModeFrequency(t *testing.T) {
	const sampleRate = 48000.0
	node := toneNode(440, 0.6)
	s := NewSynth(sampleRate)

	out := make([]float32, 8192)
	s.RenderAdd(node, out, len(out))

	// Skip the smoother attack before analyzing.
	peak := findPeakNear(out[1024:], sampleRate, 440, 60)
	if math.Abs(peak-440) > 10 {
		t.Fatalf("carrier peak at %.1f Hz, want ~440", peak)
	}
	if rms := windowRMS(out[1024:]); rms < 0.05 {
		t.Fatalf("carrier RMS %.4f, too quiet", rms)
	}
}

func TestSynthClipsAtHeadroom(t *testing.T) {
	node := toneNode(440, 100.0) // far past full scale
	s := NewSynth(48000)

	out := make([]float32, 4096)
	s.RenderAdd(node, out, len(out))

	for i, v := range out {
		if v > headroomScale+1e-4 || v < -(headroomScale+1e-4) {
			t.Fatalf("sample %d = %g exceeds headroom %g", i, v, float32(headroomScale))
		}
	}
}

func TestSynthMuteSilencesWithoutTouchingState(t *testing.T) {
	node := toneNode(440, 0.6)
	s := NewSynth(48000)
	s.SetMute(true)

	out := make([]float32, 512)
	s.RenderAdd(node, out, len(out))
	for i, v := range out {
		if v != 0 {
			t.Fatalf("muted synth wrote sample at %d", i)
		}
	}
	if s.phaseAcc[0] != 0 {
		t.Fatal("muted render advanced phase")
	}

	s.SetMute(false)
	s.RenderAdd(node, out, len(out))
	if windowRMS(out) == 0 {
		t.Fatal("unmuted synth stayed silent")
	}
}

func TestSynthRenderAddAccumulates(t *testing.T) {
	node := toneNode(440, 0.5)

	clean := make([]float32, 1024)
	NewSynth(48000).RenderAdd(node, clean, len(clean))

	mixed := make([]float32, 1024)
	for i := range mixed {
		mixed[i] = 0.25
	}
	NewSynth(48000).RenderAdd(node, mixed, len(mixed))

	for i := range mixed {
		if diff := mixed[i] - 0.25 - clean[i]; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("sample %d not accumulated: %g vs %g", i, mixed[i]-0.25, clean[i])
		}
	}
}

func TestSynthStereoRenderClampsAndDuplicates(t *testing.T) {
	node := toneNode(440, 100.0)
	node.SetAudioGain(1.0)
	s := NewSynth(48000)
	s.SetGain(1.0)

	outL := make([]float32, 1024)
	outR := make([]float32, 1024)
	s.Render(node, outL, outR, len(outL))

	for i := range outL {
		if outL[i] != outR[i] {
			t.Fatalf("channels diverge at %d: %g vs %g", i, outL[i], outR[i])
		}
		if outL[i] > 1.0 || outL[i] < -1.0 {
			t.Fatalf("unclamped sample %g at %d", outL[i], i)
		}
	}
}

func TestSynthResetPhaseClearsSmoothers(t *testing.T) {
	node := toneNode(440, 0.6)
	s := NewSynth(48000)

	out := make([]float32, 1024)
	s.RenderAdd(node, out, len(out))
	if s.phaseAcc[0] == 0 || s.smooth[0] == 0 {
		t.Fatal("render left no state to reset")
	}

	s.ResetPhase()
	for k := 0; k < MaxModes; k++ {
		if s.phaseAcc[k] != 0 || s.smooth[k] != 0 {
			t.Fatalf("mode %d state survived reset", k)
		}
	}
}

func TestSynthModeGainScalesOutput(t *testing.T) {
	loud := make([]float32, 2048)
	soft := make([]float32, 2048)

	NewSynth(48000).RenderAdd(toneNode(440, 0.4), loud, len(loud))

	s := NewSynth(48000)
	s.SetModeGain(0, 0.25)
	s.RenderAdd(toneNode(440, 0.4), soft, len(soft))

	lr, sr := windowRMS(loud[512:]), windowRMS(soft[512:])
	if sr >= lr {
		t.Fatalf("mode gain did not attenuate: %.4f vs %.4f", sr, lr)
	}
	if ratio := sr / lr; math.Abs(ratio-0.25) > 0.05 {
		t.Fatalf("attenuation ratio %.3f, want ~0.25", ratio)
	}
}
