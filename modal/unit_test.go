package modal

import (
	"math"
	"testing"
)

func TestUnitBeforeInitIsInert(t *testing.T) {
	u := NewUnit()

	u.BeginEvents()
	u.PushNoteOn(0, 60, 0.8, 0)
	u.PushNoteOff(0, 60)
	u.PushPitchBend(0, 0.5)
	u.PushParameter(0, ParamMix, 0.5)
	u.SetParameter(ParamMix, 0.5)
	u.Reset()
	u.Prepare(48000, 512)

	if u.Engine() != nil {
		t.Fatal("engine exposed before init")
	}
	if u.Parameter(ParamMix) != 0 {
		t.Fatal("parameter readable before init")
	}

	outL := make([]float32, 128)
	outR := make([]float32, 128)
	outL[3] = 0.9
	u.Render(outL, outR, len(outL))
	for i := range outL {
		if outL[i] != 0 || outR[i] != 0 {
			t.Fatalf("pre-init render wrote sample at %d", i)
		}
	}

	in := make([]float32, 128)
	in[0] = 1.0
	outL[3] = 0.9
	u.Process(in, in, outL, outR, len(in))
	for i := range outL {
		if outL[i] != 0 {
			t.Fatalf("pre-init process wrote sample at %d", i)
		}
	}
}

func TestUnitInitRejectsInvalidArguments(t *testing.T) {
	u := NewUnit()
	u.Init(0, 512, 5)
	u.Init(48000, 0, 5)
	if u.Engine() != nil {
		t.Fatal("invalid init succeeded")
	}

	u.Init(48000, 512, 0)
	if u.Engine() == nil {
		t.Fatal("init with default node count failed")
	}
	if got := u.Engine().Network().PoolSize(); got != DefaultNetworkNodes {
		t.Fatalf("pool size %d, want default %d", got, DefaultNetworkNodes)
	}
}

func TestUnitRendersPushedEvents(t *testing.T) {
	u := NewUnit()
	u.Init(48000, 512, 5)

	u.BeginEvents()
	u.PushNoteOn(0, 60, 0.8, 0)
	u.PushNoteOff(400, 60)

	outL := make([]float32, 512)
	outR := make([]float32, 512)
	u.Render(outL, outR, len(outL))

	if !allFinite(outL) || !allFinite(outR) {
		t.Fatal("render produced non-finite samples")
	}
	if windowRMS(outL[96:400]) == 0 {
		t.Fatal("pushed note produced no signal")
	}
}

func TestUnitProcessDryWhenMixZero(t *testing.T) {
	u := NewUnit()
	u.Init(48000, 256, 5)
	u.SetParameter(ParamMix, 0.0)

	inL := make([]float32, 256)
	inR := make([]float32, 256)
	for i := range inL {
		inL[i] = 0.3 * float32(math.Sin(2.0*math.Pi*220.0*float64(i)/48000.0))
		inR[i] = -inL[i]
	}
	outL := make([]float32, 256)
	outR := make([]float32, 256)
	u.Process(inL, inR, outL, outR, len(inL))

	for i := range outL {
		if outL[i] != inL[i] || outR[i] != inR[i] {
			t.Fatalf("dry path altered sample %d: %g vs %g", i, outL[i], inL[i])
		}
	}
}

func TestUnitProcessExcitesNetworkFromInput(t *testing.T) {
	u := NewUnit()
	u.Init(48000, 512, 5)
	u.SetParameter(ParamMix, 1.0)
	u.SetParameter(ParamExcite, 1.0)

	inL := make([]float32, 512)
	inR := make([]float32, 512)
	outL := make([]float32, 512)
	outR := make([]float32, 512)

	// A loud burst after a silent block registers as an onset.
	u.Process(inL, inR, outL, outR, 512)
	for i := range inL {
		inL[i] = 0.8 * float32(math.Sin(2.0*math.Pi*330.0*float64(i)/48000.0))
		inR[i] = inL[i]
	}
	u.Process(inL, inR, outL, outR, 512)
	if u.Engine().Network().ActiveNodeCount() == 0 {
		t.Fatal("input burst did not excite the network")
	}

	// Let the wet path sound for a few blocks.
	var wet float64
	for block := 0; block < 8; block++ {
		u.Process(inL, inR, outL, outR, 512)
		if !allFinite(outL) {
			t.Fatalf("non-finite output in block %d", block)
		}
		wet += windowRMS(outL)
	}
	if wet == 0 {
		t.Fatal("full-wet process produced no signal")
	}
}

func TestUnitProcessAutoReleasesOnSilence(t *testing.T) {
	u := NewUnit()
	u.Init(48000, 512, 5)
	u.SetParameter(ParamExcite, 1.0)

	loud := make([]float32, 512)
	for i := range loud {
		loud[i] = 0.8 * float32(math.Sin(2.0*math.Pi*330.0*float64(i)/48000.0))
	}
	quiet := make([]float32, 512)
	outL := make([]float32, 512)
	outR := make([]float32, 512)

	u.Process(quiet, quiet, outL, outR, 512)
	u.Process(loud, loud, outL, outR, 512)
	if !u.noteIsOn {
		t.Fatal("onset did not trigger a note")
	}

	// Sustained silence decays the smoothed energy below the note-off
	// threshold.
	for block := 0; block < 400 && u.noteIsOn; block++ {
		u.Process(quiet, quiet, outL, outR, 512)
	}
	if u.noteIsOn {
		t.Fatal("note never auto-released on silence")
	}
}

func TestUnitPrepareGrowsBuffers(t *testing.T) {
	u := NewUnit()
	u.Init(48000, 128, 5)
	u.Prepare(48000, 1024)

	u.BeginEvents()
	u.PushNoteOn(0, 60, 0.8, 0)
	outL := make([]float32, 1024)
	outR := make([]float32, 1024)
	u.Render(outL, outR, len(outL))
	if windowRMS(outL) == 0 {
		t.Fatal("render after prepare produced no signal")
	}
}

func TestUnitCleanupReturnsToInert(t *testing.T) {
	u := NewUnit()
	u.Init(48000, 256, 5)
	u.SetParameter(ParamMix, 0.8)
	u.Cleanup()

	if u.Engine() != nil {
		t.Fatal("engine exposed after cleanup")
	}
	outL := make([]float32, 64)
	outR := make([]float32, 64)
	outL[0] = 0.5
	u.Render(outL, outR, len(outL))
	if outL[0] != 0 {
		t.Fatal("render after cleanup wrote output")
	}
}

func TestPitchDetectionZCR(t *testing.T) {
	const sampleRate = 48000.0
	buf := make([]float32, int(sampleRate*pitchWindowSec))
	for i := range buf {
		buf[i] = float32(math.Sin(2.0 * math.Pi * 440.0 * float64(i) / sampleRate))
	}
	got := detectPitchZCR(buf, sampleRate)
	if math.Abs(float64(got)-440.0) > 15.0 {
		t.Fatalf("detected %g Hz, want ~440", got)
	}

	// Silence clamps to the floor.
	for i := range buf {
		buf[i] = 0
	}
	if got := detectPitchZCR(buf, sampleRate); got != pitchMinHz {
		t.Fatalf("silence detected as %g Hz", got)
	}
}

func TestHzToMIDI(t *testing.T) {
	cases := []struct {
		hz   float32
		note int
	}{
		{440.0, 69},
		{261.63, 60},
		{880.0, 81},
	}
	for _, tc := range cases {
		if got := hzToMIDI(tc.hz); got != tc.note {
			t.Fatalf("hzToMIDI(%g) = %d, want %d", tc.hz, got, tc.note)
		}
	}
}
