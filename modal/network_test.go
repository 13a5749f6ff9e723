package modal

import "testing"

func newTestNetwork(size int) *Network {
	nw := NewNetwork(size)
	nw.Initialize(48000)
	return nw
}

func TestNetworkRoutesByChannel(t *testing.T) {
	nw := newTestNetwork(5)

	nw.NoteOn(60, 0.8, 2)
	for i := 0; i < 5; i++ {
		if got, want := nw.IsNodeActive(i), i == 2; got != want {
			t.Fatalf("node %d active=%v after channel-2 note", i, got)
		}
	}

	// Channels wrap modulo the active node count.
	nw.NoteOn(64, 0.8, 7)
	if !nw.IsNodeActive(2) {
		t.Fatal("channel 7 did not wrap onto node 2")
	}

	nw.NoteOn(67, 0.8, -1)
	if !nw.IsNodeActive(4) {
		t.Fatal("negative channel did not wrap onto node 4")
	}
}

func TestNetworkRoutesToAllNodes(t *testing.T) {
	nw := newTestNetwork(5)
	nw.SetRouting(RouteAllNodes)

	nw.NoteOn(60, 0.8, 0)
	if got := nw.ActiveNodeCount(); got != 5 {
		t.Fatalf("active nodes %d, want 5", got)
	}

	// All-nodes routing maps the note to node 0 for the later noteOff.
	nw.NoteOff(60)
	if nw.voices[0].State() != VoiceRelease {
		t.Fatalf("node 0 state %v after noteOff", nw.voices[0].State())
	}
}

func TestNetworkMultiExciteModes(t *testing.T) {
	nw := newTestNetwork(5)

	nw.ExciteNode(0, 60, 0.8)
	for i := 0; i < 20; i++ {
		nw.UpdateNodes()
	}
	before := nw.Voice(0).Amplitude()
	if before == 0 {
		t.Fatal("excited node carries no energy")
	}

	// Accumulate keeps the existing modal energy across the new note.
	nw.SetMultiExcite(ExciteAccumulate)
	nw.ExciteNode(0, 64, 0.8)
	if got := nw.Voice(0).Amplitude(); got < before*0.5 {
		t.Fatalf("accumulate dropped energy: %g -> %g", before, got)
	}

	for i := 0; i < 20; i++ {
		nw.UpdateNodes()
	}
	if nw.Voice(0).Amplitude() == 0 {
		t.Fatal("node lost all energy before retrigger test")
	}

	// Retrigger resets the node before the new poke lands.
	nw.SetMultiExcite(ExciteReTrigger)
	nw.ExciteNode(0, 67, 0.8)
	if got := nw.Voice(0).Amplitude(); got != 0 {
		t.Fatalf("retrigger left residual energy %g", got)
	}
	if !nw.IsNodeActive(0) {
		t.Fatal("retrigger deactivated the node")
	}
}

func TestNetworkSetNodeCountForcesResetBeyondCount(t *testing.T) {
	nw := newTestNetwork(5)
	nw.ExciteNode(4, 60, 0.8)
	nw.ExciteNode(1, 64, 0.8)

	nw.SetNodeCount(3)
	if nw.NodeCount() != 3 {
		t.Fatalf("node count %d, want 3", nw.NodeCount())
	}
	if nw.voices[4].Active() {
		t.Fatal("node beyond the count kept its energy")
	}
	if nw.voices[4].Amplitude() != 0 {
		t.Fatalf("residual amplitude %g on removed node", nw.voices[4].Amplitude())
	}
	// Nodes inside the count are released, not reset.
	if nw.voices[1].State() != VoiceRelease {
		t.Fatalf("node 1 state %v, want release", nw.voices[1].State())
	}

	// The topology never references removed nodes.
	for _, e := range nw.topology.Edges() {
		if int(e.From) >= 3 || int(e.To) >= 3 {
			t.Fatalf("edge %+v references a removed node", e)
		}
	}

	// Channel routing wraps over the reduced count.
	nw.NoteOn(60, 0.8, 4)
	if !nw.IsNodeActive(1) {
		t.Fatal("channel 4 did not wrap onto node 1 with 3 nodes")
	}
}

func TestNetworkCouplingTransfersEnergyAlongRing(t *testing.T) {
	run := func(typ TopologyType) Complex {
		nw := newTestNetwork(5)
		nw.SetTopology(typ)
		nw.ExciteNode(0, 60, 0.9)
		nw.ExciteNode(1, 64, 0.2)
		for i := 0; i < 50; i++ {
			nw.UpdateNodes()
		}
		return nw.Voice(1).Node().Mode0()
	}

	// Node phases are seeded per node id, so two fresh networks evolve
	// identically except for the coupling term.
	coupled := run(TopologyRing)
	isolated := run(TopologyNone)

	if !isFinite(coupled.Abs()) || !isFinite(isolated.Abs()) {
		t.Fatal("non-finite mode amplitude")
	}
	if coupled == isolated {
		t.Fatal("ring coupling had no effect on node 1")
	}
}

func TestNetworkMagnitudePressureCouplingStaysFinite(t *testing.T) {
	nw := newTestNetwork(5)
	nw.SetCouplingMode(CouplingMagnitudePressure)
	if nw.CouplingMode() != CouplingMagnitudePressure {
		t.Fatal("coupling mode not stored")
	}

	nw.SetRouting(RouteAllNodes)
	nw.NoteOn(60, 1.0, 0)
	for i := 0; i < 500; i++ {
		nw.UpdateNodes()
	}
	for i := 0; i < 5; i++ {
		if amp := nw.Voice(i).Amplitude(); !isFinite(amp) {
			t.Fatalf("node %d amplitude non-finite", i)
		}
	}
}

func TestNetworkInvalidCharacterAssignmentIsNoOp(t *testing.T) {
	nw := newTestNetwork(5)
	before := nw.NodeCharacterID(0)

	nw.SetNodeCharacter(0, 99)
	nw.SetNodeCharacter(0, -1)
	nw.SetNodeCharacter(99, 1)
	if nw.NodeCharacterID(0) != before {
		t.Fatal("invalid catalog id changed the node character")
	}

	bad := *GetCharacter(CharBrightBell)
	bad.Damping[0] = -1.0
	nw.SetNodeCharacterCustom(0, &bad)
	if nw.NodeCharacterID(0) != before {
		t.Fatal("invalid custom character changed the node")
	}

	good := *GetCharacter(CharBrightBell)
	good.FreqMult[1] = 2.9
	nw.SetNodeCharacterCustom(0, &good)
	if nw.NodeCharacterID(0) != customCharacterID {
		t.Fatal("valid custom character not marked custom")
	}
}

func TestNetworkWaveShapeAssignment(t *testing.T) {
	nw := newTestNetwork(3)
	nw.SetModeWaveShape(1, 2, ShapeSquare)
	if got := nw.ModeWaveShape(1, 2); got != ShapeSquare {
		t.Fatalf("mode shape %v, want square", got)
	}
	if got := nw.ModeWaveShape(99, 0); got != ShapeSine {
		t.Fatalf("out-of-range shape lookup %v, want sine", got)
	}
}

func TestNetworkUninitializedIsInert(t *testing.T) {
	nw := NewNetwork(5)
	nw.NoteOn(60, 0.8, 0)
	if nw.ActiveNodeCount() != 0 {
		t.Fatal("uninitialized network accepted a note")
	}
	nw.UpdateNodes()
	out := make([]float32, 64)
	nw.RenderAdd(out, len(out))
	for i, s := range out {
		if s != 0 {
			t.Fatalf("uninitialized network wrote sample at %d", i)
		}
	}
}

func TestNetworkNoteOffReleasesMappedNode(t *testing.T) {
	nw := newTestNetwork(5)
	nw.NoteOn(60, 0.8, 1)
	nw.NoteOff(60)
	if nw.voices[1].State() != VoiceRelease {
		t.Fatalf("node 1 state %v, want release", nw.voices[1].State())
	}

	nw.NoteOff(72) // never played
	nw.NoteOff(-1)
	nw.NoteOff(128)

	nw.NoteOn(64, 0.8, 2)
	nw.AllNotesOff()
	if nw.voices[2].State() != VoiceRelease {
		t.Fatal("all-notes-off missed node 2")
	}
}
