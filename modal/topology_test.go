package modal

import (
	"fmt"
	"testing"
)

func edgeSet(t *Topology) map[[2]uint8]float32 {
	m := make(map[[2]uint8]float32, len(t.Edges()))
	for _, e := range t.Edges() {
		m[[2]uint8{e.From, e.To}] = e.Weight
	}
	return m
}

func TestTopologyRingShape(t *testing.T) {
	top := NewTopology(1)
	top.Generate(TopologyRing, 0.3, 5)

	if got := len(top.Edges()); got != 10 {
		t.Fatalf("ring over 5 nodes has %d directed edges, want 10", got)
	}
	set := edgeSet(top)
	for i := 0; i < 5; i++ {
		j := uint8((i + 1) % 5)
		if w, ok := set[[2]uint8{uint8(i), j}]; !ok || w != 0.3 {
			t.Fatalf("missing or mis-weighted ring edge %d->%d", i, j)
		}
		if _, ok := set[[2]uint8{j, uint8(i)}]; !ok {
			t.Fatalf("ring edge %d->%d has no reverse", i, j)
		}
	}
}

func TestTopologyRingTwoNodesSinglePair(t *testing.T) {
	top := NewTopology(1)
	top.Generate(TopologyRing, 0.5, 2)
	if got := len(top.Edges()); got != 2 {
		t.Fatalf("two-node ring has %d directed edges, want 2", got)
	}
}

func TestTopologyHubSpokeShape(t *testing.T) {
	top := NewTopology(1)
	top.Generate(TopologyHubSpoke, 0.4, 6)

	if got := len(top.Edges()); got != 10 {
		t.Fatalf("hub-spoke over 6 nodes has %d directed edges, want 10", got)
	}
	for _, e := range top.Edges() {
		if e.From != 0 && e.To != 0 {
			t.Fatalf("hub-spoke edge %d->%d bypasses the hub", e.From, e.To)
		}
	}
}

func TestTopologyCompleteNormalizesWeight(t *testing.T) {
	top := NewTopology(1)
	top.Generate(TopologyComplete, 0.6, 4)

	if got := len(top.Edges()); got != 12 {
		t.Fatalf("complete graph over 4 nodes has %d directed edges, want 12", got)
	}
	want := float32(0.6) / 3.0
	for _, e := range top.Edges() {
		if e.Weight != want {
			t.Fatalf("edge %d->%d weight %g, want %g", e.From, e.To, e.Weight, want)
		}
	}
}

func TestTopologyClusteredShape(t *testing.T) {
	top := NewTopology(1)
	top.Generate(TopologyClustered, 0.5, 6)

	// Two 3-cliques plus one bridge pair.
	if got := len(top.Edges()); got != 14 {
		t.Fatalf("clustered over 6 nodes has %d directed edges, want 14", got)
	}
	set := edgeSet(top)
	if w := set[[2]uint8{2, 3}]; w != 0.25 {
		t.Fatalf("bridge weight %g, want half strength", w)
	}
	if _, ok := set[[2]uint8{0, 4}]; ok {
		t.Fatal("cross-cluster edge outside the bridge")
	}
}

func TestTopologySmallWorldKeepsRingBackbone(t *testing.T) {
	top := NewTopology(42)
	top.Generate(TopologySmallWorld, 0.3, 8)

	set := edgeSet(top)
	for i := 0; i < 8; i++ {
		j := uint8((i + 1) % 8)
		if _, ok := set[[2]uint8{uint8(i), j}]; !ok {
			t.Fatalf("small-world lost ring edge %d->%d", i, j)
		}
	}
	// Shortcuts carry half weight.
	for _, e := range top.Edges() {
		if e.Weight != 0.3 && e.Weight != 0.15 {
			t.Fatalf("unexpected edge weight %g", e.Weight)
		}
	}
}

func TestTopologyRandomIsSeedDeterministic(t *testing.T) {
	a := NewTopology(7)
	b := NewTopology(7)
	a.Generate(TopologyRandom, 0.5, 8)
	b.Generate(TopologyRandom, 0.5, 8)

	ea, eb := a.Edges(), b.Edges()
	if len(ea) != len(eb) {
		t.Fatalf("same seed produced %d vs %d edges", len(ea), len(eb))
	}
	for i := range ea {
		if ea[i] != eb[i] {
			t.Fatalf("same seed diverged at edge %d: %+v vs %+v", i, ea[i], eb[i])
		}
	}
	for _, e := range ea {
		if int(e.From) >= 8 || int(e.To) >= 8 {
			t.Fatalf("edge endpoint out of range: %+v", e)
		}
	}
}

func TestTopologyDegenerateCasesAreEmpty(t *testing.T) {
	cases := []struct {
		name     string
		typ      TopologyType
		strength float32
		count    int
	}{
		{"none", TopologyNone, 0.5, 5},
		{"single node", TopologyRing, 0.5, 1},
		{"zero strength", TopologyRing, 0.0, 5},
		{"invalid type", TopologyType(200), 0.5, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			top := NewTopology(1)
			top.Generate(tc.typ, tc.strength, tc.count)
			if len(top.Edges()) != 0 {
				t.Fatalf("expected empty graph, got %d edges", len(top.Edges()))
			}
		})
	}
}

func TestTopologyApplyNeighborsClearsRemovedNodes(t *testing.T) {
	nodes := make([]*Node, 6)
	for i := range nodes {
		nodes[i] = NewNode(uint8(i), PersonalityResonator)
	}

	top := NewTopology(1)
	top.Generate(TopologyComplete, 0.5, 6)
	top.ApplyNeighbors(nodes)
	for i, n := range nodes {
		if got := len(n.Neighbors()); got != 5 {
			t.Fatalf("node %d has %d neighbors, want 5", i, got)
		}
	}

	top.Generate(TopologyRing, 0.5, 3)
	top.ApplyNeighbors(nodes)
	for i := 3; i < 6; i++ {
		if len(nodes[i].Neighbors()) != 0 {
			t.Fatalf("removed node %d kept neighbors", i)
		}
	}
	for i := 0; i < 3; i++ {
		if got := len(nodes[i].Neighbors()); got != 2 {
			t.Fatalf("ring node %d has %d neighbors, want 2", i, got)
		}
	}
}

func TestTopologyTypeNames(t *testing.T) {
	for typ := TopologyRing; typ < numTopologyTypes; typ++ {
		if typ.String() == "unknown" {
			t.Fatalf("type %d has no name", typ)
		}
	}
	if got := fmt.Sprint(TopologyType(99)); got != "unknown" {
		t.Fatalf("invalid type name %q", got)
	}
}
