package modal

import "math/rand"

// TopologyType selects the coupling graph built over the active nodes.
type TopologyType uint8

const (
	TopologyRing TopologyType = iota
	TopologySmallWorld
	TopologyClustered
	TopologyHubSpoke
	TopologyRandom
	TopologyComplete
	TopologyNone

	numTopologyTypes
)

// String returns the topology name.
func (t TopologyType) String() string {
	switch t {
	case TopologyRing:
		return "ring"
	case TopologySmallWorld:
		return "small-world"
	case TopologyClustered:
		return "clustered"
	case TopologyHubSpoke:
		return "hub-spoke"
	case TopologyRandom:
		return "random"
	case TopologyComplete:
		return "complete"
	case TopologyNone:
		return "none"
	}
	return "unknown"
}

// Valid reports whether t names a defined topology.
func (t TopologyType) Valid() bool {
	return t < numTopologyTypes
}

// CouplingMode selects the algorithm that propagates energy along edges.
type CouplingMode uint8

const (
	// CouplingMagnitudePressure pushes |a₀| of the neighbor into the
	// node's mode 0 along the real axis. Always positive, robust.
	CouplingMagnitudePressure CouplingMode = iota
	// CouplingComplexDiffusion diffuses the complex mode-0 difference,
	// preserving neighbor phase.
	CouplingComplexDiffusion
)

// Edge is one directed coupling contribution From → To.
type Edge struct {
	From   uint8
	To     uint8
	Weight float32
}

// shortcut and random-edge probabilities.
const (
	smallWorldShortcutProb = 0.3
	randomEdgeProb         = 0.4
)

// Topology owns the coupling graph. Generate rebuilds it from scratch on
// every structural change; it allocates and must never be called from the
// render path. The per-step coupling walk over Edges is allocation-free.
type Topology struct {
	typ      TopologyType
	strength float32
	count    int
	seed     int64

	edges []Edge
}

// NewTopology creates a topology with no edges yet; the default type is
// Ring until Generate is called. The seed fixes the shape of the
// probabilistic types so regeneration is reproducible.
func NewTopology(seed int64) *Topology {
	return &Topology{typ: TopologyRing, seed: seed}
}

// Type returns the last generated topology type.
func (t *Topology) Type() TopologyType { return t.typ }

// Strength returns the last generated coupling strength.
func (t *Topology) Strength() float32 { return t.strength }

// Edges returns the directed edge list of the current graph.
func (t *Topology) Edges() []Edge { return t.edges }

// Generate rebuilds the graph over exactly count nodes. Invalid types and
// non-positive counts leave an empty graph.
func (t *Topology) Generate(typ TopologyType, strength float32, count int) {
	t.typ = typ
	t.strength = maxf(strength, 0.0)
	t.count = count
	t.edges = t.edges[:0]

	if !typ.Valid() || typ == TopologyNone || count < 2 || t.strength == 0 {
		return
	}

	switch typ {
	case TopologyRing:
		t.generateRing(count, t.strength)
	case TopologySmallWorld:
		t.generateRing(count, t.strength)
		rng := rand.New(rand.NewSource(t.seed))
		for i := 0; i < count; i++ {
			if rng.Float64() >= smallWorldShortcutProb {
				continue
			}
			j := rng.Intn(count)
			if j == i || t.adjacent(uint8(i), uint8(j)) {
				continue
			}
			t.addPair(uint8(i), uint8(j), t.strength*0.5)
		}
	case TopologyClustered:
		// Two cliques joined by a single bridge.
		half := count / 2
		t.addClique(0, half, t.strength)
		t.addClique(half, count, t.strength)
		if half > 0 && half < count {
			t.addPair(uint8(half-1), uint8(half), t.strength*0.5)
		}
	case TopologyHubSpoke:
		for i := 1; i < count; i++ {
			t.addPair(0, uint8(i), t.strength)
		}
	case TopologyRandom:
		rng := rand.New(rand.NewSource(t.seed))
		for i := 0; i < count; i++ {
			for j := i + 1; j < count; j++ {
				if rng.Float64() < randomEdgeProb {
					t.addPair(uint8(i), uint8(j), t.strength)
				}
			}
		}
	case TopologyComplete:
		// Normalized by degree so total inflow stays comparable to a
		// ring regardless of node count.
		w := t.strength / float32(count-1)
		for i := 0; i < count; i++ {
			for j := i + 1; j < count; j++ {
				t.addPair(uint8(i), uint8(j), w)
			}
		}
	}
}

// ApplyNeighbors writes each node's neighbor id set (capped at
// MaxNeighbors) from the current edge list.
func (t *Topology) ApplyNeighbors(nodes []*Node) {
	for i := 0; i < t.count && i < len(nodes); i++ {
		var ids []uint8
		for _, e := range t.edges {
			if int(e.To) == i && len(ids) < MaxNeighbors {
				ids = append(ids, e.From)
			}
		}
		nodes[i].SetNeighbors(ids)
	}
	for i := t.count; i < len(nodes); i++ {
		nodes[i].SetNeighbors(nil)
	}
}

func (t *Topology) generateRing(count int, strength float32) {
	if count == 2 {
		t.addPair(0, 1, strength)
		return
	}
	for i := 0; i < count; i++ {
		t.addPair(uint8(i), uint8((i+1)%count), strength)
	}
}

func (t *Topology) addClique(lo int, hi int, strength float32) {
	for i := lo; i < hi; i++ {
		for j := i + 1; j < hi; j++ {
			t.addPair(uint8(i), uint8(j), strength)
		}
	}
}

func (t *Topology) addPair(a uint8, b uint8, weight float32) {
	t.edges = append(t.edges, Edge{From: a, To: b, Weight: weight})
	t.edges = append(t.edges, Edge{From: b, To: a, Weight: weight})
}

func (t *Topology) adjacent(a uint8, b uint8) bool {
	for _, e := range t.edges {
		if e.From == a && e.To == b {
			return true
		}
	}
	return false
}
