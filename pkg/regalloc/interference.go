package regalloc

import (
	"math"
	"sort"
)

// InterferenceGraph represents the register interference graph.
// Nodes live in an arena indexed by dense ids; node ids follow ascending
// value order, so every iteration over the graph is deterministic.
type InterferenceGraph struct {
	values  []ValueID
	index   map[ValueID]int
	weights []float64
	// adj holds interference edges, indexed by node id
	adj []IntSet
	// moves holds preference (copy) edges used for coalescing
	moves []IntSet
}

// NewInterferenceGraph creates an empty interference graph
func NewInterferenceGraph() *InterferenceGraph {
	return &InterferenceGraph{index: make(map[ValueID]int)}
}

// AddNode adds a value to the graph and returns its node id. Adding an
// existing value returns the existing id and leaves its weight alone.
func (g *InterferenceGraph) AddNode(v ValueID, weight float64) int {
	if n, ok := g.index[v]; ok {
		return n
	}
	n := len(g.values)
	g.index[v] = n
	g.values = append(g.values, v)
	g.weights = append(g.weights, weight)
	g.adj = append(g.adj, IntSet{})
	g.moves = append(g.moves, IntSet{})
	return n
}

// Node returns the node id of v
func (g *InterferenceGraph) Node(v ValueID) (int, bool) {
	n, ok := g.index[v]
	return n, ok
}

// Len returns the number of nodes
func (g *InterferenceGraph) Len() int {
	return len(g.values)
}

// Value returns the value of node n
func (g *InterferenceGraph) Value(n int) ValueID {
	return g.values[n]
}

// Values returns all values in node order
func (g *InterferenceGraph) Values() []ValueID {
	return append([]ValueID(nil), g.values...)
}

// Weight returns the spill weight of v
func (g *InterferenceGraph) Weight(v ValueID) float64 {
	if n, ok := g.index[v]; ok {
		return g.weights[n]
	}
	return 0
}

// AddEdge adds an interference edge between two values
func (g *InterferenceGraph) AddEdge(a, b ValueID) {
	if a == b {
		return // No self-edges
	}
	na := g.AddNode(a, 1)
	nb := g.AddNode(b, 1)
	g.adj[na].Add(nb)
	g.adj[nb].Add(na)
}

// AddPreference adds a preference edge (for move coalescing)
func (g *InterferenceGraph) AddPreference(a, b ValueID) {
	if a == b {
		return
	}
	na := g.AddNode(a, 1)
	nb := g.AddNode(b, 1)
	g.moves[na].Add(nb)
	g.moves[nb].Add(na)
}

// HasEdge returns true if there is an interference edge
func (g *InterferenceGraph) HasEdge(a, b ValueID) bool {
	na, ok1 := g.index[a]
	nb, ok2 := g.index[b]
	return ok1 && ok2 && g.adj[na].Contains(nb)
}

// Degree returns the number of neighbors of v
func (g *InterferenceGraph) Degree(v ValueID) int {
	if n, ok := g.index[v]; ok {
		return g.adj[n].Len()
	}
	return 0
}

// Neighbors returns the interfering neighbors of v in node order
func (g *InterferenceGraph) Neighbors(v ValueID) []ValueID {
	n, ok := g.index[v]
	if !ok {
		return nil
	}
	return g.valuesOf(g.adj[n])
}

// Preferences returns the move-related partners of v in node order
func (g *InterferenceGraph) Preferences(v ValueID) []ValueID {
	n, ok := g.index[v]
	if !ok {
		return nil
	}
	return g.valuesOf(g.moves[n])
}

// MoveRelated returns true if the value is involved in a move
func (g *InterferenceGraph) MoveRelated(v ValueID) bool {
	n, ok := g.index[v]
	return ok && !g.moves[n].Empty()
}

// EdgeCount returns the number of interference edges
func (g *InterferenceGraph) EdgeCount() int {
	total := 0
	for _, s := range g.adj {
		total += s.Len()
	}
	return total / 2
}

// Edges returns every edge once, as (lower node, higher node) value pairs
func (g *InterferenceGraph) Edges() [][2]ValueID {
	var edges [][2]ValueID
	for n := range g.adj {
		g.adj[n].Range(func(m int) {
			if n < m {
				edges = append(edges, [2]ValueID{g.values[n], g.values[m]})
			}
		})
	}
	return edges
}

func (g *InterferenceGraph) valuesOf(s IntSet) []ValueID {
	vals := make([]ValueID, 0, s.Len())
	s.Range(func(n int) { vals = append(vals, g.values[n]) })
	return vals
}

// Clone returns a private deep copy of the graph
func (g *InterferenceGraph) Clone() *InterferenceGraph {
	c := &InterferenceGraph{
		values:  append([]ValueID(nil), g.values...),
		index:   make(map[ValueID]int, len(g.index)),
		weights: append([]float64(nil), g.weights...),
		adj:     make([]IntSet, len(g.adj)),
		moves:   make([]IntSet, len(g.moves)),
	}
	for v, n := range g.index {
		c.index[v] = n
	}
	for n := range g.adj {
		c.adj[n] = g.adj[n].Copy()
		c.moves[n] = g.moves[n].Copy()
	}
	return c
}

// BuildFromLiveness constructs the interference graph from per-point
// liveness. Two values interfere when both are present at a point and at
// least one of them is defined there. A value that is never defined is
// treated as defined at the first point where it appears (incoming
// parameters). The source of a copy does not interfere with its
// destination at the copy point; the pair becomes a preference instead.
func BuildFromLiveness(points []ProgramPoint) (*InterferenceGraph, error) {
	if err := ValidateLiveness(points); err != nil {
		return nil, err
	}
	sorted := sortedPoints(points)
	weights := livenessWeights(sorted)

	g := NewInterferenceGraph()
	for _, v := range LivenessValues(sorted) {
		g.AddNode(v, weights[v])
	}

	defined := make(map[ValueID]bool)
	for i := range sorted {
		for _, d := range sorted[i].defs() {
			defined[d] = true
		}
	}

	for i := range sorted {
		p := &sorted[i]
		present := p.present()
		defs := append([]ValueID(nil), p.defs()...)
		for _, v := range present {
			if !defined[v] {
				defs = append(defs, v)
				defined[v] = true
			}
		}
		for _, d := range defs {
			for _, v := range present {
				// Special case: move instruction - no interference with source
				if p.Copy != nil && d == p.Copy.Dst && v == p.Copy.Src {
					continue
				}
				g.AddEdge(d, v)
			}
		}
		if p.Copy != nil {
			g.AddPreference(p.Copy.Dst, p.Copy.Src)
		}
	}
	return g, nil
}

// BuildFromIntervals makes two values interfere iff their intervals overlap.
func BuildFromIntervals(intervals []*LiveInterval) (*InterferenceGraph, error) {
	if err := ValidateIntervals(intervals); err != nil {
		return nil, err
	}
	sorted := append([]*LiveInterval(nil), intervals...)
	sortIntervalsByValue(sorted)

	g := NewInterferenceGraph()
	for _, iv := range sorted {
		g.AddNode(iv.Value, iv.Weight)
	}
	for i, a := range sorted {
		for _, b := range sorted[i+1:] {
			if a.Overlaps(b) {
				g.AddEdge(a.Value, b.Value)
			}
		}
	}
	return g, nil
}

// ValueSpec declares a value and its spill weight for edge-list input.
type ValueSpec struct {
	ID     ValueID
	Weight float64
}

// BuildFromEdges constructs a graph from declared values and a
// precomputed edge list. Edges must only name declared values.
func BuildFromEdges(values []ValueSpec, edges [][2]ValueID) (*InterferenceGraph, error) {
	sorted := append([]ValueSpec(nil), values...)
	sortValueSpecs(sorted)

	g := NewInterferenceGraph()
	for i, vs := range sorted {
		if i > 0 && sorted[i-1].ID == vs.ID {
			return nil, valueError(vs.ID, "duplicate value")
		}
		if vs.Weight < 0 || math.IsNaN(vs.Weight) {
			return nil, valueError(vs.ID, "invalid weight %v", vs.Weight)
		}
		g.AddNode(vs.ID, vs.Weight)
	}
	for _, e := range edges {
		for _, v := range e {
			if _, ok := g.index[v]; !ok {
				return nil, valueError(v, "edge names an undeclared value")
			}
		}
		g.AddEdge(e[0], e[1])
	}
	return g, nil
}

func sortValueSpecs(specs []ValueSpec) {
	sort.SliceStable(specs, func(i, j int) bool {
		return specs[i].ID < specs[j].ID
	})
}
