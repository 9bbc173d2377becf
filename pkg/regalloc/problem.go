package regalloc

import (
	"math"
)

// Problem is the allocation input for one function. Exactly one source of
// liveness facts is used: Intervals, Liveness, or Values with Edges.
type Problem struct {
	Name      string
	Intervals []*LiveInterval
	Liveness  []ProgramPoint
	Values    []ValueSpec
	Edges     [][2]ValueID
	// Moves are copy-related value pairs, consulted only by coalescing
	Moves [][2]ValueID
}

type problemKind int

const (
	kindEmpty problemKind = iota
	kindIntervals
	kindLiveness
	kindEdges
)

func (p *Problem) kind() problemKind {
	switch {
	case len(p.Intervals) > 0:
		return kindIntervals
	case len(p.Liveness) > 0:
		return kindLiveness
	case len(p.Values) > 0 || len(p.Edges) > 0:
		return kindEdges
	}
	return kindEmpty
}

// Validate rejects malformed input before any allocation work starts.
func (p *Problem) Validate() error {
	sources := 0
	if len(p.Intervals) > 0 {
		sources++
	}
	if len(p.Liveness) > 0 {
		sources++
	}
	if len(p.Values) > 0 || len(p.Edges) > 0 {
		sources++
	}
	if sources > 1 {
		return inputError("function %q mixes intervals, liveness and edge lists", p.Name)
	}

	switch p.kind() {
	case kindIntervals:
		if err := ValidateIntervals(p.Intervals); err != nil {
			return err
		}
	case kindLiveness:
		if err := ValidateLiveness(p.Liveness); err != nil {
			return err
		}
	case kindEdges:
		declared := make(map[ValueID]bool, len(p.Values))
		for _, vs := range p.Values {
			if declared[vs.ID] {
				return valueError(vs.ID, "duplicate value")
			}
			if vs.Weight < 0 || math.IsNaN(vs.Weight) {
				return valueError(vs.ID, "invalid weight %v", vs.Weight)
			}
			declared[vs.ID] = true
		}
		for _, e := range p.Edges {
			for _, v := range e {
				if !declared[v] {
					return valueError(v, "edge names an undeclared value")
				}
			}
		}
	}

	known := make(map[ValueID]bool)
	for _, v := range p.AllValues() {
		known[v] = true
	}
	for _, m := range p.Moves {
		for _, v := range m {
			if !known[v] {
				return valueError(v, "move hint names an unknown value")
			}
		}
	}
	return nil
}

// AllValues returns every value the problem mentions, ascending.
func (p *Problem) AllValues() []ValueID {
	var vals []ValueID
	switch p.kind() {
	case kindIntervals:
		for _, iv := range p.Intervals {
			vals = append(vals, iv.Value)
		}
		sortValues(vals)
	case kindLiveness:
		vals = LivenessValues(p.Liveness)
	case kindEdges:
		for _, vs := range p.Values {
			vals = append(vals, vs.ID)
		}
		sortValues(vals)
	}
	return vals
}

// BuildIntervals derives the live intervals for the problem. Edge-list
// problems carry no time information and cannot produce intervals.
func (p *Problem) BuildIntervals() ([]*LiveInterval, error) {
	switch p.kind() {
	case kindIntervals:
		intervals := make([]*LiveInterval, len(p.Intervals))
		for i, iv := range p.Intervals {
			intervals[i] = iv.clone()
		}
		return intervals, nil
	case kindLiveness:
		return IntervalsFromLiveness(p.Liveness)
	case kindEdges:
		return nil, inputError("function %q: linear scan needs intervals or liveness, not an edge list", p.Name)
	}
	return nil, nil
}

// BuildGraph derives the interference graph for the problem, including
// move hints as preference edges.
func (p *Problem) BuildGraph() (*InterferenceGraph, error) {
	var (
		g   *InterferenceGraph
		err error
	)
	switch p.kind() {
	case kindIntervals:
		g, err = BuildFromIntervals(p.Intervals)
	case kindLiveness:
		g, err = BuildFromLiveness(p.Liveness)
	case kindEdges:
		g, err = BuildFromEdges(p.Values, p.Edges)
	default:
		g = NewInterferenceGraph()
	}
	if err != nil {
		return nil, err
	}
	for _, m := range p.Moves {
		// Moves between interfering values can never coalesce
		if !g.HasEdge(m[0], m[1]) {
			g.AddPreference(m[0], m[1])
		}
	}
	return g, nil
}
