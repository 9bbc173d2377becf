package regalloc

import (
	"sort"
)

// Copy describes a move instruction Dst <- Src at a program point.
type Copy struct {
	Dst ValueID
	Src ValueID
}

// ProgramPoint holds the liveness facts supplied for one program point.
type ProgramPoint struct {
	Point uint32
	// Live are the values whose contents must be preserved at this point
	Live []ValueID
	// Defs are the values defined at this point
	Defs []ValueID
	// Uses are the values read at this point (only used for weights)
	Uses []ValueID
	// Copy marks the point as a move; its source does not interfere with
	// its destination here
	Copy *Copy
}

// defs returns the values defined at the point, including a copy's destination.
func (p *ProgramPoint) defs() []ValueID {
	if p.Copy == nil {
		return p.Defs
	}
	for _, d := range p.Defs {
		if d == p.Copy.Dst {
			return p.Defs
		}
	}
	return append(append([]ValueID(nil), p.Defs...), p.Copy.Dst)
}

// present returns Live plus defs, deduplicated, in ascending order.
func (p *ProgramPoint) present() []ValueID {
	seen := make(map[ValueID]bool)
	var vals []ValueID
	add := func(v ValueID) {
		if !seen[v] {
			seen[v] = true
			vals = append(vals, v)
		}
	}
	for _, v := range p.Live {
		add(v)
	}
	for _, v := range p.defs() {
		add(v)
	}
	if p.Copy != nil {
		add(p.Copy.Src)
	}
	sortValues(vals)
	return vals
}

// sortedPoints returns the points ordered by program point.
func sortedPoints(points []ProgramPoint) []ProgramPoint {
	sorted := append([]ProgramPoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Point < sorted[j].Point
	})
	return sorted
}

// ValidateLiveness rejects duplicate program points and degenerate copies.
func ValidateLiveness(points []ProgramPoint) error {
	seen := make(map[uint32]bool, len(points))
	for _, p := range points {
		if seen[p.Point] {
			return inputError("duplicate program point %d", p.Point)
		}
		seen[p.Point] = true
		if p.Copy != nil && p.Copy.Dst == p.Copy.Src {
			return valueError(p.Copy.Dst, "copy at point %d has identical source and destination", p.Point)
		}
	}
	return nil
}

// LivenessValues returns every value mentioned by the points, ascending.
func LivenessValues(points []ProgramPoint) []ValueID {
	seen := make(map[ValueID]bool)
	var vals []ValueID
	for i := range points {
		p := &points[i]
		for _, v := range p.present() {
			if !seen[v] {
				seen[v] = true
				vals = append(vals, v)
			}
		}
		for _, v := range p.Uses {
			if !seen[v] {
				seen[v] = true
				vals = append(vals, v)
			}
		}
	}
	sortValues(vals)
	return vals
}

// livenessWeights counts defs and uses per value (minimum weight 1).
func livenessWeights(points []ProgramPoint) map[ValueID]float64 {
	counts := make(map[ValueID]int)
	for i := range points {
		p := &points[i]
		for _, v := range p.defs() {
			counts[v]++
		}
		for _, v := range p.Uses {
			counts[v]++
		}
		if p.Copy != nil {
			counts[p.Copy.Src]++
		}
	}
	weights := make(map[ValueID]float64)
	for _, v := range LivenessValues(points) {
		weights[v] = DefaultWeight(counts[v])
	}
	return weights
}

// IntervalsFromLiveness groups, for every value, the runs of consecutive
// listed points at which it is present into ranges. Intervals are returned
// in ascending value order.
func IntervalsFromLiveness(points []ProgramPoint) ([]*LiveInterval, error) {
	if err := ValidateLiveness(points); err != nil {
		return nil, err
	}
	sorted := sortedPoints(points)
	weights := livenessWeights(sorted)

	byValue := make(map[ValueID]*LiveInterval)
	lastIndex := make(map[ValueID]int)
	for idx := range sorted {
		p := &sorted[idx]
		for _, v := range p.present() {
			iv, ok := byValue[v]
			if !ok {
				iv = NewLiveInterval(v, weights[v])
				byValue[v] = iv
			}
			if ok && lastIndex[v] == idx-1 {
				iv.Ranges[len(iv.Ranges)-1].End = p.Point
			} else {
				iv.Ranges = append(iv.Ranges, Range{Start: p.Point, End: p.Point})
			}
			lastIndex[v] = idx
		}
	}

	var intervals []*LiveInterval
	for _, v := range LivenessValues(sorted) {
		iv, ok := byValue[v]
		if !ok {
			// only ever used, never live: give it a point-sized interval
			// at its first use so it still gets a location
			iv = NewLiveInterval(v, weights[v], Range{Start: firstUse(sorted, v), End: firstUse(sorted, v)})
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

func firstUse(points []ProgramPoint, v ValueID) uint32 {
	for _, p := range points {
		for _, u := range p.Uses {
			if u == v {
				return p.Point
			}
		}
	}
	return 0
}
