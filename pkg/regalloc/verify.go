package regalloc

import (
	"fmt"
)

// Verify checks an allocation result against the problem it was computed
// for: every value has exactly one location (totality), no two
// interfering values share a register (safety), and no register id
// reaches registers (boundedness).
func Verify(p *Problem, res *Result, registers int) error {
	values := p.AllValues()
	known := make(map[ValueID]bool, len(values))
	for _, v := range values {
		known[v] = true
		if _, ok := res.Assignment[v]; !ok {
			return &VerifyError{Kind: VerifyTotality, Detail: fmt.Sprintf("value %d has no location", v)}
		}
	}
	for _, v := range res.Values() {
		if !known[v] {
			return &VerifyError{Kind: VerifyTotality, Detail: fmt.Sprintf("value %d is not part of the input", v)}
		}
	}

	for _, v := range values {
		if r, ok := IsRegister(res.Assignment[v]); ok && int(r) >= registers {
			return &VerifyError{Kind: VerifyBoundedness,
				Detail: fmt.Sprintf("value %d uses register %d of %d", v, r, registers)}
		}
	}
	if used := res.registersUsed(); used > registers {
		return &VerifyError{Kind: VerifyBoundedness,
			Detail: fmt.Sprintf("%d registers used, %d available", used, registers)}
	}

	interferes, err := interferenceOracle(p)
	if err != nil {
		return err
	}
	for i, a := range values {
		ra, ok := IsRegister(res.Assignment[a])
		if !ok {
			continue
		}
		for _, b := range values[i+1:] {
			rb, ok := IsRegister(res.Assignment[b])
			if ok && ra == rb && interferes(a, b) {
				return &VerifyError{Kind: VerifySafety,
					Detail: fmt.Sprintf("values %d and %d interfere but share register %d", a, b, ra)}
			}
		}
	}
	return nil
}

// interferenceOracle answers "do a and b interfere" from the problem's own
// facts rather than from any allocator state.
func interferenceOracle(p *Problem) (func(a, b ValueID) bool, error) {
	if p.kind() == kindIntervals {
		byValue := make(map[ValueID]*LiveInterval, len(p.Intervals))
		for _, iv := range p.Intervals {
			byValue[iv.Value] = iv
		}
		return func(a, b ValueID) bool {
			return byValue[a].Overlaps(byValue[b])
		}, nil
	}
	g, err := p.BuildGraph()
	if err != nil {
		return nil, err
	}
	return g.HasEdge, nil
}
