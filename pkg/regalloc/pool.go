package regalloc

// RegisterPool tracks which of the registers {0, ..., R-1} are free and
// which interval occupies each active one.
type RegisterPool struct {
	free   IntSet
	active []*LiveInterval
}

// NewRegisterPool creates a pool of n free registers
func NewRegisterPool(n int) *RegisterPool {
	p := &RegisterPool{active: make([]*LiveInterval, n)}
	for r := 0; r < n; r++ {
		p.free.Add(r)
	}
	return p
}

// Size returns the total number of registers
func (p *RegisterPool) Size() int {
	return len(p.active)
}

// FreeCount returns the number of free registers
func (p *RegisterPool) FreeCount() int {
	return p.free.Len()
}

// Take assigns the lowest free register to iv.
func (p *RegisterPool) Take(iv *LiveInterval) (int, bool) {
	r := p.free.Min()
	if r < 0 {
		return 0, false
	}
	p.Assign(r, iv)
	return r, true
}

// Assign gives the free register r to iv.
func (p *RegisterPool) Assign(r int, iv *LiveInterval) {
	invariant(p.free.Contains(r) && p.active[r] == nil, "register %d is not free", r)
	p.free.Remove(r)
	p.active[r] = iv
	iv.Location = Register{Index: uint32(r)}
}

// Release returns register r to the free set.
func (p *RegisterPool) Release(r int) {
	invariant(!p.free.Contains(r) && p.active[r] != nil, "register %d released twice", r)
	p.active[r] = nil
	p.free.Add(r)
}

// Occupant returns the interval holding r, or nil
func (p *RegisterPool) Occupant(r int) *LiveInterval {
	return p.active[r]
}
