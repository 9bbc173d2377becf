package regalloc

import (
	"sort"
)

// Linear scan register allocation.
//
// Intervals are visited in order of start point. The active list holds the
// intervals currently occupying a register, ordered by end point; it never
// grows beyond the number of registers. An interval with holes keeps its
// register across the holes until its last range has ended.

func sortIntervalsByStart(intervals []*LiveInterval) {
	for i, iv := range intervals {
		iv.order = i
	}
	sort.SliceStable(intervals, func(i, j int) bool {
		a, b := intervals[i], intervals[j]
		if a.Start() != b.Start() {
			return a.Start() < b.Start()
		}
		if a.End() != b.End() {
			return a.End() < b.End()
		}
		return a.order < b.order
	})
}

type linearScan struct {
	pool   *RegisterPool
	active []*LiveInterval
	result *Result
	s      *AllocationSession
}

func (s *AllocationSession) linearScan() *Result {
	ls := &linearScan{
		pool:   NewRegisterPool(s.opts.Registers),
		result: newResult(),
		s:      s,
	}
	sortIntervalsByStart(s.intervals)

	for _, cur := range s.intervals {
		ls.expire(cur.Start())
		if _, ok := ls.pool.Take(cur); ok {
			ls.insertActive(cur)
		} else {
			ls.spillAt(cur)
		}
		ls.checkActive()
	}

	for _, iv := range s.intervals {
		if reg, ok := iv.Location.(Register); ok {
			ls.result.Assignment[iv.Value] = reg
		}
	}
	ls.result.Stats.Iterations = 1
	return ls.result
}

// expire releases the registers of every active interval whose last range
// ends before point.
func (ls *linearScan) expire(point uint32) {
	kept := ls.active[:0]
	for _, iv := range ls.active {
		if iv.consume(point) {
			reg, _ := IsRegister(iv.Location)
			ls.pool.Release(int(reg))
			continue
		}
		kept = append(kept, iv)
	}
	ls.active = kept
}

// insertActive keeps the active list ordered by end point.
func (ls *linearScan) insertActive(iv *LiveInterval) {
	i := sort.Search(len(ls.active), func(i int) bool {
		return ls.active[i].End() > iv.End()
	})
	ls.active = append(ls.active, nil)
	copy(ls.active[i+1:], ls.active[i:])
	ls.active[i] = iv
}

func (ls *linearScan) removeActive(iv *LiveInterval) {
	for i, a := range ls.active {
		if a == iv {
			ls.active = append(ls.active[:i], ls.active[i+1:]...)
			return
		}
	}
}

// spillAt handles cur when every register is taken: either an active
// interval is evicted in its favour, or cur itself is spilled.
func (ls *linearScan) spillAt(cur *LiveInterval) {
	victim := ls.chooseVictim(cur)
	if victim == nil {
		ls.spill(cur)
		return
	}
	reg, _ := IsRegister(victim.Location)
	ls.pool.Release(int(reg))
	ls.removeActive(victim)
	ls.spill(victim)
	ls.pool.Assign(int(reg), cur)
	ls.insertActive(cur)
}

// chooseVictim picks the active interval to evict for cur, or nil if cur
// should be spilled. Only intervals that outlive cur and are no more
// expensive than cur qualify; among those the cheapest wins, then the one
// ending last.
func (ls *linearScan) chooseVictim(cur *LiveInterval) *LiveInterval {
	var best *LiveInterval
	for _, iv := range ls.active {
		if iv.End() <= cur.End() || iv.Weight > cur.Weight {
			continue
		}
		if best == nil ||
			iv.Weight < best.Weight ||
			(iv.Weight == best.Weight && iv.End() > best.End()) {
			best = iv
		}
	}
	return best
}

func (ls *linearScan) spill(iv *LiveInterval) {
	iv.Location = ls.result.spill(iv.Value)
	ls.s.log.Debug("spill", "value", iv.Value, "weight", iv.Weight, "end", iv.End())
}

// checkActive asserts that no two active intervals share a register.
func (ls *linearScan) checkActive() {
	invariant(len(ls.active) <= ls.pool.Size(), "%d active intervals for %d registers",
		len(ls.active), ls.pool.Size())
	var seen IntSet
	for _, iv := range ls.active {
		reg, ok := IsRegister(iv.Location)
		invariant(ok, "active value %d has no register", iv.Value)
		invariant(!seen.Contains(int(reg)), "register %d held by two active intervals", reg)
		invariant(ls.pool.Occupant(int(reg)) == iv, "pool disagrees about register %d", reg)
		seen.Add(int(reg))
	}
}
