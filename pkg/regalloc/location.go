package regalloc

import (
	"fmt"
	"sort"
)

// ValueID identifies a program-level value (variable or temporary).
type ValueID uint32

// Location is where a value lives after allocation: a Register or a StackSlot.
type Location interface {
	isLocation()
	String() string
}

// Register is a physical register index in [0, R).
type Register struct {
	Index uint32
}

// StackSlot is a dense spill slot index, assigned in spill order.
type StackSlot struct {
	Index uint32
}

func (Register) isLocation()  {}
func (StackSlot) isLocation() {}

func (r Register) String() string  { return fmt.Sprintf("r%d", r.Index) }
func (s StackSlot) String() string { return fmt.Sprintf("slot%d", s.Index) }

// IsRegister reports whether loc is a register, and which one.
func IsRegister(loc Location) (uint32, bool) {
	if r, ok := loc.(Register); ok {
		return r.Index, true
	}
	return 0, false
}

// Stats carries diagnostic counters for one allocation.
type Stats struct {
	Iterations    int
	Coalesced     int
	ColoredNodes  int
	RegistersUsed int
}

// Result is the outcome of allocating one function.
type Result struct {
	// Assignment maps every input value to its location
	Assignment map[ValueID]Location
	// SpillReport lists spilled values in the order spills were decided
	SpillReport []ValueID
	Stats       Stats

	slots uint32
}

func newResult() *Result {
	return &Result{Assignment: make(map[ValueID]Location)}
}

// Values returns the assigned values in ascending order.
func (r *Result) Values() []ValueID {
	vals := make([]ValueID, 0, len(r.Assignment))
	for v := range r.Assignment {
		vals = append(vals, v)
	}
	sortValues(vals)
	return vals
}

// Spilled reports whether v was assigned a stack slot.
func (r *Result) Spilled(v ValueID) bool {
	_, ok := r.Assignment[v].(StackSlot)
	return ok
}

// registersUsed counts the distinct register ids in the assignment.
func (r *Result) registersUsed() int {
	used := NewIntSet()
	for _, loc := range r.Assignment {
		if idx, ok := IsRegister(loc); ok {
			used.Add(int(idx))
		}
	}
	return used.Len()
}

// spill records a spill decision and hands out the next stack slot.
func (r *Result) spill(v ValueID) StackSlot {
	slot := StackSlot{Index: r.slots}
	r.slots++
	r.spillInto(v, slot)
	return slot
}

// spillInto records v as spilled into an existing slot.
func (r *Result) spillInto(v ValueID, slot StackSlot) {
	r.SpillReport = append(r.SpillReport, v)
	r.Assignment[v] = slot
}

// SlotCount returns the number of stack slots handed out
func (r *Result) SlotCount() int {
	return int(r.slots)
}

func sortValues(vals []ValueID) {
	sort.Slice(vals, func(i, j int) bool {
		return vals[i] < vals[j]
	})
}
