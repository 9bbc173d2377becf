package regalloc

import "math/bits"

// IntSet is a set of small non-negative integers backed by a bitset.
// Iteration is always in ascending order, so anything built on top of it
// (adjacency, register pools) is deterministic.
type IntSet struct {
	words []uint64
}

// NewIntSet creates a set holding the given elements
func NewIntSet(elems ...int) IntSet {
	var s IntSet
	for _, e := range elems {
		s.Add(e)
	}
	return s
}

// Add inserts i into the set
func (s *IntSet) Add(i int) {
	if i < 0 {
		panic("regalloc: negative IntSet element")
	}
	idx := i / 64
	if idx >= len(s.words) {
		s.words = append(s.words, make([]uint64, idx+1-len(s.words))...)
	}
	s.words[idx] |= 1 << uint(i%64)
}

// Remove deletes i from the set
func (s *IntSet) Remove(i int) {
	if i < 0 {
		return
	}
	idx := i / 64
	if idx < len(s.words) {
		s.words[idx] &^= 1 << uint(i%64)
	}
}

// Contains returns true if i is in the set
func (s IntSet) Contains(i int) bool {
	if i < 0 {
		return false
	}
	idx := i / 64
	return idx < len(s.words) && s.words[idx]&(1<<uint(i%64)) != 0
}

// Len returns the number of elements
func (s IntSet) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Empty returns true if the set has no elements
func (s IntSet) Empty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Min returns the smallest element, or -1 for an empty set
func (s IntSet) Min() int {
	for i, w := range s.words {
		if w != 0 {
			return i*64 + bits.TrailingZeros64(w)
		}
	}
	return -1
}

// Range calls f for every element in ascending order
func (s IntSet) Range(f func(int)) {
	for i, w := range s.words {
		for w != 0 {
			n := bits.TrailingZeros64(w)
			f(i*64 + n)
			w &^= 1 << uint(n)
		}
	}
}

// Slice returns the elements in ascending order
func (s IntSet) Slice() []int {
	out := make([]int, 0, s.Len())
	s.Range(func(i int) { out = append(out, i) })
	return out
}

// Copy returns an independent copy of the set
func (s IntSet) Copy() IntSet {
	return IntSet{words: append([]uint64(nil), s.words...)}
}

// Union returns a new set containing elements of both sets
func (s IntSet) Union(other IntSet) IntSet {
	out := s.Copy()
	for i, w := range other.words {
		if i >= len(out.words) {
			out.words = append(out.words, w)
			continue
		}
		out.words[i] |= w
	}
	return out
}
