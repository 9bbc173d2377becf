package regalloc

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Range is a closed span [Start, End] of program points.
type Range struct {
	Start uint32
	End   uint32
}

// Overlaps returns true if the two closed ranges share a program point
func (r Range) Overlaps(o Range) bool {
	return r.Start <= o.End && o.Start <= r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.Start, r.End)
}

// LiveInterval is the lifetime of one value: ordered, non-overlapping
// ranges plus a spill weight. Ranges are never modified during
// allocation; only Location and the consumed-range cursor change.
type LiveInterval struct {
	Value  ValueID
	Ranges []Range
	// Weight is the spill cost; higher means more expensive to spill
	Weight float64
	// Location is nil until allocation resolves it
	Location Location

	cursor int
	order  int
}

// NewLiveInterval creates an interval for v covering the given ranges
func NewLiveInterval(v ValueID, weight float64, ranges ...Range) *LiveInterval {
	return &LiveInterval{Value: v, Ranges: ranges, Weight: weight}
}

// DefaultWeight derives a spill weight from a use count.
func DefaultWeight(uses int) float64 {
	if uses < 1 {
		return 1
	}
	return float64(uses)
}

// Start returns the first program point of the interval
func (iv *LiveInterval) Start() uint32 {
	return iv.Ranges[0].Start
}

// End returns the last program point of the interval
func (iv *LiveInterval) End() uint32 {
	return iv.Ranges[len(iv.Ranges)-1].End
}

// Covers returns true if the value is live at point
func (iv *LiveInterval) Covers(point uint32) bool {
	for _, r := range iv.Ranges {
		if r.Start <= point && point <= r.End {
			return true
		}
	}
	return false
}

// Overlaps returns true if any range of iv overlaps any range of other
func (iv *LiveInterval) Overlaps(other *LiveInterval) bool {
	i, j := 0, 0
	for i < len(iv.Ranges) && j < len(other.Ranges) {
		a, b := iv.Ranges[i], other.Ranges[j]
		if a.Overlaps(b) {
			return true
		}
		if a.End < b.End {
			i++
		} else {
			j++
		}
	}
	return false
}

// current returns the range the cursor points at.
func (iv *LiveInterval) current() Range {
	return iv.Ranges[iv.cursor]
}

// consume advances the cursor past every range ending before point and
// reports whether all ranges are exhausted.
func (iv *LiveInterval) consume(point uint32) bool {
	for iv.cursor < len(iv.Ranges) && iv.current().End < point {
		iv.cursor++
	}
	return iv.cursor == len(iv.Ranges)
}

// clone copies the interval with its allocation state reset.
func (iv *LiveInterval) clone() *LiveInterval {
	return &LiveInterval{
		Value:  iv.Value,
		Ranges: append([]Range(nil), iv.Ranges...),
		Weight: iv.Weight,
	}
}

// Validate checks the interval is well formed
func (iv *LiveInterval) Validate() error {
	if len(iv.Ranges) == 0 {
		return valueError(iv.Value, "interval has no ranges")
	}
	if iv.Weight < 0 || math.IsNaN(iv.Weight) {
		return valueError(iv.Value, "invalid weight %v", iv.Weight)
	}
	for i, r := range iv.Ranges {
		if r.Start > r.End {
			return valueError(iv.Value, "range %s starts after it ends", r)
		}
		if i > 0 && r.Start <= iv.Ranges[i-1].End {
			return valueError(iv.Value, "range %s is not after %s", r, iv.Ranges[i-1])
		}
	}
	return nil
}

func (iv *LiveInterval) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "v%d", iv.Value)
	for _, r := range iv.Ranges {
		sb.WriteString(" ")
		sb.WriteString(r.String())
	}
	fmt.Fprintf(&sb, " w=%g", iv.Weight)
	return sb.String()
}

// ValidateIntervals checks every interval and rejects duplicate values.
func ValidateIntervals(intervals []*LiveInterval) error {
	seen := make(map[ValueID]bool, len(intervals))
	for _, iv := range intervals {
		if iv == nil {
			return inputError("nil interval")
		}
		if err := iv.Validate(); err != nil {
			return err
		}
		if seen[iv.Value] {
			return valueError(iv.Value, "duplicate interval")
		}
		seen[iv.Value] = true
	}
	return nil
}

func sortIntervalsByValue(intervals []*LiveInterval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Value < intervals[j].Value
	})
}
