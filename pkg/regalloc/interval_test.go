package regalloc

import (
	"errors"
	"testing"
)

func TestRangeOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Range
		want bool
	}{
		{"disjoint", Range{0, 2}, Range{3, 5}, false},
		{"touching end point", Range{0, 3}, Range{3, 5}, true},
		{"contained", Range{0, 10}, Range{3, 5}, true},
		{"same point", Range{4, 4}, Range{4, 4}, true},
		{"reversed order", Range{6, 9}, Range{0, 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("%s.Overlaps(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("%s.Overlaps(%s) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestLiveIntervalOverlaps(t *testing.T) {
	holey := NewLiveInterval(1, 1, Range{0, 2}, Range{6, 9})

	tests := []struct {
		name  string
		other *LiveInterval
		want  bool
	}{
		{"inside hole", NewLiveInterval(2, 1, Range{3, 5}), false},
		{"touches first range", NewLiveInterval(2, 1, Range{2, 4}), true},
		{"touches second range", NewLiveInterval(2, 1, Range{4, 6}), true},
		{"after", NewLiveInterval(2, 1, Range{10, 12}), false},
		{"interleaved holes", NewLiveInterval(2, 1, Range{3, 4}, Range{10, 11}), false},
		{"interleaved overlap", NewLiveInterval(2, 1, Range{3, 4}, Range{8, 11}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := holey.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := tt.other.Overlaps(holey); got != tt.want {
				t.Errorf("reverse Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLiveIntervalBounds(t *testing.T) {
	iv := NewLiveInterval(7, 2, Range{0, 2}, Range{6, 9})
	if iv.Start() != 0 || iv.End() != 9 {
		t.Errorf("bounds: got [%d,%d], want [0,9]", iv.Start(), iv.End())
	}
	for _, p := range []uint32{0, 2, 6, 9} {
		if !iv.Covers(p) {
			t.Errorf("should cover %d", p)
		}
	}
	for _, p := range []uint32{3, 5, 10} {
		if iv.Covers(p) {
			t.Errorf("should not cover %d", p)
		}
	}
	if got, want := iv.String(), "v7 [0,2] [6,9] w=2"; got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}

func TestLiveIntervalConsume(t *testing.T) {
	iv := NewLiveInterval(1, 1, Range{0, 2}, Range{6, 9})
	if iv.consume(2) {
		t.Error("interval should not be exhausted at 2")
	}
	if iv.consume(4) {
		t.Error("interval should not be exhausted in its hole")
	}
	if iv.current() != (Range{6, 9}) {
		t.Errorf("current after hole: got %s, want [6,9]", iv.current())
	}
	if !iv.consume(10) {
		t.Error("interval should be exhausted after its last range")
	}
}

func TestDefaultWeight(t *testing.T) {
	if DefaultWeight(0) != 1 || DefaultWeight(-3) != 1 {
		t.Error("weight should be at least 1")
	}
	if DefaultWeight(4) != 4 {
		t.Errorf("DefaultWeight(4) = %v, want 4", DefaultWeight(4))
	}
}

func TestValidateIntervals(t *testing.T) {
	tests := []struct {
		name      string
		intervals []*LiveInterval
		wantErr   bool
	}{
		{"valid", []*LiveInterval{
			NewLiveInterval(1, 1, Range{0, 2}, Range{4, 5}),
			NewLiveInterval(2, 1, Range{1, 1}),
		}, false},
		{"no ranges", []*LiveInterval{NewLiveInterval(1, 1)}, true},
		{"inverted range", []*LiveInterval{NewLiveInterval(1, 1, Range{5, 2})}, true},
		{"overlapping ranges", []*LiveInterval{NewLiveInterval(1, 1, Range{0, 4}, Range{4, 6})}, true},
		{"unordered ranges", []*LiveInterval{NewLiveInterval(1, 1, Range{6, 8}, Range{0, 2})}, true},
		{"negative weight", []*LiveInterval{NewLiveInterval(1, -1, Range{0, 2})}, true},
		{"duplicate value", []*LiveInterval{
			NewLiveInterval(1, 1, Range{0, 2}),
			NewLiveInterval(1, 1, Range{4, 6}),
		}, true},
		{"nil interval", []*LiveInterval{nil}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIntervals(tt.intervals)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateIntervals error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedInput) {
				t.Errorf("error should wrap ErrMalformedInput, got %v", err)
			}
		})
	}
}

func TestInputErrorNamesValue(t *testing.T) {
	err := ValidateIntervals([]*LiveInterval{NewLiveInterval(42, 1, Range{3, 1})})
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected *InputError, got %T", err)
	}
	if !inputErr.HasValue || inputErr.Value != 42 {
		t.Errorf("error should name value 42, got %+v", inputErr)
	}
}
