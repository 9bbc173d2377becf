package problem

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/raymyers/ralph-ra/pkg/regalloc"
)

const sampleDoc = `
registers: 2
strategy: linear-scan
functions:
  - name: straight
    intervals:
      - value: 1
        name: a
        ranges: [[0, 5]]
      - value: 2
        ranges: [[1, 2], [4, 6]]
        weight: 2.5
      - value: 3
        ranges: [[1, 8]]
        uses: 3
  - name: copies
    strategy: graph-coloring
    liveness:
      - point: 0
        defs: [1]
      - point: 1
        live: [1]
        copy: {dst: 2, src: 1}
      - point: 2
        live: [2]
        uses: [2]
  - name: edges
    values:
      - id: 0
        name: x
      - id: 1
        weight: 4
    edges: [[0, 1]]
    names:
      1: y
`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if doc.Registers == nil || *doc.Registers != 2 {
		t.Errorf("registers: got %v, want 2", doc.Registers)
	}
	if len(doc.Functions) != 3 {
		t.Fatalf("got %d functions, want 3", len(doc.Functions))
	}
	if got := doc.StrategyFor(&doc.Functions[0], "x"); got != "linear-scan" {
		t.Errorf("document strategy: got %q", got)
	}
	if got := doc.StrategyFor(&doc.Functions[1], "x"); got != "graph-coloring" {
		t.Errorf("function strategy: got %q", got)
	}
	empty := &Document{}
	if got := empty.StrategyFor(&doc.Functions[0], "fallback"); got != "fallback" {
		t.Errorf("default strategy: got %q", got)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("functions:\n  - name: f\n    colour: red\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestParseEmpty(t *testing.T) {
	doc, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(doc.Functions) != 0 {
		t.Errorf("empty input should have no functions")
	}
}

func TestFunctionProblemIntervals(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	p, err := doc.Functions[0].Problem()
	if err != nil {
		t.Fatalf("Problem error: %v", err)
	}
	if p.Name != "straight" || len(p.Intervals) != 3 {
		t.Fatalf("got %q with %d intervals", p.Name, len(p.Intervals))
	}

	tests := []struct {
		value  regalloc.ValueID
		ranges []regalloc.Range
		weight float64
	}{
		{1, []regalloc.Range{{Start: 0, End: 5}}, 1},
		{2, []regalloc.Range{{Start: 1, End: 2}, {Start: 4, End: 6}}, 2.5},
		{3, []regalloc.Range{{Start: 1, End: 8}}, 3},
	}
	for i, tt := range tests {
		iv := p.Intervals[i]
		if iv.Value != tt.value || !reflect.DeepEqual(iv.Ranges, tt.ranges) || iv.Weight != tt.weight {
			t.Errorf("interval %d: got %s, want v%d %v w=%g", i, iv, tt.value, tt.ranges, tt.weight)
		}
	}
}

func TestFunctionProblemLiveness(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	p, err := doc.Functions[1].Problem()
	if err != nil {
		t.Fatalf("Problem error: %v", err)
	}
	if len(p.Liveness) != 3 {
		t.Fatalf("got %d points, want 3", len(p.Liveness))
	}
	cp := p.Liveness[1].Copy
	if cp == nil || cp.Dst != 2 || cp.Src != 1 {
		t.Errorf("copy: got %+v, want dst 2 src 1", cp)
	}
}

func TestFunctionProblemEdges(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	fn := &doc.Functions[2]
	p, err := fn.Problem()
	if err != nil {
		t.Fatalf("Problem error: %v", err)
	}
	want := []regalloc.ValueSpec{{ID: 0, Weight: 1}, {ID: 1, Weight: 4}}
	if !reflect.DeepEqual(p.Values, want) {
		t.Errorf("values: got %v, want %v", p.Values, want)
	}
	if !reflect.DeepEqual(p.Edges, [][2]regalloc.ValueID{{0, 1}}) {
		t.Errorf("edges: got %v", p.Edges)
	}
	names := fn.ValueNames()
	if names[0] != "x" || names[1] != "y" {
		t.Errorf("names: got %v", names)
	}
}

func TestFunctionProblemMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"short range", "functions:\n  - name: f\n    intervals:\n      - value: 1\n        ranges: [[3]]\n"},
		{"long edge", "functions:\n  - name: f\n    values: [{id: 1}, {id: 2}]\n    edges: [[1, 2, 3]]\n"},
		{"short move", "functions:\n  - name: f\n    values: [{id: 1}]\n    moves: [[1]]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			_, err = doc.Functions[0].Problem()
			if !errors.Is(err, regalloc.ErrMalformedInput) {
				t.Errorf("got %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestReportRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	fn := &doc.Functions[0]
	p, err := fn.Problem()
	if err != nil {
		t.Fatalf("Problem error: %v", err)
	}
	res, err := regalloc.Allocate(p, regalloc.Options{Registers: 2, Strategy: regalloc.LinearScan})
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}

	fr := NewFunctionReport(fn.Name, "linear-scan", 2, res, fn.ValueNames())
	if len(fr.Assignment) != 3 {
		t.Fatalf("got %d assignments, want 3", len(fr.Assignment))
	}
	if fr.Assignment[0].Name != "a" {
		t.Errorf("first assignment should carry the name a, got %+v", fr.Assignment[0])
	}
	if !reflect.DeepEqual(fr.Spills, []uint32{3}) {
		t.Errorf("spills: got %v, want [3]", fr.Spills)
	}

	var sb strings.Builder
	if err := EncodeReport(&sb, &Report{Functions: []FunctionReport{fr}}); err != nil {
		t.Fatalf("EncodeReport error: %v", err)
	}
	if !strings.Contains(sb.String(), "location: slot0") {
		t.Errorf("encoded report should show slot0, got:\n%s", sb.String())
	}
	back, err := DecodeReport(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("DecodeReport error: %v", err)
	}
	if !reflect.DeepEqual(back.Functions[0], fr) {
		t.Errorf("decoded report differs:\n got %+v\nwant %+v", back.Functions[0], fr)
	}
}
