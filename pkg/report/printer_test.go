package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/raymyers/ralph-ra/pkg/regalloc"
)

func TestPrintIntervals(t *testing.T) {
	intervals := []*regalloc.LiveInterval{
		regalloc.NewLiveInterval(1, 2, regalloc.Range{Start: 0, End: 2}, regalloc.Range{Start: 6, End: 9}),
		regalloc.NewLiveInterval(2, 1, regalloc.Range{Start: 3, End: 5}),
	}

	var buf bytes.Buffer
	NewPrinter(&buf).WithNames(map[regalloc.ValueID]string{1: "x"}).PrintIntervals("f", intervals)

	output := buf.String()
	if !strings.HasPrefix(output, "intervals f {\n") {
		t.Errorf("missing header, got %q", output)
	}
	if !strings.Contains(output, "v1(x): [0,2] [6,9] weight 2") {
		t.Errorf("missing interval for v1, got %q", output)
	}
	if !strings.Contains(output, "v2: [3,5] weight 1") {
		t.Errorf("missing interval for v2, got %q", output)
	}
}

func TestPrintGraph(t *testing.T) {
	g := regalloc.NewInterferenceGraph()
	g.AddNode(1, 1)
	g.AddNode(2, 1)
	g.AddNode(3, 1)
	g.AddEdge(1, 2)
	g.AddPreference(1, 3)

	var buf bytes.Buffer
	NewPrinter(&buf).PrintGraph("f", g)

	output := buf.String()
	for _, want := range []string{
		"v1: degree 1 weight 1 interferes v2 moves v3",
		"v2: degree 1 weight 1 interferes v1",
		"v3: degree 0 weight 1 moves v1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got %q", want, output)
		}
	}
}

func TestPrintResult(t *testing.T) {
	p := &regalloc.Problem{
		Name: "f",
		Intervals: []*regalloc.LiveInterval{
			regalloc.NewLiveInterval(1, 1, regalloc.Range{Start: 0, End: 5}),
			regalloc.NewLiveInterval(2, 1, regalloc.Range{Start: 1, End: 5}),
		},
	}
	res, err := regalloc.Allocate(p, regalloc.Options{Registers: 1, Strategy: regalloc.LinearScan})
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult("f", "linear-scan", 1, res)

	output := buf.String()
	for _, want := range []string{
		"f (linear-scan, 1 registers) {",
		"v1 -> r0",
		"v2 -> slot0",
		"spills: v2",
		"registers used: 1, stack slots: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got %q", want, output)
		}
	}
	if strings.Contains(output, "cycles") {
		t.Errorf("linear scan output should not report cycles, got %q", output)
	}
}
