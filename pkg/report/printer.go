// Package report prints allocation models and results as text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/raymyers/ralph-ra/pkg/regalloc"
)

// Printer writes deterministic, human-readable dumps
type Printer struct {
	w     io.Writer
	names map[regalloc.ValueID]string
}

// NewPrinter creates a new printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// WithNames makes the printer show value names next to ids
func (p *Printer) WithNames(names map[regalloc.ValueID]string) *Printer {
	p.names = names
	return p
}

func (p *Printer) value(v regalloc.ValueID) string {
	if name, ok := p.names[v]; ok && name != "" {
		return fmt.Sprintf("v%d(%s)", v, name)
	}
	return fmt.Sprintf("v%d", v)
}

// PrintIntervals prints one interval per line
func (p *Printer) PrintIntervals(name string, intervals []*regalloc.LiveInterval) {
	fmt.Fprintf(p.w, "intervals %s {\n", name)
	for _, iv := range intervals {
		ranges := make([]string, len(iv.Ranges))
		for i, r := range iv.Ranges {
			ranges[i] = r.String()
		}
		fmt.Fprintf(p.w, "  %s: %s weight %g\n", p.value(iv.Value), strings.Join(ranges, " "), iv.Weight)
	}
	fmt.Fprintln(p.w, "}")
}

// PrintGraph prints each node with its neighbors and move partners
func (p *Printer) PrintGraph(name string, g *regalloc.InterferenceGraph) {
	fmt.Fprintf(p.w, "graph %s {\n", name)
	for _, v := range g.Values() {
		fmt.Fprintf(p.w, "  %s: degree %d weight %g", p.value(v), g.Degree(v), g.Weight(v))
		if nb := g.Neighbors(v); len(nb) > 0 {
			fmt.Fprintf(p.w, " interferes %s", p.list(nb))
		}
		if prefs := g.Preferences(v); len(prefs) > 0 {
			fmt.Fprintf(p.w, " moves %s", p.list(prefs))
		}
		fmt.Fprintln(p.w)
	}
	fmt.Fprintln(p.w, "}")
}

// PrintResult prints the assignment sorted by value, then the spills
// in decision order
func (p *Printer) PrintResult(name, strategy string, registers int, res *regalloc.Result) {
	fmt.Fprintf(p.w, "%s (%s, %d registers) {\n", name, strategy, registers)
	for _, v := range res.Values() {
		fmt.Fprintf(p.w, "  %s -> %s\n", p.value(v), res.Assignment[v])
	}
	fmt.Fprintln(p.w, "}")
	if len(res.SpillReport) > 0 {
		fmt.Fprintf(p.w, "spills: %s\n", p.list(res.SpillReport))
	} else {
		fmt.Fprintln(p.w, "spills: none")
	}
	fmt.Fprintf(p.w, "registers used: %d, stack slots: %d", res.Stats.RegistersUsed, res.SlotCount())
	if strategy == regalloc.GraphColoring.String() {
		fmt.Fprintf(p.w, ", cycles: %d, coalesced: %d", res.Stats.Iterations, res.Stats.Coalesced)
	}
	fmt.Fprintln(p.w)
}

func (p *Printer) list(vals []regalloc.ValueID) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = p.value(v)
	}
	return strings.Join(parts, ", ")
}
