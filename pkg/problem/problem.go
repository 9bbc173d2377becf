// Package problem reads allocation problems from YAML documents and writes
// allocation reports back as YAML.
package problem

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-ra/pkg/regalloc"
)

// Document is a program: a list of functions sharing defaults.
type Document struct {
	Registers *int       `yaml:"registers,omitempty"`
	Strategy  string     `yaml:"strategy,omitempty"`
	Functions []Function `yaml:"functions"`
}

// Function is the input for one allocation.
type Function struct {
	Name      string            `yaml:"name"`
	Strategy  string            `yaml:"strategy,omitempty"`
	Intervals []Interval        `yaml:"intervals,omitempty"`
	Liveness  []Point           `yaml:"liveness,omitempty"`
	Values    []Value           `yaml:"values,omitempty"`
	Edges     [][]uint32        `yaml:"edges,omitempty"`
	Moves     [][]uint32        `yaml:"moves,omitempty"`
	Names     map[uint32]string `yaml:"names,omitempty"`
}

// Interval is a value's live ranges, each written as [start, end].
type Interval struct {
	Value  uint32     `yaml:"value"`
	Name   string     `yaml:"name,omitempty"`
	Ranges [][]uint32 `yaml:"ranges"`
	Weight *float64   `yaml:"weight,omitempty"`
	Uses   int        `yaml:"uses,omitempty"`
}

// Point is the liveness at one program point.
type Point struct {
	Point uint32   `yaml:"point"`
	Live  []uint32 `yaml:"live,omitempty"`
	Defs  []uint32 `yaml:"defs,omitempty"`
	Uses  []uint32 `yaml:"uses,omitempty"`
	Copy  *Copy    `yaml:"copy,omitempty"`
}

// Copy is a move dst <- src.
type Copy struct {
	Dst uint32 `yaml:"dst"`
	Src uint32 `yaml:"src"`
}

// Value declares a node for edge-list input.
type Value struct {
	ID     uint32   `yaml:"id"`
	Name   string   `yaml:"name,omitempty"`
	Weight *float64 `yaml:"weight,omitempty"`
}

// Decode reads a YAML document
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &doc, nil
		}
		return nil, fmt.Errorf("decoding problem: %w", err)
	}
	return &doc, nil
}

// Parse decodes a YAML document held in memory
func Parse(data []byte) (*Document, error) {
	return Decode(bytes.NewReader(data))
}

// Load reads a YAML document from a file, or from stdin when path is "-"
func Load(path string) (*Document, error) {
	if path == "-" {
		return Decode(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// StrategyFor returns the function's strategy, falling back to the
// document's and then to def.
func (d *Document) StrategyFor(fn *Function, def string) string {
	if fn.Strategy != "" {
		return fn.Strategy
	}
	if d.Strategy != "" {
		return d.Strategy
	}
	return def
}

// Problem converts the function into allocator input
func (fn *Function) Problem() (*regalloc.Problem, error) {
	p := &regalloc.Problem{Name: fn.Name}

	for _, iv := range fn.Intervals {
		li := regalloc.NewLiveInterval(regalloc.ValueID(iv.Value), regalloc.DefaultWeight(iv.Uses))
		if iv.Weight != nil {
			li.Weight = *iv.Weight
		}
		for _, r := range iv.Ranges {
			if len(r) != 2 {
				return nil, fmt.Errorf("function %q: value %d: range %v must be [start, end]: %w",
					fn.Name, iv.Value, r, regalloc.ErrMalformedInput)
			}
			li.Ranges = append(li.Ranges, regalloc.Range{Start: r[0], End: r[1]})
		}
		p.Intervals = append(p.Intervals, li)
	}

	for _, pt := range fn.Liveness {
		pp := regalloc.ProgramPoint{
			Point: pt.Point,
			Live:  valueIDs(pt.Live),
			Defs:  valueIDs(pt.Defs),
			Uses:  valueIDs(pt.Uses),
		}
		if pt.Copy != nil {
			pp.Copy = &regalloc.Copy{Dst: regalloc.ValueID(pt.Copy.Dst), Src: regalloc.ValueID(pt.Copy.Src)}
		}
		p.Liveness = append(p.Liveness, pp)
	}

	for _, v := range fn.Values {
		w := 1.0
		if v.Weight != nil {
			w = *v.Weight
		}
		p.Values = append(p.Values, regalloc.ValueSpec{ID: regalloc.ValueID(v.ID), Weight: w})
	}

	var err error
	if p.Edges, err = pairs(fn.Name, "edge", fn.Edges); err != nil {
		return nil, err
	}
	if p.Moves, err = pairs(fn.Name, "move", fn.Moves); err != nil {
		return nil, err
	}
	return p, nil
}

// ValueNames collects the display names given to values
func (fn *Function) ValueNames() map[regalloc.ValueID]string {
	names := make(map[regalloc.ValueID]string)
	for id, name := range fn.Names {
		names[regalloc.ValueID(id)] = name
	}
	for _, iv := range fn.Intervals {
		if iv.Name != "" {
			names[regalloc.ValueID(iv.Value)] = iv.Name
		}
	}
	for _, v := range fn.Values {
		if v.Name != "" {
			names[regalloc.ValueID(v.ID)] = v.Name
		}
	}
	return names
}

func valueIDs(ids []uint32) []regalloc.ValueID {
	if ids == nil {
		return nil
	}
	out := make([]regalloc.ValueID, len(ids))
	for i, id := range ids {
		out[i] = regalloc.ValueID(id)
	}
	return out
}

func pairs(fnName, what string, raw [][]uint32) ([][2]regalloc.ValueID, error) {
	var out [][2]regalloc.ValueID
	for _, e := range raw {
		if len(e) != 2 {
			return nil, fmt.Errorf("function %q: %s %v must name exactly two values: %w",
				fnName, what, e, regalloc.ErrMalformedInput)
		}
		out = append(out, [2]regalloc.ValueID{regalloc.ValueID(e[0]), regalloc.ValueID(e[1])})
	}
	return out, nil
}
