package problem

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-ra/pkg/regalloc"
)

// Report is the YAML form of a program's allocation.
type Report struct {
	Functions []FunctionReport `yaml:"functions"`
}

// FunctionReport is the YAML form of one function's allocation.
type FunctionReport struct {
	Name       string       `yaml:"name"`
	Strategy   string       `yaml:"strategy"`
	Registers  int          `yaml:"registers"`
	Assignment []Assignment `yaml:"assignment"`
	Spills     []uint32     `yaml:"spills"`
	Stats      Stats        `yaml:"stats"`
}

// Assignment is one value's location, e.g. "r2" or "slot0".
type Assignment struct {
	Value    uint32 `yaml:"value"`
	Name     string `yaml:"name,omitempty"`
	Location string `yaml:"location"`
}

// Stats mirrors regalloc.Stats
type Stats struct {
	Iterations    int `yaml:"iterations"`
	Coalesced     int `yaml:"coalesced"`
	ColoredNodes  int `yaml:"colored_nodes"`
	RegistersUsed int `yaml:"registers_used"`
	StackSlots    int `yaml:"stack_slots"`
}

// NewFunctionReport builds a report with assignments sorted by value
func NewFunctionReport(name, strategy string, registers int, res *regalloc.Result, names map[regalloc.ValueID]string) FunctionReport {
	fr := FunctionReport{
		Name:      name,
		Strategy:  strategy,
		Registers: registers,
		Spills:    []uint32{},
		Stats: Stats{
			Iterations:    res.Stats.Iterations,
			Coalesced:     res.Stats.Coalesced,
			ColoredNodes:  res.Stats.ColoredNodes,
			RegistersUsed: res.Stats.RegistersUsed,
			StackSlots:    res.SlotCount(),
		},
	}
	for _, v := range res.Values() {
		fr.Assignment = append(fr.Assignment, Assignment{
			Value:    uint32(v),
			Name:     names[v],
			Location: res.Assignment[v].String(),
		})
	}
	for _, v := range res.SpillReport {
		fr.Spills = append(fr.Spills, uint32(v))
	}
	return fr
}

// EncodeReport writes the report as YAML
func EncodeReport(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// DecodeReport reads a YAML report
func DecodeReport(r io.Reader) (*Report, error) {
	var rep Report
	if err := yaml.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &rep, nil
}
