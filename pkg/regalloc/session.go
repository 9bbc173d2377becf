package regalloc

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raymyers/ralph-ra/pkg/logger"
)

// Strategy selects the allocation algorithm.
type Strategy int

const (
	GraphColoring Strategy = iota
	LinearScan
)

func (s Strategy) String() string {
	switch s {
	case GraphColoring:
		return "graph-coloring"
	case LinearScan:
		return "linear-scan"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts "linear-scan"/"linear" and "graph-coloring"/"coloring"/"graph".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear-scan", "linearscan", "linear":
		return LinearScan, nil
	case "graph-coloring", "graphcoloring", "coloring", "graph":
		return GraphColoring, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Options configures one allocation.
type Options struct {
	Registers int
	Strategy  Strategy
	// DisableCoalescing turns off move coalescing in graph coloring
	DisableCoalescing bool
	// RejectZeroRegisters makes Registers == 0 an input error instead of
	// spilling everything
	RejectZeroRegisters bool
	Logger              *slog.Logger
}

// ErrSessionUsed is returned when a session is run twice.
var ErrSessionUsed = errors.New("allocation session already used")

// AllocationSession owns the model (intervals or graph) and the register
// pool for exactly one allocation attempt. Nothing it holds is shared with
// the Problem it was built from.
type AllocationSession struct {
	problem   *Problem
	opts      Options
	intervals []*LiveInterval
	graph     *InterferenceGraph
	log       *slog.Logger
	used      bool
}

// NewSession validates the problem and builds the model the selected
// strategy consumes.
func NewSession(p *Problem, opts Options) (*AllocationSession, error) {
	if opts.Registers < 0 {
		return nil, inputError("negative register count %d", opts.Registers)
	}
	if opts.Registers == 0 && opts.RejectZeroRegisters {
		return nil, inputError("no registers available")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logger.With("component", "regalloc")
	}
	s := &AllocationSession{
		problem: p,
		opts:    opts,
		log:     log.With("function", p.Name, "strategy", opts.Strategy.String()),
	}

	var err error
	switch opts.Strategy {
	case LinearScan:
		s.intervals, err = p.BuildIntervals()
	case GraphColoring:
		s.graph, err = p.BuildGraph()
	default:
		err = fmt.Errorf("%w: %v", ErrUnknownStrategy, opts.Strategy)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Intervals returns the session's private intervals (linear scan only)
func (s *AllocationSession) Intervals() []*LiveInterval {
	return s.intervals
}

// Graph returns the session's private interference graph (graph coloring
// only). Coloring runs on a copy, so the graph is unchanged after Run.
func (s *AllocationSession) Graph() *InterferenceGraph {
	return s.graph
}

// Run performs the allocation. A session can only be run once.
func (s *AllocationSession) Run() (*Result, error) {
	if s.used {
		return nil, ErrSessionUsed
	}
	s.used = true

	var res *Result
	switch s.opts.Strategy {
	case LinearScan:
		res = s.linearScan()
	default:
		res = s.color()
	}
	res.Stats.RegistersUsed = res.registersUsed()
	invariant(res.Stats.RegistersUsed <= s.opts.Registers, "%d registers used, only %d available",
		res.Stats.RegistersUsed, s.opts.Registers)
	s.log.Debug("allocation complete",
		"values", len(res.Assignment),
		"spills", len(res.SpillReport),
		"registers_used", res.Stats.RegistersUsed)
	return res, nil
}

// Allocate builds a session for p and runs it.
func Allocate(p *Problem, opts Options) (*Result, error) {
	s, err := NewSession(p, opts)
	if err != nil {
		return nil, err
	}
	return s.Run()
}

// AllocateProgram allocates each function with its own session and
// returns the results in the same order.
func AllocateProgram(fns []*Problem, opts Options) ([]*Result, error) {
	results := make([]*Result, 0, len(fns))
	for _, fn := range fns {
		res, err := Allocate(fn, opts)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", fn.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}
