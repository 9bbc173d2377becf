package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/raymyers/ralph-ra/pkg/config"
	"github.com/raymyers/ralph-ra/pkg/logger"
	"github.com/raymyers/ralph-ra/pkg/problem"
	"github.com/raymyers/ralph-ra/pkg/regalloc"
	"github.com/raymyers/ralph-ra/pkg/report"
)

var version = "0.1.0"

// Debug flags for dumping the derived allocation model
var (
	dIntervals bool
	dGraph     bool
)

// Allocation options
var (
	registers    int
	strategyName string
	noCoalesce   bool
	strict       bool
	verify       bool
	outputFormat string
	logLevel     string
	logFormat    string
)

// ErrVerification indicates an allocation failed its own safety checks
var ErrVerification = errors.New("allocation failed verification")

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	// Accept single-dash dump flags like -dgraph
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists the dump flags that also accept single-dash style
var debugFlagNames = []string{"dintervals", "dgraph"}

// normalizeFlags converts single-dash dump flags like -dgraph to --dgraph
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
		if result[i] == "" {
			result[i] = arg
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	cfg := config.FromEnv()

	rootCmd := &cobra.Command{
		Use:   "ralph-ra [file]",
		Short: "ralph-ra assigns registers to the values of YAML-described functions",
		Long: `ralph-ra reads functions described by live intervals, per-point
liveness or interference edges, and maps every value to a physical
register or a stack slot using linear scan or graph coloring.
Use "-" as the file to read from standard input.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			if err := initLogging(errOut); err != nil {
				fmt.Fprintf(errOut, "ralph-ra: %v\n", err)
				return err
			}
			return doAllocate(cmd, args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	addDebugFlags(rootCmd.Flags())
	addAllocationFlags(rootCmd.Flags(), cfg)

	return rootCmd
}

func addDebugFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&dIntervals, "dintervals", "", false, "Dump live intervals and stop")
	fs.BoolVarP(&dGraph, "dgraph", "", false, "Dump the interference graph and stop")
}

// addAllocationFlags registers the allocation flags with defaults taken
// from the environment
func addAllocationFlags(fs *pflag.FlagSet, cfg config.Config) {
	fs.IntVarP(&registers, "registers", "k", cfg.Registers, "Number of physical registers")
	fs.StringVarP(&strategyName, "strategy", "s", cfg.Strategy, "Allocation strategy (linear-scan or graph-coloring)")
	fs.BoolVar(&noCoalesce, "no-coalesce", !cfg.Coalesce, "Disable move coalescing")
	fs.BoolVar(&strict, "strict", false, "Reject zero registers instead of spilling everything")
	fs.BoolVar(&verify, "verify", false, "Check the result for safety, totality and boundedness")
	fs.StringVarP(&outputFormat, "format", "f", "text", "Output format (text or yaml)")
	fs.StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&logFormat, "log-format", cfg.LogFormat, "Log format (text or json)")
}

func initLogging(errOut io.Writer) error {
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	cfg := logger.DefaultConfig()
	cfg.Level = level
	cfg.Format = logFormat
	cfg.Output = errOut
	return logger.Init(cfg)
}

// registerCount picks the register count: an explicit flag wins over the
// document, which wins over the environment default.
func registerCount(cmd *cobra.Command, doc *problem.Document) int {
	if doc.Registers == nil {
		return registers
	}
	if !cmd.Flags().Changed("registers") {
		return *doc.Registers
	}
	if *doc.Registers != registers {
		logger.Warn("register count from flag overrides document",
			"flag", registers, "document", *doc.Registers)
	}
	return registers
}

// strategyFor picks the strategy for one function the same way
func strategyFor(cmd *cobra.Command, doc *problem.Document, fn *problem.Function) (regalloc.Strategy, error) {
	name := strategyName
	if !cmd.Flags().Changed("strategy") {
		name = doc.StrategyFor(fn, strategyName)
	}
	return regalloc.ParseStrategy(name)
}

// doAllocate loads the document and allocates (or dumps) every function
func doAllocate(cmd *cobra.Command, filename string, out, errOut io.Writer) error {
	if outputFormat != "text" && outputFormat != "yaml" {
		err := fmt.Errorf("unknown output format %q", outputFormat)
		fmt.Fprintf(errOut, "ralph-ra: %v\n", err)
		return err
	}

	doc, err := problem.Load(filename)
	if err != nil {
		fmt.Fprintf(errOut, "ralph-ra: error reading %s: %v\n", filename, err)
		return err
	}

	k := registerCount(cmd, doc)
	var rep problem.Report
	for i := range doc.Functions {
		fn := &doc.Functions[i]
		fr, err := allocateFunction(cmd, doc, fn, k, out)
		if err != nil {
			logger.Error("allocation failed", "function", fn.Name, "error", err)
			fmt.Fprintf(errOut, "ralph-ra: %s: %v\n", fn.Name, err)
			return err
		}
		if fr != nil {
			rep.Functions = append(rep.Functions, *fr)
		}
		if outputFormat == "text" && i < len(doc.Functions)-1 {
			fmt.Fprintln(out)
		}
	}

	if outputFormat == "yaml" && !dIntervals && !dGraph {
		return problem.EncodeReport(out, &rep)
	}
	return nil
}

// allocateFunction handles one function. Dump flags print the derived
// model and return a nil report.
func allocateFunction(cmd *cobra.Command, doc *problem.Document, fn *problem.Function, k int, out io.Writer) (*problem.FunctionReport, error) {
	p, err := fn.Problem()
	if err != nil {
		return nil, err
	}
	printer := report.NewPrinter(out).WithNames(fn.ValueNames())

	if dIntervals || dGraph {
		return nil, dumpModel(printer, p)
	}

	strategy, err := strategyFor(cmd, doc, fn)
	if err != nil {
		return nil, err
	}
	res, err := regalloc.Allocate(p, regalloc.Options{
		Registers:           k,
		Strategy:            strategy,
		DisableCoalescing:   noCoalesce,
		RejectZeroRegisters: strict,
		Logger:              logger.With("component", "regalloc"),
	})
	if err != nil {
		return nil, err
	}
	if verify {
		if err := regalloc.Verify(p, res, k); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVerification, err)
		}
	}
	logger.LogAllocation(fn.Name, strategy.String(), len(res.Assignment), len(res.SpillReport), res.Stats.RegistersUsed)

	if outputFormat == "text" {
		printer.PrintResult(fn.Name, strategy.String(), k, res)
	}
	fr := problem.NewFunctionReport(fn.Name, strategy.String(), k, res, fn.ValueNames())
	return &fr, nil
}

// dumpModel prints the intervals and/or interference graph derived from p
func dumpModel(printer *report.Printer, p *regalloc.Problem) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if dIntervals {
		intervals, err := p.BuildIntervals()
		if err != nil {
			return err
		}
		printer.PrintIntervals(p.Name, intervals)
	}
	if dGraph {
		g, err := p.BuildGraph()
		if err != nil {
			return err
		}
		printer.PrintGraph(p.Name, g)
	}
	return nil
}
