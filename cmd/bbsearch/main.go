// Command bbsearch enumerates Turing machines in Tree Normal Form,
// classifying each one as halting, infinite, or undecided within a fixed
// step budget, and reports the Lazy Beaver / Busy Beaver frontier it
// finds (spec.md §1-§9).
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"

	"bbsearch/internal/config"
	"bbsearch/internal/enumerate"
	"bbsearch/internal/sink"
	"bbsearch/internal/worker"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run implements the full CLI so tests (and a future programmatic caller)
// can drive it without touching process-global os.Args/os.Exit.
func run(args []string, stdout, stderr io.Writer) int {
	p, jsonLog, noColor, useChain, recursive, proveNewRules, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 1
	}

	if err := p.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger := newLogger(stderr, jsonLog)
	printer := newProgressPrinter(stdout, noColor)

	if err := enumerateAndReport(p, useChain, recursive, proveNewRules, logger, printer); err != nil {
		logger.Error("enumeration failed", slog.Any("err", err))
		printer.fatal(err)
		return 1
	}
	return 0
}

// parseFlags maps spec.md §6's positional command surface onto named
// flags (grounded on aclements-go-misc's single-purpose flag.* command
// tools, which give every tool its own flag set in main rather than a
// repo-wide CLI framework).
func parseFlags(args []string, stderr io.Writer) (p config.Params, jsonLog, noColor, useChain, recursive, proveNewRules bool, err error) {
	fs := flag.NewFlagSet("bbsearch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	p = config.Default()
	fs.IntVar(&p.NumStates, "states", 0, "number of states for a fresh enumeration")
	fs.IntVar(&p.NumSymbols, "symbols", 0, "number of symbols for a fresh enumeration")
	fs.StringVar(&p.InStack, "resume", "", "stack snapshot to resume from, instead of -states/-symbols")
	fs.Uint64Var(&p.StepBudget, "budget", 10000, "step budget per machine")
	fs.BoolVar(&p.AllowNoHalt, "allow-no-halt", false, "expand machines even after their last undefined cell")
	fs.StringVar(&p.OutHalt, "out-halt", "halt.log", "halting witness log path")
	fs.StringVar(&p.OutInfinite, "out-infinite", "infinite.log", "infinite witness log path")
	fs.StringVar(&p.OutUndecided, "out-undecided", "undecided.log", "undecided machine log path")
	fs.BoolVar(&p.Compress, "compress", false, "zstd-compress all three output channels")
	fs.BoolVar(&p.OnlyUndecided, "only-undecided", false, "suppress the halting and infinite channels")
	fs.IntVar(&p.NumWorkers, "workers", 1, "number of shared-nothing enumeration workers")
	fs.IntVar(&p.WorkerID, "worker-id", 0, "this process's worker id (recorded only; output file names do not use it)")
	fs.StringVar(&p.SentinelPath, "stop-file", "stop.enumeration", "cooperative shutdown sentinel file")
	fs.BoolVar(&jsonLog, "json-log", false, "emit structured logs as JSON instead of text")
	fs.BoolVar(&noColor, "no-color", false, "disable colorized progress output")
	fs.BoolVar(&useChain, "direct-only", false, "use the byte-tape DirectFilter alone, skipping ChainSimulator/ProofSystem/LinRecurDetector")
	fs.BoolVar(&recursive, "no-recursive-rules", false, "disable the proof system's recursive rule application")
	fs.BoolVar(&proveNewRules, "no-prove-new-rules", false, "disable the proof system's inductive rule-proving pass")

	if err := fs.Parse(args); err != nil {
		return config.Params{}, false, false, false, false, false, err
	}
	// "-direct-only" and the two "-no-..." proof-system flags are all
	// phrased as opt-outs; invert them into the positive sense the rest of
	// this package uses.
	directOnly := useChain
	return p, jsonLog, noColor, !directOnly, !recursive, !proveNewRules, nil
}

func newLogger(w io.Writer, jsonLog bool) *slog.Logger {
	var handler slog.Handler
	if jsonLog {
		handler = slog.NewJSONHandler(w, nil)
	} else {
		handler = slog.NewTextHandler(w, nil)
	}
	return slog.New(handler)
}

// progressPrinter colorizes terminal progress output per SPEC_FULL.md §B:
// halting in green, infinite in blue, undecided/budget-exhausted in
// yellow, fatal diagnostics in red. It never touches the contract-defined
// plain-text witness/log file formats of spec.md §6 -- those are written
// by internal/sink, not here.
type progressPrinter struct {
	halt, inf, undecided, fatalC *color.Color
	w                            io.Writer
}

func newProgressPrinter(w io.Writer, noColor bool) *progressPrinter {
	pp := &progressPrinter{
		halt:      color.New(color.FgGreen),
		inf:       color.New(color.FgBlue),
		undecided: color.New(color.FgYellow),
		fatalC:    color.New(color.FgRed),
		w:         w,
	}
	if noColor {
		color.NoColor = true
	}
	return pp
}

func (p *progressPrinter) progress(stats enumerate.Stats, elapsed time.Duration) {
	p.halt.Fprintf(p.w, "halt=%d ", stats.Halted)
	p.inf.Fprintf(p.w, "infinite=%d ", stats.Infinite)
	p.undecided.Fprintf(p.w, "undecided=%d ", stats.Undecided)
	fmt.Fprintf(p.w, "total=%d (%s) ", stats.Total, elapsed.Round(time.Second))
	fmt.Fprintf(p.w, "lazy_beaver=%s", stats.LazyBeaver())
	if stats.ChampionSteps != nil {
		fmt.Fprintf(p.w, " champion_steps=%s champion_sigma=%s", stats.ChampionSteps, stats.ChampionSigma)
	}
	fmt.Fprintln(p.w)
}

func (p *progressPrinter) fatal(err error) {
	p.fatalC.Fprintf(p.w, "fatal: %v\n", err)
}

// enumerateAndReport builds the worker(s), runs them to completion or
// cooperative shutdown, and prints a final progress line.
func enumerateAndReport(p config.Params, useChain, recursive, proveNewRules bool, logger *slog.Logger, printer *progressPrinter) error {
	seed, numStates, numSymbols, err := seedMachines(p)
	if err != nil {
		return err
	}

	newFilter := func() enumerate.Filter {
		if useChain {
			return enumerate.ChainFilter{Recursive: recursive, ProveNewRules: proveNewRules}
		}
		return enumerate.DirectFilter{}
	}

	shouldStop := worker.Sentinel(p.SentinelPath)
	start := time.Now()
	logger.Info("enumeration starting",
		slog.Int("num_states", numStates), slog.Int("num_symbols", numSymbols),
		slog.Uint64("step_budget", p.StepBudget), slog.Int("workers", p.NumWorkers))

	coord, err := worker.NewCoordinator(seed, p.NumWorkers, newFilter, p.StepBudget, p.AllowNoHalt,
		sinkFactory(p), snapshotPathFactory(p), p.Compress, shouldStop)
	if err != nil {
		return err
	}

	stats, err := coord.Run()
	printer.progress(stats, time.Since(start))
	finishArgs := []any{
		slog.Int("total", stats.Total), slog.Int("halted", stats.Halted),
		slog.Int("infinite", stats.Infinite), slog.Int("undecided", stats.Undecided),
		slog.String("lazy_beaver", stats.LazyBeaver().String()),
	}
	if stats.ChampionSteps != nil {
		finishArgs = append(finishArgs,
			slog.String("champion_steps", stats.ChampionSteps.String()),
			slog.String("champion_sigma", stats.ChampionSigma.String()))
	}
	logger.Info("enumeration finished", finishArgs...)
	return err
}

func seedMachines(p config.Params) (seed []*enumerate.Machine, numStates, numSymbols int, err error) {
	if !p.Resuming() {
		return []*enumerate.Machine{enumerate.NewEmpty(p.NumStates, p.NumSymbols)}, p.NumStates, p.NumSymbols, nil
	}
	machines, err := sink.ReadSnapshotFile(p.InStack, p.NumStates, p.NumSymbols)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading resume stack %s: %w", p.InStack, err)
	}
	return machines, p.NumStates, p.NumSymbols, nil
}

// sinkFactory names each worker's output files by suffixing the
// configured paths with its worker ID when running more than one worker,
// keeping the shared-nothing property of spec.md §5 exact at the file
// level too.
func sinkFactory(p config.Params) func(id int) (enumerate.Sink, io.Closer, error) {
	return func(id int) (enumerate.Sink, io.Closer, error) {
		haltPath, infPath, undecidedPath := p.OutHalt, p.OutInfinite, p.OutUndecided
		if p.NumWorkers > 1 {
			haltPath = workerSuffixed(haltPath, id)
			infPath = workerSuffixed(infPath, id)
			undecidedPath = workerSuffixed(undecidedPath, id)
		}
		w, err := sink.Open(haltPath, infPath, undecidedPath, p.Compress, p.OnlyUndecided)
		if err != nil {
			return nil, nil, err
		}
		return w, w, nil
	}
}

func snapshotPathFactory(p config.Params) func(id int) string {
	return func(id int) string {
		if p.NumWorkers > 1 {
			return workerSuffixed("stack.snapshot", id)
		}
		return "stack.snapshot"
	}
}

func workerSuffixed(path string, id int) string {
	return fmt.Sprintf("%s.%d", path, id)
}
