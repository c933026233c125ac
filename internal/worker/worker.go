// Package worker implements the shared-nothing fan-out of spec.md §5: one
// Worker per substack, each owning its own Enumerator, simulators, proof
// caches, and output sink, coordinated only through Coordinator's final
// aggregate Stats -- never through shared state while running.
//
// Grounded on aclements-go-misc/gopool/pool.go's BuildletPool: a
// channel/mutex-guarded pool of independently-owned workers, adapted here
// from "checked-out remote build clients" to "enumeration workers each
// draining a partition of the seed stack."
package worker

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"bbsearch/internal/enumerate"
	"bbsearch/internal/sink"
)

// Worker drains one Enumerator over its own substack, polling a shutdown
// signal at roughly PollInterval granularity (spec.md §5: "observed once
// per ≥~10s of wall time; the exact cadence is not contractual"), and
// flushes a stack snapshot before exiting if work remains.
type Worker struct {
	ID int

	Enum *enumerate.Enumerator

	// SinkCloser is the io.Closer side of the enumerate.Sink passed to
	// Enum; Run closes it on exit regardless of how the drain ended.
	SinkCloser io.Closer

	SnapshotPath string
	Compress     bool

	// ShouldStop reports whether cooperative shutdown has been requested
	// (typically Sentinel's predicate). Nil means never stop early.
	ShouldStop func() bool

	// PollInterval bounds how often ShouldStop is consulted; zero polls
	// on every machine popped, which tests rely on for determinism.
	PollInterval time.Duration
}

// NewWorker builds a Worker with spec.md §5's ~10s polling cadence.
func NewWorker(id int, enum *enumerate.Enumerator, sinkCloser io.Closer, snapshotPath string, compress bool, shouldStop func() bool) *Worker {
	return &Worker{
		ID:           id,
		Enum:         enum,
		SinkCloser:   sinkCloser,
		SnapshotPath: snapshotPath,
		Compress:     compress,
		ShouldStop:   shouldStop,
		PollInterval: 10 * time.Second,
	}
}

// Run drains the worker's substack to completion or until cooperative
// shutdown is observed, in which case the remaining stack is flushed to
// SnapshotPath (spec.md §5's "writes the remaining work stack to the
// designated persistence sink, and exits"). The sink is always closed,
// whether or not a snapshot was written.
func (w *Worker) Run() (err error) {
	defer func() {
		if cerr := w.SinkCloser.Close(); err == nil {
			err = cerr
		}
	}()

	last := time.Now()
	w.Enum.Drain(func() bool {
		if time.Since(last) < w.PollInterval {
			return true
		}
		last = time.Now()
		return w.ShouldStop == nil || !w.ShouldStop()
	})

	if w.Enum.Pending() == 0 {
		return nil
	}
	if err := sink.WriteSnapshotFile(w.SnapshotPath, w.Enum.Snapshot(), w.Compress); err != nil {
		return fmt.Errorf("worker %d: flushing snapshot: %w", w.ID, err)
	}
	return nil
}

// Sentinel returns a predicate reporting whether path exists, for
// cooperative shutdown (spec.md §6 Environment: "a sentinel file name
// (default stop.enumeration) observed in the current directory triggers
// cooperative shutdown").
func Sentinel(path string) func() bool {
	return func() bool {
		_, err := os.Stat(path)
		return err == nil
	}
}

// Coordinator partitions a seed stack across a fixed set of Workers and
// runs them concurrently; per spec.md §5 it never touches a worker's
// substack, simulators, or sink once started -- only Stats cross back.
type Coordinator struct {
	Workers []*Worker
}

// Partition splits seed round-robin into n substacks, preserving each
// machine's relative DFS order within its assigned partition (spec.md §5:
// "ordering within one worker matches the canonical DFS"; cross-worker
// ordering is explicitly undefined).
func Partition(seed []*enumerate.Machine, n int) [][]*enumerate.Machine {
	out := make([][]*enumerate.Machine, n)
	for i, m := range seed {
		out[i%n] = append(out[i%n], m)
	}
	return out
}

// NewCoordinator wires workers with their own DFS stack and a private
// enumerate.Sink built by sinkFor(workerID), the "per-worker output sinks"
// spec.md §5 requires.
func NewCoordinator(
	seed []*enumerate.Machine,
	numWorkers int,
	newFilter func() enumerate.Filter,
	stepBudget uint64,
	allowNoHalt bool,
	sinkFor func(workerID int) (enumerate.Sink, io.Closer, error),
	snapshotPathFor func(workerID int) string,
	compress bool,
	shouldStop func() bool,
) (*Coordinator, error) {
	if numWorkers < 1 {
		return nil, fmt.Errorf("worker: numWorkers must be >= 1, got %d", numWorkers)
	}
	partitions := Partition(seed, numWorkers)

	workers := make([]*Worker, numWorkers)
	for i := range workers {
		sk, closer, err := sinkFor(i)
		if err != nil {
			return nil, fmt.Errorf("worker %d: %w", i, err)
		}
		enum := enumerate.NewEnumerator(newFilter(), stepBudget, allowNoHalt, sk)
		enum.Restore(partitions[i])
		workers[i] = NewWorker(i, enum, closer, snapshotPathFor(i), compress, shouldStop)
	}
	return &Coordinator{Workers: workers}, nil
}

// Run launches every worker concurrently and blocks until all have
// exited, returning the union of their terminal Stats and the first error
// encountered, if any.
func (c *Coordinator) Run() (enumerate.Stats, error) {
	var wg sync.WaitGroup
	errs := make([]error, len(c.Workers))
	wg.Add(len(c.Workers))
	for i, w := range c.Workers {
		go func(i int, w *Worker) {
			defer wg.Done()
			errs[i] = w.Run()
		}(i, w)
	}
	wg.Wait()

	var total enumerate.Stats
	var firstErr error
	for i, w := range c.Workers {
		total.Merge(w.Enum.Stats)
		if errs[i] != nil && firstErr == nil {
			firstErr = errs[i]
		}
	}
	return total, firstErr
}
