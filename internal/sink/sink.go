// Package sink implements the three work sinks of spec.md §6 (halting,
// infinite, undecided), the stack snapshot used to resume an interrupted
// enumeration, and optional transparent zstd compression across all of
// them. Writer implements enumerate.Sink directly, so internal/enumerate
// never imports this package -- the same split chain.ProofHook draws
// between internal/chain and internal/proof.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"bbsearch/internal/enumerate"
	"bbsearch/internal/tm"
)

// channel owns one output file and the (possibly zstd-wrapped) buffered
// writer layered over it. A nil *channel is a no-op sink, used when
// onlyUndecided suppresses the halting/infinite channels.
type channel struct {
	f  *os.File
	zw *zstd.Encoder
	w  *bufio.Writer
}

func openChannel(path string, compress bool) (*channel, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sink: opening %s: %w", path, err)
	}
	var underlying io.Writer = f
	var zw *zstd.Encoder
	if compress {
		zw, err = zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("sink: compressing %s: %w", path, err)
		}
		underlying = zw
	}
	return &channel{f: f, zw: zw, w: bufio.NewWriter(underlying)}, nil
}

func (c *channel) writeLine(line string) error {
	if c == nil {
		return nil
	}
	_, err := fmt.Fprintln(c.w, line)
	return err
}

func (c *channel) Close() error {
	if c == nil {
		return nil
	}
	if err := c.w.Flush(); err != nil {
		return err
	}
	if c.zw != nil {
		if err := c.zw.Close(); err != nil {
			return err
		}
	}
	return c.f.Close()
}

// Writer fans enumerate.Enumerator's verdicts out to the three files named
// on the command line (spec.md §6's "Work sinks"), rendering each table
// with tm.Text and each line in the exact form §6 specifies.
type Writer struct {
	halt, infinite, undecided *channel

	// writeErr latches the first write error from any channel. Sink's
	// methods have no error return (enumerate.Enumerator never checks
	// one per machine), so a failed write is recorded here instead and
	// surfaces at the next WriteErr or Close call.
	writeErr error
}

// Open creates the three output files. When onlyUndecided is set, the
// halting and infinite channels are left nil and every call to Halt or
// Infinite is a no-op (spec.md §6: "only_undecided suppresses the first
// two channels, for runs that only want the Lazy Beaver frontier"). When
// compress is set, every channel is wrapped in a zstd.Encoder.
func Open(haltPath, infinitePath, undecidedPath string, compress, onlyUndecided bool) (*Writer, error) {
	w := &Writer{}
	var err error
	if !onlyUndecided {
		if w.halt, err = openChannel(haltPath, compress); err != nil {
			return nil, err
		}
		if w.infinite, err = openChannel(infinitePath, compress); err != nil {
			w.halt.Close()
			return nil, err
		}
	}
	if w.undecided, err = openChannel(undecidedPath, compress); err != nil {
		w.halt.Close()
		w.infinite.Close()
		return nil, err
	}
	return w, nil
}

// Close flushes and closes every open channel, returning the first error
// encountered -- a latched write error takes priority over a close error,
// since it points at the earlier failure.
func (w *Writer) Close() error {
	firstErr := w.writeErr
	for _, c := range []*channel{w.halt, w.infinite, w.undecided} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WriteErr reports the first write error latched by Halt, Infinite, or
// Undecided, if any.
func (w *Writer) WriteErr() error { return w.writeErr }

func (w *Writer) record(err error) {
	if err != nil && w.writeErr == nil {
		w.writeErr = err
	}
}

var _ enumerate.Sink = (*Writer)(nil)

// Halt writes "<table> Halt <steps> <sigma>" to the halting channel.
// witness is the table with any implicit halt cell already materialized
// by Enumerator, so the table text always reflects a complete halting
// machine even when the verdict arose from an UndefinedTransition rather
// than an explicit Halt transition.
func (w *Writer) Halt(_ *enumerate.Machine, witness *tm.Table, outcome enumerate.Outcome) {
	w.record(w.halt.writeLine(fmt.Sprintf("%s Halt %s %s", tm.Text(witness), outcome.Steps, outcome.Sigma)))
}

// Infinite writes one line to the infinite channel. A Lin_Recur verdict
// carries its period/offset/start_step, formatted exactly as
// lin_recur_enumerator.cpp's own output stream does (a bare "<" precedes
// start_step; it is not a placeholder delimiter, just how the original
// punctuates the line and spec.md preserves verbatim). Every other reason
// is reported as a bare tag with no further fields.
func (w *Writer) Infinite(m *enumerate.Machine, outcome enumerate.Outcome) {
	text := tm.Text(m.Table)
	if outcome.Reason == enumerate.ReasonLinRecur {
		w.record(w.infinite.writeLine(fmt.Sprintf("%s Lin_Recur %d %d <%d",
			text, outcome.Period, outcome.Offset, outcome.StartStep)))
		return
	}
	w.record(w.infinite.writeLine(fmt.Sprintf("%s %s", text, outcome.Reason)))
}

// Undecided writes the bare table text to the undecided channel.
func (w *Writer) Undecided(m *enumerate.Machine) {
	w.record(w.undecided.writeLine(tm.Text(m.Table)))
}
