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

// zstdMagic is the leading four bytes of every zstd frame, used to
// auto-detect a compressed snapshot on read so a resumption run need not
// be told in advance whether -compress produced it.
var zstdMagic = [4]byte{0x28, 0xB5, 0x2F, 0xFD}

// WriteSnapshot writes machines, bottom-to-top stack order, one table per
// line, for §6's stack snapshot.
func WriteSnapshot(w io.Writer, machines []*enumerate.Machine) error {
	for _, m := range machines {
		if err := tm.WriteText(w, m.Table); err != nil {
			return err
		}
	}
	return nil
}

// WriteSnapshotFile writes a stack snapshot to path, optionally
// zstd-compressed, for a worker's cooperative-shutdown flush.
func WriteSnapshotFile(path string, machines []*enumerate.Machine, compress bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sink: snapshot %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if compress {
		zw, zerr := zstd.NewWriter(f)
		if zerr != nil {
			return fmt.Errorf("sink: snapshot %s: %w", path, zerr)
		}
		defer func() {
			if cerr := zw.Close(); err == nil {
				err = cerr
			}
		}()
		w = zw
	}

	bw := bufio.NewWriter(w)
	if err = WriteSnapshot(bw, machines); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadSnapshot parses a stack snapshot from r, rebuilding each Machine's
// TNF bookkeeping from its table contents via enumerate.Rebuild.
func ReadSnapshot(r io.Reader, numStates, numSymbols int) ([]*enumerate.Machine, error) {
	var machines []*enumerate.Machine
	err := tm.ReadTextStream(r, numStates, numSymbols, func(t *tm.Table, _ string) error {
		machines = append(machines, enumerate.Rebuild(t))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return machines, nil
}

// ReadSnapshotFile reads a stack snapshot from path, transparently
// decompressing it if its leading bytes carry the zstd frame magic.
func ReadSnapshotFile(path string, numStates, numSymbols int) ([]*enumerate.Machine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sink: snapshot %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if head, perr := br.Peek(4); perr == nil && [4]byte(head) == zstdMagic {
		zr, zerr := zstd.NewReader(br)
		if zerr != nil {
			return nil, fmt.Errorf("sink: snapshot %s: %w", path, zerr)
		}
		defer zr.Close()
		r = zr
	}
	return ReadSnapshot(r, numStates, numSymbols)
}
