package sink

import (
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"bbsearch/internal/enumerate"
	"bbsearch/internal/tm"
)

func bb2Table() *tm.Table {
	return tm.NewTable(2, 2).
		WithCell(0, 0, tm.NewTransition(1, tm.Right, 1)).
		WithCell(0, 1, tm.NewTransition(1, tm.Left, 1)).
		WithCell(1, 0, tm.NewTransition(1, tm.Left, 0)).
		WithCell(1, 1, tm.NewTransition(1, tm.Right, tm.Halt))
}

func readAll(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWriterHaltLine(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "halt"), filepath.Join(dir, "inf"), filepath.Join(dir, "undecided"), false, false)
	require.NoError(t, err)

	table := bb2Table()
	m := &enumerate.Machine{Table: table}
	w.Halt(m, table, enumerate.Outcome{Steps: big.NewInt(6), Sigma: big.NewInt(4)})
	require.NoError(t, w.Close())

	got := strings.TrimRight(readAll(t, filepath.Join(dir, "halt")), "\n")
	want := tm.Text(table) + " Halt 6 4"
	require.Equal(t, want, got)
}

func TestWriterInfiniteLinRecurLine(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "halt"), filepath.Join(dir, "inf"), filepath.Join(dir, "undecided"), false, false)
	require.NoError(t, err)

	table := tm.NewTable(3, 2)
	m := &enumerate.Machine{Table: table}
	w.Infinite(m, enumerate.Outcome{Reason: enumerate.ReasonLinRecur, Period: 5, Offset: 2, StartStep: 21})
	require.NoError(t, w.Close())

	got := strings.TrimRight(readAll(t, filepath.Join(dir, "inf")), "\n")
	want := tm.Text(table) + " Lin_Recur 5 2 <21"
	require.Equal(t, want, got)
}

func TestWriterInfiniteBareReasonLine(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "halt"), filepath.Join(dir, "inf"), filepath.Join(dir, "undecided"), false, false)
	require.NoError(t, err)

	table := tm.NewTable(1, 2)
	m := &enumerate.Machine{Table: table}
	w.Infinite(m, enumerate.Outcome{Reason: enumerate.ReasonTrivialSweep})
	require.NoError(t, w.Close())

	got := strings.TrimRight(readAll(t, filepath.Join(dir, "inf")), "\n")
	require.Equal(t, tm.Text(table)+" Trivial_Sweep", got)
}

func TestWriterUndecidedLine(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "halt"), filepath.Join(dir, "inf"), filepath.Join(dir, "undecided"), false, false)
	require.NoError(t, err)

	table := tm.NewTable(2, 2)
	w.Undecided(&enumerate.Machine{Table: table})
	require.NoError(t, w.Close())

	got := strings.TrimRight(readAll(t, filepath.Join(dir, "undecided")), "\n")
	require.Equal(t, tm.Text(table), got)
}

func TestOnlyUndecidedSuppressesHaltAndInfiniteChannels(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "halt"), filepath.Join(dir, "inf"), filepath.Join(dir, "undecided"), false, true)
	require.NoError(t, err)

	table := bb2Table()
	m := &enumerate.Machine{Table: table}
	w.Halt(m, table, enumerate.Outcome{Steps: big.NewInt(6), Sigma: big.NewInt(4)})
	w.Infinite(m, enumerate.Outcome{Reason: enumerate.ReasonTrivialSweep})
	w.Undecided(m)
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(dir, "halt"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "inf"))
	require.True(t, os.IsNotExist(err))
	require.Equal(t, tm.Text(table), strings.TrimRight(readAll(t, filepath.Join(dir, "undecided")), "\n"))
}

func TestCompressedChannelIsZstdFramedAndDecompresses(t *testing.T) {
	dir := t.TempDir()
	haltPath := filepath.Join(dir, "halt.zst")
	w, err := Open(haltPath, filepath.Join(dir, "inf.zst"), filepath.Join(dir, "undecided.zst"), true, false)
	require.NoError(t, err)

	table := bb2Table()
	w.Halt(&enumerate.Machine{Table: table}, table, enumerate.Outcome{Steps: big.NewInt(6), Sigma: big.NewInt(4)})
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(haltPath)
	require.NoError(t, err)
	require.True(t, len(raw) >= 4)
	require.Equal(t, zstdMagic[:], raw[:4])

	f, err := os.Open(haltPath)
	require.NoError(t, err)
	defer f.Close()
	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()
	decoded, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, tm.Text(table)+" Halt 6 4\n", string(decoded))
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stack")

	m1 := enumerate.NewEmpty(2, 2)
	m2 := enumerate.Rebuild(bb2Table())
	require.NoError(t, WriteSnapshotFile(path, []*enumerate.Machine{m1, m2}, false))

	got, err := ReadSnapshotFile(path, 2, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, tm.Text(m1.Table), tm.Text(got[0].Table))
	require.Equal(t, tm.Text(m2.Table), tm.Text(got[1].Table))

	// Rebuild recovers TNF bookkeeping from the fully-defined table.
	require.True(t, got[1].NextMoveLeftOK)
	require.Equal(t, tm.State(1), got[1].MaxNextState)
}

func TestSnapshotRoundTripCompressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stack.zst")

	m := enumerate.Rebuild(bb2Table())
	require.NoError(t, WriteSnapshotFile(path, []*enumerate.Machine{m}, true))

	got, err := ReadSnapshotFile(path, 2, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, tm.Text(m.Table), tm.Text(got[0].Table))
}
