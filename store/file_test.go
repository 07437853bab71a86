package store_test

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ozontech/seq-features/codec"
	"github.com/ozontech/seq-features/disk"
	"github.com/ozontech/seq-features/feature"
	"github.com/ozontech/seq-features/indexer"
	"github.com/ozontech/seq-features/logger"
	"github.com/ozontech/seq-features/store"
)

const testBED = "track name=test\n" +
	"chr1\t99\t200\tr1\n" +
	"chr1\t149\t300\tr2\n" +
	"chr1\t1499\t1600\tr3\n" +
	"chr2\t0\t10\tr4\n" +
	"chr2\t5\t7\tr5\n"

func writeBED(t *testing.T, content string, index bool) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.bed")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	if index {
		level := logger.Level()
		logger.SetLevel(zapcore.WarnLevel)
		defer logger.SetLevel(level)

		_, err := indexer.Build(path, codec.BED{}, indexer.Params{ChunkSize: 16, Compression: disk.CodecZSTD})
		require.NoError(t, err)
	}
	return path
}

func names(t *testing.T, it store.Iterator[*feature.BED]) []string {
	t.Helper()

	var res []string
	for f := range store.All(it) {
		res = append(res, f.Name)
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())
	return res
}

func TestOpenErrors(t *testing.T) {
	_, err := store.Open(filepath.Join(t.TempDir(), "missing.bed"), codec.BED{})
	assert.ErrorIs(t, err, store.ErrCouldNotReadInput)

	_, err = store.Open(t.TempDir(), codec.BED{})
	assert.ErrorIs(t, err, store.ErrCouldNotReadInput)

	path := writeBED(t, testBED, false)
	require.NoError(t, os.WriteFile(store.IndexPath(path), []byte("garbage garbage garbage"), 0o644))
	_, err = store.Open(path, codec.BED{})
	assert.ErrorIs(t, err, disk.ErrBadIndex)
}

func TestStaleIndex(t *testing.T) {
	path := writeBED(t, testBED, true)
	require.NoError(t, os.WriteFile(path, []byte(testBED+"chr3\t1\t2\tr6\n"), 0o644))

	_, err := store.Open(path, codec.BED{})
	assert.ErrorIs(t, err, disk.ErrBadIndex)
}

func TestIterate(t *testing.T) {
	f, err := store.Open(writeBED(t, testBED, false), codec.BED{})
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, f.HasIndex())
	assert.Nil(t, f.Index())

	it, err := f.Iterate()
	require.NoError(t, err)
	assert.True(t, f.IsIterating())
	assert.Equal(t, []string{"r1", "r2", "r3", "r4", "r5"}, names(t, it))
	assert.False(t, f.IsIterating())

	// restartable by opening a new iteration
	it, err = f.Iterate()
	require.NoError(t, err)
	assert.Len(t, names(t, it), 5)
}

func TestSingleIteration(t *testing.T) {
	f, err := store.Open(writeBED(t, testBED, true), codec.BED{})
	require.NoError(t, err)
	defer f.Close()

	it, err := f.Iterate()
	require.NoError(t, err)

	_, err = f.Iterate()
	assert.ErrorIs(t, err, store.ErrIterationInProgress)
	_, err = f.Query("chr1", 1, 100)
	assert.ErrorIs(t, err, store.ErrIterationInProgress)

	require.NoError(t, it.Close())
	require.NoError(t, it.Close())
	assert.False(t, it.Next())

	it, err = f.Query("chr1", 1, 100)
	require.NoError(t, err)
	require.NoError(t, it.Close())
}

func TestQuery(t *testing.T) {
	f, err := store.Open(writeBED(t, testBED, true), codec.BED{})
	require.NoError(t, err)
	defer f.Close()

	require.True(t, f.HasIndex())
	assert.Equal(t, []string{"chr1", "chr2"}, f.Index().Contigs())

	query := func(contig string, start, stop int64) []string {
		it, err := f.Query(contig, start, stop)
		require.NoError(t, err)
		return names(t, it)
	}

	assert.Equal(t, []string{"r1", "r2"}, query("chr1", 100, 210))
	assert.Equal(t, []string{"r2"}, query("chr1", 201, 250))
	assert.Equal(t, []string{"r3"}, query("chr1", 1000, 1600))
	assert.Equal(t, []string{"r1", "r2", "r3"}, query("chr1", 1, 1<<40))
	assert.Nil(t, query("chr1", 301, 1499))
	assert.Equal(t, []string{"r4", "r5"}, query("chr2", 7, 7))
	assert.Equal(t, []string{"r4"}, query("chr2", 8, 10))
	assert.Nil(t, query("chrM", 1, 100))
}

func TestQueryWithoutIndex(t *testing.T) {
	f, err := store.Open(writeBED(t, testBED, false), codec.BED{})
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Query("chr1", 1, 100)
	assert.ErrorIs(t, err, store.ErrNoIndex)
	assert.False(t, f.IsIterating())
}

func TestDecodeError(t *testing.T) {
	f, err := store.Open(writeBED(t, "chr1\t1\t2\tok\nchr1\tbroken\n", false), codec.BED{})
	require.NoError(t, err)
	defer f.Close()

	it, err := f.Iterate()
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next())
	assert.Equal(t, "ok", it.Feature().Name)
	assert.False(t, it.Next())
	require.Error(t, it.Err())
	assert.Contains(t, it.Err().Error(), "byte 12")
}

func TestClose(t *testing.T) {
	f, err := store.Open(writeBED(t, testBED, true), codec.BED{})
	require.NoError(t, err)

	it, err := f.Iterate()
	require.NoError(t, err)

	require.NoError(t, f.Close())
	assert.False(t, f.IsIterating())
	assert.False(t, it.Next())

	assert.ErrorIs(t, f.Close(), store.ErrClosed)
	_, err = f.Iterate()
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestLargeFile(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		sb.WriteString("chr1\t")
		sb.WriteString(strconv.Itoa(i * 10))
		sb.WriteString("\t")
		sb.WriteString(strconv.Itoa(i*10 + 25))
		sb.WriteString("\tf")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString("\n")
	}

	f, err := store.Open(writeBED(t, sb.String(), true), codec.BED{})
	require.NoError(t, err)
	defer f.Close()

	// features f1998 (ends 20005) up to f2002 (starts 20021) overlap [20001, 20030]
	it, err := f.Query("chr1", 20001, 20030)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1998", "f1999", "f2000", "f2001", "f2002"}, names(t, it))
}
