package feature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInterval(t *testing.T) {
	i, err := NewInterval("chr1", 10, 20)
	require.NoError(t, err)
	assert.Equal(t, "chr1", i.Contig())
	assert.Equal(t, int64(10), i.Start())
	assert.Equal(t, int64(20), i.Stop())
	assert.Equal(t, int64(11), i.Size())
	assert.Equal(t, "chr1:10-20", i.String())

	_, err = NewInterval("chr1", 21, 20)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewInterval("", 1, 2)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	assert.Panics(t, func() { MustInterval("chr1", 5, 4) })
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in    string
		want  Interval
		isErr bool
	}{
		{in: "chr1:100-200", want: MustInterval("chr1", 100, 200)},
		{in: "chr1:1,000-2,000", want: MustInterval("chr1", 1000, 2000)},
		{in: "chrX:42", want: MustInterval("chrX", 42, 42)},
		{in: "chr2", want: MustInterval("chr2", 1, math.MaxInt64)},
		{in: "HLA-A*01:01:100-200", want: MustInterval("HLA-A*01:01", 100, 200)},
		{in: "chr1:abc", isErr: true},
		{in: "chr1:10-x", isErr: true},
		{in: "chr1:20-10", isErr: true},
	}

	for _, tc := range tests {
		got, err := ParseInterval(tc.in)
		if tc.isErr {
			assert.ErrorIs(t, err, ErrInvalidInterval, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestOverlaps(t *testing.T) {
	i := MustInterval("chr1", 100, 200)

	assert.True(t, i.Overlaps(&BED{Chrom: "chr1", ChromStart: 199, ChromEnd: 300})) // starts at 200
	assert.False(t, i.Overlaps(&BED{Chrom: "chr1", ChromStart: 200, ChromEnd: 300}))
	assert.True(t, i.Overlaps(&Table{Chrom: "chr1", From: 50, To: 100}))
	assert.False(t, i.Overlaps(&Table{Chrom: "chr1", From: 50, To: 99}))
	assert.False(t, i.Overlaps(&Table{Chrom: "chr2", From: 150, To: 160}))
}

func TestBEDCoordinates(t *testing.T) {
	b := &BED{Chrom: "chr1", ChromStart: 0, ChromEnd: 10, Name: "x"}
	assert.Equal(t, int64(1), b.Start())
	assert.Equal(t, int64(10), b.End())
	assert.Equal(t, "chr1\t0\t10\tx", b.String())
}
