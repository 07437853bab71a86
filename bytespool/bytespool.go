package bytespool

import (
	"bufio"
	"io"
	"math/bits"
	"sync"
)

const (
	minClassBits = 12 // 4KB
	maxClassBits = 24 // 16MB
)

type Buffer struct {
	B []byte
}

// pools[i] keeps buffers with capacity of exactly 1<<(minClassBits+i) bytes.
var pools [maxClassBits - minClassBits + 1]sync.Pool

func class(size int) int {
	if size <= 1<<minClassBits {
		return 0
	}
	return bits.Len(uint(size-1)) - minClassBits
}

// Acquire returns a buffer of length size. Its contents are undefined.
func Acquire(size int) *Buffer {
	c := class(size)
	if c >= len(pools) {
		return &Buffer{B: make([]byte, size)}
	}
	if v := pools[c].Get(); v != nil {
		b := v.(*Buffer)
		b.B = b.B[:size]
		return b
	}
	return &Buffer{B: make([]byte, size, 1<<(minClassBits+c))}
}

// Release returns b to the pool. b must not be used afterwards.
// Buffers grown by the caller past their class are dropped.
func Release(b *Buffer) {
	if b == nil {
		return
	}
	c := class(cap(b.B))
	if c >= len(pools) || cap(b.B) != 1<<(minClassBits+c) {
		return
	}
	b.B = b.B[:0]
	pools[c].Put(b)
}

var writers sync.Pool

// AcquireWriterSize returns a buffered writer to w with a buffer of at least size bytes.
func AcquireWriterSize(w io.Writer, size int) *bufio.Writer {
	if v := writers.Get(); v != nil {
		bw := v.(*bufio.Writer)
		if bw.Size() >= size {
			bw.Reset(w)
			return bw
		}
	}
	return bufio.NewWriterSize(w, size)
}

// ReleaseWriter returns bw to the pool dropping any unflushed data.
func ReleaseWriter(bw *bufio.Writer) {
	bw.Reset(nil)
	writers.Put(bw)
}

func FlushReleaseWriter(bw *bufio.Writer) error {
	err := bw.Flush()
	ReleaseWriter(bw)
	return err
}
