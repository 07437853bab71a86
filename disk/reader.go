package disk

import (
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"

	"github.com/ozontech/seq-features/conf"
)

type readTask struct {
	Err error
	Buf []byte
	N   int

	// internal
	f      *os.File
	offset int64
	wg     sync.WaitGroup
}

// Reader executes positional reads on a bounded pool of workers,
// so the number of reads in flight doesn't grow with the number of open feature files.
type Reader struct {
	in     chan *readTask
	metric prometheus.Counter

	readBytes atomic.Uint64
	reads     atomic.Uint64
}

var (
	defaultReader     *Reader
	defaultReaderOnce sync.Once
)

// DefaultReader returns the process-wide reader with conf.ReaderWorkers workers.
func DefaultReader() *Reader {
	defaultReaderOnce.Do(func() {
		defaultReader = NewReader(conf.ReaderWorkers, readBytesTotal)
	})
	return defaultReader
}

func NewReader(workers int, counter prometheus.Counter) *Reader {
	r := &Reader{
		in:     make(chan *readTask),
		metric: counter,
	}
	for i := 0; i < max(workers, 1); i++ {
		go r.readWorker()
	}
	return r
}

func (r *Reader) process(task *readTask) {
	task.wg.Add(1)
	r.in <- task
	task.wg.Wait()
}

func (r *Reader) ReadAt(f *os.File, buf []byte, offset int64) (int, error) {
	task := &readTask{
		f:      f,
		offset: offset,
		Buf:    buf,
	}
	r.process(task)
	return task.N, task.Err
}

// ReadChunk reads the bytes of chunk c of the feature file f into dst.
func (r *Reader) ReadChunk(f *os.File, c Chunk, dst []byte) ([]byte, error) {
	dst = growLen(dst[:0], int(c.Len))
	n, err := r.ReadAt(f, dst, int64(c.Pos))
	if err == io.EOF && n == len(dst) {
		err = nil
	}
	if err == nil && n != len(dst) {
		err = io.ErrUnexpectedEOF
	}
	return dst[:n], err
}

// ReadBytes returns the number of bytes read by this reader so far.
func (r *Reader) ReadBytes() uint64 {
	return r.readBytes.Load()
}

func (r *Reader) Reads() uint64 {
	return r.reads.Load()
}

func (r *Reader) Stop() {
	close(r.in)
}

func (r *Reader) readWorker() {
	for task := range r.in {
		r.readBlock(task)
	}
}

func (r *Reader) readBlock(task *readTask) {
	defer task.wg.Done()

	task.N, task.Err = task.f.ReadAt(task.Buf, task.offset)

	r.reads.Inc()
	r.readBytes.Add(uint64(task.N))
	if r.metric != nil {
		r.metric.Add(float64(task.N))
	}
}
