package cache

import (
	"go.uber.org/zap"

	"github.com/ozontech/seq-features/feature"
	"github.com/ozontech/seq-features/logger"
)

const initialCapacity = 1024

// Window caches the features of the most recent query region and some look-ahead after it.
//
// The declared window [start, stop] on contig is the region for which the cache holds every
// overlapping feature. Features are kept in the order they were supplied in, which must be
// ascending by start position. The cache never sorts.
//
// Typical usage:
//   - check the query with Hit
//   - on hit, TrimToNewStart(query start), then UpToStop(query stop)
//   - on miss, Fill with features fetched well past the query stop, then UpToStop(query stop)
//
// Window is not safe for concurrent use.
type Window[T feature.Locatable] struct {
	buf      []T // backing storage reused across fills
	features []T // live contents, a suffix of buf

	contig    string
	hasContig bool
	start     int64
	stop      int64
}

func NewWindow[T feature.Locatable]() *Window[T] {
	buf := make([]T, 0, initialCapacity)
	return &Window[T]{buf: buf, features: buf}
}

// Contig returns the contig of the declared window, false if the cache was never filled.
func (w *Window[T]) Contig() (string, bool) {
	return w.contig, w.hasContig
}

func (w *Window[T]) Start() int64 {
	return w.start
}

func (w *Window[T]) Stop() int64 {
	return w.stop
}

func (w *Window[T]) Len() int {
	return len(w.features)
}

func (w *Window[T]) IsEmpty() bool {
	return len(w.features) == 0
}

// Fill replaces the contents of the cache with features preserving their order and declares
// region as the covered window. features must contain every feature overlapping region.
// The slice is copied, the caller keeps ownership of it.
func (w *Window[T]) Fill(region feature.Interval, features []T) {
	clear(w.buf)
	w.buf = append(w.buf[:0], features...)
	w.features = w.buf

	w.contig = region.Contig()
	w.hasContig = true
	w.start = region.Start()
	w.stop = region.Stop()
}

// Reset drops all contents and the declared window.
func (w *Window[T]) Reset() {
	clear(w.buf)
	w.buf = w.buf[:0]
	w.features = w.buf

	w.contig = ""
	w.hasContig = false
	w.start, w.stop = 0, 0
}

// Hit reports whether every feature overlapping interval is already in the cache.
// It checks the declared window only, never the number of cached features.
func (w *Window[T]) Hit(interval feature.Interval) bool {
	return w.hasContig &&
		w.contig == interval.Contig() &&
		w.start <= interval.Start() &&
		w.stop >= interval.Stop()
}

// TrimToNewStart moves the window start to newStart discarding leading features
// that end before it. Features that start before newStart but still reach it are kept
// in their original relative order.
//
// Trimming past the window stop breaks the query protocol and panics.
func (w *Window[T]) TrimToNewStart(newStart int64) {
	if newStart > w.stop {
		logger.Panic("attempted to trim feature cache to an improper new start position",
			zap.Int64("new_start", newStart),
			zap.Int64("cache_stop", w.stop),
			zap.String("contig", w.contig),
		)
	}

	// features are sorted by start, so the ones to inspect are a prefix
	first := 0
	for first < len(w.features) && w.features[first].Start() < newStart {
		first++
	}

	// compact the survivors of the prefix towards its end, walking backwards keeps their order
	head := first
	for i := first - 1; i >= 0; i-- {
		if w.features[i].End() >= newStart {
			head--
			w.features[head] = w.features[i]
		}
	}
	clear(w.features[:head])
	w.features = w.features[head:]

	w.start = newStart
}

// UpToStop returns (without removing) all cached features starting at or before stop,
// i.e. those overlapping [window start, stop]. The result is a new slice, nil if there are none.
func (w *Window[T]) UpToStop(stop int64) []T {
	n := 0
	for n < len(w.features) && w.features[n].Start() <= stop {
		n++
	}
	if n == 0 {
		return nil
	}

	res := make([]T, n)
	copy(res, w.features[:n])
	return res
}
