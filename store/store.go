package store

import (
	"errors"
	"iter"

	"github.com/ozontech/seq-features/feature"
)

var (
	ErrCouldNotReadInput   = errors.New("could not read input file")
	ErrNoIndex             = errors.New("file has no index")
	ErrIterationInProgress = errors.New("another iteration over the file is still open")
	ErrClosed              = errors.New("store is closed")
)

// Iterator is a lazy, finite, non-restartable sequence of features.
//
//	for it.Next() {
//		f := it.Feature()
//	}
//	if err := it.Err(); err != nil {
//	}
//
// Close releases the iteration and may be called any number of times.
type Iterator[T any] interface {
	Next() bool
	Feature() T
	Err() error
	Close() error
}

// Codec decodes one line of a feature file.
type Codec[T feature.Locatable] interface {
	Name() string
	// Decode returns false for lines that carry no feature (headers, comments, blank lines).
	// The decoded feature must not reference line after Decode returns.
	Decode(line []byte) (T, bool, error)
	// CanDecode reports whether the file looks like the codec's format judging by its name.
	CanDecode(path string) bool
}

// All adapts it to a range-over-func sequence. The iteration error stays available via it.Err.
func All[T any](it Iterator[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for it.Next() {
			if !yield(it.Feature()) {
				return
			}
		}
	}
}

// Drain appends all remaining features of it to dst.
func Drain[T any](it Iterator[T], dst []T) ([]T, error) {
	for it.Next() {
		dst = append(dst, it.Feature())
	}
	return dst, it.Err()
}
