package store

import (
	"github.com/ozontech/seq-features/feature"
)

// Memory serves features held in memory. Features must be grouped by contig
// and sorted by start within each contig, as a sorted indexed file would be.
type Memory[T feature.Locatable] struct {
	name     string
	features []T
	indexed  bool

	open       *sliceIterator[T]
	closed     bool
	iterations int
	queries    int
}

func NewMemory[T feature.Locatable](name string, features []T, indexed bool) *Memory[T] {
	return &Memory[T]{
		name:     name,
		features: features,
		indexed:  indexed,
	}
}

func (m *Memory[T]) Path() string {
	return m.name
}

func (m *Memory[T]) HasIndex() bool {
	return m.indexed
}

func (m *Memory[T]) Iterate() (Iterator[T], error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	m.iterations++
	return m.newIterator(m.features), nil
}

func (m *Memory[T]) Query(contig string, start, stop int64) (Iterator[T], error) {
	if !m.indexed {
		return nil, ErrNoIndex
	}
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	m.queries++

	var res []T
	for _, f := range m.features {
		if f.Contig() == contig && f.Start() <= stop && f.End() >= start {
			res = append(res, f)
		}
	}
	return m.newIterator(res), nil
}

func (m *Memory[T]) checkOpen() error {
	if m.closed {
		return ErrClosed
	}
	if m.open != nil {
		return ErrIterationInProgress
	}
	return nil
}

func (m *Memory[T]) newIterator(features []T) *sliceIterator[T] {
	it := &sliceIterator[T]{features: features, pos: -1}
	it.release = func() {
		if m.open == it {
			m.open = nil
		}
	}
	m.open = it
	return it
}

// IsIterating reports whether an iteration over the store is open.
func (m *Memory[T]) IsIterating() bool {
	return m.open != nil
}

// Iterations returns the number of full iterations opened so far.
func (m *Memory[T]) Iterations() int {
	return m.iterations
}

// Queries returns the number of range queries served so far.
func (m *Memory[T]) Queries() int {
	return m.queries
}

func (m *Memory[T]) Close() error {
	if m.open != nil {
		m.open.Close()
	}
	m.closed = true
	return nil
}

type sliceIterator[T any] struct {
	features []T
	pos      int
	release  func()
	closed   bool
}

func (it *sliceIterator[T]) Next() bool {
	if it.closed || it.pos+1 >= len(it.features) {
		return false
	}
	it.pos++
	return true
}

func (it *sliceIterator[T]) Feature() T {
	return it.features[it.pos]
}

func (it *sliceIterator[T]) Err() error {
	return nil
}

func (it *sliceIterator[T]) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.release()
	return nil
}
