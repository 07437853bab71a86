package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ozontech/seq-features/consts"
	"github.com/ozontech/seq-features/disk"
	"github.com/ozontech/seq-features/feature"
	"github.com/ozontech/seq-features/logger"
)

// File serves features of a text feature file, one feature per line.
// Range queries need the index built by index-features next to the file.
//
// At most one iteration over a File can be open at a time.
type File[T feature.Locatable] struct {
	path   string
	file   *os.File
	size   int64
	codec  Codec[T]
	index  *disk.Index
	reader *disk.Reader

	open   *lineIterator[T]
	closed bool
}

// Open opens the feature file at path and its index, if there is one.
// A missing index is fine, an unreadable or stale one is an error.
func Open[T feature.Locatable](path string, codec Codec[T]) (*File[T], error) {
	return OpenWithReader(path, codec, disk.DefaultReader())
}

func OpenWithReader[T feature.Locatable](path string, codec Codec[T], reader *disk.Reader) (*File[T], error) {
	stat, err := os.Stat(path)
	if err != nil || !stat.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: file %s does not exist, is unreadable, or is a directory", ErrCouldNotReadInput, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCouldNotReadInput, err)
	}

	index, err := openIndex(IndexPath(path), reader, uint64(stat.Size()))
	if err != nil {
		return nil, multierr.Append(err, file.Close())
	}

	f := &File[T]{
		path:   path,
		file:   file,
		size:   stat.Size(),
		codec:  codec,
		index:  index,
		reader: reader,
	}

	logger.Debug("feature file opened",
		zap.String("file", path),
		zap.String("codec", codec.Name()),
		zap.Bool("indexed", index != nil),
	)
	return f, nil
}

// IndexPath returns where the index of the feature file at path lives.
func IndexPath(path string) string {
	return path + consts.IndexFileSuffix
}

func openIndex(path string, reader *disk.Reader, featureFileSize uint64) (*disk.Index, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("can't open index %s: %w", path, err)
	}
	defer file.Close()

	index, err := disk.ReadIndex(file, reader, featureFileSize)
	if err != nil {
		return nil, err
	}

	logger.Debug("feature index loaded",
		zap.String("index", path),
		zap.String("build_id", index.Info.BuildID.String()),
		zap.Int("contigs", len(index.Contigs())),
	)
	return index, nil
}

func (f *File[T]) Path() string {
	return f.path
}

func (f *File[T]) Codec() Codec[T] {
	return f.codec
}

func (f *File[T]) HasIndex() bool {
	return f.index != nil
}

// Index returns the loaded index, nil if the file has none.
func (f *File[T]) Index() *disk.Index {
	return f.index
}

// IsIterating reports whether an iteration over the file is open.
func (f *File[T]) IsIterating() bool {
	return f.open != nil
}

// Iterate returns all features of the file in file order.
func (f *File[T]) Iterate() (Iterator[T], error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	src := newScanSource(io.NewSectionReader(f.file, 0, f.size))
	return f.newIterator(src, nil), nil
}

// Query returns the features overlapping [start, stop] on contig.
// Stop may lie past the end of the contig.
func (f *File[T]) Query(contig string, start, stop int64) (Iterator[T], error) {
	if f.index == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoIndex, f.path)
	}
	if err := f.checkOpen(); err != nil {
		return nil, err
	}

	src := &chunkSource{
		file:   f.file,
		reader: f.reader,
		chunks: f.index.ChunksOverlapping(contig, start, stop),
	}
	keep := func(feat T) bool {
		return feat.Contig() == contig && feat.Start() <= stop && feat.End() >= start
	}
	return f.newIterator(src, keep), nil
}

func (f *File[T]) checkOpen() error {
	if f.closed {
		return fmt.Errorf("%w: %s", ErrClosed, f.path)
	}
	if f.open != nil {
		return fmt.Errorf("%w: %s", ErrIterationInProgress, f.path)
	}
	return nil
}

func (f *File[T]) newIterator(src lineSource, keep func(T) bool) *lineIterator[T] {
	it := &lineIterator[T]{
		path:  f.path,
		codec: f.codec,
		src:   src,
		keep:  keep,
	}
	it.release = func() {
		if f.open == it {
			f.open = nil
		}
	}
	f.open = it
	return it
}

// Close closes the open iteration, if any, and the file.
func (f *File[T]) Close() error {
	if f.closed {
		return fmt.Errorf("%w: %s", ErrClosed, f.path)
	}
	f.closed = true

	var err error
	if f.open != nil {
		err = f.open.Close()
	}
	if closeErr := f.file.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("can't close feature file %s: %w", f.path, closeErr))
	}
	return err
}
