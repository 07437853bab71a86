package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ozontech/seq-features/bytespool"
	"github.com/ozontech/seq-features/conf"
	"github.com/ozontech/seq-features/disk"
	"github.com/ozontech/seq-features/feature"
)

type lineSource interface {
	// next returns the next line without its terminator and the file offset of its first byte.
	// The line is valid until the following call.
	next() (line []byte, pos int64, ok bool, err error)
	close()
}

// scanSource reads lines sequentially.
type scanSource struct {
	scanner *bufio.Scanner
	pos     int64
	advance int64
}

func newScanSource(r io.Reader) *scanSource {
	s := &scanSource{scanner: bufio.NewScanner(r)}
	s.scanner.Buffer(make([]byte, 0, 64*1024), conf.MaxLineSize)
	s.scanner.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		advance, token, err := bufio.ScanLines(data, atEOF)
		s.advance += int64(advance)
		return advance, token, err
	})
	return s
}

func (s *scanSource) next() ([]byte, int64, bool, error) {
	s.pos = s.advance
	if !s.scanner.Scan() {
		return nil, s.pos, false, s.scanner.Err()
	}
	return s.scanner.Bytes(), s.pos, true, nil
}

func (s *scanSource) close() {}

// chunkSource reads the lines of the given chunks one chunk at a time.
type chunkSource struct {
	file   *os.File
	reader *disk.Reader
	chunks []disk.Chunk

	buf  *bytespool.Buffer
	rest []byte
	pos  int64
}

func (s *chunkSource) next() ([]byte, int64, bool, error) {
	for len(s.rest) == 0 {
		if len(s.chunks) == 0 {
			return nil, s.pos, false, nil
		}
		c := s.chunks[0]
		s.chunks = s.chunks[1:]

		if s.buf == nil || cap(s.buf.B) < int(c.Len) {
			bytespool.Release(s.buf)
			s.buf = bytespool.Acquire(int(c.Len))
		}

		var err error
		if s.buf.B, err = s.reader.ReadChunk(s.file, c, s.buf.B); err != nil {
			return nil, int64(c.Pos), false, fmt.Errorf("can't read chunk at %d: %w", c.Pos, err)
		}
		s.rest = s.buf.B
		s.pos = int64(c.Pos)
	}

	line := s.rest
	pos := s.pos
	if i := bytes.IndexByte(s.rest, '\n'); i >= 0 {
		line = s.rest[:i]
		s.rest = s.rest[i+1:]
		s.pos += int64(i + 1)
	} else {
		s.rest = nil
		s.pos += int64(len(line))
	}
	return bytes.TrimSuffix(line, []byte{'\r'}), pos, true, nil
}

func (s *chunkSource) close() {
	bytespool.Release(s.buf)
	s.buf = nil
	s.rest = nil
	s.chunks = nil
}

type lineIterator[T feature.Locatable] struct {
	path  string
	codec Codec[T]
	src   lineSource
	keep  func(T) bool

	cur     T
	err     error
	done    bool
	closed  bool
	release func()
}

func (it *lineIterator[T]) Next() bool {
	if it.done || it.closed {
		return false
	}

	for {
		line, pos, ok, err := it.src.next()
		if err != nil {
			it.fail(fmt.Errorf("can't read %s: %w", it.path, err))
			return false
		}
		if !ok {
			it.done = true
			return false
		}

		feat, isFeature, err := it.codec.Decode(line)
		if err != nil {
			it.fail(fmt.Errorf("can't decode %s feature at byte %d of %s: %w", it.codec.Name(), pos, it.path, err))
			return false
		}
		if !isFeature || (it.keep != nil && !it.keep(feat)) {
			continue
		}

		it.cur = feat
		return true
	}
}

func (it *lineIterator[T]) fail(err error) {
	it.err = err
	it.done = true
	var zero T
	it.cur = zero
}

func (it *lineIterator[T]) Feature() T {
	return it.cur
}

func (it *lineIterator[T]) Err() error {
	return it.err
}

func (it *lineIterator[T]) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.src.close()
	it.release()
	return nil
}
