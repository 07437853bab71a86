package disk

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/ozontech/seq-features/bytespool"
	"github.com/ozontech/seq-features/consts"
)

const maxRegistrySize = 4 * consts.GB

// ReadIndex loads the index stored in file and checks it against the size of the indexed feature file.
func ReadIndex(file *os.File, reader *Reader, featureFileSize uint64) (*Index, error) {
	registry, err := readRegistry(file, reader)
	if err != nil {
		return nil, err
	}
	if len(registry) < firstChunk*RegistryEntrySize {
		return nil, fmt.Errorf("%w: registry of %s is too short", ErrBadIndex, file.Name())
	}

	// -- Info --
	infoHeader := RegistryEntry(registry[:RegistryEntrySize])
	raw, err := readBlock(file, reader, infoHeader)
	if err != nil {
		return nil, err
	}
	var info IndexInfo
	if err := info.unpack(raw); err != nil {
		return nil, fmt.Errorf("can't read index %s: %w", file.Name(), err)
	}
	if info.FeatureFileSize != featureFileSize {
		return nil, fmt.Errorf(
			"%w: index %s was built for a file of %d bytes, but the file has %d bytes; rebuild the index",
			ErrBadIndex, file.Name(), info.FeatureFileSize, featureFileSize,
		)
	}

	// -- Contig Table --
	tableHeader := RegistryEntry(registry[RegistryEntrySize : 2*RegistryEntrySize])
	if raw, err = readBlock(file, reader, tableHeader); err != nil {
		return nil, err
	}
	contigs, err := unpackContigTable(raw)
	if err != nil {
		return nil, fmt.Errorf("can't read index %s: %w", file.Name(), err)
	}
	if uint64(len(contigs)) != tableHeader.Ext1() {
		return nil, fmt.Errorf("%w: contig count mismatch in %s", ErrBadIndex, file.Name())
	}

	idx, err := newIndex(info, contigs, registry)
	if err != nil {
		return nil, fmt.Errorf("can't read index %s: %w", file.Name(), err)
	}
	return idx, nil
}

func readRegistry(file *os.File, reader *Reader) ([]byte, error) {
	numBuf := make([]byte, prefixSize)
	n, err := reader.ReadAt(file, numBuf, 0)

	if err != nil {
		return nil, fmt.Errorf("%w: can't read registry prefix of %s: %s", ErrBadIndex, file.Name(), err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: can't read registry of %s, n=0", ErrBadIndex, file.Name())
	}

	pos := binary.LittleEndian.Uint64(numBuf)
	l := binary.LittleEndian.Uint64(numBuf[8:])
	if l > maxRegistrySize {
		return nil, fmt.Errorf("%w: registry of %s is too large, size=%d", ErrBadIndex, file.Name(), l)
	}
	buf := make([]byte, l)

	n, err = reader.ReadAt(file, buf, int64(pos))

	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: can't read registry of %s: %s", ErrBadIndex, file.Name(), err)
	}

	if uint64(n) != l {
		return nil, fmt.Errorf("%w: can't read registry of %s, read=%d, requested=%d", ErrBadIndex, file.Name(), n, l)
	}

	if len(buf)%RegistryEntrySize != 0 {
		return nil, fmt.Errorf("%w: wrong registry format of %s", ErrBadIndex, file.Name())
	}

	return buf, nil
}

func readBlock(file *os.File, reader *Reader, header RegistryEntry) ([]byte, error) {
	readBuf := bytespool.Acquire(int(header.Len()))
	defer bytespool.Release(readBuf)

	n, err := reader.ReadAt(file, readBuf.B, int64(header.Pos()))
	if err != nil && !(err == io.EOF && n == len(readBuf.B)) {
		return nil, fmt.Errorf("%w: can't read block of %s at %d: %s", ErrBadIndex, file.Name(), header.Pos(), err)
	}

	res, err := header.Codec().decompressBlock(int(header.RawLen()), readBuf.B, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadIndex, err)
	}
	if len(res) != int(header.RawLen()) {
		return nil, fmt.Errorf("%w: block of %s at %d has wrong length", ErrBadIndex, file.Name(), header.Pos())
	}
	return res, nil
}
