package disk

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/ozontech/seq-features/conf"
)

const (
	indexMagic  = "FIDX"
	prefixSize  = 16
	infoSize    = len(indexMagic) + 2 + 16 + 8
	infoEntry   = 0
	contigEntry = 1
	firstChunk  = 2
)

var ErrBadIndex = errors.New("bad feature index")

// Chunk is a contiguous byte range of a feature file holding features of one contig.
type Chunk struct {
	Pos        uint64
	Len        uint32
	Features   uint32
	FirstStart int64
	MaxEnd     int64
}

// ContigChunks lists the chunks of one contig as a range of the index registry.
type ContigChunks struct {
	Contig     string
	FirstEntry uint32
	Count      uint32
}

type IndexInfo struct {
	Version         conf.IndexVersion
	BuildID         ulid.ULID
	FeatureFileSize uint64
}

func (i IndexInfo) pack(dst []byte) []byte {
	dst = append(dst, indexMagic...)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(i.Version))
	dst = append(dst, i.BuildID[:]...)
	dst = binary.LittleEndian.AppendUint64(dst, i.FeatureFileSize)
	return dst
}

func (i *IndexInfo) unpack(src []byte) error {
	if len(src) != infoSize || string(src[:len(indexMagic)]) != indexMagic {
		return fmt.Errorf("%w: wrong info block", ErrBadIndex)
	}
	src = src[len(indexMagic):]

	i.Version = conf.IndexVersion(binary.LittleEndian.Uint16(src))
	if i.Version != conf.CurrentIndexVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrBadIndex, i.Version)
	}
	src = src[2:]

	copy(i.BuildID[:], src[:16])
	i.FeatureFileSize = binary.LittleEndian.Uint64(src[16:])
	return nil
}

func packContigTable(dst []byte, contigs []ContigChunks) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(contigs)))
	for _, c := range contigs {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(len(c.Contig)))
		dst = append(dst, c.Contig...)
		dst = binary.LittleEndian.AppendUint32(dst, c.FirstEntry)
		dst = binary.LittleEndian.AppendUint32(dst, c.Count)
	}
	return dst
}

func unpackContigTable(src []byte) ([]ContigChunks, error) {
	if len(src) < 4 {
		return nil, fmt.Errorf("%w: truncated contig table", ErrBadIndex)
	}
	n := binary.LittleEndian.Uint32(src)
	src = src[4:]

	res := make([]ContigChunks, 0, min(int(n), len(src)/10))
	for ; n > 0; n-- {
		if len(src) < 2 {
			return nil, fmt.Errorf("%w: truncated contig table", ErrBadIndex)
		}
		l := int(binary.LittleEndian.Uint16(src))
		src = src[2:]
		if len(src) < l+8 {
			return nil, fmt.Errorf("%w: truncated contig table", ErrBadIndex)
		}
		res = append(res, ContigChunks{
			Contig:     string(src[:l]),
			FirstEntry: binary.LittleEndian.Uint32(src[l:]),
			Count:      binary.LittleEndian.Uint32(src[l+4:]),
		})
		src = src[l+8:]
	}
	return res, nil
}

// Index is an in-memory feature file index.
type Index struct {
	Info IndexInfo

	contigs  []ContigChunks
	byContig map[string]int
	registry []byte
}

func newIndex(info IndexInfo, contigs []ContigChunks, registry []byte) (*Index, error) {
	entries := uint32(len(registry) / RegistryEntrySize)
	idx := &Index{
		Info:     info,
		contigs:  contigs,
		byContig: make(map[string]int, len(contigs)),
		registry: registry,
	}
	for i, c := range contigs {
		if _, ok := idx.byContig[c.Contig]; ok {
			return nil, fmt.Errorf("%w: contig %q listed twice", ErrBadIndex, c.Contig)
		}
		if c.FirstEntry < firstChunk || c.FirstEntry+c.Count > entries {
			return nil, fmt.Errorf("%w: chunks of contig %q are out of registry", ErrBadIndex, c.Contig)
		}
		idx.byContig[c.Contig] = i
	}
	return idx, nil
}

// Contigs returns contig names in file order.
func (idx *Index) Contigs() []string {
	res := make([]string, 0, len(idx.contigs))
	for _, c := range idx.contigs {
		res = append(res, c.Contig)
	}
	return res
}

func (idx *Index) HasContig(contig string) bool {
	_, ok := idx.byContig[contig]
	return ok
}

// Chunks returns the chunks of contig in file order, nil for an unknown contig.
func (idx *Index) Chunks(contig string) []Chunk {
	i, ok := idx.byContig[contig]
	if !ok {
		return nil
	}
	c := idx.contigs[i]

	res := make([]Chunk, 0, c.Count)
	for e := c.FirstEntry; e < c.FirstEntry+c.Count; e++ {
		res = append(res, idx.entry(e).Chunk())
	}
	return res
}

// ChunksOverlapping returns the chunks of contig that may hold features overlapping [start, stop].
// Chunks are sorted by their first start, so the scan ends at the first chunk starting after stop.
func (idx *Index) ChunksOverlapping(contig string, start, stop int64) []Chunk {
	var res []Chunk
	for _, c := range idx.Chunks(contig) {
		if c.FirstStart > stop {
			break
		}
		if c.MaxEnd < start {
			continue
		}
		res = append(res, c)
	}
	return res
}

func (idx *Index) entry(i uint32) RegistryEntry {
	pos := i * RegistryEntrySize
	return RegistryEntry(idx.registry[pos : pos+RegistryEntrySize])
}
