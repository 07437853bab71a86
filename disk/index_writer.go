package disk

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ozontech/seq-features/bytespool"
	"github.com/ozontech/seq-features/consts"
)

// WriteIndex writes the index of a feature file.
// FirstEntry of every contig is the position of its first chunk in chunks.
//
// Layout: prefix (registry pos and size) : info block : contig table block : registry.
func WriteIndex(ws io.WriteSeeker, info IndexInfo, contigs []ContigChunks, chunks []Chunk, codec Codec) error {
	if _, err := ws.Seek(prefixSize, io.SeekStart); err != nil { // skip `prefixSize` bytes for pos and length of registry
		return err
	}

	hw := bytes.NewBuffer(make([]byte, 0, (firstChunk+len(chunks))*RegistryEntrySize))
	bw := bytespool.AcquireWriterSize(ws, consts.MB)
	defer bytespool.ReleaseWriter(bw)
	pos := uint64(prefixSize)

	// -- Info --
	infoBlock := info.pack(nil)
	if _, err := bw.Write(infoBlock); err != nil {
		return err
	}
	hw.Write(NewRegistryEntry(pos, uint32(len(infoBlock)), uint32(len(infoBlock)), 0, 0, CodecNo))
	pos += uint64(len(infoBlock))

	// -- Contig Table --
	absolute := make([]ContigChunks, 0, len(contigs))
	for _, c := range contigs {
		c.FirstEntry += firstChunk
		absolute = append(absolute, c)
	}
	raw := packContigTable(nil, absolute)
	table, tableCodec, err := codec.compressBlock(raw, nil)
	if err != nil {
		return err
	}
	if _, err := bw.Write(table); err != nil {
		return err
	}
	hw.Write(NewRegistryEntry(pos, uint32(len(table)), uint32(len(raw)), uint64(len(contigs)), 0, tableCodec))
	pos += uint64(len(table))

	// -- Chunks --
	for _, c := range chunks {
		hw.Write(NewChunkEntry(c))
	}

	// -- Registry --
	size := hw.Len()
	if _, err := bw.Write(hw.Bytes()); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	// write prefix
	prefix := make([]byte, 0, prefixSize)
	prefix = binary.LittleEndian.AppendUint64(prefix, pos)
	prefix = binary.LittleEndian.AppendUint64(prefix, uint64(size))
	if _, err := ws.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := ws.Write(prefix); err != nil {
		return err
	}

	return nil
}
