package disk

import "encoding/binary"

const (
	offsetBlockCodec  = 0  // 1 byte  (C) Codec
	offsetBlockLen    = 1  // 4 bytes (L) Length
	offsetBlockRawLen = 5  // 4 bytes (R) Raw Length
	offsetBlockExt1   = 9  // 8 bytes (E) Extensions/flags
	offsetBlockExt2   = 17 // 8 bytes (E) Extensions/flags
	offsetBlockPos    = 25 // 8 bytes (P) Position

	RegistryEntrySize = 33
)

// RegistryEntry format: C : LLLL : RRRR : EEEE-EEEE-EEEE-EEEE : PPPP-PPPP
//
// For index blocks Pos and Len address the index file itself.
// For chunk entries they address a byte range of the feature file,
// RawLen holds the number of features in the chunk, Ext1 the start of the first feature
// and Ext2 the maximum end among the chunk features.
type RegistryEntry []byte

func NewRegistryEntry(pos uint64, length, rawLen uint32, ext1, ext2 uint64, codec Codec) RegistryEntry {
	e := make(RegistryEntry, RegistryEntrySize)
	e[offsetBlockCodec] = byte(codec)
	binary.LittleEndian.PutUint32(e[offsetBlockLen:], length)
	binary.LittleEndian.PutUint32(e[offsetBlockRawLen:], rawLen)
	binary.LittleEndian.PutUint64(e[offsetBlockExt1:], ext1)
	binary.LittleEndian.PutUint64(e[offsetBlockExt2:], ext2)
	binary.LittleEndian.PutUint64(e[offsetBlockPos:], pos)
	return e
}

func NewChunkEntry(c Chunk) RegistryEntry {
	return NewRegistryEntry(c.Pos, c.Len, c.Features, uint64(c.FirstStart), uint64(c.MaxEnd), CodecNo)
}

func (e RegistryEntry) Codec() Codec {
	return Codec(e[offsetBlockCodec])
}

func (e RegistryEntry) Len() uint32 {
	return binary.LittleEndian.Uint32(e[offsetBlockLen:])
}

func (e RegistryEntry) RawLen() uint32 {
	return binary.LittleEndian.Uint32(e[offsetBlockRawLen:])
}

func (e RegistryEntry) Ext1() uint64 {
	return binary.LittleEndian.Uint64(e[offsetBlockExt1:])
}

func (e RegistryEntry) Ext2() uint64 {
	return binary.LittleEndian.Uint64(e[offsetBlockExt2:])
}

func (e RegistryEntry) Pos() uint64 {
	return binary.LittleEndian.Uint64(e[offsetBlockPos:])
}

func (e RegistryEntry) Chunk() Chunk {
	return Chunk{
		Pos:        e.Pos(),
		Len:        e.Len(),
		Features:   e.RawLen(),
		FirstStart: int64(e.Ext1()),
		MaxEnd:     int64(e.Ext2()),
	}
}
