package disk

import (
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type Codec byte

const (
	CodecNo Codec = iota
	CodecLZ4
	CodecZSTD
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	zstdDecoder, _ = zstd.NewReader(nil)
)

func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "no", "none":
		return CodecNo, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZSTD, nil
	}
	return CodecNo, fmt.Errorf("unknown compression codec %q", name)
}

func (c Codec) String() string {
	switch c {
	case CodecNo:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZSTD:
		return "zstd"
	}
	return fmt.Sprintf("codec(%d)", byte(c))
}

// compressBlock appends compressed src to dst. The returned codec is CodecNo
// when compression doesn't pay off and src was stored as is.
func (c Codec) compressBlock(src, dst []byte) ([]byte, Codec, error) {
	switch c {
	case CodecNo:
		return append(dst, src...), CodecNo, nil
	case CodecZSTD:
		res := zstdEncoder.EncodeAll(src, dst)
		if len(res)-len(dst) >= len(src) {
			return append(dst, src...), CodecNo, nil
		}
		return res, CodecZSTD, nil
	case CodecLZ4:
		l := len(dst)
		dst = growLen(dst, lz4.CompressBlockBound(len(src)))
		n, err := lz4.CompressBlock(src, dst[l:], nil)
		if err != nil {
			return dst[:l], c, fmt.Errorf("lz4 compression error: %w", err)
		}
		if n == 0 || n >= len(src) { // incompressible
			return append(dst[:l], src...), CodecNo, nil
		}
		return dst[:l+n], CodecLZ4, nil
	}
	return dst, c, fmt.Errorf("unknown codec %d", c)
}

func (c Codec) decompressBlock(rawLen int, src, dst []byte) ([]byte, error) {
	switch c {
	case CodecNo:
		return append(dst[:0], src...), nil
	case CodecZSTD:
		res, err := zstdDecoder.DecodeAll(src, dst[:0])
		if err != nil {
			return nil, fmt.Errorf("zstd decompression error: %w", err)
		}
		return res, nil
	case CodecLZ4:
		dst = growLen(dst[:0], rawLen)
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression error: %w", err)
		}
		return dst[:n], nil
	}
	return nil, fmt.Errorf("unknown codec %d", c)
}

func growLen(b []byte, n int) []byte {
	l := len(b)
	if cap(b)-l < n {
		nb := make([]byte, l, l+n)
		copy(nb, b)
		b = nb
	}
	return b[:l+n]
}
