package feature

import (
	"strconv"
	"strings"
)

// BED is a record of the BED format.
// ChromStart is 0-based and ChromEnd is exclusive as in the file,
// Start/End expose the span 1-based and inclusive.
type BED struct {
	Chrom      string
	ChromStart int64
	ChromEnd   int64
	Name       string
	Score      float64
	Strand     byte
	Extra      []string
}

var _ Locatable = (*BED)(nil)

func (b *BED) Contig() string { return b.Chrom }
func (b *BED) Start() int64   { return b.ChromStart + 1 }
func (b *BED) End() int64     { return b.ChromEnd }

func (b *BED) String() string {
	var sb strings.Builder
	sb.WriteString(b.Chrom)
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatInt(b.ChromStart, 10))
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatInt(b.ChromEnd, 10))
	if b.Name != "" {
		sb.WriteByte('\t')
		sb.WriteString(b.Name)
	}
	return sb.String()
}
