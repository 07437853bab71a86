package codec

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ozontech/seq-features/feature"
	"github.com/ozontech/seq-features/store"
)

var _ store.Codec[*feature.Table] = Table{}

// Table decodes tab separated files with 1-based inclusive coordinates:
// contig, start, end, then any columns.
type Table struct{}

func (Table) Name() string {
	return "table"
}

func (Table) CanDecode(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".table", ".tab":
		return true
	}
	return false
}

func (Table) Decode(line []byte) (*feature.Table, bool, error) {
	if skipLine(line, "contig\t", "CONTIG\t") {
		return nil, false, nil
	}

	fields := splitFields(line)
	if len(fields) < 3 {
		return nil, false, fmt.Errorf("expected at least 3 columns, got %d", len(fields))
	}

	start, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("bad start %q: %w", fields[1], err)
	}
	end, err := strconv.ParseInt(string(fields[2]), 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("bad end %q: %w", fields[2], err)
	}
	if start < 1 || end < start {
		return nil, false, fmt.Errorf("bad span [%d, %d]", start, end)
	}

	t := &feature.Table{
		Chrom: string(fields[0]),
		From:  start,
		To:    end,
	}
	for _, f := range fields[3:] {
		t.Columns = append(t.Columns, string(f))
	}
	return t, true, nil
}
