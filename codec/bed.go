package codec

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ozontech/seq-features/feature"
	"github.com/ozontech/seq-features/store"
)

var _ store.Codec[*feature.BED] = BED{}

// BED decodes BED files: chrom, chromStart (0-based), chromEnd (exclusive)
// and optional name, score, strand and further columns.
type BED struct{}

func (BED) Name() string {
	return "bed"
}

func (BED) CanDecode(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".bed"
}

func (BED) Decode(line []byte) (*feature.BED, bool, error) {
	if skipLine(line, "track", "browser") {
		return nil, false, nil
	}

	fields := splitFields(line)
	if len(fields) < 3 {
		return nil, false, fmt.Errorf("expected at least 3 columns, got %d", len(fields))
	}

	start, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("bad chromStart %q: %w", fields[1], err)
	}
	end, err := strconv.ParseInt(string(fields[2]), 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("bad chromEnd %q: %w", fields[2], err)
	}
	if start < 0 || end < start {
		return nil, false, fmt.Errorf("bad span [%d, %d)", start, end)
	}

	b := &feature.BED{
		Chrom:      string(fields[0]),
		ChromStart: start,
		ChromEnd:   end,
	}
	if len(fields) > 3 {
		b.Name = string(fields[3])
	}
	if len(fields) > 4 && !isDot(fields[4]) {
		if b.Score, err = strconv.ParseFloat(string(fields[4]), 64); err != nil {
			return nil, false, fmt.Errorf("bad score %q: %w", fields[4], err)
		}
	}
	if len(fields) > 5 {
		switch s := fields[5]; {
		case len(s) == 1 && (s[0] == '+' || s[0] == '-' || s[0] == '.'):
			b.Strand = s[0]
		default:
			return nil, false, fmt.Errorf("bad strand %q", s)
		}
	}
	for _, f := range fields[min(len(fields), 6):] {
		b.Extra = append(b.Extra, string(f))
	}
	return b, true, nil
}

// skipLine reports whether line is blank, a comment or starts with one of the header prefixes.
func skipLine(line []byte, headers ...string) bool {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] == '#' {
		return true
	}
	for _, h := range headers {
		if bytes.HasPrefix(line, []byte(h)) {
			return true
		}
	}
	return false
}

// splitFields splits on tabs, or on any whitespace when the line has no tabs.
func splitFields(line []byte) [][]byte {
	line = bytes.TrimRight(line, " \t\r")
	if bytes.IndexByte(line, '\t') < 0 {
		return bytes.Fields(line)
	}
	return bytes.Split(line, []byte{'\t'})
}

func isDot(b []byte) bool {
	return len(b) == 1 && b[0] == '.'
}
