package feature

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidInterval = errors.New("invalid interval")

// Interval is a query region: every base from Start to Stop inclusive on Contig.
type Interval struct {
	contig string
	start  int64
	stop   int64
}

var _ Locatable = Interval{}

func NewInterval(contig string, start, stop int64) (Interval, error) {
	if contig == "" {
		return Interval{}, fmt.Errorf("%w: empty contig", ErrInvalidInterval)
	}
	if start > stop {
		return Interval{}, fmt.Errorf("%w: start %d is after stop %d on %s", ErrInvalidInterval, start, stop, contig)
	}
	return Interval{contig: contig, start: start, stop: stop}, nil
}

// MustInterval is NewInterval that panics on invalid input. Handy for constants and tests.
func MustInterval(contig string, start, stop int64) Interval {
	i, err := NewInterval(contig, start, stop)
	if err != nil {
		panic(err)
	}
	return i
}

// ParseInterval accepts "chr1", "chr1:100" and "chr1:100-200".
// Positions may contain ',' as thousands separators.
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)

	colon := strings.LastIndexByte(s, ':')
	if colon < 0 {
		return NewInterval(s, 1, math.MaxInt64)
	}

	contig, span := s[:colon], strings.ReplaceAll(s[colon+1:], ",", "")
	startStr, stopStr, isRange := strings.Cut(span, "-")

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: can't parse start of %q: %s", ErrInvalidInterval, s, err)
	}
	if !isRange {
		return NewInterval(contig, start, start)
	}

	stop, err := strconv.ParseInt(stopStr, 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: can't parse stop of %q: %s", ErrInvalidInterval, s, err)
	}
	return NewInterval(contig, start, stop)
}

func (i Interval) Contig() string { return i.contig }
func (i Interval) Start() int64   { return i.start }
func (i Interval) End() int64     { return i.stop }
func (i Interval) Stop() int64    { return i.stop }

func (i Interval) Size() int64 {
	return i.stop - i.start + 1
}

func (i Interval) Overlaps(f Locatable) bool {
	return Overlaps(i, f)
}

func (i Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", i.contig, i.start, i.stop)
}
