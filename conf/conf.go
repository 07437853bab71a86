package conf

import (
	"runtime"

	"github.com/ozontech/seq-features/consts"
)

func init() {
	ReaderWorkers = runtime.NumCPU()
}

var (
	// ReaderWorkers is the number of goroutines serving chunk reads for all open feature files.
	ReaderWorkers int

	// SkipFsync disables fsync of freshly written index files.
	SkipFsync = false

	// MaxLineSize bounds the length of a single feature line.
	MaxLineSize = 16 * consts.MB
)

type IndexVersion uint16

const (
	// IndexV1 - initial version
	IndexV1 IndexVersion = iota + 1

	CurrentIndexVersion = IndexV1
)
