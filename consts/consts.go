package consts

const (
	KB = 1 << 10
	MB = 1 << 20
	GB = 1 << 30

	// DefaultQueryLookaheadBases is how many bases past the end of a missed query
	// interval are fetched into the query cache.
	DefaultQueryLookaheadBases = 1000

	IndexFileSuffix = ".fidx"
	IndexTmpSuffix  = ".tmp"

	// DefaultChunkSize is the target size of a feature file chunk addressed by one index entry.
	DefaultChunkSize = 64 * KB
)
