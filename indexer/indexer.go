package indexer

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/oklog/ulid/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ozontech/seq-features/conf"
	"github.com/ozontech/seq-features/consts"
	"github.com/ozontech/seq-features/disk"
	"github.com/ozontech/seq-features/feature"
	"github.com/ozontech/seq-features/logger"
	"github.com/ozontech/seq-features/store"
)

var ErrUnsorted = errors.New("features are not sorted")

type Params struct {
	// ChunkSize is the target size of a feature file range addressed by one index entry.
	ChunkSize datasize.ByteSize
	// Compression is applied to the index tables.
	Compression disk.Codec
	// IndexPath overrides the default location of the index next to the feature file.
	IndexPath string
}

func DefaultParams() Params {
	return Params{
		ChunkSize:   consts.DefaultChunkSize,
		Compression: disk.CodecZSTD,
	}
}

type Info struct {
	IndexPath string
	BuildID   ulid.ULID
	Features  int
	Chunks    int
	Contigs   int
	Took      time.Duration
}

// Build indexes the feature file at path. Features must be grouped by contig
// and sorted by start position within each contig.
func Build[T feature.Locatable](path string, codec store.Codec[T], params Params) (Info, error) {
	started := time.Now()
	if params.ChunkSize == 0 {
		params.ChunkSize = consts.DefaultChunkSize
	}
	if params.IndexPath == "" {
		params.IndexPath = store.IndexPath(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s", store.ErrCouldNotReadInput, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return Info{}, fmt.Errorf("can't stat %s: %w", path, err)
	}
	if !stat.Mode().IsRegular() {
		return Info{}, fmt.Errorf("%w: %s is not a regular file", store.ErrCouldNotReadInput, path)
	}

	decode := func(line []byte) (feature.Locatable, bool, error) {
		f, ok, err := codec.Decode(line)
		if err != nil || !ok {
			return nil, ok, err
		}
		return f, true, nil
	}

	b := newChunksBuilder(uint64(params.ChunkSize), uint64(stat.Size()))
	if err := b.scan(file, path, decode); err != nil {
		return Info{}, err
	}

	info := disk.IndexInfo{
		Version:         conf.CurrentIndexVersion,
		BuildID:         ulid.MustNew(ulid.Timestamp(started), rand.Reader),
		FeatureFileSize: uint64(stat.Size()),
	}
	size, err := writeIndexFile(params.IndexPath, info, b.contigs, b.chunks, params.Compression)
	if err != nil {
		return Info{}, err
	}

	res := Info{
		IndexPath: params.IndexPath,
		BuildID:   info.BuildID,
		Features:  b.features,
		Chunks:    len(b.chunks),
		Contigs:   len(b.contigs),
		Took:      time.Since(started),
	}
	logger.Info("feature index built",
		zap.String("file", path),
		zap.String("index", res.IndexPath),
		zap.String("build_id", res.BuildID.String()),
		zap.Int("features", res.Features),
		zap.Int("chunks", res.Chunks),
		zap.Int("contigs", res.Contigs),
		zap.String("file_size", datasize.ByteSize(stat.Size()).HumanReadable()),
		zap.String("index_size", datasize.ByteSize(size).HumanReadable()),
		zap.Duration("took", res.Took),
	)
	return res, nil
}

func writeIndexFile(path string, info disk.IndexInfo, contigs []disk.ContigChunks, chunks []disk.Chunk, codec disk.Codec) (int64, error) {
	tmpName := path + consts.IndexTmpSuffix
	tmp, err := os.Create(tmpName)
	if err != nil {
		return 0, fmt.Errorf("can't create index file: %w", err)
	}

	size, err := writeAndSync(tmp, info, contigs, chunks, codec)
	err = multierr.Append(err, tmp.Close())
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		return 0, multierr.Append(fmt.Errorf("can't write index %s: %w", path, err), os.Remove(tmpName))
	}
	return size, nil
}

func writeAndSync(f *os.File, info disk.IndexInfo, contigs []disk.ContigChunks, chunks []disk.Chunk, codec disk.Codec) (int64, error) {
	if err := disk.WriteIndex(f, info, contigs, chunks, codec); err != nil {
		return 0, err
	}
	if !conf.SkipFsync {
		if err := f.Sync(); err != nil {
			return 0, err
		}
	}
	stat, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

// chunksBuilder cuts a sorted feature file into chunks of about chunkSize bytes.
// A chunk never spans two contigs.
type chunksBuilder struct {
	chunkSize uint64
	fileSize  uint64

	contigs  []disk.ContigChunks
	chunks   []disk.Chunk
	seen     map[string]struct{}
	features int

	cur       disk.Chunk
	hasCur    bool
	contig    string
	prevStart int64
}

func newChunksBuilder(chunkSize, fileSize uint64) *chunksBuilder {
	return &chunksBuilder{
		chunkSize: chunkSize,
		fileSize:  fileSize,
		seen:      make(map[string]struct{}),
	}
}

func (b *chunksBuilder) scan(file *os.File, path string, decode func([]byte) (feature.Locatable, bool, error)) error {
	var pos uint64 // offset right after the last scanned line
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), conf.MaxLineSize)
	scanner.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		advance, token, err := bufio.ScanLines(data, atEOF)
		pos += uint64(advance)
		return advance, token, err
	})

	lineNum := 0
	for linePos := pos; scanner.Scan(); linePos = pos {
		lineNum++

		feat, ok, err := decode(scanner.Bytes())
		if err != nil {
			return fmt.Errorf("can't decode line %d of %s: %w", lineNum, path, err)
		}
		if !ok {
			continue
		}
		if err := b.add(feat, linePos, min(pos, b.fileSize)); err != nil {
			return fmt.Errorf("%w: %s, line %d: %s", ErrUnsorted, path, lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("can't read %s: %w", path, err)
	}

	b.flush()
	return nil
}

// add appends the feature stored at [pos, end) of the file.
func (b *chunksBuilder) add(f feature.Locatable, pos, end uint64) error {
	switch {
	case len(b.contigs) == 0 || f.Contig() != b.contig:
		if _, ok := b.seen[f.Contig()]; ok {
			return fmt.Errorf("features of contig %s are not contiguous", f.Contig())
		}
		b.flush()
		b.seen[f.Contig()] = struct{}{}
		b.contig = f.Contig()
		b.contigs = append(b.contigs, disk.ContigChunks{
			Contig:     f.Contig(),
			FirstEntry: uint32(len(b.chunks)),
		})
	case f.Start() < b.prevStart:
		return fmt.Errorf("start %d on %s follows start %d", f.Start(), f.Contig(), b.prevStart)
	case uint64(b.cur.Len) >= b.chunkSize:
		b.flush()
	}

	if !b.hasCur {
		b.cur = disk.Chunk{Pos: pos, FirstStart: f.Start(), MaxEnd: f.End()}
		b.hasCur = true
	}
	// skipped lines between features stay inside the chunk, the codec skips them again on read
	b.cur.Len = uint32(end - b.cur.Pos)
	b.cur.Features++
	b.cur.MaxEnd = max(b.cur.MaxEnd, f.End())

	b.prevStart = f.Start()
	b.features++
	return nil
}

func (b *chunksBuilder) flush() {
	if !b.hasCur {
		return
	}
	b.chunks = append(b.chunks, b.cur)
	b.contigs[len(b.contigs)-1].Count++
	b.hasCur = false
}
