package main

import (
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gopkg.in/alecthomas/kingpin.v2"

	_ "go.uber.org/automaxprocs"

	"github.com/ozontech/seq-features/codec"
	"github.com/ozontech/seq-features/conf"
	"github.com/ozontech/seq-features/consts"
	"github.com/ozontech/seq-features/disk"
	"github.com/ozontech/seq-features/indexer"
	"github.com/ozontech/seq-features/logger"
)

var (
	chunkSize = datasize.ByteSize(consts.DefaultChunkSize)

	flagCodec       = kingpin.Flag("codec", "codec of the feature files, detected by file name if empty").Envar("SEQ_FEATURES_CODEC").String()
	flagCompression = kingpin.Flag("compression", "compression of the index tables").Default("zstd").Envar("SEQ_FEATURES_COMPRESSION").Enum("none", "lz4", "zstd")
	flagOutput      = kingpin.Flag("output", "index file path, allowed for a single feature file only").Short('o').String()
	flagParallel    = kingpin.Flag("parallel", "how many files to index at once").Default("1").Int()
	flagSkipFsync   = kingpin.Flag("skip-fsync", "don't fsync written index files").Bool()
	flagLogLevel    = kingpin.Flag("log-level", "log level").Default("info").Envar("LOG_LEVEL").Enum("debug", "info", "warn", "error")
	argFiles        = kingpin.Arg("file", "sorted feature files to index").Required().ExistingFiles()
)

func init() {
	kingpin.Flag("chunk-size", "size of a feature file range addressed by one index entry, e.g. 64KB").
		Default(chunkSize.String()).
		Envar("SEQ_FEATURES_CHUNK_SIZE").
		SetValue(&sizeValue{&chunkSize})
}

// sizeValue adapts datasize.ByteSize to kingpin.Value.
type sizeValue struct {
	size *datasize.ByteSize
}

func (v *sizeValue) Set(s string) error {
	return v.size.UnmarshalText([]byte(s))
}

func (v *sizeValue) String() string {
	return v.size.String()
}

func main() {
	kingpin.CommandLine.Help = "Builds the range query index of sorted feature files."
	kingpin.Parse()
	defer logger.Sync()

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(*flagLogLevel)); err == nil {
		logger.SetLevel(level)
	}
	conf.SkipFsync = *flagSkipFsync

	params, err := buildParams()
	if err != nil {
		logger.Fatal("wrong arguments", zap.Error(err))
	}

	g := errgroup.Group{}
	g.SetLimit(max(*flagParallel, 1))
	for _, path := range *argFiles {
		g.Go(func() error {
			return index(path, params)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Fatal("indexing failed", zap.Error(err))
	}
}

func buildParams() (indexer.Params, error) {
	params := indexer.DefaultParams()
	params.ChunkSize = chunkSize
	if params.ChunkSize == 0 {
		return params, fmt.Errorf("chunk size must be positive")
	}

	compression, err := disk.ParseCodec(*flagCompression)
	if err != nil {
		return params, err
	}
	params.Compression = compression

	if *flagOutput != "" {
		if len(*argFiles) > 1 {
			return params, fmt.Errorf("--output can't be used with %d feature files", len(*argFiles))
		}
		params.IndexPath = *flagOutput
	}
	return params, nil
}

func index(path string, params indexer.Params) error {
	c, err := pickCodec(path)
	if err != nil {
		return err
	}

	info, err := indexer.Build(path, c, params)
	if err != nil {
		return fmt.Errorf("can't index %s: %w", path, err)
	}
	fmt.Fprintf(os.Stdout, "%s\t%s\t%d features\t%d chunks\t%d contigs\n",
		info.IndexPath, info.BuildID, info.Features, info.Chunks, info.Contigs)
	return nil
}

func pickCodec(path string) (codec.Locatable, error) {
	if *flagCodec != "" {
		return codec.ByName(*flagCodec)
	}
	return codec.Detect(path)
}
