package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gopkg.in/alecthomas/kingpin.v2"

	_ "go.uber.org/automaxprocs"

	"github.com/ozontech/seq-features/codec"
	"github.com/ozontech/seq-features/datasource"
	"github.com/ozontech/seq-features/feature"
	"github.com/ozontech/seq-features/logger"
	"github.com/ozontech/seq-features/store"
)

var (
	flagCodec     = kingpin.Flag("codec", "codec of the primary file, detected by file name if empty").Envar("SEQ_FEATURES_CODEC").String()
	flagConfig    = kingpin.Flag("config", "YAML file describing auxiliary sources").Short('c').Envar("SEQ_FEATURES_CONFIG").ExistingFile()
	flagAux       = kingpin.Flag("aux", "auxiliary source as name=path, repeatable").StringMap()
	flagLookahead = kingpin.Flag("lookahead", "query lookahead in bases for sources without their own").Default("-1").Int64()
	flagOutput    = kingpin.Flag("output", "output file, stdout if empty").Short('o').String()
	flagLogLevel  = kingpin.Flag("log-level", "log level").Default("info").Envar("LOG_LEVEL").Enum("debug", "info", "warn", "error")
	argPrimary    = kingpin.Arg("file", "sorted primary feature file").Required().ExistingFile()
)

type source = datasource.DataSource[feature.Locatable]

func main() {
	kingpin.CommandLine.Help = "Prints the features of a sorted file with the number of overlapping features of every auxiliary source."
	kingpin.Parse()
	defer logger.Sync()

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(*flagLogLevel)); err == nil {
		logger.SetLevel(level)
	}

	cfg, err := buildConfig()
	if err != nil {
		logger.Fatal("wrong config", zap.Error(err))
	}

	if err := run(cfg); err != nil {
		logger.Fatal("printing features failed", zap.Error(err))
	}
}

func buildConfig() (Config, error) {
	cfg := defaultConfig()
	if *flagConfig != "" {
		var err error
		if cfg, err = loadConfig(*flagConfig); err != nil {
			return cfg, err
		}
	}
	if *flagLookahead >= 0 {
		cfg.Lookahead = *flagLookahead
	}
	cfg.addAux(*flagAux)
	return cfg, cfg.validate()
}

func run(cfg Config) (err error) {
	c, err := pickCodec(*argPrimary, *flagCodec)
	if err != nil {
		return err
	}
	primary, err := datasource.Open(*argPrimary, c, datasource.WithName("primary"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, primary.Close())
	}()

	aux, err := openSources(cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, ds := range aux {
			err = multierr.Append(err, ds.Close())
		}
	}()

	out := os.Stdout
	if *flagOutput != "" {
		if out, err = os.Create(*flagOutput); err != nil {
			return fmt.Errorf("can't create output: %w", err)
		}
		defer func() {
			err = multierr.Append(err, out.Close())
		}()
	}

	w := bufio.NewWriter(out)
	if err := printFeatures(w, primary, aux); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("can't write output: %w", err)
	}

	for _, ds := range aux {
		stats := ds.Stats()
		logger.Info("auxiliary source stats",
			zap.String("source", ds.Name()),
			zap.Uint64("hits", stats.Hits),
			zap.Uint64("misses", stats.Misses),
			zap.Uint64("fetched", stats.Fetched),
		)
	}
	return nil
}

// openSources opens all auxiliary sources at once, loading their indexes in parallel.
func openSources(cfg Config) ([]*source, error) {
	res := make([]*source, len(cfg.Sources))

	g := errgroup.Group{}
	for i, s := range cfg.Sources {
		g.Go(func() error {
			c, err := pickCodec(s.Path, s.Codec)
			if err != nil {
				return err
			}
			ds, err := datasource.Open(s.Path, c,
				datasource.WithName(s.Name),
				datasource.WithQueryLookahead(s.lookahead(cfg.Lookahead)),
			)
			if err != nil {
				return fmt.Errorf("can't open source %q: %w", s.Name, err)
			}
			if !ds.HasIndex() {
				return multierr.Append(
					fmt.Errorf("%w: source %q at %s", datasource.ErrMissingIndex, s.Name, s.Path),
					ds.Close(),
				)
			}
			res[i] = ds
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, ds := range res {
			if ds != nil {
				err = multierr.Append(err, ds.Close())
			}
		}
		return nil, err
	}
	return res, nil
}

func pickCodec(path, name string) (codec.Locatable, error) {
	if name != "" {
		return codec.ByName(name)
	}
	return codec.Detect(path)
}

// printFeatures writes a TSV line per primary feature followed by the overlap count of every auxiliary source.
func printFeatures(w *bufio.Writer, primary *source, aux []*source) error {
	w.WriteString("#feature")
	for _, ds := range aux {
		w.WriteByte('\t')
		w.WriteString(ds.Name())
	}
	w.WriteByte('\n')

	it, err := primary.IterateAll()
	if err != nil {
		return err
	}
	defer it.Close()

	var buf []byte
	for f := range store.All(it) {
		// zero-length features are queried at their start
		interval, err := feature.NewInterval(f.Contig(), f.Start(), max(f.Start(), f.End()))
		if err != nil {
			return err
		}

		writeFeature(w, f)
		for _, ds := range aux {
			overlapping, err := ds.QueryAndFetch(interval)
			if err != nil {
				return err
			}
			buf = strconv.AppendInt(append(buf[:0], '\t'), int64(len(overlapping)), 10)
			w.Write(buf)
		}
		w.WriteByte('\n')
	}
	return it.Err()
}

func writeFeature(w *bufio.Writer, f feature.Locatable) {
	if s, ok := f.(fmt.Stringer); ok {
		w.WriteString(s.String())
		return
	}
	fmt.Fprintf(w, "%s\t%d\t%d", f.Contig(), f.Start(), f.End())
}
