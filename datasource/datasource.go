package datasource

import (
	"fmt"
	"iter"
	"math"
	"path/filepath"
	"reflect"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ozontech/seq-features/cache"
	"github.com/ozontech/seq-features/feature"
	"github.com/ozontech/seq-features/logger"
	"github.com/ozontech/seq-features/metric/stopwatch"
	"github.com/ozontech/seq-features/store"
)

// Store is the backing storage of a data source: a position-sorted collection of features
// that can be iterated as a whole and, when indexed, queried by range.
// At most one iteration over a Store may be open at a time.
type Store[T feature.Locatable] interface {
	Path() string
	HasIndex() bool
	Iterate() (store.Iterator[T], error)
	Query(contig string, start, stop int64) (store.Iterator[T], error)
	Close() error
}

type Stats struct {
	Hits       uint64
	Misses     uint64
	Refills    uint64
	Fetched    uint64
	Iterations uint64
}

// DataSource answers range queries over a Store through a sliding-window cache.
// It is tuned for queries whose starts grow gradually along a contig: a missed query fetches
// the queried interval and some look-ahead after it, so the following queries are served from memory.
//
// DataSource owns its store and at most one open store iteration. It is not safe for concurrent use.
type DataSource[T feature.Locatable] struct {
	store     Store[T]
	path      string
	name      string
	lookahead int64
	hasIndex  bool

	current store.Iterator[T]
	cache   *cache.Window[T]
	buf     []T

	metrics bool
	source  string
	sw      *stopwatch.Stopwatch
	stats   Stats
	closed  bool
}

// Open opens the feature file at path as a data source decoding it with codec.
func Open[T feature.Locatable](path string, codec store.Codec[T], opts ...Option) (*DataSource[T], error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty feature file path", ErrInvalidConfig)
	}
	if codec == nil {
		return nil, fmt.Errorf("%w: no codec for %s", ErrInvalidConfig, path)
	}
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(path, codec)
	if err != nil {
		return nil, err
	}
	return newDataSource[T](st, cfg), nil
}

// New returns a data source over st. The data source takes ownership of st and closes it on Close.
func New[T feature.Locatable](st Store[T], opts ...Option) (*DataSource[T], error) {
	if st == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return newDataSource(st, cfg), nil
}

func buildConfig(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.lookahead < 0 {
		return cfg, fmt.Errorf("%w: negative query lookahead %d", ErrInvalidConfig, cfg.lookahead)
	}
	return cfg, nil
}

func newDataSource[T feature.Locatable](st Store[T], cfg config) *DataSource[T] {
	ds := &DataSource[T]{
		store:     st,
		path:      st.Path(),
		name:      cfg.name,
		lookahead: cfg.lookahead,
		hasIndex:  st.HasIndex(),
		cache:     cache.NewWindow[T](),
		metrics:   cfg.metrics,
		sw:        stopwatch.New(),
	}

	ds.source = ds.name
	if ds.source == "" {
		ds.source = filepath.Base(ds.path)
	}

	logger.Debug("data source opened",
		zap.String("source", ds.source),
		zap.String("path", ds.path),
		zap.Bool("indexed", ds.hasIndex),
		zap.Int64("lookahead", ds.lookahead),
	)
	return ds
}

// Name returns the logical name given with WithName, empty if there is none.
func (ds *DataSource[T]) Name() string {
	return ds.name
}

func (ds *DataSource[T]) Path() string {
	return ds.path
}

func (ds *DataSource[T]) HasIndex() bool {
	return ds.hasIndex
}

// FeatureType returns the type of the features the source serves.
func (ds *DataSource[T]) FeatureType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (ds *DataSource[T]) Stats() Stats {
	return ds.stats
}

// QueryAndFetch returns all features overlapping interval in store order.
// Either all of them are returned or an error is.
func (ds *DataSource[T]) QueryAndFetch(interval feature.Interval) ([]T, error) {
	if ds.closed {
		return nil, ErrClosed
	}
	if !ds.hasIndex {
		return nil, fmt.Errorf(
			"%w: can't query %s, the file has no index; build one with index-features",
			ErrMissingIndex, ds.path,
		)
	}

	if ds.cache.Hit(interval) {
		ds.stats.Hits++
		ds.countQuery(cacheHit)
		ds.cache.TrimToNewStart(interval.Start())
	} else {
		ds.stats.Misses++
		ds.countQuery(cacheMiss)
		if err := ds.refill(interval); err != nil {
			return nil, err
		}
	}

	return ds.cache.UpToStop(interval.Stop()), nil
}

// Query is QueryAndFetch returning the features as a sequence.
func (ds *DataSource[T]) Query(interval feature.Interval) (iter.Seq[T], error) {
	features, err := ds.QueryAndFetch(interval)
	if err != nil {
		return nil, err
	}
	return slices.Values(features), nil
}

// IterateAll returns all features of the store in store order, bypassing the cache.
// The iterator stays valid until the next IterateAll, cache refill or Close.
func (ds *DataSource[T]) IterateAll() (store.Iterator[T], error) {
	if ds.closed {
		return nil, ErrClosed
	}
	if err := ds.closeCurrent(); err != nil {
		return nil, err
	}

	it, err := ds.store.Iterate()
	if err != nil {
		return nil, fmt.Errorf("can't iterate over %s: %w", ds.path, err)
	}
	ds.current = it

	ds.stats.Iterations++
	if ds.metrics {
		iterationsTotal.WithLabelValues(ds.source).Inc()
	}
	return it, nil
}

func (ds *DataSource[T]) refill(interval feature.Interval) error {
	if err := ds.closeCurrent(); err != nil {
		ds.cache.Reset()
		return err
	}

	fetchStop := interval.Stop() + ds.lookahead
	if fetchStop < interval.Stop() {
		fetchStop = math.MaxInt64
	}

	total := ds.sw.Start("refill")
	features, err := ds.fetch(interval.Contig(), interval.Start(), fetchStop)
	if err != nil {
		total.Stop()
		ds.sw.Reset()
		ds.cache.Reset()
		return fmt.Errorf("can't query %s for %s: %w", ds.path, interval, err)
	}

	m := ds.sw.Start("fill")
	ds.cache.Fill(interval, features)
	m.Stop()
	total.Stop()

	clear(features)
	ds.buf = features[:0]

	ds.stats.Refills++
	ds.stats.Fetched += uint64(len(features))
	if ds.metrics {
		fetchedFeaturesTotal.WithLabelValues(ds.source).Add(float64(len(features)))
		ds.sw.Export(refillStagesSeconds, stopwatch.SetLabel("source", ds.source))
	} else {
		ds.sw.Reset()
	}

	logger.Debug("feature cache refilled",
		zap.String("source", ds.source),
		zap.String("contig", interval.Contig()),
		zap.Int64("start", interval.Start()),
		zap.Int64("stop", interval.Stop()),
		zap.Int64("fetch_stop", fetchStop),
		zap.Int("fetched", len(features)),
	)
	return nil
}

// fetch drains a range query into ds.buf. The query iteration never outlives the call.
func (ds *DataSource[T]) fetch(contig string, start, stop int64) (features []T, err error) {
	m := ds.sw.Start("query")
	it, err := ds.store.Query(contig, start, stop)
	m.Stop()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := it.Close(); closeErr != nil {
			err = multierr.Append(err, closeErr)
			features = nil
		}
	}()

	m = ds.sw.Start("drain")
	features, err = store.Drain(it, ds.buf)
	m.Stop()
	if err != nil {
		clear(features)
		return nil, err
	}
	return features, nil
}

func (ds *DataSource[T]) closeCurrent() error {
	if ds.current == nil {
		return nil
	}
	it := ds.current
	ds.current = nil
	if err := it.Close(); err != nil {
		return fmt.Errorf("can't close iteration over %s: %w", ds.path, err)
	}
	return nil
}

func (ds *DataSource[T]) countQuery(result string) {
	if ds.metrics {
		queriesTotal.WithLabelValues(ds.source, result).Inc()
	}
}

// Close closes the open iteration, if any, and then the store.
func (ds *DataSource[T]) Close() error {
	if ds.closed {
		return ErrClosed
	}
	ds.closed = true
	ds.cache.Reset()

	err := ds.closeCurrent()
	if closeErr := ds.store.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("can't close %s: %w", ds.path, closeErr))
	}

	logger.Debug("data source closed",
		zap.String("source", ds.source),
		zap.Uint64("hits", ds.stats.Hits),
		zap.Uint64("misses", ds.stats.Misses),
		zap.Uint64("fetched", ds.stats.Fetched),
	)
	return err
}
