package datasource

import (
	"github.com/ozontech/seq-features/consts"
)

type config struct {
	name      string
	lookahead int64
	metrics   bool
}

func defaultConfig() config {
	return config{
		lookahead: consts.DefaultQueryLookaheadBases,
		metrics:   true,
	}
}

type Option func(*config)

// WithName sets the logical name of the source used in logs, metrics and by callers to tell
// several sources apart.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithQueryLookahead sets how many bases past the stop of a missed query are fetched into the cache.
func WithQueryLookahead(bases int64) Option {
	return func(c *config) {
		c.lookahead = bases
	}
}

func WithMetrics(enabled bool) Option {
	return func(c *config) {
		c.metrics = enabled
	}
}
