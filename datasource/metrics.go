package datasource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ozontech/seq-features/metric"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_features",
		Subsystem: "datasource",
		Name:      "queries_total",
		Help:      "Range queries by source and cache result",
	}, []string{"source", "cache"})
	fetchedFeaturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_features",
		Subsystem: "datasource",
		Name:      "fetched_features_total",
		Help:      "Features read from the store by cache refills",
	}, []string{"source"})
	refillStagesSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "seq_features",
		Subsystem: "datasource",
		Name:      "refill_stages_seconds",
		Help:      "",
		Buckets:   metric.SecondsBuckets,
	}, []string{"stage", "source"})
	iterationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_features",
		Subsystem: "datasource",
		Name:      "iterations_total",
		Help:      "Full store iterations opened",
	}, []string{"source"})
)

const (
	cacheHit  = "hit"
	cacheMiss = "miss"
)
