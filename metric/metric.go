package metric

import "github.com/prometheus/client_golang/prometheus"

// SecondsBuckets covers stage durations from 50µs to about 25s.
var SecondsBuckets = prometheus.ExponentialBuckets(0.00005, 2, 20)
