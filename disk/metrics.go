package disk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var readBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "seq_features",
	Subsystem: "disk",
	Name:      "read_bytes_total",
	Help:      "Bytes read from feature and index files",
})
