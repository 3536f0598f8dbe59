// Package promcollector exports vector tile builder metrics to Prometheus.
package promcollector

import (
	"time"

	"github.com/multun/mvt"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements mvt.MetricsCollector with Prometheus counters and
// histograms.
type Collector struct {
	layers       *prometheus.CounterVec
	features     prometheus.Counter
	tags         prometheus.Histogram
	encodes      *prometheus.CounterVec
	encodeTime   *prometheus.HistogramVec
	encodedBytes prometheus.Histogram
}

var _ mvt.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		layers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mvt_layers_total",
			Help:      "Layers offered to tiles, by outcome",
		}, []string{"status"}),
		features: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mvt_features_total",
			Help:      "Features committed to layers",
		}),
		tags: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mvt_feature_tags",
			Help:      "Tags per committed feature",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		encodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mvt_encodes_total",
			Help:      "Tile encodes, by outcome",
		}, []string{"status"}),
		encodeTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mvt_encode_duration_seconds",
			Help:      "Latency of tile encodes",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"status"}),
		encodedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mvt_encoded_bytes",
			Help:      "Size of successfully encoded tiles",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}),
	}
	for _, m := range []prometheus.Collector{c.layers, c.features, c.tags, c.encodes, c.encodeTime, c.encodedBytes} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on registration errors.
func MustNew(reg prometheus.Registerer, namespace string) *Collector {
	c, err := New(reg, namespace)
	if err != nil {
		panic(err)
	}
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordAddLayer counts a layer accepted or rejected by a tile.
func (c *Collector) RecordAddLayer(err error) {
	c.layers.WithLabelValues(status(err)).Inc()
}

// RecordFeature counts a committed feature and its tag count.
func (c *Collector) RecordFeature(tags int) {
	c.features.Inc()
	c.tags.Observe(float64(tags))
}

// RecordEncode records the outcome of a tile encode.
func (c *Collector) RecordEncode(bytes int, d time.Duration, err error) {
	s := status(err)
	c.encodes.WithLabelValues(s).Inc()
	c.encodeTime.WithLabelValues(s).Observe(d.Seconds())
	if err == nil {
		c.encodedBytes.Observe(float64(bytes))
	}
}
