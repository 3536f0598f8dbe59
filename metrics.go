package mvt

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting tile-building metrics.
// Implement this interface to integrate with monitoring systems; the
// promcollector package provides a Prometheus implementation.
//
// A collector may be shared by tiles built on different goroutines, so
// implementations must be safe for concurrent use.
type MetricsCollector interface {
	// RecordAddLayer is called after each Tile.AddLayer.
	// err is nil if the layer was accepted.
	RecordAddLayer(err error)

	// RecordFeature is called when a feature is committed to a layer.
	// tags is the number of key/value pairs on the feature.
	RecordFeature(tags int)

	// RecordEncode is called after each WriteTo or ToBytes.
	// bytes is the number of bytes produced, duration the time taken.
	RecordEncode(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAddLayer(error)                     {}
func (NoopMetricsCollector) RecordFeature(int)                        {}
func (NoopMetricsCollector) RecordEncode(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LayersAdded      atomic.Int64
	LayersRejected   atomic.Int64
	FeatureCount     atomic.Int64
	TagCount         atomic.Int64
	EncodeCount      atomic.Int64
	EncodeErrors     atomic.Int64
	EncodeBytes      atomic.Int64
	EncodeTotalNanos atomic.Int64
}

// RecordAddLayer implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddLayer(err error) {
	if err != nil {
		b.LayersRejected.Add(1)
		return
	}
	b.LayersAdded.Add(1)
}

// RecordFeature implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFeature(tags int) {
	b.FeatureCount.Add(1)
	b.TagCount.Add(int64(tags))
}

// RecordEncode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEncode(bytes int, duration time.Duration, err error) {
	b.EncodeCount.Add(1)
	b.EncodeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EncodeErrors.Add(1)
		return
	}
	b.EncodeBytes.Add(int64(bytes))
}

// MetricsStats is a point-in-time snapshot of a BasicMetricsCollector.
type MetricsStats struct {
	LayersAdded     int64
	LayersRejected  int64
	FeatureCount    int64
	TagCount        int64
	EncodeCount     int64
	EncodeErrors    int64
	EncodeBytes     int64
	EncodeAvgNanos  int64
	AvgTagsPerFeat  float64
	AvgBytesPerTile int64
}

// GetStats returns a snapshot of the collected metrics.
func (b *BasicMetricsCollector) GetStats() MetricsStats {
	s := MetricsStats{
		LayersAdded:    b.LayersAdded.Load(),
		LayersRejected: b.LayersRejected.Load(),
		FeatureCount:   b.FeatureCount.Load(),
		TagCount:       b.TagCount.Load(),
		EncodeCount:    b.EncodeCount.Load(),
		EncodeErrors:   b.EncodeErrors.Load(),
		EncodeBytes:    b.EncodeBytes.Load(),
	}
	if s.EncodeCount > 0 {
		s.EncodeAvgNanos = b.EncodeTotalNanos.Load() / s.EncodeCount
	}
	if ok := s.EncodeCount - s.EncodeErrors; ok > 0 {
		s.AvgBytesPerTile = s.EncodeBytes / ok
	}
	if s.FeatureCount > 0 {
		s.AvgTagsPerFeat = float64(s.TagCount) / float64(s.FeatureCount)
	}
	return s
}
