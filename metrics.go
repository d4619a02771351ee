package segset

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational
// metrics. Implement this interface to integrate with monitoring
// systems like Prometheus.
type MetricsCollector interface {
	// RecordLoad is called after each record-set load.
	// segments is the number of segments read, duration is the time
	// taken, err is nil if successful.
	RecordLoad(segments int, duration time.Duration, err error)

	// RecordWrite is called after each record-set write.
	RecordWrite(segments int, duration time.Duration, err error)

	// RecordFlush is called after each deferred-update flush.
	// ops is the number of buffered operations merged.
	RecordFlush(ops int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordWrite(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordFlush(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external
// dependencies.
type BasicMetricsCollector struct {
	LoadCount       atomic.Int64
	LoadErrors      atomic.Int64
	LoadTotalNanos  atomic.Int64
	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WriteTotalNanos atomic.Int64
	FlushCount      atomic.Int64
	FlushErrors     atomic.Int64
	FlushOps        atomic.Int64
	FlushTotalNanos atomic.Int64
}

func (m *BasicMetricsCollector) RecordLoad(_ int, duration time.Duration, err error) {
	m.LoadCount.Add(1)
	m.LoadTotalNanos.Add(int64(duration))
	if err != nil {
		m.LoadErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordWrite(_ int, duration time.Duration, err error) {
	m.WriteCount.Add(1)
	m.WriteTotalNanos.Add(int64(duration))
	if err != nil {
		m.WriteErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordFlush(ops int, duration time.Duration, err error) {
	m.FlushCount.Add(1)
	m.FlushOps.Add(int64(ops))
	m.FlushTotalNanos.Add(int64(duration))
	if err != nil {
		m.FlushErrors.Add(1)
	}
}
