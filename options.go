package segset

import (
	"github.com/hupe1980/segset/resource"
)

type options struct {
	logger          *Logger
	metrics         MetricsCollector
	resource        resource.Config
	flushEvery      int
	loadConcurrency int
	trackExistence  bool
}

func defaultOptions() options {
	return options{
		logger:          NoopLogger(),
		metrics:         NoopMetricsCollector{},
		flushEvery:      0,
		loadConcurrency: 4,
		trackExistence:  true,
	}
}

// Option configures an Index.
type Option func(*options)

// WithLogger configures the logger. If nil is passed, logging is
// disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics configures the metrics collector. If nil is passed,
// metrics collection is disabled.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithResourceLimits configures the memory budget for deferred-update
// buffers and the flush I/O pacing of bulk-load sessions.
func WithResourceLimits(cfg resource.Config) Option {
	return func(o *options) {
		o.resource = cfg
	}
}

// WithFlushEvery makes bulk-load sessions flush automatically after the
// given number of buffered operations. Zero (the default) flushes only
// at explicit Flush/Close calls, keeping flush boundaries fully under
// caller control.
func WithFlushEvery(ops int) Option {
	return func(o *options) {
		o.flushEvery = ops
	}
}

// WithLoadConcurrency bounds the number of record sets loaded in
// parallel by RecordSets. Defaults to 4.
func WithLoadConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.loadConcurrency = n
		}
	}
}

// WithExistenceTracking controls whether bulk-load sessions maintain
// the existence map of loaded record numbers (the universe used by
// Complement). Enabled by default.
func WithExistenceTracking(enabled bool) Option {
	return func(o *options) {
		o.trackExistence = enabled
	}
}
