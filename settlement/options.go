package settlement

import (
	"time"

	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/lock"
)

type Option func(*Engine)

// WithLocker guards each (user, date) step with l for ttl.
func WithLocker(l lock.Locker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		if ttl > 0 {
			e.lockTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithObserver may be given more than once.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}
