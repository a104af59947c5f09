package monitor

import (
	"time"

	"github.com/signalsfoundry/moonangle/core"
	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/model"
	"github.com/signalsfoundry/moonangle/timectrl"
)

// Option configures a Monitor at construction time.
type Option func(*Monitor)

// WithEphemeris replaces the analytic ephemeris.
func WithEphemeris(e core.EphemerisProvider) Option {
	return func(m *Monitor) {
		if e != nil {
			m.ephem = e
		}
	}
}

// WithClock sets the clock used for evaluation instants and watchdog ticks.
func WithClock(c timectrl.SimClock) Option {
	return func(m *Monitor) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithInterval overrides the watchdog interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithBody selects the reference body. The default is the Moon.
func WithBody(b model.Body) Option {
	return func(m *Monitor) { m.body = b }
}

// WithConfig sets the initial configuration record.
func WithConfig(cfg model.MonitorConfig) Option {
	return func(m *Monitor) { m.cfg = cfg.Normalize() }
}

// WithLogger sets the base logger; the monitor adds its monitor_id.
func WithLogger(l logging.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.baseLog = l
		}
	}
}

// WithMetrics wires an evaluation telemetry sink.
func WithMetrics(mt Metrics) Option {
	return func(m *Monitor) {
		if mt != nil {
			m.metrics = mt
		}
	}
}

// WithObserver registers a StateObserver.
func WithObserver(o StateObserver) Option {
	return func(m *Monitor) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// WithID fixes the monitor identifier instead of generating one.
func WithID(id string) Option {
	return func(m *Monitor) {
		if id != "" {
			m.id = id
		}
	}
}
