// Package watchdog runs a periodic re-evaluation loop with fixed-delay
// scheduling: the next wait only starts after the previous tick returned.
package watchdog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/signalsfoundry/moonangle/internal/logging"
	"github.com/signalsfoundry/moonangle/timectrl"
)

// DefaultInterval is the delay between the end of one tick and the start of the next.
const DefaultInterval = 5 * time.Second

// ErrStop may be returned by a TickFunc to end the loop without logging an error.
var ErrStop = errors.New("watchdog: stop requested")

// TickFunc is one re-evaluation. Any error other than ErrStop is logged and
// the loop keeps running.
type TickFunc func(ctx context.Context) error

// Option configures a Watchdog.
type Option func(*Watchdog)

// WithClock sets the clock used to schedule ticks.
func WithClock(c timectrl.SimClock) Option {
	return func(w *Watchdog) {
		if c != nil {
			w.clock = c
		}
	}
}

// WithInterval overrides DefaultInterval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(w *Watchdog) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLogger sets the logger used for tick failures.
func WithLogger(l logging.Logger) Option {
	return func(w *Watchdog) {
		if l != nil {
			w.log = l
		}
	}
}

// Watchdog owns at most one background loop at a time. Start, Stop and
// Running are safe for concurrent use, and Stop may be called from inside
// the tick function.
type Watchdog struct {
	tick     TickFunc
	clock    timectrl.SimClock
	interval time.Duration
	log      logging.Logger

	mu  sync.Mutex
	run *run
}

type run struct {
	cancel  context.CancelFunc
	stopped bool
	done    chan struct{}
}

// New constructs a stopped watchdog around tick.
func New(tick TickFunc, opts ...Option) *Watchdog {
	w := &Watchdog{
		tick:     tick,
		clock:    timectrl.WallClock{},
		interval: DefaultInterval,
		log:      logging.Noop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Interval returns the configured delay between ticks.
func (w *Watchdog) Interval() time.Duration { return w.interval }

// Start launches the loop if it is not already running and reports whether
// a new loop was started. The loop ends when ctx is cancelled, Stop is
// called or the tick returns ErrStop.
func (w *Watchdog) Start(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.run != nil && !w.run.stopped {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel, done: make(chan struct{})}
	w.run = r

	go w.loop(ctx, r)
	return true
}

// Stop cancels the running loop. It does not wait for an in-flight tick to
// return, but once Stop returns no further tick will begin.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *Watchdog) stopLocked() {
	if w.run == nil || w.run.stopped {
		return
	}
	w.run.stopped = true
	w.run.cancel()
}

// Running reports whether a loop is active.
func (w *Watchdog) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.run != nil && !w.run.stopped
}

// Wait blocks until the most recently started loop has exited or ctx ends.
func (w *Watchdog) Wait(ctx context.Context) error {
	w.mu.Lock()
	r := w.run
	w.mu.Unlock()
	if r == nil {
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Watchdog) loop(ctx context.Context, r *run) {
	defer close(r.done)
	defer func() {
		w.mu.Lock()
		if w.run == r {
			w.stopLocked()
		}
		w.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.clock.After(w.interval):
		}

		if !w.begin(r) {
			return
		}
		if err := w.tick(ctx); err != nil {
			if errors.Is(err, ErrStop) {
				return
			}
			if ctx.Err() == nil {
				w.log.Error(ctx, "watchdog tick failed", logging.Err(err))
			}
		}
	}
}

// begin checks, under the same lock Stop takes, that r is still live.
func (w *Watchdog) begin(r *run) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !r.stopped
}
