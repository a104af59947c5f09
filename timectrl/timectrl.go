package timectrl

import (
	"sort"
	"sync"
	"time"
)

// SimClock is the clock abstraction the watchdog and monitor engine depend
// on, so tests and replays can drive time instead of the wall clock.
type SimClock interface {
	// Now returns the current time.
	Now() time.Time
	// After returns a channel that receives the current time once d has
	// elapsed on this clock.
	After(d time.Duration) <-chan time.Time
}

// WallClock is the production SimClock backed by package time.
type WallClock struct{}

// Now implements SimClock.
func (WallClock) Now() time.Time { return time.Now() }

// After implements SimClock.
func (WallClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Mode describes how the TimeController advances time when started.
type Mode int

const (
	// RealTime advances one Tick per wall-clock Tick.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run while still stepping by Tick.
	Accelerated
)

type timer struct {
	deadline time.Time
	ch       chan time.Time
}

// TimeController is a manually or automatically advanced SimClock. Timers
// handed out by After fire as soon as the controller's time reaches their
// deadline, whether time moves through Advance, SetTime or Start.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	timers      []timer
	waitersCh   chan struct{}

	listeners []func(time.Time)
}

// NewTimeController constructs a controller positioned at start.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
		waitersCh:   make(chan struct{}),
	}
}

// Now returns the controller's current time. Implements SimClock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// After registers a timer that fires once the controller's time has moved d
// past the current time. A non-positive d fires immediately. Implements SimClock.
func (tc *TimeController) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)

	tc.mu.Lock()
	defer tc.mu.Unlock()

	if d <= 0 {
		ch <- tc.currentTime
		return ch
	}
	tc.timers = append(tc.timers, timer{deadline: tc.currentTime.Add(d), ch: ch})
	close(tc.waitersCh)
	tc.waitersCh = make(chan struct{})
	return ch
}

// Waiters returns the number of timers that have not fired yet.
func (tc *TimeController) Waiters() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.timers)
}

// BlockUntil waits until at least n timers are pending or timeout expires,
// reporting whether the count was reached. Tests use it to avoid advancing
// time before a goroutine has armed its timer.
func (tc *TimeController) BlockUntil(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		tc.mu.RLock()
		count := len(tc.timers)
		changed := tc.waitersCh
		tc.mu.RUnlock()

		if count >= n {
			return true
		}
		select {
		case <-changed:
		case <-deadline:
			return false
		}
	}
}

// SetTime moves the controller to now and fires every timer whose deadline
// has been reached. Moving backwards never fires timers.
func (tc *TimeController) SetTime(now time.Time) {
	tc.mu.Lock()
	tc.currentTime = now
	due := tc.collectDueLocked()
	listeners := append([]func(time.Time){}, tc.listeners...)
	tc.mu.Unlock()

	for _, ch := range due {
		ch <- now
	}
	for _, fn := range listeners {
		fn(now)
	}
}

// Advance moves the controller forward by d.
func (tc *TimeController) Advance(d time.Duration) {
	tc.SetTime(tc.Now().Add(d))
}

// collectDueLocked removes and returns expired timers in deadline order.
// Callers must hold tc.mu.
func (tc *TimeController) collectDueLocked() []chan time.Time {
	if len(tc.timers) == 0 {
		return nil
	}
	sort.SliceStable(tc.timers, func(i, j int) bool {
		return tc.timers[i].deadline.Before(tc.timers[j].deadline)
	})

	var due []chan time.Time
	kept := tc.timers[:0]
	for _, tm := range tc.timers {
		if !tm.deadline.After(tc.currentTime) {
			due = append(due, tm.ch)
			continue
		}
		kept = append(kept, tm)
	}
	tc.timers = kept
	return due
}

// AddListener registers a callback invoked every time the controller's time changes.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Start runs the controller for the specified duration in a separate goroutine.
// It returns a channel that is closed when the controller finishes.
func (tc *TimeController) Start(duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.SetTime(tc.StartTime)
		elapsed := time.Duration(0)

		var ticker *time.Ticker
		if tc.Mode == RealTime {
			ticker = time.NewTicker(tc.Tick)
			defer ticker.Stop()
		}

		for {
			if duration > 0 && elapsed >= duration {
				return
			}
			if ticker != nil {
				<-ticker.C
			}
			elapsed += tc.Tick
			tc.SetTime(tc.StartTime.Add(elapsed))
		}
	}()
	return done
}
