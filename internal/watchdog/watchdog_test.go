package watchdog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/signalsfoundry/moonangle/timectrl"
)

const waitTimeout = 2 * time.Second

func newClock() *timectrl.TimeController {
	return timectrl.NewTimeController(time.Date(2025, 1, 1, 22, 0, 0, 0, time.UTC), time.Second, timectrl.Accelerated)
}

// step waits for the loop to arm its timer, advances one interval and waits
// for the resulting tick to be reported on ticks.
func step(t *testing.T, clock *timectrl.TimeController, ticks <-chan struct{}) {
	t.Helper()
	if !clock.BlockUntil(1, waitTimeout) {
		t.Fatalf("watchdog never armed its timer")
	}
	clock.Advance(DefaultInterval)
	select {
	case <-ticks:
	case <-time.After(waitTimeout):
		t.Fatalf("tick did not fire after advancing the clock")
	}
}

func TestWatchdogTicksAtFixedDelay(t *testing.T) {
	clock := newClock()
	ticks := make(chan struct{}, 10)
	w := New(func(context.Context) error {
		ticks <- struct{}{}
		return nil
	}, WithClock(clock))

	if !w.Start(context.Background()) {
		t.Fatalf("Start should launch a new loop")
	}
	defer w.Stop()

	if !clock.BlockUntil(1, waitTimeout) {
		t.Fatalf("watchdog never armed its timer")
	}
	clock.Advance(DefaultInterval - time.Second)
	select {
	case <-ticks:
		t.Fatalf("tick fired before the interval elapsed")
	case <-time.After(20 * time.Millisecond):
	}
	clock.Advance(time.Second)
	select {
	case <-ticks:
	case <-time.After(waitTimeout):
		t.Fatalf("tick did not fire at the interval")
	}

	step(t, clock, ticks)
}

func TestWatchdogStartIsIdempotent(t *testing.T) {
	w := New(func(context.Context) error { return nil }, WithClock(newClock()))
	if !w.Start(context.Background()) {
		t.Fatalf("first Start should launch")
	}
	if w.Start(context.Background()) {
		t.Fatalf("second Start should not launch another loop")
	}
	w.Stop()
	if w.Running() {
		t.Fatalf("Running() should be false after Stop")
	}
	if err := w.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestWatchdogNoTickAfterStop(t *testing.T) {
	clock := newClock()
	var count atomic.Int32
	w := New(func(context.Context) error {
		count.Add(1)
		return nil
	}, WithClock(clock))

	w.Start(context.Background())
	if !clock.BlockUntil(1, waitTimeout) {
		t.Fatalf("watchdog never armed its timer")
	}
	w.Stop()
	clock.Advance(10 * DefaultInterval)

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := w.Wait(ctx); err != nil {
		t.Fatalf("loop did not exit: %v", err)
	}
	if n := count.Load(); n != 0 {
		t.Fatalf("tick ran %d times after Stop", n)
	}
}

func TestWatchdogStopFromInsideTick(t *testing.T) {
	clock := newClock()
	ticks := make(chan struct{}, 10)
	var w *Watchdog
	w = New(func(context.Context) error {
		w.Stop()
		ticks <- struct{}{}
		return nil
	}, WithClock(clock))

	w.Start(context.Background())
	step(t, clock, ticks)

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := w.Wait(ctx); err != nil {
		t.Fatalf("loop did not exit after self-stop: %v", err)
	}
	if w.Running() {
		t.Fatalf("watchdog still running after self-stop")
	}
}

func TestWatchdogErrStopEndsLoop(t *testing.T) {
	clock := newClock()
	ticks := make(chan struct{}, 10)
	w := New(func(context.Context) error {
		ticks <- struct{}{}
		return ErrStop
	}, WithClock(clock))

	w.Start(context.Background())
	step(t, clock, ticks)

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := w.Wait(ctx); err != nil {
		t.Fatalf("loop did not exit on ErrStop: %v", err)
	}
	if w.Running() {
		t.Fatalf("Running() should be false after ErrStop")
	}
	if !w.Start(context.Background()) {
		t.Fatalf("watchdog should be restartable after ErrStop")
	}
	w.Stop()
}

func TestWatchdogTickErrorKeepsRunning(t *testing.T) {
	clock := newClock()
	ticks := make(chan struct{}, 10)
	w := New(func(context.Context) error {
		ticks <- struct{}{}
		return errors.New("ephemeris unavailable")
	}, WithClock(clock))

	w.Start(context.Background())
	defer w.Stop()

	step(t, clock, ticks)
	step(t, clock, ticks)
	if !w.Running() {
		t.Fatalf("a failing tick should not stop the loop")
	}
}

func TestWatchdogParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := New(func(context.Context) error { return nil }, WithClock(newClock()))
	w.Start(ctx)
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), waitTimeout)
	defer waitCancel()
	if err := w.Wait(waitCtx); err != nil {
		t.Fatalf("loop did not exit on parent cancel: %v", err)
	}
	if w.Running() {
		t.Fatalf("Running() should be false after parent cancel")
	}
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	w := New(nil, WithInterval(0))
	if w.Interval() != DefaultInterval {
		t.Fatalf("Interval() = %v, want %v", w.Interval(), DefaultInterval)
	}
	w = New(nil, WithInterval(time.Second))
	if w.Interval() != time.Second {
		t.Fatalf("Interval() = %v, want 1s", w.Interval())
	}
}
