package timectrl

import (
	"testing"
	"time"
)

func TestTimeControllerSetTime(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, RealTime)

	newNow := start.Add(42 * time.Second)
	tc.SetTime(newNow)

	if got := tc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestTimeControllerStartUpdatesNow(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, 5*time.Millisecond, Accelerated)

	done := tc.Start(15 * time.Millisecond)
	<-done

	expected := start.Add(15 * time.Millisecond)
	if got := tc.Now(); !got.Equal(expected) {
		t.Fatalf("Now() = %v, want %v", got, expected)
	}
}

func TestTimeControllerAfterFiresOnAdvance(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, Accelerated)

	ch := tc.After(5 * time.Second)
	if tc.Waiters() != 1 {
		t.Fatalf("Waiters() = %d, want 1", tc.Waiters())
	}

	tc.Advance(4 * time.Second)
	select {
	case <-ch:
		t.Fatalf("timer fired before its deadline")
	default:
	}

	tc.Advance(time.Second)
	select {
	case got := <-ch:
		if want := start.Add(5 * time.Second); !got.Equal(want) {
			t.Fatalf("timer delivered %v, want %v", got, want)
		}
	default:
		t.Fatalf("timer did not fire at its deadline")
	}
	if tc.Waiters() != 0 {
		t.Fatalf("fired timer still pending")
	}
}

func TestTimeControllerAfterNonPositiveFiresImmediately(t *testing.T) {
	tc := NewTimeController(time.Unix(0, 0), time.Second, Accelerated)
	select {
	case <-tc.After(0):
	default:
		t.Fatalf("After(0) should fire immediately")
	}
}

func TestTimeControllerBlockUntil(t *testing.T) {
	tc := NewTimeController(time.Unix(0, 0), time.Second, Accelerated)

	go func() {
		time.Sleep(10 * time.Millisecond)
		tc.After(time.Minute)
	}()

	if !tc.BlockUntil(1, time.Second) {
		t.Fatalf("BlockUntil did not observe the pending timer")
	}
	if tc.BlockUntil(2, 20*time.Millisecond) {
		t.Fatalf("BlockUntil reported a timer that was never registered")
	}
}

func TestTimeControllerListeners(t *testing.T) {
	start := time.Unix(100, 0)
	tc := NewTimeController(start, time.Second, Accelerated)

	var seen []time.Time
	tc.AddListener(func(now time.Time) { seen = append(seen, now) })

	tc.Advance(time.Second)
	tc.Advance(time.Second)

	if len(seen) != 2 || !seen[1].Equal(start.Add(2*time.Second)) {
		t.Fatalf("listener saw %v", seen)
	}
}

func TestWallClockAfter(t *testing.T) {
	var c SimClock = WallClock{}
	before := c.Now()
	got := <-c.After(time.Millisecond)
	if got.Before(before) {
		t.Fatalf("WallClock.After delivered %v before %v", got, before)
	}
}
