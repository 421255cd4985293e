package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManager_OneShot(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired atomic.Int32
	m.AddTimer(50*time.Millisecond, 0, func() { fired.Add(1) })

	time.Sleep(500 * time.Millisecond)
	if fired.Load() != 1 {
		t.Errorf("Expected the task to fire exactly once, got %d", fired.Load())
	}
}

func TestManager_Repeating(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired atomic.Int32
	m.AddTimer(0, 100*time.Millisecond, func() { fired.Add(1) })

	time.Sleep(550 * time.Millisecond)
	if n := fired.Load(); n < 3 {
		t.Errorf("Expected at least 3 repeats in ~500ms, got %d", n)
	}
}

func TestManager_RemoveTimer(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired atomic.Int32
	id := m.AddTimer(300*time.Millisecond, 0, func() { fired.Add(1) })
	m.RemoveTimer(id)

	time.Sleep(600 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("A removed task must not fire")
	}
}

func TestRemainingSeconds(t *testing.T) {
	now := time.Now()
	cases := []struct {
		elapsed  time.Duration
		duration int
		want     int
	}{
		{0, 120, 120},
		{30 * time.Second, 120, 90},
		{120 * time.Second, 120, 0},
		{500 * time.Second, 120, 0}, // never negative
	}

	for _, c := range cases {
		got := RemainingSeconds(now.Add(-c.elapsed), c.duration, now)
		if got != c.want {
			t.Errorf("RemainingSeconds(elapsed=%v, duration=%d) = %d, want %d",
				c.elapsed, c.duration, got, c.want)
		}
	}
}

func TestRoundWatcher_FiresOnceOnExpiry(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired atomic.Int32
	// Round started 2s ago with a 1s duration: already expired.
	w := NewRoundWatcher(m, time.Now().Add(-2*time.Second), 1, func() { fired.Add(1) })
	defer w.Stop()

	time.Sleep(700 * time.Millisecond)
	if fired.Load() != 1 {
		t.Errorf("Expected exactly one expiry, got %d", fired.Load())
	}
	if w.Remaining() != 0 {
		t.Errorf("Expected 0 remaining, got %d", w.Remaining())
	}
}

func TestRoundWatcher_DoesNotFireEarly(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired atomic.Int32
	w := NewRoundWatcher(m, time.Now(), 60, func() { fired.Add(1) })
	defer w.Stop()

	time.Sleep(500 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("The watcher must not fire with time remaining")
	}
	if r := w.Remaining(); r < 58 || r > 60 {
		t.Errorf("Expected ~60s remaining, got %d", r)
	}
}

func TestRoundWatcher_StopCancels(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired atomic.Int32
	w := NewRoundWatcher(m, time.Now().Add(-2*time.Second), 1, func() { fired.Add(1) })
	w.Stop()

	// Stop raced the first tick at most once; after the race window the count
	// must be stable.
	time.Sleep(300 * time.Millisecond)
	first := fired.Load()
	time.Sleep(500 * time.Millisecond)
	if fired.Load() != first {
		t.Error("A stopped watcher kept firing")
	}
}
