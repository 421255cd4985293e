// timer/round.go
package timer

import (
	"sync"
	"time"
)

// RemainingSeconds recomputes the time left in a round from the absolute
// start instant, never from local countdown bookkeeping, so the value stays
// correct across reconnects and refreshes.
func RemainingSeconds(startedAt time.Time, durationSec int, now time.Time) int {
	elapsed := int(now.Sub(startedAt).Seconds())
	remaining := durationSec - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RoundWatcher ticks once a second, re-deriving the remaining time for one
// round, and fires onExpire exactly once when it reaches zero. Finalizing a
// round by timeout is the single responsibility of whichever client arms the
// watcher (the room's creator), so N clients never race at the tick boundary.
type RoundWatcher struct {
	manager   *Manager
	startedAt time.Time
	duration  int
	onExpire  func()
	timerID   int64
	once      sync.Once
}

func NewRoundWatcher(manager *Manager, startedAt time.Time, durationSec int, onExpire func()) *RoundWatcher {
	w := &RoundWatcher{
		manager:   manager,
		startedAt: startedAt,
		duration:  durationSec,
		onExpire:  onExpire,
	}
	w.timerID = manager.AddTimer(0, time.Second, w.tick)
	return w
}

// Remaining returns the seconds left as of now.
func (w *RoundWatcher) Remaining() int {
	return RemainingSeconds(w.startedAt, w.duration, time.Now())
}

// StartedAt identifies the round this watcher belongs to.
func (w *RoundWatcher) StartedAt() time.Time {
	return w.startedAt
}

func (w *RoundWatcher) tick() {
	if w.Remaining() > 0 {
		return
	}
	w.Stop()
	w.once.Do(w.onExpire)
}

// Stop cancels the tick. Idempotent; does not fire onExpire.
func (w *RoundWatcher) Stop() {
	w.manager.RemoveTimer(w.timerID)
}
