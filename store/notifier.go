// store/notifier.go
package store

import (
	"sync"

	"github.com/wfunc/georoom/room"
)

// subscriber delivers snapshots to one callback on its own goroutine. The
// pending slot holds at most one snapshot: when the consumer lags, older
// undelivered snapshots are replaced by newer ones. Every snapshot carries a
// commit sequence number and anything not newer than the latest accepted one
// is dropped, so delivery stays monotonic even when pushes arrive out of
// commit order.
type subscriber struct {
	fn     SnapshotFunc
	notify chan struct{}
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	pending *room.Room
	lastSeq uint64
}

func newSubscriber(fn SnapshotFunc) *subscriber {
	s := &subscriber{
		fn:     fn,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.notify:
			s.mu.Lock()
			r := s.pending
			s.pending = nil
			s.mu.Unlock()
			if r != nil {
				s.fn(r)
			}
		case <-s.done:
			return
		}
	}
}

// push queues a snapshot, displacing an undelivered older one. Snapshots at
// or below the newest sequence already accepted are dropped.
func (s *subscriber) push(seq uint64, r *room.Room) {
	select {
	case <-s.done:
		return
	default:
	}

	s.mu.Lock()
	if seq <= s.lastSeq {
		s.mu.Unlock()
		return
	}
	s.lastSeq = seq
	s.pending = r
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// subscriberSet is a code-keyed registry shared by the store backends. It
// owns the commit sequence: callers invoke fanout/pushInitial while holding
// their own commit lock, so stamping happens in commit order.
type subscriberSet struct {
	mu   sync.Mutex
	seq  uint64
	subs map[string][]*subscriber
}

func newSubscriberSet() *subscriberSet {
	return &subscriberSet{subs: make(map[string][]*subscriber)}
}

func (set *subscriberSet) add(code string, fn SnapshotFunc) (*subscriber, Unsubscribe) {
	sub := newSubscriber(fn)
	set.mu.Lock()
	set.subs[code] = append(set.subs[code], sub)
	set.mu.Unlock()

	return sub, func() {
		sub.stop()
		set.mu.Lock()
		defer set.mu.Unlock()
		list := set.subs[code]
		for i, s := range list {
			if s == sub {
				set.subs[code] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(set.subs[code]) == 0 {
			delete(set.subs, code)
		}
	}
}

// codes returns every code with at least one live subscriber.
func (set *subscriberSet) codes() []string {
	set.mu.Lock()
	defer set.mu.Unlock()
	out := make([]string, 0, len(set.subs))
	for code := range set.subs {
		out = append(out, code)
	}
	return out
}

// fanout stamps the snapshot with the next sequence number and pushes a fresh
// clone to every subscriber of code. Stamp and delivery happen under one lock
// so two fanouts can never cross.
func (set *subscriberSet) fanout(code string, r *room.Room) {
	set.mu.Lock()
	defer set.mu.Unlock()
	set.seq++
	for _, sub := range set.subs[code] {
		sub.push(set.seq, r.Clone())
	}
}

// pushInitial delivers a subscription's first snapshot through the same
// stamped path as fanout.
func (set *subscriberSet) pushInitial(sub *subscriber, r *room.Room) {
	set.mu.Lock()
	defer set.mu.Unlock()
	set.seq++
	sub.push(set.seq, r.Clone())
}
