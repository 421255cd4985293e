// store/memory.go
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wfunc/georoom/geo"
	"github.com/wfunc/georoom/room"
)

// Memory is an in-process Store used by tests and single-machine play. It
// honors the same field-path merge semantics as the shared backend: only the
// named paths change, so concurrent writers touching disjoint paths commute.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room
	subs  *subscriberSet
}

func NewMemory() *Memory {
	return &Memory{
		rooms: make(map[string]*room.Room),
		subs:  newSubscriberSet(),
	}
}

func (m *Memory) Create(ctx context.Context, r *room.Room) error {
	m.mu.Lock()
	if _, exists := m.rooms[r.Code]; exists {
		m.mu.Unlock()
		return ErrAlreadyExists
	}
	doc := r.Clone()
	m.rooms[r.Code] = doc
	// Fan out before releasing the commit lock so snapshots are stamped in
	// commit order.
	m.subs.fanout(r.Code, doc)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(ctx context.Context, code string) (*room.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, exists := m.rooms[code]
	if !exists {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

func (m *Memory) UpdateFields(ctx context.Context, code string, fields map[string]any) error {
	m.mu.Lock()
	doc, exists := m.rooms[code]
	if !exists {
		m.mu.Unlock()
		return ErrNotFound
	}
	// Apply to a copy first so a bad path leaves the document untouched.
	next := doc.Clone()
	for path, value := range fields {
		if err := applyField(next, path, value); err != nil {
			m.mu.Unlock()
			return err
		}
	}
	m.rooms[code] = next
	m.subs.fanout(code, next)
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeleteField(ctx context.Context, code string, path string) error {
	return m.UpdateFields(ctx, code, map[string]any{path: Delete})
}

// Subscribe registers under the commit lock: no write can land between
// reading the initial snapshot and handing it to the subscriber, so the first
// delivery can never displace a newer one.
func (m *Memory) Subscribe(ctx context.Context, code string, fn SnapshotFunc) (Unsubscribe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.rooms[code]
	if !exists {
		return nil, ErrNotFound
	}

	sub, unsubscribe := m.subs.add(code, fn)
	m.subs.pushInitial(sub, doc)
	return unsubscribe, nil
}

// applyField merges one dotted field path into the document. Leaf writes
// under a missing player create the player record, mirroring how document
// stores create intermediate maps for dotted update paths.
func applyField(r *room.Room, path string, value any) error {
	_, isDelete := value.(deleteSentinel)
	parts := strings.Split(path, ".")

	switch {
	case len(parts) == 1:
		return applyRootField(r, parts[0], value, isDelete)
	case len(parts) >= 2 && parts[0] == "players":
		return applyPlayerField(r, parts[1:], value, isDelete)
	}
	return fmt.Errorf("unsupported field path %q", path)
}

func applyRootField(r *room.Room, field string, value any, isDelete bool) error {
	switch field {
	case "status":
		if isDelete {
			break
		}
		switch v := value.(type) {
		case room.Status:
			r.Status = v
			return nil
		case string:
			r.Status = room.Status(v)
			return nil
		}
	case "location":
		if isDelete {
			r.Location = nil
			return nil
		}
		if loc, ok := toLatLng(value); ok {
			r.Location = loc
			return nil
		}
	case "startedAt":
		if isDelete {
			r.StartedAt = nil
			return nil
		}
		if t, ok := toTime(value); ok {
			r.StartedAt = t
			return nil
		}
	case "duration":
		if v, ok := value.(int); ok && !isDelete {
			r.Duration = v
			return nil
		}
	}
	return fmt.Errorf("unsupported value for field %q", field)
}

func applyPlayerField(r *room.Room, parts []string, value any, isDelete bool) error {
	id := parts[0]
	if r.Players == nil {
		r.Players = make(map[string]*room.Player)
	}

	if len(parts) == 1 {
		if isDelete {
			delete(r.Players, id)
			return nil
		}
		switch v := value.(type) {
		case *room.Player:
			cp := *v
			r.Players[id] = &cp
			return nil
		case room.Player:
			cp := v
			r.Players[id] = &cp
			return nil
		}
		return fmt.Errorf("unsupported value for player %q", id)
	}

	p := r.Players[id]
	if p == nil {
		if isDelete {
			return nil // deleting a field of an absent player is a no-op
		}
		p = &room.Player{}
		r.Players[id] = p
	}

	switch parts[1] {
	case "name":
		if v, ok := value.(string); ok && !isDelete {
			p.Name = v
			return nil
		}
	case "isCreator":
		if v, ok := value.(bool); ok && !isDelete {
			p.IsCreator = v
			return nil
		}
	case "joinedAt":
		if t, ok := toTime(value); ok && !isDelete {
			p.JoinedAt = *t
			return nil
		}
	case "guess":
		if isDelete {
			p.Guess = nil
			return nil
		}
		if g, ok := toLatLng(value); ok {
			p.Guess = g
			return nil
		}
	case "guessedAt":
		if isDelete {
			p.GuessedAt = nil
			return nil
		}
		if t, ok := toTime(value); ok {
			p.GuessedAt = t
			return nil
		}
	}
	return fmt.Errorf("unsupported player field %q", parts[1])
}

func toLatLng(value any) (*geo.LatLng, bool) {
	switch v := value.(type) {
	case geo.LatLng:
		cp := v
		return &cp, true
	case *geo.LatLng:
		if v == nil {
			return nil, true
		}
		cp := *v
		return &cp, true
	}
	return nil, false
}

func toTime(value any) (*time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		cp := v
		return &cp, true
	case *time.Time:
		if v == nil {
			return nil, true
		}
		cp := *v
		return &cp, true
	}
	return nil, false
}
