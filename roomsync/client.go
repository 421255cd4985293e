// roomsync/client.go
package roomsync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wfunc/georoom/geo"
	"github.com/wfunc/georoom/logger"
	"github.com/wfunc/georoom/room"
	"github.com/wfunc/georoom/store"
	"github.com/wfunc/georoom/timer"
)

// finalizeTimeout bounds the background write that closes a round.
const finalizeTimeout = 10 * time.Second

// PlayerEntry is one row of the derived players list.
type PlayerEntry struct {
	ID string `json:"id"`
	room.Player
}

// Client is the room synchronization client: the only component that mutates
// room documents. It owns the local player identity, issues writes through
// the store, and re-derives its view state from every received snapshot.
// Derived values are never stored independently, so a failed write can never
// leave them stale.
//
// The creator's client is also the single authority for finalizing a round by
// timeout: it arms one RoundWatcher per round (keyed by startedAt) and issues
// at most one finish write when the watcher expires or when every player has
// guessed. Other clients observe the transition through the store.
type Client struct {
	store    store.Store
	identity Identity
	timers   *timer.Manager

	mu          sync.RWMutex
	current     *room.Room
	unsubscribe store.Unsubscribe
	onChange    func(*room.Room)

	watcher      *timer.RoundWatcher
	watcherRound int64 // startedAt.UnixNano of the watched round
	finalized    int64 // last round this client issued a finish write for
}

// NewClient wires a client to a store and an identity. The timer manager is
// shared: the gateway runs many clients off one scheduling heap.
func NewClient(s store.Store, identity Identity, timers *timer.Manager) *Client {
	return &Client{
		store:    s,
		identity: identity,
		timers:   timers,
	}
}

// PlayerID returns the stable local player id.
func (c *Client) PlayerID() string {
	return c.identity.PlayerID()
}

// SetOnChange registers a callback invoked with every room snapshot, after
// the client has updated its own state. Pass nil to clear.
func (c *Client) SetOnChange(fn func(*room.Room)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Room returns the latest snapshot, or nil before any subscription. Treat it
// as read-only.
func (c *Client) Room() *room.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// IsCreator derives whether the local player created the current room.
func (c *Client) IsCreator() bool {
	return c.Room().IsCreator(c.PlayerID())
}

// HasGuessed derives whether the local player already guessed this round.
func (c *Client) HasGuessed() bool {
	return c.Room().HasGuessed(c.PlayerID())
}

// Players lists the room's players, ordered by join time then id for a
// stable display order (ranking is a separate computation).
func (c *Client) Players() []PlayerEntry {
	r := c.Room()
	if r == nil {
		return nil
	}
	entries := make([]PlayerEntry, 0, len(r.Players))
	for id, p := range r.Players {
		entries = append(entries, PlayerEntry{ID: id, Player: *p})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].JoinedAt.Equal(entries[j].JoinedAt) {
			return entries[i].JoinedAt.Before(entries[j].JoinedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// TimeLeft derives the remaining round seconds from the snapshot's absolute
// start time. The second return is false outside a running round.
func (c *Client) TimeLeft() (int, bool) {
	return c.Room().TimeLeft(time.Now().UTC())
}

// CreateRoom generates a fresh code, writes a waiting room with the local
// player as creator, and subscribes. Returns the room code.
func (c *Client) CreateRoom(ctx context.Context, name string, durationSec int) (string, error) {
	if err := room.ValidateName(name); err != nil {
		return "", err
	}
	if durationSec <= 0 {
		return "", fmt.Errorf("%w: duration must be positive", ErrCreateFailed)
	}

	code := room.GenerateCode()
	doc := room.New(code, c.PlayerID(), name, durationSec, time.Now().UTC())

	if err := c.store.Create(ctx, doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	if err := c.subscribe(ctx, code); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}

	c.rememberName(name)
	return code, nil
}

// JoinRoom adds the local player to a waiting room and subscribes. The code
// compares case-insensitively; the normalized code is returned.
func (c *Client) JoinRoom(ctx context.Context, code, name string) (string, error) {
	if err := room.ValidateName(name); err != nil {
		return "", err
	}
	normalized, err := room.ValidateCode(code)
	if err != nil {
		return "", err
	}

	doc, err := c.store.Get(ctx, normalized)
	if err == store.ErrNotFound {
		return "", ErrRoomNotFound
	}
	if err != nil {
		return "", err
	}
	if doc.Status != room.StatusWaiting {
		return "", ErrRoomNotJoinable
	}

	if err := c.writeJoin(ctx, normalized, name); err != nil {
		return "", err
	}
	if err := c.subscribe(ctx, normalized); err != nil {
		return "", err
	}

	c.rememberName(name)
	return normalized, nil
}

// ReconnectToRoom resumes a room after a refresh without corrupting state:
// members resubscribe silently, non-members join if the room still waits,
// and otherwise observe without writing.
func (c *Client) ReconnectToRoom(ctx context.Context, code, name string) (string, error) {
	normalized, err := room.ValidateCode(code)
	if err != nil {
		return "", err
	}

	doc, err := c.store.Get(ctx, normalized)
	if err == store.ErrNotFound {
		return "", ErrRoomNotFound
	}
	if err != nil {
		return "", err
	}

	switch DecideReconnect(doc, c.PlayerID()) {
	case ReconnectResume, ReconnectObserve:
		// No write.
	case ReconnectJoin:
		if err := room.ValidateName(name); err != nil {
			return "", err
		}
		if err := c.writeJoin(ctx, normalized, name); err != nil {
			return "", err
		}
		c.rememberName(name)
	}

	if err := c.subscribe(ctx, normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// StartGame begins a round with the given ground truth. Creator-only; the
// check is advisory (client-side), the store does not enforce it.
func (c *Client) StartGame(ctx context.Context, location geo.LatLng) error {
	r := c.Room()
	if r == nil {
		return ErrNotInRoom
	}
	if !r.IsCreator(c.PlayerID()) {
		return ErrNotCreator
	}
	if err := room.CheckTransition(r.Status, room.StatusPlaying); err != nil {
		return err
	}

	return c.store.UpdateFields(ctx, r.Code, map[string]any{
		"status":    room.StatusPlaying,
		"location":  location,
		"startedAt": time.Now().UTC(),
	})
}

// SubmitGuess writes the local player's guess, at most once per round. The
// local view is never updated optimistically: HasGuessed flips only when the
// snapshot carrying the write comes back, so a failed write can be retried.
func (c *Client) SubmitGuess(ctx context.Context, guess geo.LatLng) error {
	r := c.Room()
	if r == nil {
		return ErrNotInRoom
	}
	if r.Status != room.StatusPlaying {
		return ErrRoundNotActive
	}
	id := c.PlayerID()
	if r.Player(id) == nil {
		return ErrNotInRoom // observers have no guess slot
	}
	if r.HasGuessed(id) {
		return ErrAlreadyGuessed
	}

	return c.store.UpdateFields(ctx, r.Code, map[string]any{
		"players." + id + ".guess":     guess,
		"players." + id + ".guessedAt": time.Now().UTC(),
	})
}

// FinishGame closes the current round. Any member may call it (the UI offers
// it when everyone guessed); double writes are harmless since every writer
// intends the same value.
func (c *Client) FinishGame(ctx context.Context) error {
	r := c.Room()
	if r == nil {
		return ErrNotInRoom
	}
	if err := room.CheckTransition(r.Status, room.StatusFinished); err != nil {
		return err
	}
	return c.store.UpdateFields(ctx, r.Code, map[string]any{
		"status": room.StatusFinished,
	})
}

// LeaveRoom removes the local player and unsubscribes. If the creator
// leaves, the room keeps running but can no longer be started or reset.
func (c *Client) LeaveRoom(ctx context.Context) error {
	r := c.Room()
	if r == nil {
		return ErrNotInRoom
	}

	if err := c.store.DeleteField(ctx, r.Code, "players."+c.PlayerID()); err != nil {
		return err
	}
	c.detach()
	return nil
}

// ResetRoom returns a finished room to waiting for another round with the
// same players: every guess is cleared and the old ground truth removed, all
// in one write. Creator-only, advisory like StartGame.
func (c *Client) ResetRoom(ctx context.Context) error {
	r := c.Room()
	if r == nil {
		return ErrNotInRoom
	}
	if !r.IsCreator(c.PlayerID()) {
		return ErrNotCreator
	}
	if err := room.CheckTransition(r.Status, room.StatusWaiting); err != nil {
		return err
	}

	fields := map[string]any{
		"status":    room.StatusWaiting,
		"location":  store.Delete,
		"startedAt": store.Delete,
	}
	for id := range r.Players {
		fields["players."+id+".guess"] = store.Delete
		fields["players."+id+".guessedAt"] = store.Delete
	}
	return c.store.UpdateFields(ctx, r.Code, fields)
}

// Ranking computes the result order from the current snapshot. Purely
// derived; identical on every client holding the same snapshot.
func (c *Client) Ranking() room.Ranking {
	return room.Rank(c.Room())
}

// Close unsubscribes and stops the round watcher without leaving the room,
// the equivalent of closing the tab: the player record stays for reconnect.
func (c *Client) Close() {
	c.detach()
}

func (c *Client) writeJoin(ctx context.Context, code, name string) error {
	id := c.PlayerID()
	// Leaf paths only: a duplicate-tab rejoin rewrites the profile fields but
	// can never clobber an existing guess.
	return c.store.UpdateFields(ctx, code, map[string]any{
		"players." + id + ".name":      name,
		"players." + id + ".isCreator": false,
		"players." + id + ".joinedAt":  time.Now().UTC(),
	})
}

func (c *Client) subscribe(ctx context.Context, code string) error {
	unsubscribe, err := c.store.Subscribe(ctx, code, c.handleSnapshot)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	return nil
}

func (c *Client) detach() {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.stopWatcherLocked()
	c.current = nil
	c.mu.Unlock()
}

// handleSnapshot runs on the subscription goroutine, in delivery order.
func (c *Client) handleSnapshot(r *room.Room) {
	c.mu.Lock()
	c.current = r

	var fire bool
	var fireRound int64
	var fireCode string

	playing := r != nil && r.Status == room.StatusPlaying && r.StartedAt != nil
	if playing && r.IsCreator(c.identity.PlayerID()) {
		key := r.StartedAt.UnixNano()
		if c.watcher == nil || c.watcherRound != key {
			c.stopWatcherLocked()
			c.watcherRound = key
			code := r.Code
			c.watcher = timer.NewRoundWatcher(c.timers, *r.StartedAt, r.Duration, func() {
				c.finalizeRound(code, key)
			})
		}
		if r.AllGuessed() {
			fire = true
			fireRound = key
			fireCode = r.Code
		}
	} else {
		c.stopWatcherLocked()
	}

	onChange := c.onChange
	c.mu.Unlock()

	if fire {
		c.finalizeRound(fireCode, fireRound)
	}
	if onChange != nil {
		onChange(r)
	}
}

// finalizeRound issues the single authoritative finish write for one round.
// Timeout and all-guessed may both land here near-simultaneously; the round
// key makes the write happen once per round from this client, and a
// concurrent finish from another trigger is harmless last-writer-wins of the
// same value.
func (c *Client) finalizeRound(code string, round int64) {
	c.mu.Lock()
	if c.finalized == round || c.current == nil || c.current.Status != room.StatusPlaying {
		c.mu.Unlock()
		return
	}
	c.finalized = round
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	err := c.store.UpdateFields(ctx, code, map[string]any{
		"status": room.StatusFinished,
	})
	if err != nil && err != store.ErrNotFound {
		logger.Log.Errorf("Failed to finalize round in room %s: %v", code, err)
	}
}

func (c *Client) stopWatcherLocked() {
	if c.watcher != nil {
		c.watcher.Stop()
		c.watcher = nil
		c.watcherRound = 0
	}
}

func (c *Client) rememberName(name string) {
	if err := c.identity.SetName(name); err != nil {
		logger.Log.Warnf("Failed to persist display name: %v", err)
	}
}
