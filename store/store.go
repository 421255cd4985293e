// store/store.go
package store

import (
	"context"
	"errors"

	"github.com/wfunc/georoom/room"
)

var (
	// ErrNotFound is returned when no room document exists for a code.
	ErrNotFound = errors.New("room not found")
	// ErrAlreadyExists is returned by a conditional create on a code collision.
	ErrAlreadyExists = errors.New("room already exists")
)

// Delete is a sentinel value: assigning it to a field path in UpdateFields
// removes that field. Deletes and sets in one call apply atomically, so a
// reset can clear guesses and rewind the status in a single write.
var Delete = deleteSentinel{}

type deleteSentinel struct{}

// SnapshotFunc receives full room snapshots. Implementations deliver them
// in order per subscription; intermediate states may be coalesced away, but
// every delivered snapshot is at least as new as the previous one.
type SnapshotFunc func(*room.Room)

// Unsubscribe cancels a subscription. Safe to call more than once.
type Unsubscribe func()

// Store is the shared, reactive document store keyed by room code, the
// single source of truth for room state. Writes merge only the named field
// paths (dotted, e.g. "players.<id>.guess"), which is what lets concurrent
// updates from different players land without conflicting: disjoint paths
// commute, and the few room-level fields are last-writer-wins.
type Store interface {
	// Create writes a fresh document, failing with ErrAlreadyExists when the
	// code is taken.
	Create(ctx context.Context, r *room.Room) error

	// Get returns the current document or ErrNotFound.
	Get(ctx context.Context, code string) (*room.Room, error)

	// UpdateFields merges the given field paths into the document. Values may
	// be the Delete sentinel to remove a field. Paths not named stay
	// untouched. Returns ErrNotFound when the document does not exist.
	UpdateFields(ctx context.Context, code string, fields map[string]any) error

	// DeleteField removes a single field path (used to drop a player on
	// leave).
	DeleteField(ctx context.Context, code string, path string) error

	// Subscribe registers fn for every remote mutation of the document,
	// pushing the current snapshot immediately. Returns ErrNotFound when the
	// document does not exist yet.
	Subscribe(ctx context.Context, code string, fn SnapshotFunc) (Unsubscribe, error)
}
