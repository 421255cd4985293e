// roomsync/errors.go
package roomsync

import "errors"

var (
	// ErrRoomNotFound is returned by join/reconnect against a nonexistent code.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomNotJoinable is returned when joining a room that already started.
	ErrRoomNotJoinable = errors.New("room is not accepting players")

	// ErrCreateFailed wraps store errors during room creation.
	ErrCreateFailed = errors.New("failed to create room")

	// ErrNotInRoom is returned for operations that need an active room.
	ErrNotInRoom = errors.New("not in a room")

	// ErrNotCreator guards the creator-only actions (start, reset). The check
	// is client-side only; the store itself stays permissive.
	ErrNotCreator = errors.New("only the room creator may do this")

	// ErrAlreadyGuessed enforces at-most-one guess per player per round.
	ErrAlreadyGuessed = errors.New("guess already submitted this round")

	// ErrRoundNotActive is returned when guessing outside a running round.
	ErrRoundNotActive = errors.New("no round in progress")
)
