// room/status.go
package room

import "errors"

// Status is the room's round phase. Transitions only move forward
// (waiting -> playing -> finished); a reset returns a finished room to
// waiting with all guesses cleared.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// ErrTransitionNotAllowed is returned for a status change outside the
// transition table.
var ErrTransitionNotAllowed = errors.New("room status transition not allowed")

var transitions = map[Status]map[Status]bool{
	StatusWaiting:  {StatusPlaying: true},
	StatusPlaying:  {StatusFinished: true},
	StatusFinished: {StatusWaiting: true, StatusPlaying: true},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusPlaying, StatusFinished:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is an allowed status change.
// Writing the current status again is allowed: the finalize race has two
// triggers (timeout, all-guessed) that may both write "finished".
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	return transitions[from][to]
}

// CheckTransition returns ErrTransitionNotAllowed for an illegal change.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return ErrTransitionNotAllowed
	}
	return nil
}
