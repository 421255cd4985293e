// roomsync/reconnect.go
package roomsync

import "github.com/wfunc/georoom/room"

// ReconnectMode is the decision for a client re-entering a room, typically
// after a page refresh mid-round.
type ReconnectMode int

const (
	// ReconnectResume: already a member, just resubscribe. No write.
	ReconnectResume ReconnectMode = iota
	// ReconnectJoin: not a member and the room is still waiting, join normally.
	ReconnectJoin
	// ReconnectObserve: not a member and the round started or finished;
	// resubscribe without writing. The observer gets no guess slot for the
	// current round.
	ReconnectObserve
)

// DecideReconnect is the reconnection rule as an explicit decision table, so
// it stays testable apart from any transport.
func DecideReconnect(r *room.Room, playerID string) ReconnectMode {
	if r.Player(playerID) != nil {
		return ReconnectResume
	}
	if r.Status == room.StatusWaiting {
		return ReconnectJoin
	}
	return ReconnectObserve
}
