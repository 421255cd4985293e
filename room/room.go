// room/room.go
package room

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/wfunc/georoom/geo"
)

// ErrInvalidName is returned when a display name is empty or too long.
var ErrInvalidName = errors.New("player name must be 1-20 characters")

// Room is the shared synchronized document representing one multiplayer
// match. It is the single source of truth: every client derives its view from
// the latest snapshot and never stores computed results back.
type Room struct {
	Code      string             `json:"code"`
	Status    Status             `json:"status"`
	Duration  int                `json:"duration"` // seconds, fixed at creation
	CreatedAt time.Time          `json:"createdAt"`
	StartedAt *time.Time         `json:"startedAt,omitempty"`
	Location  *geo.LatLng        `json:"location,omitempty"`
	Players   map[string]*Player `json:"players"`
}

// Player is embedded in Room.Players, keyed by the client-generated player id.
type Player struct {
	Name      string      `json:"name"`
	IsCreator bool        `json:"isCreator"`
	JoinedAt  time.Time   `json:"joinedAt"`
	Guess     *geo.LatLng `json:"guess,omitempty"`
	GuessedAt *time.Time  `json:"guessedAt,omitempty"`
}

// New builds a fresh waiting room with its creator as the only player.
func New(code, creatorID, creatorName string, duration int, now time.Time) *Room {
	return &Room{
		Code:      code,
		Status:    StatusWaiting,
		Duration:  duration,
		CreatedAt: now,
		Players: map[string]*Player{
			creatorID: {
				Name:      creatorName,
				IsCreator: true,
				JoinedAt:  now,
			},
		},
	}
}

// ValidateName checks the 1-20 character display name rule.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 1 || n > 20 {
		return ErrInvalidName
	}
	return nil
}

// Player returns the player record for id, or nil when absent.
func (r *Room) Player(id string) *Player {
	if r == nil || r.Players == nil {
		return nil
	}
	return r.Players[id]
}

// IsCreator reports whether id is the room's creator.
func (r *Room) IsCreator(id string) bool {
	p := r.Player(id)
	return p != nil && p.IsCreator
}

// HasGuessed reports whether id has submitted a guess this round.
func (r *Room) HasGuessed(id string) bool {
	p := r.Player(id)
	return p != nil && p.Guess != nil
}

// AllGuessed reports whether every player has a guess. An empty room never
// counts as all-guessed.
func (r *Room) AllGuessed() bool {
	if r == nil || len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if p.Guess == nil {
			return false
		}
	}
	return true
}

// TimeLeft derives the remaining round seconds from the absolute start
// instant, so it stays correct across reconnects and refreshes. The second
// return is false outside a running round.
func (r *Room) TimeLeft(now time.Time) (int, bool) {
	if r == nil || r.Status != StatusPlaying || r.StartedAt == nil {
		return 0, false
	}
	elapsed := int(now.Sub(*r.StartedAt).Seconds())
	remaining := r.Duration - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Clone deep-copies the document. Store implementations hand out clones so
// subscribers can never mutate shared state.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	clone := *r
	if r.StartedAt != nil {
		t := *r.StartedAt
		clone.StartedAt = &t
	}
	if r.Location != nil {
		l := *r.Location
		clone.Location = &l
	}
	clone.Players = make(map[string]*Player, len(r.Players))
	for id, p := range r.Players {
		cp := *p
		if p.Guess != nil {
			g := *p.Guess
			cp.Guess = &g
		}
		if p.GuessedAt != nil {
			t := *p.GuessedAt
			cp.GuessedAt = &t
		}
		clone.Players[id] = &cp
	}
	return &clone
}
