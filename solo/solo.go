// solo/solo.go
package solo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wfunc/georoom/geo"
	"github.com/wfunc/georoom/panorama"
)

// ErrNoActiveRound is returned when guessing before a round starts.
var ErrNoActiveRound = errors.New("no active round")

// historyLimit caps how many past results a game retains.
const historyLimit = 10

// Result is one completed solo round.
type Result struct {
	Location   geo.LatLng `json:"location"`
	Guess      geo.LatLng `json:"guess"`
	DistanceKm float64    `json:"distanceKm"`
	Score      int        `json:"score"`
	PlayedAt   time.Time  `json:"playedAt"`
}

// Game is the single-player mode: no room, no store, no timer. Each round
// samples a location, takes one guess, and scores it locally.
type Game struct {
	finder *panorama.Finder

	mu      sync.Mutex
	current *geo.LatLng
	history []Result
}

func NewGame(finder *panorama.Finder) *Game {
	return &Game{finder: finder}
}

// StartRound samples a fresh location with confirmed imagery. Starting over
// an unguessed round discards it.
func (g *Game) StartRound(ctx context.Context) error {
	location, err := g.finder.FindUsableLocation(ctx)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.current = &location
	g.mu.Unlock()
	return nil
}

// SubmitGuess scores the guess against the current round's location and ends
// the round.
func (g *Game) SubmitGuess(guess geo.LatLng) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == nil {
		return Result{}, ErrNoActiveRound
	}

	distance := geo.HaversineDistance(*g.current, guess)
	result := Result{
		Location:   *g.current,
		Guess:      guess,
		DistanceKm: distance,
		Score:      geo.Score(distance),
		PlayedAt:   time.Now().UTC(),
	}

	g.current = nil
	g.history = append(g.history, result)
	if len(g.history) > historyLimit {
		g.history = g.history[len(g.history)-historyLimit:]
	}
	return result, nil
}

// History returns past results, oldest first.
func (g *Game) History() []Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Result, len(g.history))
	copy(out, g.history)
	return out
}
