// room/ranking.go
package room

import (
	"sort"

	"github.com/wfunc/georoom/geo"
)

// Result is one ranked entry: a player who guessed, with the great-circle
// distance to the round's ground truth.
type Result struct {
	PlayerID   string     `json:"playerId"`
	Name       string     `json:"name"`
	Guess      geo.LatLng `json:"guess"`
	DistanceKm float64    `json:"distanceKm"`
}

// Ranking is the total order derived from a finished room. It is computed,
// never stored: every client derives the same ranking from the same snapshot,
// so results have no write-conflict surface.
type Ranking struct {
	Ranked      []Result `json:"ranked"`
	DidNotGuess []string `json:"didNotGuess"` // player ids without a guess
}

// Rank orders players by distance ascending. Ties break by guessedAt
// ascending, then player id, so the order is identical no matter which client
// computes it or how map iteration happened to run.
func Rank(r *Room) Ranking {
	ranking := Ranking{}
	if r == nil || r.Location == nil {
		for id := range r.playersOrEmpty() {
			ranking.DidNotGuess = append(ranking.DidNotGuess, id)
		}
		sort.Strings(ranking.DidNotGuess)
		return ranking
	}

	for id, p := range r.Players {
		if p.Guess == nil {
			ranking.DidNotGuess = append(ranking.DidNotGuess, id)
			continue
		}
		ranking.Ranked = append(ranking.Ranked, Result{
			PlayerID:   id,
			Name:       p.Name,
			Guess:      *p.Guess,
			DistanceKm: geo.HaversineDistance(*p.Guess, *r.Location),
		})
	}

	sort.Slice(ranking.Ranked, func(i, j int) bool {
		a, b := ranking.Ranked[i], ranking.Ranked[j]
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		pa, pb := r.Players[a.PlayerID], r.Players[b.PlayerID]
		if pa.GuessedAt != nil && pb.GuessedAt != nil && !pa.GuessedAt.Equal(*pb.GuessedAt) {
			return pa.GuessedAt.Before(*pb.GuessedAt)
		}
		return a.PlayerID < b.PlayerID
	})
	sort.Strings(ranking.DidNotGuess)

	return ranking
}

func (r *Room) playersOrEmpty() map[string]*Player {
	if r == nil {
		return nil
	}
	return r.Players
}
