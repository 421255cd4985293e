package room

import (
	"reflect"
	"testing"
	"time"

	"github.com/wfunc/georoom/geo"
)

func finishedRoom() *Room {
	now := time.Now().UTC()
	loc := geo.LatLng{Lat: 10, Lng: 20}
	g1 := geo.LatLng{Lat: 10, Lng: 20} // exact
	g2 := geo.LatLng{Lat: 11, Lng: 21} // ~152 km
	t1 := now.Add(-20 * time.Second)
	t2 := now.Add(-10 * time.Second)

	return &Room{
		Code:     "AB12CD",
		Status:   StatusFinished,
		Duration: 120,
		Location: &loc,
		Players: map[string]*Player{
			"alice": {Name: "Alice", IsCreator: true, Guess: &g1, GuessedAt: &t1},
			"bob":   {Name: "Bob", Guess: &g2, GuessedAt: &t2},
			"carol": {Name: "Carol"}, // never guessed
		},
	}
}

func TestRank_OrdersByDistance(t *testing.T) {
	ranking := Rank(finishedRoom())

	if len(ranking.Ranked) != 2 {
		t.Fatalf("Expected 2 ranked players, got %d", len(ranking.Ranked))
	}
	if ranking.Ranked[0].PlayerID != "alice" {
		t.Errorf("Expected alice first with distance 0, got %s", ranking.Ranked[0].PlayerID)
	}
	if ranking.Ranked[0].DistanceKm != 0 {
		t.Errorf("Expected zero distance for an exact guess, got %f", ranking.Ranked[0].DistanceKm)
	}
	if ranking.Ranked[1].PlayerID != "bob" {
		t.Errorf("Expected bob second, got %s", ranking.Ranked[1].PlayerID)
	}
	if d := ranking.Ranked[1].DistanceKm; d < 145 || d > 160 {
		t.Errorf("Expected bob around 152 km away, got %f", d)
	}
	if !reflect.DeepEqual(ranking.DidNotGuess, []string{"carol"}) {
		t.Errorf("Expected carol in the did-not-guess list, got %v", ranking.DidNotGuess)
	}
}

func TestRank_Deterministic(t *testing.T) {
	r := finishedRoom()
	first := Rank(r)
	for i := 0; i < 50; i++ {
		if !reflect.DeepEqual(Rank(r), first) {
			t.Fatal("Ranking must be identical on every recomputation")
		}
	}
}

func TestRank_TieBreakByGuessTime(t *testing.T) {
	now := time.Now().UTC()
	loc := geo.LatLng{Lat: 0, Lng: 0}
	same := geo.LatLng{Lat: 5, Lng: 5}
	early := now.Add(-30 * time.Second)
	late := now.Add(-5 * time.Second)

	r := &Room{
		Status:   StatusFinished,
		Location: &loc,
		Players: map[string]*Player{
			"slow": {Name: "Slow", Guess: &same, GuessedAt: &late},
			"fast": {Name: "Fast", Guess: &same, GuessedAt: &early},
		},
	}

	ranking := Rank(r)
	if ranking.Ranked[0].PlayerID != "fast" {
		t.Errorf("Equal distances should rank the earlier guess first, got %s", ranking.Ranked[0].PlayerID)
	}
}

func TestRank_TieBreakByPlayerID(t *testing.T) {
	now := time.Now().UTC()
	loc := geo.LatLng{Lat: 0, Lng: 0}
	same := geo.LatLng{Lat: 5, Lng: 5}

	r := &Room{
		Status:   StatusFinished,
		Location: &loc,
		Players: map[string]*Player{
			"zed": {Name: "Zed", Guess: &same, GuessedAt: &now},
			"amy": {Name: "Amy", Guess: &same, GuessedAt: &now},
		},
	}

	ranking := Rank(r)
	if ranking.Ranked[0].PlayerID != "amy" {
		t.Errorf("Identical distance and time should fall back to player id order, got %s", ranking.Ranked[0].PlayerID)
	}
}

func TestRank_NobodyGuessed(t *testing.T) {
	now := time.Now().UTC()
	loc := geo.LatLng{Lat: 0, Lng: 0}
	r := &Room{
		Status:   StatusFinished,
		Location: &loc,
		Players: map[string]*Player{
			"a": {Name: "A", JoinedAt: now},
			"b": {Name: "B", JoinedAt: now},
		},
	}

	ranking := Rank(r)
	if len(ranking.Ranked) != 0 {
		t.Errorf("Expected an empty ranking, got %d entries", len(ranking.Ranked))
	}
	if !reflect.DeepEqual(ranking.DidNotGuess, []string{"a", "b"}) {
		t.Errorf("Expected both players in did-not-guess, got %v", ranking.DidNotGuess)
	}
}
