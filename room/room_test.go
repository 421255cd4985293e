package room

import (
	"testing"
	"time"

	"github.com/wfunc/georoom/geo"
)

func TestNew(t *testing.T) {
	now := time.Now().UTC()
	r := New("AB12CD", "alice-id", "Alice", 120, now)

	if r.Status != StatusWaiting {
		t.Errorf("Expected a fresh room to be waiting, got %s", r.Status)
	}
	if r.Duration != 120 {
		t.Errorf("Expected duration 120, got %d", r.Duration)
	}
	if len(r.Players) != 1 {
		t.Fatalf("Expected exactly one player, got %d", len(r.Players))
	}
	creator := r.Player("alice-id")
	if creator == nil || !creator.IsCreator {
		t.Error("The creating player should have isCreator=true")
	}
	if r.Location != nil || r.StartedAt != nil {
		t.Error("A waiting room must not have a location or start time")
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName(""); err == nil {
		t.Error("Empty name should be rejected")
	}
	if err := ValidateName("this name is way too long!"); err == nil {
		t.Error("Names over 20 characters should be rejected")
	}
	if err := ValidateName("Bob"); err != nil {
		t.Errorf("Valid name rejected: %v", err)
	}
	// Rune count, not byte count.
	if err := ValidateName("日本語のプレイヤー名"); err != nil {
		t.Errorf("Multi-byte name of 10 runes rejected: %v", err)
	}
}

func TestAllGuessed(t *testing.T) {
	now := time.Now().UTC()
	r := New("AB12CD", "a", "Alice", 120, now)
	r.Players["b"] = &Player{Name: "Bob", JoinedAt: now}

	if r.AllGuessed() {
		t.Error("Nobody has guessed yet")
	}

	r.Players["a"].Guess = &geo.LatLng{Lat: 1, Lng: 2}
	if r.AllGuessed() {
		t.Error("Only one of two players has guessed")
	}

	r.Players["b"].Guess = &geo.LatLng{Lat: 3, Lng: 4}
	if !r.AllGuessed() {
		t.Error("Both players have guessed")
	}

	empty := &Room{Players: map[string]*Player{}}
	if empty.AllGuessed() {
		t.Error("An empty room never counts as all-guessed")
	}
}

func TestTimeLeft(t *testing.T) {
	now := time.Now().UTC()
	started := now.Add(-30 * time.Second)
	r := &Room{Status: StatusPlaying, Duration: 120, StartedAt: &started}

	left, ok := r.TimeLeft(now)
	if !ok {
		t.Fatal("TimeLeft should be defined while playing")
	}
	if left != 90 {
		t.Errorf("Expected 90 seconds left, got %d", left)
	}
}

func TestTimeLeft_Expired(t *testing.T) {
	now := time.Now().UTC()
	started := now.Add(-2 * time.Second)
	r := &Room{Status: StatusPlaying, Duration: 1, StartedAt: &started}

	left, ok := r.TimeLeft(now)
	if !ok || left != 0 {
		t.Errorf("Expected 0 seconds left after expiry, got %d (ok=%v)", left, ok)
	}
}

func TestTimeLeft_NotPlaying(t *testing.T) {
	r := &Room{Status: StatusWaiting, Duration: 120}
	if _, ok := r.TimeLeft(time.Now()); ok {
		t.Error("TimeLeft should be undefined while waiting")
	}
}

func TestClone_IsDeep(t *testing.T) {
	now := time.Now().UTC()
	r := New("AB12CD", "a", "Alice", 120, now)
	r.Players["a"].Guess = &geo.LatLng{Lat: 1, Lng: 2}

	clone := r.Clone()
	clone.Players["a"].Guess.Lat = 99
	clone.Players["b"] = &Player{Name: "Intruder"}

	if r.Players["a"].Guess.Lat != 1 {
		t.Error("Mutating a clone's guess leaked into the original")
	}
	if len(r.Players) != 1 {
		t.Error("Adding a player to a clone leaked into the original")
	}
}
