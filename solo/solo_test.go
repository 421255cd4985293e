package solo

import (
	"context"
	"errors"
	"testing"

	"github.com/wfunc/georoom/geo"
	"github.com/wfunc/georoom/logger"
	"github.com/wfunc/georoom/panorama"
)

func init() {
	logger.InitDevelopment()
}

func newGame() *Game {
	return NewGame(panorama.NewFinder(panorama.AcceptAll{}))
}

func TestGuessBeforeRoundStarts(t *testing.T) {
	g := newGame()
	if _, err := g.SubmitGuess(geo.LatLng{}); !errors.Is(err, ErrNoActiveRound) {
		t.Errorf("Expected ErrNoActiveRound, got %v", err)
	}
}

func TestRoundLifecycle(t *testing.T) {
	g := newGame()
	if err := g.StartRound(context.Background()); err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}

	result, err := g.SubmitGuess(geo.LatLng{Lat: 0, Lng: 0})
	if err != nil {
		t.Fatalf("SubmitGuess failed: %v", err)
	}
	if result.Score < 0 || result.Score > geo.MaxScore {
		t.Errorf("Score out of range: %d", result.Score)
	}
	if result.PlayedAt.IsZero() {
		t.Error("Result should record when it was played")
	}

	// The round ended with the guess.
	if _, err := g.SubmitGuess(geo.LatLng{}); !errors.Is(err, ErrNoActiveRound) {
		t.Errorf("Expected ErrNoActiveRound after the round ended, got %v", err)
	}
}

func TestPerfectGuessScoresMax(t *testing.T) {
	g := newGame()
	if err := g.StartRound(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Guess exactly where the round is.
	g.mu.Lock()
	location := *g.current
	g.mu.Unlock()

	result, err := g.SubmitGuess(location)
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != geo.MaxScore {
		t.Errorf("A perfect guess scores %d, got %d", geo.MaxScore, result.Score)
	}
	if result.DistanceKm != 0 {
		t.Errorf("Expected zero distance, got %f", result.DistanceKm)
	}
}

func TestHistoryCapped(t *testing.T) {
	g := newGame()
	ctx := context.Background()

	for i := 0; i < historyLimit+5; i++ {
		if err := g.StartRound(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := g.SubmitGuess(geo.LatLng{Lat: 1, Lng: 1}); err != nil {
			t.Fatal(err)
		}
	}

	history := g.History()
	if len(history) != historyLimit {
		t.Errorf("Expected history capped at %d, got %d", historyLimit, len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].PlayedAt.Before(history[i-1].PlayedAt) {
			t.Error("History should be ordered oldest first")
		}
	}
}
