package store

import (
	"strings"
	"testing"

	"github.com/wfunc/georoom/geo"
)

func TestPgPath(t *testing.T) {
	cases := map[string]string{
		"status":                "{status}",
		"players.abc":           "{players,abc}",
		"players.abc.guess":     "{players,abc,guess}",
		"players.abc.guessedAt": "{players,abc,guessedAt}",
	}
	for path, want := range cases {
		if got := pgPath(path); got != want {
			t.Errorf("pgPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestBuildUpdateExpr_SetAndDelete(t *testing.T) {
	expr, args, err := buildUpdateExpr(map[string]any{
		"status":            "waiting",
		"location":          Delete,
		"players.abc.guess": geo.LatLng{Lat: 1, Lng: 2},
	})
	if err != nil {
		t.Fatalf("buildUpdateExpr failed: %v", err)
	}

	if !strings.Contains(expr, "jsonb_set") {
		t.Errorf("Expected jsonb_set in expression, got %q", expr)
	}
	if !strings.Contains(expr, "#-") {
		t.Errorf("Expected a #- delete in expression, got %q", expr)
	}
	// One ensure-parent (2 args), one delete (1 arg), two sets (2 args each).
	if len(args) != 7 {
		t.Errorf("Expected 7 args, got %d: %v", len(args), args)
	}
}

func TestBuildUpdateExpr_Deterministic(t *testing.T) {
	fields := map[string]any{
		"players.b.guess": geo.LatLng{Lat: 1, Lng: 2},
		"players.a.guess": geo.LatLng{Lat: 3, Lng: 4},
		"status":          "playing",
	}

	expr1, args1, _ := buildUpdateExpr(fields)
	for i := 0; i < 20; i++ {
		expr2, args2, _ := buildUpdateExpr(fields)
		if expr1 != expr2 || len(args1) != len(args2) {
			t.Fatal("Generated SQL must not depend on map iteration order")
		}
	}
}

func TestMissingParents(t *testing.T) {
	parents := missingParents(map[string]any{
		"players.abc.name":     "Bob",
		"players.abc.joinedAt": "now",
		"players.xyz.guess":    geo.LatLng{},
		"status":               "waiting",
		"players.del":          Delete,
	})

	want := []string{"players.abc", "players.xyz"}
	if len(parents) != len(want) {
		t.Fatalf("Expected %v, got %v", want, parents)
	}
	for i := range want {
		if parents[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, parents)
		}
	}
}

func TestMissingParents_SkipsExplicitlySetParent(t *testing.T) {
	parents := missingParents(map[string]any{
		"players.abc":      map[string]any{"name": "Bob"},
		"players.abc.name": "Bob",
	})
	if len(parents) != 0 {
		t.Errorf("A parent set in the same call needs no ensure op, got %v", parents)
	}
}
