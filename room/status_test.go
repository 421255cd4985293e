package room

import "testing"

func TestCanTransition_Forward(t *testing.T) {
	cases := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusWaiting, StatusPlaying, true},
		{StatusPlaying, StatusFinished, true},
		{StatusFinished, StatusWaiting, true}, // reset
		{StatusFinished, StatusPlaying, true}, // reset straight into a round
		{StatusWaiting, StatusFinished, false},
		{StatusPlaying, StatusWaiting, false},
		{StatusFinished, StatusFinished, true}, // finalize race double-write
		{StatusPlaying, StatusPlaying, true},
	}

	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.allowed {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.allowed)
		}
	}
}

func TestCheckTransition(t *testing.T) {
	if err := CheckTransition(StatusWaiting, StatusFinished); err != ErrTransitionNotAllowed {
		t.Errorf("Expected ErrTransitionNotAllowed, got %v", err)
	}
	if err := CheckTransition(StatusWaiting, StatusPlaying); err != nil {
		t.Errorf("Legal transition rejected: %v", err)
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusWaiting.Valid() || !StatusPlaying.Valid() || !StatusFinished.Valid() {
		t.Error("All declared statuses should be valid")
	}
	if Status("settled").Valid() {
		t.Error("Unknown status should not be valid")
	}
}
