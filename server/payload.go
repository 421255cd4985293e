package server

import (
	"github.com/wfunc/georoom/geo"
	"github.com/wfunc/georoom/room"
	"github.com/wfunc/georoom/solo"
)

// Wire payloads. Every payload is JSON inside the binary frame.

type CreateRoomRequest struct {
	Name        string `json:"name"`
	DurationSec int    `json:"durationSec"`
}

type JoinRoomRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type RoomCodeReply struct {
	Code string `json:"code"`
}

// StartRoundRequest optionally pins the ground truth. When Location is
// absent the server samples a random usable location itself.
type StartRoundRequest struct {
	Location *geo.LatLng `json:"location,omitempty"`
}

type SubmitGuessRequest struct {
	Guess geo.LatLng `json:"guess"`
}

// SnapshotPayload is pushed on every room change: the raw document plus the
// per-player derived view, so clients never compute state themselves.
type SnapshotPayload struct {
	Room       *room.Room    `json:"room"`
	IsCreator  bool          `json:"isCreator"`
	HasGuessed bool          `json:"hasGuessed"`
	TimeLeft   *int          `json:"timeLeft,omitempty"`
	Ranking    *room.Ranking `json:"ranking,omitempty"`
}

// SoloHistoryReply lists the session's recent single-player results, oldest
// first.
type SoloHistoryReply struct {
	Results []solo.Result `json:"results"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
