package network

// Message ids, grouped by direction: 1xx room membership, 2xx round actions,
// 3xx server pushes, 4xx single-player.
const (
	MsgTypeHeartbeat = 1
	MsgTypeError     = 2

	MsgTypeCreateRoom = 101
	MsgTypeJoinRoom   = 102
	MsgTypeReconnect  = 103
	MsgTypeLeaveRoom  = 104

	MsgTypeStartRound  = 201
	MsgTypeSubmitGuess = 202
	MsgTypeFinishRound = 203
	MsgTypeResetRoom   = 204

	MsgTypeRoomSnapshot = 301

	MsgTypeSoloStart   = 401
	MsgTypeSoloGuess   = 402
	MsgTypeSoloHistory = 403
)
