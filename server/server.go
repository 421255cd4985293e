package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/georoom/config"
	"github.com/wfunc/georoom/logger"
	"github.com/wfunc/georoom/monitor"
	"github.com/wfunc/georoom/network"
	"github.com/wfunc/georoom/panorama"
	"github.com/wfunc/georoom/room"
	"github.com/wfunc/georoom/roomsync"
	georoom_rpc "github.com/wfunc/georoom/rpc"
	"github.com/wfunc/georoom/session"
	"github.com/wfunc/georoom/solo"
	"github.com/wfunc/georoom/store"
	"github.com/wfunc/georoom/timer"
)

const requestTimeout = 10 * time.Second

// GameServer is the websocket gateway. Each connection gets its own room
// synchronization client against the shared store; the gateway itself holds
// no room state, so any number of gateways can serve the same store.
type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	store          store.Store
	finder         *panorama.Finder
	timers         *timer.Manager
	sessionManager *session.Manager
	monitor        *monitor.Monitor
	game           config.GameConfig
	rpcServer      *georoom_rpc.Server
	shutdownChan   chan struct{}
}

func NewGameServer(addr, rpcAddr string, s store.Store, finder *panorama.Finder, mon *monitor.Monitor, game config.GameConfig) *GameServer {
	srv := &GameServer{
		addr:           addr,
		store:          s,
		finder:         finder,
		game:           game,
		timers:         timer.NewManager(),
		sessionManager: session.NewManager(),
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	rpcServer, err := georoom_rpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	srv.rpcServer = rpcServer

	roomService := georoom_rpc.NewRoomService(s)
	rpc.Register(roomService)

	return srv
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timers.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}

	// The browser persists its player id and sends it back on every connect,
	// so a refresh keeps the same identity. First-time visitors get a fresh one.
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		playerID = "player_" + uuid.NewString()
	}

	s.handleConnection(network.NewWSConnection(conn), playerID)
}

func (s *GameServer) handleConnection(conn network.Connection, playerID string) {
	sess := session.NewSession(uuid.New().String(), conn, playerID)
	sess.Client = roomsync.NewClient(s.store, &roomsync.StaticIdentity{ID: playerID}, s.timers)
	sess.Solo = solo.NewGame(s.finder)
	sess.Client.SetOnChange(func(r *room.Room) {
		s.pushSnapshot(sess, r)
	})
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s, player ID: %s",
		conn.RemoteAddr(), sess.ID, playerID)

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", conn.RemoteAddr(), sess.ID)
		s.sessionManager.Remove(sess.ID)
		s.monitor.DecOnlinePlayers()
		// Detach without leaving: the player record stays so the same
		// identity can reconnect into the room.
		sess.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := conn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Send(network.MsgTypeHeartbeat, nil)
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeReconnect:
		s.handleReconnect(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(sess, packet)
	case network.MsgTypeStartRound:
		s.handleStartRound(sess, packet)
	case network.MsgTypeSubmitGuess:
		s.handleSubmitGuess(sess, packet)
	case network.MsgTypeFinishRound:
		s.handleFinishRound(sess, packet)
	case network.MsgTypeResetRoom:
		s.handleResetRoom(sess, packet)
	case network.MsgTypeSoloStart:
		s.handleSoloStart(sess, packet)
	case network.MsgTypeSoloGuess:
		s.handleSoloGuess(sess, packet)
	case network.MsgTypeSoloHistory:
		s.handleSoloHistory(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req CreateRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	duration := s.game.ClampDuration(req.DurationSec)

	start := time.Now()
	code, err := sess.Client.CreateRoom(ctx, req.Name, duration)
	s.monitor.ObserveStoreOpLatency(time.Since(start))
	if err != nil {
		s.sendError(sess, err)
		return
	}
	sess.SetRoom(code)
	sess.Name = req.Name
	s.monitor.IncRoomsCreated()

	logger.Log.Infof("Player %s created room %s", sess.PlayerID, code)
	s.sendJSON(sess, network.MsgTypeCreateRoom, RoomCodeReply{Code: code})
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req JoinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	start := time.Now()
	code, err := sess.Client.JoinRoom(ctx, req.Code, req.Name)
	s.monitor.ObserveStoreOpLatency(time.Since(start))
	if err != nil {
		s.sendError(sess, err)
		return
	}
	sess.SetRoom(code)
	sess.Name = req.Name

	logger.Log.Infof("Player %s joined room %s", sess.PlayerID, code)
	s.sendJSON(sess, network.MsgTypeJoinRoom, RoomCodeReply{Code: code})
}

func (s *GameServer) handleReconnect(sess *session.Session, packet *network.Packet) {
	var req JoinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	code, err := sess.Client.ReconnectToRoom(ctx, req.Code, req.Name)
	if err != nil {
		s.sendError(sess, err)
		return
	}
	sess.SetRoom(code)

	logger.Log.Infof("Player %s reconnected to room %s", sess.PlayerID, code)
	s.sendJSON(sess, network.MsgTypeReconnect, RoomCodeReply{Code: code})
}

func (s *GameServer) handleLeaveRoom(sess *session.Session, packet *network.Packet) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := sess.Client.LeaveRoom(ctx); err != nil {
		s.sendError(sess, err)
		return
	}
	logger.Log.Infof("Player %s left room %s", sess.PlayerID, sess.Room())
	sess.SetRoom("")
	sess.Send(network.MsgTypeLeaveRoom, nil)
}

func (s *GameServer) handleStartRound(sess *session.Session, packet *network.Packet) {
	var req StartRoundRequest
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendError(sess, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	location := req.Location
	if location == nil {
		found, err := s.finder.FindUsableLocation(ctx)
		if err != nil {
			s.sendError(sess, err)
			return
		}
		location = &found
	}

	if err := sess.Client.StartGame(ctx, *location); err != nil {
		s.sendError(sess, err)
		return
	}
	logger.Log.Infof("Player %s started a round in room %s", sess.PlayerID, sess.Room())
	sess.Send(network.MsgTypeStartRound, nil)
}

func (s *GameServer) handleSubmitGuess(sess *session.Session, packet *network.Packet) {
	var req SubmitGuessRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	start := time.Now()
	err := sess.Client.SubmitGuess(ctx, req.Guess)
	s.monitor.ObserveStoreOpLatency(time.Since(start))
	if err != nil {
		s.sendError(sess, err)
		return
	}
	s.monitor.IncGuessesSubmitted()
	sess.Send(network.MsgTypeSubmitGuess, nil)
}

func (s *GameServer) handleFinishRound(sess *session.Session, packet *network.Packet) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := sess.Client.FinishGame(ctx); err != nil {
		s.sendError(sess, err)
		return
	}
	s.monitor.IncRoundsFinished()
	sess.Send(network.MsgTypeFinishRound, nil)
}

func (s *GameServer) handleResetRoom(sess *session.Session, packet *network.Packet) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := sess.Client.ResetRoom(ctx); err != nil {
		s.sendError(sess, err)
		return
	}
	sess.Send(network.MsgTypeResetRoom, nil)
}

func (s *GameServer) handleSoloStart(sess *session.Session, packet *network.Packet) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := sess.Solo.StartRound(ctx); err != nil {
		s.sendError(sess, err)
		return
	}
	logger.Log.Infof("Player %s started a solo round", sess.PlayerID)
	sess.Send(network.MsgTypeSoloStart, nil)
}

// handleSoloGuess ends the solo round; the reply carries the result with the
// true location, since revealing it is the point.
func (s *GameServer) handleSoloGuess(sess *session.Session, packet *network.Packet) {
	var req SubmitGuessRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, err)
		return
	}

	result, err := sess.Solo.SubmitGuess(req.Guess)
	if err != nil {
		s.sendError(sess, err)
		return
	}
	s.monitor.IncGuessesSubmitted()
	s.sendJSON(sess, network.MsgTypeSoloGuess, result)
}

func (s *GameServer) handleSoloHistory(sess *session.Session, packet *network.Packet) {
	s.sendJSON(sess, network.MsgTypeSoloHistory, SoloHistoryReply{Results: sess.Solo.History()})
}

// pushSnapshot sends the room document plus this player's derived view. Runs
// on the subscription delivery goroutine, in snapshot order.
func (s *GameServer) pushSnapshot(sess *session.Session, r *room.Room) {
	if r == nil {
		return
	}

	payload := SnapshotPayload{
		Room:       r,
		IsCreator:  r.IsCreator(sess.PlayerID),
		HasGuessed: r.HasGuessed(sess.PlayerID),
	}
	if left, ok := r.TimeLeft(time.Now().UTC()); ok {
		payload.TimeLeft = &left
	}
	if r.Status == room.StatusFinished {
		ranking := room.Rank(r)
		payload.Ranking = &ranking
	}

	if err := s.sendJSON(sess, network.MsgTypeRoomSnapshot, payload); err != nil {
		logger.Log.Warnf("Failed to push snapshot to session %s: %v", sess.ID, err)
		return
	}
	s.monitor.IncSnapshotsPushed()
}

func (s *GameServer) sendJSON(sess *session.Session, msgID uint16, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return sess.Send(msgID, data)
}

func (s *GameServer) sendError(sess *session.Session, err error) {
	logger.Log.Warnf("Session %s request failed: %v", sess.ID, err)
	s.sendJSON(sess, network.MsgTypeError, ErrorPayload{Message: err.Error()})
}
