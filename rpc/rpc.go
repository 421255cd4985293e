package rpc

import (
	"context"
	"net"
	"net/rpc"

	"github.com/wfunc/georoom/logger"
	"github.com/wfunc/georoom/room"
	"github.com/wfunc/georoom/store"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// RoomService exposes read-only room inspection over RPC, for ops tooling.
type RoomService struct {
	store store.Store
}

// NewRoomService creates a new RoomService.
func NewRoomService(s store.Store) *RoomService {
	return &RoomService{store: s}
}

type GetRoomArgs struct {
	Code string
}

type GetRoomReply struct {
	Room    *room.Room
	Ranking room.Ranking
}

// GetRoom returns the current room document plus the ranking derived from it.
// It must follow the net/rpc signature: exported method, exported arguments,
// second argument is a pointer, return type is error.
func (rs *RoomService) GetRoom(args *GetRoomArgs, reply *GetRoomReply) error {
	normalized, err := room.ValidateCode(args.Code)
	if err != nil {
		return err
	}
	doc, err := rs.store.Get(context.Background(), normalized)
	if err != nil {
		return err
	}
	reply.Room = doc
	reply.Ranking = room.Rank(doc)
	return nil
}
