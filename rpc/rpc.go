package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/mafiaserver/logger"
	"github.com/wfunc/mafiaserver/models"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr and registers the given receivers.
func NewServer(addr string, receivers ...interface{}) (*Server, error) {
	srv := rpc.NewServer()
	for _, rcvr := range receivers {
		if err := srv.Register(rcvr); err != nil {
			return nil, err
		}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      srv,
	}, nil
}

// Addr is the address actually bound, useful with port 0.
func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests. It returns once the listener is closed.
func (s *Server) Start() error {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return nil
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			return err
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// RoomLister is implemented by *room.Manager.
type RoomLister interface {
	Summaries() []models.RoomSummary
}

// Archive is implemented by *services.ArchiveService.
type Archive interface {
	FactionStats() (map[string]int64, error)
	RecentGames(limit int) ([]models.GameRecord, error)
}

// RoomService is the struct that exposes admin RPC methods.
// Methods follow the net/rpc signature: exported method, exported arguments,
// second argument is a pointer, return type is error.
type RoomService struct {
	rooms   RoomLister
	archive Archive
}

// NewRoomService creates a new RoomService. archive may be nil.
func NewRoomService(rooms RoomLister, archive Archive) *RoomService {
	return &RoomService{rooms: rooms, archive: archive}
}

var ErrNoArchive = errors.New("archive not configured")

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []models.RoomSummary
}

func (rs *RoomService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = rs.rooms.Summaries()
	return nil
}

type FactionStatsArgs struct{}

type FactionStatsReply struct {
	Wins map[string]int64
}

func (rs *RoomService) FactionStats(args *FactionStatsArgs, reply *FactionStatsReply) error {
	if rs.archive == nil {
		return ErrNoArchive
	}
	wins, err := rs.archive.FactionStats()
	if err != nil {
		return err
	}
	reply.Wins = wins
	return nil
}

type RecentGamesArgs struct {
	Limit int
}

type RecentGamesReply struct {
	Games []models.GameRecord
}

func (rs *RoomService) RecentGames(args *RecentGamesArgs, reply *RecentGamesReply) error {
	if rs.archive == nil {
		return ErrNoArchive
	}
	games, err := rs.archive.RecentGames(args.Limit)
	if err != nil {
		return err
	}
	reply.Games = games
	return nil
}
