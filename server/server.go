package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/wfunc/mafiaserver/broadcast"
	"github.com/wfunc/mafiaserver/config"
	"github.com/wfunc/mafiaserver/game"
	"github.com/wfunc/mafiaserver/logger"
	"github.com/wfunc/mafiaserver/models"
	"github.com/wfunc/mafiaserver/monitor"
	"github.com/wfunc/mafiaserver/network"
	"github.com/wfunc/mafiaserver/persistence"
	"github.com/wfunc/mafiaserver/room"
	mafia_rpc "github.com/wfunc/mafiaserver/rpc"
	"github.com/wfunc/mafiaserver/services"
	"github.com/wfunc/mafiaserver/session"
	"github.com/wfunc/mafiaserver/state"
)

// HeartbeatInterval 客户端至少每个间隔发送一次消息, 两个间隔无消息则断开
const HeartbeatInterval = 30 * time.Second

type GameServer struct {
	addr           string
	rpcAddr        string
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	archive        *services.ArchiveService
	broadcaster    broadcast.Broadcaster
	monitor        *monitor.Monitor
	rpcServer      *mafia_rpc.Server
	httpServer     *http.Server
	heartbeat      time.Duration
}

// NewGameServer wires rooms, sessions and the admin surfaces. db may be nil,
// in which case finished games are not archived.
func NewGameServer(cfg *config.Config, timers room.Scheduler, db persistence.Database) (*GameServer, error) {
	pool, err := game.ParseRolePool(cfg.Game.RolePool)
	if err != nil {
		return nil, fmt.Errorf("game.role_pool: %w", err)
	}
	if len(pool) < game.MinPlayers {
		return nil, fmt.Errorf("game.role_pool: need at least %d roles, got %d", game.MinPlayers, len(pool))
	}

	s := &GameServer{
		addr:           cfg.Server.ListenAddress(),
		rpcAddr:        cfg.Server.RPCAddress,
		sessionManager: session.NewManager(),
		monitor:        monitor.NewMonitor("mafia"),
		heartbeat:      HeartbeatInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	bc := broadcast.NewRoomBroadcaster(s.sessionManager)
	s.broadcaster = bc

	opts := []room.Option{room.WithRecorder(s.monitor)}
	var archive mafia_rpc.Archive
	if db != nil {
		s.archive = services.NewArchiveService(db)
		archive = s.archive
		opts = append(opts, room.WithArchiver(s.archive))
	}

	s.roomManager = room.NewRoomManager(room.Settings{
		RolePool:      pool,
		DayDuration:   cfg.Game.DayDuration,
		NightDuration: cfg.Game.NightDuration,
		EndedGrace:    cfg.Game.EndedGrace,
	}, bc, timers, opts...)

	// 初始化RPC服务器
	if s.rpcAddr != "" {
		rpcServer, err := mafia_rpc.NewServer(s.rpcAddr, mafia_rpc.NewRoomService(s.roomManager, archive))
		if err != nil {
			return nil, fmt.Errorf("rpc server: %w", err)
		}
		s.rpcServer = rpcServer
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.monitor.Register(mux)
	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	return s, nil
}

// Rooms exposes the room registry.
func (s *GameServer) Rooms() *room.Manager {
	return s.roomManager
}

// Start serves websocket, metrics and RPC until ctx is cancelled.
func (s *GameServer) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Infof("Game server listening on %s", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if s.rpcServer != nil {
		g.Go(s.rpcServer.Start)
	}
	g.Go(func() error {
		<-ctx.Done()
		s.Shutdown()
		return nil
	})

	return g.Wait()
}

func (s *GameServer) Shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Warnf("http shutdown: %v", err)
	}
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(conn network.Connection) {
	sess := session.NewSession(uuid.New().String(), conn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()
	conn.SetHeartbeat(s.heartbeat)

	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())
		s.leaveRoom(sess)
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		conn.Close()
	}()

	for {
		packet, err := conn.ReadPacket()
		if err != nil {
			return
		}
		conn.SetHeartbeat(s.heartbeat)
		s.handlePacket(sess, packet)
	}
}

// leaveRoom takes the session out of its current room, if any.
func (s *GameServer) leaveRoom(sess *session.Session) {
	roomID := sess.RoomID()
	if roomID == "" {
		return
	}
	sess.SetRoomID("")
	if err := s.roomManager.RemovePlayer(roomID, sess.GetID()); err != nil && !errors.Is(err, room.ErrRoomNotFound) {
		logger.Log.Warnf("session %s leaving room %s: %v", sess.GetID(), roomID, err)
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	s.monitor.IncMessagesReceived()
	defer func() { s.monitor.ObserveMessageLatency(time.Since(start)) }()
	sess.Touch()

	var err error
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		return
	case network.MsgTypeCreateRoom:
		err = s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		err = s.handleJoinRoom(sess, packet)
	case network.MsgTypeStartGame:
		err = s.handleStartGame(sess, packet)
	case network.MsgTypeSubmitVote:
		err = s.handleTargeted(sess, packet, state.ActionVote)
	case network.MsgTypeNightAction:
		err = s.handleTargeted(sess, packet, state.ActionNight)
	case network.MsgTypeChatMessage:
		err = s.handleChat(sess, packet, state.ActionChat)
	case network.MsgTypeMafiaChatMessage:
		err = s.handleChat(sess, packet, state.ActionMafiaChat)
	default:
		err = fmt.Errorf("unknown message type %d", packet.MsgID)
	}

	if err != nil {
		logger.Log.Debugf("session %s %s: %v", sess.GetID(), network.EventName(packet.MsgID), err)
		s.sendError(sess, err)
	}
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) error {
	var req models.RoomSettings
	if len(packet.Data) > 0 {
		if err := decode(packet, &req); err != nil {
			return err
		}
	}

	s.leaveRoom(sess)
	r, err := s.roomManager.CreateRoom(sess.GetID(), req.Name)
	if err != nil {
		return err
	}
	sess.SetRoomID(r.ID)

	logger.Log.Infof("Session %s created room %s", sess.GetID(), r.ID)
	return s.reply(sess, network.MsgTypeRoomCreated, models.RoomResponse{RoomID: r.ID, PlayerID: sess.GetID()})
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) error {
	var req models.JoinRoomRequest
	if err := decode(packet, &req); err != nil {
		return err
	}
	if _, ok := s.roomManager.GetRoom(req.RoomID); !ok {
		return room.ErrRoomNotFound
	}
	if sess.RoomID() != req.RoomID {
		s.leaveRoom(sess)
	}

	r, err := s.roomManager.JoinRoom(req.RoomID, sess.GetID(), req.Name)
	if err != nil {
		return err
	}
	sess.SetRoomID(r.ID)

	logger.Log.Infof("Session %s joined room %s", sess.GetID(), r.ID)
	return s.reply(sess, network.MsgTypeJoinedRoom, models.RoomResponse{RoomID: r.ID, PlayerID: sess.GetID()})
}

func (s *GameServer) handleStartGame(sess *session.Session, packet *network.Packet) error {
	var req models.RoomRequest
	if err := decode(packet, &req); err != nil {
		return err
	}
	return s.roomManager.StartGame(roomOf(sess, req.RoomID), sess.GetID())
}

func (s *GameServer) handleTargeted(sess *session.Session, packet *network.Packet, kind state.ActionKind) error {
	var req models.TargetRequest
	if err := decode(packet, &req); err != nil {
		return err
	}
	return s.roomManager.Dispatch(roomOf(sess, req.RoomID), sess.GetID(), state.Action{Kind: kind, TargetID: req.TargetID})
}

func (s *GameServer) handleChat(sess *session.Session, packet *network.Packet, kind state.ActionKind) error {
	var req models.ChatRequest
	if err := decode(packet, &req); err != nil {
		return err
	}
	return s.roomManager.Dispatch(roomOf(sess, req.RoomID), sess.GetID(), state.Action{Kind: kind, Message: req.Message})
}

func (s *GameServer) reply(sess *session.Session, msgID uint16, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return sess.Send(msgID, data)
}

// sendError reports a rejected request to its sender only.
func (s *GameServer) sendError(sess *session.Session, cause error) {
	if err := s.reply(sess, network.MsgTypeError, models.ErrorMessage{Message: cause.Error()}); err != nil {
		logger.Log.Debugf("session %s: send error: %v", sess.GetID(), err)
	}
}

func decode(packet *network.Packet, v interface{}) error {
	if err := json.Unmarshal(packet.Data, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", network.EventName(packet.MsgID), err)
	}
	return nil
}

// roomOf falls back to the session's room when the payload names none.
func roomOf(sess *session.Session, roomID string) string {
	if roomID != "" {
		return roomID
	}
	return sess.RoomID()
}
