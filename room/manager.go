package room

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"

	"github.com/wfunc/mafiaserver/game"
	"github.com/wfunc/mafiaserver/logger"
	"github.com/wfunc/mafiaserver/models"
	"github.com/wfunc/mafiaserver/state"
)

const (
	roomIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	roomIDLength   = 7
	maxIDAttempts  = 16
)

// NewRoomID returns a short random room id.
func NewRoomID() (string, error) {
	return gonanoid.Generate(roomIDAlphabet, roomIDLength)
}

// Settings are applied to every room the manager creates.
type Settings struct {
	RolePool      []game.Role
	DayDuration   time.Duration
	NightDuration time.Duration
	// EndedGrace is how long a finished room stays around before removal.
	EndedGrace time.Duration
	// NewRand seeds each room's role shuffle. Defaults to the wall clock.
	NewRand func() *rand.Rand
}

type Option func(*Manager)

func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

func WithArchiver(a Archiver) Option {
	return func(m *Manager) { m.archiver = a }
}

// WithIDGenerator replaces NewRoomID.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(m *Manager) { m.newID = fn }
}

// --- 房间管理器 ---

// Manager 管理所有房间
type Manager struct {
	rooms       map[string]*Room
	mutex       sync.RWMutex
	settings    Settings
	broadcaster Broadcaster
	timers      Scheduler
	recorder    Recorder
	archiver    Archiver
	newID       func() (string, error)
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager(settings Settings, broadcaster Broadcaster, timers Scheduler, opts ...Option) *Manager {
	if len(settings.RolePool) == 0 {
		settings.RolePool = game.DefaultRolePool()
	}
	if settings.NewRand == nil {
		settings.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	m := &Manager{
		rooms:       make(map[string]*Room),
		settings:    settings,
		broadcaster: broadcaster,
		timers:      timers,
		recorder:    nopRecorder{},
		newID:       NewRoomID,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// CreateRoom 创建一个新房间, 创建者成为第一个玩家
func (m *Manager) CreateRoom(creatorID, name string) (*Room, error) {
	if name == "" {
		name = "Host_" + shortID(creatorID)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	id, err := m.freeID()
	if err != nil {
		return nil, err
	}

	room := NewRoom(id, m.settings.RolePool, state.Options{
		DayDuration:   m.settings.DayDuration,
		NightDuration: m.settings.NightDuration,
		Rand:          m.settings.NewRand(),
	}, m.broadcaster, m.timers)
	room.recorder = m.recorder
	room.onEnded = m.gameEnded

	if _, err := room.AddPlayer(creatorID, name); err != nil {
		return nil, err
	}
	m.rooms[id] = room
	m.recorder.SetActiveRooms(len(m.rooms))
	logger.Log.Infof("room %s created by %s", id, creatorID)
	return room, nil
}

// freeID draws ids until one is not taken. Caller holds the write lock.
func (m *Manager) freeID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := m.newID()
		if err != nil {
			return "", fmt.Errorf("generate room id: %w", err)
		}
		if _, taken := m.rooms[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free room id after %d attempts", maxIDAttempts)
}

// JoinRoom 加入已有房间, 只能在等待阶段
func (m *Manager) JoinRoom(roomID, playerID, name string) (*Room, error) {
	room, ok := m.GetRoom(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if name == "" {
		name = "Player_" + shortID(playerID)
	}
	if _, err := room.AddPlayer(playerID, name); err != nil {
		return nil, err
	}
	return room, nil
}

// StartGame deals roles and opens Day 1.
func (m *Manager) StartGame(roomID, playerID string) error {
	return m.Dispatch(roomID, playerID, state.Action{Kind: state.ActionStart})
}

// Dispatch routes an in-game request to the room's current phase.
func (m *Manager) Dispatch(roomID, playerID string, action state.Action) error {
	room, ok := m.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	return room.HandleAction(playerID, action)
}

// RemovePlayer handles a disconnect. The room is dropped once nobody
// connected is left in it.
func (m *Manager) RemovePlayer(roomID, playerID string) error {
	room, ok := m.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	remaining, err := room.RemovePlayer(playerID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		m.removeRoom(roomID, room)
	}
	return nil
}

// RemoveRoom 从管理器中移除并关闭一个房间
func (m *Manager) RemoveRoom(id string) {
	m.removeRoom(id, nil)
}

// removeRoom deletes id only if it still maps to want (any room when want is nil).
func (m *Manager) removeRoom(id string, want *Room) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room, exists := m.rooms[id]
	if !exists || (want != nil && room != want) {
		return
	}
	room.Close()
	delete(m.rooms, id)
	m.recorder.SetActiveRooms(len(m.rooms))
	logger.Log.Infof("room %s removed", id)
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// Summaries lists every room, oldest first.
func (m *Manager) Summaries() []models.RoomSummary {
	m.mutex.RLock()
	rooms := lo.Values(m.rooms)
	m.mutex.RUnlock()

	out := lo.Map(rooms, func(r *Room, _ int) models.RoomSummary { return r.Summary() })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// gameEnded runs under the room's lock, so it must not touch the room
// again synchronously.
func (m *Manager) gameEnded(room *Room, record models.GameRecord) {
	if m.archiver != nil {
		if err := ants.Submit(func() {
			if err := m.archiver.ArchiveGame(record); err != nil {
				logger.Log.Errorf("room %s: archive game: %v", record.RoomID, err)
			}
		}); err != nil {
			logger.Log.Errorf("room %s: submit archive: %v", record.RoomID, err)
		}
	}

	grace := m.settings.EndedGrace
	if grace <= 0 {
		return
	}
	m.timers.AddTimer(grace, 0, func() { m.removeRoom(room.ID, room) })
}

func shortID(id string) string {
	if len(id) > 4 {
		return id[:4]
	}
	return id
}
