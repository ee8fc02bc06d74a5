// room/room.go
package room

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/wfunc/mafiaserver/game"
	"github.com/wfunc/mafiaserver/logger"
	"github.com/wfunc/mafiaserver/models"
	"github.com/wfunc/mafiaserver/network"
	"github.com/wfunc/mafiaserver/state"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// Room 是游戏房间的核心结构
// 所有状态回调都在 mu 下执行, 同一房间的事件严格串行
type Room struct {
	ID           string
	CreatedAt    time.Time
	StartedAt    time.Time
	StateMachine *state.BaseStateMachine

	game        *game.Game
	opts        state.Options
	broadcaster Broadcaster // Use the interface, not the concrete type
	timers      Scheduler
	recorder    Recorder
	onEnded     func(r *Room, record models.GameRecord)

	mu         sync.Mutex
	generation uint64 // bumped on every phase change
	timerID    int64
	closed     bool
}

// NewRoom 创建一个新房间
func NewRoom(id string, rolePool []game.Role, opts state.Options, broadcaster Broadcaster, timers Scheduler) *Room {
	room := &Room{
		ID:          id,
		CreatedAt:   time.Now(),
		game:        game.New(rolePool),
		opts:        opts,
		broadcaster: broadcaster,
		timers:      timers,
		recorder:    nopRecorder{},
	}

	// 初始化状态机，将房间自身(room)作为上下文传入
	room.StateMachine = state.NewBaseStateMachine(state.NewWaitingState(room))
	state.RegisterTransitions(room.StateMachine, room)
	room.StateMachine.SetTransitionHook(room.onTransition)

	return room
}

// --- 实现 state.RoomContext 接口, 调用方已持有 mu ---

// GetID 返回房间ID
func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) Game() *game.Game {
	return r.game
}

func (r *Room) Options() state.Options {
	return r.opts
}

// ChangeState 改变房间的状态机状态
func (r *Room) ChangeState(newState state.State) error {
	return r.StateMachine.ChangeState(newState)
}

// Broadcast sends a message to all connected players in the room.
func (r *Room) Broadcast(msgID uint16, data []byte) error {
	return r.broadcaster.BroadcastToPlayers(r.game.ConnectedIDs(), msgID, data)
}

func (r *Room) SendTo(playerIDs []string, msgID uint16, data []byte) error {
	return r.broadcaster.BroadcastToPlayers(playerIDs, msgID, data)
}

// ScheduleTimeout replaces the pending phase timer. The callback is bound to
// the current generation and is dropped if the phase has moved on by the
// time it runs.
func (r *Room) ScheduleTimeout(d time.Duration, fn func()) {
	r.cancelTimer()
	gen := r.generation
	r.timerID = r.timers.AddTimer(d, 0, func() { r.fire(gen, fn) })
}

// GameEnded is called from the Ended state once the winner is known.
func (r *Room) GameEnded(winner game.Faction) {
	r.cancelTimer()
	record := models.GameRecord{
		RoomID:    r.ID,
		Winner:    winner.String(),
		Rounds:    r.game.Round,
		Players:   r.game.Roster(true),
		StartedAt: r.StartedAt,
		EndedAt:   time.Now(),
	}
	r.recorder.ObserveGameEnd(record.Winner, record.EndedAt.Sub(record.StartedAt))
	if r.onEnded != nil {
		r.onEnded(r, record)
	}
}

// --- 房间核心逻辑 ---

// AddPlayer 添加一个玩家到房间并广播最新名单
func (r *Room) AddPlayer(playerID, name string) (*game.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRoomNotFound
	}
	p, err := r.game.AddPlayer(playerID, name)
	if err != nil {
		return nil, err
	}
	r.broadcastRoster()
	logger.Log.Infof("room %s: %s joined as %s (%d players)", r.ID, playerID, name, r.game.PlayerCount())
	return p, nil
}

// HandleAction routes one player request to the current phase.
func (r *Room) HandleAction(playerID string, action state.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if _, ok := r.game.Player(playerID); !ok {
		return game.ErrNotInRoom
	}

	err := r.StateMachine.GetCurrentState().HandleAction(playerID, action)
	if err != nil {
		logger.Log.Debugf("room %s: action %d from %s rejected: %v", r.ID, action.Kind, playerID, err)
	}
	return err
}

// RemovePlayer 玩家断线或离开. 返回房间内剩余的在线人数
func (r *Room) RemovePlayer(playerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrRoomNotFound
	}
	died, err := r.game.Disconnect(playerID)
	if err != nil {
		return len(r.game.ConnectedIDs()), err
	}
	logger.Log.Infof("room %s: %s left (died=%v)", r.ID, playerID, died)

	r.broadcastRoster()
	if died {
		r.StateMachine.GetCurrentState().HandlePlayerLeft(playerID)
	}
	return len(r.game.ConnectedIDs()), nil
}

// Phase returns the current phase.
func (r *Room) Phase() game.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.Phase
}

// Summary is a snapshot for the admin surface.
func (r *Room) Summary() models.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.RoomSummary{
		RoomID:    r.ID,
		Phase:     r.game.Phase.String(),
		Round:     r.game.Round,
		Players:   r.game.PlayerCount(),
		Alive:     len(r.game.AliveIDs()),
		CreatedAt: r.CreatedAt,
	}
}

// Close stops the room. Pending and in-flight timers become no-ops.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cancelTimer()
}

func (r *Room) onTransition(from, to state.State) {
	r.generation++
	r.cancelTimer()
	if from.GetID() == state.IDWaiting {
		r.StartedAt = time.Now()
	}
	r.recorder.ObservePhase(to.GetID())
	logger.Log.Infof("room %s: %s -> %s", r.ID, from.GetID(), to.GetID())
}

// fire runs a timer callback if it still belongs to the current phase.
func (r *Room) fire(gen uint64, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || gen != r.generation {
		logger.Log.Debugf("room %s: dropped stale timer (gen %d, now %d)", r.ID, gen, r.generation)
		return
	}
	r.timerID = 0
	logger.Log.Debugf("room %s: %s timer expired", r.ID, r.game.Phase)
	fn()
}

func (r *Room) cancelTimer() {
	if r.timerID != 0 {
		r.timers.RemoveTimer(r.timerID)
		r.timerID = 0
	}
}

func (r *Room) broadcastRoster() {
	data, err := json.Marshal(r.game.Roster(false))
	if err != nil {
		logger.Log.Errorf("room %s: marshal roster: %v", r.ID, err)
		return
	}
	if err := r.Broadcast(network.MsgTypeUpdatePlayers, data); err != nil {
		logger.Log.Warnf("room %s: broadcast roster: %v", r.ID, err)
	}
}
