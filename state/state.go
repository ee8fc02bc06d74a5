package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wfunc/mafiaserver/game"
	"github.com/wfunc/mafiaserver/logger"
	"github.com/wfunc/mafiaserver/models"
	"github.com/wfunc/mafiaserver/network"
)

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from State, to State, condition func() bool) error
}

// 状态接口
type State interface {
	OnEnter()
	OnExit()
	GetID() string
	HandleAction(playerID string, action Action) error
	HandlePlayerLeft(playerID string)
}

// ActionKind enumerates the in-game requests a player can make.
type ActionKind int

const (
	ActionStart ActionKind = iota
	ActionVote
	ActionNight
	ActionChat
	ActionMafiaChat
)

// Action is one validated inbound request routed to the current state.
type Action struct {
	Kind     ActionKind
	TargetID string
	Message  string
}

var (
	// ErrTransitionNotAllowed is returned when a state transition is not allowed.
	ErrTransitionNotAllowed = errors.New("state transition not allowed")
	ErrEmptyMessage         = errors.New("message is empty")
)

// 基础状态机实现
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	onTransition func(from, to State)
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

// SetTransitionHook registers fn to run between the old state's OnExit and
// the new state's OnEnter.
func (sm *BaseStateMachine) SetTransitionHook(fn func(from, to State)) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.onTransition = fn
}

// ChangeState switches to newState. Once any transition has been declared
// the machine only follows declared transitions whose condition holds.
func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	if len(sm.transitions) > 0 {
		condition, exists := sm.transitions[currentID][newID]
		if !exists || (condition != nil && !condition()) {
			return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, currentID, newID)
		}
	}

	old := sm.currentState
	old.OnExit()
	sm.currentState = newState
	if sm.onTransition != nil {
		sm.onTransition(old, newState)
	}
	sm.currentState.OnEnter()

	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseStateMachine) AddTransition(from State, to State, condition func() bool) error {
	return sm.AddTransitionByID(from.GetID(), to.GetID(), condition)
}

// AddTransitionByID declares a transition without needing state instances.
func (sm *BaseStateMachine) AddTransitionByID(fromID, toID string, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	return nil
}

// 房间状态基础结构
type RoomStateBase struct {
	ID   string
	Room RoomContext
}

func (s *RoomStateBase) GetID() string {
	return s.ID
}

func (s *RoomStateBase) OnEnter() {
	// 默认实现
}

func (s *RoomStateBase) OnExit() {
	// 默认实现
}

func (s *RoomStateBase) HandlePlayerLeft(playerID string) {
	// 默认实现
}

// HandleAction covers the requests every phase treats the same way. Votes
// and night actions fall through to the game, which rejects them with the
// error matching the current phase.
func (s *RoomStateBase) HandleAction(playerID string, action Action) error {
	g := s.Room.Game()
	switch action.Kind {
	case ActionChat:
		return s.chat(playerID, action.Message)
	case ActionMafiaChat:
		return s.mafiaChat(playerID, action.Message)
	case ActionStart:
		if g.Phase == game.PhaseEnded {
			return game.ErrGameEnded
		}
		return game.ErrGameAlreadyStarted
	case ActionVote:
		return g.RecordVote(playerID, action.TargetID)
	case ActionNight:
		_, err := g.RecordNightAction(playerID, action.TargetID)
		return err
	default:
		return fmt.Errorf("unknown action kind %d", action.Kind)
	}
}

func (s *RoomStateBase) chat(playerID, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyMessage
	}
	p, ok := s.Room.Game().Player(playerID)
	if !ok {
		return game.ErrNotInRoom
	}
	s.broadcast(network.MsgTypeChatMessage, models.ChatMessage{Name: p.Name, Message: message})
	return nil
}

// mafiaChat relays a team-only message to the members of mafiaIDs.
func (s *RoomStateBase) mafiaChat(playerID, message string) error {
	g := s.Room.Game()
	if !g.IsMafia(playerID) {
		return game.ErrNotMafia
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyMessage
	}
	p, _ := g.Player(playerID)
	s.sendTo(g.MafiaIDs(), network.MsgTypeChatMessage, models.ChatMessage{
		Name:    "[MAFIA TEAM CHAT] " + p.Name,
		Message: message,
	})
	return nil
}

// finishIfWon moves the room to Ended when a faction has won.
func (s *RoomStateBase) finishIfWon() bool {
	winner := s.Room.Game().CheckWinner()
	if winner == game.FactionNone {
		return false
	}
	if err := s.Room.ChangeState(NewEndedState(s.Room, winner)); err != nil {
		logger.Log.Errorf("room %s: enter ended state: %v", s.Room.GetID(), err)
	}
	return true
}

func (s *RoomStateBase) announce(format string, args ...interface{}) {
	s.broadcast(network.MsgTypeChatMessage, models.ChatMessage{Name: "GM", Message: fmt.Sprintf(format, args...)})
}

func (s *RoomStateBase) broadcastRoster() {
	s.broadcast(network.MsgTypeUpdatePlayers, s.Room.Game().Roster(false))
}

func (s *RoomStateBase) broadcastPhase(duration int64) {
	g := s.Room.Game()
	s.broadcast(network.MsgTypePhaseChanged, models.PhaseChange{
		Phase:      g.Phase.String(),
		Round:      g.Round,
		DurationMs: duration,
	})
}

func (s *RoomStateBase) broadcast(msgID uint16, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("room %s: marshal %s: %v", s.Room.GetID(), network.EventName(msgID), err)
		return
	}
	if err := s.Room.Broadcast(msgID, data); err != nil {
		logger.Log.Warnf("room %s: broadcast %s: %v", s.Room.GetID(), network.EventName(msgID), err)
	}
}

func (s *RoomStateBase) sendTo(playerIDs []string, msgID uint16, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("room %s: marshal %s: %v", s.Room.GetID(), network.EventName(msgID), err)
		return
	}
	if err := s.Room.SendTo(playerIDs, msgID, data); err != nil {
		logger.Log.Warnf("room %s: send %s: %v", s.Room.GetID(), network.EventName(msgID), err)
	}
}
