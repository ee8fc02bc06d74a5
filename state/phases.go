package state

import (
	"strings"

	"github.com/samber/lo"

	"github.com/wfunc/mafiaserver/game"
	"github.com/wfunc/mafiaserver/logger"
	"github.com/wfunc/mafiaserver/models"
	"github.com/wfunc/mafiaserver/network"
)

const (
	IDWaiting = "waiting"
	IDDay     = "day"
	IDNight   = "night"
	IDEnded   = "ended"
)

// RegisterTransitions declares the legal phase graph on sm.
func RegisterTransitions(sm *BaseStateMachine, room RoomContext) {
	enough := func() bool { return room.Game().PlayerCount() >= game.MinPlayers }
	_ = sm.AddTransitionByID(IDWaiting, IDDay, enough)
	_ = sm.AddTransitionByID(IDDay, IDNight, nil)
	_ = sm.AddTransitionByID(IDNight, IDDay, nil)
	_ = sm.AddTransitionByID(IDDay, IDEnded, nil)
	_ = sm.AddTransitionByID(IDNight, IDEnded, nil)
}

// NewWaitingState creates a new waiting state.
func NewWaitingState(room RoomContext) *WaitingState {
	return &WaitingState{
		RoomStateBase: RoomStateBase{
			ID:   IDWaiting,
			Room: room,
		},
	}
}

// 等待状态: 玩家加入, 直到有人发起开始
type WaitingState struct {
	RoomStateBase
}

func (s *WaitingState) HandleAction(playerID string, action Action) error {
	if action.Kind == ActionStart {
		return s.start()
	}
	return s.RoomStateBase.HandleAction(playerID, action)
}

// start deals roles, tells every player theirs privately and opens Day 1.
func (s *WaitingState) start() error {
	g := s.Room.Game()
	if err := g.AssignRoles(s.Room.Options().Rand); err != nil {
		return err
	}

	for _, p := range g.Players() {
		s.sendTo([]string{p.ID}, network.MsgTypeRoleAssigned, models.RoleAssignment{Role: p.Role.String()})
	}
	s.broadcast(network.MsgTypeGameStarted, struct{}{})
	logger.Log.Infof("room %s: game started with %d players", s.Room.GetID(), g.PlayerCount())

	return s.Room.ChangeState(NewDayState(s.Room))
}

// NewDayState creates the discussion and vote phase.
func NewDayState(room RoomContext) *DayState {
	return &DayState{RoomStateBase: RoomStateBase{ID: IDDay, Room: room}}
}

// DayState 白天: 讨论并投票
type DayState struct {
	RoomStateBase
}

func (s *DayState) OnEnter() {
	g := s.Room.Game()
	g.BeginDay()
	d := s.Room.Options().DayDuration

	s.broadcastPhase(d.Milliseconds())
	if g.Round == 1 {
		s.announce("The game has started. It is Day 1. Discuss and vote!")
	} else {
		s.announce("It is now DAY %d. Discuss and vote.", g.Round)
	}
	s.broadcastRoster()
	s.Room.ScheduleTimeout(d, s.endDay)
}

func (s *DayState) HandleAction(playerID string, action Action) error {
	if action.Kind != ActionVote {
		return s.RoomStateBase.HandleAction(playerID, action)
	}

	g := s.Room.Game()
	if err := g.RecordVote(playerID, action.TargetID); err != nil {
		return err
	}
	voter, _ := g.Player(playerID)
	s.announce("%s has voted.", voter.Name)

	if g.AllVotesIn() {
		s.endDay()
	}
	return nil
}

func (s *DayState) HandlePlayerLeft(playerID string) {
	if s.finishIfWon() {
		return
	}
	if s.Room.Game().AllVotesIn() {
		s.endDay()
	}
}

// endDay tallies the votes and moves on to Night or Ended.
func (s *DayState) endDay() {
	g := s.Room.Game()
	if g.Phase != game.PhaseDay {
		return
	}

	out := g.ResolveDay()
	switch {
	case out.Lynched != nil:
		s.announce("%s was lynched by the town. They were a %s.", out.Lynched.Name, out.Lynched.Role)
	case out.Tie:
		s.announce("The vote ended in a tie. No one was lynched.")
	default:
		s.announce("No one was lynched today.")
	}
	s.broadcastRoster()
	logger.Log.Infof("room %s: day %d resolved, lynched=%v tie=%v", s.Room.GetID(), g.Round, out.Lynched != nil, out.Tie)

	if s.finishIfWon() {
		return
	}
	if err := s.Room.ChangeState(NewNightState(s.Room)); err != nil {
		logger.Log.Errorf("room %s: enter night: %v", s.Room.GetID(), err)
	}
}

// NewNightState creates the secret action phase.
func NewNightState(room RoomContext) *NightState {
	return &NightState{RoomStateBase: RoomStateBase{ID: IDNight, Room: room}}
}

// NightState 夜晚: 黑手党, 医生, 侦探行动
type NightState struct {
	RoomStateBase
}

func (s *NightState) OnEnter() {
	g := s.Room.Game()
	g.BeginNight()
	d := s.Room.Options().NightDuration

	s.broadcastPhase(d.Milliseconds())
	s.announce("It is now NIGHT. All town members sleep. Doctor, Detective, and Mafia submit their actions.")
	s.briefMafia()
	s.Room.ScheduleTimeout(d, s.endNight)
}

// briefMafia privately tells each living Mafia member who their teammates are.
func (s *NightState) briefMafia() {
	g := s.Room.Game()
	mafia := g.MafiaIDs()
	for _, id := range mafia {
		if p, _ := g.Player(id); !p.Alive {
			continue
		}
		names := lo.FilterMap(mafia, func(other string, _ int) (string, bool) {
			p, _ := g.Player(other)
			return p.Name, other != id
		})
		msg := "You are the only member of the mafia."
		if len(names) > 0 {
			msg = "Your mafia teammates are: " + strings.Join(names, ", ")
		}
		s.sendTo([]string{id}, network.MsgTypeChatMessage, models.ChatMessage{Name: "GM", Message: msg})
	}
}

func (s *NightState) HandleAction(playerID string, action Action) error {
	if action.Kind != ActionNight {
		return s.RoomStateBase.HandleAction(playerID, action)
	}

	verdict, err := s.Room.Game().RecordNightAction(playerID, action.TargetID)
	if err != nil {
		return err
	}
	if verdict != nil {
		s.sendTo([]string{playerID}, network.MsgTypeDetectiveResult, models.DetectiveResult{
			TargetID: verdict.TargetID,
			Verdict:  verdict.String(),
		})
	}
	return nil
}

func (s *NightState) HandlePlayerLeft(playerID string) {
	s.finishIfWon()
}

// endNight resolves kill/save and moves on to Day or Ended.
func (s *NightState) endNight() {
	g := s.Room.Game()
	if g.Phase != game.PhaseNight {
		return
	}

	out := g.ResolveNight()
	switch out.Result {
	case game.NightKilled:
		s.announce("Player %s was found dead this morning. They were a %s.", out.Victim.Name, out.Victim.Role)
	case game.NightThwarted:
		s.announce("Someone was attacked last night, but a mysterious force saved them! No one died.")
	default:
		s.announce("There was no kill last night. Everyone is safe.")
	}
	s.broadcastRoster()
	logger.Log.Infof("room %s: night %d resolved, result=%d", s.Room.GetID(), g.Round, out.Result)

	if s.finishIfWon() {
		return
	}
	if err := s.Room.ChangeState(NewDayState(s.Room)); err != nil {
		logger.Log.Errorf("room %s: enter day: %v", s.Room.GetID(), err)
	}
}

// NewEndedState creates the terminal state for the given winner.
func NewEndedState(room RoomContext, winner game.Faction) *EndedState {
	return &EndedState{
		RoomStateBase: RoomStateBase{ID: IDEnded, Room: room},
		Winner:        winner,
	}
}

// EndedState 游戏结束, 只允许聊天
type EndedState struct {
	RoomStateBase
	Winner game.Faction
}

func (s *EndedState) OnEnter() {
	g := s.Room.Game()
	g.End(s.Winner)

	s.broadcastPhase(0)
	s.broadcast(network.MsgTypeGameOver, models.GameOver{
		Winner:  s.Winner.String(),
		Players: g.Roster(true),
	})
	s.announce("The game is over. %s wins!", s.Winner)
	logger.Log.Infof("room %s: game over, winner=%s", s.Room.GetID(), s.Winner)

	s.Room.GameEnded(s.Winner)
}

func (s *EndedState) HandleAction(playerID string, action Action) error {
	switch action.Kind {
	case ActionStart, ActionVote, ActionNight:
		return game.ErrGameEnded
	}
	return s.RoomStateBase.HandleAction(playerID, action)
}
