// game/game.go
package game

import (
	"github.com/samber/lo"

	"github.com/wfunc/mafiaserver/models"
)

// Phase 房间所处的游戏阶段
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseDay
	PhaseNight
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseDay:
		return "day"
	case PhaseNight:
		return "night"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Player is one participant of a room. ID equals the connection identifier.
type Player struct {
	ID        string
	Name      string
	Role      Role
	Alive     bool
	Connected bool
}

// Info returns the public roster entry. The role is only included when reveal is set.
func (p *Player) Info(reveal bool) models.PlayerInfo {
	info := models.PlayerInfo{ID: p.ID, Name: p.Name, Alive: p.Alive}
	if reveal {
		info.Role = p.Role.String()
	}
	return info
}

// NightActions holds the targets chosen during the current night. Empty means unset.
type NightActions struct {
	MafiaKillTarget      string
	DoctorSaveTarget     string
	DetectiveCheckTarget string
}

// Game is the state of a single session. It performs no locking or I/O;
// the owning room serializes every call.
type Game struct {
	Phase    Phase
	Round    int
	RolePool []Role
	Winner   Faction

	players          map[string]*Player
	order            []string
	rolesAssigned    bool
	mafiaIDs         map[string]struct{}
	night            NightActions
	acted            map[string]struct{}
	lastDoctorTarget string
	votes            map[string]string
}

// New creates a game in the Waiting phase with a copy of the given role pool.
func New(rolePool []Role) *Game {
	return &Game{
		Phase:    PhaseWaiting,
		RolePool: append([]Role(nil), rolePool...),
		players:  make(map[string]*Player),
		mafiaIDs: make(map[string]struct{}),
		acted:    make(map[string]struct{}),
		votes:    make(map[string]string),
	}
}

// AddPlayer registers a new player. Joining is only possible while waiting.
func (g *Game) AddPlayer(id, name string) (*Player, error) {
	if g.Phase != PhaseWaiting {
		return nil, ErrGameAlreadyStarted
	}
	if _, exists := g.players[id]; exists {
		return nil, ErrPlayerExists
	}
	if len(g.players) >= len(g.RolePool) {
		return nil, ErrRoomFull
	}

	p := &Player{ID: id, Name: name, Role: RoleUnassigned, Alive: true, Connected: true}
	g.players[id] = p
	g.order = append(g.order, id)
	return p, nil
}

// Disconnect handles a player leaving. Before the game starts the entry is
// deleted; afterwards it is kept with alive=false so mafiaIDs and vote
// targets keep pointing at a real player. It reports whether a living
// player died as a result.
func (g *Game) Disconnect(id string) (died bool, err error) {
	p, ok := g.players[id]
	if !ok {
		return false, ErrNotInRoom
	}

	if g.Phase == PhaseWaiting {
		delete(g.players, id)
		g.order = lo.Without(g.order, id)
		return false, nil
	}

	p.Connected = false
	if p.Alive {
		p.Alive = false
		died = true
	}
	delete(g.votes, id)
	return died, nil
}

// Player returns the player with the given id.
func (g *Game) Player(id string) (*Player, bool) {
	p, ok := g.players[id]
	return p, ok
}

// Players returns all players in join order.
func (g *Game) Players() []*Player {
	return lo.Map(g.order, func(id string, _ int) *Player {
		return g.players[id]
	})
}

// PlayerCount counts every entry, connected or not.
func (g *Game) PlayerCount() int {
	return len(g.players)
}

// ConnectedIDs returns the ids of players that still have a live connection.
func (g *Game) ConnectedIDs() []string {
	return lo.Filter(g.order, func(id string, _ int) bool {
		return g.players[id].Connected
	})
}

// AliveIDs returns the ids of living players in join order.
func (g *Game) AliveIDs() []string {
	return lo.Filter(g.order, func(id string, _ int) bool {
		return g.players[id].Alive
	})
}

// MafiaIDs returns the members assigned the Mafia role, dead or alive.
func (g *Game) MafiaIDs() []string {
	return lo.Filter(g.order, func(id string, _ int) bool {
		_, ok := g.mafiaIDs[id]
		return ok
	})
}

// IsMafia reports whether id was assigned the Mafia role.
func (g *Game) IsMafia(id string) bool {
	_, ok := g.mafiaIDs[id]
	return ok
}

// Roster returns the ordered public roster.
func (g *Game) Roster(reveal bool) []models.PlayerInfo {
	return lo.Map(g.Players(), func(p *Player, _ int) models.PlayerInfo {
		return p.Info(reveal)
	})
}

// Night returns the actions recorded so far this night.
func (g *Game) Night() NightActions {
	return g.night
}

// LastDoctorTarget returns the player saved by the doctor on the previous night.
func (g *Game) LastDoctorTarget() string {
	return g.lastDoctorTarget
}

// Votes returns a copy of the current day's votes keyed by voter.
func (g *Game) Votes() map[string]string {
	votes := make(map[string]string, len(g.votes))
	for voter, target := range g.votes {
		votes[voter] = target
	}
	return votes
}

// BeginDay enters the Day phase and clears the previous phase's input.
func (g *Game) BeginDay() {
	g.Phase = PhaseDay
	g.Round++
	g.resetInput()
}

// BeginNight enters the Night phase and clears the previous phase's input.
func (g *Game) BeginNight() {
	g.Phase = PhaseNight
	g.resetInput()
}

// End freezes the game with the given winner.
func (g *Game) End(winner Faction) {
	g.Phase = PhaseEnded
	g.Winner = winner
	g.resetInput()
}

func (g *Game) resetInput() {
	g.night = NightActions{}
	g.votes = make(map[string]string)
	g.acted = make(map[string]struct{})
}
