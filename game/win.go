package game

import "github.com/samber/lo"

// Faction is one of the two competing win groups.
type Faction int

const (
	FactionNone Faction = iota
	FactionTown
	FactionMafia
)

func (f Faction) String() string {
	switch f {
	case FactionTown:
		return "Town"
	case FactionMafia:
		return "Mafia"
	default:
		return "None"
	}
}

// CheckWinner evaluates the win condition against the living players.
// Town wins once no Mafia is alive; Mafia wins once living Mafia are at
// least as many as everyone else alive. FactionNone means play continues.
func (g *Game) CheckWinner() Faction {
	if !g.rolesAssigned {
		return FactionNone
	}

	alive := lo.Filter(g.Players(), func(p *Player, _ int) bool { return p.Alive })
	mafia := lo.CountBy(alive, func(p *Player) bool { return p.Role == RoleMafia })
	town := len(alive) - mafia

	switch {
	case mafia == 0:
		return FactionTown
	case mafia >= town:
		return FactionMafia
	default:
		return FactionNone
	}
}
