package game

// NightResult classifies how the night ended.
type NightResult int

const (
	NightNoKill NightResult = iota
	NightThwarted
	NightKilled
)

// NightOutcome is the result of resolving the night's actions.
type NightOutcome struct {
	Result NightResult
	Victim *Player
}

// DayOutcome is the result of tallying the day's votes.
type DayOutcome struct {
	Lynched *Player
	Tie     bool
	Tally   map[string]int
}

// ResolveNight applies the mafia kill unless the doctor saved the same
// target. A kill target that is no longer a living player is dropped.
// Night actions and votes are cleared afterwards.
func (g *Game) ResolveNight() NightOutcome {
	kill, save := g.night.MafiaKillTarget, g.night.DoctorSaveTarget
	g.lastDoctorTarget = save
	defer g.resetInput()

	victim, ok := g.players[kill]
	switch {
	case kill == "" || !ok || !victim.Alive:
		return NightOutcome{Result: NightNoKill}
	case kill == save:
		return NightOutcome{Result: NightThwarted}
	default:
		victim.Alive = false
		return NightOutcome{Result: NightKilled, Victim: victim}
	}
}

// ResolveDay counts the living voters' ballots. The single target with the
// strictly highest count is lynched; a tie for the highest count, or a top
// target that is already dead, lynches nobody. Votes are cleared regardless.
func (g *Game) ResolveDay() DayOutcome {
	tally := make(map[string]int)
	for voter, target := range g.votes {
		if p, ok := g.players[voter]; ok && p.Alive {
			tally[target]++
		}
	}
	g.votes = make(map[string]string)

	var (
		top  string
		best int
		tied bool
	)
	for target, count := range tally {
		switch {
		case count > best:
			top, best, tied = target, count, false
		case count == best:
			tied = true
		}
	}

	out := DayOutcome{Tie: tied, Tally: tally}
	if best == 0 || tied {
		return out
	}
	if p, ok := g.players[top]; ok && p.Alive {
		p.Alive = false
		out.Lynched = p
	}
	return out
}
