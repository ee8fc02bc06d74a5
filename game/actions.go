package game

import "fmt"

// Verdict is the detective's private result for one check.
type Verdict struct {
	TargetID   string
	TargetName string
	IsMafia    bool
}

func (v Verdict) String() string {
	if v.IsMafia {
		return fmt.Sprintf("Player %s is a Mafia.", v.TargetName)
	}
	return fmt.Sprintf("Player %s is a Townsperson.", v.TargetName)
}

// actor validates that id may act in the given phase.
func (g *Game) actor(id string, phase Phase) (*Player, error) {
	if g.Phase == PhaseEnded {
		return nil, ErrGameEnded
	}
	if g.Phase != phase {
		return nil, ErrInvalidPhaseForAction
	}
	p, ok := g.players[id]
	if !ok {
		return nil, ErrNotInRoom
	}
	if !p.Alive {
		return nil, ErrDeadPlayerAction
	}
	return p, nil
}

// RecordVote stores voterID's day vote, replacing any earlier one.
// Votes for dead players are accepted but can never win a lynch.
func (g *Game) RecordVote(voterID, targetID string) error {
	if _, err := g.actor(voterID, PhaseDay); err != nil {
		return err
	}
	if _, ok := g.players[targetID]; !ok {
		return ErrInvalidTarget
	}

	g.votes[voterID] = targetID
	return nil
}

// AllVotesIn reports whether every living player has cast a vote.
func (g *Game) AllVotesIn() bool {
	alive := g.AliveIDs()
	if len(alive) == 0 {
		return false
	}
	for _, id := range alive {
		if _, ok := g.votes[id]; !ok {
			return false
		}
	}
	return true
}

// RecordNightAction applies actorID's role action on targetID. Every actor
// acts at most once per night. A detective receives the verdict straight
// away; other roles get a nil verdict.
func (g *Game) RecordNightAction(actorID, targetID string) (*Verdict, error) {
	p, err := g.actor(actorID, PhaseNight)
	if err != nil {
		return nil, err
	}
	if !p.Role.HasNightAction() {
		return nil, ErrNoNightAction
	}
	if _, done := g.acted[actorID]; done {
		return nil, ErrAlreadyActed
	}
	target, ok := g.players[targetID]
	if !ok || !target.Alive {
		return nil, ErrInvalidTarget
	}

	var verdict *Verdict
	switch p.Role {
	case RoleMafia:
		// last write wins between teammates
		g.night.MafiaKillTarget = targetID
	case RoleDoctor:
		if targetID == g.lastDoctorTarget {
			return nil, ErrRepeatProtectionTarget
		}
		g.night.DoctorSaveTarget = targetID
		g.lastDoctorTarget = targetID
	case RoleDetective:
		g.night.DetectiveCheckTarget = targetID
		verdict = &Verdict{
			TargetID:   targetID,
			TargetName: target.Name,
			IsMafia:    target.Role == RoleMafia,
		}
	}

	g.acted[actorID] = struct{}{}
	return verdict, nil
}
