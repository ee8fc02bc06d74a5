package game

import (
	"fmt"
	"math/rand"
	"strings"
)

// MinPlayers is the smallest room that can start a game.
const MinPlayers = 4

// Role 玩家身份
type Role int

const (
	RoleUnassigned Role = iota
	RoleMafia
	RoleDetective
	RoleDoctor
	RoleTownsperson
)

var roleNames = map[Role]string{
	RoleUnassigned:  "Unassigned",
	RoleMafia:       "Mafia",
	RoleDetective:   "Detective",
	RoleDoctor:      "Doctor",
	RoleTownsperson: "Townsperson",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Unknown"
}

// Faction returns the win group the role belongs to.
func (r Role) Faction() Faction {
	switch r {
	case RoleMafia:
		return FactionMafia
	case RoleDetective, RoleDoctor, RoleTownsperson:
		return FactionTown
	default:
		return FactionNone
	}
}

// HasNightAction reports whether the role may act during the night.
func (r Role) HasNightAction() bool {
	return r == RoleMafia || r == RoleDoctor || r == RoleDetective
}

// ParseRole converts a role tag such as "Mafia" or "doctor" into a Role.
func ParseRole(s string) (Role, error) {
	for role, name := range roleNames {
		if role != RoleUnassigned && strings.EqualFold(name, strings.TrimSpace(s)) {
			return role, nil
		}
	}
	return RoleUnassigned, fmt.Errorf("unknown role %q", s)
}

// ParseRolePool converts configured role tags into a role pool.
func ParseRolePool(tags []string) ([]Role, error) {
	pool := make([]Role, 0, len(tags))
	for _, tag := range tags {
		role, err := ParseRole(tag)
		if err != nil {
			return nil, err
		}
		pool = append(pool, role)
	}
	return pool, nil
}

// DefaultRolePool is the six seat pool used when nothing is configured.
func DefaultRolePool() []Role {
	return []Role{RoleMafia, RoleDetective, RoleDoctor, RoleTownsperson, RoleTownsperson, RoleTownsperson}
}

// Shuffle permutes roles in place with Fisher-Yates so every ordering is equally likely.
func Shuffle(rng *rand.Rand, roles []Role) {
	for i := len(roles) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		roles[i], roles[j] = roles[j], roles[i]
	}
}

// AssignRoles deals the first N roles of the pool to the N players, one each,
// in join order after a uniform shuffle. It may only run once per game.
func (g *Game) AssignRoles(rng *rand.Rand) error {
	n := len(g.players)
	if g.rolesAssigned || g.Phase != PhaseWaiting {
		return ErrRolesAssigned
	}
	if n < MinPlayers {
		return ErrInsufficientPlayers
	}
	if n > len(g.RolePool) {
		return fmt.Errorf("%w: %d players, %d roles", ErrRolePoolTooSmall, n, len(g.RolePool))
	}

	roles := append([]Role(nil), g.RolePool[:n]...)
	Shuffle(rng, roles)

	for i, id := range g.order {
		p := g.players[id]
		p.Role = roles[i]
		if p.Role == RoleMafia {
			g.mafiaIDs[id] = struct{}{}
		}
	}
	g.rolesAssigned = true
	return nil
}
