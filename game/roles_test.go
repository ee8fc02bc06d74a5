package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRoles(roles []Role) map[Role]int {
	counts := make(map[Role]int)
	for _, r := range roles {
		counts[r]++
	}
	return counts
}

func TestAssignRoles_IsPermutationOfPoolPrefix(t *testing.T) {
	pool := []Role{RoleMafia, RoleMafia, RoleDetective, RoleDoctor, RoleTownsperson, RoleTownsperson, RoleTownsperson}

	for n := MinPlayers; n <= len(pool); n++ {
		for seed := int64(0); seed < 50; seed++ {
			g := New(pool)
			for i := 0; i < n; i++ {
				_, err := g.AddPlayer(fmt.Sprintf("p%d", i), "x")
				require.NoError(t, err)
			}
			require.NoError(t, g.AssignRoles(rand.New(rand.NewSource(seed))))

			var got []Role
			var mafia []string
			for _, p := range g.Players() {
				got = append(got, p.Role)
				if p.Role == RoleMafia {
					mafia = append(mafia, p.ID)
				}
			}
			require.Equal(t, countRoles(pool[:n]), countRoles(got), "n=%d seed=%d", n, seed)
			require.Equal(t, mafia, g.MafiaIDs())
		}
	}
}

func TestAssignRoles_Errors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	g := New(DefaultRolePool())
	for i := 0; i < MinPlayers-1; i++ {
		_, _ = g.AddPlayer(fmt.Sprintf("p%d", i), "x")
	}
	assert.ErrorIs(t, g.AssignRoles(rng), ErrInsufficientPlayers)
	for _, p := range g.Players() {
		assert.Equal(t, RoleUnassigned, p.Role, "roles untouched after a refused start")
	}

	// a pool shrunk after joining is reported, not sliced out of range
	_, _ = g.AddPlayer("p9", "x")
	g.RolePool = g.RolePool[:2]
	assert.ErrorIs(t, g.AssignRoles(rng), ErrRolePoolTooSmall)
}

func TestAssignRoles_OnlyOnce(t *testing.T) {
	g := New(DefaultRolePool())
	for i := 0; i < 5; i++ {
		_, _ = g.AddPlayer(fmt.Sprintf("p%d", i), "x")
	}
	require.NoError(t, g.AssignRoles(rand.New(rand.NewSource(3))))
	before := g.Roster(true)

	assert.ErrorIs(t, g.AssignRoles(rand.New(rand.NewSource(4))), ErrRolesAssigned)
	assert.Equal(t, before, g.Roster(true))
}

func TestParseRolePool(t *testing.T) {
	pool, err := ParseRolePool([]string{"Mafia", "doctor", " Detective ", "TOWNSPERSON"})
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleMafia, RoleDoctor, RoleDetective, RoleTownsperson}, pool)

	_, err = ParseRolePool([]string{"Werewolf"})
	assert.Error(t, err)
	_, err = ParseRole("Unassigned")
	assert.Error(t, err)
}

// permutationChiSquare shuffles four distinct roles many times and returns
// the chi-square statistic of the observed orderings against a uniform
// distribution, plus how often the last element stayed in place.
func permutationChiSquare(shuffle func([]Role)) (float64, float64) {
	const trials = 48000
	counts := make(map[string]int)
	stayed := 0
	for i := 0; i < trials; i++ {
		roles := []Role{RoleMafia, RoleDetective, RoleDoctor, RoleTownsperson}
		shuffle(roles)
		if roles[3] == RoleTownsperson {
			stayed++
		}
		key := make([]string, len(roles))
		for j, r := range roles {
			key[j] = r.String()
		}
		counts[strings.Join(key, ",")]++
	}

	const perms = 24
	expected := float64(trials) / perms
	chi := 0.0
	for _, c := range counts {
		d := float64(c) - expected
		chi += d * d / expected
	}
	// orderings that never showed up
	chi += float64(perms-len(counts)) * expected
	return chi, float64(stayed) / trials
}

func TestShuffle_Uniform(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	chi, stayed := permutationChiSquare(func(r []Role) { Shuffle(rng, r) })

	// 23 degrees of freedom; 60 is far beyond the 0.1% critical value
	assert.Less(t, chi, 60.0)
	assert.InDelta(t, 0.25, stayed, 0.02)
}

// A random comparator handed to a sort is a common way to "shuffle". For
// short slices sort.SliceStable is an insertion sort, so the last element
// keeps its slot about half the time instead of a quarter.
func TestShuffle_RandomComparatorIsBiased(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	chi, stayed := permutationChiSquare(func(r []Role) {
		sort.SliceStable(r, func(i, j int) bool { return rng.Intn(2) == 0 })
	})

	assert.Greater(t, chi, 60.0)
	assert.Greater(t, stayed, 0.4)
}
