// state/interfaces.go
package state

import (
	"math/rand"
	"time"

	"github.com/wfunc/mafiaserver/game"
)

// Options are the per-room settings the phase states need.
type Options struct {
	DayDuration   time.Duration
	NightDuration time.Duration
	Rand          *rand.Rand
}

// RoomContext defines the interface that a Room must implement to be managed by the state machine.
// This breaks the import cycle between room and state. Every method is
// called with the room already serialized.
type RoomContext interface {
	GetID() string
	Game() *game.Game
	Options() Options
	ChangeState(newState State) error
	// Broadcast sends to every connected player of the room.
	Broadcast(msgID uint16, data []byte) error
	// SendTo sends only to the listed players.
	SendTo(playerIDs []string, msgID uint16, data []byte) error
	// ScheduleTimeout replaces the room's pending phase timer. fn only runs
	// if no phase change happened in between.
	ScheduleTimeout(d time.Duration, fn func())
	GameEnded(winner game.Faction)
}
