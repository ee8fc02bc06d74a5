package room

import (
	"time"

	"github.com/wfunc/mafiaserver/models"
)

// Broadcaster delivers a packet to the given players' connections.
// This is defined here to break the import cycle between room and broadcast.
// Implementations must not call back into the room.
type Broadcaster interface {
	BroadcastToPlayers(playerIDs []string, msgID uint16, data []byte) error
}

// Scheduler runs delayed callbacks. *timer.TimerManager satisfies it.
type Scheduler interface {
	AddTimer(delay time.Duration, interval time.Duration, callback func()) int64
	RemoveTimer(timerId int64)
}

// Recorder receives room level metrics.
type Recorder interface {
	SetActiveRooms(n int)
	ObservePhase(phase string)
	ObserveGameEnd(winner string, duration time.Duration)
}

// Archiver stores finished games.
type Archiver interface {
	ArchiveGame(record models.GameRecord) error
}

type nopRecorder struct{}

func (nopRecorder) SetActiveRooms(int) {}
func (nopRecorder) ObservePhase(string) {}
func (nopRecorder) ObserveGameEnd(string, time.Duration) {}
