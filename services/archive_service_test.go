package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/mafiaserver/models"
	"github.com/wfunc/mafiaserver/persistence"
)

// memoryDB is an in-memory persistence.Database.
type memoryDB struct {
	records []models.GameRecord
	failErr error
	limit   int
}

func (m *memoryDB) SaveGameRecord(record models.GameRecord) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.records = append(m.records, record)
	return nil
}

func (m *memoryDB) RecentGames(limit int) ([]models.GameRecord, error) {
	m.limit = limit
	if limit > len(m.records) {
		limit = len(m.records)
	}
	return m.records[:limit], nil
}

func (m *memoryDB) GameByRoom(roomID string) (*models.GameRecord, error) {
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].RoomID == roomID {
			r := m.records[i]
			return &r, nil
		}
	}
	return nil, persistence.ErrRecordNotFound
}

func (m *memoryDB) FactionWins() (map[string]int64, error) {
	wins := make(map[string]int64)
	for _, r := range m.records {
		wins[r.Winner]++
	}
	return wins, nil
}

func (m *memoryDB) Close() error { return nil }

func TestArchiveService_ArchiveAndStats(t *testing.T) {
	db := &memoryDB{}
	s := NewArchiveService(db)

	require.NoError(t, s.ArchiveGame(models.GameRecord{RoomID: "r1", Winner: "Town"}))
	require.NoError(t, s.ArchiveGame(models.GameRecord{RoomID: "r2", Winner: "Town"}))

	stats, err := s.FactionStats()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Town": 2, "Mafia": 0}, stats)

	last, err := s.LastGame("r2")
	require.NoError(t, err)
	assert.Equal(t, "Town", last.Winner)

	_, err = s.LastGame("nope")
	assert.ErrorIs(t, err, persistence.ErrRecordNotFound)
}

func TestArchiveService_RecentGamesLimit(t *testing.T) {
	db := &memoryDB{}
	s := NewArchiveService(db)

	_, err := s.RecentGames(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultRecentLimit, db.limit)

	_, err = s.RecentGames(5)
	require.NoError(t, err)
	assert.Equal(t, 5, db.limit)
}

func TestArchiveService_Errors(t *testing.T) {
	boom := errors.New("connection reset")
	s := NewArchiveService(&memoryDB{failErr: boom})

	err := s.ArchiveGame(models.GameRecord{RoomID: "r1", Winner: "Mafia"})
	assert.ErrorIs(t, err, boom)
	assert.Error(t, s.ArchiveGame(models.GameRecord{}))

	disabled := NewArchiveService(nil)
	assert.ErrorIs(t, disabled.ArchiveGame(models.GameRecord{RoomID: "r1"}), ErrArchiveDisabled)
	_, err = disabled.FactionStats()
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}
