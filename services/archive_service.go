// services/archive_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/wfunc/mafiaserver/game"
	"github.com/wfunc/mafiaserver/models"
	"github.com/wfunc/mafiaserver/persistence"
)

// DefaultRecentLimit caps RecentGames when the caller asks for nothing or too much.
const DefaultRecentLimit = 20

var ErrArchiveDisabled = errors.New("game archive is disabled")

// ArchiveService 对局归档与统计
type ArchiveService struct {
	db persistence.Database
}

// NewArchiveService wraps db. A nil db gives a service that refuses every call.
func NewArchiveService(db persistence.Database) *ArchiveService {
	return &ArchiveService{db: db}
}

// ArchiveGame stores a finished game.
func (s *ArchiveService) ArchiveGame(record models.GameRecord) error {
	if s.db == nil {
		return ErrArchiveDisabled
	}
	if record.RoomID == "" {
		return fmt.Errorf("archive game: empty room id")
	}
	if err := s.db.SaveGameRecord(record); err != nil {
		return fmt.Errorf("archive game %s: %w", record.RoomID, err)
	}
	return nil
}

// FactionStats 各阵营胜场, 两个阵营总是出现在结果里
func (s *ArchiveService) FactionStats() (map[string]int64, error) {
	if s.db == nil {
		return nil, ErrArchiveDisabled
	}
	wins, err := s.db.FactionWins()
	if err != nil {
		return nil, err
	}
	stats := map[string]int64{
		game.FactionTown.String():  0,
		game.FactionMafia.String(): 0,
	}
	for winner, total := range wins {
		stats[winner] += total
	}
	return stats, nil
}

func (s *ArchiveService) RecentGames(limit int) ([]models.GameRecord, error) {
	if s.db == nil {
		return nil, ErrArchiveDisabled
	}
	if limit <= 0 || limit > DefaultRecentLimit {
		limit = DefaultRecentLimit
	}
	return s.db.RecentGames(limit)
}

func (s *ArchiveService) LastGame(roomID string) (*models.GameRecord, error) {
	if s.db == nil {
		return nil, ErrArchiveDisabled
	}
	return s.db.GameByRoom(roomID)
}
