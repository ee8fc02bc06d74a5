// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormGameRecord 游戏记录模型
type GormGameRecord struct {
	gorm.Model
	RoomID    string       `gorm:"index;not null"`
	Winner    string       `gorm:"index;not null"`
	Rounds    int          `gorm:"default:0"`
	Players   []PlayerInfo `gorm:"serializer:json;type:jsonb;not null"`
	StartedAt time.Time
	EndedAt   time.Time
}

// TableName keeps the table shared with the plain SQL archive.
func (GormGameRecord) TableName() string {
	return "game_records"
}

// ToRecord converts the row back into the wire record.
func (m *GormGameRecord) ToRecord() GameRecord {
	return GameRecord{
		RoomID:    m.RoomID,
		Winner:    m.Winner,
		Rounds:    m.Rounds,
		Players:   m.Players,
		StartedAt: m.StartedAt,
		EndedAt:   m.EndedAt,
	}
}

// NewGormGameRecord builds a row from a finished game.
func NewGormGameRecord(r GameRecord) *GormGameRecord {
	return &GormGameRecord{
		RoomID:    r.RoomID,
		Winner:    r.Winner,
		Rounds:    r.Rounds,
		Players:   r.Players,
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
	}
}
