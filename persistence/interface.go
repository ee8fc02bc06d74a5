// persistence/interface.go
package persistence

import (
	"fmt"
	"strings"

	"github.com/wfunc/mafiaserver/config"
	"github.com/wfunc/mafiaserver/models"
)

// Database 对局归档接口
type Database interface {
	SaveGameRecord(record models.GameRecord) error
	RecentGames(limit int) ([]models.GameRecord, error)
	GameByRoom(roomID string) (*models.GameRecord, error)
	// FactionWins counts finished games per winning faction.
	FactionWins() (map[string]int64, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
	ErrUnknownDriver  = fmt.Errorf("unknown database driver")
)

const (
	DriverGorm     = "gorm"
	DriverPostgres = "postgres"
)

// Open connects to the configured archive. It returns nil, nil when the
// archive is disabled.
func Open(cfg config.DatabaseConfig) (Database, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	pg := cfg.Postgres
	switch strings.ToLower(cfg.Driver) {
	case DriverGorm, "":
		db, err := NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		if err != nil {
			return nil, err
		}
		return db, nil
	case DriverPostgres:
		db, err := NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func dsn(host string, port int, user, password, dbname string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}
