// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/mafiaserver/models"
)

const queryTimeout = 5 * time.Second

// PostgreSQL 数据库实现, 表结构与 GORM 版本一致
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", dsn(host, port, user, password, dbname))
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            room_id TEXT NOT NULL,
            winner TEXT NOT NULL,
            rounds BIGINT DEFAULT 0,
            players JSONB NOT NULL,
            started_at TIMESTAMPTZ,
            ended_at TIMESTAMPTZ
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_game_records_room_id ON game_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_game_records_winner ON game_records(winner);
        CREATE INDEX IF NOT EXISTS idx_game_records_deleted_at ON game_records(deleted_at);
    `)
	return err
}

// SaveGameRecord 保存游戏记录
func (p *PostgreSQL) SaveGameRecord(record models.GameRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	query := `
        INSERT INTO game_records (room_id, winner, rounds, players, started_at, ended_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err = p.db.ExecContext(ctx, query,
		record.RoomID, record.Winner, record.Rounds, players, record.StartedAt, record.EndedAt)
	return err
}

func (p *PostgreSQL) RecentGames(limit int) ([]models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
        SELECT room_id, winner, rounds, players, started_at, ended_at
        FROM game_records
        WHERE deleted_at IS NULL
        ORDER BY ended_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		var (
			r       models.GameRecord
			players []byte
		)
		if err := rows.Scan(&r.RoomID, &r.Winner, &r.Rounds, &players, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(players, &r.Players); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (p *PostgreSQL) GameByRoom(roomID string) (*models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var (
		r       models.GameRecord
		players []byte
	)
	err := p.db.QueryRowContext(ctx, `
        SELECT room_id, winner, rounds, players, started_at, ended_at
        FROM game_records
        WHERE room_id = $1 AND deleted_at IS NULL
        ORDER BY ended_at DESC
        LIMIT 1
    `, roomID).Scan(&r.RoomID, &r.Winner, &r.Rounds, &players, &r.StartedAt, &r.EndedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(players, &r.Players); err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *PostgreSQL) FactionWins() (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx,
		`SELECT winner, COUNT(*) FROM game_records WHERE deleted_at IS NULL GROUP BY winner`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wins := make(map[string]int64)
	for rows.Next() {
		var (
			winner string
			total  int64
		)
		if err := rows.Scan(&winner, &total); err != nil {
			return nil, err
		}
		wins[winner] = total
	}
	return wins, rows.Err()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
