// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/mafiaserver/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold: time.Second,   // 慢SQL阈值
			LogLevel:      logger.Silent, // 日志级别
			Colorful:      false,         // 禁用彩色打印
		},
	)

	db, err := gorm.Open(postgres.Open(dsn(host, port, user, password, dbname)), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormGameRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveGameRecord 保存游戏记录
func (p *GormPostgreSQL) SaveGameRecord(record models.GameRecord) error {
	return p.db.Create(models.NewGormGameRecord(record)).Error
}

// RecentGames returns the latest finished games, newest first.
func (p *GormPostgreSQL) RecentGames(limit int) ([]models.GameRecord, error) {
	var rows []models.GormGameRecord
	if err := p.db.Order("ended_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]models.GameRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].ToRecord())
	}
	return records, nil
}

// GameByRoom loads the latest archived game of a room.
func (p *GormPostgreSQL) GameByRoom(roomID string) (*models.GameRecord, error) {
	var row models.GormGameRecord
	if err := p.db.Where("room_id = ?", roomID).Order("ended_at DESC").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	record := row.ToRecord()
	return &record, nil
}

func (p *GormPostgreSQL) FactionWins() (map[string]int64, error) {
	var rows []struct {
		Winner string
		Total  int64
	}
	err := p.db.Model(&models.GormGameRecord{}).
		Select("winner, COUNT(*) AS total").
		Group("winner").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	wins := make(map[string]int64, len(rows))
	for _, r := range rows {
		wins[r.Winner] = r.Total
	}
	return wins, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
