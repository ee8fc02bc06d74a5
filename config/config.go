package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress string `mapstructure:"http_address"`
	Port        int    `mapstructure:"port"`
	RPCAddress  string `mapstructure:"rpc_address"`
}

// ListenAddress returns the websocket listen address. A configured port wins.
func (c ServerConfig) ListenAddress() string {
	if c.Port > 0 {
		return fmt.Sprintf(":%d", c.Port)
	}
	return c.HTTPAddress
}

type GameConfig struct {
	DayDuration   time.Duration `mapstructure:"day_duration"`
	NightDuration time.Duration `mapstructure:"night_duration"`
	EndedGrace    time.Duration `mapstructure:"ended_grace"`
	RolePool      []string      `mapstructure:"role_pool"`
	TimerWorkers  int           `mapstructure:"timer_workers"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":3000")
	v.SetDefault("server.port", 0)
	v.SetDefault("server.rpc_address", ":3001")

	v.SetDefault("game.day_duration", 30*time.Second)
	v.SetDefault("game.night_duration", 30*time.Second)
	v.SetDefault("game.ended_grace", time.Minute)
	v.SetDefault("game.role_pool", []string{"Mafia", "Detective", "Doctor", "Townsperson", "Townsperson", "Townsperson"})
	v.SetDefault("game.timer_workers", 64)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 7)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "gorm")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
}

// LoadConfig reads config.yaml from path when present. Environment variables
// override file values; PORT selects the listening port.
func LoadConfig(path string) (config *Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	v.AutomaticEnv()
	if err = v.BindEnv("server.port", "PORT"); err != nil {
		return nil, err
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return config, nil
}
