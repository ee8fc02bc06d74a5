package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wfunc/mafiaserver/config"
	"github.com/wfunc/mafiaserver/logger"
	"github.com/wfunc/mafiaserver/persistence"
	"github.com/wfunc/mafiaserver/server"
	"github.com/wfunc/mafiaserver/timer"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(logger.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize Database
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	if db != nil {
		defer db.Close()
		logger.Log.Info("Database connection successful.")
	} else {
		logger.Log.Info("Database disabled, finished games are not archived.")
	}

	timers, err := timer.NewTimerManager(cfg.Game.TimerWorkers)
	if err != nil {
		logger.Log.Fatalf("Failed to start timers: %v", err)
	}
	defer timers.Stop()

	// Initialize Game Server
	gameServer, err := server.NewGameServer(cfg, timers, db)
	if err != nil {
		logger.Log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start Server
	if err := gameServer.Start(ctx); err != nil {
		logger.Log.Errorf("Server stopped: %v", err)
	}
	logger.Log.Info("Server shut down.")
}
