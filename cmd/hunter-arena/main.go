package main

import (
	"os"
	"time"

	"github.com/soloran/hunter-arena/internal/config"
	"github.com/soloran/hunter-arena/internal/constants"
	"github.com/soloran/hunter-arena/internal/logging"
	"github.com/soloran/hunter-arena/internal/roster"
	"github.com/soloran/hunter-arena/internal/service"
	"github.com/soloran/hunter-arena/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	// Local development reads overrides from .env; missing file is fine.
	_ = godotenv.Load()

	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = "./arena_config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Fatal("Missing or invalid arena configuration", err, logging.Fields{
			"config_path": configPath,
			"hint":        "create an arena_config.json with 'hero_list', 'skill_list', 'item_list', 'boss_list' and 'gate_list' arrays plus optional server.address",
		})
	}

	dbPath := os.Getenv(constants.EnvDatabasePath)
	if dbPath == "" {
		dbPath = "./data/arena.db"
	}
	db, err := storage.OpenAndMigrate(dbPath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	repo := storage.NewSQLiteRepository(db)

	ros := roster.New(cfg, repo)
	svc := service.New(repo, ros, ros, ros, ros, service.Timeouts{})

	// Deadline scanner: the drivers arm their own timers, this keeps
	// sessions moving even if a driver timer is delayed and sweeps retired
	// sessions.
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			svc.Tick(time.Now())
		}
	}()

	router := newRouter(svc, repo)

	addr := cfg.ServerAddress
	if env := os.Getenv(constants.EnvServerAddress); env != "" {
		addr = env
	}
	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}
