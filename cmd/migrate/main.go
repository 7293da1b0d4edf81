package main

import (
	"os"

	"github.com/joho/godotenv"

	"studytracker/internal/config"
	"studytracker/internal/db"
	"studytracker/internal/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(os.Stderr, cfg.LogLevel)

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal("open database", "err", err)
	}
	defer database.Close()

	applied, err := db.RunMigrations(database, cfg.MigrationsDir)
	if err != nil {
		logger.Fatal("run migrations", "err", err)
	}

	logger.Info("migrations applied successfully", "count", len(applied), "names", applied)
}
