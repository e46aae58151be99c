package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/noah-isme/tasktrack-api/pkg/config"
	"github.com/noah-isme/tasktrack-api/pkg/database"
	"github.com/noah-isme/tasktrack-api/pkg/logger"
)

func main() {
	command := flag.String("command", "up", "migration command: up, down or status")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	dbCfg := cfg.Database
	dbCfg.AutoMigrate = false
	db, err := database.NewPostgres(context.Background(), dbCfg)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	switch *command {
	case "up":
		err = database.Migrate(db)
	case "down":
		err = database.Rollback(db)
	case "status":
		err = database.MigrationStatus(db)
	default:
		logr.Fatal("unknown migration command", zap.String("command", *command))
	}
	if err != nil {
		logr.Fatal("migration failed", zap.String("command", *command), zap.Error(err))
	}
	logr.Info("migration finished", zap.String("command", *command))
}
