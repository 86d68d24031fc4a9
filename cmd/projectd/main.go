package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/finnh/taskdeck/internal/database"
	"github.com/finnh/taskdeck/internal/projects"
	"github.com/finnh/taskdeck/internal/tasks"
	"github.com/finnh/taskdeck/pkg/bus"
	"github.com/finnh/taskdeck/pkg/config"
	"github.com/finnh/taskdeck/pkg/queue"
	"github.com/finnh/taskdeck/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting taskdeck project directory", "env", cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	b, err := bus.Connect(cfg.NATS.URL)
	if err != nil {
		logger.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	asynqClient := queue.NewClient(&cfg.Redis)
	defer asynqClient.Close()

	svc := projects.NewService(db, logger,
		tasks.NewEnqueuer(asynqClient),
		projects.NewBusUserDirectory(b),
	)

	if err := projects.RegisterHandlers(b, svc, logger); err != nil {
		logger.Error("failed to register handlers", "error", err)
		os.Exit(1)
	}

	logger.Info("project directory ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down project directory...")

	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("project directory stopped")
}
