package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/finnh/taskdeck/internal/token"
	"github.com/finnh/taskdeck/pkg/bus"
	"github.com/finnh/taskdeck/pkg/config"
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

	logger.Info("starting taskdeck token service", "env", cfg.Server.Env)

	b, err := bus.Connect(cfg.NATS.URL)
	if err != nil {
		logger.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	svc := token.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())

	if err := token.RegisterHandlers(b, svc, logger); err != nil {
		logger.Error("failed to register handlers", "error", err)
		os.Exit(1)
	}

	logger.Info("token service ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("token service stopped")
}
