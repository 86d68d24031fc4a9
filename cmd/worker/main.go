package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finnh/taskdeck/internal/mailer"
	"github.com/finnh/taskdeck/internal/tasks"
	"github.com/finnh/taskdeck/pkg/config"
	"github.com/finnh/taskdeck/pkg/queue"
	"github.com/finnh/taskdeck/pkg/util"
	"github.com/hibiken/asynq"
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

	logger.Info("starting taskdeck email worker")

	srv := queue.NewServer(&cfg.Redis, 10)

	m := mailer.New(mailer.NewSMTPSender(cfg.SMTP), cfg.Frontend.URL)
	handler := tasks.NewHandler(m, logger)

	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	inspector := queue.NewInspector(&cfg.Redis)
	defer inspector.Close()
	go reportQueueDepth(inspector, logger)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		srv.Shutdown()
	}()

	logger.Info("worker started, waiting for email jobs...")

	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
		os.Exit(1)
	}

	logger.Info("worker stopped")
}

// reportQueueDepth logs backlog sizes once a minute so a stuck queue
// shows up in the logs before users notice missing email.
func reportQueueDepth(inspector *asynq.Inspector, logger *slog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		for _, name := range []string{"critical", "default", "low"} {
			info, err := inspector.GetQueueInfo(name)
			if err != nil {
				continue // queue may not exist until its first job
			}
			if info.Pending > 0 || info.Retry > 0 {
				logger.Info("queue backlog",
					"queue", name,
					"pending", info.Pending,
					"active", info.Active,
					"retry", info.Retry,
				)
			}
		}
	}
}
