package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/finnh/taskdeck/internal/mailer"
	"github.com/hibiken/asynq"
)

type Handler struct {
	mailer *mailer.Mailer
	logger *slog.Logger
}

func NewHandler(m *mailer.Mailer, logger *slog.Logger) *Handler {
	return &Handler{mailer: m, logger: logger}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeEmailSend, h.HandleEmailSend)
}

// HandleEmailSend renders (when templated) and delivers one email.
// Returning an error hands the job back to asynq for a retried,
// backed-off attempt; delivery is therefore at-least-once.
func (h *Handler) HandleEmailSend(ctx context.Context, t *asynq.Task) error {
	var payload EmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("processing email job",
		"job_type", payload.JobType,
		"to", payload.To,
	)

	var err error
	if payload.Template != "" {
		err = h.mailer.SendTemplate(ctx, payload.To, payload.Template, payload.TemplateData)
	} else {
		err = h.mailer.SendRaw(ctx, mailer.Message{
			To:      payload.To,
			Subject: payload.Subject,
			Text:    payload.Text,
			HTML:    payload.HTML,
		})
	}
	if err != nil {
		h.logger.Error("email send failed",
			"job_type", payload.JobType,
			"to", payload.To,
			"error", err,
		)
		return err
	}

	h.logger.Info("email sent", "job_type", payload.JobType, "to", payload.To)
	return nil
}
