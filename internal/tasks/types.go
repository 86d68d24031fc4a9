package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeEmailSend = "email:send"
)

// Email job types, used for priority ordering: verification and
// password-reset beat welcome, which beats notifications and invites.
const (
	JobVerification  = "verification"
	JobPasswordReset = "password-reset"
	JobWelcome       = "welcome"
	JobNotification  = "notification"
	JobProjectInvite = "project-invite"
)

// EmailPayload describes a single email job. Either Template (plus
// TemplateData) or the raw Subject/Text/HTML fields are set.
type EmailPayload struct {
	To           string            `json:"to"`
	Subject      string            `json:"subject,omitempty"`
	Text         string            `json:"text,omitempty"`
	HTML         string            `json:"html,omitempty"`
	Template     string            `json:"template,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	JobType      string            `json:"job_type"`
}

func NewEmailTask(payload EmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailSend, data), nil
}

// QueueForJobType maps a job type to one of the worker's weighted
// queues.
func QueueForJobType(jobType string) string {
	switch jobType {
	case JobVerification, JobPasswordReset:
		return "critical"
	case JobWelcome:
		return "default"
	default:
		return "low"
	}
}
