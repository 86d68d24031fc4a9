package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// EmailEnqueuer is the only contract the directories have with email
// dispatch: enqueue succeeded or failed. Delivery itself happens in
// the worker, at-least-once, outside the request path.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailPayload) error
}

// Enqueuer hands email jobs to asynq with a priority queue derived
// from the job type and the worker's retry policy.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueEmail(ctx context.Context, payload EmailPayload) error {
	task, err := NewEmailTask(payload)
	if err != nil {
		return fmt.Errorf("building email task: %w", err)
	}

	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueForJobType(payload.JobType)),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return fmt.Errorf("enqueueing %s email: %w", payload.JobType, err)
	}
	return nil
}

var _ EmailEnqueuer = (*Enqueuer)(nil)
