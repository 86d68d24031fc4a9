package tasks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueForJobType(t *testing.T) {
	assert.Equal(t, "critical", QueueForJobType(JobVerification))
	assert.Equal(t, "critical", QueueForJobType(JobPasswordReset))
	assert.Equal(t, "default", QueueForJobType(JobWelcome))
	assert.Equal(t, "low", QueueForJobType(JobNotification))
	assert.Equal(t, "low", QueueForJobType(JobProjectInvite))
	assert.Equal(t, "low", QueueForJobType("something-else"))
}

func TestNewEmailTask(t *testing.T) {
	task, err := NewEmailTask(EmailPayload{
		To:       "test@example.com",
		Template: "verification",
		JobType:  JobVerification,
	})
	require.NoError(t, err)
	assert.Equal(t, TypeEmailSend, task.Type())

	var payload EmailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "test@example.com", payload.To)
	assert.Equal(t, JobVerification, payload.JobType)
}
