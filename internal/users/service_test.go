package users_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/finnh/taskdeck/internal/database/models"
	"github.com/finnh/taskdeck/internal/mailer"
	"github.com/finnh/taskdeck/internal/tasks"
	"github.com/finnh/taskdeck/internal/testutil"
	"github.com/finnh/taskdeck/internal/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type captureEnqueuer struct {
	payloads []tasks.EmailPayload
}

func (c *captureEnqueuer) EnqueueEmail(_ context.Context, p tasks.EmailPayload) error {
	c.payloads = append(c.payloads, p)
	return nil
}

func (c *captureEnqueuer) last(t *testing.T) tasks.EmailPayload {
	t.Helper()
	require.NotEmpty(t, c.payloads)
	return c.payloads[len(c.payloads)-1]
}

func newTestService(t *testing.T) (*users.Service, *gorm.DB, *captureEnqueuer) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	emails := &captureEnqueuer{}
	return users.NewService(db, logger, emails), db, emails
}

func TestService_Create(t *testing.T) {
	t.Run("registers user and queues verification email", func(t *testing.T) {
		svc, _, emails := newTestService(t)
		ctx := testutil.TestContext(t)

		user, err := svc.Create(ctx, users.CreateInput{
			Email:    "alice@example.com",
			Name:     "Alice",
			Password: "correct-horse-battery",
		})
		require.NoError(t, err)
		assert.True(t, user.IsActive)
		assert.False(t, user.EmailVerified)
		assert.NotEqual(t, "correct-horse-battery", user.PasswordHash)

		payload := emails.last(t)
		assert.Equal(t, mailer.TemplateVerification, payload.Template)
		assert.Equal(t, tasks.JobVerification, payload.JobType)
		assert.Equal(t, "alice@example.com", payload.To)
		assert.NotEmpty(t, payload.TemplateData["token"])
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		ctx := testutil.TestContext(t)

		_, err := svc.Create(ctx, users.CreateInput{
			Email: "dup@example.com", Name: "First", Password: "password123",
		})
		require.NoError(t, err)

		_, err = svc.Create(ctx, users.CreateInput{
			Email: "dup@example.com", Name: "Second", Password: "password123",
		})
		assert.ErrorIs(t, err, users.ErrUserExists)
	})
}

func TestService_CreateByInvite(t *testing.T) {
	t.Run("provisions an active account with a random credential", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		ctx := testutil.TestContext(t)

		user, err := svc.CreateByInvite(ctx, "invitee@example.com", "")
		require.NoError(t, err)
		assert.True(t, user.IsActive)
		assert.Equal(t, "invitee@example.com", user.Name)
		assert.NotEmpty(t, user.PasswordHash)
	})

	t.Run("existing email resolves to the existing row", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		ctx := testutil.TestContext(t)
		existing := testutil.CreateTestUser(t, db)

		user, err := svc.CreateByInvite(ctx, existing.Email, "Someone Else")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, user.ID)
	})
}

func TestService_VerifyCredentials(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := testutil.TestContext(t)
	user := testutil.CreateTestUser(t, db)

	t.Run("accepts the right password", func(t *testing.T) {
		got, err := svc.VerifyCredentials(ctx, user.Email, "testpassword123")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("rejects the wrong password", func(t *testing.T) {
		_, err := svc.VerifyCredentials(ctx, user.Email, "wrong-password")
		assert.ErrorIs(t, err, users.ErrInvalidCredentials)
	})

	t.Run("unknown email looks like a wrong password", func(t *testing.T) {
		_, err := svc.VerifyCredentials(ctx, "ghost@example.com", "testpassword123")
		assert.ErrorIs(t, err, users.ErrInvalidCredentials)
	})

	t.Run("inactive account is refused", func(t *testing.T) {
		require.NoError(t, db.Model(user).Update("is_active", false).Error)

		_, err := svc.VerifyCredentials(ctx, user.Email, "testpassword123")
		assert.ErrorIs(t, err, users.ErrInactiveUser)
	})
}

func TestService_TouchLastLogin(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := testutil.TestContext(t)
	user := testutil.CreateTestUser(t, db)
	require.Nil(t, user.LastLoginAt)

	require.NoError(t, svc.TouchLastLogin(ctx, user.ID))

	var after models.User
	require.NoError(t, db.First(&after, "id = ?", user.ID).Error)
	require.NotNil(t, after.LastLoginAt)
	assert.WithinDuration(t, time.Now(), *after.LastLoginAt, time.Minute)
}

func TestService_CreateVerificationToken(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := testutil.TestContext(t)
	user := testutil.CreateTestUser(t, db)

	t.Run("one active token per user and kind", func(t *testing.T) {
		first, err := svc.CreateVerificationToken(ctx, user, models.TokenKindEmailVerification)
		require.NoError(t, err)

		second, err := svc.CreateVerificationToken(ctx, user, models.TokenKindEmailVerification)
		require.NoError(t, err)
		assert.NotEqual(t, first.Token, second.Token)

		var count int64
		db.Model(&models.VerificationToken{}).
			Where("user_id = ? AND kind = ?", user.ID, models.TokenKindEmailVerification).
			Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("reset tokens expire sooner than verification tokens", func(t *testing.T) {
		verify, err := svc.CreateVerificationToken(ctx, user, models.TokenKindEmailVerification)
		require.NoError(t, err)
		reset, err := svc.CreateVerificationToken(ctx, user, models.TokenKindPasswordReset)
		require.NoError(t, err)

		assert.True(t, reset.ExpiresAt.Before(verify.ExpiresAt))
	})
}

func TestService_ValidateEmailToken(t *testing.T) {
	t.Run("marks the user verified and queues the welcome email", func(t *testing.T) {
		svc, db, emails := newTestService(t)
		ctx := testutil.TestContext(t)
		user := testutil.CreateTestUser(t, db)

		record, err := svc.CreateVerificationToken(ctx, user, models.TokenKindEmailVerification)
		require.NoError(t, err)

		require.NoError(t, svc.ValidateEmailToken(ctx, record.Token))

		var after models.User
		require.NoError(t, db.First(&after, "id = ?", user.ID).Error)
		assert.True(t, after.EmailVerified)

		payload := emails.last(t)
		assert.Equal(t, mailer.TemplateWelcome, payload.Template)
		assert.Equal(t, tasks.JobWelcome, payload.JobType)

		// The token is single use.
		err = svc.ValidateEmailToken(ctx, record.Token)
		assert.ErrorIs(t, err, users.ErrTokenNotFound)
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		err := svc.ValidateEmailToken(testutil.TestContext(t), "nope")
		assert.ErrorIs(t, err, users.ErrTokenNotFound)
	})

	t.Run("expired token", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		ctx := testutil.TestContext(t)
		user := testutil.CreateTestUser(t, db)

		record, err := svc.CreateVerificationToken(ctx, user, models.TokenKindEmailVerification)
		require.NoError(t, err)
		require.NoError(t, db.Model(record).
			Update("expires_at", time.Now().Add(-time.Minute)).Error)

		err = svc.ValidateEmailToken(ctx, record.Token)
		assert.ErrorIs(t, err, users.ErrTokenExpired)
	})

	t.Run("already verified account cleans up the stale token", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		ctx := testutil.TestContext(t)
		user := testutil.CreateTestUser(t, db)

		record, err := svc.CreateVerificationToken(ctx, user, models.TokenKindEmailVerification)
		require.NoError(t, err)
		require.NoError(t, db.Model(user).Update("email_verified", true).Error)

		err = svc.ValidateEmailToken(ctx, record.Token)
		assert.ErrorIs(t, err, users.ErrAlreadyVerified)

		var count int64
		db.Model(&models.VerificationToken{}).Where("token = ?", record.Token).Count(&count)
		assert.Zero(t, count)
	})
}

func TestService_SendVerificationEmail(t *testing.T) {
	svc, db, emails := newTestService(t)
	ctx := testutil.TestContext(t)
	user := testutil.CreateTestUser(t, db)

	t.Run("queues a fresh verification email", func(t *testing.T) {
		require.NoError(t, svc.SendVerificationEmail(ctx, user.ID))
		assert.Equal(t, tasks.JobVerification, emails.last(t).JobType)
	})

	t.Run("already verified", func(t *testing.T) {
		require.NoError(t, db.Model(user).Update("email_verified", true).Error)
		err := svc.SendVerificationEmail(ctx, user.ID)
		assert.ErrorIs(t, err, users.ErrAlreadyVerified)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := svc.SendVerificationEmail(ctx, uuid.New())
		assert.ErrorIs(t, err, users.ErrNotFound)
	})
}

func TestService_PasswordResetFlow(t *testing.T) {
	t.Run("forgot password queues a reset email", func(t *testing.T) {
		svc, db, emails := newTestService(t)
		ctx := testutil.TestContext(t)
		user := testutil.CreateTestUser(t, db)

		require.NoError(t, svc.ForgotPassword(ctx, user.Email))

		payload := emails.last(t)
		assert.Equal(t, mailer.TemplatePasswordReset, payload.Template)
		assert.Equal(t, tasks.JobPasswordReset, payload.JobType)
	})

	t.Run("unknown email is silently accepted", func(t *testing.T) {
		svc, _, emails := newTestService(t)
		require.NoError(t, svc.ForgotPassword(testutil.TestContext(t), "ghost@example.com"))
		assert.Empty(t, emails.payloads)
	})

	t.Run("reset consumes the token and changes the credential", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		ctx := testutil.TestContext(t)
		user := testutil.CreateTestUser(t, db)

		record, err := svc.CreateVerificationToken(ctx, user, models.TokenKindPasswordReset)
		require.NoError(t, err)

		got, err := svc.ValidateResetToken(ctx, record.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		require.NoError(t, svc.ResetPassword(ctx, record.Token, "brand-new-password"))

		_, err = svc.VerifyCredentials(ctx, user.Email, "brand-new-password")
		require.NoError(t, err)
		_, err = svc.VerifyCredentials(ctx, user.Email, "testpassword123")
		assert.ErrorIs(t, err, users.ErrInvalidCredentials)

		err = svc.ResetPassword(ctx, record.Token, "another-one")
		assert.ErrorIs(t, err, users.ErrTokenNotFound)
	})

	t.Run("expired reset token is rejected", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		ctx := testutil.TestContext(t)
		user := testutil.CreateTestUser(t, db)

		record, err := svc.CreateVerificationToken(ctx, user, models.TokenKindPasswordReset)
		require.NoError(t, err)
		require.NoError(t, db.Model(record).
			Update("expires_at", time.Now().Add(-time.Minute)).Error)

		_, err = svc.ValidateResetToken(ctx, record.Token)
		assert.ErrorIs(t, err, users.ErrTokenExpired)
	})
}

func TestService_DeleteAccount(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := testutil.TestContext(t)
	user := testutil.CreateTestUser(t, db)

	_, err := svc.CreateVerificationToken(ctx, user, models.TokenKindEmailVerification)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, user.ID))

	_, err = svc.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, users.ErrNotFound)

	var tokenCount int64
	db.Model(&models.VerificationToken{}).Where("user_id = ?", user.ID).Count(&tokenCount)
	assert.Zero(t, tokenCount)

	assert.ErrorIs(t, svc.DeleteAccount(ctx, user.ID), users.ErrNotFound)
}
