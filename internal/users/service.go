// Package users implements the user directory: it owns user records,
// credential hashes and verification tokens, and answers lookups for
// the gateway and the other directories.
package users

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/finnh/taskdeck/internal/database/models"
	"github.com/finnh/taskdeck/internal/mailer"
	"github.com/finnh/taskdeck/internal/tasks"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrTokenNotFound      = errors.New("verification token not found")
	ErrTokenExpired       = errors.New("verification token has expired")
	ErrAlreadyVerified    = errors.New("email already verified")
)

const (
	verificationTokenTTL  = 5 * 24 * time.Hour
	passwordResetTokenTTL = time.Hour
)

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
	emails tasks.EmailEnqueuer // nil disables email side effects
}

func NewService(db *gorm.DB, logger *slog.Logger, emails tasks.EmailEnqueuer) *Service {
	return &Service{db: db, logger: logger, emails: emails}
}

type CreateInput struct {
	Email    string
	Name     string
	Password string
}

// Create registers a new user and queues a verification email. The
// unique email index is the guard against duplicate registration.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.User, error) {
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.sendTokenEmail(ctx, &user, models.TokenKindEmailVerification)

	return &user, nil
}

// CreateByInvite provisions an account for an invitation acceptance
// when the invitee email has no user yet. The placeholder password is
// random; the account completes setup through the reset flow. A
// concurrent registration for the same email just resolves to the
// existing row.
func (s *Service) CreateByInvite(ctx context.Context, email, name string) (*models.User, error) {
	if name == "" {
		name = email
	}
	hash, err := HashPassword(randomHex(32))
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.GetByEmail(ctx, email)
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// VerifyCredentials checks an email/password pair. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// TouchLastLogin stamps the last-login time. Invoked fire-and-forget
// from the login path; failures are the caller's to log, not to
// propagate.
func (s *Service) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_login_at": now, "updated_at": now}).Error
}

// CreateVerificationToken issues a fresh token of the given kind,
// replacing any prior one for the same (user, kind) in a single
// transaction.
func (s *Service) CreateVerificationToken(ctx context.Context, user *models.User, kind models.TokenKind) (*models.VerificationToken, error) {
	ttl := verificationTokenTTL
	if kind == models.TokenKindPasswordReset {
		ttl = passwordResetTokenTTL
	}

	record := models.VerificationToken{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     randomHex(32),
		Kind:      kind,
		ExpiresAt: time.Now().Add(ttl),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND kind = ?", user.ID, kind).
			Delete(&models.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SendVerificationEmail issues a verification token for the user and
// queues the email carrying it.
func (s *Service) SendVerificationEmail(ctx context.Context, userID uuid.UUID) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}
	return s.sendTokenEmail(ctx, user, models.TokenKindEmailVerification)
}

// ValidateEmailToken consumes a verification token: marks the user
// verified, deletes the token and queues the welcome email.
func (s *Service) ValidateEmailToken(ctx context.Context, token string) error {
	var record models.VerificationToken
	err := s.db.WithContext(ctx).
		First(&record, "token = ? AND kind = ?", token, models.TokenKindEmailVerification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenNotFound
		}
		return err
	}
	if record.Expired(time.Now()) {
		return ErrTokenExpired
	}

	user, err := s.GetByID(ctx, record.UserID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		// Stale token for an already verified account; just clean up.
		_ = s.db.WithContext(ctx).Delete(&record).Error
		return ErrAlreadyVerified
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("email_verified", true).Error; err != nil {
			return err
		}
		return tx.Delete(&record).Error
	})
	if err != nil {
		return err
	}

	s.enqueueEmail(ctx, tasks.EmailPayload{
		To:       user.Email,
		Template: mailer.TemplateWelcome,
		TemplateData: map[string]string{
			"userName": user.Name,
		},
		JobType: tasks.JobWelcome,
	})
	return nil
}

// ForgotPassword starts the reset flow. A missing account is not an
// error: the caller always reports "if the email exists, a link was
// sent" to avoid account enumeration.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return s.sendTokenEmail(ctx, user, models.TokenKindPasswordReset)
}

// ValidateResetToken checks a password-reset token without consuming
// it.
func (s *Service) ValidateResetToken(ctx context.Context, token string) (*models.User, error) {
	var record models.VerificationToken
	err := s.db.WithContext(ctx).
		First(&record, "token = ? AND kind = ?", token, models.TokenKindPasswordReset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if record.Expired(time.Now()) {
		return nil, ErrTokenExpired
	}
	return s.GetByID(ctx, record.UserID)
}

// ResetPassword consumes a valid reset token and stores the new
// credential hash.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.ValidateResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("password_hash", hash).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND kind = ?", user.ID, models.TokenKindPasswordReset).
			Delete(&models.VerificationToken{}).Error
	})
}

// DeleteAccount removes the user and all owned verification tokens.
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.VerificationToken{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.User{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Service) sendTokenEmail(ctx context.Context, user *models.User, kind models.TokenKind) error {
	record, err := s.CreateVerificationToken(ctx, user, kind)
	if err != nil {
		return err
	}

	template := mailer.TemplateVerification
	jobType := tasks.JobVerification
	if kind == models.TokenKindPasswordReset {
		template = mailer.TemplatePasswordReset
		jobType = tasks.JobPasswordReset
	}

	s.enqueueEmail(ctx, tasks.EmailPayload{
		To:       user.Email,
		Template: template,
		TemplateData: map[string]string{
			"userName": user.Name,
			"token":    record.Token,
		},
		JobType: jobType,
	})
	return nil
}

// enqueueEmail is best-effort: a full queue must not fail the primary
// operation.
func (s *Service) enqueueEmail(ctx context.Context, payload tasks.EmailPayload) {
	if s.emails == nil {
		return
	}
	if err := s.emails.EnqueueEmail(ctx, payload); err != nil {
		s.logger.Error("failed to enqueue email", "job_type", payload.JobType, "to", payload.To, "error", err)
	}
}
