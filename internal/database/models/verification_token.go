package models

import (
	"time"

	"github.com/google/uuid"
)

type TokenKind string

const (
	TokenKindEmailVerification TokenKind = "email_verification"
	TokenKindPasswordReset     TokenKind = "password_reset"
)

// VerificationToken backs the email-verification and password-reset
// flows. Only one active token per (user, kind) exists: issuing a new
// one deletes the prior row.
type VerificationToken struct {
	Base
	UserID    uuid.UUID `gorm:"type:uuid;index:idx_verification_user_kind;not null" json:"user_id"`
	Email     string    `gorm:"not null" json:"email"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	Kind      TokenKind `gorm:"index:idx_verification_user_kind;not null" json:"kind"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

func (VerificationToken) TableName() string {
	return "verification_tokens"
}

func (t *VerificationToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
