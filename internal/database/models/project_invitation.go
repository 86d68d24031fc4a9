package models

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// ProjectInvitation is a time-boxed, token-authenticated offer of
// membership. At most one non-expired row exists per (project, email);
// expired rows are purged lazily on the next send attempt. Accepting
// deletes the row, declining keeps it with status declined.
type ProjectInvitation struct {
	Base
	ProjectID uuid.UUID        `gorm:"type:uuid;uniqueIndex:idx_invitation_project_email;not null" json:"project_id"`
	Email     string           `gorm:"uniqueIndex:idx_invitation_project_email;not null" json:"email"`
	Role      ProjectRole      `gorm:"not null" json:"role"`
	InvitedBy uuid.UUID        `gorm:"type:uuid;not null" json:"invited_by"`
	Token     string           `gorm:"uniqueIndex;not null" json:"-"`
	Status    InvitationStatus `gorm:"not null;default:'pending'" json:"status"`
	ExpiresAt time.Time        `gorm:"not null" json:"expires_at"`
}

func (ProjectInvitation) TableName() string {
	return "project_invitations"
}

func (i *ProjectInvitation) Expired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}
