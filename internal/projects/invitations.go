package projects

import (
	"context"
	"errors"
	"time"

	"github.com/finnh/taskdeck/internal/database/models"
	"github.com/finnh/taskdeck/internal/mailer"
	"github.com/finnh/taskdeck/internal/tasks"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationExpired    = errors.New("invitation has expired")
	ErrInvitationExists     = errors.New("a pending invitation already exists for this email")
	ErrInvitationNotPending = errors.New("invitation is not pending")
	ErrProvisionFailed      = errors.New("could not provision account for invitee")
)

// SendInvitation issues a pending invitation for an email address.
// Expired leftovers for the same (project, email) are purged first so
// a re-send after expiry works; a live pending row surfaces through
// the unique index as ErrInvitationExists.
func (s *Service) SendInvitation(ctx context.Context, projectID uuid.UUID, email string, role models.ProjectRole, invitedBy uuid.UUID) (*models.ProjectInvitation, error) {
	project, err := s.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	// Someone who already holds a seat has nothing to accept.
	var memberCount int64
	err = s.db.WithContext(ctx).
		Table("project_members").
		Joins("JOIN users ON users.id = project_members.user_id").
		Where("project_members.project_id = ? AND users.email = ?", projectID, email).
		Count(&memberCount).Error
	if err != nil {
		return nil, err
	}
	if memberCount > 0 {
		return nil, ErrMemberExists
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).
		Where("project_id = ? AND email = ? AND expires_at < ?", projectID, email, now).
		Delete(&models.ProjectInvitation{}).Error; err != nil {
		return nil, err
	}

	invitation := models.ProjectInvitation{
		ProjectID: projectID,
		Email:     email,
		Role:      role,
		InvitedBy: invitedBy,
		Token:     randomHex(32),
		Status:    models.InvitationPending,
		ExpiresAt: now.Add(invitationTTL),
	}
	if err := s.db.WithContext(ctx).Create(&invitation).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrInvitationExists
		}
		return nil, err
	}

	inviterName := ""
	var inviter models.User
	if err := s.db.WithContext(ctx).First(&inviter, "id = ?", invitedBy).Error; err == nil {
		inviterName = inviter.Name
	}

	s.enqueueEmail(ctx, tasks.EmailPayload{
		To:       email,
		Template: mailer.TemplateProjectInvite,
		TemplateData: map[string]string{
			"projectName": project.Name,
			"inviterName": inviterName,
			"role":        string(role),
			"token":       invitation.Token,
		},
		JobType: tasks.JobProjectInvite,
	})

	return &invitation, nil
}

// GetInvitationByToken resolves an invitation for display on the
// accept page. Expired and non-pending invitations are reported as
// such rather than hidden.
func (s *Service) GetInvitationByToken(ctx context.Context, token string) (*models.ProjectInvitation, error) {
	var invitation models.ProjectInvitation
	err := s.db.WithContext(ctx).First(&invitation, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	if invitation.Status != models.InvitationPending {
		return &invitation, ErrInvitationNotPending
	}
	if invitation.Expired(time.Now()) {
		return &invitation, ErrInvitationExpired
	}
	return &invitation, nil
}

// AcceptInvitation turns a pending invitation into a membership row.
// An invitee without an account gets one provisioned through the user
// directory first. The member insert and the invitation delete commit
// together; if the seat was taken in the meantime the invitation is
// consumed anyway and the caller sees ErrMemberExists.
func (s *Service) AcceptInvitation(ctx context.Context, token string) (*models.ProjectMember, error) {
	invitation, err := s.GetInvitationByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvitationExpired) {
			_ = s.db.WithContext(ctx).Model(invitation).
				Update("status", models.InvitationExpired).Error
		}
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "email = ?", invitation.Email).Error
	switch {
	case err == nil:
		// existing account
	case errors.Is(err, gorm.ErrRecordNotFound):
		if s.users == nil {
			return nil, ErrProvisionFailed
		}
		provisioned, perr := s.users.CreateByInvite(ctx, invitation.Email, "")
		if perr != nil || provisioned == nil {
			s.logger.Error("invite provisioning failed", "email", invitation.Email, "error", perr)
			return nil, ErrProvisionFailed
		}
		user.ID = provisioned.ID
	default:
		return nil, err
	}

	member := models.ProjectMember{
		ProjectID: invitation.ProjectID,
		UserID:    user.ID,
		Role:      invitation.Role,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ProjectInvitation{}, "id = ?", invitation.ID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// The seat exists already; the invitation has served its
			// purpose and must not linger as pending.
			_ = s.db.WithContext(ctx).
				Delete(&models.ProjectInvitation{}, "id = ?", invitation.ID).Error
			return nil, ErrMemberExists
		}
		return nil, err
	}
	return &member, nil
}

// DeclineInvitation marks a pending invitation declined. The row is
// kept for the project owner to see.
func (s *Service) DeclineInvitation(ctx context.Context, token string) (*models.ProjectInvitation, error) {
	invitation, err := s.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(invitation).
		Update("status", models.InvitationDeclined).Error; err != nil {
		return nil, err
	}
	invitation.Status = models.InvitationDeclined
	return invitation, nil
}

// enqueueEmail is best-effort, mirroring the user directory: a full
// queue must not fail the primary operation.
func (s *Service) enqueueEmail(ctx context.Context, payload tasks.EmailPayload) {
	if s.emails == nil {
		return
	}
	if err := s.emails.EnqueueEmail(ctx, payload); err != nil {
		s.logger.Error("failed to enqueue email", "job_type", payload.JobType, "to", payload.To, "error", err)
	}
}
