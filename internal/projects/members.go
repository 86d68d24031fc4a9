package projects

import (
	"context"
	"errors"
	"time"

	"github.com/finnh/taskdeck/internal/database/models"
	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListMembers returns a project's roster joined with the directory
// columns the gateway displays.
func (s *Service) ListMembers(ctx context.Context, projectID uuid.UUID) ([]rpc.ProjectMember, error) {
	if _, err := s.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	var rows []struct {
		ID      uuid.UUID
		UserID  uuid.UUID
		Role    models.ProjectRole
		AddedAt time.Time
		Email   string
		Name    string
	}
	err := s.db.WithContext(ctx).
		Table("project_members").
		Select("project_members.id, project_members.user_id, project_members.role, project_members.added_at, users.email, users.name").
		Joins("JOIN users ON users.id = project_members.user_id").
		Where("project_members.project_id = ?", projectID).
		Order("project_members.added_at asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	members := make([]rpc.ProjectMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, rpc.ProjectMember{
			ID:        row.ID,
			ProjectID: projectID,
			UserID:    row.UserID,
			Role:      row.Role,
			AddedAt:   row.AddedAt,
			User:      &rpc.MemberUser{Email: row.Email, Name: row.Name},
		})
	}
	return members, nil
}

// GetMember looks up a membership row by its (project, user) key.
func (s *Service) GetMember(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectMember, error) {
	var member models.ProjectMember
	err := s.db.WithContext(ctx).
		First(&member, "project_id = ? AND user_id = ?", projectID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// AddMember inserts a membership row. The write is optimistic: the
// unique (project, user) index decides races, and a duplicate surfaces
// as ErrMemberExists. Referenced rows are pre-checked so the caller
// gets a specific not-found instead of a bare constraint violation.
func (s *Service) AddMember(ctx context.Context, projectID, userID uuid.UUID, role models.ProjectRole) (*models.ProjectMember, error) {
	if _, err := s.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	var userCount int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).Count(&userCount).Error; err != nil {
		return nil, err
	}
	if userCount == 0 {
		return nil, ErrUserNotFound
	}

	member := models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}
	if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrMemberExists
		}
		return nil, err
	}
	return &member, nil
}

// UpdateMemberRole changes a non-owner member's role. Owner rows are
// excluded in the predicate so ownership can only move through
// Transfer.
func (s *Service) UpdateMemberRole(ctx context.Context, projectID, memberID uuid.UUID, role models.ProjectRole) (*models.ProjectMember, error) {
	result := s.db.WithContext(ctx).Model(&models.ProjectMember{}).
		Where("id = ? AND project_id = ? AND role <> ?", memberID, projectID, models.RoleOwner).
		Update("role", role)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrMemberNotFound
	}

	var member models.ProjectMember
	if err := s.db.WithContext(ctx).First(&member, "id = ?", memberID).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveMember deletes a non-owner member. The owner exclusion lives
// in the predicate for the same reason as UpdateMemberRole.
func (s *Service) RemoveMember(ctx context.Context, projectID, memberID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ? AND role <> ?", memberID, projectID, models.RoleOwner).
		Delete(&models.ProjectMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}
