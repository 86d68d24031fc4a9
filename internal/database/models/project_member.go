package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRole string

const (
	RoleOwner  ProjectRole = "owner"
	RoleAdmin  ProjectRole = "admin"
	RoleMember ProjectRole = "member"
	RoleViewer ProjectRole = "viewer"
)

// ValidRole reports whether r is one of the four membership roles.
func ValidRole(r ProjectRole) bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// ProjectMember links a user to a project at a role. The unique
// (project, user) index is the concurrency guard for racing adds.
type ProjectMember struct {
	ID        uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	ProjectID uuid.UUID   `gorm:"type:uuid;uniqueIndex:idx_member_project_user;not null" json:"project_id"`
	UserID    uuid.UUID   `gorm:"type:uuid;uniqueIndex:idx_member_project_user;not null" json:"user_id"`
	Role      ProjectRole `gorm:"not null;default:'member'" json:"role"`
	AddedAt   time.Time   `gorm:"autoCreateTime" json:"added_at"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}

func (m *ProjectMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
