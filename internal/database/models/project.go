package models

// Project has no owner column: ownership is the single ProjectMember
// row carrying RoleOwner.
type Project struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `json:"description,omitempty"`

	// Relationships
	Members     []ProjectMember     `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Invitations []ProjectInvitation `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}
