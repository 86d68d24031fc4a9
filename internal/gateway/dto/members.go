package dto

import (
	"strings"

	"github.com/finnh/taskdeck/internal/database/models"
	"github.com/google/uuid"
)

// assignableRole accepts every membership role except owner; ownership
// only moves through the transfer flow.
func assignableRole(role string) bool {
	r := models.ProjectRole(role)
	return models.ValidRole(r) && r != models.RoleOwner
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (r AddMemberRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.UserID == "" {
		errors["user_id"] = "User id is required"
	} else if _, err := uuid.Parse(r.UserID); err != nil {
		errors["user_id"] = "User id must be a valid UUID"
	}
	if r.Role == "" {
		errors["role"] = "Role is required"
	} else if !assignableRole(r.Role) {
		errors["role"] = "Role must be one of admin, member, viewer"
	}

	return errors
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role"`
}

func (r UpdateMemberRoleRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Role == "" {
		errors["role"] = "Role is required"
	} else if !assignableRole(r.Role) {
		errors["role"] = "Role must be one of admin, member, viewer"
	}
	return errors
}

type SendInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r SendInvitationRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	} else if !strings.Contains(r.Email, "@") {
		errors["email"] = "Email is invalid"
	}
	if r.Role == "" {
		errors["role"] = "Role is required"
	} else if !assignableRole(r.Role) {
		errors["role"] = "Role must be one of admin, member, viewer"
	}

	return errors
}
