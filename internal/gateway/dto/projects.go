package dto

import (
	"regexp"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Slug        string `json:"slug,omitempty"`
}

func (r CreateProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	} else if len(r.Name) > 100 {
		errors["name"] = "Name must be at most 100 characters"
	}
	if r.Slug != "" && !slugPattern.MatchString(r.Slug) {
		errors["slug"] = "Slug may contain only lowercase letters, digits and hyphens"
	}

	return errors
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (r UpdateProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == nil && r.Description == nil {
		errors["body"] = "Nothing to update"
	}
	if r.Name != nil {
		if *r.Name == "" {
			errors["name"] = "Name cannot be empty"
		} else if len(*r.Name) > 100 {
			errors["name"] = "Name must be at most 100 characters"
		}
	}

	return errors
}

type TransferProjectRequest struct {
	ToUserID string `json:"to_user_id"`
}

func (r TransferProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.ToUserID == "" {
		errors["to_user_id"] = "Target user id is required"
	} else if _, err := uuid.Parse(r.ToUserID); err != nil {
		errors["to_user_id"] = "Target user id must be a valid UUID"
	}

	return errors
}
