package rpc

import (
	"time"

	"github.com/finnh/taskdeck/internal/database/models"
	"github.com/google/uuid"
)

// --- token service ---

// UserClaims is the payload carried inside an auth token.
type UserClaims struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

type GenerateTokenRequest struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	TTLSeconds int       `json:"ttl_seconds,omitempty"` // 0 means service default
}

type GenerateTokenReply struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Code    string `json:"code,omitempty"`
}

type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenReply distinguishes expiry from any other invalidity so
// the gateway can answer 401 with a specific hint.
type ValidateTokenReply struct {
	Success bool        `json:"success"`
	Data    *UserClaims `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// --- user directory ---

// User is the sanitized user representation; it never carries the
// credential hash.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func UserFromModel(u *models.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		AvatarURL:     u.AvatarURL,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type FindUserByIDRequest struct {
	ID uuid.UUID `json:"id"`
}

type FindUserByEmailRequest struct {
	Email string `json:"email"`
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserReply wraps an optional user; User == nil means "no match",
// which is a legitimate business answer, not an error.
type UserReply struct {
	User *User `json:"user"`
}

type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type CreateUserReply struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type CreateUserByInviteRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type SendVerifyEmailRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type ValidateEmailTokenRequest struct {
	Token string `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ValidateResetTokenRequest struct {
	Token string `json:"token"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type DeleteAccountRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type TouchLastLoginEvent struct {
	UserID uuid.UUID `json:"user_id"`
}

// AckReply acknowledges an operation with no payload.
type AckReply struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// --- project directory ---

type Project struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ProjectFromModel(p *models.Project) *Project {
	if p == nil {
		return nil
	}
	return &Project{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type CreateProjectRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Slug        string    `json:"slug,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
}

type ProjectReply struct {
	Success bool     `json:"success"`
	Project *Project `json:"project,omitempty"`
	Code    string   `json:"code,omitempty"`
	Message string   `json:"message,omitempty"`
}

type GetProjectRequest struct {
	ID uuid.UUID `json:"id"`
}

type ListProjectsRequest struct {
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

type ListProjectsReply struct {
	Data       []Project  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type UpdateProjectRequest struct {
	ID          uuid.UUID `json:"id"`
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
}

type DeleteProjectRequest struct {
	ID uuid.UUID `json:"id"`
}

type TransferProjectRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
	ToUserID  uuid.UUID `json:"to_user_id"`
}

type ValidateOwnershipRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
}

// OwnershipReply answers the single-join ownership predicate. Code is
// one of PROJECT_NOT_FOUND, FORBIDDEN or INTERNAL_ERROR; a transport
// failure never reaches this type (the gateway classifies it as
// service-unavailable before decoding).
type OwnershipReply struct {
	Success bool     `json:"success"`
	Project *Project `json:"project,omitempty"`
	Code    string   `json:"code,omitempty"`
}

// --- project members / invitations ---

type ProjectMember struct {
	ID        uuid.UUID          `json:"id"`
	ProjectID uuid.UUID          `json:"project_id"`
	UserID    uuid.UUID          `json:"user_id"`
	Role      models.ProjectRole `json:"role"`
	AddedAt   time.Time          `json:"added_at"`

	// Populated by member.getByProject only.
	User *MemberUser `json:"user,omitempty"`
}

type MemberUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func MemberFromModel(m *models.ProjectMember) *ProjectMember {
	if m == nil {
		return nil
	}
	return &ProjectMember{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		UserID:    m.UserID,
		Role:      m.Role,
		AddedAt:   m.AddedAt,
	}
}

type MemberKeyRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
}

type MemberReply struct {
	Member *ProjectMember `json:"member"`
}

type ListMembersRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
}

type ListMembersReply struct {
	Members []ProjectMember `json:"members"`
}

type CreateMemberRequest struct {
	ProjectID uuid.UUID          `json:"project_id"`
	UserID    uuid.UUID          `json:"user_id"`
	Role      models.ProjectRole `json:"role"`
}

type MemberOpReply struct {
	Success bool           `json:"success"`
	Member  *ProjectMember `json:"member,omitempty"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message,omitempty"`
}

type UpdateMemberRoleRequest struct {
	ProjectID uuid.UUID          `json:"project_id"`
	MemberID  uuid.UUID          `json:"member_id"`
	Role      models.ProjectRole `json:"role"`
}

type DeleteMemberRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
	MemberID  uuid.UUID `json:"member_id"`
}

type SendInvitationRequest struct {
	ProjectID uuid.UUID          `json:"project_id"`
	Role      models.ProjectRole `json:"role"`
	Email     string             `json:"email"`
	InvitedBy uuid.UUID          `json:"invited_by"`
}

type Invitation struct {
	ID        uuid.UUID               `json:"id"`
	ProjectID uuid.UUID               `json:"project_id"`
	Email     string                  `json:"email"`
	Role      models.ProjectRole      `json:"role"`
	Status    models.InvitationStatus `json:"status"`
	ExpiresAt time.Time               `json:"expires_at"`
	CreatedAt time.Time               `json:"created_at"`
}

func InvitationFromModel(i *models.ProjectInvitation) *Invitation {
	if i == nil {
		return nil
	}
	return &Invitation{
		ID:        i.ID,
		ProjectID: i.ProjectID,
		Email:     i.Email,
		Role:      i.Role,
		Status:    i.Status,
		ExpiresAt: i.ExpiresAt,
		CreatedAt: i.CreatedAt,
	}
}

type InvitationReply struct {
	Success    bool           `json:"success"`
	Invitation *Invitation    `json:"invitation,omitempty"`
	Member     *ProjectMember `json:"member,omitempty"`
	Code       string         `json:"code,omitempty"`
	Message    string         `json:"message,omitempty"`
}

type InvitationTokenRequest struct {
	Token string `json:"token"`
}
