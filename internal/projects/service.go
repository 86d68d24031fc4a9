// Package projects implements the project directory: it exclusively
// owns projects, membership rows and invitations. The gateway never
// writes these tables directly, only through this service's RPC
// surface.
package projects

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/finnh/taskdeck/internal/database/models"
	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/finnh/taskdeck/internal/tasks"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrForbidden       = errors.New("caller is not the project owner")
	ErrSlugConflict    = errors.New("could not generate a unique slug")
	ErrOwnerMissing    = errors.New("project has no owner member")
	ErrSameOwner       = errors.New("project is already owned by that user")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotAMember      = errors.New("user is not a project member")
	ErrMemberExists    = errors.New("member already exists")
	ErrMemberNotFound  = errors.New("member not found")
)

const (
	slugMaxNameLen = 50
	slugAttempts   = 3
	invitationTTL  = 5 * 24 * time.Hour
)

// UserDirectory is the project directory's view of the user service,
// reached over the bus. User records are checked and provisioned
// through it; the project directory never writes the users table.
type UserDirectory interface {
	// FindByID returns nil, nil when no such user exists.
	FindByID(ctx context.Context, id uuid.UUID) (*rpc.User, error)
	CreateByInvite(ctx context.Context, email, name string) (*rpc.User, error)
}

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
	emails tasks.EmailEnqueuer // nil disables email side effects
	users  UserDirectory
}

func NewService(db *gorm.DB, logger *slog.Logger, emails tasks.EmailEnqueuer, users UserDirectory) *Service {
	return &Service{db: db, logger: logger, emails: emails, users: users}
}

// createSlug derives a URL slug from the project name plus an 8-hex
// random suffix.
func createSlug(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	namePart := strings.Trim(b.String(), "-")
	if len(namePart) > slugMaxNameLen {
		namePart = namePart[:slugMaxNameLen]
	}
	return namePart + "-" + randomHex(4)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	return hex.EncodeToString(buf)
}

type CreateInput struct {
	Name        string
	Description string
	Slug        string
	OwnerID     uuid.UUID
}

// Create inserts the project and its owner membership row in one
// transaction: a project must never exist without exactly one owner.
// Slug collisions are retried up to three times with an incrementing
// suffix before giving up with ErrSlugConflict.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Project, error) {
	base := input.Slug
	if base == "" {
		base = createSlug(input.Name)
	}

	for i := 0; i < slugAttempts; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}

		project := models.Project{
			Name:        input.Name,
			Slug:        candidate,
			Description: input.Description,
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&project).Error; err != nil {
				return err
			}
			return tx.Create(&models.ProjectMember{
				ProjectID: project.ID,
				UserID:    input.OwnerID,
				Role:      models.RoleOwner,
			}).Error
		})
		if err == nil {
			return &project, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue // slug taken, try the next candidate
		}
		return nil, err
	}

	return nil, ErrSlugConflict
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// List returns a page of projects ordered by id.
func (s *Service) List(ctx context.Context, page, limit int) ([]models.Project, rpc.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Project{}).Count(&total).Error; err != nil {
		return nil, rpc.Pagination{}, err
	}

	var projectList []models.Project
	err := s.db.WithContext(ctx).
		Order("id asc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&projectList).Error
	if err != nil {
		return nil, rpc.Pagination{}, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return projectList, rpc.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}, nil
}

type UpdateInput struct {
	ID          uuid.UUID
	Name        *string
	Description *string
}

func (s *Service) Update(ctx context.Context, input UpdateInput) (*models.Project, error) {
	updates := map[string]any{"updated_at": time.Now()}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}

	result := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", input.ID).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrProjectNotFound
	}
	return s.GetByID(ctx, input.ID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectInvitation{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Project{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProjectNotFound
		}
		return nil
	})
}

// ValidateOwnership answers the ownership predicate with a single
// joined query, distinguishing "project missing" from "exists but the
// caller is not its owner".
func (s *Service) ValidateOwnership(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	var row struct {
		ID          uuid.UUID
		Name        string
		Slug        string
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
		OwnerRole   *string
	}

	err := s.db.WithContext(ctx).
		Table("projects").
		Select("projects.id, projects.name, projects.slug, projects.description, projects.created_at, projects.updated_at, project_members.role AS owner_role").
		Joins("LEFT JOIN project_members ON project_members.project_id = projects.id AND project_members.user_id = ? AND project_members.role = ?",
			userID, models.RoleOwner).
		Where("projects.id = ?", projectID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if row.OwnerRole == nil {
		return nil, ErrForbidden
	}

	return &models.Project{
		Base:        models.Base{ID: row.ID, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt},
		Name:        row.Name,
		Slug:        row.Slug,
		Description: row.Description,
	}, nil
}

// Transfer moves ownership to another existing member. Preconditions
// are checked in order, each with a distinct failure; the two role
// swaps and the project timestamp touch commit together or not at all.
func (s *Service) Transfer(ctx context.Context, projectID, toUserID uuid.UUID) error {
	if _, err := s.GetByID(ctx, projectID); err != nil {
		return err
	}

	var currentOwner models.ProjectMember
	err := s.db.WithContext(ctx).
		First(&currentOwner, "project_id = ? AND role = ?", projectID, models.RoleOwner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOwnerMissing
		}
		return err
	}

	if currentOwner.UserID == toUserID {
		return ErrSameOwner
	}

	target, err := s.users.FindByID(ctx, toUserID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}

	var membership models.ProjectMember
	err = s.db.WithContext(ctx).
		First(&membership, "project_id = ? AND user_id = ?", projectID, toUserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotAMember
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", projectID, currentOwner.UserID).
			Update("role", models.RoleAdmin).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", projectID, toUserID).
			Update("role", models.RoleOwner).Error; err != nil {
			return err
		}
		return tx.Model(&models.Project{}).
			Where("id = ?", projectID).
			Update("updated_at", time.Now()).Error
	})
}
