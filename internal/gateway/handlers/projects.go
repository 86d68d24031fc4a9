package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/finnh/taskdeck/internal/database/models"
	"github.com/finnh/taskdeck/internal/gateway/dto"
	"github.com/finnh/taskdeck/internal/gateway/middleware"
	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ProjectDirectory is the slice of the project-directory client the
// project and member handlers use.
type ProjectDirectory interface {
	Create(ctx context.Context, req rpc.CreateProjectRequest) (*rpc.ProjectReply, error)
	Get(ctx context.Context, id uuid.UUID) (*rpc.ProjectReply, error)
	List(ctx context.Context, page, limit int) (*rpc.ListProjectsReply, error)
	Update(ctx context.Context, req rpc.UpdateProjectRequest) (*rpc.ProjectReply, error)
	Delete(ctx context.Context, id uuid.UUID) (*rpc.AckReply, error)
	Transfer(ctx context.Context, projectID, toUserID uuid.UUID) (*rpc.AckReply, error)
	ValidateOwnership(ctx context.Context, projectID, userID uuid.UUID) (*rpc.OwnershipReply, error)
	ListMembers(ctx context.Context, projectID uuid.UUID) (*rpc.ListMembersReply, error)
	GetMember(ctx context.Context, projectID, userID uuid.UUID) (*rpc.MemberReply, error)
	AddMember(ctx context.Context, projectID, userID uuid.UUID, role models.ProjectRole) (*rpc.MemberOpReply, error)
	UpdateMemberRole(ctx context.Context, projectID, memberID uuid.UUID, role models.ProjectRole) (*rpc.MemberOpReply, error)
	RemoveMember(ctx context.Context, projectID, memberID uuid.UUID) (*rpc.MemberOpReply, error)
	SendInvitation(ctx context.Context, req rpc.SendInvitationRequest) (*rpc.InvitationReply, error)
	AcceptInvitation(ctx context.Context, token string) (*rpc.InvitationReply, error)
	DeclineInvitation(ctx context.Context, token string) (*rpc.InvitationReply, error)
	GetInvitation(ctx context.Context, token string) (*rpc.InvitationReply, error)
}

type ProjectHandler struct {
	projects ProjectDirectory
	logger   *slog.Logger
}

func NewProjectHandler(projects ProjectDirectory, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	params := dto.PaginationParams{
		Page:  queryInt(r, "page"),
		Limit: queryInt(r, "limit"),
	}
	params.Normalize()

	reply, err := h.projects.List(r.Context(), params.Page, params.Limit)
	if err != nil {
		transportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidBody(w)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	reply, err := h.projects.Create(r.Context(), rpc.CreateProjectRequest{
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		OwnerID:     middleware.GetUserID(r.Context()),
	})
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusCreated, reply.Project)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectId")
	if !ok {
		return
	}

	reply, err := h.projects.Get(r.Context(), projectID)
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, reply.Project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectId")
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidBody(w)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	if !h.requireOwner(w, r, projectID) {
		return
	}

	reply, err := h.projects.Update(r.Context(), rpc.UpdateProjectRequest{
		ID:          projectID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, reply.Project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectId")
	if !ok {
		return
	}
	if !h.requireOwner(w, r, projectID) {
		return
	}

	reply, err := h.projects.Delete(r.Context(), projectID)
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Project deleted"})
}

func (h *ProjectHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectId")
	if !ok {
		return
	}

	var req dto.TransferProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidBody(w)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}
	toUserID, _ := uuid.Parse(req.ToUserID)

	if !h.requireOwner(w, r, projectID) {
		return
	}

	reply, err := h.projects.Transfer(r.Context(), projectID, toUserID)
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Ownership transferred"})
}

// requireOwner enforces the ownership predicate before a mutation. A
// missing project answers 404, a non-owner caller 403 and an
// unreachable directory 503; only an owner verdict lets the handler
// proceed.
func (h *ProjectHandler) requireOwner(w http.ResponseWriter, r *http.Request, projectID uuid.UUID) bool {
	reply, err := h.projects.ValidateOwnership(r.Context(), projectID, middleware.GetUserID(r.Context()))
	if err != nil {
		transportError(w, err)
		return false
	}
	if !reply.Success {
		switch reply.Code {
		case rpc.CodeProjectNotFound:
			replyError(w, reply.Code, "Project not found")
		case rpc.CodeForbidden:
			replyError(w, reply.Code, "Only the project owner may do this")
		default:
			replyError(w, reply.Code, "Request failed")
		}
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		validationFailed(w, map[string]string{name: "Must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(name))
	return v
}
