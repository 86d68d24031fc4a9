package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/finnh/taskdeck/internal/database/models"
	"github.com/finnh/taskdeck/internal/gateway/dto"
	"github.com/finnh/taskdeck/internal/gateway/middleware"
	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type MemberHandler struct {
	projects ProjectDirectory
	logger   *slog.Logger
}

func NewMemberHandler(projects ProjectDirectory, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{projects: projects, logger: logger}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectId")
	if !ok {
		return
	}
	if !h.requireMember(w, r, projectID) {
		return
	}

	reply, err := h.projects.ListMembers(r.Context(), projectID)
	if err != nil {
		transportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *MemberHandler) Add(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectId")
	if !ok {
		return
	}

	var req dto.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidBody(w)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}
	userID, _ := uuid.Parse(req.UserID)

	if !h.requireManager(w, r, projectID) {
		return
	}

	reply, err := h.projects.AddMember(r.Context(), projectID, userID, models.ProjectRole(req.Role))
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusCreated, reply.Member)
}

func (h *MemberHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectId")
	if !ok {
		return
	}
	memberID, ok := pathUUID(w, r, "memberId")
	if !ok {
		return
	}

	var req dto.UpdateMemberRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidBody(w)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	if !h.requireManager(w, r, projectID) {
		return
	}

	reply, err := h.projects.UpdateMemberRole(r.Context(), projectID, memberID, models.ProjectRole(req.Role))
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, reply.Member)
}

func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectId")
	if !ok {
		return
	}
	memberID, ok := pathUUID(w, r, "memberId")
	if !ok {
		return
	}

	if !h.requireManager(w, r, projectID) {
		return
	}

	reply, err := h.projects.RemoveMember(r.Context(), projectID, memberID)
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Member removed"})
}

func (h *MemberHandler) Invite(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectId")
	if !ok {
		return
	}

	var req dto.SendInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidBody(w)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	if !h.requireManager(w, r, projectID) {
		return
	}

	reply, err := h.projects.SendInvitation(r.Context(), rpc.SendInvitationRequest{
		ProjectID: projectID,
		Email:     req.Email,
		Role:      models.ProjectRole(req.Role),
		InvitedBy: middleware.GetUserID(r.Context()),
	})
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusCreated, reply.Invitation)
}

// GetInvitation serves the public accept/decline page; the token in
// the path is the only credential.
func (h *MemberHandler) GetInvitation(w http.ResponseWriter, r *http.Request) {
	reply, err := h.projects.GetInvitation(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, reply.Invitation)
}

func (h *MemberHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	reply, err := h.projects.AcceptInvitation(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, reply.Member)
}

func (h *MemberHandler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	reply, err := h.projects.DeclineInvitation(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, reply.Invitation)
}

// requireMember admits any member of the project.
func (h *MemberHandler) requireMember(w http.ResponseWriter, r *http.Request, projectID uuid.UUID) bool {
	member, ok := h.membership(w, r, projectID)
	if !ok {
		return false
	}
	if member == nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found", Code: rpc.CodeProjectNotFound})
		return false
	}
	return true
}

// requireManager admits owners and admins only. A caller with no
// membership row sees 404 rather than 403 so non-members cannot probe
// which projects exist.
func (h *MemberHandler) requireManager(w http.ResponseWriter, r *http.Request, projectID uuid.UUID) bool {
	member, ok := h.membership(w, r, projectID)
	if !ok {
		return false
	}
	if member == nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found", Code: rpc.CodeProjectNotFound})
		return false
	}
	if member.Role != models.RoleOwner && member.Role != models.RoleAdmin {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Requires owner or admin role", Code: rpc.CodeForbidden})
		return false
	}
	return true
}

func (h *MemberHandler) membership(w http.ResponseWriter, r *http.Request, projectID uuid.UUID) (*rpc.ProjectMember, bool) {
	reply, err := h.projects.GetMember(r.Context(), projectID, middleware.GetUserID(r.Context()))
	if err != nil {
		transportError(w, err)
		return nil, false
	}
	return reply.Member, true
}
