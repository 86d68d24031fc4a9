package projects

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/finnh/taskdeck/internal/database/models"
	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/finnh/taskdeck/pkg/bus"
)

// RegisterHandlers wires the project directory's subjects on the bus.
func RegisterHandlers(b *bus.Bus, svc *Service, logger *slog.Logger) error {
	type handler struct {
		subject string
		fn      bus.HandlerFunc
	}

	handlers := []handler{
		{rpc.SubjectProjectCreate, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.CreateProjectRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.ProjectReply{Success: false, Code: rpc.CodeBadRequest}, nil
			}
			project, err := svc.Create(ctx, CreateInput{
				Name:        req.Name,
				Description: req.Description,
				Slug:        req.Slug,
				OwnerID:     req.OwnerID,
			})
			if err != nil {
				return projectReplyFromError(err, logger), nil
			}
			return rpc.ProjectReply{Success: true, Project: rpc.ProjectFromModel(project)}, nil
		}},

		{rpc.SubjectProjectGet, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.GetProjectRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.ProjectReply{Success: false, Code: rpc.CodeBadRequest}, nil
			}
			project, err := svc.GetByID(ctx, req.ID)
			if err != nil {
				return projectReplyFromError(err, logger), nil
			}
			return rpc.ProjectReply{Success: true, Project: rpc.ProjectFromModel(project)}, nil
		}},

		{rpc.SubjectProjectGetAll, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.ListProjectsRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.ListProjectsReply{Data: []rpc.Project{}}, nil
			}
			projectList, pagination, err := svc.List(ctx, req.Page, req.Limit)
			if err != nil {
				logger.Error("project list failed", "error", err)
				return rpc.ListProjectsReply{Data: []rpc.Project{}}, nil
			}
			out := make([]rpc.Project, 0, len(projectList))
			for i := range projectList {
				out = append(out, *rpc.ProjectFromModel(&projectList[i]))
			}
			return rpc.ListProjectsReply{Data: out, Pagination: pagination}, nil
		}},

		{rpc.SubjectProjectUpdate, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.UpdateProjectRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.ProjectReply{Success: false, Code: rpc.CodeBadRequest}, nil
			}
			project, err := svc.Update(ctx, UpdateInput{ID: req.ID, Name: req.Name, Description: req.Description})
			if err != nil {
				return projectReplyFromError(err, logger), nil
			}
			return rpc.ProjectReply{Success: true, Project: rpc.ProjectFromModel(project)}, nil
		}},

		{rpc.SubjectProjectDelete, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.DeleteProjectRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.AckReply{Success: false, Code: rpc.CodeBadRequest}, nil
			}
			if err := svc.Delete(ctx, req.ID); err != nil {
				reply := projectReplyFromError(err, logger)
				return rpc.AckReply{Success: false, Code: reply.Code, Message: reply.Message}, nil
			}
			return rpc.AckReply{Success: true}, nil
		}},

		{rpc.SubjectProjectTransfer, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.TransferProjectRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.AckReply{Success: false, Code: rpc.CodeBadRequest}, nil
			}
			if err := svc.Transfer(ctx, req.ProjectID, req.ToUserID); err != nil {
				return transferAckFromError(err, logger), nil
			}
			return rpc.AckReply{Success: true}, nil
		}},

		{rpc.SubjectProjectValidateOwnership, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.ValidateOwnershipRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.OwnershipReply{Success: false, Code: rpc.CodeBadRequest}, nil
			}
			project, err := svc.ValidateOwnership(ctx, req.ProjectID, req.UserID)
			if err != nil {
				switch {
				case errors.Is(err, ErrProjectNotFound):
					return rpc.OwnershipReply{Success: false, Code: rpc.CodeProjectNotFound}, nil
				case errors.Is(err, ErrForbidden):
					return rpc.OwnershipReply{Success: false, Code: rpc.CodeForbidden}, nil
				default:
					logger.Error("ownership check failed", "error", err)
					return rpc.OwnershipReply{Success: false, Code: rpc.CodeInternalError}, nil
				}
			}
			return rpc.OwnershipReply{Success: true, Project: rpc.ProjectFromModel(project)}, nil
		}},

		{rpc.SubjectMemberGetByProject, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.ListMembersRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.ListMembersReply{Members: []rpc.ProjectMember{}}, nil
			}
			members, err := svc.ListMembers(ctx, req.ProjectID)
			if err != nil {
				if !errors.Is(err, ErrProjectNotFound) {
					logger.Error("member list failed", "error", err)
				}
				return rpc.ListMembersReply{Members: []rpc.ProjectMember{}}, nil
			}
			return rpc.ListMembersReply{Members: members}, nil
		}},

		{rpc.SubjectMemberGetByProjectUser, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.MemberKeyRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.MemberReply{}, nil
			}
			member, err := svc.GetMember(ctx, req.ProjectID, req.UserID)
			if err != nil {
				if !errors.Is(err, ErrMemberNotFound) {
					logger.Error("member lookup failed", "error", err)
				}
				return rpc.MemberReply{}, nil
			}
			return rpc.MemberReply{Member: rpc.MemberFromModel(member)}, nil
		}},

		{rpc.SubjectMemberCreate, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.CreateMemberRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.MemberOpReply{Success: false, Code: rpc.CodeBadRequest}, nil
			}
			member, err := svc.AddMember(ctx, req.ProjectID, req.UserID, req.Role)
			if err != nil {
				return memberOpFromError(err, logger), nil
			}
			return rpc.MemberOpReply{Success: true, Member: rpc.MemberFromModel(member)}, nil
		}},

		{rpc.SubjectMemberUpdateRole, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.UpdateMemberRoleRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.MemberOpReply{Success: false, Code: rpc.CodeBadRequest}, nil
			}
			if !models.ValidRole(req.Role) || req.Role == models.RoleOwner {
				return rpc.MemberOpReply{Success: false, Code: rpc.CodeBadRequest, Message: "Invalid role"}, nil
			}
			member, err := svc.UpdateMemberRole(ctx, req.ProjectID, req.MemberID, req.Role)
			if err != nil {
				return memberOpFromError(err, logger), nil
			}
			return rpc.MemberOpReply{Success: true, Member: rpc.MemberFromModel(member)}, nil
		}},

		{rpc.SubjectMemberDelete, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.DeleteMemberRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.MemberOpReply{Success: false, Code: rpc.CodeBadRequest}, nil
			}
			if err := svc.RemoveMember(ctx, req.ProjectID, req.MemberID); err != nil {
				return memberOpFromError(err, logger), nil
			}
			return rpc.MemberOpReply{Success: true}, nil
		}},

		{rpc.SubjectMemberSendInvitation, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.SendInvitationRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.InvitationReply{Success: false, Code: rpc.CodeBadRequest}, nil
			}
			if !models.ValidRole(req.Role) || req.Role == models.RoleOwner {
				return rpc.InvitationReply{Success: false, Code: rpc.CodeBadRequest, Message: "Invalid role"}, nil
			}
			invitation, err := svc.SendInvitation(ctx, req.ProjectID, req.Email, req.Role, req.InvitedBy)
			if err != nil {
				return invitationReplyFromError(err, logger), nil
			}
			return rpc.InvitationReply{Success: true, Invitation: rpc.InvitationFromModel(invitation)}, nil
		}},

		{rpc.SubjectMemberAcceptInvitation, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.InvitationTokenRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.InvitationReply{Success: false, Code: rpc.CodeBadRequest}, nil
			}
			member, err := svc.AcceptInvitation(ctx, req.Token)
			if err != nil {
				return invitationReplyFromError(err, logger), nil
			}
			return rpc.InvitationReply{Success: true, Member: rpc.MemberFromModel(member)}, nil
		}},

		{rpc.SubjectMemberDeclineInvitation, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.InvitationTokenRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.InvitationReply{Success: false, Code: rpc.CodeBadRequest}, nil
			}
			invitation, err := svc.DeclineInvitation(ctx, req.Token)
			if err != nil {
				return invitationReplyFromError(err, logger), nil
			}
			return rpc.InvitationReply{Success: true, Invitation: rpc.InvitationFromModel(invitation)}, nil
		}},

		{rpc.SubjectMemberGetInvitation, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.InvitationTokenRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.InvitationReply{Success: false, Code: rpc.CodeBadRequest}, nil
			}
			invitation, err := svc.GetInvitationByToken(ctx, req.Token)
			if err != nil {
				return invitationReplyFromError(err, logger), nil
			}
			return rpc.InvitationReply{Success: true, Invitation: rpc.InvitationFromModel(invitation)}, nil
		}},
	}

	for _, h := range handlers {
		if _, err := b.Handle(h.subject, rpc.QueueProjectDirectory, logger, h.fn); err != nil {
			return err
		}
	}
	return nil
}

func projectReplyFromError(err error, logger *slog.Logger) rpc.ProjectReply {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		return rpc.ProjectReply{Success: false, Code: rpc.CodeProjectNotFound, Message: "Project not found"}
	case errors.Is(err, ErrSlugConflict):
		return rpc.ProjectReply{Success: false, Code: rpc.CodeSlugConflict, Message: "Could not generate a unique slug"}
	default:
		logger.Error("project operation failed", "error", err)
		return rpc.ProjectReply{Success: false, Code: rpc.CodeInternalError}
	}
}

// transferAckFromError keeps the transfer preconditions distinguishable
// for the gateway: each failure maps to its own code and message.
func transferAckFromError(err error, logger *slog.Logger) rpc.AckReply {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		return rpc.AckReply{Success: false, Code: rpc.CodeProjectNotFound, Message: "Project not found"}
	case errors.Is(err, ErrOwnerMissing):
		return rpc.AckReply{Success: false, Code: rpc.CodeMemberNotFound, Message: "Project owner not found"}
	case errors.Is(err, ErrSameOwner):
		return rpc.AckReply{Success: false, Code: rpc.CodeBadRequest, Message: "User is already the project owner"}
	case errors.Is(err, ErrUserNotFound):
		return rpc.AckReply{Success: false, Code: rpc.CodeUserNotFound, Message: "Target user not found"}
	case errors.Is(err, ErrNotAMember):
		return rpc.AckReply{Success: false, Code: rpc.CodeBadRequest, Message: "Target user is not a project member"}
	default:
		logger.Error("project transfer failed", "error", err)
		return rpc.AckReply{Success: false, Code: rpc.CodeInternalError}
	}
}

func memberOpFromError(err error, logger *slog.Logger) rpc.MemberOpReply {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		return rpc.MemberOpReply{Success: false, Code: rpc.CodeProjectNotFound, Message: "Project not found"}
	case errors.Is(err, ErrUserNotFound):
		return rpc.MemberOpReply{Success: false, Code: rpc.CodeUserNotFound, Message: "User not found"}
	case errors.Is(err, ErrMemberExists):
		return rpc.MemberOpReply{Success: false, Code: rpc.CodeMemberAlreadyExists, Message: "User is already a project member"}
	case errors.Is(err, ErrMemberNotFound):
		return rpc.MemberOpReply{Success: false, Code: rpc.CodeMemberNotFound, Message: "Member not found"}
	default:
		logger.Error("member operation failed", "error", err)
		return rpc.MemberOpReply{Success: false, Code: rpc.CodeInternalError}
	}
}

func invitationReplyFromError(err error, logger *slog.Logger) rpc.InvitationReply {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		return rpc.InvitationReply{Success: false, Code: rpc.CodeProjectNotFound, Message: "Project not found"}
	case errors.Is(err, ErrMemberExists):
		return rpc.InvitationReply{Success: false, Code: rpc.CodeMemberAlreadyExists, Message: "User is already a project member"}
	case errors.Is(err, ErrInvitationExists):
		return rpc.InvitationReply{Success: false, Code: rpc.CodeInvitationAlreadyExists, Message: "A pending invitation already exists"}
	case errors.Is(err, ErrInvitationNotFound):
		return rpc.InvitationReply{Success: false, Code: rpc.CodeInvitationNotFound, Message: "Invitation not found"}
	case errors.Is(err, ErrInvitationExpired):
		return rpc.InvitationReply{Success: false, Code: rpc.CodeInvitationExpired, Message: "Invitation has expired"}
	case errors.Is(err, ErrInvitationNotPending):
		return rpc.InvitationReply{Success: false, Code: rpc.CodeInvalidInvitationStatus, Message: "Invitation is no longer pending"}
	default:
		logger.Error("invitation operation failed", "error", err)
		return rpc.InvitationReply{Success: false, Code: rpc.CodeInternalError}
	}
}
