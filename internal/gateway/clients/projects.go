package clients

import (
	"context"

	"github.com/finnh/taskdeck/internal/database/models"
	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/google/uuid"
)

// ProjectClient talks to the project directory.
type ProjectClient struct {
	base
}

func (c *ProjectClient) Create(ctx context.Context, req rpc.CreateProjectRequest) (*rpc.ProjectReply, error) {
	var reply rpc.ProjectReply
	if err := c.request(ctx, rpc.SubjectProjectCreate, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) Get(ctx context.Context, id uuid.UUID) (*rpc.ProjectReply, error) {
	var reply rpc.ProjectReply
	if err := c.request(ctx, rpc.SubjectProjectGet, rpc.GetProjectRequest{ID: id}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) List(ctx context.Context, page, limit int) (*rpc.ListProjectsReply, error) {
	var reply rpc.ListProjectsReply
	if err := c.request(ctx, rpc.SubjectProjectGetAll, rpc.ListProjectsRequest{Page: page, Limit: limit}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) Update(ctx context.Context, req rpc.UpdateProjectRequest) (*rpc.ProjectReply, error) {
	var reply rpc.ProjectReply
	if err := c.request(ctx, rpc.SubjectProjectUpdate, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) Delete(ctx context.Context, id uuid.UUID) (*rpc.AckReply, error) {
	var reply rpc.AckReply
	if err := c.request(ctx, rpc.SubjectProjectDelete, rpc.DeleteProjectRequest{ID: id}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) Transfer(ctx context.Context, projectID, toUserID uuid.UUID) (*rpc.AckReply, error) {
	var reply rpc.AckReply
	err := c.request(ctx, rpc.SubjectProjectTransfer,
		rpc.TransferProjectRequest{ProjectID: projectID, ToUserID: toUserID}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// ValidateOwnership asks whether userID owns projectID. The three
// answers (owner, not owner, no such project) arrive as reply codes;
// an error here is always a transport failure.
func (c *ProjectClient) ValidateOwnership(ctx context.Context, projectID, userID uuid.UUID) (*rpc.OwnershipReply, error) {
	var reply rpc.OwnershipReply
	err := c.request(ctx, rpc.SubjectProjectValidateOwnership,
		rpc.ValidateOwnershipRequest{ProjectID: projectID, UserID: userID}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) ListMembers(ctx context.Context, projectID uuid.UUID) (*rpc.ListMembersReply, error) {
	var reply rpc.ListMembersReply
	if err := c.request(ctx, rpc.SubjectMemberGetByProject, rpc.ListMembersRequest{ProjectID: projectID}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) GetMember(ctx context.Context, projectID, userID uuid.UUID) (*rpc.MemberReply, error) {
	var reply rpc.MemberReply
	err := c.request(ctx, rpc.SubjectMemberGetByProjectUser,
		rpc.MemberKeyRequest{ProjectID: projectID, UserID: userID}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) AddMember(ctx context.Context, projectID, userID uuid.UUID, role models.ProjectRole) (*rpc.MemberOpReply, error) {
	var reply rpc.MemberOpReply
	err := c.request(ctx, rpc.SubjectMemberCreate,
		rpc.CreateMemberRequest{ProjectID: projectID, UserID: userID, Role: role}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) UpdateMemberRole(ctx context.Context, projectID, memberID uuid.UUID, role models.ProjectRole) (*rpc.MemberOpReply, error) {
	var reply rpc.MemberOpReply
	err := c.request(ctx, rpc.SubjectMemberUpdateRole,
		rpc.UpdateMemberRoleRequest{ProjectID: projectID, MemberID: memberID, Role: role}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) RemoveMember(ctx context.Context, projectID, memberID uuid.UUID) (*rpc.MemberOpReply, error) {
	var reply rpc.MemberOpReply
	err := c.request(ctx, rpc.SubjectMemberDelete,
		rpc.DeleteMemberRequest{ProjectID: projectID, MemberID: memberID}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) SendInvitation(ctx context.Context, req rpc.SendInvitationRequest) (*rpc.InvitationReply, error) {
	var reply rpc.InvitationReply
	if err := c.request(ctx, rpc.SubjectMemberSendInvitation, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) AcceptInvitation(ctx context.Context, token string) (*rpc.InvitationReply, error) {
	var reply rpc.InvitationReply
	if err := c.request(ctx, rpc.SubjectMemberAcceptInvitation, rpc.InvitationTokenRequest{Token: token}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) DeclineInvitation(ctx context.Context, token string) (*rpc.InvitationReply, error) {
	var reply rpc.InvitationReply
	if err := c.request(ctx, rpc.SubjectMemberDeclineInvitation, rpc.InvitationTokenRequest{Token: token}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *ProjectClient) GetInvitation(ctx context.Context, token string) (*rpc.InvitationReply, error) {
	var reply rpc.InvitationReply
	if err := c.request(ctx, rpc.SubjectMemberGetInvitation, rpc.InvitationTokenRequest{Token: token}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
