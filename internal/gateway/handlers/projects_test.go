package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finnh/taskdeck/internal/database/models"
	"github.com/finnh/taskdeck/internal/gateway/dto"
	"github.com/finnh/taskdeck/internal/gateway/handlers"
	"github.com/finnh/taskdeck/internal/gateway/middleware"
	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/finnh/taskdeck/internal/testutil"
	"github.com/finnh/taskdeck/pkg/bus"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// stubDirectory answers every project-directory call from canned
// replies, standing in for the bus round trips.
type stubDirectory struct {
	projectReply  *rpc.ProjectReply
	listReply     *rpc.ListProjectsReply
	ackReply      *rpc.AckReply
	ownership     *rpc.OwnershipReply
	membersReply  *rpc.ListMembersReply
	memberReply   *rpc.MemberReply
	memberOpReply *rpc.MemberOpReply
	invitation    *rpc.InvitationReply
	err           error
}

func (s *stubDirectory) Create(context.Context, rpc.CreateProjectRequest) (*rpc.ProjectReply, error) {
	return s.projectReply, s.err
}

func (s *stubDirectory) Get(context.Context, uuid.UUID) (*rpc.ProjectReply, error) {
	return s.projectReply, s.err
}

func (s *stubDirectory) List(context.Context, int, int) (*rpc.ListProjectsReply, error) {
	return s.listReply, s.err
}

func (s *stubDirectory) Update(context.Context, rpc.UpdateProjectRequest) (*rpc.ProjectReply, error) {
	return s.projectReply, s.err
}

func (s *stubDirectory) Delete(context.Context, uuid.UUID) (*rpc.AckReply, error) {
	return s.ackReply, s.err
}

func (s *stubDirectory) Transfer(context.Context, uuid.UUID, uuid.UUID) (*rpc.AckReply, error) {
	return s.ackReply, s.err
}

func (s *stubDirectory) ValidateOwnership(context.Context, uuid.UUID, uuid.UUID) (*rpc.OwnershipReply, error) {
	return s.ownership, s.err
}

func (s *stubDirectory) ListMembers(context.Context, uuid.UUID) (*rpc.ListMembersReply, error) {
	return s.membersReply, s.err
}

func (s *stubDirectory) GetMember(context.Context, uuid.UUID, uuid.UUID) (*rpc.MemberReply, error) {
	return s.memberReply, s.err
}

func (s *stubDirectory) AddMember(context.Context, uuid.UUID, uuid.UUID, models.ProjectRole) (*rpc.MemberOpReply, error) {
	return s.memberOpReply, s.err
}

func (s *stubDirectory) UpdateMemberRole(context.Context, uuid.UUID, uuid.UUID, models.ProjectRole) (*rpc.MemberOpReply, error) {
	return s.memberOpReply, s.err
}

func (s *stubDirectory) RemoveMember(context.Context, uuid.UUID, uuid.UUID) (*rpc.MemberOpReply, error) {
	return s.memberOpReply, s.err
}

func (s *stubDirectory) SendInvitation(context.Context, rpc.SendInvitationRequest) (*rpc.InvitationReply, error) {
	return s.invitation, s.err
}

func (s *stubDirectory) AcceptInvitation(context.Context, string) (*rpc.InvitationReply, error) {
	return s.invitation, s.err
}

func (s *stubDirectory) DeclineInvitation(context.Context, string) (*rpc.InvitationReply, error) {
	return s.invitation, s.err
}

func (s *stubDirectory) GetInvitation(context.Context, string) (*rpc.InvitationReply, error) {
	return s.invitation, s.err
}

var _ handlers.ProjectDirectory = (*stubDirectory)(nil)

// identity injects a resolved user into the request context the way
// the auth guard does after a successful validation.
func identity(userID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestRouter(directory handlers.ProjectDirectory, userID uuid.UUID) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	projectHandler := handlers.NewProjectHandler(directory, logger)
	memberHandler := handlers.NewMemberHandler(directory, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/invitations/{token}", func(r chi.Router) {
			r.Get("/", memberHandler.GetInvitation)
			r.Post("/accept", memberHandler.AcceptInvitation)
			r.Post("/decline", memberHandler.DeclineInvitation)
		})

		r.Group(func(r chi.Router) {
			r.Use(identity(userID))
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)
				r.Route("/{projectId}", func(r chi.Router) {
					r.Get("/", projectHandler.Get)
					r.Patch("/", projectHandler.Update)
					r.Delete("/", projectHandler.Delete)
					r.Post("/transfer", projectHandler.Transfer)
					r.Route("/members", func(r chi.Router) {
						r.Get("/", memberHandler.List)
						r.Post("/", memberHandler.Add)
						r.Put("/{memberId}", memberHandler.UpdateRole)
						r.Delete("/{memberId}", memberHandler.Remove)
					})
					r.Post("/invitations", memberHandler.Invite)
				})
			})
		})
	})
	return r
}

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func sampleProject() *rpc.Project {
	return &rpc.Project{ID: uuid.New(), Name: "Sample", Slug: "sample-ab12cd34"}
}

func ownerVerdict(p *rpc.Project) *rpc.OwnershipReply {
	return &rpc.OwnershipReply{Success: true, Project: p}
}

func memberOf(role models.ProjectRole) *rpc.MemberReply {
	return &rpc.MemberReply{Member: &rpc.ProjectMember{ID: uuid.New(), Role: role}}
}

func TestProjectHandler_List(t *testing.T) {
	directory := &stubDirectory{listReply: &rpc.ListProjectsReply{
		Data:       []rpc.Project{*sampleProject()},
		Pagination: rpc.Pagination{Page: 1, Limit: 10, Total: 1, TotalPages: 1},
	}}
	router := newTestRouter(directory, uuid.New())

	rr := serve(t, router, testutil.UnauthenticatedRequest(t, "GET", "/api/projects?page=1&limit=10", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var reply rpc.ListProjectsReply
	testutil.ParseJSONResponse(t, rr, &reply)
	assert.Len(t, reply.Data, 1)
}

func TestProjectHandler_Create(t *testing.T) {
	t.Run("creates a project", func(t *testing.T) {
		project := sampleProject()
		directory := &stubDirectory{projectReply: &rpc.ProjectReply{Success: true, Project: project}}
		router := newTestRouter(directory, uuid.New())

		body := dto.CreateProjectRequest{Name: "Sample"}
		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", "/api/projects", body))
		testutil.AssertStatus(t, rr, http.StatusCreated)
	})

	t.Run("missing name fails validation", func(t *testing.T) {
		router := newTestRouter(&stubDirectory{}, uuid.New())

		body := dto.CreateProjectRequest{Slug: "valid-slug"}
		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", "/api/projects", body))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("slug conflict maps to 409", func(t *testing.T) {
		directory := &stubDirectory{projectReply: &rpc.ProjectReply{
			Success: false, Code: rpc.CodeSlugConflict, Message: "Could not allocate a unique slug",
		}}
		router := newTestRouter(directory, uuid.New())

		body := dto.CreateProjectRequest{Name: "Sample"}
		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", "/api/projects", body))
		testutil.AssertStatus(t, rr, http.StatusConflict)
	})
}

func TestProjectHandler_Get(t *testing.T) {
	t.Run("unknown project maps to 404", func(t *testing.T) {
		directory := &stubDirectory{projectReply: &rpc.ProjectReply{
			Success: false, Code: rpc.CodeProjectNotFound, Message: "Project not found",
		}}
		router := newTestRouter(directory, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "GET", "/api/projects/"+uuid.NewString(), nil))
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("malformed id fails validation", func(t *testing.T) {
		router := newTestRouter(&stubDirectory{}, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "GET", "/api/projects/not-a-uuid", nil))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestProjectHandler_OwnerGate(t *testing.T) {
	name := "Renamed"
	body := dto.UpdateProjectRequest{Name: &name}
	path := "/api/projects/" + uuid.NewString()

	t.Run("owner may update", func(t *testing.T) {
		project := sampleProject()
		directory := &stubDirectory{
			ownership:    ownerVerdict(project),
			projectReply: &rpc.ProjectReply{Success: true, Project: project},
		}
		router := newTestRouter(directory, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "PATCH", path, body))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		directory := &stubDirectory{ownership: &rpc.OwnershipReply{Success: false, Code: rpc.CodeForbidden}}
		router := newTestRouter(directory, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "PATCH", path, body))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("unknown project answers 404 before 403", func(t *testing.T) {
		directory := &stubDirectory{ownership: &rpc.OwnershipReply{Success: false, Code: rpc.CodeProjectNotFound}}
		router := newTestRouter(directory, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "DELETE", path, nil))
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("directory outage answers 503", func(t *testing.T) {
		directory := &stubDirectory{err: bus.ErrUnavailable}
		router := newTestRouter(directory, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "PATCH", path, body))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	})
}

func TestProjectHandler_Transfer(t *testing.T) {
	path := "/api/projects/" + uuid.NewString() + "/transfer"

	t.Run("owner transfers to a member", func(t *testing.T) {
		directory := &stubDirectory{
			ownership: ownerVerdict(sampleProject()),
			ackReply:  &rpc.AckReply{Success: true},
		}
		router := newTestRouter(directory, uuid.New())

		body := dto.TransferProjectRequest{ToUserID: uuid.NewString()}
		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", path, body))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("malformed target id fails validation", func(t *testing.T) {
		router := newTestRouter(&stubDirectory{}, uuid.New())

		body := dto.TransferProjectRequest{ToUserID: "nope"}
		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", path, body))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("non-member target maps to 400", func(t *testing.T) {
		directory := &stubDirectory{
			ownership: ownerVerdict(sampleProject()),
			ackReply:  &rpc.AckReply{Success: false, Code: rpc.CodeBadRequest, Message: "Target user is not a member"},
		}
		router := newTestRouter(directory, uuid.New())

		body := dto.TransferProjectRequest{ToUserID: uuid.NewString()}
		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", path, body))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestMemberHandler_ManagerGate(t *testing.T) {
	base := "/api/projects/" + uuid.NewString()
	addBody := dto.AddMemberRequest{UserID: uuid.NewString(), Role: "member"}

	t.Run("admin may add members", func(t *testing.T) {
		directory := &stubDirectory{
			memberReply:   memberOf(models.RoleAdmin),
			memberOpReply: &rpc.MemberOpReply{Success: true, Member: &rpc.ProjectMember{ID: uuid.New()}},
		}
		router := newTestRouter(directory, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", base+"/members", addBody))
		testutil.AssertStatus(t, rr, http.StatusCreated)
	})

	t.Run("plain member is forbidden", func(t *testing.T) {
		directory := &stubDirectory{memberReply: memberOf(models.RoleMember)}
		router := newTestRouter(directory, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", base+"/members", addBody))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("non-member sees 404 instead of 403", func(t *testing.T) {
		directory := &stubDirectory{memberReply: &rpc.MemberReply{Member: nil}}
		router := newTestRouter(directory, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", base+"/members", addBody))
		testutil.AssertStatus(t, rr, http.StatusNotFound)

		var body dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &body)
		assert.Equal(t, rpc.CodeProjectNotFound, body.Code)
	})

	t.Run("owner role is not assignable", func(t *testing.T) {
		router := newTestRouter(&stubDirectory{}, uuid.New())

		body := dto.AddMemberRequest{UserID: uuid.NewString(), Role: "owner"}
		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", base+"/members", body))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestMemberHandler_List(t *testing.T) {
	base := "/api/projects/" + uuid.NewString()

	t.Run("any member may list", func(t *testing.T) {
		directory := &stubDirectory{
			memberReply:  memberOf(models.RoleViewer),
			membersReply: &rpc.ListMembersReply{Members: []rpc.ProjectMember{{ID: uuid.New()}}},
		}
		router := newTestRouter(directory, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "GET", base+"/members", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("outsider sees 404", func(t *testing.T) {
		directory := &stubDirectory{memberReply: &rpc.MemberReply{Member: nil}}
		router := newTestRouter(directory, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "GET", base+"/members", nil))
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}

func TestMemberHandler_UpdateRole(t *testing.T) {
	path := "/api/projects/" + uuid.NewString() + "/members/" + uuid.NewString()

	t.Run("owner row rejection maps to 404", func(t *testing.T) {
		directory := &stubDirectory{
			memberReply:   memberOf(models.RoleOwner),
			memberOpReply: &rpc.MemberOpReply{Success: false, Code: rpc.CodeMemberNotFound, Message: "Member not found"},
		}
		router := newTestRouter(directory, uuid.New())

		body := dto.UpdateMemberRoleRequest{Role: "admin"}
		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "PUT", path, body))
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("invalid role fails validation", func(t *testing.T) {
		router := newTestRouter(&stubDirectory{}, uuid.New())

		body := dto.UpdateMemberRoleRequest{Role: "emperor"}
		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "PUT", path, body))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestMemberHandler_Invitations(t *testing.T) {
	t.Run("admin sends an invitation", func(t *testing.T) {
		directory := &stubDirectory{
			memberReply: memberOf(models.RoleAdmin),
			invitation: &rpc.InvitationReply{
				Success:    true,
				Invitation: &rpc.Invitation{ID: uuid.New(), Email: "new@example.com"},
			},
		}
		router := newTestRouter(directory, uuid.New())

		body := dto.SendInvitationRequest{Email: "new@example.com", Role: "member"}
		path := "/api/projects/" + uuid.NewString() + "/invitations"
		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", path, body))
		testutil.AssertStatus(t, rr, http.StatusCreated)
	})

	t.Run("duplicate invitation maps to 409", func(t *testing.T) {
		directory := &stubDirectory{
			memberReply: memberOf(models.RoleOwner),
			invitation: &rpc.InvitationReply{
				Success: false, Code: rpc.CodeInvitationAlreadyExists, Message: "Invitation already exists",
			},
		}
		router := newTestRouter(directory, uuid.New())

		body := dto.SendInvitationRequest{Email: "dup@example.com", Role: "member"}
		path := "/api/projects/" + uuid.NewString() + "/invitations"
		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", path, body))
		testutil.AssertStatus(t, rr, http.StatusConflict)
	})

	t.Run("invitation page resolves without auth", func(t *testing.T) {
		directory := &stubDirectory{invitation: &rpc.InvitationReply{
			Success:    true,
			Invitation: &rpc.Invitation{ID: uuid.New(), Email: "new@example.com"},
		}}
		router := newTestRouter(directory, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "GET", "/api/invitations/some-token", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("expired invitation maps to 400 on accept", func(t *testing.T) {
		directory := &stubDirectory{invitation: &rpc.InvitationReply{
			Success: false, Code: rpc.CodeInvitationExpired, Message: "Invitation has expired",
		}}
		router := newTestRouter(directory, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", "/api/invitations/stale/accept", nil))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("decline answers the updated invitation", func(t *testing.T) {
		directory := &stubDirectory{invitation: &rpc.InvitationReply{
			Success:    true,
			Invitation: &rpc.Invitation{ID: uuid.New(), Status: models.InvitationDeclined},
		}}
		router := newTestRouter(directory, uuid.New())

		rr := serve(t, router, testutil.UnauthenticatedRequest(t, "POST", "/api/invitations/tok/decline", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)

		var reply rpc.Invitation
		testutil.ParseJSONResponse(t, rr, &reply)
		assert.Equal(t, models.InvitationDeclined, reply.Status)
	})
}
