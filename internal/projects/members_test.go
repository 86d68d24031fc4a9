package projects_test

import (
	"testing"

	"github.com/finnh/taskdeck/internal/database/models"
	"github.com/finnh/taskdeck/internal/projects"
	"github.com/finnh/taskdeck/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_AddMember(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	ctx := testutil.TestContext(t)

	owner := testutil.CreateTestUser(t, db)
	newcomer := testutil.CreateTestUser(t, db)
	project := testutil.CreateTestProject(t, db, owner)

	t.Run("adds a member", func(t *testing.T) {
		member, err := svc.AddMember(ctx, project.ID, newcomer.ID, models.RoleMember)
		require.NoError(t, err)
		assert.Equal(t, newcomer.ID, member.UserID)
		assert.Equal(t, models.RoleMember, member.Role)
	})

	t.Run("duplicate add reports member exists", func(t *testing.T) {
		_, err := svc.AddMember(ctx, project.ID, newcomer.ID, models.RoleViewer)
		assert.ErrorIs(t, err, projects.ErrMemberExists)
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := svc.AddMember(ctx, uuid.New(), newcomer.ID, models.RoleMember)
		assert.ErrorIs(t, err, projects.ErrProjectNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.AddMember(ctx, project.ID, uuid.New(), models.RoleMember)
		assert.ErrorIs(t, err, projects.ErrUserNotFound)
	})
}

func TestService_UpdateMemberRole(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	ctx := testutil.TestContext(t)

	owner := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	project := testutil.CreateTestProject(t, db, owner)
	member := testutil.AddTestMember(t, db, project, other, models.RoleViewer)

	t.Run("changes a non-owner role", func(t *testing.T) {
		updated, err := svc.UpdateMemberRole(ctx, project.ID, member.ID, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, updated.Role)
	})

	t.Run("owner row is untouchable", func(t *testing.T) {
		var ownerRow models.ProjectMember
		require.NoError(t, db.First(&ownerRow, "project_id = ? AND role = ?", project.ID, models.RoleOwner).Error)

		_, err := svc.UpdateMemberRole(ctx, project.ID, ownerRow.ID, models.RoleMember)
		assert.ErrorIs(t, err, projects.ErrMemberNotFound)
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := svc.UpdateMemberRole(ctx, project.ID, uuid.New(), models.RoleMember)
		assert.ErrorIs(t, err, projects.ErrMemberNotFound)
	})
}

func TestService_RemoveMember(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	ctx := testutil.TestContext(t)

	owner := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	project := testutil.CreateTestProject(t, db, owner)
	member := testutil.AddTestMember(t, db, project, other, models.RoleMember)

	t.Run("owner row cannot be removed", func(t *testing.T) {
		var ownerRow models.ProjectMember
		require.NoError(t, db.First(&ownerRow, "project_id = ? AND role = ?", project.ID, models.RoleOwner).Error)

		err := svc.RemoveMember(ctx, project.ID, ownerRow.ID)
		assert.ErrorIs(t, err, projects.ErrMemberNotFound)
	})

	t.Run("removes a member", func(t *testing.T) {
		require.NoError(t, svc.RemoveMember(ctx, project.ID, member.ID))

		err := svc.RemoveMember(ctx, project.ID, member.ID)
		assert.ErrorIs(t, err, projects.ErrMemberNotFound)
	})
}

func TestService_ListMembers(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	ctx := testutil.TestContext(t)

	owner := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	project := testutil.CreateTestProject(t, db, owner)
	testutil.AddTestMember(t, db, project, other, models.RoleViewer)

	t.Run("joins directory columns", func(t *testing.T) {
		members, err := svc.ListMembers(ctx, project.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)

		byUser := make(map[uuid.UUID]string)
		for _, m := range members {
			require.NotNil(t, m.User)
			byUser[m.UserID] = m.User.Email
		}
		assert.Equal(t, owner.Email, byUser[owner.ID])
		assert.Equal(t, other.Email, byUser[other.ID])
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := svc.ListMembers(ctx, uuid.New())
		assert.ErrorIs(t, err, projects.ErrProjectNotFound)
	})
}

func TestService_GetMember(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	ctx := testutil.TestContext(t)

	owner := testutil.CreateTestUser(t, db)
	project := testutil.CreateTestProject(t, db, owner)

	member, err := svc.GetMember(ctx, project.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, member.Role)

	_, err = svc.GetMember(ctx, project.ID, uuid.New())
	assert.ErrorIs(t, err, projects.ErrMemberNotFound)
}
