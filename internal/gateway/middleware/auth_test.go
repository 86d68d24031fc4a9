package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finnh/taskdeck/internal/gateway/middleware"
	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/finnh/taskdeck/internal/testutil"
	"github.com/finnh/taskdeck/pkg/bus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	reply *rpc.ValidateTokenReply
	err   error
}

func (s *stubValidator) Validate(_ context.Context, _ string) (*rpc.ValidateTokenReply, error) {
	return s.reply, s.err
}

type stubFinder struct {
	user *rpc.User
	err  error
}

func (s *stubFinder) FindByID(_ context.Context, _ uuid.UUID) (*rpc.User, error) {
	return s.user, s.err
}

func activeUser() *rpc.User {
	return &rpc.User{
		ID:       uuid.New(),
		Email:    "test@example.com",
		Name:     "Test User",
		IsActive: true,
	}
}

func guardedRequest(t *testing.T, tokens middleware.TokenValidator, users middleware.UserFinder, req *http.Request) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	reached := false
	handler := middleware.Auth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr, reached
}

func TestAuth(t *testing.T) {
	user := activeUser()
	okValidator := &stubValidator{reply: &rpc.ValidateTokenReply{
		Success: true,
		Data:    &rpc.UserClaims{ID: user.ID, Email: user.Email, Name: user.Name},
	}}
	okFinder := &stubFinder{user: user}

	t.Run("valid bearer token passes through", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/auth/me", nil, "valid-token")
		rr, reached := guardedRequest(t, okValidator, okFinder, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.True(t, reached)
	})

	t.Run("cookie works when no bearer header is set", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: "valid-token"})

		rr, reached := guardedRequest(t, okValidator, okFinder, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.True(t, reached)
	})

	t.Run("missing token", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/auth/me", nil)
		rr, reached := guardedRequest(t, okValidator, okFinder, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		assert.False(t, reached)
	})

	t.Run("expired token gets a specific message", func(t *testing.T) {
		tokens := &stubValidator{reply: &rpc.ValidateTokenReply{
			Success: false,
			Code:    rpc.CodeTokenExpired,
		}}

		req := testutil.AuthenticatedRequest(t, "GET", "/api/auth/me", nil, "stale")
		rr, _ := guardedRequest(t, tokens, okFinder, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)

		var body map[string]string
		testutil.ParseJSONResponse(t, rr, &body)
		assert.Equal(t, "Token has expired", body["error"])
	})

	t.Run("invalid token", func(t *testing.T) {
		tokens := &stubValidator{reply: &rpc.ValidateTokenReply{
			Success: false,
			Code:    rpc.CodeTokenInvalid,
		}}

		req := testutil.AuthenticatedRequest(t, "GET", "/api/auth/me", nil, "garbage")
		rr, reached := guardedRequest(t, tokens, okFinder, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		assert.False(t, reached)
	})

	t.Run("token service down answers 503 not 401", func(t *testing.T) {
		tokens := &stubValidator{err: bus.ErrUnavailable}

		req := testutil.AuthenticatedRequest(t, "GET", "/api/auth/me", nil, "valid-token")
		rr, reached := guardedRequest(t, tokens, okFinder, req)

		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		assert.False(t, reached)
	})

	t.Run("user directory down answers 503", func(t *testing.T) {
		users := &stubFinder{err: bus.ErrUnavailable}

		req := testutil.AuthenticatedRequest(t, "GET", "/api/auth/me", nil, "valid-token")
		rr, _ := guardedRequest(t, okValidator, users, req)

		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	})

	t.Run("token outlives its deleted account", func(t *testing.T) {
		users := &stubFinder{user: nil}

		req := testutil.AuthenticatedRequest(t, "GET", "/api/auth/me", nil, "valid-token")
		rr, reached := guardedRequest(t, okValidator, users, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		assert.False(t, reached)
	})

	t.Run("inactive account is forbidden", func(t *testing.T) {
		inactive := activeUser()
		inactive.IsActive = false
		users := &stubFinder{user: inactive}

		req := testutil.AuthenticatedRequest(t, "GET", "/api/auth/me", nil, "valid-token")
		rr, reached := guardedRequest(t, okValidator, users, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
		assert.False(t, reached)
	})

	t.Run("context carries the resolved identity", func(t *testing.T) {
		var gotID uuid.UUID
		var gotEmail, gotName string

		handler := middleware.Auth(okValidator, okFinder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID = middleware.GetUserID(r.Context())
			gotEmail = middleware.GetUserEmail(r.Context())
			gotName = middleware.GetUserName(r.Context())
		}))

		req := testutil.AuthenticatedRequest(t, "GET", "/api/auth/me", nil, "valid-token")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.Equal(t, user.ID, gotID)
		assert.Equal(t, user.Email, gotEmail)
		assert.Equal(t, user.Name, gotName)
	})
}

func TestContextGetters_Defaults(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, uuid.Nil, middleware.GetUserID(ctx))
	assert.Empty(t, middleware.GetUserEmail(ctx))
	assert.Empty(t, middleware.GetUserName(ctx))
}
