package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/finnh/taskdeck/pkg/bus"
	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserEmailKey contextKey = "user_email"
	UserNameKey  contextKey = "user_name"
)

// TokenValidator and UserFinder are the two directory calls the guard
// makes, narrowed so tests can stub them.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*rpc.ValidateTokenReply, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*rpc.User, error)
}

// Auth guards a route group. It validates the bearer token, then
// confirms the subject still exists and is active; a token that
// outlives its account must not grant access. Transport failures on
// either call answer 503, never 401: the caller's credentials were not
// judged.
func Auth(tokens TokenValidator, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
			if token == "" {
				if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
					token = cookie.Value
				}
			}
			if token == "" {
				unauthorized(w, "Missing authentication token")
				return
			}

			verdict, err := tokens.Validate(r.Context(), token)
			if err != nil {
				if errors.Is(err, bus.ErrUnavailable) {
					unavailable(w)
					return
				}
				internalError(w)
				return
			}
			if !verdict.Success || verdict.Data == nil {
				if verdict.Code == rpc.CodeTokenExpired {
					unauthorized(w, "Token has expired")
					return
				}
				unauthorized(w, "Invalid authentication token")
				return
			}

			user, err := users.FindByID(r.Context(), verdict.Data.ID)
			if err != nil {
				if errors.Is(err, bus.ErrUnavailable) {
					unavailable(w)
					return
				}
				internalError(w)
				return
			}
			if user == nil {
				unauthorized(w, "User no longer exists")
				return
			}
			if !user.IsActive {
				forbidden(w, "Account is inactive")
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, UserIDKey, user.ID)
			ctx = context.WithValue(ctx, UserEmailKey, user.Email)
			ctx = context.WithValue(ctx, UserNameKey, user.Name)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(UserEmailKey).(string); ok {
		return email
	}
	return ""
}

func GetUserName(ctx context.Context) string {
	if name, ok := ctx.Value(UserNameKey).(string); ok {
		return name
	}
	return ""
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}

func unauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message)
}

func forbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, message)
}

func unavailable(w http.ResponseWriter) {
	writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
