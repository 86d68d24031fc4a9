package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/finnh/taskdeck/internal/gateway/dto"
	"github.com/finnh/taskdeck/internal/gateway/middleware"
	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/google/uuid"
)

// TokenIssuer mints bearer tokens through the token service.
type TokenIssuer interface {
	Generate(ctx context.Context, claims rpc.UserClaims) (string, error)
}

// UserDirectory is the slice of the user-directory client the auth
// handlers use.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*rpc.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (*rpc.User, error)
	Create(ctx context.Context, email, name, password string) (*rpc.CreateUserReply, error)
	SendVerifyEmail(ctx context.Context, userID uuid.UUID) (*rpc.AckReply, error)
	ValidateEmailToken(ctx context.Context, token string) (*rpc.AckReply, error)
	ForgotPassword(ctx context.Context, email string) (*rpc.AckReply, error)
	ValidateResetToken(ctx context.Context, token string) (*rpc.AckReply, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*rpc.AckReply, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) (*rpc.AckReply, error)
	TouchLastLogin(userID uuid.UUID) error
}

type AuthHandler struct {
	tokens TokenIssuer
	users  UserDirectory
	logger *slog.Logger
}

func NewAuthHandler(tokens TokenIssuer, users UserDirectory, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{tokens: tokens, users: users, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidBody(w)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	reply, err := h.users.Create(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}

	token, err := h.tokens.Generate(r.Context(), rpc.UserClaims{
		ID:    reply.User.ID,
		Email: reply.User.Email,
		Name:  reply.User.Name,
	})
	if err != nil {
		transportError(w, err)
		return
	}

	setTokenCookie(w, token)
	writeJSON(w, http.StatusCreated, dto.AuthResponse{Token: token, User: reply.User})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidBody(w)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	user, err := h.users.VerifyCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		transportError(w, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid credentials"})
		return
	}

	token, err := h.tokens.Generate(r.Context(), rpc.UserClaims{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	})
	if err != nil {
		transportError(w, err)
		return
	}

	// Fire-and-forget: a failed last-login stamp must not fail the
	// login.
	if err := h.users.TouchLastLogin(user.ID); err != nil {
		h.logger.Error("last-login publish failed", "user_id", user.ID, "error", err)
	}

	setTokenCookie(w, token)
	writeJSON(w, http.StatusOK, dto.AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.FindByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		transportError(w, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SendVerifyEmail re-sends the verification email for the
// authenticated user.
func (h *AuthHandler) SendVerifyEmail(w http.ResponseWriter, r *http.Request) {
	reply, err := h.users.SendVerifyEmail(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Verification email sent"})
}

func (h *AuthHandler) VerifyEmailToken(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyEmailTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidBody(w)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	reply, err := h.users.ValidateEmailToken(r.Context(), req.Token)
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Email verified"})
}

// ForgotPassword always answers 200 for well-formed requests so the
// endpoint cannot be used to enumerate accounts.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidBody(w)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	reply, err := h.users.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "If the email exists, a reset link was sent"})
}

func (h *AuthHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		validationFailed(w, map[string]string{"token": "Token is required"})
		return
	}

	reply, err := h.users.ValidateResetToken(r.Context(), token)
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Token is valid"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidBody(w)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	reply, err := h.users.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Password reset"})
}

func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	reply, err := h.users.DeleteAccount(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		transportError(w, err)
		return
	}
	if !reply.Success {
		replyError(w, reply.Code, reply.Message)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Account deleted"})
}

func setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   3600,
	})
}
