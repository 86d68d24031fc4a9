package users

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/finnh/taskdeck/pkg/bus"
)

// RegisterHandlers wires the user directory's subjects on the bus.
// Sanitization happens here: nothing leaving this file carries a
// credential hash.
func RegisterHandlers(b *bus.Bus, svc *Service, logger *slog.Logger) error {
	type handler struct {
		subject string
		fn      bus.HandlerFunc
	}

	handlers := []handler{
		{rpc.SubjectUserFindByID, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.FindUserByIDRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.UserReply{}, nil
			}
			user, err := svc.GetByID(ctx, req.ID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return rpc.UserReply{}, nil
				}
				return nil, err
			}
			return rpc.UserReply{User: rpc.UserFromModel(user)}, nil
		}},

		{rpc.SubjectUserFindByEmail, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.FindUserByEmailRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.UserReply{}, nil
			}
			user, err := svc.GetByEmail(ctx, req.Email)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return rpc.UserReply{}, nil
				}
				return nil, err
			}
			return rpc.UserReply{User: rpc.UserFromModel(user)}, nil
		}},

		{rpc.SubjectUserFindByEmailPassword, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.CredentialsRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.UserReply{}, nil
			}
			user, err := svc.VerifyCredentials(ctx, req.Email, req.Password)
			if err != nil {
				if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInactiveUser) {
					return rpc.UserReply{}, nil
				}
				return nil, err
			}
			return rpc.UserReply{User: rpc.UserFromModel(user)}, nil
		}},

		{rpc.SubjectUserCreate, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.CreateUserRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.CreateUserReply{Success: false, Code: rpc.CodeInternalError}, nil
			}
			user, err := svc.Create(ctx, CreateInput{Email: req.Email, Name: req.Name, Password: req.Password})
			if err != nil {
				if errors.Is(err, ErrUserExists) {
					return rpc.CreateUserReply{Success: false, Code: rpc.CodeUserExists, Message: "User already exists"}, nil
				}
				logger.Error("user create failed", "error", err)
				return rpc.CreateUserReply{Success: false, Code: rpc.CodeInternalError}, nil
			}
			return rpc.CreateUserReply{Success: true, User: rpc.UserFromModel(user)}, nil
		}},

		{rpc.SubjectUserCreateByInvite, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.CreateUserByInviteRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.CreateUserReply{Success: false, Code: rpc.CodeInternalError}, nil
			}
			user, err := svc.CreateByInvite(ctx, req.Email, req.Name)
			if err != nil {
				logger.Error("invite provisioning failed", "email", req.Email, "error", err)
				return rpc.CreateUserReply{Success: false, Code: rpc.CodeInternalError}, nil
			}
			return rpc.CreateUserReply{Success: true, User: rpc.UserFromModel(user)}, nil
		}},

		{rpc.SubjectUserSendVerifyEmail, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.SendVerifyEmailRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.AckReply{Success: false, Code: rpc.CodeInternalError}, nil
			}
			if err := svc.SendVerificationEmail(ctx, req.UserID); err != nil {
				return ackFromError(err, logger), nil
			}
			return rpc.AckReply{Success: true}, nil
		}},

		{rpc.SubjectUserValidateEmailToken, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.ValidateEmailTokenRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.AckReply{Success: false, Code: rpc.CodeInternalError}, nil
			}
			if err := svc.ValidateEmailToken(ctx, req.Token); err != nil {
				return ackFromError(err, logger), nil
			}
			return rpc.AckReply{Success: true}, nil
		}},

		{rpc.SubjectUserForgotPassword, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.ForgotPasswordRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.AckReply{Success: false, Code: rpc.CodeInternalError}, nil
			}
			if err := svc.ForgotPassword(ctx, req.Email); err != nil {
				logger.Error("forgot password failed", "error", err)
				return rpc.AckReply{Success: false, Code: rpc.CodeInternalError}, nil
			}
			return rpc.AckReply{Success: true}, nil
		}},

		{rpc.SubjectUserValidateResetToken, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.ValidateResetTokenRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.AckReply{Success: false, Code: rpc.CodeInternalError}, nil
			}
			if _, err := svc.ValidateResetToken(ctx, req.Token); err != nil {
				return ackFromError(err, logger), nil
			}
			return rpc.AckReply{Success: true}, nil
		}},

		{rpc.SubjectUserResetPassword, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.ResetPasswordRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.AckReply{Success: false, Code: rpc.CodeInternalError}, nil
			}
			if err := svc.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
				return ackFromError(err, logger), nil
			}
			return rpc.AckReply{Success: true}, nil
		}},

		{rpc.SubjectUserDeleteAccount, func(ctx context.Context, data []byte) (any, error) {
			var req rpc.DeleteAccountRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return rpc.AckReply{Success: false, Code: rpc.CodeInternalError}, nil
			}
			if err := svc.DeleteAccount(ctx, req.UserID); err != nil {
				return ackFromError(err, logger), nil
			}
			return rpc.AckReply{Success: true}, nil
		}},
	}

	for _, h := range handlers {
		if _, err := b.Handle(h.subject, rpc.QueueUserDirectory, logger, h.fn); err != nil {
			return err
		}
	}

	// Last-login touches arrive as events; failures are logged, never
	// answered.
	_, err := b.Subscribe(rpc.SubjectUserTouchLastLogin, rpc.QueueUserDirectory, logger, func(ctx context.Context, data []byte) error {
		var evt rpc.TouchLastLoginEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return err
		}
		return svc.TouchLastLogin(ctx, evt.UserID)
	})
	return err
}

func ackFromError(err error, logger *slog.Logger) rpc.AckReply {
	switch {
	case errors.Is(err, ErrNotFound):
		return rpc.AckReply{Success: false, Code: rpc.CodeUserNotFound, Message: "User not found"}
	case errors.Is(err, ErrTokenNotFound):
		return rpc.AckReply{Success: false, Code: rpc.CodeTokenNotFound, Message: "Token not found"}
	case errors.Is(err, ErrTokenExpired):
		return rpc.AckReply{Success: false, Code: rpc.CodeTokenExpired, Message: "Token has expired"}
	case errors.Is(err, ErrAlreadyVerified):
		return rpc.AckReply{Success: false, Code: rpc.CodeBadRequest, Message: "Email already verified"}
	default:
		logger.Error("user directory operation failed", "error", err)
		return rpc.AckReply{Success: false, Code: rpc.CodeInternalError}
	}
}
