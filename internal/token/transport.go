package token

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/finnh/taskdeck/pkg/bus"
)

// RegisterHandlers subscribes the token service's two endpoints on the
// bus. The service is stateless, so both handlers are pure functions
// of their input.
func RegisterHandlers(b *bus.Bus, svc *JWTService, logger *slog.Logger) error {
	_, err := b.Handle(rpc.SubjectGenerateToken, rpc.QueueTokenService, logger, func(ctx context.Context, data []byte) (any, error) {
		var req rpc.GenerateTokenRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return rpc.GenerateTokenReply{Success: false, Code: rpc.CodeInternalError}, nil
		}

		tok, err := svc.Generate(rpc.UserClaims{ID: req.ID, Email: req.Email, Name: req.Name},
			time.Duration(req.TTLSeconds)*time.Second)
		if err != nil {
			logger.Error("token generation failed", "error", err)
			return rpc.GenerateTokenReply{Success: false, Code: rpc.CodeInternalError}, nil
		}
		return rpc.GenerateTokenReply{Success: true, Token: tok}, nil
	})
	if err != nil {
		return err
	}

	_, err = b.Handle(rpc.SubjectValidateToken, rpc.QueueTokenService, logger, func(ctx context.Context, data []byte) (any, error) {
		var req rpc.ValidateTokenRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return rpc.ValidateTokenReply{Success: false, Code: rpc.CodeTokenInvalid}, nil
		}

		claims, err := svc.Validate(req.Token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				return rpc.ValidateTokenReply{Success: false, Code: rpc.CodeTokenExpired}, nil
			}
			return rpc.ValidateTokenReply{Success: false, Code: rpc.CodeTokenInvalid}, nil
		}

		return rpc.ValidateTokenReply{
			Success: true,
			Data: &rpc.UserClaims{
				ID:    claims.UserID,
				Email: claims.Email,
				Name:  claims.Name,
			},
		}, nil
	})
	return err
}
