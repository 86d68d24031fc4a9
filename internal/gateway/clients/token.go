package clients

import (
	"context"

	"github.com/finnh/taskdeck/internal/rpc"
)

// TokenClient talks to the token service.
type TokenClient struct {
	base
}

func (c *TokenClient) Generate(ctx context.Context, claims rpc.UserClaims) (string, error) {
	var reply rpc.GenerateTokenReply
	err := c.request(ctx, rpc.SubjectGenerateToken, rpc.GenerateTokenRequest{
		ID:    claims.ID,
		Email: claims.Email,
		Name:  claims.Name,
	}, &reply)
	if err != nil {
		return "", err
	}
	return reply.Token, nil
}

// Validate checks a bearer token. The reply's Code distinguishes an
// expired token from any other invalidity.
func (c *TokenClient) Validate(ctx context.Context, token string) (*rpc.ValidateTokenReply, error) {
	var reply rpc.ValidateTokenReply
	if err := c.request(ctx, rpc.SubjectValidateToken, rpc.ValidateTokenRequest{Token: token}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
