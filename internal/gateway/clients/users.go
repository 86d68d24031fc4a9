package clients

import (
	"context"

	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/google/uuid"
)

// UserClient talks to the user directory. Lookup methods return a nil
// user for "no match"; a non-nil error always means the call itself
// failed.
type UserClient struct {
	base
}

func (c *UserClient) FindByID(ctx context.Context, id uuid.UUID) (*rpc.User, error) {
	var reply rpc.UserReply
	if err := c.request(ctx, rpc.SubjectUserFindByID, rpc.FindUserByIDRequest{ID: id}, &reply); err != nil {
		return nil, err
	}
	return reply.User, nil
}

func (c *UserClient) FindByEmail(ctx context.Context, email string) (*rpc.User, error) {
	var reply rpc.UserReply
	if err := c.request(ctx, rpc.SubjectUserFindByEmail, rpc.FindUserByEmailRequest{Email: email}, &reply); err != nil {
		return nil, err
	}
	return reply.User, nil
}

// VerifyCredentials returns the matching active user, or nil when the
// email/password pair does not resolve to one.
func (c *UserClient) VerifyCredentials(ctx context.Context, email, password string) (*rpc.User, error) {
	var reply rpc.UserReply
	err := c.request(ctx, rpc.SubjectUserFindByEmailPassword,
		rpc.CredentialsRequest{Email: email, Password: password}, &reply)
	if err != nil {
		return nil, err
	}
	return reply.User, nil
}

func (c *UserClient) Create(ctx context.Context, email, name, password string) (*rpc.CreateUserReply, error) {
	var reply rpc.CreateUserReply
	err := c.request(ctx, rpc.SubjectUserCreate,
		rpc.CreateUserRequest{Email: email, Name: name, Password: password}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *UserClient) SendVerifyEmail(ctx context.Context, userID uuid.UUID) (*rpc.AckReply, error) {
	var reply rpc.AckReply
	if err := c.request(ctx, rpc.SubjectUserSendVerifyEmail, rpc.SendVerifyEmailRequest{UserID: userID}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *UserClient) ValidateEmailToken(ctx context.Context, token string) (*rpc.AckReply, error) {
	var reply rpc.AckReply
	if err := c.request(ctx, rpc.SubjectUserValidateEmailToken, rpc.ValidateEmailTokenRequest{Token: token}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *UserClient) ForgotPassword(ctx context.Context, email string) (*rpc.AckReply, error) {
	var reply rpc.AckReply
	if err := c.request(ctx, rpc.SubjectUserForgotPassword, rpc.ForgotPasswordRequest{Email: email}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *UserClient) ValidateResetToken(ctx context.Context, token string) (*rpc.AckReply, error) {
	var reply rpc.AckReply
	if err := c.request(ctx, rpc.SubjectUserValidateResetToken, rpc.ValidateResetTokenRequest{Token: token}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *UserClient) ResetPassword(ctx context.Context, token, newPassword string) (*rpc.AckReply, error) {
	var reply rpc.AckReply
	err := c.request(ctx, rpc.SubjectUserResetPassword,
		rpc.ResetPasswordRequest{Token: token, NewPassword: newPassword}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *UserClient) DeleteAccount(ctx context.Context, userID uuid.UUID) (*rpc.AckReply, error) {
	var reply rpc.AckReply
	if err := c.request(ctx, rpc.SubjectUserDeleteAccount, rpc.DeleteAccountRequest{UserID: userID}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// TouchLastLogin emits the last-login event without waiting for an
// answer. Login must not fail because the stamp could not be written.
func (c *UserClient) TouchLastLogin(userID uuid.UUID) error {
	return c.bus.Publish(rpc.SubjectUserTouchLastLogin, rpc.TouchLastLoginEvent{UserID: userID})
}
