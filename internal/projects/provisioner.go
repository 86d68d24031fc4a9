package projects

import (
	"context"

	"github.com/finnh/taskdeck/internal/rpc"
	"github.com/finnh/taskdeck/pkg/bus"
	"github.com/google/uuid"
)

// BusUserDirectory reaches the user directory over NATS.
type BusUserDirectory struct {
	bus *bus.Bus
}

func NewBusUserDirectory(b *bus.Bus) *BusUserDirectory {
	return &BusUserDirectory{bus: b}
}

var _ UserDirectory = (*BusUserDirectory)(nil)

func (d *BusUserDirectory) FindByID(ctx context.Context, id uuid.UUID) (*rpc.User, error) {
	var reply rpc.UserReply
	if err := d.bus.Request(ctx, rpc.SubjectUserFindByID, rpc.FindUserByIDRequest{ID: id}, &reply); err != nil {
		return nil, err
	}
	return reply.User, nil
}

func (d *BusUserDirectory) CreateByInvite(ctx context.Context, email, name string) (*rpc.User, error) {
	var reply rpc.CreateUserReply
	err := d.bus.Request(ctx, rpc.SubjectUserCreateByInvite,
		rpc.CreateUserByInviteRequest{Email: email, Name: name}, &reply)
	if err != nil {
		return nil, err
	}
	if !reply.Success || reply.User == nil {
		return nil, ErrProvisionFailed
	}
	return reply.User, nil
}
