// Package clients provides the gateway's typed views of the directory
// services. Each call is one bus round trip bounded by the configured
// request timeout; transport failures surface as bus.ErrUnavailable
// and are never folded into business replies.
package clients

import (
	"context"
	"time"

	"github.com/finnh/taskdeck/pkg/bus"
)

const DefaultTimeout = 5 * time.Second

type base struct {
	bus     *bus.Bus
	timeout time.Duration
}

func (c base) request(ctx context.Context, subject string, req, resp any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.bus.Request(ctx, subject, req, resp)
}

// New builds the full client set sharing one connection and timeout.
func New(b *bus.Bus, timeout time.Duration) (*TokenClient, *UserClient, *ProjectClient) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	shared := base{bus: b, timeout: timeout}
	return &TokenClient{shared}, &UserClient{shared}, &ProjectClient{shared}
}
