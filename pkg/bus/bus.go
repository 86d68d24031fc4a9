package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// ErrUnavailable reports that a downstream service did not answer in
// time (or has no listeners at all). Callers must not treat it as a
// business-level "not found".
var ErrUnavailable = errors.New("service unavailable")

// Bus wraps a core NATS connection for point-to-point request/reply
// between the gateway and the directory services.
type Bus struct {
	conn *nats.Conn
}

// Connect dials the given NATS endpoint.
func Connect(url string, opts ...nats.Option) (*Bus, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &Bus{conn: nc}, nil
}

// Close drains and shuts down the underlying connection.
func (b *Bus) Close() {
	if b == nil || b.conn == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}

// Connected reports whether the underlying connection is currently
// established.
func (b *Bus) Connected() bool {
	return b != nil && b.conn != nil && b.conn.IsConnected()
}

// Request sends req as JSON to subject and decodes the reply into
// resp. Timeouts and missing responders are classified as
// ErrUnavailable; the context deadline bounds the round trip.
func (b *Bus) Request(ctx context.Context, subject string, req, resp any) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", subject, err)
	}

	msg, err := b.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) ||
			errors.Is(err, nats.ErrNoResponders) ||
			errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", subject, ErrUnavailable)
		}
		return fmt.Errorf("%s request: %w", subject, err)
	}

	if resp == nil {
		return nil
	}
	if err := json.Unmarshal(msg.Data, resp); err != nil {
		return fmt.Errorf("decoding %s reply: %w", subject, err)
	}
	return nil
}

// Publish sends v as JSON to subject without waiting for a reply.
// Used for fire-and-forget events such as last-login touches.
func (b *Bus) Publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", subject, err)
	}
	return b.conn.Publish(subject, data)
}

// HandlerFunc answers a single subject. The returned value is encoded
// as JSON and sent back to the requester; a nil value with a nil error
// acknowledges without a body (event subscriptions).
type HandlerFunc func(ctx context.Context, data []byte) (any, error)

// Handle subscribes to subject within the given queue group so that
// multiple instances of a directory share the load. Handler errors are
// logged; the requester sees them only as a timeout, so handlers are
// expected to encode failures into their reply types instead.
func (b *Bus) Handle(subject, queue string, logger *slog.Logger, fn HandlerFunc) (*nats.Subscription, error) {
	return b.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		reply, err := fn(context.Background(), msg.Data)
		if err != nil {
			logger.Error("rpc handler failed", "subject", subject, "error", err)
			return
		}
		if msg.Reply == "" || reply == nil {
			return
		}
		data, err := json.Marshal(reply)
		if err != nil {
			logger.Error("rpc reply encoding failed", "subject", subject, "error", err)
			return
		}
		if err := msg.Respond(data); err != nil {
			logger.Error("rpc respond failed", "subject", subject, "error", err)
		}
	})
}

// Subscribe registers an event listener (no reply) in a queue group.
func (b *Bus) Subscribe(subject, queue string, logger *slog.Logger, fn func(ctx context.Context, data []byte) error) (*nats.Subscription, error) {
	return b.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		if err := fn(context.Background(), msg.Data); err != nil {
			logger.Error("event handler failed", "subject", subject, "error", err)
		}
	})
}
