package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/rptl/internal/logfields"
)

// statusKey is the KV key holding the latest status snapshot.
const statusKey = "status"

// Connect dials NATS with reconnect handling suited to a long-running daemon.
// An unreachable server is not an error: the connection keeps retrying in the
// background and subscriptions take effect once it is up.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("rptl"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// Dial connects once and fails fast, for short-lived clients.
func Dial(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name("rptl-ctl"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// NATSTransport receives commands as NATS requests on one subject.
type NATSTransport struct {
	sub     *nats.Subscription
	subject string
}

// NewNATSTransport subscribes to subject on conn.
func NewNATSTransport(conn *nats.Conn, subject string) (*NATSTransport, error) {
	sub, err := conn.SubscribeSync(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	slog.Info("Control channel listening", "subject", subject)
	return &NATSTransport{sub: sub, subject: subject}, nil
}

// Receive returns the next well-formed command. Malformed messages are
// answered with an error response and skipped.
func (t *NATSTransport) Receive(ctx context.Context) (*Request, error) {
	for {
		msg, err := t.sub.NextMsgWithContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				return nil, fmt.Errorf("%w: %w", ErrTransportClosed, err)
			}
			if errors.Is(err, nats.ErrSlowConsumer) {
				slog.WarnContext(ctx, "Control messages dropped", "subject", t.subject, logfields.Error(err))
				continue
			}
			return nil, err
		}

		respond := func(r Response) error {
			if msg.Reply == "" {
				return nil
			}
			data, err := r.Encode()
			if err != nil {
				return err
			}
			return msg.Respond(data)
		}

		cmd, err := ParseCommand(msg.Data)
		if err != nil {
			slog.WarnContext(ctx, "Malformed control message", "subject", t.subject, logfields.Error(err))
			if rerr := respond(Response{ID: cmd.ID, OK: false, Error: err.Error()}); rerr != nil {
				slog.WarnContext(ctx, "Failed to send control response", logfields.Error(rerr))
			}
			continue
		}
		return &Request{Command: cmd, Respond: respond}, nil
	}
}

// Close unsubscribes.
func (t *NATSTransport) Close() error {
	return t.sub.Unsubscribe()
}

// KVStatusPublisher keeps the latest status in a JetStream key-value bucket.
type KVStatusPublisher struct {
	kv jetstream.KeyValue
}

// NewKVStatusPublisher opens or creates bucket.
func NewKVStatusPublisher(ctx context.Context, conn *nats.Conn, bucket string) (*KVStatusPublisher, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return &KVStatusPublisher{kv: kv}, nil
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "rptl daemon status",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create KV bucket: %w", err)
	}
	slog.Info("Created KV bucket for status", "bucket", bucket)
	return &KVStatusPublisher{kv: kv}, nil
}

func (p *KVStatusPublisher) PublishStatus(ctx context.Context, st Status) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if _, err := p.kv.Put(ctx, statusKey, data); err != nil {
		return fmt.Errorf("failed to store status: %w", err)
	}
	return nil
}
