// Package messaging publishes post events to NATS so other campus services
// (notification bots, search indexers) can react to new and resolved posts.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/blackmichael/lostify/internal/domain"
)

// SubjectPrefix is followed by the event type, e.g. "lostify.post.created".
const SubjectPrefix = "lostify.post."

// Subject returns the NATS subject for an event type.
func Subject(t domain.PostEventType) string {
	return SubjectPrefix + string(t)
}

// Config holds NATS connection settings.
type Config struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultConfig returns the connection settings for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:           url,
		Name:          "lostify",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// Publisher sends post events to NATS. It implements domain.EventPublisher.
type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

var _ domain.EventPublisher = (*Publisher)(nil)

// NewPublisher connects to NATS. It returns an error if the initial
// connection fails; later disconnects are retried in the background.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("nats connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	logger.Info("connected to nats", "url", nc.ConnectedUrl())

	return &Publisher{conn: nc, logger: logger}, nil
}

// PublishPostEvent encodes the event as JSON and publishes it on the
// subject for its type.
func (p *Publisher) PublishPostEvent(_ context.Context, event domain.PostEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode post event: %w", err)
	}
	if err := p.conn.Publish(Subject(event.Type), data); err != nil {
		return fmt.Errorf("nats publish %s: %w", Subject(event.Type), err)
	}
	return nil
}

// Subscribe calls handler for every post event published under the prefix.
// The returned function unsubscribes.
func (p *Publisher) Subscribe(handler func(domain.PostEvent)) (func() error, error) {
	sub, err := p.conn.Subscribe(SubjectPrefix+"*", func(msg *nats.Msg) {
		var event domain.PostEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			p.logger.Warn("dropping malformed post event", "subject", msg.Subject, "error", err)
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s*: %w", SubjectPrefix, err)
	}
	return sub.Unsubscribe, nil
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
