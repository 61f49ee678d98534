package livefeed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blackmichael/lostify/internal/domain"
)

// Handler is called for every event received by a Subscriber.
type Handler func(ctx context.Context, event domain.PostEvent)

// Subscriber connects to a Lostify live feed and hands events to a handler.
type Subscriber struct {
	url     string
	types   []domain.PostType
	header  http.Header
	handler Handler
	logger  *slog.Logger
	backoff time.Duration
}

// NewSubscriber creates a subscriber for the feed at feedURL. When types is
// non-empty only posts of those types are streamed. header is sent with the
// websocket handshake and may carry gateway identity headers.
func NewSubscriber(
	feedURL string,
	types []domain.PostType,
	header http.Header,
	handler Handler,
	logger *slog.Logger,
) *Subscriber {
	return &Subscriber{
		url:     feedURL,
		types:   types,
		header:  header,
		handler: handler,
		logger:  logger,
		backoff: 5 * time.Second,
	}
}

// Start connects to the feed and processes events until the context is
// cancelled. It automatically reconnects on transient errors.
func (s *Subscriber) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := s.subscribe(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("live feed connection error, reconnecting", "error", err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(s.backoff):
					// backoff before reconnecting
				}
			}
		}
	}
}

func (s *Subscriber) buildURL() (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", fmt.Errorf("parse feed url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	q := u.Query()
	for _, t := range s.types {
		q.Add("type", string(t))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Subscriber) subscribe(ctx context.Context) error {
	wsURL, err := s.buildURL()
	if err != nil {
		return err
	}
	s.logger.Info("connecting to live feed", "url", wsURL)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, s.header)
	if err != nil {
		return fmt.Errorf("dial live feed: %w", err)
	}
	defer conn.Close()

	s.logger.Info("connected to live feed")

	// Unblock ReadMessage when the context is cancelled.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var eventsReceived int64
	lastStatsLog := time.Now()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read message: %w", err)
		}

		event, err := parseEvent(message)
		if err != nil {
			s.logger.Error("failed to parse event", "error", err)
			continue
		}

		eventsReceived++
		s.handler(ctx, *event)

		if time.Since(lastStatsLog) >= 30*time.Second {
			s.logger.Info("live feed stats", "events_received", eventsReceived)
			lastStatsLog = time.Now()
		}
	}
}
