package messaging

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/blackmichael/lostify/internal/domain"
)

func TestSubject(t *testing.T) {
	tests := map[domain.PostEventType]string{
		domain.PostCreated:  "lostify.post.created",
		domain.PostUpdated:  "lostify.post.updated",
		domain.PostResolved: "lostify.post.resolved",
		domain.PostDeleted:  "lostify.post.deleted",
	}
	for eventType, want := range tests {
		if got := Subject(eventType); got != want {
			t.Errorf("Subject(%q) = %q, want %q", eventType, got, want)
		}
	}
}

// TestPublishSubscribe requires a NATS server on localhost:4222.
func TestPublishSubscribe(t *testing.T) {
	cfg := DefaultConfig("nats://localhost:4222")
	cfg.MaxReconnects = 0
	pub, err := NewPublisher(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Skipf("nats not available: %v", err)
	}
	defer pub.Close()

	received := make(chan domain.PostEvent, 1)
	unsubscribe, err := pub.Subscribe(func(e domain.PostEvent) { received <- e })
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	defer unsubscribe()

	event := domain.PostEvent{
		Type: domain.PostResolved,
		Post: domain.Post{ID: "p1", Type: domain.PostTypeLost, Title: "Umbrella"},
		At:   time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	if err := pub.PublishPostEvent(context.Background(), event); err != nil {
		t.Fatalf("PublishPostEvent() error: %v", err)
	}

	select {
	case got := <-received:
		if got.Type != event.Type || got.Post.ID != "p1" || !got.At.Equal(event.At) {
			t.Errorf("expected %+v, got %+v", event, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}
