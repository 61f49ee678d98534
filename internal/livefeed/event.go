package livefeed

import (
	"encoding/json"
	"fmt"

	"github.com/blackmichael/lostify/internal/domain"
)

func encodeEvent(event domain.PostEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode post event: %w", err)
	}
	return data, nil
}

func parseEvent(data []byte) (*domain.PostEvent, error) {
	var event domain.PostEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}

	switch event.Type {
	case domain.PostCreated, domain.PostUpdated, domain.PostResolved, domain.PostDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", event.Type)
	}
	if event.Post.ID == "" {
		return nil, fmt.Errorf("%s event without post id", event.Type)
	}
	return &event, nil
}
