// Package realtime fans group change notifications out to subscribers.
//
// Events are signals, not deltas: a subscriber that receives one re-fetches
// whatever it displays. Each subscription buffers a single event and a
// newer event replaces an undelivered one, so slow consumers never block
// publishers and never fall behind by more than one refresh.
package realtime

import (
	"context"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

type Event struct {
	Type    constants.EventType `json:"type"`
	GroupID string              `json:"group_id"`
	UserID  string              `json:"user_id,omitempty"`
	At      time.Time           `json:"at"`
}

// Broker publishes events and hands out per-group subscriptions.
type Broker interface {
	Publish(ctx context.Context, e Event) error
	// Subscribe returns a channel of events for groupID and a function
	// that cancels the subscription and closes the channel.
	Subscribe(groupID string) (<-chan Event, func())
}
