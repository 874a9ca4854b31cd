package notify

import (
	"fmt"

	"github.com/expenso-dev/expenso/internal/types"
)

// Deliverer is the live side of the pipeline, implemented by Hub.
type Deliverer interface {
	Deliver(userID uint, event string, payload types.NotificationPayload)
}

// Publisher ties the store and the hub together: every notification is
// persisted first, then fanned out to the owner's live connections. The
// persisted record is the source of truth; a client that misses the push
// picks the record up on its next historical fetch.
type Publisher struct {
	store Store
	hub   Deliverer
}

func NewPublisher(store Store, hub Deliverer) *Publisher {
	return &Publisher{store: store, hub: hub}
}

// Publish persists a new notification for owner and pushes it to every
// bound connection. If the store rejects the write, nothing is delivered:
// a payload must never reach a client without a matching persisted record.
func (p *Publisher) Publish(owner uint, message string, category types.Category) error {
	if owner == 0 {
		return fmt.Errorf("publish: missing owner")
	}

	record, err := p.store.Create(owner, message, category)

	if err != nil {
		return fmt.Errorf("publish: persist notification: %w", err)
	}

	p.hub.Deliver(owner, types.EventName(category, types.ActionCreated), record.Payload())

	return nil
}

// MarkRead flips the record's read flag and pushes the updated record to
// the owner's connections so every open tab converges.
func (p *Publisher) MarkRead(id uint) error {
	record, err := p.store.MarkRead(id)

	if err != nil {
		return fmt.Errorf("publish: mark notification read: %w", err)
	}

	p.hub.Deliver(record.UserID, types.EventName(record.Category, types.ActionUpdated), record.Payload())

	return nil
}
