// Package events fans profile-change notifications out to live subscribers,
// so front ends can refresh their MCU and motor lists without polling.
package events

import (
	"sync"
	"time"
)

// Event types.
const (
	TypeCreated            = "created"
	TypeUpdated            = "updated"
	TypeDeleted            = "deleted"
	TypeAssociated         = "associated"
	TypeCalibrated         = "calibrated"
	TypeCalibrationCleared = "calibration_cleared"
	TypeImported           = "imported"
	TypeRestored           = "restored"
)

// Event entities.
const (
	EntityMCU   = "mcu"
	EntityMotor = "motor"
	// EntityCollection marks whole-store changes (import, backup restore).
	EntityCollection = "collection"
)

// Event describes one profile change.
type Event struct {
	Type   string    `json:"type"`
	Entity string    `json:"entity"`
	ID     string    `json:"id,omitempty"`
	Name   string    `json:"name,omitempty"`
	At     time.Time `json:"at"`
}

// subscriberBuffer is the per-subscriber queue depth before events are
// dropped.
const subscriberBuffer = 16

// Broker delivers events to subscribers without ever blocking the publisher.
// A subscriber that falls behind loses events rather than stalling mutations.
type Broker struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber and returns its channel. The caller
// must Unsubscribe when done.
func (b *Broker) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish sends the event to every subscriber, stamping At when unset.
func (b *Broker) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Full buffer; the subscriber is too slow, drop.
		}
	}
}

// SubscriberCount reports how many subscribers are attached.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
