// Package realtime pushes created notifications to connected clients.
package realtime

import (
	"context"
	"sync"

	"github.com/skillsync/skillsync/internal/store"
)

const EventNotificationCreated = "notification.created"

// Event is the message carried on the bus.
type Event struct {
	Event        string             `json:"event"`
	RecipientID  string             `json:"recipient_id"`
	Notification store.Notification `json:"notification"`
}

// Bus publishes events and delivers them to subscribers.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe calls onEvent for every event until ctx is done. It returns
	// once the subscription is active.
	Subscribe(ctx context.Context, onEvent func(Event)) error
	Close() error
}

// NotificationEvent wraps a stored notification for publishing.
func NotificationEvent(n store.Notification) Event {
	return Event{Event: EventNotificationCreated, RecipientID: n.RecipientID, Notification: n}
}

// LocalBus delivers events to subscribers in the same process. It is used
// when no Redis server is configured.
type LocalBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]func(Event))}
}

func (b *LocalBus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.subs {
		fn(ev)
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, onEvent func(Event)) error {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = onEvent
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}()
	return nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	clear(b.subs)
	b.mu.Unlock()
	return nil
}
