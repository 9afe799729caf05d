package host

import (
	"context"
	"log/slog"
	"sync"

	goSpace "github.com/MrEthical07/goSpace"
	"github.com/google/uuid"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

type subscriber struct {
	caller string
	ch     chan goSpace.Event
}

// Broadcaster fans Engine notifications out to the /events streams. It
// implements goSpace.NotificationSink.
//
// An event that names a caller is delivered only to that caller's
// subscriptions; session events reach everyone.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]subscriber
	closed      bool
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]subscriber),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers caller for notifications. The subscription is removed
// when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, caller string) (<-chan goSpace.Event, string) {
	subID := uuid.New().String()
	ch := make(chan goSpace.Event, subscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, subID
	}
	b.subscribers[subID] = subscriber{caller: caller, ch: ch}
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "caller", caller, "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Emit publishes event without blocking; full subscribers miss it.
func (b *Broadcaster) Emit(_ context.Context, event goSpace.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subscribers {
		if event.Caller != "" && event.Caller != sub.caller {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.logger.Debug("dropped event for slow subscriber", "sub_id", id, "event_id", event.ID)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subscribers[subID]
	if !ok {
		return
	}
	delete(b.subscribers, subID)
	close(sub.ch)

	b.logger.Debug("subscriber removed", "caller", sub.caller, "sub_id", subID)
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscriber channel; later subscriptions get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
	b.closed = true
}
