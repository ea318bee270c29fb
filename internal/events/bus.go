// Package events carries change notifications from the record store to live
// observers. Delivery is at most once: there is no replay, no acknowledgment,
// and a subscriber whose buffer is full misses the event.
package events

import "sync"

// subscriberBufSize is the per-subscriber event buffer.
const subscriberBufSize = 32

// Event is one published notification.
type Event struct {
	Topic   string
	Payload []byte
}

// Bus is an in-process publish/subscribe fan-out. It satisfies
// store.Notifier.
type Bus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscription receives events for one topic until Close is called.
type Subscription struct {
	bus   *Bus
	topic string
	ch    chan Event
	once  sync.Once
}

// Subscribe registers a new subscriber for topic.
func (b *Bus) Subscribe(topic string) *Subscription {
	s := &Subscription{
		bus:   b,
		topic: topic,
		ch:    make(chan Event, subscriberBufSize),
	}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Publish delivers payload to every subscriber of topic without blocking.
func (b *Bus) Publish(topic string, payload []byte) {
	ev := Event{Topic: topic, Payload: append([]byte(nil), payload...)}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for s := range b.subs {
		if s.topic != topic {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			// Subscriber is behind; this event is lost to it.
		}
	}
}

// SubscriberCount returns the number of open subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// C returns the channel events arrive on. It is closed by Close.
func (s *Subscription) C() <-chan Event { return s.ch }

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
		close(s.ch)
	})
}
