package events

import (
	"log"
	"sync"

	"choiros-backend/internal/models"
)

// Bus fans SyncMessages out to local listeners such as the station UI.
// Slow subscribers lose messages instead of blocking the publisher.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan models.SyncMessage
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan models.SyncMessage)}
}

// Subscribe returns a channel of messages and a function that closes it.
func (b *Bus) Subscribe(buffer int) (<-chan models.SyncMessage, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan models.SyncMessage, buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish delivers msg to every subscriber with room in its buffer.
func (b *Bus) Publish(msg models.SyncMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			log.Printf("[EventBus] Subscriber %d is full, dropping %s", id, msg.Type)
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
