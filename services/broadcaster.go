package services

import (
	"sync"

	"go.uber.org/zap"

	"pawmi-triage-backend/models"
)

const subscriberBuffer = 32

// Broadcaster fans conversation messages out to live subscribers such as
// websocket connections and the WhatsApp relay.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]chan models.ChatMessage
	nextID uint64
	logger *zap.Logger
}

func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[string]map[uint64]chan models.ChatMessage),
		logger: logger.Named("broadcaster"),
	}
}

// Subscribe returns a channel of future messages for conversationID and a
// function that unsubscribes and closes it.
func (b *Broadcaster) Subscribe(conversationID string) (<-chan models.ChatMessage, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan models.ChatMessage, subscriberBuffer)
	if b.subs[conversationID] == nil {
		b.subs[conversationID] = make(map[uint64]chan models.ChatMessage)
	}
	b.subs[conversationID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.subs[conversationID]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(b.subs, conversationID)
				}
			}
			close(ch)
		})
	}
}

// Publish never blocks; a subscriber whose buffer is full misses the
// message.
func (b *Broadcaster) Publish(msg models.ChatMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs[msg.ConversationID] {
		select {
		case ch <- msg:
		default:
			b.logger.Warn("dropping message for slow subscriber",
				zap.String("conversation_id", msg.ConversationID),
				zap.Uint64("subscriber", id),
			)
		}
	}
}

// Subscribers reports how many listeners a conversation has.
func (b *Broadcaster) Subscribers(conversationID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[conversationID])
}
