package stream

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// subscriberBuffer bounds how many frames a slow client can fall behind
// before updates are dropped for it.
const subscriberBuffer = 64

// Hub is the registry of connected stream clients. Publish fans a frame out
// to every subscriber without ever blocking: a client that cannot keep up
// loses frames rather than stalling the job pipeline.
type Hub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{})}
}

// Subscribe registers a new client and returns its frame channel along with
// an unsubscribe function. Unsubscribe is idempotent.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	log.Debug().Int("clients", count).Msg("stream client connected")

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			remaining := len(h.clients)
			h.mu.Unlock()
			log.Debug().Int("clients", remaining).Msg("stream client disconnected")
		})
	}
}

// Publish delivers one frame to every subscriber, dropping it for any client
// whose buffer is full.
func (h *Hub) Publish(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
			// Client is too far behind; skip it. Its own disconnect path
			// cleans up the registration.
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
