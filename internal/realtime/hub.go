// Package realtime pushes console state to browser windows over WebSocket
// and serves search-as-you-type on the same socket.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"go-pos-console/internal/search"
)

// Message is the envelope for everything sent to a window.
type Message struct {
	Type    string `json:"type"`
	Keyword string `json:"keyword,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	quit       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex

	searcher Searcher
	delay    time.Duration
}

// NewHub returns a hub whose clients search through s. A zero delay uses
// search.DefaultDelay.
func NewHub(s Searcher, delay time.Duration) *Hub {
	if delay <= 0 {
		delay = search.DefaultDelay
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		quit:       make(chan struct{}),
		searcher:   s,
		delay:      delay,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				c.close()
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if !c.push(data) {
					// slow window, drop it
					delete(h.clients, c)
					c.close()
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				c.close()
			}
			h.clients = map[*Client]bool{}
			h.mu.Unlock()
			return
		}
	}
}

// Stop ends Run and closes every client. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Publish sends a message to every connected window.
func (h *Hub) Publish(kind string, data any) {
	raw, err := json.Marshal(Message{Type: kind, Data: data})
	if err != nil {
		log.Printf("realtime: marshal %s: %v", kind, err)
		return
	}
	select {
	case h.broadcast <- raw:
	case <-h.quit:
	}
}

// Count reports the connected windows.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
