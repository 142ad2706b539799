package ws

import (
	"log"
	"sync"
)

// Hub is the single-server alert hub: a map of connected users fed by
// register/unregister channels.
type Hub struct {
	clients    map[string]*UserClient
	register   chan *UserClient
	unregister chan *UserClient
	mu         sync.RWMutex
}

func NewHub() IHub {
	return &Hub{
		clients:    make(map[string]*UserClient),
		register:   make(chan *UserClient),
		unregister: make(chan *UserClient),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserId] = client
			h.mu.Unlock()
			log.Printf("%s subscribed to alerts", client.UserId)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.UserId]; ok {
				delete(h.clients, client.UserId)
				close(client.send)
				log.Printf("%s unsubscribed from alerts", client.UserId)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) RegisterClient(client *UserClient) {
	h.register <- client
}

func (h *Hub) UnregisterClient(client *UserClient) {
	h.unregister <- client
}

// SendToUser delivers a payload to the user's connection if present.
// Offline users are skipped; alerts are persisted separately.
func (h *Hub) SendToUser(userId string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[userId]
	if !ok {
		return
	}

	select {
	case client.send <- payload:
	default:
		log.Printf("alert buffer full for %s, dropping", userId)
	}
}

func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
