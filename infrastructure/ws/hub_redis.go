package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisHub fans alerts out across servers. Each server holds its local
// connections and publishes payloads for users connected elsewhere to
// the alerts channel of the server that owns them.
type RedisHub struct {
	clients map[string]*UserClient
	mu      sync.RWMutex

	redisClient *redis.Client
	pubsub      *redis.PubSub
	serverID    string

	register   chan *UserClient
	unregister chan *UserClient
}

type redisEnvelope struct {
	FromServerID string `json:"fromServerId"`
	ToUserID     string `json:"toUserId"`
	Payload      []byte `json:"payload"`
}

func NewRedisHub(redisAddr string, serverID string) IHub {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	hub := &RedisHub{
		clients:     make(map[string]*UserClient),
		redisClient: rdb,
		serverID:    serverID,
		register:    make(chan *UserClient),
		unregister:  make(chan *UserClient),
	}

	hub.pubsub = rdb.PSubscribe(context.Background(), "alerts:*")

	return hub
}

func (h *RedisHub) Run() {
	go h.subscribeRedis()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserId] = client
			h.mu.Unlock()

			// Record which server owns this user's connection.
			h.redisClient.Set(
				context.Background(),
				"user:"+client.UserId+":server",
				h.serverID,
				0,
			)

			log.Printf("[%s] %s subscribed to alerts", h.serverID, client.UserId)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.UserId]; ok {
				delete(h.clients, client.UserId)
				close(client.send)

				h.redisClient.Del(
					context.Background(),
					"user:"+client.UserId+":server",
				)

				log.Printf("[%s] %s unsubscribed from alerts", h.serverID, client.UserId)
			}
			h.mu.Unlock()
		}
	}
}

func (h *RedisHub) subscribeRedis() {
	ch := h.pubsub.Channel()

	log.Printf("[%s] Redis alert subscriber started", h.serverID)

	for msg := range ch {
		var envelope redisEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			log.Printf("Error unmarshaling Redis alert: %v", err)
			continue
		}

		// Ignore our own publications.
		if envelope.FromServerID == h.serverID {
			continue
		}

		h.sendLocal(envelope.ToUserID, envelope.Payload)
	}
}

func (h *RedisHub) RegisterClient(client *UserClient) {
	h.register <- client
}

func (h *RedisHub) UnregisterClient(client *UserClient) {
	h.unregister <- client
}

// SendToUser delivers locally when the user is connected to this
// server, otherwise publishes to the owning server's channel.
func (h *RedisHub) SendToUser(userId string, payload []byte) {
	h.mu.RLock()
	_, local := h.clients[userId]
	h.mu.RUnlock()

	if local {
		h.sendLocal(userId, payload)
		return
	}

	ctx := context.Background()
	serverID, err := h.redisClient.Get(ctx, "user:"+userId+":server").Result()
	if err != nil {
		// Not connected anywhere; the persisted alert is enough.
		return
	}

	envelope := redisEnvelope{
		FromServerID: h.serverID,
		ToUserID:     userId,
		Payload:      payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("Error marshaling Redis alert: %v", err)
		return
	}

	if err := h.redisClient.Publish(ctx, "alerts:"+serverID, data).Err(); err != nil {
		log.Printf("Error publishing Redis alert: %v", err)
	}
}

func (h *RedisHub) sendLocal(userId string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[userId]
	if !ok {
		return
	}

	select {
	case client.send <- payload:
	default:
		log.Printf("[%s] alert buffer full for %s, dropping", h.serverID, userId)
	}
}

func (h *RedisHub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
