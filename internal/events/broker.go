package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/voltride/rental-server-go/internal/redis"
)

const HeartbeatInterval = 30 * time.Second

// Ride lifecycle event types published by the engines.
const (
	TypePaired   = "ride.paired"
	TypeUnpaired = "ride.unpaired"
	TypeStarted  = "ride.started"
	TypeEnded    = "ride.ended"
)

type Event struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

type Client struct {
	Events chan Event
	Done   chan struct{}
}

// Broker fans ride events out to SSE clients. Events travel through redis
// pub/sub so every instance sees transitions committed by its peers.
type Broker struct {
	redis    *redisclient.Client
	clients  map[*Client]bool
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	listenMu sync.Once
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe() *Client {
	client := &Client{
		Events: make(chan Event, 100),
		Done:   make(chan struct{}),
	}

	b.mu.Lock()
	b.clients[client] = true
	clientCount := len(b.clients)
	b.mu.Unlock()

	b.listenMu.Do(func() { go b.listen() })

	log.Info().Int("clientCount", clientCount).Msg("ride event client subscribed")
	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client.Done)
		log.Info().Int("clientCount", len(b.clients)).Msg("ride event client unsubscribed")
	}
}

// Publish emits a ride event. Marshal failures are the caller's bug;
// redis failures surface so callers can log them, but engines treat
// publishing as fire-and-forget.
func (b *Broker) Publish(ctx context.Context, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	event := Event{Type: eventType, Data: payload, Timestamp: time.Now().UnixMilli()}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.redis.Publish(ctx, redisclient.RideEventChannel, raw).Err()
}

func (b *Broker) listen() {
	pubsub := b.redis.Subscribe(b.ctx, redisclient.RideEventChannel)
	defer pubsub.Close()

	log.Debug().Str("channel", redisclient.RideEventChannel).Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal ride event")
				continue
			}

			b.broadcast(event)
		}
	}
}

func (b *Broker) broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().Msg("ride event client buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for client := range b.clients {
		close(client.Done)
	}
	b.clients = make(map[*Client]bool)
}

func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
