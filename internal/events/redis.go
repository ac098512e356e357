package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisChannelPrefix = "orders:"

// RedisBroker publishes events over Redis Pub/Sub and relays every event seen
// on the bus into a local Hub, so websocket clients connected to any instance
// hear about changes made on another.
type RedisBroker struct {
	rdb *redis.Client
	hub *Hub
}

// NewRedisBroker connects using a redis:// URL
func NewRedisBroker(url string, hub *Hub) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisBroker{rdb: redis.NewClient(opt), hub: hub}, nil
}

// Ping checks the connection
func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// Publish sends evt on the order's channel
func (b *RedisBroker) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.rdb.Publish(ctx, ChannelName(evt.OrderID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event for order %d: %w", evt.OrderID, err)
	}
	return nil
}

// Run relays bus events into the hub until ctx is cancelled
func (b *RedisBroker) Run(ctx context.Context) error {
	ps := b.rdb.PSubscribe(ctx, redisChannelPrefix+"*")
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to order events: %w", err)
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			evt, err := DecodeEvent(msg.Channel, []byte(msg.Payload))
			if err != nil {
				log.Printf("events: %v", err)
				continue
			}
			b.hub.Publish(ctx, evt)
		}
	}
}

// Close closes the client
func (b *RedisBroker) Close() error {
	return b.rdb.Close()
}

// ChannelName is the Pub/Sub channel carrying one order's events
func ChannelName(orderID uint) string {
	return fmt.Sprintf("%s%d", redisChannelPrefix, orderID)
}

// DecodeEvent parses a bus message
func DecodeEvent(channel string, payload []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return Event{}, fmt.Errorf("malformed event on %s: %w", channel, err)
	}
	if !strings.HasPrefix(channel, redisChannelPrefix) || evt.OrderID == 0 {
		return Event{}, fmt.Errorf("unexpected event on %s", channel)
	}
	return evt, nil
}
