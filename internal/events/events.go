// Package events carries order lifecycle notifications to websocket clients,
// other service instances (Redis) and downstream consumers (Kafka).
package events

import (
	"context"
	"errors"
	"time"

	"feastly/internal/models"
)

// EventType names what happened to an order
type EventType string

const (
	OrderCreated       EventType = "order.created"
	OrderStatusChanged EventType = "order.status_changed"

	// OrderSnapshot is sent locally to a tracking client when it connects
	OrderSnapshot EventType = "order.snapshot"
)

// Event is a single order notification
type Event struct {
	Type                  EventType          `json:"type"`
	OrderID               uint               `json:"orderId"`
	RestaurantID          uint               `json:"restaurantId"`
	Status                models.OrderStatus `json:"status"`
	EstimatedDeliveryTime time.Time          `json:"estimatedDeliveryTime"`
	At                    time.Time          `json:"at"`
}

// NewEvent builds an event describing order's current state
func NewEvent(t EventType, order *models.Order) Event {
	return Event{
		Type:                  t,
		OrderID:               order.ID,
		RestaurantID:          order.RestaurantID,
		Status:                order.Status,
		EstimatedDeliveryTime: order.EstimatedDeliveryTime,
		At:                    time.Now().UTC(),
	}
}

// Publisher delivers events somewhere
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Fanout publishes every event to all of its publishers
type Fanout []Publisher

// Publish tries every publisher and joins their errors
func (f Fanout) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event
type Discard struct{}

// Publish implements Publisher
func (Discard) Publish(context.Context, Event) error { return nil }
