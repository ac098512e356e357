// Package ordering turns a checkout request into a stored order.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"feastly/internal/delivery"
	"feastly/internal/events"
	"feastly/internal/models"
)

var (
	ErrRestaurantClosed    = errors.New("restaurant is not accepting orders right now")
	ErrMenuItemNotFound    = &models.ValidationError{Field: "items", Message: "menu item not found"}
	ErrMenuItemUnavailable = &models.ValidationError{Field: "items", Message: "menu item is unavailable"}
	ErrBelowMinimumOrder   = &models.ValidationError{Field: "items", Message: "order is below the restaurant's minimum amount"}
	ErrInvalidStatus       = &models.ValidationError{Field: "status", Message: "Invalid status value"}
)

// Repository is the storage the service reads and writes
type Repository interface {
	GetRestaurantWithMenu(ctx context.Context, id uint, availableOnly bool) (*models.Restaurant, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID uint) ([]models.Order, error)
	ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error)
}

// Estimator produces the delivery estimate stored on each new order
type Estimator interface {
	Estimate(ctx context.Context, restaurantID uint) (delivery.Estimate, error)
}

// Metrics receives order pipeline observations
type Metrics interface {
	RecordEstimate(minutes float64, peak bool)
	RecordEstimateFailure(reason string)
	RecordOrderCreated(paymentMethod string)
	RecordStatusChange(status string)
}

// ItemRequest is one cart line
type ItemRequest struct {
	MenuItemID uint `json:"menuItemId" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,min=1"`
}

// PlaceOrderRequest is the checkout payload
type PlaceOrderRequest struct {
	RestaurantID        uint                 `json:"restaurantId" binding:"required"`
	Items               []ItemRequest        `json:"items" binding:"required,min=1,dive"`
	DeliveryAddress     models.Address       `json:"deliveryAddress"`
	PaymentMethod       models.PaymentMethod `json:"paymentMethod" binding:"required"`
	Card                *CardDetails         `json:"card,omitempty"`
	SpecialInstructions string               `json:"specialInstructions"`
}

// Service runs the order pipeline
type Service struct {
	repo      Repository
	estimator Estimator
	publisher events.Publisher
	metrics   Metrics
	taxRate   float64
	location  *time.Location
	now       func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithPublisher sets where order events go
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTaxRate sets the tax charged on the subtotal
func WithTaxRate(rate float64) Option {
	return func(s *Service) { s.taxRate = rate }
}

// WithLocation sets the zone used for opening hours
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an order service
func NewService(repo Repository, estimator Estimator, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		estimator: estimator,
		publisher: events.Discard{},
		metrics:   noopMetrics{},
		location:  time.Local,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder validates and prices a checkout, estimates its delivery time and
// stores it. Nothing is stored when any step fails.
func (s *Service) PlaceOrder(ctx context.Context, userID uint, req PlaceOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, models.NewValidationError("items", "order must contain at least one item")
	}
	if err := models.ValidateDeliveryAddress(&req.DeliveryAddress); err != nil {
		return nil, err
	}
	if err := models.ValidateSpecialInstructions(req.SpecialInstructions); err != nil {
		return nil, err
	}

	restaurant, err := s.repo.GetRestaurantWithMenu(ctx, req.RestaurantID, false)
	if errors.Is(err, models.ErrNotFound) {
		return nil, delivery.ErrRestaurantNotFound
	}
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.location)
	if !restaurant.IsOpenAt(now) {
		return nil, ErrRestaurantClosed
	}

	items, err := resolveItems(restaurant, req.Items)
	if err != nil {
		return nil, err
	}

	totals := PriceItems(items, s.taxRate, restaurant.DeliveryFee)
	if totals.Subtotal < restaurant.MinOrderAmount {
		return nil, fmt.Errorf("%w: minimum is %.2f", ErrBelowMinimumOrder, restaurant.MinOrderAmount)
	}

	paymentID, err := authorizePayment(req.PaymentMethod, req.Card, now)
	if err != nil {
		return nil, err
	}

	estimate, err := s.estimator.Estimate(ctx, restaurant.ID)
	if err != nil {
		s.metrics.RecordEstimateFailure(failureReason(err))
		return nil, err
	}
	s.metrics.RecordEstimate(estimate.Minutes, estimate.Peak)

	order := &models.Order{
		UserID:                userID,
		RestaurantID:          restaurant.ID,
		Items:                 items,
		Subtotal:              totals.Subtotal,
		Tax:                   totals.Tax,
		DeliveryFee:           totals.DeliveryFee,
		Total:                 totals.Total,
		Status:                models.OrderStatusPending,
		DeliveryAddress:       req.DeliveryAddress,
		PaymentMethod:         req.PaymentMethod,
		PaymentID:             paymentID,
		EstimatedDeliveryTime: estimate.DeliveryAt,
		SpecialInstructions:   req.SpecialInstructions,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.metrics.RecordOrderCreated(string(order.PaymentMethod))
	s.publish(ctx, events.NewEvent(events.OrderCreated, order))

	log.Printf("order %d placed at restaurant %d: %d active, peak=%t, %.1f min",
		order.ID, restaurant.ID, estimate.ActiveOrders, estimate.Peak, estimate.Minutes)
	return order, nil
}

// resolveItems snapshots each requested dish, merging repeated lines
func resolveItems(restaurant *models.Restaurant, requested []ItemRequest) ([]models.OrderItem, error) {
	var items []models.OrderItem
	index := make(map[uint]int)

	for _, line := range requested {
		if line.Quantity < 1 {
			return nil, models.NewValidationError("items", "quantity must be at least 1")
		}
		if i, ok := index[line.MenuItemID]; ok {
			items[i].Quantity += line.Quantity
			continue
		}

		dish := restaurant.FindMenuItem(line.MenuItemID)
		if dish == nil {
			return nil, fmt.Errorf("%w: %d", ErrMenuItemNotFound, line.MenuItemID)
		}
		if !dish.Available {
			return nil, fmt.Errorf("%w: %s", ErrMenuItemUnavailable, dish.Name)
		}

		index[line.MenuItemID] = len(items)
		items = append(items, models.OrderItem{
			MenuItemID: dish.ID,
			Name:       dish.Name,
			Price:      dish.Price,
			Quantity:   line.Quantity,
		})
	}
	return items, nil
}

// GetOrder loads one order
func (s *Service) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListUserOrders lists a customer's orders, newest first
func (s *Service) ListUserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.repo.ListUserOrders(ctx, userID)
}

// ListOrders lists all orders for the admin panel
func (s *Service) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListOrders(ctx, status)
}

// UpdateStatus moves an order to a new status. The delivery estimate is kept as is.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	order, err := s.repo.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordStatusChange(string(status))
	s.publish(ctx, events.NewEvent(events.OrderStatusChanged, order))
	return order, nil
}

func (s *Service) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Printf("failed to publish %s for order %d: %v", evt.Type, evt.OrderID, err)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, delivery.ErrRestaurantNotFound):
		return "restaurant_not_found"
	case models.IsValidationError(err):
		return "invalid_restaurant"
	default:
		return "storage"
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordEstimate(float64, bool) {}
func (noopMetrics) RecordEstimateFailure(string) {}
func (noopMetrics) RecordOrderCreated(string)    {}
func (noopMetrics) RecordStatusChange(string)    {}
