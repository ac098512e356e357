// Package delivery estimates when a new order will reach the customer.
//
// An estimate starts from the restaurant's base delivery time, adds a fixed
// penalty for every order the kitchen is still working on, and stretches the
// result during lunch and dinner peaks. It is computed once, just before an
// order is stored, and is never recomputed afterwards.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feastly/internal/models"
)

const (
	// DefaultMinutesPerActiveOrder is added for every pending or preparing order
	DefaultMinutesPerActiveOrder = 2
	// DefaultPeakMultiplier stretches estimates made during a peak window
	DefaultPeakMultiplier = 1.5
)

// ErrRestaurantNotFound is returned when the order references an unknown restaurant.
// Order creation must abort without saving anything.
var ErrRestaurantNotFound = &models.ValidationError{Field: "restaurant", Message: "Restaurant not found"}

// Source is the read-only view of storage the estimator needs
type Source interface {
	GetRestaurant(ctx context.Context, id uint) (*models.Restaurant, error)
	CountActiveOrders(ctx context.Context, restaurantID uint, statuses ...models.OrderStatus) (int, error)
}

// Estimate is the outcome of one estimation
type Estimate struct {
	RestaurantID uint      `json:"restaurantId"`
	BaseMinutes  int       `json:"baseMinutes"`
	ActiveOrders int       `json:"activeOrders"`
	Peak         bool      `json:"peak"`
	Minutes      float64   `json:"estimatedMinutes"`
	DeliveryAt   time.Time `json:"estimatedDeliveryTime"`
}

// Estimator computes delivery estimates for new orders
type Estimator struct {
	source         Source
	now            func() time.Time
	location       *time.Location
	perActiveOrder float64
	multiplier     float64
	windows        PeakSchedule
}

// Option configures an Estimator
type Option func(*Estimator)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) { e.now = now }
}

// WithLocation sets the time zone whose wall-clock hour decides peak time
func WithLocation(loc *time.Location) Option {
	return func(e *Estimator) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithMinutesPerActiveOrder overrides the per-order load penalty
func WithMinutesPerActiveOrder(minutes float64) Option {
	return func(e *Estimator) { e.perActiveOrder = minutes }
}

// WithPeakMultiplier overrides the peak stretch factor
func WithPeakMultiplier(m float64) Option {
	return func(e *Estimator) { e.multiplier = m }
}

// WithPeakSchedule replaces the default lunch and dinner windows
func WithPeakSchedule(windows PeakSchedule) Option {
	return func(e *Estimator) { e.windows = windows }
}

// NewEstimator creates an estimator reading from source
func NewEstimator(source Source, opts ...Option) *Estimator {
	e := &Estimator{
		source:         source,
		now:            time.Now,
		location:       time.Local,
		perActiveOrder: DefaultMinutesPerActiveOrder,
		multiplier:     DefaultPeakMultiplier,
		windows:        DefaultPeakSchedule,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate looks up the restaurant and its current backlog and returns the
// estimated delivery time for an order placed now.
//
// Two orders created at the same instant may read the same backlog; the
// estimate is approximate by nature and no locking is attempted.
func (e *Estimator) Estimate(ctx context.Context, restaurantID uint) (Estimate, error) {
	restaurant, err := e.source.GetRestaurant(ctx, restaurantID)
	if errors.Is(err, models.ErrNotFound) || (err == nil && restaurant == nil) {
		return Estimate{}, ErrRestaurantNotFound
	}
	if err != nil {
		return Estimate{}, fmt.Errorf("failed to load restaurant %d: %w", restaurantID, err)
	}
	if restaurant.DeliveryTime <= 0 {
		return Estimate{}, models.NewValidationError("deliveryTime", "restaurant %d has no positive base delivery time", restaurantID)
	}

	active, err := e.source.CountActiveOrders(ctx, restaurantID, models.ActiveOrderStatuses...)
	if err != nil {
		return Estimate{}, fmt.Errorf("failed to count active orders for restaurant %d: %w", restaurantID, err)
	}
	if active < 0 {
		active = 0
	}

	now := e.now().In(e.location)
	peak := e.windows.Contains(now.Hour())
	minutes := e.minutes(restaurant.DeliveryTime, active, peak)

	return Estimate{
		RestaurantID: restaurantID,
		BaseMinutes:  restaurant.DeliveryTime,
		ActiveOrders: active,
		Peak:         peak,
		Minutes:      minutes,
		DeliveryAt:   DeliveryTime(now, minutes),
	}, nil
}

func (e *Estimator) minutes(base, active int, peak bool) float64 {
	minutes := float64(base) + float64(active)*e.perActiveOrder
	if peak {
		minutes *= e.multiplier
	}
	return minutes
}

// EstimateMinutes applies the default rules: two minutes per active order,
// then a 1.5x stretch when hour falls in a peak window.
func EstimateMinutes(baseMinutes, activeOrders, hour int) float64 {
	minutes := float64(baseMinutes + activeOrders*DefaultMinutesPerActiveOrder)
	if IsPeakHour(hour) {
		minutes *= DefaultPeakMultiplier
	}
	return minutes
}

// DeliveryTime converts an estimate in minutes into an absolute time
func DeliveryTime(now time.Time, minutes float64) time.Time {
	return now.Add(time.Duration(minutes * float64(time.Minute)))
}
