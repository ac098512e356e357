package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
)

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// OrderStatuses lists every valid status
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ActiveOrderStatuses are the statuses that count toward a restaurant's backlog
var ActiveOrderStatuses = []OrderStatus{OrderStatusPending, OrderStatusPreparing}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsActive reports whether an order in this status occupies the kitchen
func (s OrderStatus) IsActive() bool {
	for _, v := range ActiveOrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCash PaymentMethod = "cash"
)

// Order represents a customer's order from one restaurant
type Order struct {
	gorm.Model
	UserID                uint          `json:"userId" gorm:"index;not null"`
	User                  *User         `json:"user,omitempty" gorm:"foreignkey:UserID"`
	RestaurantID          uint          `json:"restaurantId" gorm:"index;not null"`
	Restaurant            *Restaurant   `json:"restaurant,omitempty" gorm:"foreignkey:RestaurantID"`
	Items                 []OrderItem   `json:"items" gorm:"foreignkey:OrderID"`
	Subtotal              float64       `json:"subtotal"`
	Tax                   float64       `json:"tax"`
	DeliveryFee           float64       `json:"deliveryFee"`
	Total                 float64       `json:"total"`
	Status                OrderStatus   `json:"status" gorm:"index;default:'pending'"`
	DeliveryAddress       Address       `json:"deliveryAddress" gorm:"embedded;embedded_prefix:delivery_"`
	PaymentMethod         PaymentMethod `json:"paymentMethod"`
	PaymentID             string        `json:"paymentId"`
	EstimatedDeliveryTime time.Time     `json:"estimatedDeliveryTime"`
	SpecialInstructions   string        `json:"specialInstructions,omitempty" gorm:"type:text"`
}

// OrderItem is a snapshot of a menu item at the time of ordering
type OrderItem struct {
	gorm.Model
	OrderID    uint    `json:"orderId" gorm:"index"`
	MenuItemID uint    `json:"menuItemId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

const maxSpecialInstructions = 500

var (
	lettersAndSpaces = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	zipCodePattern   = regexp.MustCompile(`^\d{5}$`)
)

// ValidateDeliveryAddress trims a delivery address in place and checks it
func ValidateDeliveryAddress(a *Address) error {
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.ZipCode = strings.TrimSpace(a.ZipCode)

	if len(a.Street) < 5 {
		return NewValidationError("deliveryAddress.street", "must be at least 5 characters")
	}
	if !lettersAndSpaces.MatchString(a.City) {
		return NewValidationError("deliveryAddress.city", "must contain only letters and spaces")
	}
	if !lettersAndSpaces.MatchString(a.State) {
		return NewValidationError("deliveryAddress.state", "must contain only letters and spaces")
	}
	if !zipCodePattern.MatchString(a.ZipCode) {
		return NewValidationError("deliveryAddress.zipCode", "must be 5 digits")
	}
	return nil
}

// ValidateSpecialInstructions enforces the free-text length limit
func ValidateSpecialInstructions(s string) error {
	if len([]rune(s)) > maxSpecialInstructions {
		return NewValidationError("specialInstructions", "must be at most %d characters", maxSpecialInstructions)
	}
	return nil
}
