package ordering

import (
	"math"

	"feastly/internal/models"
)

const (
	// PremiumPriceThreshold marks dishes that carry a surcharge
	PremiumPriceThreshold = 25.0
	// PremiumSurcharge multiplies the price of premium dishes
	PremiumSurcharge = 1.1
)

// Totals is the price breakdown of an order
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	Tax         float64 `json:"tax"`
	DeliveryFee float64 `json:"deliveryFee"`
	Total       float64 `json:"total"`
}

// UnitPrice is what the customer pays for one unit of a dish
func UnitPrice(menuPrice float64) float64 {
	if menuPrice > PremiumPriceThreshold {
		return menuPrice * PremiumSurcharge
	}
	return menuPrice
}

// PriceItems totals the items and adds tax and the delivery fee.
// Every amount is rounded to cents.
func PriceItems(items []models.OrderItem, taxRate, deliveryFee float64) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += UnitPrice(item.Price) * float64(item.Quantity)
	}

	subtotal = roundCents(subtotal)
	tax := roundCents(subtotal * taxRate)
	fee := roundCents(deliveryFee)
	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: fee,
		Total:       roundCents(subtotal + tax + fee),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
