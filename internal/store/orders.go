package store

import (
	"context"
	"fmt"

	"feastly/internal/models"
)

// CountActiveOrders counts a restaurant's orders whose status is one of statuses
func (s *Store) CountActiveOrders(ctx context.Context, restaurantID uint, statuses ...models.OrderStatus) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}

	var count int
	err := s.db.Model(&models.Order{}).
		Where("restaurant_id = ? AND status IN (?)", restaurantID, values).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count orders for restaurant %d: %w", restaurantID, err)
	}
	return count, nil
}

// CreateOrder inserts an order and its items
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := s.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetOrder loads an order with its items and restaurant
func (s *Store) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Preload("Restaurant").
		Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return &order, nil
}

// ListUserOrders returns a customer's orders, newest first
func (s *Store) ListUserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items").Preload("Restaurant").
		Where("user_id = ?", userID).
		Order("created_at desc").Order("id desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %d: %w", userID, err)
	}
	return orders, nil
}

// ListOrders returns every order, optionally restricted to one status, newest first
func (s *Store) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	query := s.db.Preload("Items").Preload("User").Preload("Restaurant")
	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	var orders []models.Order
	if err := query.Order("created_at desc").Order("id desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus changes an order's status and returns the updated order
func (s *Store) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.Model(&models.Order{}).Where("id = ?", id).
		Update("status", string(status)).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	order.Status = status
	return order, nil
}
