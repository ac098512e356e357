package store

import (
	"context"
	"fmt"
	"math"
	"strings"

	"feastly/internal/models"

	"github.com/jinzhu/gorm"
)

// RestaurantFilter narrows the storefront listing
type RestaurantFilter struct {
	Search   string
	Cuisines []string
	Featured *bool
	Sort     string // field name, "-" prefix for descending
	Page     int
	Limit    int
}

// Pagination describes where a page sits in the full result
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"totalCount"`
	HasMore     bool `json:"hasMore"`
}

// DefaultPageSize is used when a listing asks for no explicit limit
const DefaultPageSize = 10

// sortColumns maps API sort fields to columns
var sortColumns = map[string]string{
	"name":           "name",
	"rating":         "rating",
	"deliveryTime":   "delivery_time",
	"deliveryFee":    "delivery_fee",
	"minOrderAmount": "min_order_amount",
	"createdAt":      "created_at",
}

// Normalize clamps page and limit to at least 1
func (f *RestaurantFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
}

// ListRestaurants returns one page of restaurants, without menus.
// Featured restaurants always come first.
func (s *Store) ListRestaurants(ctx context.Context, filter RestaurantFilter) ([]models.Restaurant, Pagination, error) {
	filter.Normalize()

	query := s.db.Model(&models.Restaurant{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if len(filter.Cuisines) > 0 {
		clauses := make([]string, 0, len(filter.Cuisines))
		args := make([]interface{}, 0, len(filter.Cuisines))
		for _, c := range filter.Cuisines {
			clauses = append(clauses, "cuisine LIKE ?")
			args = append(args, `%"`+c+`"%`)
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}

	var total int
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("failed to count restaurants: %w", err)
	}

	query = query.Order("featured desc")
	if field, desc := parseSort(filter.Sort); field != "" {
		if desc {
			query = query.Order(field + " desc")
		} else {
			query = query.Order(field + " asc")
		}
	}

	var restaurants []models.Restaurant
	err := query.Order("id asc").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&restaurants).Error
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("failed to list restaurants: %w", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	return restaurants, Pagination{
		CurrentPage: filter.Page,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasMore:     filter.Page < totalPages,
	}, nil
}

func parseSort(sort string) (string, bool) {
	sort = strings.TrimSpace(sort)
	desc := strings.HasPrefix(sort, "-")
	column, ok := sortColumns[strings.TrimPrefix(sort, "-")]
	if !ok {
		return "", false
	}
	return column, desc
}

// AllRestaurants returns every restaurant sorted by name, for the admin panel
func (s *Store) AllRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	if err := s.db.Order("name asc").Find(&restaurants).Error; err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	return restaurants, nil
}

// GetRestaurant loads a restaurant without its menu
func (s *Store) GetRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.db.Where("id = ?", id).First(&restaurant).Error; err != nil {
		return nil, notFound(err, "restaurant", id)
	}
	return &restaurant, nil
}

// GetRestaurantWithMenu loads a restaurant and its menu.
// With availableOnly set, unavailable dishes are left out.
func (s *Store) GetRestaurantWithMenu(ctx context.Context, id uint, availableOnly bool) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.db.Preload("Menu", func(db *gorm.DB) *gorm.DB {
		db = db.Order("id asc")
		if availableOnly {
			db = db.Where("available = ?", true)
		}
		return db
	}).Where("id = ?", id).First(&restaurant).Error
	if err != nil {
		return nil, notFound(err, "restaurant", id)
	}
	return &restaurant, nil
}

// CreateRestaurant inserts a restaurant together with its menu
func (s *Store) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	if err := s.db.Create(restaurant).Error; err != nil {
		return fmt.Errorf("failed to create restaurant %q: %w", restaurant.Name, err)
	}
	return nil
}

// SaveRestaurant writes every column of an existing restaurant
func (s *Store) SaveRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	if err := s.db.Set("gorm:save_associations", false).Save(restaurant).Error; err != nil {
		return fmt.Errorf("failed to save restaurant %d: %w", restaurant.ID, err)
	}
	return nil
}

// MenuItems returns a restaurant's full menu, available or not
func (s *Store) MenuItems(ctx context.Context, restaurantID uint) ([]models.MenuItem, error) {
	if _, err := s.GetRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}
	var items []models.MenuItem
	if err := s.db.Where("restaurant_id = ?", restaurantID).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, nil
}

// SetMenuItemAvailability flips a dish on or off
func (s *Store) SetMenuItemAvailability(ctx context.Context, restaurantID, menuItemID uint, available bool) (*models.MenuItem, error) {
	if _, err := s.GetRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}

	var item models.MenuItem
	if err := s.db.Where("id = ? AND restaurant_id = ?", menuItemID, restaurantID).First(&item).Error; err != nil {
		return nil, notFound(err, "menu item", menuItemID)
	}
	if err := s.db.Model(&item).Update("available", available).Error; err != nil {
		return nil, fmt.Errorf("failed to update menu item %d: %w", menuItemID, err)
	}
	item.Available = available
	return &item, nil
}

// DeleteAllRestaurants hard-deletes restaurants and their menus
func (s *Store) DeleteAllRestaurants(ctx context.Context) error {
	if err := s.db.Unscoped().Delete(&models.MenuItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear menu items: %w", err)
	}
	if err := s.db.Unscoped().Delete(&models.Restaurant{}).Error; err != nil {
		return fmt.Errorf("failed to clear restaurants: %w", err)
	}
	return nil
}
