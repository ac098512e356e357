package store

import (
	"context"
	"testing"
	"time"

	"feastly/internal/models"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.DB().SetMaxOpenConns(1)

	s := New(db)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func seedRestaurant(t *testing.T, s *Store, name string, cuisine []string, featured bool) *models.Restaurant {
	t.Helper()

	r := &models.Restaurant{
		Name:         name,
		Cuisine:      cuisine,
		Rating:       4.25,
		DeliveryTime: 30,
		DeliveryFee:  2.5,
		Featured:     featured,
		OpeningHours: models.OpeningHours{Open: "08:00", Close: "22:00", DaysOpen: models.IntSlice{0, 1, 2, 3, 4, 5, 6}},
		Menu: []models.MenuItem{
			{Name: "Soup", Price: 6, Category: "Appetizers", Available: true},
			{Name: "Steak", Price: 28, Category: "Main Course", Available: false},
		},
	}
	require.NoError(t, s.CreateRestaurant(context.Background(), r))
	return r
}

func TestCreateRestaurant_RoundsRating(t *testing.T) {
	s := newTestStore(t)
	r := seedRestaurant(t, s, "Trattoria", []string{"Italian"}, false)

	got, err := s.GetRestaurant(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.3, got.Rating)
	assert.Equal(t, models.StringSlice{"Italian"}, got.Cuisine)
	assert.Equal(t, "08:00", got.OpeningHours.Open)
	assert.Empty(t, got.Menu)
}

func TestGetRestaurant_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRestaurant(context.Background(), 42)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.GetRestaurantWithMenu(context.Background(), 42, true)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetRestaurantWithMenu_AvailableOnly(t *testing.T) {
	s := newTestStore(t)
	r := seedRestaurant(t, s, "Grill House", []string{"American"}, false)
	ctx := context.Background()

	all, err := s.GetRestaurantWithMenu(ctx, r.ID, false)
	require.NoError(t, err)
	assert.Len(t, all.Menu, 2)

	available, err := s.GetRestaurantWithMenu(ctx, r.ID, true)
	require.NoError(t, err)
	require.Len(t, available.Menu, 1)
	assert.Equal(t, "Soup", available.Menu[0].Name)
}

func TestListRestaurants_FiltersAndPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedRestaurant(t, s, "Pasta Palace", []string{"Italian"}, false)
	seedRestaurant(t, s, "Sushi Bar", []string{"Japanese"}, true)
	seedRestaurant(t, s, "Taco Town", []string{"Mexican", "American"}, false)
	seedRestaurant(t, s, "Pizza Piazza", []string{"Italian", "American"}, false)

	page, pagination, err := s.ListRestaurants(ctx, RestaurantFilter{})
	require.NoError(t, err)
	assert.Len(t, page, 4)
	assert.Equal(t, "Sushi Bar", page[0].Name, "featured restaurants come first")
	assert.Equal(t, Pagination{CurrentPage: 1, TotalPages: 1, TotalCount: 4}, pagination)

	page, _, err = s.ListRestaurants(ctx, RestaurantFilter{Search: "PIZZA"})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Pizza Piazza", page[0].Name)

	page, _, err = s.ListRestaurants(ctx, RestaurantFilter{Cuisines: []string{"Italian"}, Sort: "-name"})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Pizza Piazza", page[0].Name)
	assert.Equal(t, "Pasta Palace", page[1].Name)

	page, _, err = s.ListRestaurants(ctx, RestaurantFilter{Cuisines: []string{"Japanese", "Mexican"}})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	notFeatured := false
	page, pagination, err = s.ListRestaurants(ctx, RestaurantFilter{Featured: &notFeatured, Sort: "name", Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Taco Town", page[0].Name)
	assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 2, TotalCount: 3, HasMore: false}, pagination)
}

func TestSetMenuItemAvailability(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := seedRestaurant(t, s, "Diner", []string{"American"}, false)
	steak := r.Menu[1]

	item, err := s.SetMenuItemAvailability(ctx, r.ID, steak.ID, true)
	require.NoError(t, err)
	assert.True(t, item.Available)

	withMenu, err := s.GetRestaurantWithMenu(ctx, r.ID, true)
	require.NoError(t, err)
	assert.Len(t, withMenu.Menu, 2)

	_, err = s.SetMenuItemAvailability(ctx, r.ID, 9999, true)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.SetMenuItemAvailability(ctx, 9999, steak.ID, true)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCountActiveOrders_OnlyPendingAndPreparing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := seedRestaurant(t, s, "Busy Kitchen", []string{"Thai"}, false)
	other := seedRestaurant(t, s, "Quiet Kitchen", []string{"Thai"}, false)

	statuses := []models.OrderStatus{
		models.OrderStatusPending,
		models.OrderStatusPending,
		models.OrderStatusPreparing,
		models.OrderStatusOutForDelivery,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
	}
	for _, st := range statuses {
		require.NoError(t, s.CreateOrder(ctx, &models.Order{
			UserID:                1,
			RestaurantID:          r.ID,
			Status:                st,
			EstimatedDeliveryTime: time.Now(),
		}))
	}
	require.NoError(t, s.CreateOrder(ctx, &models.Order{UserID: 1, RestaurantID: other.ID, Status: models.OrderStatusPending}))

	count, err := s.CountActiveOrders(ctx, r.ID, models.ActiveOrderStatuses...)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = s.CountActiveOrders(ctx, r.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOrders_CreateListAndUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := seedRestaurant(t, s, "Noodle Shop", []string{"Chinese"}, false)

	user := &models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleCustomer}
	require.NoError(t, s.CreateUser(ctx, user))

	order := &models.Order{
		UserID:       user.ID,
		RestaurantID: r.ID,
		Status:       models.OrderStatusPending,
		Items: []models.OrderItem{
			{MenuItemID: r.Menu[0].ID, Name: "Soup", Price: 6, Quantity: 2},
		},
		Subtotal: 12,
		Total:    14.5,
	}
	require.NoError(t, s.CreateOrder(ctx, order))

	got, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	require.NotNil(t, got.Restaurant)
	assert.Equal(t, "Noodle Shop", got.Restaurant.Name)

	mine, err := s.ListUserOrders(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	updated, err := s.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, updated.Status)

	preparing, err := s.ListOrders(ctx, models.OrderStatusPreparing)
	require.NoError(t, err)
	require.Len(t, preparing, 1)
	require.NotNil(t, preparing[0].User)
	assert.Equal(t, "ada@example.com", preparing[0].User.Email)

	pending, err := s.ListOrders(ctx, models.OrderStatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = s.UpdateOrderStatus(ctx, 9999, models.OrderStatusDelivered)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &models.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, s.CreateUser(ctx, first))

	second := &models.User{Name: "Other Ada", Email: "ada@example.com"}
	assert.ErrorIs(t, s.CreateUser(ctx, second), ErrEmailTaken)

	got, err := s.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *Store) error {
		require.NoError(t, tx.CreateRestaurant(ctx, &models.Restaurant{Name: "Ghost", DeliveryTime: 10}))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	all, err := s.AllRestaurants(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
