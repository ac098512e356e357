package api

import (
	"net/http"
	"strconv"

	"feastly/internal/models"
	"feastly/internal/seed"

	"github.com/gin-gonic/gin"
)

type openingHoursUpdate struct {
	Open     *string `json:"open"`
	Close    *string `json:"close"`
	DaysOpen []int   `json:"daysOpen"`
}

type restaurantUpdate struct {
	RestaurantID   uint                `json:"restaurantId" binding:"required"`
	ManuallyClosed *bool               `json:"manuallyClosed"`
	Featured       *bool               `json:"featured"`
	OpeningHours   *openingHoursUpdate `json:"openingHours"`
	DeliveryTime   *int                `json:"deliveryTime"`
	MinOrderAmount *float64            `json:"minOrderAmount"`
	DeliveryFee    *float64            `json:"deliveryFee"`
}

// apply copies the fields that were sent onto r
func (u *restaurantUpdate) apply(r *models.Restaurant) {
	if u.ManuallyClosed != nil {
		r.ManuallyClosed = *u.ManuallyClosed
	}
	if u.Featured != nil {
		r.Featured = *u.Featured
	}
	if h := u.OpeningHours; h != nil {
		if h.Open != nil {
			r.OpeningHours.Open = *h.Open
		}
		if h.Close != nil {
			r.OpeningHours.Close = *h.Close
		}
		if h.DaysOpen != nil {
			r.OpeningHours.DaysOpen = models.IntSlice(h.DaysOpen)
		}
	}
	if u.DeliveryTime != nil {
		r.DeliveryTime = *u.DeliveryTime
	}
	if u.MinOrderAmount != nil {
		r.MinOrderAmount = *u.MinOrderAmount
	}
	if u.DeliveryFee != nil {
		r.DeliveryFee = *u.DeliveryFee
	}
}

type menuItemUpdate struct {
	RestaurantID uint  `json:"restaurantId" binding:"required"`
	MenuItemID   uint  `json:"menuItemId" binding:"required"`
	Available    *bool `json:"available" binding:"required"`
}

type orderUpdate struct {
	OrderID uint               `json:"orderId" binding:"required"`
	Status  models.OrderStatus `json:"status" binding:"required"`
}

// Admin handlers

func (a *API) AdminListRestaurants(c *gin.Context) {
	restaurants, err := a.store.AllRestaurants(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurants": restaurants})
}

func (a *API) AdminUpdateRestaurant(c *gin.Context) {
	var req restaurantUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	restaurant, err := a.store.GetRestaurant(ctx, req.RestaurantID)
	if err != nil {
		respondError(c, err)
		return
	}

	req.apply(restaurant)
	if err := restaurant.Validate(); err != nil {
		respondError(c, err)
		return
	}
	if err := a.store.SaveRestaurant(ctx, restaurant); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, restaurant)
}

func (a *API) AdminListMenuItems(c *gin.Context) {
	id, ok := parseID(c.Query("restaurantId"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "restaurantId is required"})
		return
	}

	items, err := a.store.MenuItems(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"menuItems": items})
}

func (a *API) AdminUpdateMenuItem(c *gin.Context) {
	var req menuItemUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := a.store.SetMenuItemAvailability(c.Request.Context(), req.RestaurantID, req.MenuItemID, *req.Available)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (a *API) AdminListOrders(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	orders, err := a.orders.ListOrders(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (a *API) AdminUpdateOrder(c *gin.Context) {
	var req orderUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := a.orders.UpdateStatus(c.Request.Context(), req.OrderID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (a *API) AdminMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, a.monitor.GetMetrics())
}

// Seed fills the database with generated data. It is refused in production.
func (a *API) Seed(c *gin.Context) {
	if a.production {
		c.JSON(http.StatusForbidden, gin.H{"error": "Seeding is not allowed in production"})
		return
	}

	count, _ := strconv.Atoi(c.Query("count"))
	res, err := a.seeder.Run(c.Request.Context(), seed.Options{
		Restaurants: count,
		Users:       seed.DefaultUsers,
		Clear:       c.Query("clear") == "true",
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            "Database seeded successfully",
		"restaurantsCreated": res.RestaurantsCreated,
		"usersCreated":       res.UsersCreated,
	})
}
