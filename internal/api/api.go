package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"feastly/internal/auth"
	"feastly/internal/delivery"
	"feastly/internal/events"
	"feastly/internal/models"
	"feastly/internal/monitoring"
	"feastly/internal/ordering"
	"feastly/internal/ratelimit"
	"feastly/internal/seed"
	"feastly/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// API is the storefront's HTTP surface
type API struct {
	Router *gin.Engine

	store      *store.Store
	orders     *ordering.Service
	estimator  *delivery.Estimator
	auth       *auth.Manager
	monitor    *monitoring.Monitor
	hub        *events.Hub
	seeder     *seed.Seeder
	limiter    *ratelimit.Store
	production bool
}

// Deps are the components the API is built from
type Deps struct {
	Store      *store.Store
	Orders     *ordering.Service
	Estimator  *delivery.Estimator
	Auth       *auth.Manager
	Monitor    *monitoring.Monitor
	Hub        *events.Hub
	Seeder     *seed.Seeder
	Limiter    *ratelimit.Store
	Production bool
}

// New creates the API and registers its routes
func New(d Deps) *API {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), requestID())
	if d.Monitor != nil {
		router.Use(d.Monitor.Middleware())
	}

	a := &API{
		Router:     router,
		store:      d.Store,
		orders:     d.Orders,
		estimator:  d.Estimator,
		auth:       d.Auth,
		monitor:    d.Monitor,
		hub:        d.Hub,
		seeder:     d.Seeder,
		limiter:    d.Limiter,
		production: d.Production,
	}

	a.setupRoutes()
	return a
}

// setupRoutes configures all API endpoints
func (a *API) setupRoutes() {
	a.Router.GET("/health", a.Health)

	v1 := a.Router.Group("/api/v1")
	{
		// Accounts
		authGroup := v1.Group("/auth")
		limited := authGroup.Group("")
		if a.limiter != nil {
			limited.Use(a.limiter.Middleware())
		}
		limited.POST("/register", a.Register)
		limited.POST("/login", a.Login)
		authGroup.GET("/me", a.auth.RequireAuth(), a.Me)

		// Storefront
		v1.GET("/restaurants", a.ListRestaurants)
		v1.GET("/restaurants/:id", a.GetRestaurant)
		v1.GET("/restaurants/:id/estimate", a.GetEstimate)

		// Orders
		orders := v1.Group("/orders", a.auth.RequireAuth())
		{
			orders.POST("", a.CreateOrder)
			orders.GET("", a.ListMyOrders)
			orders.GET("/:id", a.GetOrder)
			orders.GET("/:id/ws", a.TrackOrder)
		}

		// Admin panel
		admin := v1.Group("/admin", a.auth.RequireAuth(), a.auth.RequireAdmin())
		{
			admin.GET("/restaurants", a.AdminListRestaurants)
			admin.PATCH("/restaurants", a.AdminUpdateRestaurant)
			admin.GET("/menu-items", a.AdminListMenuItems)
			admin.PATCH("/menu-items", a.AdminUpdateMenuItem)
			admin.GET("/orders", a.AdminListOrders)
			admin.PATCH("/orders", a.AdminUpdateOrder)
			admin.GET("/metrics", a.AdminMetrics)
		}

		v1.POST("/seed", a.Seed)
	}
}

// Health reports whether the database answers
func (a *API) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := a.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Feastly API is running"})
}

// requestID tags every request and response with an X-Request-ID
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// respondError maps domain errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.Is(err, delivery.ErrRestaurantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ordering.ErrRestaurantClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": verr.Field})
	default:
		log.Printf("request %s failed: %v", c.GetString("request_id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// paramID parses a positive numeric path parameter
func paramID(c *gin.Context, name string) (uint, bool) {
	id, ok := parseID(c.Param(name))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
	}
	return id, ok
}
