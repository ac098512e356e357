package api

import (
	"net/http"

	"feastly/internal/auth"
	"feastly/internal/models"
	"feastly/internal/ordering"

	"github.com/gin-gonic/gin"
)

// Order handlers

func (a *API) CreateOrder(c *gin.Context) {
	var req ordering.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := auth.UserID(c)
	order, err := a.orders.PlaceOrder(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (a *API) ListMyOrders(c *gin.Context) {
	userID, _ := auth.UserID(c)
	orders, err := a.orders.ListUserOrders(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (a *API) GetOrder(c *gin.Context) {
	order, ok := a.loadVisibleOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

// loadVisibleOrder loads the :id order if the caller owns it or is an admin.
// Other users' orders are reported as missing.
func (a *API) loadVisibleOrder(c *gin.Context) (*models.Order, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	order, err := a.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	userID, _ := auth.UserID(c)
	if order.UserID != userID && !auth.IsAdmin(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return nil, false
	}
	return order, true
}
