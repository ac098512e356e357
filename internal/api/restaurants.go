package api

import (
	"net/http"
	"strconv"
	"strings"

	"feastly/internal/store"

	"github.com/gin-gonic/gin"
)

// Storefront handlers

func (a *API) ListRestaurants(c *gin.Context) {
	filter := store.RestaurantFilter{
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
	}

	for _, v := range c.QueryArray("cuisine") {
		for _, cuisine := range strings.Split(v, ",") {
			if cuisine = strings.TrimSpace(cuisine); cuisine != "" {
				filter.Cuisines = append(filter.Cuisines, cuisine)
			}
		}
	}
	if v := c.Query("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "featured must be true or false"})
			return
		}
		filter.Featured = &featured
	}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))

	restaurants, pagination, err := a.store.ListRestaurants(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurants": restaurants,
		"pagination":  pagination,
	})
}

func (a *API) GetRestaurant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	restaurant, err := a.store.GetRestaurantWithMenu(c.Request.Context(), id, true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

// GetEstimate previews the delivery estimate an order placed now would get
func (a *API) GetEstimate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	estimate, err := a.estimator.Estimate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}

func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
