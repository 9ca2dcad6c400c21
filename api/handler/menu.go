package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/menuwatch/menuwatch/store"
)

// Menu returns a handler for GET /api/v1/menus/:id/:platform.
func Menu(menus *store.MenuStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		items := menus.Menu(c.Param("id"), c.Param("platform"))
		if items == nil {
			items = []store.StoredItem{}
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
	}
}

// PriceHistory returns a handler for
// GET /api/v1/menus/:id/:platform/history?item=<name>.
func PriceHistory(menus *store.MenuStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		item := c.Query("item")
		if item == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "item query parameter is required"})
			return
		}
		points := menus.History(c.Param("id"), c.Param("platform"), item)
		if points == nil {
			points = []store.PricePoint{}
		}
		c.JSON(http.StatusOK, gin.H{"item": item, "history": points})
	}
}

// Alerts returns a handler for GET /api/v1/alerts?limit=N.
func Alerts(menus *store.MenuStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		alerts := menus.Alerts(limit)
		if alerts == nil {
			alerts = []store.PriceAlert{}
		}
		c.JSON(http.StatusOK, gin.H{"alerts": alerts})
	}
}
