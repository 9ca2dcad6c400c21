package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menuwatch/menuwatch/models"
	"github.com/menuwatch/menuwatch/store"
)

// CreateSource returns a handler for POST /api/v1/sources.
func CreateSource(reg *store.SourceRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SourceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: err.Error()},
			})
			return
		}
		src, err := reg.Create(req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errDetail(err)})
			return
		}
		c.JSON(http.StatusCreated, src)
	}
}

// ListSources returns a handler for GET /api/v1/sources.
func ListSources(reg *store.SourceRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sources": reg.List()})
	}
}

// GetSource returns a handler for GET /api/v1/sources/:id.
func GetSource(reg *store.SourceRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		src, ok := reg.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "source not found"},
			})
			return
		}
		c.JSON(http.StatusOK, src)
	}
}

// UpdateSource returns a handler for PATCH /api/v1/sources/:id.
func UpdateSource(reg *store.SourceRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SourceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: err.Error()},
			})
			return
		}
		src, err := reg.Update(c.Param("id"), req)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": errDetail(err)})
			return
		}
		c.JSON(http.StatusOK, src)
	}
}

// DeleteSource returns a handler for DELETE /api/v1/sources/:id.
func DeleteSource(reg *store.SourceRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !reg.Delete(c.Param("id")) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "source not found"},
			})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func errDetail(err error) *models.ErrorDetail {
	if se, ok := err.(*models.ScrapeError); ok {
		return se.ToDetail()
	}
	return &models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()}
}
