package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanjay-madala/intellicarrier-backend/internal/api/dto"
)

// HealthHandler serves the health check endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Get returns the service health status.
func (h *HealthHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:  "healthy",
		Service: "intellicarrier-backend",
	})
}
