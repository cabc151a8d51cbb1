package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanjay-madala/intellicarrier-backend/internal/api/dto"
)

// RefillsHandler serves the vehicle refill log.
type RefillsHandler struct {
	*Base
}

func NewRefillsHandler(base *Base) *RefillsHandler {
	return &RefillsHandler{Base: base}
}

// Create logs a fuel refill event.
func (h *RefillsHandler) Create(c *gin.Context) {
	var req dto.RecordRefillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}
	if req.LitersDispensed <= 0 {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("liters dispensed must be positive"))
		return
	}
	if req.OdometerAtRefill < 0 {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("odometer reading cannot be negative"))
		return
	}

	event := req.ToRefillEvent()
	if err := h.service.RecordRefill(event); err != nil {
		h.WriteServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// ListByVehicle returns a vehicle's refill events ordered by odometer.
func (h *RefillsHandler) ListByVehicle(c *gin.Context) {
	vehicleID := c.Param("vehicleId")

	refills, err := h.service.ListRefills(vehicleID)
	if err != nil {
		h.WriteServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RefillListResponse{
		VehicleID: vehicleID,
		Refills:   refills,
		Count:     len(refills),
	})
}
