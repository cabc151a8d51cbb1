package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sanjay-madala/intellicarrier-backend/internal/api/dto"
)

// TripsHandler serves trip CRUD and stage reporting.
type TripsHandler struct {
	*Base
}

func NewTripsHandler(base *Base) *TripsHandler {
	return &TripsHandler{Base: base}
}

// Create registers a new trip with its planned stages.
func (h *TripsHandler) Create(c *gin.Context) {
	var req dto.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	trip := req.ToTrip()
	if err := h.service.CreateTrip(trip); err != nil {
		h.WriteServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, trip)
}

// List returns stored trips, newest first.
func (h *TripsHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	trips, err := h.service.ListTrips(limit)
	if err != nil {
		h.WriteServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TripListResponse{Trips: trips, Count: len(trips)})
}

// Get returns a single trip with its stages.
func (h *TripsHandler) Get(c *gin.Context) {
	trip, err := h.service.GetTrip(c.Param("tripId"))
	if err != nil {
		h.WriteServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}

// ReportStage records a driver's odometer readings for one stage and
// returns the tolerance verdict. A failed verdict is still a 200: the
// readings were accepted and stored, the stage just stays pending.
func (h *TripsHandler) ReportStage(c *gin.Context) {
	seq, err := strconv.Atoi(c.Param("seq"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid sequence number"))
		return
	}

	var req dto.ReportStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	tripID := c.Param("tripId")
	result, err := h.service.ReportStage(tripID, seq, *req.OdometerStart, *req.OdometerEnd, req.Bypass)
	if err != nil {
		h.WriteServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewStageReportResponse(tripID, seq, result))
}
