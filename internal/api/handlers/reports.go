package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanjay-madala/intellicarrier-backend/internal/fuel"
)

// ReportsHandler serves fuel allocation reports.
type ReportsHandler struct {
	*Base
}

func NewReportsHandler(base *Base) *ReportsHandler {
	return &ReportsHandler{Base: base}
}

// Build runs the allocator over a trip and persists the resulting report.
func (h *ReportsHandler) Build(c *gin.Context) {
	report, err := h.service.BuildFuelReport(c.Param("tripId"))
	if err != nil {
		h.WriteServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// GetLatest returns the most recent report for a trip.
func (h *ReportsHandler) GetLatest(c *gin.Context) {
	report, err := h.service.LatestFuelReport(c.Param("tripId"))
	if err != nil {
		h.WriteServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// List returns every stored report for a trip, newest first.
func (h *ReportsHandler) List(c *gin.Context) {
	reports, err := h.service.ListFuelReports(c.Param("tripId"))
	if err != nil {
		h.WriteServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports, "count": len(reports)})
}

// ExportCSV streams the latest report as a CSV ledger.
func (h *ReportsHandler) ExportCSV(c *gin.Context) {
	tripID := c.Param("tripId")

	report, err := h.service.LatestFuelReport(tripID)
	if err != nil {
		h.WriteServiceError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=fuel-report-%s.csv", tripID))
	c.Status(http.StatusOK)

	if err := fuel.WriteCSV(c.Writer, report.Result()); err != nil {
		h.logger.Error("csv export failed", "trip_id", tripID, "error", err)
	}
}
