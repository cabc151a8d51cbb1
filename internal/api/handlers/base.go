package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanjay-madala/intellicarrier-backend/internal/api/dto"
	"github.com/sanjay-madala/intellicarrier-backend/internal/reconcile"
)

// Base provides shared functionality for all handlers.
type Base struct {
	service *reconcile.Service
	logger  *slog.Logger
}

// NewBase creates a new base handler with the given service.
func NewBase(service *reconcile.Service, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{service: service, logger: logger}
}

// WriteServiceError maps service errors onto HTTP error responses. Unknown
// errors are logged and hidden behind a generic 500.
func (b *Base) WriteServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reconcile.ErrTripNotFound):
		c.JSON(http.StatusNotFound, dto.NotFoundError("trip"))
	case errors.Is(err, reconcile.ErrStageNotFound):
		c.JSON(http.StatusNotFound, dto.NotFoundError("stage"))
	case errors.Is(err, reconcile.ErrReportNotFound):
		c.JSON(http.StatusNotFound, dto.NotFoundError("fuel report"))
	case errors.Is(err, reconcile.ErrStageCompleted):
		c.JSON(http.StatusConflict, dto.ConflictError("stage already completed"))
	default:
		b.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
	}
}
