package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanjay-madala/intellicarrier-backend/internal/api/dto"
)

// TolerancesHandler serves per-business-unit tolerance configuration.
type TolerancesHandler struct {
	*Base
}

func NewTolerancesHandler(base *Base) *TolerancesHandler {
	return &TolerancesHandler{Base: base}
}

// Get returns the effective tolerance config for a business unit,
// including fallbacks to the default unit and the built-in rulebook.
func (h *TolerancesHandler) Get(c *gin.Context) {
	cfg, err := h.service.TolerancesFor(c.Param("businessUnit"))
	if err != nil {
		h.WriteServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// Put stores a tolerance override for a business unit.
func (h *TolerancesHandler) Put(c *gin.Context) {
	var req dto.ToleranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	cfg := req.ToConfig(c.Param("businessUnit"))
	if err := h.service.SetTolerances(cfg); err != nil {
		h.WriteServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}
