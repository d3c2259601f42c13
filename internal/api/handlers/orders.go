package handlers

import (
	"net/http"

	"dispatch-service/internal/api/dto"
	"dispatch-service/internal/domain"
	"dispatch-service/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateOrder handles POST /orders.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.Intake.CreateOrder(c.Request.Context(), services.NewOrderInput{
		SMEID:           req.SMEID,
		AreaID:          req.AreaID,
		ReceiverName:    req.ReceiverName,
		ReceiverPhone:   req.ReceiverPhone,
		ReceiverAddress: req.ReceiverAddress,
		ReceiverCoords:  domain.Coordinates{Lat: req.ReceiverLat, Lon: req.ReceiverLon},
		WeightKg:        req.WeightKg,
		Dimensions:      req.Dimensions,
		Note:            req.Note,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromOrder(order))
}

// TrackOrder handles GET /orders/:order_id/tracking.
func (h *Handler) TrackOrder(c *gin.Context) {
	tracking, err := h.Tracking.Track(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tracking)
}
