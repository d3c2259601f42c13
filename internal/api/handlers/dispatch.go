package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"dispatch-service/internal/api/dto"
	"dispatch-service/internal/domain"
	"dispatch-service/internal/services"

	"github.com/gin-gonic/gin"
)

// Summary handles GET /dispatch/summary.
func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.Tracking.Summary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// PendingOrders handles GET /dispatch/pending-orders.
func (h *Handler) PendingOrders(c *gin.Context) {
	orders, err := h.Tracking.PendingOrders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, dto.FromOrder(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out, "count": len(out)})
}

// ShippersByArea handles GET /dispatch/shippers/by-area/:area_id.
func (h *Handler) ShippersByArea(c *gin.Context) {
	shippers, err := h.Tracking.ShippersByArea(c.Request.Context(), c.Param("area_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shippers": dto.FromShippers(shippers)})
}

// OrderLegs handles GET /dispatch/orders/:order_id/legs.
func (h *Handler) OrderLegs(c *gin.Context) {
	orderID := c.Param("order_id")
	if _, err := h.Engine.Orders.GetOrder(c.Request.Context(), orderID); err != nil {
		writeError(c, err)
		return
	}
	legs, err := h.Engine.Legs.ListLegsByOrder(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"legs": dto.FromLegs(legs)})
}

// AssignShipper handles POST /dispatch/assign-shipper: plans the journey
// when the order has no legs yet, then assigns the first leg.
func (h *Handler) AssignShipper(c *gin.Context) {
	var req dto.AssignShipperRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	legs, err := h.Engine.Legs.ListLegsByOrder(ctx, req.OrderID)
	if err != nil {
		writeError(c, err)
		return
	}

	planned := false
	if len(legs) == 0 {
		order, err := h.Engine.Orders.GetOrder(ctx, req.OrderID)
		if err != nil {
			writeError(c, err)
			return
		}
		if req.HubID != "" {
			legs, err = h.Planner.PlanJourneyWith(ctx, order, req.HubID, req.DeliveryWarehouseID)
		} else {
			legs, err = h.Planner.PlanJourney(ctx, req.OrderID)
		}
		if err != nil {
			writeError(c, err)
			return
		}
		planned = true
	}

	first, err := h.Engine.AssignLeg(ctx, legs[0].LegID, req.ShipperID, "")
	if err != nil {
		writeError(c, err)
		return
	}
	legs[0] = first

	c.JSON(http.StatusOK, gin.H{
		"planned":      planned,
		"assigned_leg": dto.FromLeg(first),
		"legs":         dto.FromLegs(legs),
	})
}

// AssignTransferShipper handles POST /dispatch/transfer/assign-shipper.
func (h *Handler) AssignTransferShipper(c *gin.Context) {
	h.assignByType(c, domain.LegTransfer)
}

// AssignDeliveryShipper handles POST /dispatch/delivery/assign-shipper.
func (h *Handler) AssignDeliveryShipper(c *gin.Context) {
	h.assignByType(c, domain.LegDelivery)
}

func (h *Handler) assignByType(c *gin.Context, legType domain.LegType) {
	var req dto.AssignLegShipperRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	legs, err := h.Engine.Legs.ListLegsByOrder(ctx, req.OrderID)
	if err != nil {
		writeError(c, err)
		return
	}

	var target *domain.JourneyLeg
	for _, l := range legs {
		if l.Type == legType && l.Status != domain.LegCancelled {
			target = l
			break
		}
	}
	if target == nil {
		writeError(c, &domain.NotFoundError{
			Kind: fmt.Sprintf("%s leg for order", legType),
			ID:   req.OrderID,
		})
		return
	}

	leg, err := h.Engine.AssignLeg(ctx, target.LegID, req.ShipperID, req.WarehouseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromLeg(leg))
}

// UpdateLeg handles PUT /dispatch/legs/:leg_id.
func (h *Handler) UpdateLeg(c *gin.Context) {
	legID, err := strconv.ParseInt(c.Param("leg_id"), 10, 64)
	if err != nil {
		writeError(c, &domain.ValidationError{Field: "leg_id", Reason: "must be an integer"})
		return
	}

	var req dto.UpdateLegRequest
	if !bindJSON(c, &req) {
		return
	}

	upd := services.LegUpdate{
		ShipperID:              req.ShipperID,
		OriginWarehouseID:      req.OriginWarehouseID,
		DestinationWarehouseID: req.DestinationWarehouseID,
		EstimatedDistanceKm:    req.EstimatedDistanceKm,
	}
	if req.Status != nil {
		status := domain.LegStatus(*req.Status)
		upd.Status = &status
	}

	leg, err := h.Engine.UpdateLeg(c.Request.Context(), legID, upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromLeg(leg))
}

// DeleteLeg handles DELETE /dispatch/legs/:leg_id.
func (h *Handler) DeleteLeg(c *gin.Context) {
	legID, err := strconv.ParseInt(c.Param("leg_id"), 10, 64)
	if err != nil {
		writeError(c, &domain.ValidationError{Field: "leg_id", Reason: "must be an integer"})
		return
	}

	if err := h.Engine.DeleteLeg(c.Request.Context(), legID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Optimize handles POST /ai/optimize.
func (h *Handler) Optimize(c *gin.Context) {
	var req dto.OptimizeRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
	}

	report, err := h.Optimizer.RunAutoPilot(c.Request.Context(), req.TargetID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SyncUsage handles POST /warehouses/sync-usage.
func (h *Handler) SyncUsage(c *gin.Context) {
	report, err := h.Syncer.SyncUsage(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
