package api

import (
	"dispatch-service/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with all dispatch routes.
func NewRouter(h *handlers.Handler) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(), RequestLogger())

	router.GET("/health", h.Health)

	orders := router.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/:order_id/tracking", h.TrackOrder)
	}

	dispatch := router.Group("/dispatch")
	{
		dispatch.GET("/summary", h.Summary)
		dispatch.GET("/pending-orders", h.PendingOrders)
		dispatch.GET("/shippers/by-area/:area_id", h.ShippersByArea)
		dispatch.GET("/orders/:order_id/legs", h.OrderLegs)
		dispatch.POST("/assign-shipper", h.AssignShipper)
		dispatch.POST("/transfer/assign-shipper", h.AssignTransferShipper)
		dispatch.POST("/delivery/assign-shipper", h.AssignDeliveryShipper)
		dispatch.PUT("/legs/:leg_id", h.UpdateLeg)
		dispatch.DELETE("/legs/:leg_id", h.DeleteLeg)
	}

	router.POST("/ai/optimize", h.Optimize)
	router.POST("/warehouses/sync-usage", h.SyncUsage)

	return router
}
