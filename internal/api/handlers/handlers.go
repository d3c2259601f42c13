package handlers

import (
	"errors"
	"net/http"

	"dispatch-service/internal/api/dto"
	"dispatch-service/internal/domain"
	"dispatch-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes the dispatch services over HTTP.
type Handler struct {
	Intake    *services.IntakeService
	Planner   *services.JourneyPlanner
	Engine    *services.AssignmentEngine
	Optimizer *services.BatchOptimizer
	Syncer    *services.UsageSyncer
	Tracking  *services.TrackingService
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps the domain error taxonomy onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	var status int

	var verr *domain.ValidationError
	var nferr *domain.NotFoundError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.As(err, &nferr):
		status = http.StatusNotFound
	case domain.IsEligibility(err), errors.Is(err, domain.ErrNoCoverage):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}

func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}
