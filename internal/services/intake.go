package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dispatch-service/internal/domain"
	"dispatch-service/internal/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IntakeService registers new orders. Orders enter the system PENDING
// with no legs; planning and assignment happen later on the dispatch
// side.
type IntakeService struct {
	Orders   ports.OrderRepository
	SMEs     ports.SMERepository
	Areas    ports.AreaRepository
	Geocoder ports.Geocoder
}

// NewOrderInput carries everything needed to register an order.
type NewOrderInput struct {
	SMEID           string
	AreaID          string
	ReceiverName    string
	ReceiverPhone   string
	ReceiverAddress string
	ReceiverCoords  domain.Coordinates
	WeightKg        float64
	Dimensions      string
	Note            string
}

// CreateOrder validates the input, resolves the receiver's coordinates
// when the caller did not supply them, and persists the order.
func (s *IntakeService) CreateOrder(ctx context.Context, in NewOrderInput) (*domain.Order, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	if _, err := s.SMEs.GetSME(ctx, in.SMEID); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	area, err := s.Areas.GetArea(ctx, in.AreaID)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if area.Status != domain.AreaActive {
		return nil, &domain.ValidationError{
			Field:  "area_id",
			Reason: fmt.Sprintf("area %s is not accepting orders", area.AreaID),
		}
	}

	coords := in.ReceiverCoords
	if coords.IsZero() && s.Geocoder != nil {
		resolved, err := s.Geocoder.Resolve(ctx, in.ReceiverAddress)
		if err != nil {
			// Geocoding is best-effort at intake: distances fall back
			// to warehouse-anchored estimates until coordinates arrive.
			zap.L().Warn("receiver geocode failed",
				zap.String("address", in.ReceiverAddress),
				zap.Error(err))
		} else {
			coords = resolved
		}
	}

	now := time.Now().UTC()
	order := &domain.Order{
		OrderID: uuid.NewString(),
		Code:    orderCode(now),
		SMEID:   in.SMEID,
		AreaID:  in.AreaID,
		Receiver: domain.Receiver{
			Name:    strings.TrimSpace(in.ReceiverName),
			Phone:   strings.TrimSpace(in.ReceiverPhone),
			Address: strings.TrimSpace(in.ReceiverAddress),
			Coords:  coords,
		},
		WeightKg:   in.WeightKg,
		Dimensions: strings.TrimSpace(in.Dimensions),
		Note:       strings.TrimSpace(in.Note),
		Status:     domain.OrderPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.Orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

func (s *IntakeService) validate(in NewOrderInput) error {
	switch {
	case strings.TrimSpace(in.SMEID) == "":
		return &domain.ValidationError{Field: "sme_id", Reason: "required"}
	case strings.TrimSpace(in.AreaID) == "":
		return &domain.ValidationError{Field: "area_id", Reason: "required"}
	case strings.TrimSpace(in.ReceiverName) == "":
		return &domain.ValidationError{Field: "receiver_name", Reason: "required"}
	case strings.TrimSpace(in.ReceiverAddress) == "":
		return &domain.ValidationError{Field: "receiver_address", Reason: "required"}
	case in.WeightKg <= 0:
		return &domain.ValidationError{Field: "weight_kg", Reason: "must be positive"}
	}
	return nil
}

// orderCode builds a human-readable code like DSP-20260831-3FA2C1.
func orderCode(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return fmt.Sprintf("DSP-%s-%s", now.Format("20060102"), suffix)
}
