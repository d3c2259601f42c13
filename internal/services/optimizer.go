package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"dispatch-service/internal/domain"
	"dispatch-service/internal/platform/obs"
	"dispatch-service/internal/ports"

	"go.uber.org/zap"
)

// BatchOptimizer sweeps unassigned legs and assigns the best available
// shipper to each. It is the autopilot behind the manual assignment
// endpoints: same eligibility rules, applied in bulk.
type BatchOptimizer struct {
	Engine *AssignmentEngine
	Legs   ports.LegRepository
	Areas  ports.AreaRepository

	Shippers   ports.ShipperRepository
	Warehouses ports.WarehouseRepository
}

// SkippedLeg records one leg the optimizer could not place and why.
type SkippedLeg struct {
	LegID   int64  `json:"leg_id"`
	OrderID string `json:"order_id"`
	AreaID  string `json:"area_id"`
	Reason  string `json:"reason"`
}

// AreaSummary aggregates one area's outcome within a batch run.
type AreaSummary struct {
	AreaID   string `json:"area_id"`
	Assigned int    `json:"assigned"`
	Skipped  int    `json:"skipped"`
}

// OptimizationReport is the outcome of one batch run.
type OptimizationReport struct {
	Status         string        `json:"status"`
	Summary        string        `json:"summary"`
	ProcessedCount int           `json:"processed_count"`
	Areas          []AreaSummary `json:"areas"`
	Skipped        []SkippedLeg  `json:"skipped"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
}

// RunAutoPilot assigns shippers to every assignable leg. When targetID
// is non-empty only that area is swept. One leg's failure never aborts
// the batch: it is recorded and the sweep moves on. Re-running over
// already-assigned legs is a no-op.
func (o *BatchOptimizer) RunAutoPilot(ctx context.Context, targetID string) (_ *OptimizationReport, err error) {
	defer obs.Time(ctx, "optimizer.RunAutoPilot")(&err)

	report := &OptimizationReport{
		Status:    "completed",
		StartedAt: time.Now().UTC(),
	}

	areaIDs, err := o.targetAreas(ctx, targetID)
	if err != nil {
		return nil, err
	}

	for _, areaID := range areaIDs {
		summary := AreaSummary{AreaID: areaID}

		legs, err := o.Legs.ListUnassignedLegs(ctx, areaID)
		if err != nil {
			// Area-level read failure: report it as a skip for the whole
			// area rather than killing the batch.
			report.Skipped = append(report.Skipped, SkippedLeg{
				AreaID: areaID,
				Reason: fmt.Sprintf("listing legs: %v", err),
			})
			summary.Skipped++
			report.Areas = append(report.Areas, summary)
			continue
		}

		for _, leg := range legs {
			if err := o.assignOne(ctx, leg); err != nil {
				report.Skipped = append(report.Skipped, SkippedLeg{
					LegID:   leg.LegID,
					OrderID: leg.OrderID,
					AreaID:  areaID,
					Reason:  skipReason(err),
				})
				summary.Skipped++
				continue
			}
			report.ProcessedCount++
			summary.Assigned++
		}

		report.Areas = append(report.Areas, summary)
	}

	report.FinishedAt = time.Now().UTC()
	report.Summary = fmt.Sprintf("assigned %d legs across %d areas, %d skipped",
		report.ProcessedCount, len(report.Areas), len(report.Skipped))
	if report.ProcessedCount == 0 && len(report.Skipped) > 0 {
		report.Status = "no_assignments"
	}

	zap.L().Info("autopilot run finished",
		zap.String("target", targetID),
		zap.Int("assigned", report.ProcessedCount),
		zap.Int("skipped", len(report.Skipped)))

	return report, nil
}

// assignOne picks the best eligible shipper for a single leg and routes
// the assignment through the engine, so batch and manual paths share
// one rule set.
func (o *BatchOptimizer) assignOne(ctx context.Context, leg *domain.JourneyLeg) error {
	order, err := o.Engine.Orders.GetOrder(ctx, leg.OrderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	if err := o.Engine.checkPredecessorAssigned(ctx, leg); err != nil {
		return err
	}

	areaID, err := o.Engine.legAreaID(ctx, leg, order)
	if err != nil {
		return err
	}

	shipper, err := o.pickShipper(ctx, leg, areaID)
	if err != nil {
		return err
	}

	_, err = o.Engine.AssignLeg(ctx, leg.LegID, shipper.ShipperID, "")
	return err
}

// pickShipper ranks eligible shippers in the area: highest rating first,
// then lightest current workload, then smallest id for determinism.
func (o *BatchOptimizer) pickShipper(
	ctx context.Context,
	leg *domain.JourneyLeg,
	areaID string,
) (*domain.Shipper, error) {
	shippers, err := o.Shippers.ListShippersByArea(ctx, areaID)
	if err != nil {
		return nil, fmt.Errorf("list shippers: %w", err)
	}

	type candidate struct {
		shipper *domain.Shipper
		active  int
	}
	var candidates []candidate
	for _, s := range shippers {
		if err := s.EligibleFor(leg.Type, areaID); err != nil {
			continue
		}
		active, err := o.Legs.CountActiveByShipper(ctx, s.ShipperID)
		if err != nil {
			return nil, fmt.Errorf("count active legs: %w", err)
		}
		if o.Engine.MaxActiveLegs > 0 && active >= o.Engine.MaxActiveLegs {
			continue
		}
		candidates = append(candidates, candidate{shipper: s, active: active})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("area %s has no eligible shipper for %s: %w",
			areaID, leg.Type, domain.ErrNoEligibleShipper)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.shipper.Rating != b.shipper.Rating {
			return a.shipper.Rating > b.shipper.Rating
		}
		if a.active != b.active {
			return a.active < b.active
		}
		return a.shipper.ShipperID < b.shipper.ShipperID
	})

	return candidates[0].shipper, nil
}

func (o *BatchOptimizer) targetAreas(ctx context.Context, targetID string) ([]string, error) {
	if targetID != "" {
		area, err := o.Areas.GetArea(ctx, targetID)
		if err != nil {
			return nil, fmt.Errorf("autopilot: %w", err)
		}
		return []string{area.AreaID}, nil
	}

	areas, err := o.Areas.ListAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("autopilot: list areas: %w", err)
	}
	ids := make([]string, 0, len(areas))
	for _, a := range areas {
		ids = append(ids, a.AreaID)
	}
	sort.Strings(ids)
	return ids, nil
}

// skipReason flattens an assignment failure into a stable report string.
func skipReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoEligibleShipper):
		return "no eligible shipper"
	case errors.Is(err, domain.ErrPrecedentNotAssigned):
		return "predecessor leg not assigned"
	case errors.Is(err, domain.ErrWarehouseInactive):
		return "destination warehouse inactive"
	case errors.Is(err, domain.ErrConflict):
		return "concurrent update, will retry next run"
	default:
		return err.Error()
	}
}
