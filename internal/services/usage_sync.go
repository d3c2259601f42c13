package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"dispatch-service/internal/domain"
	"dispatch-service/internal/platform/obs"
	"dispatch-service/internal/ports"

	"go.uber.org/zap"
)

// UsageSyncer recomputes each warehouse's current load from the journey
// legs. The load column is a derived cache: the legs are the source of
// truth and a full rescan overwrites whatever drifted.
type UsageSyncer struct {
	Legs       ports.LegRepository
	Warehouses ports.WarehouseRepository
}

// WarehouseUsage records one warehouse whose cached load was corrected.
type WarehouseUsage struct {
	WarehouseID string `json:"warehouse_id"`
	OldLoad     int    `json:"old_load"`
	NewLoad     int    `json:"new_load"`
}

// SyncReport is the outcome of one full recount.
type SyncReport struct {
	WarehousesScanned int              `json:"warehouses_scanned"`
	ParcelsCounted    int              `json:"parcels_counted"`
	Updated           []WarehouseUsage `json:"updated"`
	At                time.Time        `json:"at"`
}

// SyncUsage recounts parcels physically sitting at each warehouse and
// overwrites the cached loads. A parcel occupies warehouse W while the
// leg into W is COMPLETED and the leg out of W has not completed yet.
func (s *UsageSyncer) SyncUsage(ctx context.Context) (_ *SyncReport, err error) {
	defer obs.Time(ctx, "usage.SyncUsage")(&err)

	warehouses, err := s.Warehouses.ListWarehouses(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync usage: %w", err)
	}

	report := &SyncReport{
		WarehousesScanned: len(warehouses),
		At:                time.Now().UTC(),
	}

	resident, err := s.residentCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync usage: %w", err)
	}

	for _, wh := range warehouses {
		count := resident[wh.WarehouseID]
		report.ParcelsCounted += count

		if count == wh.CurrentLoad {
			continue
		}
		if err := s.Warehouses.SetCurrentLoad(ctx, wh.WarehouseID, count); err != nil {
			return nil, fmt.Errorf("sync usage: warehouse %s: %w", wh.WarehouseID, err)
		}
		report.Updated = append(report.Updated, WarehouseUsage{
			WarehouseID: wh.WarehouseID,
			OldLoad:     wh.CurrentLoad,
			NewLoad:     count,
		})
	}

	sort.Slice(report.Updated, func(i, j int) bool {
		return report.Updated[i].WarehouseID < report.Updated[j].WarehouseID
	})

	zap.L().Info("warehouse usage synced",
		zap.Int("scanned", report.WarehousesScanned),
		zap.Int("corrected", len(report.Updated)))

	return report, nil
}

// residentCounts scans every warehouse-bound leg once and counts, per
// warehouse, the parcels that arrived but have not left on the next leg.
func (s *UsageSyncer) residentCounts(ctx context.Context) (map[string]int, error) {
	inbound, err := s.Legs.ListLegsWithDestination(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	byOrder := make(map[string][]*domain.JourneyLeg)
	for _, leg := range inbound {
		if leg.Status == domain.LegCompleted {
			byOrder[leg.OrderID] = nil
		}
	}
	for orderID := range byOrder {
		legs, err := s.Legs.ListLegsByOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		byOrder[orderID] = legs
	}

	for _, leg := range inbound {
		if leg.Status != domain.LegCompleted {
			continue
		}
		if !hasDeparted(byOrder[leg.OrderID], leg.Sequence) {
			counts[leg.DestinationWarehouseID]++
		}
	}
	return counts, nil
}

// hasDeparted reports whether the leg following sequence seq completed,
// meaning the parcel already left the warehouse it arrived at.
func hasDeparted(legs []*domain.JourneyLeg, seq int) bool {
	for _, l := range legs {
		if l.Sequence == seq+1 {
			return l.Status == domain.LegCompleted
		}
	}
	return false
}
