package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"dispatch-service/internal/domain"
)

// Initialize the Postgres schema for the dispatch tables.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createAreasQuery := `
	CREATE TABLE IF NOT EXISTS areas (
		area_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		area_type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		center_lat DOUBLE PRECISION NOT NULL DEFAULT 0,
		center_lon DOUBLE PRECISION NOT NULL DEFAULT 0,
		radius_km DOUBLE PRECISION NOT NULL DEFAULT 0
	);
	`

	createSMEsQuery := `
	CREATE TABLE IF NOT EXISTS smes (
		sme_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		area_id TEXT NOT NULL REFERENCES areas(area_id)
	);
	`

	createWarehousesQuery := `
	CREATE TABLE IF NOT EXISTS warehouses (
		warehouse_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		warehouse_type TEXT NOT NULL,
		area_id TEXT NOT NULL REFERENCES areas(area_id),
		capacity_limit INTEGER NOT NULL DEFAULT 0,
		current_load INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'ACTIVE'
	);
	`

	createShippersQuery := `
	CREATE TABLE IF NOT EXISTS shippers (
		shipper_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		vehicle TEXT NOT NULL,
		area_id TEXT NOT NULL REFERENCES areas(area_id),
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		rating DOUBLE PRECISION NOT NULL DEFAULT 0
	);
	`

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		sme_id TEXT NOT NULL REFERENCES smes(sme_id),
		area_id TEXT NOT NULL REFERENCES areas(area_id),
		receiver_name TEXT NOT NULL,
		receiver_phone TEXT NOT NULL DEFAULT '',
		receiver_address TEXT NOT NULL,
		receiver_lat DOUBLE PRECISION NOT NULL DEFAULT 0,
		receiver_lon DOUBLE PRECISION NOT NULL DEFAULT 0,
		weight_kg DOUBLE PRECISION NOT NULL,
		dimensions TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`

	createLegsQuery := `
	CREATE TABLE IF NOT EXISTS journey_legs (
		leg_id BIGSERIAL PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(order_id),
		sequence INTEGER NOT NULL,
		leg_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		assigned_shipper_id TEXT NOT NULL DEFAULT '',
		origin_sme_id TEXT NOT NULL DEFAULT '',
		origin_warehouse_id TEXT NOT NULL DEFAULT '',
		destination_warehouse_id TEXT NOT NULL DEFAULT '',
		destination_is_receiver BOOLEAN NOT NULL DEFAULT FALSE,
		estimated_distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (order_id, sequence)
	);
	`

	createLegIndexesQuery := `
	CREATE INDEX IF NOT EXISTS idx_journey_legs_order
	ON journey_legs(order_id, sequence);
	`

	createLegShipperIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_journey_legs_shipper_status
	ON journey_legs(assigned_shipper_id, status);
	`

	statements := []string{
		createAreasQuery,
		createSMEsQuery,
		createWarehousesQuery,
		createShippersQuery,
		createOrdersQuery,
		createLegsQuery,
		createLegIndexesQuery,
		createLegShipperIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// RegistrySeed mirrors the JSON layout of the seed file: the static
// registries dispatch depends on but does not own.
type RegistrySeed struct {
	Areas      []AreaSeed      `json:"areas"`
	SMEs       []SMESeed       `json:"smes"`
	Warehouses []WarehouseSeed `json:"warehouses"`
	Shippers   []ShipperSeed   `json:"shippers"`
}

type AreaSeed struct {
	AreaID    string  `json:"area_id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Status    string  `json:"status"`
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	RadiusKm  float64 `json:"radius_km"`
}

type SMESeed struct {
	SMEID   string  `json:"sme_id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	AreaID  string  `json:"area_id"`
}

type WarehouseSeed struct {
	WarehouseID   string  `json:"warehouse_id"`
	Name          string  `json:"name"`
	Address       string  `json:"address"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	Type          string  `json:"type"`
	AreaID        string  `json:"area_id"`
	CapacityLimit int     `json:"capacity_limit"`
	Status        string  `json:"status"`
}

type ShipperSeed struct {
	ShipperID string  `json:"shipper_id"`
	Name      string  `json:"name"`
	Vehicle   string  `json:"vehicle"`
	AreaID    string  `json:"area_id"`
	Status    string  `json:"status"`
	Rating    float64 `json:"rating"`
}

// Populate the registries from a JSON seed file. Existing rows with the
// same id are overwritten.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	if db == nil {
		return errors.New("seed registries: DB is nil")
	}

	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed registries: read %q: %w", jsonPath, err)
	}

	var seed RegistrySeed
	if err := json.Unmarshal(bytes, &seed); err != nil {
		return fmt.Errorf("seed registries: parse json: %w", err)
	}
	if err := validateSeed(&seed); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed registries: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	areaQuery := `
	INSERT INTO areas (area_id, name, area_type, status, center_lat, center_lon, radius_km)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (area_id) DO UPDATE SET
		name = EXCLUDED.name,
		area_type = EXCLUDED.area_type,
		status = EXCLUDED.status,
		center_lat = EXCLUDED.center_lat,
		center_lon = EXCLUDED.center_lon,
		radius_km = EXCLUDED.radius_km;
	`
	for _, a := range seed.Areas {
		if _, err := tx.Exec(areaQuery, a.AreaID, a.Name, a.Type, defaultStatus(a.Status), a.CenterLat, a.CenterLon, a.RadiusKm); err != nil {
			return fmt.Errorf("seed registries: insert area %s: %w", a.AreaID, err)
		}
	}

	smeQuery := `
	INSERT INTO smes (sme_id, name, address, lat, lon, area_id)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (sme_id) DO UPDATE SET
		name = EXCLUDED.name,
		address = EXCLUDED.address,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		area_id = EXCLUDED.area_id;
	`
	for _, s := range seed.SMEs {
		if _, err := tx.Exec(smeQuery, s.SMEID, s.Name, s.Address, s.Lat, s.Lon, s.AreaID); err != nil {
			return fmt.Errorf("seed registries: insert sme %s: %w", s.SMEID, err)
		}
	}

	warehouseQuery := `
	INSERT INTO warehouses (warehouse_id, name, address, lat, lon, warehouse_type, area_id, capacity_limit, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (warehouse_id) DO UPDATE SET
		name = EXCLUDED.name,
		address = EXCLUDED.address,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		warehouse_type = EXCLUDED.warehouse_type,
		area_id = EXCLUDED.area_id,
		capacity_limit = EXCLUDED.capacity_limit,
		status = EXCLUDED.status;
	`
	for _, w := range seed.Warehouses {
		if _, err := tx.Exec(warehouseQuery, w.WarehouseID, w.Name, w.Address, w.Lat, w.Lon, w.Type, w.AreaID, w.CapacityLimit, defaultStatus(w.Status)); err != nil {
			return fmt.Errorf("seed registries: insert warehouse %s: %w", w.WarehouseID, err)
		}
	}

	shipperQuery := `
	INSERT INTO shippers (shipper_id, name, vehicle, area_id, status, rating)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (shipper_id) DO UPDATE SET
		name = EXCLUDED.name,
		vehicle = EXCLUDED.vehicle,
		area_id = EXCLUDED.area_id,
		status = EXCLUDED.status,
		rating = EXCLUDED.rating;
	`
	for _, s := range seed.Shippers {
		if _, err := tx.Exec(shipperQuery, s.ShipperID, s.Name, s.Vehicle, s.AreaID, defaultStatus(s.Status), s.Rating); err != nil {
			return fmt.Errorf("seed registries: insert shipper %s: %w", s.ShipperID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed registries: commit tx: %w", err)
	}

	return nil
}

func validateSeed(seed *RegistrySeed) error {
	for i, a := range seed.Areas {
		if strings.TrimSpace(a.AreaID) == "" {
			return fmt.Errorf("seed registries: area at index %d: area_id cannot be empty", i+1)
		}
	}
	for i, s := range seed.SMEs {
		if strings.TrimSpace(s.SMEID) == "" || strings.TrimSpace(s.AreaID) == "" {
			return fmt.Errorf("seed registries: sme at index %d: sme_id and area_id are required", i+1)
		}
	}
	for i, w := range seed.Warehouses {
		if strings.TrimSpace(w.WarehouseID) == "" || strings.TrimSpace(w.AreaID) == "" {
			return fmt.Errorf("seed registries: warehouse at index %d: warehouse_id and area_id are required", i+1)
		}
		switch domain.WarehouseType(w.Type) {
		case domain.WarehouseHub, domain.WarehouseSatellite, domain.WarehouseLocalDepot:
		default:
			return fmt.Errorf("seed registries: warehouse %s: unknown type %q", w.WarehouseID, w.Type)
		}
	}
	for i, s := range seed.Shippers {
		if strings.TrimSpace(s.ShipperID) == "" || strings.TrimSpace(s.AreaID) == "" {
			return fmt.Errorf("seed registries: shipper at index %d: shipper_id and area_id are required", i+1)
		}
	}
	return nil
}

func defaultStatus(status string) string {
	if strings.TrimSpace(status) == "" {
		return "ACTIVE"
	}
	return status
}
