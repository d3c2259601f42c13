package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dispatch-service/internal/domain"
)

// Postgres-backed registries: shippers, warehouses, SMEs and areas.
// Dispatch reads these; another system owns their lifecycle, so the only
// write here is the derived warehouse load counter.

type PostgresShipperRepository struct{ DB *sql.DB }

func NewPostgresShipperRepository(db *sql.DB) *PostgresShipperRepository {
	return &PostgresShipperRepository{DB: db}
}

const shipperColumns = `shipper_id, name, vehicle, area_id, status, rating`

func (r *PostgresShipperRepository) GetShipper(ctx context.Context, shipperID string) (*domain.Shipper, error) {
	if r.DB == nil {
		return nil, errors.New("shipper repository: DB is nil")
	}

	query := `SELECT ` + shipperColumns + ` FROM shippers WHERE shipper_id = $1;`
	var s domain.Shipper
	err := r.DB.QueryRowContext(ctx, query, shipperID).Scan(
		&s.ShipperID, &s.Name, &s.Vehicle, &s.AreaID, &s.Status, &s.Rating,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "shipper", ID: shipperID}
	}
	if err != nil {
		return nil, fmt.Errorf("get shipper %s: %w", shipperID, err)
	}
	return &s, nil
}

func (r *PostgresShipperRepository) ListShippersByArea(ctx context.Context, areaID string) ([]*domain.Shipper, error) {
	if r.DB == nil {
		return nil, errors.New("shipper repository: DB is nil")
	}

	query := `SELECT ` + shipperColumns + ` FROM shippers WHERE area_id = $1 ORDER BY shipper_id;`
	rows, err := r.DB.QueryContext(ctx, query, areaID)
	if err != nil {
		return nil, fmt.Errorf("list shippers in area %s: %w", areaID, err)
	}
	defer rows.Close()

	shippers := make([]*domain.Shipper, 0, 16)
	for rows.Next() {
		var s domain.Shipper
		if err := rows.Scan(&s.ShipperID, &s.Name, &s.Vehicle, &s.AreaID, &s.Status, &s.Rating); err != nil {
			return nil, fmt.Errorf("list shippers in area %s: scan row: %w", areaID, err)
		}
		shippers = append(shippers, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list shippers in area %s: row iteration: %w", areaID, err)
	}
	return shippers, nil
}

type PostgresWarehouseRepository struct{ DB *sql.DB }

func NewPostgresWarehouseRepository(db *sql.DB) *PostgresWarehouseRepository {
	return &PostgresWarehouseRepository{DB: db}
}

const warehouseColumns = `
	warehouse_id, name, address, lat, lon, warehouse_type, area_id,
	capacity_limit, current_load, status
`

func (r *PostgresWarehouseRepository) GetWarehouse(ctx context.Context, warehouseID string) (*domain.Warehouse, error) {
	if r.DB == nil {
		return nil, errors.New("warehouse repository: DB is nil")
	}

	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE warehouse_id = $1;`
	w, err := scanWarehouse(r.DB.QueryRowContext(ctx, query, warehouseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "warehouse", ID: warehouseID}
	}
	if err != nil {
		return nil, fmt.Errorf("get warehouse %s: %w", warehouseID, err)
	}
	return w, nil
}

func (r *PostgresWarehouseRepository) ListWarehouses(ctx context.Context) ([]*domain.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses ORDER BY warehouse_id;`
	return r.queryWarehouses(ctx, "list warehouses", query)
}

func (r *PostgresWarehouseRepository) ListActiveWarehouses(ctx context.Context) ([]*domain.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE status = 'ACTIVE' ORDER BY warehouse_id;`
	return r.queryWarehouses(ctx, "list active warehouses", query)
}

func (r *PostgresWarehouseRepository) SetCurrentLoad(ctx context.Context, warehouseID string, load int) error {
	if r.DB == nil {
		return errors.New("warehouse repository: DB is nil")
	}

	query := `UPDATE warehouses SET current_load = $1 WHERE warehouse_id = $2;`
	res, err := r.DB.ExecContext(ctx, query, load, warehouseID)
	if err != nil {
		return fmt.Errorf("set warehouse %s load: %w", warehouseID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set warehouse %s load: rows affected: %w", warehouseID, err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Kind: "warehouse", ID: warehouseID}
	}
	return nil
}

func (r *PostgresWarehouseRepository) queryWarehouses(
	ctx context.Context,
	op string,
	query string,
) ([]*domain.Warehouse, error) {
	if r.DB == nil {
		return nil, errors.New("warehouse repository: DB is nil")
	}

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	warehouses := make([]*domain.Warehouse, 0, 16)
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		warehouses = append(warehouses, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: row iteration: %w", op, err)
	}
	return warehouses, nil
}

func scanWarehouse(row rowScanner) (*domain.Warehouse, error) {
	var w domain.Warehouse
	err := row.Scan(
		&w.WarehouseID,
		&w.Name,
		&w.Address,
		&w.Coords.Lat,
		&w.Coords.Lon,
		&w.Type,
		&w.AreaID,
		&w.CapacityLimit,
		&w.CurrentLoad,
		&w.Status,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

type PostgresSMERepository struct{ DB *sql.DB }

func NewPostgresSMERepository(db *sql.DB) *PostgresSMERepository {
	return &PostgresSMERepository{DB: db}
}

func (r *PostgresSMERepository) GetSME(ctx context.Context, smeID string) (*domain.SME, error) {
	if r.DB == nil {
		return nil, errors.New("sme repository: DB is nil")
	}

	query := `SELECT sme_id, name, address, lat, lon, area_id FROM smes WHERE sme_id = $1;`
	var s domain.SME
	err := r.DB.QueryRowContext(ctx, query, smeID).Scan(
		&s.SMEID, &s.Name, &s.Address, &s.Coords.Lat, &s.Coords.Lon, &s.AreaID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "sme", ID: smeID}
	}
	if err != nil {
		return nil, fmt.Errorf("get sme %s: %w", smeID, err)
	}
	return &s, nil
}

type PostgresAreaRepository struct{ DB *sql.DB }

func NewPostgresAreaRepository(db *sql.DB) *PostgresAreaRepository {
	return &PostgresAreaRepository{DB: db}
}

const areaColumns = `area_id, name, area_type, status, center_lat, center_lon, radius_km`

func (r *PostgresAreaRepository) GetArea(ctx context.Context, areaID string) (*domain.Area, error) {
	if r.DB == nil {
		return nil, errors.New("area repository: DB is nil")
	}

	query := `SELECT ` + areaColumns + ` FROM areas WHERE area_id = $1;`
	var a domain.Area
	err := r.DB.QueryRowContext(ctx, query, areaID).Scan(
		&a.AreaID, &a.Name, &a.Type, &a.Status, &a.Center.Lat, &a.Center.Lon, &a.RadiusKm,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "area", ID: areaID}
	}
	if err != nil {
		return nil, fmt.Errorf("get area %s: %w", areaID, err)
	}
	return &a, nil
}

func (r *PostgresAreaRepository) ListAreas(ctx context.Context) ([]*domain.Area, error) {
	if r.DB == nil {
		return nil, errors.New("area repository: DB is nil")
	}

	query := `SELECT ` + areaColumns + ` FROM areas ORDER BY area_id;`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	defer rows.Close()

	areas := make([]*domain.Area, 0, 8)
	for rows.Next() {
		var a domain.Area
		if err := rows.Scan(&a.AreaID, &a.Name, &a.Type, &a.Status, &a.Center.Lat, &a.Center.Lon, &a.RadiusKm); err != nil {
			return nil, fmt.Errorf("list areas: scan row: %w", err)
		}
		areas = append(areas, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list areas: row iteration: %w", err)
	}
	return areas, nil
}
