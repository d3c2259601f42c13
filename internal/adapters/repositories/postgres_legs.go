package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dispatch-service/internal/domain"
)

// Postgres-backed implementation of the LegRepository port. Leg writes
// use optimistic locking on the version column: see UpdateLeg.
type PostgresLegRepository struct{ DB *sql.DB }

func NewPostgresLegRepository(db *sql.DB) *PostgresLegRepository {
	return &PostgresLegRepository{DB: db}
}

const legColumns = `
	leg_id,
	order_id,
	sequence,
	leg_type,
	status,
	assigned_shipper_id,
	origin_sme_id,
	origin_warehouse_id,
	destination_warehouse_id,
	destination_is_receiver,
	estimated_distance_km,
	version,
	started_at,
	completed_at,
	created_at,
	updated_at
`

func (r *PostgresLegRepository) GetLeg(ctx context.Context, legID int64) (*domain.JourneyLeg, error) {
	if r.DB == nil {
		return nil, errors.New("leg repository: DB is nil")
	}

	query := `SELECT ` + legColumns + ` FROM journey_legs WHERE leg_id = $1;`
	leg, err := scanLeg(r.DB.QueryRowContext(ctx, query, legID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "leg", ID: fmt.Sprint(legID)}
	}
	if err != nil {
		return nil, fmt.Errorf("get leg %d: %w", legID, err)
	}
	return leg, nil
}

func (r *PostgresLegRepository) ListLegsByOrder(ctx context.Context, orderID string) ([]*domain.JourneyLeg, error) {
	if r.DB == nil {
		return nil, errors.New("leg repository: DB is nil")
	}

	query := `SELECT ` + legColumns + `
	FROM journey_legs
	WHERE order_id = $1
	ORDER BY sequence;`

	return r.queryLegs(ctx, "list legs by order", query, orderID)
}

// CreateLegs persists a whole leg plan in one transaction so a partial
// plan is never observable.
func (r *PostgresLegRepository) CreateLegs(ctx context.Context, legs []*domain.JourneyLeg) error {
	if r.DB == nil {
		return errors.New("leg repository: DB is nil")
	}
	if len(legs) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create legs: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO journey_legs (
		order_id,
		sequence,
		leg_type,
		status,
		assigned_shipper_id,
		origin_sme_id,
		origin_warehouse_id,
		destination_warehouse_id,
		destination_is_receiver,
		estimated_distance_km,
		version,
		created_at,
		updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $12)
	RETURNING leg_id;
	`
	for _, leg := range legs {
		err := tx.QueryRowContext(ctx, query,
			leg.OrderID,
			leg.Sequence,
			leg.Type,
			leg.Status,
			leg.AssignedShipperID,
			leg.OriginSMEID,
			leg.OriginWarehouseID,
			leg.DestinationWarehouseID,
			leg.DestinationIsReceiver,
			leg.EstimatedDistanceKm,
			leg.CreatedAt,
			leg.UpdatedAt,
		).Scan(&leg.LegID)
		if err != nil {
			return fmt.Errorf("create legs: insert sequence %d: %w", leg.Sequence, err)
		}
		leg.Version = 1
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create legs: commit tx: %w", err)
	}
	return nil
}

// UpdateLeg writes the leg only if its stored version still equals
// expectedVersion. Zero rows affected on an existing leg means another
// writer got there first: the caller's read was stale.
func (r *PostgresLegRepository) UpdateLeg(
	ctx context.Context,
	leg *domain.JourneyLeg,
	expectedVersion int,
) error {
	if r.DB == nil {
		return errors.New("leg repository: DB is nil")
	}

	query := `
	UPDATE journey_legs SET
		status = $1,
		assigned_shipper_id = $2,
		origin_warehouse_id = $3,
		destination_warehouse_id = $4,
		estimated_distance_km = $5,
		started_at = $6,
		completed_at = $7,
		updated_at = $8,
		version = version + 1
	WHERE leg_id = $9 AND version = $10;
	`
	res, err := r.DB.ExecContext(ctx, query,
		leg.Status,
		leg.AssignedShipperID,
		leg.OriginWarehouseID,
		leg.DestinationWarehouseID,
		leg.EstimatedDistanceKm,
		leg.StartedAt,
		leg.CompletedAt,
		leg.UpdatedAt,
		leg.LegID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update leg %d: %w", leg.LegID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update leg %d: rows affected: %w", leg.LegID, err)
	}
	if affected == 1 {
		leg.Version = expectedVersion + 1
		return nil
	}

	// Distinguish a stale version from a missing leg.
	var exists bool
	check := `SELECT EXISTS (SELECT 1 FROM journey_legs WHERE leg_id = $1);`
	if err := r.DB.QueryRowContext(ctx, check, leg.LegID).Scan(&exists); err != nil {
		return fmt.Errorf("update leg %d: existence check: %w", leg.LegID, err)
	}
	if !exists {
		return &domain.NotFoundError{Kind: "leg", ID: fmt.Sprint(leg.LegID)}
	}
	return fmt.Errorf("update leg %d: expected version %d: %w",
		leg.LegID, expectedVersion, domain.ErrConflict)
}

func (r *PostgresLegRepository) DeleteLeg(ctx context.Context, legID int64) error {
	if r.DB == nil {
		return errors.New("leg repository: DB is nil")
	}

	res, err := r.DB.ExecContext(ctx, `DELETE FROM journey_legs WHERE leg_id = $1;`, legID)
	if err != nil {
		return fmt.Errorf("delete leg %d: %w", legID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete leg %d: rows affected: %w", legID, err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Kind: "leg", ID: fmt.Sprint(legID)}
	}
	return nil
}

func (r *PostgresLegRepository) ListUnassignedLegs(ctx context.Context, areaID string) ([]*domain.JourneyLeg, error) {
	if r.DB == nil {
		return nil, errors.New("leg repository: DB is nil")
	}

	if areaID == "" {
		query := `SELECT ` + legColumns + `
		FROM journey_legs
		WHERE status = 'PENDING' AND assigned_shipper_id = ''
		ORDER BY order_id, sequence;`
		return r.queryLegs(ctx, "list unassigned legs", query)
	}

	query := `SELECT ` + prefixLegColumns("l") + `
	FROM journey_legs l
	JOIN orders o ON o.order_id = l.order_id
	WHERE l.status = 'PENDING' AND l.assigned_shipper_id = '' AND o.area_id = $1
	ORDER BY l.order_id, l.sequence;`
	return r.queryLegs(ctx, "list unassigned legs", query, areaID)
}

func (r *PostgresLegRepository) ListLegsWithDestination(ctx context.Context) ([]*domain.JourneyLeg, error) {
	if r.DB == nil {
		return nil, errors.New("leg repository: DB is nil")
	}

	query := `SELECT ` + legColumns + `
	FROM journey_legs
	WHERE destination_warehouse_id <> '' AND status <> 'CANCELLED'
	ORDER BY leg_id;`
	return r.queryLegs(ctx, "list legs with destination", query)
}

func (r *PostgresLegRepository) CountActiveByShipper(ctx context.Context, shipperID string) (int, error) {
	if r.DB == nil {
		return 0, errors.New("leg repository: DB is nil")
	}

	query := `
	SELECT COUNT(*)
	FROM journey_legs
	WHERE assigned_shipper_id = $1 AND status NOT IN ('COMPLETED', 'CANCELLED');
	`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, shipperID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active legs for shipper %s: %w", shipperID, err)
	}
	return count, nil
}

func (r *PostgresLegRepository) queryLegs(
	ctx context.Context,
	op string,
	query string,
	args ...any,
) ([]*domain.JourneyLeg, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	legs := make([]*domain.JourneyLeg, 0, 16)
	for rows.Next() {
		leg, err := scanLeg(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		legs = append(legs, leg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: row iteration: %w", op, err)
	}
	return legs, nil
}

func scanLeg(row rowScanner) (*domain.JourneyLeg, error) {
	var l domain.JourneyLeg
	var startedAt, completedAt sql.NullTime
	err := row.Scan(
		&l.LegID,
		&l.OrderID,
		&l.Sequence,
		&l.Type,
		&l.Status,
		&l.AssignedShipperID,
		&l.OriginSMEID,
		&l.OriginWarehouseID,
		&l.DestinationWarehouseID,
		&l.DestinationIsReceiver,
		&l.EstimatedDistanceKm,
		&l.Version,
		&startedAt,
		&completedAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		t := startedAt.Time
		l.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		l.CompletedAt = &t
	}
	return &l, nil
}

// prefixLegColumns qualifies the shared column list for joined queries.
func prefixLegColumns(alias string) string {
	return `
	` + alias + `.leg_id,
	` + alias + `.order_id,
	` + alias + `.sequence,
	` + alias + `.leg_type,
	` + alias + `.status,
	` + alias + `.assigned_shipper_id,
	` + alias + `.origin_sme_id,
	` + alias + `.origin_warehouse_id,
	` + alias + `.destination_warehouse_id,
	` + alias + `.destination_is_receiver,
	` + alias + `.estimated_distance_km,
	` + alias + `.version,
	` + alias + `.started_at,
	` + alias + `.completed_at,
	` + alias + `.created_at,
	` + alias + `.updated_at`
}
