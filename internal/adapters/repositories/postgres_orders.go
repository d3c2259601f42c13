package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dispatch-service/internal/domain"
)

// Postgres-backed implementation of the OrderRepository port.
type PostgresOrderRepository struct{ DB *sql.DB }

func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{DB: db}
}

const orderColumns = `
	order_id,
	code,
	sme_id,
	area_id,
	receiver_name,
	receiver_phone,
	receiver_address,
	receiver_lat,
	receiver_lon,
	weight_kg,
	dimensions,
	note,
	status,
	created_at,
	updated_at
`

func (r *PostgresOrderRepository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if r.DB == nil {
		return nil, errors.New("order repository: DB is nil")
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1;`
	order, err := scanOrder(r.DB.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "order", ID: orderID}
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return order, nil
}

func (r *PostgresOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if r.DB == nil {
		return errors.New("order repository: DB is nil")
	}

	query := `
	INSERT INTO orders (` + orderColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.DB.ExecContext(ctx, query,
		order.OrderID,
		order.Code,
		order.SMEID,
		order.AreaID,
		order.Receiver.Name,
		order.Receiver.Phone,
		order.Receiver.Address,
		order.Receiver.Coords.Lat,
		order.Receiver.Coords.Lon,
		order.WeightKg,
		order.Dimensions,
		order.Note,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create order %s: %w", order.OrderID, err)
	}
	return nil
}

func (r *PostgresOrderRepository) UpdateOrderStatus(
	ctx context.Context,
	orderID string,
	status domain.OrderStatus,
) error {
	if r.DB == nil {
		return errors.New("order repository: DB is nil")
	}

	query := `UPDATE orders SET status = $1, updated_at = NOW() WHERE order_id = $2;`
	res, err := r.DB.ExecContext(ctx, query, status, orderID)
	if err != nil {
		return fmt.Errorf("update order %s status: %w", orderID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order %s status: rows affected: %w", orderID, err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Kind: "order", ID: orderID}
	}
	return nil
}

func (r *PostgresOrderRepository) ListOrdersByStatus(
	ctx context.Context,
	statuses []domain.OrderStatus,
) ([]*domain.Order, error) {
	if r.DB == nil {
		return nil, errors.New("order repository: DB is nil")
	}
	if len(statuses) == 0 {
		return []*domain.Order{}, nil
	}

	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = s
	}

	query := `SELECT ` + orderColumns + `
	FROM orders
	WHERE status IN (` + strings.Join(placeholders, ", ") + `)
	ORDER BY order_id;`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders by status: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, 32)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("list orders by status: scan row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders by status: row iteration: %w", err)
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.OrderID,
		&o.Code,
		&o.SMEID,
		&o.AreaID,
		&o.Receiver.Name,
		&o.Receiver.Phone,
		&o.Receiver.Address,
		&o.Receiver.Coords.Lat,
		&o.Receiver.Coords.Lon,
		&o.WeightKg,
		&o.Dimensions,
		&o.Note,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
