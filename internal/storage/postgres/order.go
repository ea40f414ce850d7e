package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pos-restaurant/internal/domain/order"
)

const (
	orderColumns = `id, items, status, table_number, customer_name, notes,
		total_amount, payment, created_by, created_at, updated_at, revision`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		ORDER BY created_at DESC, id DESC`

	listOrdersByStatusSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE status = $1 ORDER BY created_at DESC, id DESC`

	replaceOrderSQL = `UPDATE orders SET
		items = $3, status = $4, table_number = $5, customer_name = $6, notes = $7,
		total_amount = $8, payment = $9, updated_at = $10, revision = revision + 1
		WHERE id = $1 AND revision = $2`

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order under a fresh UUID. Lines and payment are
// serialized to JSON for the JSONB columns.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, paymentJSON, err := marshalOrder(o)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	_, err = r.pool.Exec(ctx, createOrderSQL,
		id, itemsJSON, string(o.Status), o.TableNumber, o.CustomerName, o.Notes,
		o.TotalAmount, paymentJSON, o.CreatedBy, o.CreatedAt, o.UpdatedAt, int64(1),
	)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}

	o.ID = id
	o.Revision = 1
	return nil
}

// Get returns the order with id.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	if !validID(id) {
		return nil, order.ErrInvalidID
	}

	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// List returns orders newest first, optionally narrowed to one status.
func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if f.Status != "" {
		rows, err = r.pool.Query(ctx, listOrdersByStatusSQL, string(f.Status))
	} else {
		rows, err = r.pool.Query(ctx, listOrdersSQL)
	}
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Replace writes o if the stored revision still equals o.Revision.
func (r *OrderRepository) Replace(ctx context.Context, o *order.Order) error {
	if !validID(o.ID) {
		return order.ErrInvalidID
	}
	itemsJSON, paymentJSON, err := marshalOrder(o)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, replaceOrderSQL,
		o.ID, o.Revision, itemsJSON, string(o.Status), o.TableNumber, o.CustomerName,
		o.Notes, o.TotalAmount, paymentJSON, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("replacing order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, orderExistsSQL, o.ID).Scan(&exists); err != nil {
			return fmt.Errorf("checking order %q: %w", o.ID, err)
		}
		if !exists {
			return order.ErrNotFound
		}
		return order.ErrConflict
	}

	o.Revision++
	return nil
}

func marshalOrder(o *order.Order) (itemsJSON, paymentJSON []byte, err error) {
	itemsJSON, err = json.Marshal(o.Items)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling order items: %w", err)
	}
	if o.Payment != nil {
		paymentJSON, err = json.Marshal(o.Payment)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling payment: %w", err)
		}
	}
	return itemsJSON, paymentJSON, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o           order.Order
		status      string
		itemsJSON   []byte
		paymentJSON []byte
	)
	err := row.Scan(
		&o.ID, &itemsJSON, &status, &o.TableNumber, &o.CustomerName, &o.Notes,
		&o.TotalAmount, &paymentJSON, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt, &o.Revision,
	)
	if err != nil {
		return o, err
	}

	o.Status = order.Status(status)
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("decoding items of order %q: %w", o.ID, err)
	}
	if len(paymentJSON) > 0 {
		var p order.Payment
		if err := json.Unmarshal(paymentJSON, &p); err != nil {
			return o, fmt.Errorf("decoding payment of order %q: %w", o.ID, err)
		}
		p.PaidAt = p.PaidAt.UTC()
		o.Payment = &p
	}
	return o, nil
}
