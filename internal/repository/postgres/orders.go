package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"shopflow-tracking/internal/apperr"
	"shopflow-tracking/internal/domain"
	"shopflow-tracking/internal/repository/record"
)

const selectOrder = `
	SELECT id, user_id, total::text, currency, shipping_address, status,
	       tracking_number, tracking_status, delivery, created_at, updated_at
	FROM orders`

// OrderRepository stores orders in the orders and order_items tables.
type OrderRepository struct {
	db *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

// withTx opens a transaction and executes fn within it.
func (r *OrderRepository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Insert writes the order and its items in one transaction.
func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	delivery, err := json.Marshal(record.DeliveryFromDomain(o.Delivery))
	if err != nil {
		return fmt.Errorf("encode delivery: %w", err)
	}

	return r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (id, user_id, total, currency, shipping_address, status,
			                    tracking_number, tracking_status, delivery, created_at, updated_at)
			VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9::jsonb, $10, $11)`,
			o.ID, o.UserID, o.Total.String(), o.Currency, o.ShippingAddress, string(o.Status),
			o.TrackingNumber, o.TrackingStatus, string(delivery), o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
		)
		if IsDuplicate(err) {
			return fmt.Errorf("insert order %s: %w", o.ID, apperr.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		batch := &pgx.Batch{}
		for i, it := range o.Items {
			batch.Queue(`
				INSERT INTO order_items (order_id, position, product_id, quantity, unit_price)
				VALUES ($1, $2, $3, $4, $5::numeric)`,
				o.ID, i, it.ProductID, it.Quantity, it.UnitPrice.String())
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
}

// Get returns the order or (nil, nil).
func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, selectOrder+` WHERE id = $1`, id))
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := r.items(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return o, nil
}

// ListByUser returns the user's orders, oldest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, selectOrder+` WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

// List returns every order, oldest first.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, selectOrder+` ORDER BY created_at, id`)
}

// Update writes the mutable part of the order. Items are fixed at checkout.
func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) (bool, error) {
	delivery, err := json.Marshal(record.DeliveryFromDomain(o.Delivery))
	if err != nil {
		return false, fmt.Errorf("encode delivery: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, tracking_number = $3, tracking_status = $4, delivery = $5::jsonb, updated_at = $6
		WHERE id = $1`,
		o.ID, string(o.Status), o.TrackingNumber, o.TrackingStatus, string(delivery), o.UpdatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("update order: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Ping checks the pool.
func (r *OrderRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	ids := lo.Map(orders, func(o *domain.Order, _ int) string { return o.ID })
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		o.Items = items[o.ID]
		out = append(out, *o)
	}
	return out, nil
}

type itemRow struct {
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice string
}

func (r *OrderRepository) items(ctx context.Context, ids []string) (map[string][]domain.OrderItem, error) {
	if len(ids) == 0 {
		return map[string][]domain.OrderItem{}, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT order_id, product_id, quantity, unit_price::text
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToStructByPos[itemRow])
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	out := make(map[string][]domain.OrderItem, len(ids))
	for _, it := range raw {
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("order %s: unit price: %w", it.OrderID, err)
		}
		out[it.OrderID] = append(out[it.OrderID], domain.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: price,
		})
	}
	return out, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o        domain.Order
		total    string
		status   string
		delivery []byte
	)
	if err := row.Scan(
		&o.ID, &o.UserID, &total, &o.Currency, &o.ShippingAddress, &status,
		&o.TrackingNumber, &o.TrackingStatus, &delivery, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("order %s: total: %w", o.ID, err)
	}
	var d record.Delivery
	if err := json.Unmarshal(delivery, &d); err != nil {
		return nil, fmt.Errorf("order %s: delivery: %w", o.ID, err)
	}

	o.Total = t
	o.Status = domain.OrderStatus(status)
	o.Delivery = d.ToDomain()
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}
