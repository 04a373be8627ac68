package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"shopflow-tracking/internal/apperr"
	"shopflow-tracking/internal/domain"
	"shopflow-tracking/internal/repository/record"
)

// fixed-width so that text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// OrderRepository is the SQLite order store.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository wraps an opened database.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Insert stores a new order. Duplicate ids are rejected with apperr.ErrConflict.
func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	payload, err := json.Marshal(record.FromDomain(o))
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, status, created_at, updated_at, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, string(o.Status),
		o.CreatedAt.UTC().Format(timeLayout), o.UpdatedAt.UTC().Format(timeLayout), string(payload),
	)
	if isPrimaryKeyViolation(err) {
		return fmt.Errorf("insert order %s: %w", o.ID, apperr.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Get returns the order or (nil, nil).
func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM orders WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return decode(payload)
}

// ListByUser returns the user's orders, oldest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT payload FROM orders WHERE user_id = ? ORDER BY created_at, id`, userID)
}

// List returns every order, oldest first.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `SELECT payload FROM orders ORDER BY created_at, id`)
}

// Update rewrites the stored order. It reports false when the id is unknown.
func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) (bool, error) {
	payload, err := json.Marshal(record.FromDomain(o))
	if err != nil {
		return false, fmt.Errorf("encode order: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ?, payload = ? WHERE id = ?`,
		string(o.Status), o.UpdatedAt.UTC().Format(timeLayout), string(payload), o.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update order: %w", err)
	}
	return n > 0, nil
}

// Ping checks the connection.
func (r *OrderRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database.
func (r *OrderRepository) Close() error {
	return r.db.Close()
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Order, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

func decode(payload string) (*domain.Order, error) {
	var rec record.Order
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return rec.ToDomain()
}

func isPrimaryKeyViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
