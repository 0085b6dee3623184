package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderStore implements domain.OrderStore using PostgreSQL.
type OrderStore struct {
	db DBTX
}

// Compile-time check that OrderStore implements domain.OrderStore.
var _ domain.OrderStore = (*OrderStore)(nil)

// NewOrderStore creates a new PostgreSQL-backed order store.
func NewOrderStore(db DBTX) *OrderStore {
	return &OrderStore{db: db}
}

const orderColumns = `id, user_id, status, payment_method, totals, address, customer, payment, created_at, updated_at, location`

func (s *OrderStore) Create(ctx context.Context, o *domain.Order) error {
	totals, address, customer, payment, err := marshalOrderDocs(o)
	if err != nil {
		return domain.Internal(err, "order.create", "failed to encode order")
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO orders (id, user_id, status, payment_method, totals, address, customer, payment, created_at, updated_at, location)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7::jsonb, $8::jsonb, $9, $10, $11)`,
		o.ID, o.UserID, string(o.Status), string(o.PaymentMethod),
		totals, address, customer, payment,
		o.CreatedAt, o.UpdatedAt, o.Location,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WithOp(domain.ErrOrderExists, "order.create")
		}
		return domain.Internal(err, "order.create", "failed to save order")
	}
	return nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.WithOp(domain.ErrOrderNotFound, "order.get")
		}
		return nil, domain.Internal(err, "order.get", "failed to load order")
	}
	return o, nil
}

func (s *OrderStore) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.db.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, domain.Internal(err, "order.list", "failed to list orders")
	}
	return collectOrders(rows, "order.list")
}

func (s *OrderStore) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE created_at >= $1 AND created_at <= $2 ORDER BY created_at`,
		from, to,
	)
	if err != nil {
		return nil, domain.Internal(err, "order.list_between", "failed to list orders")
	}
	return collectOrders(rows, "order.list_between")
}

func (s *OrderStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, location *string, at time.Time) (*domain.Order, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE orders SET status = $2, location = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+orderColumns,
		id, string(status), location, at,
	)
	return s.scanUpdated(row, "order.update_status")
}

// MergePayment merges the non-empty payment fields into the stored jsonb
// document with the || operator, so earlier keys survive.
func (s *OrderStore) MergePayment(ctx context.Context, id string, p domain.Payment, at time.Time) (*domain.Order, error) {
	patch, err := json.Marshal(p)
	if err != nil {
		return nil, domain.Internal(err, "order.merge_payment", "failed to encode payment")
	}

	row := s.db.QueryRow(ctx, `
		UPDATE orders SET payment = payment || $2::jsonb, updated_at = $3
		WHERE id = $1
		RETURNING `+orderColumns,
		id, patch, at,
	)
	return s.scanUpdated(row, "order.merge_payment")
}

// MarkPaid sets PAID and merges payment fields in one statement. The status
// predicate makes concurrent confirmations race on the row lock; the loser
// matches no row.
func (s *OrderStore) MarkPaid(ctx context.Context, id string, p domain.Payment, at time.Time) (*domain.Order, error) {
	const op = "order.mark_paid"

	patch, err := json.Marshal(p)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode payment")
	}

	row := s.db.QueryRow(ctx, `
		UPDATE orders SET status = $2, payment = payment || $3::jsonb, updated_at = $4
		WHERE id = $1 AND status = $5
		RETURNING `+orderColumns,
		id, string(domain.OrderStatusPaid), patch, at, string(domain.OrderStatusPendingPayment),
	)
	o, err := scanOrder(row)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Internal(err, op, "failed to update order")
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, domain.Internal(err, op, "failed to check order")
	}
	if !exists {
		return nil, domain.WithOp(domain.ErrOrderNotFound, op)
	}
	return nil, domain.WithOp(domain.ErrOrderNotPending, op)
}

func (s *OrderStore) scanUpdated(row pgx.Row, op string) (*domain.Order, error) {
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.WithOp(domain.ErrOrderNotFound, op)
		}
		return nil, domain.Internal(err, op, "failed to update order")
	}
	return o, nil
}

func collectOrders(rows pgx.Rows, op string) ([]domain.Order, error) {
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to read order")
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read orders")
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                                  domain.Order
		status, method                     string
		totals, address, customer, payment []byte
		updatedAt                          pgtype.Timestamptz
	)

	err := row.Scan(
		&o.ID, &o.UserID, &status, &method,
		&totals, &address, &customer, &payment,
		&o.CreatedAt, &updatedAt, &o.Location,
	)
	if err != nil {
		return nil, err
	}

	o.Status = domain.OrderStatus(status)
	o.PaymentMethod = domain.PaymentMethod(method)
	o.UpdatedAt = o.CreatedAt
	if updatedAt.Valid {
		o.UpdatedAt = updatedAt.Time
	}

	docs := []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"totals", totals, &o.Totals},
		{"address", address, &o.Address},
		{"customer", customer, &o.Customer},
		{"payment", payment, &o.Payment},
	}
	for _, d := range docs {
		if len(d.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(d.raw, d.dst); err != nil {
			return nil, fmt.Errorf("decode %s of order %s: %w", d.name, o.ID, err)
		}
	}

	return &o, nil
}

func marshalOrderDocs(o *domain.Order) (totals, address, customer, payment []byte, err error) {
	if totals, err = json.Marshal(o.Totals); err != nil {
		return
	}
	if address, err = json.Marshal(o.Address); err != nil {
		return
	}
	if customer, err = json.Marshal(o.Customer); err != nil {
		return
	}
	payment, err = json.Marshal(o.Payment)
	return
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
