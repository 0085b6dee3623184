package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/jackc/pgx/v5"
)

// CartStore implements domain.CartStore using PostgreSQL. Items are a JSONB
// object of product id to quantity.
type CartStore struct {
	db DBTX
}

var _ domain.CartStore = (*CartStore)(nil)

func NewCartStore(db DBTX) *CartStore {
	return &CartStore{db: db}
}

func (s *CartStore) Get(ctx context.Context, owner string) (domain.Cart, error) {
	var items []byte
	err := s.db.QueryRow(ctx, `SELECT items FROM carts WHERE owner = $1`, owner).Scan(&items)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Cart{}, nil
		}
		return nil, domain.Internal(err, "cart.get", "failed to load cart")
	}
	return decodeCart(items, "cart.get")
}

// AddItem increments the line inside the upsert, so concurrent adds for the
// same owner serialize on the row.
func (s *CartStore) AddItem(ctx context.Context, owner, productID string, qty int64, at time.Time) (domain.Cart, error) {
	var items []byte
	err := s.db.QueryRow(ctx, `
		INSERT INTO carts (owner, items, updated_at)
		VALUES ($1, jsonb_build_object($2::text, LEAST($3::bigint, $5::bigint)), $4)
		ON CONFLICT (owner) DO UPDATE
		SET items = carts.items || jsonb_build_object($2::text,
				LEAST(GREATEST(COALESCE((carts.items->>$2)::bigint, 0), 0) + $3::bigint, $5::bigint)),
			updated_at = $4
		RETURNING items`,
		owner, productID, qty, at, int64(domain.MaxQuantity),
	).Scan(&items)
	if err != nil {
		return nil, domain.Internal(err, "cart.add_item", "failed to update cart")
	}
	return decodeCart(items, "cart.add_item")
}

func (s *CartStore) Put(ctx context.Context, owner string, c domain.Cart, at time.Time) error {
	if c == nil {
		c = domain.Cart{}
	}
	items, err := json.Marshal(map[string]int64(c))
	if err != nil {
		return domain.Internal(err, "cart.put", "failed to encode cart")
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO carts (owner, items, updated_at)
		VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (owner) DO UPDATE
		SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at`,
		owner, items, at,
	)
	if err != nil {
		return domain.Internal(err, "cart.put", "failed to store cart")
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, owner string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM carts WHERE owner = $1`, owner); err != nil {
		return domain.Internal(err, "cart.delete", "failed to delete cart")
	}
	return nil
}

func decodeCart(items []byte, op string) (domain.Cart, error) {
	var c domain.Cart
	if err := json.Unmarshal(items, &c); err != nil {
		return nil, domain.Internal(err, op, "failed to decode cart")
	}
	if c == nil {
		c = domain.Cart{}
	}
	return c, nil
}
