package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-session/internal/domain"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Store backed by the cart_snapshots table.
func NewPostgres(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Get(ctx context.Context, sessionID string) (domain.Cart, bool, error) {
	const q = `
SELECT payload
FROM cart_snapshots
WHERE session_id = $1
`
	var payload []byte
	if err := s.pool.QueryRow(ctx, q, sessionID).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var cart domain.Cart
	if err := json.Unmarshal(payload, &cart); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return cart, true, nil
}

func (s *postgresStore) Set(ctx context.Context, sessionID string, cart domain.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	const q = `
INSERT INTO cart_snapshots (session_id, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (session_id)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
`
	_, err = s.pool.Exec(ctx, q, sessionID, payload)
	return err
}
