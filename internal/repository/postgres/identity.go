package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type IdentityStore struct {
	pool *pgxpool.Pool
}

func NewIdentityStore(pool *pgxpool.Pool) *IdentityStore {
	return &IdentityStore{pool: pool}
}

// Resolve inserts phone -> newUID unless the phone is already known, and
// returns whichever uid ended up stored. A phone number keeps its uid
// forever, even across sign-outs.
func (s *IdentityStore) Resolve(ctx context.Context, phone, newUID string) (string, error) {
	query := `
		INSERT INTO phone_identities (phone, uid, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (phone) DO UPDATE SET phone = EXCLUDED.phone
		RETURNING uid`

	var uid string
	if err := s.pool.QueryRow(ctx, query, phone, newUID).Scan(&uid); err != nil {
		return "", fmt.Errorf("resolve phone identity: %w", err)
	}
	return uid, nil
}
