package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/seniorbuddy/internal/models"
)

type SubscriptionStore struct {
	pool *pgxpool.Pool
}

func NewSubscriptionStore(pool *pgxpool.Pool) *SubscriptionStore {
	return &SubscriptionStore{pool: pool}
}

func (s *SubscriptionStore) Get(ctx context.Context, pairKey string) (*models.Subscription, error) {
	query := `
		SELECT pair_key, elder_uid, caregiver_uid, active, since
		FROM subscriptions
		WHERE pair_key = $1`

	var sub models.Subscription
	err := s.pool.QueryRow(ctx, query, pairKey).Scan(
		&sub.PairKey,
		&sub.ElderUID,
		&sub.CaregiverUID,
		&sub.Active,
		&sub.Since,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

func (s *SubscriptionStore) Activate(ctx context.Context, pairKey, elderUID, caregiverUID string) error {
	// Merge-write: a second booking for the same pair is not an error, it
	// just refreshes since. active can only ever be set to true here.
	query := `
		INSERT INTO subscriptions (pair_key, elder_uid, caregiver_uid, active, since)
		VALUES ($1, $2, $3, true, now())
		ON CONFLICT (pair_key) DO UPDATE SET
			elder_uid     = EXCLUDED.elder_uid,
			caregiver_uid = EXCLUDED.caregiver_uid,
			active        = true,
			since         = EXCLUDED.since`

	_, err := s.pool.Exec(ctx, query, pairKey, elderUID, caregiverUID)
	if err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}
	return nil
}
