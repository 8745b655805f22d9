package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/seniorbuddy/internal/models"
)

type BookingStore struct {
	pool *pgxpool.Pool
}

func NewBookingStore(pool *pgxpool.Pool) *BookingStore {
	return &BookingStore{pool: pool}
}

func (s *BookingStore) Create(ctx context.Context, b models.Booking) (*models.Booking, error) {
	query := `
		INSERT INTO bookings (id, elder_uid, caregiver_uid, service_id, date, time, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id, elder_uid, caregiver_uid, service_id, date, time, notes, status, created_at`

	var out models.Booking
	err := s.pool.QueryRow(ctx, query,
		b.ID, b.ElderUID, b.CaregiverUID, b.ServiceID, b.Date, b.Time, b.Notes, b.Status,
	).Scan(
		&out.ID,
		&out.ElderUID,
		&out.CaregiverUID,
		&out.ServiceID,
		&out.Date,
		&out.Time,
		&out.Notes,
		&out.Status,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return &out, nil
}

func (s *BookingStore) ListByElder(ctx context.Context, elderUID string, limit int) ([]models.Booking, error) {
	query := `
		SELECT id, elder_uid, caregiver_uid, service_id, date, time, notes, status, created_at
		FROM bookings
		WHERE elder_uid = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, elderUID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(
			&b.ID,
			&b.ElderUID,
			&b.CaregiverUID,
			&b.ServiceID,
			&b.Date,
			&b.Time,
			&b.Notes,
			&b.Status,
			&b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}
