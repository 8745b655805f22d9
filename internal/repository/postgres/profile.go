package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/seniorbuddy/internal/models"
)

type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

const profileColumns = `uid, display_name, age, gender, role, phone, email, medical_notes,
	emergency_contact_name, emergency_contact_phone, photo_url, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	var role string
	err := row.Scan(
		&p.UID,
		&p.DisplayName,
		&p.Age,
		&p.Gender,
		&role,
		&p.Phone,
		&p.Email,
		&p.MedicalNotes,
		&p.EmergencyContactName,
		&p.EmergencyContactPhone,
		&p.PhotoURL,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Role = models.Role(role)
	return &p, nil
}

func (s *ProfileStore) Get(ctx context.Context, uid string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE uid = $1`

	p, err := scanProfile(s.pool.QueryRow(ctx, query, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) Create(ctx context.Context, uid, phone string) (*models.Profile, error) {
	// DO UPDATE with a no-op assignment instead of DO NOTHING so RETURNING
	// yields the existing row when another request created it first.
	query := `
		INSERT INTO profiles (uid, phone, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (uid) DO UPDATE SET uid = EXCLUDED.uid
		RETURNING ` + profileColumns

	p, err := scanProfile(s.pool.QueryRow(ctx, query, uid, phone))
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) Merge(ctx context.Context, uid string, patch models.ProfilePatch) (*models.Profile, error) {
	// COALESCE($n, column): a NULL parameter (nil pointer in Go) keeps the
	// stored value. That is the merge.
	query := `
		UPDATE profiles SET
			display_name            = COALESCE($2, display_name),
			age                     = COALESCE($3, age),
			gender                  = COALESCE($4, gender),
			role                    = COALESCE($5, role),
			phone                   = COALESCE($6, phone),
			email                   = COALESCE($7, email),
			medical_notes           = COALESCE($8, medical_notes),
			emergency_contact_name  = COALESCE($9, emergency_contact_name),
			emergency_contact_phone = COALESCE($10, emergency_contact_phone),
			photo_url               = COALESCE($11, photo_url),
			updated_at              = now()
		WHERE uid = $1
		RETURNING ` + profileColumns

	var role *string
	if patch.Role != nil {
		r := string(*patch.Role)
		role = &r
	}

	p, err := scanProfile(s.pool.QueryRow(ctx, query,
		uid,
		patch.DisplayName,
		patch.Age,
		patch.Gender,
		role,
		patch.Phone,
		patch.Email,
		patch.MedicalNotes,
		patch.EmergencyContactName,
		patch.EmergencyContactPhone,
		patch.PhotoURL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("merge profile: %w", err)
	}
	return p, nil
}
