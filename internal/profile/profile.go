// Package profile owns the signed-in user's own profile record.
package profile

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lalith-99/seniorbuddy/internal/backend"
	"github.com/lalith-99/seniorbuddy/internal/models"
	"github.com/lalith-99/seniorbuddy/internal/repository"
	"github.com/lalith-99/seniorbuddy/internal/session"
	"github.com/lalith-99/seniorbuddy/internal/storage"
	"go.uber.org/zap"
)

// MaxPhotoSize bounds avatar uploads.
const MaxPhotoSize = 5 << 20

type Store struct {
	repo   repository.ProfileRepository
	blobs  storage.Blobs
	logger *zap.Logger
	now    func() time.Time
}

// NewStore with a nil repository builds the disabled variant.
func NewStore(repo repository.ProfileRepository, blobs storage.Blobs, logger *zap.Logger) *Store {
	return &Store{repo: repo, blobs: blobs, logger: logger, now: time.Now}
}

// CurrentUID is the uid of the signed-in caller, or "" without a session.
func CurrentUID(s *session.Session) string {
	if s == nil {
		return ""
	}
	return s.UID
}

// Get returns the profile for uid, or nil if it was never created.
func (st *Store) Get(ctx context.Context, uid string) (*models.Profile, error) {
	if st.repo == nil {
		return nil, backend.ErrDisabled
	}
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", backend.ErrInvalidInput)
	}
	p, err := st.repo.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GetOrCreate returns the profile, creating an empty one seeded with
// phone on first access.
func (st *Store) GetOrCreate(ctx context.Context, uid, phone string) (*models.Profile, error) {
	p, err := st.Get(ctx, uid)
	if err != nil || p != nil {
		return p, err
	}
	p, err = st.repo.Create(ctx, uid, phone)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	st.logger.Info("profile created", zap.String("uid", uid))
	return p, nil
}

// Role returns the stored role, "" when the profile or the role is unset.
func (st *Store) Role(ctx context.Context, uid string) (models.Role, error) {
	p, err := st.Get(ctx, uid)
	if err != nil || p == nil {
		return "", err
	}
	return p.Role, nil
}

// Validate checks the fields a patch sets. Unset fields are not looked at.
func Validate(patch models.ProfilePatch) error {
	if patch.Role != nil && *patch.Role != "" && !models.ValidRole(*patch.Role) {
		return fmt.Errorf("%w: role must be Elderly, Caregiver or Family", backend.ErrInvalidInput)
	}
	if patch.Age != nil && (*patch.Age < 0 || *patch.Age > 150) {
		return fmt.Errorf("%w: age out of range", backend.ErrInvalidInput)
	}
	if patch.Email != nil && *patch.Email != "" && !strings.Contains(*patch.Email, "@") {
		return fmt.Errorf("%w: email is not an address", backend.ErrInvalidInput)
	}
	return nil
}

// Save merges patch into the profile: nil fields keep their stored value.
// The profile is created first if needed, so a save never loses to a
// missing row.
func (st *Store) Save(ctx context.Context, uid string, patch models.ProfilePatch) (*models.Profile, error) {
	if st.repo == nil {
		return nil, backend.ErrDisabled
	}
	if err := Validate(patch); err != nil {
		return nil, err
	}
	if _, err := st.GetOrCreate(ctx, uid, ""); err != nil {
		return nil, err
	}

	p, err := st.repo.Merge(ctx, uid, patch)
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("save profile: %w", backend.ErrNotFound)
	}
	return p, nil
}

// SetPhoto uploads an avatar and stores its URL as the profile photo.
// The previous object is left in place.
func (st *Store) SetPhoto(ctx context.Context, uid, filename, contentType string, r io.Reader, size int64) (*models.Profile, error) {
	if st.repo == nil || st.blobs == nil {
		return nil, backend.ErrDisabled
	}
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", backend.ErrInvalidInput)
	}
	if size <= 0 || size > MaxPhotoSize {
		return nil, fmt.Errorf("%w: photo must be between 1 byte and %d bytes", backend.ErrInvalidInput, MaxPhotoSize)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: photo must be an image", backend.ErrInvalidInput)
	}

	key := storage.AvatarKey(uid, st.now(), filename)
	if err := st.blobs.Put(ctx, key, contentType, r, size); err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	url, err := st.blobs.URL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("resolve photo url: %w", err)
	}

	return st.Save(ctx, uid, models.ProfilePatch{PhotoURL: &url})
}
