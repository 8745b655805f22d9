// Package session turns a verified uid into a bearer token and back.
//
// Tokens are stateless JWTs; the only server-side state is the revocation
// list in Redis, one key per closed session that lives until the token
// would have expired anyway.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/seniorbuddy/internal/auth"
	"github.com/lalith-99/seniorbuddy/internal/backend"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrRevoked      = errors.New("session closed")
)

// Session is the authenticated caller. Handlers receive it from the gin
// context; nothing reads a "current user" from a global.
type Session struct {
	ID        string    `json:"-"`
	UID       string    `json:"uid"`
	Phone     string    `json:"phone"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Manager struct {
	rdb    *redis.Client
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager with a nil client or empty secret builds the disabled variant.
func NewManager(rdb *redis.Client, secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{rdb: rdb, secret: secret, ttl: ttl, now: time.Now}
}

func revokedKey(id string) string {
	return "session:revoked:" + id
}

func (m *Manager) enabled() bool {
	return m.rdb != nil && m.secret != ""
}

// Open issues a token for uid. phone is informational only.
func (m *Manager) Open(_ context.Context, uid, phone string) (*Session, error) {
	if !m.enabled() {
		return nil, backend.ErrDisabled
	}
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", backend.ErrInvalidInput)
	}

	id := uuid.NewString()
	now := m.now()
	token, err := auth.GenerateToken(id, uid, phone, m.secret, now, m.ttl)
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:        id,
		UID:       uid,
		Phone:     phone,
		Token:     token,
		ExpiresAt: now.Add(m.ttl).Truncate(time.Second),
	}, nil
}

// Resolve validates token and checks it has not been closed.
//
// A Redis failure is returned as is, not as ErrInvalidToken: callers
// answer it with 5xx rather than sending the user back to sign in.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	if !m.enabled() {
		return nil, backend.ErrDisabled
	}

	claims, err := auth.ParseToken(token, m.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	n, err := m.rdb.Exists(ctx, revokedKey(claims.ID)).Result()
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if n > 0 {
		return nil, ErrRevoked
	}

	return &Session{
		ID:        claims.ID,
		UID:       claims.UID,
		Phone:     claims.Phone,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Close revokes s. Closing an already closed or expired session is a no-op.
func (m *Manager) Close(ctx context.Context, s *Session) error {
	if !m.enabled() {
		return backend.ErrDisabled
	}
	if s == nil || s.ID == "" {
		return fmt.Errorf("%w: no session", backend.ErrInvalidInput)
	}

	remaining := s.ExpiresAt.Sub(m.now())
	if remaining <= 0 {
		return nil
	}
	if err := m.rdb.Set(ctx, revokedKey(s.ID), s.UID, remaining).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
