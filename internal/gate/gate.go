// Package gate decides whether two users may open a private chat.
//
// The rule is a single predicate: the pair's subscription record exists
// and is active. Nothing is cached. Every chat session re-reads the record
// exactly once, so a grant is visible the moment the booking write lands.
package gate

import (
	"context"
	"fmt"

	"github.com/lalith-99/seniorbuddy/internal/backend"
	"github.com/lalith-99/seniorbuddy/internal/models"
	"github.com/lalith-99/seniorbuddy/internal/pairing"
	"github.com/lalith-99/seniorbuddy/internal/repository"
	"go.uber.org/zap"
)

type Gate struct {
	subs   repository.SubscriptionRepository
	logger *zap.Logger
}

// New returns a gate reading from subs. A nil subs means the backend is
// disabled: Check reports backend.ErrDisabled and IsAllowed is false.
func New(subs repository.SubscriptionRepository, logger *zap.Logger) *Gate {
	return &Gate{subs: subs, logger: logger}
}

// IsAllowed reports whether elderUID and caregiverUID may chat privately.
//
// Every failure mode collapses to false. The caller has no recovery for
// "couldn't read the grant" other than what it does for "no grant".
func (g *Gate) IsAllowed(ctx context.Context, elderUID, caregiverUID string) bool {
	ok, err := g.Check(ctx, elderUID, caregiverUID)
	return err == nil && ok
}

// Check is IsAllowed for the API boundary: it still maps a failed remote
// read to (false, nil), but surfaces ErrDisabled and ErrInvalidInput so the
// handler can answer 503 / 400 instead of a bare 403.
func (g *Gate) Check(ctx context.Context, elderUID, caregiverUID string) (bool, error) {
	if g.subs == nil {
		return false, backend.ErrDisabled
	}
	if !pairing.Valid(elderUID, caregiverUID) {
		return false, fmt.Errorf("%w: pair needs two distinct non-empty uids", backend.ErrInvalidInput)
	}

	key := pairing.Key(elderUID, caregiverUID)
	sub, err := g.subs.Get(ctx, key)
	if err != nil {
		g.logger.Warn("subscription read failed, denying chat",
			zap.String("pair_key", key),
			zap.Error(err),
		)
		return false, nil
	}
	return sub != nil && sub.Active, nil
}

// Resolve orders caller and partner into (elder, caregiver) by the
// caller's role. A Caregiver caller is the caregiver side; Elderly,
// Family and an unset role are all treated as the elder side.
//
// The key is symmetric, so the ordering never changes which record is
// read. It only decides who is reported as which side.
func Resolve(callerUID string, callerRole models.Role, partnerUID string) (elderUID, caregiverUID string) {
	if callerRole == models.RoleCaregiver {
		return partnerUID, callerUID
	}
	return callerUID, partnerUID
}
