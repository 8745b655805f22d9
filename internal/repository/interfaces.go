package repository

import (
	"context"

	"github.com/lalith-99/seniorbuddy/internal/models"
)

// Every method takes ctx first: they all hit the network, and a client
// that disconnects should cancel the query it triggered.
//
// Not-found is (nil, nil), never an error. Callers decide whether absence
// matters; for the chat gate it simply means "not allowed".

// ProfileRepository stores one profile per uid.
type ProfileRepository interface {
	// Get returns the profile or nil, nil if none exists yet.
	Get(ctx context.Context, uid string) (*models.Profile, error)

	// Create inserts an empty profile if none exists and returns the stored
	// row either way. Two concurrent first views both end up with the same row.
	Create(ctx context.Context, uid, phone string) (*models.Profile, error)

	// Merge overwrites only the non-nil fields of patch and returns the
	// resulting row. The profile must exist (nil, nil otherwise).
	Merge(ctx context.Context, uid string, patch models.ProfilePatch) (*models.Profile, error)
}

// SubscriptionRepository holds pair access grants.
type SubscriptionRepository interface {
	// Get is the single point read the chat gate performs.
	Get(ctx context.Context, pairKey string) (*models.Subscription, error)

	// Activate upserts the record to active = true with since = now().
	// Repeating it for the same pair only moves since forward.
	Activate(ctx context.Context, pairKey, elderUID, caregiverUID string) error
}

// BookingRepository appends service requests.
type BookingRepository interface {
	// Create inserts with status "requested" and a server timestamp.
	Create(ctx context.Context, b models.Booking) (*models.Booking, error)

	// ListByElder returns an elder's bookings, newest first. Empty slice, not nil.
	ListByElder(ctx context.Context, elderUID string, limit int) ([]models.Booking, error)
}

// MessageRepository handles chat message persistence.
type MessageRepository interface {
	// Create persists a message; the database assigns ID and CreatedAt.
	Create(ctx context.Context, roomID, uid string, text, voiceURL *string) (*models.Message, error)

	// ListByRoom returns the whole room history ordered by creation time
	// ascending. Feeds call this on every change, so it is the snapshot.
	ListByRoom(ctx context.Context, roomID string) ([]models.Message, error)
}

// IdentityRepository maps verified phone numbers to uids.
type IdentityRepository interface {
	// Resolve returns the uid for phone, issuing newUID if the number has
	// never verified before. The first writer wins under a race.
	Resolve(ctx context.Context, phone, newUID string) (string, error)
}
