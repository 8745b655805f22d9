package postgres

import "github.com/lalith-99/seniorbuddy/internal/repository"

// Compile-time proof that the stores satisfy the interfaces the services
// depend on.
var (
	_ repository.ProfileRepository      = (*ProfileStore)(nil)
	_ repository.SubscriptionRepository = (*SubscriptionStore)(nil)
	_ repository.BookingRepository      = (*BookingStore)(nil)
	_ repository.MessageRepository      = (*MessageStore)(nil)
	_ repository.IdentityRepository     = (*IdentityStore)(nil)
)
