package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lalith-99/seniorbuddy/internal/backend"
	"github.com/lalith-99/seniorbuddy/internal/models"
	"github.com/lalith-99/seniorbuddy/internal/pairing"
	"github.com/lalith-99/seniorbuddy/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIsAllowed_NoRecord(t *testing.T) {
	subs := memory.NewSubscriptionStore()
	g := New(subs, zap.NewNop())

	assert.False(t, g.IsAllowed(context.Background(), "E1", "C1"))
	assert.Equal(t, 1, subs.Reads())
}

func TestIsAllowed_ActiveRecord(t *testing.T) {
	ctx := context.Background()
	subs := memory.NewSubscriptionStore()
	require.NoError(t, subs.Activate(ctx, pairing.Key("E1", "C1"), "E1", "C1"))
	g := New(subs, zap.NewNop())

	assert.True(t, g.IsAllowed(ctx, "E1", "C1"))
	// Argument order does not matter.
	assert.True(t, g.IsAllowed(ctx, "C1", "E1"))
	assert.False(t, g.IsAllowed(ctx, "E1", "C2"))
}

func TestIsAllowed_InactiveRecord(t *testing.T) {
	subs := memory.NewSubscriptionStore()
	subs.Put(models.Subscription{
		PairKey:      pairing.Key("E1", "C1"),
		ElderUID:     "E1",
		CaregiverUID: "C1",
		Active:       false,
		Since:        time.Now(),
	})
	g := New(subs, zap.NewNop())

	assert.False(t, g.IsAllowed(context.Background(), "E1", "C1"))
}

func TestCheck_ReadFailureIsDenialNotError(t *testing.T) {
	subs := memory.NewSubscriptionStore()
	subs.Fail = errors.New("connection reset")
	g := New(subs, zap.NewNop())

	ok, err := g.Check(context.Background(), "E1", "C1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, subs.Reads())
}

func TestCheck_InvalidPairSkipsRead(t *testing.T) {
	subs := memory.NewSubscriptionStore()
	g := New(subs, zap.NewNop())

	for _, pair := range [][2]string{{"", "C1"}, {"E1", ""}, {"E1", "E1"}} {
		ok, err := g.Check(context.Background(), pair[0], pair[1])
		assert.ErrorIs(t, err, backend.ErrInvalidInput)
		assert.False(t, ok)
	}
	assert.Equal(t, 0, subs.Reads())
}

func TestCheck_Disabled(t *testing.T) {
	g := New(nil, zap.NewNop())

	ok, err := g.Check(context.Background(), "E1", "C1")
	assert.ErrorIs(t, err, backend.ErrDisabled)
	assert.False(t, ok)
	assert.False(t, g.IsAllowed(context.Background(), "E1", "C1"))
}

func TestResolve(t *testing.T) {
	elder, caregiver := Resolve("C1", models.RoleCaregiver, "E1")
	assert.Equal(t, "E1", elder)
	assert.Equal(t, "C1", caregiver)

	for _, role := range []models.Role{models.RoleElderly, models.RoleFamily, ""} {
		elder, caregiver = Resolve("E1", role, "C1")
		assert.Equal(t, "E1", elder)
		assert.Equal(t, "C1", caregiver)
	}
}
