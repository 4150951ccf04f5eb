package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamasya/internal/models"
	"tamasya/internal/repository"
)

// takeReference persists a zero-participant booking so the reference counts
// as taken for subsequent generations.
func takeReference(t *testing.T, repos *repository.MemoryRepositories, ref string) {
	t.Helper()
	err := repos.Bookings.CreateWithReservation(context.Background(), &models.Booking{
		Reference:          ref,
		ActivityID:         1,
		AvailabilitySlotID: 1,
		Status:             models.BookingStatusPending,
	})
	require.NoError(t, err)
}

func newReferenceEnv(t *testing.T) (*repository.MemoryRepositories, *ReferenceGenerator) {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	require.NoError(t, repos.Slots.Create(context.Background(), &models.AvailabilitySlot{
		ID:             1,
		ActivityID:     1,
		SlotDate:       time.Now().AddDate(0, 0, 7),
		StartTime:      "08:00:00",
		TotalSpots:     1,
		AvailableSpots: 1,
		Status:         models.SlotOpen,
	}))
	return repos, NewReferenceGenerator("BK", repos.Bookings)
}

func TestReferenceFormat(t *testing.T) {
	_, gen := newReferenceEnv(t)
	gen.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	ref, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^BK-2026-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{6}$`), ref)
}

func TestReferenceUniqueness(t *testing.T) {
	repos, gen := newReferenceEnv(t)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		ref, err := gen.Generate(context.Background())
		require.NoError(t, err)
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
		takeReference(t, repos, ref)
	}
}

func TestReferenceRetriesOnCollision(t *testing.T) {
	repos, gen := newReferenceEnv(t)

	first, err := gen.Generate(context.Background())
	require.NoError(t, err)
	takeReference(t, repos, first)

	// The existence check steers the generator away from taken codes.
	second, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
