package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"
)

// referenceAlphabet deliberately drops 0/O and 1/I so references survive
// being read over the phone.
const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const referenceRandomLen = 6

// maxReferenceAttempts bounds the collision-retry loop. With a 32-char
// alphabet and 6 positions the space holds over a billion codes per year, so
// hitting the bound means something is wrong with the store, not the odds.
const maxReferenceAttempts = 10

// ReferenceGenerator issues human-readable booking references of the form
// PREFIX-YEAR-XXXXXX, unique across all time.
type ReferenceGenerator struct {
	prefix   string
	bookings BookingStore
	now      func() time.Time
}

func NewReferenceGenerator(prefix string, bookings BookingStore) *ReferenceGenerator {
	return &ReferenceGenerator{
		prefix:   prefix,
		bookings: bookings,
		now:      time.Now,
	}
}

// Generate returns a reference that did not exist in the store at the moment
// of the check. The UNIQUE constraint on bookings.reference remains the final
// arbiter under concurrency.
func (g *ReferenceGenerator) Generate(ctx context.Context) (string, error) {
	year := g.now().UTC().Year()

	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		code, err := randomCode(referenceRandomLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate reference: %w", err)
		}
		ref := fmt.Sprintf("%s-%d-%s", g.prefix, year, code)

		exists, err := g.bookings.ReferenceExists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("failed to check reference uniqueness: %w", err)
		}
		if !exists {
			return ref, nil
		}

		slog.Warn("Booking reference collision, retrying",
			"reference", ref,
			"attempt", attempt)
	}

	return "", fmt.Errorf("failed to generate unique booking reference after %d attempts", maxReferenceAttempts)
}

func randomCode(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return string(buf), nil
}
