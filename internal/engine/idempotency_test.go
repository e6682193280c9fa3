package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
)

func TestMemoryIdempotencyStoreRoundTrip(t *testing.T) {
	s := NewMemoryIdempotencyStore(time.Minute)
	ctx := context.Background()

	_, found, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	ticket := &domain.Ticket{ID: "GRV-1", Status: domain.TicketStatusSubmitted, Version: 1}
	require.NoError(t, s.Record(ctx, "k1", ticket))

	got, found, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "GRV-1", got.ID)

	// The cached result is isolated from later caller mutation.
	got.Status = domain.TicketStatusClosed
	again, found, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.TicketStatusSubmitted, again.Status)
}

func TestMemoryIdempotencyStoreExpiry(t *testing.T) {
	s := NewMemoryIdempotencyStore(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "k1", &domain.Ticket{ID: "GRV-1"}))
	time.Sleep(30 * time.Millisecond)

	_, found, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)
}
