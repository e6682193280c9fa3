package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/observability"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/store"
	"github.com/bytevantagees-gif/janasamparka-engine/pkg/util"
)

// contendedStore forces a fixed number of version conflicts by bumping
// the stored version between a caller's read and write.
type contendedStore struct {
	store.TicketStore
	mu        sync.Mutex
	conflicts int
}

func (s *contendedStore) PutIfVersionMatches(ctx context.Context, ticket *domain.Ticket, expectedVersion int64) error {
	s.mu.Lock()
	remaining := s.conflicts
	if remaining > 0 {
		s.conflicts--
	}
	s.mu.Unlock()
	if remaining > 0 {
		interloper, err := s.TicketStore.Get(ctx, ticket.ID)
		if err != nil {
			return err
		}
		if err := s.TicketStore.PutIfVersionMatches(ctx, interloper, interloper.Version); err != nil {
			return err
		}
	}
	return s.TicketStore.PutIfVersionMatches(ctx, ticket, expectedVersion)
}

func newContendedMutator(t *testing.T, conflicts, attempts int) (*mutator, *store.MemoryStore) {
	t.Helper()
	backing := store.NewMemoryStore()
	wrapped := &contendedStore{TicketStore: backing, conflicts: conflicts}
	m := newMutator(wrapped, observability.NewMetrics(), zap.NewNop(), attempts, time.Millisecond)
	return m, backing
}

func seedTicket(t *testing.T, s *store.MemoryStore) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		ID:       "GRV-RETRY",
		Status:   domain.TicketStatusSubmitted,
		Category: domain.CategoryWater,
	}
	require.NoError(t, s.Create(context.Background(), ticket))
	return ticket
}

func TestMutateRetriesThroughConflicts(t *testing.T) {
	m, backing := newContendedMutator(t, 2, 5)
	seedTicket(t, backing)

	updated, err := m.mutate(context.Background(), "GRV-RETRY", "test_op", func(ticket *domain.Ticket) error {
		ticket.Description = "updated"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Description)

	stored, err := backing.Get(context.Background(), "GRV-RETRY")
	require.NoError(t, err)
	assert.Equal(t, "updated", stored.Description)
}

func TestMutateSurfacesBusyWhenExhausted(t *testing.T) {
	m, backing := newContendedMutator(t, 100, 3)
	seedTicket(t, backing)

	_, err := m.mutate(context.Background(), "GRV-RETRY", "test_op", func(ticket *domain.Ticket) error {
		ticket.Description = "updated"
		return nil
	})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindBusy))
}

func TestMutateValidationErrorDoesNotRetry(t *testing.T) {
	m, backing := newContendedMutator(t, 0, 3)
	seedTicket(t, backing)

	calls := 0
	_, err := m.mutate(context.Background(), "GRV-RETRY", "test_op", func(ticket *domain.Ticket) error {
		calls++
		return util.NewPreconditionFailed("nope", ticket.ID)
	})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindPreconditionFailed))
	assert.Equal(t, 1, calls)
}

func TestMutateUnknownTicket(t *testing.T) {
	m, _ := newContendedMutator(t, 0, 3)

	_, err := m.mutate(context.Background(), "GRV-MISSING", "test_op", func(ticket *domain.Ticket) error {
		return nil
	})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindNotFound))
}
