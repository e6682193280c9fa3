package engine

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/observability"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/store"
	"github.com/bytevantagees-gif/janasamparka-engine/pkg/util"
)

// mutator runs a read-check-write cycle against the ticket store under
// optimistic concurrency. On version conflict the whole cycle is retried
// with jittered backoff up to a bounded number of attempts, then
// surfaced as Busy for the caller to retry.
type mutator struct {
	store     store.TicketStore
	metrics   *observability.Metrics
	logger    *zap.Logger
	attempts  int
	baseDelay time.Duration
}

func newMutator(ticketStore store.TicketStore, metrics *observability.Metrics, logger *zap.Logger, attempts int, baseDelay time.Duration) *mutator {
	if attempts <= 0 {
		attempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 10 * time.Millisecond
	}
	return &mutator{
		store:     ticketStore,
		metrics:   metrics,
		logger:    logger,
		attempts:  attempts,
		baseDelay: baseDelay,
	}
}

// mutate reads the ticket, applies the mutation against the copy and
// writes it back with the version read at the start. apply must append
// any history entries itself; validation errors abort without retry.
func (m *mutator) mutate(ctx context.Context, ticketID, operation string, apply func(t *domain.Ticket) error) (*domain.Ticket, error) {
	for attempt := 0; attempt < m.attempts; attempt++ {
		ticket, err := m.store.Get(ctx, ticketID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, util.NewNotFound(ticketID)
			}
			return nil, util.NewUpstreamUnavailable("ticket store read failed", err)
		}

		expected := ticket.Version
		if err := apply(ticket); err != nil {
			return nil, err
		}

		err = m.store.PutIfVersionMatches(ctx, ticket, expected)
		if err == nil {
			m.metrics.RecordOperation(operation, "ok")
			return ticket, nil
		}
		if errors.Is(err, store.ErrConflict) {
			m.metrics.RecordConflictRetry(operation)
			m.logger.Debug("version conflict, retrying",
				zap.String("ticket_id", ticketID),
				zap.String("operation", operation),
				zap.Int("attempt", attempt+1),
			)
			if err := m.backoff(ctx, attempt); err != nil {
				return nil, util.NewBusy(ticketID)
			}
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, util.NewNotFound(ticketID)
		}
		return nil, util.NewUpstreamUnavailable("ticket store write failed", err)
	}
	m.metrics.RecordOperation(operation, "busy")
	return nil, util.NewBusy(ticketID)
}

func (m *mutator) backoff(ctx context.Context, attempt int) error {
	delay := m.baseDelay << attempt
	delay += time.Duration(rand.Int63n(int64(m.baseDelay)))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
