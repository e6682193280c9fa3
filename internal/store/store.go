package store

import (
	"context"
	"errors"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
)

// Sentinel errors returned by TicketStore implementations. Callers map
// them onto the structured error taxonomy at the engine boundary.
var (
	ErrNotFound = errors.New("ticket not found")
	ErrConflict = errors.New("version conflict")
)

// TicketStore is the durable record of tickets and their append-only
// history. All mutating writes are optimistic-concurrency-controlled:
// PutIfVersionMatches carries the version read at the start of the
// operation, a concurrent writer wins the race and the loser receives
// ErrConflict. History entries added to the ticket since the read are
// persisted in the same atomic write as any field change.
type TicketStore interface {
	// Create persists a new ticket at version 1.
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Get returns a copy of the ticket or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Ticket, error)
	// PutIfVersionMatches writes the ticket if the stored version equals
	// expectedVersion, bumping ticket.Version to expectedVersion+1, or
	// returns ErrConflict.
	PutIfVersionMatches(ctx context.Context, ticket *domain.Ticket, expectedVersion int64) error
	// ListOpen returns all tickets in a non-terminal status.
	ListOpen(ctx context.Context) ([]domain.Ticket, error)
}
