package store

import (
	"context"
	"sync"
	"time"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
)

// MemoryStore is a mutex-guarded TicketStore. It backs tests and serves
// as the default when no Postgres DSN is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tickets: make(map[string]*domain.Ticket)}
}

func (s *MemoryStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tickets[ticket.ID]; exists {
		return ErrConflict
	}
	ticket.Version = 1
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	s.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ticket.Clone(), nil
}

func (s *MemoryStore) PutIfVersionMatches(ctx context.Context, ticket *domain.Ticket, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tickets[ticket.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrConflict
	}
	ticket.Version = expectedVersion + 1
	ticket.UpdatedAt = time.Now().UTC()
	s.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (s *MemoryStore) ListOpen(ctx context.Context) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		if ticket.Status.Open() {
			result = append(result, *ticket.Clone())
		}
	}
	return result, nil
}
