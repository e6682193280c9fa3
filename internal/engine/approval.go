package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/events"
	"github.com/bytevantagees-gif/janasamparka-engine/pkg/util"
)

// ApprovalWorkflow gates the terminal closed status behind an
// approve/reject cycle over the uploaded evidence. Entered automatically
// once a ticket resolves; approval and closing stay decoupled so closing
// carries its own audit note.
type ApprovalWorkflow struct {
	m          *mutator
	dispatcher events.Dispatcher
}

// ApprovalInput carries one review decision.
type ApprovalInput struct {
	TicketID string
	Comment  string
	Actor    domain.Actor
}

// Approve records an approved review. The ticket stays resolved until a
// separate close transition.
func (w *ApprovalWorkflow) Approve(ctx context.Context, input ApprovalInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Comment) == "" {
		return nil, util.NewPreconditionFailed("approval requires a non-empty comment", input.TicketID)
	}
	if !input.Actor.HasRole(domain.RoleApprover) && !input.Actor.HasRole(domain.RoleAdmin) {
		return nil, util.NewForbidden("approval requires approver or admin", input.TicketID)
	}

	ticket, err := w.m.mutate(ctx, input.TicketID, "approve", func(t *domain.Ticket) error {
		if t.Status != domain.TicketStatusResolved {
			return util.NewPreconditionFailed("only a resolved ticket can be approved", t.ID)
		}
		now := time.Now().UTC()
		t.Approval = &domain.Approval{
			Approved:  true,
			Comment:   input.Comment,
			ActorID:   input.Actor.ID,
			Timestamp: now,
		}
		t.History = append(t.History, domain.HistoryEntry{
			ID:         uuid.NewString(),
			FromStatus: domain.TicketStatusResolved,
			ToStatus:   domain.TicketStatusResolved,
			ActorID:    input.Actor.ID,
			ActorRole:  approverRole(input.Actor),
			Note:       "approved: " + input.Comment,
			Timestamp:  now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.publishApproval(ticket, input, true)
	return ticket, nil
}

// Reject records a rejected review and reverts the ticket to in_progress
// in the same atomic write: one history entry carries both the rejection
// and the forced reversion, and prior AFTER evidence is invalidated so
// the resolve precondition must be re-satisfied with fresh evidence.
func (w *ApprovalWorkflow) Reject(ctx context.Context, input ApprovalInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Comment) == "" {
		return nil, util.NewPreconditionFailed("rejection requires a non-empty reason", input.TicketID)
	}
	if !input.Actor.HasRole(domain.RoleApprover) && !input.Actor.HasRole(domain.RoleAdmin) {
		return nil, util.NewForbidden("rejection requires approver or admin", input.TicketID)
	}

	ticket, err := w.m.mutate(ctx, input.TicketID, "reject_approval", func(t *domain.Ticket) error {
		if t.Status != domain.TicketStatusResolved {
			return util.NewPreconditionFailed("only a resolved ticket can be rejected", t.ID)
		}
		now := time.Now().UTC()
		t.Approval = &domain.Approval{
			Approved:  false,
			Comment:   input.Comment,
			ActorID:   input.Actor.ID,
			Timestamp: now,
		}
		for i := range t.Evidence {
			if t.Evidence[i].PhotoType == domain.PhotoTypeAfter {
				t.Evidence[i].Invalidated = true
			}
		}
		t.Status = domain.TicketStatusInProgress
		t.History = append(t.History, domain.HistoryEntry{
			ID:         uuid.NewString(),
			FromStatus: domain.TicketStatusResolved,
			ToStatus:   domain.TicketStatusInProgress,
			ActorID:    input.Actor.ID,
			ActorRole:  approverRole(input.Actor),
			Note:       "approval rejected: " + input.Comment,
			Timestamp:  now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.publishApproval(ticket, input, false)
	return ticket, nil
}

func (w *ApprovalWorkflow) publishApproval(ticket *domain.Ticket, input ApprovalInput, approved bool) {
	if w.dispatcher == nil {
		return
	}
	w.dispatcher.PublishAsync(events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventApprovalRecorded,
		TicketID:  ticket.ID,
		ActorID:   input.Actor.ID,
		Timestamp: time.Now().UTC(),
		Payload: events.ApprovalRecordedPayload{
			Approved: approved,
			Comment:  input.Comment,
		},
	})
}

func approverRole(actor domain.Actor) domain.Role {
	if actor.HasRole(domain.RoleApprover) {
		return domain.RoleApprover
	}
	return domain.RoleAdmin
}
