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

// capability checks whether the actor may traverse an edge and returns
// the role satisfying it, recorded in the history entry.
type capability func(t *domain.Ticket, actor domain.Actor) (domain.Role, error)

// precondition is an edge-specific check beyond role eligibility.
type precondition func(t *domain.Ticket, note string) error

type edge struct {
	capability   capability
	precondition precondition
	// onApply performs edge-specific mutations beyond the status change.
	onApply func(t *domain.Ticket)
}

type edgeKey struct {
	from domain.TicketStatus
	to   domain.TicketStatus
}

// transitionTable is the explicit edge list. Legality lives here and
// nowhere else; nothing is inferred from which caller asks.
var transitionTable = map[edgeKey]edge{
	{domain.TicketStatusSubmitted, domain.TicketStatusUnderReview}: {
		capability: requireRoles(domain.RoleModerator),
	},
	{domain.TicketStatusUnderReview, domain.TicketStatusAssigned}: {
		capability:   requireRoles(domain.RoleModerator),
		precondition: requireDepartment,
	},
	{domain.TicketStatusAssigned, domain.TicketStatusInProgress}: {
		capability: requireCustody,
	},
	{domain.TicketStatusInProgress, domain.TicketStatusAssigned}: {
		// Sub-assignment handback, the only backward edge.
		capability: requireCustody,
		onApply:    clearSubAssignee,
	},
	{domain.TicketStatusInProgress, domain.TicketStatusResolved}: {
		capability:   requireWorkingOfficer,
		precondition: requireAfterEvidence,
		onApply:      clearSubAssignee,
	},
	{domain.TicketStatusSubmitted, domain.TicketStatusRejected}: {
		capability:   requireRoles(domain.RoleModerator, domain.RoleAdmin),
		precondition: requireNote("rejection requires a non-empty reason"),
	},
	{domain.TicketStatusUnderReview, domain.TicketStatusRejected}: {
		capability:   requireRoles(domain.RoleModerator, domain.RoleAdmin),
		precondition: requireNote("rejection requires a non-empty reason"),
	},
	{domain.TicketStatusAssigned, domain.TicketStatusRejected}: {
		capability:   requireRoles(domain.RoleModerator, domain.RoleAdmin),
		precondition: requireNote("rejection requires a non-empty reason"),
		onApply:      clearSubAssignee,
	},
	{domain.TicketStatusInProgress, domain.TicketStatusRejected}: {
		capability:   requireRoles(domain.RoleModerator, domain.RoleAdmin),
		precondition: requireNote("rejection requires a non-empty reason"),
		onApply:      clearSubAssignee,
	},
	{domain.TicketStatusResolved, domain.TicketStatusClosed}: {
		capability:   requireRoles(domain.RoleApprover, domain.RoleAdmin),
		precondition: requireApproved,
	},
	{domain.TicketStatusResolved, domain.TicketStatusInProgress}: {
		// Reopen when approval rejects the work.
		capability: requireRoles(domain.RoleApprover, domain.RoleAdmin),
	},
}

func requireRoles(allowed ...domain.Role) capability {
	return func(t *domain.Ticket, actor domain.Actor) (domain.Role, error) {
		for _, role := range allowed {
			if actor.HasRole(role) {
				return role, nil
			}
		}
		return "", util.NewForbidden("actor lacks the required role for this transition", t.ID)
	}
}

// requireCustody admits the assigned officer, the current sub-assignee
// or a member of the owning department.
func requireCustody(t *domain.Ticket, actor domain.Actor) (domain.Role, error) {
	if t.Assignment == nil {
		return "", util.NewForbidden("ticket has no assignment", t.ID)
	}
	if officer := t.Assignment.OfficerID; officer != nil && *officer == actor.ID {
		return domain.RoleOfficer, nil
	}
	if t.SubAssigneeID != nil && *t.SubAssigneeID == actor.ID {
		return domain.RoleOfficer, nil
	}
	if actor.MemberOfDepartment(t.Assignment.DepartmentID) {
		return domain.RoleOfficer, nil
	}
	return "", util.NewForbidden("actor is not in the ticket's chain of custody", t.ID)
}

// requireWorkingOfficer admits only the assigned officer or the current
// sub-assignee; resolving is not open to the whole department.
func requireWorkingOfficer(t *domain.Ticket, actor domain.Actor) (domain.Role, error) {
	if t.Assignment == nil {
		return "", util.NewForbidden("ticket has no assignment", t.ID)
	}
	if officer := t.Assignment.OfficerID; officer != nil && *officer == actor.ID {
		return domain.RoleOfficer, nil
	}
	if t.SubAssigneeID != nil && *t.SubAssigneeID == actor.ID {
		return domain.RoleOfficer, nil
	}
	return "", util.NewForbidden("only the assigned officer or delegate may resolve", t.ID)
}

func requireNote(condition string) precondition {
	return func(t *domain.Ticket, note string) error {
		if strings.TrimSpace(note) == "" {
			return util.NewPreconditionFailed(condition, t.ID)
		}
		return nil
	}
}

func requireAfterEvidence(t *domain.Ticket, note string) error {
	if !t.HasValidAfterEvidence() {
		return util.NewPreconditionFailed("at least one valid AFTER evidence item is required to resolve", t.ID)
	}
	return nil
}

func requireApproved(t *domain.Ticket, note string) error {
	if t.Approval == nil || !t.Approval.Approved {
		return util.NewPreconditionFailed("closing requires an approved resolution", t.ID)
	}
	return nil
}

func requireDepartment(t *domain.Ticket, note string) error {
	if t.Assignment == nil || t.Assignment.DepartmentID == "" {
		return util.NewPreconditionFailed("a department must be assigned before this transition", t.ID)
	}
	return nil
}

func clearSubAssignee(t *domain.Ticket) {
	t.SubAssigneeID = nil
}

// Lifecycle validates and applies status transitions.
type Lifecycle struct {
	m          *mutator
	dispatcher events.Dispatcher
}

// TransitionInput carries one transition request.
type TransitionInput struct {
	TicketID string
	ToStatus domain.TicketStatus
	Actor    domain.Actor
	Note     string
}

// Transition moves the ticket along a table edge. The status change and
// its history entry land in one atomic write; notification dispatch is
// fire-and-forget off the write path.
func (l *Lifecycle) Transition(ctx context.Context, input TransitionInput) (*domain.Ticket, error) {
	ticket, err := l.m.mutate(ctx, input.TicketID, "transition", func(t *domain.Ticket) error {
		if t.Status == input.ToStatus {
			return util.NewPreconditionFailed("ticket is already in status "+string(t.Status), t.ID)
		}
		selected, ok := transitionTable[edgeKey{from: t.Status, to: input.ToStatus}]
		if !ok {
			return util.NewInvalidTransition(t.ID, string(t.Status), string(input.ToStatus))
		}
		role, err := selected.capability(t, input.Actor)
		if err != nil {
			return err
		}
		if selected.precondition != nil {
			if err := selected.precondition(t, input.Note); err != nil {
				return err
			}
		}

		from := t.Status
		t.Status = input.ToStatus
		if selected.onApply != nil {
			selected.onApply(t)
		}
		t.History = append(t.History, domain.HistoryEntry{
			ID:         uuid.NewString(),
			FromStatus: from,
			ToStatus:   input.ToStatus,
			ActorID:    input.Actor.ID,
			ActorRole:  role,
			Note:       input.Note,
			Timestamp:  time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.publishStatusChange(ticket, input)
	return ticket, nil
}

func (l *Lifecycle) publishStatusChange(ticket *domain.Ticket, input TransitionInput) {
	if l.dispatcher == nil {
		return
	}
	last := ticket.LastHistory()
	l.dispatcher.PublishAsync(events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventStatusChanged,
		TicketID:  ticket.ID,
		ActorID:   input.Actor.ID,
		Timestamp: time.Now().UTC(),
		Payload: events.StatusChangedPayload{
			OldStatus:  last.FromStatus,
			NewStatus:  ticket.Status,
			Note:       input.Note,
			FirstEntry: !ticket.EnteredStatusBefore(ticket.Status),
		},
	})
}
