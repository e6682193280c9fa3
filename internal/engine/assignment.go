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

// AssignmentManager owns the chain-of-custody: department assignment,
// officer assignment and officer-to-officer sub-assignment.
type AssignmentManager struct {
	m          *mutator
	dispatcher events.Dispatcher
}

// AssignDepartmentInput carries a department (re)assignment request.
type AssignDepartmentInput struct {
	TicketID     string
	DepartmentID string
	OfficerID    *string
	// PriorityOverride is a manual ordering nudge stored separately from
	// the computed score and applied at ranking time only.
	PriorityOverride *float64
	Actor            domain.Actor
}

// AssignDepartment moves custody to a department, optionally naming an
// officer. Legal only while under review or already assigned; assigning
// an under-review ticket also advances it to assigned in the same write.
// Any existing sub-assignment is cleared.
func (a *AssignmentManager) AssignDepartment(ctx context.Context, input AssignDepartmentInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.DepartmentID) == "" {
		return nil, util.NewValidationError("department_id required", nil)
	}
	if !input.Actor.HasRole(domain.RoleModerator) && !input.Actor.HasRole(domain.RoleAdmin) {
		return nil, util.NewForbidden("assignment requires moderator or admin", input.TicketID)
	}

	var reassigned bool
	ticket, err := a.m.mutate(ctx, input.TicketID, "assign_department", func(t *domain.Ticket) error {
		if t.Status != domain.TicketStatusUnderReview && t.Status != domain.TicketStatusAssigned {
			return util.NewPreconditionFailed("assignment is only legal while under review or assigned", t.ID)
		}
		reassigned = t.Status == domain.TicketStatusAssigned

		from := t.Status
		t.Assignment = &domain.Assignment{
			DepartmentID: input.DepartmentID,
			OfficerID:    input.OfficerID,
		}
		t.SubAssigneeID = nil
		t.Status = domain.TicketStatusAssigned
		if input.PriorityOverride != nil {
			t.ManualBoost = clampBoost(*input.PriorityOverride)
		}

		note := "assigned"
		if reassigned {
			note = "reassigned"
		}
		role := domain.RoleModerator
		if !input.Actor.HasRole(domain.RoleModerator) {
			role = domain.RoleAdmin
		}
		t.History = append(t.History, domain.HistoryEntry{
			ID:         uuid.NewString(),
			FromStatus: from,
			ToStatus:   domain.TicketStatusAssigned,
			ActorID:    input.Actor.ID,
			ActorRole:  role,
			Note:       note,
			Timestamp:  time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.dispatcher != nil {
		a.dispatcher.PublishAsync(events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventAssigned,
			TicketID:  ticket.ID,
			ActorID:   input.Actor.ID,
			Timestamp: time.Now().UTC(),
			Payload: events.AssignedPayload{
				DepartmentID: input.DepartmentID,
				OfficerID:    input.OfficerID,
				Reassigned:   reassigned,
			},
		})
	}
	return ticket, nil
}

// SubAssignInput carries a delegation request.
type SubAssignInput struct {
	TicketID      string
	FromOfficerID string
	ToOfficerID   string
	Note          string
	Actor         domain.Actor
}

// SubAssign delegates working responsibility to a peer officer. The
// original assignee remains recorded as the formal owner; status does
// not change.
func (a *AssignmentManager) SubAssign(ctx context.Context, input SubAssignInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.ToOfficerID) == "" {
		return nil, util.NewValidationError("to_officer_id required", nil)
	}
	if input.ToOfficerID == input.FromOfficerID {
		return nil, util.NewValidationError("cannot sub-assign to oneself", nil)
	}

	ticket, err := a.m.mutate(ctx, input.TicketID, "sub_assign", func(t *domain.Ticket) error {
		if t.Status != domain.TicketStatusAssigned && t.Status != domain.TicketStatusInProgress {
			return util.NewPreconditionFailed("sub-assignment is only legal while assigned or in progress", t.ID)
		}
		officer := t.CurrentOfficer()
		if officer == nil || *officer != input.Actor.ID || input.FromOfficerID != input.Actor.ID {
			return util.NewForbidden("only the current assignee may sub-assign", t.ID)
		}

		sub := input.ToOfficerID
		t.SubAssigneeID = &sub
		t.History = append(t.History, domain.HistoryEntry{
			ID:         uuid.NewString(),
			FromStatus: t.Status,
			ToStatus:   t.Status,
			ActorID:    input.Actor.ID,
			ActorRole:  domain.RoleOfficer,
			Note:       subAssignNote(input),
			Timestamp:  time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.dispatcher != nil {
		a.dispatcher.PublishAsync(events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSubAssigned,
			TicketID:  ticket.ID,
			ActorID:   input.Actor.ID,
			Timestamp: time.Now().UTC(),
			Payload: events.SubAssignedPayload{
				FromOfficerID: input.FromOfficerID,
				ToOfficerID:   input.ToOfficerID,
				Note:          input.Note,
			},
		})
	}
	return ticket, nil
}

func subAssignNote(input SubAssignInput) string {
	note := "sub-assigned to " + input.ToOfficerID
	if strings.TrimSpace(input.Note) != "" {
		note += ": " + input.Note
	}
	return note
}

func clampBoost(boost float64) float64 {
	if boost < 0 {
		return 0
	}
	if boost > 1 {
		return 1
	}
	return boost
}
