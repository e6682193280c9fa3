package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/config"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/events"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/observability"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/store"
	"github.com/bytevantagees-gif/janasamparka-engine/pkg/util"
)

// Engine composes the lifecycle state machine, assignment manager,
// approval workflow and priority engine into the operation surface
// external collaborators call.
type Engine struct {
	store       store.TicketStore
	priority    *Priority
	lifecycle   *Lifecycle
	assignments *AssignmentManager
	approvals   *ApprovalWorkflow
	idempotency IdempotencyStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// Dependencies bundles collaborators for the engine.
type Dependencies struct {
	Store       store.TicketStore
	Policy      config.PolicyConfig
	Engine      config.EngineConfig
	Dispatcher  events.Dispatcher
	Idempotency IdempotencyStore
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// New constructs the engine.
func New(deps Dependencies) *Engine {
	m := newMutator(
		deps.Store,
		deps.Metrics,
		deps.Logger,
		deps.Engine.ConflictRetryAttempts,
		time.Duration(deps.Engine.ConflictRetryBaseMS)*time.Millisecond,
	)
	return &Engine{
		store:       deps.Store,
		priority:    NewPriority(deps.Policy),
		lifecycle:   &Lifecycle{m: m, dispatcher: deps.Dispatcher},
		assignments: &AssignmentManager{m: m, dispatcher: deps.Dispatcher},
		approvals:   &ApprovalWorkflow{m: m, dispatcher: deps.Dispatcher},
		idempotency: deps.Idempotency,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// Priority exposes the score/deadline calculator for intake callers.
func (e *Engine) Priority() *Priority {
	return e.priority
}

// SubmitInput is the intake payload produced by the submission
// collaborator. Category and emergency flag are already computed.
type SubmitInput struct {
	Category        domain.GrievanceCategory
	Description     string
	Location        string
	IsEmergency     bool
	InitialEvidence []EvidenceInput
	Actor           domain.Actor
	IdempotencyKey  string
}

// EvidenceInput is a blob-store reference taken verbatim.
type EvidenceInput struct {
	URL       string
	PhotoType domain.PhotoType
	Caption   string
	CreatedAt time.Time
}

// Submit creates a ticket, computes its initial score and SLA deadline
// and persists it at version 1 with a synthetic submission history entry.
func (e *Engine) Submit(ctx context.Context, input SubmitInput) (*domain.Ticket, error) {
	if !domain.ValidCategory(input.Category) {
		return nil, util.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, util.NewValidationError("description required", nil)
	}
	return e.idempotent(ctx, input.IdempotencyKey, func() (*domain.Ticket, error) {
		now := time.Now().UTC()
		ticket := &domain.Ticket{
			ID:            newTicketID(),
			Status:        domain.TicketStatusSubmitted,
			Category:      input.Category,
			Description:   strings.TrimSpace(input.Description),
			Location:      strings.TrimSpace(input.Location),
			IsEmergency:   input.IsEmergency,
			PriorityScore: e.priority.ComputeScore(input.Category, input.IsEmergency, 0),
			SLADeadline:   e.priority.ComputeSLADeadline(input.Category, input.IsEmergency, now),
			CreatedAt:     now,
		}
		for _, item := range input.InitialEvidence {
			evidence, err := newEvidenceItem(item)
			if err != nil {
				return nil, err
			}
			ticket.Evidence = append(ticket.Evidence, evidence)
		}
		ticket.History = append(ticket.History, domain.HistoryEntry{
			ID:        uuid.NewString(),
			ToStatus:  domain.TicketStatusSubmitted,
			ActorID:   input.Actor.ID,
			ActorRole: domain.RoleCitizen,
			Note:      "submitted",
			Timestamp: now,
		})

		if err := e.store.Create(ctx, ticket); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return nil, util.NewConflict(ticket.ID)
			}
			return nil, util.NewUpstreamUnavailable("ticket store create failed", err)
		}

		if e.dispatcher != nil {
			e.dispatcher.PublishAsync(events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventGrievanceSubmitted,
				TicketID:  ticket.ID,
				ActorID:   input.Actor.ID,
				Timestamp: now,
				Payload: events.SubmittedPayload{
					Category:    ticket.Category,
					IsEmergency: ticket.IsEmergency,
					SLADeadline: ticket.SLADeadline,
				},
			})
		}
		return ticket, nil
	})
}

// Transition applies one lifecycle transition.
func (e *Engine) Transition(ctx context.Context, input TransitionInput, idempotencyKey string) (*domain.Ticket, error) {
	return e.idempotent(ctx, idempotencyKey, func() (*domain.Ticket, error) {
		return e.lifecycle.Transition(ctx, input)
	})
}

// AssignDepartment delegates to the assignment manager.
func (e *Engine) AssignDepartment(ctx context.Context, input AssignDepartmentInput, idempotencyKey string) (*domain.Ticket, error) {
	return e.idempotent(ctx, idempotencyKey, func() (*domain.Ticket, error) {
		return e.assignments.AssignDepartment(ctx, input)
	})
}

// SubAssign delegates to the assignment manager.
func (e *Engine) SubAssign(ctx context.Context, input SubAssignInput, idempotencyKey string) (*domain.Ticket, error) {
	return e.idempotent(ctx, idempotencyKey, func() (*domain.Ticket, error) {
		return e.assignments.SubAssign(ctx, input)
	})
}

// Approve delegates to the approval workflow.
func (e *Engine) Approve(ctx context.Context, input ApprovalInput, idempotencyKey string) (*domain.Ticket, error) {
	return e.idempotent(ctx, idempotencyKey, func() (*domain.Ticket, error) {
		return e.approvals.Approve(ctx, input)
	})
}

// Reject delegates to the approval workflow.
func (e *Engine) Reject(ctx context.Context, input ApprovalInput, idempotencyKey string) (*domain.Ticket, error) {
	return e.idempotent(ctx, idempotencyKey, func() (*domain.Ticket, error) {
		return e.approvals.Reject(ctx, input)
	})
}

// AddEvidenceInput appends one evidence item.
type AddEvidenceInput struct {
	TicketID       string
	Evidence       EvidenceInput
	Actor          domain.Actor
	IdempotencyKey string
}

// AddEvidence appends a photo reference. Evidence is append-only; no
// status change, no history entry.
func (e *Engine) AddEvidence(ctx context.Context, input AddEvidenceInput) (*domain.Ticket, error) {
	item, err := newEvidenceItem(input.Evidence)
	if err != nil {
		return nil, err
	}
	return e.idempotent(ctx, input.IdempotencyKey, func() (*domain.Ticket, error) {
		ticket, err := e.lifecycle.m.mutate(ctx, input.TicketID, "add_evidence", func(t *domain.Ticket) error {
			if t.Status.Terminal() {
				return util.NewPreconditionFailed("cannot add evidence to a closed or rejected ticket", t.ID)
			}
			t.Evidence = append(t.Evidence, item)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if e.dispatcher != nil {
			e.dispatcher.PublishAsync(events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventEvidenceAdded,
				TicketID:  ticket.ID,
				ActorID:   input.Actor.ID,
				Timestamp: time.Now().UTC(),
				Payload: events.EvidenceAddedPayload{
					EvidenceID: item.ID,
					PhotoType:  item.PhotoType,
				},
			})
		}
		return ticket, nil
	})
}

// UpdateNoteInput carries an internal note write.
type UpdateNoteInput struct {
	TicketID       string
	Body           string
	Visibility     domain.NoteVisibility
	Actor          domain.Actor
	IdempotencyKey string
}

// UpdateInternalNote sets the ticket note, last-write-wins. Not part of
// history.
func (e *Engine) UpdateInternalNote(ctx context.Context, input UpdateNoteInput) (*domain.Ticket, error) {
	if input.Visibility != domain.NoteVisibilityInternal && input.Visibility != domain.NoteVisibilityPublic {
		return nil, util.NewValidationError("visibility must be INTERNAL or PUBLIC", nil)
	}
	if !hasStaffRole(input.Actor) {
		return nil, util.NewForbidden("internal notes require a staff role", input.TicketID)
	}
	return e.idempotent(ctx, input.IdempotencyKey, func() (*domain.Ticket, error) {
		return e.lifecycle.m.mutate(ctx, input.TicketID, "update_note", func(t *domain.Ticket) error {
			t.InternalNote = &domain.InternalNote{
				Body:       input.Body,
				Visibility: input.Visibility,
				UpdatedAt:  time.Now().UTC(),
			}
			return nil
		})
	})
}

// Get returns the ticket or NotFound.
func (e *Engine) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := e.store.Get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, util.NewNotFound(ticketID)
		}
		return nil, util.NewUpstreamUnavailable("ticket store read failed", err)
	}
	return ticket, nil
}

// QueueEntry is a ranked open ticket with its derived display fields.
type QueueEntry struct {
	Ticket         domain.Ticket
	Position       int
	EffectiveScore float64
	Overdue        bool
}

// Queue returns open tickets ranked by (effective score desc, deadline
// asc, id asc). Position is derived, never stored.
func (e *Engine) Queue(ctx context.Context) ([]QueueEntry, error) {
	open, err := e.store.ListOpen(ctx)
	if err != nil {
		return nil, util.NewUpstreamUnavailable("ticket store list failed", err)
	}
	ranked := RankOpen(open)
	now := time.Now().UTC()
	entries := make([]QueueEntry, 0, len(ranked))
	for i := range ranked {
		entries = append(entries, QueueEntry{
			Ticket:         ranked[i],
			Position:       i + 1,
			EffectiveScore: EffectiveScore(&ranked[i]),
			Overdue:        now.After(ranked[i].SLADeadline),
		})
	}
	return entries, nil
}

func (e *Engine) idempotent(ctx context.Context, key string, op func() (*domain.Ticket, error)) (*domain.Ticket, error) {
	if key == "" || e.idempotency == nil {
		return op()
	}
	prior, found, err := e.idempotency.Lookup(ctx, key)
	if err != nil {
		e.logger.Warn("idempotency lookup failed", zap.Error(err))
	} else if found {
		return prior, nil
	}
	ticket, err := op()
	if err != nil {
		return nil, err
	}
	if err := e.idempotency.Record(ctx, key, ticket); err != nil {
		e.logger.Warn("idempotency record failed", zap.Error(err))
	}
	return ticket, nil
}

func newEvidenceItem(input EvidenceInput) (domain.EvidenceItem, error) {
	if strings.TrimSpace(input.URL) == "" {
		return domain.EvidenceItem{}, util.NewValidationError("evidence url required", nil)
	}
	if !domain.ValidPhotoType(input.PhotoType) {
		return domain.EvidenceItem{}, util.NewValidationError("unknown photo type", map[string]any{"photo_type": input.PhotoType})
	}
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return domain.EvidenceItem{
		ID:        uuid.NewString(),
		URL:       input.URL,
		PhotoType: input.PhotoType,
		Caption:   input.Caption,
		CreatedAt: createdAt,
	}, nil
}

func hasStaffRole(actor domain.Actor) bool {
	return actor.HasRole(domain.RoleModerator) ||
		actor.HasRole(domain.RoleOfficer) ||
		actor.HasRole(domain.RoleApprover) ||
		actor.HasRole(domain.RoleAdmin)
}

func newTicketID() string {
	return "GRV-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
