package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/api/dto"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/auth"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/engine"
	"github.com/bytevantagees-gif/janasamparka-engine/pkg/util"
)

const idempotencyHeader = "Idempotency-Key"

// GrievancesHandler exposes the engine operation surface over HTTP.
type GrievancesHandler struct {
	engine *engine.Engine
}

// NewGrievancesHandler constructs handler.
func NewGrievancesHandler(grievanceEngine *engine.Engine) *GrievancesHandler {
	return &GrievancesHandler{engine: grievanceEngine}
}

// Submit POST /grievances.
func (h *GrievancesHandler) Submit(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.SubmitGrievanceRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	input := engine.SubmitInput{
		Category:       req.Category,
		Description:    req.Description,
		Location:       req.Location,
		IsEmergency:    req.IsEmergency,
		Actor:          actor,
		IdempotencyKey: c.Get(idempotencyHeader),
	}
	for _, item := range req.Evidence {
		input.InitialEvidence = append(input.InitialEvidence, evidenceInput(item))
	}

	ticket, err := h.engine.Submit(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Get GET /grievances/:id.
func (h *GrievancesHandler) Get(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return util.NewUnauthorized("authentication required")
	}
	ticket, err := h.engine.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// History GET /grievances/:id/history.
func (h *GrievancesHandler) History(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return util.NewUnauthorized("authentication required")
	}
	ticket, err := h.engine.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	entries := make([]dto.HistoryEntryResponse, 0, len(ticket.History))
	for _, entry := range ticket.History {
		entries = append(entries, historyEntryResponse(entry))
	}
	return c.JSON(fiber.Map{"data": entries})
}

// Transition POST /grievances/:id/transition.
func (h *GrievancesHandler) Transition(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.ToStatus == "" {
		return util.NewValidationError("to_status required", nil)
	}

	ticket, err := h.engine.Transition(c.UserContext(), engine.TransitionInput{
		TicketID: c.Params("id"),
		ToStatus: req.ToStatus,
		Actor:    actor,
		Note:     req.Note,
	}, c.Get(idempotencyHeader))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Assign POST /grievances/:id/assign.
func (h *GrievancesHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.AssignDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.engine.AssignDepartment(c.UserContext(), engine.AssignDepartmentInput{
		TicketID:         c.Params("id"),
		DepartmentID:     req.DepartmentID,
		OfficerID:        req.OfficerID,
		PriorityOverride: req.PriorityOverride,
		Actor:            actor,
	}, c.Get(idempotencyHeader))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// SubAssign POST /grievances/:id/sub-assign.
func (h *GrievancesHandler) SubAssign(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.SubAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.engine.SubAssign(c.UserContext(), engine.SubAssignInput{
		TicketID:      c.Params("id"),
		FromOfficerID: actor.ID,
		ToOfficerID:   req.ToOfficerID,
		Note:          req.Note,
		Actor:         actor,
	}, c.Get(idempotencyHeader))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Approve POST /grievances/:id/approval/approve.
func (h *GrievancesHandler) Approve(c *fiber.Ctx) error {
	return h.reviewResolution(c, h.engine.Approve)
}

// Reject POST /grievances/:id/approval/reject.
func (h *GrievancesHandler) Reject(c *fiber.Ctx) error {
	return h.reviewResolution(c, h.engine.Reject)
}

func (h *GrievancesHandler) reviewResolution(c *fiber.Ctx, decide func(ctx context.Context, input engine.ApprovalInput, idempotencyKey string) (*domain.Ticket, error)) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.ApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	ticket, err := decide(c.UserContext(), engine.ApprovalInput{
		TicketID: c.Params("id"),
		Comment:  req.Comment,
		Actor:    actor,
	}, c.Get(idempotencyHeader))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AddEvidence POST /grievances/:id/evidence.
func (h *GrievancesHandler) AddEvidence(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.EvidenceRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.engine.AddEvidence(c.UserContext(), engine.AddEvidenceInput{
		TicketID:       c.Params("id"),
		Evidence:       evidenceInput(req),
		Actor:          actor,
		IdempotencyKey: c.Get(idempotencyHeader),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateNote PUT /grievances/:id/note.
func (h *GrievancesHandler) UpdateNote(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.UpdateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.engine.UpdateInternalNote(c.UserContext(), engine.UpdateNoteInput{
		TicketID:       c.Params("id"),
		Body:           req.Body,
		Visibility:     req.Visibility,
		Actor:          actor,
		IdempotencyKey: c.Get(idempotencyHeader),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Queue GET /grievances/queue.
func (h *GrievancesHandler) Queue(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return util.NewUnauthorized("authentication required")
	}
	entries, err := h.engine.Queue(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.QueueEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.QueueEntryResponse{
			Position:       entry.Position,
			EffectiveScore: entry.EffectiveScore,
			Overdue:        entry.Overdue,
			Ticket:         ticketResponse(&entry.Ticket),
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// SuggestDepartment GET /grievances/suggest-department.
func (h *GrievancesHandler) SuggestDepartment(c *fiber.Ctx) error {
	category := domain.GrievanceCategory(c.Query("category"))
	if !domain.ValidCategory(category) {
		return util.NewValidationError("unknown category", map[string]any{"category": category})
	}
	dept, ok := engine.SuggestDepartment(category)
	if !ok {
		return util.NewValidationError("no suggestion for category", map[string]any{"category": category})
	}
	return c.JSON(fiber.Map{"data": dto.SuggestionResponse{Category: category, DepartmentID: dept}})
}

func evidenceInput(req dto.EvidenceRequest) engine.EvidenceInput {
	input := engine.EvidenceInput{
		URL:       req.URL,
		PhotoType: req.PhotoType,
		Caption:   req.Caption,
	}
	if req.CreatedAt != nil {
		input.CreatedAt = *req.CreatedAt
	}
	return input
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:            ticket.ID,
		Status:        ticket.Status,
		Category:      ticket.Category,
		Description:   ticket.Description,
		Location:      ticket.Location,
		PriorityScore: ticket.PriorityScore,
		ManualBoost:   ticket.ManualBoost,
		IsEmergency:   ticket.IsEmergency,
		SLADeadline:   ticket.SLADeadline,
		SubAssigneeID: ticket.SubAssigneeID,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		Version:       ticket.Version,
	}
	if ticket.Assignment != nil {
		resp.Assignment = &dto.AssignmentResponse{
			DepartmentID: ticket.Assignment.DepartmentID,
			OfficerID:    ticket.Assignment.OfficerID,
		}
	}
	if ticket.Approval != nil {
		resp.Approval = &dto.ApprovalResponse{
			Approved:  ticket.Approval.Approved,
			Comment:   ticket.Approval.Comment,
			ActorID:   ticket.Approval.ActorID,
			Timestamp: ticket.Approval.Timestamp,
		}
	}
	if ticket.InternalNote != nil {
		resp.InternalNote = &dto.NoteResponse{
			Body:       ticket.InternalNote.Body,
			Visibility: ticket.InternalNote.Visibility,
			UpdatedAt:  ticket.InternalNote.UpdatedAt,
		}
	}
	for _, item := range ticket.Evidence {
		resp.Evidence = append(resp.Evidence, dto.EvidenceResponse{
			ID:          item.ID,
			URL:         item.URL,
			PhotoType:   item.PhotoType,
			Caption:     item.Caption,
			Invalidated: item.Invalidated,
			CreatedAt:   item.CreatedAt,
		})
	}
	return resp
}

func historyEntryResponse(entry domain.HistoryEntry) dto.HistoryEntryResponse {
	return dto.HistoryEntryResponse{
		ID:         entry.ID,
		FromStatus: entry.FromStatus,
		ToStatus:   entry.ToStatus,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Note:       entry.Note,
		Timestamp:  entry.Timestamp,
	}
}
