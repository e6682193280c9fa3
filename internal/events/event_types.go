package events

import (
	"time"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventGrievanceSubmitted EventType = "grievance_submitted"
	EventStatusChanged      EventType = "grievance_status_changed"
	EventAssigned           EventType = "grievance_assigned"
	EventSubAssigned        EventType = "grievance_sub_assigned"
	EventApprovalRecorded   EventType = "grievance_approval_recorded"
	EventEvidenceAdded      EventType = "grievance_evidence_added"
)

// Event represents a domain event emitted by the engine.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus  domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus `json:"new_status"`
	Note       string              `json:"note,omitempty"`
	FirstEntry bool                `json:"first_entry"`
}

// AssignedPayload payload.
type AssignedPayload struct {
	DepartmentID string  `json:"department_id"`
	OfficerID    *string `json:"officer_id,omitempty"`
	Reassigned   bool    `json:"reassigned"`
}

// SubAssignedPayload payload.
type SubAssignedPayload struct {
	FromOfficerID string `json:"from_officer_id"`
	ToOfficerID   string `json:"to_officer_id"`
	Note          string `json:"note,omitempty"`
}

// ApprovalRecordedPayload payload.
type ApprovalRecordedPayload struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment"`
}

// SubmittedPayload payload.
type SubmittedPayload struct {
	Category    domain.GrievanceCategory `json:"category"`
	IsEmergency bool                     `json:"is_emergency"`
	SLADeadline time.Time                `json:"sla_deadline"`
}

// EvidenceAddedPayload payload.
type EvidenceAddedPayload struct {
	EvidenceID string           `json:"evidence_id"`
	PhotoType  domain.PhotoType `json:"photo_type"`
}
