package dto

import (
	"time"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
)

// SubmitGrievanceRequest is the intake payload.
type SubmitGrievanceRequest struct {
	Category    domain.GrievanceCategory `json:"category"`
	Description string                   `json:"description"`
	Location    string                   `json:"location"`
	IsEmergency bool                     `json:"is_emergency"`
	Evidence    []EvidenceRequest        `json:"evidence,omitempty"`
}

// TransitionRequest asks for one lifecycle transition.
type TransitionRequest struct {
	ToStatus domain.TicketStatus `json:"to_status"`
	Note     string              `json:"note,omitempty"`
}

// AssignDepartmentRequest moves custody to a department.
type AssignDepartmentRequest struct {
	DepartmentID     string   `json:"department_id"`
	OfficerID        *string  `json:"officer_id,omitempty"`
	PriorityOverride *float64 `json:"priority_override,omitempty"`
}

// SubAssignRequest delegates working responsibility to a peer.
type SubAssignRequest struct {
	ToOfficerID string `json:"to_officer_id"`
	Note        string `json:"note,omitempty"`
}

// ApprovalRequest carries an approve or reject decision.
type ApprovalRequest struct {
	Comment string `json:"comment"`
}

// EvidenceRequest is a blob-store reference taken verbatim.
type EvidenceRequest struct {
	URL       string           `json:"url"`
	PhotoType domain.PhotoType `json:"photo_type"`
	Caption   string           `json:"caption,omitempty"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
}

// UpdateNoteRequest sets the internal note.
type UpdateNoteRequest struct {
	Body       string                `json:"body"`
	Visibility domain.NoteVisibility `json:"visibility"`
}

// AssignmentResponse mirrors current custody.
type AssignmentResponse struct {
	DepartmentID string  `json:"department_id"`
	OfficerID    *string `json:"officer_id,omitempty"`
}

// ApprovalResponse mirrors the latest review cycle.
type ApprovalResponse struct {
	Approved  bool      `json:"approved"`
	Comment   string    `json:"comment"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
}

// EvidenceResponse mirrors one stored evidence item.
type EvidenceResponse struct {
	ID          string           `json:"id"`
	URL         string           `json:"url"`
	PhotoType   domain.PhotoType `json:"photo_type"`
	Caption     string           `json:"caption,omitempty"`
	Invalidated bool             `json:"invalidated"`
	CreatedAt   time.Time        `json:"created_at"`
}

// HistoryEntryResponse mirrors one audit entry.
type HistoryEntryResponse struct {
	ID         string              `json:"id"`
	FromStatus domain.TicketStatus `json:"from_status,omitempty"`
	ToStatus   domain.TicketStatus `json:"to_status"`
	ActorID    string              `json:"actor_id"`
	ActorRole  domain.Role         `json:"actor_role"`
	Note       string              `json:"note,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// NoteResponse mirrors the internal note.
type NoteResponse struct {
	Body       string                `json:"body"`
	Visibility domain.NoteVisibility `json:"visibility"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID            string                   `json:"id"`
	Status        domain.TicketStatus      `json:"status"`
	Category      domain.GrievanceCategory `json:"category"`
	Description   string                   `json:"description"`
	Location      string                   `json:"location,omitempty"`
	PriorityScore float64                  `json:"priority_score"`
	ManualBoost   float64                  `json:"manual_boost,omitempty"`
	IsEmergency   bool                     `json:"is_emergency"`
	SLADeadline   time.Time                `json:"sla_deadline"`
	Assignment    *AssignmentResponse      `json:"assignment,omitempty"`
	SubAssigneeID *string                  `json:"sub_assignee_id,omitempty"`
	Evidence      []EvidenceResponse       `json:"evidence,omitempty"`
	Approval      *ApprovalResponse        `json:"approval,omitempty"`
	InternalNote  *NoteResponse            `json:"internal_note,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
	Version       int64                    `json:"version"`
}

// QueueEntryResponse is one ranked queue row.
type QueueEntryResponse struct {
	Position       int            `json:"position"`
	EffectiveScore float64        `json:"effective_score"`
	Overdue        bool           `json:"overdue"`
	Ticket         TicketResponse `json:"ticket"`
}

// SuggestionResponse is the category-to-department heuristic result.
type SuggestionResponse struct {
	Category     domain.GrievanceCategory `json:"category"`
	DepartmentID string                   `json:"department_id"`
}
