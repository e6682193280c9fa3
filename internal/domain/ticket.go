package domain

import "time"

// TicketStatus enumerates lifecycle states for grievance tickets.
type TicketStatus string

const (
	TicketStatusSubmitted   TicketStatus = "SUBMITTED"
	TicketStatusUnderReview TicketStatus = "UNDER_REVIEW"
	TicketStatusAssigned    TicketStatus = "ASSIGNED"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
	TicketStatusRejected    TicketStatus = "REJECTED"
)

// Terminal reports whether a status has no outgoing transitions.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed || s == TicketStatusRejected
}

// Open reports whether the ticket still counts toward the work queue.
func (s TicketStatus) Open() bool {
	return !s.Terminal()
}

// GrievanceCategory enumerates complaint categories.
type GrievanceCategory string

const (
	CategoryRoad        GrievanceCategory = "ROAD"
	CategoryWater       GrievanceCategory = "WATER"
	CategoryElectricity GrievanceCategory = "ELECTRICITY"
	CategoryHealth      GrievanceCategory = "HEALTH"
	CategoryEducation   GrievanceCategory = "EDUCATION"
	CategorySanitation  GrievanceCategory = "SANITATION"
	CategoryOther       GrievanceCategory = "OTHER"
)

// Categories lists every recognized category.
func Categories() []GrievanceCategory {
	return []GrievanceCategory{
		CategoryRoad,
		CategoryWater,
		CategoryElectricity,
		CategoryHealth,
		CategoryEducation,
		CategorySanitation,
		CategoryOther,
	}
}

// ValidCategory reports whether c is a recognized category.
func ValidCategory(c GrievanceCategory) bool {
	for _, candidate := range Categories() {
		if candidate == c {
			return true
		}
	}
	return false
}

// PhotoType tags an evidence item by lifecycle phase.
type PhotoType string

const (
	PhotoTypeBefore   PhotoType = "BEFORE"
	PhotoTypeDuring   PhotoType = "DURING"
	PhotoTypeAfter    PhotoType = "AFTER"
	PhotoTypeEvidence PhotoType = "EVIDENCE"
)

// ValidPhotoType reports whether p is a recognized evidence tag.
func ValidPhotoType(p PhotoType) bool {
	switch p {
	case PhotoTypeBefore, PhotoTypeDuring, PhotoTypeAfter, PhotoTypeEvidence:
		return true
	}
	return false
}

// NoteVisibility controls who may read an internal note.
type NoteVisibility string

const (
	NoteVisibilityInternal NoteVisibility = "INTERNAL"
	NoteVisibilityPublic   NoteVisibility = "PUBLIC"
)

// Assignment records current custody of a ticket. OfficerID absent means
// the department as a whole owns it.
type Assignment struct {
	DepartmentID string
	OfficerID    *string
}

// EvidenceItem is a stored photo reference. References come from the blob
// store verbatim; items are appended or invalidated, never removed.
type EvidenceItem struct {
	ID          string
	URL         string
	PhotoType   PhotoType
	Caption     string
	Invalidated bool
	CreatedAt   time.Time
}

// Approval is the outcome of the latest resolution review cycle.
type Approval struct {
	Approved  bool
	Comment   string
	ActorID   string
	Timestamp time.Time
}

// HistoryEntry is an immutable audit trail record. FromStatus is empty for
// the synthetic submission entry.
type HistoryEntry struct {
	ID         string
	FromStatus TicketStatus
	ToStatus   TicketStatus
	ActorID    string
	ActorRole  Role
	Note       string
	Timestamp  time.Time
}

// InternalNote is mutable free text, last-write-wins, not part of history.
type InternalNote struct {
	Body       string
	Visibility NoteVisibility
	UpdatedAt  time.Time
}

// Ticket is the aggregate for a single citizen grievance.
type Ticket struct {
	ID            string
	Status        TicketStatus
	Category      GrievanceCategory
	Description   string
	Location      string
	PriorityScore float64
	ManualBoost   float64
	IsEmergency   bool
	SLADeadline   time.Time
	Assignment    *Assignment
	SubAssigneeID *string
	Evidence      []EvidenceItem
	Approval      *Approval
	History       []HistoryEntry
	InternalNote  *InternalNote
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
}

// CurrentOfficer returns the assigned officer id, if any.
func (t *Ticket) CurrentOfficer() *string {
	if t.Assignment == nil {
		return nil
	}
	return t.Assignment.OfficerID
}

// HasValidAfterEvidence reports whether at least one non-invalidated
// AFTER-tagged item is attached. Precondition for resolving.
func (t *Ticket) HasValidAfterEvidence() bool {
	for _, item := range t.Evidence {
		if item.PhotoType == PhotoTypeAfter && !item.Invalidated {
			return true
		}
	}
	return false
}

// LastHistory returns the newest history entry, or nil for a ticket that
// was never persisted through the engine.
func (t *Ticket) LastHistory() *HistoryEntry {
	if len(t.History) == 0 {
		return nil
	}
	return &t.History[len(t.History)-1]
}

// EnteredStatusBefore reports whether the ticket held the given status at
// any point excluding the newest history entry.
func (t *Ticket) EnteredStatusBefore(status TicketStatus) bool {
	if len(t.History) < 2 {
		return false
	}
	for _, entry := range t.History[:len(t.History)-1] {
		if entry.ToStatus == status {
			return true
		}
	}
	return false
}

// Clone deep-copies the ticket so callers can mutate without aliasing
// store-held state.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	copied := *t
	if t.Assignment != nil {
		assignment := *t.Assignment
		if t.Assignment.OfficerID != nil {
			officer := *t.Assignment.OfficerID
			assignment.OfficerID = &officer
		}
		copied.Assignment = &assignment
	}
	if t.SubAssigneeID != nil {
		sub := *t.SubAssigneeID
		copied.SubAssigneeID = &sub
	}
	if t.Approval != nil {
		approval := *t.Approval
		copied.Approval = &approval
	}
	if t.InternalNote != nil {
		note := *t.InternalNote
		copied.InternalNote = &note
	}
	copied.Evidence = append([]EvidenceItem(nil), t.Evidence...)
	copied.History = append([]HistoryEntry(nil), t.History...)
	return &copied
}
