package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/config"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/events"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/observability"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/store"
)

var (
	testCitizen   = domain.Actor{ID: "citizen-1", Roles: []domain.Role{domain.RoleCitizen}}
	testModerator = domain.Actor{ID: "mod-1", Roles: []domain.Role{domain.RoleModerator}}
	testOfficer   = domain.Actor{ID: "officer-1", Roles: []domain.Role{domain.RoleOfficer, domain.Role(domain.DepartmentRolePrefix + "WSD")}}
	testPeer      = domain.Actor{ID: "officer-2", Roles: []domain.Role{domain.RoleOfficer, domain.Role(domain.DepartmentRolePrefix + "WSD")}}
	testApprover  = domain.Actor{ID: "mla-1", Roles: []domain.Role{domain.RoleApprover}}
	testAdmin     = domain.Actor{ID: "admin-1", Roles: []domain.Role{domain.RoleAdmin}}
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(Dependencies{
		Store:  store.NewMemoryStore(),
		Policy: config.DefaultPolicy(),
		Engine: config.EngineConfig{
			ConflictRetryAttempts: 5,
			ConflictRetryBaseMS:   1,
			IdempotencyTTLMinutes: 5,
		},
		Dispatcher:  events.NewInMemoryDispatcher(),
		Idempotency: NewMemoryIdempotencyStore(5 * time.Minute),
		Logger:      zap.NewNop(),
		Metrics:     observability.NewMetrics(),
	})
}

func submitTicket(t *testing.T, e *Engine, category domain.GrievanceCategory, emergency bool) *domain.Ticket {
	t.Helper()
	ticket, err := e.Submit(context.Background(), SubmitInput{
		Category:    category,
		Description: "pipeline leaking near the market",
		Location:    "ward 12",
		IsEmergency: emergency,
		Actor:       testCitizen,
	})
	require.NoError(t, err)
	return ticket
}

func strPtr(s string) *string {
	return &s
}

// advanceToInProgress walks a fresh ticket to IN_PROGRESS with officer-1
// assigned under department WSD.
func advanceToInProgress(t *testing.T, e *Engine, ticketID string) *domain.Ticket {
	t.Helper()
	ctx := context.Background()

	_, err := e.Transition(ctx, TransitionInput{
		TicketID: ticketID,
		ToStatus: domain.TicketStatusUnderReview,
		Actor:    testModerator,
	}, "")
	require.NoError(t, err)

	_, err = e.AssignDepartment(ctx, AssignDepartmentInput{
		TicketID:     ticketID,
		DepartmentID: "WSD",
		OfficerID:    strPtr(testOfficer.ID),
		Actor:        testModerator,
	}, "")
	require.NoError(t, err)

	ticket, err := e.Transition(ctx, TransitionInput{
		TicketID: ticketID,
		ToStatus: domain.TicketStatusInProgress,
		Actor:    testOfficer,
	}, "")
	require.NoError(t, err)
	return ticket
}

func addAfterEvidence(t *testing.T, e *Engine, ticketID string, actor domain.Actor) *domain.Ticket {
	t.Helper()
	ticket, err := e.AddEvidence(context.Background(), AddEvidenceInput{
		TicketID: ticketID,
		Evidence: EvidenceInput{
			URL:       "https://blobs.example/after.jpg",
			PhotoType: domain.PhotoTypeAfter,
		},
		Actor: actor,
	})
	require.NoError(t, err)
	return ticket
}

// requireStatusMatchesHistory asserts the core audit invariant: current
// status always equals the newest history entry's target.
func requireStatusMatchesHistory(t *testing.T, ticket *domain.Ticket) {
	t.Helper()
	require.NotEmpty(t, ticket.History)
	require.Equal(t, ticket.History[len(ticket.History)-1].ToStatus, ticket.Status)
}
