package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
	"github.com/bytevantagees-gif/janasamparka-engine/pkg/util"
)

func TestSubmitComputesScoreAndDeadline(t *testing.T) {
	e := newTestEngine(t)

	ticket := submitTicket(t, e, domain.CategoryWater, false)

	assert.Equal(t, domain.TicketStatusSubmitted, ticket.Status)
	assert.Equal(t, 0.5, ticket.PriorityScore)
	assert.Equal(t, ticket.CreatedAt.Add(72*time.Hour), ticket.SLADeadline)
	assert.Equal(t, int64(1), ticket.Version)
	assert.Contains(t, ticket.ID, "GRV-")

	require.Len(t, ticket.History, 1)
	entry := ticket.History[0]
	assert.Equal(t, domain.TicketStatus(""), entry.FromStatus)
	assert.Equal(t, domain.TicketStatusSubmitted, entry.ToStatus)
	assert.Equal(t, testCitizen.ID, entry.ActorID)
	assert.Equal(t, domain.RoleCitizen, entry.ActorRole)
}

func TestSubmitEmergencyGetsFloorAndShortSLA(t *testing.T) {
	e := newTestEngine(t)

	ticket := submitTicket(t, e, domain.CategorySanitation, true)

	assert.GreaterOrEqual(t, ticket.PriorityScore, 0.8)
	assert.Equal(t, ticket.CreatedAt.Add(24*time.Hour), ticket.SLADeadline)
}

func TestSubmitValidation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Submit(ctx, SubmitInput{
		Category:    domain.GrievanceCategory("POTHOLES"),
		Description: "something",
		Actor:       testCitizen,
	})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindValidation))

	_, err = e.Submit(ctx, SubmitInput{
		Category:    domain.CategoryRoad,
		Description: "   ",
		Actor:       testCitizen,
	})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindValidation))

	_, err = e.Submit(ctx, SubmitInput{
		Category:    domain.CategoryRoad,
		Description: "pothole on main street",
		InitialEvidence: []EvidenceInput{
			{URL: "https://blobs.example/1.jpg", PhotoType: domain.PhotoType("SELFIE")},
		},
		Actor: testCitizen,
	})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindValidation))
}

// TestFullLifecycle walks one grievance end to end: intake, triage,
// assignment, field work, a failed approval round and the final close.
func TestFullLifecycle(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	ticket := submitTicket(t, e, domain.CategoryWater, false)

	_, err := e.Transition(ctx, TransitionInput{
		TicketID: ticket.ID, ToStatus: domain.TicketStatusUnderReview, Actor: testModerator,
	}, "")
	require.NoError(t, err)

	_, err = e.AssignDepartment(ctx, AssignDepartmentInput{
		TicketID: ticket.ID, DepartmentID: "WSD", OfficerID: strPtr(testOfficer.ID), Actor: testModerator,
	}, "")
	require.NoError(t, err)

	_, err = e.Transition(ctx, TransitionInput{
		TicketID: ticket.ID, ToStatus: domain.TicketStatusInProgress, Actor: testOfficer,
	}, "")
	require.NoError(t, err)

	// Resolving without AFTER evidence is refused.
	_, err = e.Transition(ctx, TransitionInput{
		TicketID: ticket.ID, ToStatus: domain.TicketStatusResolved, Actor: testOfficer,
	}, "")
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindPreconditionFailed))

	addAfterEvidence(t, e, ticket.ID, testOfficer)
	_, err = e.Transition(ctx, TransitionInput{
		TicketID: ticket.ID, ToStatus: domain.TicketStatusResolved, Actor: testOfficer,
	}, "")
	require.NoError(t, err)

	_, err = e.Reject(ctx, ApprovalInput{TicketID: ticket.ID, Comment: "redo", Actor: testApprover}, "")
	require.NoError(t, err)

	addAfterEvidence(t, e, ticket.ID, testOfficer)
	_, err = e.Transition(ctx, TransitionInput{
		TicketID: ticket.ID, ToStatus: domain.TicketStatusResolved, Actor: testOfficer,
	}, "")
	require.NoError(t, err)

	_, err = e.Approve(ctx, ApprovalInput{TicketID: ticket.ID, Comment: "ok", Actor: testApprover}, "")
	require.NoError(t, err)

	closed, err := e.Transition(ctx, TransitionInput{
		TicketID: ticket.ID, ToStatus: domain.TicketStatusClosed, Actor: testApprover, Note: "done",
	}, "")
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	requireStatusMatchesHistory(t, closed)

	// submit, review, assign, in_progress, resolve, reject-revert,
	// resolve, approve, close.
	assert.Len(t, closed.History, 9)
	assert.True(t, closed.Approval.Approved)

	// Terminal tickets leave the queue.
	entries, err := e.Queue(ctx)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotEqual(t, closed.ID, entry.Ticket.ID)
	}
}

func TestIdempotentTransitionReplaysResult(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	ticket := submitTicket(t, e, domain.CategoryWater, false)

	key := "client-key-42"
	first, err := e.Transition(ctx, TransitionInput{
		TicketID: ticket.ID, ToStatus: domain.TicketStatusUnderReview, Actor: testModerator,
	}, key)
	require.NoError(t, err)

	// The replay would fail the already-in-status check if re-executed;
	// the cached result comes back instead.
	second, err := e.Transition(ctx, TransitionInput{
		TicketID: ticket.ID, ToStatus: domain.TicketStatusUnderReview, Actor: testModerator,
	}, key)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Version, second.Version)
	assert.Len(t, second.History, len(first.History))

	stored, err := e.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, stored.History, 2)
}

func TestIdempotentSubmitCreatesOneTicket(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	input := SubmitInput{
		Category:       domain.CategoryRoad,
		Description:    "streetlight pole down",
		Actor:          testCitizen,
		IdempotencyKey: "submit-key-1",
	}
	first, err := e.Submit(ctx, input)
	require.NoError(t, err)
	second, err := e.Submit(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	entries, err := e.Queue(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFailedOperationIsNotCached(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	ticket := submitTicket(t, e, domain.CategoryWater, false)

	key := "retry-after-fix"
	_, err := e.Transition(ctx, TransitionInput{
		TicketID: ticket.ID, ToStatus: domain.TicketStatusUnderReview, Actor: testCitizen,
	}, key)
	require.Error(t, err)

	// Same key with a permitted actor succeeds; the failure left nothing
	// behind to replay.
	updated, err := e.Transition(ctx, TransitionInput{
		TicketID: ticket.ID, ToStatus: domain.TicketStatusUnderReview, Actor: testModerator,
	}, key)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusUnderReview, updated.Status)
}

func TestQueueRanksAndPositions(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	low := submitTicket(t, e, domain.CategorySanitation, false)
	emergency := submitTicket(t, e, domain.CategoryWater, true)
	mid := submitTicket(t, e, domain.CategoryHealth, false)

	entries, err := e.Queue(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, emergency.ID, entries[0].Ticket.ID)
	assert.Equal(t, mid.ID, entries[1].Ticket.ID)
	assert.Equal(t, low.ID, entries[2].Ticket.ID)
	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Position)
		assert.False(t, entry.Overdue)
	}
	assert.GreaterOrEqual(t, entries[0].EffectiveScore, entries[1].EffectiveScore)
}

func TestAddEvidenceAppendsWithoutHistory(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	ticket := submitTicket(t, e, domain.CategoryWater, false)

	updated, err := e.AddEvidence(ctx, AddEvidenceInput{
		TicketID: ticket.ID,
		Evidence: EvidenceInput{
			URL:       "https://blobs.example/leak.jpg",
			PhotoType: domain.PhotoTypeBefore,
			Caption:   "leak at the junction",
		},
		Actor: testCitizen,
	})
	require.NoError(t, err)

	require.Len(t, updated.Evidence, 1)
	assert.Equal(t, domain.PhotoTypeBefore, updated.Evidence[0].PhotoType)
	assert.False(t, updated.Evidence[0].Invalidated)
	assert.Len(t, updated.History, 1, "evidence must not produce history entries")
	assert.Greater(t, updated.Version, ticket.Version)
}

func TestAddEvidenceRefusedOnTerminalTicket(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	ticket := submitTicket(t, e, domain.CategoryOther, false)

	_, err := e.Transition(ctx, TransitionInput{
		TicketID: ticket.ID, ToStatus: domain.TicketStatusRejected, Actor: testModerator, Note: "spam",
	}, "")
	require.NoError(t, err)

	_, err = e.AddEvidence(ctx, AddEvidenceInput{
		TicketID: ticket.ID,
		Evidence: EvidenceInput{URL: "https://blobs.example/x.jpg", PhotoType: domain.PhotoTypeEvidence},
		Actor:    testCitizen,
	})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindPreconditionFailed))
}

func TestUpdateInternalNote(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	ticket := submitTicket(t, e, domain.CategoryWater, false)

	_, err := e.UpdateInternalNote(ctx, UpdateNoteInput{
		TicketID:   ticket.ID,
		Body:       "citizen called twice",
		Visibility: domain.NoteVisibilityInternal,
		Actor:      testCitizen,
	})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindForbidden))

	first, err := e.UpdateInternalNote(ctx, UpdateNoteInput{
		TicketID:   ticket.ID,
		Body:       "citizen called twice",
		Visibility: domain.NoteVisibilityInternal,
		Actor:      testModerator,
	})
	require.NoError(t, err)
	require.NotNil(t, first.InternalNote)
	assert.Equal(t, "citizen called twice", first.InternalNote.Body)

	second, err := e.UpdateInternalNote(ctx, UpdateNoteInput{
		TicketID:   ticket.ID,
		Body:       "escalated to ward office",
		Visibility: domain.NoteVisibilityInternal,
		Actor:      testOfficer,
	})
	require.NoError(t, err)
	assert.Equal(t, "escalated to ward office", second.InternalNote.Body)
	assert.Len(t, second.History, len(first.History), "notes are not part of history")
}

func TestGetUnknownTicket(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Get(context.Background(), "GRV-NOPE")
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindNotFound))
}

func TestSuggestDepartment(t *testing.T) {
	dept, ok := SuggestDepartment(domain.CategoryWater)
	assert.True(t, ok)
	assert.Equal(t, "WSD", dept)

	dept, ok = SuggestDepartment(domain.CategoryRoad)
	assert.True(t, ok)
	assert.Equal(t, "PWD", dept)

	_, ok = SuggestDepartment(domain.GrievanceCategory("UNKNOWN"))
	assert.False(t, ok)
}
