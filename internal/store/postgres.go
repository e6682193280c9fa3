package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
)

// PostgresStore persists tickets in Postgres. History and evidence rows
// are written inside the same transaction as the compare-and-swap on the
// ticket row, so a lost race leaves no partial state behind.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore instantiates the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ticket.Version = 1
	now := time.Now().UTC()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = ticket.CreatedAt

	const query = `
        INSERT INTO tickets (id, status, category, description, location, priority_score, manual_boost,
            is_emergency, sla_deadline, department_id, officer_id, sub_assignee_id,
            approval_approved, approval_comment, approval_actor_id, approval_at,
            note_body, note_visibility, note_updated_at, created_at, updated_at, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`
	if _, err := tx.Exec(ctx, query, ticketArgs(ticket)...); err != nil {
		return err
	}
	if err := s.appendChildren(ctx, tx, ticket); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, status, category, description, location, priority_score, manual_boost,
               is_emergency, sla_deadline, department_id, officer_id, sub_assignee_id,
               approval_approved, approval_comment, approval_actor_id, approval_at,
               note_body, note_visibility, note_updated_at, created_at, updated_at, version
        FROM tickets WHERE id=$1`
	ticket, err := scanTicket(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.loadChildren(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *PostgresStore) PutIfVersionMatches(ctx context.Context, ticket *domain.Ticket, expectedVersion int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ticket.Version = expectedVersion + 1
	ticket.UpdatedAt = time.Now().UTC()

	const query = `
        UPDATE tickets SET status=$2, category=$3, description=$4, location=$5, priority_score=$6,
            manual_boost=$7, is_emergency=$8, sla_deadline=$9, department_id=$10, officer_id=$11,
            sub_assignee_id=$12, approval_approved=$13, approval_comment=$14, approval_actor_id=$15,
            approval_at=$16, note_body=$17, note_visibility=$18, note_updated_at=$19,
            created_at=$20, updated_at=$21, version=$22
        WHERE id=$1 AND version=$23`
	args := append(ticketArgs(ticket), expectedVersion)
	cmd, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	if err := s.appendChildren(ctx, tx, ticket); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ListOpen(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
        SELECT id, status, category, description, location, priority_score, manual_boost,
               is_emergency, sla_deadline, department_id, officer_id, sub_assignee_id,
               approval_approved, approval_comment, approval_actor_id, approval_at,
               note_body, note_visibility, note_updated_at, created_at, updated_at, version
        FROM tickets WHERE status NOT IN ($1, $2) ORDER BY id`
	rows, err := s.pool.Query(ctx, query, domain.TicketStatusClosed, domain.TicketStatusRejected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		if err := s.loadChildren(ctx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// appendChildren writes history and evidence rows. History is append-only
// so existing entries are skipped on conflict; evidence rows may flip the
// invalidated flag.
func (s *PostgresStore) appendChildren(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error {
	const historyQuery = `
        INSERT INTO ticket_history (id, ticket_id, seq, from_status, to_status, actor_id, actor_role, note, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (id) DO NOTHING`
	for i, entry := range ticket.History {
		if _, err := tx.Exec(ctx, historyQuery,
			entry.ID, ticket.ID, i, entry.FromStatus, entry.ToStatus,
			entry.ActorID, entry.ActorRole, entry.Note, entry.Timestamp,
		); err != nil {
			return err
		}
	}
	const evidenceQuery = `
        INSERT INTO ticket_evidence (id, ticket_id, seq, url, photo_type, caption, invalidated, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (id) DO UPDATE SET invalidated = EXCLUDED.invalidated`
	for i, item := range ticket.Evidence {
		if _, err := tx.Exec(ctx, evidenceQuery,
			item.ID, ticket.ID, i, item.URL, item.PhotoType,
			item.Caption, item.Invalidated, item.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) loadChildren(ctx context.Context, ticket *domain.Ticket) error {
	const historyQuery = `
        SELECT id, from_status, to_status, actor_id, actor_role, note, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY seq ASC`
	rows, err := s.pool.Query(ctx, historyQuery, ticket.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(&entry.ID, &entry.FromStatus, &entry.ToStatus,
			&entry.ActorID, &entry.ActorRole, &entry.Note, &entry.Timestamp); err != nil {
			return err
		}
		ticket.History = append(ticket.History, entry)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	const evidenceQuery = `
        SELECT id, url, photo_type, caption, invalidated, created_at
        FROM ticket_evidence WHERE ticket_id=$1 ORDER BY seq ASC`
	evidenceRows, err := s.pool.Query(ctx, evidenceQuery, ticket.ID)
	if err != nil {
		return err
	}
	defer evidenceRows.Close()
	for evidenceRows.Next() {
		var item domain.EvidenceItem
		if err := evidenceRows.Scan(&item.ID, &item.URL, &item.PhotoType,
			&item.Caption, &item.Invalidated, &item.CreatedAt); err != nil {
			return err
		}
		ticket.Evidence = append(ticket.Evidence, item)
	}
	return evidenceRows.Err()
}

func ticketArgs(ticket *domain.Ticket) []any {
	var departmentID, officerID *string
	if ticket.Assignment != nil {
		departmentID = &ticket.Assignment.DepartmentID
		officerID = ticket.Assignment.OfficerID
	}
	var approvalApproved *bool
	var approvalComment, approvalActorID *string
	var approvalAt *time.Time
	if ticket.Approval != nil {
		approvalApproved = &ticket.Approval.Approved
		approvalComment = &ticket.Approval.Comment
		approvalActorID = &ticket.Approval.ActorID
		approvalAt = &ticket.Approval.Timestamp
	}
	var noteBody, noteVisibility *string
	var noteUpdatedAt *time.Time
	if ticket.InternalNote != nil {
		noteBody = &ticket.InternalNote.Body
		visibility := string(ticket.InternalNote.Visibility)
		noteVisibility = &visibility
		noteUpdatedAt = &ticket.InternalNote.UpdatedAt
	}
	return []any{
		ticket.ID, ticket.Status, ticket.Category, ticket.Description, ticket.Location,
		ticket.PriorityScore, ticket.ManualBoost, ticket.IsEmergency, ticket.SLADeadline,
		departmentID, officerID, ticket.SubAssigneeID,
		approvalApproved, approvalComment, approvalActorID, approvalAt,
		noteBody, noteVisibility, noteUpdatedAt,
		ticket.CreatedAt, ticket.UpdatedAt, ticket.Version,
	}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var departmentID, officerID *string
	var approvalApproved *bool
	var approvalComment, approvalActorID *string
	var approvalAt *time.Time
	var noteBody, noteVisibility *string
	var noteUpdatedAt *time.Time

	if err := row.Scan(
		&ticket.ID, &ticket.Status, &ticket.Category, &ticket.Description, &ticket.Location,
		&ticket.PriorityScore, &ticket.ManualBoost, &ticket.IsEmergency, &ticket.SLADeadline,
		&departmentID, &officerID, &ticket.SubAssigneeID,
		&approvalApproved, &approvalComment, &approvalActorID, &approvalAt,
		&noteBody, &noteVisibility, &noteUpdatedAt,
		&ticket.CreatedAt, &ticket.UpdatedAt, &ticket.Version,
	); err != nil {
		return nil, err
	}
	if departmentID != nil {
		ticket.Assignment = &domain.Assignment{DepartmentID: *departmentID, OfficerID: officerID}
	}
	if approvalApproved != nil {
		ticket.Approval = &domain.Approval{Approved: *approvalApproved}
		if approvalComment != nil {
			ticket.Approval.Comment = *approvalComment
		}
		if approvalActorID != nil {
			ticket.Approval.ActorID = *approvalActorID
		}
		if approvalAt != nil {
			ticket.Approval.Timestamp = *approvalAt
		}
	}
	if noteBody != nil {
		ticket.InternalNote = &domain.InternalNote{Body: *noteBody}
		if noteVisibility != nil {
			ticket.InternalNote.Visibility = domain.NoteVisibility(*noteVisibility)
		}
		if noteUpdatedAt != nil {
			ticket.InternalNote.UpdatedAt = *noteUpdatedAt
		}
	}
	return &ticket, nil
}
