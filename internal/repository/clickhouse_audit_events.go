package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// AuditEvent is one lifecycle transition as materialized in ClickHouse
// (CDC off the MySQL audits table; read-only here).
type AuditEvent struct {
	AuditID       string    `db:"audit_id" json:"audit_id"`
	CompanyID     int64     `db:"company_id" json:"company_id"`
	AssignedTo    int64     `db:"assigned_to" json:"assigned_to"`
	Status        string    `db:"status" json:"status"`
	ScheduledDate time.Time `db:"scheduled_date" json:"scheduled_date"`
	EventTime     time.Time `db:"event_time" json:"event_time"`
}

// CHAuditEventsRepository lists audit lifecycle events from ClickHouse.
type CHAuditEventsRepository interface {
	ListByCompany(ctx context.Context, companyID int64, status string, limit, offset int) ([]AuditEvent, error)
}

type chAuditEventsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHAuditEventsRepository(ch *sqlx.DB) CHAuditEventsRepository {
	return &chAuditEventsRepository{ch: ch}
}

func (r *chAuditEventsRepository) ListByCompany(ctx context.Context, companyID int64, status string, limit, offset int) ([]AuditEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT audit_id, company_id, assigned_to, status, scheduled_date, event_time
		FROM auditeng.audit_events_latest
		WHERE company_id = ?
	`
	args := []any{companyID}

	if status != "" {
		q += " AND status = ?"
		args = append(args, status)
	}

	q += " ORDER BY event_time DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []AuditEvent
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
