package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cadencehq/audit-engine/internal/model"
	"github.com/jmoiron/sqlx"
)

// AuditFilter narrows ListByFilter. Zero values mean "any".
type AuditFilter struct {
	CompanyID     int64
	AssignedTo    int64
	Status        model.AuditStatus
	ScheduledFrom time.Time
	ScheduledTo   time.Time
	Limit         int
	Offset        int
}

// AuditsRepository defines persistence for the audits table.
type AuditsRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, a model.Audit) error
	GetByID(ctx context.Context, id string) (*model.Audit, error)
	ListByCompanyAndStatus(ctx context.Context, companyID int64, status model.AuditStatus) ([]model.Audit, error)
	ListByFilter(ctx context.Context, f AuditFilter) ([]model.Audit, error)
	ListScheduledBefore(ctx context.Context, cutoff time.Time) ([]model.Audit, error)
	ListOrphaned(ctx context.Context) ([]model.Audit, error)
	UpdateScheduledDate(ctx context.Context, tx *sqlx.Tx, id string, d time.Time) error
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, id string, status model.AuditStatus) error
	MarkCompleted(ctx context.Context, tx *sqlx.Tx, id string, completedAt time.Time, notes string) error
	Delete(ctx context.Context, tx *sqlx.Tx, id string) error
}

type AuditsRepositoryImpl struct {
	db *sqlx.DB
}

func NewAuditsRepository(db *sqlx.DB) *AuditsRepositoryImpl {
	return &AuditsRepositoryImpl{db: db}
}

var _ AuditsRepository = (*AuditsRepositoryImpl)(nil)

const auditColumns = `id, company_id, scheduled_date, completed_date, assigned_to, status, notes, created_at, updated_at`

// Insert persists a new audit row. Status and dates come from the caller;
// new audits are always SCHEDULED.
func (r *AuditsRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, a model.Audit) error {
	const q = `
		INSERT INTO audits
		    (id, company_id, scheduled_date, assigned_to, status, notes, created_at, updated_at)
		VALUES
		    (?,  ?,          ?,              ?,           ?,      ?,     NOW(),      NOW())
	`
	return withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			a.ID, a.CompanyID, a.ScheduledDate, a.AssignedTo, a.Status.String(), a.Notes,
		)
		return err
	})
}

func (r *AuditsRepositoryImpl) GetByID(ctx context.Context, id string) (*model.Audit, error) {
	var a model.Audit
	err := r.db.GetContext(ctx, &a, `
		SELECT `+auditColumns+`
		  FROM audits
		 WHERE id = ? LIMIT 1
	`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AuditsRepositoryImpl) ListByCompanyAndStatus(ctx context.Context, companyID int64, status model.AuditStatus) ([]model.Audit, error) {
	var rows []model.Audit
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+auditColumns+`
		  FROM audits
		 WHERE company_id = ? AND status = ?
		 ORDER BY scheduled_date
	`, companyID, status.String())
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AuditsRepositoryImpl) ListByFilter(ctx context.Context, f AuditFilter) ([]model.Audit, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := `SELECT ` + auditColumns + ` FROM audits WHERE 1=1`
	args := []any{}

	if f.CompanyID > 0 {
		q += " AND company_id = ?"
		args = append(args, f.CompanyID)
	}
	if f.AssignedTo > 0 {
		q += " AND assigned_to = ?"
		args = append(args, f.AssignedTo)
	}
	if f.Status != "" {
		q += " AND status = ?"
		args = append(args, f.Status.String())
	}
	if !f.ScheduledFrom.IsZero() {
		q += " AND scheduled_date >= ?"
		args = append(args, f.ScheduledFrom)
	}
	if !f.ScheduledTo.IsZero() {
		q += " AND scheduled_date < ?"
		args = append(args, f.ScheduledTo)
	}

	q += " ORDER BY scheduled_date DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	var rows []model.Audit
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListScheduledBefore returns SCHEDULED audits whose date has passed,
// i.e. candidates for the overdue transition.
func (r *AuditsRepositoryImpl) ListScheduledBefore(ctx context.Context, cutoff time.Time) ([]model.Audit, error) {
	var rows []model.Audit
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+auditColumns+`
		  FROM audits
		 WHERE status = ? AND scheduled_date < ?
		 ORDER BY scheduled_date
	`, model.StatusScheduled.String(), cutoff)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListOrphaned returns audits whose owning company no longer exists.
func (r *AuditsRepositoryImpl) ListOrphaned(ctx context.Context) ([]model.Audit, error) {
	var rows []model.Audit
	err := r.db.SelectContext(ctx, &rows, `
		SELECT a.id, a.company_id, a.scheduled_date, a.completed_date, a.assigned_to, a.status, a.notes, a.created_at, a.updated_at
		  FROM audits a
		  LEFT JOIN companies c ON c.id = a.company_id
		 WHERE c.id IS NULL
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AuditsRepositoryImpl) UpdateScheduledDate(ctx context.Context, tx *sqlx.Tx, id string, d time.Time) error {
	const q = `UPDATE audits SET scheduled_date = ?, updated_at = NOW() WHERE id = ?`
	return withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q, d, id)
		return err
	})
}

func (r *AuditsRepositoryImpl) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id string, status model.AuditStatus) error {
	const q = `UPDATE audits SET status = ?, updated_at = NOW() WHERE id = ?`
	return withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q, status.String(), id)
		return err
	})
}

// MarkCompleted sets COMPLETED + completed_date in one statement. Empty
// notes keep whatever was there.
func (r *AuditsRepositoryImpl) MarkCompleted(ctx context.Context, tx *sqlx.Tx, id string, completedAt time.Time, notes string) error {
	const q = `
		UPDATE audits
		   SET status = ?, completed_date = ?, notes = COALESCE(NULLIF(?, ''), notes), updated_at = NOW()
		 WHERE id = ?
	`
	return withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q, model.StatusCompleted.String(), completedAt, notes, id)
		return err
	})
}

func (r *AuditsRepositoryImpl) Delete(ctx context.Context, tx *sqlx.Tx, id string) error {
	const q = `DELETE FROM audits WHERE id = ?`
	return withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q, id)
		return err
	})
}
