// Package lifecycle orchestrates audit creation, completion, and the batch
// reconciliation that keeps every company's schedule aligned with its
// current tier.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cadencehq/audit-engine/internal/metrics"
	"github.com/cadencehq/audit-engine/internal/model"
	"github.com/cadencehq/audit-engine/internal/repository"
	"github.com/cadencehq/audit-engine/internal/schedule"
	"github.com/cadencehq/audit-engine/internal/util"
	"go.uber.org/zap"
)

var (
	// ErrNotFound means a referenced company or audit id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrNoEligibleAssignee means the assignee fallback chain was exhausted
	// without finding any active user. Callers must fail the operation
	// rather than write a dangling assignee reference.
	ErrNoEligibleAssignee = errors.New("no eligible assignee")
)

// Manager owns the audit lifecycle. All batch methods iterate their target
// set sequentially and isolate per-record failures.
type Manager struct {
	companies repository.CompaniesRepository
	audits    repository.AuditsRepository
	users     repository.UsersRepository
	now       func() time.Time
	newID     func() string
	log       *zap.Logger
}

func NewManager(
	companies repository.CompaniesRepository,
	audits repository.AuditsRepository,
	users repository.UsersRepository,
	log *zap.Logger,
) *Manager {
	return &Manager{
		companies: companies,
		audits:    audits,
		users:     users,
		now:       time.Now,
		newID:     util.New,
		log:       log,
	}
}

// SyncResult aggregates one reconciliation run.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// CreateAudit persists a new SCHEDULED audit for the company. The scheduled
// date is snapped forward to the audit weekday so the fixed-weekday
// invariant holds no matter what the caller passes.
func (m *Manager) CreateAudit(ctx context.Context, companyID int64, scheduledDate time.Time, assignedTo int64, notes string) (*model.Audit, error) {
	company, err := m.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("get company %d: %w", companyID, err)
	}
	if company == nil {
		return nil, fmt.Errorf("company %d: %w", companyID, ErrNotFound)
	}

	a := model.Audit{
		ID:            m.newID(),
		CompanyID:     companyID,
		ScheduledDate: schedule.AlignToAuditWeekday(scheduledDate),
		AssignedTo:    assignedTo,
		Status:        model.StatusScheduled,
		Notes:         notes,
	}
	if err := m.audits.Insert(ctx, nil, a); err != nil {
		return nil, fmt.Errorf("insert audit: %w", err)
	}
	metrics.AuditsTotal.WithLabelValues("created", company.Tier.String()).Inc()
	return &a, nil
}

// CompleteAudit marks the audit COMPLETED with completedDate = now and
// chains the next audit for the same company from its tier as of right
// now, keeping the same assignee. Completion is accepted from SCHEDULED or
// OVERDUE; an already COMPLETED audit is returned unchanged without
// chaining. Returns (nil, nil) when the audit id does not resolve.
func (m *Manager) CompleteAudit(ctx context.Context, auditID string, notes string) (*model.Audit, error) {
	a, err := m.audits.GetByID(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("get audit %s: %w", auditID, err)
	}
	if a == nil {
		return nil, nil
	}
	if a.Status == model.StatusCompleted {
		return a, nil
	}

	completedAt := m.now()
	if err := m.audits.MarkCompleted(ctx, nil, a.ID, completedAt, notes); err != nil {
		return nil, fmt.Errorf("complete audit %s: %w", a.ID, err)
	}
	a.Status = model.StatusCompleted
	a.CompletedDate = &completedAt
	if notes != "" {
		a.Notes = notes
	}
	metrics.AuditsTotal.WithLabelValues("completed", "").Inc()

	if _, err := m.scheduleNextAudit(ctx, a.CompanyID, a.AssignedTo); err != nil {
		// The completion itself stands; the reconciliation pass will
		// create the missing follow-up.
		m.log.Error("chaining next audit failed",
			zap.String("audit_id", a.ID),
			zap.Int64("company_id", a.CompanyID),
			zap.Error(err))
	}

	return a, nil
}

// scheduleNextAudit creates the follow-up audit using the company's
// current tier, read at completion time rather than cached from creation.
func (m *Manager) scheduleNextAudit(ctx context.Context, companyID, assignedTo int64) (*model.Audit, error) {
	company, err := m.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("get company %d: %w", companyID, err)
	}
	if company == nil {
		return nil, fmt.Errorf("company %d: %w", companyID, ErrNotFound)
	}

	next := schedule.NextAuditDate(company.Tier, m.now())
	return m.CreateAudit(ctx, companyID, next, assignedTo, "")
}

// ScheduleInitialAudits creates the first audit for a freshly onboarded
// company, dated from its tier and today.
func (m *Manager) ScheduleInitialAudits(ctx context.Context, companyID, assignedTo int64) (*model.Audit, error) {
	company, err := m.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("get company %d: %w", companyID, err)
	}
	if company == nil {
		return nil, fmt.Errorf("company %d: %w", companyID, ErrNotFound)
	}

	first := schedule.NextAuditDate(company.Tier, m.now())
	return m.CreateAudit(ctx, companyID, first, assignedTo, "initial schedule")
}

// ScheduleAuditForNewCompany is ScheduleInitialAudits with the assignee
// resolved through the fallback chain instead of required up front.
func (m *Manager) ScheduleAuditForNewCompany(ctx context.Context, companyID, createdBy int64) (*model.Audit, error) {
	assignee, err := m.FindSuitableAssignee(ctx, createdBy)
	if err != nil {
		return nil, err
	}
	return m.ScheduleInitialAudits(ctx, companyID, assignee)
}

// FindSuitableAssignee resolves who an audit should be assigned to:
// the given default id if it resolves to an active user, then any CEO,
// then any MANAGER, then any active user at all. When every option is
// exhausted it returns ErrNoEligibleAssignee instead of echoing back the
// unresolved default.
func (m *Manager) FindSuitableAssignee(ctx context.Context, defaultUserID int64) (int64, error) {
	if defaultUserID > 0 {
		u, err := m.users.GetByID(ctx, defaultUserID)
		if err != nil {
			return 0, fmt.Errorf("get user %d: %w", defaultUserID, err)
		}
		if u.Active() {
			return u.ID, nil
		}
	}

	for _, role := range []model.Role{model.RoleCEO, model.RoleManager} {
		u, err := m.users.FirstByRole(ctx, role)
		if err != nil {
			return 0, fmt.Errorf("list users by role %s: %w", role, err)
		}
		if u != nil {
			return u.ID, nil
		}
	}

	u, err := m.users.First(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	if u != nil {
		return u.ID, nil
	}

	return 0, ErrNoEligibleAssignee
}

// SyncAllSchedules is the reconciliation pass: every company ends up with
// exactly one SCHEDULED audit dated per its current tier. Companies with
// none get one created; companies whose pending audit has drifted past the
// tolerance get it moved in place. Per-company failures are logged and do
// not abort the batch.
func (m *Manager) SyncAllSchedules(ctx context.Context) (SyncResult, error) {
	companies, err := m.companies.List(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	var res SyncResult
	now := m.now()
	for _, c := range companies {
		pending, err := m.audits.ListByCompanyAndStatus(ctx, c.ID, model.StatusScheduled)
		if err != nil {
			m.log.Error("list scheduled audits failed",
				zap.Int64("company_id", c.ID), zap.Error(err))
			continue
		}

		if len(pending) == 0 {
			assignee, err := m.FindSuitableAssignee(ctx, 0)
			if err != nil {
				m.log.Error("assignee resolution failed",
					zap.Int64("company_id", c.ID), zap.Error(err))
				continue
			}
			next := schedule.NextAuditDate(c.Tier, now)
			a := model.Audit{
				ID:            m.newID(),
				CompanyID:     c.ID,
				ScheduledDate: next,
				AssignedTo:    assignee,
				Status:        model.StatusScheduled,
			}
			if err := m.audits.Insert(ctx, nil, a); err != nil {
				m.log.Error("create audit failed",
					zap.Int64("company_id", c.ID), zap.Error(err))
				continue
			}
			metrics.AuditsTotal.WithLabelValues("created", c.Tier.String()).Inc()
			res.Created++
			continue
		}

		// Reconcile the earliest pending audit. More than one pending is
		// drift the engine does not lock against; surplus rows stay until
		// an operator resolves them.
		a := pending[0]
		if len(pending) > 1 {
			m.log.Warn("company has multiple scheduled audits",
				zap.Int64("company_id", c.ID),
				zap.Int("count", len(pending)))
		}

		expected := schedule.NextAuditDate(c.Tier, now)
		if !schedule.ShouldReschedule(expected, a.ScheduledDate) {
			continue
		}
		if err := m.audits.UpdateScheduledDate(ctx, nil, a.ID, expected); err != nil {
			m.log.Error("reschedule failed",
				zap.String("audit_id", a.ID),
				zap.Int64("company_id", c.ID),
				zap.Error(err))
			continue
		}
		metrics.AuditsTotal.WithLabelValues("rescheduled", c.Tier.String()).Inc()
		res.Updated++
	}
	return res, nil
}

// RemoveOrphanedAudits deletes audits whose owning company no longer
// exists. This is the only path that deletes audit rows.
func (m *Manager) RemoveOrphanedAudits(ctx context.Context) (int, error) {
	orphans, err := m.audits.ListOrphaned(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, a := range orphans {
		if err := m.audits.Delete(ctx, nil, a.ID); err != nil {
			m.log.Error("orphan delete failed",
				zap.String("audit_id", a.ID),
				zap.Int64("company_id", a.CompanyID),
				zap.Error(err))
			continue
		}
		metrics.AuditsTotal.WithLabelValues("deleted", "").Inc()
		removed++
	}
	return removed, nil
}
