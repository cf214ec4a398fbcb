// Package overdue flags lapsed SCHEDULED audits and requests reminder
// notifications for their assignees.
package overdue

import (
	"context"
	"time"

	"github.com/cadencehq/audit-engine/internal/metrics"
	"github.com/cadencehq/audit-engine/internal/model"
	"github.com/cadencehq/audit-engine/internal/notify"
	"github.com/cadencehq/audit-engine/internal/repository"
	"go.uber.org/zap"
)

type Processor struct {
	audits  repository.AuditsRepository
	gateway notify.Gateway
	now     func() time.Time
	log     *zap.Logger
}

func NewProcessor(audits repository.AuditsRepository, gateway notify.Gateway, log *zap.Logger) *Processor {
	return &Processor{
		audits:  audits,
		gateway: gateway,
		now:     time.Now,
		log:     log,
	}
}

// FindOverdue returns SCHEDULED audits whose date has passed. COMPLETED
// and already-OVERDUE audits are never candidates.
func (p *Processor) FindOverdue(ctx context.Context) ([]model.Audit, error) {
	return p.audits.ListScheduledBefore(ctx, p.now())
}

// MarkOverdueAudits transitions every lapsed SCHEDULED audit to OVERDUE,
// leaving its scheduledDate untouched. Returns the count transitioned;
// per-audit failures are logged and do not block the rest.
func (p *Processor) MarkOverdueAudits(ctx context.Context) (int, error) {
	lapsed, err := p.FindOverdue(ctx)
	if err != nil {
		return 0, err
	}
	return p.mark(ctx, lapsed), nil
}

func (p *Processor) mark(ctx context.Context, lapsed []model.Audit) int {
	marked := 0
	for _, a := range lapsed {
		if err := p.audits.UpdateStatus(ctx, nil, a.ID, model.StatusOverdue); err != nil {
			p.log.Error("overdue transition failed",
				zap.String("audit_id", a.ID),
				zap.Int64("company_id", a.CompanyID),
				zap.Error(err))
			continue
		}
		metrics.AuditsTotal.WithLabelValues("overdue", "").Inc()
		marked++
	}
	return marked
}

// ProcessOverdueAudits runs the full overdue pass: transition lapsed
// audits and request a reminder for each one, addressed to its assignee.
// The reminder request is issued even when the status write failed, so a
// transient store error never swallows the nudge. Returns the count
// transitioned.
func (p *Processor) ProcessOverdueAudits(ctx context.Context) (int, error) {
	lapsed, err := p.FindOverdue(ctx)
	if err != nil {
		return 0, err
	}

	marked := p.mark(ctx, lapsed)

	for _, a := range lapsed {
		req := notify.Request{
			AuditID:      a.ID,
			UserID:       a.AssignedTo,
			CompanyID:    a.CompanyID,
			Kind:         notify.KindAuditOverdue,
			ScheduledFor: a.ScheduledDate,
		}
		if err := p.gateway.Request(ctx, req); err != nil {
			p.log.Error("reminder request failed",
				zap.String("audit_id", a.ID),
				zap.Int64("user_id", a.AssignedTo),
				zap.Error(err))
		}
	}

	return marked, nil
}
