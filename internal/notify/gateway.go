package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cadencehq/audit-engine/internal/metrics"
	"github.com/cadencehq/audit-engine/internal/model"
	"github.com/cadencehq/audit-engine/internal/repository"
)

// Kind labels what a reminder is about.
type Kind string

const (
	KindAuditOverdue Kind = "audit_overdue"
	KindAuditDue     Kind = "audit_due"
)

// Request identifies one reminder to be delivered to a user.
type Request struct {
	AuditID      string
	UserID       int64
	CompanyID    int64
	Kind         Kind
	ScheduledFor time.Time
}

// Gateway is the engine's contract with the notification collaborator:
// the request must always be issued; whether it results in delivery is an
// external, independently toggled concern.
type Gateway interface {
	Request(ctx context.Context, r Request) error
}

// OutboxGateway writes reminder requests to the transactional outbox.
// The CDC relay publishes them to the configured Kafka topic, where the
// notifier worker decides on delivery.
type OutboxGateway struct {
	outbox repository.OutboxRepository
	topic  string
}

func NewOutboxGateway(outbox repository.OutboxRepository, topic string) *OutboxGateway {
	if topic == "" {
		topic = "audit.reminders"
	}
	return &OutboxGateway{outbox: outbox, topic: topic}
}

var _ Gateway = (*OutboxGateway)(nil)

func (g *OutboxGateway) Request(ctx context.Context, r Request) error {
	env := model.ReminderEnvelope{
		AuditID:      r.AuditID,
		UserID:       r.UserID,
		CompanyID:    r.CompanyID,
		Kind:         string(r.Kind),
		ScheduledFor: r.ScheduledFor,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal reminder envelope: %w", err)
	}

	if err := g.outbox.Insert(ctx, nil, "audit", r.AuditID, g.topic, payload); err != nil {
		metrics.ReminderRequestsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("insert reminder outbox: %w", err)
	}
	metrics.ReminderRequestsTotal.WithLabelValues("requested").Inc()
	return nil
}
