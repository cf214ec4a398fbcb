package model

import "time"

// ReminderEnvelope is the payload published to Kafka (via Debezium outbox SMT)
// for each requested reminder notification.
type ReminderEnvelope struct {
	AuditID      string    `json:"audit_id"`
	UserID       int64     `json:"user_id"` // assignee
	CompanyID    int64     `json:"company_id"`
	Kind         string    `json:"kind"` // e.g. "audit_overdue"
	ScheduledFor time.Time `json:"scheduled_for"`
}
