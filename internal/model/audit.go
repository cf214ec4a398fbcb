package model

import (
	"strings"
	"time"
)

type AuditStatus string

const (
	StatusScheduled AuditStatus = "SCHEDULED"
	StatusCompleted AuditStatus = "COMPLETED"
	StatusOverdue   AuditStatus = "OVERDUE"
)

func (s AuditStatus) String() string { return string(s) }

func (s AuditStatus) Valid() bool {
	return s == StatusScheduled || s == StatusCompleted || s == StatusOverdue
}

// ParseAuditStatus normalizes input. Returns (value, true) if valid;
// otherwise (StatusScheduled, false).
func ParseAuditStatus(s string) (AuditStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SCHEDULED":
		return StatusScheduled, true
	case "COMPLETED":
		return StatusCompleted, true
	case "OVERDUE":
		return StatusOverdue, true
	default:
		return StatusScheduled, false
	}
}

// Audit is one recurring review record tied to a company.
// Invariants: ScheduledDate falls on the designated audit weekday;
// CompletedDate is set iff Status is COMPLETED.
type Audit struct {
	ID            string      `db:"id"` // ULID
	CompanyID     int64       `db:"company_id"`
	ScheduledDate time.Time   `db:"scheduled_date"`
	CompletedDate *time.Time  `db:"completed_date"`
	AssignedTo    int64       `db:"assigned_to"`
	Status        AuditStatus `db:"status"`
	Notes         string      `db:"notes"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}
