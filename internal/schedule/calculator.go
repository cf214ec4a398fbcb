// Package schedule holds the cadence-to-date math. Everything here is
// pure: no I/O, no clocks.
package schedule

import (
	"time"

	"github.com/cadencehq/audit-engine/internal/model"
)

// AuditWeekday is the designated fixed weekday every audit date must fall
// on; staff plan their review days around it.
const AuditWeekday = time.Wednesday

// RescheduleTolerance is how far an existing audit may drift from its
// tier-derived date before the reconciliation pass moves it. Keeps small
// clock/timezone skew from churning schedules.
const RescheduleTolerance = 3 * 24 * time.Hour

// NextAuditDate returns the next audit date for a tier counted from the
// given reference date: TIER_2 weekly, TIER_3 monthly, TIER_1 (and any
// unrecognized tier, as the safe default) quarterly. The result is snapped
// forward to AuditWeekday; a date already on it stays put.
func NextAuditDate(t model.Tier, from time.Time) time.Time {
	var d time.Time
	switch t {
	case model.TierTwo:
		d = from.AddDate(0, 0, 7)
	case model.TierThree:
		d = from.AddDate(0, 1, 0)
	default:
		d = from.AddDate(0, 3, 0)
	}
	return AlignToAuditWeekday(d)
}

// AlignToAuditWeekday advances d to the nearest occurrence of AuditWeekday
// on or after d.
func AlignToAuditWeekday(d time.Time) time.Time {
	delta := (int(AuditWeekday) - int(d.Weekday()) + 7) % 7
	if delta == 0 {
		return d
	}
	return d.AddDate(0, 0, delta)
}

// ShouldReschedule reports whether an audit scheduled at current has
// drifted from its expected tier-derived date by more than the tolerance,
// in either direction.
func ShouldReschedule(expected, current time.Time) bool {
	diff := expected.Sub(current)
	if diff < 0 {
		diff = -diff
	}
	return diff > RescheduleTolerance
}
