package schedule

import (
	"testing"
	"time"

	"github.com/cadencehq/audit-engine/internal/model"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextAuditDateCadence(t *testing.T) {
	// 2025-01-01 is a Wednesday
	jan1 := date(2025, time.January, 1)

	testCases := []struct {
		name string
		tier model.Tier
		from time.Time
		want time.Time
	}{
		{
			name: "tier 2 weekly from a wednesday stays wednesday",
			tier: model.TierTwo,
			from: jan1,
			want: date(2025, time.January, 8),
		},
		{
			name: "tier 3 monthly from jan 1 aligns on/after feb 1",
			tier: model.TierThree,
			from: jan1,
			// Feb 1 2025 is a Saturday; next Wednesday is Feb 5
			want: date(2025, time.February, 5),
		},
		{
			name: "tier 1 quarterly from jan 1 aligns on/after apr 1",
			tier: model.TierOne,
			from: jan1,
			// Apr 1 2025 is a Tuesday; next Wednesday is Apr 2
			want: date(2025, time.April, 2),
		},
		{
			name: "unrecognized tier falls back to quarterly",
			tier: model.Tier("TIER_9"),
			from: jan1,
			want: date(2025, time.April, 2),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextAuditDate(tc.tier, tc.from)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, AuditWeekday, got.Weekday())
		})
	}
}

func TestNextAuditDateAlwaysOnAuditWeekday(t *testing.T) {
	base := date(2025, time.March, 3) // a Monday
	tiers := []model.Tier{model.TierOne, model.TierTwo, model.TierThree}

	// full sweep of reference weekdays
	for offset := 0; offset < 7; offset++ {
		from := base.AddDate(0, 0, offset)
		for _, tier := range tiers {
			got := NextAuditDate(tier, from)
			assert.Equal(t, AuditWeekday, got.Weekday(),
				"tier %s from %s (%s)", tier, from.Format("2006-01-02"), from.Weekday())
			assert.True(t, got.After(from), "next date must be in the future")
		}
	}
}

func TestAlignToAuditWeekday(t *testing.T) {
	wed := date(2025, time.January, 1)
	assert.Equal(t, wed, AlignToAuditWeekday(wed), "a wednesday stays put")

	mon := date(2025, time.January, 6)
	assert.Equal(t, date(2025, time.January, 8), AlignToAuditWeekday(mon), "earlier in the week advances within the week")

	thu := date(2025, time.January, 2)
	assert.Equal(t, date(2025, time.January, 8), AlignToAuditWeekday(thu), "later in the week advances to next week")
}

func TestShouldReschedule(t *testing.T) {
	expected := date(2025, time.June, 4)

	testCases := []struct {
		name    string
		current time.Time
		want    bool
	}{
		{"same date", expected, false},
		{"three days late", expected.AddDate(0, 0, -3), false},
		{"three days early", expected.AddDate(0, 0, 3), false},
		{"four days late", expected.AddDate(0, 0, -4), true},
		{"four days early", expected.AddDate(0, 0, 4), true},
		{"ten days off", expected.AddDate(0, 0, 10), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldReschedule(expected, tc.current))
		})
	}
}
