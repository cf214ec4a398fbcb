package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTier(t *testing.T) {
	cases := []struct {
		in   string
		want Tier
		ok   bool
	}{
		{"TIER_1", TierOne, true},
		{"tier_2", TierTwo, true},
		{" TIER_3 ", TierThree, true},
		{"TIER_4", TierThree, false},
		{"", TierThree, false},
	}
	for _, tc := range cases {
		got, ok := ParseTier(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
}

func TestParseAuditStatus(t *testing.T) {
	cases := []struct {
		in   string
		want AuditStatus
		ok   bool
	}{
		{"SCHEDULED", StatusScheduled, true},
		{"completed", StatusCompleted, true},
		{"Overdue", StatusOverdue, true},
		{"CANCELLED", StatusScheduled, false},
	}
	for _, tc := range cases {
		got, ok := ParseAuditStatus(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
}

func TestUserActive(t *testing.T) {
	var nilUser *User
	assert.False(t, nilUser.Active())
	assert.True(t, (&User{Status: "active"}).Active())
	assert.False(t, (&User{Status: "suspended"}).Active())
}
