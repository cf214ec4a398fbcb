package model

import "strings"

// Tier is a company's cadence classification. It drives how often the
// company is audited: TIER_2 weekly (new customers), TIER_3 monthly
// (low spend), TIER_1 quarterly (high spend).
type Tier string

const (
	TierOne   Tier = "TIER_1"
	TierTwo   Tier = "TIER_2"
	TierThree Tier = "TIER_3"
)

func (t Tier) String() string { return string(t) }

func (t Tier) Valid() bool {
	return t == TierOne || t == TierTwo || t == TierThree
}

// ParseTier normalizes input. Returns (value, true) if valid;
// otherwise (TierThree, false).
func ParseTier(s string) (Tier, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TIER_1":
		return TierOne, true
	case "TIER_2":
		return TierTwo, true
	case "TIER_3":
		return TierThree, true
	default:
		return TierThree, false
	}
}
