package entities

import "strings"

type Tier string

const (
	TierBasic  Tier = "basic"
	TierRobust Tier = "robust"
)

func ParseTier(raw string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(TierBasic):
		return TierBasic, true
	case string(TierRobust):
		return TierRobust, true
	default:
		return "", false
	}
}

func IsValidTier(tier Tier) bool {
	switch tier {
	case TierBasic, TierRobust:
		return true
	default:
		return false
	}
}
