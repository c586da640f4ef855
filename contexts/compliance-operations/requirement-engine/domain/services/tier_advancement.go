package services

import (
	"fmt"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
)

// AdvancementThreshold is the mandatory-requirement completion percentage at
// which a basic-tier user becomes eligible for robust.
const AdvancementThreshold = 90.0

// AdvancementDecision is a read-only projection; it never mutates state.
type AdvancementDecision struct {
	CurrentTier        entities.Tier
	Eligible           bool
	NextTier           *entities.Tier
	RequiredPercentage float64
	Message            string
}

// EvaluateTierAdvancement decides whether a user at the given tier and
// completion percentage may advance. Only basic -> robust exists; robust has no
// next tier.
func EvaluateTierAdvancement(tier entities.Tier, completionPercentage float64) AdvancementDecision {
	decision := AdvancementDecision{
		CurrentTier:        tier,
		RequiredPercentage: AdvancementThreshold,
	}

	if tier != entities.TierBasic {
		decision.Message = "robust is the highest tier; no further advancement"
		return decision
	}

	if completionPercentage >= AdvancementThreshold {
		next := entities.TierRobust
		decision.Eligible = true
		decision.NextTier = &next
		decision.Message = "eligible for advancement to robust tier"
		return decision
	}

	decision.Message = fmt.Sprintf(
		"%.1f%% mandatory completion; %.0f%% required for robust tier",
		completionPercentage, AdvancementThreshold,
	)
	return decision
}
