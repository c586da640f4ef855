package services

import (
	"testing"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
)

func TestEvaluateTierAdvancementBasicThreshold(t *testing.T) {
	for _, pct := range []float64{0, 33.3, 66.7, 89.9, 90, 95, 100} {
		decision := EvaluateTierAdvancement(entities.TierBasic, pct)
		wantEligible := pct >= 90
		if decision.Eligible != wantEligible {
			t.Fatalf("basic at %.1f%%: eligible = %v, want %v", pct, decision.Eligible, wantEligible)
		}
		if wantEligible {
			if decision.NextTier == nil || *decision.NextTier != entities.TierRobust {
				t.Fatalf("basic at %.1f%%: expected robust next tier, got %v", pct, decision.NextTier)
			}
		} else if decision.NextTier != nil {
			t.Fatalf("basic at %.1f%%: expected nil next tier, got %s", pct, *decision.NextTier)
		}
		if decision.RequiredPercentage != AdvancementThreshold {
			t.Fatalf("required percentage = %.1f, want %.1f", decision.RequiredPercentage, AdvancementThreshold)
		}
	}
}

func TestEvaluateTierAdvancementRobustNeverAdvances(t *testing.T) {
	for _, pct := range []float64{0, 50, 90, 100} {
		decision := EvaluateTierAdvancement(entities.TierRobust, pct)
		if decision.Eligible {
			t.Fatalf("robust at %.1f%%: expected ineligible", pct)
		}
		if decision.NextTier != nil {
			t.Fatalf("robust at %.1f%%: expected nil next tier", pct)
		}
	}
}
