package application

import (
	"math"
	"time"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/catalog"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/ports"
)

// ComputeSummary derives the aggregate compliance rollup for a user from the
// template that applies to their current (role, tier) and the matching
// records. Requirements without an active record count as pending; completion
// percentage covers mandatory requirements only, rounded to one decimal.
func ComputeSummary(
	userID string,
	role entities.Role,
	tier entities.Tier,
	defs []catalog.RequirementDefinition,
	records []entities.ComplianceRecord,
	now time.Time,
) ports.ComplianceSummary {
	byRequirement := make(map[string]entities.ComplianceRecord, len(records))
	for _, record := range records {
		if record.IsActive() {
			byRequirement[record.RequirementID] = record
		}
	}

	summary := ports.ComplianceSummary{
		UserID:       userID,
		Role:         role,
		Tier:         tier,
		CalculatedAt: now,
	}

	for _, def := range defs {
		status := entities.CompliancePending
		if record, ok := byRequirement[def.ID]; ok {
			status = record.ComplianceStatus
		}

		summary.TotalActive++
		switch status {
		case entities.ComplianceCompliant:
			summary.Compliant++
		case entities.ComplianceNonCompliant:
			summary.NonCompliant++
		case entities.ComplianceWarning:
			summary.Warning++
		default:
			summary.Pending++
		}

		if def.Mandatory {
			summary.MandatoryTotal++
			if status == entities.ComplianceCompliant {
				summary.MandatoryCompliant++
			}
		}
	}

	if summary.MandatoryTotal == 0 {
		summary.CompletionPercentage = 100
		return summary
	}
	raw := float64(summary.MandatoryCompliant) / float64(summary.MandatoryTotal) * 100
	summary.CompletionPercentage = math.Round(raw*10) / 10
	return summary
}
