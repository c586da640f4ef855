package catalog

import "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"

type defaultTemplate struct {
	role         entities.Role
	tier         entities.Tier
	requirements []RequirementDefinition
}

// defaultTemplates is the built-in catalog. Every (role, tier) pair the system
// recognizes has exactly one template here; operators may replace individual
// templates through the YAML catalog override.
func defaultTemplates() []defaultTemplate {
	return []defaultTemplate{
		{
			role: entities.RoleIT,
			tier: entities.TierBasic,
			requirements: []RequirementDefinition{
				{
					ID: "it-basic-orientation", Name: "Instructor Orientation Course",
					Category: "training", RequirementType: "course_completion",
					Mandatory: true, PointValue: 10, DueDays: 30,
					ValidationRules: []string{"completion_certificate"},
				},
				{
					ID: "it-basic-teaching-log", Name: "Supervised Teaching Log",
					Category: "documentation", RequirementType: "document_upload",
					Mandatory: true, PointValue: 15, DueDays: 60,
					ValidationRules: []string{"supervisor_signature", "min_hours:8"},
				},
				{
					ID: "it-basic-first-aid", Name: "Standard First Aid Certificate",
					Category: "certification", RequirementType: "document_upload",
					Mandatory: true, PointValue: 10, DueDays: 90,
					ValidationRules: []string{"not_expired", "issuer_recognized"},
				},
				{
					ID: "it-basic-mentorship", Name: "Mentorship Session Notes",
					Category: "training", RequirementType: "attestation",
					Mandatory: false, PointValue: 5, DueDays: 120,
				},
			},
		},
		{
			role: entities.RoleIT,
			tier: entities.TierRobust,
			requirements: []RequirementDefinition{
				{
					ID: "it-robust-orientation", Name: "Instructor Orientation Course",
					Category: "training", RequirementType: "course_completion",
					Mandatory: true, PointValue: 10, DueDays: 30,
					ValidationRules: []string{"completion_certificate"},
				},
				{
					ID: "it-robust-teaching-log", Name: "Supervised Teaching Log",
					Category: "documentation", RequirementType: "document_upload",
					Mandatory: true, PointValue: 15, DueDays: 60,
					ValidationRules: []string{"supervisor_signature", "min_hours:16"},
				},
				{
					ID: "it-robust-background-check", Name: "Criminal Record Check",
					Category: "background_check", RequirementType: "third_party_check",
					Mandatory: true, PointValue: 20, DueDays: 45,
					ValidationRules: []string{"issued_within_days:365"},
				},
				{
					ID: "it-robust-skills-assessment", Name: "Practical Skills Assessment",
					Category: "assessment", RequirementType: "exam",
					Mandatory: true, PointValue: 25, DueDays: 90,
					ValidationRules: []string{"passing_score:80"},
				},
			},
		},
		{
			role: entities.RoleIP,
			tier: entities.TierBasic,
			requirements: []RequirementDefinition{
				{
					ID: "ip-basic-certification", Name: "Provisional Instructor Certificate",
					Category: "certification", RequirementType: "document_upload",
					Mandatory: true, PointValue: 20, DueDays: 30,
					ValidationRules: []string{"not_expired"},
				},
				{
					ID: "ip-basic-teaching-hours", Name: "Independent Teaching Hours",
					Category: "documentation", RequirementType: "document_upload",
					Mandatory: true, PointValue: 15, DueDays: 90,
					ValidationRules: []string{"min_hours:24"},
				},
				{
					ID: "ip-basic-evaluation", Name: "Classroom Evaluation Report",
					Category: "assessment", RequirementType: "document_upload",
					Mandatory: true, PointValue: 15, DueDays: 120,
					ValidationRules: []string{"evaluator_signature"},
				},
			},
		},
		{
			role: entities.RoleIP,
			tier: entities.TierRobust,
			requirements: []RequirementDefinition{
				{
					ID: "ip-robust-certification", Name: "Provisional Instructor Certificate",
					Category: "certification", RequirementType: "document_upload",
					Mandatory: true, PointValue: 20, DueDays: 30,
					ValidationRules: []string{"not_expired"},
				},
				{
					ID: "ip-robust-teaching-hours", Name: "Independent Teaching Hours",
					Category: "documentation", RequirementType: "document_upload",
					Mandatory: true, PointValue: 15, DueDays: 90,
					ValidationRules: []string{"min_hours:40"},
				},
				{
					ID: "ip-robust-background-check", Name: "Criminal Record Check",
					Category: "background_check", RequirementType: "third_party_check",
					Mandatory: true, PointValue: 20, DueDays: 45,
					ValidationRules: []string{"issued_within_days:365"},
				},
				{
					ID: "ip-robust-recert-exam", Name: "Recertification Exam",
					Category: "assessment", RequirementType: "exam",
					Mandatory: true, PointValue: 25, DueDays: 180,
					ValidationRules: []string{"passing_score:80"},
				},
				{
					ID: "ip-robust-peer-review", Name: "Peer Teaching Review",
					Category: "assessment", RequirementType: "attestation",
					Mandatory: false, PointValue: 10, DueDays: 180,
				},
			},
		},
		{
			role: entities.RoleIC,
			tier: entities.TierBasic,
			requirements: []RequirementDefinition{
				{
					ID: "ic-basic-certification", Name: "Certified Instructor Credential",
					Category: "certification", RequirementType: "document_upload",
					Mandatory: true, PointValue: 25, DueDays: 30,
					ValidationRules: []string{"not_expired"},
				},
				{
					ID: "ic-basic-ce-credits", Name: "Continuing Education Credits",
					Category: "training", RequirementType: "document_upload",
					Mandatory: true, PointValue: 15, DueDays: 180,
					ValidationRules: []string{"min_credits:6"},
				},
				{
					ID: "ic-basic-insurance", Name: "Professional Liability Insurance",
					Category: "insurance", RequirementType: "document_upload",
					Mandatory: true, PointValue: 10, DueDays: 30,
					ValidationRules: []string{"not_expired", "min_coverage:1000000"},
				},
			},
		},
		{
			role: entities.RoleIC,
			tier: entities.TierRobust,
			requirements: []RequirementDefinition{
				{
					ID: "ic-robust-certification", Name: "Certified Instructor Credential",
					Category: "certification", RequirementType: "document_upload",
					Mandatory: true, PointValue: 25, DueDays: 30,
					ValidationRules: []string{"not_expired"},
				},
				{
					ID: "ic-robust-ce-credits", Name: "Continuing Education Credits",
					Category: "training", RequirementType: "document_upload",
					Mandatory: true, PointValue: 15, DueDays: 180,
					ValidationRules: []string{"min_credits:12"},
				},
				{
					ID: "ic-robust-insurance", Name: "Professional Liability Insurance",
					Category: "insurance", RequirementType: "document_upload",
					Mandatory: true, PointValue: 10, DueDays: 30,
					ValidationRules: []string{"not_expired", "min_coverage:2000000"},
				},
				{
					ID: "ic-robust-background-check", Name: "Criminal Record Check",
					Category: "background_check", RequirementType: "third_party_check",
					Mandatory: true, PointValue: 20, DueDays: 45,
					ValidationRules: []string{"issued_within_days:365"},
				},
				{
					ID: "ic-robust-mentor-attestation", Name: "Trainee Mentorship Attestation",
					Category: "documentation", RequirementType: "attestation",
					Mandatory: false, PointValue: 10, DueDays: 365,
				},
			},
		},
		{
			role: entities.RoleAP,
			tier: entities.TierBasic,
			requirements: []RequirementDefinition{
				{
					ID: "ap-basic-agreement", Name: "Provider Agreement",
					Category: "documentation", RequirementType: "document_upload",
					Mandatory: true, PointValue: 20, DueDays: 14,
					ValidationRules: []string{"countersigned"},
				},
				{
					ID: "ap-basic-facility-audit", Name: "Facility Safety Audit",
					Category: "assessment", RequirementType: "document_upload",
					Mandatory: true, PointValue: 20, DueDays: 90,
					ValidationRules: []string{"auditor_accredited"},
				},
				{
					ID: "ap-basic-insurance", Name: "Commercial Liability Insurance",
					Category: "insurance", RequirementType: "document_upload",
					Mandatory: true, PointValue: 15, DueDays: 30,
					ValidationRules: []string{"not_expired", "min_coverage:2000000"},
				},
			},
		},
		{
			role: entities.RoleAP,
			tier: entities.TierRobust,
			requirements: []RequirementDefinition{
				{
					ID: "ap-robust-agreement", Name: "Provider Agreement",
					Category: "documentation", RequirementType: "document_upload",
					Mandatory: true, PointValue: 20, DueDays: 14,
					ValidationRules: []string{"countersigned"},
				},
				{
					ID: "ap-robust-facility-audit", Name: "Facility Safety Audit",
					Category: "assessment", RequirementType: "document_upload",
					Mandatory: true, PointValue: 20, DueDays: 90,
					ValidationRules: []string{"auditor_accredited"},
				},
				{
					ID: "ap-robust-insurance", Name: "Commercial Liability Insurance",
					Category: "insurance", RequirementType: "document_upload",
					Mandatory: true, PointValue: 15, DueDays: 30,
					ValidationRules: []string{"not_expired", "min_coverage:5000000"},
				},
				{
					ID: "ap-robust-quality-program", Name: "Quality Assurance Program",
					Category: "documentation", RequirementType: "document_upload",
					Mandatory: true, PointValue: 20, DueDays: 120,
					ValidationRules: []string{"program_approved"},
				},
				{
					ID: "ap-robust-instructor-roster", Name: "Certified Instructor Roster",
					Category: "documentation", RequirementType: "attestation",
					Mandatory: false, PointValue: 5, DueDays: 60,
				},
			},
		},
	}
}
