package queries

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/application"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/catalog"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	domainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/services"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/ports"
)

// SummaryView is the read model for a user's compliance standing.
type SummaryView struct {
	User        entities.User                `json:"user"`
	Assignment  entities.TierAssignment      `json:"assignment"`
	Summary     ports.ComplianceSummary      `json:"summary"`
	Advancement services.AdvancementDecision `json:"advancement"`
}

// RequirementView joins a stored compliance record with its template
// definition. Records without a definition in the current template still
// appear so superseded history stays visible.
type RequirementView struct {
	Record          entities.ComplianceRecord `json:"record"`
	RequirementType string                    `json:"requirement_type,omitempty"`
	ValidationRules []string                  `json:"validation_rules,omitempty"`
	InTemplate      bool                      `json:"in_template"`
}

// TierStatusView reports the current assignment and whether the user can
// advance.
type TierStatusView struct {
	Assignment  entities.TierAssignment      `json:"assignment"`
	Advancement services.AdvancementDecision `json:"advancement"`
}

type ComplianceQueries struct {
	Repo         ports.Repository
	Catalog      *catalog.Registry
	Clock        ports.Clock
	StoreTimeout time.Duration
}

func (q ComplianceQueries) Summary(ctx context.Context, userID string) (SummaryView, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return SummaryView{}, domainerrors.ErrInvalidRequest
	}

	user, assignment, records, err := q.load(ctx, userID)
	if err != nil {
		return SummaryView{}, err
	}

	defs, ok := q.Catalog.Template(user.Role, assignment.Tier)
	if !ok {
		return SummaryView{}, domainerrors.ErrTemplateNotFound
	}

	now := q.now()
	summary := application.ComputeSummary(userID, user.Role, assignment.Tier, defs, records, now)
	return SummaryView{
		User:        user,
		Assignment:  assignment,
		Summary:     summary,
		Advancement: services.EvaluateTierAdvancement(assignment.Tier, summary.CompletionPercentage),
	}, nil
}

func (q ComplianceQueries) ListRequirements(ctx context.Context, userID string, includeInactive bool) ([]RequirementView, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidRequest
	}

	user, assignment, records, err := q.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	defsByID := make(map[string]catalog.RequirementDefinition)
	if defs, ok := q.Catalog.Template(user.Role, assignment.Tier); ok {
		for _, def := range defs {
			defsByID[def.ID] = def
		}
	}

	views := make([]RequirementView, 0, len(records))
	for _, record := range records {
		if !includeInactive && !record.IsActive() {
			continue
		}
		view := RequirementView{Record: record}
		if def, ok := defsByID[record.RequirementID]; ok {
			view.RequirementType = def.RequirementType
			view.ValidationRules = def.ValidationRules
			view.InTemplate = true
		}
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Record.Mandatory != views[j].Record.Mandatory {
			return views[i].Record.Mandatory
		}
		return views[i].Record.RequirementID < views[j].Record.RequirementID
	})
	return views, nil
}

func (q ComplianceQueries) TierStatus(ctx context.Context, userID string) (TierStatusView, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return TierStatusView{}, domainerrors.ErrInvalidRequest
	}

	user, assignment, records, err := q.load(ctx, userID)
	if err != nil {
		return TierStatusView{}, err
	}

	percentage := assignment.CompletionPercentage
	if defs, ok := q.Catalog.Template(user.Role, assignment.Tier); ok {
		summary := application.ComputeSummary(userID, user.Role, assignment.Tier, defs, records, q.now())
		percentage = summary.CompletionPercentage
	}
	return TierStatusView{
		Assignment:  assignment,
		Advancement: services.EvaluateTierAdvancement(assignment.Tier, percentage),
	}, nil
}

func (q ComplianceQueries) load(ctx context.Context, userID string) (entities.User, entities.TierAssignment, []entities.ComplianceRecord, error) {
	var user entities.User
	if err := application.ReadGuard(ctx, q.StoreTimeout, func(c context.Context) error {
		var readErr error
		user, readErr = q.Repo.GetUser(c, userID)
		return readErr
	}); err != nil {
		return entities.User{}, entities.TierAssignment{}, nil, err
	}

	var assignment entities.TierAssignment
	if err := application.ReadGuard(ctx, q.StoreTimeout, func(c context.Context) error {
		var readErr error
		assignment, readErr = q.Repo.GetTierAssignment(c, userID)
		return readErr
	}); err != nil {
		return entities.User{}, entities.TierAssignment{}, nil, err
	}

	var records []entities.ComplianceRecord
	if err := application.ReadGuard(ctx, q.StoreTimeout, func(c context.Context) error {
		var listErr error
		records, listErr = q.Repo.ListComplianceRecords(c, userID)
		return listErr
	}); err != nil {
		return entities.User{}, entities.TierAssignment{}, nil, err
	}
	return user, assignment, records, nil
}

func (q ComplianceQueries) now() time.Time {
	if q.Clock != nil {
		return q.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
