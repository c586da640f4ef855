package httpadapter

import (
	"context"
	"log/slog"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/application/commands"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/application/queries"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/services"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/ports"
	httptransport "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/transport/http"
)

type Handler struct {
	Transitions  commands.TransitionRequirementUseCase
	TierSwitches commands.SwitchTierUseCase
	RoleChanges  commands.ChangeRoleUseCase
	Deactivation commands.DeactivateUserUseCase
	Queries      queries.ComplianceQueries
	Logger       *slog.Logger
}

func (h Handler) TransitionRequirementHandler(
	ctx context.Context,
	userID string,
	requirementID string,
	idempotencyKey string,
	performedBy string,
	req httptransport.TransitionRequirementRequest,
) (httptransport.TransitionResponse, error) {
	result, err := h.Transitions.Execute(ctx, commands.TransitionRequirementCommand{
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		RequirementID:  requirementID,
		NewStatus:      req.NewStatus,
		Score:          req.Score,
		Notes:          req.Notes,
		PerformedBy:    performedBy,
	})
	if err != nil {
		return httptransport.TransitionResponse{}, err
	}
	return httptransport.TransitionResponse{
		Record:      recordResponse(result.Record),
		Summary:     summaryResponse(result.Summary),
		Advancement: advancementResponse(result.Advancement),
		Warnings:    result.Warnings,
		Replayed:    result.Replayed,
	}, nil
}

func (h Handler) SwitchTierHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	performedBy string,
	req httptransport.SwitchTierRequest,
) (httptransport.TierSwitchResponse, error) {
	result, err := h.TierSwitches.Execute(ctx, commands.SwitchTierCommand{
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		NewTier:        req.NewTier,
		Reason:         req.Reason,
		PerformedBy:    performedBy,
	})
	if err != nil {
		return httptransport.TierSwitchResponse{}, err
	}
	return httptransport.TierSwitchResponse{
		Assignment:  assignmentResponse(result.Assignment),
		Summary:     summaryResponse(result.Summary),
		Advancement: advancementResponse(result.Advancement),
		Changed:     result.Changed,
		Message:     result.Message,
		Warnings:    result.Warnings,
		Replayed:    result.Replayed,
	}, nil
}

func (h Handler) ChangeRoleHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	performedBy string,
	req httptransport.ChangeRoleRequest,
) (httptransport.RoleChangeResponse, error) {
	result, err := h.RoleChanges.Execute(ctx, commands.ChangeRoleCommand{
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		NewRole:        req.NewRole,
		PerformedBy:    performedBy,
	})
	if err != nil {
		return httptransport.RoleChangeResponse{}, err
	}
	return httptransport.RoleChangeResponse{
		UserID:      result.User.UserID,
		Role:        string(result.User.Role),
		Assignment:  assignmentResponse(result.Assignment),
		Summary:     summaryResponse(result.Summary),
		Advancement: advancementResponse(result.Advancement),
		Changed:     result.Changed,
		TierChanged: result.TierChanged,
		Message:     result.Message,
		Warnings:    result.Warnings,
		Replayed:    result.Replayed,
	}, nil
}

func (h Handler) DeactivateUserHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	performedBy string,
	req httptransport.DeactivateUserRequest,
) (httptransport.DeactivateResponse, error) {
	result, err := h.Deactivation.Execute(ctx, commands.DeactivateUserCommand{
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		Reason:         req.Reason,
		PerformedBy:    performedBy,
	})
	if err != nil {
		return httptransport.DeactivateResponse{}, err
	}
	return httptransport.DeactivateResponse{
		UserID:          result.User.UserID,
		Active:          result.User.Active,
		RecordsAffected: result.RecordsAffected,
		Changed:         result.Changed,
		Message:         result.Message,
		Warnings:        result.Warnings,
		Replayed:        result.Replayed,
	}, nil
}

func (h Handler) SummaryHandler(ctx context.Context, userID string) (httptransport.UserSummaryResponse, error) {
	view, err := h.Queries.Summary(ctx, userID)
	if err != nil {
		return httptransport.UserSummaryResponse{}, err
	}
	return httptransport.UserSummaryResponse{
		UserID:      view.User.UserID,
		DisplayName: view.User.DisplayName,
		Role:        string(view.User.Role),
		Active:      view.User.Active,
		Assignment:  assignmentResponse(view.Assignment),
		Summary:     summaryResponse(view.Summary),
		Advancement: advancementResponse(view.Advancement),
	}, nil
}

func (h Handler) ListRequirementsHandler(
	ctx context.Context,
	userID string,
	includeInactive bool,
) (httptransport.RequirementsResponse, error) {
	views, err := h.Queries.ListRequirements(ctx, userID, includeInactive)
	if err != nil {
		return httptransport.RequirementsResponse{}, err
	}
	items := make([]httptransport.RequirementItem, 0, len(views))
	for _, view := range views {
		items = append(items, httptransport.RequirementItem{
			Record:          recordResponse(view.Record),
			RequirementType: view.RequirementType,
			ValidationRules: view.ValidationRules,
			InTemplate:      view.InTemplate,
		})
	}
	return httptransport.RequirementsResponse{
		UserID: userID,
		Items:  items,
	}, nil
}

func (h Handler) TierStatusHandler(ctx context.Context, userID string) (httptransport.TierStatusResponse, error) {
	view, err := h.Queries.TierStatus(ctx, userID)
	if err != nil {
		return httptransport.TierStatusResponse{}, err
	}
	return httptransport.TierStatusResponse{
		Assignment:  assignmentResponse(view.Assignment),
		Advancement: advancementResponse(view.Advancement),
	}, nil
}

func recordResponse(record entities.ComplianceRecord) httptransport.RecordResponse {
	return httptransport.RecordResponse{
		RecordID:         record.RecordID,
		UserID:           record.UserID,
		RequirementID:    record.RequirementID,
		RequirementName:  record.RequirementName,
		Category:         record.Category,
		Mandatory:        record.Mandatory,
		PointValue:       record.PointValue,
		WorkflowStatus:   string(record.WorkflowStatus),
		ComplianceStatus: string(record.ComplianceStatus),
		Score:            record.Score,
		Notes:            record.Notes,
		DueAt:            record.DueAt,
		AssignedAt:       record.AssignedAt,
		UpdatedAt:        record.UpdatedAt,
	}
}

func summaryResponse(summary ports.ComplianceSummary) httptransport.SummaryResponse {
	return httptransport.SummaryResponse{
		UserID:               summary.UserID,
		Role:                 string(summary.Role),
		Tier:                 string(summary.Tier),
		Compliant:            summary.Compliant,
		NonCompliant:         summary.NonCompliant,
		Warning:              summary.Warning,
		Pending:              summary.Pending,
		TotalActive:          summary.TotalActive,
		MandatoryTotal:       summary.MandatoryTotal,
		MandatoryCompliant:   summary.MandatoryCompliant,
		CompletionPercentage: summary.CompletionPercentage,
		CalculatedAt:         summary.CalculatedAt,
	}
}

func advancementResponse(decision services.AdvancementDecision) httptransport.AdvancementResponse {
	response := httptransport.AdvancementResponse{
		CurrentTier:        string(decision.CurrentTier),
		Eligible:           decision.Eligible,
		RequiredPercentage: decision.RequiredPercentage,
		Message:            decision.Message,
	}
	if decision.NextTier != nil {
		response.NextTier = string(*decision.NextTier)
	}
	return response
}

func assignmentResponse(assignment entities.TierAssignment) httptransport.AssignmentResponse {
	return httptransport.AssignmentResponse{
		UserID:               assignment.UserID,
		Tier:                 string(assignment.Tier),
		CompletionPercentage: assignment.CompletionPercentage,
		AssignedAt:           assignment.AssignedAt,
		UpdatedAt:            assignment.UpdatedAt,
	}
}
