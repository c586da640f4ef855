package unit

import (
	"context"
	"errors"
	"testing"

	requirementengine "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine"
	domainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
	httptransport "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/transport/http"
)

func TestRequirementTransitionComputesMandatoryCompletion(t *testing.T) {
	module := requirementengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	first, err := module.Handler.TransitionRequirementHandler(ctx, "usr-demo-it", "it-basic-orientation", "idem-tr-1", "admin-1", httptransport.TransitionRequirementRequest{
		NewStatus: "approved",
	})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if first.Record.ComplianceStatus != "compliant" {
		t.Fatalf("expected compliant record, got %s", first.Record.ComplianceStatus)
	}

	second, err := module.Handler.TransitionRequirementHandler(ctx, "usr-demo-it", "it-basic-teaching-log", "idem-tr-2", "admin-1", httptransport.TransitionRequirementRequest{
		NewStatus: "approved",
	})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if second.Summary.CompletionPercentage != 66.7 {
		t.Fatalf("expected 66.7%% after 2 of 3 mandatory, got %v", second.Summary.CompletionPercentage)
	}
	if second.Advancement.Eligible {
		t.Fatalf("expected not eligible at 66.7%%")
	}

	third, err := module.Handler.TransitionRequirementHandler(ctx, "usr-demo-it", "it-basic-first-aid", "idem-tr-3", "admin-1", httptransport.TransitionRequirementRequest{
		NewStatus: "approved",
	})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if third.Summary.CompletionPercentage != 100 {
		t.Fatalf("expected 100%% after all mandatory approved, got %v", third.Summary.CompletionPercentage)
	}
	if !third.Advancement.Eligible {
		t.Fatalf("expected advancement eligibility at 100%%")
	}
	if third.Advancement.NextTier != "robust" {
		t.Fatalf("expected next tier robust, got %q", third.Advancement.NextTier)
	}

	var sawEligibility bool
	for _, notification := range module.Store.Notifications("usr-demo-it") {
		if notification.Type == "tier_advancement_eligible" {
			sawEligibility = true
		}
	}
	if !sawEligibility {
		t.Fatalf("expected tier advancement eligibility notification")
	}
}

func TestRequirementTransitionOptionalDoesNotMoveCompletion(t *testing.T) {
	module := requirementengine.NewInMemoryModule(nil, nil)

	resp, err := module.Handler.TransitionRequirementHandler(context.Background(), "usr-demo-it", "it-basic-mentorship", "idem-opt-1", "admin-1", httptransport.TransitionRequirementRequest{
		NewStatus: "approved",
	})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if resp.Summary.CompletionPercentage != 0 {
		t.Fatalf("optional approval must not move mandatory completion, got %v", resp.Summary.CompletionPercentage)
	}
	if resp.Summary.Compliant != 1 {
		t.Fatalf("expected 1 compliant record, got %d", resp.Summary.Compliant)
	}
}

func TestRequirementTransitionIdempotentReplay(t *testing.T) {
	module := requirementengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	first, err := module.Handler.TransitionRequirementHandler(ctx, "usr-demo-it", "it-basic-orientation", "idem-replay-1", "admin-1", httptransport.TransitionRequirementRequest{
		NewStatus: "submitted",
	})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	replay, err := module.Handler.TransitionRequirementHandler(ctx, "usr-demo-it", "it-basic-orientation", "idem-replay-1", "admin-1", httptransport.TransitionRequirementRequest{
		NewStatus: "submitted",
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !replay.Replayed {
		t.Fatalf("expected replayed result")
	}
	if replay.Record.RecordID != first.Record.RecordID {
		t.Fatalf("replay must return the original record")
	}

	_, err = module.Handler.TransitionRequirementHandler(ctx, "usr-demo-it", "it-basic-orientation", "idem-replay-1", "admin-1", httptransport.TransitionRequirementRequest{
		NewStatus: "approved",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict for reused key, got %v", err)
	}
}

func TestRequirementTransitionRejectsUnknownStatus(t *testing.T) {
	module := requirementengine.NewInMemoryModule(nil, nil)

	_, err := module.Handler.TransitionRequirementHandler(context.Background(), "usr-demo-it", "it-basic-orientation", "idem-bad-1", "admin-1", httptransport.TransitionRequirementRequest{
		NewStatus: "completed",
	})
	if !errors.Is(err, domainerrors.ErrInvalidStatus) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
}

func TestTierSwitchReconcilesRequirementSet(t *testing.T) {
	module := requirementengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	resp, err := module.Handler.SwitchTierHandler(ctx, "usr-demo-it", "idem-tier-1", "admin-1", httptransport.SwitchTierRequest{
		NewTier: "robust",
		Reason:  "manual upgrade",
	})
	if err != nil {
		t.Fatalf("tier switch failed: %v", err)
	}
	if !resp.Changed {
		t.Fatalf("expected changed tier switch")
	}
	if resp.Assignment.Tier != "robust" {
		t.Fatalf("expected robust assignment, got %s", resp.Assignment.Tier)
	}

	all, err := module.Handler.ListRequirementsHandler(ctx, "usr-demo-it", true)
	if err != nil {
		t.Fatalf("list requirements failed: %v", err)
	}
	active := map[string]bool{}
	superseded := map[string]bool{}
	for _, item := range all.Items {
		if item.Record.ComplianceStatus == "not_applicable" {
			superseded[item.Record.RequirementID] = true
		} else {
			active[item.Record.RequirementID] = true
		}
	}
	for _, id := range []string{"it-robust-orientation", "it-robust-teaching-log", "it-robust-background-check", "it-robust-skills-assessment"} {
		if !active[id] {
			t.Fatalf("expected %s provisioned and active", id)
		}
	}
	for _, id := range []string{"it-basic-orientation", "it-basic-teaching-log", "it-basic-first-aid", "it-basic-mentorship"} {
		if !superseded[id] {
			t.Fatalf("expected %s superseded", id)
		}
	}

	// Transitions against superseded records must fail.
	_, err = module.Handler.TransitionRequirementHandler(ctx, "usr-demo-it", "it-basic-orientation", "idem-tier-2", "admin-1", httptransport.TransitionRequirementRequest{
		NewStatus: "approved",
	})
	if !errors.Is(err, domainerrors.ErrRecordNotFound) {
		t.Fatalf("expected record not found for superseded requirement, got %v", err)
	}
}

func TestTierSwitchSameTierIsNoOp(t *testing.T) {
	module := requirementengine.NewInMemoryModule(nil, nil)

	resp, err := module.Handler.SwitchTierHandler(context.Background(), "usr-demo-it", "idem-tier-noop", "admin-1", httptransport.SwitchTierRequest{
		NewTier: "basic",
	})
	if err != nil {
		t.Fatalf("same-tier switch failed: %v", err)
	}
	if resp.Changed {
		t.Fatalf("expected no-op for same tier")
	}
	if len(module.Store.Notifications("usr-demo-it")) != 0 {
		t.Fatalf("no-op switch must not notify")
	}
	if len(module.Store.AuditEntries("usr-demo-it")) != 0 {
		t.Fatalf("no-op switch must not audit")
	}
}

func TestTierSwitchRestoresSupersededRecordsInPlace(t *testing.T) {
	module := requirementengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	up, err := module.Handler.SwitchTierHandler(ctx, "usr-demo-it", "idem-up", "admin-1", httptransport.SwitchTierRequest{NewTier: "robust"})
	if err != nil {
		t.Fatalf("upgrade failed: %v", err)
	}
	if !up.Changed {
		t.Fatalf("expected changed upgrade")
	}

	down, err := module.Handler.SwitchTierHandler(ctx, "usr-demo-it", "idem-down", "admin-1", httptransport.SwitchTierRequest{NewTier: "basic"})
	if err != nil {
		t.Fatalf("downgrade failed: %v", err)
	}
	if !down.Changed {
		t.Fatalf("expected changed downgrade")
	}

	all, err := module.Handler.ListRequirementsHandler(ctx, "usr-demo-it", true)
	if err != nil {
		t.Fatalf("list requirements failed: %v", err)
	}
	counts := map[string]int{}
	activeBasic := 0
	for _, item := range all.Items {
		counts[item.Record.RequirementID]++
		if item.Record.ComplianceStatus != "not_applicable" &&
			(item.Record.RequirementID == "it-basic-orientation" ||
				item.Record.RequirementID == "it-basic-teaching-log" ||
				item.Record.RequirementID == "it-basic-first-aid" ||
				item.Record.RequirementID == "it-basic-mentorship") {
			activeBasic++
		}
	}
	for id, count := range counts {
		if count != 1 {
			t.Fatalf("expected a single record per requirement, %s has %d", id, count)
		}
	}
	if activeBasic != 4 {
		t.Fatalf("expected all 4 basic requirements reactivated, got %d", activeBasic)
	}
}

func TestRoleChangeWithTierChange(t *testing.T) {
	module := requirementengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	resp, err := module.Handler.ChangeRoleHandler(ctx, "usr-demo-it", "idem-role-1", "admin-1", httptransport.ChangeRoleRequest{
		NewRole: "AP",
	})
	if err != nil {
		t.Fatalf("role change failed: %v", err)
	}
	if !resp.Changed || !resp.TierChanged {
		t.Fatalf("expected role change with tier change, got changed=%v tierChanged=%v", resp.Changed, resp.TierChanged)
	}
	if resp.Role != "AP" {
		t.Fatalf("expected role AP, got %s", resp.Role)
	}
	if resp.Assignment.Tier != "robust" {
		t.Fatalf("expected robust tier after AP role change, got %s", resp.Assignment.Tier)
	}

	reqs, err := module.Handler.ListRequirementsHandler(ctx, "usr-demo-it", false)
	if err != nil {
		t.Fatalf("list requirements failed: %v", err)
	}
	active := map[string]bool{}
	for _, item := range reqs.Items {
		active[item.Record.RequirementID] = true
	}
	for _, id := range []string{"ap-robust-agreement", "ap-robust-facility-audit", "ap-robust-insurance", "ap-robust-quality-program", "ap-robust-instructor-roster"} {
		if !active[id] {
			t.Fatalf("expected %s active after role change", id)
		}
	}
	if active["it-basic-orientation"] {
		t.Fatalf("expected old role requirements superseded")
	}
}

func TestRoleChangeSameDefaultTierReconcilesOnly(t *testing.T) {
	module := requirementengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	resp, err := module.Handler.ChangeRoleHandler(ctx, "usr-demo-ip", "idem-role-2", "admin-1", httptransport.ChangeRoleRequest{
		NewRole: "IC",
	})
	if err != nil {
		t.Fatalf("role change failed: %v", err)
	}
	if !resp.Changed || resp.TierChanged {
		t.Fatalf("expected role change without tier change, got changed=%v tierChanged=%v", resp.Changed, resp.TierChanged)
	}
	if resp.Assignment.Tier != "robust" {
		t.Fatalf("expected tier to remain robust, got %s", resp.Assignment.Tier)
	}

	reqs, err := module.Handler.ListRequirementsHandler(ctx, "usr-demo-ip", false)
	if err != nil {
		t.Fatalf("list requirements failed: %v", err)
	}
	active := map[string]bool{}
	for _, item := range reqs.Items {
		active[item.Record.RequirementID] = true
	}
	if !active["ic-robust-certification"] || active["ip-robust-certification"] {
		t.Fatalf("expected IC requirements to replace IP requirements, got %v", active)
	}
}

func TestRoleChangeSameRoleIsNoOp(t *testing.T) {
	module := requirementengine.NewInMemoryModule(nil, nil)

	resp, err := module.Handler.ChangeRoleHandler(context.Background(), "usr-demo-it", "idem-role-noop", "admin-1", httptransport.ChangeRoleRequest{
		NewRole: "IT",
	})
	if err != nil {
		t.Fatalf("same-role change failed: %v", err)
	}
	if resp.Changed {
		t.Fatalf("expected no-op for same role")
	}
}

func TestDeactivationRetiresRecordsAndBlocksWrites(t *testing.T) {
	module := requirementengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	resp, err := module.Handler.DeactivateUserHandler(ctx, "usr-demo-ic", "idem-deact-1", "admin-1", httptransport.DeactivateUserRequest{
		Reason: "left the organization",
	})
	if err != nil {
		t.Fatalf("deactivation failed: %v", err)
	}
	if !resp.Changed || resp.Active {
		t.Fatalf("expected deactivated user, got changed=%v active=%v", resp.Changed, resp.Active)
	}
	if resp.RecordsAffected != 5 {
		t.Fatalf("expected 5 retired records for IC robust, got %d", resp.RecordsAffected)
	}

	_, err = module.Handler.TransitionRequirementHandler(ctx, "usr-demo-ic", "ic-robust-certification", "idem-deact-2", "admin-1", httptransport.TransitionRequirementRequest{
		NewStatus: "approved",
	})
	if !errors.Is(err, domainerrors.ErrUserDeactivated) {
		t.Fatalf("expected user deactivated error, got %v", err)
	}

	again, err := module.Handler.DeactivateUserHandler(ctx, "usr-demo-ic", "idem-deact-3", "admin-1", httptransport.DeactivateUserRequest{})
	if err != nil {
		t.Fatalf("repeat deactivation failed: %v", err)
	}
	if again.Changed {
		t.Fatalf("expected repeat deactivation to be a no-op")
	}
}

func TestOutboxRelayPublishesPendingEvents(t *testing.T) {
	module := requirementengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	if _, err := module.Handler.TransitionRequirementHandler(ctx, "usr-demo-it", "it-basic-orientation", "idem-relay-1", "admin-1", httptransport.TransitionRequirementRequest{
		NewStatus: "approved",
	}); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	if err := module.Relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	published := module.Store.PublishedEvents()
	if len(published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(published))
	}
	if published[0].EventType != "compliance.requirement_status_changed" {
		t.Fatalf("unexpected event type %s", published[0].EventType)
	}

	pending, err := module.Store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox after relay, got %d rows", len(pending))
	}
}

func TestAuditTrailCapturesOrchestrationDecisions(t *testing.T) {
	module := requirementengine.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	if _, err := module.Handler.TransitionRequirementHandler(ctx, "usr-demo-it", "it-basic-orientation", "idem-audit-1", "admin-1", httptransport.TransitionRequirementRequest{
		NewStatus: "approved",
	}); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if _, err := module.Handler.SwitchTierHandler(ctx, "usr-demo-it", "idem-audit-2", "admin-1", httptransport.SwitchTierRequest{NewTier: "robust"}); err != nil {
		t.Fatalf("tier switch failed: %v", err)
	}

	entries := module.Store.AuditEntries("usr-demo-it")
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	if entries[0].Type() != "requirement_status_changed" {
		t.Fatalf("unexpected first audit type %s", entries[0].Type())
	}
	if entries[1].Type() != "tier_changed" {
		t.Fatalf("unexpected second audit type %s", entries[1].Type())
	}
	if entries[1].PerformedBy != "admin-1" {
		t.Fatalf("expected performed_by admin-1, got %s", entries[1].PerformedBy)
	}
}
