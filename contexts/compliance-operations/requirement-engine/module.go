package requirementengine

import (
	"log/slog"
	"time"

	httpadapter "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/adapters/http"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/adapters/memory"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/application/commands"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/application/queries"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/application/workers"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/catalog"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/services"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Relay   workers.OutboxRelay
	Store   *memory.Store
}

type Dependencies struct {
	Repo              ports.Repository
	Audit             ports.AuditLog
	Notifier          ports.Notifier
	Outbox            ports.OutboxRepository
	Idempotency       ports.IdempotencyStore
	Publisher         ports.EventPublisher
	Catalog           *catalog.Registry
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	IdempotencyTTL    time.Duration
	StoreTimeout      time.Duration
	SideEffectTimeout time.Duration
	Logger            *slog.Logger
}

func NewModule(deps Dependencies) Module {
	transitionUseCase := commands.TransitionRequirementUseCase{
		Repo:              deps.Repo,
		Audit:             deps.Audit,
		Notifier:          deps.Notifier,
		Outbox:            deps.Outbox,
		Idempotency:       deps.Idempotency,
		Catalog:           deps.Catalog,
		Clock:             deps.Clock,
		IDGenerator:       deps.IDGen,
		IdempotencyTTL:    deps.IdempotencyTTL,
		StoreTimeout:      deps.StoreTimeout,
		SideEffectTimeout: deps.SideEffectTimeout,
		Logger:            deps.Logger,
	}
	switchTierUseCase := commands.SwitchTierUseCase{
		Repo:              deps.Repo,
		Audit:             deps.Audit,
		Notifier:          deps.Notifier,
		Outbox:            deps.Outbox,
		Idempotency:       deps.Idempotency,
		Catalog:           deps.Catalog,
		Clock:             deps.Clock,
		IDGenerator:       deps.IDGen,
		IdempotencyTTL:    deps.IdempotencyTTL,
		StoreTimeout:      deps.StoreTimeout,
		SideEffectTimeout: deps.SideEffectTimeout,
		Logger:            deps.Logger,
	}
	changeRoleUseCase := commands.ChangeRoleUseCase{
		Repo:              deps.Repo,
		Audit:             deps.Audit,
		Notifier:          deps.Notifier,
		Outbox:            deps.Outbox,
		Idempotency:       deps.Idempotency,
		Catalog:           deps.Catalog,
		Clock:             deps.Clock,
		IDGenerator:       deps.IDGen,
		IdempotencyTTL:    deps.IdempotencyTTL,
		StoreTimeout:      deps.StoreTimeout,
		SideEffectTimeout: deps.SideEffectTimeout,
		Logger:            deps.Logger,
	}
	deactivateUseCase := commands.DeactivateUserUseCase{
		Repo:              deps.Repo,
		Audit:             deps.Audit,
		Notifier:          deps.Notifier,
		Outbox:            deps.Outbox,
		Idempotency:       deps.Idempotency,
		Clock:             deps.Clock,
		IDGenerator:       deps.IDGen,
		IdempotencyTTL:    deps.IdempotencyTTL,
		StoreTimeout:      deps.StoreTimeout,
		SideEffectTimeout: deps.SideEffectTimeout,
		Logger:            deps.Logger,
	}
	complianceQueries := queries.ComplianceQueries{
		Repo:         deps.Repo,
		Catalog:      deps.Catalog,
		Clock:        deps.Clock,
		StoreTimeout: deps.StoreTimeout,
	}

	return Module{
		Handler: httpadapter.Handler{
			Transitions:  transitionUseCase,
			TierSwitches: switchTierUseCase,
			RoleChanges:  changeRoleUseCase,
			Deactivation: deactivateUseCase,
			Queries:      complianceQueries,
			Logger:       deps.Logger,
		},
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the engine against the in-memory store with a small
// seeded roster, one user per role at that role's default tier.
func NewInMemoryModule(registry *catalog.Registry, logger *slog.Logger) Module {
	store := memory.NewStore()
	if registry == nil {
		registry = catalog.NewRegistry()
	}

	now := time.Now().UTC()
	seed := []struct {
		userID      string
		displayName string
		email       string
		role        entities.Role
	}{
		{"usr-demo-it", "Devon Park", "devon.park@example.com", entities.RoleIT},
		{"usr-demo-ip", "Mina Okafor", "mina.okafor@example.com", entities.RoleIP},
		{"usr-demo-ic", "Tomas Reyes", "tomas.reyes@example.com", entities.RoleIC},
		{"usr-demo-ap", "Greta Lindqvist", "greta.lindqvist@example.com", entities.RoleAP},
	}
	for _, item := range seed {
		tier, err := services.DefaultTierForRole(item.role)
		if err != nil {
			continue
		}
		var records []entities.ComplianceRecord
		if defs, ok := registry.Template(item.role, tier); ok {
			for i, def := range defs {
				due := now.AddDate(0, 0, def.DueDays)
				records = append(records, entities.ComplianceRecord{
					RecordID:         item.userID + "-rec-" + def.ID,
					UserID:           item.userID,
					RequirementID:    def.ID,
					RequirementName:  def.Name,
					Category:         def.Category,
					Mandatory:        def.Mandatory,
					PointValue:       def.PointValue,
					WorkflowStatus:   entities.WorkflowPending,
					ComplianceStatus: entities.CompliancePending,
					DueAt:            &due,
					AssignedAt:       now.Add(-time.Duration(i) * time.Minute),
					UpdatedAt:        now,
				})
			}
		}
		store.SeedUser(
			entities.User{
				UserID:      item.userID,
				DisplayName: item.displayName,
				Email:       item.email,
				Role:        item.role,
				Active:      true,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
			entities.TierAssignment{
				UserID:     item.userID,
				Tier:       tier,
				AssignedAt: now,
				UpdatedAt:  now,
			},
			records,
		)
	}

	module := NewModule(Dependencies{
		Repo:              store,
		Audit:             store,
		Notifier:          store,
		Outbox:            store,
		Idempotency:       store,
		Publisher:         store,
		Catalog:           registry,
		Clock:             store,
		IDGen:             store,
		IdempotencyTTL:    7 * 24 * time.Hour,
		StoreTimeout:      5 * time.Second,
		SideEffectTimeout: 3 * time.Second,
		Logger:            logger,
	})
	module.Store = store
	return module
}
