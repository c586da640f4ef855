package services

import (
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	domainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
)

// roleDefaultTiers is the role -> default-tier policy. New roles are added
// here, not inside orchestrator logic.
var roleDefaultTiers = map[entities.Role]entities.Tier{
	entities.RoleIT: entities.TierBasic,
	entities.RoleIP: entities.TierRobust,
	entities.RoleIC: entities.TierRobust,
	entities.RoleAP: entities.TierRobust,
}

// DefaultTierForRole resolves the tier a user lands on when assigned the role.
func DefaultTierForRole(role entities.Role) (entities.Tier, error) {
	tier, ok := roleDefaultTiers[role]
	if !ok {
		return "", domainerrors.ErrUnknownRole
	}
	return tier, nil
}
