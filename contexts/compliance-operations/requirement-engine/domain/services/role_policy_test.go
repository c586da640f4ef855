package services

import (
	"errors"
	"testing"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	domainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
)

func TestDefaultTierForRole(t *testing.T) {
	cases := map[entities.Role]entities.Tier{
		entities.RoleIT: entities.TierBasic,
		entities.RoleIP: entities.TierRobust,
		entities.RoleIC: entities.TierRobust,
		entities.RoleAP: entities.TierRobust,
	}
	for role, want := range cases {
		tier, err := DefaultTierForRole(role)
		if err != nil {
			t.Fatalf("DefaultTierForRole(%s) failed: %v", role, err)
		}
		if tier != want {
			t.Fatalf("DefaultTierForRole(%s) = %s, want %s", role, tier, want)
		}
	}
}

func TestDefaultTierForRoleRejectsUnknownRole(t *testing.T) {
	if _, err := DefaultTierForRole(entities.Role("ZZ")); !errors.Is(err, domainerrors.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}
