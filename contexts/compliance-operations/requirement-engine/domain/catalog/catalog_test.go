package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
)

func TestRegistryHasTemplateForEveryRoleTierPair(t *testing.T) {
	registry := NewRegistry()

	roles := []entities.Role{entities.RoleIT, entities.RoleIP, entities.RoleIC, entities.RoleAP}
	tiers := []entities.Tier{entities.TierBasic, entities.TierRobust}
	for _, role := range roles {
		for _, tier := range tiers {
			defs, ok := registry.Template(role, tier)
			if !ok {
				t.Fatalf("missing template for %s/%s", role, tier)
			}
			if len(defs) == 0 {
				t.Fatalf("empty template for %s/%s", role, tier)
			}
			seen := make(map[string]struct{}, len(defs))
			mandatory := 0
			for _, def := range defs {
				if _, dup := seen[def.ID]; dup {
					t.Fatalf("duplicate requirement id %s in %s/%s", def.ID, role, tier)
				}
				seen[def.ID] = struct{}{}
				if def.Mandatory {
					mandatory++
				}
			}
			if mandatory == 0 {
				t.Fatalf("template %s/%s has no mandatory requirements", role, tier)
			}
		}
	}
}

func TestTemplateReturnsCopy(t *testing.T) {
	registry := NewRegistry()

	defs, _ := registry.Template(entities.RoleIT, entities.TierBasic)
	defs[0].ID = "mutated"

	again, _ := registry.Template(entities.RoleIT, entities.TierBasic)
	if again[0].ID == "mutated" {
		t.Fatal("Template must return a copy, registry was mutated")
	}
}

func TestLoadFileReplacesTemplateWholesale(t *testing.T) {
	registry := NewRegistry()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := `templates:
  - role: IT
    tier: basic
    requirements:
      - id: custom-only
        name: Custom Requirement
        category: training
        type: course_completion
        mandatory: true
        points: 10
        due_days: 30
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}
	if err := registry.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	defs, ok := registry.Template(entities.RoleIT, entities.TierBasic)
	if !ok || len(defs) != 1 || defs[0].ID != "custom-only" {
		t.Fatalf("expected single custom requirement, got %#v", defs)
	}

	// Other pairs stay untouched.
	if _, ok := registry.Template(entities.RoleAP, entities.TierRobust); !ok {
		t.Fatal("unrelated template dropped by LoadFile")
	}
}

func TestLoadFileRejectsUnknownRole(t *testing.T) {
	registry := NewRegistry()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := `templates:
  - role: ZZ
    tier: basic
    requirements:
      - id: x
        name: X
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}
	if err := registry.LoadFile(path); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
