// Package catalog holds the static requirement template catalog: the ordered
// requirement definitions that apply to a user at a given (role, tier). Lookups
// are pure and in-memory; the registry is built once at boot.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
)

// RequirementDefinition is one immutable requirement inside a template.
type RequirementDefinition struct {
	ID              string
	Name            string
	Category        string
	RequirementType string
	Mandatory       bool
	PointValue      int
	DueDays         int
	ValidationRules []string
}

type templateKey struct {
	role entities.Role
	tier entities.Tier
}

// Registry maps (role, tier) to an ordered requirement list. The map key
// guarantees at most one template per pair.
type Registry struct {
	templates map[templateKey][]RequirementDefinition
}

// NewRegistry builds a registry populated with the built-in default templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[templateKey][]RequirementDefinition)}
	for _, tpl := range defaultTemplates() {
		r.templates[templateKey{role: tpl.role, tier: tpl.tier}] = tpl.requirements
	}
	return r
}

// Template returns the ordered requirement definitions for the pair, copied so
// callers cannot mutate the registry.
func (r *Registry) Template(role entities.Role, tier entities.Tier) ([]RequirementDefinition, bool) {
	defs, ok := r.templates[templateKey{role: role, tier: tier}]
	if !ok {
		return nil, false
	}
	out := make([]RequirementDefinition, len(defs))
	copy(out, defs)
	return out, true
}

// Pairs lists every (role, tier) pair with a template, in stable order.
func (r *Registry) Pairs() []struct {
	Role entities.Role
	Tier entities.Tier
} {
	out := make([]struct {
		Role entities.Role
		Tier entities.Tier
	}, 0, len(r.templates))
	for key := range r.templates {
		out = append(out, struct {
			Role entities.Role
			Tier entities.Tier
		}{Role: key.role, Tier: key.tier})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].Tier < out[j].Tier
	})
	return out
}

type catalogFile struct {
	Templates []struct {
		Role         string `yaml:"role"`
		Tier         string `yaml:"tier"`
		Requirements []struct {
			ID              string   `yaml:"id"`
			Name            string   `yaml:"name"`
			Category        string   `yaml:"category"`
			Type            string   `yaml:"type"`
			Mandatory       bool     `yaml:"mandatory"`
			Points          int      `yaml:"points"`
			DueDays         int      `yaml:"due_days"`
			ValidationRules []string `yaml:"validation_rules"`
		} `yaml:"requirements"`
	} `yaml:"templates"`
}

// LoadFile overlays templates from a YAML catalog file. A file entry replaces
// the built-in template for the same (role, tier) wholesale.
func (r *Registry) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse template catalog %s: %w", path, err)
	}

	for _, tpl := range file.Templates {
		role, ok := entities.ParseRole(tpl.Role)
		if !ok {
			return fmt.Errorf("template catalog %s: unknown role %q", path, tpl.Role)
		}
		tier, ok := entities.ParseTier(tpl.Tier)
		if !ok {
			return fmt.Errorf("template catalog %s: unknown tier %q", path, tpl.Tier)
		}
		if len(tpl.Requirements) == 0 {
			return fmt.Errorf("template catalog %s: empty template for %s/%s", path, role, tier)
		}

		defs := make([]RequirementDefinition, 0, len(tpl.Requirements))
		seen := make(map[string]struct{}, len(tpl.Requirements))
		for _, req := range tpl.Requirements {
			if req.ID == "" || req.Name == "" {
				return fmt.Errorf("template catalog %s: requirement in %s/%s missing id or name", path, role, tier)
			}
			if _, dup := seen[req.ID]; dup {
				return fmt.Errorf("template catalog %s: duplicate requirement id %q in %s/%s", path, req.ID, role, tier)
			}
			seen[req.ID] = struct{}{}
			defs = append(defs, RequirementDefinition{
				ID:              req.ID,
				Name:            req.Name,
				Category:        req.Category,
				RequirementType: req.Type,
				Mandatory:       req.Mandatory,
				PointValue:      req.Points,
				DueDays:         req.DueDays,
				ValidationRules: req.ValidationRules,
			})
		}
		r.templates[templateKey{role: role, tier: tier}] = defs
	}
	return nil
}
