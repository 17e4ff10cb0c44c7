// Package skill provides martial skill templates and the skill library the
// combat engine validates player actions against.
package skill

import (
	"fmt"
)

// Role constants classify what a skill is for. They mirror the five combat
// strategies so that a combatant's role can be inferred from their skills.
const (
	RoleAttack  = "attack"
	RoleDefend  = "defend"
	RoleEvade   = "evade"
	RoleSupport = "support"
	RoleHeal    = "heal"
)

// WeaponBare is the weapon-type requirement for bare-handed techniques.
// An empty requirement means the skill works with any (or no) weapon.
const WeaponBare = "bare"

// ValidRole reports whether role is a recognised skill role.
func ValidRole(role string) bool {
	switch role {
	case RoleAttack, RoleDefend, RoleEvade, RoleSupport, RoleHeal:
		return true
	}
	return false
}

// Template defines a reusable skill archetype loaded from YAML or synthesized
// for skill names the content library has never seen.
type Template struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Role is the combat strategy this skill serves: attack, defend, evade,
	// support, or heal.
	Role string `yaml:"role"`
	// WeaponType is the required equipped weapon type. Empty means no
	// requirement; "bare" means the skill demands empty hands.
	WeaponType string `yaml:"weapon_type"`
	// Cost is the mp cost per power level.
	Cost int `yaml:"cost"`
	// MaxLevel caps how far the skill can be trained.
	MaxLevel int `yaml:"max_level"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff Name is non-empty, Role is valid,
// Cost >= 0, and MaxLevel >= 1; returns an error on the first violation.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("skill template: name must not be empty")
	}
	if !ValidRole(t.Role) {
		return fmt.Errorf("skill template %q: role must be one of [attack, defend, evade, support, heal], got %q", t.Name, t.Role)
	}
	if t.Cost < 0 {
		return fmt.Errorf("skill template %q: cost must be >= 0", t.Name)
	}
	if t.MaxLevel < 1 {
		return fmt.Errorf("skill template %q: max_level must be >= 1", t.Name)
	}
	return nil
}

// Known is one entry in a character's learned-skill list.
type Known struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// WeaponRequirementMet reports whether a skill's weapon-type requirement is
// satisfied by the currently equipped weapon type.
//
// No requirement always passes; a bare-handed requirement passes only with no
// weapon equipped; anything else must match exactly.
func WeaponRequirementMet(required, equipped string) bool {
	switch {
	case required == "":
		return true
	case required == WeaponBare:
		return equipped == ""
	default:
		return required == equipped
	}
}
