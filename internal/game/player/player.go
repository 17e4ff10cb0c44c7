// Package player models the persistent player document. During combat the
// document is never written; only the settlement pipeline mutates it.
package player

import (
	"time"

	"github.com/msw2004727/FB-sub000/internal/game/skill"
)

// Vital formula coefficients. Player lethality is derived from persistent
// power attributes rather than taken from oracle output, so that maximum
// hp/mp stay bounded and auditable.
const (
	BaseHP          = 100
	HPPerExternal   = 8
	HPPerInternal   = 2
	BaseMP          = 50
	MPPerInternal   = 10
	MinimumMaxVital = 1
)

// Player is the persistent player document.
type Player struct {
	ID       string
	Name     string
	Location string
	// PowerExternal is trained body strength; it dominates max hp.
	PowerExternal int
	// PowerInternal is cultivated inner force; it dominates max mp.
	PowerInternal int
	// Morality shifts with the player's deeds; negative is villainous.
	Morality int
	// DeathCooldown counts days of weakness remaining after a defeat.
	DeathCooldown int
	// WeaponType is the equipped weapon type; empty means bare-handed.
	WeaponType string
	Skills     []skill.Known
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MaxHP computes the player's maximum hp from power attributes.
//
// Postcondition: Returns >= MinimumMaxVital.
func (p *Player) MaxHP() int {
	hp := BaseHP + HPPerExternal*p.PowerExternal + HPPerInternal*p.PowerInternal
	if hp < MinimumMaxVital {
		return MinimumMaxVital
	}
	return hp
}

// MaxMP computes the player's maximum mp from power attributes.
//
// Postcondition: Returns >= MinimumMaxVital.
func (p *Player) MaxMP() int {
	mp := BaseMP + MPPerInternal*p.PowerInternal
	if mp < MinimumMaxVital {
		return MinimumMaxVital
	}
	return mp
}

// KnowsSkill returns the learned-skill entry for name, or false.
func (p *Player) KnowsSkill(name string) (skill.Known, bool) {
	for _, k := range p.Skills {
		if k.Name == name {
			return k, true
		}
	}
	return skill.Known{}, false
}

// SkillNames returns the names of all learned skills in order.
func (p *Player) SkillNames() []string {
	names := make([]string, len(p.Skills))
	for i, k := range p.Skills {
		names[i] = k.Name
	}
	return names
}

// ProgressDelta is the set of permanent numeric changes applied to a player
// document in one settlement transaction.
type ProgressDelta struct {
	PowerExternal int `json:"power_external"`
	PowerInternal int `json:"power_internal"`
	Morality      int `json:"morality"`
	DeathCooldown int `json:"death_cooldown"`
}

// IsZero reports whether the delta changes nothing.
func (d ProgressDelta) IsZero() bool {
	return d == ProgressDelta{}
}

// ItemDelta is a single inventory change: positive Quantity grants, negative
// removes.
type ItemDelta struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
