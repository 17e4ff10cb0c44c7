// Package combat implements turn-based combat resolution: action
// validation, oracle-proposed state merging, deterministic fallback
// simulation, and termination handling.
//
// The session held here is the authoritative state. Oracle output only ever
// enters it through the merge in this package, which re-clamps every number.
package combat

// Combatant is one participant in a combat session.
//
// Invariants: MaxHP >= 1, MaxMP >= 0, 0 <= HP <= MaxHP, 0 <= MP <= MaxMP.
// ClampVitals restores them after any untrusted write.
type Combatant struct {
	Name   string   `json:"name"`
	HP     int      `json:"hp"`
	MaxHP  int      `json:"maxHp"`
	MP     int      `json:"mp"`
	MaxMP  int      `json:"maxMp"`
	Skills []string `json:"skills,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// ClampVitals forces the combatant back inside its invariants.
//
// Postcondition: MaxHP >= 1, MaxMP >= 0, HP in [0, MaxHP], MP in [0, MaxMP].
func (c *Combatant) ClampVitals() {
	if c.MaxHP < 1 {
		c.MaxHP = 1
	}
	if c.MaxMP < 0 {
		c.MaxMP = 0
	}
	c.HP = clampInt(c.HP, 0, c.MaxHP)
	c.MP = clampInt(c.MP, 0, c.MaxMP)
}

// IsAlive reports whether the combatant can still act.
func (c *Combatant) IsAlive() bool {
	return c.HP > 0
}

// HasTag reports whether the combatant carries the given tag.
func (c *Combatant) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
