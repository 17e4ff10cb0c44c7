package combat

import (
	"fmt"
	"strings"

	"github.com/msw2004727/FB-sub000/internal/oracle"
)

// applyUpdate merges an oracle-proposed state update into the session.
//
// The player's maximum vitals derive from persistent attributes and are
// never taken from the oracle; only current hp and mp are overlaid. Enemies
// and allies additionally accept maximum adjustments. Skill and tag lists
// never change mid-fight. Every touched combatant is re-clamped.
//
// Deltas match roster members by exact name first, then by position for
// unnamed entries. The positional fallback is limited to unnamed deltas on
// purpose: a delta carrying a name that matches nobody is a miss and is
// dropped, never re-aimed at whoever happens to share its index. The oracle
// cannot add or remove combatants through an update.
func applyUpdate(s *Session, upd *oracle.StateUpdate) {
	if upd == nil {
		return
	}
	if d := upd.Player; d != nil {
		if d.HP != nil {
			s.Player.HP = *d.HP
		}
		if d.MP != nil {
			s.Player.MP = *d.MP
		}
		s.Player.ClampVitals()
	}
	mergeRoster(s.Enemies, upd.Enemies)
	mergeRoster(s.Allies, upd.Allies)
}

func mergeRoster(roster []Combatant, deltas oracle.DeltaList) {
	for i, d := range deltas {
		c := findByName(roster, d.Name)
		if c == nil && d.Name == "" && i < len(roster) {
			c = &roster[i]
		}
		if c == nil {
			continue
		}
		if d.HP != nil {
			c.HP = *d.HP
		}
		if d.MP != nil {
			c.MP = *d.MP
		}
		if d.MaxHP != nil {
			c.MaxHP = *d.MaxHP
		}
		if d.MaxMP != nil {
			c.MaxMP = *d.MaxMP
		}
		c.ClampVitals()
	}
}

// numericProjection fingerprints every vital in the session. Two identical
// projections around a merge mean the oracle's numbers were a no-op and the
// deterministic fallback must run.
func numericProjection(s *Session) string {
	var sb strings.Builder
	writeVitals := func(c *Combatant) {
		fmt.Fprintf(&sb, "%s=%d/%d,%d/%d;", c.Name, c.HP, c.MaxHP, c.MP, c.MaxMP)
	}
	writeVitals(&s.Player)
	for i := range s.Enemies {
		writeVitals(&s.Enemies[i])
	}
	for i := range s.Allies {
		writeVitals(&s.Allies[i])
	}
	return sb.String()
}
