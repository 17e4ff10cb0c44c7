package combat

import "fmt"

// targetPool returns the legal targets for a strategy, in priority order.
// Attack targets living enemies. Heal and support target the player first,
// then living allies. Defend and evade are always self-directed.
func targetPool(s *Session, strat Strategy) []*Combatant {
	switch strat {
	case StrategyAttack:
		return s.LivingEnemies()
	case StrategyHeal, StrategySupport:
		pool := []*Combatant{&s.Player}
		for i := range s.Allies {
			if s.Allies[i].IsAlive() {
				pool = append(pool, &s.Allies[i])
			}
		}
		return pool
	case StrategyDefend, StrategyEvade:
		return []*Combatant{&s.Player}
	}
	return nil
}

// resolveTarget picks the target for an action. An empty name selects the
// pool's first entry; a non-empty name must match a pool member exactly.
//
// Postcondition: Returns a combatant from the session, or
// ErrNoValidTarget / ErrTargetNotInPool.
func resolveTarget(s *Session, strat Strategy, name string) (*Combatant, error) {
	pool := targetPool(s, strat)
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoValidTarget, strat)
	}
	if name == "" {
		return pool[0], nil
	}
	for _, c := range pool {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q with strategy %s", ErrTargetNotInPool, name, strat)
}
