package combat

import "fmt"

// Deterministic fallback coefficients, used when the oracle's proposed
// numbers change nothing.
const (
	fallbackSkillWeight = 2
	fallbackPowerWeight = 3
	fallbackSkillBonus  = 3
	// counterPercent of the dealt damage comes back at the attacker while
	// the target still stands.
	counterPercent = 45
	// fallbackMinimumEffect keeps even an unskilled effort from being
	// mechanically meaningless.
	fallbackMinimumEffect = 4
)

// fallbackMagnitude computes the effect size of a simulated action.
//
// Postcondition: Returns >= fallbackMinimumEffect.
func fallbackMagnitude(skillLevel, powerLevel int, hasSkill bool) int {
	m := skillLevel*fallbackSkillWeight + powerLevel*fallbackPowerWeight
	if hasSkill {
		m += fallbackSkillBonus
	}
	if m < fallbackMinimumEffect {
		m = fallbackMinimumEffect
	}
	return m
}

// applyFallback simulates the turn deterministically and returns a one-line
// account of what happened.
//
// Precondition: target came from resolveTarget for act.Strategy.
func applyFallback(s *Session, act Action, skillLevel int, target *Combatant) string {
	magnitude := fallbackMagnitude(skillLevel, act.PowerLevel, act.SkillName != "")

	switch act.Strategy {
	case StrategyAttack:
		target.HP -= magnitude
		target.ClampVitals()
		if !target.IsAlive() {
			return fmt.Sprintf("%s strikes %s down for %d damage.", s.Player.Name, target.Name, magnitude)
		}
		counter := magnitude * counterPercent / 100
		s.Player.HP -= counter
		s.Player.ClampVitals()
		return fmt.Sprintf("%s hits %s for %d damage and takes %d in return.",
			s.Player.Name, target.Name, magnitude, counter)

	case StrategyHeal:
		target.HP += magnitude
		target.ClampVitals()
		return fmt.Sprintf("%s restores %d hp to %s.", s.Player.Name, magnitude, target.Name)

	case StrategySupport:
		target.MP += magnitude
		target.ClampVitals()
		return fmt.Sprintf("%s channels %d mp to %s.", s.Player.Name, magnitude, target.Name)

	case StrategyDefend:
		return fmt.Sprintf("%s holds a guarded stance.", s.Player.Name)

	case StrategyEvade:
		return fmt.Sprintf("%s circles away, giving no opening.", s.Player.Name)
	}
	return ""
}
