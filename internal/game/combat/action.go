package combat

import "errors"

// Strategy is the player's declared approach for one combat turn.
type Strategy string

const (
	StrategyAttack  Strategy = "attack"
	StrategyDefend  Strategy = "defend"
	StrategyEvade   Strategy = "evade"
	StrategySupport Strategy = "support"
	StrategyHeal    Strategy = "heal"
)

// Valid reports whether s is a recognized strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyAttack, StrategyDefend, StrategyEvade, StrategySupport, StrategyHeal:
		return true
	}
	return false
}

// Action is one validated-shape combat action as submitted by the player.
// Semantic validation happens in Engine.ResolveTurn.
type Action struct {
	Strategy   Strategy `json:"strategy"`
	SkillName  string   `json:"skillName,omitempty"`
	PowerLevel int      `json:"powerLevel"`
	TargetName string   `json:"targetName,omitempty"`
}

// Validation and state errors for combat turns. All of them mean the
// request was rejected before any state change.
var (
	// ErrNoActiveSession indicates the player has no fight in progress.
	ErrNoActiveSession = errors.New("no active combat session")
	// ErrInvalidStrategy indicates an unrecognized strategy value.
	ErrInvalidStrategy = errors.New("invalid strategy")
	// ErrUnknownSkill indicates a skill the player has not learned.
	ErrUnknownSkill = errors.New("player does not know that skill")
	// ErrWeaponMismatch indicates the skill requires a weapon the player
	// does not have equipped.
	ErrWeaponMismatch = errors.New("equipped weapon does not match skill requirement")
	// ErrInsufficientResource indicates the player cannot pay the skill's
	// mp cost at the chosen power level.
	ErrInsufficientResource = errors.New("insufficient mp for skill")
	// ErrNoValidTarget indicates the strategy's target pool is empty.
	ErrNoValidTarget = errors.New("no valid target for strategy")
	// ErrTargetNotInPool indicates the named target exists but is not a
	// legal target for the strategy.
	ErrTargetNotInPool = errors.New("named target is not in the strategy's target pool")
	// ErrSessionConflict indicates the session advanced concurrently; the
	// turn was not applied and may be retried against fresh state.
	ErrSessionConflict = errors.New("combat session was modified concurrently")
)
