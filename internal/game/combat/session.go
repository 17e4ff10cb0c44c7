package combat

import (
	"time"

	"github.com/msw2004727/FB-sub000/internal/oracle"
)

// Intention is the player's declared goal for a fight, fixed at initiation.
type Intention string

const (
	// IntentionSpar is a friendly match; the fight ends without lasting harm.
	IntentionSpar Intention = "spar"
	// IntentionSubdue aims to defeat without killing.
	IntentionSubdue Intention = "subdue"
	// IntentionKill aims to kill; defeated enemies die at settlement.
	IntentionKill Intention = "kill"
)

// Valid reports whether i is a recognized intention.
func (i Intention) Valid() bool {
	switch i {
	case IntentionSpar, IntentionSubdue, IntentionKill:
		return true
	}
	return false
}

// MaxLogEntries caps the session combat log. Appending beyond the cap drops
// the oldest entries.
const MaxLogEntries = 200

// Session is the authoritative state of one active fight. A player has at
// most one session at a time; PlayerID is the session key.
type Session struct {
	PlayerID   string      `json:"playerId"`
	Turn       int         `json:"turn"`
	Player     Combatant   `json:"player"`
	Enemies    []Combatant `json:"enemies"`
	Allies     []Combatant `json:"allies,omitempty"`
	Bystanders []string    `json:"bystanders,omitempty"`
	Log        []string    `json:"log"`
	IsSparring bool        `json:"isSparring"`
	Intention  Intention   `json:"intention"`
	StartedAt  time.Time   `json:"startedAt"`
}

// AppendLog appends entries to the combat log, keeping at most
// MaxLogEntries of the newest.
func (s *Session) AppendLog(entries ...string) {
	s.Log = append(s.Log, entries...)
	if excess := len(s.Log) - MaxLogEntries; excess > 0 {
		s.Log = append(s.Log[:0], s.Log[excess:]...)
	}
}

// LivingEnemies returns pointers to all enemies with hp > 0, in roster order.
func (s *Session) LivingEnemies() []*Combatant {
	var out []*Combatant
	for i := range s.Enemies {
		if s.Enemies[i].IsAlive() {
			out = append(out, &s.Enemies[i])
		}
	}
	return out
}

// AllEnemiesDown reports whether no enemy can still act.
func (s *Session) AllEnemiesDown() bool {
	return len(s.LivingEnemies()) == 0
}

// FindEnemy returns the enemy with the exact name, or nil.
func (s *Session) FindEnemy(name string) *Combatant {
	return findByName(s.Enemies, name)
}

// FindAlly returns the ally with the exact name, or nil.
func (s *Session) FindAlly(name string) *Combatant {
	return findByName(s.Allies, name)
}

func findByName(roster []Combatant, name string) *Combatant {
	for i := range roster {
		if roster[i].Name == name {
			return &roster[i]
		}
	}
	return nil
}

// Snapshot converts the session into the wire form sent to the oracle.
func (s *Session) Snapshot() oracle.SessionState {
	return oracle.SessionState{
		Turn:       s.Turn,
		Player:     snapshotCombatant(s.Player),
		Enemies:    snapshotRoster(s.Enemies),
		Allies:     snapshotRoster(s.Allies),
		Bystanders: s.Bystanders,
		Log:        s.Log,
		IsSparring: s.IsSparring,
		Intention:  string(s.Intention),
	}
}

func snapshotCombatant(c Combatant) oracle.CombatantState {
	return oracle.CombatantState{
		Name:   c.Name,
		HP:     c.HP,
		MaxHP:  c.MaxHP,
		MP:     c.MP,
		MaxMP:  c.MaxMP,
		Skills: c.Skills,
		Tags:   c.Tags,
	}
}

func snapshotRoster(roster []Combatant) []oracle.CombatantState {
	if len(roster) == 0 {
		return nil
	}
	out := make([]oracle.CombatantState, len(roster))
	for i, c := range roster {
		out[i] = snapshotCombatant(c)
	}
	return out
}

// PendingSettlement is the staged outcome of a finished fight, awaiting
// idempotent finalization. It survives the session's deletion.
type PendingSettlement struct {
	PlayerID   string    `json:"playerId"`
	FinalState Session   `json:"finalState"`
	CreatedAt  time.Time `json:"createdAt"`
}
