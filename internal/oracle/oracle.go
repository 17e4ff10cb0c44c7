// Package oracle defines the contract with the narrative-generation service.
//
// The oracle's prose is authoritative; its structured payload is only a hint.
// Every numeric field that comes back crosses a trust boundary and is
// re-clamped or re-derived by the combat engine before it touches game state.
package oracle

import "context"

// Status values the oracle may report for a combat turn.
const (
	StatusOngoing = "ongoing"
	StatusEnded   = "ended"
)

// Oracle is the narrative-generation service. All methods block on remote
// I/O; a returned error means the call itself failed (transport, timeout)
// and is retryable. Malformed payloads are never surfaced as errors:
// implementations degrade to zero-valued results instead, and callers fall
// back to deterministic simulation.
type Oracle interface {
	// SetupCombat asks for an encounter roster and opening narration.
	SetupCombat(ctx context.Context, req SetupRequest) (*SetupResult, error)
	// ResolveAction narrates one combat turn and proposes state deltas.
	ResolveAction(ctx context.Context, req ActionRequest) (*ActionResult, error)
	// ResolveSurrender adjudicates a surrender attempt.
	ResolveSurrender(ctx context.Context, req SurrenderRequest) (*SurrenderResult, error)
	// ResolvePostCombat produces the settlement outcome for a finished fight.
	ResolvePostCombat(ctx context.Context, req PostCombatRequest) (*PostCombatResult, error)
}

// Profile is the trusted player summary sent with every oracle call.
type Profile struct {
	Name       string   `json:"name"`
	MaxHP      int      `json:"maxHp"`
	MaxMP      int      `json:"maxMp"`
	Morality   int      `json:"morality"`
	WeaponType string   `json:"weaponType,omitempty"`
	Skills     []string `json:"skills,omitempty"`
}

// CombatantState is the authoritative per-combatant snapshot sent to the
// oracle.
type CombatantState struct {
	Name   string   `json:"name"`
	HP     int      `json:"hp"`
	MaxHP  int      `json:"maxHp"`
	MP     int      `json:"mp"`
	MaxMP  int      `json:"maxMp"`
	Skills []string `json:"skills,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// SessionState is the authoritative session snapshot sent to the oracle.
type SessionState struct {
	Turn       int              `json:"turn"`
	Player     CombatantState   `json:"player"`
	Enemies    []CombatantState `json:"enemies"`
	Allies     []CombatantState `json:"allies,omitempty"`
	Bystanders []string         `json:"bystanders,omitempty"`
	Log        []string         `json:"log,omitempty"`
	IsSparring bool             `json:"isSparring"`
	Intention  string           `json:"intention"`
}

// SetupRequest describes the encounter the player is trying to start.
type SetupRequest struct {
	Profile              Profile  `json:"profile"`
	TargetName           string   `json:"targetName"`
	Intention            string   `json:"intention"`
	IntentionDescription string   `json:"intentionDescription"`
	Location             string   `json:"location"`
	RecentHistory        []string `json:"recentHistory,omitempty"`
}

// SetupResult is the oracle's proposed encounter. Untrusted: the session
// manager guarantees the named target's presence and normalizes all vitals.
type SetupResult struct {
	Enemies    DeltaList `json:"combatants"`
	Allies     DeltaList `json:"allies"`
	Bystanders NameList  `json:"bystanders"`
	Intro      string    `json:"combatIntro"`
}

// ActionRequest carries a validated player action and the full session state.
type ActionRequest struct {
	Profile    Profile      `json:"profile"`
	Session    SessionState `json:"session"`
	Strategy   string       `json:"strategy"`
	SkillName  string       `json:"skillName,omitempty"`
	PowerLevel int          `json:"powerLevel"`
	TargetName string       `json:"targetName"`
}

// ActionResult is the oracle's proposed turn outcome. Narrative is trusted
// verbatim (with a default substituted when blank); Update and Status are
// hints only.
type ActionResult struct {
	Narrative string       `json:"narrative"`
	Update    *StateUpdate `json:"updatedState"`
	Status    string       `json:"status"`
}

// StateUpdate is the oracle's proposed partial session state.
type StateUpdate struct {
	Player  *CombatantDelta `json:"player"`
	Enemies DeltaList       `json:"enemies"`
	Allies  DeltaList       `json:"allies"`
}

// SurrenderRequest asks the oracle to adjudicate a surrender attempt.
type SurrenderRequest struct {
	Profile Profile      `json:"profile"`
	Session SessionState `json:"session"`
}

// SurrenderOutcome is the structured settlement of an accepted surrender.
type SurrenderOutcome struct {
	Summary       string          `json:"summary"`
	PlayerChanges ProgressChanges `json:"playerChanges"`
	ItemChanges   []ItemChange    `json:"itemChanges"`
}

// SurrenderResult is the oracle's verdict on a surrender attempt.
type SurrenderResult struct {
	Accepted  bool              `json:"accepted"`
	Narrative string            `json:"narrative"`
	Outcome   *SurrenderOutcome `json:"outcome"`
}

// PostCombatRequest asks for the settlement outcome of a finished fight.
type PostCombatRequest struct {
	Profile    Profile      `json:"profile"`
	FinalState SessionState `json:"finalState"`
	Log        []string     `json:"log"`
	KillerName string       `json:"killerName,omitempty"`
	Victory    bool         `json:"victory"`
}

// PostCombatOutcome is the oracle's proposed permanent consequences.
type PostCombatOutcome struct {
	Summary       string          `json:"summary"`
	EventTitle    string          `json:"EVT"`
	Suggestion    string          `json:"suggestion"`
	PlayerChanges ProgressChanges `json:"playerChanges"`
	ItemChanges   []ItemChange    `json:"itemChanges"`
	NPCUpdates    []NPCUpdate     `json:"npcUpdates"`
}

// PostCombatResult wraps the settlement outcome.
type PostCombatResult struct {
	Outcome PostCombatOutcome `json:"outcome"`
}

// ProgressChanges are proposed deltas to permanent player numbers.
type ProgressChanges struct {
	PowerExternal int `json:"powerExternal"`
	PowerInternal int `json:"powerInternal"`
	Morality      int `json:"morality"`
	DeathCooldown int `json:"deathCooldown"`
}

// ItemChange is one proposed inventory delta.
type ItemChange struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// NPCUpdate is one proposed NPC state change from settlement.
type NPCUpdate struct {
	Name              string `json:"name"`
	IsDeceased        bool   `json:"isDeceased"`
	Killer            string `json:"killer,omitempty"`
	FriendlinessDelta int    `json:"friendlinessChange"`
}
