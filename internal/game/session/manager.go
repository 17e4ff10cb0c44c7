// Package session owns the lifecycle boundaries of a fight: initiating the
// single active session a player may hold, and ending it early through
// surrender. Turn-by-turn resolution lives in the combat package.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/msw2004727/FB-sub000/internal/game/combat"
	"github.com/msw2004727/FB-sub000/internal/game/location"
	"github.com/msw2004727/FB-sub000/internal/game/npc"
	"github.com/msw2004727/FB-sub000/internal/game/player"
	"github.com/msw2004727/FB-sub000/internal/game/skill"
	"github.com/msw2004727/FB-sub000/internal/oracle"
)

// Initiation and surrender errors.
var (
	// ErrInvalidIntention indicates an unrecognized intention value.
	ErrInvalidIntention = errors.New("invalid combat intention")
	// ErrMissingTarget indicates initiation without a target name.
	ErrMissingTarget = errors.New("combat target must be named")
	// ErrCombatInProgress indicates the player already has an active session.
	ErrCombatInProgress = errors.New("combat already in progress")
	// ErrNotColocated indicates the target is somewhere else entirely.
	ErrNotColocated = errors.New("target is not at the player's location")
	// ErrTargetUnavailable indicates the target cannot be fought, because it
	// is unknown or already deceased.
	ErrTargetUnavailable = errors.New("target is unavailable for combat")
)

// Baseline vitals for combatants the oracle described without numbers.
const (
	baselineEnemyHP = 50
	baselineEnemyMP = 20
)

// PlayerStore loads player documents and applies surrender consequences.
type PlayerStore interface {
	PlayerByID(ctx context.Context, id string) (*player.Player, error)
	// ApplyProgress adds the delta to the player's permanent numbers in a
	// single atomic increment transaction.
	ApplyProgress(ctx context.Context, id string, d player.ProgressDelta) error
	ApplyItemDeltas(ctx context.Context, id string, deltas []player.ItemDelta) error
}

// NPCStore loads NPC documents.
type NPCStore interface {
	// NPCByName returns the NPC, or npc.ErrNotFound.
	NPCByName(ctx context.Context, name string) (*npc.NPC, error)
}

// SessionStore persists active sessions and clears staged settlements.
type SessionStore interface {
	// ActiveSession returns the player's session, or combat.ErrNoActiveSession.
	ActiveSession(ctx context.Context, playerID string) (*combat.Session, error)
	// CreateSession inserts a new session, failing if one already exists.
	CreateSession(ctx context.Context, s *combat.Session) error
	SaveSession(ctx context.Context, s *combat.Session, expectedTurn int) error
	DeleteSession(ctx context.Context, playerID string) error
	// DeleteSettlement removes any staged settlement for the player; absence
	// is not an error.
	DeleteSettlement(ctx context.Context, playerID string) error
}

// HistoryStore records permanent game-history entries.
type HistoryStore interface {
	RecordEvent(ctx context.Context, playerID, title, summary string) error
}

// Manager initiates combat sessions and negotiates surrenders.
type Manager struct {
	oracle   oracle.Oracle
	skills   skill.Provider
	players  PlayerStore
	npcs     NPCStore
	sessions SessionStore
	history  HistoryStore
	logger   *zap.Logger
}

// NewManager creates a session manager.
func NewManager(o oracle.Oracle, skills skill.Provider, players PlayerStore, npcs NPCStore, sessions SessionStore, history HistoryStore, logger *zap.Logger) *Manager {
	return &Manager{
		oracle:   o,
		skills:   skills,
		players:  players,
		npcs:     npcs,
		sessions: sessions,
		history:  history,
		logger:   logger,
	}
}

// InitiateResult is a freshly created session with its opening narration.
type InitiateResult struct {
	Session *combat.Session
	Intro   string
}

// Initiate starts a fight against the named target.
//
// Eligibility runs before the oracle is consulted: the intention must be
// recognized, the target named, alive, and colocated with the player, and
// the player must not already be fighting. The oracle proposes the roster;
// the manager guarantees the named target appears among the enemies and
// re-derives every vital, so the session never depends on oracle numbers.
//
// Postcondition: On success, the player's single active session exists and
// no stale settlement remains. Permanent records are untouched.
func (m *Manager) Initiate(ctx context.Context, playerID, targetName string, intention combat.Intention) (*InitiateResult, error) {
	if !intention.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIntention, intention)
	}
	if targetName == "" {
		return nil, ErrMissingTarget
	}

	p, err := m.players.PlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("loading player %s: %w", playerID, err)
	}

	if _, err := m.sessions.ActiveSession(ctx, playerID); err == nil {
		return nil, ErrCombatInProgress
	} else if !errors.Is(err, combat.ErrNoActiveSession) {
		return nil, fmt.Errorf("checking active session for player %s: %w", playerID, err)
	}

	target, err := m.npcs.NPCByName(ctx, targetName)
	if err != nil {
		if errors.Is(err, npc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q is unknown", ErrTargetUnavailable, targetName)
		}
		return nil, fmt.Errorf("loading target %q: %w", targetName, err)
	}
	if target.Deceased {
		return nil, fmt.Errorf("%w: %q is deceased", ErrTargetUnavailable, targetName)
	}
	if !location.Overlaps(p.Location, target.Location) {
		return nil, fmt.Errorf("%w: player at %q, target at %q", ErrNotColocated, p.Location, target.Location)
	}

	setup, err := m.oracle.SetupCombat(ctx, oracle.SetupRequest{
		Profile:              combat.ProfileFor(p),
		TargetName:           targetName,
		Intention:            string(intention),
		IntentionDescription: describeIntention(p.Name, targetName, intention),
		Location:             p.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("setting up combat for player %s: %w", playerID, err)
	}

	sess := m.buildSession(ctx, p, targetName, intention, setup)

	// A stale settlement would violate the one-outcome-per-player invariant
	// once this fight ends.
	if err := m.sessions.DeleteSettlement(ctx, playerID); err != nil {
		m.logger.Warn("could not clear stale settlement before new combat",
			zap.String("player_id", playerID),
			zap.Error(err),
		)
	}
	if err := m.sessions.CreateSession(ctx, sess); err != nil {
		if errors.Is(err, ErrCombatInProgress) {
			return nil, ErrCombatInProgress
		}
		return nil, fmt.Errorf("persisting session for player %s: %w", playerID, err)
	}

	return &InitiateResult{Session: sess, Intro: setup.Intro}, nil
}

// buildSession assembles the authoritative session from the oracle's
// untrusted proposal.
func (m *Manager) buildSession(ctx context.Context, p *player.Player, targetName string, intention combat.Intention, setup *oracle.SetupResult) *combat.Session {
	sess := &combat.Session{
		PlayerID: p.ID,
		Player: combat.Combatant{
			Name:   p.Name,
			HP:     p.MaxHP(),
			MaxHP:  p.MaxHP(),
			MP:     p.MaxMP(),
			MaxMP:  p.MaxMP(),
			Skills: p.SkillNames(),
		},
		Bystanders: setup.Bystanders,
		IsSparring: intention == combat.IntentionSpar,
		Intention:  intention,
		StartedAt:  time.Now().UTC(),
	}

	enemies := setup.Enemies
	if _, ok := enemies.Find(targetName); !ok {
		enemies = append(oracle.DeltaList{{Name: targetName}}, enemies...)
		m.logger.Debug("oracle omitted the named target, synthesizing enemy entry",
			zap.String("player_id", p.ID),
			zap.String("target", targetName),
		)
	}
	sess.Enemies = m.normalizeRoster(ctx, enemies, skill.RoleAttack)
	sess.Allies = m.normalizeRoster(ctx, setup.Allies, skill.RoleSupport)

	if intro := setup.Intro; intro != "" {
		sess.AppendLog(intro)
	}
	return sess
}

// normalizeRoster converts oracle-proposed combatants into clamped
// combatants tagged with an inferred combat role.
func (m *Manager) normalizeRoster(ctx context.Context, deltas oracle.DeltaList, fallbackRole string) []combat.Combatant {
	var out []combat.Combatant
	for _, d := range deltas {
		if d.Name == "" {
			continue
		}
		c := normalizeCombatant(d)

		known := make([]skill.Known, len(c.Skills))
		for i, name := range c.Skills {
			known[i] = skill.Known{Name: name, Level: 1}
		}
		c.Tags = append(c.Tags, skill.InferRole(ctx, m.skills, known, fallbackRole))

		out = append(out, c)
	}
	return out
}

// normalizeCombatant derives complete, clamped vitals from whatever subset
// the oracle supplied. A missing max defaults to the present current value;
// entirely absent pairs fall back to the baseline.
func normalizeCombatant(d oracle.CombatantDelta) combat.Combatant {
	c := combat.Combatant{Name: d.Name, Skills: d.Skills}

	c.MaxHP = pick(d.MaxHP, pick(d.HP, baselineEnemyHP))
	c.HP = pick(d.HP, c.MaxHP)
	c.MaxMP = pick(d.MaxMP, pick(d.MP, baselineEnemyMP))
	c.MP = pick(d.MP, c.MaxMP)

	c.ClampVitals()
	return c
}

func pick(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}

func describeIntention(playerName, targetName string, intention combat.Intention) string {
	switch intention {
	case combat.IntentionSpar:
		return fmt.Sprintf("%s challenges %s to a friendly sparring match.", playerName, targetName)
	case combat.IntentionSubdue:
		return fmt.Sprintf("%s moves to subdue %s without killing.", playerName, targetName)
	case combat.IntentionKill:
		return fmt.Sprintf("%s attacks %s with killing intent.", playerName, targetName)
	}
	return fmt.Sprintf("%s confronts %s.", playerName, targetName)
}
