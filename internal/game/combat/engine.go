package combat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/msw2004727/FB-sub000/internal/game/player"
	"github.com/msw2004727/FB-sub000/internal/game/skill"
	"github.com/msw2004727/FB-sub000/internal/oracle"
)

// PlayerSource loads persistent player documents.
type PlayerSource interface {
	PlayerByID(ctx context.Context, id string) (*player.Player, error)
}

// SessionStore persists active sessions and staged settlements.
type SessionStore interface {
	// ActiveSession returns the player's session, or ErrNoActiveSession.
	ActiveSession(ctx context.Context, playerID string) (*Session, error)
	// SaveSession writes s only if the stored turn still equals
	// expectedTurn, returning ErrSessionConflict otherwise.
	SaveSession(ctx context.Context, s *Session, expectedTurn int) error
	// CompleteSession atomically deletes the session and stages p, only if
	// the stored turn still equals expectedTurn. The turn counter guards
	// the end of a combat the same way it guards every other turn: a stale
	// resolver gets ErrSessionConflict and nothing changes.
	CompleteSession(ctx context.Context, p *PendingSettlement, expectedTurn int) error
}

// Engine resolves combat turns against the oracle.
type Engine struct {
	oracle   oracle.Oracle
	skills   skill.Provider
	players  PlayerSource
	sessions SessionStore
	logger   *zap.Logger
}

// NewEngine creates a combat engine.
func NewEngine(o oracle.Oracle, skills skill.Provider, players PlayerSource, sessions SessionStore, logger *zap.Logger) *Engine {
	return &Engine{
		oracle:   o,
		skills:   skills,
		players:  players,
		sessions: sessions,
		logger:   logger,
	}
}

// TurnResult is the outcome of one resolved combat turn.
type TurnResult struct {
	Narrative string
	// Session is the post-turn state. When Ended it is the final state,
	// already staged for settlement.
	Session Session
	Ended   bool
}

// ProfileFor builds the trusted oracle profile from a player document.
func ProfileFor(p *player.Player) oracle.Profile {
	return oracle.Profile{
		Name:       p.Name,
		MaxHP:      p.MaxHP(),
		MaxMP:      p.MaxMP(),
		Morality:   p.Morality,
		WeaponType: p.WeaponType,
		Skills:     p.SkillNames(),
	}
}

// ResolveTurn validates and resolves one combat turn for the player.
//
// Validation rejects before any state change. The oracle's narrative is
// kept verbatim; its numbers are merged under re-clamping, and if they
// amount to a numeric no-op the deterministic fallback simulates the turn
// instead. The turn either commits in full or, on a concurrent-modification
// conflict, not at all.
//
// Postcondition: On Ended, the session is deleted and a PendingSettlement
// is staged under the player's id.
func (e *Engine) ResolveTurn(ctx context.Context, playerID string, act Action) (*TurnResult, error) {
	p, err := e.players.PlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("loading player %s: %w", playerID, err)
	}
	sess, err := e.sessions.ActiveSession(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("loading session for player %s: %w", playerID, err)
	}

	if !act.Strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, act.Strategy)
	}
	if act.PowerLevel < 1 {
		act.PowerLevel = 1
	}

	skillLevel := 0
	cost := 0
	if act.SkillName != "" {
		known, ok := p.KnowsSkill(act.SkillName)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, act.SkillName)
		}
		tmpl, err := e.skills.Template(ctx, act.SkillName)
		if err != nil {
			return nil, fmt.Errorf("loading skill template %q: %w", act.SkillName, err)
		}
		if !skill.WeaponRequirementMet(tmpl.WeaponType, p.WeaponType) {
			return nil, fmt.Errorf("%w: %q requires %q", ErrWeaponMismatch, act.SkillName, tmpl.WeaponType)
		}
		skillLevel = known.Level
		if act.PowerLevel > skillLevel {
			act.PowerLevel = skillLevel
		}
		cost = tmpl.Cost * act.PowerLevel
		if sess.Player.MP < cost {
			return nil, fmt.Errorf("%w: need %d mp, have %d", ErrInsufficientResource, cost, sess.Player.MP)
		}
	} else {
		// Unarmed, unskilled efforts do not scale with power level.
		act.PowerLevel = 1
	}

	target, err := resolveTarget(sess, act.Strategy, act.TargetName)
	if err != nil {
		return nil, err
	}

	ores, err := e.oracle.ResolveAction(ctx, oracle.ActionRequest{
		Profile:    ProfileFor(p),
		Session:    sess.Snapshot(),
		Strategy:   string(act.Strategy),
		SkillName:  act.SkillName,
		PowerLevel: act.PowerLevel,
		TargetName: target.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("resolving turn %d for player %s: %w", sess.Turn, playerID, err)
	}

	before := numericProjection(sess)
	mpBefore := sess.Player.MP

	applyUpdate(sess, ores.Update)

	// The mp cost is charged exactly once. If the oracle already lowered
	// the player's mp, its deduction stands and no second charge happens.
	if cost > 0 && sess.Player.MP >= mpBefore {
		sess.Player.MP -= cost
		sess.Player.ClampVitals()
	}

	account := ""
	if numericProjection(sess) == before {
		account = applyFallback(sess, act, skillLevel, target)
		e.logger.Debug("oracle numbers were a no-op, fallback simulation applied",
			zap.String("player_id", playerID),
			zap.Int("turn", sess.Turn),
		)
	}

	narrative := ores.Narrative
	if narrative == "" {
		narrative = account
	}
	if narrative == "" {
		narrative = fmt.Sprintf("%s and the opposition trade cautious blows.", sess.Player.Name)
	}

	expectedTurn := sess.Turn
	sess.Turn++
	sess.AppendLog(fmt.Sprintf("Turn %d: %s", sess.Turn, narrative))

	ended := sess.AllEnemiesDown()
	if ores.Status == oracle.StatusEnded {
		ended = true
	} else if ended && ores.Status == oracle.StatusOngoing {
		e.logger.Info("oracle reported ongoing with no enemies standing, ending combat",
			zap.String("player_id", playerID),
			zap.Int("turn", sess.Turn),
		)
	}

	if ended {
		if err := e.sessions.CompleteSession(ctx, &PendingSettlement{
			PlayerID:   playerID,
			FinalState: *sess,
			CreatedAt:  time.Now().UTC(),
		}, expectedTurn); err != nil {
			return nil, fmt.Errorf("completing session for player %s: %w", playerID, err)
		}
	} else {
		if err := e.sessions.SaveSession(ctx, sess, expectedTurn); err != nil {
			return nil, fmt.Errorf("saving session for player %s: %w", playerID, err)
		}
	}

	return &TurnResult{
		Narrative: narrative,
		Session:   *sess,
		Ended:     ended,
	}, nil
}
