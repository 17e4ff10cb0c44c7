package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/msw2004727/FB-sub000/internal/game/combat"
	"github.com/msw2004727/FB-sub000/internal/game/player"
	"github.com/msw2004727/FB-sub000/internal/oracle"
)

// SurrenderResult is the outcome of a surrender attempt.
type SurrenderResult struct {
	Accepted  bool
	Narrative string
	// Session is the post-attempt state when the surrender was rejected and
	// the fight continues; nil when accepted.
	Session *combat.Session
}

// Surrender asks the opposition for quarter.
//
// The attempt is logged in the session whether or not it is accepted. On
// rejection the fight continues unchanged. On acceptance the session is
// deleted without staging a settlement; the oracle's surrender terms
// (atomic progress increments, item deltas, a history entry) are applied
// synchronously, since no further combat math depends on them.
func (m *Manager) Surrender(ctx context.Context, playerID string) (*SurrenderResult, error) {
	p, err := m.players.PlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("loading player %s: %w", playerID, err)
	}
	sess, err := m.sessions.ActiveSession(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("loading session for player %s: %w", playerID, err)
	}

	verdict, err := m.oracle.ResolveSurrender(ctx, oracle.SurrenderRequest{
		Profile: combat.ProfileFor(p),
		Session: sess.Snapshot(),
	})
	if err != nil {
		return nil, fmt.Errorf("resolving surrender for player %s: %w", playerID, err)
	}

	narrative := verdict.Narrative
	if narrative == "" {
		if verdict.Accepted {
			narrative = fmt.Sprintf("%s lowers their guard, and the opposition accepts the surrender.", p.Name)
		} else {
			narrative = fmt.Sprintf("%s pleads for quarter, but the opposition refuses.", p.Name)
		}
	}
	sess.AppendLog(narrative)

	if !verdict.Accepted {
		if err := m.sessions.SaveSession(ctx, sess, sess.Turn); err != nil {
			return nil, fmt.Errorf("saving session after rejected surrender for player %s: %w", playerID, err)
		}
		return &SurrenderResult{Accepted: false, Narrative: narrative, Session: sess}, nil
	}

	if err := m.sessions.DeleteSession(ctx, playerID); err != nil {
		return nil, fmt.Errorf("deleting surrendered session for player %s: %w", playerID, err)
	}
	if err := m.applySurrenderTerms(ctx, playerID, narrative, verdict.Outcome); err != nil {
		return nil, err
	}

	return &SurrenderResult{Accepted: true, Narrative: narrative}, nil
}

func (m *Manager) applySurrenderTerms(ctx context.Context, playerID, narrative string, outcome *oracle.SurrenderOutcome) error {
	summary := narrative
	if outcome != nil {
		if outcome.Summary != "" {
			summary = outcome.Summary
		}

		delta := player.ProgressDelta{
			PowerExternal: outcome.PlayerChanges.PowerExternal,
			PowerInternal: outcome.PlayerChanges.PowerInternal,
			Morality:      outcome.PlayerChanges.Morality,
			DeathCooldown: outcome.PlayerChanges.DeathCooldown,
		}
		if !delta.IsZero() {
			if err := m.players.ApplyProgress(ctx, playerID, delta); err != nil {
				return fmt.Errorf("applying surrender progress for player %s: %w", playerID, err)
			}
		}

		if len(outcome.ItemChanges) > 0 {
			items := make([]player.ItemDelta, len(outcome.ItemChanges))
			for i, ic := range outcome.ItemChanges {
				items[i] = player.ItemDelta{Name: ic.Name, Quantity: ic.Quantity}
			}
			if err := m.players.ApplyItemDeltas(ctx, playerID, items); err != nil {
				return fmt.Errorf("applying surrender items for player %s: %w", playerID, err)
			}
		}
	}

	if err := m.history.RecordEvent(ctx, playerID, "Surrender", summary); err != nil {
		m.logger.Warn("could not record surrender history entry",
			zap.String("player_id", playerID),
			zap.Error(err),
		)
	}
	return nil
}
