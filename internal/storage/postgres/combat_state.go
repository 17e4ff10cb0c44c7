package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msw2004727/FB-sub000/internal/game/combat"
	"github.com/msw2004727/FB-sub000/internal/game/session"
	"github.com/msw2004727/FB-sub000/internal/game/settle"
)

// CombatStateRepository persists active combat sessions and staged
// settlements. One row of each at most per player.
type CombatStateRepository struct {
	db *pgxpool.Pool
}

// NewCombatStateRepository creates a CombatStateRepository backed by the
// given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCombatStateRepository(db *pgxpool.Pool) *CombatStateRepository {
	return &CombatStateRepository{db: db}
}

// ActiveSession returns the player's active session.
//
// Postcondition: Returns the session or combat.ErrNoActiveSession.
func (r *CombatStateRepository) ActiveSession(ctx context.Context, playerID string) (*combat.Session, error) {
	var state []byte
	err := r.db.QueryRow(ctx, `
		SELECT state FROM combat_sessions WHERE player_id = $1`,
		playerID,
	).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, combat.ErrNoActiveSession
		}
		return nil, fmt.Errorf("querying session for player %s: %w", playerID, err)
	}

	var s combat.Session
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, fmt.Errorf("decoding session for player %s: %w", playerID, err)
	}
	return &s, nil
}

// CreateSession inserts the player's session.
//
// Postcondition: Returns session.ErrCombatInProgress if a session already
// exists; the single-session invariant is enforced by the primary key.
func (r *CombatStateRepository) CreateSession(ctx context.Context, s *combat.Session) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session for player %s: %w", s.PlayerID, err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO combat_sessions (player_id, turn, state)
		VALUES ($1, $2, $3)`,
		s.PlayerID, s.Turn, state,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return session.ErrCombatInProgress
		}
		return fmt.Errorf("inserting session for player %s: %w", s.PlayerID, err)
	}
	return nil
}

// SaveSession writes the session only if the stored turn counter still
// equals expectedTurn.
//
// Postcondition: Returns combat.ErrSessionConflict when the stored session
// advanced (or disappeared) since it was read; nothing is written then.
func (r *CombatStateRepository) SaveSession(ctx context.Context, s *combat.Session, expectedTurn int) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session for player %s: %w", s.PlayerID, err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE combat_sessions
		SET turn = $2, state = $3, updated_at = now()
		WHERE player_id = $1 AND turn = $4`,
		s.PlayerID, s.Turn, state, expectedTurn,
	)
	if err != nil {
		return fmt.Errorf("updating session for player %s: %w", s.PlayerID, err)
	}
	if tag.RowsAffected() == 0 {
		return combat.ErrSessionConflict
	}
	return nil
}

// DeleteSession removes the player's session; absence is not an error.
func (r *CombatStateRepository) DeleteSession(ctx context.Context, playerID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM combat_sessions WHERE player_id = $1`, playerID)
	if err != nil {
		return fmt.Errorf("deleting session for player %s: %w", playerID, err)
	}
	return nil
}

// CompleteSession deletes the session and stages the settlement in one
// transaction, guarded by the turn counter.
//
// Postcondition: Returns combat.ErrSessionConflict and changes nothing when
// the stored session advanced (or disappeared) since it was read; otherwise
// the session row is gone and the settlement row exists.
func (r *CombatStateRepository) CompleteSession(ctx context.Context, p *combat.PendingSettlement, expectedTurn int) error {
	finalState, err := json.Marshal(p.FinalState)
	if err != nil {
		return fmt.Errorf("encoding settlement for player %s: %w", p.PlayerID, err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning completion for player %s: %w", p.PlayerID, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM combat_sessions WHERE player_id = $1 AND turn = $2`,
		p.PlayerID, expectedTurn,
	)
	if err != nil {
		return fmt.Errorf("deleting finished session for player %s: %w", p.PlayerID, err)
	}
	if tag.RowsAffected() == 0 {
		return combat.ErrSessionConflict
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO pending_settlements (player_id, final_state, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id) DO UPDATE SET
			final_state = EXCLUDED.final_state,
			created_at = EXCLUDED.created_at`,
		p.PlayerID, finalState, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("staging settlement for player %s: %w", p.PlayerID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing completion for player %s: %w", p.PlayerID, err)
	}
	return nil
}

// PendingSettlement returns the player's staged settlement.
//
// Postcondition: Returns the settlement or settle.ErrNothingToSettle.
func (r *CombatStateRepository) PendingSettlement(ctx context.Context, playerID string) (*combat.PendingSettlement, error) {
	var (
		p          combat.PendingSettlement
		finalState []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT player_id, final_state, created_at
		FROM pending_settlements WHERE player_id = $1`,
		playerID,
	).Scan(&p.PlayerID, &finalState, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, settle.ErrNothingToSettle
		}
		return nil, fmt.Errorf("querying settlement for player %s: %w", playerID, err)
	}
	if err := json.Unmarshal(finalState, &p.FinalState); err != nil {
		return nil, fmt.Errorf("decoding settlement for player %s: %w", playerID, err)
	}
	return &p, nil
}

// DeleteSettlement removes the staged settlement; absence is not an error.
func (r *CombatStateRepository) DeleteSettlement(ctx context.Context, playerID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM pending_settlements WHERE player_id = $1`, playerID)
	if err != nil {
		return fmt.Errorf("deleting settlement for player %s: %w", playerID, err)
	}
	return nil
}
