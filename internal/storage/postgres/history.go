package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameEvent is one permanent entry in a player's chronicle.
type GameEvent struct {
	ID        uuid.UUID
	PlayerID  string
	Title     string
	Summary   string
	CreatedAt time.Time
}

// HistoryRepository records and reads permanent game-history entries.
type HistoryRepository struct {
	db *pgxpool.Pool
}

// NewHistoryRepository creates a HistoryRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// RecordEvent appends an entry to the player's chronicle.
func (r *HistoryRepository) RecordEvent(ctx context.Context, playerID, title, summary string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO game_events (id, player_id, title, summary)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), playerID, title, summary,
	)
	if err != nil {
		return fmt.Errorf("recording event for player %s: %w", playerID, err)
	}
	return nil
}

// RecentEvents returns the player's newest entries, most recent first.
//
// Precondition: limit must be > 0.
func (r *HistoryRepository) RecentEvents(ctx context.Context, playerID string, limit int) ([]*GameEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, player_id, title, summary, created_at
		FROM game_events
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events for player %s: %w", playerID, err)
	}
	defer rows.Close()

	events := make([]*GameEvent, 0, limit)
	for rows.Next() {
		var e GameEvent
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Title, &e.Summary, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
