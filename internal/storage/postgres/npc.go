package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msw2004727/FB-sub000/internal/game/npc"
)

// NPCRepository provides NPC persistence operations. NPCs are keyed by name.
type NPCRepository struct {
	db *pgxpool.Pool
}

// NewNPCRepository creates an NPCRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewNPCRepository(db *pgxpool.Pool) *NPCRepository {
	return &NPCRepository{db: db}
}

// Upsert inserts or replaces an NPC document.
func (r *NPCRepository) Upsert(ctx context.Context, n *npc.NPC) error {
	relations, err := json.Marshal(n.Relations)
	if err != nil {
		return fmt.Errorf("encoding relations for npc %q: %w", n.Name, err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO npcs (name, location, friendliness, deceased, killed_by, relations)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (name) DO UPDATE SET
			location = EXCLUDED.location,
			friendliness = EXCLUDED.friendliness,
			deceased = EXCLUDED.deceased,
			killed_by = EXCLUDED.killed_by,
			relations = EXCLUDED.relations,
			updated_at = now()`,
		n.Name, n.Location, n.Friendliness, n.Deceased, n.KilledBy, relations,
	)
	if err != nil {
		return fmt.Errorf("upserting npc %q: %w", n.Name, err)
	}
	return nil
}

// NPCByName retrieves an NPC by name.
//
// Postcondition: Returns the NPC or npc.ErrNotFound.
func (r *NPCRepository) NPCByName(ctx context.Context, name string) (*npc.NPC, error) {
	n, err := scanNPC(r.db.QueryRow(ctx, `
		SELECT name, location, friendliness, deceased, killed_by, relations, updated_at
		FROM npcs WHERE name = $1`,
		name,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, npc.ErrNotFound
		}
		return nil, fmt.Errorf("querying npc %q: %w", name, err)
	}
	return n, nil
}

// MarkDeceased records the NPC's death and who caused it.
//
// Postcondition: Returns npc.ErrNotFound if no such NPC exists.
func (r *NPCRepository) MarkDeceased(ctx context.Context, name, killedBy string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE npcs SET deceased = TRUE, killed_by = $2, updated_at = now()
		WHERE name = $1`,
		name, killedBy,
	)
	if err != nil {
		return fmt.Errorf("marking npc %q deceased: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return npc.ErrNotFound
	}
	return nil
}

// AdjustFriendliness adds delta to the NPC's standing toward the player.
//
// Postcondition: Returns npc.ErrNotFound if no such NPC exists.
func (r *NPCRepository) AdjustFriendliness(ctx context.Context, name string, delta int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE npcs SET friendliness = friendliness + $2, updated_at = now()
		WHERE name = $1`,
		name, delta,
	)
	if err != nil {
		return fmt.Errorf("adjusting friendliness for npc %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return npc.ErrNotFound
	}
	return nil
}

// ListAtLocation returns all NPCs recorded at exactly the given location
// path, ordered by name.
func (r *NPCRepository) ListAtLocation(ctx context.Context, path string) ([]*npc.NPC, error) {
	rows, err := r.db.Query(ctx, `
		SELECT name, location, friendliness, deceased, killed_by, relations, updated_at
		FROM npcs WHERE location = $1 ORDER BY name ASC`,
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("listing npcs at %q: %w", path, err)
	}
	defer rows.Close()

	npcs := make([]*npc.NPC, 0)
	for rows.Next() {
		n, err := scanNPC(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning npc row: %w", err)
		}
		npcs = append(npcs, n)
	}
	return npcs, rows.Err()
}

func scanNPC(row pgx.Row) (*npc.NPC, error) {
	var (
		n         npc.NPC
		relations []byte
	)
	err := row.Scan(&n.Name, &n.Location, &n.Friendliness, &n.Deceased, &n.KilledBy, &relations, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(relations, &n.Relations); err != nil {
		return nil, fmt.Errorf("decoding relations for npc %q: %w", n.Name, err)
	}
	return &n, nil
}
