package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msw2004727/FB-sub000/internal/game/player"
	"github.com/msw2004727/FB-sub000/internal/game/skill"
)

// ErrPlayerNotFound is returned when a player lookup yields no results.
var ErrPlayerNotFound = errors.New("player not found")

// PlayerRepository provides player persistence operations.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Create inserts a new player and returns it with timestamps set.
//
// Precondition: p.ID and p.Name must be non-empty.
func (r *PlayerRepository) Create(ctx context.Context, p *player.Player) (*player.Player, error) {
	skills, err := json.Marshal(p.Skills)
	if err != nil {
		return nil, fmt.Errorf("encoding player skills: %w", err)
	}

	out := *p
	err = r.db.QueryRow(ctx, `
		INSERT INTO players
			(id, name, location, power_external, power_internal, morality,
			 death_cooldown, weapon_type, skills)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Location, p.PowerExternal, p.PowerInternal, p.Morality,
		p.DeathCooldown, p.WeaponType, skills,
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting player: %w", err)
	}
	return &out, nil
}

// PlayerByID retrieves a player by its primary key.
//
// Postcondition: Returns the Player or ErrPlayerNotFound.
func (r *PlayerRepository) PlayerByID(ctx context.Context, id string) (*player.Player, error) {
	var (
		p      player.Player
		skills []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, name, location, power_external, power_internal, morality,
		       death_cooldown, weapon_type, skills, created_at, updated_at
		FROM players WHERE id = $1`,
		id,
	).Scan(
		&p.ID, &p.Name, &p.Location, &p.PowerExternal, &p.PowerInternal,
		&p.Morality, &p.DeathCooldown, &p.WeaponType, &skills,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("querying player %s: %w", id, err)
	}
	if err := json.Unmarshal(skills, &p.Skills); err != nil {
		return nil, fmt.Errorf("decoding skills for player %s: %w", id, err)
	}
	return &p, nil
}

// ApplyProgress adds the delta to the player's permanent numbers inside a
// single read-modify-write transaction. The row is locked for the duration,
// so concurrent increments serialize instead of overwriting each other.
//
// Postcondition: Either all fields are incremented or none are.
func (r *PlayerRepository) ApplyProgress(ctx context.Context, id string, d player.ProgressDelta) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning progress transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var ext, intl, morality, cooldown int
	err = tx.QueryRow(ctx, `
		SELECT power_external, power_internal, morality, death_cooldown
		FROM players WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&ext, &intl, &morality, &cooldown)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("locking player %s: %w", id, err)
	}

	cooldown += d.DeathCooldown
	if cooldown < 0 {
		cooldown = 0
	}
	_, err = tx.Exec(ctx, `
		UPDATE players
		SET power_external = $2, power_internal = $3, morality = $4,
		    death_cooldown = $5, updated_at = now()
		WHERE id = $1`,
		id, ext+d.PowerExternal, intl+d.PowerInternal, morality+d.Morality, cooldown,
	)
	if err != nil {
		return fmt.Errorf("updating player %s progress: %w", id, err)
	}
	return tx.Commit(ctx)
}

// UpdateSkills replaces the player's learned-skill list.
func (r *PlayerRepository) UpdateSkills(ctx context.Context, id string, skills []skill.Known) error {
	data, err := json.Marshal(skills)
	if err != nil {
		return fmt.Errorf("encoding player skills: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE players SET skills = $2, updated_at = now() WHERE id = $1`,
		id, data,
	)
	if err != nil {
		return fmt.Errorf("updating skills for player %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// ApplyItemDeltas upserts inventory quantities for the player. All deltas
// apply in one transaction; quantities may go negative only down to zero.
func (r *PlayerRepository) ApplyItemDeltas(ctx context.Context, id string, deltas []player.ItemDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning item transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, d := range deltas {
		if d.Name == "" || d.Quantity == 0 {
			continue
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO player_items (player_id, name, quantity)
			VALUES ($1, $2, GREATEST($3, 0))
			ON CONFLICT (player_id, name)
			DO UPDATE SET quantity = GREATEST(player_items.quantity + $3, 0)`,
			id, d.Name, d.Quantity,
		)
		if err != nil {
			return fmt.Errorf("applying item delta %q for player %s: %w", d.Name, id, err)
		}
	}
	return tx.Commit(ctx)
}

// ItemQuantity returns the stored quantity for one item, zero when absent.
func (r *PlayerRepository) ItemQuantity(ctx context.Context, id, name string) (int, error) {
	var qty int
	err := r.db.QueryRow(ctx, `
		SELECT quantity FROM player_items WHERE player_id = $1 AND name = $2`,
		id, name,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("querying item %q for player %s: %w", name, id, err)
	}
	return qty, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
