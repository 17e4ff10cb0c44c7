// Package settle implements the second phase of combat settlement: consuming
// a staged PendingSettlement exactly once, applying permanent consequences,
// and walking the reputation chain reaction for every death.
package settle

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/msw2004727/FB-sub000/internal/game/combat"
	"github.com/msw2004727/FB-sub000/internal/game/location"
	"github.com/msw2004727/FB-sub000/internal/game/npc"
	"github.com/msw2004727/FB-sub000/internal/game/player"
	"github.com/msw2004727/FB-sub000/internal/oracle"
)

// ErrNothingToSettle indicates no staged settlement exists for the player:
// either it was already finalized or combat never ended. Safe to poll.
var ErrNothingToSettle = errors.New("nothing to settle")

// PlayerStore loads player documents and applies settlement consequences.
type PlayerStore interface {
	PlayerByID(ctx context.Context, id string) (*player.Player, error)
	// ApplyProgress adds the delta to the player's permanent numbers in a
	// single atomic increment transaction.
	ApplyProgress(ctx context.Context, id string, d player.ProgressDelta) error
	ApplyItemDeltas(ctx context.Context, id string, deltas []player.ItemDelta) error
}

// NPCStore reads and mutates NPC documents during settlement.
type NPCStore interface {
	NPCByName(ctx context.Context, name string) (*npc.NPC, error)
	MarkDeceased(ctx context.Context, name, killedBy string) error
	AdjustFriendliness(ctx context.Context, name string, delta int) error
	// ListAtLocation returns all NPCs whose recorded location matches path.
	ListAtLocation(ctx context.Context, path string) ([]*npc.NPC, error)
}

// SettlementStore reads and deletes staged settlements.
type SettlementStore interface {
	// PendingSettlement returns the staged settlement, or ErrNothingToSettle.
	PendingSettlement(ctx context.Context, playerID string) (*combat.PendingSettlement, error)
	DeleteSettlement(ctx context.Context, playerID string) error
}

// HistoryStore records permanent game-history entries.
type HistoryStore interface {
	RecordEvent(ctx context.Context, playerID, title, summary string) error
}

// Pipeline finalizes staged combat outcomes.
type Pipeline struct {
	oracle      oracle.Oracle
	players     PlayerStore
	npcs        NPCStore
	settlements SettlementStore
	history     HistoryStore
	logger      *zap.Logger
}

// NewPipeline creates a settlement pipeline.
func NewPipeline(o oracle.Oracle, players PlayerStore, npcs NPCStore, settlements SettlementStore, history HistoryStore, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		oracle:      o,
		players:     players,
		npcs:        npcs,
		settlements: settlements,
		history:     history,
		logger:      logger,
	}
}

// RoundResult is the finalized outcome of a settled fight.
type RoundResult struct {
	Story      string
	EventTitle string
	Suggestion string
	Victory    bool
	KillerName string
	FinalState combat.Session
	Location   location.Data
}

// Finalize consumes the player's staged settlement and applies its permanent
// consequences: item deltas, atomic progress increments, a history entry,
// and the reputation chain reaction for every death.
//
// The staged settlement is deleted last, so a crash mid-finalize leaves it
// in place and a retry re-runs the whole step. Reputation writes are
// best-effort; their failures are logged and never block deletion.
//
// Postcondition: On success no settlement remains; a second call returns
// ErrNothingToSettle.
func (s *Pipeline) Finalize(ctx context.Context, playerID string) (*RoundResult, error) {
	pending, err := s.settlements.PendingSettlement(ctx, playerID)
	if err != nil {
		return nil, err
	}
	p, err := s.players.PlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("loading player %s: %w", playerID, err)
	}

	final := pending.FinalState

	// Victory is recomputed from the staged state, never taken from the
	// oracle. A killer is named only for a victorious kill-intention fight.
	victory := final.AllEnemiesDown()
	killerName := ""
	if victory && final.Intention == combat.IntentionKill {
		killerName = p.Name
	}

	ores, err := s.oracle.ResolvePostCombat(ctx, oracle.PostCombatRequest{
		Profile:    combat.ProfileFor(p),
		FinalState: final.Snapshot(),
		Log:        final.Log,
		KillerName: killerName,
		Victory:    victory,
	})
	if err != nil {
		return nil, fmt.Errorf("resolving post-combat for player %s: %w", playerID, err)
	}
	outcome := ores.Outcome

	if len(outcome.ItemChanges) > 0 {
		items := make([]player.ItemDelta, len(outcome.ItemChanges))
		for i, ic := range outcome.ItemChanges {
			items[i] = player.ItemDelta{Name: ic.Name, Quantity: ic.Quantity}
		}
		if err := s.players.ApplyItemDeltas(ctx, playerID, items); err != nil {
			return nil, fmt.Errorf("applying settlement items for player %s: %w", playerID, err)
		}
	}

	delta := player.ProgressDelta{
		PowerExternal: outcome.PlayerChanges.PowerExternal,
		PowerInternal: outcome.PlayerChanges.PowerInternal,
		Morality:      outcome.PlayerChanges.Morality,
		DeathCooldown: outcome.PlayerChanges.DeathCooldown,
	}
	if !delta.IsZero() {
		if err := s.players.ApplyProgress(ctx, playerID, delta); err != nil {
			return nil, fmt.Errorf("applying settlement progress for player %s: %w", playerID, err)
		}
	}

	story := outcome.Summary
	if story == "" {
		story = defaultStory(p.Name, victory)
	}
	title := outcome.EventTitle
	if title == "" {
		title = "A Fight Concluded"
	}
	if err := s.history.RecordEvent(ctx, playerID, title, story); err != nil {
		return nil, fmt.Errorf("recording settlement history for player %s: %w", playerID, err)
	}

	s.applyNPCUpdates(ctx, &final, killerName, outcome.NPCUpdates)

	if err := s.settlements.DeleteSettlement(ctx, playerID); err != nil {
		return nil, fmt.Errorf("deleting settlement for player %s: %w", playerID, err)
	}

	return &RoundResult{
		Story:      story,
		EventTitle: title,
		Suggestion: outcome.Suggestion,
		Victory:    victory,
		KillerName: killerName,
		FinalState: final,
		Location:   s.locationData(ctx, p),
	}, nil
}

// applyNPCUpdates applies the oracle's proposed NPC consequences. Deaths are
// honored only for kill-intention fights; friendliness deltas always apply.
// Every write is best-effort.
func (s *Pipeline) applyNPCUpdates(ctx context.Context, final *combat.Session, killerName string, updates []oracle.NPCUpdate) {
	playerAllies := make(map[string]bool, len(final.Allies))
	for _, a := range final.Allies {
		playerAllies[a.Name] = true
	}

	for _, upd := range updates {
		if upd.Name == "" {
			continue
		}
		if upd.FriendlinessDelta != 0 {
			if err := s.npcs.AdjustFriendliness(ctx, upd.Name, upd.FriendlinessDelta); err != nil {
				s.logger.Warn("could not adjust npc friendliness",
					zap.String("npc", upd.Name),
					zap.Error(err),
				)
			}
		}
		if !upd.IsDeceased || final.Intention != combat.IntentionKill {
			continue
		}

		killer := upd.Killer
		if killer == "" {
			killer = killerName
		}
		s.settleDeath(ctx, upd.Name, killer, playerAllies)
	}
}

func (s *Pipeline) locationData(ctx context.Context, p *player.Player) location.Data {
	data := location.Data{Path: p.Location}
	present, err := s.npcs.ListAtLocation(ctx, p.Location)
	if err != nil {
		s.logger.Warn("could not list npcs at player location",
			zap.String("location", p.Location),
			zap.Error(err),
		)
		return data
	}
	for _, n := range present {
		if !n.Deceased {
			data.Figures = append(data.Figures, n.Name)
		}
	}
	return data
}

func defaultStory(playerName string, victory bool) string {
	if victory {
		return fmt.Sprintf("%s stands victorious as the dust settles.", playerName)
	}
	return fmt.Sprintf("The fight is over, and %s limps away from it.", playerName)
}
