package settle

import (
	"context"

	"go.uber.org/zap"

	"github.com/msw2004727/FB-sub000/internal/game/npc"
)

// Friendliness swings triggered by a death during settlement.
const (
	// FriendOfDeceasedDelta hits allies, friends, and family of the dead.
	FriendOfDeceasedDelta = -50
	// RivalOfDeceasedDelta rewards the dead's sworn enemies.
	RivalOfDeceasedDelta = 30
	// WitnessDelta is the smaller penalty for uninvolved NPCs who saw the
	// killing happen.
	WitnessDelta = -10
)

// settleDeath marks the named NPC dead and walks the reputation chain
// reaction: relationship edges first, then witnesses at the death location.
// All writes are best-effort; failures are logged and skipped.
func (s *Pipeline) settleDeath(ctx context.Context, name, killer string, playerAllies map[string]bool) {
	deceased, err := s.npcs.NPCByName(ctx, name)
	if err != nil {
		s.logger.Warn("could not load deceased npc for reputation chain",
			zap.String("npc", name),
			zap.Error(err),
		)
		return
	}
	if deceased.Deceased {
		// Already settled by an earlier update or a prior finalize run.
		return
	}

	if err := s.npcs.MarkDeceased(ctx, name, killer); err != nil {
		s.logger.Warn("could not mark npc deceased",
			zap.String("npc", name),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("npc died in combat settlement",
		zap.String("npc", name),
		zap.String("killer", killer),
	)

	touched := map[string]bool{name: true}
	for _, friend := range deceased.RelationsOfKind(npc.RelationAlly) {
		touched[friend] = true
		s.adjust(ctx, friend, FriendOfDeceasedDelta)
	}
	for _, rival := range deceased.RelationsOfKind(npc.RelationEnemy) {
		touched[rival] = true
		s.adjust(ctx, rival, RivalOfDeceasedDelta)
	}

	witnesses, err := s.npcs.ListAtLocation(ctx, deceased.Location)
	if err != nil {
		s.logger.Warn("could not list witnesses at death location",
			zap.String("location", deceased.Location),
			zap.Error(err),
		)
		return
	}
	for _, w := range witnesses {
		switch {
		case w.Deceased:
		case touched[w.Name]:
		case playerAllies[w.Name]:
		case w.HostileToPlayer():
			// Already hostile; witnessing changes nothing.
		default:
			s.adjust(ctx, w.Name, WitnessDelta)
		}
	}
}

func (s *Pipeline) adjust(ctx context.Context, name string, delta int) {
	if err := s.npcs.AdjustFriendliness(ctx, name, delta); err != nil {
		s.logger.Warn("could not apply reputation swing",
			zap.String("npc", name),
			zap.Int("delta", delta),
			zap.Error(err),
		)
	}
}
