package settle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/msw2004727/FB-sub000/internal/game/combat"
	"github.com/msw2004727/FB-sub000/internal/game/npc"
	"github.com/msw2004727/FB-sub000/internal/game/player"
	"github.com/msw2004727/FB-sub000/internal/game/settle"
	"github.com/msw2004727/FB-sub000/internal/oracle"
)

type fakeOracle struct {
	post    *oracle.PostCombatResult
	err     error
	lastReq *oracle.PostCombatRequest
}

func (f *fakeOracle) SetupCombat(context.Context, oracle.SetupRequest) (*oracle.SetupResult, error) {
	return &oracle.SetupResult{}, nil
}

func (f *fakeOracle) ResolveAction(context.Context, oracle.ActionRequest) (*oracle.ActionResult, error) {
	return &oracle.ActionResult{}, nil
}

func (f *fakeOracle) ResolveSurrender(context.Context, oracle.SurrenderRequest) (*oracle.SurrenderResult, error) {
	return &oracle.SurrenderResult{}, nil
}

func (f *fakeOracle) ResolvePostCombat(_ context.Context, req oracle.PostCombatRequest) (*oracle.PostCombatResult, error) {
	f.lastReq = &req
	if f.err != nil {
		return nil, f.err
	}
	if f.post == nil {
		return &oracle.PostCombatResult{}, nil
	}
	return f.post, nil
}

type fakePlayers struct {
	p        *player.Player
	progress []player.ProgressDelta
	items    [][]player.ItemDelta
}

func (f *fakePlayers) PlayerByID(_ context.Context, id string) (*player.Player, error) {
	if f.p == nil || f.p.ID != id {
		return nil, errors.New("player not found")
	}
	return f.p, nil
}

func (f *fakePlayers) ApplyProgress(_ context.Context, _ string, d player.ProgressDelta) error {
	f.progress = append(f.progress, d)
	return nil
}

func (f *fakePlayers) ApplyItemDeltas(_ context.Context, _ string, deltas []player.ItemDelta) error {
	f.items = append(f.items, deltas)
	return nil
}

type fakeNPCs struct {
	byName       map[string]*npc.NPC
	friendliness map[string]int
	deceased     map[string]string
}

func newFakeNPCs(npcs ...*npc.NPC) *fakeNPCs {
	f := &fakeNPCs{
		byName:       make(map[string]*npc.NPC),
		friendliness: make(map[string]int),
		deceased:     make(map[string]string),
	}
	for _, n := range npcs {
		f.byName[n.Name] = n
	}
	return f
}

func (f *fakeNPCs) NPCByName(_ context.Context, name string) (*npc.NPC, error) {
	n, ok := f.byName[name]
	if !ok {
		return nil, npc.ErrNotFound
	}
	return n, nil
}

func (f *fakeNPCs) MarkDeceased(_ context.Context, name, killedBy string) error {
	f.deceased[name] = killedBy
	return nil
}

func (f *fakeNPCs) AdjustFriendliness(_ context.Context, name string, delta int) error {
	f.friendliness[name] += delta
	return nil
}

func (f *fakeNPCs) ListAtLocation(_ context.Context, path string) ([]*npc.NPC, error) {
	var out []*npc.NPC
	for _, n := range f.byName {
		if n.Location == path {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeSettlements struct {
	pending map[string]*combat.PendingSettlement
}

func (f *fakeSettlements) PendingSettlement(_ context.Context, playerID string) (*combat.PendingSettlement, error) {
	p, ok := f.pending[playerID]
	if !ok {
		return nil, settle.ErrNothingToSettle
	}
	return p, nil
}

func (f *fakeSettlements) DeleteSettlement(_ context.Context, playerID string) error {
	delete(f.pending, playerID)
	return nil
}

type fakeHistory struct {
	titles    []string
	summaries []string
}

func (f *fakeHistory) RecordEvent(_ context.Context, _, title, summary string) error {
	f.titles = append(f.titles, title)
	f.summaries = append(f.summaries, summary)
	return nil
}

type pipelineFixture struct {
	oracle      *fakeOracle
	players     *fakePlayers
	npcs        *fakeNPCs
	settlements *fakeSettlements
	history     *fakeHistory
	pipeline    *settle.Pipeline
}

func newFixture(npcs *fakeNPCs) *pipelineFixture {
	f := &pipelineFixture{
		oracle: &fakeOracle{},
		players: &fakePlayers{p: &player.Player{
			ID:       "p1",
			Name:     "Shen",
			Location: "jianghu/qingcheng/market",
		}},
		npcs:        npcs,
		settlements: &fakeSettlements{pending: make(map[string]*combat.PendingSettlement)},
		history:     &fakeHistory{},
	}
	f.pipeline = settle.NewPipeline(f.oracle, f.players, f.npcs, f.settlements, f.history, zap.NewNop())
	return f
}

func stagedKill() *combat.PendingSettlement {
	return &combat.PendingSettlement{
		PlayerID: "p1",
		FinalState: combat.Session{
			PlayerID:  "p1",
			Turn:      6,
			Intention: combat.IntentionKill,
			Player:    combat.Combatant{Name: "Shen", HP: 40, MaxHP: 100},
			Enemies:   []combat.Combatant{{Name: "Iron Tiger", HP: 0, MaxHP: 50}},
			Allies:    []combat.Combatant{{Name: "Wei Lan", HP: 10, MaxHP: 20}},
			Log:       []string{"Turn 6: the tiger falls"},
		},
	}
}

func TestFinalize_NothingToSettle(t *testing.T) {
	f := newFixture(newFakeNPCs())
	_, err := f.pipeline.Finalize(context.Background(), "p1")
	assert.ErrorIs(t, err, settle.ErrNothingToSettle)
}

func TestFinalize_SecondCallIsRejected(t *testing.T) {
	f := newFixture(newFakeNPCs())
	f.settlements.pending["p1"] = stagedKill()

	_, err := f.pipeline.Finalize(context.Background(), "p1")
	require.NoError(t, err)

	_, err = f.pipeline.Finalize(context.Background(), "p1")
	assert.ErrorIs(t, err, settle.ErrNothingToSettle)
	// Rewards were applied at most once.
	assert.LessOrEqual(t, len(f.players.progress), 1)
}

func TestFinalize_KillVictoryChainReaction(t *testing.T) {
	npcs := newFakeNPCs(
		&npc.NPC{
			Name:     "Iron Tiger",
			Location: "jianghu/qingcheng/market",
			Relations: []npc.Relation{
				{Name: "Tiger Cub", Kind: npc.RelationAlly},
				{Name: "Ghost Fang", Kind: npc.RelationEnemy},
			},
		},
		&npc.NPC{Name: "Tiger Cub", Location: "jianghu/heishan"},
		&npc.NPC{Name: "Ghost Fang", Location: "jianghu/heishan"},
		&npc.NPC{Name: "Tea Vendor", Location: "jianghu/qingcheng/market"},
		&npc.NPC{Name: "Bandit Scout", Location: "jianghu/qingcheng/market", Friendliness: -20},
		&npc.NPC{Name: "Wei Lan", Location: "jianghu/qingcheng/market"},
	)
	f := newFixture(npcs)
	f.settlements.pending["p1"] = stagedKill()
	f.oracle.post = &oracle.PostCombatResult{Outcome: oracle.PostCombatOutcome{
		Summary:       "The Iron Tiger lies dead in the market square.",
		EventTitle:    "Death of the Iron Tiger",
		Suggestion:    "Leave before the magistrate arrives.",
		PlayerChanges: oracle.ProgressChanges{PowerExternal: 1, Morality: -10},
		ItemChanges:   []oracle.ItemChange{{Name: "tiger fang saber", Quantity: 1}},
		NPCUpdates:    []oracle.NPCUpdate{{Name: "Iron Tiger", IsDeceased: true}},
	}}

	res, err := f.pipeline.Finalize(context.Background(), "p1")
	require.NoError(t, err)

	assert.True(t, res.Victory)
	assert.Equal(t, "Shen", res.KillerName)
	assert.Equal(t, "Shen", f.oracle.lastReq.KillerName)

	assert.Equal(t, "Shen", npcs.deceased["Iron Tiger"])
	assert.Equal(t, settle.FriendOfDeceasedDelta, npcs.friendliness["Tiger Cub"])
	assert.Equal(t, settle.RivalOfDeceasedDelta, npcs.friendliness["Ghost Fang"])
	// Uninvolved witness takes the smaller penalty.
	assert.Equal(t, settle.WitnessDelta, npcs.friendliness["Tea Vendor"])
	// Already-hostile witnesses and the player's own allies are spared.
	assert.Zero(t, npcs.friendliness["Bandit Scout"])
	assert.Zero(t, npcs.friendliness["Wei Lan"])

	require.Len(t, f.players.progress, 1)
	assert.Equal(t, player.ProgressDelta{PowerExternal: 1, Morality: -10}, f.players.progress[0])
	require.Len(t, f.players.items, 1)
	assert.Equal(t, []player.ItemDelta{{Name: "tiger fang saber", Quantity: 1}}, f.players.items[0])

	assert.Equal(t, []string{"Death of the Iron Tiger"}, f.history.titles)
	assert.Equal(t, "The Iron Tiger lies dead in the market square.", res.Story)
	assert.Equal(t, "jianghu/qingcheng/market", res.Location.Path)
	assert.NotContains(t, res.Location.Figures, "Iron Tiger")
}

func TestFinalize_SubdueNeverKills(t *testing.T) {
	npcs := newFakeNPCs(&npc.NPC{Name: "Iron Tiger", Location: "jianghu/qingcheng/market"})
	f := newFixture(npcs)

	staged := stagedKill()
	staged.FinalState.Intention = combat.IntentionSubdue
	f.settlements.pending["p1"] = staged
	f.oracle.post = &oracle.PostCombatResult{Outcome: oracle.PostCombatOutcome{
		NPCUpdates: []oracle.NPCUpdate{
			{Name: "Iron Tiger", IsDeceased: true, FriendlinessDelta: -15},
		},
	}}

	res, err := f.pipeline.Finalize(context.Background(), "p1")
	require.NoError(t, err)

	assert.True(t, res.Victory)
	assert.Empty(t, res.KillerName)
	// The death hint is ignored outside kill intention; the standing change
	// still lands.
	assert.Empty(t, npcs.deceased)
	assert.Equal(t, -15, npcs.friendliness["Iron Tiger"])
}

func TestFinalize_NonVictoryHasNoKiller(t *testing.T) {
	f := newFixture(newFakeNPCs())
	staged := stagedKill()
	staged.FinalState.Enemies[0].HP = 12
	f.settlements.pending["p1"] = staged

	res, err := f.pipeline.Finalize(context.Background(), "p1")
	require.NoError(t, err)

	assert.False(t, res.Victory)
	assert.Empty(t, res.KillerName)
	// Defaults cover a silent oracle.
	assert.NotEmpty(t, res.Story)
	assert.NotEmpty(t, res.EventTitle)
}

func TestFinalize_OracleFailureLeavesSettlementStaged(t *testing.T) {
	f := newFixture(newFakeNPCs())
	f.settlements.pending["p1"] = stagedKill()
	f.oracle.err = oracle.ErrUnavailable

	_, err := f.pipeline.Finalize(context.Background(), "p1")
	assert.ErrorIs(t, err, oracle.ErrUnavailable)

	// Retryable: the staged settlement survives the failed attempt.
	_, stillStaged := f.settlements.pending["p1"]
	assert.True(t, stillStaged)
	assert.Empty(t, f.players.progress)
}
