package combat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/msw2004727/FB-sub000/internal/game/player"
	"github.com/msw2004727/FB-sub000/internal/game/skill"
	"github.com/msw2004727/FB-sub000/internal/oracle"
)

type fakeOracle struct {
	action  *oracle.ActionResult
	err     error
	lastReq *oracle.ActionRequest
}

func (f *fakeOracle) SetupCombat(context.Context, oracle.SetupRequest) (*oracle.SetupResult, error) {
	return &oracle.SetupResult{}, nil
}

func (f *fakeOracle) ResolveAction(_ context.Context, req oracle.ActionRequest) (*oracle.ActionResult, error) {
	f.lastReq = &req
	if f.err != nil {
		return nil, f.err
	}
	if f.action == nil {
		return &oracle.ActionResult{}, nil
	}
	return f.action, nil
}

func (f *fakeOracle) ResolveSurrender(context.Context, oracle.SurrenderRequest) (*oracle.SurrenderResult, error) {
	return &oracle.SurrenderResult{}, nil
}

func (f *fakeOracle) ResolvePostCombat(context.Context, oracle.PostCombatRequest) (*oracle.PostCombatResult, error) {
	return &oracle.PostCombatResult{}, nil
}

type fakePlayers struct {
	p *player.Player
}

func (f *fakePlayers) PlayerByID(_ context.Context, id string) (*player.Player, error) {
	if f.p == nil || f.p.ID != id {
		return nil, errors.New("player not found")
	}
	return f.p, nil
}

type fakeSessions struct {
	session           *Session
	saved             *Session
	savedExpected     int
	completed         *PendingSettlement
	completedExpected int
	saveErr           error

	// enforceTurn makes the fake honor the ordering token the way the real
	// store does: turn holds the authoritative counter across calls, and a
	// write with a stale expectedTurn is rejected.
	enforceTurn bool
	turn        int
}

func (f *fakeSessions) ActiveSession(_ context.Context, playerID string) (*Session, error) {
	if f.session == nil || f.session.PlayerID != playerID {
		return nil, ErrNoActiveSession
	}
	c := *f.session
	c.Enemies = append([]Combatant(nil), f.session.Enemies...)
	c.Allies = append([]Combatant(nil), f.session.Allies...)
	c.Log = append([]string(nil), f.session.Log...)
	return &c, nil
}

func (f *fakeSessions) SaveSession(_ context.Context, s *Session, expectedTurn int) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.enforceTurn {
		if expectedTurn != f.turn {
			return ErrSessionConflict
		}
		f.turn = s.Turn
	}
	f.saved = s
	f.savedExpected = expectedTurn
	return nil
}

func (f *fakeSessions) CompleteSession(_ context.Context, p *PendingSettlement, expectedTurn int) error {
	if f.enforceTurn && expectedTurn != f.turn {
		return ErrSessionConflict
	}
	f.completed = p
	f.completedExpected = expectedTurn
	return nil
}

func testSkills(t *testing.T) skill.Provider {
	t.Helper()
	lib, err := skill.NewLibrary([]*skill.Template{
		{Name: "Iron Palm", Description: "A palm strike.", Role: skill.RoleAttack, Cost: 10, MaxLevel: 5},
		{Name: "Tempest Palm", Description: "A storm of palms.", Role: skill.RoleAttack, Cost: 20, MaxLevel: 5},
		{Name: "Spear Sweep", Description: "A wide sweep.", Role: skill.RoleAttack, WeaponType: "spear", Cost: 5, MaxLevel: 3},
	})
	require.NoError(t, err)
	return lib
}

func testPlayer() *player.Player {
	return &player.Player{
		ID:   "p1",
		Name: "Shen",
		Skills: []skill.Known{
			{Name: "Iron Palm", Level: 2},
			{Name: "Tempest Palm", Level: 3},
			{Name: "Spear Sweep", Level: 2},
		},
	}
}

func testSession() *Session {
	return &Session{
		PlayerID: "p1",
		Turn:     3,
		Player:   Combatant{Name: "Shen", HP: 100, MaxHP: 100, MP: 40, MaxMP: 100},
		Enemies:  []Combatant{{Name: "Iron Tiger", HP: 50, MaxHP: 50, MP: 10, MaxMP: 10}},
	}
}

func newTestEngine(t *testing.T, o *fakeOracle, sessions *fakeSessions) *Engine {
	t.Helper()
	return NewEngine(o, testSkills(t), &fakePlayers{p: testPlayer()}, sessions, zap.NewNop())
}

func TestResolveTurn_RejectsBeforeOracle(t *testing.T) {
	tests := []struct {
		name    string
		act     Action
		wantErr error
	}{
		{"invalid strategy", Action{Strategy: "charm"}, ErrInvalidStrategy},
		{"unknown skill", Action{Strategy: StrategyAttack, SkillName: "Nameless Fist"}, ErrUnknownSkill},
		{"weapon mismatch", Action{Strategy: StrategyAttack, SkillName: "Spear Sweep"}, ErrWeaponMismatch},
		{"insufficient mp", Action{Strategy: StrategyAttack, SkillName: "Tempest Palm", PowerLevel: 3}, ErrInsufficientResource},
		{"target not in pool", Action{Strategy: StrategyAttack, TargetName: "Old Wei"}, ErrTargetNotInPool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &fakeOracle{}
			sessions := &fakeSessions{session: testSession()}
			eng := newTestEngine(t, o, sessions)

			_, err := eng.ResolveTurn(context.Background(), "p1", tt.act)
			assert.ErrorIs(t, err, tt.wantErr)

			// A rejected action leaves the session untouched.
			assert.Nil(t, o.lastReq)
			assert.Nil(t, sessions.saved)
			assert.Nil(t, sessions.completed)
		})
	}
}

func TestResolveTurn_NoSession(t *testing.T) {
	eng := newTestEngine(t, &fakeOracle{}, &fakeSessions{})
	_, err := eng.ResolveTurn(context.Background(), "p1", Action{Strategy: StrategyAttack})
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestResolveTurn_NoOpOracleTriggersFallback(t *testing.T) {
	o := &fakeOracle{action: &oracle.ActionResult{Update: &oracle.StateUpdate{}}}
	sessions := &fakeSessions{session: testSession()}
	eng := newTestEngine(t, o, sessions)

	res, err := eng.ResolveTurn(context.Background(), "p1", Action{Strategy: StrategyAttack})
	require.NoError(t, err)

	assert.False(t, res.Ended)
	// Unskilled attack: magnitude floors at 4, counter 1.
	assert.Equal(t, 46, res.Session.Enemies[0].HP)
	assert.Equal(t, 99, res.Session.Player.HP)
	assert.Equal(t, 4, res.Session.Turn)
	assert.NotEmpty(t, res.Narrative)

	require.NotNil(t, sessions.saved)
	assert.Equal(t, 3, sessions.savedExpected)
	require.Len(t, sessions.saved.Log, 1)
	assert.Nil(t, sessions.completed)
}

func TestResolveTurn_PowerLevelClampAndCost(t *testing.T) {
	sess := testSession()
	sess.Player.MP = 100
	o := &fakeOracle{action: &oracle.ActionResult{Narrative: "Palms fall like rain."}}
	sessions := &fakeSessions{session: sess}
	eng := newTestEngine(t, o, sessions)

	res, err := eng.ResolveTurn(context.Background(), "p1", Action{
		Strategy:   StrategyAttack,
		SkillName:  "Tempest Palm",
		PowerLevel: 5,
	})
	require.NoError(t, err)

	// powerLevel clamps to skill level 3; cost is 20 * 3.
	require.NotNil(t, o.lastReq)
	assert.Equal(t, 3, o.lastReq.PowerLevel)
	assert.Equal(t, 100-60, res.Session.Player.MP)
	// The deduction changed the projection, so no fallback damage landed.
	assert.Equal(t, 50, res.Session.Enemies[0].HP)
	assert.Equal(t, "Palms fall like rain.", res.Narrative)
}

func TestResolveTurn_OracleDeductionIsNotDoubled(t *testing.T) {
	o := &fakeOracle{action: &oracle.ActionResult{
		Update: &oracle.StateUpdate{Player: &oracle.CombatantDelta{MP: intp(32)}},
	}}
	sessions := &fakeSessions{session: testSession()}
	eng := newTestEngine(t, o, sessions)

	res, err := eng.ResolveTurn(context.Background(), "p1", Action{
		Strategy:  StrategyAttack,
		SkillName: "Iron Palm",
	})
	require.NoError(t, err)

	// The oracle already lowered mp from 40 to 32; the 10 mp cost is not
	// charged a second time.
	assert.Equal(t, 32, res.Session.Player.MP)
}

func TestResolveTurn_EngineOverridesOngoingWhenAllEnemiesDown(t *testing.T) {
	o := &fakeOracle{action: &oracle.ActionResult{
		Narrative: "The tiger collapses.",
		Update: &oracle.StateUpdate{
			Enemies: oracle.DeltaList{{Name: "Iron Tiger", HP: intp(0)}},
		},
		Status: oracle.StatusOngoing,
	}}
	sessions := &fakeSessions{session: testSession()}
	eng := newTestEngine(t, o, sessions)

	res, err := eng.ResolveTurn(context.Background(), "p1", Action{Strategy: StrategyAttack})
	require.NoError(t, err)

	assert.True(t, res.Ended)
	require.NotNil(t, sessions.completed)
	assert.Equal(t, "p1", sessions.completed.PlayerID)
	assert.Equal(t, 0, sessions.completed.FinalState.Enemies[0].HP)
	assert.Equal(t, 3, sessions.completedExpected)
	assert.Nil(t, sessions.saved)
}

func TestResolveTurn_OracleEndedIsHonoredWithLivingEnemies(t *testing.T) {
	o := &fakeOracle{action: &oracle.ActionResult{
		Narrative: "The tiger flees into the bamboo.",
		Status:    oracle.StatusEnded,
	}}
	sessions := &fakeSessions{session: testSession()}
	eng := newTestEngine(t, o, sessions)

	res, err := eng.ResolveTurn(context.Background(), "p1", Action{Strategy: StrategyEvade})
	require.NoError(t, err)

	assert.True(t, res.Ended)
	require.NotNil(t, sessions.completed)
	assert.True(t, sessions.completed.FinalState.Enemies[0].IsAlive())
}

func TestResolveTurn_OracleTransportErrorChangesNothing(t *testing.T) {
	o := &fakeOracle{err: oracle.ErrUnavailable}
	sessions := &fakeSessions{session: testSession()}
	eng := newTestEngine(t, o, sessions)

	_, err := eng.ResolveTurn(context.Background(), "p1", Action{Strategy: StrategyAttack})
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
	assert.Nil(t, sessions.saved)
	assert.Nil(t, sessions.completed)
}

func TestResolveTurn_StaleResolverCannotEndCombat(t *testing.T) {
	// Two resolvers read the session at turn 3. The first commits an
	// uneventful turn; the second, still working from the stale read,
	// resolves a kill. The kill must not end the combat.
	sessions := &fakeSessions{session: testSession(), enforceTurn: true, turn: 3}

	quiet := &fakeOracle{action: &oracle.ActionResult{Narrative: "They circle one another."}}
	_, err := newTestEngine(t, quiet, sessions).ResolveTurn(context.Background(), "p1", Action{Strategy: StrategyDefend})
	require.NoError(t, err)
	require.Equal(t, 4, sessions.turn)

	lethal := &fakeOracle{action: &oracle.ActionResult{
		Narrative: "The tiger falls.",
		Update:    &oracle.StateUpdate{Enemies: oracle.DeltaList{{Name: "Iron Tiger", HP: intp(0)}}},
	}}
	_, err = newTestEngine(t, lethal, sessions).ResolveTurn(context.Background(), "p1", Action{Strategy: StrategyAttack})
	assert.ErrorIs(t, err, ErrSessionConflict)
	assert.Nil(t, sessions.completed)
}

func TestResolveTurn_ConflictSurfaces(t *testing.T) {
	sessions := &fakeSessions{session: testSession(), saveErr: ErrSessionConflict}
	eng := newTestEngine(t, &fakeOracle{}, sessions)

	_, err := eng.ResolveTurn(context.Background(), "p1", Action{Strategy: StrategyDefend})
	assert.ErrorIs(t, err, ErrSessionConflict)
}

func TestResolveTurn_BlankNarrativeGetsDefault(t *testing.T) {
	o := &fakeOracle{action: &oracle.ActionResult{
		Update: &oracle.StateUpdate{
			Enemies: oracle.DeltaList{{Name: "Iron Tiger", HP: intp(44)}},
		},
	}}
	sessions := &fakeSessions{session: testSession()}
	eng := newTestEngine(t, o, sessions)

	res, err := eng.ResolveTurn(context.Background(), "p1", Action{Strategy: StrategyAttack})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Narrative)
}
