package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msw2004727/FB-sub000/internal/game/combat"
	"github.com/msw2004727/FB-sub000/internal/game/player"
	"github.com/msw2004727/FB-sub000/internal/game/session"
	"github.com/msw2004727/FB-sub000/internal/game/settle"
	"github.com/msw2004727/FB-sub000/internal/storage/postgres"
	"github.com/msw2004727/FB-sub000/internal/testutil"
)

func testCombatSession() *combat.Session {
	return &combat.Session{
		PlayerID:  "p1",
		Turn:      1,
		Player:    combat.Combatant{Name: "Shen", HP: 90, MaxHP: 100, MP: 30, MaxMP: 50},
		Enemies:   []combat.Combatant{{Name: "Iron Tiger", HP: 40, MaxHP: 50}},
		Log:       []string{"Turn 1: the fight begins"},
		Intention: combat.IntentionSubdue,
	}
}

func TestCombatStateRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	ctx := context.Background()
	repo := postgres.NewCombatStateRepository(pc.RawPool)

	players := postgres.NewPlayerRepository(pc.RawPool)
	_, err := players.Create(ctx, &player.Player{ID: "p1", Name: "Shen"})
	require.NoError(t, err)

	t.Run("no active session", func(t *testing.T) {
		_, err := repo.ActiveSession(ctx, "p1")
		assert.ErrorIs(t, err, combat.ErrNoActiveSession)
	})

	t.Run("session round trip", func(t *testing.T) {
		require.NoError(t, repo.CreateSession(ctx, testCombatSession()))

		got, err := repo.ActiveSession(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Turn)
		assert.Equal(t, "Iron Tiger", got.Enemies[0].Name)
		assert.Equal(t, combat.IntentionSubdue, got.Intention)
	})

	t.Run("second create is rejected", func(t *testing.T) {
		err := repo.CreateSession(ctx, testCombatSession())
		assert.ErrorIs(t, err, session.ErrCombatInProgress)
	})

	t.Run("optimistic save", func(t *testing.T) {
		s, err := repo.ActiveSession(ctx, "p1")
		require.NoError(t, err)

		expected := s.Turn
		s.Turn++
		s.Enemies[0].HP = 25
		require.NoError(t, repo.SaveSession(ctx, s, expected))

		// Replaying the same expected turn must fail: the counter moved.
		stale := *s
		assert.ErrorIs(t, repo.SaveSession(ctx, &stale, expected), combat.ErrSessionConflict)

		got, err := repo.ActiveSession(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 25, got.Enemies[0].HP)
	})

	t.Run("completion guarded by the turn counter", func(t *testing.T) {
		_, err := repo.PendingSettlement(ctx, "p1")
		assert.ErrorIs(t, err, settle.ErrNothingToSettle)

		s, err := repo.ActiveSession(ctx, "p1")
		require.NoError(t, err)

		final := *s
		final.Turn++
		final.Enemies[0].HP = 0
		pending := &combat.PendingSettlement{
			PlayerID:   "p1",
			FinalState: final,
			CreatedAt:  time.Now().UTC(),
		}

		// A resolver that read an older turn cannot end the combat: the
		// session survives and nothing is staged.
		err = repo.CompleteSession(ctx, pending, s.Turn-1)
		assert.ErrorIs(t, err, combat.ErrSessionConflict)
		_, err = repo.ActiveSession(ctx, "p1")
		require.NoError(t, err)
		_, err = repo.PendingSettlement(ctx, "p1")
		assert.ErrorIs(t, err, settle.ErrNothingToSettle)

		require.NoError(t, repo.CompleteSession(ctx, pending, s.Turn))
		_, err = repo.ActiveSession(ctx, "p1")
		assert.ErrorIs(t, err, combat.ErrNoActiveSession)

		got, err := repo.PendingSettlement(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, final.Turn, got.FinalState.Turn)
		assert.Equal(t, 0, got.FinalState.Enemies[0].HP)

		require.NoError(t, repo.DeleteSettlement(ctx, "p1"))
		_, err = repo.PendingSettlement(ctx, "p1")
		assert.ErrorIs(t, err, settle.ErrNothingToSettle)

		// Deleting again is harmless, as is deleting an absent session.
		assert.NoError(t, repo.DeleteSettlement(ctx, "p1"))
		assert.NoError(t, repo.DeleteSession(ctx, "p1"))
	})

	t.Run("history events", func(t *testing.T) {
		history := postgres.NewHistoryRepository(pc.RawPool)
		require.NoError(t, history.RecordEvent(ctx, "p1", "A Fight Concluded", "Shen subdued the Iron Tiger."))
		require.NoError(t, history.RecordEvent(ctx, "p1", "Death of the Iron Tiger", "The second fight went further."))

		events, err := history.RecentEvents(ctx, "p1", 10)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "Death of the Iron Tiger", events[0].Title)
	})
}
