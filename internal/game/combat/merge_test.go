package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/msw2004727/FB-sub000/internal/oracle"
)

func intp(v int) *int { return &v }

func mergeSession() *Session {
	return &Session{
		Player: Combatant{Name: "Shen", HP: 100, MaxHP: 100, MP: 40, MaxMP: 40, Skills: []string{"Iron Palm"}},
		Enemies: []Combatant{
			{Name: "Iron Tiger", HP: 40, MaxHP: 40, MP: 10, MaxMP: 10},
			{Name: "Wei Lan", HP: 30, MaxHP: 30},
		},
		Allies: []Combatant{{Name: "Brother Shan", HP: 20, MaxHP: 20}},
	}
}

func TestApplyUpdate_PlayerOverlayAndClamp(t *testing.T) {
	s := mergeSession()
	applyUpdate(s, &oracle.StateUpdate{
		Player: &oracle.CombatantDelta{HP: intp(-20), MP: intp(35)},
	})

	assert.Equal(t, 0, s.Player.HP)
	assert.Equal(t, 35, s.Player.MP)
	// Maximums and skills are never taken from the oracle.
	assert.Equal(t, 100, s.Player.MaxHP)
	assert.Equal(t, []string{"Iron Palm"}, s.Player.Skills)
}

func TestApplyUpdate_RosterMatchesByName(t *testing.T) {
	s := mergeSession()
	applyUpdate(s, &oracle.StateUpdate{
		Enemies: oracle.DeltaList{{Name: "Wei Lan", HP: intp(5)}},
	})

	assert.Equal(t, 40, s.Enemies[0].HP)
	assert.Equal(t, 5, s.Enemies[1].HP)
}

func TestApplyUpdate_UnnamedDeltaFallsBackToPosition(t *testing.T) {
	s := mergeSession()
	applyUpdate(s, &oracle.StateUpdate{
		Enemies: oracle.DeltaList{
			{HP: intp(12)},
			{HP: intp(7)},
		},
	})

	assert.Equal(t, 12, s.Enemies[0].HP)
	assert.Equal(t, 7, s.Enemies[1].HP)
}

func TestApplyUpdate_UnmatchedDeltaDropped(t *testing.T) {
	s := mergeSession()
	applyUpdate(s, &oracle.StateUpdate{
		Enemies: oracle.DeltaList{{Name: "Nobody Here", HP: intp(1)}},
	})

	assert.Equal(t, *mergeSession(), *s)
	assert.Len(t, s.Enemies, 2)
}

func TestApplyUpdate_NilIsNoOp(t *testing.T) {
	s := mergeSession()
	before := numericProjection(s)
	applyUpdate(s, nil)
	assert.Equal(t, before, numericProjection(s))
}

func TestApplyUpdate_AdversarialValuesStayBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := mergeSession()
		wild := func(label string) *int {
			if rapid.Bool().Draw(rt, label+"_present") {
				return intp(rapid.IntRange(-100000, 100000).Draw(rt, label))
			}
			return nil
		}
		applyUpdate(s, &oracle.StateUpdate{
			Player: &oracle.CombatantDelta{HP: wild("php"), MP: wild("pmp")},
			Enemies: oracle.DeltaList{
				{Name: "Iron Tiger", HP: wild("ehp"), MP: wild("emp"), MaxHP: wild("emaxhp"), MaxMP: wild("emaxmp")},
			},
			Allies: oracle.DeltaList{
				{Name: "Brother Shan", HP: wild("ahp"), MaxHP: wild("amaxhp")},
			},
		})

		check := func(c Combatant) {
			assert.GreaterOrEqual(rt, c.MaxHP, 1)
			assert.True(rt, c.HP >= 0 && c.HP <= c.MaxHP)
			assert.True(rt, c.MP >= 0 && c.MP <= c.MaxMP)
		}
		check(s.Player)
		for _, c := range s.Enemies {
			check(c)
		}
		for _, c := range s.Allies {
			check(c)
		}
	})
}

func TestNumericProjection_DetectsAnyVitalChange(t *testing.T) {
	s := mergeSession()
	before := numericProjection(s)

	assert.Equal(t, before, numericProjection(mergeSession()))

	s.Allies[0].HP--
	assert.NotEqual(t, before, numericProjection(s))
}
