package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestClampVitals(t *testing.T) {
	tests := []struct {
		name string
		in   Combatant
		want Combatant
	}{
		{
			name: "within bounds untouched",
			in:   Combatant{HP: 10, MaxHP: 20, MP: 5, MaxMP: 10},
			want: Combatant{HP: 10, MaxHP: 20, MP: 5, MaxMP: 10},
		},
		{
			name: "negative hp floors at zero",
			in:   Combatant{HP: -50, MaxHP: 20},
			want: Combatant{HP: 0, MaxHP: 20},
		},
		{
			name: "overflow caps at max",
			in:   Combatant{HP: 999, MaxHP: 20, MP: 999, MaxMP: 10},
			want: Combatant{HP: 20, MaxHP: 20, MP: 10, MaxMP: 10},
		},
		{
			name: "nonpositive maxHp raised to one",
			in:   Combatant{HP: 5, MaxHP: -3},
			want: Combatant{HP: 1, MaxHP: 1},
		},
		{
			name: "negative maxMp raised to zero",
			in:   Combatant{MaxHP: 1, MP: 4, MaxMP: -1},
			want: Combatant{MaxHP: 1, MP: 0, MaxMP: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.in
			c.ClampVitals()
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestClampVitals_AlwaysRestoresInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := Combatant{
			HP:    rapid.IntRange(-1000, 1000).Draw(rt, "hp"),
			MaxHP: rapid.IntRange(-1000, 1000).Draw(rt, "maxHp"),
			MP:    rapid.IntRange(-1000, 1000).Draw(rt, "mp"),
			MaxMP: rapid.IntRange(-1000, 1000).Draw(rt, "maxMp"),
		}
		c.ClampVitals()
		assert.GreaterOrEqual(rt, c.MaxHP, 1)
		assert.GreaterOrEqual(rt, c.MaxMP, 0)
		assert.True(rt, c.HP >= 0 && c.HP <= c.MaxHP)
		assert.True(rt, c.MP >= 0 && c.MP <= c.MaxMP)
	})
}

func TestIsAlive(t *testing.T) {
	assert.True(t, (&Combatant{HP: 1, MaxHP: 10}).IsAlive())
	assert.False(t, (&Combatant{HP: 0, MaxHP: 10}).IsAlive())
}

func TestHasTag(t *testing.T) {
	c := Combatant{Tags: []string{"attack", "beast"}}
	assert.True(t, c.HasTag("beast"))
	assert.False(t, c.HasTag("support"))
}
