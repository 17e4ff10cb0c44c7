package combat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendLog_CapsAtMaxEntries(t *testing.T) {
	s := &Session{}
	for i := 0; i < MaxLogEntries+37; i++ {
		s.AppendLog(fmt.Sprintf("entry %d", i))
	}

	require.Len(t, s.Log, MaxLogEntries)
	// Oldest entries are dropped, newest kept.
	assert.Equal(t, "entry 37", s.Log[0])
	assert.Equal(t, fmt.Sprintf("entry %d", MaxLogEntries+36), s.Log[MaxLogEntries-1])
}

func TestLivingEnemies(t *testing.T) {
	s := &Session{Enemies: []Combatant{
		{Name: "Iron Tiger", HP: 0, MaxHP: 40},
		{Name: "Wei Lan", HP: 12, MaxHP: 30},
	}}

	living := s.LivingEnemies()
	require.Len(t, living, 1)
	assert.Equal(t, "Wei Lan", living[0].Name)
	assert.False(t, s.AllEnemiesDown())

	living[0].HP = 0
	assert.True(t, s.AllEnemiesDown())
}

func TestFindEnemy_ExactNameOnly(t *testing.T) {
	s := &Session{Enemies: []Combatant{{Name: "Iron Tiger", HP: 40, MaxHP: 40}}}

	require.NotNil(t, s.FindEnemy("Iron Tiger"))
	assert.Nil(t, s.FindEnemy("iron tiger"))
	assert.Nil(t, s.FindAlly("Iron Tiger"))
}

func TestSnapshot(t *testing.T) {
	s := &Session{
		Turn:       4,
		Player:     Combatant{Name: "Shen", HP: 80, MaxHP: 100, MP: 30, MaxMP: 50, Skills: []string{"Iron Palm"}},
		Enemies:    []Combatant{{Name: "Iron Tiger", HP: 22, MaxHP: 40}},
		Bystanders: []string{"Old Wei"},
		Log:        []string{"Turn 1: it begins"},
		Intention:  IntentionSubdue,
	}

	snap := s.Snapshot()
	assert.Equal(t, 4, snap.Turn)
	assert.Equal(t, "Shen", snap.Player.Name)
	assert.Equal(t, 80, snap.Player.HP)
	require.Len(t, snap.Enemies, 1)
	assert.Equal(t, 22, snap.Enemies[0].HP)
	assert.Nil(t, snap.Allies)
	assert.Equal(t, "subdue", snap.Intention)
}
