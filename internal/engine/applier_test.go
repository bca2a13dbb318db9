// internal/engine/applier_test.go
package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/spireline/internal/models"
)

func TestApplyDiscardMovesCard(t *testing.T) {
	st := baseState()
	target := st.Hand[1] // B

	next, spawned, err := Apply(st, Effect{Kind: EffectDiscard, CardID: target.ID})
	require.NoError(t, err)
	assert.Empty(t, spawned)

	assert.Equal(t, []string{"A", "C", "D", "E"}, handNames(next))
	assert.Equal(t, []string{"B"}, pileNames(next.DiscardPile))
	assert.Equal(t, st.TotalCards(), next.TotalCards(), "moves conserve the card multiset")

	// Input state untouched.
	assert.Len(t, st.Hand, 5)
	assert.Empty(t, st.DiscardPile)
}

func TestApplyStaleTarget(t *testing.T) {
	st := baseState()

	next, spawned, err := Apply(st, Effect{Kind: EffectDiscard, CardID: uuid.New()})
	assert.ErrorIs(t, err, ErrStaleEffectTarget)
	assert.Empty(t, spawned)
	assert.Equal(t, Fingerprint(st), Fingerprint(next), "stale effects leave the state unchanged")

	_, _, err = Apply(st, Effect{Kind: EffectDamage, EnemyID: uuid.New(), Amount: 5})
	assert.ErrorIs(t, err, ErrStaleEffectTarget)

	empty := st.Clone()
	empty.DrawPile = nil
	_, _, err = Apply(empty, Effect{Kind: EffectDraw})
	assert.ErrorIs(t, err, ErrStaleEffectTarget)
}

func TestApplyDamageKillSpawnsDeathAndBounty(t *testing.T) {
	st := baseState()
	enemy := models.NewEnemy("Jaw Worm", 20, 25)
	st.Enemies = []models.Enemy{enemy}

	next, spawned, err := Apply(st, Effect{Kind: EffectDamage, EnemyID: enemy.ID, Amount: 25})
	require.NoError(t, err)

	require.Len(t, next.Enemies, 1)
	assert.Equal(t, 0, next.Enemies[0].Health, "overkill clamps to zero")

	// Death first, then the bounty: the splice order the player sees.
	require.Len(t, spawned, 2)
	assert.Equal(t, EffectEnemyDeath, spawned[0].Kind)
	assert.Equal(t, enemy.ID, spawned[0].EnemyID)
	assert.Equal(t, EffectGoldGain, spawned[1].Kind)
	assert.Equal(t, 25, spawned[1].Amount)
}

func TestApplyDamageNonLethal(t *testing.T) {
	st := baseState()
	enemy := models.NewEnemy("Jaw Worm", 20, 25)
	st.Enemies = []models.Enemy{enemy}

	next, spawned, err := Apply(st, Effect{Kind: EffectDamage, EnemyID: enemy.ID, Amount: 6})
	require.NoError(t, err)
	assert.Empty(t, spawned)
	assert.Equal(t, 14, next.Enemies[0].Health)
}

func TestApplyDamageDoesNotDoubleKill(t *testing.T) {
	st := baseState()
	enemy := models.NewEnemy("Jaw Worm", 20, 25)
	enemy.Health = 0
	st.Enemies = []models.Enemy{enemy}

	_, spawned, err := Apply(st, Effect{Kind: EffectDamage, EnemyID: enemy.ID, Amount: 5})
	require.NoError(t, err)
	assert.Empty(t, spawned, "an already-dead enemy must not spawn a second reward")
}

func TestApplyEnemyDeathRemoves(t *testing.T) {
	st := baseState()
	a := models.NewEnemy("Cultist", 10, 5)
	b := models.NewEnemy("Jaw Worm", 20, 25)
	st.Enemies = []models.Enemy{a, b}

	next, spawned, err := Apply(st, Effect{Kind: EffectEnemyDeath, EnemyID: a.ID})
	require.NoError(t, err)
	assert.Empty(t, spawned)
	require.Len(t, next.Enemies, 1)
	assert.Equal(t, b.ID, next.Enemies[0].ID)
}

func TestApplyAddToHandMintsDeterministicIDs(t *testing.T) {
	st := baseState()

	first, _, err := Apply(st, Effect{Kind: EffectAddToHand, CardName: "Shiv", Amount: 3})
	require.NoError(t, err)
	second, _, err := Apply(st, Effect{Kind: EffectAddToHand, CardName: "Shiv", Amount: 3})
	require.NoError(t, err)

	require.Len(t, first.Hand, 8)
	assert.Equal(t, Fingerprint(first), Fingerprint(second),
		"creation must be reproducible for replay")
	assert.Equal(t, 3, first.CardSerial)

	seen := map[uuid.UUID]bool{}
	for _, c := range first.Hand {
		assert.False(t, seen[c.ID], "no two card instances share an identifier")
		seen[c.ID] = true
	}
}

func TestApplyResourceBounds(t *testing.T) {
	st := baseState()

	next, _, err := Apply(st, Effect{Kind: EffectEnergySpend, Amount: 99})
	require.NoError(t, err)
	assert.Equal(t, 0, next.Player.Energy)

	next, _, err = Apply(st, Effect{Kind: EffectEnergyGain, Amount: 99})
	require.NoError(t, err)
	assert.Equal(t, st.Player.MaxEnergy, next.Player.Energy)

	next, _, err = Apply(st, Effect{Kind: EffectHeal, Amount: 99})
	require.NoError(t, err)
	assert.Equal(t, st.Player.MaxHealth, next.Player.Health)

	next, _, err = Apply(st, Effect{Kind: EffectPlayerDamage, Amount: 999})
	require.NoError(t, err)
	assert.Equal(t, 0, next.Player.Health)

	next, _, err = Apply(st, Effect{Kind: EffectGoldGain, Amount: 25})
	require.NoError(t, err)
	assert.Equal(t, 25, next.Player.Gold)
}

func TestApplyUnknownKind(t *testing.T) {
	_, _, err := Apply(baseState(), Effect{Kind: "polymorph"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStaleEffectTarget)
}
