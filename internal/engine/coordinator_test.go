// internal/engine/coordinator_test.go
package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/spireline/internal/models"
)

// recordingAdapter registers an instant handler for every kind and collects
// what it was shown, in order.
type recordingAdapter struct {
	mu   sync.Mutex
	seen []Effect
	// handInvariantOK tracks the pre/post-commit contract: pre-commit card
	// moves must still see their card in hand, post-commit additions must
	// already see the new cards.
	handInvariantOK bool
}

func newRecordingAdapter() (*Adapter, *recordingAdapter) {
	rec := &recordingAdapter{handInvariantOK: true}
	a := NewAdapter()
	a.RegisterAll(func(_ context.Context, eff Effect, st GameState) error {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.seen = append(rec.seen, eff)
		switch eff.Kind {
		case EffectDiscard, EffectExhaust:
			if st.HandIndex(eff.CardID) < 0 {
				rec.handInvariantOK = false
			}
		case EffectAddToHand:
			found := 0
			for _, c := range st.Hand {
				if c.Name == eff.CardName {
					found++
				}
			}
			if found < eff.Amount {
				rec.handInvariantOK = false
			}
		}
		return nil
	})
	return a, rec
}

// Scenario: five known cards, discard two at random.
func TestRunDiscardRandomScenario(t *testing.T) {
	st := baseState()
	action := Action{Kind: ActionDiscardRandom, Amount: 2}
	const seed = 11

	final, err := RunAction(st, action, seed)
	require.NoError(t, err)

	assert.Len(t, final.Hand, 3)
	assert.Len(t, final.DiscardPile, 2)
	assert.Equal(t, st.TotalCards(), final.TotalCards())

	again, err := RunAction(st, action, seed)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(final), Fingerprint(again),
		"same (state, action, seed) must reach the same final state")
}

// Scenario: Red Horse discards two, adds three Shivs; 5 - 2 + 3 = 6 in hand.
func TestRunRedHorseScenario(t *testing.T) {
	st := baseState()
	horse := models.Card{ID: uuid.New(), Name: "Red Horse", Cost: 1}
	st.Hand = append(st.Hand, horse)

	adapter, rec := newRecordingAdapter()
	c := NewCoordinator(adapter, nil)
	final, applied, err := c.Run(context.Background(), st, Action{Kind: ActionPlayCard, CardID: horse.ID}, 5)
	require.NoError(t, err)

	assert.Len(t, final.Hand, 6)
	assert.Len(t, final.DiscardPile, 3) // the horse plus its two picks

	shivs := 0
	for _, card := range final.Hand {
		if card.Name == "Shiv" {
			shivs++
			assert.Equal(t, 0, card.Cost)
		}
	}
	assert.Equal(t, 3, shivs)

	// Every discard precedes the addition, in the applied log and on screen.
	kinds := effectKinds(applied)
	lastDiscard, addIdx := -1, -1
	for i, k := range kinds {
		if k == EffectDiscard {
			lastDiscard = i
		}
		if k == EffectAddToHand {
			addIdx = i
		}
	}
	require.GreaterOrEqual(t, addIdx, 0)
	assert.Less(t, lastDiscard, addIdx)
	assert.Equal(t, kinds, effectKinds(rec.seen))
	assert.True(t, rec.handInvariantOK, "pre-commit effects present against the old state, post-commit against the new")
}

// Scenario: lethal damage spawns death then bounty, spliced right after the
// hit and before unrelated later effects.
func TestRunKillSplicesRewardAfterKill(t *testing.T) {
	st := baseState()
	lunge := models.Card{ID: uuid.New(), Name: "Reckless Lunge", Cost: 1}
	st.Hand = append(st.Hand, lunge)
	enemy := models.NewEnemy("Jaw Worm", 8, 25)
	st.Enemies = []models.Enemy{enemy}

	c := NewCoordinator(nil, nil)
	final, applied, err := c.Run(context.Background(), st,
		Action{Kind: ActionPlayCard, CardID: lunge.ID, TargetID: enemy.ID}, 3)
	require.NoError(t, err)

	assert.Empty(t, final.Enemies)
	assert.Equal(t, 25, final.Player.Gold)
	assert.Equal(t, 68, final.Player.Health, "the lunge's own recoil still lands after the reward")

	assert.Equal(t,
		[]EffectKind{
			EffectEnergySpend, EffectDiscard, EffectDamage,
			EffectEnemyDeath, EffectGoldGain, // spawned, immediately after their progenitor
			EffectPlayerDamage,
		},
		effectKinds(applied))
}

func TestRunPresentationIndependence(t *testing.T) {
	st := baseState()
	strike := models.Card{ID: uuid.New(), Name: "Strike", Cost: 1}
	st.Hand = append(st.Hand, strike)
	enemy := models.NewEnemy("Cultist", 20, 10)
	st.Enemies = []models.Enemy{enemy}

	actions := []Action{
		{Kind: ActionDiscardRandom, Amount: 2},
		{Kind: ActionPlayCard, CardID: strike.ID, TargetID: enemy.ID},
		{Kind: ActionEndTurn},
	}
	for i, action := range actions {
		seed := int64(100 + i)

		headless, err := RunAction(st, action, seed)
		require.NoError(t, err)

		adapter, _ := newRecordingAdapter()
		withUI, _, err := NewCoordinator(adapter, nil).Run(context.Background(), st, action, seed)
		require.NoError(t, err)

		assert.Equal(t, Fingerprint(headless), Fingerprint(withUI),
			"adapter presence must never change the final state")
	}
}

func TestRunAdapterTimeoutProceeds(t *testing.T) {
	st := baseState()
	adapter := NewAdapter()
	adapter.Register(EffectDiscard, func(ctx context.Context, _ Effect, _ GameState) error {
		<-ctx.Done() // a stuck animation
		return ctx.Err()
	})

	c := NewCoordinator(adapter, nil)
	c.SetWaitTimeout(10 * time.Millisecond)

	action := Action{Kind: ActionDiscardRandom, Amount: 2}
	start := time.Now()
	final, _, err := c.Run(context.Background(), st, action, 11)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	headless, err := RunAction(st, action, 11)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(headless), Fingerprint(final))
}

func TestRunSkipFastForwards(t *testing.T) {
	st := baseState()
	started := make(chan struct{}, 1)
	adapter := NewAdapter()
	adapter.Register(EffectDiscard, func(ctx context.Context, _ Effect, _ GameState) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return nil
	})

	c := NewCoordinator(adapter, nil)
	action := Action{Kind: ActionDiscardRandom, Amount: 2}

	type result struct {
		state GameState
		err   error
	}
	resCh := make(chan result, 1)
	go func() {
		final, _, err := c.Run(context.Background(), st, action, 11)
		resCh <- result{final, err}
	}()

	<-started
	c.Skip()

	select {
	case res := <-resCh:
		require.NoError(t, res.err)
		headless, err := RunAction(st, action, 11)
		require.NoError(t, err)
		assert.Equal(t, Fingerprint(headless), Fingerprint(res.state),
			"skip changes only suspension time, never state")
	case <-time.After(2 * time.Second):
		t.Fatal("skip did not release the run")
	}
}

func TestRunConcurrentRunViolation(t *testing.T) {
	st := baseState()
	started := make(chan struct{})
	release := make(chan struct{})
	adapter := NewAdapter()
	adapter.Register(EffectDiscard, func(_ context.Context, _ Effect, _ GameState) error {
		close(started)
		<-release
		return nil
	})

	c := NewCoordinator(adapter, nil)
	done := make(chan error, 1)
	go func() {
		_, _, err := c.Run(context.Background(), st, Action{Kind: ActionDiscardRandom, Amount: 1}, 1)
		done <- err
	}()

	<-started
	_, _, err := c.Run(context.Background(), st, Action{Kind: ActionDiscardRandom, Amount: 1}, 1)
	assert.ErrorIs(t, err, ErrConcurrentRun)

	close(release)
	require.NoError(t, <-done)
}

func TestRunResolverErrorLeavesStateUntouched(t *testing.T) {
	st := baseState()
	c := NewCoordinator(nil, nil)
	final, applied, err := c.Run(context.Background(), st, Action{Kind: "warp"}, 1)
	assert.ErrorIs(t, err, ErrUnknownActionKind)
	assert.Empty(t, applied)
	assert.Equal(t, Fingerprint(st), Fingerprint(final))
}

func TestRunConservationForMoveOnlyActions(t *testing.T) {
	st := baseState()
	st.DrawPile = []models.Card{namedCard("F"), namedCard("G")}

	for _, action := range []Action{
		{Kind: ActionDiscardRandom, Amount: 3},
		{Kind: ActionDrawCards, Amount: 2},
		{Kind: ActionEndTurn},
	} {
		final, err := RunAction(st, action, 9)
		require.NoError(t, err)
		assert.Equal(t, st.TotalCards(), final.TotalCards(),
			"move-only action %q must conserve total card count", action.Kind)
	}
}
