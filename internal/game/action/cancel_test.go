package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/fightcore/internal/game/action"
)

var orderedLevels = []action.Level{
	action.Uncancellable,
	action.Normal,
	action.CommandNormal,
	action.Special,
	action.Super,
	action.Any,
}

func TestLevel_StringAndParse(t *testing.T) {
	for _, l := range append(orderedLevels, action.Everything) {
		got, err := action.ParseLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	never, err := action.ParseLevel("never")
	require.NoError(t, err)
	assert.Equal(t, action.Uncancellable, never)

	_, err = action.ParseLevel("ultra")
	assert.Error(t, err)
}

func TestCancelRule_SameLevelRejected(t *testing.T) {
	rule := action.CancelRule{Level: action.Special}
	assert.False(t, rule.CanCancel(false, action.Target{ID: "fireball", Level: action.Special}))
	assert.True(t, rule.CanCancel(false, action.Target{ID: "cmd", Level: action.CommandNormal}))
	assert.False(t, rule.CanCancel(false, action.Target{ID: "super", Level: action.Super}))
}

func TestCancelRule_Uncancellable(t *testing.T) {
	rule := action.CancelRule{Level: action.Uncancellable}
	for _, l := range append(orderedLevels, action.Everything) {
		assert.False(t, rule.CanCancel(true, action.Target{Level: l}), "level %s", l)
	}
}

func TestCancelRule_RequiresHit(t *testing.T) {
	rule := action.CancelRule{Level: action.Any, RequiresHit: true}
	target := action.Target{ID: "x", Level: action.Special}
	assert.False(t, rule.CanCancel(false, target))
	assert.True(t, rule.CanCancel(true, target))
}

func TestCancelRule_Specific(t *testing.T) {
	rule := action.CancelRule{Specific: []action.ID{"5LP", "5MP"}}
	assert.True(t, rule.CanCancel(false, action.Target{ID: "5MP", Level: action.Super}))
	assert.False(t, rule.CanCancel(false, action.Target{ID: "6HP", Level: action.Normal}))
	assert.True(t, rule.CanCancel(false, action.AnyTarget))
}

func TestCancelRule_EverythingTarget(t *testing.T) {
	assert.True(t, action.CancelRule{Level: action.Normal}.CanCancel(false, action.AnyTarget))
	assert.False(t, action.CancelRule{Level: action.Uncancellable}.CanCancel(false, action.AnyTarget))
}

func TestCancelPolicy_AnyRulePermits(t *testing.T) {
	p := action.CancelPolicy{
		{Level: action.Special, RequiresHit: true},
		{Specific: []action.ID{"dash"}},
	}
	assert.True(t, p.CanCancel(false, action.Target{ID: "dash", Level: action.Super}))
	assert.False(t, p.CanCancel(false, action.Target{ID: "5LP", Level: action.Normal}))
	assert.True(t, p.CanCancel(true, action.Target{ID: "5LP", Level: action.Normal}))
	assert.False(t, action.Never().CanCancel(true, action.AnyTarget))
}

// Property: a level window admits a target iff the window is strictly above it.
func TestPropertyCancelRule_StrictlyGreater(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.SampledFrom(orderedLevels).Draw(rt, "window")
		c := rapid.SampledFrom(orderedLevels).Draw(rt, "candidate")
		hit := rapid.Bool().Draw(rt, "hit")
		got := action.CancelRule{Level: w}.CanCancel(hit, action.Target{ID: "c", Level: c})
		want := w != action.Uncancellable && w > c
		if got != want {
			rt.Fatalf("window %s candidate %s: got %v want %v", w, c, got, want)
		}
	})
}

func TestTierAllows(t *testing.T) {
	meter := action.Cost{{Resource: "meter", Amount: 100}}
	assert.False(t, action.TierAllows(action.Normal, 0, action.Normal, nil))
	assert.True(t, action.TierAllows(action.Normal, 0, action.Normal, meter))
	assert.False(t, action.TierAllows(action.Special, 100, action.Special, meter))
	assert.True(t, action.TierAllows(action.Normal, 0, action.Special, nil))
	assert.False(t, action.TierAllows(action.Special, 0, action.Normal, nil))
}
