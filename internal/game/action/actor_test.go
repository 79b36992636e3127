package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/fightcore/internal/game/action"
)

func jab() *action.Action {
	return &action.Action{ID: "5LP", Input: "LP", Category: action.Normal, Requirements: []action.Requirement{action.Grounded()}, Script: []action.Block{
		{Exit: action.ExitAfter(4), Events: []action.Event{{Kind: action.EventAnimation, Name: "jab_startup"}}},
		{Exit: action.ExitAfter(2), Cancel: action.Window(action.Any), Events: []action.Event{{Kind: action.EventHitbox, Name: "jab", X: 40}}},
		{Exit: action.ExitAfter(6)},
	}}
}

func fireball() *action.Action {
	return &action.Action{ID: "hadoken", Input: "236LP", Category: action.Special, Script: []action.Block{
		{Exit: action.ExitAfter(12), Events: []action.Event{{Kind: action.EventAnimation, Name: "fireball"}}},
	}}
}

func exFireball() *action.Action {
	a := fireball()
	a.ID = "hadoken_ex"
	a.Input = "236LP+MP"
	a.Cost = action.Cost{{Resource: "meter", Amount: 100}}
	return a
}

func newActor(t *testing.T, actions ...*action.Action) *action.Actor {
	t.Helper()
	return action.NewActor("p1", mustCatalog(t, actions...), 6, zaptest.NewLogger(t))
}

func TestActor_IdleStartsTriggeredAction(t *testing.T) {
	a := newActor(t, jab())
	res := a.Step(params(0), []action.Trigger{{Action: "5LP", Frame: 0}})
	assert.Equal(t, action.ID("5LP"), res.Started)
	assert.Empty(t, res.Cancelled)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "jab_startup", res.Events[0].Name)
	require.NotNil(t, a.Tracker())
	assert.Equal(t, action.Frame(0), a.Tracker().StartFrame())
	assert.Equal(t, 0, a.Buffer().Len(), "the started trigger is consumed")
}

func TestActor_RunsToCompletion(t *testing.T) {
	a := newActor(t, jab())
	a.Step(params(0), []action.Trigger{{Action: "5LP", Frame: 0}})

	var completedAt action.Frame = -1
	for f := action.Frame(1); f <= 20 && completedAt < 0; f++ {
		res := a.Step(params(f), nil)
		if f == 4 {
			assert.Equal(t, action.StatusAdvanced, res.Advance)
			require.Len(t, res.Events, 1)
			assert.Equal(t, "jab", res.Events[0].Name)
		}
		if res.Completed != "" {
			completedAt = f
		}
	}
	assert.Equal(t, action.Frame(12), completedAt)
	assert.Nil(t, a.Tracker())
}

func TestActor_CancelIntoSpecial(t *testing.T) {
	a := newActor(t, jab(), fireball())
	a.Step(params(0), []action.Trigger{{Action: "5LP", Frame: 0}})

	res := a.Step(params(2), []action.Trigger{{Action: "hadoken", Frame: 2}})
	assert.Empty(t, res.Started, "startup frames are uncancellable")

	a.Step(params(3), nil)
	res = a.Step(params(4), nil)
	assert.Equal(t, action.ID("hadoken"), res.Started, "buffered input fires as the window opens")
	assert.Equal(t, action.ID("5LP"), res.Cancelled)
	assert.Equal(t, action.ID("hadoken"), a.Tracker().Action().ID)
}

func TestActor_ZeroEligibleOnlyAdvances(t *testing.T) {
	a := newActor(t, jab(), fireball())
	a.Step(params(0), []action.Trigger{{Action: "5LP", Frame: 0}})
	res := a.Step(params(1), []action.Trigger{{Action: "hadoken", Frame: 1}})
	assert.Empty(t, res.Started)
	assert.Equal(t, action.StatusRunning, res.Advance)
	assert.Equal(t, action.ID("5LP"), a.Tracker().Action().ID)
	assert.Equal(t, 0, a.Tracker().Index())
}

func TestActor_CostIsPaidAsEvents(t *testing.T) {
	a := newActor(t, exFireball())
	res := a.Step(params(0), []action.Trigger{{Action: "hadoken_ex", Frame: 0}})
	require.Equal(t, action.ID("hadoken_ex"), res.Started)
	require.Len(t, res.Events, 2)
	assert.Equal(t, action.Event{Kind: action.EventResourceDelta, Resource: "meter", Amount: -100}, res.Events[0])
	assert.Equal(t, 100, a.Tracker().Paid())
}

func TestActor_ExpiredTriggerNeverFires(t *testing.T) {
	a := newActor(t, jab())
	p := params(0)
	p.Grounded = false
	a.Step(p, []action.Trigger{{Action: "5LP", Frame: 0}})
	for f := action.Frame(1); f < 6; f++ {
		p.Frame = f
		a.Step(p, nil)
	}
	res := a.Step(params(6), nil)
	assert.Empty(t, res.Started, "with depth 6 the frame-0 trigger is gone at frame 6")
}

func TestActor_StaleTriggerNeverFires(t *testing.T) {
	for _, observed := range []action.Frame{94, 10} {
		a := newActor(t, jab())
		res := a.Step(params(100), []action.Trigger{{Action: "5LP", Frame: observed}})
		assert.Empty(t, res.Started, "a trigger from frame %d is expired at frame 100", observed)
		assert.Equal(t, 0, a.Buffer().Len())
	}

	a := newActor(t, jab())
	res := a.Step(params(100), []action.Trigger{{Action: "5LP", Frame: 95}})
	assert.Equal(t, action.ID("5LP"), res.Started, "five frames old is still inside depth 6")
}

func TestActor_BackwardClockDropsBufferedInput(t *testing.T) {
	a := newActor(t, jab())
	p := params(100)
	p.Grounded = false
	a.Step(p, []action.Trigger{{Action: "5LP", Frame: 100}})
	p.Frame = 103
	a.Step(p, nil)
	require.Equal(t, 1, a.Buffer().Len())

	res := a.Step(params(101), nil)
	assert.Empty(t, res.Started, "a round reset discards input buffered before it")
	assert.Equal(t, 0, a.Buffer().Len())
}

func TestActor_FutureTriggerIgnored(t *testing.T) {
	a := newActor(t, jab())
	res := a.Step(params(0), []action.Trigger{{Action: "5LP", Frame: 3}})
	assert.Empty(t, res.Started)
	assert.Equal(t, 0, a.Buffer().Len())
}

func TestActor_UnknownTriggerPanics(t *testing.T) {
	a := newActor(t, jab())
	assert.Panics(t, func() { a.Step(params(0), []action.Trigger{{Action: "ghost", Frame: 0}}) })
}

func TestActor_RekkaBranchForcesFollowUp(t *testing.T) {
	ken, err := action.LoadCharacterFile("../../../content/moves/ken.yaml")
	require.NoError(t, err)
	a := action.NewActor("ken", ken.Catalog, 6, zaptest.NewLogger(t))

	res := a.Step(params(0), []action.Trigger{{Action: "rekka_1", Frame: 0}})
	require.Equal(t, action.ID("rekka_1"), res.Started)
	for f := action.Frame(1); f < 13; f++ {
		a.Step(params(f), nil)
	}

	held := params(13)
	held.Held = action.ButtonLP
	res = a.Step(held, nil)
	assert.Equal(t, action.StatusBranched, res.Advance)
	_, pending := a.Buffer().Pending()
	assert.True(t, pending)

	res = a.Step(params(14), nil)
	assert.Equal(t, action.ID("rekka_2"), res.Started)
	assert.True(t, res.Forced)
	assert.Equal(t, action.ID("rekka_1"), res.Cancelled)
}

func TestActor_RegisterHitIdleIsNoop(t *testing.T) {
	a := newActor(t, jab())
	assert.NotPanics(t, a.RegisterHit)
}

func TestActor_SaveRestoreReplays(t *testing.T) {
	a := newActor(t, jab(), fireball())
	a.Step(params(0), []action.Trigger{{Action: "5LP", Frame: 0}})
	a.Step(params(1), nil)
	snap := a.Save()

	script := func() []action.FrameResult {
		var out []action.FrameResult
		for f := action.Frame(2); f <= 18; f++ {
			var trig []action.Trigger
			if f == 3 {
				trig = []action.Trigger{{Action: "hadoken", Frame: 3}}
			}
			out = append(out, a.Step(params(f), trig))
		}
		return out
	}
	first := script()
	a.Restore(snap)
	second := script()
	assert.Equal(t, first, second)

	a.Restore(snap)
	require.NotNil(t, a.Tracker())
	assert.Equal(t, action.ID("5LP"), a.Tracker().Action().ID)
}
