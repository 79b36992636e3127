package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/fightcore/internal/game/action"
)

func withSpeed(frame action.Frame, speed int) action.Situation {
	p := params(frame)
	p.Stats.ActionSpeed = speed
	return action.NewSituation(p, nil)
}

func TestExit_EffectiveFramesTruncates(t *testing.T) {
	e := action.ExitAfter(10)
	assert.Equal(t, 10, e.EffectiveFrames(withSpeed(0, 0)), "zero speed means normal")
	assert.Equal(t, 10, e.EffectiveFrames(withSpeed(0, 1000)))
	assert.Equal(t, 6, e.EffectiveFrames(withSpeed(0, 1500)), "10/1.5 truncates to 6")
	assert.Equal(t, 20, e.EffectiveFrames(withSpeed(0, 500)))
	assert.Equal(t, 14, e.EffectiveFrames(withSpeed(0, 700)), "10/0.7 truncates to 14")
}

func TestExit_NeverFires(t *testing.T) {
	e := action.ExitNever()
	for f := action.Frame(0); f < 10000; f += 997 {
		assert.False(t, e.Satisfied(sit(f), 0))
	}
}

func TestExit_Time(t *testing.T) {
	e := action.ExitAfter(10)
	assert.False(t, e.Satisfied(sit(109), 100))
	assert.True(t, e.Satisfied(sit(110), 100))
}

func TestExit_Condition(t *testing.T) {
	e := action.ExitWhen(action.Airborne())
	assert.False(t, e.Satisfied(sit(5), 0))
	p := params(5)
	p.Grounded = false
	assert.True(t, e.Satisfied(action.NewSituation(p, nil), 0))
}

// Property: scaling is monotone in speed and never exceeds the unscaled
// length when the actor is at least normal speed.
func TestPropertyExit_ScalingMonotone(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 600).Draw(rt, "frames")
		slow := rapid.IntRange(1, 3000).Draw(rt, "slow")
		fast := rapid.IntRange(slow, 3000).Draw(rt, "fast")
		e := action.ExitAfter(n)
		a := e.EffectiveFrames(withSpeed(0, slow))
		b := e.EffectiveFrames(withSpeed(0, fast))
		if b > a {
			rt.Fatalf("faster speed %d gave longer block %d than %d at %d", fast, b, a, slow)
		}
		if fast >= action.SpeedUnit && b > n {
			rt.Fatalf("speed %d lengthened block from %d to %d", fast, n, b)
		}
	})
}

func TestMutator_MirrorFacing(t *testing.T) {
	b := action.Block{
		Events: []action.Event{
			{Kind: action.EventMovement, X: 8},
			{Kind: action.EventHitbox, Name: "hb", X: 40},
			{Kind: action.EventAnimation, Name: "anim", X: 3},
		},
		Mutator: action.MutateMirrorFacing,
	}
	p := params(0)
	p.Facing = action.FacingLeft
	out := b.Mutator.Apply(b, action.NewSituation(p, nil))

	assert.Equal(t, -8, out.Events[0].X)
	assert.Equal(t, -40, out.Events[1].X)
	assert.Equal(t, 3, out.Events[2].X, "animation events are not mirrored")
	assert.Equal(t, 8, b.Events[0].X, "source block must be untouched")

	right := b.Mutator.Apply(b, sit(0))
	assert.Equal(t, 8, right.Events[0].X)
}

func TestMutator_FollowStick(t *testing.T) {
	b := action.Block{
		Events:  []action.Event{{Kind: action.EventMovement, X: 20}},
		Mutator: action.MutateFollowStick,
	}
	p := params(0)
	p.Stick = 4
	assert.Equal(t, -20, b.Mutator.Apply(b, action.NewSituation(p, nil)).Events[0].X)
	p.Stick = 9
	assert.Equal(t, 20, b.Mutator.Apply(b, action.NewSituation(p, nil)).Events[0].X)
	p.Stick = 5
	assert.Equal(t, 0, b.Mutator.Apply(b, action.NewSituation(p, nil)).Events[0].X)
}

func TestParseMutator(t *testing.T) {
	for _, m := range []action.Mutator{action.MutateNone, action.MutateMirrorFacing, action.MutateFollowStick} {
		got, ok := action.ParseMutator(m.String())
		require.True(t, ok)
		assert.Equal(t, m, got)
	}
	_, ok := action.ParseMutator("spin")
	assert.False(t, ok)
}

func TestAction_PhasePastEndPanics(t *testing.T) {
	a := &action.Action{ID: "5LP", Script: []action.Block{action.Wait(3, nil)}}
	assert.NotPanics(t, func() { a.Phase(0) })
	assert.Panics(t, func() { a.Phase(1) })
	assert.Panics(t, func() { a.Phase(-1) })
}

func TestInputComplexity(t *testing.T) {
	cases := map[string]int{
		"":         0,
		"LP":       1,
		"6HP":      2,
		"236LP":    4,
		"236236LP": 7,
		"236LP+MP": 5,
		"[4]6HP":   4,
		"5LP":      1,
		"8":        1,
	}
	for in, want := range cases {
		assert.Equal(t, want, action.InputComplexity(in), "input %q", in)
	}
}

func TestEvent_String(t *testing.T) {
	assert.Equal(t, "movement(-8,0)", action.Event{Kind: action.EventMovement, X: -8}.String())
	assert.Equal(t, "resource_delta(meter,-100)", action.Event{Kind: action.EventResourceDelta, Resource: "meter", Amount: -100}.String())
	assert.Equal(t, "sound(voice)", action.Event{Kind: action.EventSound, Name: "voice"}.String())
}
